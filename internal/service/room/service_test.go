package room

import (
	"context"
	"strings"
	"testing"
	"time"

	"huddle_chat_server/internal/dao/storetest"
	"huddle_chat_server/internal/dto/request"
	"huddle_chat_server/pkg/constants"
	"huddle_chat_server/pkg/errorx"
)

func TestCreateRoomValidation(t *testing.T) {
	svc := NewRoomService(storetest.NewMemoryStore(), 0)
	ctx := context.Background()

	cases := []struct {
		name string
		req  request.CreateRoomRequest
	}{
		{"空房间名", request.CreateRoomRequest{Name: ""}},
		{"全空白房间名", request.CreateRoomRequest{Name: "   "}},
		{"超长房间名", request.CreateRoomRequest{Name: strings.Repeat("房", 101)}},
		{"容量超上限", request.CreateRoomRequest{Name: "ok", MaxOccupancy: 201}},
		{"容量为负", request.CreateRoomRequest{Name: "ok", MaxOccupancy: -1}},
	}
	for _, tc := range cases {
		if _, err := svc.CreateRoom(ctx, tc.req); errorx.GetCode(err) != errorx.CodeInvalidRoom {
			t.Fatalf("%s: 应返回 CodeInvalidRoom, got %v", tc.name, err)
		}
	}
}

func TestCreateRoomDefaults(t *testing.T) {
	svc := NewRoomService(storetest.NewMemoryStore(), 0)
	rsp, err := svc.CreateRoom(context.Background(), request.CreateRoomRequest{Name: " 大厅 "})
	if err != nil {
		t.Fatal(err)
	}
	if rsp.Name != "大厅" {
		t.Fatalf("房间名应去除首尾空白, got %q", rsp.Name)
	}
	if rsp.MaxOccupancy != constants.DEFAULT_MAX_OCCUPANCY {
		t.Fatalf("未指定容量应用默认值 %d, got %d", constants.DEFAULT_MAX_OCCUPANCY, rsp.MaxOccupancy)
	}
	if !strings.HasPrefix(rsp.RoomId, "R") {
		t.Fatalf("房间 ID 应以 R 开头, got %s", rsp.RoomId)
	}
}

func TestCreateRoomConfiguredDefaultOccupancy(t *testing.T) {
	svc := NewRoomService(storetest.NewMemoryStore(), 7)
	rsp, err := svc.CreateRoom(context.Background(), request.CreateRoomRequest{Name: "大厅"})
	if err != nil {
		t.Fatal(err)
	}
	if rsp.MaxOccupancy != 7 {
		t.Fatalf("未指定容量应用配置的默认值 7, got %d", rsp.MaxOccupancy)
	}
}

func TestGetRoomNotFound(t *testing.T) {
	svc := NewRoomService(storetest.NewMemoryStore(), 0)
	if _, err := svc.GetRoom(context.Background(), "R-missing"); errorx.GetCode(err) != errorx.CodeRoomNotFound {
		t.Fatalf("不存在的房间应返回 CodeRoomNotFound, got %v", err)
	}
}

func TestListRoomsFilterAndOrder(t *testing.T) {
	svc := NewRoomService(storetest.NewMemoryStore(), 0)
	ctx := context.Background()

	first, err := svc.CreateRoom(ctx, request.CreateRoomRequest{Name: "公开大厅"})
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond) // 保证创建时间可区分
	if _, err := svc.CreateRoom(ctx, request.CreateRoomRequest{Name: "私密房", IsPrivate: true}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	third, err := svc.CreateRoom(ctx, request.CreateRoomRequest{Name: "公开茶室"})
	if err != nil {
		t.Fatal(err)
	}

	all, err := svc.ListRooms(ctx, request.ListRoomsRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("应返回 3 个房间, got %d", len(all))
	}
	if all[0].RoomId != third.RoomId {
		t.Fatal("列表应按创建时间倒序，最新的在前")
	}

	publicOnly, err := svc.ListRooms(ctx, request.ListRoomsRequest{PublicOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(publicOnly) != 2 {
		t.Fatalf("publicOnly 应过滤私有房间, got %d", len(publicOnly))
	}

	searched, err := svc.ListRooms(ctx, request.ListRoomsRequest{Search: "大厅"})
	if err != nil {
		t.Fatal(err)
	}
	if len(searched) != 1 || searched[0].RoomId != first.RoomId {
		t.Fatalf("名称过滤结果不符, got %v", searched)
	}
}

func TestUpdateRoom(t *testing.T) {
	svc := NewRoomService(storetest.NewMemoryStore(), 0)
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, request.CreateRoomRequest{Name: "old", MaxOccupancy: 10})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.UpdateRoom(ctx, request.UpdateRoomRequest{RoomId: created.RoomId, Name: "new", MaxOccupancy: 20}); err != nil {
		t.Fatal(err)
	}
	room, err := svc.GetRoom(ctx, created.RoomId)
	if err != nil {
		t.Fatal(err)
	}
	if room.Name != "new" || room.MaxOccupancy != 20 {
		t.Fatalf("更新未生效: %+v", room)
	}

	if err := svc.UpdateRoom(ctx, request.UpdateRoomRequest{RoomId: "R-missing", Name: "x"}); errorx.GetCode(err) != errorx.CodeRoomNotFound {
		t.Fatalf("更新不存在的房间应返回 CodeRoomNotFound, got %v", err)
	}
}

func TestUpdateOccupancyIdempotent(t *testing.T) {
	svc := NewRoomService(storetest.NewMemoryStore(), 0)
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, request.CreateRoomRequest{Name: "room"})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.UpdateOccupancy(ctx, created.RoomId, 3); err != nil {
		t.Fatal(err)
	}
	// 相同的值重复刷新应为无副作用的成功
	if err := svc.UpdateOccupancy(ctx, created.RoomId, 3); err != nil {
		t.Fatal(err)
	}
	room, err := svc.GetRoom(ctx, created.RoomId)
	if err != nil {
		t.Fatal(err)
	}
	if room.OccupancyCount != 3 {
		t.Fatalf("占用计数应为 3, got %d", room.OccupancyCount)
	}
}

func TestDeleteRoom(t *testing.T) {
	store := storetest.NewMemoryStore()
	svc := NewRoomService(store, 0)
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, request.CreateRoomRequest{Name: "room"})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.AddToSet(ctx, "room_members_"+created.RoomId, "S1"); err != nil {
		t.Fatal(err)
	}
	if err := store.PushToList(ctx, "room_history_"+created.RoomId, "M1"); err != nil {
		t.Fatal(err)
	}

	existed, err := svc.DeleteRoom(ctx, created.RoomId)
	if err != nil {
		t.Fatal(err)
	}
	if !existed {
		t.Fatal("删除已存在的房间应返回 true")
	}
	if _, err := svc.GetRoom(ctx, created.RoomId); errorx.GetCode(err) != errorx.CodeRoomNotFound {
		t.Fatalf("删除后房间应不存在, got %v", err)
	}
	count, err := store.CountSet(ctx, "room_members_"+created.RoomId)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatal("删除房间应清空成员集合")
	}
	// 历史不级联删除，索引留给保留期淘汰
	histLen, err := store.ListLen(ctx, "room_history_"+created.RoomId)
	if err != nil {
		t.Fatal(err)
	}
	if histLen != 1 {
		t.Fatalf("删除房间不应级联删除历史索引, got %d", histLen)
	}

	// 重复删除返回 false
	existed, err = svc.DeleteRoom(ctx, created.RoomId)
	if err != nil {
		t.Fatal(err)
	}
	if existed {
		t.Fatal("重复删除应返回 false")
	}
}
