package chat

import (
	"context"
	"encoding/json"
	"testing"

	"huddle_chat_server/internal/dao/storetest"
	"huddle_chat_server/internal/dto/request"
	"huddle_chat_server/internal/service"
	"huddle_chat_server/internal/service/coordinator"
	"huddle_chat_server/internal/service/messagelog"
	"huddle_chat_server/internal/service/registry"
	"huddle_chat_server/internal/service/room"
)

// newTestDispatcher 用内存存储装配完整的服务栈
// 连接表为空：推送会被静默丢弃，测试只断言存储侧的状态变化
func newTestDispatcher() (*EventDispatcher, *storetest.MemoryStore, *service.Services) {
	store := storetest.NewMemoryStore()
	registrySvc := registry.NewRegistryService(store, 0)
	roomSvc := room.NewRoomService(store, 0)
	messageSvc := messagelog.NewMessageLogService(store, 0, 0, 0)
	coordinatorSvc := coordinator.NewCoordinatorService(store, registrySvc, roomSvc, messageSvc, 50)

	svcs := &service.Services{
		Registry:    registrySvc,
		Room:        roomSvc,
		Coordinator: coordinatorSvc,
		MessageLog:  messageSvc,
	}
	dispatcher := NewEventDispatcher(NewClientHub(), svcs.Registry, svcs.Coordinator, svcs.MessageLog, store)
	coordinatorSvc.SetNotifier(dispatcher)
	return dispatcher, store, svcs
}

func mustDispatch(t *testing.T, d *EventDispatcher, event request.ClientEvent) {
	t.Helper()
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatal(err)
	}
	d.Dispatch(data)
}

func TestDispatchAuthenticate(t *testing.T) {
	dispatcher, _, svcs := newTestDispatcher()

	mustDispatch(t, dispatcher, request.ClientEvent{
		Event:        request.EventAuthenticate,
		DisplayName:  "alice",
		ConnectionId: "conn-1",
	})

	session, err := svcs.Registry.LookupByConnection(context.Background(), "conn-1")
	if err != nil {
		t.Fatal(err)
	}
	if session.DisplayName != "alice" || !session.IsOnline {
		t.Fatalf("认证后会话状态不符: %+v", session)
	}
}

func TestDispatchJoinAndSendMessage(t *testing.T) {
	dispatcher, _, svcs := newTestDispatcher()
	ctx := context.Background()

	mustDispatch(t, dispatcher, request.ClientEvent{
		Event:        request.EventAuthenticate,
		DisplayName:  "alice",
		ConnectionId: "conn-1",
	})
	created, err := svcs.Room.CreateRoom(ctx, request.CreateRoomRequest{Name: "大厅"})
	if err != nil {
		t.Fatal(err)
	}

	mustDispatch(t, dispatcher, request.ClientEvent{
		Event:        request.EventJoinRoom,
		RoomId:       created.RoomId,
		ConnectionId: "conn-1",
	})
	session, err := svcs.Registry.LookupByConnection(ctx, "conn-1")
	if err != nil {
		t.Fatal(err)
	}
	if session.CurrentRoomId != created.RoomId {
		t.Fatalf("加入后房间指针不符: %q", session.CurrentRoomId)
	}

	mustDispatch(t, dispatcher, request.ClientEvent{
		Event:        request.EventSendMessage,
		Content:      "hello",
		ConnectionId: "conn-1",
	})
	// 加入时的系统消息 + 刚发送的文本消息
	count, err := svcs.MessageLog.Count(ctx, created.RoomId)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("历史索引长度应为 2, got %d", count)
	}
	page, err := svcs.MessageLog.Page(ctx, created.RoomId, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	last := page[len(page)-1]
	if last.Content != "hello" || last.SenderSessionId != session.SessionId {
		t.Fatalf("文本消息不符: %+v", last)
	}
}

func TestDispatchDisconnect(t *testing.T) {
	dispatcher, store, svcs := newTestDispatcher()
	ctx := context.Background()

	mustDispatch(t, dispatcher, request.ClientEvent{
		Event:        request.EventAuthenticate,
		DisplayName:  "alice",
		ConnectionId: "conn-1",
	})
	created, err := svcs.Room.CreateRoom(ctx, request.CreateRoomRequest{Name: "大厅"})
	if err != nil {
		t.Fatal(err)
	}
	mustDispatch(t, dispatcher, request.ClientEvent{
		Event:        request.EventJoinRoom,
		RoomId:       created.RoomId,
		ConnectionId: "conn-1",
	})
	session, err := svcs.Registry.LookupByConnection(ctx, "conn-1")
	if err != nil {
		t.Fatal(err)
	}

	mustDispatch(t, dispatcher, request.ClientEvent{
		Event:        request.EventDisconnect,
		ConnectionId: "conn-1",
	})
	inRoom, err := store.IsSetMember(ctx, "room_members_"+created.RoomId, session.SessionId)
	if err != nil {
		t.Fatal(err)
	}
	if inRoom {
		t.Fatal("断开后应离开房间")
	}
	got, err := svcs.Registry.GetSession(ctx, session.SessionId)
	if err != nil {
		t.Fatal(err)
	}
	if got.IsOnline {
		t.Fatal("断开后应标记离线")
	}

	// 未认证连接的断开与重复断开都不应出错
	mustDispatch(t, dispatcher, request.ClientEvent{
		Event:        request.EventDisconnect,
		ConnectionId: "conn-1",
	})
	mustDispatch(t, dispatcher, request.ClientEvent{
		Event:        request.EventDisconnect,
		ConnectionId: "conn-unknown",
	})
}

func TestDispatchUnauthenticatedOperations(t *testing.T) {
	dispatcher, _, svcs := newTestDispatcher()
	ctx := context.Background()

	created, err := svcs.Room.CreateRoom(ctx, request.CreateRoomRequest{Name: "大厅"})
	if err != nil {
		t.Fatal(err)
	}
	// 未认证的 join/send/typing 不应 panic，也不应产生任何状态变化
	mustDispatch(t, dispatcher, request.ClientEvent{
		Event:        request.EventJoinRoom,
		RoomId:       created.RoomId,
		ConnectionId: "conn-x",
	})
	mustDispatch(t, dispatcher, request.ClientEvent{
		Event:        request.EventSendMessage,
		Content:      "hi",
		ConnectionId: "conn-x",
	})
	mustDispatch(t, dispatcher, request.ClientEvent{
		Event:        request.EventStartTyping,
		ConnectionId: "conn-x",
	})

	count, err := svcs.MessageLog.Count(ctx, created.RoomId)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("未认证操作不应写入消息, got %d", count)
	}
	members, err := svcs.Coordinator.ListMembers(ctx, created.RoomId)
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 0 {
		t.Fatalf("未认证操作不应加入房间, got %v", members)
	}
}
