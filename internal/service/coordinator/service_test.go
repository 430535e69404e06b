package coordinator

import (
	"context"
	"encoding/json"
	"testing"

	"huddle_chat_server/internal/dao/storetest"
	"huddle_chat_server/internal/dto/request"
	"huddle_chat_server/internal/dto/respond"
	"huddle_chat_server/internal/model"
	"huddle_chat_server/internal/service/messagelog"
	"huddle_chat_server/internal/service/registry"
	"huddle_chat_server/internal/service/room"
	"huddle_chat_server/pkg/errorx"
)

// recordedEvent 记录一次广播调用
type recordedEvent struct {
	RoomId  string
	Event   string
	Exclude string
}

// recordingNotifier 测试用广播器，记录所有推送
type recordingNotifier struct {
	events []recordedEvent
}

func (n *recordingNotifier) BroadcastToRoom(roomId string, payload []byte, excludeConnId string) {
	var ev respond.ServerEvent
	_ = json.Unmarshal(payload, &ev)
	n.events = append(n.events, recordedEvent{RoomId: roomId, Event: ev.Event, Exclude: excludeConnId})
}

func (n *recordingNotifier) countByEvent(event string) int {
	count := 0
	for _, ev := range n.events {
		if ev.Event == event {
			count++
		}
	}
	return count
}

func newFixture() (*storetest.MemoryStore, *recordingNotifier, *coordinatorService, func(displayName, connId string) *model.Session, func(name string, maxOccupancy int) string) {
	store := storetest.NewMemoryStore()
	registrySvc := registry.NewRegistryService(store, 0)
	roomSvc := room.NewRoomService(store, 0)
	messageSvc := messagelog.NewMessageLogService(store, 0, 0, 0)
	coordinatorSvc := NewCoordinatorService(store, registrySvc, roomSvc, messageSvc, 50)
	notifier := &recordingNotifier{}
	coordinatorSvc.SetNotifier(notifier)

	ctx := context.Background()
	mustSession := func(displayName, connId string) *model.Session {
		session, err := registrySvc.UpsertSession(ctx, displayName, connId)
		if err != nil {
			panic(err)
		}
		return session
	}
	mustRoom := func(name string, maxOccupancy int) string {
		created, err := roomSvc.CreateRoom(ctx, request.CreateRoomRequest{Name: name, MaxOccupancy: maxOccupancy})
		if err != nil {
			panic(err)
		}
		return created.RoomId
	}
	return store, notifier, coordinatorSvc, mustSession, mustRoom
}

func TestJoinFailureOrdering(t *testing.T) {
	_, _, svc, mustSession, mustRoom := newFixture()
	ctx := context.Background()

	// 未认证优先于房间不存在
	if _, err := svc.Join(ctx, "S-missing", "R-missing"); errorx.GetCode(err) != errorx.CodeNotAuthenticated {
		t.Fatalf("未认证应返回 CodeNotAuthenticated, got %v", err)
	}

	alice := mustSession("alice", "conn-a")
	if _, err := svc.Join(ctx, alice.SessionId, "R-missing"); errorx.GetCode(err) != errorx.CodeRoomNotFound {
		t.Fatalf("未知房间应返回 CodeRoomNotFound, got %v", err)
	}

	roomId := mustRoom("小房间", 1)
	if _, err := svc.Join(ctx, alice.SessionId, roomId); err != nil {
		t.Fatal(err)
	}
	bob := mustSession("bob", "conn-b")
	if _, err := svc.Join(ctx, bob.SessionId, roomId); errorx.GetCode(err) != errorx.CodeRoomFull {
		t.Fatalf("满员房间应返回 CodeRoomFull, got %v", err)
	}
}

func TestJoinSnapshotAndBroadcast(t *testing.T) {
	_, notifier, svc, mustSession, mustRoom := newFixture()
	ctx := context.Background()

	alice := mustSession("alice", "conn-a")
	roomId := mustRoom("大厅", 10)

	snapshot, err := svc.Join(ctx, alice.SessionId, roomId)
	if err != nil {
		t.Fatal(err)
	}
	if snapshot.Room.RoomId != roomId {
		t.Fatalf("快照房间不符: %s", snapshot.Room.RoomId)
	}
	if snapshot.Occupancy != 1 {
		t.Fatalf("加入后人数应为 1, got %d", snapshot.Occupancy)
	}
	if len(snapshot.Members) != 1 || snapshot.Members[0].SessionId != alice.SessionId {
		t.Fatalf("成员列表应包含加入者自己: %v", snapshot.Members)
	}

	// 加入广播：整房的系统消息 + 排除自己的 memberEntered
	if notifier.countByEvent(respond.EventMessage) != 1 {
		t.Fatalf("应广播 1 条系统消息, got %d", notifier.countByEvent(respond.EventMessage))
	}
	entered := notifier.countByEvent(respond.EventMemberEntered)
	if entered != 1 {
		t.Fatalf("应广播 1 条 memberEntered, got %d", entered)
	}
	for _, ev := range notifier.events {
		if ev.Event == respond.EventMemberEntered && ev.Exclude != alice.ConnectionId {
			t.Fatal("memberEntered 应排除加入者自己的连接")
		}
	}
}

func TestRepeatJoinIdempotent(t *testing.T) {
	store, notifier, svc, mustSession, mustRoom := newFixture()
	ctx := context.Background()

	alice := mustSession("alice", "conn-a")
	roomId := mustRoom("大厅", 10)

	if _, err := svc.Join(ctx, alice.SessionId, roomId); err != nil {
		t.Fatal(err)
	}
	before := len(notifier.events)

	// 重复加入：仍返回快照，但无成员变更副作用
	snapshot, err := svc.Join(ctx, alice.SessionId, roomId)
	if err != nil {
		t.Fatal(err)
	}
	if snapshot.Occupancy != 1 {
		t.Fatalf("人数不应变化, got %d", snapshot.Occupancy)
	}
	if len(notifier.events) != before {
		t.Fatal("重复加入不应产生新广播")
	}
	count, err := store.CountSet(ctx, "room_members_"+roomId)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("成员集合大小应为 1, got %d", count)
	}
}

func TestJoinSwitchesRoom(t *testing.T) {
	store, _, svc, mustSession, mustRoom := newFixture()
	ctx := context.Background()

	alice := mustSession("alice", "conn-a")
	roomA := mustRoom("房间A", 10)
	roomB := mustRoom("房间B", 10)

	if _, err := svc.Join(ctx, alice.SessionId, roomA); err != nil {
		t.Fatal(err)
	}
	snapshot, err := svc.Join(ctx, alice.SessionId, roomB)
	if err != nil {
		t.Fatal(err)
	}
	if snapshot.Room.RoomId != roomB {
		t.Fatalf("应进入房间B, got %s", snapshot.Room.RoomId)
	}

	// 一个会话至多属于一个房间
	inA, err := store.IsSetMember(ctx, "room_members_"+roomA, alice.SessionId)
	if err != nil {
		t.Fatal(err)
	}
	if inA {
		t.Fatal("切换房间后不应残留在原房间")
	}
	inB, err := store.IsSetMember(ctx, "room_members_"+roomB, alice.SessionId)
	if err != nil {
		t.Fatal(err)
	}
	if !inB {
		t.Fatal("应加入新房间")
	}
}

func TestLeaveIdempotent(t *testing.T) {
	_, notifier, svc, mustSession, mustRoom := newFixture()
	ctx := context.Background()

	alice := mustSession("alice", "conn-a")
	roomId := mustRoom("大厅", 10)

	// 非成员离开：无副作用的成功
	if err := svc.Leave(ctx, alice.SessionId, roomId); err != nil {
		t.Fatal(err)
	}
	if len(notifier.events) != 0 {
		t.Fatal("非成员离开不应产生广播")
	}

	if _, err := svc.Join(ctx, alice.SessionId, roomId); err != nil {
		t.Fatal(err)
	}
	if err := svc.Leave(ctx, alice.SessionId, roomId); err != nil {
		t.Fatal(err)
	}
	if notifier.countByEvent(respond.EventMemberLeft) != 1 {
		t.Fatalf("应广播 1 条 memberLeft, got %d", notifier.countByEvent(respond.EventMemberLeft))
	}
	// 再离开一次仍是成功
	if err := svc.Leave(ctx, alice.SessionId, roomId); err != nil {
		t.Fatal(err)
	}
	if notifier.countByEvent(respond.EventMemberLeft) != 1 {
		t.Fatal("重复离开不应产生新广播")
	}
}

func TestLeaveThenRejoinRestoresCapacity(t *testing.T) {
	_, _, svc, mustSession, mustRoom := newFixture()
	ctx := context.Background()

	alice := mustSession("alice", "conn-a")
	bob := mustSession("bob", "conn-b")
	roomId := mustRoom("小房间", 1)

	if _, err := svc.Join(ctx, alice.SessionId, roomId); err != nil {
		t.Fatal(err)
	}
	if err := svc.Leave(ctx, alice.SessionId, roomId); err != nil {
		t.Fatal(err)
	}
	// 离开释放容量，其他人可加入
	snapshot, err := svc.Join(ctx, bob.SessionId, roomId)
	if err != nil {
		t.Fatal(err)
	}
	if snapshot.Occupancy != 1 {
		t.Fatalf("人数应为 1, got %d", snapshot.Occupancy)
	}
}

func TestDisconnect(t *testing.T) {
	store, _, svc, mustSession, mustRoom := newFixture()
	ctx := context.Background()

	registrySvc := registry.NewRegistryService(store, 0)
	alice := mustSession("alice", "conn-a")
	roomId := mustRoom("大厅", 10)

	if _, err := svc.Join(ctx, alice.SessionId, roomId); err != nil {
		t.Fatal(err)
	}
	if err := svc.Disconnect(ctx, alice.SessionId); err != nil {
		t.Fatal(err)
	}

	inRoom, err := store.IsSetMember(ctx, "room_members_"+roomId, alice.SessionId)
	if err != nil {
		t.Fatal(err)
	}
	if inRoom {
		t.Fatal("断开后应离开房间")
	}
	session, err := registrySvc.GetSession(ctx, alice.SessionId)
	if err != nil {
		t.Fatal(err)
	}
	if session.IsOnline {
		t.Fatal("断开后应标记离线")
	}
	if session.CurrentRoomId != "" {
		t.Fatalf("断开后房间指针应清空, got %q", session.CurrentRoomId)
	}

	// 可重复调用
	if err := svc.Disconnect(ctx, alice.SessionId); err != nil {
		t.Fatal(err)
	}
	if err := svc.Disconnect(ctx, "S-missing"); err != nil {
		t.Fatal(err)
	}
}

func TestReconcileSweepsResidueMembership(t *testing.T) {
	store, _, svc, mustSession, mustRoom := newFixture()
	ctx := context.Background()

	alice := mustSession("alice", "conn-a")
	roomA := mustRoom("房间A", 10)
	roomB := mustRoom("房间B", 10)

	// 模拟部分失败留下的残留成员关系
	if err := store.AddToSet(ctx, "room_members_"+roomA, alice.SessionId); err != nil {
		t.Fatal(err)
	}

	// Join 触发对账（测试存储同步执行异步任务）
	if _, err := svc.Join(ctx, alice.SessionId, roomB); err != nil {
		t.Fatal(err)
	}
	inA, err := store.IsSetMember(ctx, "room_members_"+roomA, alice.SessionId)
	if err != nil {
		t.Fatal(err)
	}
	if inA {
		t.Fatal("对账应清理残留的成员关系")
	}
}

// 完整场景：A、B 加入容量为 2 的房间，C 被拒，A 发言后断开
func TestRoomLifecycleScenario(t *testing.T) {
	store := storetest.NewMemoryStore()
	registrySvc := registry.NewRegistryService(store, 0)
	roomSvc := room.NewRoomService(store, 0)
	messageSvc := messagelog.NewMessageLogService(store, 0, 0, 0)
	svc := NewCoordinatorService(store, registrySvc, roomSvc, messageSvc, 50)
	svc.SetNotifier(&recordingNotifier{})
	ctx := context.Background()

	sessionA, err := registrySvc.UpsertSession(ctx, "A", "conn-a")
	if err != nil {
		t.Fatal(err)
	}
	sessionB, err := registrySvc.UpsertSession(ctx, "B", "conn-b")
	if err != nil {
		t.Fatal(err)
	}
	sessionC, err := registrySvc.UpsertSession(ctx, "C", "conn-c")
	if err != nil {
		t.Fatal(err)
	}
	created, err := roomSvc.CreateRoom(ctx, request.CreateRoomRequest{Name: "双人房", MaxOccupancy: 2})
	if err != nil {
		t.Fatal(err)
	}
	roomId := created.RoomId

	snapshotA, err := svc.Join(ctx, sessionA.SessionId, roomId)
	if err != nil {
		t.Fatal(err)
	}
	if snapshotA.Occupancy != 1 {
		t.Fatalf("A 加入后人数应为 1, got %d", snapshotA.Occupancy)
	}
	snapshotB, err := svc.Join(ctx, sessionB.SessionId, roomId)
	if err != nil {
		t.Fatal(err)
	}
	if snapshotB.Occupancy != 2 {
		t.Fatalf("B 加入后人数应为 2, got %d", snapshotB.Occupancy)
	}
	if _, err := svc.Join(ctx, sessionC.SessionId, roomId); errorx.GetCode(err) != errorx.CodeRoomFull {
		t.Fatalf("C 应因满员被拒, got %v", err)
	}
	count, err := store.CountSet(ctx, "room_members_"+roomId)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("被拒的加入不应改变人数, got %d", count)
	}

	if _, err := messageSvc.Append(ctx, roomId, sessionA.SessionId, "A", "hi", model.MessageKindText); err != nil {
		t.Fatal(err)
	}
	page, err := messageSvc.Page(ctx, roomId, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	// 两条 join 系统消息 + 一条文本消息，按时间正序
	if len(page) != 3 {
		t.Fatalf("消息日志应有 3 条, got %d", len(page))
	}
	if page[0].Kind != model.MessageKindSystem || page[1].Kind != model.MessageKindSystem {
		t.Fatalf("前两条应为系统消息: %v", page)
	}
	if page[2].Kind != model.MessageKindText || page[2].Content != "hi" {
		t.Fatalf("第三条应为 A 的文本消息: %v", page[2])
	}

	if err := svc.Disconnect(ctx, sessionA.SessionId); err != nil {
		t.Fatal(err)
	}
	count, err = store.CountSet(ctx, "room_members_"+roomId)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("A 断开后人数应为 1, got %d", count)
	}
	page, err = messageSvc.Page(ctx, roomId, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 4 || page[3].Kind != model.MessageKindSystem {
		t.Fatalf("断开应追加第 4 条系统消息, got %v", page)
	}
	sessionA, err = registrySvc.GetSession(ctx, sessionA.SessionId)
	if err != nil {
		t.Fatal(err)
	}
	if sessionA.CurrentRoomId != "" {
		t.Fatalf("A 的房间指针应已清空, got %q", sessionA.CurrentRoomId)
	}
}

func TestListMembersSkipsStaleSessions(t *testing.T) {
	store, _, svc, mustSession, mustRoom := newFixture()
	ctx := context.Background()

	alice := mustSession("alice", "conn-a")
	roomId := mustRoom("大厅", 10)
	if _, err := svc.Join(ctx, alice.SessionId, roomId); err != nil {
		t.Fatal(err)
	}
	// 集合里残留一个已过期的会话 ID
	if err := store.AddToSet(ctx, "room_members_"+roomId, "S-stale"); err != nil {
		t.Fatal(err)
	}

	members, err := svc.ListMembers(ctx, roomId)
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 1 || members[0].SessionId != alice.SessionId {
		t.Fatalf("应跳过过期会话, got %v", members)
	}
}
