package registry

import (
	"context"
	"strings"
	"testing"
	"time"

	"huddle_chat_server/internal/dao/storetest"
	"huddle_chat_server/pkg/errorx"
)

func newTestService() (*registryService, *storetest.MemoryStore) {
	store := storetest.NewMemoryStore()
	return NewRegistryService(store, 0), store
}

func TestUpsertSessionValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.UpsertSession(ctx, "", "conn-1"); errorx.GetCode(err) != errorx.CodeInvalidIdentity {
		t.Fatalf("空昵称应返回 CodeInvalidIdentity, got %v", err)
	}
	if _, err := svc.UpsertSession(ctx, "   ", "conn-1"); errorx.GetCode(err) != errorx.CodeInvalidIdentity {
		t.Fatalf("全空白昵称应返回 CodeInvalidIdentity, got %v", err)
	}
	longName := strings.Repeat("名", 51)
	if _, err := svc.UpsertSession(ctx, longName, "conn-1"); errorx.GetCode(err) != errorx.CodeInvalidIdentity {
		t.Fatalf("超长昵称应返回 CodeInvalidIdentity, got %v", err)
	}
	if _, err := svc.UpsertSession(ctx, "alice", ""); errorx.GetCode(err) != errorx.CodeInvalidParam {
		t.Fatalf("空连接标识应返回 CodeInvalidParam, got %v", err)
	}
}

func TestUpsertSessionTrimsDisplayName(t *testing.T) {
	svc, _ := newTestService()
	session, err := svc.UpsertSession(context.Background(), "  alice  ", "conn-1")
	if err != nil {
		t.Fatal(err)
	}
	if session.DisplayName != "alice" {
		t.Fatalf("昵称应去除首尾空白, got %q", session.DisplayName)
	}
	if !session.IsOnline {
		t.Fatal("新建会话应为在线状态")
	}
}

func TestLookupByConnection(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.UpsertSession(ctx, "alice", "conn-1")
	if err != nil {
		t.Fatal(err)
	}
	found, err := svc.LookupByConnection(ctx, "conn-1")
	if err != nil {
		t.Fatal(err)
	}
	if found.SessionId != created.SessionId {
		t.Fatalf("反查会话不一致: %s != %s", found.SessionId, created.SessionId)
	}

	if _, err := svc.LookupByConnection(ctx, "conn-unknown"); errorx.GetCode(err) != errorx.CodeNotFound {
		t.Fatalf("未知连接应返回 CodeNotFound, got %v", err)
	}
}

func TestUpsertSessionRefreshesExisting(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, err := svc.UpsertSession(ctx, "alice", "conn-1")
	if err != nil {
		t.Fatal(err)
	}
	// 同一连接重复认证：刷新而不是新建
	second, err := svc.UpsertSession(ctx, "alice2", "conn-1")
	if err != nil {
		t.Fatal(err)
	}
	if second.SessionId != first.SessionId {
		t.Fatalf("重复认证不应新建会话: %s != %s", second.SessionId, first.SessionId)
	}
	if second.DisplayName != "alice2" {
		t.Fatalf("重复认证应刷新昵称, got %q", second.DisplayName)
	}
}

func TestMarkOffline(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	session, err := svc.UpsertSession(ctx, "alice", "conn-1")
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.MarkOffline(ctx, session.SessionId); err != nil {
		t.Fatal(err)
	}

	got, err := svc.GetSession(ctx, session.SessionId)
	if err != nil {
		t.Fatal(err)
	}
	if got.IsOnline {
		t.Fatal("标记离线后 IsOnline 应为 false")
	}
	// 连接反向索引应随之失效
	if _, err := svc.LookupByConnection(ctx, "conn-1"); errorx.GetCode(err) != errorx.CodeNotFound {
		t.Fatalf("离线后反查应返回 CodeNotFound, got %v", err)
	}
	// 对不存在的会话重复调用应视为成功
	if err := svc.MarkOffline(ctx, "S-missing"); err != nil {
		t.Fatalf("不存在的会话标记离线应返回 nil, got %v", err)
	}
}

func TestExpireGuards(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	session, err := svc.UpsertSession(ctx, "alice", "conn-1")
	if err != nil {
		t.Fatal(err)
	}
	// 在线会话不能删除
	if err := svc.Expire(ctx, session.SessionId); errorx.GetCode(err) != errorx.CodeInvalidParam {
		t.Fatalf("在线会话删除应返回 CodeInvalidParam, got %v", err)
	}
	// 离线但仍在重连窗口内同样拒绝
	if err := svc.MarkOffline(ctx, session.SessionId); err != nil {
		t.Fatal(err)
	}
	if err := svc.Expire(ctx, session.SessionId); errorx.GetCode(err) != errorx.CodeInvalidParam {
		t.Fatalf("窗口内会话删除应返回 CodeInvalidParam, got %v", err)
	}
}

func TestExpireRemovesStaleSession(t *testing.T) {
	store := storetest.NewMemoryStore()
	svc := NewRegistryService(store, time.Second)
	ctx := context.Background()

	session, err := svc.UpsertSession(ctx, "alice", "conn-1")
	if err != nil {
		t.Fatal(err)
	}
	session.IsOnline = false
	session.LastSeenAt = time.Now().Add(-time.Hour)
	if err := svc.SaveSession(ctx, session); err != nil {
		t.Fatal(err)
	}

	if err := svc.Expire(ctx, session.SessionId); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetSession(ctx, session.SessionId); errorx.GetCode(err) != errorx.CodeNotFound {
		t.Fatalf("回收后会话应不存在, got %v", err)
	}
	// 已回收的会话重复调用视为成功
	if err := svc.Expire(ctx, session.SessionId); err != nil {
		t.Fatal(err)
	}
}

func TestStoreFailurePropagates(t *testing.T) {
	svc, store := newTestService()
	store.FailAll = true
	if _, err := svc.UpsertSession(context.Background(), "alice", "conn-1"); errorx.GetCode(err) != errorx.CodeCacheError {
		t.Fatalf("存储故障应返回 CodeCacheError, got %v", err)
	}
}
