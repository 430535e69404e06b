package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newTestUserConn 通过 httptest 建立一对真实的 WebSocket 连接
// 返回服务端侧的 UserConn；cleanup 负责关闭客户端与测试服务器
func newTestUserConn(t *testing.T) (*UserConn, func()) {
	t.Helper()
	serverConn := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConn <- conn
	}))
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	clientConn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		srv.Close()
		t.Fatal(err)
	}
	client := &UserConn{
		Conn:     <-serverConn,
		ConnId:   "conn-ws-test",
		SendBack: make(chan []byte, 4),
	}
	cleanup := func() {
		clientConn.Close()
		srv.Close()
	}
	return client, cleanup
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

// 注销必须关闭出站队列，让写协程退出，否则每个断开的连接都会泄漏一个协程
func TestLogoutClosesSendQueue(t *testing.T) {
	client, cleanup := newTestUserConn(t)
	defer cleanup()

	dispatcher, _, _ := newTestDispatcher()
	hub := NewClientHub()
	broker := NewChannelBroker(hub, dispatcher)
	go broker.Start()
	defer broker.Close()

	broker.RegisterClient(client)
	waitFor(t, func() bool { return hub.Get(client.ConnId) != nil }, "连接应注册到连接表")

	writeDone := make(chan struct{})
	go func() {
		client.Write()
		close(writeDone)
	}()

	broker.UnregisterClient(client)
	waitFor(t, func() bool { return hub.Get(client.ConnId) == nil }, "注销后应从连接表移除")

	select {
	case <-writeDone:
	case <-time.After(time.Second):
		t.Fatal("注销后写协程未退出：出站队列未关闭")
	}

	// 关闭后的投递与重复关闭都是无副作用的
	client.Deliver([]byte("late"))
	client.CloseSend()
}

// Close 之后读协程仍可能调用注册/注销与发布，不能 panic 也不能永久阻塞
func TestBrokerCloseThenPublishSafe(t *testing.T) {
	client, cleanup := newTestUserConn(t)
	defer cleanup()

	dispatcher, _, _ := newTestDispatcher()
	broker := NewChannelBroker(NewClientHub(), dispatcher)
	go broker.Start()
	broker.Close()

	done := make(chan struct{})
	go func() {
		broker.UnregisterClient(client)
		broker.RegisterClient(client)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("关闭后注册/注销不应阻塞")
	}
	if err := broker.Publish(context.Background(), []byte("{}")); err != nil {
		t.Fatalf("关闭后发布应进入缓冲而非失败, got %v", err)
	}
}
