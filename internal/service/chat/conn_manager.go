// Package chat 实现聊天网关层
// conn_manager.go
// 核心职责：WebSocket 连接生命周期管理
// 1. 建立 WebSocket 连接 (Upgrade)
// 2. 封装 UserConn 对象，管理读写协程 (Read/Write Loop)
// 3. 通过 MessageBroker 接口解耦事件投递逻辑
package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"huddle_chat_server/internal/dto/request"
	"huddle_chat_server/internal/dto/respond"
	"huddle_chat_server/internal/infrastructure/metrics"
	"huddle_chat_server/pkg/constants"
	"huddle_chat_server/pkg/errorx"
)

// UserConn 表示一个 WebSocket 客户端连接
// ConnId 由网关在升级时生成，与会话身份解耦：同一会话重连会拿到新的 ConnId
type UserConn struct {
	Conn     *websocket.Conn
	ConnId   string
	SendBack chan []byte // 推送给前端的出站队列

	mu     sync.Mutex
	closed bool
}

// Deliver 把载荷排入出站队列
// 队列满时丢弃该条推送并记日志，绝不阻塞广播方
// 队列已关闭时静默丢弃
func (c *UserConn) Deliver(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.SendBack <- payload:
		metrics.BroadcastDeliveries.Inc()
	default:
		zap.L().Warn("出站队列已满，丢弃推送", zap.String("conn_id", c.ConnId))
	}
}

// CloseSend 关闭出站队列，让写协程退出 range 循环
// 可重复调用；关闭后 Deliver 变为空操作
func (c *UserConn) CloseSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.SendBack)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	// 允许任何来源的连接，跨域控制交给前置网关
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

var ctx = context.Background()

// ClientHub 本机在线连接表
// Key 为 ConnId，Value 为 *UserConn；sync.Map 实现并发安全，无需手动加锁
type ClientHub struct {
	clients sync.Map
}

// NewClientHub 创建连接表
func NewClientHub() *ClientHub {
	return &ClientHub{}
}

// Store 登记连接
func (h *ClientHub) Store(client *UserConn) {
	h.clients.Store(client.ConnId, client)
	metrics.ConnectionsActive.Inc()
}

// Delete 移除连接，连接不存在时是无副作用的
func (h *ClientHub) Delete(connId string) {
	if _, ok := h.clients.LoadAndDelete(connId); ok {
		metrics.ConnectionsActive.Dec()
	}
}

// Get 按 ConnId 查找连接，不存在返回 nil
func (h *ClientHub) Get(connId string) *UserConn {
	value, ok := h.clients.Load(connId)
	if !ok {
		return nil
	}
	return value.(*UserConn)
}

// Read 从 WebSocket 读取事件并通过 Broker 发布
// 读出错即视为连接断开：注入 disconnect 事件后退出
func (c *UserConn) Read() {
	zap.L().Info("ws read goroutine start", zap.String("conn_id", c.ConnId))
	defer func() {
		payload, err := json.Marshal(request.ClientEvent{
			Event:        request.EventDisconnect,
			ConnectionId: c.ConnId,
		})
		if err == nil {
			if err := GlobalBroker.Publish(ctx, payload); err != nil {
				zap.L().Error("发布断开事件失败", zap.Error(err))
			}
		}
		GlobalBroker.UnregisterClient(c)
	}()
	for {
		_, jsonMessage, err := c.Conn.ReadMessage()
		if err != nil {
			zap.L().Info("ws读取结束", zap.String("conn_id", c.ConnId), zap.Error(err))
			return
		}
		var event request.ClientEvent
		if err := json.Unmarshal(jsonMessage, &event); err != nil {
			zap.L().Error("入站事件反序列化失败", zap.Error(err))
			c.Deliver(respond.Encode(respond.EventFailed, respond.OperationFailedRespond{
				Code:   errorx.CodeInvalidParam,
				Reason: "无法解析的事件格式",
			}))
			continue
		}
		// 连接标识由网关盖章，客户端传入的值一律覆盖
		event.ConnectionId = c.ConnId
		stamped, err := json.Marshal(event)
		if err != nil {
			zap.L().Error(err.Error())
			continue
		}
		if err := GlobalBroker.Publish(ctx, stamped); err != nil {
			zap.L().Error(err.Error())
			c.Deliver(respond.Encode(respond.EventFailed, respond.OperationFailedRespond{
				Code:   errorx.CodeServerBusy,
				Reason: "服务器繁忙，请稍后重试",
			}))
		}
	}
}

// Write 从 SendBack 通道读取载荷并发送给 WebSocket
func (c *UserConn) Write() {
	zap.L().Info("ws write goroutine start", zap.String("conn_id", c.ConnId))
	for payload := range c.SendBack {
		if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			zap.L().Error(err.Error())
			return
		}
	}
}

// NewClientInit 处理新的 WebSocket 连接
// 升级协议、生成连接标识、注册到 Broker 并启动读写协程
// 此时连接还没有会话身份，身份要等 authenticate 事件建立
func NewClientInit(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Error(err.Error())
		return
	}
	client := &UserConn{
		Conn:     conn,
		ConnId:   uuid.NewString(),
		SendBack: make(chan []byte, constants.CHANNEL_SIZE),
	}
	GlobalBroker.RegisterClient(client)
	go client.Read()
	go client.Write()
	zap.L().Info("ws连接成功", zap.String("conn_id", client.ConnId))
}
