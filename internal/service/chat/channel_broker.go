// Package chat 实现聊天网关层
// channel_broker.go
// 核心职责：单机模式下的事件代理实现
// 1. 维护本机在线连接 (Channel 模式)
// 2. 事件经内存通道串行消费，交给分发器处理
// 3. 管理连接注册/注销事件
// 4. 不依赖外部消息队列，适合小规模或开发环境
package chat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"huddle_chat_server/pkg/constants"
	"huddle_chat_server/pkg/errorx"
)

// ChannelBroker 定义了单机模式的事件代理结构
type ChannelBroker struct {
	// Transmit 事件转发通道，网关读协程发布的事件写入此通道
	Transmit chan []byte
	// Login 连接注册通道，当有新连接建立时写入此通道
	Login chan *UserConn
	// Logout 连接注销通道，当连接断开时写入此通道
	Logout chan *UserConn

	hub        *ClientHub
	dispatcher *EventDispatcher

	quit chan struct{}
}

// NewChannelBroker 创建 ChannelBroker 实例（依赖注入）
func NewChannelBroker(hub *ClientHub, dispatcher *EventDispatcher) *ChannelBroker {
	return &ChannelBroker{
		Transmit:   make(chan []byte, constants.CHANNEL_SIZE),
		Login:      make(chan *UserConn, constants.CHANNEL_SIZE),
		Logout:     make(chan *UserConn, constants.CHANNEL_SIZE),
		hub:        hub,
		dispatcher: dispatcher,
		quit:       make(chan struct{}),
	}
}

// Start 启动 Channel Broker 主循环
// 单协程串行处理三类通道事件，天然避免连接表与业务处理的竞态
func (b *ChannelBroker) Start() {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error(fmt.Sprintf("channel broker panic: %v", r))
		}
	}()
	for {
		select {
		case client := <-b.Login:
			if client == nil {
				continue
			}
			b.hub.Store(client)
			zap.L().Debug(fmt.Sprintf("新连接接入: %s", client.ConnId))

		case client := <-b.Logout:
			if client == nil {
				continue
			}
			// 先摘表再关队列：新的广播查不到连接，写协程随后退出
			b.hub.Delete(client.ConnId)
			client.CloseSend()
			if err := client.Conn.Close(); err != nil {
				zap.L().Debug(err.Error())
			}
			zap.L().Info(fmt.Sprintf("连接 %s 已断开", client.ConnId))

		case data := <-b.Transmit:
			b.dispatcher.Dispatch(data)

		case <-b.quit:
			return
		}
	}
}

// Publish 实现 MessageBroker 接口：发布事件到通道
// 通道满时返回错误让网关回压客户端，而不是阻塞读协程
func (b *ChannelBroker) Publish(ctx context.Context, msg []byte) error {
	select {
	case b.Transmit <- msg:
		return nil
	default:
		return errorx.New(errorx.CodeServerBusy, "事件通道已满")
	}
}

// RegisterClient 实现 MessageBroker 接口：注册连接
func (b *ChannelBroker) RegisterClient(client *UserConn) {
	select {
	case b.Login <- client:
	case <-b.quit:
	}
}

// UnregisterClient 实现 MessageBroker 接口：注销连接
func (b *ChannelBroker) UnregisterClient(client *UserConn) {
	select {
	case b.Logout <- client:
	case <-b.quit:
	}
}

// GetClient 实现 MessageBroker 接口：获取连接
func (b *ChannelBroker) GetClient(connId string) *UserConn {
	return b.hub.Get(connId)
}

// BroadcastToRoom 实现 MessageBroker 接口：房间广播
// 同时满足协调器的广播器依赖
func (b *ChannelBroker) BroadcastToRoom(roomId string, payload []byte, excludeConnId string) {
	b.dispatcher.BroadcastToRoom(roomId, payload, excludeConnId)
}

// Close 停止主循环
// 只关退出信号，不关工作通道：读协程此后发布的事件走 quit 分支而非 panic
func (b *ChannelBroker) Close() {
	close(b.quit)
}
