// Package chat 实现聊天网关层
// kafka_broker.go
// 核心职责：分布式模式下的事件代理实现
// 1. 作为 Kafka 消费者，从消息队列读取全量事件
// 2. 维护本机在线连接 (Kafka 模式)
// 3. 事件处理交给与 Channel 模式相同的分发器，
//    广播天然只命中本机连接，多实例各自覆盖自己的那部分成员
package chat

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	myconfig "huddle_chat_server/internal/config"
	"huddle_chat_server/pkg/constants"
)

// KafkaBroker 定义了基于 Kafka 的事件代理结构
type KafkaBroker struct {
	// Login 连接注册通道，当有新连接建立时写入此通道
	Login chan *UserConn
	// Logout 连接注销通道，当连接断开时写入此通道
	Logout chan *UserConn

	client     *KafkaClient
	hub        *ClientHub
	dispatcher *EventDispatcher

	quit chan struct{}
}

// NewKafkaBroker 创建 KafkaBroker 实例（依赖注入）
func NewKafkaBroker(client *KafkaClient, hub *ClientHub, dispatcher *EventDispatcher) *KafkaBroker {
	return &KafkaBroker{
		Login:      make(chan *UserConn, constants.CHANNEL_SIZE),
		Logout:     make(chan *UserConn, constants.CHANNEL_SIZE),
		client:     client,
		hub:        hub,
		dispatcher: dispatcher,
		quit:       make(chan struct{}),
	}
}

// Start 启动 Kafka 消费者服务
// 消费协程从 Kafka 读取事件并分发，主循环处理连接注册/注销
func (b *KafkaBroker) Start() {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error(fmt.Sprintf("kafka broker panic: %v", r))
		}
	}()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				zap.L().Error(fmt.Sprintf("kafka consumer panic: %v", r))
			}
		}()
		for {
			select {
			case <-b.quit:
				return
			default:
			}
			kafkaMessage, err := b.client.Consumer.ReadMessage(ctx)
			if err != nil {
				zap.L().Error(err.Error())
				continue
			}
			zap.L().Debug(fmt.Sprintf("topic=%s, partition=%d, offset=%d",
				kafkaMessage.Topic, kafkaMessage.Partition, kafkaMessage.Offset))
			b.dispatcher.Dispatch(kafkaMessage.Value)
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

		case <-b.quit:
			return
		}
	}
}

// Publish 实现 MessageBroker 接口：发布事件到 Kafka
// 以分区号为 key，与生产配置的 Hash 均衡器配合
func (b *KafkaBroker) Publish(ctx context.Context, msg []byte) error {
	key := []byte(strconv.Itoa(myconfig.GetConfig().KafkaConfig.Partition))
	return b.client.SendMessage(ctx, key, msg)
}

// RegisterClient 实现 MessageBroker 接口：注册连接
func (b *KafkaBroker) RegisterClient(client *UserConn) {
	select {
	case b.Login <- client:
	case <-b.quit:
	}
}

// UnregisterClient 实现 MessageBroker 接口：注销连接
func (b *KafkaBroker) UnregisterClient(client *UserConn) {
	select {
	case b.Logout <- client:
	case <-b.quit:
	}
}

// GetClient 实现 MessageBroker 接口：获取连接
func (b *KafkaBroker) GetClient(connId string) *UserConn {
	return b.hub.Get(connId)
}

// BroadcastToRoom 实现 MessageBroker 接口：房间广播
func (b *KafkaBroker) BroadcastToRoom(roomId string, payload []byte, excludeConnId string) {
	b.dispatcher.BroadcastToRoom(roomId, payload, excludeConnId)
}

// Close 停止消费与连接管理循环
func (b *KafkaBroker) Close() {
	close(b.quit)
}
