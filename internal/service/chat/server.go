// Package chat 实现聊天网关层
// server.go
// 核心职责：聊天服务器聚合结构和依赖注入
// 封装 MessageBroker、KafkaClient 等组件，提供统一的生命周期管理
package chat

import (
	"context"

	myredis "huddle_chat_server/internal/dao/redis"
	"huddle_chat_server/internal/service"
)

// MessageBroker 定义消息代理接口
// 支持多种实现：KafkaBroker (分布式), ChannelBroker (单机)
type MessageBroker interface {
	// Publish 发布客户端事件到消息队列/通道
	Publish(ctx context.Context, msg []byte) error
	// RegisterClient 注册客户端连接
	RegisterClient(client *UserConn)
	// UnregisterClient 注销客户端连接
	UnregisterClient(client *UserConn)
	// GetClient 获取指定连接
	GetClient(connId string) *UserConn
	// BroadcastToRoom 把载荷推送给房间内所有在线连接
	// excludeConnId 非空时跳过该连接
	BroadcastToRoom(roomId string, payload []byte, excludeConnId string)
	// Start 启动事件消费循环
	Start()
	// Close 关闭代理资源
	Close()
}

// GlobalBroker 全局消息代理实例
// 在 main.go 中根据配置初始化为 KafkaBroker 或 ChannelBroker
var GlobalBroker MessageBroker

// ChatServer 聊天服务器聚合结构
// 封装所有聊天相关组件，通过依赖注入管理生命周期
type ChatServer struct {
	// Broker 消息代理，根据配置是 ChannelBroker 或 KafkaBroker
	Broker MessageBroker

	// KafkaClient Kafka 客户端（仅 Kafka 模式使用）
	KafkaClient *KafkaClient

	mode string
}

// ChatServerConfig 聊天服务器配置
type ChatServerConfig struct {
	Mode        string // "channel" 或 "kafka"
	Registry    service.SessionRegistryService
	Coordinator service.MembershipCoordinatorService
	MessageLog  service.MessageLogService
	Store       myredis.AsyncStoreService
}

// NewChatServer 创建聊天服务器实例
// 根据配置选择 ChannelBroker 或 KafkaBroker
func NewChatServer(cfg ChatServerConfig) *ChatServer {
	cs := &ChatServer{mode: cfg.Mode}

	hub := NewClientHub()
	dispatcher := NewEventDispatcher(hub, cfg.Registry, cfg.Coordinator, cfg.MessageLog, cfg.Store)

	if cfg.Mode == "kafka" {
		cs.KafkaClient = NewKafkaClient()
		cs.Broker = NewKafkaBroker(cs.KafkaClient, hub, dispatcher)
	} else {
		// Channel 模式（默认）
		cs.Broker = NewChannelBroker(hub, dispatcher)
	}
	return cs
}

// InitKafka 初始化 Kafka 连接（仅 Kafka 模式需要调用）
func (cs *ChatServer) InitKafka() {
	if cs.KafkaClient != nil {
		cs.KafkaClient.KafkaInit()
	}
}

// Start 启动聊天服务器
func (cs *ChatServer) Start() {
	cs.Broker.Start()
}

// Close 关闭聊天服务器
func (cs *ChatServer) Close() {
	cs.Broker.Close()
	if cs.KafkaClient != nil {
		cs.KafkaClient.KafkaClose()
	}
}

// GetBroker 获取消息代理
func (cs *ChatServer) GetBroker() MessageBroker {
	return cs.Broker
}
