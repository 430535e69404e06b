// Package chat 实现聊天网关层
// dispatcher.go
// 核心职责：入站事件的业务分发
// Channel 模式和 Kafka 模式消费到的事件都走同一个分发器，
// 保证两种部署形态下的业务语义一致
package chat

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	myredis "huddle_chat_server/internal/dao/redis"
	"huddle_chat_server/internal/dto/request"
	"huddle_chat_server/internal/dto/respond"
	"huddle_chat_server/internal/model"
	"huddle_chat_server/internal/service"
	"huddle_chat_server/internal/service/messagelog"
	"huddle_chat_server/pkg/errorx"
)

// EventDispatcher 按事件名分发入站事件到各业务服务
// 同时承担房间广播：解析权威成员集合，把载荷投给本机在线连接
type EventDispatcher struct {
	hub         *ClientHub
	registry    service.SessionRegistryService
	coordinator service.MembershipCoordinatorService
	messages    service.MessageLogService
	store       myredis.AsyncStoreService
}

// NewEventDispatcher 构造函数
func NewEventDispatcher(
	hub *ClientHub,
	registry service.SessionRegistryService,
	coordinator service.MembershipCoordinatorService,
	messages service.MessageLogService,
	store myredis.AsyncStoreService,
) *EventDispatcher {
	return &EventDispatcher{
		hub:         hub,
		registry:    registry,
		coordinator: coordinator,
		messages:    messages,
		store:       store,
	}
}

// Dispatch 反序列化并处理一条入站事件
// 未知事件名回 operationFailed，不中断消费循环
func (d *EventDispatcher) Dispatch(data []byte) {
	var event request.ClientEvent
	if err := json.Unmarshal(data, &event); err != nil {
		zap.L().Error("事件反序列化失败", zap.Error(err))
		return
	}
	if event.ConnectionId == "" {
		zap.L().Warn("事件缺少连接标识，丢弃", zap.String("event", event.Event))
		return
	}

	switch event.Event {
	case request.EventAuthenticate:
		d.handleAuthenticate(event)
	case request.EventJoinRoom:
		d.handleJoinRoom(event)
	case request.EventLeaveRoom:
		d.handleLeaveRoom(event)
	case request.EventSendMessage:
		d.handleSendMessage(event)
	case request.EventStartTyping:
		d.handleTyping(event, respond.EventTyping)
	case request.EventStopTyping:
		d.handleTyping(event, respond.EventStoppedTyping)
	case request.EventDisconnect:
		d.handleDisconnect(event)
	default:
		zap.L().Warn("未知事件", zap.String("event", event.Event))
		d.replyError(event.ConnectionId, errorx.Newf(errorx.CodeInvalidParam, "未知事件: %s", event.Event))
	}
}

// handleAuthenticate 认证：为连接建立会话身份
func (d *EventDispatcher) handleAuthenticate(event request.ClientEvent) {
	session, err := d.registry.UpsertSession(ctx, event.DisplayName, event.ConnectionId)
	if err != nil {
		d.replyError(event.ConnectionId, err)
		return
	}
	d.replyTo(event.ConnectionId, respond.EventAuthenticated, respond.AuthenticatedRespond{
		SessionId:   session.SessionId,
		DisplayName: session.DisplayName,
	})
}

// handleJoinRoom 加入房间，成功后把房间快照回给发起者
// 进入通知和系统消息由协调器负责广播
func (d *EventDispatcher) handleJoinRoom(event request.ClientEvent) {
	session, ok := d.requireSession(event.ConnectionId)
	if !ok {
		return
	}
	snapshot, err := d.coordinator.Join(ctx, session.SessionId, event.RoomId)
	if err != nil {
		d.replyError(event.ConnectionId, err)
		return
	}
	d.replyTo(event.ConnectionId, respond.EventRoomSnapshot, snapshot)
}

// handleLeaveRoom 离开当前房间，不在任何房间时静默成功
func (d *EventDispatcher) handleLeaveRoom(event request.ClientEvent) {
	session, ok := d.requireSession(event.ConnectionId)
	if !ok {
		return
	}
	if session.CurrentRoomId == "" {
		return
	}
	if err := d.coordinator.Leave(ctx, session.SessionId, session.CurrentRoomId); err != nil {
		d.replyError(event.ConnectionId, err)
	}
}

// handleSendMessage 发送文本消息
// 要求发送者当前在某个房间内；消息先持久化再广播（含发送者回显）
func (d *EventDispatcher) handleSendMessage(event request.ClientEvent) {
	session, ok := d.requireSession(event.ConnectionId)
	if !ok {
		return
	}
	if session.CurrentRoomId == "" {
		d.replyError(event.ConnectionId, errorx.New(errorx.CodeInvalidRoom, "请先加入房间再发言"))
		return
	}
	message, err := d.messages.Append(ctx, session.CurrentRoomId, session.SessionId, session.DisplayName, event.Content, model.MessageKindText)
	if err != nil {
		d.replyError(event.ConnectionId, err)
		return
	}
	payload := respond.Encode(respond.EventMessage, messagelog.ToRespond(message))
	if payload != nil {
		d.BroadcastToRoom(session.CurrentRoomId, payload, "")
	}
}

// handleTyping 输入状态透传，不持久化
// 不在房间内时静默忽略，发起者自己收不到回显
func (d *EventDispatcher) handleTyping(event request.ClientEvent, outEvent string) {
	session, err := d.registry.LookupByConnection(ctx, event.ConnectionId)
	if err != nil || session.CurrentRoomId == "" {
		return
	}
	payload := respond.Encode(outEvent, respond.TypingRespond{
		SessionId:   session.SessionId,
		DisplayName: session.DisplayName,
	})
	if payload != nil {
		d.BroadcastToRoom(session.CurrentRoomId, payload, event.ConnectionId)
	}
}

// handleDisconnect 连接断开：离开当前房间并标记离线
// 事件可能来自网关注入（读协程退出）或客户端显式发送，两者均可重复
func (d *EventDispatcher) handleDisconnect(event request.ClientEvent) {
	session, err := d.registry.LookupByConnection(ctx, event.ConnectionId)
	if err != nil {
		// 从未认证过的连接断开，没有要清理的会话
		if errorx.GetCode(err) != errorx.CodeNotFound {
			zap.L().Error("断开时反查会话失败", zap.Error(err))
		}
		return
	}
	if err := d.coordinator.Disconnect(ctx, session.SessionId); err != nil {
		zap.L().Error("断开处理失败", zap.String("session_id", session.SessionId), zap.Error(err))
	}
}

// BroadcastToRoom 把载荷推送给房间内所有在线连接
// 成员集合来自存储（权威），连接表只查本机；Kafka 模式下
// 每个实例各自消费同一事件，各推各的本机连接即可覆盖全量成员
func (d *EventDispatcher) BroadcastToRoom(roomId string, payload []byte, excludeConnId string) {
	sessionIds, err := d.store.GetSetMembers(context.Background(), "room_members_"+roomId)
	if err != nil {
		zap.L().Error("广播时读取成员集合失败", zap.String("room_id", roomId), zap.Error(err))
		return
	}
	for _, sessionId := range sessionIds {
		session, err := d.registry.GetSession(context.Background(), sessionId)
		if err != nil || !session.IsOnline || session.ConnectionId == "" {
			continue
		}
		if session.ConnectionId == excludeConnId {
			continue
		}
		if client := d.hub.Get(session.ConnectionId); client != nil {
			client.Deliver(payload)
		}
	}
}

// requireSession 反查连接对应的会话，未认证时回 operationFailed
func (d *EventDispatcher) requireSession(connId string) (*model.Session, bool) {
	session, err := d.registry.LookupByConnection(ctx, connId)
	if err != nil {
		if errorx.GetCode(err) == errorx.CodeNotFound {
			err = errorx.New(errorx.CodeNotAuthenticated, "请先认证后再操作")
		}
		d.replyError(connId, err)
		return nil, false
	}
	return session, true
}

// replyTo 把事件推送给单个连接
func (d *EventDispatcher) replyTo(connId, event string, data any) {
	if client := d.hub.Get(connId); client != nil {
		if payload := respond.Encode(event, data); payload != nil {
			client.Deliver(payload)
		}
	}
}

// replyError 把业务错误转换为 operationFailed 推送给发起连接
func (d *EventDispatcher) replyError(connId string, err error) {
	reason := "服务器繁忙，请稍后重试"
	var codeErr *errorx.CodeError
	if errors.As(err, &codeErr) {
		reason = codeErr.Msg
	}
	d.replyTo(connId, respond.EventFailed, respond.OperationFailedRespond{
		Code:   errorx.GetCode(err),
		Reason: reason,
	})
}
