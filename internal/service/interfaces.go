// Package service 提供业务逻辑层
// 本文件定义各 Service 的接口，Handler 与网关层依赖接口而非具体实现
package service

import (
	"context"

	"huddle_chat_server/internal/dto/request"
	"huddle_chat_server/internal/dto/respond"
	"huddle_chat_server/internal/model"
	"huddle_chat_server/internal/service/coordinator"
)

// SessionRegistryService 会话注册表
// 维护连接与逻辑身份的映射及在线状态；成员关系的清理不在此处（由 Coordinator 负责）
type SessionRegistryService interface {
	// UpsertSession 认证入口：为连接创建会话，或刷新已有会话的连接信息
	// 昵称为空或超长返回 CodeInvalidIdentity
	UpsertSession(ctx context.Context, displayName, connectionId string) (*model.Session, error)
	// LookupByConnection 通过连接标识反查会话
	LookupByConnection(ctx context.Context, connectionId string) (*model.Session, error)
	// GetSession 按会话 ID 获取会话
	GetSession(ctx context.Context, sessionId string) (*model.Session, error)
	// SaveSession 回写会话记录并刷新过期时间
	SaveSession(ctx context.Context, session *model.Session) error
	// MarkOffline 标记离线并更新活跃时间，不动房间成员关系
	MarkOffline(ctx context.Context, sessionId string) error
	// Expire 删除会话记录，仅允许离线且超过不活跃窗口的会话
	Expire(ctx context.Context, sessionId string) error
}

// RoomDirectoryService 房间目录
// 管理房间元数据、容量与占用计数缓存
type RoomDirectoryService interface {
	CreateRoom(ctx context.Context, req request.CreateRoomRequest) (*respond.RoomRespond, error)
	GetRoom(ctx context.Context, roomId string) (*model.Room, error)
	// ListRooms 按创建时间倒序返回房间列表，支持仅公开/名称过滤
	ListRooms(ctx context.Context, req request.ListRoomsRequest) ([]respond.RoomRespond, error)
	UpdateRoom(ctx context.Context, req request.UpdateRoomRequest) error
	// UpdateOccupancy 幂等刷新占用计数缓存；该值永远不作为成员决策依据
	UpdateOccupancy(ctx context.Context, roomId string, count int) error
	// DeleteRoom 删除房间元数据与成员集合；消息历史不级联删除，由保留期自然淘汰
	DeleteRoom(ctx context.Context, roomId string) (bool, error)
}

// MembershipCoordinatorService 成员关系协调器
// 在 join/leave/disconnect 之间维护"每会话至多一个房间"不变式
type MembershipCoordinatorService interface {
	// Join 加入房间，返回房间快照
	// 失败序：未认证 -> 房间不存在 -> 房间已满（以权威成员集合计数判定）
	Join(ctx context.Context, sessionId, roomId string) (*respond.RoomSnapshotRespond, error)
	// Leave 离开房间，对非成员调用是无副作用的成功
	Leave(ctx context.Context, sessionId, roomId string) error
	// Disconnect 等价于离开当前房间（如有）后标记离线，可重复调用
	Disconnect(ctx context.Context, sessionId string) error
	// ListMembers 列出房间当前成员（含在线标志）
	ListMembers(ctx context.Context, roomId string) ([]respond.MemberRespond, error)
	// SetNotifier 注入广播器（在聊天网关初始化后调用）
	SetNotifier(n coordinator.Notifier)
}

// MessageLogService 消息日志
// 每房间有界、有序、按保留期过期的消息历史
type MessageLogService interface {
	// Append 写入消息并更新历史索引（截断到条数上限、设置保留期）
	Append(ctx context.Context, roomId, senderSessionId, displayName, content, kind string) (*model.Message, error)
	// Page 分页读取，页内按时间正序；已过期的记录被静默跳过
	Page(ctx context.Context, roomId string, limit, offset int) ([]respond.MessageRespond, error)
	Get(ctx context.Context, messageId string) (*respond.MessageRespond, error)
	// Delete 硬删除消息记录，索引条目留待容量/保留期自然淘汰
	Delete(ctx context.Context, messageId string) (bool, error)
	// Count 历史索引长度（截断后的视图，不是历史总量）
	Count(ctx context.Context, roomId string) (int64, error)
}
