// Package coordinator 实现成员关系协调器
// 核心不变式：任何时刻一个会话至多属于一个房间
// 多步写入不做跨键事务，依靠各步幂等（SADD/SREM）加懒惰对账来收敛
package coordinator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	myredis "huddle_chat_server/internal/dao/redis"
	"huddle_chat_server/internal/dto/respond"
	"huddle_chat_server/internal/infrastructure/metrics"
	"huddle_chat_server/internal/model"
	"huddle_chat_server/pkg/constants"
	"huddle_chat_server/pkg/errorx"
)

// SessionRegistry 协调器消费的会话注册表能力
type SessionRegistry interface {
	GetSession(ctx context.Context, sessionId string) (*model.Session, error)
	SaveSession(ctx context.Context, session *model.Session) error
	MarkOffline(ctx context.Context, sessionId string) error
}

// RoomDirectory 协调器消费的房间目录能力
type RoomDirectory interface {
	GetRoom(ctx context.Context, roomId string) (*model.Room, error)
	UpdateOccupancy(ctx context.Context, roomId string, count int) error
}

// MessageLog 协调器消费的消息日志能力
type MessageLog interface {
	Append(ctx context.Context, roomId, senderSessionId, displayName, content, kind string) (*model.Message, error)
	Page(ctx context.Context, roomId string, limit, offset int) ([]respond.MessageRespond, error)
}

// Notifier 广播器接口，由聊天网关实现
// excludeConnId 非空时跳过该连接（通常是事件发起者自己）
type Notifier interface {
	BroadcastToRoom(roomId string, payload []byte, excludeConnId string)
}

// coordinatorService 成员关系协调器实现
type coordinatorService struct {
	store        myredis.AsyncStoreService
	registry     SessionRegistry
	rooms        RoomDirectory
	messages     MessageLog
	notifier     Notifier // 网关初始化后注入，可为 nil（测试或纯 HTTP 场景）
	snapshotSize int
}

// NewCoordinatorService 构造函数
// snapshotSize 为 0 时使用默认的快照消息条数
func NewCoordinatorService(
	store myredis.AsyncStoreService,
	registry SessionRegistry,
	rooms RoomDirectory,
	messages MessageLog,
	snapshotSize int,
) *coordinatorService {
	if snapshotSize <= 0 {
		snapshotSize = constants.SNAPSHOT_MESSAGE_SIZE
	}
	return &coordinatorService{
		store:        store,
		registry:     registry,
		rooms:        rooms,
		messages:     messages,
		snapshotSize: snapshotSize,
	}
}

// SetNotifier 注入广播器
func (s *coordinatorService) SetNotifier(n Notifier) {
	s.notifier = n
}

// Join 加入房间
// 失败序：未认证 -> 房间不存在 -> 房间已满；
// 已在其他房间时先做隐式 leave（先删后加两步，不是事务——
// 中途崩溃最多让会话旁落在零个房间，绝不会同处两个房间）；
// 重复加入同一房间对成员集合无副作用，但仍返回当前快照
func (s *coordinatorService) Join(ctx context.Context, sessionId, roomId string) (*respond.RoomSnapshotRespond, error) {
	session, err := s.registry.GetSession(ctx, sessionId)
	if err != nil {
		if errorx.GetCode(err) == errorx.CodeNotFound {
			return nil, errorx.New(errorx.CodeNotAuthenticated, "会话不存在，请先认证")
		}
		return nil, err
	}
	room, err := s.rooms.GetRoom(ctx, roomId)
	if err != nil {
		return nil, err
	}

	membersKey := "room_members_" + roomId
	alreadyMember, err := s.store.IsSetMember(ctx, membersKey, sessionId)
	if err != nil {
		return nil, err
	}

	if !alreadyMember {
		// 容量判定只信权威成员集合，不看缓存计数
		count, err := s.store.CountSet(ctx, membersKey)
		if err != nil {
			return nil, err
		}
		if count >= int64(room.MaxOccupancy) {
			return nil, errorx.Newf(errorx.CodeRoomFull, "房间 %s 已满", room.Name)
		}

		// 隐式离开原房间（含副作用），再加入新房间
		if session.CurrentRoomId != "" && session.CurrentRoomId != roomId {
			if err := s.Leave(ctx, sessionId, session.CurrentRoomId); err != nil {
				return nil, err
			}
		}

		if err := s.store.AddToSet(ctx, membersKey, sessionId); err != nil {
			return nil, err
		}
	}

	session.CurrentRoomId = roomId
	if err := s.registry.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	occupancy := s.recomputeOccupancy(ctx, roomId)

	// 懒惰对账：部分失败可能把会话留在别的房间的集合里，
	// 放到异步任务里全量扫一遍清掉，不占关键路径
	s.store.SubmitTask(func() {
		s.reconcile(sessionId, roomId)
	})

	snapshot, err := s.buildSnapshot(ctx, room, occupancy)
	if err != nil {
		return nil, err
	}

	if !alreadyMember {
		metrics.RoomJoins.Inc()
		// 副作用失败不回滚已提交的成员变更（至少一次语义，记日志）
		s.announce(ctx, roomId, session, fmt.Sprintf("%s 加入了房间", session.DisplayName))
		s.notify(roomId, respond.EventMemberEntered, respond.MemberEnteredRespond{
			SessionId:   sessionId,
			DisplayName: session.DisplayName,
			Occupancy:   occupancy,
		}, session.ConnectionId)
	}
	return snapshot, nil
}

// Leave 离开房间
// 对非成员调用是无副作用的成功（幂等）
func (s *coordinatorService) Leave(ctx context.Context, sessionId, roomId string) error {
	membersKey := "room_members_" + roomId
	isMember, err := s.store.IsSetMember(ctx, membersKey, sessionId)
	if err != nil {
		return err
	}

	// 会话记录可能已过期，离开流程不因此失败
	session, err := s.registry.GetSession(ctx, sessionId)
	if err != nil {
		if errorx.GetCode(err) != errorx.CodeNotFound {
			return err
		}
		session = nil
	}

	if !isMember {
		// 集合里没有但会话还指着这个房间：纠正指针后按成功返回
		if session != nil && session.CurrentRoomId == roomId {
			session.CurrentRoomId = ""
			if err := s.registry.SaveSession(ctx, session); err != nil {
				return err
			}
		}
		return nil
	}

	if err := s.store.RemoveFromSet(ctx, membersKey, sessionId); err != nil {
		return err
	}
	occupancy := s.recomputeOccupancy(ctx, roomId)

	if session != nil && session.CurrentRoomId == roomId {
		session.CurrentRoomId = ""
		if err := s.registry.SaveSession(ctx, session); err != nil {
			return err
		}
	}

	metrics.RoomLeaves.Inc()
	displayName := ""
	excludeConn := ""
	if session != nil {
		displayName = session.DisplayName
		excludeConn = session.ConnectionId
	}
	// 昵称未知（会话已过期）时跳过系统消息
	if displayName != "" {
		s.announce(ctx, roomId, session, fmt.Sprintf("%s 离开了房间", displayName))
	}
	s.notify(roomId, respond.EventMemberLeft, respond.MemberLeftRespond{
		SessionId:   sessionId,
		DisplayName: displayName,
		Occupancy:   occupancy,
	}, excludeConn)
	return nil
}

// Disconnect 连接断开处理
// 等价于离开当前房间（如有）后标记离线；可重复调用
// 断开路径的错误只记日志不上抛——连接已经不在了，没有可通知的对象
func (s *coordinatorService) Disconnect(ctx context.Context, sessionId string) error {
	session, err := s.registry.GetSession(ctx, sessionId)
	if err != nil {
		if errorx.GetCode(err) != errorx.CodeNotFound {
			zap.L().Error("断开时读取会话失败", zap.String("session_id", sessionId), zap.Error(err))
		}
		return nil
	}

	if session.CurrentRoomId != "" {
		if err := s.Leave(ctx, sessionId, session.CurrentRoomId); err != nil {
			zap.L().Error("断开时离开房间失败",
				zap.String("session_id", sessionId),
				zap.String("room_id", session.CurrentRoomId),
				zap.Error(err),
			)
		}
	}
	if err := s.registry.MarkOffline(ctx, sessionId); err != nil {
		zap.L().Error("标记离线失败", zap.String("session_id", sessionId), zap.Error(err))
	}
	return nil
}

// ListMembers 列出房间当前成员
// 集合里残留的已过期会话 ID 被跳过
func (s *coordinatorService) ListMembers(ctx context.Context, roomId string) ([]respond.MemberRespond, error) {
	sessionIds, err := s.store.GetSetMembers(ctx, "room_members_"+roomId)
	if err != nil {
		return nil, err
	}
	members := make([]respond.MemberRespond, 0, len(sessionIds))
	for _, sessionId := range sessionIds {
		session, err := s.registry.GetSession(ctx, sessionId)
		if err != nil {
			if errorx.GetCode(err) == errorx.CodeNotFound {
				continue
			}
			return nil, err
		}
		members = append(members, respond.MemberRespond{
			SessionId:   session.SessionId,
			DisplayName: session.DisplayName,
			IsOnline:    session.IsOnline,
		})
	}
	return members, nil
}

// buildSnapshot 构建房间快照：元数据、成员列表、最近一页消息、权威人数
func (s *coordinatorService) buildSnapshot(ctx context.Context, room *model.Room, occupancy int) (*respond.RoomSnapshotRespond, error) {
	members, err := s.ListMembers(ctx, room.RoomId)
	if err != nil {
		return nil, err
	}
	messages, err := s.messages.Page(ctx, room.RoomId, s.snapshotSize, 0)
	if err != nil {
		return nil, err
	}
	return &respond.RoomSnapshotRespond{
		Room: respond.RoomRespond{
			RoomId:         room.RoomId,
			Name:           room.Name,
			Description:    room.Description,
			IsPrivate:      room.IsPrivate,
			MaxOccupancy:   room.MaxOccupancy,
			OccupancyCount: occupancy,
			CreatedBy:      room.CreatedBy,
			CreatedAt:      room.CreatedAt.Format("2006-01-02 15:04:05"),
		},
		Members:   members,
		Messages:  messages,
		Occupancy: occupancy,
	}, nil
}

// recomputeOccupancy 从权威成员集合重算占用人数并刷新缓存
// 缓存刷新失败不影响调用方，计数仅是展示用途
func (s *coordinatorService) recomputeOccupancy(ctx context.Context, roomId string) int {
	count, err := s.store.CountSet(ctx, "room_members_"+roomId)
	if err != nil {
		zap.L().Error("重算房间人数失败", zap.String("room_id", roomId), zap.Error(err))
		return 0
	}
	if err := s.rooms.UpdateOccupancy(ctx, roomId, int(count)); err != nil {
		zap.L().Error("刷新人数缓存失败", zap.String("room_id", roomId), zap.Error(err))
	}
	return int(count)
}

// reconcile 对账：把会话从 keepRoomId 以外的所有成员集合里清掉
// 跨键写入部分失败时的兜底，全程幂等
func (s *coordinatorService) reconcile(sessionId, keepRoomId string) {
	ctx := context.Background()
	roomIds, err := s.store.GetSetMembers(ctx, "rooms")
	if err != nil {
		zap.L().Error("对账扫描房间索引失败", zap.Error(err))
		return
	}
	for _, roomId := range roomIds {
		if roomId == keepRoomId {
			continue
		}
		isMember, err := s.store.IsSetMember(ctx, "room_members_"+roomId, sessionId)
		if err != nil || !isMember {
			continue
		}
		zap.L().Warn("发现残留的房间成员关系，清理",
			zap.String("session_id", sessionId),
			zap.String("room_id", roomId),
		)
		if err := s.store.RemoveFromSet(ctx, "room_members_"+roomId, sessionId); err != nil {
			zap.L().Error("清理残留成员失败", zap.String("room_id", roomId), zap.Error(err))
			continue
		}
		s.recomputeOccupancy(ctx, roomId)
	}
}

// announce 追加系统消息并广播给整个房间
// 持久化先于广播；任一步失败只记日志，不回滚之前的成员变更
func (s *coordinatorService) announce(ctx context.Context, roomId string, session *model.Session, content string) {
	message, err := s.messages.Append(ctx, roomId, constants.SYSTEM_SENDER_ID, session.DisplayName, content, model.MessageKindSystem)
	if err != nil {
		zap.L().Error("写入系统消息失败", zap.String("room_id", roomId), zap.Error(err))
		return
	}
	s.notify(roomId, respond.EventMessage, respond.MessageRespond{
		MessageId:         message.MessageId,
		RoomId:            message.RoomId,
		SenderSessionId:   message.SenderSessionId,
		SenderDisplayName: message.SenderDisplayName,
		Content:           message.Content,
		CreatedAt:         message.CreatedAt.Format("2006-01-02 15:04:05"),
		Kind:              message.Kind,
	}, "")
}

// notify 经广播器推送事件，未注入广播器时静默跳过
func (s *coordinatorService) notify(roomId, event string, data any, excludeConnId string) {
	if s.notifier == nil {
		return
	}
	payload := respond.Encode(event, data)
	if payload == nil {
		return
	}
	s.notifier.BroadcastToRoom(roomId, payload, excludeConnId)
}
