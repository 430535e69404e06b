// Package registry 实现会话注册表
// 会话记录与连接反向索引都存放在 Redis，任何实例都能解析连接身份
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	myredis "huddle_chat_server/internal/dao/redis"
	"huddle_chat_server/internal/infrastructure/metrics"
	"huddle_chat_server/internal/model"
	"huddle_chat_server/pkg/constants"
	"huddle_chat_server/pkg/errorx"
	"huddle_chat_server/pkg/util/random"
)

// registryService 会话注册表实现
type registryService struct {
	store      myredis.AsyncStoreService
	sessionTTL time.Duration
}

// NewRegistryService 构造函数
// sessionTTL 为 0 时使用默认的会话过期时间
func NewRegistryService(store myredis.AsyncStoreService, sessionTTL time.Duration) *registryService {
	if sessionTTL <= 0 {
		sessionTTL = constants.SESSION_TTL
	}
	return &registryService{
		store:      store,
		sessionTTL: sessionTTL,
	}
}

// UpsertSession 认证入口
// 同一连接重复认证时刷新既有会话；否则创建新会话
// 副作用：写入 conn_{connectionId} -> sessionId 反向索引，带可刷新过期时间
func (s *registryService) UpsertSession(ctx context.Context, displayName, connectionId string) (*model.Session, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return nil, errorx.New(errorx.CodeInvalidIdentity, "昵称不能为空")
	}
	if utf8.RuneCountInString(name) > constants.DISPLAY_NAME_MAX_LEN {
		return nil, errorx.Newf(errorx.CodeInvalidIdentity, "昵称长度不能超过 %d 个字符", constants.DISPLAY_NAME_MAX_LEN)
	}
	if connectionId == "" {
		return nil, errorx.ErrInvalidParam
	}

	// 同一连接重复认证：刷新既有会话
	if sessionId, err := s.store.Get(ctx, "conn_"+connectionId); err != nil {
		return nil, err
	} else if sessionId != "" {
		session, err := s.GetSession(ctx, sessionId)
		if err == nil {
			session.DisplayName = name
			session.ConnectionId = connectionId
			session.IsOnline = true
			session.LastSeenAt = time.Now()
			if err := s.SaveSession(ctx, session); err != nil {
				return nil, err
			}
			if err := s.store.Set(ctx, "conn_"+connectionId, session.SessionId, s.sessionTTL); err != nil {
				return nil, err
			}
			return session, nil
		}
		if errorx.GetCode(err) != errorx.CodeNotFound {
			return nil, err
		}
		// 反向索引指向的会话已过期，走新建流程
	}

	session := &model.Session{
		SessionId:    fmt.Sprintf("S%s", random.GetNowAndLenRandomString(11)),
		DisplayName:  name,
		ConnectionId: connectionId,
		IsOnline:     true,
		LastSeenAt:   time.Now(),
	}
	if err := s.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, "conn_"+connectionId, session.SessionId, s.sessionTTL); err != nil {
		return nil, err
	}

	metrics.SessionsOnline.Inc()
	zap.L().Info("会话创建成功",
		zap.String("session_id", session.SessionId),
		zap.String("connection_id", connectionId),
	)
	return session, nil
}

// LookupByConnection 通过连接标识反查会话
func (s *registryService) LookupByConnection(ctx context.Context, connectionId string) (*model.Session, error) {
	sessionId, err := s.store.GetOrError(ctx, "conn_"+connectionId)
	if err != nil {
		return nil, err
	}
	return s.GetSession(ctx, sessionId)
}

// GetSession 按会话 ID 获取会话
func (s *registryService) GetSession(ctx context.Context, sessionId string) (*model.Session, error) {
	value, err := s.store.GetOrError(ctx, "session_"+sessionId)
	if err != nil {
		return nil, err
	}
	var session model.Session
	if err := json.Unmarshal([]byte(value), &session); err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeCacheError, "unmarshal session %s", sessionId)
	}
	return &session, nil
}

// SaveSession 回写会话记录并刷新过期时间
func (s *registryService) SaveSession(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "marshal session %s", session.SessionId)
	}
	return s.store.Set(ctx, "session_"+session.SessionId, string(data), s.sessionTTL)
}

// MarkOffline 标记离线
// 只改在线标志与活跃时间，成员关系由 Coordinator 单独清理
func (s *registryService) MarkOffline(ctx context.Context, sessionId string) error {
	session, err := s.GetSession(ctx, sessionId)
	if err != nil {
		if errorx.GetCode(err) == errorx.CodeNotFound {
			return nil // 会话已过期，视为成功
		}
		return err
	}
	if session.IsOnline {
		metrics.SessionsOnline.Dec()
	}
	session.IsOnline = false
	session.LastSeenAt = time.Now()
	if err := s.SaveSession(ctx, session); err != nil {
		return err
	}
	// 反向索引随连接一起失效
	if session.ConnectionId != "" {
		if err := s.store.Delete(ctx, "conn_"+session.ConnectionId); err != nil {
			zap.L().Error("删除连接索引失败", zap.String("session_id", sessionId), zap.Error(err))
		}
	}
	return nil
}

// Expire 删除会话记录
// 仅允许删除离线且超过不活跃窗口的会话，在线会话返回参数错误
func (s *registryService) Expire(ctx context.Context, sessionId string) error {
	session, err := s.GetSession(ctx, sessionId)
	if err != nil {
		if errorx.GetCode(err) == errorx.CodeNotFound {
			return nil // 已被 TTL 回收
		}
		return err
	}
	if session.IsOnline {
		return errorx.New(errorx.CodeInvalidParam, "在线会话不能删除")
	}
	if time.Since(session.LastSeenAt) < s.sessionTTL {
		return errorx.New(errorx.CodeInvalidParam, "会话尚在重连窗口内")
	}
	return s.store.Delete(ctx, "session_"+sessionId)
}
