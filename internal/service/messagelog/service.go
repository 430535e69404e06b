// Package messagelog 实现每房间有界、有序、按保留期过期的消息日志
// 消息记录存为 message_{id} JSON（带保留期 TTL），
// 历史索引为 room_history_{roomId} 列表（最新在前，截断到条数上限）
package messagelog

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	myredis "huddle_chat_server/internal/dao/redis"
	"huddle_chat_server/internal/dto/respond"
	"huddle_chat_server/internal/infrastructure/metrics"
	"huddle_chat_server/internal/model"
	"huddle_chat_server/pkg/constants"
	"huddle_chat_server/pkg/errorx"
	"huddle_chat_server/pkg/util/snowflake"
)

// messagelogService 消息日志实现
type messagelogService struct {
	store      myredis.AsyncStoreService
	maxLen     int           // 消息内容最大长度（trim 后）
	historyCap int64         // 历史索引条数上限
	retention  time.Duration // 消息记录保留时长
}

// NewMessageLogService 构造函数
// 零值参数使用默认的长度上限/容量/保留期
func NewMessageLogService(store myredis.AsyncStoreService, maxLen int, historyCap int64, retention time.Duration) *messagelogService {
	if maxLen <= 0 {
		maxLen = constants.MESSAGE_MAX_LEN
	}
	if historyCap <= 0 {
		historyCap = constants.MESSAGE_HISTORY_CAP
	}
	if retention <= 0 {
		retention = constants.MESSAGE_RETENTION
	}
	return &messagelogService{
		store:      store,
		maxLen:     maxLen,
		historyCap: historyCap,
		retention:  retention,
	}
}

// Append 写入消息
// 房间内顺序即索引接受写入的顺序；写入成功后索引截断到条数上限，
// 超出部分虽然记录仍在（到保留期为止），但已无法经索引触达
func (s *messagelogService) Append(ctx context.Context, roomId, senderSessionId, displayName, content, kind string) (*model.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errorx.New(errorx.CodeInvalidMessage, "消息内容不能为空")
	}
	if utf8.RuneCountInString(content) > s.maxLen {
		return nil, errorx.Newf(errorx.CodeInvalidMessage, "消息长度不能超过 %d 个字符", s.maxLen)
	}
	if kind != model.MessageKindText && kind != model.MessageKindSystem {
		return nil, errorx.ErrInvalidParam
	}

	message := &model.Message{
		MessageId:         snowflake.GenerateIDString(),
		RoomId:            roomId,
		SenderSessionId:   senderSessionId,
		SenderDisplayName: displayName,
		Content:           content,
		CreatedAt:         time.Now(),
		Kind:              kind,
	}
	data, err := json.Marshal(message)
	if err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeCacheError, "marshal message %s", message.MessageId)
	}

	// 先写记录，再挂索引：索引里的 id 一定有对应记录（直到保留期淘汰）
	if err := s.store.Set(ctx, "message_"+message.MessageId, string(data), s.retention); err != nil {
		return nil, err
	}
	historyKey := "room_history_" + roomId
	if err := s.store.PushToList(ctx, historyKey, message.MessageId); err != nil {
		return nil, err
	}
	if err := s.store.TrimList(ctx, historyKey, 0, s.historyCap-1); err != nil {
		// 截断失败只影响容量上限，不影响已写入的消息
		zap.L().Error("历史索引截断失败", zap.String("room_id", roomId), zap.Error(err))
	}
	// 索引也带保留期，每次写入刷新：停止写入的房间整个索引到期淘汰
	if err := s.store.Expire(ctx, historyKey, s.retention); err != nil {
		zap.L().Error("历史索引续期失败", zap.String("room_id", roomId), zap.Error(err))
	}

	metrics.MessagesAppended.WithLabelValues(kind).Inc()
	return message, nil
}

// Page 分页读取历史消息
// 索引是最新在前的，读取后反转为时间正序返回；
// 已过保留期或已删除的记录被静默跳过，返回页可能短于 limit
func (s *messagelogService) Page(ctx context.Context, roomId string, limit, offset int) ([]respond.MessageRespond, error) {
	if limit <= 0 {
		limit = constants.SNAPSHOT_MESSAGE_SIZE
	}
	if offset < 0 {
		offset = 0
	}

	messageIds, err := s.store.ListRange(ctx, "room_history_"+roomId, int64(offset), int64(offset+limit-1))
	if err != nil {
		return nil, err
	}

	// 先按索引顺序（最新在前）收集，再整体反转
	rspList := make([]respond.MessageRespond, 0, len(messageIds))
	for _, messageId := range messageIds {
		value, err := s.store.Get(ctx, "message_"+messageId)
		if err != nil {
			return nil, err
		}
		if value == "" {
			continue // 记录已过期或已删除
		}
		var message model.Message
		if err := json.Unmarshal([]byte(value), &message); err != nil {
			zap.L().Error("消息记录反序列化失败", zap.String("message_id", messageId), zap.Error(err))
			continue
		}
		rspList = append(rspList, ToRespond(&message))
	}
	for i, j := 0, len(rspList)-1; i < j; i, j = i+1, j-1 {
		rspList[i], rspList[j] = rspList[j], rspList[i]
	}
	return rspList, nil
}

// Get 按 ID 获取消息
func (s *messagelogService) Get(ctx context.Context, messageId string) (*respond.MessageRespond, error) {
	value, err := s.store.Get(ctx, "message_"+messageId)
	if err != nil {
		return nil, err
	}
	if value == "" {
		return nil, errorx.Newf(errorx.CodeMessageNotFound, "消息 %s 不存在", messageId)
	}
	var message model.Message
	if err := json.Unmarshal([]byte(value), &message); err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeCacheError, "unmarshal message %s", messageId)
	}
	rsp := ToRespond(&message)
	return &rsp, nil
}

// Delete 硬删除消息记录
// 索引条目不回收，后续经索引的读取会像已过期一样跳过它
func (s *messagelogService) Delete(ctx context.Context, messageId string) (bool, error) {
	exists, err := s.store.Exists(ctx, "message_"+messageId)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	if err := s.store.Delete(ctx, "message_"+messageId); err != nil {
		return false, err
	}
	return true, nil
}

// Count 历史索引长度
// 是截断后的视图，发生过淘汰时不等于历史总量
func (s *messagelogService) Count(ctx context.Context, roomId string) (int64, error) {
	return s.store.ListLen(ctx, "room_history_"+roomId)
}

// ToRespond 转换为响应 DTO
func ToRespond(message *model.Message) respond.MessageRespond {
	return respond.MessageRespond{
		MessageId:         message.MessageId,
		RoomId:            message.RoomId,
		SenderSessionId:   message.SenderSessionId,
		SenderDisplayName: message.SenderDisplayName,
		Content:           message.Content,
		CreatedAt:         message.CreatedAt.Format("2006-01-02 15:04:05"),
		Kind:              message.Kind,
	}
}
