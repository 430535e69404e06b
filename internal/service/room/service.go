// Package room 实现房间目录
// 房间元数据存为 room_{id} JSON，全局索引为 rooms 集合
package room

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	myredis "huddle_chat_server/internal/dao/redis"
	"huddle_chat_server/internal/dto/request"
	"huddle_chat_server/internal/dto/respond"
	"huddle_chat_server/internal/infrastructure/metrics"
	"huddle_chat_server/internal/model"
	"huddle_chat_server/pkg/constants"
	"huddle_chat_server/pkg/errorx"
	"huddle_chat_server/pkg/util/random"
)

// roomService 房间目录实现
type roomService struct {
	store myredis.AsyncStoreService
	// defaultMaxOccupancy 创建时未指定容量的默认值
	defaultMaxOccupancy int
}

// NewRoomService 构造函数
// defaultMaxOccupancy 不合法时回落到内置默认值
func NewRoomService(store myredis.AsyncStoreService, defaultMaxOccupancy int) *roomService {
	if defaultMaxOccupancy < constants.ROOM_MIN_OCCUPANCY || defaultMaxOccupancy > constants.ROOM_MAX_OCCUPANCY {
		defaultMaxOccupancy = constants.DEFAULT_MAX_OCCUPANCY
	}
	return &roomService{store: store, defaultMaxOccupancy: defaultMaxOccupancy}
}

// CreateRoom 创建房间
// 校验名称与容量边界，通过后写入元数据并加入全局索引
func (s *roomService) CreateRoom(ctx context.Context, req request.CreateRoomRequest) (*respond.RoomRespond, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errorx.New(errorx.CodeInvalidRoom, "房间名不能为空")
	}
	if utf8.RuneCountInString(name) > constants.ROOM_NAME_MAX_LEN {
		return nil, errorx.Newf(errorx.CodeInvalidRoom, "房间名长度不能超过 %d 个字符", constants.ROOM_NAME_MAX_LEN)
	}
	maxOccupancy := req.MaxOccupancy
	if maxOccupancy == 0 {
		maxOccupancy = s.defaultMaxOccupancy
	}
	if maxOccupancy < constants.ROOM_MIN_OCCUPANCY || maxOccupancy > constants.ROOM_MAX_OCCUPANCY {
		return nil, errorx.Newf(errorx.CodeInvalidRoom, "房间容量必须在 %d-%d 之间",
			constants.ROOM_MIN_OCCUPANCY, constants.ROOM_MAX_OCCUPANCY)
	}

	room := &model.Room{
		RoomId:       fmt.Sprintf("R%s", random.GetNowAndLenRandomString(11)),
		Name:         name,
		Description:  req.Description,
		IsPrivate:    req.IsPrivate,
		MaxOccupancy: maxOccupancy,
		CreatedBy:    req.CreatedBy,
		CreatedAt:    time.Now(),
	}
	if err := s.saveRoom(ctx, room); err != nil {
		return nil, err
	}
	if err := s.store.AddToSet(ctx, "rooms", room.RoomId); err != nil {
		return nil, err
	}

	metrics.RoomsCreated.Inc()
	zap.L().Info("房间创建成功",
		zap.String("room_id", room.RoomId),
		zap.String("name", room.Name),
		zap.Int("max_occupancy", room.MaxOccupancy),
	)
	rsp := toRespond(room)
	return &rsp, nil
}

// GetRoom 获取房间
func (s *roomService) GetRoom(ctx context.Context, roomId string) (*model.Room, error) {
	value, err := s.store.Get(ctx, "room_"+roomId)
	if err != nil {
		return nil, err
	}
	if value == "" {
		return nil, errorx.Newf(errorx.CodeRoomNotFound, "房间 %s 不存在", roomId)
	}
	var room model.Room
	if err := json.Unmarshal([]byte(value), &room); err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeCacheError, "unmarshal room %s", roomId)
	}
	return &room, nil
}

// ListRooms 房间列表，按创建时间倒序
// 索引中指向已丢失元数据的条目被跳过（不视为错误）
func (s *roomService) ListRooms(ctx context.Context, req request.ListRoomsRequest) ([]respond.RoomRespond, error) {
	roomIds, err := s.store.GetSetMembers(ctx, "rooms")
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(req.Search))
	rooms := make([]*model.Room, 0, len(roomIds))
	for _, roomId := range roomIds {
		room, err := s.GetRoom(ctx, roomId)
		if err != nil {
			if errorx.GetCode(err) == errorx.CodeRoomNotFound {
				continue // 悬挂索引条目
			}
			return nil, err
		}
		if req.PublicOnly && room.IsPrivate {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(room.Name), search) {
			continue
		}
		rooms = append(rooms, room)
	}

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})

	rspList := make([]respond.RoomRespond, 0, len(rooms))
	for _, room := range rooms {
		rspList = append(rspList, toRespond(room))
	}
	return rspList, nil
}

// UpdateRoom 更新房间展示字段与容量
func (s *roomService) UpdateRoom(ctx context.Context, req request.UpdateRoomRequest) error {
	room, err := s.GetRoom(ctx, req.RoomId)
	if err != nil {
		return err
	}
	if req.Name != "" {
		name := strings.TrimSpace(req.Name)
		if name == "" || utf8.RuneCountInString(name) > constants.ROOM_NAME_MAX_LEN {
			return errorx.New(errorx.CodeInvalidRoom, "房间名不合法")
		}
		room.Name = name
	}
	if req.Description != "" {
		room.Description = req.Description
	}
	if req.MaxOccupancy != 0 {
		if req.MaxOccupancy < constants.ROOM_MIN_OCCUPANCY || req.MaxOccupancy > constants.ROOM_MAX_OCCUPANCY {
			return errorx.Newf(errorx.CodeInvalidRoom, "房间容量必须在 %d-%d 之间",
				constants.ROOM_MIN_OCCUPANCY, constants.ROOM_MAX_OCCUPANCY)
		}
		room.MaxOccupancy = req.MaxOccupancy
	}
	return s.saveRoom(ctx, room)
}

// UpdateOccupancy 幂等刷新占用计数缓存
// 仅用于展示，不参与容量判定
func (s *roomService) UpdateOccupancy(ctx context.Context, roomId string, count int) error {
	room, err := s.GetRoom(ctx, roomId)
	if err != nil {
		return err
	}
	if room.OccupancyCount == count {
		return nil
	}
	room.OccupancyCount = count
	return s.saveRoom(ctx, room)
}

// DeleteRoom 删除房间元数据与成员集合
// 消息历史不级联删除：索引与记录各自带保留期，到期自然淘汰
func (s *roomService) DeleteRoom(ctx context.Context, roomId string) (bool, error) {
	exists, err := s.store.Exists(ctx, "room_"+roomId)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	if err := s.store.Delete(ctx, "room_"+roomId); err != nil {
		return false, err
	}
	if err := s.store.RemoveFromSet(ctx, "rooms", roomId); err != nil {
		return false, err
	}
	if err := s.store.Delete(ctx, "room_members_"+roomId); err != nil {
		return false, err
	}
	zap.L().Info("房间已删除", zap.String("room_id", roomId))
	return true, nil
}

// saveRoom 序列化并写入房间元数据（不设置过期时间）
func (s *roomService) saveRoom(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "marshal room %s", room.RoomId)
	}
	return s.store.Set(ctx, "room_"+room.RoomId, string(data), 0)
}

// toRespond 转换为响应 DTO
func toRespond(room *model.Room) respond.RoomRespond {
	return respond.RoomRespond{
		RoomId:         room.RoomId,
		Name:           room.Name,
		Description:    room.Description,
		IsPrivate:      room.IsPrivate,
		MaxOccupancy:   room.MaxOccupancy,
		OccupancyCount: room.OccupancyCount,
		CreatedBy:      room.CreatedBy,
		CreatedAt:      room.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
