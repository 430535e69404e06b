package service

import (
	"time"

	"huddle_chat_server/internal/config"
	myredis "huddle_chat_server/internal/dao/redis"
	"huddle_chat_server/internal/service/coordinator"
	"huddle_chat_server/internal/service/messagelog"
	"huddle_chat_server/internal/service/registry"
	"huddle_chat_server/internal/service/room"
)

// Services 聚合全部业务服务，统一装配依赖
type Services struct {
	Registry    SessionRegistryService
	Room        RoomDirectoryService
	Coordinator MembershipCoordinatorService
	MessageLog  MessageLogService
}

// Svc 全局服务实例，InitServices 之后可用
var Svc *Services

// NewServices 按配置装配服务依赖
func NewServices(store myredis.AsyncStoreService) *Services {
	chatCfg := config.GetConfig().ChatConfig

	registrySvc := registry.NewRegistryService(store, time.Duration(chatCfg.SessionTTLHours)*time.Hour)
	roomSvc := room.NewRoomService(store, chatCfg.DefaultMaxOccupancy)
	messageSvc := messagelog.NewMessageLogService(
		store,
		chatCfg.MessageMaxLen,
		int64(chatCfg.HistoryCap),
		time.Duration(chatCfg.RetentionHours)*time.Hour,
	)
	coordinatorSvc := coordinator.NewCoordinatorService(store, registrySvc, roomSvc, messageSvc, chatCfg.SnapshotPageSize)

	return &Services{
		Registry:    registrySvc,
		Room:        roomSvc,
		Coordinator: coordinatorSvc,
		MessageLog:  messageSvc,
	}
}

// InitServices 初始化全局服务实例
func InitServices(store myredis.AsyncStoreService) {
	Svc = NewServices(store)
}
