package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"huddle_chat_server/internal/config"
	myredis "huddle_chat_server/internal/dao/redis"
	"huddle_chat_server/internal/handler"
	"huddle_chat_server/internal/http_server"
	"huddle_chat_server/internal/infrastructure/logger"
	"huddle_chat_server/internal/service"
	"huddle_chat_server/internal/service/chat"
	"huddle_chat_server/pkg/util/snowflake"
)

func main() {
	// 1. 加载配置
	conf := config.GetConfig()

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, conf.MainConfig.Mode); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	zap.L().Info("日志初始化成功")

	// 3. 初始化 Redis（唯一的共享存储）
	myredis.Init()
	zap.L().Info("Redis 初始化成功")

	// 4. 初始化雪花算法节点（消息 ID 生成）
	snowflake.Init()

	// 5. 初始化 validator 翻译器
	if err := handler.InitTrans("zh"); err != nil {
		zap.L().Fatal("validator 翻译器初始化失败", zap.Error(err))
	}

	// 6. 初始化 Service 层 (依赖注入)
	store := myredis.GetStoreService()
	service.InitServices(store)
	zap.L().Info("Service 层初始化成功")

	// 7. 初始化 ChatServer
	chatServer := chat.NewChatServer(chat.ChatServerConfig{
		Mode:        conf.KafkaConfig.MessageMode,
		Registry:    service.Svc.Registry,
		Coordinator: service.Svc.Coordinator,
		MessageLog:  service.Svc.MessageLog,
		Store:       store,
	})
	if conf.KafkaConfig.MessageMode == "kafka" {
		chatServer.InitKafka()
	}
	chat.GlobalBroker = chatServer.GetBroker()
	// 广播器注入协调器，join/leave 的通知经 Broker 推给房间成员
	service.Svc.Coordinator.SetNotifier(chatServer.GetBroker())
	zap.L().Info("ChatServer 初始化成功")

	// 8. 初始化 HTTP 服务器
	handlers := handler.NewHandlers(service.Svc)
	engine := http_server.Init(handlers)
	zap.L().Info("HTTP 服务器初始化成功")

	// 9. 启动服务
	go chatServer.Start()

	go func() {
		addr := fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port)
		if err := engine.Run(addr); err != nil {
			zap.L().Fatal("server running fault", zap.Error(err))
		}
	}()

	// 信号监听，优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.L().Info("关闭服务器...")
	chatServer.Close()
	zap.L().Info("服务器已关闭")
}
