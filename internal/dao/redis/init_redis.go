// Package redis 提供 Redis 存储操作的封装
// 本文件仅包含 Redis 连接初始化逻辑
package redis

import (
	"strconv"

	"huddle_chat_server/internal/config"

	"github.com/redis/go-redis/v9"
)

// redisClient 全局 Redis 客户端实例（包内可见）
var redisClient *redis.Client

// storeService 全局存储服务实例，遵循依赖倒置原则
var storeService AsyncStoreService

// Init 初始化 Redis 连接
// 从配置文件读取连接参数并创建客户端实例
func Init() {
	conf := config.GetConfig()
	host := conf.RedisConfig.Host
	port := conf.RedisConfig.Port
	password := conf.RedisConfig.Password
	db := conf.Db

	addr := host + ":" + strconv.Itoa(port)

	redisClient = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		// 连接池配置
		PoolSize:     50, // 最大连接数
		MinIdleConns: 15, // 最小空闲连接，与 Worker 数量匹配
	})

	// 创建存储服务实例，启动 15 个 Worker，缓冲区大小 3000
	storeService = NewRedisStore(redisClient, 15, 3000)
}

// GetStoreService 获取存储服务实例
// 返回 AsyncStoreService 接口，供 Service 层依赖注入使用
func GetStoreService() AsyncStoreService {
	return storeService
}
