// Package redis 定义存储服务接口
// 遵循依赖倒置原则，Service 层依赖此接口而非具体 Redis 实现
package redis

import (
	"context"
	"time"
)

// StoreService 存储服务接口
// 抽象键值/集合/列表/TTL 操作，不含任何业务逻辑
// 各操作单条原子，但不提供跨键事务（上层以幂等重放容忍部分失败）
type StoreService interface {
	// ==================== String 操作 ====================

	// Set 设置键值对并指定过期时间（ttl 为 0 表示不过期）
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// Get 获取键对应的值（键不存在返回空字符串和 nil）
	Get(ctx context.Context, key string) (string, error)
	// GetOrError 获取键对应的值（键不存在返回 CodeNotFound 错误）
	GetOrError(ctx context.Context, key string) (string, error)

	// ==================== Key 操作 ====================

	// Delete 删除键（如果存在）
	Delete(ctx context.Context, key string) error
	// Exists 判断键是否存在
	Exists(ctx context.Context, key string) (bool, error)
	// Expire 为键设置过期时间
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// ==================== Set 集合操作 ====================

	// AddToSet 向集合添加成员（幂等）
	AddToSet(ctx context.Context, key string, members ...interface{}) error
	// RemoveFromSet 从集合中移除成员（幂等）
	RemoveFromSet(ctx context.Context, key string, members ...interface{}) error
	// GetSetMembers 获取集合中的所有成员
	GetSetMembers(ctx context.Context, key string) ([]string, error)
	// CountSet 获取集合基数
	CountSet(ctx context.Context, key string) (int64, error)
	// IsSetMember 判断成员是否存在于集合中
	IsSetMember(ctx context.Context, key string, member interface{}) (bool, error)

	// ==================== List 列表操作 ====================

	// PushToList 向列表头部插入元素（最新在前）
	PushToList(ctx context.Context, key string, values ...interface{}) error
	// TrimList 截断列表，仅保留 [start, stop] 区间
	TrimList(ctx context.Context, key string, start, stop int64) error
	// ListRange 获取列表 [start, stop] 区间的元素
	ListRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	// ListLen 获取列表长度
	ListLen(ctx context.Context, key string) (int64, error)
}

// AsyncStoreService 异步存储服务接口
// 提供异步任务提交能力，用于非关键路径的存储维护（计数刷新、成员清理）
type AsyncStoreService interface {
	StoreService
	// SubmitTask 提交异步存储任务，通道满时降级为同步执行
	SubmitTask(action func())
}
