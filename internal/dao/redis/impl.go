// Package redis 提供 StoreService 接口的 Redis 实现
// 使用 github.com/redis/go-redis/v9 作为底层客户端
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"huddle_chat_server/pkg/errorx"
)

// RedisStore StoreService 的 Redis 实现
// 同时实现 StoreService（同步读写）和 AsyncStoreService（异步任务）两个接口，
// 上层按需声明依赖最小的接口即可
type RedisStore struct {
	client       *redis.Client
	taskChan     chan func()
	workerNum    int
	taskChanSize int
}

// NewRedisStore 创建 Redis 存储实例并启动 Worker Pool
func NewRedisStore(client *redis.Client, workerNum, taskChanSize int) *RedisStore {
	rs := &RedisStore{
		client:       client,
		taskChan:     make(chan func(), taskChanSize),
		workerNum:    workerNum,
		taskChanSize: taskChanSize,
	}
	for i := 0; i < workerNum; i++ {
		go rs.startWorker()
	}
	zap.L().Info("Redis store workers started", zap.Int("workers", workerNum), zap.Int("buffer", taskChanSize))
	return rs
}

// startWorker 启动单个 Worker 消费循环
func (r *RedisStore) startWorker() {
	defer func() {
		if rec := recover(); rec != nil {
			zap.L().Error("Redis worker panic", zap.Any("recover", rec))
			go r.startWorker() // 重启
		}
	}()

	for task := range r.taskChan {
		if task != nil {
			task()
		}
	}
}

// ==================== String 操作 ====================

// Set 设置键值对并指定过期时间
func (r *RedisStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis set key %s", key)
	}
	return nil
}

// Get 获取键对应的值（键不存在返回空字符串和 nil）
func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", errorx.Wrapf(err, errorx.CodeCacheError, "redis get key %s", key)
	}
	return value, nil
}

// GetOrError 获取键对应的值（键不存在返回错误）
func (r *RedisStore) GetOrError(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", errorx.Wrapf(err, errorx.CodeNotFound, "redis key %s not found", key)
		}
		return "", errorx.Wrapf(err, errorx.CodeCacheError, "redis get key %s", key)
	}
	return value, nil
}

// ==================== Key 操作 ====================

// Delete 删除键（如果存在）
// 使用 UNLINK 而非 DEL，实现非阻塞异步删除
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Unlink(ctx, key).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis unlink key %s", key)
	}
	return nil
}

// Exists 判断键是否存在
func (r *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, errorx.Wrapf(err, errorx.CodeCacheError, "redis exists key %s", key)
	}
	return n == 1, nil
}

// Expire 为键设置过期时间
func (r *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := r.client.Expire(ctx, key, ttl).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis expire key %s", key)
	}
	return nil
}

// ==================== Set 集合操作 ====================

// AddToSet 向集合添加成员
// 集合特性：成员唯一，重复添加不报错也不增加成员
func (r *RedisStore) AddToSet(ctx context.Context, key string, members ...interface{}) error {
	if err := r.client.SAdd(ctx, key, members...).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis sadd key %s", key)
	}
	return nil
}

// RemoveFromSet 从集合中移除成员
func (r *RedisStore) RemoveFromSet(ctx context.Context, key string, members ...interface{}) error {
	if err := r.client.SRem(ctx, key, members...).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis srem key %s", key)
	}
	return nil
}

// GetSetMembers 获取集合中的所有成员
func (r *RedisStore) GetSetMembers(ctx context.Context, key string) ([]string, error) {
	members, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeCacheError, "redis smembers key %s", key)
	}
	return members, nil
}

// CountSet 获取集合基数
func (r *RedisStore) CountSet(ctx context.Context, key string) (int64, error) {
	n, err := r.client.SCard(ctx, key).Result()
	if err != nil {
		return 0, errorx.Wrapf(err, errorx.CodeCacheError, "redis scard key %s", key)
	}
	return n, nil
}

// IsSetMember 判断成员是否存在于集合中
func (r *RedisStore) IsSetMember(ctx context.Context, key string, member interface{}) (bool, error) {
	isMember, err := r.client.SIsMember(ctx, key, member).Result()
	if err != nil {
		return false, errorx.Wrapf(err, errorx.CodeCacheError, "redis sismember key %s", key)
	}
	return isMember, nil
}

// ==================== List 列表操作 ====================

// PushToList 向列表头部插入元素
func (r *RedisStore) PushToList(ctx context.Context, key string, values ...interface{}) error {
	if err := r.client.LPush(ctx, key, values...).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis lpush key %s", key)
	}
	return nil
}

// TrimList 截断列表，仅保留 [start, stop] 区间
func (r *RedisStore) TrimList(ctx context.Context, key string, start, stop int64) error {
	if err := r.client.LTrim(ctx, key, start, stop).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis ltrim key %s", key)
	}
	return nil
}

// ListRange 获取列表 [start, stop] 区间的元素
func (r *RedisStore) ListRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	values, err := r.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeCacheError, "redis lrange key %s", key)
	}
	return values, nil
}

// ListLen 获取列表长度
func (r *RedisStore) ListLen(ctx context.Context, key string) (int64, error) {
	n, err := r.client.LLen(ctx, key).Result()
	if err != nil {
		return 0, errorx.Wrapf(err, errorx.CodeCacheError, "redis llen key %s", key)
	}
	return n, nil
}

// ==================== 异步任务 ====================

// SubmitTask 提交异步存储任务
func (r *RedisStore) SubmitTask(action func()) {
	select {
	case r.taskChan <- action:
		// 成功放入
	default:
		// 降级：同步执行
		zap.L().Warn("Redis store task channel full, executing synchronously")
		action()
	}
}

// 确保 RedisStore 实现了 AsyncStoreService 接口
var _ AsyncStoreService = (*RedisStore)(nil)
