// Package storetest 提供 StoreService 的内存实现
// 仅用于 Service 层单元测试，不依赖真实 Redis
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"huddle_chat_server/internal/dao/redis"
	"huddle_chat_server/pkg/errorx"
)

// MemoryStore StoreService 的并发安全内存实现
// TTL 采用惰性过期：读取时检查 deadline，过期视同不存在
type MemoryStore struct {
	mu      sync.Mutex
	strings map[string]string
	sets    map[string]map[string]struct{}
	lists   map[string][]string
	expires map[string]time.Time

	// FailAll 为 true 时所有操作返回存储不可用错误，用于故障注入测试
	FailAll bool
}

// NewMemoryStore 创建内存存储实例
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		strings: make(map[string]string),
		sets:    make(map[string]map[string]struct{}),
		lists:   make(map[string][]string),
		expires: make(map[string]time.Time),
	}
}

func (m *MemoryStore) failErr() error {
	return errorx.New(errorx.CodeCacheError, "memory store unavailable")
}

// expired 判断键是否已过期（须持锁调用）
func (m *MemoryStore) expired(key string) bool {
	deadline, ok := m.expires[key]
	if !ok {
		return false
	}
	if time.Now().After(deadline) {
		delete(m.strings, key)
		delete(m.sets, key)
		delete(m.lists, key)
		delete(m.expires, key)
		return true
	}
	return false
}

// ==================== String 操作 ====================

func (m *MemoryStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return m.failErr()
	}
	m.strings[key] = value
	if ttl > 0 {
		m.expires[key] = time.Now().Add(ttl)
	} else {
		delete(m.expires, key)
	}
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return "", m.failErr()
	}
	if m.expired(key) {
		return "", nil
	}
	return m.strings[key], nil
}

func (m *MemoryStore) GetOrError(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return "", m.failErr()
	}
	if m.expired(key) {
		return "", errorx.Newf(errorx.CodeNotFound, "key %s not found", key)
	}
	value, ok := m.strings[key]
	if !ok {
		return "", errorx.Newf(errorx.CodeNotFound, "key %s not found", key)
	}
	return value, nil
}

// ==================== Key 操作 ====================

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return m.failErr()
	}
	delete(m.strings, key)
	delete(m.sets, key)
	delete(m.lists, key)
	delete(m.expires, key)
	return nil
}

func (m *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return false, m.failErr()
	}
	if m.expired(key) {
		return false, nil
	}
	if _, ok := m.strings[key]; ok {
		return true, nil
	}
	if _, ok := m.sets[key]; ok {
		return true, nil
	}
	if _, ok := m.lists[key]; ok {
		return true, nil
	}
	return false, nil
}

func (m *MemoryStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return m.failErr()
	}
	m.expires[key] = time.Now().Add(ttl)
	return nil
}

// ==================== Set 集合操作 ====================

func (m *MemoryStore) AddToSet(ctx context.Context, key string, members ...interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return m.failErr()
	}
	m.expired(key)
	set, ok := m.sets[key]
	if !ok {
		set = make(map[string]struct{})
		m.sets[key] = set
	}
	for _, member := range members {
		set[member.(string)] = struct{}{}
	}
	return nil
}

func (m *MemoryStore) RemoveFromSet(ctx context.Context, key string, members ...interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return m.failErr()
	}
	if m.expired(key) {
		return nil
	}
	set, ok := m.sets[key]
	if !ok {
		return nil
	}
	for _, member := range members {
		delete(set, member.(string))
	}
	return nil
}

func (m *MemoryStore) GetSetMembers(ctx context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return nil, m.failErr()
	}
	if m.expired(key) {
		return nil, nil
	}
	members := make([]string, 0, len(m.sets[key]))
	for member := range m.sets[key] {
		members = append(members, member)
	}
	sort.Strings(members) // 固定顺序，方便断言
	return members, nil
}

func (m *MemoryStore) CountSet(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return 0, m.failErr()
	}
	if m.expired(key) {
		return 0, nil
	}
	return int64(len(m.sets[key])), nil
}

func (m *MemoryStore) IsSetMember(ctx context.Context, key string, member interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return false, m.failErr()
	}
	if m.expired(key) {
		return false, nil
	}
	_, ok := m.sets[key][member.(string)]
	return ok, nil
}

// ==================== List 列表操作 ====================

func (m *MemoryStore) PushToList(ctx context.Context, key string, values ...interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return m.failErr()
	}
	m.expired(key)
	for _, value := range values {
		// 头部插入，最新在前
		m.lists[key] = append([]string{value.(string)}, m.lists[key]...)
	}
	return nil
}

func (m *MemoryStore) TrimList(ctx context.Context, key string, start, stop int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return m.failErr()
	}
	if m.expired(key) {
		return nil
	}
	list := m.lists[key]
	n := int64(len(list))
	if start < 0 {
		start = n + start
	}
	if stop < 0 {
		stop = n + stop
	}
	if start < 0 {
		start = 0
	}
	if start >= n || stop < start {
		m.lists[key] = nil
		return nil
	}
	if stop >= n {
		stop = n - 1
	}
	m.lists[key] = list[start : stop+1]
	return nil
}

func (m *MemoryStore) ListRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return nil, m.failErr()
	}
	if m.expired(key) {
		return nil, nil
	}
	list := m.lists[key]
	n := int64(len(list))
	if start < 0 {
		start = n + start
	}
	if stop < 0 {
		stop = n + stop
	}
	if start < 0 {
		start = 0
	}
	if start >= n || stop < start {
		return nil, nil
	}
	if stop >= n {
		stop = n - 1
	}
	result := make([]string, stop-start+1)
	copy(result, list[start:stop+1])
	return result, nil
}

func (m *MemoryStore) ListLen(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return 0, m.failErr()
	}
	if m.expired(key) {
		return 0, nil
	}
	return int64(len(m.lists[key])), nil
}

// ==================== 异步任务 ====================

// SubmitTask 同步执行任务，测试中无需真实的 Worker Pool
func (m *MemoryStore) SubmitTask(action func()) {
	action()
}

// 确保 MemoryStore 实现了 AsyncStoreService 接口
var _ redis.AsyncStoreService = (*MemoryStore)(nil)
