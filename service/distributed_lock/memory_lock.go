package distributed_lock

import (
	"context"
	"sync"
	"time"
)

// MemoryLock 进程内锁，用于单实例部署与测试
type MemoryLock struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

// NewMemoryLock 创建进程内锁
func NewMemoryLock() *MemoryLock {
	return &MemoryLock{expires: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryLock) held(key string) bool {
	exp, ok := m.expires[key]
	if !ok {
		return false
	}
	if !m.now().Before(exp) {
		delete(m.expires, key)
		return false
	}
	return true
}

// TryLock 尝试获取锁
func (m *MemoryLock) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held(key) {
		return false, nil
	}
	m.expires[key] = m.now().Add(ttl)
	return true, nil
}

// Unlock 释放锁
func (m *MemoryLock) Unlock(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.expires, key)
	return nil
}

// Refresh 刷新锁的过期时间
func (m *MemoryLock) Refresh(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.held(key) {
		return ErrNotHolder
	}
	m.expires[key] = m.now().Add(ttl)
	return nil
}

// IsLocked 检查锁是否存在
func (m *MemoryLock) IsLocked(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held(key), nil
}
