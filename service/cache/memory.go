package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	scope   string
	payload []byte
	expires time.Time
}

// MemoryCache 进程内范围缓存
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttls    TTLs
	hits    int64
	misses  int64
	now     func() time.Time
}

// NewMemoryCache 创建进程内缓存，ttls 为空时使用默认TTL
func NewMemoryCache(ttls TTLs) *MemoryCache {
	if ttls == nil {
		ttls = DefaultTTLs()
	}
	return &MemoryCache{entries: make(map[string]memoryEntry), ttls: ttls, now: time.Now}
}

// Get 读取缓存
func (c *MemoryCache) Get(_ context.Context, scope string, kind Kind, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	k := entryKey(scope, kind, key)
	e, ok := c.entries[k]
	if ok && !c.now().Before(e.expires) {
		delete(c.entries, k)
		ok = false
	}
	if !ok {
		c.misses++
		c.mu.Unlock()
		return false, nil
	}
	c.hits++
	payload := e.payload
	c.mu.Unlock()

	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("缓存解码失败: %w", err)
	}
	return true, nil
}

// Set 写入缓存
func (c *MemoryCache) Set(_ context.Context, scope string, kind Kind, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("缓存编码失败: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entryKey(scope, kind, key)] = memoryEntry{
		scope:   scope,
		payload: payload,
		expires: c.now().Add(c.ttls.of(kind)),
	}
	return nil
}

// Invalidate 失效单个范围
func (c *MemoryCache) Invalidate(_ context.Context, scope string) (int, error) {
	return c.remove(func(s string) bool { return s == scope }), nil
}

// InvalidatePrefix 按范围前缀失效
func (c *MemoryCache) InvalidatePrefix(_ context.Context, prefix string) (int, error) {
	return c.remove(func(s string) bool { return strings.HasPrefix(s, prefix) }), nil
}

func (c *MemoryCache) remove(match func(scope string) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if match(e.scope) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Stats 统计信息，条目数不含已过期条目
func (c *MemoryCache) Stats(_ context.Context) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	live := 0
	for _, e := range c.entries {
		if now.Before(e.expires) {
			live++
		}
	}
	return Stats{
		Backend: "memory",
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: hitRate(c.hits, c.misses),
		Entries: live,
	}
}
