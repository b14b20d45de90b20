package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/go-redis/redis/v8"
)

// RedisKeyPrefix Redis缓存键前缀
const RedisKeyPrefix = "metahub:cache:"

// RedisCache 基于Redis的范围缓存，多副本共享
type RedisCache struct {
	client *redis.Client
	ttls   TTLs
	hits   int64
	misses int64
}

// NewRedisCache 创建Redis缓存
func NewRedisCache(client *redis.Client, ttls TTLs) *RedisCache {
	if ttls == nil {
		ttls = DefaultTTLs()
	}
	return &RedisCache{client: client, ttls: ttls}
}

func redisKey(scope string, kind Kind, key string) string {
	return RedisKeyPrefix + entryKey(scope, kind, key)
}

// Get 读取缓存
func (c *RedisCache) Get(ctx context.Context, scope string, kind Kind, key string, dest interface{}) (bool, error) {
	payload, err := c.client.Get(ctx, redisKey(scope, kind, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		atomic.AddInt64(&c.misses, 1)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("读取Redis缓存失败: %w", err)
	}
	atomic.AddInt64(&c.hits, 1)
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("缓存解码失败: %w", err)
	}
	return true, nil
}

// Set 写入缓存
func (c *RedisCache) Set(ctx context.Context, scope string, kind Kind, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("缓存编码失败: %w", err)
	}
	if err := c.client.Set(ctx, redisKey(scope, kind, key), payload, c.ttls.of(kind)).Err(); err != nil {
		return fmt.Errorf("写入Redis缓存失败: %w", err)
	}
	return nil
}

// Invalidate 失效单个范围
func (c *RedisCache) Invalidate(ctx context.Context, scope string) (int, error) {
	return c.deleteMatching(ctx, RedisKeyPrefix+escapeGlob(scope)+scopeSeparator+"*")
}

// InvalidatePrefix 按范围前缀失效
func (c *RedisCache) InvalidatePrefix(ctx context.Context, prefix string) (int, error) {
	return c.deleteMatching(ctx, RedisKeyPrefix+escapeGlob(prefix)+"*")
}

func (c *RedisCache) deleteMatching(ctx context.Context, pattern string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return deleted, fmt.Errorf("扫描Redis缓存失败: %w", err)
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("删除Redis缓存失败: %w", err)
			}
			deleted += int(n)
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

// Stats 统计信息
func (c *RedisCache) Stats(ctx context.Context) Stats {
	hits, misses := atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
	entries := 0
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, RedisKeyPrefix+"*", 500).Result()
		if err != nil {
			break
		}
		entries += len(keys)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return Stats{Backend: "redis", Hits: hits, Misses: misses, HitRate: hitRate(hits, misses), Entries: entries}
}

var globReplacer = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

func escapeGlob(s string) string {
	return globReplacer.Replace(s)
}
