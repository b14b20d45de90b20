/*
 * @module service/cache/cache
 * @description 按评估范围隔离的TTL缓存：缓存拉取的资产与证据快照，按范围失效
 * @architecture 分层架构 - 基础设施层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 范围键 + 数据类别 + 键 -> JSON编码 -> 按类别TTL存储 -> 惰性过期
 * @rules 失效只作用于指定范围，不做全局清空；不同类别使用独立TTL；值以JSON编码存取避免共享可变状态
 * @dependencies github.com/go-redis/redis/v8
 * @refs service/fetcher/cached_fetcher.go
 */

package cache

import (
	"context"
	"strings"
	"time"
)

// Kind 缓存数据类别
type Kind string

const (
	KindAssets   Kind = "assets"
	KindEvidence Kind = "evidence"
)

// 默认TTL
const (
	DefaultAssetsTTL   = 120 * time.Second
	DefaultEvidenceTTL = 300 * time.Second
)

const scopeSeparator = "|"

// Stats 缓存统计
type Stats struct {
	Backend string  `json:"backend"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
	Entries int     `json:"entries"`
}

// Cache 范围缓存接口
type Cache interface {
	// Get 读取并解码到 dest，未命中返回 false
	Get(ctx context.Context, scope string, kind Kind, key string, dest interface{}) (bool, error)
	// Set 按类别TTL写入
	Set(ctx context.Context, scope string, kind Kind, key string, value interface{}) error
	// Invalidate 失效单个范围的全部条目
	Invalidate(ctx context.Context, scope string) (int, error)
	// InvalidatePrefix 失效范围键以 prefix 开头的全部条目
	InvalidatePrefix(ctx context.Context, prefix string) (int, error)
	// Stats 统计信息
	Stats(ctx context.Context) Stats
}

// ScopeKey 由租户、连接、数据库、模式、数据域组成稳定的范围键
func ScopeKey(tenant, connection, database, schema, domain string) string {
	parts := []string{tenant, connection, database, schema, domain}
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			p = "*"
		}
		parts[i] = p
	}
	return strings.Join(parts, ":")
}

// TTLs 各类别TTL
type TTLs map[Kind]time.Duration

// DefaultTTLs 默认TTL表
func DefaultTTLs() TTLs {
	return TTLs{KindAssets: DefaultAssetsTTL, KindEvidence: DefaultEvidenceTTL}
}

func (t TTLs) of(kind Kind) time.Duration {
	if d, ok := t[kind]; ok && d > 0 {
		return d
	}
	return DefaultAssetsTTL
}

func entryKey(scope string, kind Kind, key string) string {
	return scope + scopeSeparator + string(kind) + scopeSeparator + key
}

func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
