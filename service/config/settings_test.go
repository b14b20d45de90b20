package config

import (
	"testing"
	"time"

	"metahub-service/service/cache"
	"metahub-service/service/meta"

	"github.com/stretchr/testify/assert"
)

func lookup(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoadDefaults(t *testing.T) {
	s := LoadFrom(lookup(nil))

	assert.Equal(t, 80, s.Port)
	assert.Equal(t, 5432, s.Database.Port)
	assert.Contains(t, s.Database.DSN(), "search_path=public")
	assert.Equal(t, "localhost:6379", s.Redis.Addr())
	assert.Equal(t, CacheBackendMemory, s.Cache.Backend)
	assert.Equal(t, cache.DefaultAssetsTTL, s.Cache.TTLs()[cache.KindAssets])
	assert.Equal(t, cache.DefaultEvidenceTTL, s.Cache.TTLs()[cache.KindEvidence])
	assert.Empty(t, s.Messaging.KafkaBrokers)
	assert.Equal(t, "bulk", s.Engine.Adapter)
	assert.Empty(t, s.Engine.UnknownPolicy)
	assert.False(t, s.RateLimit.Policy().Enabled())
}

func TestLoadOverrides(t *testing.T) {
	s := LoadFrom(lookup(map[string]string{
		"LISTEN_PORT":           "8080",
		"DATABASE_URL":          "postgres://u:p@db/metahub",
		"CACHE_BACKEND":         "Redis",
		"CACHE_TTL_ASSETS":      "30",
		"CACHE_TTL_EVIDENCE":    "1.5",
		"KAFKA_BROKERS":         "k1:9092, k2:9092,,",
		"ASSESS_WORKERS":        "8",
		"ASSESS_UNKNOWN_POLICY": "unknown_fails",
		"REDIS_DB":              "2",
		"TRIGGER_RATE_WINDOW":   "600",
		"TRIGGER_RATE_TENANT":   "5",
	}))

	assert.Equal(t, 8080, s.Port)
	assert.Equal(t, "postgres://u:p@db/metahub", s.Database.DSN())
	assert.Equal(t, CacheBackendRedis, s.Cache.Backend)
	assert.Equal(t, 30*time.Second, s.Cache.AssetsTTL)
	assert.Equal(t, 1500*time.Millisecond, s.Cache.EvidenceTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, s.Messaging.KafkaBrokers)
	assert.Equal(t, 8, s.Engine.Workers)
	assert.Equal(t, meta.UnknownFails, s.Engine.UnknownPolicy)
	assert.Equal(t, 2, s.Redis.DB)
	assert.Equal(t, 10*time.Minute, s.RateLimit.Window)
	assert.True(t, s.RateLimit.Policy().Enabled())
	assert.Zero(t, s.RateLimit.Global)
}

func TestLoadFallsBackOnInvalid(t *testing.T) {
	s := LoadFrom(lookup(map[string]string{
		"LISTEN_PORT":           "eighty",
		"CACHE_BACKEND":         "memcached",
		"CACHE_TTL_ASSETS":      "-5",
		"ASSESS_UNKNOWN_POLICY": "ignore",
	}))

	assert.Equal(t, 80, s.Port)
	assert.Equal(t, CacheBackendMemory, s.Cache.Backend)
	assert.Equal(t, cache.DefaultAssetsTTL, s.Cache.AssetsTTL)
	assert.Empty(t, s.Engine.UnknownPolicy)
}
