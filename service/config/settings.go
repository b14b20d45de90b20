/*
 * @module service/config/settings
 * @description 运行配置，从环境变量读取数据库、缓存、消息、引擎、限流与调度配置
 * @architecture 分层架构 - 业务服务层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 读取环境变量 -> 类型转换 -> 默认值回退 -> 提供给初始化流程
 * @rules 解析失败时使用默认值，不中断启动；数值与时长统一通过 cast 转换
 * @dependencies github.com/spf13/cast
 * @refs service/init.go
 */

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"metahub-service/service/cache"
	"metahub-service/service/meta"
	"metahub-service/service/rate_limiter"

	"github.com/spf13/cast"
)

// 缓存后端
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendNone   = "none"
)

// DatabaseSettings 数据库配置
type DatabaseSettings struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	Schema   string
}

// DSN 数据库连接串，DATABASE_URL 优先
func (d DatabaseSettings) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s search_path=%s TimeZone=Asia/Shanghai",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode, d.Schema)
}

// RedisSettings Redis配置
type RedisSettings struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr Redis地址
func (r RedisSettings) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// CacheSettings 范围缓存配置
type CacheSettings struct {
	Backend     string
	AssetsTTL   time.Duration
	EvidenceTTL time.Duration
}

// TTLs 缓存TTL表
func (c CacheSettings) TTLs() cache.TTLs {
	return cache.TTLs{cache.KindAssets: c.AssetsTTL, cache.KindEvidence: c.EvidenceTTL}
}

// MessagingSettings 运行事件发布配置，未配置的通道不启用
type MessagingSettings struct {
	KafkaBrokers   []string
	KafkaTopic     string
	MQTTBroker     string
	MQTTClientID   string
	MQTTTopic      string
	DaprPubSubName string
	DaprTopic      string
}

// EngineSettings 评估引擎配置
type EngineSettings struct {
	CatalogFile   string
	Workers       int
	Adapter       string
	UnknownPolicy meta.UnknownPolicy
}

// RateLimitSettings 评估触发限流配置，数量为0表示该层不限流
type RateLimitSettings struct {
	Window    time.Duration
	Global    int
	PerTenant int
}

// Policy 转换为限流策略
func (r RateLimitSettings) Policy() rate_limiter.Policy {
	return rate_limiter.Policy{Window: r.Window, Global: r.Global, PerTenant: r.PerTenant}
}

// Settings 服务配置
type Settings struct {
	Port         int
	BaseContext  string
	LogLevel     string
	Database     DatabaseSettings
	Redis        RedisSettings
	Cache        CacheSettings
	Messaging    MessagingSettings
	Engine       EngineSettings
	RateLimit    RateLimitSettings
	ScheduleFile string
}

// Load 从进程环境变量加载配置
func Load() Settings {
	return LoadFrom(os.Getenv)
}

// LoadFrom 从给定的查找函数加载配置
func LoadFrom(getenv func(string) string) Settings {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}
	envInt := func(key string, def int) int {
		v, err := cast.ToIntE(env(key, ""))
		if err != nil || v <= 0 {
			return def
		}
		return v
	}
	envSeconds := func(key string, def time.Duration) time.Duration {
		v, err := cast.ToFloat64E(env(key, ""))
		if err != nil || v <= 0 {
			return def
		}
		return time.Duration(v * float64(time.Second))
	}

	s := Settings{
		Port:        envInt("LISTEN_PORT", 80),
		BaseContext: env("BASE_CONTEXT", ""),
		LogLevel:    env("LOG_LEVEL", "debug"),
		Database: DatabaseSettings{
			URL:      env("DATABASE_URL", ""),
			Host:     env("DB_HOST", "localhost"),
			Port:     envInt("DB_PORT", 5432),
			User:     env("DB_USER", "postgres"),
			Password: env("DB_PASSWORD", "postgres"),
			Name:     env("DB_NAME", "postgres"),
			SSLMode:  env("DB_SSLMODE", "disable"),
			Schema:   env("DB_SCHEMA", "public"),
		},
		Redis: RedisSettings{
			Host:     env("REDIS_HOST", "localhost"),
			Port:     envInt("REDIS_PORT", 6379),
			Password: env("REDIS_PASSWORD", ""),
			DB:       cast.ToInt(env("REDIS_DB", "0")),
		},
		Cache: CacheSettings{
			Backend:     strings.ToLower(env("CACHE_BACKEND", CacheBackendMemory)),
			AssetsTTL:   envSeconds("CACHE_TTL_ASSETS", cache.DefaultAssetsTTL),
			EvidenceTTL: envSeconds("CACHE_TTL_EVIDENCE", cache.DefaultEvidenceTTL),
		},
		Messaging: MessagingSettings{
			KafkaBrokers:   splitList(env("KAFKA_BROKERS", "")),
			KafkaTopic:     env("KAFKA_TOPIC", "metahub.assessment.runs"),
			MQTTBroker:     env("MQTT_BROKER", ""),
			MQTTClientID:   env("MQTT_CLIENT_ID", "metahub-service"),
			MQTTTopic:      env("MQTT_TOPIC", "metahub/assessment/runs"),
			DaprPubSubName: env("DAPR_PUBSUB_NAME", ""),
			DaprTopic:      env("DAPR_TOPIC", "assessment-runs"),
		},
		Engine: EngineSettings{
			CatalogFile:   env("CATALOG_FILE", ""),
			Workers:       envInt("ASSESS_WORKERS", 0),
			Adapter:       strings.ToLower(env("ASSESS_ADAPTER", "bulk")),
			UnknownPolicy: meta.UnknownPolicy(env("ASSESS_UNKNOWN_POLICY", "")),
		},
		RateLimit: RateLimitSettings{
			Window:    envSeconds("TRIGGER_RATE_WINDOW", time.Minute),
			Global:    envInt("TRIGGER_RATE_GLOBAL", 0),
			PerTenant: envInt("TRIGGER_RATE_TENANT", 0),
		},
		ScheduleFile: env("SCHEDULE_FILE", ""),
	}

	switch s.Cache.Backend {
	case CacheBackendMemory, CacheBackendRedis, CacheBackendNone:
	default:
		s.Cache.Backend = CacheBackendMemory
	}
	switch s.Engine.UnknownPolicy {
	case "", meta.UnknownPassthrough, meta.UnknownFails:
	default:
		s.Engine.UnknownPolicy = ""
	}
	return s
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
