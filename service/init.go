/*
 * @module service/init
 * @description 服务初始化模块，负责数据库连接、缓存与锁、事件发布、评估目录与评估服务的装配
 * @architecture 分层架构 - 服务层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 读取配置 -> 连接数据库 -> 迁移 -> 缓存/锁/限流 -> 事件发布 -> 加载目录 -> 评估服务 -> 定时调度
 * @rules 数据库与目录加载失败时终止启动；Redis、消息通道不可用时降级并记录日志
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres, github.com/go-redis/redis/v8
 * @refs service/config/settings.go, main.go
 */

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"metahub-service/service/assessment"
	"metahub-service/service/cache"
	"metahub-service/service/catalog"
	"metahub-service/service/config"
	"metahub-service/service/database"
	"metahub-service/service/distributed_lock"
	"metahub-service/service/evidence"
	"metahub-service/service/events"
	"metahub-service/service/fetcher"
	"metahub-service/service/ledger"
	"metahub-service/service/rate_limiter"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	DB                        *gorm.DB
	Settings                  config.Settings
	GlobalCatalog             *catalog.Catalog
	GlobalEvidenceStore       evidence.Store
	GlobalAssessmentService   *assessment.Service
	GlobalAssessmentScheduler *assessment.Scheduler
	GlobalPublisher           events.Publisher
	redisClient               *redis.Client
)

// Init 按配置完成全部服务初始化
func Init(settings config.Settings) error {
	Settings = settings

	if err := initDatabase(settings.Database); err != nil {
		return err
	}
	if err := runMigrations(settings.Database.Schema); err != nil {
		return err
	}
	cat, err := loadCatalog(settings.Engine.CatalogFile)
	if err != nil {
		return err
	}
	GlobalCatalog = cat

	initServices(settings)
	initScheduler(settings.ScheduleFile)
	slog.Info("服务初始化完成")
	return nil
}

// initDatabase 初始化数据库连接
func initDatabase(cfg config.DatabaseSettings) error {
	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		return fmt.Errorf("数据库连接失败: %w", err)
	}
	slog.Info("数据库连接成功", "host", cfg.Host, "database", cfg.Name)
	return nil
}

// runMigrations 运行数据库迁移
func runMigrations(schema string) error {
	if err := database.EnsureSchema(DB, schema); err != nil {
		return err
	}
	if err := database.AutoMigrate(DB); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	return nil
}

// loadCatalog 加载评估目录，未配置文件时使用内置目录
func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		slog.Info("使用内置评估目录")
		return catalog.Builtin()
	}
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("加载评估目录失败: %w", err)
	}
	slog.Info("评估目录加载完成", "file", path, "templates", len(cat.Templates()), "fields", len(cat.Fields()))
	return cat, nil
}

// initRedis 连接Redis，不可用时返回nil
func initRedis(cfg config.RedisSettings) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("Redis连接失败，降级为进程内缓存与无锁运行", "addr", cfg.Addr(), "error", err)
		_ = client.Close()
		return nil
	}
	slog.Info("Redis连接成功", "addr", cfg.Addr())
	return client
}

// initCache 按配置选择缓存后端
func initCache(cfg config.CacheSettings) cache.Cache {
	switch cfg.Backend {
	case config.CacheBackendNone:
		return nil
	case config.CacheBackendRedis:
		if redisClient != nil {
			return cache.NewRedisCache(redisClient, cfg.TTLs())
		}
	}
	return cache.NewMemoryCache(cfg.TTLs())
}

// initPublisher 按配置组合事件发布通道
func initPublisher(cfg config.MessagingSettings) events.Publisher {
	var publishers []events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publishers = append(publishers, events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic))
		slog.Info("启用Kafka运行事件发布", "topic", cfg.KafkaTopic)
	}
	if cfg.MQTTBroker != "" {
		p, err := events.NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopic)
		if err != nil {
			slog.Warn("MQTT连接失败，跳过该通道", "broker", cfg.MQTTBroker, "error", err)
		} else {
			publishers = append(publishers, p)
			slog.Info("启用MQTT运行事件发布", "topic", cfg.MQTTTopic)
		}
	}
	if cfg.DaprPubSubName != "" {
		p, err := events.NewDaprPublisher(cfg.DaprPubSubName, cfg.DaprTopic)
		if err != nil {
			slog.Warn("Dapr客户端创建失败，跳过该通道", "pubsub", cfg.DaprPubSubName, "error", err)
		} else {
			publishers = append(publishers, p)
			slog.Info("启用Dapr运行事件发布", "pubsub", cfg.DaprPubSubName, "topic", cfg.DaprTopic)
		}
	}
	if len(publishers) == 0 {
		return events.NopPublisher{}
	}
	return events.NewMultiPublisher(publishers...)
}

// initRateLimiter 有Redis时多实例共享计数，否则使用进程内计数
func initRateLimiter() rate_limiter.RateLimiter {
	if redisClient != nil {
		slog.Info("启用Redis评估触发限流")
		return rate_limiter.NewRedisRateLimiter(redisClient)
	}
	slog.Info("启用进程内评估触发限流")
	return rate_limiter.NewMemoryRateLimiter()
}

// initServices 初始化服务
func initServices(settings config.Settings) {
	if settings.Cache.Backend == config.CacheBackendRedis {
		redisClient = initRedis(settings.Redis)
	}

	GlobalEvidenceStore = evidence.NewGormStore(DB)
	GlobalPublisher = initPublisher(settings.Messaging)

	deps := assessment.Dependencies{
		Catalog:        GlobalCatalog,
		Fetcher:        fetcher.NewGormFetcher(DB),
		Evidence:       GlobalEvidenceStore,
		Ledger:         ledger.NewLedger(DB),
		Publisher:      GlobalPublisher,
		Cache:          initCache(settings.Cache),
		Metrics:        assessment.NewMetrics(prometheus.DefaultRegisterer),
		Workers:        settings.Engine.Workers,
		DefaultAdapter: assessment.AdapterKind(settings.Engine.Adapter),
		UnknownPolicy:  settings.Engine.UnknownPolicy,
	}
	if redisClient != nil {
		deps.Lock = distributed_lock.NewRedisLock(redisClient)
	}
	if policy := settings.RateLimit.Policy(); policy.Enabled() {
		deps.RateLimit = policy
		deps.RateLimiter = initRateLimiter()
	}
	GlobalAssessmentService = assessment.NewService(deps)
}

// initScheduler 加载调度文件并启动定时评估
func initScheduler(path string) {
	GlobalAssessmentScheduler = assessment.NewScheduler(GlobalAssessmentService)
	if redisClient != nil {
		GlobalAssessmentScheduler.SetDistributedLock(distributed_lock.NewRedisLock(redisClient))
	}
	if path != "" {
		specs, err := assessment.LoadSchedules(path)
		if err != nil {
			slog.Error("加载调度文件失败", "file", path, "error", err)
		}
		for _, spec := range specs {
			if err := GlobalAssessmentScheduler.Add(spec); err != nil {
				slog.Error("注册定时评估失败", "schedule_id", spec.ID, "error", err)
			}
		}
	}
	if err := GlobalAssessmentScheduler.Start(); err != nil {
		slog.Error("启动定时评估调度器失败", "error", err)
	}
}

// Shutdown 停止调度并释放外部连接
func Shutdown() {
	if GlobalAssessmentScheduler != nil {
		GlobalAssessmentScheduler.Stop()
	}
	if GlobalPublisher != nil {
		if err := GlobalPublisher.Close(); err != nil {
			slog.Warn("关闭事件发布通道失败", "error", err)
		}
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if DB != nil {
		if sqlDB, err := DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
