/*
 * @module service/assessment/service
 * @description 评估服务：串联资产拉取、证据快照、引擎计算、运行台账落库与事件发布，并提供缺口、计划与维度汇总分析
 * @architecture 分层架构 - 业务服务层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 触发请求 -> 校验模板/画像 -> 获取范围锁 -> 拉取资产 -> 证据快照 -> 引擎计算 -> 台账落库 -> 发布事件 -> {run_id, run_ts}
 * @rules 运行要么完整落库要么不写任何行；运行失败包装为 ErrRunFailed 可重试；同一范围的运行串行执行；
 *        事件发布失败只记录日志
 * @dependencies metahub-service/service/fetcher, metahub-service/service/ledger, metahub-service/service/events,
 *               metahub-service/service/distributed_lock, metahub-service/service/rollup
 * @refs api/controllers/assessment_controller.go, service/assessment/scheduler.go
 */

package assessment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"metahub-service/service/cache"
	"metahub-service/service/catalog"
	"metahub-service/service/distributed_lock"
	"metahub-service/service/evaluator"
	"metahub-service/service/events"
	"metahub-service/service/evidence"
	"metahub-service/service/fetcher"
	"metahub-service/service/ledger"
	"metahub-service/service/meta"
	"metahub-service/service/models"
	"metahub-service/service/rate_limiter"
	"metahub-service/service/rollup"
)

var (
	ErrRunFailed     = errors.New("评估运行失败，可重试")
	ErrRunInProgress = errors.New("同一范围的评估正在运行")
	ErrAssetNotFound = errors.New("资产不存在")
	ErrRateLimited   = errors.New("评估触发过于频繁")
)

// DefaultLockTTL 范围运行锁的过期时间
const DefaultLockTTL = 10 * time.Minute

// Dependencies 评估服务依赖
type Dependencies struct {
	Catalog        *catalog.Catalog
	Fetcher        fetcher.AssetFetcher
	Evidence       evidence.Store
	Ledger         *ledger.Ledger
	Publisher      events.Publisher
	Cache          cache.Cache
	Lock           distributed_lock.DistributedLock
	Metrics        *Metrics
	Workers        int
	DefaultAdapter AdapterKind
	UnknownPolicy  meta.UnknownPolicy
	FieldEvaluator *evaluator.FieldEvaluator
	RateLimiter    rate_limiter.RateLimiter
	RateLimit      rate_limiter.Policy
}

// Service 评估服务
type Service struct {
	catalog        *catalog.Catalog
	engines        map[AdapterKind]Engine
	defaultAdapter AdapterKind
	fetcher        fetcher.AssetFetcher
	cachedFetcher  *fetcher.CachedFetcher
	store          evidence.Store
	evidence       *fetcher.CachedEvidence
	ledger         *ledger.Ledger
	publisher      events.Publisher
	cache          cache.Cache
	locker         *distributed_lock.LockExecutor
	lockTTL        time.Duration
	metrics        *Metrics
	fields         *evaluator.FieldEvaluator
	remediation    rollup.Config
	limiter        rate_limiter.RateLimiter
	limitPolicy    rate_limiter.Policy
}

// NewService 创建评估服务，配置了缓存时资产与证据读取经过范围缓存
func NewService(deps Dependencies) *Service {
	fe := deps.FieldEvaluator
	if fe == nil {
		fe = evaluator.NewFieldEvaluator()
	}
	opts := []Option{WithFieldEvaluator(fe), WithUnknownPolicy(deps.UnknownPolicy)}

	s := &Service{
		catalog: deps.Catalog,
		engines: map[AdapterKind]Engine{
			AdapterRow:  NewRowAdapter(deps.Catalog, opts...),
			AdapterBulk: NewBulkAdapter(deps.Catalog, deps.Workers, opts...),
		},
		defaultAdapter: deps.DefaultAdapter,
		fetcher:        deps.Fetcher,
		store:          deps.Evidence,
		ledger:         deps.Ledger,
		publisher:      deps.Publisher,
		cache:          deps.Cache,
		lockTTL:        DefaultLockTTL,
		metrics:        deps.Metrics,
		fields:         fe,
		remediation:    RemediationConfig(deps.Catalog.Remediation()),
	}
	if s.defaultAdapter == "" {
		s.defaultAdapter = AdapterBulk
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if deps.Cache != nil {
		s.cachedFetcher = fetcher.NewCachedFetcher(deps.Fetcher, deps.Cache)
		s.fetcher = s.cachedFetcher
		if deps.Evidence != nil {
			s.evidence = fetcher.NewCachedEvidence(deps.Evidence, deps.Cache)
		}
	}
	if deps.Lock != nil {
		s.locker = distributed_lock.NewLockExecutor(deps.Lock)
	}
	if deps.RateLimiter != nil && deps.RateLimit.Enabled() {
		s.limiter = deps.RateLimiter
		s.limitPolicy = deps.RateLimit
	}
	return s
}

// RemediationConfig 将目录整改配置转换为汇总配置，未配置项使用默认值
func RemediationConfig(r catalog.Remediation) rollup.Config {
	cfg := rollup.DefaultConfig()
	if len(r.Targets) > 0 {
		cfg.Targets = r.Targets
	}
	if len(r.EffortHours) > 0 {
		cfg.EffortHours = r.EffortHours
	}
	if r.DefaultTarget > 0 {
		cfg.DefaultTarget = r.DefaultTarget
	}
	if r.DefaultEffortHours > 0 {
		cfg.DefaultEffortHours = r.DefaultEffortHours
	}
	if len(r.HighPriorityFields) > 0 {
		cfg.HighPriorityFields = r.HighPriorityFields
	}
	return cfg
}

// Catalog 当前目录
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// Engine 按类型取引擎，为空时取默认适配器
func (s *Service) Engine(kind AdapterKind) (Engine, error) {
	if kind == "" {
		kind = s.defaultAdapter
	}
	e, ok := s.engines[kind]
	if !ok {
		return nil, fmt.Errorf("%w: 未知适配器 %s", ErrInvalidRequest, kind)
	}
	return e, nil
}

// TriggerRequest 运行触发请求
type TriggerRequest struct {
	TemplateID string              `json:"template_id" yaml:"template_id"`
	ProfileID  string              `json:"profile_id,omitempty" yaml:"profile_id"`
	Scope      fetcher.Scope       `json:"scope" yaml:"scope"`
	Fetch      fetcher.FetchConfig `json:"fetch,omitempty" yaml:"fetch"`
	Label      string              `json:"label,omitempty" yaml:"label"`
	Adapter    AdapterKind         `json:"adapter,omitempty" yaml:"adapter"`
	Refresh    bool                `json:"refresh,omitempty" yaml:"refresh"`
}

// TriggerResult 运行触发结果
type TriggerResult struct {
	RunID        string         `json:"run_id"`
	RunTS        time.Time      `json:"run_ts"`
	AssetCount   int            `json:"asset_count"`
	StatusCounts map[string]int `json:"status_counts"`
}

// validate 请求级错误在拉取数据之前返回
func (s *Service) validate(templateID, profileID string, adapter AdapterKind) error {
	if templateID == "" {
		return fmt.Errorf("%w: 缺少模板ID", ErrInvalidRequest)
	}
	if _, err := s.catalog.Template(templateID); err != nil {
		return err
	}
	if profileID != "" {
		if _, err := s.catalog.Profile(profileID); err != nil {
			return err
		}
	}
	_, err := s.Engine(adapter)
	return err
}

// IsRequestError 是否请求级错误
func IsRequestError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrTemplateNotFound) ||
		errors.Is(err, ErrProfileNotFound) ||
		errors.Is(err, ErrAssetNotFound) ||
		errors.Is(err, catalog.ErrParameterNotFound)
}

// Trigger 触发一次评估运行并落库
func (s *Service) Trigger(ctx context.Context, req TriggerRequest) (*TriggerResult, error) {
	if err := s.validate(req.TemplateID, req.ProfileID, req.Adapter); err != nil {
		s.metrics.IncrementOutcome("rejected")
		return nil, err
	}
	if s.ledger == nil {
		return nil, fmt.Errorf("%w: 未配置运行台账", ErrRunFailed)
	}
	if err := s.checkRateLimit(ctx, req.Scope.Tenant); err != nil {
		s.metrics.IncrementOutcome("rejected")
		return nil, err
	}

	var result *TriggerResult
	run := func() error {
		var err error
		result, err = s.execute(ctx, req)
		return err
	}

	if s.locker == nil {
		if err := run(); err != nil {
			return nil, err
		}
		return result, nil
	}

	lockKey := "assessment:" + req.Scope.Key()
	acquired, err := s.locker.ExecuteWithLockAndRefresh(ctx, lockKey, s.lockTTL, s.lockTTL/3, run)
	if err != nil {
		if IsRequestError(err) || errors.Is(err, ErrRunFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrRunFailed, err)
	}
	if !acquired {
		s.metrics.IncrementOutcome("rejected")
		return nil, ErrRunInProgress
	}
	return result, nil
}

// checkRateLimit 限流器故障时放行，只记录日志
func (s *Service) checkRateLimit(ctx context.Context, tenant string) error {
	if s.limiter == nil {
		return nil
	}
	res, err := s.limiter.CheckRateLimit(ctx, s.limitPolicy.Rules(tenant))
	if err != nil {
		slog.Warn("评估触发限流检查失败，放行", "tenant", tenant, "error", err)
		return nil
	}
	if !res.Allowed {
		return fmt.Errorf("%w: %s，重置时间 %s", ErrRateLimited, res.Message, time.Unix(res.ResetAt, 0).Format(time.RFC3339))
	}
	return nil
}

func (s *Service) execute(ctx context.Context, req TriggerRequest) (*TriggerResult, error) {
	started := time.Now()

	if req.Refresh {
		if _, err := s.InvalidateCache(ctx, req.Scope.Key()); err != nil {
			slog.Warn("刷新范围缓存失败", "scope", req.Scope.Key(), "error", err)
		}
	}

	assets, snap, err := s.load(ctx, req.Scope, req.Fetch)
	if err != nil {
		if !IsRequestError(err) {
			s.metrics.IncrementOutcome("failed")
			err = fmt.Errorf("%w: %w", ErrRunFailed, err)
		}
		return nil, err
	}

	engine, _ := s.Engine(req.Adapter)
	out, err := engine.Run(ctx, Request{
		TemplateID: req.TemplateID,
		ProfileID:  req.ProfileID,
		Scope:      req.Scope.Key(),
		Label:      req.Label,
		Assets:     assets,
		Snapshot:   snap,
	})
	if err != nil {
		if IsRequestError(err) {
			return nil, err
		}
		s.metrics.IncrementOutcome("failed")
		return nil, fmt.Errorf("%w: %w", ErrRunFailed, err)
	}

	if err := s.ledger.Record(ctx, &out.Run, out.ParameterResults, out.AssessmentResults); err != nil {
		s.metrics.IncrementOutcome("failed")
		slog.Error("评估运行落库失败", "run_id", out.Run.RunID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrRunFailed, err)
	}
	s.metrics.ObserveRun(out, time.Since(started))

	counts := out.StatusCounts()
	s.publish(ctx, out, counts)

	slog.Info("评估运行完成",
		"run_id", out.Run.RunID,
		"template_id", out.Run.TemplateID,
		"adapter", out.Run.Adapter,
		"asset_count", out.Run.AssetCount,
		"duration", time.Since(started))

	return &TriggerResult{
		RunID:        out.Run.RunID,
		RunTS:        out.Run.RunTS,
		AssetCount:   out.Run.AssetCount,
		StatusCounts: counts,
	}, nil
}

func (s *Service) publish(ctx context.Context, out *Outcome, counts map[string]int) {
	event := events.RunEvent{
		Type:         events.EventTypeRunCompleted,
		RunID:        out.Run.RunID,
		RunTS:        out.Run.RunTS,
		TemplateID:   out.Run.TemplateID,
		ProfileID:    out.Run.ProfileID,
		Methodology:  out.Run.Methodology,
		Adapter:      out.Run.Adapter,
		Scope:        out.Run.Scope,
		Label:        out.Run.RunLabel,
		AssetCount:   out.Run.AssetCount,
		StatusCounts: counts,
	}
	if err := s.publisher.PublishRun(ctx, event); err != nil {
		slog.Warn("发布运行事件失败", "run_id", out.Run.RunID, "error", err)
	}
}

// load 拉取范围内资产并构建证据快照
func (s *Service) load(ctx context.Context, scope fetcher.Scope, cfg fetcher.FetchConfig) ([]models.AssetRecord, *evidence.Snapshot, error) {
	if s.fetcher == nil {
		return nil, nil, fmt.Errorf("未配置资产拉取器")
	}
	assets, err := s.fetcher.FetchAssets(ctx, scope, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("拉取资产失败: %w", err)
	}
	if len(scope.AssetGUIDs) > 0 && cfg.SampleSize == 0 && len(assets) < len(uniqueStrings(scope.AssetGUIDs)) {
		return nil, nil, fmt.Errorf("%w: %s", ErrAssetNotFound, missingGUIDs(scope.AssetGUIDs, assets))
	}

	keys := make([]string, len(assets))
	for i, a := range assets {
		keys[i] = a.GUID
	}

	var snap *evidence.Snapshot
	switch {
	case len(keys) == 0:
		// 空范围不查询证据，空键在存储层表示全部资产
		snap = evidence.NewSnapshot(nil)
	case s.evidence != nil:
		snap, err = s.evidence.LatestView(ctx, scope.Key(), keys)
	case s.store != nil:
		snap, err = s.store.LatestView(ctx, keys)
	default:
		snap = evidence.NewSnapshot(nil)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("加载证据快照失败: %w", err)
	}
	return assets, snap, nil
}

func uniqueStrings(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}

func missingGUIDs(want []string, got []models.AssetRecord) []string {
	have := make(map[string]struct{}, len(got))
	for _, a := range got {
		have[a.GUID] = struct{}{}
	}
	var missing []string
	for g := range uniqueStrings(want) {
		if _, ok := have[g]; !ok {
			missing = append(missing, g)
		}
	}
	return missing
}

// EvaluateRequest 不落库的进程内评估请求
type EvaluateRequest struct {
	TemplateID string                       `json:"template_id"`
	ProfileID  string                       `json:"profile_id,omitempty"`
	Assets     []models.AssetRecord         `json:"assets"`
	Evidence   []models.EvidenceObservation `json:"evidence,omitempty"`
	Adapter    AdapterKind                  `json:"adapter,omitempty"`
}

// Evaluate 对给定资产执行评估但不落库，未提供证据时读取证据存储的最新视图
func (s *Service) Evaluate(ctx context.Context, req EvaluateRequest) (*Outcome, error) {
	adapter := req.Adapter
	if adapter == "" {
		adapter = AdapterRow
	}
	if err := s.validate(req.TemplateID, req.ProfileID, adapter); err != nil {
		return nil, err
	}

	var snap *evidence.Snapshot
	if req.Evidence != nil {
		snap = evidence.NewSnapshot(req.Evidence)
	} else if s.store != nil {
		keys := make([]string, len(req.Assets))
		for i, a := range req.Assets {
			keys[i] = a.GUID
		}
		var err error
		if snap, err = s.store.LatestView(ctx, keys); err != nil {
			return nil, fmt.Errorf("加载证据快照失败: %w", err)
		}
	}

	engine, _ := s.Engine(adapter)
	return engine.Run(ctx, Request{
		TemplateID: req.TemplateID,
		ProfileID:  req.ProfileID,
		Label:      "adhoc",
		Assets:     req.Assets,
		Snapshot:   snap,
	})
}

// GetRun 查询运行
func (s *Service) GetRun(ctx context.Context, runID string) (*models.AssessmentRun, error) {
	return s.ledger.GetRun(ctx, runID)
}

// ListRuns 分页查询运行
func (s *Service) ListRuns(ctx context.Context, page, size int, templateID string) ([]models.AssessmentRun, int64, error) {
	return s.ledger.ListRuns(ctx, page, size, templateID)
}

// ParameterResults 查询运行的参数结果
func (s *Service) ParameterResults(ctx context.Context, runID string) ([]models.ParameterResult, error) {
	if _, err := s.ledger.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	return s.ledger.ParameterResults(ctx, runID)
}

// AssessmentResults 查询运行的评估汇总结果
func (s *Service) AssessmentResults(ctx context.Context, runID string) ([]models.AssessmentResult, error) {
	if _, err := s.ledger.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	return s.ledger.AssessmentResults(ctx, runID)
}

// Compare 对比两次运行
func (s *Service) Compare(ctx context.Context, prevRunID, currRunID string) (*ledger.Comparison, error) {
	return s.ledger.Compare(ctx, prevRunID, currRunID, s.remediation)
}

// CacheStats 缓存统计，未配置缓存时返回空统计
func (s *Service) CacheStats(ctx context.Context) cache.Stats {
	if s.cache == nil {
		return cache.Stats{Backend: "none"}
	}
	return s.cache.Stats(ctx)
}

// InvalidateCache 失效指定范围的缓存
func (s *Service) InvalidateCache(ctx context.Context, scopeKey string) (int, error) {
	if s.cache == nil {
		return 0, nil
	}
	if scopeKey == "" {
		return 0, fmt.Errorf("%w: 缺少缓存范围", ErrInvalidRequest)
	}
	return s.cache.Invalidate(ctx, scopeKey)
}
