/*
 * @module service/rate_limiter/rate_limiter
 * @description 评估触发限流：按全局与租户两层固定窗口计数，Redis 不可用时退化为进程内计数
 * @architecture 工具层 - 提供限流能力
 * @documentReference docs/assessment_engine.md
 * @stateFlow 构造规则 -> 按优先级逐层计数 -> 任一层超限即拒绝
 * @rules 租户层先于全局层检查；MaxRequests<=0 的规则视为不限流；窗口按 Unix 秒对齐
 * @dependencies github.com/go-redis/redis/v8
 * @refs service/assessment/service.go, service/init.go
 */

package rate_limiter

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// 限流层级
const (
	RuleGlobal = "global"
	RuleTenant = "tenant"
)

// RateLimitResult 限流检查结果
type RateLimitResult struct {
	Allowed       bool   `json:"allowed"`
	Limit         int    `json:"limit"`
	Remaining     int    `json:"remaining"`
	ResetAt       int64  `json:"reset_at"`
	RateLimitType string `json:"limit_type"`
	Message       string `json:"message"`
}

// RateLimitRule 限流规则
type RateLimitRule struct {
	Type        string // global/tenant
	TargetID    string // 租户ID，全局时为空
	TimeWindow  int    // 时间窗口（秒）
	MaxRequests int    // 窗口内最大请求数
}

// RateLimiter 限流器
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, rules []RateLimitRule) (*RateLimitResult, error)
}

// Policy 触发限流策略
type Policy struct {
	Window    time.Duration
	Global    int
	PerTenant int
}

// Enabled 是否配置了任一层限流
func (p Policy) Enabled() bool {
	return p.Window > 0 && (p.Global > 0 || p.PerTenant > 0)
}

// Rules 生成租户的限流规则
func (p Policy) Rules(tenant string) []RateLimitRule {
	window := int(p.Window / time.Second)
	if window <= 0 {
		window = 1
	}
	var rules []RateLimitRule
	if p.Global > 0 {
		rules = append(rules, RateLimitRule{Type: RuleGlobal, TimeWindow: window, MaxRequests: p.Global})
	}
	if p.PerTenant > 0 {
		if tenant == "" {
			tenant = "*"
		}
		rules = append(rules, RateLimitRule{Type: RuleTenant, TargetID: tenant, TimeWindow: window, MaxRequests: p.PerTenant})
	}
	return rules
}

func buildRateLimitKey(rule RateLimitRule, now time.Time) string {
	currentWindow := now.Unix() / int64(rule.TimeWindow)
	if rule.Type == RuleGlobal {
		return fmt.Sprintf("rate_limit:assessment:%s:%d", rule.Type, currentWindow)
	}
	return fmt.Sprintf("rate_limit:assessment:%s:%s:%d", rule.Type, rule.TargetID, currentWindow)
}

func sortRulesByPriority(rules []RateLimitRule) []RateLimitRule {
	priority := map[string]int{RuleTenant: 2, RuleGlobal: 1}
	sorted := make([]RateLimitRule, 0, len(rules))
	for _, r := range rules {
		if r.MaxRequests > 0 && r.TimeWindow > 0 {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return priority[sorted[i].Type] > priority[sorted[j].Type]
	})
	return sorted
}

func rateLimitTypeName(limitType string) string {
	switch limitType {
	case RuleGlobal:
		return "全局"
	case RuleTenant:
		return "租户"
	default:
		return "未知"
	}
}

func unlimited() *RateLimitResult {
	return &RateLimitResult{Allowed: true, Limit: -1, Remaining: -1, RateLimitType: "none", Message: "无限流规则"}
}

type counter struct {
	count   int
	resetAt time.Time
}

// MemoryRateLimiter 进程内固定窗口限流器，单实例部署或测试使用
type MemoryRateLimiter struct {
	mu       sync.Mutex
	counters map[string]*counter
	now      func() time.Time
}

// NewMemoryRateLimiter 创建进程内限流器
func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{counters: make(map[string]*counter), now: time.Now}
}

// CheckRateLimit 检查是否超过限流，超限的层不计数
func (m *MemoryRateLimiter) CheckRateLimit(_ context.Context, rules []RateLimitRule) (*RateLimitResult, error) {
	sorted := sortRulesByPriority(rules)
	if len(sorted) == 0 {
		return unlimited(), nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for key, c := range m.counters {
		if !now.Before(c.resetAt) {
			delete(m.counters, key)
		}
	}

	counters := make([]*counter, len(sorted))
	for i, rule := range sorted {
		key := buildRateLimitKey(rule, now)
		c, ok := m.counters[key]
		if !ok {
			window := int64(rule.TimeWindow)
			c = &counter{resetAt: time.Unix((now.Unix()/window+1)*window, 0)}
			m.counters[key] = c
		}
		if c.count >= rule.MaxRequests {
			return &RateLimitResult{
				Allowed:       false,
				Limit:         rule.MaxRequests,
				Remaining:     0,
				ResetAt:       c.resetAt.Unix(),
				RateLimitType: rule.Type,
				Message:       fmt.Sprintf("超过%s限流限制", rateLimitTypeName(rule.Type)),
			}, nil
		}
		counters[i] = c
	}

	for _, c := range counters {
		c.count++
	}
	last := sorted[len(sorted)-1]
	c := counters[len(counters)-1]
	return &RateLimitResult{
		Allowed:       true,
		Limit:         last.MaxRequests,
		Remaining:     last.MaxRequests - c.count,
		ResetAt:       c.resetAt.Unix(),
		RateLimitType: last.Type,
		Message:       "允许请求",
	}, nil
}
