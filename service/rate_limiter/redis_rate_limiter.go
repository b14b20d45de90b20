/*
 * @module service/rate_limiter/redis_rate_limiter
 * @description 基于Redis的评估触发限流，多实例共享租户与全局计数
 * @architecture 工具层 - 提供分布式限流能力
 * @documentReference docs/assessment_engine.md
 * @stateFlow 构造窗口Key -> Lua脚本原子计数 -> 判断是否超限
 * @rules 使用Redis INCR和EXPIRE实现固定窗口限流，超限请求不计数
 * @dependencies github.com/go-redis/redis/v8
 * @refs service/rate_limiter/rate_limiter.go, service/init.go
 */

package rate_limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// 原子检查并计数，超限时不增加计数
const checkScript = `
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local max_requests = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
if current >= max_requests then
	local ttl = redis.call('TTL', KEYS[1])
	if ttl < 0 then ttl = window end
	return {0, current, ttl}
end
local new_count = redis.call('INCR', KEYS[1])
if new_count == 1 then
	redis.call('EXPIRE', KEYS[1], window)
end
local ttl = redis.call('TTL', KEYS[1])
if ttl < 0 then ttl = window end
return {1, new_count, ttl}
`

// RedisRateLimiter Redis限流器，多实例共享计数
type RedisRateLimiter struct {
	client *redis.Client
	script *redis.Script
}

// NewRedisRateLimiter 基于已连接的客户端创建Redis限流器
func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, script: redis.NewScript(checkScript)}
}

// CheckRateLimit 按优先级检查限流（租户 -> 全局），任一层超限直接返回
func (r *RedisRateLimiter) CheckRateLimit(ctx context.Context, rules []RateLimitRule) (*RateLimitResult, error) {
	sorted := sortRulesByPriority(rules)
	if len(sorted) == 0 {
		return unlimited(), nil
	}

	var result *RateLimitResult
	for _, rule := range sorted {
		res, err := r.checkSingleRule(ctx, rule)
		if err != nil {
			return nil, err
		}
		if !res.Allowed {
			return res, nil
		}
		result = res
	}
	return result, nil
}

func (r *RedisRateLimiter) checkSingleRule(ctx context.Context, rule RateLimitRule) (*RateLimitResult, error) {
	key := buildRateLimitKey(rule, time.Now())
	raw, err := r.script.Run(ctx, r.client, []string{key}, rule.MaxRequests, rule.TimeWindow).Result()
	if err != nil {
		return nil, fmt.Errorf("限流检查失败: %w", err)
	}
	values, ok := raw.([]interface{})
	if !ok || len(values) != 3 {
		return nil, fmt.Errorf("限流检查失败: 脚本返回格式异常 %v", raw)
	}
	allowed := values[0].(int64) == 1
	current := int(values[1].(int64))
	ttl := values[2].(int64)

	remaining := rule.MaxRequests - current
	if remaining < 0 {
		remaining = 0
	}
	message := "允许请求"
	if !allowed {
		message = fmt.Sprintf("超过%s限流限制", rateLimitTypeName(rule.Type))
	}
	return &RateLimitResult{
		Allowed:       allowed,
		Limit:         rule.MaxRequests,
		Remaining:     remaining,
		ResetAt:       time.Now().Add(time.Duration(ttl) * time.Second).Unix(),
		RateLimitType: rule.Type,
		Message:       message,
	}, nil
}

// ResetRateLimit 重置当前窗口的计数
func (r *RedisRateLimiter) ResetRateLimit(ctx context.Context, rule RateLimitRule) error {
	return r.client.Del(ctx, buildRateLimitKey(rule, time.Now())).Err()
}
