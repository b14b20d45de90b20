package rate_limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyRules(t *testing.T) {
	assert.False(t, Policy{}.Enabled())
	assert.False(t, Policy{Window: time.Minute}.Enabled())

	p := Policy{Window: time.Minute, Global: 10, PerTenant: 2}
	require.True(t, p.Enabled())
	rules := p.Rules("")
	require.Len(t, rules, 2)
	assert.Equal(t, RuleGlobal, rules[0].Type)
	assert.Equal(t, "*", rules[1].TargetID)
	assert.Equal(t, 60, rules[1].TimeWindow)

	sorted := sortRulesByPriority(rules)
	assert.Equal(t, RuleTenant, sorted[0].Type, "租户层先检查")
}

func TestMemoryRateLimiter(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_800_000_000, 0)
	l := NewMemoryRateLimiter()
	l.now = func() time.Time { return now }
	p := Policy{Window: time.Minute, Global: 3, PerTenant: 2}

	for i := 0; i < 2; i++ {
		res, err := l.CheckRateLimit(ctx, p.Rules("acme"))
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := l.CheckRateLimit(ctx, p.Rules("acme"))
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, RuleTenant, res.RateLimitType)

	res, err = l.CheckRateLimit(ctx, p.Rules("globex"))
	require.NoError(t, err)
	assert.True(t, res.Allowed, "被拒绝的请求不占用全局额度")

	res, err = l.CheckRateLimit(ctx, p.Rules("initech"))
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, RuleGlobal, res.RateLimitType)

	now = now.Add(time.Minute)
	res, err = l.CheckRateLimit(ctx, p.Rules("acme"))
	require.NoError(t, err)
	assert.True(t, res.Allowed, "新窗口重新计数")
	assert.Len(t, l.counters, 2)
}

func TestMemoryRateLimiterWithoutRules(t *testing.T) {
	res, err := NewMemoryRateLimiter().CheckRateLimit(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, "none", res.RateLimitType)
}
