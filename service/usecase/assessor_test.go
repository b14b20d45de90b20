package usecase

import (
	"testing"

	"metahub-service/service/catalog"
	"metahub-service/service/evaluator"
	"metahub-service/service/meta"
	"metahub-service/service/scoring"
	"metahub-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signal(id string, state meta.State) scoring.SignalResult {
	res := scoring.SignalResult{SignalID: id, State: state, Present: state == meta.StatePresent}
	if res.Present {
		res.Score = 1
	}
	return res
}

func profile(policy meta.UnknownPolicy) catalog.UseCaseProfile {
	return catalog.UseCaseProfile{
		ID: "p",
		Entries: []catalog.ProfileEntry{
			{Signal: "A", Weight: 1, Required: true},
			{Signal: "B", Weight: 1},
			{Signal: "C", Weight: 2},
		},
		ReadyThreshold:   0.8,
		PartialThreshold: 0.5,
		UnknownPolicy:    policy,
	}
}

// TestAssessSelfServiceScenario 测试自助发现用例的阻断场景
func TestAssessSelfServiceScenario(t *testing.T) {
	cat := catalog.MustBuiltin()
	asset := testutil.NewAsset("t1",
		testutil.WithAttribute("OWNER_USERS", []interface{}{}),
		testutil.WithAttribute("DESCRIPTION", "revenue by region"),
		testutil.WithAttribute("HAS_LINEAGE", false),
	)
	outcomes := evaluator.NewFieldEvaluator().EvaluateAll(&asset, cat.FieldsFor(asset.AssetType))
	signals := scoring.ComposeSignals(outcomes, cat)

	prof, err := cat.Profile("self_service_discovery")
	require.NoError(t, err)

	res := NewAssessor("").Assess(prof, signals)
	assert.Equal(t, []string{"OWNERSHIP"}, res.Blockers)
	assert.Equal(t, meta.ReadinessNotReady, res.Readiness)
	assert.InDelta(t, 0.5, res.Score, 1e-9)
	assert.Equal(t, meta.UnknownPassthrough, res.UnknownPolicy)
	assert.Empty(t, res.Unknown)
}

// TestAssessReadinessLevels 测试就绪等级阈值
func TestAssessReadinessLevels(t *testing.T) {
	a := NewAssessor(meta.UnknownPassthrough)
	p := profile("")

	ready := a.Assess(p, map[string]scoring.SignalResult{
		"A": signal("A", meta.StatePresent),
		"B": signal("B", meta.StatePresent),
		"C": signal("C", meta.StatePresent),
	})
	assert.Equal(t, meta.ReadinessReady, ready.Readiness)
	assert.Equal(t, 1.0, ready.Score)

	partial := a.Assess(p, map[string]scoring.SignalResult{
		"A": signal("A", meta.StatePresent),
		"B": signal("B", meta.StateAbsent),
		"C": signal("C", meta.StatePresent),
	})
	assert.Equal(t, meta.ReadinessPartial, partial.Readiness)
	assert.InDelta(t, 0.75, partial.Score, 1e-9)

	low := a.Assess(p, map[string]scoring.SignalResult{
		"A": signal("A", meta.StatePresent),
		"B": signal("B", meta.StateAbsent),
		"C": signal("C", meta.StateAbsent),
	})
	assert.Equal(t, meta.ReadinessNotReady, low.Readiness)
	assert.Empty(t, low.Blockers)
}

// TestAssessUnknownRequiredDoesNotBlock 测试未知必填信号不阻断
func TestAssessUnknownRequiredDoesNotBlock(t *testing.T) {
	signals := map[string]scoring.SignalResult{
		"B": signal("B", meta.StatePresent),
		"C": signal("C", meta.StatePresent),
	}

	passthrough := NewAssessor(meta.UnknownPassthrough).Assess(profile(""), signals)
	assert.Empty(t, passthrough.Blockers)
	assert.Equal(t, []string{"A"}, passthrough.Unknown)
	assert.InDelta(t, 0.75, passthrough.Score, 1e-9, "未知信号权重仍计入分母")
	assert.Equal(t, meta.ReadinessPartial, passthrough.Readiness)

	fails := NewAssessor(meta.UnknownFails).Assess(profile(""), signals)
	assert.Empty(t, fails.Blockers)
	assert.InDelta(t, 0.75, fails.Score, 1e-9)
	assert.Equal(t, meta.ReadinessPartial, fails.Readiness)
}

// TestAssessPassthroughKeepsUnknownWeight 测试透传策略下未知信号拉低得分
func TestAssessPassthroughKeepsUnknownWeight(t *testing.T) {
	p := catalog.UseCaseProfile{
		ID: "even",
		Entries: []catalog.ProfileEntry{
			{Signal: "A", Weight: 1},
			{Signal: "B", Weight: 1},
			{Signal: "C", Weight: 1},
		},
		ReadyThreshold:   0.8,
		PartialThreshold: 0.5,
	}
	res := NewAssessor(meta.UnknownPassthrough).Assess(p, map[string]scoring.SignalResult{
		"A": signal("A", meta.StatePresent),
		"B": signal("B", meta.StateUnknown),
	})
	assert.Equal(t, []string{"B", "C"}, res.Unknown)
	assert.InDelta(t, 1.0/3, res.Score, 1e-9)
	assert.Equal(t, meta.ReadinessNotReady, res.Readiness)
	require.Len(t, res.Entries, 3)
	assert.Equal(t, 0.0, res.Entries[1].Contribution)

	// 只有一个已知信号的画像不会因为未知信号被排除而判为就绪
	weighted := scoring.SignalResult{SignalID: "B", State: meta.StateUnknown, Score: 0.5}
	res = NewAssessor(meta.UnknownPassthrough).Assess(p, map[string]scoring.SignalResult{
		"A": signal("A", meta.StatePresent),
		"B": weighted,
	})
	assert.InDelta(t, 0.5, res.Score, 1e-9, "透传策略使用信号自身得分")

	res = NewAssessor(meta.UnknownFails).Assess(p, map[string]scoring.SignalResult{
		"A": signal("A", meta.StatePresent),
		"B": weighted,
	})
	assert.InDelta(t, 1.0/3, res.Score, 1e-9)
}

// TestAssessProfilePolicyOverride 测试画像覆盖默认未知策略
func TestAssessProfilePolicyOverride(t *testing.T) {
	a := NewAssessor(meta.UnknownPassthrough)
	assert.Equal(t, meta.UnknownFails, a.PolicyFor(profile(meta.UnknownFails)))
	assert.Equal(t, meta.UnknownPassthrough, a.PolicyFor(profile("")))

	res := a.Assess(profile(meta.UnknownFails), map[string]scoring.SignalResult{
		"A": signal("A", meta.StatePresent),
		"B": signal("B", meta.StateUnknown),
		"C": signal("C", meta.StatePresent),
	})
	assert.Equal(t, meta.UnknownFails, res.UnknownPolicy)
	assert.InDelta(t, 0.75, res.Score, 1e-9)

	assert.Equal(t, meta.UnknownPassthrough, NewAssessor("bogus").Policy())
}

// TestAssessAll 测试多画像评估保持顺序
func TestAssessAll(t *testing.T) {
	cat := catalog.MustBuiltin()
	results := NewAssessor("").AssessAll(cat.Profiles(), map[string]scoring.SignalResult{})
	require.Len(t, results, len(cat.Profiles()))
	for i, p := range cat.Profiles() {
		assert.Equal(t, p.ID, results[i].ProfileID)
		assert.Equal(t, meta.ReadinessNotReady, results[i].Readiness)
	}
}
