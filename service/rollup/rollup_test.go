package rollup

import (
	"fmt"
	"testing"

	"metahub-service/service/meta"
	"metahub-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func population(n, missing int, field string) []AssetFacts {
	out := make([]AssetFacts, 0, n)
	for i := 0; i < n; i++ {
		state := meta.StatePresent
		if i < missing {
			state = meta.StateAbsent
		}
		out = append(out, AssetFacts{
			AssetKey: fmt.Sprintf("asset-%04d", i),
			States:   map[string]meta.State{field: state},
		})
	}
	return out
}

// TestOwnershipGapScenario 测试1000资产中400无负责人的缺口计算
func TestOwnershipGapScenario(t *testing.T) {
	gaps := GapReport(population(1000, 400, "OWNERSHIP"), []string{"OWNERSHIP"}, DefaultConfig())
	require.Len(t, gaps, 1)

	g := gaps[0]
	assert.Equal(t, "OWNERSHIP", g.Field)
	assert.InDelta(t, 0.6, g.CurrentCoverage, 1e-9)
	assert.InDelta(t, 0.95, g.TargetCoverage, 1e-9)
	assert.InDelta(t, 0.35, g.GapPercent, 1e-9)
	assert.Equal(t, 350, g.AssetsToFix)
	assert.InDelta(t, 35.0, g.EffortHours, 1e-9)
	assert.Equal(t, meta.PriorityP0, g.Priority)
}

// TestGapFiltering 测试已达标字段不进入报告
func TestGapFiltering(t *testing.T) {
	cfg := DefaultConfig()
	coverages := []FieldCoverage{
		{Field: "description", CurrentCoverage: 0.9, Population: 10},
		{Field: "lineage", CurrentCoverage: 0.95, Population: 10},
		{Field: "tags", CurrentCoverage: 0.5, Population: 10},
	}
	gaps := Gaps(coverages, 10, cfg)
	require.Len(t, gaps, 1)
	assert.Equal(t, "tags", gaps[0].Field)
	assert.Equal(t, 3, gaps[0].AssetsToFix)
	assert.Equal(t, meta.PriorityP1, gaps[0].Priority)
}

// TestAssignPriority 测试优先级分级与高优先级字段提升
func TestAssignPriority(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		field string
		gap   float64
		want  meta.Priority
	}{
		{"tags", 0.6, meta.PriorityP0},
		{"tags", 0.3, meta.PriorityP1},
		{"tags", 0.1, meta.PriorityP2},
		{"tags", 0.05, meta.PriorityP3},
		{"ownership", 0.6, meta.PriorityP0},
		{"Description", 0.15, meta.PriorityP1},
		{"description", 0.01, meta.PriorityP2},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%v", tt.field, tt.gap), func(t *testing.T) {
			assert.Equal(t, tt.want, AssignPriority(tt.field, tt.gap, cfg))
		})
	}
}

// TestGapsOrdering 测试缺口按优先级与缺口大小排序
func TestGapsOrdering(t *testing.T) {
	cfg := Config{DefaultTarget: 1, DefaultEffortHours: 1}
	gaps := Gaps([]FieldCoverage{
		{Field: "a", CurrentCoverage: 0.85},
		{Field: "b", CurrentCoverage: 0.2},
		{Field: "c", CurrentCoverage: 0.6},
		{Field: "d", CurrentCoverage: 0.8},
	}, 100, cfg)
	var order []string
	for _, g := range gaps {
		order = append(order, g.Field)
	}
	assert.Equal(t, []string{"b", "c", "d", "a"}, order)
}

// TestBuildPlan 测试整改阶段划分与周期估算
func TestBuildPlan(t *testing.T) {
	gaps := []Gap{
		{Field: "ownership", Priority: meta.PriorityP0, EffortHours: 35},
		{Field: "description", Priority: meta.PriorityP0, EffortHours: 50},
		{Field: "lineage", Priority: meta.PriorityP2, EffortHours: 10},
		{Field: "tags", Priority: meta.PriorityP3, EffortHours: 31},
	}
	plan := BuildPlan(gaps)
	require.Len(t, plan.Phases, 2, "空阶段不输出")

	assert.Equal(t, "Foundation", plan.Phases[0].Name)
	assert.Equal(t, []string{"ownership", "description"}, plan.Phases[0].Fields)
	assert.Equal(t, 3, plan.Phases[0].EstimatedWeeks)
	assert.Contains(t, plan.Phases[0].Milestone, "ownership")

	assert.Equal(t, "Optimization", plan.Phases[1].Name)
	assert.Equal(t, 2, plan.Phases[1].EstimatedWeeks)
	assert.Equal(t, 5, plan.TotalWeeks)
	assert.InDelta(t, 126.0, plan.TotalEffortHours, 1e-9)

	empty := BuildPlan(nil)
	assert.Empty(t, empty.Phases)
	assert.Equal(t, 0, empty.TotalWeeks)
}

// TestByDimension 测试分维度汇总与最差分组
func TestByDimension(t *testing.T) {
	assets := []struct {
		guid   string
		opts   []testutil.AssetOption
		states map[string]meta.State
	}{
		{"a1", []testutil.AssetOption{testutil.WithConnector("snowflake"), testutil.WithAttribute("OWNER_USERS", []interface{}{"alice", "bob"})},
			map[string]meta.State{"OWNERSHIP": meta.StatePresent}},
		{"a2", []testutil.AssetOption{testutil.WithConnector("snowflake"), testutil.WithAttribute("OWNER_USERS", []interface{}{"alice"})},
			map[string]meta.State{"OWNERSHIP": meta.StatePresent}},
		{"a3", []testutil.AssetOption{testutil.WithConnector("databricks")},
			map[string]meta.State{"OWNERSHIP": meta.StateAbsent}},
		{"a4", []testutil.AssetOption{testutil.WithConnector("")},
			map[string]meta.State{"OWNERSHIP": meta.StateUnknown}},
	}
	var facts []AssetFacts
	for _, a := range assets {
		rec := testutil.NewAsset(a.guid, a.opts...)
		facts = append(facts, NewAssetFacts(&rec, a.states, nil))
	}

	byConnector := ByDimension(facts, meta.DimensionConnector, []string{"OWNERSHIP"}, DefaultConfig())
	assert.Equal(t, 4, byConnector.Overall.AssetCount)
	assert.InDelta(t, 0.5, byConnector.Overall.MeanCoverage, 1e-9)

	var values []string
	for _, g := range byConnector.Groups {
		values = append(values, g.Value)
	}
	assert.Equal(t, []string{NoValue, "databricks", "snowflake"}, values)

	worst := byConnector.Worst()
	require.NotNil(t, worst)
	assert.Equal(t, NoValue, worst.Value)

	byOwner := ByDimension(facts, meta.DimensionOwner, []string{"OWNERSHIP"}, DefaultConfig())
	counts := map[string]int{}
	for _, g := range byOwner.Groups {
		counts[g.Value] = g.AssetCount
	}
	assert.Equal(t, map[string]int{"alice": 2, "bob": 1, NoValue: 2}, counts)

	assert.Nil(t, DimensionRollup{}.Worst())
}

// TestDimensionValuesSchema 测试模式维度带数据库前缀
func TestDimensionValuesSchema(t *testing.T) {
	rec := testutil.NewAsset("a1", testutil.WithSchema("ANALYTICS", "PUBLIC"))
	assert.Equal(t, []string{"ANALYTICS.PUBLIC"}, DimensionValues(&rec, meta.DimensionSchema))
	assert.Equal(t, []string{"Table"}, DimensionValues(&rec, meta.DimensionAssetType))
}

// TestDrift 测试优先级漂移
func TestDrift(t *testing.T) {
	prev := []PriorityEntry{
		{Field: "ownership", Priority: meta.PriorityP0, Score: 0.6},
		{Field: "lineage", Priority: meta.PriorityP3, Score: 0.78},
		{Field: "tags", Priority: meta.PriorityP2, Score: 0.6},
	}
	curr := []PriorityEntry{
		{Field: "ownership", Priority: meta.PriorityP2, Score: 0.9},
		{Field: "lineage", Priority: meta.PriorityP1, Score: 0.5},
		{Field: "tags", Priority: meta.PriorityP2, Score: 0.65},
		{Field: "readme", Priority: meta.PriorityP0, Score: 0.1},
	}
	drift := Drift(prev, curr)
	require.Len(t, drift, 2)

	assert.Equal(t, "lineage", drift[0].Field)
	assert.Equal(t, DriftWorsened, drift[0].Direction)
	assert.InDelta(t, -0.28, drift[0].Delta, 1e-9)

	assert.Equal(t, "ownership", drift[1].Field)
	assert.Equal(t, DriftImproved, drift[1].Direction)
	assert.InDelta(t, 0.3, drift[1].Delta, 1e-9)
}

// TestPriorityList 测试已达标字段同样列出
func TestPriorityList(t *testing.T) {
	list := PriorityList([]FieldCoverage{
		{Field: "ownership", CurrentCoverage: 0.99},
		{Field: "tags", CurrentCoverage: 0.2},
	}, DefaultConfig())
	require.Len(t, list, 2)
	assert.Equal(t, meta.PriorityP2, list[0].Priority)
	assert.Equal(t, meta.PriorityP0, list[1].Priority)
}
