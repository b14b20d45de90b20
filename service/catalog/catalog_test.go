/*
 * @module service/catalog/catalog_test
 * @description 目录测试：内置目录加载、YAML解码、引用校验、绑定排序与字段对账
 * @architecture 测试层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 构造定义 -> 构建目录 -> 校验结果
 * @rules 覆盖来源标签解码与错误路径
 * @dependencies github.com/stretchr/testify
 * @refs service/catalog
 */

package catalog

import (
	"strings"
	"testing"

	"metahub-service/service/meta"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuiltinLoads 测试内置目录可加载且引用完整
func TestBuiltinLoads(t *testing.T) {
	c, err := Builtin()
	require.NoError(t, err)

	for _, id := range []string{"OWNERSHIP", "SEMANTICS", "LINEAGE", "TRUST", "CLASSIFICATION", "USAGE"} {
		_, err := c.Signal(id)
		assert.NoError(t, err, id)
	}

	tmpl, params, err := c.ResolveTemplate("talk_to_data_gate")
	require.NoError(t, err)
	assert.Equal(t, meta.MethodologyGate, tmpl.Methodology)
	require.Len(t, params, 5)
	assert.True(t, params[0].EffectiveRequired)
	assert.True(t, params[1].EffectiveRequired, "模板覆盖 has_description 为必需")

	_, params, err = c.ResolveTemplate("core_weighted")
	require.NoError(t, err)
	assert.Equal(t, 2.0, params[0].EffectiveWeight)

	profile, err := c.Profile("self_service_discovery")
	require.NoError(t, err)
	assert.Len(t, profile.Entries, 2)

	sem, err := c.Signal("SEMANTICS")
	require.NoError(t, err)
	assert.Equal(t, meta.AggregateWeightedThreshold, sem.Aggregation.Rule)
	assert.Equal(t, 0.5, sem.Aggregation.Threshold)

	steward, ok := c.Field("data_steward")
	require.True(t, ok)
	assert.Equal(t, CustomMetadataSource{Set: "Data Governance", Attribute: "Data Steward"}, steward.Source)
}

// TestLookupSentinelErrors 测试查询不存在的定义返回哨兵错误
func TestLookupSentinelErrors(t *testing.T) {
	c := MustBuiltin()

	_, err := c.Template("missing")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
	_, err = c.Profile("missing")
	assert.ErrorIs(t, err, ErrProfileNotFound)
	_, err = c.Parameter("missing")
	assert.ErrorIs(t, err, ErrParameterNotFound)
	_, _, err = c.ResolveTemplate("missing")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

// TestBindingsForOrdersByPriority 测试绑定按优先级排序并按资产类型过滤
func TestBindingsForOrdersByPriority(t *testing.T) {
	p := Parameter{
		ID: "p",
		Bindings: []Binding{
			{AssetType: "Table", EvidenceKey: "B", Priority: 2},
			{AssetType: AnyAssetType, EvidenceKey: "A", Priority: 1},
			{AssetType: "Column", EvidenceKey: "C", Priority: 0},
			{AssetType: "table", EvidenceKey: "D", Priority: 2},
		},
	}

	got := p.BindingsFor("Table")
	require.Len(t, got, 3)
	assert.Equal(t, "A", got[0].EvidenceKey)
	assert.Equal(t, "B", got[1].EvidenceKey)
	assert.Equal(t, "D", got[2].EvidenceKey)

	assert.Len(t, p.BindingsFor("Dashboard"), 1)
}

// TestLoadYAMLDecodesSources 测试YAML来源标签解码为对应变体
func TestLoadYAMLDecodesSources(t *testing.T) {
	doc := `
signals:
  - {id: S, aggregation: "weighted_threshold", threshold: 0.3, severity: low, workstream: w}
fields:
  - id: f1
    source: {type: native, attribute: A}
    contributes: [{signal: S, weight: 1}]
  - id: f2
    source: {type: classification, any_of: [PII]}
    contributes: [{signal: S, weight: 1, negative: true}]
  - id: f3
    source: {type: relationship, relation: upstream, min_count: 2}
  - id: f4
    source: {type: derived, name: calc, script: "package main"}
`
	c, err := LoadYAML(strings.NewReader(doc))
	require.NoError(t, err)

	s, err := c.Signal("S")
	require.NoError(t, err)
	assert.Equal(t, 0.3, s.Aggregation.Threshold)
	assert.Equal(t, meta.SeverityLow, s.Severity)

	f1, _ := c.Field("f1")
	assert.Equal(t, NativeSource{Attribute: "A"}, f1.Source)
	f2, _ := c.Field("f2")
	assert.Equal(t, ClassificationSource{Set: []string{"PII"}}, f2.Source)
	assert.True(t, f2.Contributions[0].Negative)
	f3, _ := c.Field("f3")
	assert.Equal(t, RelationshipSource{Relation: "upstream", MinCount: 2}, f3.Source)
	f4, _ := c.Field("f4")
	assert.Equal(t, SourceDerived, f4.Source.Kind())
}

// TestLoadYAMLRejectsInvalid 测试非法定义被拒绝
func TestLoadYAMLRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"未知来源":  "fields:\n  - {id: f, source: {type: magic}}\n",
		"未知信号":  "fields:\n  - {id: f, source: {type: native, attribute: A}, contributes: [{signal: NOPE, weight: 1}]}\n",
		"未知参数":  "templates:\n  - {id: t, methodology: GATE, parameters: [{parameter: nope}]}\n",
		"方法论无效": "templates:\n  - {id: t, methodology: VIBES}\n",
		"通过条件无效": "parameters:\n  - {id: p, pass_condition: MAYBE}\n",
		"负权重":   "parameters:\n  - {id: p, weight: -1, pass_condition: TRUTHY}\n",
		"未知键":   "signals:\n  - {id: S, colour: red}\n",
		"阈值越界":  "signals:\n  - {id: S, aggregation: weighted_threshold(1.5)}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadYAML(strings.NewReader(doc))
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

// TestReconcile 测试字段对账的精确匹配、别名匹配与未匹配
func TestReconcile(t *testing.T) {
	fields := []Field{
		{ID: "owner_users", Name: "Owner Users", Source: NativeAnySource{Attributes: []string{"OWNER_USERS", "OWNERUSERS"}}},
		{ID: "popularity_score", Name: "Popularity", Source: NativeSource{Attribute: "POPULARITY"}},
		{ID: "readme", Name: "README", Source: NativeSource{Attribute: "README_GUID"}},
		{ID: "tags", Source: ClassificationSource{Pattern: "*"}},
	}
	columns := []string{"ownerusers", "ASSET_POPULARITY_SCORE", "NAME"}

	mappings := Reconcile(fields, columns)
	require.Len(t, mappings, 3, "分类来源不参与对账")

	assert.Equal(t, ReconcileMatched, mappings[0].ReconciliationStatus)
	assert.Equal(t, "ownerusers", mappings[0].MatchedColumn)
	assert.Equal(t, 1.0, mappings[0].Confidence)
	assert.Equal(t, MappingStatusAuto, mappings[0].Status)

	assert.Equal(t, ReconcileAliasMatched, mappings[1].ReconciliationStatus)
	assert.Equal(t, "ASSET_POPULARITY_SCORE", mappings[1].MatchedColumn)
	assert.Equal(t, 0.7, mappings[1].Confidence)
	assert.Equal(t, MappingStatusPending, mappings[1].Status)

	assert.Equal(t, ReconcileNotFound, mappings[2].ReconciliationStatus)
	assert.Equal(t, 0.0, mappings[2].Confidence)
	assert.Nil(t, mappings[2].TenantSource)

	auto := AcceptedSources(mappings, false)
	assert.Len(t, auto, 1)
	all := AcceptedSources(mappings, true)
	assert.Equal(t, NativeSource{Attribute: "ASSET_POPULARITY_SCORE"}, all["popularity_score"])
}

// TestWithFieldSources 测试以对账结果覆盖字段来源
func TestWithFieldSources(t *testing.T) {
	c := MustBuiltin()
	derived, err := c.WithFieldSources(map[string]Source{"owner_users": NativeSource{Attribute: "OWNERS"}})
	require.NoError(t, err)

	f, ok := derived.Field("owner_users")
	require.True(t, ok)
	assert.Equal(t, NativeSource{Attribute: "OWNERS"}, f.Source)

	orig, _ := c.Field("owner_users")
	assert.Equal(t, SourceNativeAny, orig.Source.Kind(), "原目录不变")
}
