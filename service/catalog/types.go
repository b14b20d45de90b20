/*
 * @module service/catalog/types
 * @description 字段、信号、评分参数、模板与用例画像的声明式定义
 * @architecture 领域模型层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 目录加载 -> 定义校验 -> 评估器与聚合器只读使用
 * @rules 字段词汇与参数词汇描述同一概念：资产是否具备某属性，以及优先从哪个来源获知
 * @dependencies metahub-service/service/meta
 * @refs service/catalog/catalog.go
 */

package catalog

import (
	"encoding/json"
	"sort"
	"strings"

	"metahub-service/service/meta"
)

// AnyAssetType 绑定或字段适用于全部资产类型
const AnyAssetType = "*"

// Contribution 字段对信号的贡献
type Contribution struct {
	Signal   string  `json:"signal" yaml:"signal"`
	Weight   float64 `json:"weight" yaml:"weight"`
	Required bool    `json:"required" yaml:"required"`
	Negative bool    `json:"negative" yaml:"negative"`
}

// Field 低层字段定义
type Field struct {
	ID            string
	Name          string
	Category      string
	Source        Source
	AppliesTo     []string
	Contributions []Contribution
}

// Applies 字段是否适用于给定资产类型，未声明适用类型时适用全部
func (f Field) Applies(assetType string) bool {
	if len(f.AppliesTo) == 0 {
		return true
	}
	for _, t := range f.AppliesTo {
		if t == AnyAssetType || strings.EqualFold(t, assetType) {
			return true
		}
	}
	return false
}

// MarshalJSON 输出带类型标签的来源描述
func (f Field) MarshalJSON() ([]byte, error) {
	var source map[string]interface{}
	if f.Source != nil {
		source = DescribeSource(f.Source)
	}
	return json.Marshal(struct {
		ID            string                 `json:"id"`
		Name          string                 `json:"name"`
		Category      string                 `json:"category"`
		Source        map[string]interface{} `json:"source"`
		AppliesTo     []string               `json:"applies_to,omitempty"`
		Contributions []Contribution         `json:"contributions"`
	}{f.ID, f.Name, f.Category, source, f.AppliesTo, f.Contributions})
}

// Aggregation 信号聚合规则，Threshold 仅对 weighted_threshold 生效
type Aggregation struct {
	Rule      meta.AggregationRule `json:"rule"`
	Threshold float64              `json:"threshold,omitempty"`
}

// Signal 高层信号维度
type Signal struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Aggregation Aggregation   `json:"aggregation"`
	Severity    meta.Severity `json:"severity"`
	Workstream  string        `json:"workstream"`
}

// Binding 参数到证据键的绑定，Priority 越小越优先
type Binding struct {
	ParameterID string `json:"parameter_id"`
	AssetType   string `json:"asset_type"`
	EvidenceKey string `json:"evidence_key"`
	Priority    int    `json:"priority"`
}

// Parameter 评分参数定义
type Parameter struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Description   string             `json:"description,omitempty"`
	Weight        float64            `json:"weight"`
	Required      bool               `json:"required"`
	PassCondition meta.PassCondition `json:"pass_condition"`
	Bindings      []Binding          `json:"bindings"`
}

// BindingsFor 返回适用于资产类型的绑定，按优先级升序，同优先级保持声明顺序
func (p Parameter) BindingsFor(assetType string) []Binding {
	var out []Binding
	for _, b := range p.Bindings {
		if b.AssetType == AnyAssetType || strings.EqualFold(b.AssetType, assetType) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// TemplateParameter 模板中的参数条目，Weight/Required 为空时继承参数定义
type TemplateParameter struct {
	ParameterID string   `json:"parameter_id"`
	Weight      *float64 `json:"weight,omitempty"`
	Required    *bool    `json:"required,omitempty"`
}

// Thresholds 门禁阈值
type Thresholds struct {
	QualityMin    float64 `json:"quality_min"`
	CoverageMin   float64 `json:"coverage_min"`
	ConfidenceMin float64 `json:"confidence_min"`
}

// Template 评估模板
type Template struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Methodology meta.Methodology    `json:"methodology"`
	Parameters  []TemplateParameter `json:"parameters"`
	Thresholds  Thresholds          `json:"thresholds"`
}

// ResolvedParameter 模板展开后的参数，权重与必需标志已确定
type ResolvedParameter struct {
	Parameter
	EffectiveWeight   float64 `json:"effective_weight"`
	EffectiveRequired bool    `json:"effective_required"`
}

// ProfileEntry 用例画像中的信号条目
type ProfileEntry struct {
	Signal   string  `json:"signal"`
	Weight   float64 `json:"weight"`
	Required bool    `json:"required"`
}

// UseCaseProfile 用例画像
type UseCaseProfile struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Description      string             `json:"description,omitempty"`
	Entries          []ProfileEntry     `json:"entries"`
	ReadyThreshold   float64            `json:"ready_threshold"`
	PartialThreshold float64            `json:"partial_threshold"`
	UnknownPolicy    meta.UnknownPolicy `json:"unknown_policy,omitempty"`
}

// Remediation 整改估算配置：每资产工时、目标覆盖率、高优先级字段
type Remediation struct {
	EffortHours        map[string]float64 `json:"effort_hours"`
	Targets            map[string]float64 `json:"targets"`
	DefaultTarget      float64            `json:"default_target"`
	DefaultEffortHours float64            `json:"default_effort_hours"`
	HighPriorityFields []string           `json:"high_priority_fields"`
}
