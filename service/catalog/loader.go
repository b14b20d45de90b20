/*
 * @module service/catalog/loader
 * @description YAML目录加载器，将声明式目录文件解码为目录定义
 * @architecture 领域模型层 - 配置加载
 * @documentReference docs/assessment_engine.md
 * @stateFlow YAML文件 -> 文档结构 -> 来源变体解码 -> 目录校验
 * @rules 来源标签必须是已知类型；未知标签使加载失败
 * @dependencies gopkg.in/yaml.v3
 * @refs service/catalog/builtin.yaml
 */

package catalog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"metahub-service/service/meta"

	"gopkg.in/yaml.v3"
)

type catalogDoc struct {
	Signals     []signalDoc    `yaml:"signals"`
	Fields      []fieldDoc     `yaml:"fields"`
	Parameters  []parameterDoc `yaml:"parameters"`
	Templates   []templateDoc  `yaml:"templates"`
	Profiles    []profileDoc   `yaml:"profiles"`
	Remediation remediationDoc `yaml:"remediation"`
}

type signalDoc struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Aggregation string   `yaml:"aggregation"`
	Threshold   *float64 `yaml:"threshold"`
	Severity    string   `yaml:"severity"`
	Workstream  string   `yaml:"workstream"`
}

type sourceDoc struct {
	Type       string   `yaml:"type"`
	Attribute  string   `yaml:"attribute"`
	Attributes []string `yaml:"attributes"`
	Set        string   `yaml:"set"`
	Pattern    string   `yaml:"pattern"`
	AnyOf      []string `yaml:"any_of"`
	Relation   string   `yaml:"relation"`
	MinCount   int      `yaml:"min_count"`
	Name       string   `yaml:"name"`
	Script     string   `yaml:"script"`
}

type fieldDoc struct {
	ID         string         `yaml:"id"`
	Name       string         `yaml:"name"`
	Category   string         `yaml:"category"`
	Source     sourceDoc      `yaml:"source"`
	AppliesTo  []string       `yaml:"applies_to"`
	Contribute []Contribution `yaml:"contributes"`
}

type bindingDoc struct {
	AssetType   string `yaml:"asset_type"`
	EvidenceKey string `yaml:"evidence_key"`
	Priority    int    `yaml:"priority"`
}

type parameterDoc struct {
	ID            string       `yaml:"id"`
	Name          string       `yaml:"name"`
	Description   string       `yaml:"description"`
	Weight        *float64     `yaml:"weight"`
	Required      bool         `yaml:"required"`
	PassCondition string       `yaml:"pass_condition"`
	Bindings      []bindingDoc `yaml:"bindings"`
}

type templateParamDoc struct {
	Parameter string   `yaml:"parameter"`
	Weight    *float64 `yaml:"weight"`
	Required  *bool    `yaml:"required"`
}

type templateDoc struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Methodology string             `yaml:"methodology"`
	Parameters  []templateParamDoc `yaml:"parameters"`
	Thresholds  struct {
		Quality    float64 `yaml:"quality_min"`
		Coverage   float64 `yaml:"coverage_min"`
		Confidence float64 `yaml:"confidence_min"`
	} `yaml:"thresholds"`
}

type profileDoc struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Entries     []struct {
		Signal   string  `yaml:"signal"`
		Weight   float64 `yaml:"weight"`
		Required bool    `yaml:"required"`
	} `yaml:"entries"`
	Ready         float64 `yaml:"ready_threshold"`
	Partial       float64 `yaml:"partial_threshold"`
	UnknownPolicy string  `yaml:"unknown_policy"`
}

type remediationDoc struct {
	EffortHours        map[string]float64 `yaml:"effort_hours"`
	Targets            map[string]float64 `yaml:"targets"`
	DefaultTarget      float64            `yaml:"default_target"`
	DefaultEffortHours float64            `yaml:"default_effort_hours"`
	HighPriorityFields []string           `yaml:"high_priority_fields"`
}

var weightedThresholdPattern = regexp.MustCompile(`^weighted_threshold\(\s*([0-9.]+)\s*\)$`)

// LoadFile 从YAML文件加载目录
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取目录文件失败: %w", err)
	}
	return LoadYAML(bytes.NewReader(data))
}

// LoadYAML 从YAML流加载目录
func LoadYAML(r io.Reader) (*Catalog, error) {
	def, err := DecodeYAML(r)
	if err != nil {
		return nil, err
	}
	return New(def)
}

// DecodeYAML 将YAML解码为目录定义，不做引用校验
func DecodeYAML(r io.Reader) (Definition, error) {
	var doc catalogDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return Definition{}, fmt.Errorf("%w: 解析YAML失败: %v", ErrInvalidCatalog, err)
	}

	var def Definition
	for _, s := range doc.Signals {
		agg, err := parseAggregation(s.Aggregation, s.Threshold)
		if err != nil {
			return Definition{}, fmt.Errorf("%w: 信号 %s: %v", ErrInvalidCatalog, s.ID, err)
		}
		def.Signals = append(def.Signals, Signal{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Aggregation: agg,
			Severity:    meta.Severity(strings.ToUpper(s.Severity)),
			Workstream:  s.Workstream,
		})
	}

	for _, f := range doc.Fields {
		src, err := decodeSource(f.Source)
		if err != nil {
			return Definition{}, fmt.Errorf("%w: 字段 %s: %v", ErrInvalidCatalog, f.ID, err)
		}
		name := f.Name
		if name == "" {
			name = f.ID
		}
		def.Fields = append(def.Fields, Field{
			ID:            f.ID,
			Name:          name,
			Category:      f.Category,
			Source:        src,
			AppliesTo:     f.AppliesTo,
			Contributions: f.Contribute,
		})
	}

	for _, p := range doc.Parameters {
		weight := 1.0
		if p.Weight != nil {
			weight = *p.Weight
		}
		param := Parameter{
			ID:            p.ID,
			Name:          p.Name,
			Description:   p.Description,
			Weight:        weight,
			Required:      p.Required,
			PassCondition: meta.PassCondition(strings.ToUpper(p.PassCondition)),
		}
		for _, b := range p.Bindings {
			param.Bindings = append(param.Bindings, Binding{
				ParameterID: p.ID,
				AssetType:   b.AssetType,
				EvidenceKey: b.EvidenceKey,
				Priority:    b.Priority,
			})
		}
		def.Parameters = append(def.Parameters, param)
	}

	for _, t := range doc.Templates {
		tmpl := Template{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Methodology: meta.Methodology(strings.ToUpper(t.Methodology)),
			Thresholds: Thresholds{
				QualityMin:    t.Thresholds.Quality,
				CoverageMin:   t.Thresholds.Coverage,
				ConfidenceMin: t.Thresholds.Confidence,
			},
		}
		for _, tp := range t.Parameters {
			tmpl.Parameters = append(tmpl.Parameters, TemplateParameter{
				ParameterID: tp.Parameter,
				Weight:      tp.Weight,
				Required:    tp.Required,
			})
		}
		def.Templates = append(def.Templates, tmpl)
	}

	for _, p := range doc.Profiles {
		profile := UseCaseProfile{
			ID:               p.ID,
			Name:             p.Name,
			Description:      p.Description,
			ReadyThreshold:   p.Ready,
			PartialThreshold: p.Partial,
			UnknownPolicy:    meta.UnknownPolicy(p.UnknownPolicy),
		}
		for _, e := range p.Entries {
			profile.Entries = append(profile.Entries, ProfileEntry{Signal: e.Signal, Weight: e.Weight, Required: e.Required})
		}
		def.Profiles = append(def.Profiles, profile)
	}

	def.Remediation = Remediation{
		EffortHours:        doc.Remediation.EffortHours,
		Targets:            doc.Remediation.Targets,
		DefaultTarget:      doc.Remediation.DefaultTarget,
		DefaultEffortHours: doc.Remediation.DefaultEffortHours,
		HighPriorityFields: doc.Remediation.HighPriorityFields,
	}
	return def, nil
}

func parseAggregation(raw string, threshold *float64) (Aggregation, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if m := weightedThresholdPattern.FindStringSubmatch(raw); m != nil {
		t, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Aggregation{}, fmt.Errorf("加权阈值无效: %s", raw)
		}
		return Aggregation{Rule: meta.AggregateWeightedThreshold, Threshold: t}, nil
	}
	switch meta.AggregationRule(raw) {
	case meta.AggregateAny, meta.AggregateAll:
		return Aggregation{Rule: meta.AggregationRule(raw)}, nil
	case meta.AggregateWeightedThreshold:
		if threshold == nil {
			return Aggregation{}, fmt.Errorf("weighted_threshold 缺少阈值")
		}
		return Aggregation{Rule: meta.AggregateWeightedThreshold, Threshold: *threshold}, nil
	case "":
		return Aggregation{Rule: meta.AggregateAny}, nil
	}
	return Aggregation{}, fmt.Errorf("未知聚合规则: %s", raw)
}

func decodeSource(doc sourceDoc) (Source, error) {
	switch SourceKind(doc.Type) {
	case SourceNative:
		return NativeSource{Attribute: doc.Attribute}, nil
	case SourceNativeAny:
		return NativeAnySource{Attributes: doc.Attributes}, nil
	case SourceCustomMetadata:
		return CustomMetadataSource{Set: doc.Set, Attribute: doc.Attribute}, nil
	case SourceClassification:
		return ClassificationSource{Pattern: doc.Pattern, Set: doc.AnyOf}, nil
	case SourceRelationship:
		return RelationshipSource{Relation: doc.Relation, MinCount: doc.MinCount}, nil
	case SourceDerived:
		return DerivedSource{Name: doc.Name, Script: doc.Script}, nil
	}
	return nil, fmt.Errorf("未知来源类型: %q", doc.Type)
}
