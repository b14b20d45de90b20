/*
 * @module service/evaluator/field_evaluator
 * @description 字段评估器：按来源变体解析单个资产的单个字段，输出三态结果
 * @architecture 分层架构 - 业务服务层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 适用性检查 -> 来源分派 -> 候选依次尝试 -> 存在性判定
 * @rules 候选来源按声明顺序取第一个非空值，不做平均；不适用的资产类型恒为 UNKNOWN；畸形载荷视为该来源缺失
 * @dependencies metahub-service/service/catalog, metahub-service/service/models
 * @refs service/evaluator/presence.go, service/scoring/signal.go
 */

package evaluator

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"metahub-service/service/catalog"
	"metahub-service/service/meta"
	"metahub-service/service/models"
)

// FieldOutcome 字段评估结果
type FieldOutcome struct {
	FieldID    string      `json:"field_id"`
	State      meta.State  `json:"state"`
	Value      interface{} `json:"value,omitempty"`
	SourceUsed string      `json:"source_used,omitempty"`
	Confidence float64     `json:"confidence"`
}

// Present 是否存在
func (o FieldOutcome) Present() bool {
	return o.State == meta.StatePresent
}

// DerivedFunc 派生字段计算函数，返回 nil 值表示无法计算
type DerivedFunc func(asset *models.AssetRecord) (interface{}, error)

// FieldEvaluator 字段评估器
type FieldEvaluator struct {
	derived map[string]DerivedFunc
	scripts *ScriptExecutor
}

// FieldOption 字段评估器选项
type FieldOption func(*FieldEvaluator)

// WithDerived 注册派生计算函数
func WithDerived(name string, fn DerivedFunc) FieldOption {
	return func(e *FieldEvaluator) { e.derived[name] = fn }
}

// WithScriptExecutor 使用共享的脚本执行器
func WithScriptExecutor(exec *ScriptExecutor) FieldOption {
	return func(e *FieldEvaluator) { e.scripts = exec }
}

// NewFieldEvaluator 创建字段评估器，默认注册内置派生函数
func NewFieldEvaluator(opts ...FieldOption) *FieldEvaluator {
	e := &FieldEvaluator{derived: make(map[string]DerivedFunc)}
	for name, fn := range builtinDerived {
		e.derived[name] = fn
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.scripts == nil {
		e.scripts = NewScriptExecutor()
	}
	return e
}

func unknown(fieldID string) FieldOutcome {
	return FieldOutcome{FieldID: fieldID, State: meta.StateUnknown}
}

func classified(fieldID string, v interface{}, source string) FieldOutcome {
	present, resolved := ClassifyPresence(v)
	if !resolved {
		return unknown(fieldID)
	}
	state := meta.StateAbsent
	if present {
		state = meta.StatePresent
	}
	return FieldOutcome{FieldID: fieldID, State: state, Value: v, SourceUsed: source, Confidence: 1.0}
}

func absent(fieldID string, v interface{}, source string) FieldOutcome {
	return FieldOutcome{FieldID: fieldID, State: meta.StateAbsent, Value: v, SourceUsed: source, Confidence: 1.0}
}

// Evaluate 评估单个字段
func (e *FieldEvaluator) Evaluate(asset *models.AssetRecord, field catalog.Field) FieldOutcome {
	if asset == nil || !field.Applies(asset.AssetType) {
		return unknown(field.ID)
	}

	switch src := field.Source.(type) {
	case catalog.NativeSource:
		v, ok := asset.Attribute(src.Attribute)
		if !ok {
			return unknown(field.ID)
		}
		return classified(field.ID, v, src.Attribute)

	case catalog.NativeAnySource:
		for _, attr := range src.Attributes {
			v, ok := asset.Attribute(attr)
			if !ok || v == nil {
				continue
			}
			if out := classified(field.ID, v, attr); out.State != meta.StateUnknown {
				return out
			}
		}
		return unknown(field.ID)

	case catalog.CustomMetadataSource:
		return e.evaluateCustomMetadata(asset, field.ID, src)

	case catalog.ClassificationSource:
		return evaluateClassification(asset, field.ID, src)

	case catalog.RelationshipSource:
		count, ok := asset.RelationshipCount(src.Relation)
		if !ok {
			return unknown(field.ID)
		}
		source := "relationship:" + src.Relation
		if count >= src.MinCount && count > 0 {
			return FieldOutcome{FieldID: field.ID, State: meta.StatePresent, Value: count, SourceUsed: source, Confidence: 1.0}
		}
		return absent(field.ID, count, source)

	case catalog.DerivedSource:
		return e.evaluateDerived(asset, field.ID, src)
	}
	return unknown(field.ID)
}

// EvaluateAll 评估资产的全部字段
func (e *FieldEvaluator) EvaluateAll(asset *models.AssetRecord, fields []catalog.Field) []FieldOutcome {
	out := make([]FieldOutcome, 0, len(fields))
	for _, f := range fields {
		out = append(out, e.Evaluate(asset, f))
	}
	return out
}

func (e *FieldEvaluator) evaluateCustomMetadata(asset *models.AssetRecord, fieldID string, src catalog.CustomMetadataSource) FieldOutcome {
	source := "custom_metadata:" + src.Set + "." + src.Attribute
	set, found, err := asset.CustomMetadataSet(src.Set)
	if err != nil {
		slog.Debug("自定义元数据载荷无法解析", "asset", asset.GUID, "set", src.Set, "error", err)
		return absent(fieldID, nil, source)
	}
	if !found {
		return unknown(fieldID)
	}
	v, ok := set[src.Attribute]
	if !ok || v == nil {
		return unknown(fieldID)
	}
	if s, isString := v.(string); isString {
		trimmed := strings.TrimSpace(s)
		if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
			var decoded interface{}
			if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
				slog.Debug("自定义元数据属性无法解析", "asset", asset.GUID, "attribute", src.Attribute, "error", err)
				return absent(fieldID, s, source)
			}
			v = decoded
		}
	}
	return classified(fieldID, v, source)
}

func evaluateClassification(asset *models.AssetRecord, fieldID string, src catalog.ClassificationSource) FieldOutcome {
	if asset.Classifications == nil {
		return unknown(fieldID)
	}
	var matched []string
	for _, c := range asset.Classifications {
		name := strings.TrimSpace(c)
		if name == "" {
			continue
		}
		if classificationMatches(name, src) {
			matched = append(matched, name)
		}
	}
	if len(matched) == 0 {
		return absent(fieldID, []string{}, "classification")
	}
	return FieldOutcome{FieldID: fieldID, State: meta.StatePresent, Value: matched, SourceUsed: "classification", Confidence: 1.0}
}

func classificationMatches(name string, src catalog.ClassificationSource) bool {
	lower := strings.ToLower(name)
	for _, s := range src.Set {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	if src.Pattern == "" {
		return false
	}
	pattern := strings.ToLower(src.Pattern)
	if ok, err := path.Match(pattern, lower); err == nil {
		return ok
	}
	return strings.Contains(lower, strings.Trim(pattern, "*"))
}

func (e *FieldEvaluator) evaluateDerived(asset *models.AssetRecord, fieldID string, src catalog.DerivedSource) FieldOutcome {
	source := "derived:" + src.Name
	var (
		v   interface{}
		err error
	)
	switch {
	case src.Script != "":
		v, err = e.scripts.Execute(src.Script, scriptParams(asset))
	case e.derived[src.Name] != nil:
		v, err = callDerived(e.derived[src.Name], asset)
	default:
		slog.Debug("派生函数未注册", "field", fieldID, "name", src.Name)
		return unknown(fieldID)
	}
	if err != nil {
		slog.Debug("派生字段计算失败", "asset", asset.GUID, "field", fieldID, "error", err)
		return unknown(fieldID)
	}
	return classified(fieldID, v, source)
}

// callDerived 调用注册的派生函数，panic 按计算失败处理
func callDerived(fn DerivedFunc, asset *models.AssetRecord) (v interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("派生函数执行异常: %v", r)
		}
	}()
	return fn(asset)
}

func scriptParams(asset *models.AssetRecord) map[string]interface{} {
	attrs := map[string]interface{}(asset.Attributes)
	if attrs == nil {
		attrs = map[string]interface{}{}
	}
	return map[string]interface{}{
		"attributes":      attrs,
		"classifications": []string(asset.Classifications),
		"asset_type":      asset.AssetType,
	}
}
