/*
 * @module service/evaluator/parameter_evaluator
 * @description 参数评估器：按优先级依次尝试证据绑定，首个可用证据决定参数状态
 * @architecture 分层架构 - 业务服务层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 资产类型绑定 -> 优先级排序 -> 证据解析 -> 通过条件转换 -> 三态结果
 * @rules 首个命中即生效不做平均；类型转换失败视为该证据未解析并继续回退，绝不判为 ABSENT，回退无结果时保留首个无法转换的取值
 * @dependencies github.com/spf13/cast, metahub-service/service/evidence
 * @refs service/catalog/types.go, service/scoring/aggregate.go
 */

package evaluator

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"metahub-service/service/catalog"
	"metahub-service/service/evidence"
	"metahub-service/service/meta"

	"github.com/spf13/cast"
)

// ParameterOutcome 参数评估结果
type ParameterOutcome struct {
	ParameterID     string      `json:"parameter_id"`
	State           meta.State  `json:"state"`
	Score           *float64    `json:"score"`
	EvidenceKeyUsed string      `json:"evidence_key_used,omitempty"`
	EvidenceValue   interface{} `json:"evidence_value,omitempty"`
	Confidence      *float64    `json:"evidence_confidence"`
}

// ParameterEvaluator 参数评估器
type ParameterEvaluator struct{}

// NewParameterEvaluator 创建参数评估器
func NewParameterEvaluator() *ParameterEvaluator {
	return &ParameterEvaluator{}
}

var (
	scorePresent = 1.0
	scoreAbsent  = 0.0
)

// Evaluate 评估单个资产的单个参数
func (e *ParameterEvaluator) Evaluate(assetKey, assetType string, param catalog.Parameter, resolver evidence.Resolver) ParameterOutcome {
	out := ParameterOutcome{ParameterID: param.ID, State: meta.StateUnknown}
	if resolver == nil {
		return out
	}

	// 首个无法转换的证据，回退链无结果时保留在未知结果中
	var unresolved *ParameterOutcome
	for _, b := range param.BindingsFor(assetType) {
		obs, ok := resolver.Resolve(assetKey, b.EvidenceKey)
		if !ok || obs.Value.Data == nil {
			continue
		}
		confidence := obs.Confidence
		passed, err := Passes(param.PassCondition, obs.Value.Data)
		if err != nil {
			if unresolved == nil {
				unresolved = &ParameterOutcome{
					ParameterID:     param.ID,
					State:           meta.StateUnknown,
					EvidenceKeyUsed: b.EvidenceKey,
					EvidenceValue:   obs.Value.Data,
					Confidence:      &confidence,
				}
			}
			continue
		}
		out.EvidenceKeyUsed = b.EvidenceKey
		out.EvidenceValue = obs.Value.Data
		out.Confidence = &confidence
		if passed {
			out.State = meta.StatePresent
			s := scorePresent
			out.Score = &s
		} else {
			out.State = meta.StateAbsent
			s := scoreAbsent
			out.Score = &s
		}
		return out
	}
	if unresolved != nil {
		return *unresolved
	}
	return out
}

// Passes 按通过条件判定证据值，返回错误表示值无法转换
func Passes(cond meta.PassCondition, v interface{}) (bool, error) {
	switch cond {
	case meta.PassTruthy:
		return cast.ToBoolE(v)
	case meta.PassGT0:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return false, err
		}
		return f > 0, nil
	case meta.PassGTE1:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return false, err
		}
		return f >= 1, nil
	case meta.PassLenGT0:
		n, err := lengthOf(v)
		if err != nil {
			return false, err
		}
		return n > 0, nil
	}
	return false, fmt.Errorf("未知通过条件: %s", cond)
}

func lengthOf(v interface{}) (int, error) {
	if s, ok := v.(string); ok {
		trimmed := strings.TrimSpace(s)
		if strings.HasPrefix(trimmed, "[") {
			var arr []interface{}
			if err := json.Unmarshal([]byte(trimmed), &arr); err == nil {
				return len(arr), nil
			}
		}
		return len(trimmed), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), nil
	}
	return 0, fmt.Errorf("值不具备长度: %T", v)
}
