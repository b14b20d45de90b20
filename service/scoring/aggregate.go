/*
 * @module service/scoring/aggregate
 * @description 聚合器：将单个资产的参数评估结果汇总为质量分、覆盖率、置信度、复合分与结论
 * @architecture 分层架构 - 业务服务层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 参数结果 -> 权重累计 -> 比率计算(零分母为空) -> 结论判定
 * @rules 零分母返回 nil 而不是 0；必填参数缺失优先于一切结论；GATE 阈值比较时 nil 永不通过
 * @dependencies metahub-service/service/meta
 * @refs service/evaluator/parameter_evaluator.go, service/assessment/engine.go
 */

package scoring

import (
	"math"

	"metahub-service/service/catalog"
	"metahub-service/service/meta"
)

// WeightedOutcome 参与聚合的单项结果
type WeightedOutcome struct {
	ID         string     `json:"id"`
	Weight     float64    `json:"weight"`
	Required   bool       `json:"required"`
	State      meta.State `json:"state"`
	Confidence *float64   `json:"confidence,omitempty"`
}

// Score 已知状态的分数，PRESENT 为 1，ABSENT 为 0，UNKNOWN 为 nil
func (o WeightedOutcome) Score() *float64 {
	switch o.State {
	case meta.StatePresent:
		return ptr(1)
	case meta.StateAbsent:
		return ptr(0)
	}
	return nil
}

// Aggregation 单个资产的聚合结果
type Aggregation struct {
	TotalWeight         float64          `json:"total_weight"`
	KnownWeight         float64          `json:"known_weight"`
	Numerator           float64          `json:"weighted_numerator"`
	QualityScore        *float64         `json:"quality_score"`
	Coverage            *float64         `json:"coverage"`
	Confidence          *float64         `json:"confidence"`
	QTripletScore       *float64         `json:"qtriplet_score"`
	CompositeScore      *float64         `json:"composite_score"`
	Status              meta.Status      `json:"status"`
	FailedRequiredCount int              `json:"failed_required_count"`
	FailedRequired      []string         `json:"failed_required,omitempty"`
	Methodology         meta.Methodology `json:"methodology"`

	items []WeightedOutcome
}

// Aggregate 按方法论聚合单个资产的参数结果
func Aggregate(items []WeightedOutcome, methodology meta.Methodology, thresholds catalog.Thresholds) Aggregation {
	agg := Aggregation{Methodology: methodology, items: items}

	var (
		confidenceSum float64
		knownCount    int
	)
	for _, it := range items {
		agg.TotalWeight += it.Weight
		if !it.State.Known() {
			continue
		}
		agg.KnownWeight += it.Weight
		if it.State == meta.StatePresent {
			agg.Numerator += it.Weight
		}
		if it.Confidence != nil {
			confidenceSum += *it.Confidence
		} else {
			confidenceSum += 1.0
		}
		knownCount++
		if it.Required && it.State == meta.StateAbsent {
			agg.FailedRequiredCount++
			agg.FailedRequired = append(agg.FailedRequired, it.ID)
		}
	}

	if agg.KnownWeight > 0 {
		agg.QualityScore = ptr(agg.Numerator / agg.KnownWeight)
	}
	if agg.TotalWeight > 0 {
		agg.Coverage = ptr(agg.KnownWeight / agg.TotalWeight)
	}
	if knownCount > 0 {
		agg.Confidence = ptr(confidenceSum / float64(knownCount))
	} else {
		agg.Confidence = ptr(1.0)
	}
	if agg.QualityScore != nil && agg.Coverage != nil && agg.Confidence != nil {
		agg.QTripletScore = ptr(*agg.QualityScore * *agg.Coverage * *agg.Confidence)
	}

	agg.Status = determineStatus(agg, methodology, thresholds)
	agg.CompositeScore = Composite(agg)
	return agg
}

func determineStatus(agg Aggregation, methodology meta.Methodology, thresholds catalog.Thresholds) meta.Status {
	if agg.FailedRequiredCount > 0 {
		return meta.StatusFailedRequirement
	}
	if agg.KnownWeight == 0 {
		return meta.StatusInsufficientEvidence
	}
	if methodology != meta.MethodologyGate {
		return meta.StatusInProgress
	}
	if meets(agg.QualityScore, thresholds.QualityMin) &&
		meets(agg.Coverage, thresholds.CoverageMin) &&
		meets(agg.Confidence, thresholds.ConfidenceMin) {
		return meta.StatusReady
	}
	return meta.StatusInProgress
}

func meets(v *float64, min float64) bool {
	return v != nil && *v >= min
}

// Composite 方法论对应的复合分
func Composite(agg Aggregation) *float64 {
	switch agg.Methodology {
	case meta.MethodologyQTriplet:
		return agg.QTripletScore
	case meta.MethodologyGate:
		if agg.Status == meta.StatusReady {
			return ptr(1)
		}
		if agg.Status == meta.StatusInsufficientEvidence {
			return nil
		}
		return ptr(0)
	case meta.MethodologyMaturity:
		if agg.QualityScore == nil {
			return nil
		}
		return ptr(MaturityLevel(*agg.QualityScore))
	case meta.MethodologyChecklist:
		if len(agg.items) == 0 {
			return nil
		}
		ticked := 0
		for _, it := range agg.items {
			if it.State == meta.StatePresent {
				ticked++
			}
		}
		return ptr(float64(ticked) / float64(len(agg.items)))
	}
	return agg.QualityScore
}

// MaturityLevel 成熟度等级 0-5
func MaturityLevel(quality float64) float64 {
	level := math.Floor(quality*5 + 1e-9)
	return math.Max(0, math.Min(5, level))
}

func ptr(v float64) *float64 {
	return &v
}
