/*
 * @module service/scoring/signal
 * @description 信号组合：按信号聚合规则将字段评估结果组合为高层维度结果
 * @architecture 分层架构 - 业务服务层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 字段结果 -> 贡献关系展开 -> 负向取反 -> any/all/weighted_threshold -> 信号结果
 * @rules 全部贡献字段未知时信号为 UNKNOWN；加权阈值只在已知字段上归一化；加权阈值下必填贡献缺失则信号缺失
 * @dependencies metahub-service/service/catalog, metahub-service/service/evaluator
 * @refs service/usecase/assessor.go
 */

package scoring

import (
	"metahub-service/service/catalog"
	"metahub-service/service/evaluator"
	"metahub-service/service/meta"
)

const thresholdEpsilon = 1e-9

// Contributor 参与信号计算的字段
type Contributor struct {
	FieldID  string     `json:"field_id"`
	State    meta.State `json:"state"`
	Weight   float64    `json:"weight"`
	Required bool       `json:"required,omitempty"`
	Negative bool       `json:"negative,omitempty"`
}

// SignalResult 信号结果
type SignalResult struct {
	SignalID     string        `json:"signal_id"`
	State        meta.State    `json:"state"`
	Present      bool          `json:"present"`
	Score        float64       `json:"score"`
	Ratio        *float64      `json:"weighted_ratio,omitempty"`
	Contributors []Contributor `json:"contributors"`
}

// ComposeSignals 组合全部信号，缺少评估结果的字段按未知处理
func ComposeSignals(outcomes []evaluator.FieldOutcome, cat *catalog.Catalog) map[string]SignalResult {
	byField := make(map[string]meta.State, len(outcomes))
	for _, o := range outcomes {
		byField[o.FieldID] = o.State
	}

	contributors := make(map[string][]Contributor)
	for _, f := range cat.Fields() {
		state, ok := byField[f.ID]
		if !ok {
			state = meta.StateUnknown
		}
		for _, c := range f.Contributions {
			contributors[c.Signal] = append(contributors[c.Signal], Contributor{
				FieldID:  f.ID,
				State:    effectiveState(state, c.Negative),
				Weight:   c.Weight,
				Required: c.Required,
				Negative: c.Negative,
			})
		}
	}

	out := make(map[string]SignalResult, len(cat.Signals()))
	for _, s := range cat.Signals() {
		out[s.ID] = ComposeSignal(s, contributors[s.ID])
	}
	return out
}

// ComposeSignal 按聚合规则组合单个信号，贡献者状态已按负向取反
func ComposeSignal(signal catalog.Signal, contributors []Contributor) SignalResult {
	res := SignalResult{SignalID: signal.ID, State: meta.StateUnknown, Contributors: contributors}
	if res.Contributors == nil {
		res.Contributors = []Contributor{}
	}

	var present, absent int
	var knownWeight, presentWeight float64
	requiredAbsent := false
	for _, c := range contributors {
		switch c.State {
		case meta.StatePresent:
			present++
			knownWeight += c.Weight
			presentWeight += c.Weight
		case meta.StateAbsent:
			absent++
			knownWeight += c.Weight
			if c.Required {
				requiredAbsent = true
			}
		}
	}
	if present+absent == 0 {
		return res
	}

	var ok bool
	switch signal.Aggregation.Rule {
	case meta.AggregateAll:
		ok = absent == 0 && present > 0
	case meta.AggregateWeightedThreshold:
		if knownWeight <= 0 {
			return res
		}
		ratio := presentWeight / knownWeight
		res.Ratio = &ratio
		ok = !requiredAbsent && ratio+thresholdEpsilon >= signal.Aggregation.Threshold
	default:
		ok = present > 0
	}

	res.Present = ok
	if ok {
		res.State = meta.StatePresent
		res.Score = 1
	} else {
		res.State = meta.StateAbsent
	}
	return res
}

func effectiveState(s meta.State, negative bool) meta.State {
	if !negative {
		return s
	}
	switch s {
	case meta.StatePresent:
		return meta.StateAbsent
	case meta.StateAbsent:
		return meta.StatePresent
	}
	return s
}
