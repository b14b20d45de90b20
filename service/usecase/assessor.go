/*
 * @module service/usecase/assessor
 * @description 用例评估器：按用例画像的信号权重、必填标记与阈值判定资产就绪等级
 * @architecture 分层架构 - 业务服务层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 信号结果 -> 未知策略 -> 加权平均 -> 阻断项 -> 就绪等级
 * @rules 阻断项只包含状态恰为 ABSENT 的必填信号；未知必填信号不阻断但影响得分；透传策略下未知信号按自身得分计入，失败策略下按0分计入，权重始终计入分母；画像可覆盖默认未知策略
 * @dependencies metahub-service/service/catalog, metahub-service/service/scoring
 * @refs service/assessment/engine.go
 */

package usecase

import (
	"metahub-service/service/catalog"
	"metahub-service/service/meta"
	"metahub-service/service/scoring"
)

// EntryResult 画像条目得分明细
type EntryResult struct {
	Signal       string     `json:"signal"`
	State        meta.State `json:"state"`
	Weight       float64    `json:"weight"`
	Required     bool       `json:"required"`
	Contribution float64    `json:"contribution"`
}

// Assessment 用例评估结果
type Assessment struct {
	ProfileID     string             `json:"profile_id"`
	Score         float64            `json:"score"`
	Blockers      []string           `json:"blockers"`
	Readiness     meta.Readiness     `json:"readiness_level"`
	Unknown       []string           `json:"unknown_signals"`
	UnknownPolicy meta.UnknownPolicy `json:"unknown_policy"`
	Entries       []EntryResult      `json:"entries"`
}

// Assessor 用例评估器
type Assessor struct {
	policy meta.UnknownPolicy
}

// NewAssessor 创建用例评估器，policy 为空时使用 unknown_passthrough
func NewAssessor(policy meta.UnknownPolicy) *Assessor {
	if policy != meta.UnknownFails {
		policy = meta.UnknownPassthrough
	}
	return &Assessor{policy: policy}
}

// Policy 评估器默认未知策略
func (a *Assessor) Policy() meta.UnknownPolicy {
	return a.policy
}

// PolicyFor 画像实际生效的未知策略
func (a *Assessor) PolicyFor(profile catalog.UseCaseProfile) meta.UnknownPolicy {
	if profile.UnknownPolicy != "" {
		return profile.UnknownPolicy
	}
	return a.policy
}

// Assess 评估单个资产在用例画像下的就绪等级
func (a *Assessor) Assess(profile catalog.UseCaseProfile, signals map[string]scoring.SignalResult) Assessment {
	policy := a.PolicyFor(profile)
	out := Assessment{
		ProfileID:     profile.ID,
		Blockers:      []string{},
		Unknown:       []string{},
		UnknownPolicy: policy,
		Entries:       make([]EntryResult, 0, len(profile.Entries)),
	}

	var weighted, totalWeight float64
	for _, e := range profile.Entries {
		sig, ok := signals[e.Signal]
		if !ok {
			sig = scoring.SignalResult{SignalID: e.Signal, State: meta.StateUnknown}
		}

		score := sig.Score
		if sig.State == meta.StateUnknown {
			out.Unknown = append(out.Unknown, e.Signal)
			if policy == meta.UnknownFails {
				score = 0
			}
		}
		if e.Required && sig.State == meta.StateAbsent {
			out.Blockers = append(out.Blockers, e.Signal)
		}

		// 两种策略下未知信号的权重都计入分母
		weighted += e.Weight * score
		totalWeight += e.Weight
		out.Entries = append(out.Entries, EntryResult{
			Signal:       e.Signal,
			State:        sig.State,
			Weight:       e.Weight,
			Required:     e.Required,
			Contribution: e.Weight * score,
		})
	}

	if totalWeight > 0 {
		out.Score = weighted / totalWeight
	}
	out.Readiness = readiness(out.Score, len(out.Blockers) > 0, profile)
	return out
}

// AssessAll 按画像顺序评估多个用例
func (a *Assessor) AssessAll(profiles []catalog.UseCaseProfile, signals map[string]scoring.SignalResult) []Assessment {
	out := make([]Assessment, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, a.Assess(p, signals))
	}
	return out
}

func readiness(score float64, blocked bool, profile catalog.UseCaseProfile) meta.Readiness {
	switch {
	case blocked:
		return meta.ReadinessNotReady
	case score >= profile.ReadyThreshold:
		return meta.ReadinessReady
	case score >= profile.PartialThreshold:
		return meta.ReadinessPartial
	}
	return meta.ReadinessNotReady
}
