/*
 * @module service/rollup/drift
 * @description 优先级漂移：比较两次运行的字段优先级，识别改善或恶化的字段
 * @architecture 分层架构 - 业务服务层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 上次优先级列表 + 本次优先级列表 -> 按字段对齐 -> 等级变化 -> improved/worsened
 * @rules 只报告等级发生变化的字段；delta = 本次得分 - 上次得分；只比较两次都出现的字段
 * @dependencies metahub-service/service/meta
 * @refs service/ledger/compare.go
 */

package rollup

import (
	"sort"

	"metahub-service/service/meta"
)

// 漂移方向
const (
	DriftImproved = "improved"
	DriftWorsened = "worsened"
)

// PriorityEntry 字段优先级条目
type PriorityEntry struct {
	Field    string        `json:"field"`
	Priority meta.Priority `json:"priority"`
	Score    float64       `json:"score"`
}

// DriftEntry 漂移条目
type DriftEntry struct {
	Field            string        `json:"field"`
	PreviousPriority meta.Priority `json:"previous_priority"`
	CurrentPriority  meta.Priority `json:"current_priority"`
	Direction        string        `json:"direction"`
	Delta            float64       `json:"delta"`
}

// PriorityList 为每个字段计算优先级，已达标字段同样列出，得分为当前覆盖率
func PriorityList(coverages []FieldCoverage, cfg Config) []PriorityEntry {
	out := make([]PriorityEntry, 0, len(coverages))
	for _, c := range coverages {
		gap := cfg.Target(c.Field) - c.CurrentCoverage
		if gap < 0 {
			gap = 0
		}
		out = append(out, PriorityEntry{
			Field:    c.Field,
			Priority: AssignPriority(c.Field, gap, cfg),
			Score:    round(c.CurrentCoverage, 4),
		})
	}
	return out
}

// Drift 比较两次优先级列表
func Drift(prev, curr []PriorityEntry) []DriftEntry {
	previous := make(map[string]PriorityEntry, len(prev))
	for _, p := range prev {
		previous[p.Field] = p
	}

	out := []DriftEntry{}
	for _, c := range curr {
		p, ok := previous[c.Field]
		if !ok || p.Priority == c.Priority {
			continue
		}
		direction := DriftWorsened
		if c.Priority.Rank() > p.Priority.Rank() {
			direction = DriftImproved
		}
		out = append(out, DriftEntry{
			Field:            c.Field,
			PreviousPriority: p.Priority,
			CurrentPriority:  c.Priority,
			Direction:        direction,
			Delta:            round(c.Score-p.Score, 4),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}
