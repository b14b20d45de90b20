/*
 * @module service/rollup/gaps
 * @description 覆盖率缺口计算：统计资产群体的字段覆盖率，生成带优先级与工时的缺口报告
 * @architecture 分层架构 - 业务服务层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 资产事实 -> 字段覆盖率 -> 缺口(目标-当前) -> 优先级 -> 待整改资产数与工时
 * @rules 已达标字段不进入缺口报告；覆盖率分母为群体规模；待整改数向上取整并防止浮点误差
 * @dependencies metahub-service/service/meta
 * @refs service/rollup/plan.go, service/assessment/service.go
 */

package rollup

import (
	"math"
	"sort"

	"metahub-service/service/meta"
)

const floatEpsilon = 1e-9

// AssetFacts 单个资产用于汇总的事实
type AssetFacts struct {
	AssetKey   string                      `json:"asset_key"`
	AssetType  string                      `json:"asset_type"`
	Dimensions map[meta.Dimension][]string `json:"dimensions,omitempty"`
	States     map[string]meta.State       `json:"states"`
	Score      *float64                    `json:"score,omitempty"`
}

// FieldCoverage 字段覆盖率
type FieldCoverage struct {
	Field           string  `json:"field"`
	Present         int     `json:"present"`
	Known           int     `json:"known"`
	Population      int     `json:"population"`
	CurrentCoverage float64 `json:"current_coverage"`
}

// Gap 覆盖率缺口
type Gap struct {
	Field           string        `json:"field"`
	CurrentCoverage float64       `json:"current_coverage"`
	TargetCoverage  float64       `json:"target_coverage"`
	GapPercent      float64       `json:"gap_percent"`
	AssetsToFix     int           `json:"assets_to_fix"`
	EffortHours     float64       `json:"effort_hours"`
	Priority        meta.Priority `json:"priority"`
}

// Coverage 计算字段覆盖率，当前覆盖率 = 存在数 / 群体规模
func Coverage(population []AssetFacts, fieldIDs []string) []FieldCoverage {
	out := make([]FieldCoverage, 0, len(fieldIDs))
	for _, f := range fieldIDs {
		fc := FieldCoverage{Field: f, Population: len(population)}
		for _, a := range population {
			switch a.States[f] {
			case meta.StatePresent:
				fc.Present++
				fc.Known++
			case meta.StateAbsent:
				fc.Known++
			}
		}
		if fc.Population > 0 {
			fc.CurrentCoverage = float64(fc.Present) / float64(fc.Population)
		}
		out = append(out, fc)
	}
	return out
}

// AssignPriority 按缺口大小分级，高优先级字段提升一级
func AssignPriority(field string, gap float64, cfg Config) meta.Priority {
	var p meta.Priority
	switch {
	case gap+floatEpsilon >= 0.5:
		p = meta.PriorityP0
	case gap+floatEpsilon >= 0.25:
		p = meta.PriorityP1
	case gap+floatEpsilon >= 0.1:
		p = meta.PriorityP2
	default:
		p = meta.PriorityP3
	}
	if cfg.IsHighPriority(field) {
		p = meta.PriorityFromRank(p.Rank() - 1)
	}
	return p
}

// Gaps 生成缺口报告，按优先级、缺口降序排序
func Gaps(coverages []FieldCoverage, population int, cfg Config) []Gap {
	gaps := make([]Gap, 0, len(coverages))
	for _, c := range coverages {
		target := cfg.Target(c.Field)
		gap := target - c.CurrentCoverage
		if gap <= floatEpsilon {
			continue
		}
		assets := int(math.Ceil(gap*float64(population) - floatEpsilon))
		gaps = append(gaps, Gap{
			Field:           c.Field,
			CurrentCoverage: round(c.CurrentCoverage, 4),
			TargetCoverage:  target,
			GapPercent:      round(gap, 4),
			AssetsToFix:     assets,
			EffortHours:     round(float64(assets)*cfg.Effort(c.Field), 2),
			Priority:        AssignPriority(c.Field, gap, cfg),
		})
	}
	sortGaps(gaps)
	return gaps
}

// GapReport 由资产事实直接生成缺口报告
func GapReport(population []AssetFacts, fieldIDs []string, cfg Config) []Gap {
	return Gaps(Coverage(population, fieldIDs), len(population), cfg)
}

func sortGaps(gaps []Gap) {
	sort.SliceStable(gaps, func(i, j int) bool {
		ri, rj := gaps[i].Priority.Rank(), gaps[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		if gaps[i].GapPercent != gaps[j].GapPercent {
			return gaps[i].GapPercent > gaps[j].GapPercent
		}
		return gaps[i].Field < gaps[j].Field
	})
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
