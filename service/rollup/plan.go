/*
 * @module service/rollup/plan
 * @description 整改计划：按优先级将缺口分组为顺序执行的阶段并估算周期
 * @architecture 分层架构 - 业务服务层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 缺口报告 -> 优先级分组 -> 阶段工时 -> 周数(40小时/周) -> 总周期
 * @rules P0 为 Foundation，P1 为 Enhancement，P2/P3 为 Optimization；空阶段不输出；阶段顺序执行
 * @dependencies metahub-service/service/meta
 * @refs service/rollup/gaps.go
 */

package rollup

import (
	"fmt"
	"math"
	"strings"

	"metahub-service/service/meta"
)

// HoursPerWeek 一个全职人周的工时
const HoursPerWeek = 40.0

// Phase 整改阶段
type Phase struct {
	Name           string          `json:"name"`
	Priorities     []meta.Priority `json:"priorities"`
	Fields         []string        `json:"fields"`
	EffortHours    float64         `json:"effort_hours"`
	EstimatedWeeks int             `json:"estimated_weeks"`
	Milestone      string          `json:"milestone"`
}

// Plan 整改计划
type Plan struct {
	Phases           []Phase `json:"phases"`
	TotalWeeks       int     `json:"total_weeks"`
	TotalEffortHours float64 `json:"total_effort_hours"`
}

var phaseLayout = []struct {
	name       string
	priorities []meta.Priority
	milestone  string
}{
	{"Foundation", []meta.Priority{meta.PriorityP0}, "核心治理字段达到目标覆盖率"},
	{"Enhancement", []meta.Priority{meta.PriorityP1}, "重要字段补齐"},
	{"Optimization", []meta.Priority{meta.PriorityP2, meta.PriorityP3}, "剩余字段持续优化"},
}

// BuildPlan 由缺口报告生成整改计划
func BuildPlan(gaps []Gap) Plan {
	plan := Plan{Phases: []Phase{}}
	for _, layout := range phaseLayout {
		phase := Phase{Name: layout.name, Priorities: layout.priorities, Fields: []string{}}
		for _, g := range gaps {
			if containsPriority(layout.priorities, g.Priority) {
				phase.Fields = append(phase.Fields, g.Field)
				phase.EffortHours += g.EffortHours
			}
		}
		if len(phase.Fields) == 0 {
			continue
		}
		phase.EffortHours = round(phase.EffortHours, 2)
		phase.EstimatedWeeks = int(math.Ceil(phase.EffortHours/HoursPerWeek - floatEpsilon))
		phase.Milestone = fmt.Sprintf("%s: %s (%s)", layout.name, layout.milestone, strings.Join(phase.Fields, ", "))
		plan.Phases = append(plan.Phases, phase)
		plan.TotalWeeks += phase.EstimatedWeeks
		plan.TotalEffortHours += phase.EffortHours
	}
	plan.TotalEffortHours = round(plan.TotalEffortHours, 2)
	return plan
}

func containsPriority(list []meta.Priority, p meta.Priority) bool {
	for _, x := range list {
		if x == p {
			return true
		}
	}
	return false
}
