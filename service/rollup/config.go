/*
 * @module service/rollup/config
 * @description 整改配置：目标覆盖率、单资产工时估算与高优先级字段
 * @architecture 分层架构 - 业务服务层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 默认配置/目录配置 -> 字段查找(大小写不敏感) -> 目标与工时
 * @rules 工时与目标属于配置而非推导；未配置字段使用默认值
 * @dependencies 无
 * @refs service/rollup/gaps.go, service/catalog/types.go
 */

package rollup

import "strings"

// EffortTable 默认单资产整改工时（小时）
var EffortTable = map[string]float64{
	"ownership":      0.1,
	"owner_users":    0.1,
	"owner_groups":   0.1,
	"description":    0.25,
	"semantics":      0.25,
	"lineage":        0.5,
	"has_lineage":    0.5,
	"trust":          0.15,
	"certified":      0.15,
	"classification": 0.1,
	"tags":           0.1,
}

// DefaultTargets 默认目标覆盖率
var DefaultTargets = map[string]float64{
	"ownership":   0.95,
	"owner_users": 0.95,
	"description": 0.9,
	"semantics":   0.9,
	"lineage":     0.8,
}

// Config 整改配置
type Config struct {
	Targets            map[string]float64 `json:"targets"`
	DefaultTarget      float64            `json:"default_target"`
	EffortHours        map[string]float64 `json:"effort_hours"`
	DefaultEffortHours float64            `json:"default_effort_hours"`
	HighPriorityFields []string           `json:"high_priority_fields"`
}

// DefaultConfig 默认整改配置
func DefaultConfig() Config {
	return Config{
		Targets:            DefaultTargets,
		DefaultTarget:      0.8,
		EffortHours:        EffortTable,
		DefaultEffortHours: 0.25,
		HighPriorityFields: []string{"ownership", "description"},
	}
}

// Target 字段目标覆盖率
func (c Config) Target(field string) float64 {
	if v, ok := lookup(c.Targets, field); ok {
		return v
	}
	return c.DefaultTarget
}

// Effort 字段单资产整改工时
func (c Config) Effort(field string) float64 {
	if v, ok := lookup(c.EffortHours, field); ok {
		return v
	}
	return c.DefaultEffortHours
}

// IsHighPriority 是否高优先级字段
func (c Config) IsHighPriority(field string) bool {
	for _, f := range c.HighPriorityFields {
		if strings.EqualFold(f, field) {
			return true
		}
	}
	return false
}

func lookup(m map[string]float64, field string) (float64, bool) {
	if v, ok := m[field]; ok {
		return v, true
	}
	v, ok := m[strings.ToLower(field)]
	return v, ok
}
