/*
 * @module service/rollup/dimension
 * @description 分维度汇总：按连接器、模式、数据域、负责人或资产类型分组，逐组计算覆盖率与缺口
 * @architecture 分层架构 - 业务服务层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 资产事实 -> 维度取值 -> 分组 -> 逐组缺口计算 + 全租户汇总 -> 最差分组
 * @rules 无维度取值的资产归入 "(none)"；多负责人资产计入每个负责人分组；分组之间互不影响
 * @dependencies metahub-service/service/models, metahub-service/service/meta
 * @refs service/rollup/gaps.go
 */

package rollup

import (
	"sort"
	"strings"

	"metahub-service/service/meta"
	"metahub-service/service/models"
)

// NoValue 缺少维度取值的分组名
const NoValue = "(none)"

// GroupRollup 单个分组汇总
type GroupRollup struct {
	Value        string          `json:"value"`
	AssetCount   int             `json:"asset_count"`
	Coverages    []FieldCoverage `json:"coverages"`
	MeanCoverage float64         `json:"mean_coverage"`
	MeanScore    *float64        `json:"mean_score,omitempty"`
	Gaps         []Gap           `json:"gaps"`
}

// DimensionRollup 分维度汇总结果
type DimensionRollup struct {
	Dimension meta.Dimension `json:"dimension"`
	Overall   GroupRollup    `json:"overall"`
	Groups    []GroupRollup  `json:"groups"`
}

// Worst 平均覆盖率最低的分组，没有分组时返回 nil
func (r DimensionRollup) Worst() *GroupRollup {
	var worst *GroupRollup
	for i := range r.Groups {
		g := &r.Groups[i]
		if worst == nil || g.MeanCoverage < worst.MeanCoverage {
			worst = g
		}
	}
	return worst
}

// DimensionValues 资产在指定维度上的取值，不含空值
func DimensionValues(asset *models.AssetRecord, dim meta.Dimension) []string {
	var values []string
	switch dim {
	case meta.DimensionConnector:
		values = []string{asset.ConnectorName}
	case meta.DimensionSchema:
		schema := strings.TrimSpace(asset.SchemaName)
		if schema != "" && strings.TrimSpace(asset.DatabaseName) != "" {
			schema = asset.DatabaseName + "." + schema
		}
		values = []string{schema}
	case meta.DimensionDomain:
		values = []string{asset.Domain}
	case meta.DimensionOwner:
		values = asset.Owners()
	case meta.DimensionAssetType:
		values = []string{asset.AssetType}
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// NewAssetFacts 由资产与其字段状态构建汇总事实，预先计算全部维度取值
func NewAssetFacts(asset *models.AssetRecord, states map[string]meta.State, score *float64) AssetFacts {
	dims := make(map[meta.Dimension][]string, len(meta.Dimensions))
	for _, d := range meta.Dimensions {
		dim := meta.Dimension(d.Code)
		dims[dim] = DimensionValues(asset, dim)
	}
	return AssetFacts{
		AssetKey:   asset.GUID,
		AssetType:  asset.AssetType,
		Dimensions: dims,
		States:     states,
		Score:      score,
	}
}

// ByDimension 按维度分组汇总，同时给出全租户汇总
func ByDimension(population []AssetFacts, dim meta.Dimension, fieldIDs []string, cfg Config) DimensionRollup {
	groups := make(map[string][]AssetFacts)
	for _, a := range population {
		values := a.Dimensions[dim]
		if len(values) == 0 {
			values = []string{NoValue}
		}
		for _, v := range values {
			groups[v] = append(groups[v], a)
		}
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := DimensionRollup{
		Dimension: dim,
		Overall:   summarize("", population, fieldIDs, cfg),
		Groups:    make([]GroupRollup, 0, len(keys)),
	}
	for _, k := range keys {
		out.Groups = append(out.Groups, summarize(k, groups[k], fieldIDs, cfg))
	}
	return out
}

func summarize(value string, population []AssetFacts, fieldIDs []string, cfg Config) GroupRollup {
	coverages := Coverage(population, fieldIDs)
	g := GroupRollup{
		Value:      value,
		AssetCount: len(population),
		Coverages:  coverages,
		Gaps:       Gaps(coverages, len(population), cfg),
	}
	if len(coverages) > 0 {
		var sum float64
		for _, c := range coverages {
			sum += c.CurrentCoverage
		}
		g.MeanCoverage = round(sum/float64(len(coverages)), 4)
	}

	var scoreSum float64
	scored := 0
	for _, a := range population {
		if a.Score != nil {
			scoreSum += *a.Score
			scored++
		}
	}
	if scored > 0 {
		mean := round(scoreSum/float64(scored), 4)
		g.MeanScore = &mean
	}
	return g
}
