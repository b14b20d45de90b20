/*
 * @module service/ledger/compare
 * @description 运行对比：比较两次运行的资产结论、得分变化与参数优先级漂移
 * @architecture 分层架构 - 数据访问层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 两次运行结果 -> 按资产对齐 -> 结论/得分差异 -> 参数覆盖率 -> 优先级漂移
 * @rules 任一得分为空时差值为空；只在一次运行中出现的资产单独列出
 * @dependencies metahub-service/service/rollup
 * @refs service/ledger/ledger.go, service/rollup/drift.go
 */

package ledger

import (
	"context"
	"sort"

	"metahub-service/service/meta"
	"metahub-service/service/models"
	"metahub-service/service/rollup"
)

// AssetDelta 单个资产在两次运行之间的变化
type AssetDelta struct {
	AssetKey       string   `json:"asset_key"`
	PreviousStatus string   `json:"previous_status"`
	CurrentStatus  string   `json:"current_status"`
	StatusChanged  bool     `json:"status_changed"`
	QualityDelta   *float64 `json:"quality_delta"`
	QTripletDelta  *float64 `json:"qtriplet_delta"`
}

// Comparison 运行对比结果
type Comparison struct {
	PreviousRunID string              `json:"previous_run_id"`
	CurrentRunID  string              `json:"current_run_id"`
	Assets        []AssetDelta        `json:"assets"`
	Added         []string            `json:"added_assets"`
	Removed       []string            `json:"removed_assets"`
	Drift         []rollup.DriftEntry `json:"priority_drift"`
}

// Compare 对比两次运行
func (l *Ledger) Compare(ctx context.Context, prevRunID, currRunID string, cfg rollup.Config) (*Comparison, error) {
	if _, err := l.GetRun(ctx, prevRunID); err != nil {
		return nil, err
	}
	if _, err := l.GetRun(ctx, currRunID); err != nil {
		return nil, err
	}

	prevResults, err := l.AssessmentResults(ctx, prevRunID)
	if err != nil {
		return nil, err
	}
	currResults, err := l.AssessmentResults(ctx, currRunID)
	if err != nil {
		return nil, err
	}
	prevParams, err := l.ParameterResults(ctx, prevRunID)
	if err != nil {
		return nil, err
	}
	currParams, err := l.ParameterResults(ctx, currRunID)
	if err != nil {
		return nil, err
	}

	cmp := &Comparison{
		PreviousRunID: prevRunID,
		CurrentRunID:  currRunID,
		Assets:        []AssetDelta{},
		Added:         []string{},
		Removed:       []string{},
	}

	previous := make(map[string]models.AssessmentResult, len(prevResults))
	for _, r := range prevResults {
		previous[r.AssetKey] = r
	}
	seen := make(map[string]bool, len(currResults))
	for _, c := range currResults {
		seen[c.AssetKey] = true
		p, ok := previous[c.AssetKey]
		if !ok {
			cmp.Added = append(cmp.Added, c.AssetKey)
			continue
		}
		cmp.Assets = append(cmp.Assets, AssetDelta{
			AssetKey:       c.AssetKey,
			PreviousStatus: p.Status,
			CurrentStatus:  c.Status,
			StatusChanged:  p.Status != c.Status,
			QualityDelta:   delta(p.QualityScore, c.QualityScore),
			QTripletDelta:  delta(p.QTripletScore, c.QTripletScore),
		})
	}
	for _, p := range prevResults {
		if !seen[p.AssetKey] {
			cmp.Removed = append(cmp.Removed, p.AssetKey)
		}
	}

	cmp.Drift = rollup.Drift(
		rollup.PriorityList(parameterCoverage(prevParams), cfg),
		rollup.PriorityList(parameterCoverage(currParams), cfg),
	)
	return cmp, nil
}

// parameterCoverage 按参数统计 PRESENT 占资产数的比例
func parameterCoverage(rows []models.ParameterResult) []rollup.FieldCoverage {
	facts := make(map[string]*rollup.AssetFacts)
	var order []string
	params := make(map[string]bool)
	for _, r := range rows {
		f, ok := facts[r.AssetKey]
		if !ok {
			f = &rollup.AssetFacts{AssetKey: r.AssetKey, States: map[string]meta.State{}}
			facts[r.AssetKey] = f
			order = append(order, r.AssetKey)
		}
		f.States[r.ParameterID] = meta.State(r.State)
		params[r.ParameterID] = true
	}

	population := make([]rollup.AssetFacts, 0, len(order))
	for _, k := range order {
		population = append(population, *facts[k])
	}
	ids := make([]string, 0, len(params))
	for id := range params {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return rollup.Coverage(population, ids)
}

func delta(prev, curr *float64) *float64 {
	if prev == nil || curr == nil {
		return nil
	}
	d := *curr - *prev
	return &d
}
