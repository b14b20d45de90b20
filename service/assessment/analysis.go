package assessment

import (
	"context"
	"fmt"

	"metahub-service/service/evaluator"
	"metahub-service/service/fetcher"
	"metahub-service/service/meta"
	"metahub-service/service/rollup"
)

// AnalysisRequest 范围分析请求，指定模板时以模板综合得分作为资产得分
type AnalysisRequest struct {
	Scope      fetcher.Scope       `json:"scope"`
	Fetch      fetcher.FetchConfig `json:"fetch,omitempty"`
	Fields     []string            `json:"fields,omitempty"`
	TemplateID string              `json:"template_id,omitempty"`
	Dimension  meta.Dimension      `json:"dimension,omitempty"`
}

// GapReportResult 缺口报告
type GapReportResult struct {
	Population int                    `json:"population"`
	Coverages  []rollup.FieldCoverage `json:"coverages"`
	Gaps       []rollup.Gap           `json:"gaps"`
}

// PlanResult 缺口报告与分阶段整改计划
type PlanResult struct {
	GapReportResult
	Plan rollup.Plan `json:"plan"`
}

// FieldPresence 单字段存在情况
type FieldPresence struct {
	Field    string  `json:"field"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Source   string  `json:"source"`
	Present  int     `json:"present"`
	Absent   int     `json:"absent"`
	Unknown  int     `json:"unknown"`
	Total    int     `json:"total"`
	Coverage float64 `json:"coverage"`
}

// FieldPresenceReport 字段存在情况报告
type FieldPresenceReport struct {
	Population int             `json:"population"`
	AssetTypes map[string]int  `json:"asset_types"`
	Fields     []FieldPresence `json:"fields"`
}

// fieldIDs 请求字段，为空时取目录全部字段，未知字段返回请求错误
func (s *Service) fieldIDs(requested []string) ([]string, error) {
	if len(requested) == 0 {
		fields := s.catalog.Fields()
		ids := make([]string, len(fields))
		for i, f := range fields {
			ids[i] = f.ID
		}
		return ids, nil
	}
	for _, id := range requested {
		if _, ok := s.catalog.Field(id); !ok {
			return nil, fmt.Errorf("%w: 字段不存在 %s", ErrInvalidRequest, id)
		}
	}
	return requested, nil
}

// population 拉取范围资产并构建汇总事实
func (s *Service) population(ctx context.Context, req AnalysisRequest) ([]rollup.AssetFacts, []string, error) {
	ids, err := s.fieldIDs(req.Fields)
	if err != nil {
		return nil, nil, err
	}
	if req.TemplateID != "" {
		if err := s.validate(req.TemplateID, "", AdapterRow); err != nil {
			return nil, nil, err
		}
	}

	assets, snap, err := s.load(ctx, req.Scope, req.Fetch)
	if err != nil {
		return nil, nil, err
	}

	facts := make([]rollup.AssetFacts, 0, len(assets))
	if req.TemplateID != "" {
		engine, _ := s.Engine(AdapterBulk)
		out, err := engine.Run(ctx, Request{TemplateID: req.TemplateID, Assets: assets, Snapshot: snap})
		if err != nil {
			return nil, nil, err
		}
		for i, a := range out.Assets {
			facts = append(facts, rollup.NewAssetFacts(&assets[i], fieldStates(a.Fields), a.Aggregation.CompositeScore))
		}
		return facts, ids, nil
	}

	all := s.catalog.Fields()
	for i := range assets {
		outcomes := s.fields.EvaluateAll(&assets[i], all)
		facts = append(facts, rollup.NewAssetFacts(&assets[i], fieldStates(outcomes), nil))
	}
	return facts, ids, nil
}

func fieldStates(outcomes []evaluator.FieldOutcome) map[string]meta.State {
	states := make(map[string]meta.State, len(outcomes))
	for _, o := range outcomes {
		states[o.FieldID] = o.State
	}
	return states
}

// GapReport 范围内字段覆盖缺口
func (s *Service) GapReport(ctx context.Context, req AnalysisRequest) (*GapReportResult, error) {
	facts, ids, err := s.population(ctx, req)
	if err != nil {
		return nil, err
	}
	coverages := rollup.Coverage(facts, ids)
	return &GapReportResult{
		Population: len(facts),
		Coverages:  coverages,
		Gaps:       rollup.Gaps(coverages, len(facts), s.remediation),
	}, nil
}

// Plan 范围内缺口与分阶段整改计划
func (s *Service) Plan(ctx context.Context, req AnalysisRequest) (*PlanResult, error) {
	report, err := s.GapReport(ctx, req)
	if err != nil {
		return nil, err
	}
	return &PlanResult{GapReportResult: *report, Plan: rollup.BuildPlan(report.Gaps)}, nil
}

// Rollup 按维度分组汇总
func (s *Service) Rollup(ctx context.Context, req AnalysisRequest) (*rollup.DimensionRollup, error) {
	if !req.Dimension.Valid() {
		return nil, fmt.Errorf("%w: 未知汇总维度 %s", ErrInvalidRequest, req.Dimension)
	}
	facts, ids, err := s.population(ctx, req)
	if err != nil {
		return nil, err
	}
	out := rollup.ByDimension(facts, req.Dimension, ids, s.remediation)
	return &out, nil
}

// FieldPresence 范围内各字段的存在率，按资产类型判断字段适用性
func (s *Service) FieldPresence(ctx context.Context, req AnalysisRequest) (*FieldPresenceReport, error) {
	ids, err := s.fieldIDs(req.Fields)
	if err != nil {
		return nil, err
	}
	assets, _, err := s.load(ctx, req.Scope, req.Fetch)
	if err != nil {
		return nil, err
	}

	report := &FieldPresenceReport{Population: len(assets), AssetTypes: make(map[string]int)}
	for _, a := range assets {
		report.AssetTypes[a.AssetType]++
	}
	for _, id := range ids {
		field, _ := s.catalog.Field(id)
		fp := FieldPresence{Field: id, Name: field.Name, Category: field.Category}
		if field.Source != nil {
			fp.Source = string(field.Source.Kind())
		}
		for i := range assets {
			if !field.Applies(assets[i].AssetType) {
				continue
			}
			fp.Total++
			switch s.fields.Evaluate(&assets[i], field).State {
			case meta.StatePresent:
				fp.Present++
			case meta.StateAbsent:
				fp.Absent++
			default:
				fp.Unknown++
			}
		}
		if fp.Total > 0 {
			fp.Coverage = float64(fp.Present) / float64(fp.Total)
		}
		report.Fields = append(report.Fields, fp)
	}
	return report, nil
}
