/*
 * @module service/assessment/engine
 * @description 评估引擎：按模板对资产群体逐参数求值、按方法论聚合，并组合信号与用例就绪度
 * @architecture 策略模式 - 一个引擎接口，两个适配器（逐行、批量）共享目录与聚合计算
 * @documentReference docs/assessment_engine.md
 * @stateFlow 校验请求 -> 展开模板 -> 参数求值 -> 资产聚合 -> 信号组合 -> 用例评估 -> 运行结果行
 * @rules 模板或画像不存在时在任何计算之前返回请求错误；两种适配器对同一输入产生完全相同的结果；
 *        资产之间没有共享状态，结果按请求中的资产顺序输出
 * @dependencies github.com/google/uuid, metahub-service/service/scoring, metahub-service/service/usecase
 * @refs service/assessment/row_adapter.go, service/assessment/bulk_adapter.go, service/ledger
 */

package assessment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"metahub-service/service/catalog"
	"metahub-service/service/evaluator"
	"metahub-service/service/evidence"
	"metahub-service/service/meta"
	"metahub-service/service/models"
	"metahub-service/service/scoring"
	"metahub-service/service/usecase"

	"github.com/google/uuid"
)

// AdapterKind 适配器类型
type AdapterKind string

const (
	AdapterRow  AdapterKind = "row"
	AdapterBulk AdapterKind = "bulk"
)

var (
	ErrTemplateNotFound = catalog.ErrTemplateNotFound
	ErrProfileNotFound  = catalog.ErrProfileNotFound
	ErrInvalidRequest   = errors.New("评估请求无效")
)

// Request 评估请求，构建后不再修改
type Request struct {
	RunID      string               `json:"run_id,omitempty"`
	TemplateID string               `json:"template_id"`
	ProfileID  string               `json:"profile_id,omitempty"`
	Scope      string               `json:"scope,omitempty"`
	Label      string               `json:"label,omitempty"`
	Assets     []models.AssetRecord `json:"-"`
	Snapshot   evidence.Resolver    `json:"-"`
}

// AssetOutcome 单个资产的完整评估结果
type AssetOutcome struct {
	AssetKey    string                          `json:"asset_key"`
	AssetType   string                          `json:"asset_type"`
	Parameters  []evaluator.ParameterOutcome    `json:"parameters"`
	Aggregation scoring.Aggregation             `json:"aggregation"`
	Fields      []evaluator.FieldOutcome        `json:"fields"`
	Signals     map[string]scoring.SignalResult `json:"signals"`
	UseCase     *usecase.Assessment             `json:"use_case,omitempty"`
}

// Outcome 一次运行的结果
type Outcome struct {
	Run               models.AssessmentRun      `json:"run"`
	ParameterResults  []models.ParameterResult  `json:"parameter_results"`
	AssessmentResults []models.AssessmentResult `json:"assessment_results"`
	Assets            []AssetOutcome            `json:"assets"`
}

// StatusCounts 按状态统计资产数
func (o *Outcome) StatusCounts() map[string]int {
	counts := make(map[string]int)
	for _, r := range o.AssessmentResults {
		counts[r.Status]++
	}
	return counts
}

// Engine 评估引擎接口
type Engine interface {
	Kind() AdapterKind
	Run(ctx context.Context, req Request) (*Outcome, error)
}

// plan 已校验的运行计划
type plan struct {
	req        Request
	template   catalog.Template
	parameters []catalog.ResolvedParameter
	profile    *catalog.UseCaseProfile
	runID      string
	runTS      time.Time
}

// core 适配器共享的目录与计算
type core struct {
	catalog  *catalog.Catalog
	params   *evaluator.ParameterEvaluator
	fields   *evaluator.FieldEvaluator
	assessor *usecase.Assessor
	now      func() time.Time
}

// Option 引擎选项
type Option func(*core)

// WithFieldEvaluator 使用指定的字段评估器
func WithFieldEvaluator(fe *evaluator.FieldEvaluator) Option {
	return func(c *core) { c.fields = fe }
}

// WithUnknownPolicy 设置用例评估的默认未知策略
func WithUnknownPolicy(policy meta.UnknownPolicy) Option {
	return func(c *core) { c.assessor = usecase.NewAssessor(policy) }
}

// WithClock 注入时钟
func WithClock(now func() time.Time) Option {
	return func(c *core) { c.now = now }
}

func newCore(cat *catalog.Catalog, opts ...Option) core {
	c := core{
		catalog:  cat,
		params:   evaluator.NewParameterEvaluator(),
		fields:   evaluator.NewFieldEvaluator(),
		assessor: usecase.NewAssessor(meta.UnknownPassthrough),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// prepare 校验请求并展开模板，所有请求错误在此返回
func (c *core) prepare(req Request) (*plan, error) {
	if req.TemplateID == "" {
		return nil, fmt.Errorf("%w: 缺少模板ID", ErrInvalidRequest)
	}
	tmpl, params, err := c.catalog.ResolveTemplate(req.TemplateID)
	if err != nil {
		return nil, err
	}

	p := &plan{req: req, template: tmpl, parameters: params, runID: req.RunID, runTS: c.now().UTC()}
	if req.ProfileID != "" {
		profile, err := c.catalog.Profile(req.ProfileID)
		if err != nil {
			return nil, err
		}
		p.profile = &profile
	}

	seen := make(map[string]struct{}, len(req.Assets))
	for _, a := range req.Assets {
		if a.GUID == "" {
			return nil, fmt.Errorf("%w: 资产缺少GUID", ErrInvalidRequest)
		}
		if _, dup := seen[a.GUID]; dup {
			return nil, fmt.Errorf("%w: 资产重复 %s", ErrInvalidRequest, a.GUID)
		}
		seen[a.GUID] = struct{}{}
	}

	if p.runID == "" {
		p.runID = uuid.New().String()
	}
	return p, nil
}

// evaluate 单资产单参数求值
func (c *core) evaluate(p *plan, asset *models.AssetRecord, rp catalog.ResolvedParameter) evaluator.ParameterOutcome {
	return c.params.Evaluate(asset.GUID, asset.AssetType, rp.Parameter, p.req.Snapshot)
}

// reduce 聚合单个资产的参数结果并组合信号
func (c *core) reduce(p *plan, asset *models.AssetRecord, outcomes []evaluator.ParameterOutcome) AssetOutcome {
	items := make([]scoring.WeightedOutcome, len(p.parameters))
	for i, rp := range p.parameters {
		items[i] = scoring.WeightedOutcome{
			ID:         rp.ID,
			Weight:     rp.EffectiveWeight,
			Required:   rp.EffectiveRequired,
			State:      outcomes[i].State,
			Confidence: outcomes[i].Confidence,
		}
	}

	fields := c.fields.EvaluateAll(asset, c.catalog.Fields())
	signals := scoring.ComposeSignals(fields, c.catalog)

	out := AssetOutcome{
		AssetKey:    asset.GUID,
		AssetType:   asset.AssetType,
		Parameters:  outcomes,
		Aggregation: scoring.Aggregate(items, p.template.Methodology, p.template.Thresholds),
		Fields:      fields,
		Signals:     signals,
	}
	if p.profile != nil {
		uc := c.assessor.Assess(*p.profile, signals)
		out.UseCase = &uc
	}
	return out
}

// finish 生成运行行与结果行
func (c *core) finish(p *plan, kind AdapterKind, assets []AssetOutcome) *Outcome {
	paramIDs := make([]string, len(p.parameters))
	for i, rp := range p.parameters {
		paramIDs[i] = rp.ID
	}

	out := &Outcome{
		Run: models.AssessmentRun{
			RunID:        p.runID,
			RunTS:        p.runTS,
			TemplateID:   p.template.ID,
			ProfileID:    p.req.ProfileID,
			RunLabel:     p.req.Label,
			Methodology:  string(p.template.Methodology),
			Adapter:      string(kind),
			Scope:        p.req.Scope,
			AssetCount:   len(assets),
			ParameterIDs: paramIDs,
		},
		ParameterResults:  make([]models.ParameterResult, 0, len(assets)*len(p.parameters)),
		AssessmentResults: make([]models.AssessmentResult, 0, len(assets)),
		Assets:            assets,
	}

	for _, a := range assets {
		for _, po := range a.Parameters {
			out.ParameterResults = append(out.ParameterResults, models.ParameterResult{
				RunID:              p.runID,
				AssetKey:           a.AssetKey,
				ParameterID:        po.ParameterID,
				State:              string(po.State),
				Score:              po.Score,
				EvidenceKeyUsed:    po.EvidenceKeyUsed,
				EvidenceValue:      models.JSONBAny{Data: po.EvidenceValue},
				EvidenceConfidence: po.Confidence,
			})
		}
		agg := a.Aggregation
		out.AssessmentResults = append(out.AssessmentResults, models.AssessmentResult{
			RunID:               p.runID,
			AssetKey:            a.AssetKey,
			AssetType:           a.AssetType,
			QualityScore:        agg.QualityScore,
			Coverage:            agg.Coverage,
			Confidence:          agg.Confidence,
			QTripletScore:       agg.QTripletScore,
			CompositeScore:      agg.CompositeScore,
			Status:              string(agg.Status),
			FailedRequiredCount: agg.FailedRequiredCount,
		})
	}
	return out
}

// New 按类型创建引擎，workers 仅对批量适配器生效
func New(kind AdapterKind, cat *catalog.Catalog, workers int, opts ...Option) (Engine, error) {
	switch kind {
	case AdapterRow, "":
		return NewRowAdapter(cat, opts...), nil
	case AdapterBulk:
		return NewBulkAdapter(cat, workers, opts...), nil
	}
	return nil, fmt.Errorf("%w: 未知适配器 %s", ErrInvalidRequest, kind)
}
