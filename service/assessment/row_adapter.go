package assessment

import (
	"context"

	"metahub-service/service/catalog"
	"metahub-service/service/evaluator"
)

// RowAdapter 逐行适配器，按资产顺序逐个求值，适用于进程内评估
type RowAdapter struct {
	core
}

// NewRowAdapter 创建逐行适配器
func NewRowAdapter(cat *catalog.Catalog, opts ...Option) *RowAdapter {
	return &RowAdapter{core: newCore(cat, opts...)}
}

// Kind 适配器类型
func (a *RowAdapter) Kind() AdapterKind {
	return AdapterRow
}

// Run 执行评估
func (a *RowAdapter) Run(ctx context.Context, req Request) (*Outcome, error) {
	p, err := a.prepare(req)
	if err != nil {
		return nil, err
	}

	assets := make([]AssetOutcome, 0, len(req.Assets))
	for i := range req.Assets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		asset := &req.Assets[i]
		outcomes := make([]evaluator.ParameterOutcome, len(p.parameters))
		for j, rp := range p.parameters {
			outcomes[j] = a.evaluate(p, asset, rp)
		}
		assets = append(assets, a.reduce(p, asset, outcomes))
	}
	return a.finish(p, AdapterRow, assets), nil
}
