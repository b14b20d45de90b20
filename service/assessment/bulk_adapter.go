package assessment

import (
	"context"
	"runtime"

	"metahub-service/service/catalog"
	"metahub-service/service/evaluator"

	"golang.org/x/sync/errgroup"
)

// DefaultChunkSize 批量适配器单个任务处理的资产数
const DefaultChunkSize = 256

// BulkAdapter 批量适配器，逐参数对整个资产群体分块求值，再按资产归约
type BulkAdapter struct {
	core
	workers   int
	chunkSize int
}

// NewBulkAdapter 创建批量适配器，workers 不大于 0 时取 CPU 数
func NewBulkAdapter(cat *catalog.Catalog, workers int, opts ...Option) *BulkAdapter {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &BulkAdapter{core: newCore(cat, opts...), workers: workers, chunkSize: DefaultChunkSize}
}

// WithChunkSize 设置分块大小
func (a *BulkAdapter) WithChunkSize(n int) *BulkAdapter {
	if n > 0 {
		a.chunkSize = n
	}
	return a
}

// Kind 适配器类型
func (a *BulkAdapter) Kind() AdapterKind {
	return AdapterBulk
}

// Run 执行评估
func (a *BulkAdapter) Run(ctx context.Context, req Request) (*Outcome, error) {
	p, err := a.prepare(req)
	if err != nil {
		return nil, err
	}

	n := len(req.Assets)
	// matrix[参数][资产]，每个任务只写自己的区间
	matrix := make([][]evaluator.ParameterOutcome, len(p.parameters))
	for j := range matrix {
		matrix[j] = make([]evaluator.ParameterOutcome, n)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for j, rp := range p.parameters {
		for start := 0; start < n; start += a.chunkSize {
			j, rp, start := j, rp, start
			end := min(start+a.chunkSize, n)
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				for i := start; i < end; i++ {
					matrix[j][i] = a.evaluate(p, &req.Assets[i], rp)
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	assets := make([]AssetOutcome, n)
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for start := 0; start < n; start += a.chunkSize {
		start := start
		end := min(start+a.chunkSize, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				outcomes := make([]evaluator.ParameterOutcome, len(p.parameters))
				for j := range p.parameters {
					outcomes[j] = matrix[j][i]
				}
				assets[i] = a.reduce(p, &req.Assets[i], outcomes)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return a.finish(p, AdapterBulk, assets), nil
}
