package fetcher

import (
	"context"
	"sync"

	"metahub-service/service/models"
)

// StaticFetcher 内存资产拉取器，用于命令行与测试
type StaticFetcher struct {
	mu     sync.RWMutex
	assets map[string]models.AssetRecord
}

// NewStaticFetcher 创建内存资产拉取器
func NewStaticFetcher(assets ...models.AssetRecord) *StaticFetcher {
	f := &StaticFetcher{assets: make(map[string]models.AssetRecord, len(assets))}
	for _, a := range assets {
		f.assets[a.GUID] = a
	}
	return f
}

// Put 写入资产
func (f *StaticFetcher) Put(assets ...models.AssetRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range assets {
		f.assets[a.GUID] = a
	}
}

// FetchAssets 按范围拉取资产
func (f *StaticFetcher) FetchAssets(_ context.Context, scope Scope, cfg FetchConfig) ([]models.AssetRecord, error) {
	f.mu.RLock()
	out := make([]models.AssetRecord, 0, len(f.assets))
	for _, a := range f.assets {
		a := a
		if scope.Matches(&a) {
			out = append(out, a)
		}
	}
	f.mu.RUnlock()
	return sample(out, cfg), nil
}

// FetchAsset 拉取单个资产，不存在时返回 nil
func (f *StaticFetcher) FetchAsset(_ context.Context, guid string) (*models.AssetRecord, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	a, ok := f.assets[guid]
	if !ok {
		return nil, nil
	}
	return &a, nil
}
