package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"metahub-service/service/cache"
	"metahub-service/service/evidence"
	"metahub-service/service/models"
)

// CachedFetcher 为任意资产拉取器增加范围缓存
type CachedFetcher struct {
	inner AssetFetcher
	cache cache.Cache
}

// NewCachedFetcher 创建缓存装饰拉取器
func NewCachedFetcher(inner AssetFetcher, c cache.Cache) *CachedFetcher {
	return &CachedFetcher{inner: inner, cache: c}
}

func fetchKey(cfg FetchConfig) string {
	return fmt.Sprintf("sample=%d:seed=%d", cfg.SampleSize, cfg.Seed)
}

// FetchAssets 优先读取范围缓存，缓存读写失败时退回直接拉取
func (f *CachedFetcher) FetchAssets(ctx context.Context, scope Scope, cfg FetchConfig) ([]models.AssetRecord, error) {
	scopeKey, key := scope.Key(), fetchKey(cfg)

	var cached []models.AssetRecord
	hit, err := f.cache.Get(ctx, scopeKey, cache.KindAssets, key, &cached)
	if err != nil {
		slog.Warn("读取资产缓存失败", "scope", scopeKey, "error", err)
	}
	if hit {
		return cached, nil
	}

	assets, err := f.inner.FetchAssets(ctx, scope, cfg)
	if err != nil {
		return nil, err
	}
	if err := f.cache.Set(ctx, scopeKey, cache.KindAssets, key, assets); err != nil {
		slog.Warn("写入资产缓存失败", "scope", scopeKey, "error", err)
	}
	return assets, nil
}

// FetchAsset 单资产拉取不经过缓存
func (f *CachedFetcher) FetchAsset(ctx context.Context, guid string) (*models.AssetRecord, error) {
	return f.inner.FetchAsset(ctx, guid)
}

// Invalidate 失效范围缓存
func (f *CachedFetcher) Invalidate(ctx context.Context, scope Scope) (int, error) {
	return f.cache.Invalidate(ctx, scope.Key())
}

// EvidenceLoader 证据最新视图加载接口
type EvidenceLoader interface {
	LatestView(ctx context.Context, assetKeys []string) (*evidence.Snapshot, error)
}

// CachedEvidence 为证据最新视图增加范围缓存
type CachedEvidence struct {
	inner EvidenceLoader
	cache cache.Cache
}

// NewCachedEvidence 创建证据缓存装饰器
func NewCachedEvidence(inner EvidenceLoader, c cache.Cache) *CachedEvidence {
	return &CachedEvidence{inner: inner, cache: c}
}

// LatestView 读取范围内资产的证据最新视图
func (e *CachedEvidence) LatestView(ctx context.Context, scopeKey string, assetKeys []string) (*evidence.Snapshot, error) {
	keys := append([]string(nil), assetKeys...)
	sort.Strings(keys)
	key := fmt.Sprintf("assets=%d:%s", len(keys), shortHash(strings.Join(keys, ",")))

	var rows []models.EvidenceObservation
	hit, err := e.cache.Get(ctx, scopeKey, cache.KindEvidence, key, &rows)
	if err != nil {
		slog.Warn("读取证据缓存失败", "scope", scopeKey, "error", err)
	}
	if hit {
		return evidence.NewSnapshot(rows), nil
	}

	snap, err := e.inner.LatestView(ctx, assetKeys)
	if err != nil {
		return nil, err
	}
	if err := e.cache.Set(ctx, scopeKey, cache.KindEvidence, key, snap.Rows()); err != nil {
		slog.Warn("写入证据缓存失败", "scope", scopeKey, "error", err)
	}
	return snap, nil
}
