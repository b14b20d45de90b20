package fetcher

import (
	"context"
	"fmt"
	"testing"
	"time"

	"metahub-service/service/cache"
	"metahub-service/service/evidence"
	"metahub-service/service/models"
	"metahub-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAssetFetcher 模拟资产拉取器
type MockAssetFetcher struct {
	mock.Mock
}

func (m *MockAssetFetcher) FetchAssets(ctx context.Context, scope Scope, cfg FetchConfig) ([]models.AssetRecord, error) {
	args := m.Called(ctx, scope, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AssetRecord), args.Error(1)
}

func (m *MockAssetFetcher) FetchAsset(ctx context.Context, guid string) (*models.AssetRecord, error) {
	args := m.Called(ctx, guid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AssetRecord), args.Error(1)
}

func guids(assets []models.AssetRecord) []string {
	out := make([]string, 0, len(assets))
	for _, a := range assets {
		out = append(out, a.GUID)
	}
	return out
}

func seedAssets() []models.AssetRecord {
	var out []models.AssetRecord
	for i := 0; i < 6; i++ {
		schema := "SALES"
		if i%2 == 0 {
			schema = "FINANCE"
		}
		out = append(out, testutil.NewAsset(fmt.Sprintf("g%d", i), testutil.WithSchema("ANALYTICS", schema)))
	}
	return out
}

// TestStaticFetcherScopeAndSampling 测试范围过滤与确定性抽样
func TestStaticFetcherScopeAndSampling(t *testing.T) {
	ctx := context.Background()
	f := NewStaticFetcher(seedAssets()...)

	all, err := f.FetchAssets(ctx, Scope{}, FetchConfig{})
	require.NoError(t, err)
	assert.Equal(t, []string{"g0", "g1", "g2", "g3", "g4", "g5"}, guids(all))

	finance, _ := f.FetchAssets(ctx, Scope{Schema: "finance"}, FetchConfig{})
	assert.Equal(t, []string{"g0", "g2", "g4"}, guids(finance))

	first, _ := f.FetchAssets(ctx, Scope{}, FetchConfig{SampleSize: 2})
	assert.Equal(t, []string{"g0", "g1"}, guids(first))

	seededA, _ := f.FetchAssets(ctx, Scope{}, FetchConfig{SampleSize: 3, Seed: 42})
	seededB, _ := f.FetchAssets(ctx, Scope{}, FetchConfig{SampleSize: 3, Seed: 42})
	assert.Equal(t, guids(seededA), guids(seededB))
	assert.Len(t, seededA, 3)

	listed, _ := f.FetchAssets(ctx, Scope{AssetGUIDs: []string{"g5", "g1"}}, FetchConfig{})
	assert.Equal(t, []string{"g1", "g5"}, guids(listed))

	missing, err := f.FetchAsset(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

// TestGormFetcher 测试数据库资产拉取
func TestGormFetcher(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	ctx := context.Background()

	f := NewGormFetcher(tdb.DB)
	require.NoError(t, f.SaveAssets(ctx, seedAssets()))

	sales, err := f.FetchAssets(ctx, Scope{Tenant: "tenant-test", Schema: "sales"}, FetchConfig{})
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g3", "g5"}, guids(sales))

	limited, err := f.FetchAssets(ctx, Scope{}, FetchConfig{SampleSize: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"g0", "g1"}, guids(limited))

	seeded, err := f.FetchAssets(ctx, Scope{}, FetchConfig{SampleSize: 3, Seed: 7})
	require.NoError(t, err)
	static, _ := NewStaticFetcher(seedAssets()...).FetchAssets(ctx, Scope{}, FetchConfig{SampleSize: 3, Seed: 7})
	assert.Equal(t, guids(static), guids(seeded), "数据库与内存拉取器抽样一致")

	one, err := f.FetchAsset(ctx, "g2")
	require.NoError(t, err)
	require.NotNil(t, one)
	assert.Equal(t, "FINANCE", one.SchemaName)

	none, err := f.FetchAsset(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, none)
}

// TestCachedFetcher 测试缓存命中与按范围失效
func TestCachedFetcher(t *testing.T) {
	ctx := context.Background()
	inner := new(MockAssetFetcher)
	scope := Scope{Tenant: "acme", Schema: "SALES"}
	inner.On("FetchAssets", mock.Anything, scope, FetchConfig{}).Return(seedAssets()[:2], nil)

	c := cache.NewMemoryCache(nil)
	f := NewCachedFetcher(inner, c)

	first, err := f.FetchAssets(ctx, scope, FetchConfig{})
	require.NoError(t, err)
	second, err := f.FetchAssets(ctx, scope, FetchConfig{})
	require.NoError(t, err)
	assert.Equal(t, guids(first), guids(second))
	inner.AssertNumberOfCalls(t, "FetchAssets", 1)

	n, err := f.Invalidate(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = f.FetchAssets(ctx, scope, FetchConfig{})
	require.NoError(t, err)
	inner.AssertNumberOfCalls(t, "FetchAssets", 2)
}

// TestCachedEvidence 测试证据视图缓存
func TestCachedEvidence(t *testing.T) {
	ctx := context.Background()
	store := evidence.NewMemoryStore()
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, testutil.NewObservation("g1", "catalog.description", "hello", ts)))

	loader := NewCachedEvidence(store, cache.NewMemoryCache(nil))
	snap, err := loader.LatestView(ctx, "scope", []string{"g1"})
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Len())

	require.NoError(t, store.Append(ctx, testutil.NewObservation("g1", "catalog.description", "newer", ts.Add(time.Hour))))
	cached, err := loader.LatestView(ctx, "scope", []string{"g1"})
	require.NoError(t, err)
	obs, ok := cached.Resolve("g1", "catalog.description")
	require.True(t, ok)
	assert.Equal(t, "hello", obs.Value.Data, "缓存有效期内返回缓存视图")
}

func TestScopeKey(t *testing.T) {
	a := Scope{Tenant: "acme", AssetGUIDs: []string{"b", "a"}}
	b := Scope{Tenant: "acme", AssetGUIDs: []string{"a", "b"}}
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, "acme:*:*:*:*", Scope{Tenant: "acme"}.Key())
}
