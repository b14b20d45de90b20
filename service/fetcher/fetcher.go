/*
 * @module service/fetcher/fetcher
 * @description 资产拉取协作方：按范围拉取资产快照，支持确定性抽样，提供数据库、内存与缓存装饰实现
 * @architecture 分层架构 - 数据访问层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 范围 + 抽样配置 -> 查询资产快照 -> 按GUID排序 -> 抽样 -> 资产列表
 * @rules 抽样结果确定：同一范围、同一种子始终得到相同资产；单资产不存在时返回 nil 而不是错误
 * @dependencies gorm.io/gorm, metahub-service/service/cache
 * @refs service/assessment/service.go
 */

package fetcher

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"

	"metahub-service/service/cache"
	"metahub-service/service/models"
)

// Scope 资产拉取范围，空字段表示不限制
type Scope struct {
	Tenant     string   `json:"tenant,omitempty" yaml:"tenant"`
	Connection string   `json:"connection,omitempty" yaml:"connection"`
	Database   string   `json:"database,omitempty" yaml:"database"`
	Schema     string   `json:"schema,omitempty" yaml:"schema"`
	Domain     string   `json:"domain,omitempty" yaml:"domain"`
	AssetGUIDs []string `json:"asset_guids,omitempty" yaml:"asset_guids"`
}

// Key 范围缓存键，指定资产列表时附加列表摘要
func (s Scope) Key() string {
	key := cache.ScopeKey(s.Tenant, s.Connection, s.Database, s.Schema, s.Domain)
	if len(s.AssetGUIDs) == 0 {
		return key
	}
	guids := append([]string(nil), s.AssetGUIDs...)
	sort.Strings(guids)
	return key + ":" + shortHash(strings.Join(guids, ","))
}

func shortHash(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:6])
}

// Matches 资产是否落在范围内
func (s Scope) Matches(a *models.AssetRecord) bool {
	switch {
	case s.Tenant != "" && a.TenantID != s.Tenant:
		return false
	case s.Connection != "" && a.ConnectionName != s.Connection:
		return false
	case s.Database != "" && !strings.EqualFold(a.DatabaseName, s.Database):
		return false
	case s.Schema != "" && !strings.EqualFold(a.SchemaName, s.Schema):
		return false
	case s.Domain != "" && a.Domain != s.Domain:
		return false
	}
	if len(s.AssetGUIDs) > 0 {
		for _, g := range s.AssetGUIDs {
			if g == a.GUID {
				return true
			}
		}
		return false
	}
	return true
}

// FetchConfig 拉取配置
type FetchConfig struct {
	SampleSize int   `json:"sample_size,omitempty" yaml:"sample_size"`
	Seed       int64 `json:"seed,omitempty" yaml:"seed"`
}

// AssetFetcher 资产拉取接口
type AssetFetcher interface {
	FetchAssets(ctx context.Context, scope Scope, cfg FetchConfig) ([]models.AssetRecord, error)
	FetchAsset(ctx context.Context, guid string) (*models.AssetRecord, error)
}

// sample 按GUID排序后抽样，指定种子时按种子哈希重排
func sample(assets []models.AssetRecord, cfg FetchConfig) []models.AssetRecord {
	sort.SliceStable(assets, func(i, j int) bool { return assets[i].GUID < assets[j].GUID })
	if cfg.Seed != 0 {
		keys := make(map[string]uint64, len(assets))
		for _, a := range assets {
			keys[a.GUID] = seededHash(cfg.Seed, a.GUID)
		}
		sort.SliceStable(assets, func(i, j int) bool { return keys[assets[i].GUID] < keys[assets[j].GUID] })
	}
	if cfg.SampleSize > 0 && cfg.SampleSize < len(assets) {
		assets = assets[:cfg.SampleSize]
	}
	return assets
}

func seededHash(seed int64, guid string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(strconv.FormatInt(seed, 10)))
	h.Write([]byte{0})
	h.Write([]byte(guid))
	return h.Sum64()
}
