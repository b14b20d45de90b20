package fetcher

import (
	"context"
	"errors"
	"fmt"

	"metahub-service/service/models"

	"gorm.io/gorm"
)

// GormFetcher 从资产快照表拉取资产
type GormFetcher struct {
	db *gorm.DB
}

// NewGormFetcher 创建数据库资产拉取器
func NewGormFetcher(db *gorm.DB) *GormFetcher {
	return &GormFetcher{db: db}
}

// FetchAssets 按范围拉取资产
func (f *GormFetcher) FetchAssets(ctx context.Context, scope Scope, cfg FetchConfig) ([]models.AssetRecord, error) {
	query := f.db.WithContext(ctx).Model(&models.AssetRecord{})
	if scope.Tenant != "" {
		query = query.Where("tenant_id = ?", scope.Tenant)
	}
	if scope.Connection != "" {
		query = query.Where("connection_name = ?", scope.Connection)
	}
	if scope.Database != "" {
		query = query.Where("UPPER(database_name) = UPPER(?)", scope.Database)
	}
	if scope.Schema != "" {
		query = query.Where("UPPER(schema_name) = UPPER(?)", scope.Schema)
	}
	if scope.Domain != "" {
		query = query.Where("domain = ?", scope.Domain)
	}
	if len(scope.AssetGUIDs) > 0 {
		query = query.Where("guid IN ?", scope.AssetGUIDs)
	}
	query = query.Order("guid")
	if cfg.Seed == 0 && cfg.SampleSize > 0 {
		query = query.Limit(cfg.SampleSize)
	}

	var assets []models.AssetRecord
	if err := query.Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("拉取资产失败: %w", err)
	}
	return sample(assets, cfg), nil
}

// FetchAsset 拉取单个资产，不存在时返回 nil
func (f *GormFetcher) FetchAsset(ctx context.Context, guid string) (*models.AssetRecord, error) {
	var asset models.AssetRecord
	err := f.db.WithContext(ctx).Where("guid = ?", guid).First(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("拉取资产失败: %w", err)
	}
	return &asset, nil
}

// SaveAssets 写入或覆盖资产快照
func (f *GormFetcher) SaveAssets(ctx context.Context, assets []models.AssetRecord) error {
	if len(assets) == 0 {
		return nil
	}
	return f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range assets {
			if err := tx.Save(&assets[i]).Error; err != nil {
				return fmt.Errorf("写入资产快照失败: %w", err)
			}
		}
		return nil
	})
}
