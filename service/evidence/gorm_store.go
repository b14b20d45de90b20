/*
 * @module service/evidence/gorm_store
 * @description 基于GORM的证据存储，观测表只追加
 * @architecture 分层架构 - 数据访问层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 事务内分配序号 -> 批量写入 -> 按 (时间, 序号) 倒序读取
 * @rules 同一批观测在单个事务中写入；seq 唯一索引冲突时整批重新分配；最新视图按 observation_ts DESC, seq DESC 去重
 * @dependencies gorm.io/gorm, metahub-service/service/models
 * @refs service/evidence/store.go
 */

package evidence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"metahub-service/service/models"

	"gorm.io/gorm"
)

// 并发写入时序号唯一索引冲突的重试次数
const appendAttempts = 5

// GormStore 数据库证据存储
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore 创建数据库证据存储
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, now: time.Now}
}

// Append 追加观测
func (s *GormStore) Append(ctx context.Context, observations ...*models.EvidenceObservation) error {
	if len(observations) == 0 {
		return nil
	}
	now := s.now()
	for _, obs := range observations {
		if err := normalize(obs, now); err != nil {
			return err
		}
	}

	var err error
	for attempt := 0; attempt < appendAttempts; attempt++ {
		err = s.appendOnce(ctx, observations)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		slog.Warn("证据序号冲突，重新分配", "attempt", attempt+1, "count", len(observations))
	}
	return err
}

// appendOnce 在单个事务中分配序号并写入，序号冲突返回 gorm.ErrDuplicatedKey
func (s *GormStore) appendOnce(ctx context.Context, observations []*models.EvidenceObservation) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxSeq int64
		if err := tx.Model(&models.EvidenceObservation{}).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&maxSeq).Error; err != nil {
			return fmt.Errorf("读取证据序号失败: %w", err)
		}
		for _, obs := range observations {
			maxSeq++
			obs.Seq = maxSeq
		}
		if err := tx.CreateInBatches(observations, 500).Error; err != nil {
			return fmt.Errorf("写入证据观测失败: %w", err)
		}
		return nil
	})
}

// Latest 返回最新观测
func (s *GormStore) Latest(ctx context.Context, assetKey, evidenceKey string) (*models.EvidenceObservation, error) {
	var rows []models.EvidenceObservation
	err := s.db.WithContext(ctx).
		Where("asset_key = ? AND evidence_key = ?", assetKey, evidenceKey).
		Order("observation_ts DESC").
		Order("seq DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询最新证据失败: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// LatestView 构建最新证据快照
func (s *GormStore) LatestView(ctx context.Context, assetKeys []string) (*Snapshot, error) {
	query := s.db.WithContext(ctx).Model(&models.EvidenceObservation{})
	if len(assetKeys) > 0 {
		query = query.Where("asset_key IN ?", assetKeys)
	}
	var rows []models.EvidenceObservation
	if err := query.Order("asset_key, evidence_key").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询最新证据视图失败: %w", err)
	}
	return NewSnapshot(rows), nil
}

// History 返回观测历史
func (s *GormStore) History(ctx context.Context, assetKey, evidenceKey string) ([]models.EvidenceObservation, error) {
	var rows []models.EvidenceObservation
	err := s.db.WithContext(ctx).
		Where("asset_key = ? AND evidence_key = ?", assetKey, evidenceKey).
		Order("observation_ts ASC").
		Order("seq ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询证据历史失败: %w", err)
	}
	return rows, nil
}
