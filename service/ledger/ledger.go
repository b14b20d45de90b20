/*
 * @module service/ledger/ledger
 * @description 评估运行台账：以单个事务写入运行记录及其参数结果、资产结果，提供只读查询
 * @architecture 分层架构 - 数据访问层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 运行结果 -> 事务(运行行 -> 分批参数结果 -> 分批资产结果) -> 提交/整体回滚
 * @rules 全部写入或全部不写入；运行写入后不可变，同一 run_id 再次写入返回 ErrRunExists
 * @dependencies gorm.io/gorm, metahub-service/service/models
 * @refs service/assessment/service.go, service/ledger/compare.go
 */

package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"metahub-service/service/models"

	"gorm.io/gorm"
)

// 台账错误
var (
	ErrRunExists   = errors.New("评估运行已存在")
	ErrRunNotFound = errors.New("评估运行不存在")
)

const batchSize = 500

// Ledger 评估运行台账
type Ledger struct {
	db *gorm.DB
}

// NewLedger 创建评估运行台账
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Record 在单个事务中写入一次完整运行
func (l *Ledger) Record(ctx context.Context, run *models.AssessmentRun, params []models.ParameterResult, results []models.AssessmentResult) error {
	if run == nil {
		return fmt.Errorf("评估运行记录不能为空")
	}
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if run.RunID != "" {
			var count int64
			if err := tx.Model(&models.AssessmentRun{}).Where("run_id = ?", run.RunID).Count(&count).Error; err != nil {
				return fmt.Errorf("检查评估运行失败: %w", err)
			}
			if count > 0 {
				return fmt.Errorf("%w: %s", ErrRunExists, run.RunID)
			}
		}
		if run.RunTS.IsZero() {
			run.RunTS = time.Now().UTC()
		}
		if err := tx.Create(run).Error; err != nil {
			return fmt.Errorf("写入评估运行失败: %w", err)
		}

		for i := range params {
			params[i].RunID = run.RunID
		}
		for i := range results {
			results[i].RunID = run.RunID
		}
		if len(params) > 0 {
			if err := tx.CreateInBatches(params, batchSize).Error; err != nil {
				return fmt.Errorf("写入参数结果失败: %w", err)
			}
		}
		if len(results) > 0 {
			if err := tx.CreateInBatches(results, batchSize).Error; err != nil {
				return fmt.Errorf("写入资产评估结果失败: %w", err)
			}
		}
		return nil
	})
}

// GetRun 获取运行记录
func (l *Ledger) GetRun(ctx context.Context, runID string) (*models.AssessmentRun, error) {
	var run models.AssessmentRun
	err := l.db.WithContext(ctx).Where("run_id = ?", runID).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("查询评估运行失败: %w", err)
	}
	return &run, nil
}

// ListRuns 分页查询运行记录，按运行时间倒序
func (l *Ledger) ListRuns(ctx context.Context, page, size int, templateID string) ([]models.AssessmentRun, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 200 {
		size = 20
	}

	query := l.db.WithContext(ctx).Model(&models.AssessmentRun{})
	if templateID != "" {
		query = query.Where("template_id = ?", templateID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计评估运行失败: %w", err)
	}

	var runs []models.AssessmentRun
	if err := query.Order("run_ts DESC").Order("run_id").Offset((page - 1) * size).Limit(size).Find(&runs).Error; err != nil {
		return nil, 0, fmt.Errorf("查询评估运行列表失败: %w", err)
	}
	return runs, total, nil
}

// ParameterResults 查询运行的参数结果
func (l *Ledger) ParameterResults(ctx context.Context, runID string) ([]models.ParameterResult, error) {
	var rows []models.ParameterResult
	err := l.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("asset_key").Order("parameter_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询参数结果失败: %w", err)
	}
	return rows, nil
}

// AssessmentResults 查询运行的资产评估结果
func (l *Ledger) AssessmentResults(ctx context.Context, runID string) ([]models.AssessmentResult, error) {
	var rows []models.AssessmentResult
	err := l.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("asset_key").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询资产评估结果失败: %w", err)
	}
	return rows, nil
}
