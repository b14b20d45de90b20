/*
 * @module service/database/migrate
 * @description 数据库迁移模块，负责创建和更新资产快照、证据观测与评估台账表结构
 * @architecture 数据访问层 - 迁移管理
 * @documentReference docs/assessment_engine.md
 * @stateFlow 应用启动时执行数据库迁移 -> 补充组合索引
 * @rules 确保数据库结构与模型定义保持一致；索引创建可重复执行
 * @dependencies metahub-service/service/models, gorm.io/gorm
 * @refs service/init.go, service/ledger/ledger.go
 */

package database

import (
	"log/slog"

	"metahub-service/service/models"

	"gorm.io/gorm"
)

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate(db *gorm.DB) error {
	slog.Info("开始数据库迁移...")

	// 资产与证据相关表
	if err := db.AutoMigrate(&models.AssetRecord{}, &models.EvidenceObservation{}); err != nil {
		return err
	}

	// 评估台账相关表
	if err := db.AutoMigrate(&models.AssessmentRun{}, &models.ParameterResult{}, &models.AssessmentResult{}); err != nil {
		return err
	}

	if err := CreateIndexes(db); err != nil {
		return err
	}
	slog.Info("数据库迁移完成")
	return nil
}

// CreateIndexes 创建按运行读取结果的组合索引
func CreateIndexes(db *gorm.DB) error {
	indexQueries := []string{
		"CREATE INDEX IF NOT EXISTS idx_parameter_results_run_asset ON assessment_parameter_results(run_id, asset_key)",
		"CREATE INDEX IF NOT EXISTS idx_assessment_results_run_status ON assessment_results(run_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_assessment_runs_template_ts ON assessment_runs(template_id, run_ts)",
	}

	for _, query := range indexQueries {
		if err := db.Exec(query).Error; err != nil {
			slog.Error("创建评估台账索引失败", "query", query, "error", err)
			return err
		}
	}
	return nil
}
