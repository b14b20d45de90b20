/*
 * @module service/models/evidence
 * @description 证据观测模型，记录 (资产, 证据键) -> 值 的只追加观测
 * @architecture 数据模型层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 观测写入 -> 最新视图 -> 评估解析
 * @rules 观测只追加不修改；Seq 为全局唯一且单调递增的插入序号，用于同时间戳去重
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/evidence
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EvidenceObservation 证据观测
type EvidenceObservation struct {
	ID            string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	Seq           int64     `gorm:"not null;uniqueIndex:uidx_evidence_seq" json:"seq"`
	ObservationTS time.Time `gorm:"not null;index:idx_evidence_latest,priority:3" json:"observation_ts"`
	Source        string    `gorm:"type:varchar(100)" json:"source"`
	AssetKey      string    `gorm:"type:varchar(64);not null;index:idx_evidence_latest,priority:1" json:"asset_key"`
	AssetType     string    `gorm:"type:varchar(50)" json:"asset_type"`
	EvidenceKey   string    `gorm:"type:varchar(200);not null;index:idx_evidence_latest,priority:2" json:"evidence_key"`
	Value         JSONBAny  `gorm:"type:jsonb" json:"value"`
	Confidence    float64   `gorm:"not null;default:1" json:"confidence"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName 指定表名
func (EvidenceObservation) TableName() string {
	return "evidence_observations"
}

// BeforeCreate 创建前钩子
func (e *EvidenceObservation) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// After 判断观测 e 是否比 other 更新，同时间戳时插入序号大者更新
func (e *EvidenceObservation) After(other *EvidenceObservation) bool {
	if !e.ObservationTS.Equal(other.ObservationTS) {
		return e.ObservationTS.After(other.ObservationTS)
	}
	return e.Seq > other.Seq
}
