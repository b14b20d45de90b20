/*
 * @module service/models/assessment
 * @description 评估运行台账模型：运行记录、参数结果、资产评估结果
 * @architecture 数据模型层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 运行触发 -> 结果计算 -> 事务写入 -> 只读查询与对比
 * @rules 运行写入后不可变；重跑产生新的 run_id；空分母结果存为 NULL 而不是 0
 * @dependencies gorm.io/gorm, github.com/lib/pq
 * @refs service/ledger, service/assessment
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// AssessmentRun 评估运行记录
type AssessmentRun struct {
	RunID        string         `gorm:"type:varchar(50);primaryKey" json:"run_id"`
	RunTS        time.Time      `gorm:"not null;index" json:"run_ts"`
	TemplateID   string         `gorm:"type:varchar(100);not null;index" json:"template_id"`
	ProfileID    string         `gorm:"type:varchar(100)" json:"profile_id,omitempty"`
	RunLabel     string         `gorm:"type:varchar(255)" json:"run_label"`
	Methodology  string         `gorm:"type:varchar(50)" json:"methodology"`
	Adapter      string         `gorm:"type:varchar(20)" json:"adapter"`
	Scope        string         `gorm:"type:varchar(500);index" json:"scope"`
	AssetCount   int            `json:"asset_count"`
	ParameterIDs pq.StringArray `gorm:"type:text[]" json:"parameter_ids"`
	CreatedAt    time.Time      `json:"created_at"`
}

// TableName 指定表名
func (AssessmentRun) TableName() string {
	return "assessment_runs"
}

// BeforeCreate 创建前钩子
func (r *AssessmentRun) BeforeCreate(tx *gorm.DB) error {
	if r.RunID == "" {
		r.RunID = uuid.New().String()
	}
	return nil
}

// ParameterResult 资产参数评估结果
type ParameterResult struct {
	ID                 string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	RunID              string    `gorm:"type:varchar(50);not null;index" json:"run_id"`
	AssetKey           string    `gorm:"type:varchar(64);not null;index" json:"asset_key"`
	ParameterID        string    `gorm:"type:varchar(100);not null" json:"parameter_id"`
	State              string    `gorm:"type:varchar(20);not null" json:"state"`
	Score              *float64  `json:"score"`
	EvidenceKeyUsed    string    `gorm:"type:varchar(200)" json:"evidence_key_used,omitempty"`
	EvidenceValue      JSONBAny  `gorm:"type:jsonb" json:"evidence_value"`
	EvidenceConfidence *float64  `json:"evidence_confidence"`
	CreatedAt          time.Time `json:"created_ts"`
}

// TableName 指定表名
func (ParameterResult) TableName() string {
	return "assessment_parameter_results"
}

// BeforeCreate 创建前钩子
func (p *ParameterResult) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// AssessmentResult 资产评估汇总结果
type AssessmentResult struct {
	ID                  string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	RunID               string    `gorm:"type:varchar(50);not null;index" json:"run_id"`
	AssetKey            string    `gorm:"type:varchar(64);not null;index" json:"asset_key"`
	AssetType           string    `gorm:"type:varchar(50)" json:"asset_type"`
	QualityScore        *float64  `json:"quality_score"`
	Coverage            *float64  `json:"coverage"`
	Confidence          *float64  `json:"confidence"`
	QTripletScore       *float64  `json:"qtriplet_score"`
	CompositeScore      *float64  `json:"composite_score"`
	Status              string    `gorm:"type:varchar(30);not null;index" json:"status"`
	FailedRequiredCount int       `json:"failed_required_count"`
	CreatedAt           time.Time `json:"created_ts"`
}

// TableName 指定表名
func (AssessmentResult) TableName() string {
	return "assessment_results"
}

// BeforeCreate 创建前钩子
func (a *AssessmentResult) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}
