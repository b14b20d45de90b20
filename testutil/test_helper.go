/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @documentReference docs/assessment_engine.md
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具，确保测试环境的一致性
 * @dependencies gorm, sqlite, testify, time
 * @refs service/models
 */

package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"metahub-service/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB 测试数据库配置
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB 创建测试数据库
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	// 内存库每个连接独立，固定为单连接
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	err = db.AutoMigrate(
		&models.AssetRecord{},
		&models.EvidenceObservation{},
		&models.AssessmentRun{},
		&models.ParameterResult{},
		&models.AssessmentResult{},
	)
	if err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// CleanDB 清理数据库
func (tdb *TestDB) CleanDB() {
	tables := []string{
		"asset_snapshots",
		"evidence_observations",
		"assessment_runs",
		"assessment_parameter_results",
		"assessment_results",
	}

	for _, table := range tables {
		tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
	}
}

// Close 关闭数据库连接
func (tdb *TestDB) Close() {
	if db, err := tdb.DB.DB(); err == nil {
		db.Close()
	}
}

// TestDataFactory 测试数据工厂
type TestDataFactory struct {
	DB *gorm.DB
}

// NewTestDataFactory 创建测试数据工厂
func NewTestDataFactory(db *gorm.DB) *TestDataFactory {
	return &TestDataFactory{DB: db}
}

// AssetOption 资产选项函数类型
type AssetOption func(*models.AssetRecord)

// WithAssetType 设置资产类型
func WithAssetType(assetType string) AssetOption {
	return func(a *models.AssetRecord) { a.AssetType = assetType }
}

// WithAttribute 设置原生属性
func WithAttribute(name string, value interface{}) AssetOption {
	return func(a *models.AssetRecord) {
		if a.Attributes == nil {
			a.Attributes = models.JSONB{}
		}
		a.Attributes[name] = value
	}
}

// WithSchema 设置数据库与模式
func WithSchema(database, schema string) AssetOption {
	return func(a *models.AssetRecord) {
		a.DatabaseName = database
		a.SchemaName = schema
	}
}

// WithConnector 设置连接器
func WithConnector(connector string) AssetOption {
	return func(a *models.AssetRecord) { a.ConnectorName = connector }
}

// WithDomain 设置数据域
func WithDomain(domain string) AssetOption {
	return func(a *models.AssetRecord) { a.Domain = domain }
}

// WithClassifications 设置分类列表
func WithClassifications(classifications ...string) AssetOption {
	return func(a *models.AssetRecord) { a.Classifications = models.JSONBStringArray(classifications) }
}

// NewAsset 构建测试资产（不入库）
func NewAsset(guid string, opts ...AssetOption) models.AssetRecord {
	asset := models.AssetRecord{
		GUID:          guid,
		AssetType:     models.AssetTypeTable,
		Name:          guid,
		QualifiedName: "default/snowflake/ANALYTICS/PUBLIC/" + guid,
		TenantID:      "tenant-test",
		ConnectorName: "snowflake",
		DatabaseName:  "ANALYTICS",
		SchemaName:    "PUBLIC",
		Attributes:    models.JSONB{},
		SnapshotAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, opt := range opts {
		opt(&asset)
	}
	return asset
}

// CreateAsset 创建测试资产并入库
func (f *TestDataFactory) CreateAsset(guid string, opts ...AssetOption) *models.AssetRecord {
	asset := NewAsset(guid, opts...)
	if err := f.DB.Create(&asset).Error; err != nil {
		panic(fmt.Sprintf("failed to create test asset: %v", err))
	}
	return &asset
}

// NewObservation 构建测试证据观测
func NewObservation(assetKey, evidenceKey string, value interface{}, ts time.Time) *models.EvidenceObservation {
	return &models.EvidenceObservation{
		AssetKey:      assetKey,
		AssetType:     models.AssetTypeTable,
		EvidenceKey:   evidenceKey,
		Value:         models.JSONBAny{Data: value},
		Source:        "test",
		Confidence:    1.0,
		ObservationTS: ts,
	}
}

var idCounter int64

func generateID(prefix string) string {
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixNano(), atomic.AddInt64(&idCounter, 1))
}

// GenerateID 生成唯一测试ID
func GenerateID(prefix string) string {
	return generateID(prefix)
}

// Float 返回浮点指针
func Float(v float64) *float64 {
	return &v
}

// HTTPTestHelper HTTP测试辅助工具
type HTTPTestHelper struct{}

// NewHTTPTestHelper 创建HTTP测试辅助工具
func NewHTTPTestHelper() *HTTPTestHelper {
	return &HTTPTestHelper{}
}

// CreateJSONRequest 创建JSON请求
func (h *HTTPTestHelper) CreateJSONRequest(method, url string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// DecodeJSON 解析响应体
func (h *HTTPTestHelper) DecodeJSON(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), target))
}

// AssertStatus 断言HTTP状态码
func (h *HTTPTestHelper) AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	assert.Equal(t, expected, w.Code, w.Body.String())
}
