/*
 * @module service/models/asset
 * @description 目录资产快照模型，评估运行期间只读
 * @architecture 数据模型层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 上游目录采集 -> 资产快照入库 -> 评估读取
 * @rules 资产快照在单次评估中不可变，引擎不得修改属性包
 * @dependencies github.com/spf13/cast
 * @refs service/fetcher, service/evaluator
 */

package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// 资产类型
const (
	AssetTypeTable     = "Table"
	AssetTypeView      = "View"
	AssetTypeColumn    = "Column"
	AssetTypeSchema    = "Schema"
	AssetTypeDatabase  = "Database"
	AssetTypeDashboard = "Dashboard"
)

// AssetRecord 目录资产快照
type AssetRecord struct {
	GUID            string           `gorm:"type:varchar(64);primaryKey" json:"guid"`
	AssetType       string           `gorm:"type:varchar(50);not null;index" json:"asset_type"`
	Name            string           `gorm:"type:varchar(255)" json:"name"`
	QualifiedName   string           `gorm:"type:varchar(1000)" json:"qualified_name"`
	TenantID        string           `gorm:"type:varchar(100);index" json:"tenant_id"`
	ConnectorName   string           `gorm:"type:varchar(100);index" json:"connector_name"`
	ConnectionName  string           `gorm:"type:varchar(255)" json:"connection_name"`
	DatabaseName    string           `gorm:"type:varchar(255);index" json:"database_name"`
	SchemaName      string           `gorm:"type:varchar(255);index" json:"schema_name"`
	Domain          string           `gorm:"type:varchar(255);index" json:"domain"`
	Attributes      JSONB            `gorm:"type:jsonb" json:"attributes"`
	CustomMetadata  JSONB            `gorm:"type:jsonb" json:"custom_metadata"`
	Classifications JSONBStringArray `gorm:"type:jsonb" json:"classifications"`
	Relationships   JSONB            `gorm:"type:jsonb" json:"relationships"`
	SnapshotAt      time.Time        `json:"snapshot_at"`
}

// TableName 指定表名
func (AssetRecord) TableName() string {
	return "asset_snapshots"
}

// Attribute 读取原生属性，第二个返回值表示属性是否已定义
func (a *AssetRecord) Attribute(name string) (interface{}, bool) {
	if a.Attributes == nil {
		return nil, false
	}
	v, ok := a.Attributes[name]
	return v, ok
}

// CustomMetadataSet 读取自定义元数据集合
// 集合可能以对象或JSON字符串形式存储，字符串无法解析时返回错误
func (a *AssetRecord) CustomMetadataSet(set string) (map[string]interface{}, bool, error) {
	if a.CustomMetadata == nil {
		return nil, false, nil
	}
	raw, ok := a.CustomMetadata[set]
	if !ok || raw == nil {
		return nil, false, nil
	}
	switch v := raw.(type) {
	case map[string]interface{}:
		return v, true, nil
	case JSONB:
		return v, true, nil
	case string:
		var decoded map[string]interface{}
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			return nil, true, err
		}
		return decoded, true, nil
	default:
		m, err := cast.ToStringMapE(v)
		return m, true, err
	}
}

// RelationshipCount 读取关系计数，未记录的关系返回false
func (a *AssetRecord) RelationshipCount(relation string) (int, bool) {
	if a.Relationships == nil {
		return 0, false
	}
	raw, ok := a.Relationships[relation]
	if !ok || raw == nil {
		return 0, false
	}
	if list, isList := raw.([]interface{}); isList {
		return len(list), true
	}
	n, err := cast.ToIntE(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Owners 返回资产的负责人列表（用户和用户组）
func (a *AssetRecord) Owners() []string {
	var owners []string
	for _, key := range []string{"OWNER_USERS", "OWNER_GROUPS"} {
		v, ok := a.Attribute(key)
		if !ok || v == nil {
			continue
		}
		for _, o := range cast.ToStringSlice(v) {
			if o = strings.TrimSpace(o); o != "" {
				owners = append(owners, o)
			}
		}
	}
	return owners
}
