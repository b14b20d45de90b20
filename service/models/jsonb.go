/*
 * @module service/models/jsonb
 * @description JSONB列类型，承载资产属性包、证据值和分类列表
 * @architecture 数据模型层
 * @documentReference docs/assessment_engine.md
 * @stateFlow Go值 -> JSON序列化 -> 数据库列 -> JSON反序列化 -> Go值
 * @rules JSON null与缺失值保持语义一致，均还原为nil
 * @dependencies database/sql/driver, encoding/json
 * @refs service/models/asset.go, service/models/evidence.go
 */

package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONB 通用 JSON 对象类型
type JSONB map[string]interface{}

// JSONBStringArray 用于存储字符串数组的 JSONB 类型
type JSONBStringArray []string

// JSONBAny 用于存储任意 JSON 值，证据值可能是字符串、数字、布尔、数组或对象
type JSONBAny struct {
	Data interface{}
}

// columnBytes 把驱动返回的列值统一为字节
func columnBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New("类型断言失败: 不是 []byte 或 string")
	}
}

// Scan 实现 Scanner 接口
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, err := columnBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, j)
}

// Value 实现 Valuer 接口
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 Scanner 接口
func (j *JSONBStringArray) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, err := columnBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, j)
}

// Value 实现 Valuer 接口
func (j JSONBStringArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 Scanner 接口
func (j *JSONBAny) Scan(value interface{}) error {
	if value == nil {
		j.Data = nil
		return nil
	}
	bytes, err := columnBytes(value)
	if err != nil {
		return err
	}
	var data interface{}
	if err := json.Unmarshal(bytes, &data); err != nil {
		return err
	}
	j.Data = data
	return nil
}

// Value 实现 Valuer 接口
func (j JSONBAny) Value() (driver.Value, error) {
	if j.Data == nil {
		return nil, nil
	}
	return json.Marshal(j.Data)
}

// MarshalJSON 直接输出内部值
func (j JSONBAny) MarshalJSON() ([]byte, error) {
	return json.Marshal(j.Data)
}

// UnmarshalJSON 直接读取内部值
func (j *JSONBAny) UnmarshalJSON(b []byte) error {
	var data interface{}
	if err := json.Unmarshal(b, &data); err != nil {
		return err
	}
	j.Data = data
	return nil
}
