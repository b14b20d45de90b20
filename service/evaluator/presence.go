/*
 * @module service/evaluator/presence
 * @description 存在性判定：将任意来源值归类为存在、缺失或未解析
 * @architecture 分层架构 - 业务服务层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 来源值 -> 类型判定 -> (存在, 已解析)
 * @rules nil 视为未解析；非空字符串、非空数组/对象、true、有限数字视为存在
 * @dependencies reflect, encoding/json
 * @refs service/evaluator/field_evaluator.go
 */

package evaluator

import (
	"encoding/json"
	"math"
	"reflect"
	"strings"
)

// ClassifyPresence 判定值是否存在，resolved 为假表示来源没有给出值
func ClassifyPresence(v interface{}) (present bool, resolved bool) {
	if v == nil {
		return false, false
	}
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return false, true
		}
		// 数组列常以JSON文本形式出现
		if strings.HasPrefix(s, "[") {
			var arr []interface{}
			if err := json.Unmarshal([]byte(s), &arr); err == nil {
				return len(arr) > 0, true
			}
		}
		return true, true
	case bool:
		return t, true
	case float64:
		return finite(t), true
	case float32:
		return finite(float64(t)), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true, true
	case json.Number:
		f, err := t.Float64()
		return err == nil && finite(f), true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		if rv.Kind() != reflect.Array && rv.IsNil() {
			return false, false
		}
		return rv.Len() > 0, true
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return false, false
		}
		return ClassifyPresence(rv.Elem().Interface())
	}
	return true, true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
