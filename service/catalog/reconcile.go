/*
 * @module service/catalog/reconcile
 * @description 字段对账：将规范字段的候选属性与租户实际发现的列进行匹配
 * @architecture 领域模型层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 候选属性 -> 精确匹配 -> 别名匹配 -> 对账结果 -> 覆盖字段来源
 * @rules 精确匹配置信度1.0且自动生效；别名匹配置信度0.7需人工确认；未匹配置信度0
 * @dependencies golang.org/x/text/cases
 * @refs service/catalog/catalog.go
 */

package catalog

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// 对账状态
const (
	ReconcileMatched      = "MATCHED"
	ReconcileAliasMatched = "ALIAS_MATCHED"
	ReconcileNotFound     = "NOT_FOUND"

	MappingStatusAuto    = "auto"
	MappingStatusPending = "pending"
)

// FieldMapping 字段对账结果
type FieldMapping struct {
	FieldID              string                 `json:"field_id"`
	FieldName            string                 `json:"field_name"`
	ExpectedColumns      []string               `json:"expected_columns"`
	MatchedColumn        string                 `json:"matched_column,omitempty"`
	ReconciliationStatus string                 `json:"reconciliation_status"`
	Status               string                 `json:"status"`
	Confidence           float64                `json:"confidence"`
	TenantSource         map[string]interface{} `json:"tenant_source,omitempty"`
}

// Caser 有内部状态，不能跨协程共享
func foldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func compactKey(s string) string {
	return strings.NewReplacer("_", "", "-", "").Replace(foldKey(s))
}

// Reconcile 对具有原生来源的字段进行列对账
func Reconcile(fields []Field, columns []string) []FieldMapping {
	available := make(map[string]string, len(columns))
	ordered := make([]string, 0, len(columns))
	for _, col := range columns {
		key := foldKey(col)
		if _, seen := available[key]; seen || key == "" {
			continue
		}
		available[key] = col
		ordered = append(ordered, col)
	}
	sort.Strings(ordered)

	var mappings []FieldMapping
	for _, f := range fields {
		candidates := Candidates(f.Source)
		if len(candidates) == 0 {
			continue
		}
		m := FieldMapping{
			FieldID:              f.ID,
			FieldName:            f.Name,
			ExpectedColumns:      candidates,
			ReconciliationStatus: ReconcileNotFound,
			Status:               MappingStatusPending,
		}

		for _, cand := range candidates {
			if col, ok := available[foldKey(cand)]; ok {
				m.MatchedColumn = col
				m.ReconciliationStatus = ReconcileMatched
				m.Confidence = 1.0
				m.Status = MappingStatusAuto
				break
			}
		}

		if m.MatchedColumn == "" {
			fieldKey := compactKey(f.ID)
			for _, col := range ordered {
				colKey := compactKey(col)
				if colKey == "" {
					continue
				}
				if strings.Contains(colKey, fieldKey) || strings.Contains(fieldKey, colKey) {
					m.MatchedColumn = col
					m.ReconciliationStatus = ReconcileAliasMatched
					m.Confidence = 0.7
					break
				}
			}
		}

		if m.MatchedColumn != "" {
			m.TenantSource = DescribeSource(NativeSource{Attribute: m.MatchedColumn})
		}
		mappings = append(mappings, m)
	}
	return mappings
}

// AcceptedSources 将对账结果转换为字段来源覆盖，includePending 为真时同时采用待确认的别名匹配
func AcceptedSources(mappings []FieldMapping, includePending bool) map[string]Source {
	out := make(map[string]Source)
	for _, m := range mappings {
		if m.MatchedColumn == "" {
			continue
		}
		if m.Status == MappingStatusAuto || includePending {
			out[m.FieldID] = NativeSource{Attribute: m.MatchedColumn}
		}
	}
	return out
}
