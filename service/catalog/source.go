/*
 * @module service/catalog/source
 * @description 字段取值来源的封闭和类型，每种来源只携带自身需要的配置
 * @architecture 领域模型层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 目录定义 -> 来源变体 -> 评估器按变体分派
 * @rules 来源集合封闭，只能由本包内的变体实现 Source 接口
 * @dependencies 无
 * @refs service/evaluator/field_evaluator.go
 */

package catalog

// SourceKind 来源类型标签，仅用于序列化和展示
type SourceKind string

const (
	SourceNative         SourceKind = "native"
	SourceNativeAny      SourceKind = "native_any"
	SourceCustomMetadata SourceKind = "custom_metadata"
	SourceClassification SourceKind = "classification"
	SourceRelationship   SourceKind = "relationship"
	SourceDerived        SourceKind = "derived"
)

// Source 字段取值来源
type Source interface {
	Kind() SourceKind
	sealed()
}

// NativeSource 单个原生属性
type NativeSource struct {
	Attribute string `json:"attribute"`
}

// NativeAnySource 多个候选原生属性，按声明顺序取第一个有值者
type NativeAnySource struct {
	Attributes []string `json:"attributes"`
}

// CustomMetadataSource 自定义元数据集合中的属性
type CustomMetadataSource struct {
	Set       string `json:"set"`
	Attribute string `json:"attribute"`
}

// ClassificationSource 分类匹配，Pattern 为通配模式，Set 为候选分类集合，二者至少其一
type ClassificationSource struct {
	Pattern string   `json:"pattern,omitempty"`
	Set     []string `json:"set,omitempty"`
}

// RelationshipSource 关系计数达到阈值
type RelationshipSource struct {
	Relation string `json:"relation"`
	MinCount int    `json:"min_count"`
}

// DerivedSource 派生计算，Name 指向已注册的计算函数，Script 为可选的脚本实现
type DerivedSource struct {
	Name   string `json:"name"`
	Script string `json:"script,omitempty"`
}

func (NativeSource) Kind() SourceKind         { return SourceNative }
func (NativeAnySource) Kind() SourceKind      { return SourceNativeAny }
func (CustomMetadataSource) Kind() SourceKind { return SourceCustomMetadata }
func (ClassificationSource) Kind() SourceKind { return SourceClassification }
func (RelationshipSource) Kind() SourceKind   { return SourceRelationship }
func (DerivedSource) Kind() SourceKind        { return SourceDerived }

func (NativeSource) sealed()         {}
func (NativeAnySource) sealed()      {}
func (CustomMetadataSource) sealed() {}
func (ClassificationSource) sealed() {}
func (RelationshipSource) sealed()   {}
func (DerivedSource) sealed()        {}

// Candidates 返回来源涉及的原生属性名，用于字段与列的对账
func Candidates(src Source) []string {
	switch s := src.(type) {
	case NativeSource:
		return []string{s.Attribute}
	case NativeAnySource:
		out := make([]string, len(s.Attributes))
		copy(out, s.Attributes)
		return out
	default:
		return nil
	}
}

// DescribeSource 以可序列化的形式描述来源
func DescribeSource(src Source) map[string]interface{} {
	out := map[string]interface{}{"type": string(src.Kind())}
	switch s := src.(type) {
	case NativeSource:
		out["attribute"] = s.Attribute
	case NativeAnySource:
		out["attributes"] = s.Attributes
	case CustomMetadataSource:
		out["set"] = s.Set
		out["attribute"] = s.Attribute
	case ClassificationSource:
		if s.Pattern != "" {
			out["pattern"] = s.Pattern
		}
		if len(s.Set) > 0 {
			out["set"] = s.Set
		}
	case RelationshipSource:
		out["relation"] = s.Relation
		out["min_count"] = s.MinCount
	case DerivedSource:
		out["name"] = s.Name
		if s.Script != "" {
			out["script"] = s.Script
		}
	}
	return out
}
