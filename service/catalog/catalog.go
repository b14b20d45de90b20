/*
 * @module service/catalog/catalog
 * @description 字段/参数目录注册表，负责定义校验与只读查询
 * @architecture 领域模型层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 定义集合 -> 引用完整性校验 -> 不可变目录
 * @rules 目录构建后不可变；查询不存在的模板/画像/参数返回哨兵错误
 * @dependencies metahub-service/service/meta
 * @refs service/catalog/loader.go, service/catalog/builtin.go
 */

package catalog

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"metahub-service/service/meta"
)

var (
	ErrInvalidCatalog    = errors.New("目录定义无效")
	ErrTemplateNotFound  = errors.New("评估模板不存在")
	ErrProfileNotFound   = errors.New("用例画像不存在")
	ErrParameterNotFound = errors.New("评分参数不存在")
	ErrSignalNotFound    = errors.New("信号不存在")
)

// Definition 目录定义集合
type Definition struct {
	Fields      []Field
	Signals     []Signal
	Parameters  []Parameter
	Templates   []Template
	Profiles    []UseCaseProfile
	Remediation Remediation
}

// Catalog 不可变目录
type Catalog struct {
	fields      []Field
	fieldIndex  map[string]int
	signals     []Signal
	signalIndex map[string]int
	parameters  []Parameter
	paramIndex  map[string]int
	templates   []Template
	tmplIndex   map[string]int
	profiles    []UseCaseProfile
	profIndex   map[string]int
	remediation Remediation
}

// New 校验定义并构建目录
func New(def Definition) (*Catalog, error) {
	c := &Catalog{
		fieldIndex:  make(map[string]int),
		signalIndex: make(map[string]int),
		paramIndex:  make(map[string]int),
		tmplIndex:   make(map[string]int),
		profIndex:   make(map[string]int),
		remediation: def.Remediation,
	}

	for _, s := range def.Signals {
		if err := validateSignal(s); err != nil {
			return nil, err
		}
		if _, dup := c.signalIndex[s.ID]; dup {
			return nil, invalid("信号ID重复: %s", s.ID)
		}
		c.signalIndex[s.ID] = len(c.signals)
		c.signals = append(c.signals, s)
	}

	for _, f := range def.Fields {
		if f.ID == "" {
			return nil, invalid("字段缺少ID")
		}
		if f.Source == nil {
			return nil, invalid("字段 %s 缺少来源定义", f.ID)
		}
		if err := validateSource(f.ID, f.Source); err != nil {
			return nil, err
		}
		if _, dup := c.fieldIndex[f.ID]; dup {
			return nil, invalid("字段ID重复: %s", f.ID)
		}
		for _, con := range f.Contributions {
			if _, ok := c.signalIndex[con.Signal]; !ok {
				return nil, invalid("字段 %s 引用了不存在的信号 %s", f.ID, con.Signal)
			}
			if !validWeight(con.Weight) {
				return nil, invalid("字段 %s 对信号 %s 的权重无效", f.ID, con.Signal)
			}
		}
		c.fieldIndex[f.ID] = len(c.fields)
		c.fields = append(c.fields, f)
	}

	for _, p := range def.Parameters {
		if p.ID == "" {
			return nil, invalid("参数缺少ID")
		}
		if _, dup := c.paramIndex[p.ID]; dup {
			return nil, invalid("参数ID重复: %s", p.ID)
		}
		if !validWeight(p.Weight) {
			return nil, invalid("参数 %s 权重无效", p.ID)
		}
		if !p.PassCondition.Valid() {
			return nil, invalid("参数 %s 通过条件无效: %s", p.ID, p.PassCondition)
		}
		p.Bindings = append([]Binding(nil), p.Bindings...)
		for i := range p.Bindings {
			if p.Bindings[i].EvidenceKey == "" {
				return nil, invalid("参数 %s 存在空证据键绑定", p.ID)
			}
			if p.Bindings[i].AssetType == "" {
				p.Bindings[i].AssetType = AnyAssetType
			}
			p.Bindings[i].ParameterID = p.ID
		}
		c.paramIndex[p.ID] = len(c.parameters)
		c.parameters = append(c.parameters, p)
	}

	for _, t := range def.Templates {
		if t.ID == "" {
			return nil, invalid("模板缺少ID")
		}
		if _, dup := c.tmplIndex[t.ID]; dup {
			return nil, invalid("模板ID重复: %s", t.ID)
		}
		if !t.Methodology.Valid() {
			return nil, invalid("模板 %s 方法论无效: %s", t.ID, t.Methodology)
		}
		for _, tp := range t.Parameters {
			if _, ok := c.paramIndex[tp.ParameterID]; !ok {
				return nil, invalid("模板 %s 引用了不存在的参数 %s", t.ID, tp.ParameterID)
			}
			if tp.Weight != nil && !validWeight(*tp.Weight) {
				return nil, invalid("模板 %s 参数 %s 权重无效", t.ID, tp.ParameterID)
			}
		}
		c.tmplIndex[t.ID] = len(c.templates)
		c.templates = append(c.templates, t)
	}

	for _, p := range def.Profiles {
		if p.ID == "" {
			return nil, invalid("用例画像缺少ID")
		}
		if _, dup := c.profIndex[p.ID]; dup {
			return nil, invalid("用例画像ID重复: %s", p.ID)
		}
		if p.PartialThreshold > p.ReadyThreshold {
			return nil, invalid("用例画像 %s 的部分就绪阈值高于就绪阈值", p.ID)
		}
		switch p.UnknownPolicy {
		case "", meta.UnknownPassthrough, meta.UnknownFails:
		default:
			return nil, invalid("用例画像 %s 未知策略无效: %s", p.ID, p.UnknownPolicy)
		}
		for _, e := range p.Entries {
			if _, ok := c.signalIndex[e.Signal]; !ok {
				return nil, invalid("用例画像 %s 引用了不存在的信号 %s", p.ID, e.Signal)
			}
			if !validWeight(e.Weight) {
				return nil, invalid("用例画像 %s 信号 %s 权重无效", p.ID, e.Signal)
			}
		}
		c.profIndex[p.ID] = len(c.profiles)
		c.profiles = append(c.profiles, p)
	}

	return c, nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidCatalog, fmt.Sprintf(format, args...))
}

func validWeight(w float64) bool {
	return w >= 0 && !math.IsInf(w, 0) && !math.IsNaN(w)
}

func validateSignal(s Signal) error {
	if s.ID == "" {
		return invalid("信号缺少ID")
	}
	switch s.Aggregation.Rule {
	case meta.AggregateAny, meta.AggregateAll:
	case meta.AggregateWeightedThreshold:
		if s.Aggregation.Threshold < 0 || s.Aggregation.Threshold > 1 {
			return invalid("信号 %s 加权阈值必须在 [0,1] 之间", s.ID)
		}
	default:
		return invalid("信号 %s 聚合规则无效: %s", s.ID, s.Aggregation.Rule)
	}
	return nil
}

func validateSource(fieldID string, src Source) error {
	switch s := src.(type) {
	case NativeSource:
		if strings.TrimSpace(s.Attribute) == "" {
			return invalid("字段 %s 原生来源缺少属性名", fieldID)
		}
	case NativeAnySource:
		if len(s.Attributes) == 0 {
			return invalid("字段 %s 候选属性列表为空", fieldID)
		}
	case CustomMetadataSource:
		if s.Set == "" || s.Attribute == "" {
			return invalid("字段 %s 自定义元数据来源缺少集合或属性", fieldID)
		}
	case ClassificationSource:
		if s.Pattern == "" && len(s.Set) == 0 {
			return invalid("字段 %s 分类来源缺少模式或集合", fieldID)
		}
	case RelationshipSource:
		if s.Relation == "" || s.MinCount < 0 {
			return invalid("字段 %s 关系来源配置无效", fieldID)
		}
	case DerivedSource:
		if s.Name == "" && s.Script == "" {
			return invalid("字段 %s 派生来源缺少名称或脚本", fieldID)
		}
	default:
		return invalid("字段 %s 来源类型未知", fieldID)
	}
	return nil
}

// Fields 返回全部字段
func (c *Catalog) Fields() []Field {
	return append([]Field(nil), c.fields...)
}

// Field 查询字段
func (c *Catalog) Field(id string) (Field, bool) {
	i, ok := c.fieldIndex[id]
	if !ok {
		return Field{}, false
	}
	return c.fields[i], true
}

// FieldsFor 返回适用于资产类型的字段
func (c *Catalog) FieldsFor(assetType string) []Field {
	var out []Field
	for _, f := range c.fields {
		if f.Applies(assetType) {
			out = append(out, f)
		}
	}
	return out
}

// Signals 返回全部信号
func (c *Catalog) Signals() []Signal {
	return append([]Signal(nil), c.signals...)
}

// Signal 查询信号
func (c *Catalog) Signal(id string) (Signal, error) {
	i, ok := c.signalIndex[id]
	if !ok {
		return Signal{}, fmt.Errorf("%w: %s", ErrSignalNotFound, id)
	}
	return c.signals[i], nil
}

// Parameters 返回全部参数
func (c *Catalog) Parameters() []Parameter {
	return append([]Parameter(nil), c.parameters...)
}

// Parameter 查询参数
func (c *Catalog) Parameter(id string) (Parameter, error) {
	i, ok := c.paramIndex[id]
	if !ok {
		return Parameter{}, fmt.Errorf("%w: %s", ErrParameterNotFound, id)
	}
	return c.parameters[i], nil
}

// Templates 返回全部模板
func (c *Catalog) Templates() []Template {
	return append([]Template(nil), c.templates...)
}

// Template 查询模板
func (c *Catalog) Template(id string) (Template, error) {
	i, ok := c.tmplIndex[id]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return c.templates[i], nil
}

// ResolveTemplate 展开模板参数，确定每个参数的有效权重与必需标志
func (c *Catalog) ResolveTemplate(id string) (Template, []ResolvedParameter, error) {
	t, err := c.Template(id)
	if err != nil {
		return Template{}, nil, err
	}
	resolved := make([]ResolvedParameter, 0, len(t.Parameters))
	for _, tp := range t.Parameters {
		p, err := c.Parameter(tp.ParameterID)
		if err != nil {
			return Template{}, nil, err
		}
		rp := ResolvedParameter{Parameter: p, EffectiveWeight: p.Weight, EffectiveRequired: p.Required}
		if tp.Weight != nil {
			rp.EffectiveWeight = *tp.Weight
		}
		if tp.Required != nil {
			rp.EffectiveRequired = *tp.Required
		}
		resolved = append(resolved, rp)
	}
	return t, resolved, nil
}

// Profiles 返回全部用例画像
func (c *Catalog) Profiles() []UseCaseProfile {
	return append([]UseCaseProfile(nil), c.profiles...)
}

// Profile 查询用例画像
func (c *Catalog) Profile(id string) (UseCaseProfile, error) {
	i, ok := c.profIndex[id]
	if !ok {
		return UseCaseProfile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, id)
	}
	return c.profiles[i], nil
}

// Remediation 返回整改估算配置
func (c *Catalog) Remediation() Remediation {
	return c.remediation
}

// Definition 导出目录定义，用于派生新目录
func (c *Catalog) Definition() Definition {
	return Definition{
		Fields:      c.Fields(),
		Signals:     c.Signals(),
		Parameters:  c.Parameters(),
		Templates:   c.Templates(),
		Profiles:    c.Profiles(),
		Remediation: c.remediation,
	}
}

// WithFieldSources 以新的来源替换指定字段，返回新目录
func (c *Catalog) WithFieldSources(overrides map[string]Source) (*Catalog, error) {
	def := c.Definition()
	for i := range def.Fields {
		if src, ok := overrides[def.Fields[i].ID]; ok && src != nil {
			def.Fields[i].Source = src
		}
	}
	return New(def)
}
