/*
 * @module service/meta/assessment_meta
 * @description 评估引擎元数据定义，包括评估状态、结论、方法论、通过条件、聚合规则等封闭取值集合
 * @architecture 元数据层
 * @documentReference docs/assessment_engine.md
 * @stateFlow 静态元数据定义
 * @rules 所有取值均为封闭集合，新增取值必须同时更新对应的元数据列表
 * @dependencies 无
 * @refs service/catalog, service/scoring, service/usecase, service/rollup
 */

package meta

// State 三态评估结果
type State string

const (
	StatePresent State = "PRESENT"
	StateAbsent  State = "ABSENT"
	StateUnknown State = "UNKNOWN"
)

// Known 是否已知（PRESENT 或 ABSENT）
func (s State) Known() bool {
	return s == StatePresent || s == StateAbsent
}

// Status 资产评估结论
type Status string

const (
	StatusFailedRequirement    Status = "FAILED_REQUIREMENT"
	StatusInsufficientEvidence Status = "INSUFFICIENT_EVIDENCE"
	StatusReady                Status = "READY"
	StatusInProgress           Status = "IN_PROGRESS"
)

// Methodology 评分方法论
type Methodology string

const (
	MethodologyWeightedDimensions Methodology = "WEIGHTED_DIMENSIONS"
	MethodologyGate               Methodology = "GATE"
	MethodologyQTriplet           Methodology = "QTRIPLET"
	MethodologyMaturity           Methodology = "MATURITY"
	MethodologyChecklist          Methodology = "CHECKLIST"
)

// Valid 是否为已定义的方法论
func (m Methodology) Valid() bool {
	switch m {
	case MethodologyWeightedDimensions, MethodologyGate, MethodologyQTriplet, MethodologyMaturity, MethodologyChecklist:
		return true
	}
	return false
}

// PassCondition 参数通过条件
type PassCondition string

const (
	PassTruthy PassCondition = "TRUTHY"
	PassGT0    PassCondition = "GT0"
	PassGTE1   PassCondition = "GTE1"
	PassLenGT0 PassCondition = "LEN_GT0"
)

// Valid 是否为已定义的通过条件
func (p PassCondition) Valid() bool {
	switch p {
	case PassTruthy, PassGT0, PassGTE1, PassLenGT0:
		return true
	}
	return false
}

// AggregationRule 信号聚合规则
type AggregationRule string

const (
	AggregateAny               AggregationRule = "any"
	AggregateAll               AggregationRule = "all"
	AggregateWeightedThreshold AggregationRule = "weighted_threshold"
)

// Severity 信号严重程度
type Severity string

const (
	SeverityHigh Severity = "HIGH"
	SeverityMed  Severity = "MED"
	SeverityLow  Severity = "LOW"
)

// Readiness 用例就绪等级
type Readiness string

const (
	ReadinessReady    Readiness = "ready"
	ReadinessPartial  Readiness = "partial"
	ReadinessNotReady Readiness = "not_ready"
)

// UnknownPolicy 未知信号计分策略
type UnknownPolicy string

const (
	// UnknownPassthrough 未知信号按其自身得分参与加权
	UnknownPassthrough UnknownPolicy = "unknown_passthrough"
	// UnknownFails 未知信号按0分参与加权
	UnknownFails UnknownPolicy = "unknown_fails"
)

// Priority 整改优先级，P0 最高
type Priority string

const (
	PriorityP0 Priority = "P0"
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
)

// Rank 优先级序号，数值越小优先级越高
func (p Priority) Rank() int {
	switch p {
	case PriorityP0:
		return 0
	case PriorityP1:
		return 1
	case PriorityP2:
		return 2
	default:
		return 3
	}
}

// PriorityFromRank 由序号还原优先级，越界时截断到 P0/P3
func PriorityFromRank(rank int) Priority {
	switch {
	case rank <= 0:
		return PriorityP0
	case rank == 1:
		return PriorityP1
	case rank == 2:
		return PriorityP2
	default:
		return PriorityP3
	}
}

// Dimension 汇总维度
type Dimension string

const (
	DimensionConnector Dimension = "connector"
	DimensionSchema    Dimension = "schema"
	DimensionDomain    Dimension = "domain"
	DimensionOwner     Dimension = "owner"
	DimensionAssetType Dimension = "asset_type"
)

// Valid 是否为已定义的汇总维度
func (d Dimension) Valid() bool {
	switch d {
	case DimensionConnector, DimensionSchema, DimensionDomain, DimensionOwner, DimensionAssetType:
		return true
	}
	return false
}

// EnumItem 枚举元数据条目
type EnumItem struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// EvaluationStates 评估状态元数据
var EvaluationStates = []EnumItem{
	{Code: string(StatePresent), Name: "存在", Description: "证据已解析且满足存在性判定"},
	{Code: string(StateAbsent), Name: "缺失", Description: "证据已解析但未满足存在性判定"},
	{Code: string(StateUnknown), Name: "未知", Description: "所有证据来源均未解析，无法评估"},
}

// AssessmentStatuses 资产评估结论元数据
var AssessmentStatuses = []EnumItem{
	{Code: string(StatusFailedRequirement), Name: "必需项未通过", Description: "至少一个必需参数缺失，优先于其他判定"},
	{Code: string(StatusInsufficientEvidence), Name: "证据不足", Description: "没有任何已知权重，需要补充证据"},
	{Code: string(StatusReady), Name: "就绪", Description: "门禁方法论下质量、覆盖率、置信度均达到阈值"},
	{Code: string(StatusInProgress), Name: "进行中", Description: "已计算量化得分，尚未达到门禁要求"},
}

// Methodologies 评分方法论元数据
var Methodologies = []EnumItem{
	{Code: string(MethodologyWeightedDimensions), Name: "加权维度", Description: "按参数权重计算质量得分"},
	{Code: string(MethodologyGate), Name: "门禁", Description: "质量、覆盖率、置信度三项最低阈值全部通过即就绪"},
	{Code: string(MethodologyQTriplet), Name: "质量三元组", Description: "质量 × 覆盖率 × 置信度的复合得分"},
	{Code: string(MethodologyMaturity), Name: "成熟度", Description: "按质量得分映射为0-5级成熟度"},
	{Code: string(MethodologyChecklist), Name: "检查清单", Description: "已满足条目占全部适用条目的比例"},
}

// PassConditions 通过条件元数据
var PassConditions = []EnumItem{
	{Code: string(PassTruthy), Name: "布尔真", Description: "值可转换为布尔真"},
	{Code: string(PassGT0), Name: "大于0", Description: "值可转换为数字且大于0"},
	{Code: string(PassGTE1), Name: "不小于1", Description: "值可转换为数字且不小于1"},
	{Code: string(PassLenGT0), Name: "非空", Description: "字符串或数组长度大于0"},
}

// Dimensions 汇总维度元数据
var Dimensions = []EnumItem{
	{Code: string(DimensionConnector), Name: "连接器", Description: "按数据源连接器分组"},
	{Code: string(DimensionSchema), Name: "模式", Description: "按数据库模式分组"},
	{Code: string(DimensionDomain), Name: "数据域", Description: "按业务数据域分组"},
	{Code: string(DimensionOwner), Name: "负责人", Description: "按负责人分组，多负责人资产计入每个组"},
	{Code: string(DimensionAssetType), Name: "资产类型", Description: "按资产类型分组"},
}

// Priorities 整改优先级元数据
var Priorities = []EnumItem{
	{Code: string(PriorityP0), Name: "紧急", Description: "基础阶段，优先整改"},
	{Code: string(PriorityP1), Name: "高", Description: "增强阶段"},
	{Code: string(PriorityP2), Name: "中", Description: "优化阶段"},
	{Code: string(PriorityP3), Name: "低", Description: "优化阶段"},
}
