/*
 * @module api/controllers/assessment_controller
 * @description 评估控制器，提供评估运行触发、台账查询、运行对比、即时评估、缺口/计划/维度汇总分析与缓存管理
 * @architecture MVC架构 - 控制器层
 * @documentReference docs/assessment_engine.md
 * @stateFlow HTTP请求 -> 参数解析 -> 评估服务 -> 错误映射 -> 统一响应
 * @rules 请求级错误返回400；运行不存在返回404；同范围运行中返回409；触发限流返回429；可重试的运行失败返回503
 * @dependencies metahub-service/service/assessment, github.com/go-chi/chi/v5, github.com/go-chi/render, github.com/spf13/cast
 * @refs service/assessment/service.go, api/controllers/response.go
 */

package controllers

import (
	"net/http"

	"metahub-service/service/assessment"
	"metahub-service/service/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/spf13/cast"
)

// ScheduleRunner 定时评估管理能力
type ScheduleRunner interface {
	Status() []assessment.ScheduleStatus
	RunNow(id string) error
}

// AssessmentController 评估控制器
type AssessmentController struct {
	svc       *assessment.Service
	scheduler ScheduleRunner
}

// NewAssessmentController 创建评估控制器，scheduler 可为空
func NewAssessmentController(svc *assessment.Service, scheduler ScheduleRunner) *AssessmentController {
	return &AssessmentController{svc: svc, scheduler: scheduler}
}

// CacheInvalidateResponse 缓存失效结果
type CacheInvalidateResponse struct {
	Scope   string `json:"scope"`
	Removed int    `json:"removed"`
}

// TriggerRun 触发评估运行
// @Summary 触发评估运行
// @Description 拉取范围内资产与证据快照，按模板评估并落库，返回运行ID与运行时间
// @Tags 评估
// @Accept json
// @Produce json
// @Param request body assessment.TriggerRequest true "运行请求"
// @Success 200 {object} APIResponse{data=assessment.TriggerResult}
// @Failure 400 {object} APIResponse
// @Failure 409 {object} APIResponse
// @Failure 429 {object} APIResponse
// @Failure 503 {object} APIResponse
// @Router /assessments/runs [post]
func (c *AssessmentController) TriggerRun(w http.ResponseWriter, r *http.Request) {
	var req assessment.TriggerRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}
	result, err := c.svc.Trigger(r.Context(), req)
	if err != nil {
		render.Render(w, r, ErrorResponse("触发评估运行失败", err))
		return
	}
	render.Render(w, r, SuccessResponse("评估运行完成", result))
}

// ListRuns 分页查询评估运行
// @Summary 分页查询评估运行
// @Tags 评估
// @Produce json
// @Param page query int false "页码" default(1)
// @Param size query int false "每页数量" default(10)
// @Param template_id query string false "模板ID"
// @Success 200 {object} PaginatedResponse{data=[]models.AssessmentRun}
// @Router /assessments/runs [get]
func (c *AssessmentController) ListRuns(w http.ResponseWriter, r *http.Request) {
	page := cast.ToInt(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	size := cast.ToInt(r.URL.Query().Get("size"))
	if size <= 0 {
		size = 10
	}
	runs, total, err := c.svc.ListRuns(r.Context(), page, size, r.URL.Query().Get("template_id"))
	if err != nil {
		render.Render(w, r, ErrorResponse("查询评估运行失败", err))
		return
	}
	if runs == nil {
		runs = []models.AssessmentRun{}
	}
	render.Render(w, r, &PaginatedResponse{Status: 0, Msg: "查询评估运行成功", Data: runs, Total: total, Page: page, Size: size})
}

// GetRun 查询评估运行
// @Summary 查询评估运行
// @Tags 评估
// @Produce json
// @Param id path string true "运行ID"
// @Success 200 {object} APIResponse{data=models.AssessmentRun}
// @Failure 404 {object} APIResponse
// @Router /assessments/runs/{id} [get]
func (c *AssessmentController) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := c.svc.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		render.Render(w, r, ErrorResponse("查询评估运行失败", err))
		return
	}
	render.Render(w, r, SuccessResponse("查询评估运行成功", run))
}

// GetParameterResults 查询运行的参数结果
// @Summary 查询运行的参数结果
// @Tags 评估
// @Produce json
// @Param id path string true "运行ID"
// @Success 200 {object} APIResponse{data=[]models.ParameterResult}
// @Failure 404 {object} APIResponse
// @Router /assessments/runs/{id}/parameter-results [get]
func (c *AssessmentController) GetParameterResults(w http.ResponseWriter, r *http.Request) {
	rows, err := c.svc.ParameterResults(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		render.Render(w, r, ErrorResponse("查询参数结果失败", err))
		return
	}
	render.Render(w, r, SuccessResponse("查询参数结果成功", rows))
}

// GetAssessmentResults 查询运行的评估汇总结果
// @Summary 查询运行的评估汇总结果
// @Tags 评估
// @Produce json
// @Param id path string true "运行ID"
// @Success 200 {object} APIResponse{data=[]models.AssessmentResult}
// @Failure 404 {object} APIResponse
// @Router /assessments/runs/{id}/assessment-results [get]
func (c *AssessmentController) GetAssessmentResults(w http.ResponseWriter, r *http.Request) {
	rows, err := c.svc.AssessmentResults(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		render.Render(w, r, ErrorResponse("查询评估结果失败", err))
		return
	}
	render.Render(w, r, SuccessResponse("查询评估结果成功", rows))
}

// Compare 对比两次运行
// @Summary 对比两次运行
// @Description 按资产对比结论变化与得分差值，并给出整改优先级漂移
// @Tags 评估
// @Produce json
// @Param prev query string true "基线运行ID"
// @Param curr query string true "当前运行ID"
// @Success 200 {object} APIResponse{data=ledger.Comparison}
// @Failure 400 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /assessments/compare [get]
func (c *AssessmentController) Compare(w http.ResponseWriter, r *http.Request) {
	prev, curr := r.URL.Query().Get("prev"), r.URL.Query().Get("curr")
	if prev == "" || curr == "" {
		render.Render(w, r, BadRequestResponse("prev 与 curr 不能为空", nil))
		return
	}
	cmp, err := c.svc.Compare(r.Context(), prev, curr)
	if err != nil {
		render.Render(w, r, ErrorResponse("对比评估运行失败", err))
		return
	}
	render.Render(w, r, SuccessResponse("对比评估运行成功", cmp))
}

// Evaluate 即时评估
// @Summary 即时评估
// @Description 对请求中的资产执行评估，默认逐行适配器，不落库
// @Tags 评估
// @Accept json
// @Produce json
// @Param request body assessment.EvaluateRequest true "评估请求"
// @Success 200 {object} APIResponse{data=assessment.Outcome}
// @Failure 400 {object} APIResponse
// @Router /assessments/evaluate [post]
func (c *AssessmentController) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req assessment.EvaluateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}
	out, err := c.svc.Evaluate(r.Context(), req)
	if err != nil {
		render.Render(w, r, ErrorResponse("即时评估失败", err))
		return
	}
	render.Render(w, r, SuccessResponse("即时评估完成", out))
}

// analysis 解析分析请求并执行
func (c *AssessmentController) analysis(w http.ResponseWriter, r *http.Request, msg string, fn func(req assessment.AnalysisRequest) (interface{}, error)) {
	var req assessment.AnalysisRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}
	data, err := fn(req)
	if err != nil {
		render.Render(w, r, ErrorResponse(msg+"失败", err))
		return
	}
	render.Render(w, r, SuccessResponse(msg+"成功", data))
}

// GapReport 缺口报告
// @Summary 缺口报告
// @Description 计算范围内字段覆盖率、缺口资产数、工时与优先级
// @Tags 评估分析
// @Accept json
// @Produce json
// @Param request body assessment.AnalysisRequest true "分析请求"
// @Success 200 {object} APIResponse{data=assessment.GapReportResult}
// @Failure 400 {object} APIResponse
// @Router /assessments/gaps [post]
func (c *AssessmentController) GapReport(w http.ResponseWriter, r *http.Request) {
	c.analysis(w, r, "生成缺口报告", func(req assessment.AnalysisRequest) (interface{}, error) {
		return c.svc.GapReport(r.Context(), req)
	})
}

// Plan 整改计划
// @Summary 整改计划
// @Description 根据缺口优先级生成基础、增强、优化三阶段计划
// @Tags 评估分析
// @Accept json
// @Produce json
// @Param request body assessment.AnalysisRequest true "分析请求"
// @Success 200 {object} APIResponse{data=assessment.PlanResult}
// @Failure 400 {object} APIResponse
// @Router /assessments/plan [post]
func (c *AssessmentController) Plan(w http.ResponseWriter, r *http.Request) {
	c.analysis(w, r, "生成整改计划", func(req assessment.AnalysisRequest) (interface{}, error) {
		return c.svc.Plan(r.Context(), req)
	})
}

// Rollup 维度汇总
// @Summary 维度汇总
// @Description 按连接器、库表、域等维度分组汇总覆盖率与得分
// @Tags 评估分析
// @Accept json
// @Produce json
// @Param request body assessment.AnalysisRequest true "分析请求，dimension 必填"
// @Success 200 {object} APIResponse{data=rollup.DimensionRollup}
// @Failure 400 {object} APIResponse
// @Router /assessments/rollup [post]
func (c *AssessmentController) Rollup(w http.ResponseWriter, r *http.Request) {
	c.analysis(w, r, "维度汇总", func(req assessment.AnalysisRequest) (interface{}, error) {
		return c.svc.Rollup(r.Context(), req)
	})
}

// FieldPresence 字段存在情况
// @Summary 字段存在情况
// @Description 统计范围内每个字段存在、缺失、未知的资产数
// @Tags 评估分析
// @Accept json
// @Produce json
// @Param request body assessment.AnalysisRequest true "分析请求"
// @Success 200 {object} APIResponse{data=assessment.FieldPresenceReport}
// @Failure 400 {object} APIResponse
// @Router /assessments/field-presence [post]
func (c *AssessmentController) FieldPresence(w http.ResponseWriter, r *http.Request) {
	c.analysis(w, r, "统计字段存在情况", func(req assessment.AnalysisRequest) (interface{}, error) {
		return c.svc.FieldPresence(r.Context(), req)
	})
}

// CacheStats 缓存统计
// @Summary 缓存统计
// @Tags 评估
// @Produce json
// @Success 200 {object} APIResponse{data=cache.Stats}
// @Router /assessments/cache/stats [get]
func (c *AssessmentController) CacheStats(w http.ResponseWriter, r *http.Request) {
	render.Render(w, r, SuccessResponse("获取缓存统计成功", c.svc.CacheStats(r.Context())))
}

// InvalidateCache 失效范围缓存
// @Summary 失效范围缓存
// @Description 失效指定范围键下的资产与证据缓存，不影响其他范围
// @Tags 评估
// @Produce json
// @Param scope query string true "范围键，如 acme:*:*:*:*"
// @Success 200 {object} APIResponse{data=CacheInvalidateResponse}
// @Failure 400 {object} APIResponse
// @Router /assessments/cache [delete]
func (c *AssessmentController) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")
	removed, err := c.svc.InvalidateCache(r.Context(), scope)
	if err != nil {
		render.Render(w, r, ErrorResponse("失效缓存失败", err))
		return
	}
	render.Render(w, r, SuccessResponse("失效缓存成功", CacheInvalidateResponse{Scope: scope, Removed: removed}))
}

// GetSchedules 定时评估状态
// @Summary 定时评估状态
// @Tags 评估
// @Produce json
// @Success 200 {object} APIResponse{data=[]assessment.ScheduleStatus}
// @Router /assessments/schedules [get]
func (c *AssessmentController) GetSchedules(w http.ResponseWriter, r *http.Request) {
	status := []assessment.ScheduleStatus{}
	if c.scheduler != nil {
		status = append(status, c.scheduler.Status()...)
	}
	render.Render(w, r, SuccessResponse("获取定时评估状态成功", status))
}

// RunSchedule 立即执行定时评估
// @Summary 立即执行定时评估
// @Tags 评估
// @Produce json
// @Param id path string true "调度ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /assessments/schedules/{id}/run [post]
func (c *AssessmentController) RunSchedule(w http.ResponseWriter, r *http.Request) {
	if c.scheduler == nil {
		render.Render(w, r, NotFoundResponse("未启用定时评估", nil))
		return
	}
	if err := c.scheduler.RunNow(chi.URLParam(r, "id")); err != nil {
		render.Render(w, r, NotFoundResponse("执行定时评估失败", err))
		return
	}
	render.Render(w, r, SuccessResponse("定时评估已执行", nil))
}
