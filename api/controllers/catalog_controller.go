/*
 * @module api/controllers/catalog_controller
 * @description 评估目录控制器，提供字段、信号、参数、模板、画像查询与字段对账
 * @architecture MVC架构 - 控制器层
 * @documentReference docs/assessment_engine.md
 * @stateFlow HTTP请求 -> 目录只读查询 -> 统一响应
 * @rules 目录在运行期只读；对账只返回建议映射，不修改已加载目录
 * @dependencies metahub-service/service/catalog, github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/catalog/reconcile.go
 */

package controllers

import (
	"errors"
	"net/http"
	"sort"

	"metahub-service/service/catalog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// CatalogController 评估目录控制器
type CatalogController struct {
	catalog *catalog.Catalog
}

// NewCatalogController 创建目录控制器
func NewCatalogController(cat *catalog.Catalog) *CatalogController {
	return &CatalogController{catalog: cat}
}

// TemplateDetail 模板及展开后的参数
type TemplateDetail struct {
	Template   catalog.Template            `json:"template"`
	Parameters []catalog.ResolvedParameter `json:"parameters"`
}

// ReconcileRequest 字段对账请求
type ReconcileRequest struct {
	Columns        []string `json:"columns" example:"DESCRIPTION,OWNER"`
	IncludePending bool     `json:"include_pending"`
}

// ReconcileResponse 字段对账结果
type ReconcileResponse struct {
	Mappings       []catalog.FieldMapping `json:"mappings"`
	AcceptedFields []string               `json:"accepted_fields"`
}

// GetFields 获取字段定义
// @Summary 获取字段定义
// @Description 获取目录中的全部低层字段及其来源
// @Tags 评估目录
// @Produce json
// @Success 200 {object} APIResponse{data=[]catalog.Field}
// @Router /catalog/fields [get]
func (c *CatalogController) GetFields(w http.ResponseWriter, r *http.Request) {
	render.Render(w, r, SuccessResponse("获取字段定义成功", c.catalog.Fields()))
}

// GetSignals 获取信号定义
// @Summary 获取信号定义
// @Tags 评估目录
// @Produce json
// @Success 200 {object} APIResponse{data=[]catalog.Signal}
// @Router /catalog/signals [get]
func (c *CatalogController) GetSignals(w http.ResponseWriter, r *http.Request) {
	render.Render(w, r, SuccessResponse("获取信号定义成功", c.catalog.Signals()))
}

// GetParameters 获取评分参数
// @Summary 获取评分参数
// @Tags 评估目录
// @Produce json
// @Success 200 {object} APIResponse{data=[]catalog.Parameter}
// @Router /catalog/parameters [get]
func (c *CatalogController) GetParameters(w http.ResponseWriter, r *http.Request) {
	render.Render(w, r, SuccessResponse("获取评分参数成功", c.catalog.Parameters()))
}

// GetTemplates 获取评估模板
// @Summary 获取评估模板
// @Tags 评估目录
// @Produce json
// @Success 200 {object} APIResponse{data=[]catalog.Template}
// @Router /catalog/templates [get]
func (c *CatalogController) GetTemplates(w http.ResponseWriter, r *http.Request) {
	render.Render(w, r, SuccessResponse("获取评估模板成功", c.catalog.Templates()))
}

// GetTemplate 获取模板详情
// @Summary 获取模板详情
// @Description 获取模板定义以及继承权重后的参数列表
// @Tags 评估目录
// @Produce json
// @Param id path string true "模板ID"
// @Success 200 {object} APIResponse{data=TemplateDetail}
// @Failure 404 {object} APIResponse
// @Router /catalog/templates/{id} [get]
func (c *CatalogController) GetTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, params, err := c.catalog.ResolveTemplate(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, catalog.ErrTemplateNotFound) {
			render.Render(w, r, NotFoundResponse("评估模板不存在", err))
			return
		}
		render.Render(w, r, InternalErrorResponse("展开评估模板失败", err))
		return
	}
	render.Render(w, r, SuccessResponse("获取模板详情成功", TemplateDetail{Template: tmpl, Parameters: params}))
}

// GetProfiles 获取用例画像
// @Summary 获取用例画像
// @Tags 评估目录
// @Produce json
// @Success 200 {object} APIResponse{data=[]catalog.UseCaseProfile}
// @Router /catalog/profiles [get]
func (c *CatalogController) GetProfiles(w http.ResponseWriter, r *http.Request) {
	render.Render(w, r, SuccessResponse("获取用例画像成功", c.catalog.Profiles()))
}

// Reconcile 字段对账
// @Summary 字段对账
// @Description 将规范字段的候选属性与租户实际发现的列匹配，精确匹配自动生效，别名匹配待确认
// @Tags 评估目录
// @Accept json
// @Produce json
// @Param request body ReconcileRequest true "租户发现的列"
// @Success 200 {object} APIResponse{data=ReconcileResponse}
// @Failure 400 {object} APIResponse
// @Router /catalog/reconcile [post]
func (c *CatalogController) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req ReconcileRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}
	if len(req.Columns) == 0 {
		render.Render(w, r, BadRequestResponse("列清单不能为空", nil))
		return
	}

	mappings := catalog.Reconcile(c.catalog.Fields(), req.Columns)
	accepted := catalog.AcceptedSources(mappings, req.IncludePending)
	fields := make([]string, 0, len(accepted))
	for id := range accepted {
		fields = append(fields, id)
	}
	sort.Strings(fields)

	render.Render(w, r, SuccessResponse("字段对账完成", ReconcileResponse{Mappings: mappings, AcceptedFields: fields}))
}
