package controllers

import (
	"net/http"

	"metahub-service/service/meta"

	"github.com/go-chi/render"
)

type MetaController struct {
}

func NewMetaController() *MetaController {
	return &MetaController{}
}

// @Summary 获取证据评估状态
// @Description 获取参数评估的三态取值（存在/缺失/未知）
// @Tags 元数据
// @Produce json
// @Success 200 {object} APIResponse{data=[]meta.EnumItem}
// @Router /meta/states [get]
func (c *MetaController) GetStates(w http.ResponseWriter, r *http.Request) {
	render.Render(w, r, SuccessResponse("获取评估状态成功", meta.EvaluationStates))
}

// @Summary 获取资产评估结论
// @Description 获取资产级评估结论取值及判定顺序
// @Tags 元数据
// @Produce json
// @Success 200 {object} APIResponse{data=[]meta.EnumItem}
// @Router /meta/statuses [get]
func (c *MetaController) GetStatuses(w http.ResponseWriter, r *http.Request) {
	render.Render(w, r, SuccessResponse("获取评估结论成功", meta.AssessmentStatuses))
}

// @Summary 获取评分方法论
// @Description 获取模板可用的评分方法论
// @Tags 元数据
// @Produce json
// @Success 200 {object} APIResponse{data=[]meta.EnumItem}
// @Router /meta/methodologies [get]
func (c *MetaController) GetMethodologies(w http.ResponseWriter, r *http.Request) {
	render.Render(w, r, SuccessResponse("获取评分方法论成功", meta.Methodologies))
}

// @Summary 获取通过条件
// @Description 获取证据绑定可用的通过条件
// @Tags 元数据
// @Produce json
// @Success 200 {object} APIResponse{data=[]meta.EnumItem}
// @Router /meta/pass-conditions [get]
func (c *MetaController) GetPassConditions(w http.ResponseWriter, r *http.Request) {
	render.Render(w, r, SuccessResponse("获取通过条件成功", meta.PassConditions))
}

// @Summary 获取汇总维度
// @Description 获取维度汇总可用的分组维度
// @Tags 元数据
// @Produce json
// @Success 200 {object} APIResponse{data=[]meta.EnumItem}
// @Router /meta/dimensions [get]
func (c *MetaController) GetDimensions(w http.ResponseWriter, r *http.Request) {
	render.Render(w, r, SuccessResponse("获取汇总维度成功", meta.Dimensions))
}

// @Summary 获取整改优先级
// @Description 获取缺口整改优先级及阈值说明
// @Tags 元数据
// @Produce json
// @Success 200 {object} APIResponse{data=[]meta.EnumItem}
// @Router /meta/priorities [get]
func (c *MetaController) GetPriorities(w http.ResponseWriter, r *http.Request) {
	render.Render(w, r, SuccessResponse("获取整改优先级成功", meta.Priorities))
}
