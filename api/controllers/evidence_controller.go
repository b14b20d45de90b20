/*
 * @module api/controllers/evidence_controller
 * @description 证据控制器，提供证据观测追加、最新视图与历史查询
 * @architecture MVC架构 - 控制器层
 * @documentReference docs/assessment_engine.md
 * @stateFlow HTTP请求 -> 参数校验 -> 证据存储 -> 统一响应
 * @rules 证据只追加不修改；批量追加要么全部写入要么全部拒绝
 * @dependencies metahub-service/service/evidence, github.com/go-chi/render
 * @refs service/evidence/store.go
 */

package controllers

import (
	"errors"
	"net/http"

	"metahub-service/service/evidence"
	"metahub-service/service/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// EvidenceController 证据控制器
type EvidenceController struct {
	store evidence.Store
}

// NewEvidenceController 创建证据控制器
func NewEvidenceController(store evidence.Store) *EvidenceController {
	return &EvidenceController{store: store}
}

// AppendEvidenceRequest 追加证据请求
type AppendEvidenceRequest struct {
	Observations []*models.EvidenceObservation `json:"observations"`
}

// AppendEvidenceResponse 追加证据结果
type AppendEvidenceResponse struct {
	Appended int `json:"appended"`
}

// Append 追加证据观测
// @Summary 追加证据观测
// @Description 批量追加证据观测，缺少资产键或证据键时整批拒绝
// @Tags 证据
// @Accept json
// @Produce json
// @Param request body AppendEvidenceRequest true "证据观测"
// @Success 200 {object} APIResponse{data=AppendEvidenceResponse}
// @Failure 400 {object} APIResponse
// @Router /evidence [post]
func (c *EvidenceController) Append(w http.ResponseWriter, r *http.Request) {
	var req AppendEvidenceRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}
	if len(req.Observations) == 0 {
		render.Render(w, r, BadRequestResponse("证据观测不能为空", nil))
		return
	}
	if err := c.store.Append(r.Context(), req.Observations...); err != nil {
		if errors.Is(err, evidence.ErrInvalidObservation) {
			render.Render(w, r, BadRequestResponse("证据观测无效", err))
			return
		}
		render.Render(w, r, InternalErrorResponse("追加证据失败", err))
		return
	}
	render.Render(w, r, SuccessResponse("追加证据成功", AppendEvidenceResponse{Appended: len(req.Observations)}))
}

// GetLatest 获取资产最新证据视图
// @Summary 获取资产最新证据视图
// @Description 每个证据键只返回最新一条观测
// @Tags 证据
// @Produce json
// @Param asset_key path string true "资产键"
// @Success 200 {object} APIResponse{data=[]models.EvidenceObservation}
// @Router /evidence/{asset_key} [get]
func (c *EvidenceController) GetLatest(w http.ResponseWriter, r *http.Request) {
	assetKey := chi.URLParam(r, "asset_key")
	snap, err := c.store.LatestView(r.Context(), []string{assetKey})
	if err != nil {
		render.Render(w, r, InternalErrorResponse("获取最新证据失败", err))
		return
	}
	rows := snap.AssetRows(assetKey)
	if rows == nil {
		rows = []models.EvidenceObservation{}
	}
	render.Render(w, r, SuccessResponse("获取最新证据成功", rows))
}

// GetHistory 获取证据历史
// @Summary 获取证据历史
// @Description 按观测时间升序返回某资产某证据键的全部观测
// @Tags 证据
// @Produce json
// @Param asset_key path string true "资产键"
// @Param evidence_key path string true "证据键"
// @Success 200 {object} APIResponse{data=[]models.EvidenceObservation}
// @Router /evidence/{asset_key}/{evidence_key}/history [get]
func (c *EvidenceController) GetHistory(w http.ResponseWriter, r *http.Request) {
	rows, err := c.store.History(r.Context(), chi.URLParam(r, "asset_key"), chi.URLParam(r, "evidence_key"))
	if err != nil {
		render.Render(w, r, InternalErrorResponse("获取证据历史失败", err))
		return
	}
	if rows == nil {
		rows = []models.EvidenceObservation{}
	}
	render.Render(w, r, SuccessResponse("获取证据历史成功", rows))
}
