/*
 * @module api/controllers/health_controller
 * @description 健康检查控制器，提供服务存活与就绪状态检查
 * @architecture MVC架构 - 控制器层
 * @documentReference docs/assessment_engine.md
 * @stateFlow HTTP请求处理流程
 * @rules 存活检查不依赖外部组件；就绪检查依次执行注册的依赖检查
 * @dependencies github.com/go-chi/render
 * @refs api/routes.go
 */

package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// ReadinessCheck 依赖就绪检查
type ReadinessCheck func(ctx context.Context) error

// HealthController 健康检查控制器
type HealthController struct {
	checks map[string]ReadinessCheck
}

// NewHealthController 创建健康检查控制器实例
func NewHealthController(checks map[string]ReadinessCheck) *HealthController {
	return &HealthController{checks: checks}
}

// HealthResponse 健康检查响应结构
type HealthResponse struct {
	Status    string            `json:"status" example:"ok"`
	Timestamp time.Time         `json:"timestamp" example:"2024-01-01T00:00:00Z"`
	Version   string            `json:"version" example:"1.0.0"`
	Service   string            `json:"service" example:"metahub-service"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Health 健康检查
// @Summary 健康检查
// @Description 检查服务健康状态
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Service:   "metahub-service",
	})
}

// Ready 就绪检查
// @Summary 就绪检查
// @Description 检查数据库等依赖是否就绪
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /ready [get]
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Service:   "metahub-service",
		Checks:    make(map[string]string, len(c.checks)),
	}
	for name, check := range c.checks {
		if err := check(ctx); err != nil {
			response.Status = "not_ready"
			response.Checks[name] = err.Error()
			continue
		}
		response.Checks[name] = "ok"
	}
	if response.Status != "ready" {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, response)
}
