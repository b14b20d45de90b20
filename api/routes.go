/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @documentReference docs/assessment_engine.md
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs api/controllers/assessment_controller.go
 */

package api

import (
	"context"

	"metahub-service/api/controllers"
	"metahub-service/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// Handlers 路由依赖的控制器
type Handlers struct {
	Health     *controllers.HealthController
	Meta       *controllers.MetaController
	Catalog    *controllers.CatalogController
	Evidence   *controllers.EvidenceController
	Assessment *controllers.AssessmentController
}

// InitRoute 使用全局服务初始化所有API路由
func InitRoute(r *chi.Mux) {
	checks := map[string]controllers.ReadinessCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := service.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	Mount(r, Handlers{
		Health:     controllers.NewHealthController(checks),
		Meta:       controllers.NewMetaController(),
		Catalog:    controllers.NewCatalogController(service.GlobalCatalog),
		Evidence:   controllers.NewEvidenceController(service.GlobalEvidenceStore),
		Assessment: controllers.NewAssessmentController(service.GlobalAssessmentService, service.GlobalAssessmentScheduler),
	})
}

// Mount 挂载中间件与路由
func Mount(r chi.Router, h Handlers) {
	// 基础中间件
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 健康检查
	r.Get("/health", h.Health.Health)
	r.Get("/ready", h.Health.Ready)

	// 元数据
	r.Route("/meta", func(r chi.Router) {
		r.Get("/states", h.Meta.GetStates)
		r.Get("/statuses", h.Meta.GetStatuses)
		r.Get("/methodologies", h.Meta.GetMethodologies)
		r.Get("/pass-conditions", h.Meta.GetPassConditions)
		r.Get("/dimensions", h.Meta.GetDimensions)
		r.Get("/priorities", h.Meta.GetPriorities)
	})

	// 评估目录
	r.Route("/catalog", func(r chi.Router) {
		r.Get("/fields", h.Catalog.GetFields)
		r.Get("/signals", h.Catalog.GetSignals)
		r.Get("/parameters", h.Catalog.GetParameters)
		r.Get("/templates", h.Catalog.GetTemplates)
		r.Get("/templates/{id}", h.Catalog.GetTemplate)
		r.Get("/profiles", h.Catalog.GetProfiles)
		r.Post("/reconcile", h.Catalog.Reconcile)
	})

	// 证据
	r.Route("/evidence", func(r chi.Router) {
		r.Post("/", h.Evidence.Append)
		r.Get("/{asset_key}", h.Evidence.GetLatest)
		r.Get("/{asset_key}/{evidence_key}/history", h.Evidence.GetHistory)
	})

	// 评估运行与分析
	r.Route("/assessments", func(r chi.Router) {
		r.Post("/runs", h.Assessment.TriggerRun)
		r.Get("/runs", h.Assessment.ListRuns)
		r.Get("/runs/{id}", h.Assessment.GetRun)
		r.Get("/runs/{id}/parameter-results", h.Assessment.GetParameterResults)
		r.Get("/runs/{id}/assessment-results", h.Assessment.GetAssessmentResults)
		r.Get("/compare", h.Assessment.Compare)
		r.Post("/evaluate", h.Assessment.Evaluate)

		r.Post("/gaps", h.Assessment.GapReport)
		r.Post("/plan", h.Assessment.Plan)
		r.Post("/rollup", h.Assessment.Rollup)
		r.Post("/field-presence", h.Assessment.FieldPresence)

		r.Get("/cache/stats", h.Assessment.CacheStats)
		r.Delete("/cache", h.Assessment.InvalidateCache)

		r.Get("/schedules", h.Assessment.GetSchedules)
		r.Post("/schedules/{id}/run", h.Assessment.RunSchedule)
	})
}
