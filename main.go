package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"metahub-service/api"
	_ "metahub-service/docs"
	"metahub-service/logger"
	"metahub-service/service"
	"metahub-service/service/config"

	daprd "github.com/dapr/go-sdk/service/http"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title 元数据评估服务 API
// @version 1.0
// @description 基于证据绑定的元数据质量评估与评分引擎，提供评估运行、台账查询、缺口分析与整改计划
// @BasePath /swagger/metahub-service
func main() {
	logger.InitLogger()
	settings := config.Load()

	if err := service.Init(settings); err != nil {
		slog.Error("服务初始化失败", "error", err)
		os.Exit(1)
	}

	mux := chi.NewRouter()

	// 如果有BASE_CONTEXT，则在该路径下挂载所有路由
	if settings.BaseContext != "" {
		mux.Route(settings.BaseContext, func(r chi.Router) {
			// 创建子路由器并初始化路由
			subMux := r.(*chi.Mux)
			api.InitRoute(subMux)
			r.Handle("/metrics", promhttp.Handler())
			r.Handle("/swagger*", httpSwagger.WrapHandler)
		})
	} else {
		api.InitRoute(mux)
		mux.Handle("/metrics", promhttp.Handler())
		mux.Handle("/swagger*", httpSwagger.WrapHandler)
	}

	s := daprd.NewServiceWithMux(":"+strconv.Itoa(settings.Port), mux)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		slog.Info("收到退出信号，停止服务")
		if err := s.GracefulStop(); err != nil {
			slog.Error("停止服务失败", "error", err)
		}
	}()

	slog.Info("服务启动", "port", settings.Port, "base_context", settings.BaseContext)
	err := s.Start()
	service.Shutdown()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("服务运行失败", "error", err)
		os.Exit(1)
	}
}
