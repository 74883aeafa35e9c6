package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/jlintlin/Grade-Converter/api/swagger"
	"github.com/jlintlin/Grade-Converter/internal/handler"
	"github.com/jlintlin/Grade-Converter/internal/middleware"
	"github.com/jlintlin/Grade-Converter/internal/repository"
	"github.com/jlintlin/Grade-Converter/internal/service"
	"github.com/jlintlin/Grade-Converter/pkg/cache"
	"github.com/jlintlin/Grade-Converter/pkg/config"
	"github.com/jlintlin/Grade-Converter/pkg/logger"
	corsmiddleware "github.com/jlintlin/Grade-Converter/pkg/middleware/cors"
	reqidmiddleware "github.com/jlintlin/Grade-Converter/pkg/middleware/requestid"
)

// @title Canvas Grade Converter API
// @version 1.0.0
// @description Privacy-focused API converting Canvas gradebook exports into weighted letter-grade reports. All data is held in memory only.
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	var sessionRepo service.SessionRepository
	if cfg.Sessions.Backend == config.SessionBackendRedis {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect redis", "error", err)
		}
		defer client.Close() //nolint:errcheck
		sessionRepo = repository.NewRedisSessionRepository(client, cfg.Sessions.TTL)
	} else {
		sessionRepo = repository.NewMemorySessionRepository(cfg.Sessions.TTL)
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	sessions := service.NewSessionService(sessionRepo, logr)
	parser := service.NewParserService(logr)
	grading := service.NewGradingService(validate, logr)
	exports := service.NewExportService(nil, nil, logr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sessions.StartSweeper(ctx, cfg.Sessions.CleanupInterval)

	gradebooks := handler.NewGradebookHandler(parser, sessions, metricsSvc, cfg.Upload.MaxFileSizeBytes)
	grades := handler.NewGradeHandler(grading, sessions, exports, metricsSvc, cfg.Grading)
	metrics := handler.NewMetricsHandler(metricsSvc, sessions)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metrics.Health)
	r.GET("/ready", metrics.Ready)
	r.GET("/metrics", metrics.Prometheus)

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/gradebooks", gradebooks.Upload)
		api.GET("/gradebooks/:id", gradebooks.Get)
		api.DELETE("/gradebooks/:id", gradebooks.Delete)
		api.POST("/gradebooks/:id/calculate", grades.Calculate)
		api.POST("/gradebooks/:id/export", grades.Export)
		api.GET("/grading-scale/default", grades.DefaultScale)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "session_backend", cfg.Sessions.Backend)
	if err := r.Run(addr); err != nil && err != http.ErrServerClosed {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
