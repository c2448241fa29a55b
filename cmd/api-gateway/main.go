package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"path"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/gate-violation-api/api/swagger"
	"github.com/noah-isme/gate-violation-api/internal/handler"
	"github.com/noah-isme/gate-violation-api/internal/middleware"
	"github.com/noah-isme/gate-violation-api/internal/models"
	"github.com/noah-isme/gate-violation-api/internal/repository"
	"github.com/noah-isme/gate-violation-api/internal/service"
	"github.com/noah-isme/gate-violation-api/pkg/cache"
	"github.com/noah-isme/gate-violation-api/pkg/config"
	"github.com/noah-isme/gate-violation-api/pkg/database"
	"github.com/noah-isme/gate-violation-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/gate-violation-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/gate-violation-api/pkg/middleware/requestid"
	"github.com/noah-isme/gate-violation-api/pkg/storage"
)

// @title School Gate Violation API
// @version 1.0.0
// @description Records gate events from the vision pipeline and serves the staff dashboard.
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
			redisClient = nil
		}
	}

	disk, err := storage.NewLocalStorage(cfg.Storage.Root, cfg.Storage.URLPrefix)
	if err != nil {
		logr.Fatal("failed to prepare storage", zap.Error(err))
	}
	images := storage.NewImageResolver(cfg.Storage.PublicDir, cfg.Storage.Root, cfg.Storage.URLPrefix)

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}
	validate := service.NewValidator()

	studentRepo := repository.NewStudentRepository(db)
	cardRepo := repository.NewStudentCardRepository(db)
	logRepo := repository.NewAccessLogRepository(db)
	settingRepo := repository.NewSystemSettingRepository(db)
	userRepo := repository.NewUserRepository(db)

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}
	var cacheRepo service.CacheRepository
	if redisClient != nil {
		redisRepo := repository.NewCacheRepository(redisClient, logr)
		defer redisRepo.Close() //nolint:errcheck
		checks["redis"] = redisRepo.Ping
		cacheRepo = redisRepo
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.DashboardTTL, logr, cfg.Cache.Enabled && redisClient != nil)

	resolver := service.NewResolver(studentRepo, cardRepo, logr)
	evidence := service.NewEvidenceService(disk, service.EvidenceConfig{
		MaxBytes:     cfg.Evidence.MaxFileSizeBytes,
		AllowedMIMEs: cfg.Evidence.AllowedMIMEs,
		Namespace:    cfg.Evidence.Namespace,
	}, logr)
	violationSvc := service.NewViolationService(service.ViolationServiceParams{
		Resolver:  resolver,
		Logs:      logRepo,
		Evidence:  evidence,
		Cache:     cacheSvc,
		Metrics:   metricsSvc,
		Validator: validate,
		Logger:    logr,
	})
	checkSvc := service.NewCheckService(resolver, metricsSvc, validate, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Students: studentRepo,
		Cards:    cardRepo,
		Logs:     logRepo,
		Cache:    cacheSvc,
		Logger:   logr,
		Config: service.DashboardServiceConfig{
			CacheTTL: cfg.Cache.DashboardTTL,
			Timezone: cfg.Display.Timezone,
		},
	})
	statisticsSvc := service.NewStatisticsService(service.StatisticsServiceParams{
		Students: studentRepo,
		Cards:    cardRepo,
		Logs:     logRepo,
		Cache:    cacheSvc,
		Logger:   logr,
		CacheTTL: cfg.Cache.StatisticsTTL,
	})
	reportSvc := service.NewReportService(service.ReportServiceParams{
		Logs:      logRepo,
		Images:    images,
		Validator: validate,
		Logger:    logr,
		Timezone:  cfg.Display.Timezone,
	})
	studentSvc := service.NewStudentService(studentRepo, cardRepo, cacheSvc, validate, logr)
	settingSvc := service.NewSettingService(settingRepo, validate, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	violationAPI := handler.NewViolationAPIHandler(violationSvc)
	checkAPI := handler.NewCheckAPIHandler(checkSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc, statisticsSvc)
	violationHandler := handler.NewViolationHandler(reportSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	settingHandler := handler.NewSettingHandler(settingSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)

	r := gin.New()
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc, "/metrics"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if metricsSvc != nil {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	r.Static(path.Join("/", disk.URLPrefix()), disk.BaseDir())

	vision := r.Group("/api")
	vision.Use(middleware.APIRecovery(logr))
	vision.POST("/violations", violationAPI.Store)
	vision.POST("/check", checkAPI.Check)
	vision.GET("/students/:card_code", checkAPI.Lookup)

	admin := r.Group(cfg.APIPrefix)
	admin.Use(gin.Recovery(), middleware.WithResponseMeta())
	admin.POST("/auth/login", authHandler.Login)

	secured := admin.Group("")
	secured.Use(middleware.JWT(authSvc))
	secured.GET("/auth/me", authHandler.Me)
	secured.GET("/dashboard", dashboardHandler.Overview)
	secured.GET("/statistics", dashboardHandler.Statistics)
	secured.GET("/violations", violationHandler.List)
	secured.GET("/violations/export/pdf", violationHandler.ExportPDF)
	secured.GET("/violations/export/csv", violationHandler.ExportCSV)
	secured.GET("/students", studentHandler.List)
	secured.GET("/students/:id", studentHandler.Get)
	secured.GET("/students/:id/cards", studentHandler.ListCards)
	secured.GET("/settings", settingHandler.List)
	secured.GET("/settings/:key", settingHandler.Get)

	managers := secured.Group("")
	managers.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))
	managers.POST("/students", studentHandler.Create)
	managers.PUT("/students/:id", studentHandler.Update)
	managers.POST("/students/:id/cards", studentHandler.IssueCard)
	managers.DELETE("/cards/:id", studentHandler.DeactivateCard)
	managers.PUT("/settings/:key", settingHandler.Upsert)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "api_prefix", cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
