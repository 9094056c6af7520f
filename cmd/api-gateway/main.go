package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/tutorpay-api/api/swagger"
	"github.com/noah-isme/tutorpay-api/internal/gateway"
	"github.com/noah-isme/tutorpay-api/internal/handler"
	"github.com/noah-isme/tutorpay-api/internal/middleware"
	"github.com/noah-isme/tutorpay-api/internal/models"
	"github.com/noah-isme/tutorpay-api/internal/repository"
	"github.com/noah-isme/tutorpay-api/internal/service"
	"github.com/noah-isme/tutorpay-api/pkg/cache"
	"github.com/noah-isme/tutorpay-api/pkg/config"
	"github.com/noah-isme/tutorpay-api/pkg/database"
	"github.com/noah-isme/tutorpay-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/tutorpay-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/tutorpay-api/pkg/middleware/requestid"
	"github.com/noah-isme/tutorpay-api/pkg/storage"
)

// @title TutorPay API
// @version 0.1.0
// @description Teacher compensation reconciliation and payout service
// @BasePath /api/v1
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	redisClient, err := cache.NewRedis(cfg.Redis)
	cacheEnabled := err == nil
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, payroll cache disabled", "error", err)
	} else {
		defer redisClient.Close() //nolint:errcheck
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Salaries.CacheTTL, logr, cacheEnabled)

	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	rateRepo := repository.NewRateRepository(db)
	bonusRepo := repository.NewBonusRepository(db)
	salaryRepo := repository.NewSalaryRepository(db)
	waiverRepo := repository.NewWaiverRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	exportRepo := repository.NewExportRepository(db)

	var payouts gateway.PaymentGateway
	if cfg.Payout.ServerKey != "" {
		payouts = gateway.NewRetryingGateway(
			gateway.NewMidtransGateway(cfg.Payout.ServerKey, cfg.Payout.Production, logr),
			cfg.Payout.RetryAttempts,
			cfg.Payout.RetryBaseWait,
			logr,
		)
	} else {
		logr.Warn("payout server key not configured, payment disbursement disabled")
	}

	timelineSvc := service.NewTimelineService(assignmentRepo, auditRepo, studentRepo, logr)
	compensationSvc := service.NewCompensationService(service.CompensationServiceParams{
		Teachers: teacherRepo,
		Timeline: timelineSvc,
		Sessions: sessionRepo,
		Waivers:  waiverRepo,
		Rates:    rateRepo,
		Bonuses:  bonusRepo,
		Salaries: salaryRepo,
		Students: studentRepo,
		Audits:   auditRepo,
		Payouts:  payouts,
		Cache:    cacheSvc,
		Metrics:  metricsSvc,
		Logger:   logr,
		Payroll:  cfg.Payroll,
		Currency: cfg.Payout.Currency,
		CacheTTL: cfg.Salaries.CacheTTL,
	})
	waiverSvc := service.NewWaiverService(waiverRepo, auditRepo, nil, logr)
	authSvc := service.NewAuthService(service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret})

	salaryHandler := handler.NewSalaryHandler(compensationSvc)
	waiverHandler := handler.NewWaiverHandler(waiverSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	var exportSvc *service.ExportService
	var exportHandler *handler.ExportHandler
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(exportRepo, compensationSvc, store, signer, nil, service.ExportConfig{
			APIPrefix:         cfg.APIPrefix,
			ResultTTL:         cfg.Exports.SignedURLTTL,
			WorkerConcurrency: cfg.Exports.WorkerConcurrency,
			WorkerRetries:     cfg.Exports.WorkerRetries,
		}, logr)
		exportHandler = handler.NewExportHandler(exportSvc)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())
	api.Use(middleware.JWT(authSvc))

	salaries := api.Group("/salaries")
	{
		salaries.GET("", middleware.RBAC(string(models.RoleSuperAdmin), string(models.RoleAdmin), string(models.RoleFinance)), salaryHandler.List)
		salaries.GET("/:teacherId", middleware.RBAC(string(models.RoleSuperAdmin), string(models.RoleAdmin), string(models.RoleFinance), middleware.RoleSelf), salaryHandler.Detail)
		salaries.PUT("/:teacherId/status", middleware.RBAC(string(models.RoleSuperAdmin), string(models.RoleAdmin), string(models.RoleFinance)), salaryHandler.UpdateStatus)
	}

	waivers := api.Group("/waivers", middleware.RBAC(string(models.RoleSuperAdmin), string(models.RoleAdmin)))
	{
		waivers.GET("", waiverHandler.List)
		waivers.POST("", waiverHandler.Create)
		waivers.DELETE("/:id", waiverHandler.Delete)
	}

	if exportHandler != nil {
		exports := api.Group("/exports")
		{
			exports.POST("",
				middleware.RBAC(string(models.RoleSuperAdmin), string(models.RoleAdmin), string(models.RoleFinance)),
				middleware.Audit(auditRepo, models.AuditActionExportRequest, "payroll_exports"),
				exportHandler.Create)
			exports.GET("/:id", middleware.RBAC(string(models.RoleSuperAdmin), string(models.RoleAdmin), string(models.RoleFinance)), exportHandler.Status)
		}
		// Download auth is the signed token itself.
		r.GET(cfg.APIPrefix+"/downloads/:token", exportHandler.Download)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if exportSvc != nil {
		exportSvc.Start(ctx)
		defer exportSvc.Stop()
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
