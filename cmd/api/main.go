package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/tahfizku/tahfiz-api/api/swagger"
	"github.com/tahfizku/tahfiz-api/internal/handler"
	"github.com/tahfizku/tahfiz-api/internal/middleware"
	"github.com/tahfizku/tahfiz-api/internal/models"
	"github.com/tahfizku/tahfiz-api/internal/repository"
	"github.com/tahfizku/tahfiz-api/internal/service"
	"github.com/tahfizku/tahfiz-api/pkg/cache"
	"github.com/tahfizku/tahfiz-api/pkg/config"
	"github.com/tahfizku/tahfiz-api/pkg/database"
	"github.com/tahfizku/tahfiz-api/pkg/logger"
	corsmiddleware "github.com/tahfizku/tahfiz-api/pkg/middleware/cors"
	reqidmiddleware "github.com/tahfizku/tahfiz-api/pkg/middleware/requestid"
	"github.com/tahfizku/tahfiz-api/pkg/storage"
)

// @title Tahfiz API
// @version 0.1.0
// @description Curriculum progress and assessment engine for Quran schools
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, curriculum cache disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()

	// repositories
	curriculumRepo := repository.NewCurriculumRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	examRepo := repository.NewExamRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	userRepo := repository.NewUserRepository(db)

	// services
	metricsSvc := service.NewMetricsService()
	curriculumSvc := service.NewCurriculumService(curriculumRepo, redisClient, cfg.Curriculum.CacheTTL, logr)
	progressSvc := service.NewProgressService(sessionRepo, positionRepo, curriculumSvc, validate, logr, cfg.Progress.AdvanceRetries, cfg.Progress.HistoryLimit)
	examSvc := service.NewExamService(examRepo, validate, logr)
	calendarSvc := service.NewCalendarService(scheduleRepo, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, calendarSvc, validate, logr)
	authSvc := service.NewAuthService(userRepo, service.AuthConfig{Secret: cfg.JWT.Secret, Expiration: cfg.JWT.Expiration}, validate, logr)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		archive, err := storage.NewArchive(cfg.Exports.Dir)
		if err != nil {
			logr.Sugar().Fatalw("failed to prepare export archive", "error", err)
		}
		signer := storage.NewDownloadSigner(cfg.JWT.Secret, cfg.Exports.LinkTTL)
		exportSvc = service.NewExportService(examSvc, archive, signer, logr)
		exportSvc.Start(context.Background())
		defer exportSvc.Stop()
		go func() {
			ticker := time.NewTicker(6 * time.Hour)
			defer ticker.Stop()
			for range ticker.C {
				exportSvc.CleanupArchive(cfg.Exports.ArchiveTTL)
			}
		}()
	}

	// handlers
	progressHandler := handler.NewProgressHandler(progressSvc)
	var examHandler *handler.ExamHandler
	if exportSvc != nil {
		examHandler = handler.NewExamHandler(examSvc, exportSvc)
	} else {
		examHandler = handler.NewExamHandler(examSvc, nil)
	}
	calendarHandler := handler.NewCalendarHandler(calendarSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	curriculumHandler := handler.NewCurriculumHandler(curriculumSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Scrape)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	staff := authed.Group("", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher))
	adminOnly := authed.Group("", middleware.RequireRoles(models.RoleAdmin))

	staff.GET("/curriculum/units", curriculumHandler.ListUnits)
	staff.GET("/curriculum/units/:ordinal", curriculumHandler.GetUnit)

	staff.POST("/sessions", progressHandler.RecordSession)
	staff.GET("/students/:id/position", progressHandler.GetPosition)
	staff.GET("/students/:id/history", progressHandler.GetHistory)

	staff.POST("/exams/batches", examHandler.RecordBatch)
	staff.PUT("/exams/batches", examHandler.EditBatch)
	adminOnly.DELETE("/exams/batches", examHandler.DeleteBatch)
	staff.PATCH("/exams/entries/:id", examHandler.EditEntry)
	adminOnly.DELETE("/exams/entries/:id", examHandler.DeleteEntry)
	staff.GET("/classes/:id/performance", examHandler.Performance)
	staff.GET("/classes/:id/ranking", examHandler.Ranking)
	staff.GET("/classes/:id/ranking/export", examHandler.ExportRanking)
	if exportSvc != nil {
		exportHandler := handler.NewExportHandler(exportSvc)
		staff.GET("/classes/:id/ranking/export-link", exportHandler.DownloadLink)
		staff.GET("/exports/:token", exportHandler.Download)
	}

	staff.GET("/classes/:id/school-day", calendarHandler.SchoolDay)
	staff.POST("/attendance", attendanceHandler.Record)
	staff.GET("/classes/:id/attendance", attendanceHandler.Sheet)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
