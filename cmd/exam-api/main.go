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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/uni-exam-api/api/swagger"
	"github.com/noah-isme/uni-exam-api/internal/handler"
	"github.com/noah-isme/uni-exam-api/internal/middleware"
	"github.com/noah-isme/uni-exam-api/internal/models"
	"github.com/noah-isme/uni-exam-api/internal/repository"
	"github.com/noah-isme/uni-exam-api/internal/service"
	"github.com/noah-isme/uni-exam-api/pkg/cache"
	"github.com/noah-isme/uni-exam-api/pkg/config"
	"github.com/noah-isme/uni-exam-api/pkg/database"
	"github.com/noah-isme/uni-exam-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/uni-exam-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/uni-exam-api/pkg/middleware/requestid"
	"github.com/noah-isme/uni-exam-api/pkg/storage"
)

// @title University Exam Timetabling API
// @version 1.0.0
// @description Conflict-free exam timetable generation, room assignment and publication.
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close() //nolint:errcheck
		}
	}

	// Repositories.
	courseRepo := repository.NewCourseRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	examRepo := repository.NewExamRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, 10*time.Minute, logr, redisClient != nil)
	courseSvc := service.NewCourseService(courseRepo, nil, logr)
	instructorSvc := service.NewInstructorService(instructorRepo, nil, logr)
	classroomSvc := service.NewClassroomService(classroomRepo, nil, logr)
	studentSvc := service.NewStudentService(studentRepo, courseRepo, nil, logr)
	scheduleSvc := service.NewScheduleService(snapshotRepo, examRepo, cacheSvc, metricsSvc, nil, logr, service.ScheduleConfig{
		DayStart:     cfg.Scheduler.DayStart,
		DayEnd:       cfg.Scheduler.DayEnd,
		SlotMinutes:  cfg.Scheduler.SlotMinutes,
		NodeBudget:   cfg.Scheduler.NodeBudget,
		Workers:      cfg.Scheduler.Workers,
		SolveTimeout: cfg.Scheduler.SolveTimeout,
		ProposalTTL:  cfg.Scheduler.ProposalTTL,
	})
	importSvc := service.NewImportService(courseRepo, instructorRepo, classroomRepo, studentRepo, logr)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(scheduleSvc, store, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Exports.SignedURLTTL,
			Workers:   cfg.Exports.WorkerConcurrency,
		}, logr)
	}

	// Handlers.
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	instructorHandler := handler.NewInstructorHandler(instructorSvc)
	classroomHandler := handler.NewClassroomHandler(classroomSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	importHandler := handler.NewImportHandler(importSvc, cfg.Imports.MaxFileBytes)
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
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/schedule", scheduleHandler.Published)
	api.GET("/metrics/summary", metricsHandler.Summary)

	auth := api.Group("")
	auth.Use(middleware.JWT(cfg.JWT.Secret))
	staff := auth.Group("")
	staff.Use(middleware.RBAC(models.RoleAdmin, models.RoleScheduler))
	{
		staff.POST("/schedule/generate", scheduleHandler.Generate)
		staff.POST("/schedule/commit", scheduleHandler.Commit)

		staff.GET("/courses", courseHandler.List)
		staff.GET("/courses/:id", courseHandler.Get)
		staff.POST("/courses", courseHandler.Create)
		staff.PUT("/courses/:id", courseHandler.Update)
		staff.DELETE("/courses/:id", courseHandler.Delete)
		staff.GET("/courses/:id/enrollments", studentHandler.Enrollments)
		staff.POST("/courses/:id/enrollments", studentHandler.Enroll)
		staff.DELETE("/courses/:id/enrollments/:studentId", studentHandler.Unenroll)

		staff.GET("/instructors", instructorHandler.List)
		staff.GET("/instructors/:id", instructorHandler.Get)
		staff.POST("/instructors", instructorHandler.Create)
		staff.PUT("/instructors/:id", instructorHandler.Update)
		staff.GET("/instructors/:id/availability", instructorHandler.Availability)
		staff.PUT("/instructors/:id/availability", instructorHandler.ReplaceAvailability)

		staff.GET("/classrooms", classroomHandler.List)
		staff.GET("/classrooms/proximity", classroomHandler.Proximity)
		staff.PUT("/classrooms/proximity", classroomHandler.SetProximity)
		staff.GET("/classrooms/:id", classroomHandler.Get)
		staff.POST("/classrooms", classroomHandler.Create)
		staff.PUT("/classrooms/:id", classroomHandler.Update)

		staff.POST("/students", studentHandler.Create)
		staff.GET("/students/:id", studentHandler.Get)

		if cfg.Imports.Enabled {
			staff.POST("/imports/:kind", importHandler.Upload)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if exportSvc != nil {
		exportHandler := handler.NewExportHandler(exportSvc)
		staff.POST("/exports", exportHandler.Request)
		staff.GET("/exports/:id", exportHandler.Status)
		// Downloads carry their own signed token, no bearer required.
		api.GET("/exports/download/:token", exportHandler.Download)

		exportSvc.Start(ctx)
		defer exportSvc.Stop()

		go func() {
			ticker := time.NewTicker(cfg.Exports.CleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					exportSvc.CleanupExpired()
				}
			}
		}()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
