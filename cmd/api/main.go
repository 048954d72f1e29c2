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
	"github.com/go-playground/validator/v10"

	_ "github.com/saat-tool/saat-api/api/swagger"
	"github.com/saat-tool/saat-api/internal/handler"
	"github.com/saat-tool/saat-api/internal/repository"
	"github.com/saat-tool/saat-api/internal/router"
	"github.com/saat-tool/saat-api/internal/service"
	"github.com/saat-tool/saat-api/pkg/cache"
	"github.com/saat-tool/saat-api/pkg/config"
	"github.com/saat-tool/saat-api/pkg/database"
	"github.com/saat-tool/saat-api/pkg/jobs"
	"github.com/saat-tool/saat-api/pkg/logger"
	"github.com/saat-tool/saat-api/pkg/storage"
)

// @title SAAT API
// @version 0.1.0
// @description Smart assignment assessment tool
// @BasePath /api/v1
// @schemes http

const staleJobCutoff = 15 * time.Minute

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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var cacheRepo *repository.CacheRepository
	if cfg.Cache.Enabled || cfg.Drafts.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close()
		cacheRepo = repository.NewCacheRepository(redisClient)
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	moduleRepo := repository.NewModuleRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	schemeRepo := repository.NewSchemeRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	artifactRepo := repository.NewArtifactRepository(db)
	marksRepo := repository.NewMarksRepository(db)
	annotationRepo := repository.NewAnnotationRepository(db)
	reportJobRepo := repository.NewReportJobRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "saat-api",
	})

	moduleSvc := service.NewModuleService(moduleRepo, validate, logr)

	var assignmentSvc *service.AssignmentService
	var schemeSvc *service.SchemeService
	if cfg.Cache.Enabled && cacheRepo != nil {
		assignmentSvc = service.NewAssignmentService(assignmentRepo, moduleRepo, cacheRepo, validate, logr)
		schemeSvc = service.NewSchemeService(schemeRepo, assignmentRepo, cacheRepo, cfg.Cache.TTL, validate, logr)
	} else {
		assignmentSvc = service.NewAssignmentService(assignmentRepo, moduleRepo, nil, validate, logr)
		schemeSvc = service.NewSchemeService(schemeRepo, assignmentRepo, nil, cfg.Cache.TTL, validate, logr)
	}

	schemeSvc.SetMetrics(metrics)

	var draftSvc *service.DraftService
	if cfg.Drafts.Enabled && cacheRepo != nil {
		draftSvc = service.NewDraftService(cacheRepo, cfg.Drafts.TTL, validate, logr)
	}

	var submissionSvc *service.SubmissionService
	if draftSvc != nil {
		submissionSvc = service.NewSubmissionService(submissionRepo, artifactRepo, assignmentRepo, draftSvc, validate, logr)
	} else {
		submissionSvc = service.NewSubmissionService(submissionRepo, artifactRepo, assignmentRepo, nil, validate, logr)
	}

	marksSvc := service.NewMarksService(marksRepo, schemeSvc, validate, logr)
	artifactSvc := service.NewArtifactService(artifactRepo, validate, logr)
	annotationSvc := service.NewAnnotationService(annotationRepo, artifactRepo, validate, logr)
	publishSvc := service.NewPublishService(artifactRepo, assignmentRepo, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var reportSvc *service.ReportService
	var reportQueue *jobs.Queue
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)

		reportSvc = service.NewReportService(
			reportJobRepo,
			submissionRepo,
			assignmentRepo,
			moduleRepo,
			schemeSvc,
			marksRepo,
			marksSvc,
			store,
			signer,
			validate,
			logr,
		)
		reportQueue = jobs.NewQueue("reports", reportSvc.Process, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		reportSvc.SetQueue(reportQueue)
		reportQueue.Start(ctx)
		defer reportQueue.Stop()

		reportSvc.RecoverStale(ctx, staleJobCutoff)

		go func() {
			ticker := time.NewTicker(cfg.Reports.CleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					reportSvc.CleanupExpired(ctx, cfg.Reports.SignedURLTTL)
				}
			}
		}()
	}

	deps := router.Deps{
		Config:  cfg,
		Logger:  logr,
		Auth:    authSvc,
		Metrics: metrics,
		Users:   userRepo,

		AuthHandler:       handler.NewAuthHandler(authSvc),
		ModuleHandler:     handler.NewModuleHandler(moduleSvc),
		AssignmentHandler: handler.NewAssignmentHandler(assignmentSvc),
		SchemeHandler:     handler.NewSchemeHandler(schemeSvc),
		SubmissionHandler: handler.NewSubmissionHandler(submissionSvc, metrics),
		ArtifactHandler:   handler.NewArtifactHandler(artifactSvc),
		AnnotationHandler: handler.NewAnnotationHandler(annotationSvc),
		MarksHandler:      handler.NewMarksHandler(marksSvc, metrics),
		PublishHandler:    handler.NewPublishHandler(publishSvc, metrics),
		MetricsHandler:    handler.NewMetricsHandler(metrics),
	}
	if draftSvc != nil {
		deps.DraftHandler = handler.NewDraftHandler(draftSvc)
	}
	if reportSvc != nil {
		deps.ReportHandler = handler.NewReportHandler(reportSvc, metrics)
	}

	engine := router.New(deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
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
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
