package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/saat-tool/saat-api/internal/handler"
	"github.com/saat-tool/saat-api/internal/middleware"
	"github.com/saat-tool/saat-api/internal/models"
	"github.com/saat-tool/saat-api/internal/repository"
	"github.com/saat-tool/saat-api/internal/service"
	"github.com/saat-tool/saat-api/pkg/config"
	"github.com/saat-tool/saat-api/pkg/logger"
	corsmiddleware "github.com/saat-tool/saat-api/pkg/middleware/cors"
	reqidmiddleware "github.com/saat-tool/saat-api/pkg/middleware/requestid"
)

// Deps bundles everything the router needs.
type Deps struct {
	Config  *config.Config
	Logger  *zap.Logger
	Auth    *service.AuthService
	Metrics *service.MetricsService
	Users   *repository.UserRepository

	AuthHandler       *handler.AuthHandler
	ModuleHandler     *handler.ModuleHandler
	AssignmentHandler *handler.AssignmentHandler
	SchemeHandler     *handler.SchemeHandler
	SubmissionHandler *handler.SubmissionHandler
	ArtifactHandler   *handler.ArtifactHandler
	AnnotationHandler *handler.AnnotationHandler
	MarksHandler      *handler.MarksHandler
	PublishHandler    *handler.PublishHandler
	DraftHandler      *handler.DraftHandler
	ReportHandler     *handler.ReportHandler
	MetricsHandler    *handler.MetricsHandler
}

const (
	roleAdmin   = string(models.RoleAdmin)
	roleTeacher = string(models.RoleTeacher)
)

// New assembles the gin engine with all routes and middleware.
func New(deps Deps) *gin.Engine {
	cfg := deps.Config

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/health", deps.MetricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", deps.MetricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", deps.AuthHandler.Login)
		auth.POST("/refresh", deps.AuthHandler.Refresh)

		authed := auth.Group("")
		authed.Use(middleware.JWT(deps.Auth))
		authed.POST("/logout", middleware.Audit(deps.Users, models.AuditActionLogout, "auth"), deps.AuthHandler.Logout)
		authed.PUT("/password", middleware.Audit(deps.Users, models.AuditActionPasswordChange, "auth"), deps.AuthHandler.ChangePassword)
		authed.GET("/me", deps.AuthHandler.Me)
	}

	// Download links carry their own HMAC token so they stay outside the JWT
	// group. Browsers follow them without an Authorization header.
	if deps.ReportHandler != nil {
		api.GET("/downloads/reports", deps.ReportHandler.Download)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(deps.Auth))

	modules := protected.Group("/modules")
	{
		modules.GET("", deps.ModuleHandler.List)
		modules.POST("", middleware.RBAC(roleAdmin, roleTeacher), deps.ModuleHandler.Create)
		modules.GET("/:id", deps.ModuleHandler.Get)
		modules.PUT("/:id", middleware.RBAC(roleAdmin, roleTeacher), deps.ModuleHandler.Update)
		modules.DELETE("/:id", middleware.RBAC(roleAdmin), deps.ModuleHandler.Delete)

		modules.GET("/:id/assignments", deps.AssignmentHandler.ListByModule)
		modules.POST("/:id/assignments", middleware.RBAC(roleAdmin, roleTeacher), deps.AssignmentHandler.Create)
	}

	assignments := protected.Group("/assignments")
	{
		assignments.GET("/:id", deps.AssignmentHandler.Get)
		assignments.PUT("/:id", middleware.RBAC(roleAdmin, roleTeacher), deps.AssignmentHandler.Update)
		assignments.DELETE("/:id", middleware.RBAC(roleAdmin, roleTeacher), deps.AssignmentHandler.Delete)

		assignments.GET("/:id/scheme", deps.SchemeHandler.Resolve)
		assignments.GET("/:id/schemes", middleware.RBAC(roleAdmin, roleTeacher), deps.SchemeHandler.ListByAssignment)
		assignments.POST("/:id/schemes", middleware.RBAC(roleAdmin, roleTeacher), deps.SchemeHandler.Create)

		assignments.GET("/:id/marks", middleware.RBAC(roleAdmin, roleTeacher), deps.MarksHandler.Sheet)
		assignments.PUT("/:id/marks", middleware.RBAC(roleAdmin, roleTeacher), deps.MarksHandler.Save)

		assignments.POST("/:id/publish",
			middleware.RBAC(roleAdmin, roleTeacher),
			middleware.Audit(deps.Users, models.AuditActionPublish, "assignment"),
			deps.PublishHandler.Publish)

		assignments.GET("/:id/submissions", middleware.RBAC(roleAdmin, roleTeacher), deps.SubmissionHandler.ListByAssignment)

		pair := middleware.RBAC(roleAdmin, roleTeacher, "SELF")
		assignments.POST("/:id/submissions/:studentId", pair, deps.SubmissionHandler.Ensure)
		assignments.GET("/:id/submissions/:studentId", pair, deps.SubmissionHandler.GetByPair)
		assignments.POST("/:id/submissions/:studentId/code", pair, deps.SubmissionHandler.SubmitCode)
		assignments.POST("/:id/submissions/:studentId/report", pair, deps.SubmissionHandler.SubmitReport)
		assignments.POST("/:id/submissions/:studentId/video", pair, deps.SubmissionHandler.SubmitVideo)

		if deps.DraftHandler != nil {
			draftAccess := middleware.RBAC(roleAdmin, "SELF")
			assignments.PUT("/:id/drafts/:studentId", draftAccess, deps.DraftHandler.Save)
			assignments.GET("/:id/drafts/:studentId", draftAccess, deps.DraftHandler.Get)
			assignments.DELETE("/:id/drafts/:studentId", draftAccess, deps.DraftHandler.Clear)
		}
	}

	schemes := protected.Group("/schemes")
	schemes.Use(middleware.RBAC(roleAdmin, roleTeacher))
	{
		schemes.GET("/:id", deps.SchemeHandler.Get)
		schemes.PUT("/:id", deps.SchemeHandler.Update)
		schemes.DELETE("/:id", deps.SchemeHandler.Delete)
	}

	protected.GET("/submissions/:id", middleware.RBAC(roleAdmin, roleTeacher), deps.SubmissionHandler.Get)

	artifacts := protected.Group("/artifacts")
	{
		artifacts.GET("/code/:id", deps.ArtifactHandler.GetCode)
		artifacts.GET("/report/:id", deps.ArtifactHandler.GetReport)
		artifacts.GET("/video/:id", deps.ArtifactHandler.GetVideo)

		grading := middleware.RBAC(roleAdmin, roleTeacher)
		artifacts.PUT("/code/:id/analysis", grading, deps.ArtifactHandler.RecordCodeAnalysis)
		artifacts.PUT("/report/:id/analysis", grading, deps.ArtifactHandler.RecordReportAnalysis)
		artifacts.PUT("/code/:id/feedback", grading, deps.ArtifactHandler.SetCodeFeedback)

		artifacts.GET("/code/:id/annotations/:section", grading, deps.AnnotationHandler.Get)
		artifacts.POST("/code/:id/annotations/:section", grading, deps.AnnotationHandler.Add)
		artifacts.PUT("/code/:id/annotations/:section", grading, deps.AnnotationHandler.Edit)
		artifacts.DELETE("/code/:id/annotations/:section", grading, deps.AnnotationHandler.Delete)
	}

	if deps.ReportHandler != nil {
		reports := protected.Group("/reports")
		reports.Use(middleware.RBAC(roleAdmin, roleTeacher))
		{
			reports.POST("", deps.ReportHandler.Create)
			reports.GET("", deps.ReportHandler.List)
			reports.GET("/:id", deps.ReportHandler.Get)
		}
	}

	protected.GET("/metrics/snapshot", middleware.RBAC(roleAdmin), deps.MetricsHandler.Snapshot)

	return r
}
