package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/saat-tool/saat-api/internal/models"
	appErrors "github.com/saat-tool/saat-api/pkg/errors"
)

type artifactRepo interface {
	GetCode(ctx context.Context, id string) (*models.CodeArtifact, error)
	UpdateCodeAnalysis(ctx context.Context, id string, analysis models.CodeAnalysisSummary) error
	UpdateCodeFeedback(ctx context.Context, id string, feedback *string) error
	GetReport(ctx context.Context, id string) (*models.ReportArtifact, error)
	UpdateReportAnalysis(ctx context.Context, id string, aiContent, plagiarism float64, analysis models.ReportAnalysis) error
	GetVideo(ctx context.Context, id string) (*models.VideoArtifact, error)
}

// CodeAnalysisRequest records automated analysis scores on a code artifact.
type CodeAnalysisRequest struct {
	FileNamingScore       float64 `json:"file_naming_score" validate:"gte=0,lte=100"`
	CodeNamingScore       float64 `json:"code_naming_score" validate:"gte=0,lte=100"`
	CommentsAccuracyScore float64 `json:"comments_accuracy_score" validate:"gte=0,lte=100"`
}

// ReportAnalysisRequest records automated analysis results on a report.
type ReportAnalysisRequest struct {
	AIContent  float64               `json:"ai_content" validate:"gte=0,lte=100"`
	Plagiarism float64               `json:"plagiarism" validate:"gte=0,lte=100"`
	Analysis   models.ReportAnalysis `json:"analysis"`
}

// CodeFeedbackRequest sets or clears the evaluator's final feedback.
type CodeFeedbackRequest struct {
	Feedback *string `json:"feedback"`
}

// ArtifactService reads artifacts and applies the publish gate for students.
type ArtifactService struct {
	artifacts artifactRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewArtifactService constructs ArtifactService.
func NewArtifactService(artifacts artifactRepo, validate *validator.Validate, logger *zap.Logger) *ArtifactService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArtifactService{artifacts: artifacts, validator: validate, logger: logger}
}

// GetCode returns a code artifact.
func (s *ArtifactService) GetCode(ctx context.Context, id string) (*models.CodeArtifact, error) {
	artifact, err := s.artifacts.GetCode(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "code artifact not found", "failed to load code artifact")
	}
	return artifact, nil
}

// GetReport returns a report artifact with the publish gate applied for the
// reader's role. Students see redacted analysis fields until publication.
func (s *ArtifactService) GetReport(ctx context.Context, id string, role models.UserRole) (*models.ReportArtifact, error) {
	artifact, err := s.artifacts.GetReport(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "report artifact not found", "failed to load report artifact")
	}
	visible := VisibleReport(*artifact, role)
	return &visible, nil
}

// GetVideo returns a video artifact.
func (s *ArtifactService) GetVideo(ctx context.Context, id string) (*models.VideoArtifact, error) {
	artifact, err := s.artifacts.GetVideo(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "video artifact not found", "failed to load video artifact")
	}
	return artifact, nil
}

// RecordCodeAnalysis stores automated per-section scores for a code artifact.
func (s *ArtifactService) RecordCodeAnalysis(ctx context.Context, id string, req CodeAnalysisRequest) (*models.CodeArtifact, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid analysis payload")
	}
	if _, err := s.GetCode(ctx, id); err != nil {
		return nil, err
	}
	analysis := models.CodeAnalysisSummary{
		FileNamingScore:       req.FileNamingScore,
		CodeNamingScore:       req.CodeNamingScore,
		CommentsAccuracyScore: req.CommentsAccuracyScore,
	}
	if err := s.artifacts.UpdateCodeAnalysis(ctx, id, analysis); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record analysis")
	}
	return s.GetCode(ctx, id)
}

// RecordReportAnalysis stores automated analysis results on a report. Writing
// results never publishes; the publish sweep is a separate, explicit action.
func (s *ArtifactService) RecordReportAnalysis(ctx context.Context, id string, req ReportAnalysisRequest) (*models.ReportArtifact, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid analysis payload")
	}
	if _, err := s.artifacts.GetReport(ctx, id); err != nil {
		return nil, notFoundOrInternal(err, "report artifact not found", "failed to load report artifact")
	}
	if err := s.artifacts.UpdateReportAnalysis(ctx, id, req.AIContent, req.Plagiarism, req.Analysis); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record analysis")
	}
	return s.GetReport(ctx, id, models.RoleTeacher)
}

// SetCodeFeedback stores the evaluator's final feedback text on a code artifact.
func (s *ArtifactService) SetCodeFeedback(ctx context.Context, id string, req CodeFeedbackRequest) (*models.CodeArtifact, error) {
	if _, err := s.GetCode(ctx, id); err != nil {
		return nil, err
	}
	if err := s.artifacts.UpdateCodeFeedback(ctx, id, req.Feedback); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store feedback")
	}
	return s.GetCode(ctx, id)
}
