package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/saat-tool/saat-api/internal/models"
	appErrors "github.com/saat-tool/saat-api/pkg/errors"
)

type reportPublisher interface {
	PublishReportsByAssignment(ctx context.Context, assignmentID string) (int64, error)
}

// PublishResult reports the outcome of a publish sweep.
type PublishResult struct {
	AssignmentID string `json:"assignment_id"`
	Published    int64  `json:"published"`
}

// PublishService flips report artifacts from draft to published, which is the
// gate controlling student visibility of analysis results. Publishing is
// idempotent: a repeat call finds nothing in draft and reports zero changes.
type PublishService struct {
	artifacts   reportPublisher
	assignments assignmentReader
	logger      *zap.Logger
}

// NewPublishService constructs PublishService.
func NewPublishService(artifacts reportPublisher, assignments assignmentReader, logger *zap.Logger) *PublishService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublishService{artifacts: artifacts, assignments: assignments, logger: logger}
}

// PublishAssignment publishes every draft report under the assignment.
func (s *PublishService) PublishAssignment(ctx context.Context, assignmentID string) (*PublishResult, error) {
	if _, err := s.assignments.FindByID(ctx, assignmentID); err != nil {
		return nil, notFoundOrInternal(err, "assignment not found", "failed to load assignment")
	}

	published, err := s.artifacts.PublishReportsByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish reports")
	}
	s.logger.Info("assignment results published",
		zap.String("assignment_id", assignmentID),
		zap.Int64("published", published))
	return &PublishResult{AssignmentID: assignmentID, Published: published}, nil
}

// VisibleReport applies the publish gate for a reader. Teachers and admins
// always see the full artifact; students get a redacted copy until the report
// is published.
func VisibleReport(artifact models.ReportArtifact, role models.UserRole) models.ReportArtifact {
	if role == models.RoleStudent && artifact.Status != models.ReportStatusPublished {
		return artifact.Redacted()
	}
	return artifact
}
