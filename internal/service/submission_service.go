package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/saat-tool/saat-api/internal/models"
	appErrors "github.com/saat-tool/saat-api/pkg/errors"
)

type submissionRepo interface {
	Ensure(ctx context.Context, assignmentID, studentID string) (*models.Submission, error)
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	FindByPair(ctx context.Context, assignmentID, studentID string) (*models.Submission, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.SubmissionWithStudent, error)
	AttachArtifact(ctx context.Context, submissionID string, t models.SubmissionType, artifactID string) error
}

type artifactWriter interface {
	CreateCode(ctx context.Context, artifact *models.CodeArtifact) error
	CreateReport(ctx context.Context, artifact *models.ReportArtifact) error
	CreateVideo(ctx context.Context, artifact *models.VideoArtifact) error
}

type draftClearer interface {
	Clear(ctx context.Context, assignmentID, studentID string) error
}

// SubmitCodeRequest submits a repository URL for the code modality.
type SubmitCodeRequest struct {
	GithubURL string `json:"github_url" validate:"required,url"`
}

// SubmitReportRequest registers an uploaded report document.
type SubmitReportRequest struct {
	Filename string `json:"filename" validate:"required"`
}

// SubmitVideoRequest registers an uploaded presentation video.
type SubmitVideoRequest struct {
	Filename string                `json:"filename" validate:"required"`
	VideoURL string                `json:"video_url" validate:"required"`
	Segments []models.VideoSegment `json:"segments"`
}

// SubmissionService owns the submission row lifecycle. A row is created on
// first contact for an (assignment, student) pair and reused for every later
// artifact, so partial submissions accumulate on one record.
type SubmissionService struct {
	submissions submissionRepo
	artifacts   artifactWriter
	assignments assignmentReader
	drafts      draftClearer
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewSubmissionService constructs SubmissionService. drafts may be nil when
// the draft store is disabled.
func NewSubmissionService(submissions submissionRepo, artifacts artifactWriter, assignments assignmentReader, drafts draftClearer, validate *validator.Validate, logger *zap.Logger) *SubmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		submissions: submissions,
		artifacts:   artifacts,
		assignments: assignments,
		drafts:      drafts,
		validator:   validate,
		logger:      logger,
	}
}

// Ensure returns the submission row for the pair, creating it when absent.
func (s *SubmissionService) Ensure(ctx context.Context, assignmentID, studentID string) (*models.Submission, error) {
	if _, err := s.loadAssignment(ctx, assignmentID); err != nil {
		return nil, err
	}
	submission, err := s.submissions.Ensure(ctx, assignmentID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to ensure submission")
	}
	return submission, nil
}

// Get returns one submission by id.
func (s *SubmissionService) Get(ctx context.Context, id string) (*models.Submission, error) {
	submission, err := s.submissions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return submission, nil
}

// GetByPair returns the submission for an (assignment, student) pair.
func (s *SubmissionService) GetByPair(ctx context.Context, assignmentID, studentID string) (*models.Submission, error) {
	submission, err := s.submissions.FindByPair(ctx, assignmentID, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return submission, nil
}

// ListByAssignment returns every submission for an assignment.
func (s *SubmissionService) ListByAssignment(ctx context.Context, assignmentID string) ([]models.SubmissionWithStudent, error) {
	submissions, err := s.submissions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return submissions, nil
}

// SubmitCode records a code artifact on the student's submission and clears
// any saved draft for the pair. Resubmission points the slot at the new
// artifact; earlier artifacts stay queryable through their own ids.
func (s *SubmissionService) SubmitCode(ctx context.Context, assignmentID, studentID string, req SubmitCodeRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid code submission payload")
	}
	artifact := &models.CodeArtifact{StudentID: studentID, GithubURL: req.GithubURL}
	submission, err := s.submit(ctx, assignmentID, studentID, models.SubmissionTypeCode, func(ctx context.Context) (string, error) {
		if err := s.artifacts.CreateCode(ctx, artifact); err != nil {
			return "", err
		}
		return artifact.ID, nil
	})
	if err != nil {
		return nil, err
	}
	if s.drafts != nil {
		if err := s.drafts.Clear(ctx, assignmentID, studentID); err != nil {
			s.logger.Warn("draft clear failed",
				zap.String("assignment_id", assignmentID),
				zap.String("student_id", studentID),
				zap.Error(err))
		}
	}
	return submission, nil
}

// SubmitReport records a report artifact on the student's submission.
func (s *SubmissionService) SubmitReport(ctx context.Context, assignmentID, studentID string, req SubmitReportRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report submission payload")
	}
	artifact := &models.ReportArtifact{StudentID: studentID, Filename: req.Filename}
	return s.submit(ctx, assignmentID, studentID, models.SubmissionTypeReport, func(ctx context.Context) (string, error) {
		if err := s.artifacts.CreateReport(ctx, artifact); err != nil {
			return "", err
		}
		return artifact.ID, nil
	})
}

// SubmitVideo records a video artifact on the student's submission.
func (s *SubmissionService) SubmitVideo(ctx context.Context, assignmentID, studentID string, req SubmitVideoRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid video submission payload")
	}
	artifact := &models.VideoArtifact{
		StudentID: studentID,
		Filename:  req.Filename,
		VideoURL:  req.VideoURL,
		Segments:  req.Segments,
	}
	return s.submit(ctx, assignmentID, studentID, models.SubmissionTypeVideo, func(ctx context.Context) (string, error) {
		if err := s.artifacts.CreateVideo(ctx, artifact); err != nil {
			return "", err
		}
		return artifact.ID, nil
	})
}

func (s *SubmissionService) submit(ctx context.Context, assignmentID, studentID string, t models.SubmissionType, create func(context.Context) (string, error)) (*models.Submission, error) {
	assignment, err := s.loadAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if !assignment.Types.Enabled(t) {
		return nil, appErrors.Clone(appErrors.ErrValidation, string(t)+" submissions are not enabled for this assignment")
	}

	submission, err := s.submissions.Ensure(ctx, assignmentID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to ensure submission")
	}
	artifactID, err := create(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store artifact")
	}
	if err := s.submissions.AttachArtifact(ctx, submission.ID, t, artifactID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach artifact")
	}

	s.logger.Info("artifact submitted",
		zap.String("assignment_id", assignmentID),
		zap.String("student_id", studentID),
		zap.String("submission_id", submission.ID),
		zap.String("type", string(t)),
		zap.String("artifact_id", artifactID))
	return s.Get(ctx, submission.ID)
}

func (s *SubmissionService) loadAssignment(ctx context.Context, assignmentID string) (*models.Assignment, error) {
	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return assignment, nil
}
