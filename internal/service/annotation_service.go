package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/saat-tool/saat-api/internal/models"
	appErrors "github.com/saat-tool/saat-api/pkg/errors"
)

type annotationRepo interface {
	Get(ctx context.Context, codeID string, section models.AnnotationSection) (*models.CodeAnnotation, error)
	Mutate(ctx context.Context, codeID string, section models.AnnotationSection, fn func(models.CommentMap) error) (*models.CodeAnnotation, error)
}

type codeArtifactReader interface {
	GetCode(ctx context.Context, id string) (*models.CodeArtifact, error)
}

// AddCommentRequest appends a comment at a file/line location.
type AddCommentRequest struct {
	Path string `json:"path" validate:"required"`
	Line string `json:"line" validate:"required"`
	Text string `json:"text" validate:"required"`
}

// EditCommentRequest rewrites an existing comment in place.
type EditCommentRequest struct {
	Path    string `json:"path" validate:"required"`
	Line    string `json:"line" validate:"required"`
	OldText string `json:"old_text" validate:"required"`
	NewText string `json:"new_text" validate:"required"`
}

// DeleteCommentRequest removes one comment at a location.
type DeleteCommentRequest struct {
	Path string `json:"path" validate:"required"`
	Line string `json:"line" validate:"required"`
	Text string `json:"text" validate:"required"`
}

// AnnotationService manages per-section evaluator comments on code artifacts.
// All four sections share one storage shape, keyed by section name.
type AnnotationService struct {
	annotations annotationRepo
	artifacts   codeArtifactReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAnnotationService constructs AnnotationService.
func NewAnnotationService(annotations annotationRepo, artifacts codeArtifactReader, validate *validator.Validate, logger *zap.Logger) *AnnotationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnotationService{
		annotations: annotations,
		artifacts:   artifacts,
		validator:   validate,
		logger:      logger,
	}
}

// Get returns the comment map for one section of a code artifact.
func (s *AnnotationService) Get(ctx context.Context, codeID string, section models.AnnotationSection) (*models.CodeAnnotation, error) {
	if err := s.checkTarget(ctx, codeID, section); err != nil {
		return nil, err
	}
	annotation, err := s.annotations.Get(ctx, codeID, section)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load annotations")
	}
	return annotation, nil
}

// Add appends a comment. Repeated identical texts at the same location are
// allowed; order of insertion is preserved.
func (s *AnnotationService) Add(ctx context.Context, codeID string, section models.AnnotationSection, req AddCommentRequest) (*models.CodeAnnotation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}
	if err := s.checkTarget(ctx, codeID, section); err != nil {
		return nil, err
	}
	annotation, err := s.annotations.Mutate(ctx, codeID, section, func(comments models.CommentMap) error {
		comments.Add(req.Path, req.Line, req.Text)
		return nil
	})
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	s.logger.Debug("comment added",
		zap.String("code_id", codeID),
		zap.String("section", string(section)),
		zap.String("path", req.Path),
		zap.String("line", req.Line))
	return annotation, nil
}

// Edit replaces the first comment matching the old text at the location.
func (s *AnnotationService) Edit(ctx context.Context, codeID string, section models.AnnotationSection, req EditCommentRequest) (*models.CodeAnnotation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}
	if err := s.checkTarget(ctx, codeID, section); err != nil {
		return nil, err
	}
	annotation, err := s.annotations.Mutate(ctx, codeID, section, func(comments models.CommentMap) error {
		if !comments.ReplaceFirst(req.Path, req.Line, req.OldText, req.NewText) {
			return appErrors.Clone(appErrors.ErrNotFound, "comment not found at location")
		}
		return nil
	})
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	return annotation, nil
}

// Delete removes the first comment matching the text at the location. Emptied
// line and file containers disappear from the stored map.
func (s *AnnotationService) Delete(ctx context.Context, codeID string, section models.AnnotationSection, req DeleteCommentRequest) (*models.CodeAnnotation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}
	if err := s.checkTarget(ctx, codeID, section); err != nil {
		return nil, err
	}
	annotation, err := s.annotations.Mutate(ctx, codeID, section, func(comments models.CommentMap) error {
		if !comments.Remove(req.Path, req.Line, req.Text) {
			return appErrors.Clone(appErrors.ErrNotFound, "comment not found at location")
		}
		return nil
	})
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	return annotation, nil
}

func (s *AnnotationService) checkTarget(ctx context.Context, codeID string, section models.AnnotationSection) error {
	if !section.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown annotation section")
	}
	if _, err := s.artifacts.GetCode(ctx, codeID); err != nil {
		return notFoundOrInternal(err, "code artifact not found", "failed to load code artifact")
	}
	return nil
}
