package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/saat-tool/saat-api/internal/models"
	appErrors "github.com/saat-tool/saat-api/pkg/errors"
)

type assignmentRepo interface {
	ListByModule(ctx context.Context, moduleID string) ([]models.Assignment, error)
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id string) error
}

type moduleReader interface {
	FindByID(ctx context.Context, id string) (*models.Module, error)
}

type assignmentCacheInvalidator interface {
	Delete(ctx context.Context, keys ...string) error
}

// AssignmentRequest creates or updates an assignment.
type AssignmentRequest struct {
	Name        string                     `json:"name" validate:"required"`
	Description string                     `json:"description"`
	Deadline    time.Time                  `json:"deadline" validate:"required"`
	Types       models.SubmissionTypeFlags `json:"submission_types"`
	Weights     models.TypeWeights         `json:"submission_type_weights"`
	Details     models.AssignmentDetails   `json:"details"`
}

// AssignmentMeta carries advisory weight checks alongside write responses.
// Lopsided weights never block a save; teachers see the sum and decide.
type AssignmentMeta struct {
	EnabledWeightSum float64 `json:"enabled_weight_sum"`
	WeightsBalanced  bool    `json:"weights_balanced"`
}

// AssignmentService manages assignments within modules.
type AssignmentService struct {
	assignments assignmentRepo
	modules     moduleReader
	cache       assignmentCacheInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAssignmentService constructs AssignmentService. cache may be nil.
func NewAssignmentService(assignments assignmentRepo, modules moduleReader, cache assignmentCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		assignments: assignments,
		modules:     modules,
		cache:       cache,
		validator:   validate,
		logger:      logger,
	}
}

// ListByModule returns every assignment in a module.
func (s *AssignmentService) ListByModule(ctx context.Context, moduleID string) ([]models.Assignment, error) {
	if _, err := s.modules.FindByID(ctx, moduleID); err != nil {
		return nil, notFoundOrInternal(err, "module not found", "failed to load module")
	}
	assignments, err := s.assignments.ListByModule(ctx, moduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// Get returns one assignment.
func (s *AssignmentService) Get(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "assignment not found", "failed to load assignment")
	}
	return assignment, nil
}

// Meta computes the advisory weight summary for an assignment.
func (s *AssignmentService) Meta(assignment *models.Assignment) AssignmentMeta {
	sum := assignment.Weights.EnabledSum(assignment.Types)
	return AssignmentMeta{EnabledWeightSum: sum, WeightsBalanced: sum == 100}
}

// Create adds an assignment to a module.
func (s *AssignmentService) Create(ctx context.Context, moduleID string, req AssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if _, err := s.modules.FindByID(ctx, moduleID); err != nil {
		return nil, notFoundOrInternal(err, "module not found", "failed to load module")
	}
	assignment := &models.Assignment{
		ModuleID:    moduleID,
		Name:        req.Name,
		Description: req.Description,
		Deadline:    req.Deadline,
		Types:       req.Types,
		Weights:     req.Weights,
		Details:     req.Details,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	s.logger.Info("assignment created",
		zap.String("assignment_id", assignment.ID),
		zap.String("module_id", moduleID),
		zap.Float64("enabled_weight_sum", assignment.Weights.EnabledSum(assignment.Types)))
	return assignment, nil
}

// Update applies changes to an assignment and drops its cached resolution.
func (s *AssignmentService) Update(ctx context.Context, id string, req AssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	assignment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	assignment.Name = req.Name
	assignment.Description = req.Description
	assignment.Deadline = req.Deadline
	assignment.Types = req.Types
	assignment.Weights = req.Weights
	assignment.Details = req.Details
	if err := s.assignments.Update(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	s.invalidate(ctx, id)
	return assignment, nil
}

// Delete removes an assignment.
func (s *AssignmentService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.assignments.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *AssignmentService) invalidate(ctx context.Context, assignmentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, resolvedSchemeKey(assignmentID)); err != nil {
		s.logger.Warn("assignment cache invalidation failed", zap.String("assignment_id", assignmentID), zap.Error(err))
	}
}
