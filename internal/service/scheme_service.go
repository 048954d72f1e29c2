package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/saat-tool/saat-api/internal/models"
	appErrors "github.com/saat-tool/saat-api/pkg/errors"
)

type schemeRepo interface {
	FindActiveByAssignment(ctx context.Context, assignmentID string) (*models.MarkingScheme, error)
	FindByID(ctx context.Context, id string) (*models.MarkingScheme, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.MarkingScheme, error)
	Create(ctx context.Context, scheme *models.MarkingScheme) error
	Update(ctx context.Context, scheme *models.MarkingScheme) error
	Delete(ctx context.Context, id string) error
}

type assignmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
}

type schemeCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CriterionInput is one rubric row in a scheme payload.
type CriterionInput struct {
	SubmissionType    string  `json:"submission_type" validate:"required,oneof=code report video"`
	Criterion         string  `json:"criterion" validate:"required"`
	LowDescription    string  `json:"low_description"`
	MediumDescription string  `json:"medium_description"`
	HighDescription   string  `json:"high_description"`
	Weightage         float64 `json:"weightage" validate:"gte=0,lte=100"`
}

// SchemeRequest creates or replaces a marking scheme.
type SchemeRequest struct {
	Title    string              `json:"title" validate:"required"`
	Weights  *models.TypeWeights `json:"submission_type_weights"`
	Criteria []CriterionInput    `json:"criteria" validate:"required,min=1,dive"`
}

// SchemeService manages marking schemes and resolves the effective rubric for
// an assignment.
type SchemeService struct {
	schemes     schemeRepo
	assignments assignmentReader
	cache       schemeCache
	cacheTTL    time.Duration
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewSchemeService constructs SchemeService. cache may be nil to disable
// resolution caching.
func NewSchemeService(schemes schemeRepo, assignments assignmentReader, cache schemeCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *SchemeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchemeService{
		schemes:     schemes,
		assignments: assignments,
		cache:       cache,
		cacheTTL:    cacheTTL,
		validator:   validate,
		logger:      logger,
	}
}

// SetMetrics attaches an optional metrics recorder for cache hit tracking.
func (s *SchemeService) SetMetrics(metrics *MetricsService) {
	s.metrics = metrics
}

func resolvedSchemeKey(assignmentID string) string {
	return fmt.Sprintf("scheme:resolved:%s", assignmentID)
}

// Resolve returns the effective rubric for an assignment: the active scheme's
// criteria grouped per modality, and the scheme's weight overrides when set,
// falling back to the assignment-level weights otherwise. An assignment with
// no scheme resolves to assignment weights and empty criteria rather than an
// error, so read paths stay usable before the rubric exists.
func (s *SchemeService) Resolve(ctx context.Context, assignmentID string) (*models.ResolvedScheme, error) {
	if s.cache != nil {
		var cached models.ResolvedScheme
		if err := s.cache.Get(ctx, resolvedSchemeKey(assignmentID), &cached); err == nil {
			s.metrics.RecordCacheOperation(true)
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("scheme cache read failed", zap.String("assignment_id", assignmentID), zap.Error(err))
		} else {
			s.metrics.RecordCacheOperation(false)
		}
	}

	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	resolved := &models.ResolvedScheme{
		Weights:  assignment.Weights,
		Criteria: map[models.SubmissionType][]models.SchemeCriterion{},
	}

	scheme, err := s.schemes.FindActiveByAssignment(ctx, assignmentID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// No rubric yet. Resolution still carries the assignment weights.
	case err != nil:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marking scheme")
	default:
		resolved.SchemeID = scheme.ID
		resolved.Title = scheme.Title
		if scheme.Weights.Set {
			resolved.Weights = scheme.Weights.TypeWeights
		}
		for _, t := range models.SubmissionTypes {
			if rows := scheme.CriteriaFor(t); len(rows) > 0 {
				resolved.Criteria[t] = rows
			}
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, resolvedSchemeKey(assignmentID), resolved, s.cacheTTL); err != nil {
			s.logger.Warn("scheme cache write failed", zap.String("assignment_id", assignmentID), zap.Error(err))
		}
	}
	return resolved, nil
}

// ListByAssignment returns every scheme attached to an assignment.
func (s *SchemeService) ListByAssignment(ctx context.Context, assignmentID string) ([]models.MarkingScheme, error) {
	schemes, err := s.schemes.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list marking schemes")
	}
	return schemes, nil
}

// Get returns one scheme with its criteria.
func (s *SchemeService) Get(ctx context.Context, id string) (*models.MarkingScheme, error) {
	scheme, err := s.schemes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "marking scheme not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marking scheme")
	}
	return scheme, nil
}

// Create attaches a new scheme to an assignment. Criterion weightages per
// modality are reported back but never block the write; callers surface the
// sum so teachers can fix lopsided rubrics themselves.
func (s *SchemeService) Create(ctx context.Context, assignmentID, createdBy string, req SchemeRequest) (*models.MarkingScheme, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scheme payload")
	}
	if _, err := s.assignments.FindByID(ctx, assignmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	scheme := &models.MarkingScheme{
		AssignmentID: assignmentID,
		Title:        req.Title,
		CreatedBy:    createdBy,
		Criteria:     buildCriteria(req.Criteria),
	}
	if req.Weights != nil {
		scheme.Weights = models.NullableWeights{TypeWeights: *req.Weights, Set: true}
	}
	if err := s.schemes.Create(ctx, scheme); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create marking scheme")
	}
	s.invalidate(ctx, assignmentID)
	s.logger.Info("marking scheme created",
		zap.String("scheme_id", scheme.ID),
		zap.String("assignment_id", assignmentID))
	return scheme, nil
}

// Update replaces a scheme's title, weights and criteria.
func (s *SchemeService) Update(ctx context.Context, id string, req SchemeRequest) (*models.MarkingScheme, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scheme payload")
	}
	scheme, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	scheme.Title = req.Title
	scheme.Criteria = buildCriteria(req.Criteria)
	scheme.Weights = models.NullableWeights{}
	if req.Weights != nil {
		scheme.Weights = models.NullableWeights{TypeWeights: *req.Weights, Set: true}
	}
	if err := s.schemes.Update(ctx, scheme); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update marking scheme")
	}
	s.invalidate(ctx, scheme.AssignmentID)
	return scheme, nil
}

// Delete removes a scheme.
func (s *SchemeService) Delete(ctx context.Context, id string) error {
	scheme, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.schemes.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete marking scheme")
	}
	s.invalidate(ctx, scheme.AssignmentID)
	return nil
}

// WeightageSums totals criterion weightages per modality for response meta.
func WeightageSums(criteria map[models.SubmissionType][]models.SchemeCriterion) map[models.SubmissionType]float64 {
	sums := make(map[models.SubmissionType]float64, len(criteria))
	for t, rows := range criteria {
		total := 0.0
		for _, row := range rows {
			total += row.Weightage
		}
		sums[t] = total
	}
	return sums
}

func (s *SchemeService) invalidate(ctx context.Context, assignmentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, resolvedSchemeKey(assignmentID)); err != nil {
		s.logger.Warn("scheme cache invalidation failed", zap.String("assignment_id", assignmentID), zap.Error(err))
	}
}

func buildCriteria(inputs []CriterionInput) []models.SchemeCriterion {
	criteria := make([]models.SchemeCriterion, 0, len(inputs))
	positions := map[models.SubmissionType]int{}
	for _, in := range inputs {
		t := models.SubmissionType(in.SubmissionType)
		criteria = append(criteria, models.SchemeCriterion{
			SubmissionType:    t,
			Criterion:         in.Criterion,
			LowDescription:    in.LowDescription,
			MediumDescription: in.MediumDescription,
			HighDescription:   in.HighDescription,
			Weightage:         in.Weightage,
			Position:          positions[t],
		})
		positions[t]++
	}
	return criteria
}
