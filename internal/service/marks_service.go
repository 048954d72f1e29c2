package service

import (
	"context"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/saat-tool/saat-api/internal/models"
	appErrors "github.com/saat-tool/saat-api/pkg/errors"
)

type marksRepo interface {
	Upsert(ctx context.Context, marks []models.ManualMark) error
	ListByArtifact(ctx context.Context, kind models.SubmissionType, artifactID string) ([]models.ManualMark, error)
	ListByArtifacts(ctx context.Context, kind models.SubmissionType, artifactIDs []string) (map[string][]models.ManualMark, error)
}

type schemeResolver interface {
	Resolve(ctx context.Context, assignmentID string) (*models.ResolvedScheme, error)
}

// SaveMarksRequest writes the full mark set for one artifact.
type SaveMarksRequest struct {
	ArtifactKind string             `json:"artifact_kind" validate:"required,oneof=code report video"`
	ArtifactID   string             `json:"artifact_id" validate:"required"`
	Marks        map[string]float64 `json:"marks" validate:"required"`
}

// MarksService validates, stores and aggregates manual marks.
type MarksService struct {
	marks     marksRepo
	resolver  schemeResolver
	validator *validator.Validate
	logger    *zap.Logger
	round     func(float64) float64
}

// NewMarksService constructs MarksService.
func NewMarksService(marks marksRepo, resolver schemeResolver, validate *validator.Validate, logger *zap.Logger) *MarksService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarksService{
		marks:     marks,
		resolver:  resolver,
		validator: validate,
		logger:    logger,
		round:     func(v float64) float64 { return math.RoundToEven(v*100) / 100 },
	}
}

// ValidateMarks checks a mark set against the rubric criteria for one
// modality. Every criterion needs a mark strictly above zero and at most 100.
// A zero mark is treated the same as a missing one, so an intentional zero
// has to be entered as a tiny positive value. Marks for criteria outside the
// rubric are rejected outright.
func (s *MarksService) ValidateMarks(criteria []models.SchemeCriterion, marks map[string]float64) error {
	known := make(map[string]struct{}, len(criteria))
	for _, c := range criteria {
		known[c.Criterion] = struct{}{}
	}
	for name := range marks {
		if _, ok := known[name]; !ok {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown criterion %q", name))
		}
	}
	for _, c := range criteria {
		mark, ok := marks[c.Criterion]
		if !ok || mark == 0 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("missing mark for criterion %q", c.Criterion))
		}
		if mark < 0 || mark > 100 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("mark for criterion %q out of range", c.Criterion))
		}
	}
	return nil
}

// Save validates and stores the complete mark set for one artifact. Saving
// requires a rubric with criteria for the artifact's modality; partial mark
// sets never persist.
func (s *MarksService) Save(ctx context.Context, assignmentID string, req SaveMarksRequest) (*models.MarkSheet, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid marks payload")
	}
	kind := models.SubmissionType(req.ArtifactKind)

	resolved, err := s.resolver.Resolve(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	criteria := resolved.Criteria[kind]
	if !resolved.HasScheme() || len(criteria) == 0 {
		return nil, appErrors.Clone(appErrors.ErrSchemeMissing, fmt.Sprintf("no marking scheme criteria for %s", kind))
	}
	if err := s.ValidateMarks(criteria, req.Marks); err != nil {
		return nil, err
	}

	rows := make([]models.ManualMark, 0, len(criteria))
	for _, c := range criteria {
		rows = append(rows, models.ManualMark{
			ArtifactKind:    kind,
			ArtifactID:      req.ArtifactID,
			MarkingSchemeID: resolved.SchemeID,
			Criterion:       c.Criterion,
			Mark:            req.Marks[c.Criterion],
		})
	}
	if err := s.marks.Upsert(ctx, rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save marks")
	}
	s.logger.Info("marks saved",
		zap.String("assignment_id", assignmentID),
		zap.String("artifact_kind", string(kind)),
		zap.String("artifact_id", req.ArtifactID),
		zap.Int("criteria", len(rows)))
	return s.buildSheet(kind, req.ArtifactID, resolved.SchemeID, criteria, rows), nil
}

// Sheet returns the merged scheme-plus-marks view for one artifact.
func (s *MarksService) Sheet(ctx context.Context, assignmentID string, kind models.SubmissionType, artifactID string) (*models.MarkSheet, error) {
	resolved, err := s.resolver.Resolve(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	marks, err := s.marks.ListByArtifact(ctx, kind, artifactID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marks")
	}
	return s.buildSheet(kind, artifactID, resolved.SchemeID, resolved.Criteria[kind], marks), nil
}

// ArtifactTotal computes the weighted rubric total for one artifact out of
// 100, or nil when any criterion is still unmarked.
func (s *MarksService) ArtifactTotal(criteria []models.SchemeCriterion, marks []models.ManualMark) *float64 {
	if len(criteria) == 0 {
		return nil
	}
	byName := make(map[string]float64, len(marks))
	for _, m := range marks {
		byName[m.Criterion] = m.Mark
	}
	total := 0.0
	for _, c := range criteria {
		mark, ok := byName[c.Criterion]
		if !ok || mark == 0 {
			return nil
		}
		total += mark * c.Weightage / 100
	}
	rounded := s.round(total)
	return &rounded
}

// SubmissionTotal folds per-modality artifact totals into a single weighted
// result. Disabled modalities are skipped; an enabled modality without a
// complete mark set leaves the overall total undefined.
func (s *MarksService) SubmissionTotal(flags models.SubmissionTypeFlags, weights models.TypeWeights, totals map[models.SubmissionType]*float64) *float64 {
	overall := 0.0
	for _, t := range models.SubmissionTypes {
		if !flags.Enabled(t) {
			continue
		}
		partial, ok := totals[t]
		if !ok || partial == nil {
			return nil
		}
		overall += *partial * weights.Weight(t) / 100
	}
	rounded := s.round(overall)
	return &rounded
}

func (s *MarksService) buildSheet(kind models.SubmissionType, artifactID, schemeID string, criteria []models.SchemeCriterion, marks []models.ManualMark) *models.MarkSheet {
	byName := make(map[string]float64, len(marks))
	for _, m := range marks {
		byName[m.Criterion] = m.Mark
	}
	sheet := &models.MarkSheet{
		ArtifactKind:    kind,
		ArtifactID:      artifactID,
		MarkingSchemeID: schemeID,
		Rows:            make([]models.MarkSheetRow, 0, len(criteria)),
	}
	for _, c := range criteria {
		row := models.MarkSheetRow{Criterion: c.Criterion, Weightage: c.Weightage}
		if mark, ok := byName[c.Criterion]; ok && mark != 0 {
			m := mark
			row.Mark = &m
			weighted := s.round(mark * c.Weightage / 100)
			row.Weighted = &weighted
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	sheet.Total = s.ArtifactTotal(criteria, marks)
	return sheet
}
