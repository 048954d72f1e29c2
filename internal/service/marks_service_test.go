package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saat-tool/saat-api/internal/models"
	appErrors "github.com/saat-tool/saat-api/pkg/errors"
)

type fakeMarksRepo struct {
	saved  []models.ManualMark
	stored map[string][]models.ManualMark
	err    error
}

func (f *fakeMarksRepo) Upsert(_ context.Context, marks []models.ManualMark) error {
	if f.err != nil {
		return f.err
	}
	f.saved = marks
	return nil
}

func (f *fakeMarksRepo) ListByArtifact(_ context.Context, _ models.SubmissionType, artifactID string) ([]models.ManualMark, error) {
	return f.stored[artifactID], nil
}

func (f *fakeMarksRepo) ListByArtifacts(_ context.Context, _ models.SubmissionType, ids []string) (map[string][]models.ManualMark, error) {
	result := map[string][]models.ManualMark{}
	for _, id := range ids {
		if marks, ok := f.stored[id]; ok {
			result[id] = marks
		}
	}
	return result, nil
}

type fakeResolver struct {
	resolved *models.ResolvedScheme
	err      error
}

func (f *fakeResolver) Resolve(context.Context, string) (*models.ResolvedScheme, error) {
	return f.resolved, f.err
}

func codeCriteria() []models.SchemeCriterion {
	return []models.SchemeCriterion{
		{Criterion: "Design", Weightage: 50, SubmissionType: models.SubmissionTypeCode},
		{Criterion: "Readability", Weightage: 50, SubmissionType: models.SubmissionTypeCode},
	}
}

func TestValidateMarksRejectsZero(t *testing.T) {
	svc := NewMarksService(&fakeMarksRepo{}, &fakeResolver{}, nil, nil)

	err := svc.ValidateMarks(codeCriteria(), map[string]float64{"Design": 0, "Readability": 80})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Design")
}

func TestValidateMarksAcceptsFullSet(t *testing.T) {
	svc := NewMarksService(&fakeMarksRepo{}, &fakeResolver{}, nil, nil)

	err := svc.ValidateMarks(codeCriteria(), map[string]float64{"Design": 75, "Readability": 80})
	assert.NoError(t, err)
}

func TestValidateMarksRejectsOutOfRange(t *testing.T) {
	svc := NewMarksService(&fakeMarksRepo{}, &fakeResolver{}, nil, nil)

	err := svc.ValidateMarks(codeCriteria(), map[string]float64{"Design": 101, "Readability": 80})
	assert.Error(t, err)
}

func TestValidateMarksRejectsUnknownCriterion(t *testing.T) {
	svc := NewMarksService(&fakeMarksRepo{}, &fakeResolver{}, nil, nil)

	err := svc.ValidateMarks(codeCriteria(), map[string]float64{"Design": 50, "Readability": 80, "Extra": 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Extra")
}

func TestSaveRequiresScheme(t *testing.T) {
	resolver := &fakeResolver{resolved: &models.ResolvedScheme{
		Weights:  models.TypeWeights{Code: 100},
		Criteria: map[models.SubmissionType][]models.SchemeCriterion{},
	}}
	svc := NewMarksService(&fakeMarksRepo{}, resolver, nil, nil)

	_, err := svc.Save(context.Background(), "asg-1", SaveMarksRequest{
		ArtifactKind: "code",
		ArtifactID:   "code-1",
		Marks:        map[string]float64{"Design": 50},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSchemeMissing.Code, appErrors.FromError(err).Code)
}

func TestSavePersistsFullMarkSet(t *testing.T) {
	repo := &fakeMarksRepo{}
	resolver := &fakeResolver{resolved: &models.ResolvedScheme{
		SchemeID: "scheme-1",
		Weights:  models.TypeWeights{Code: 100},
		Criteria: map[models.SubmissionType][]models.SchemeCriterion{
			models.SubmissionTypeCode: codeCriteria(),
		},
	}}
	svc := NewMarksService(repo, resolver, nil, nil)

	sheet, err := svc.Save(context.Background(), "asg-1", SaveMarksRequest{
		ArtifactKind: "code",
		ArtifactID:   "code-1",
		Marks:        map[string]float64{"Design": 80, "Readability": 60},
	})
	require.NoError(t, err)
	require.Len(t, repo.saved, 2)
	assert.Equal(t, "scheme-1", repo.saved[0].MarkingSchemeID)
	require.NotNil(t, sheet.Total)
	assert.InDelta(t, 70.0, *sheet.Total, 0.001)
}

func TestArtifactTotalNilWhenIncomplete(t *testing.T) {
	svc := NewMarksService(&fakeMarksRepo{}, &fakeResolver{}, nil, nil)

	total := svc.ArtifactTotal(codeCriteria(), []models.ManualMark{
		{Criterion: "Design", Mark: 80},
	})
	assert.Nil(t, total)
}

func TestSubmissionTotalWeightsModalities(t *testing.T) {
	svc := NewMarksService(&fakeMarksRepo{}, &fakeResolver{}, nil, nil)

	code := 80.0
	report := 50.0
	total := svc.SubmissionTotal(
		models.SubmissionTypeFlags{Code: true, Report: true},
		models.TypeWeights{Code: 40, Report: 60},
		map[models.SubmissionType]*float64{
			models.SubmissionTypeCode:   &code,
			models.SubmissionTypeReport: &report,
		},
	)
	require.NotNil(t, total)
	assert.InDelta(t, 62.0, *total, 0.001)
}

func TestSubmissionTotalNilWhenEnabledModalityUnmarked(t *testing.T) {
	svc := NewMarksService(&fakeMarksRepo{}, &fakeResolver{}, nil, nil)

	code := 80.0
	total := svc.SubmissionTotal(
		models.SubmissionTypeFlags{Code: true, Report: true},
		models.TypeWeights{Code: 40, Report: 60},
		map[models.SubmissionType]*float64{
			models.SubmissionTypeCode:   &code,
			models.SubmissionTypeReport: nil,
		},
	)
	assert.Nil(t, total)
}

func TestSubmissionTotalSkipsDisabledModalities(t *testing.T) {
	svc := NewMarksService(&fakeMarksRepo{}, &fakeResolver{}, nil, nil)

	code := 90.0
	total := svc.SubmissionTotal(
		models.SubmissionTypeFlags{Code: true},
		models.TypeWeights{Code: 100, Report: 60},
		map[models.SubmissionType]*float64{
			models.SubmissionTypeCode: &code,
		},
	)
	require.NotNil(t, total)
	assert.InDelta(t, 90.0, *total, 0.001)
}
