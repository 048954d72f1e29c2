package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saat-tool/saat-api/internal/models"
	appErrors "github.com/saat-tool/saat-api/pkg/errors"
)

type fakeSchemeRepo struct {
	active *models.MarkingScheme
	err    error
}

func (f *fakeSchemeRepo) FindActiveByAssignment(context.Context, string) (*models.MarkingScheme, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.active, nil
}

func (f *fakeSchemeRepo) FindByID(context.Context, string) (*models.MarkingScheme, error) {
	return f.active, nil
}

func (f *fakeSchemeRepo) ListByAssignment(context.Context, string) ([]models.MarkingScheme, error) {
	if f.active == nil {
		return nil, nil
	}
	return []models.MarkingScheme{*f.active}, nil
}

func (f *fakeSchemeRepo) Create(_ context.Context, scheme *models.MarkingScheme) error {
	scheme.ID = "scheme-new"
	f.active = scheme
	return nil
}

func (f *fakeSchemeRepo) Update(_ context.Context, scheme *models.MarkingScheme) error {
	f.active = scheme
	return nil
}

func (f *fakeSchemeRepo) Delete(context.Context, string) error {
	f.active = nil
	return nil
}

type fakeAssignmentReader struct {
	assignment *models.Assignment
	err        error
}

func (f *fakeAssignmentReader) FindByID(context.Context, string) (*models.Assignment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.assignment, nil
}

type fakeKVCache struct {
	values map[string][]byte
	gets   int
	hits   int
}

func (f *fakeKVCache) Get(_ context.Context, key string, _ interface{}) error {
	f.gets++
	if _, ok := f.values[key]; ok {
		f.hits++
		return nil
	}
	return appErrors.ErrCacheMiss
}

func (f *fakeKVCache) Set(_ context.Context, key string, _ interface{}, _ time.Duration) error {
	if f.values == nil {
		f.values = map[string][]byte{}
	}
	f.values[key] = []byte("x")
	return nil
}

func (f *fakeKVCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func testAssignment() *models.Assignment {
	return &models.Assignment{
		ID:      "asg-1",
		Name:    "Compilers Project",
		Types:   models.SubmissionTypeFlags{Code: true, Report: true},
		Weights: models.TypeWeights{Code: 40, Report: 60},
	}
}

func TestResolveFallsBackToAssignmentWeights(t *testing.T) {
	scheme := &models.MarkingScheme{
		ID:    "scheme-1",
		Title: "Rubric",
		Criteria: []models.SchemeCriterion{
			{SubmissionType: models.SubmissionTypeCode, Criterion: "Design", Weightage: 100},
		},
	}
	svc := NewSchemeService(&fakeSchemeRepo{active: scheme}, &fakeAssignmentReader{assignment: testAssignment()}, nil, 0, nil, nil)

	resolved, err := svc.Resolve(context.Background(), "asg-1")
	require.NoError(t, err)
	assert.True(t, resolved.HasScheme())
	assert.Equal(t, models.TypeWeights{Code: 40, Report: 60}, resolved.Weights)
	assert.Len(t, resolved.Criteria[models.SubmissionTypeCode], 1)
}

func TestResolveSchemeWeightsOverrideAssignment(t *testing.T) {
	weights := models.NullableWeights{Set: true}
	weights.TypeWeights = models.TypeWeights{Code: 70, Report: 30}
	scheme := &models.MarkingScheme{ID: "scheme-1", Title: "Rubric", Weights: weights}
	svc := NewSchemeService(&fakeSchemeRepo{active: scheme}, &fakeAssignmentReader{assignment: testAssignment()}, nil, 0, nil, nil)

	resolved, err := svc.Resolve(context.Background(), "asg-1")
	require.NoError(t, err)
	assert.Equal(t, models.TypeWeights{Code: 70, Report: 30}, resolved.Weights)
}

func TestResolveWithoutSchemeStillResolves(t *testing.T) {
	svc := NewSchemeService(&fakeSchemeRepo{err: sql.ErrNoRows}, &fakeAssignmentReader{assignment: testAssignment()}, nil, 0, nil, nil)

	resolved, err := svc.Resolve(context.Background(), "asg-1")
	require.NoError(t, err)
	assert.False(t, resolved.HasScheme())
	assert.Equal(t, models.TypeWeights{Code: 40, Report: 60}, resolved.Weights)
	assert.Empty(t, resolved.Criteria)
}

func TestResolveMissingAssignment(t *testing.T) {
	svc := NewSchemeService(&fakeSchemeRepo{}, &fakeAssignmentReader{err: sql.ErrNoRows}, nil, 0, nil, nil)

	_, err := svc.Resolve(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestResolveWritesCache(t *testing.T) {
	cache := &fakeKVCache{}
	svc := NewSchemeService(&fakeSchemeRepo{err: sql.ErrNoRows}, &fakeAssignmentReader{assignment: testAssignment()}, cache, time.Minute, nil, nil)

	_, err := svc.Resolve(context.Background(), "asg-1")
	require.NoError(t, err)
	assert.Contains(t, cache.values, resolvedSchemeKey("asg-1"))
}

func TestCreateInvalidatesCache(t *testing.T) {
	cache := &fakeKVCache{values: map[string][]byte{resolvedSchemeKey("asg-1"): []byte("x")}}
	svc := NewSchemeService(&fakeSchemeRepo{}, &fakeAssignmentReader{assignment: testAssignment()}, cache, time.Minute, nil, nil)

	_, err := svc.Create(context.Background(), "asg-1", "teacher-1", SchemeRequest{
		Title: "Rubric v2",
		Criteria: []CriterionInput{
			{SubmissionType: "code", Criterion: "Design", Weightage: 100},
		},
	})
	require.NoError(t, err)
	assert.NotContains(t, cache.values, resolvedSchemeKey("asg-1"))
}

func TestWeightageSums(t *testing.T) {
	sums := WeightageSums(map[models.SubmissionType][]models.SchemeCriterion{
		models.SubmissionTypeCode: {
			{Criterion: "Design", Weightage: 40},
			{Criterion: "Readability", Weightage: 50},
		},
	})
	assert.InDelta(t, 90.0, sums[models.SubmissionTypeCode], 0.001)
}
