package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saat-tool/saat-api/internal/models"
)

func TestSchemeRepositoryFindActiveByAssignment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSchemeRepository(db)
	schemeRows := sqlmock.NewRows([]string{"id", "assignment_id", "title", "submission_type_weights", "created_by", "created_at", "updated_at"}).
		AddRow("scheme-1", "asg-1", "Rubric v1", []byte(`{"code":0.4,"report":0.6}`), "teacher-1", time.Now().Add(-48*time.Hour), time.Now())
	mock.ExpectQuery("FROM marking_schemes WHERE assignment_id = \\$1 ORDER BY created_at ASC LIMIT 1").
		WithArgs("asg-1").
		WillReturnRows(schemeRows)

	criterionRows := sqlmock.NewRows([]string{"id", "scheme_id", "submission_type", "criterion", "low_description", "medium_description", "high_description", "weightage", "position"}).
		AddRow("crit-1", "scheme-1", "code", "Readability", "poor", "ok", "great", 40.0, 0).
		AddRow("crit-2", "scheme-1", "report", "Structure", "poor", "ok", "great", 60.0, 0)
	mock.ExpectQuery("SELECT id, scheme_id, submission_type").
		WithArgs("scheme-1").
		WillReturnRows(criterionRows)

	scheme, err := repo.FindActiveByAssignment(context.Background(), "asg-1")
	require.NoError(t, err)
	assert.Equal(t, "scheme-1", scheme.ID)
	require.Len(t, scheme.Criteria, 2)
	assert.Equal(t, "Readability", scheme.Criteria[0].Criterion)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemeRepositoryCreateWritesCriteriaInTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSchemeRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO marking_schemes").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO scheme_criteria").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO scheme_criteria").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	scheme := buildScheme("asg-1")
	require.NoError(t, repo.Create(context.Background(), scheme))
	assert.NotEmpty(t, scheme.ID)
	for _, criterion := range scheme.Criteria {
		assert.Equal(t, scheme.ID, criterion.SchemeID)
		assert.NotEmpty(t, criterion.ID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func buildScheme(assignmentID string) *models.MarkingScheme {
	weights := models.NullableWeights{Set: true}
	weights.TypeWeights = models.TypeWeights{Code: 40, Report: 60}
	return &models.MarkingScheme{
		AssignmentID: assignmentID,
		Title:        "Rubric v1",
		Weights:      weights,
		CreatedBy:    "teacher-1",
		Criteria: []models.SchemeCriterion{
			{SubmissionType: models.SubmissionTypeCode, Criterion: "Readability", Weightage: 40, Position: 0},
			{SubmissionType: models.SubmissionTypeReport, Criterion: "Structure", Weightage: 60, Position: 0},
		},
	}
}
