package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saat-tool/saat-api/internal/models"
)

func TestAnnotationRepositoryGetMissingRowReadsEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAnnotationRepository(db)
	mock.ExpectQuery("SELECT id, code_id, section, comments, updated_at FROM code_annotations").
		WithArgs("code-1", "evaluator").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code_id", "section", "comments", "updated_at"}))

	annotation, err := repo.Get(context.Background(), "code-1", models.SectionEvaluator)
	require.NoError(t, err)
	assert.Equal(t, "code-1", annotation.CodeID)
	assert.Empty(t, annotation.Comments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnotationRepositoryMutateLocksAndWrites(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAnnotationRepository(db)
	stored, err := json.Marshal(models.CommentMap{"main.go": {"10": {"old comment"}}})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("code-1", "evaluator").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code_id", "section", "comments", "updated_at"}).
			AddRow("ann-1", "code-1", "evaluator", stored, time.Now()))
	mock.ExpectExec("UPDATE code_annotations").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	annotation, err := repo.Mutate(context.Background(), "code-1", models.SectionEvaluator, func(comments models.CommentMap) error {
		comments.Add("main.go", "10", "new comment")
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, annotation.Comments["main.go"]["10"], 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnotationRepositoryMutateRollsBackOnError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAnnotationRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("code-1", "evaluator").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code_id", "section", "comments", "updated_at"}).
			AddRow("ann-1", "code-1", "evaluator", []byte(`{}`), time.Now()))
	mock.ExpectRollback()

	_, err := repo.Mutate(context.Background(), "code-1", models.SectionEvaluator, func(models.CommentMap) error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}
