package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saat-tool/saat-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestSubmissionRepositoryEnsureReturnsExistingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	existing := time.Now().Add(-time.Hour)
	rows := sqlmock.NewRows([]string{"id", "assignment_id", "student_id", "code_id", "report_id", "video_id", "created_at", "updated_at"}).
		AddRow("sub-1", "asg-1", "stu-1", nil, nil, nil, existing, time.Now())
	mock.ExpectQuery("INSERT INTO submissions").
		WithArgs(sqlmock.AnyArg(), "asg-1", "stu-1", sqlmock.AnyArg()).
		WillReturnRows(rows)

	submission, err := repo.Ensure(context.Background(), "asg-1", "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", submission.ID)
	assert.Nil(t, submission.CodeID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryAttachArtifact(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	mock.ExpectExec("UPDATE submissions SET code_id").
		WithArgs("sub-1", "code-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AttachArtifact(context.Background(), "sub-1", models.SubmissionTypeCode, "code-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryAttachArtifactUnknownType(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	err := repo.AttachArtifact(context.Background(), "sub-1", models.SubmissionType("slides"), "x")
	assert.Error(t, err)
}
