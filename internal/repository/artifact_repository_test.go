package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactRepositoryPublishReportsCountsChangedRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewArtifactRepository(db)
	mock.ExpectExec("UPDATE report_artifacts").
		WithArgs("asg-1", "published", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	affected, err := repo.PublishReportsByAssignment(context.Background(), "asg-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArtifactRepositoryPublishReportsNoDraftsLeft(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewArtifactRepository(db)
	mock.ExpectExec("UPDATE report_artifacts").
		WithArgs("asg-1", "published", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := repo.PublishReportsByAssignment(context.Background(), "asg-1")
	require.NoError(t, err)
	assert.Zero(t, affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}
