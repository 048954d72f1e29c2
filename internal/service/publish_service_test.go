package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saat-tool/saat-api/internal/models"
	appErrors "github.com/saat-tool/saat-api/pkg/errors"
)

type fakePublisher struct {
	drafts int64
	calls  int
}

func (f *fakePublisher) PublishReportsByAssignment(context.Context, string) (int64, error) {
	f.calls++
	published := f.drafts
	f.drafts = 0
	return published, nil
}

func TestPublishAssignmentFlipsDrafts(t *testing.T) {
	publisher := &fakePublisher{drafts: 3}
	svc := NewPublishService(publisher, &fakeAssignmentReader{assignment: testAssignment()}, nil)

	result, err := svc.PublishAssignment(context.Background(), "asg-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Published)
}

func TestPublishAssignmentIdempotent(t *testing.T) {
	publisher := &fakePublisher{drafts: 3}
	svc := NewPublishService(publisher, &fakeAssignmentReader{assignment: testAssignment()}, nil)

	first, err := svc.PublishAssignment(context.Background(), "asg-1")
	require.NoError(t, err)
	second, err := svc.PublishAssignment(context.Background(), "asg-1")
	require.NoError(t, err)

	assert.Equal(t, int64(3), first.Published)
	assert.Zero(t, second.Published)
	assert.Equal(t, 2, publisher.calls)
}

func TestPublishAssignmentMissingAssignment(t *testing.T) {
	svc := NewPublishService(&fakePublisher{}, &fakeAssignmentReader{err: sql.ErrNoRows}, nil)

	_, err := svc.PublishAssignment(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestVisibleReportRedactsDraftForStudents(t *testing.T) {
	artifact := models.ReportArtifact{
		Status:     models.ReportStatusDraft,
		AIContent:  42,
		Plagiarism: 17,
		Analysis:   models.ReportAnalysis{TotalScore: 88},
	}

	visible := VisibleReport(artifact, models.RoleStudent)
	assert.Zero(t, visible.AIContent)
	assert.Zero(t, visible.Plagiarism)
	assert.Zero(t, visible.Analysis.TotalScore)

	teacherView := VisibleReport(artifact, models.RoleTeacher)
	assert.Equal(t, 42.0, teacherView.AIContent)

	artifact.Status = models.ReportStatusPublished
	studentView := VisibleReport(artifact, models.RoleStudent)
	assert.Equal(t, 42.0, studentView.AIContent)
}
