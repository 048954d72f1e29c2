package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saat-tool/saat-api/internal/models"
	appErrors "github.com/saat-tool/saat-api/pkg/errors"
)

type fakeSubmissionRepo struct {
	rows map[string]*models.Submission
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{rows: map[string]*models.Submission{}}
}

func pairKey(assignmentID, studentID string) string {
	return assignmentID + "/" + studentID
}

func (f *fakeSubmissionRepo) Ensure(_ context.Context, assignmentID, studentID string) (*models.Submission, error) {
	key := pairKey(assignmentID, studentID)
	if existing, ok := f.rows[key]; ok {
		return existing, nil
	}
	row := &models.Submission{ID: uuid.NewString(), AssignmentID: assignmentID, StudentID: studentID}
	f.rows[key] = row
	return row, nil
}

func (f *fakeSubmissionRepo) FindByID(_ context.Context, id string) (*models.Submission, error) {
	for _, row := range f.rows {
		if row.ID == id {
			clone := *row
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSubmissionRepo) FindByPair(_ context.Context, assignmentID, studentID string) (*models.Submission, error) {
	if row, ok := f.rows[pairKey(assignmentID, studentID)]; ok {
		return row, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSubmissionRepo) ListByAssignment(context.Context, string) ([]models.SubmissionWithStudent, error) {
	return nil, nil
}

func (f *fakeSubmissionRepo) AttachArtifact(_ context.Context, submissionID string, t models.SubmissionType, artifactID string) error {
	for _, row := range f.rows {
		if row.ID != submissionID {
			continue
		}
		switch t {
		case models.SubmissionTypeCode:
			row.CodeID = &artifactID
		case models.SubmissionTypeReport:
			row.ReportID = &artifactID
		case models.SubmissionTypeVideo:
			row.VideoID = &artifactID
		}
		return nil
	}
	return sql.ErrNoRows
}

type fakeArtifactWriter struct {
	codes   int
	reports int
	videos  int
}

func (f *fakeArtifactWriter) CreateCode(_ context.Context, artifact *models.CodeArtifact) error {
	f.codes++
	artifact.ID = uuid.NewString()
	return nil
}

func (f *fakeArtifactWriter) CreateReport(_ context.Context, artifact *models.ReportArtifact) error {
	f.reports++
	artifact.ID = uuid.NewString()
	return nil
}

func (f *fakeArtifactWriter) CreateVideo(_ context.Context, artifact *models.VideoArtifact) error {
	f.videos++
	artifact.ID = uuid.NewString()
	return nil
}

type fakeDraftClearer struct {
	cleared []string
}

func (f *fakeDraftClearer) Clear(_ context.Context, assignmentID, studentID string) error {
	f.cleared = append(f.cleared, pairKey(assignmentID, studentID))
	return nil
}

func TestEnsureReturnsSameRowForPair(t *testing.T) {
	repo := newFakeSubmissionRepo()
	svc := NewSubmissionService(repo, &fakeArtifactWriter{}, &fakeAssignmentReader{assignment: testAssignment()}, nil, nil, nil)

	first, err := svc.Ensure(context.Background(), "asg-1", "stu-1")
	require.NoError(t, err)
	second, err := svc.Ensure(context.Background(), "asg-1", "stu-1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.rows, 1)
}

func TestSubmitCodeAttachesArtifactAndClearsDraft(t *testing.T) {
	repo := newFakeSubmissionRepo()
	writer := &fakeArtifactWriter{}
	drafts := &fakeDraftClearer{}
	svc := NewSubmissionService(repo, writer, &fakeAssignmentReader{assignment: testAssignment()}, drafts, nil, nil)

	submission, err := svc.SubmitCode(context.Background(), "asg-1", "stu-1", SubmitCodeRequest{
		GithubURL: "https://github.com/stu/repo",
	})
	require.NoError(t, err)
	require.NotNil(t, submission.CodeID)
	assert.Equal(t, 1, writer.codes)
	assert.Equal(t, []string{"asg-1/stu-1"}, drafts.cleared)
}

func TestResubmitCodeReplacesSlotOnSameRow(t *testing.T) {
	repo := newFakeSubmissionRepo()
	svc := NewSubmissionService(repo, &fakeArtifactWriter{}, &fakeAssignmentReader{assignment: testAssignment()}, nil, nil, nil)

	first, err := svc.SubmitCode(context.Background(), "asg-1", "stu-1", SubmitCodeRequest{
		GithubURL: "https://github.com/stu/repo",
	})
	require.NoError(t, err)
	second, err := svc.SubmitCode(context.Background(), "asg-1", "stu-1", SubmitCodeRequest{
		GithubURL: "https://github.com/stu/repo-v2",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.NotEqual(t, *first.CodeID, *second.CodeID)
	assert.Len(t, repo.rows, 1)
}

func TestSubmitRejectsDisabledModality(t *testing.T) {
	assignment := testAssignment()
	assignment.Types.Video = false
	svc := NewSubmissionService(newFakeSubmissionRepo(), &fakeArtifactWriter{}, &fakeAssignmentReader{assignment: assignment}, nil, nil, nil)

	_, err := svc.SubmitVideo(context.Background(), "asg-1", "stu-1", SubmitVideoRequest{
		Filename: "demo.mp4",
		VideoURL: "https://cdn.example.com/demo.mp4",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSubmitMissingAssignment(t *testing.T) {
	svc := NewSubmissionService(newFakeSubmissionRepo(), &fakeArtifactWriter{}, &fakeAssignmentReader{err: sql.ErrNoRows}, nil, nil, nil)

	_, err := svc.SubmitCode(context.Background(), "missing", "stu-1", SubmitCodeRequest{
		GithubURL: "https://github.com/stu/repo",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
