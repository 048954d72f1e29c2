package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saat-tool/saat-api/internal/models"
	appErrors "github.com/saat-tool/saat-api/pkg/errors"
	"github.com/saat-tool/saat-api/pkg/jobs"
	"github.com/saat-tool/saat-api/pkg/storage"
)

type fakeReportJobRepo struct {
	rows map[string]models.ReportJob
}

func newFakeReportJobRepo() *fakeReportJobRepo {
	return &fakeReportJobRepo{rows: map[string]models.ReportJob{}}
}

func (f *fakeReportJobRepo) Create(_ context.Context, job *models.ReportJob) error {
	job.ID = uuid.NewString()
	job.CreatedAt = time.Now().UTC()
	f.rows[job.ID] = *job
	return nil
}

func (f *fakeReportJobRepo) GetByID(_ context.Context, id string) (*models.ReportJob, error) {
	job, ok := f.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := job
	return &clone, nil
}

func (f *fakeReportJobRepo) UpdateStatus(_ context.Context, job *models.ReportJob) error {
	f.rows[job.ID] = *job
	return nil
}

func (f *fakeReportJobRepo) ListByUser(_ context.Context, userID string, _ int) ([]models.ReportJob, error) {
	var list []models.ReportJob
	for _, job := range f.rows {
		if job.CreatedBy == userID {
			list = append(list, job)
		}
	}
	return list, nil
}

func (f *fakeReportJobRepo) ListStale(_ context.Context, _ time.Time) ([]models.ReportJob, error) {
	return nil, nil
}

func (f *fakeReportJobRepo) ListFinishedBefore(_ context.Context, _ time.Time) ([]models.ReportJob, error) {
	return nil, nil
}

func (f *fakeReportJobRepo) Delete(_ context.Context, id string) error {
	delete(f.rows, id)
	return nil
}

type fakeAssignmentLister struct {
	fakeAssignmentReader
	list []models.Assignment
}

func (f *fakeAssignmentLister) ListByModule(context.Context, string) ([]models.Assignment, error) {
	return f.list, nil
}

type fakeModuleReader struct {
	module *models.Module
	err    error
}

func (f *fakeModuleReader) FindByID(context.Context, string) (*models.Module, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.module, nil
}

type fakeSubmissionLister struct {
	subs []models.SubmissionWithStudent
	err  error
}

func (f *fakeSubmissionLister) ListByAssignment(context.Context, string) ([]models.SubmissionWithStudent, error) {
	return f.subs, f.err
}

type fakeQueue struct {
	enqueued []jobs.Job
	err      error
}

func (f *fakeQueue) Enqueue(job jobs.Job) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, job)
	return nil
}

func gradingResolved() *models.ResolvedScheme {
	return &models.ResolvedScheme{
		SchemeID: "scheme-1",
		Weights:  models.TypeWeights{Code: 40, Report: 60},
		Criteria: map[models.SubmissionType][]models.SchemeCriterion{
			models.SubmissionTypeCode: codeCriteria(),
			models.SubmissionTypeReport: {
				{Criterion: "Content", Weightage: 100, SubmissionType: models.SubmissionTypeReport},
			},
		},
	}
}

func newReportFixture(t *testing.T, repo *fakeReportJobRepo, subs *fakeSubmissionLister) (*ReportService, *fakeQueue) {
	t.Helper()

	if subs == nil {
		codeID := "c-1"
		reportID := "r-1"
		subs = &fakeSubmissionLister{subs: []models.SubmissionWithStudent{
			{
				Submission:   models.Submission{ID: "sub-1", AssignmentID: "asg-1", StudentID: "stu-1", CodeID: &codeID, ReportID: &reportID},
				StudentName:  "Ada Student",
				StudentEmail: "ada@example.com",
			},
		}}
	}

	marks := &fakeMarksRepo{stored: map[string][]models.ManualMark{
		"c-1": {
			{Criterion: "Design", Mark: 80},
			{Criterion: "Readability", Mark: 60},
		},
		"r-1": {
			{Criterion: "Content", Mark: 50},
		},
	}}

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)

	svc := NewReportService(
		repo,
		subs,
		&fakeAssignmentLister{fakeAssignmentReader: fakeAssignmentReader{assignment: testAssignment()}},
		&fakeModuleReader{},
		&fakeResolver{resolved: gradingResolved()},
		marks,
		NewMarksService(&fakeMarksRepo{}, &fakeResolver{}, nil, nil),
		store,
		signer,
		nil,
		nil,
	)
	queue := &fakeQueue{}
	svc.SetQueue(queue)
	return svc, queue
}

func TestCreateJobRequiresAssignmentForGradingSheet(t *testing.T) {
	svc, _ := newReportFixture(t, newFakeReportJobRepo(), nil)

	_, err := svc.CreateJob(context.Background(), "user-1", CreateReportRequest{
		Type:   "grading_sheet",
		Format: "csv",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateJobQueuesGradingSheet(t *testing.T) {
	repo := newFakeReportJobRepo()
	svc, queue := newReportFixture(t, repo, nil)

	job, err := svc.CreateJob(context.Background(), "user-1", CreateReportRequest{
		Type:         "grading_sheet",
		AssignmentID: "asg-1",
		Format:       "csv",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReportJobQueued, job.Status)
	assert.Equal(t, "user-1", job.CreatedBy)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, job.ID, queue.enqueued[0].ID)
}

func TestProcessRendersCSVAndSignsDownload(t *testing.T) {
	repo := newFakeReportJobRepo()
	svc, _ := newReportFixture(t, repo, nil)

	job, err := svc.CreateJob(context.Background(), "user-1", CreateReportRequest{
		Type:         "grading_sheet",
		AssignmentID: "asg-1",
		Format:       "csv",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Process(context.Background(), jobs.Job{ID: job.ID}))

	stored, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportJobFinished, stored.Status)
	assert.Equal(t, 100, stored.Progress)
	require.NotNil(t, stored.ResultURL)
	assert.Contains(t, *stored.ResultURL, "/api/v1/downloads/reports?token=")

	token := (*stored.ResultURL)[len("/api/v1/downloads/reports?token="):]
	download, err := svc.Download(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, models.ReportFormatCSV, download.Format)
}

func TestProcessMarksJobFailedOnDatasetError(t *testing.T) {
	repo := newFakeReportJobRepo()
	svc, _ := newReportFixture(t, repo, &fakeSubmissionLister{err: assert.AnError})

	job, err := svc.CreateJob(context.Background(), "user-1", CreateReportRequest{
		Type:         "grading_sheet",
		AssignmentID: "asg-1",
		Format:       "csv",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Process(context.Background(), jobs.Job{ID: job.ID}))

	stored, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportJobFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
}

func TestDownloadRejectsUnfinishedJob(t *testing.T) {
	repo := newFakeReportJobRepo()
	svc, _ := newReportFixture(t, repo, nil)

	job, err := svc.CreateJob(context.Background(), "user-1", CreateReportRequest{
		Type:         "grading_sheet",
		AssignmentID: "asg-1",
		Format:       "csv",
	})
	require.NoError(t, err)

	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	token, _, err := signer.Generate(job.ID, "grading_sheet/"+job.ID+".csv")
	require.NoError(t, err)

	_, err = svc.Download(context.Background(), token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestGetRestrictsToOwnerOrAdmin(t *testing.T) {
	repo := newFakeReportJobRepo()
	svc, _ := newReportFixture(t, repo, nil)

	job, err := svc.CreateJob(context.Background(), "user-1", CreateReportRequest{
		Type:         "grading_sheet",
		AssignmentID: "asg-1",
		Format:       "csv",
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), job.ID, "someone-else", models.RoleTeacher)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	got, err := svc.Get(context.Background(), job.ID, "someone-else", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
}
