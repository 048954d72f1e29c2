package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/saat-tool/saat-api/internal/models"
)

// ReportJobRepository persists asynchronous export job metadata.
type ReportJobRepository struct {
	db *sqlx.DB
}

// NewReportJobRepository creates a new report job repository.
func NewReportJobRepository(db *sqlx.DB) *ReportJobRepository {
	return &ReportJobRepository{db: db}
}

const reportJobColumns = `id, type, params, status, progress, result_url, created_by, created_at, finished_at, error_message`

// Create inserts a queued job.
func (r *ReportJobRepository) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ReportJobQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO report_jobs (id, type, params, status, progress, result_url, created_by, created_at, finished_at, error_message)
        VALUES (:id, :type, :params, :status, :progress, :result_url, :created_by, :created_at, :finished_at, :error_message)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("insert report job: %w", err)
	}
	return nil
}

// GetByID returns a job by id.
func (r *ReportJobRepository) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	query := `SELECT ` + reportJobColumns + ` FROM report_jobs WHERE id = $1`
	var job models.ReportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateStatus transitions a job and records progress, result or failure.
func (r *ReportJobRepository) UpdateStatus(ctx context.Context, job *models.ReportJob) error {
	const query = `UPDATE report_jobs SET status = :status, progress = :progress, result_url = :result_url,
        finished_at = :finished_at, error_message = :error_message WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("update report job: %w", err)
	}
	return nil
}

// ListByUser returns a user's jobs, newest first.
func (r *ReportJobRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + reportJobColumns + ` FROM report_jobs WHERE created_by = $1 ORDER BY created_at DESC LIMIT $2`
	var jobs []models.ReportJob
	if err := r.db.SelectContext(ctx, &jobs, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list report jobs: %w", err)
	}
	return jobs, nil
}

// ListStale returns jobs stuck in QUEUED or PROCESSING from before the cutoff.
// Used on startup to fail jobs orphaned by a crash.
func (r *ReportJobRepository) ListStale(ctx context.Context, cutoff time.Time) ([]models.ReportJob, error) {
	query := `SELECT ` + reportJobColumns + ` FROM report_jobs
        WHERE status IN ($1, $2) AND created_at < $3 ORDER BY created_at ASC`
	var jobs []models.ReportJob
	if err := r.db.SelectContext(ctx, &jobs, query, models.ReportJobQueued, models.ReportJobProcessing, cutoff); err != nil {
		return nil, fmt.Errorf("list stale report jobs: %w", err)
	}
	return jobs, nil
}

// ListFinishedBefore returns finished jobs older than the cutoff, for cleanup.
func (r *ReportJobRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time) ([]models.ReportJob, error) {
	query := `SELECT ` + reportJobColumns + ` FROM report_jobs
        WHERE status = $1 AND finished_at IS NOT NULL AND finished_at < $2`
	var jobs []models.ReportJob
	if err := r.db.SelectContext(ctx, &jobs, query, models.ReportJobFinished, cutoff); err != nil {
		return nil, fmt.Errorf("list finished report jobs: %w", err)
	}
	return jobs, nil
}

// Delete removes a job row.
func (r *ReportJobRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM report_jobs WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete report job: %w", err)
	}
	return nil
}
