package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/saat-tool/saat-api/internal/models"
)

// ArtifactRepository handles code, report and video artifact persistence.
type ArtifactRepository struct {
	db *sqlx.DB
}

// NewArtifactRepository creates a new artifact repository.
func NewArtifactRepository(db *sqlx.DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

// CreateCode inserts a code artifact.
func (r *ArtifactRepository) CreateCode(ctx context.Context, artifact *models.CodeArtifact) error {
	if artifact.ID == "" {
		artifact.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	artifact.CreatedAt = now
	artifact.UpdatedAt = now
	const query = `INSERT INTO code_artifacts (id, student_id, github_url, final_feedback, analysis, created_at, updated_at)
        VALUES (:id, :student_id, :github_url, :final_feedback, :analysis, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, artifact); err != nil {
		return fmt.Errorf("insert code artifact: %w", err)
	}
	return nil
}

// GetCode returns a code artifact by id.
func (r *ArtifactRepository) GetCode(ctx context.Context, id string) (*models.CodeArtifact, error) {
	const query = `SELECT id, student_id, github_url, final_feedback, analysis, created_at, updated_at
        FROM code_artifacts WHERE id = $1`
	var artifact models.CodeArtifact
	if err := r.db.GetContext(ctx, &artifact, query, id); err != nil {
		return nil, err
	}
	return &artifact, nil
}

// UpdateCodeAnalysis replaces the automated analysis payload on a code artifact.
func (r *ArtifactRepository) UpdateCodeAnalysis(ctx context.Context, id string, analysis models.CodeAnalysisSummary) error {
	const query = `UPDATE code_artifacts SET analysis = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, analysis, time.Now().UTC()); err != nil {
		return fmt.Errorf("update code analysis: %w", err)
	}
	return nil
}

// UpdateCodeFeedback stores the evaluator's final feedback text.
func (r *ArtifactRepository) UpdateCodeFeedback(ctx context.Context, id string, feedback *string) error {
	const query = `UPDATE code_artifacts SET final_feedback = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, feedback, time.Now().UTC()); err != nil {
		return fmt.Errorf("update code feedback: %w", err)
	}
	return nil
}

// CreateReport inserts a report artifact in draft state.
func (r *ArtifactRepository) CreateReport(ctx context.Context, artifact *models.ReportArtifact) error {
	if artifact.ID == "" {
		artifact.ID = uuid.NewString()
	}
	if artifact.Status == "" {
		artifact.Status = models.ReportStatusDraft
	}
	now := time.Now().UTC()
	artifact.CreatedAt = now
	artifact.UpdatedAt = now
	const query = `INSERT INTO report_artifacts (id, student_id, filename, status, ai_content, plagiarism, analysis, created_at, updated_at)
        VALUES (:id, :student_id, :filename, :status, :ai_content, :plagiarism, :analysis, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, artifact); err != nil {
		return fmt.Errorf("insert report artifact: %w", err)
	}
	return nil
}

// GetReport returns a report artifact by id.
func (r *ArtifactRepository) GetReport(ctx context.Context, id string) (*models.ReportArtifact, error) {
	const query = `SELECT id, student_id, filename, status, ai_content, plagiarism, analysis, created_at, updated_at
        FROM report_artifacts WHERE id = $1`
	var artifact models.ReportArtifact
	if err := r.db.GetContext(ctx, &artifact, query, id); err != nil {
		return nil, err
	}
	return &artifact, nil
}

// UpdateReportAnalysis replaces the automated scoring payloads on a report.
func (r *ArtifactRepository) UpdateReportAnalysis(ctx context.Context, id string, aiContent, plagiarism float64, analysis models.ReportAnalysis) error {
	const query = `UPDATE report_artifacts SET ai_content = $2, plagiarism = $3, analysis = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, aiContent, plagiarism, analysis, time.Now().UTC()); err != nil {
		return fmt.Errorf("update report analysis: %w", err)
	}
	return nil
}

// PublishReportsByAssignment flips every draft report under an assignment to
// published and returns how many rows actually changed. Already published
// reports are left untouched so repeat calls report zero.
func (r *ArtifactRepository) PublishReportsByAssignment(ctx context.Context, assignmentID string) (int64, error) {
	const query = `UPDATE report_artifacts ra
        SET status = $2, updated_at = $3
        FROM submissions s
        WHERE s.report_id = ra.id AND s.assignment_id = $1 AND ra.status <> $2`
	result, err := r.db.ExecContext(ctx, query, assignmentID, models.ReportStatusPublished, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("publish reports: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("publish reports rows affected: %w", err)
	}
	return affected, nil
}

// CreateVideo inserts a video artifact.
func (r *ArtifactRepository) CreateVideo(ctx context.Context, artifact *models.VideoArtifact) error {
	if artifact.ID == "" {
		artifact.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	artifact.CreatedAt = now
	artifact.UpdatedAt = now
	const query = `INSERT INTO video_artifacts (id, student_id, filename, video_url, segments, created_at, updated_at)
        VALUES (:id, :student_id, :filename, :video_url, :segments, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, artifact); err != nil {
		return fmt.Errorf("insert video artifact: %w", err)
	}
	return nil
}

// GetVideo returns a video artifact by id.
func (r *ArtifactRepository) GetVideo(ctx context.Context, id string) (*models.VideoArtifact, error) {
	const query = `SELECT id, student_id, filename, video_url, segments, created_at, updated_at
        FROM video_artifacts WHERE id = $1`
	var artifact models.VideoArtifact
	if err := r.db.GetContext(ctx, &artifact, query, id); err != nil {
		return nil, err
	}
	return &artifact, nil
}
