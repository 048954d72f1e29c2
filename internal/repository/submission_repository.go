package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/saat-tool/saat-api/internal/models"
)

// SubmissionRepository handles submission rows and their artifact links.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository creates a new submission repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

const submissionColumns = `id, assignment_id, student_id, code_id, report_id, video_id, created_at, updated_at`

// artifactColumn maps a submission type to the column holding its artifact id.
var artifactColumn = map[models.SubmissionType]string{
	models.SubmissionTypeCode:   "code_id",
	models.SubmissionTypeReport: "report_id",
	models.SubmissionTypeVideo:  "video_id",
}

// Ensure inserts the (assignment, student) submission row if it does not exist
// yet and returns the row either way. The unique pair index makes concurrent
// calls collapse onto a single row.
func (r *SubmissionRepository) Ensure(ctx context.Context, assignmentID, studentID string) (*models.Submission, error) {
	now := time.Now().UTC()
	const query = `INSERT INTO submissions (id, assignment_id, student_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $4)
        ON CONFLICT (assignment_id, student_id) DO UPDATE SET updated_at = EXCLUDED.updated_at
        RETURNING ` + submissionColumns
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, uuid.NewString(), assignmentID, studentID, now); err != nil {
		return nil, fmt.Errorf("ensure submission: %w", err)
	}
	return &submission, nil
}

// FindByID returns a submission by id.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		return nil, err
	}
	return &submission, nil
}

// FindByPair returns the submission for an (assignment, student) pair.
func (r *SubmissionRepository) FindByPair(ctx context.Context, assignmentID, studentID string) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE assignment_id = $1 AND student_id = $2`
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, assignmentID, studentID); err != nil {
		return nil, err
	}
	return &submission, nil
}

// ListByAssignment returns every submission for an assignment joined with the
// owning student's name, ordered by student name for stable listings.
func (r *SubmissionRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]models.SubmissionWithStudent, error) {
	const query = `SELECT s.id, s.assignment_id, s.student_id, s.code_id, s.report_id, s.video_id, s.created_at, s.updated_at,
            u.full_name AS student_name, u.email AS student_email
        FROM submissions s
        JOIN users u ON u.id = s.student_id
        WHERE s.assignment_id = $1
        ORDER BY u.full_name ASC`
	var submissions []models.SubmissionWithStudent
	if err := r.db.SelectContext(ctx, &submissions, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, nil
}

// AttachArtifact points one of the submission's artifact slots at an artifact row.
func (r *SubmissionRepository) AttachArtifact(ctx context.Context, submissionID string, t models.SubmissionType, artifactID string) error {
	column, ok := artifactColumn[t]
	if !ok {
		return fmt.Errorf("unknown submission type %q", t)
	}
	query := fmt.Sprintf(`UPDATE submissions SET %s = $2, updated_at = $3 WHERE id = $1`, column)
	if _, err := r.db.ExecContext(ctx, query, submissionID, artifactID, time.Now().UTC()); err != nil {
		return fmt.Errorf("attach %s artifact: %w", t, err)
	}
	return nil
}
