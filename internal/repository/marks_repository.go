package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/saat-tool/saat-api/internal/models"
)

// MarksRepository handles teacher-entered manual marks.
type MarksRepository struct {
	db *sqlx.DB
}

// NewMarksRepository creates a new marks repository.
func NewMarksRepository(db *sqlx.DB) *MarksRepository {
	return &MarksRepository{db: db}
}

const markColumns = `id, artifact_kind, artifact_id, marking_scheme_id, criterion, mark, created_at, updated_at`

// Upsert writes the full mark set for one artifact in a single transaction.
// Each criterion keeps at most one mark thanks to the unique
// (artifact_kind, artifact_id, criterion) index.
func (r *MarksRepository) Upsert(ctx context.Context, marks []models.ManualMark) error {
	if len(marks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	const query = `INSERT INTO manual_marks (id, artifact_kind, artifact_id, marking_scheme_id, criterion, mark, created_at, updated_at)
        VALUES (:id, :artifact_kind, :artifact_id, :marking_scheme_id, :criterion, :mark, :created_at, :updated_at)
        ON CONFLICT (artifact_kind, artifact_id, criterion)
        DO UPDATE SET mark = EXCLUDED.mark, marking_scheme_id = EXCLUDED.marking_scheme_id, updated_at = EXCLUDED.updated_at`
	for i := range marks {
		if marks[i].ID == "" {
			marks[i].ID = uuid.NewString()
		}
		marks[i].CreatedAt = now
		marks[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, &marks[i]); err != nil {
			return fmt.Errorf("upsert mark %q: %w", marks[i].Criterion, err)
		}
	}
	return tx.Commit()
}

// ListByArtifact returns every mark on one artifact.
func (r *MarksRepository) ListByArtifact(ctx context.Context, kind models.SubmissionType, artifactID string) ([]models.ManualMark, error) {
	query := `SELECT ` + markColumns + ` FROM manual_marks WHERE artifact_kind = $1 AND artifact_id = $2 ORDER BY criterion ASC`
	var marks []models.ManualMark
	if err := r.db.SelectContext(ctx, &marks, query, kind, artifactID); err != nil {
		return nil, fmt.Errorf("list marks: %w", err)
	}
	return marks, nil
}

// ListByArtifacts returns marks for many artifacts of one kind, keyed by
// artifact id. Used by the grading sheet exporter to avoid per-student queries.
func (r *MarksRepository) ListByArtifacts(ctx context.Context, kind models.SubmissionType, artifactIDs []string) (map[string][]models.ManualMark, error) {
	result := make(map[string][]models.ManualMark, len(artifactIDs))
	if len(artifactIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT `+markColumns+` FROM manual_marks WHERE artifact_kind = ? AND artifact_id IN (?)`, kind, artifactIDs)
	if err != nil {
		return nil, fmt.Errorf("build marks query: %w", err)
	}
	query = r.db.Rebind(query)

	var marks []models.ManualMark
	if err := r.db.SelectContext(ctx, &marks, query, args...); err != nil {
		return nil, fmt.Errorf("list marks by artifacts: %w", err)
	}
	for _, mark := range marks {
		result[mark.ArtifactID] = append(result[mark.ArtifactID], mark)
	}
	return result, nil
}
