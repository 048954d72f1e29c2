package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/saat-tool/saat-api/internal/models"
)

// AnnotationRepository stores per-section comment maps for code artifacts.
type AnnotationRepository struct {
	db *sqlx.DB
}

// NewAnnotationRepository creates a new annotation repository.
func NewAnnotationRepository(db *sqlx.DB) *AnnotationRepository {
	return &AnnotationRepository{db: db}
}

// Get returns the comment map for one artifact section. A missing row reads as
// an empty map rather than an error.
func (r *AnnotationRepository) Get(ctx context.Context, codeID string, section models.AnnotationSection) (*models.CodeAnnotation, error) {
	const query = `SELECT id, code_id, section, comments, updated_at FROM code_annotations WHERE code_id = $1 AND section = $2`
	var annotation models.CodeAnnotation
	err := r.db.GetContext(ctx, &annotation, query, codeID, section)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.CodeAnnotation{
			CodeID:   codeID,
			Section:  section,
			Comments: models.CommentMap{},
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get annotation: %w", err)
	}
	if annotation.Comments == nil {
		annotation.Comments = models.CommentMap{}
	}
	return &annotation, nil
}

// Mutate applies fn to the section's comment map under a row lock, so
// concurrent edits to the same section serialize instead of clobbering each
// other. fn returning an error rolls the change back.
func (r *AnnotationRepository) Mutate(ctx context.Context, codeID string, section models.AnnotationSection, fn func(models.CommentMap) error) (*models.CodeAnnotation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const selectQuery = `SELECT id, code_id, section, comments, updated_at
        FROM code_annotations WHERE code_id = $1 AND section = $2 FOR UPDATE`
	var annotation models.CodeAnnotation
	err = tx.GetContext(ctx, &annotation, selectQuery, codeID, section)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		annotation = models.CodeAnnotation{
			ID:       uuid.NewString(),
			CodeID:   codeID,
			Section:  section,
			Comments: models.CommentMap{},
		}
		const insertQuery = `INSERT INTO code_annotations (id, code_id, section, comments, updated_at)
            VALUES (:id, :code_id, :section, :comments, :updated_at)`
		annotation.UpdatedAt = time.Now().UTC()
		if _, err := tx.NamedExecContext(ctx, insertQuery, &annotation); err != nil {
			return nil, fmt.Errorf("insert annotation: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("lock annotation: %w", err)
	}
	if annotation.Comments == nil {
		annotation.Comments = models.CommentMap{}
	}

	if err := fn(annotation.Comments); err != nil {
		return nil, err
	}

	annotation.UpdatedAt = time.Now().UTC()
	const updateQuery = `UPDATE code_annotations SET comments = :comments, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, updateQuery, &annotation); err != nil {
		return nil, fmt.Errorf("update annotation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit annotation: %w", err)
	}
	return &annotation, nil
}
