package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/saat-tool/saat-api/internal/models"
)

// SchemeRepository handles marking scheme and criterion persistence.
type SchemeRepository struct {
	db *sqlx.DB
}

// NewSchemeRepository creates a new scheme repository.
func NewSchemeRepository(db *sqlx.DB) *SchemeRepository {
	return &SchemeRepository{db: db}
}

const schemeColumns = `id, assignment_id, title, submission_type_weights, created_by, created_at, updated_at`

// FindActiveByAssignment returns the scheme that governs grading for an
// assignment. When more than one scheme exists the oldest one wins, so the
// scheme in effect never changes just because someone added another.
func (r *SchemeRepository) FindActiveByAssignment(ctx context.Context, assignmentID string) (*models.MarkingScheme, error) {
	query := `SELECT ` + schemeColumns + ` FROM marking_schemes WHERE assignment_id = $1 ORDER BY created_at ASC LIMIT 1`
	var scheme models.MarkingScheme
	if err := r.db.GetContext(ctx, &scheme, query, assignmentID); err != nil {
		return nil, err
	}
	if err := r.loadCriteria(ctx, &scheme); err != nil {
		return nil, err
	}
	return &scheme, nil
}

// FindByID returns a scheme with its criteria.
func (r *SchemeRepository) FindByID(ctx context.Context, id string) (*models.MarkingScheme, error) {
	query := `SELECT ` + schemeColumns + ` FROM marking_schemes WHERE id = $1`
	var scheme models.MarkingScheme
	if err := r.db.GetContext(ctx, &scheme, query, id); err != nil {
		return nil, err
	}
	if err := r.loadCriteria(ctx, &scheme); err != nil {
		return nil, err
	}
	return &scheme, nil
}

// ListByAssignment returns every scheme attached to an assignment, oldest first.
func (r *SchemeRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]models.MarkingScheme, error) {
	query := `SELECT ` + schemeColumns + ` FROM marking_schemes WHERE assignment_id = $1 ORDER BY created_at ASC`
	var schemes []models.MarkingScheme
	if err := r.db.SelectContext(ctx, &schemes, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list schemes: %w", err)
	}
	for i := range schemes {
		if err := r.loadCriteria(ctx, &schemes[i]); err != nil {
			return nil, err
		}
	}
	return schemes, nil
}

// Create inserts a scheme and its criteria in one transaction.
func (r *SchemeRepository) Create(ctx context.Context, scheme *models.MarkingScheme) error {
	if scheme.ID == "" {
		scheme.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	scheme.CreatedAt = now
	scheme.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const insertScheme = `INSERT INTO marking_schemes (id, assignment_id, title, submission_type_weights, created_by, created_at, updated_at)
        VALUES (:id, :assignment_id, :title, :submission_type_weights, :created_by, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertScheme, scheme); err != nil {
		return fmt.Errorf("insert scheme: %w", err)
	}
	if err := insertCriteria(ctx, tx, scheme.ID, scheme.Criteria); err != nil {
		return err
	}
	return tx.Commit()
}

// Update rewrites a scheme's metadata and replaces its criteria.
func (r *SchemeRepository) Update(ctx context.Context, scheme *models.MarkingScheme) error {
	scheme.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const updateScheme = `UPDATE marking_schemes SET title = :title, submission_type_weights = :submission_type_weights, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, updateScheme, scheme); err != nil {
		return fmt.Errorf("update scheme: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM scheme_criteria WHERE scheme_id = $1", scheme.ID); err != nil {
		return fmt.Errorf("clear criteria: %w", err)
	}
	if err := insertCriteria(ctx, tx, scheme.ID, scheme.Criteria); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a scheme together with its criteria.
func (r *SchemeRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM marking_schemes WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete scheme: %w", err)
	}
	return nil
}

func (r *SchemeRepository) loadCriteria(ctx context.Context, scheme *models.MarkingScheme) error {
	const query = `SELECT id, scheme_id, submission_type, criterion, low_description, medium_description, high_description, weightage, position
        FROM scheme_criteria WHERE scheme_id = $1 ORDER BY submission_type ASC, position ASC`
	if err := r.db.SelectContext(ctx, &scheme.Criteria, query, scheme.ID); err != nil {
		return fmt.Errorf("load criteria: %w", err)
	}
	return nil
}

func insertCriteria(ctx context.Context, tx *sqlx.Tx, schemeID string, criteria []models.SchemeCriterion) error {
	const query = `INSERT INTO scheme_criteria (id, scheme_id, submission_type, criterion, low_description, medium_description, high_description, weightage, position)
        VALUES (:id, :scheme_id, :submission_type, :criterion, :low_description, :medium_description, :high_description, :weightage, :position)`
	for i := range criteria {
		if criteria[i].ID == "" {
			criteria[i].ID = uuid.NewString()
		}
		criteria[i].SchemeID = schemeID
		if _, err := tx.NamedExecContext(ctx, query, &criteria[i]); err != nil {
			return fmt.Errorf("insert criterion: %w", err)
		}
	}
	return nil
}
