package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/saat-tool/saat-api/internal/models"
)

// ModuleRepository handles course module persistence.
type ModuleRepository struct {
	db *sqlx.DB
}

// NewModuleRepository creates a new module repository.
func NewModuleRepository(db *sqlx.DB) *ModuleRepository {
	return &ModuleRepository{db: db}
}

// List returns modules matching the filter with a total count.
func (r *ModuleRepository) List(ctx context.Context, filter models.ModuleFilter) ([]models.Module, int, error) {
	base := ` FROM modules WHERE 1=1`
	var args []interface{}
	if filter.Year != nil {
		base += fmt.Sprintf(" AND year = $%d", len(args)+1)
		args = append(args, *filter.Year)
	}
	if filter.Semester != nil {
		base += fmt.Sprintf(" AND semester = $%d", len(args)+1)
		args = append(args, *filter.Semester)
	}
	if filter.Search != "" {
		base += fmt.Sprintf(" AND name ILIKE $%d", len(args)+1)
		args = append(args, "%"+filter.Search+"%")
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	query := `SELECT id, name, year, semester, enroll_key, created_by, created_at, updated_at` + base +
		fmt.Sprintf(" ORDER BY year DESC, semester DESC, name ASC LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)
	var modules []models.Module
	if err := r.db.SelectContext(ctx, &modules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list modules: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count modules: %w", err)
	}
	return modules, total, nil
}

// FindByID returns a module by id.
func (r *ModuleRepository) FindByID(ctx context.Context, id string) (*models.Module, error) {
	const query = `SELECT id, name, year, semester, enroll_key, created_by, created_at, updated_at FROM modules WHERE id = $1`
	var module models.Module
	if err := r.db.GetContext(ctx, &module, query, id); err != nil {
		return nil, err
	}
	return &module, nil
}

// Create inserts a new module.
func (r *ModuleRepository) Create(ctx context.Context, module *models.Module) error {
	if module.ID == "" {
		module.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	module.CreatedAt = now
	module.UpdatedAt = now
	const query = `INSERT INTO modules (id, name, year, semester, enroll_key, created_by, created_at, updated_at)
        VALUES (:id, :name, :year, :semester, :enroll_key, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, module); err != nil {
		return fmt.Errorf("insert module: %w", err)
	}
	return nil
}

// Update applies changes to module metadata.
func (r *ModuleRepository) Update(ctx context.Context, module *models.Module) error {
	module.UpdatedAt = time.Now().UTC()
	const query = `UPDATE modules SET name = :name, year = :year, semester = :semester, enroll_key = :enroll_key, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, module); err != nil {
		return fmt.Errorf("update module: %w", err)
	}
	return nil
}

// Delete removes a module.
func (r *ModuleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM modules WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete module: %w", err)
	}
	return nil
}
