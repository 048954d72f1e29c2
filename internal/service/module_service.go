package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/saat-tool/saat-api/internal/models"
	appErrors "github.com/saat-tool/saat-api/pkg/errors"
)

type moduleRepo interface {
	List(ctx context.Context, filter models.ModuleFilter) ([]models.Module, int, error)
	FindByID(ctx context.Context, id string) (*models.Module, error)
	Create(ctx context.Context, module *models.Module) error
	Update(ctx context.Context, module *models.Module) error
	Delete(ctx context.Context, id string) error
}

// ModuleRequest creates or updates a course module.
type ModuleRequest struct {
	Name      string `json:"name" validate:"required"`
	Year      int    `json:"year" validate:"required,gte=2000"`
	Semester  int    `json:"semester" validate:"required,gte=1,lte=2"`
	EnrollKey string `json:"enroll_key"`
}

// ModuleService manages course modules.
type ModuleService struct {
	modules   moduleRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewModuleService constructs ModuleService.
func NewModuleService(modules moduleRepo, validate *validator.Validate, logger *zap.Logger) *ModuleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModuleService{modules: modules, validator: validate, logger: logger}
}

// List returns modules matching the filter plus pagination metadata.
func (s *ModuleService) List(ctx context.Context, filter models.ModuleFilter) ([]models.Module, *models.Pagination, error) {
	modules, total, err := s.modules.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list modules")
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	return modules, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns one module.
func (s *ModuleService) Get(ctx context.Context, id string) (*models.Module, error) {
	module, err := s.modules.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "module not found", "failed to load module")
	}
	return module, nil
}

// Create adds a new module owned by the calling teacher.
func (s *ModuleService) Create(ctx context.Context, createdBy string, req ModuleRequest) (*models.Module, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid module payload")
	}
	module := &models.Module{
		Name:      req.Name,
		Year:      req.Year,
		Semester:  req.Semester,
		EnrollKey: req.EnrollKey,
		CreatedBy: createdBy,
	}
	if err := s.modules.Create(ctx, module); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create module")
	}
	s.logger.Info("module created", zap.String("module_id", module.ID), zap.String("created_by", createdBy))
	return module, nil
}

// Update applies changes to a module.
func (s *ModuleService) Update(ctx context.Context, id string, req ModuleRequest) (*models.Module, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid module payload")
	}
	module, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	module.Name = req.Name
	module.Year = req.Year
	module.Semester = req.Semester
	module.EnrollKey = req.EnrollKey
	if err := s.modules.Update(ctx, module); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update module")
	}
	return module, nil
}

// Delete removes a module.
func (s *ModuleService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.modules.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete module")
	}
	return nil
}
