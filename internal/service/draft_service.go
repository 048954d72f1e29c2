package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/saat-tool/saat-api/internal/models"
	appErrors "github.com/saat-tool/saat-api/pkg/errors"
)

type draftCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// SaveDraftRequest stores an in-progress code submission.
type SaveDraftRequest struct {
	GithubURL string  `json:"github_url" validate:"required,url"`
	CodeID    *string `json:"code_id,omitempty"`
}

// DraftService keeps in-progress code submissions server-side, scoped to the
// (assignment, student) pair. Entries expire on their own so abandoned drafts
// never leak into another assignment or user.
type DraftService struct {
	cache     draftCache
	ttl       time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDraftService constructs DraftService.
func NewDraftService(cache draftCache, ttl time.Duration, validate *validator.Validate, logger *zap.Logger) *DraftService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DraftService{cache: cache, ttl: ttl, validator: validate, logger: logger}
}

func draftKey(assignmentID, studentID string) string {
	return fmt.Sprintf("draft:code:%s:%s", assignmentID, studentID)
}

// Save stores or refreshes the draft for the pair, resetting the TTL.
func (s *DraftService) Save(ctx context.Context, assignmentID, studentID string, req SaveDraftRequest) (*models.CodeDraft, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid draft payload")
	}
	draft := &models.CodeDraft{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		GithubURL:    req.GithubURL,
		CodeID:       req.CodeID,
		SavedAt:      time.Now().UTC(),
	}
	if err := s.cache.Set(ctx, draftKey(assignmentID, studentID), draft, s.ttl); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save draft")
	}
	return draft, nil
}

// Get returns the stored draft, or a 404 when none exists or it expired.
func (s *DraftService) Get(ctx context.Context, assignmentID, studentID string) (*models.CodeDraft, error) {
	var draft models.CodeDraft
	err := s.cache.Get(ctx, draftKey(assignmentID, studentID), &draft)
	if errors.Is(err, appErrors.ErrCacheMiss) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no draft saved")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load draft")
	}
	return &draft, nil
}

// Clear drops the draft for the pair. Clearing an absent draft is a no-op.
func (s *DraftService) Clear(ctx context.Context, assignmentID, studentID string) error {
	if err := s.cache.Delete(ctx, draftKey(assignmentID, studentID)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear draft")
	}
	return nil
}
