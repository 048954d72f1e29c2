package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saat-tool/saat-api/internal/models"
	appErrors "github.com/saat-tool/saat-api/pkg/errors"
)

type fakeAnnotationRepo struct {
	comments models.CommentMap
}

func (f *fakeAnnotationRepo) Get(_ context.Context, codeID string, section models.AnnotationSection) (*models.CodeAnnotation, error) {
	return &models.CodeAnnotation{CodeID: codeID, Section: section, Comments: f.comments}, nil
}

func (f *fakeAnnotationRepo) Mutate(_ context.Context, codeID string, section models.AnnotationSection, fn func(models.CommentMap) error) (*models.CodeAnnotation, error) {
	if f.comments == nil {
		f.comments = models.CommentMap{}
	}
	if err := fn(f.comments); err != nil {
		return nil, err
	}
	return &models.CodeAnnotation{CodeID: codeID, Section: section, Comments: f.comments}, nil
}

type fakeCodeReader struct {
	err error
}

func (f *fakeCodeReader) GetCode(context.Context, string) (*models.CodeArtifact, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.CodeArtifact{ID: "code-1"}, nil
}

func TestAnnotationAddAndDeleteRoundTrip(t *testing.T) {
	repo := &fakeAnnotationRepo{}
	svc := NewAnnotationService(repo, &fakeCodeReader{}, nil, nil)

	_, err := svc.Add(context.Background(), "code-1", models.SectionEvaluator, AddCommentRequest{
		Path: "main.go", Line: "10", Text: "rename this",
	})
	require.NoError(t, err)

	annotation, err := svc.Delete(context.Background(), "code-1", models.SectionEvaluator, DeleteCommentRequest{
		Path: "main.go", Line: "10", Text: "rename this",
	})
	require.NoError(t, err)
	assert.Empty(t, annotation.Comments)
}

func TestAnnotationDeleteMissingComment(t *testing.T) {
	svc := NewAnnotationService(&fakeAnnotationRepo{}, &fakeCodeReader{}, nil, nil)

	_, err := svc.Delete(context.Background(), "code-1", models.SectionEvaluator, DeleteCommentRequest{
		Path: "main.go", Line: "10", Text: "never added",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAnnotationEditReplacesFirstMatch(t *testing.T) {
	repo := &fakeAnnotationRepo{comments: models.CommentMap{
		"main.go": {"10": {"old", "old"}},
	}}
	svc := NewAnnotationService(repo, &fakeCodeReader{}, nil, nil)

	annotation, err := svc.Edit(context.Background(), "code-1", models.SectionCodeNaming, EditCommentRequest{
		Path: "main.go", Line: "10", OldText: "old", NewText: "new",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "old"}, annotation.Comments["main.go"]["10"])
}

func TestAnnotationRejectsUnknownSection(t *testing.T) {
	svc := NewAnnotationService(&fakeAnnotationRepo{}, &fakeCodeReader{}, nil, nil)

	_, err := svc.Get(context.Background(), "code-1", models.AnnotationSection("margins"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
