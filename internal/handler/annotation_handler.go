package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saat-tool/saat-api/internal/models"
	"github.com/saat-tool/saat-api/internal/service"
	appErrors "github.com/saat-tool/saat-api/pkg/errors"
	"github.com/saat-tool/saat-api/pkg/response"
)

// AnnotationHandler exposes evaluator annotation endpoints. All four
// annotation sections share the same routes with a section path parameter.
type AnnotationHandler struct {
	annotations *service.AnnotationService
}

// NewAnnotationHandler constructs handler.
func NewAnnotationHandler(annotations *service.AnnotationService) *AnnotationHandler {
	return &AnnotationHandler{annotations: annotations}
}

func sectionParam(c *gin.Context) (models.AnnotationSection, error) {
	section := models.AnnotationSection(c.Param("section"))
	if !section.Valid() {
		return "", appErrors.Clone(appErrors.ErrValidation, "unknown annotation section")
	}
	return section, nil
}

// Get godoc
// @Summary Get annotations for a code artifact section
// @Tags Annotations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Code artifact ID"
// @Param section path string true "Annotation section"
// @Success 200 {object} response.Envelope
// @Router /artifacts/code/{id}/annotations/{section} [get]
func (h *AnnotationHandler) Get(c *gin.Context) {
	section, err := sectionParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	annotation, err := h.annotations.Get(c.Request.Context(), c.Param("id"), section)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, annotation, nil)
}

// Add godoc
// @Summary Add a comment to a code artifact section
// @Tags Annotations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Code artifact ID"
// @Param section path string true "Annotation section"
// @Param payload body service.AddCommentRequest true "Comment payload"
// @Success 200 {object} response.Envelope
// @Router /artifacts/code/{id}/annotations/{section} [post]
func (h *AnnotationHandler) Add(c *gin.Context) {
	section, err := sectionParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req service.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	annotation, err := h.annotations.Add(c.Request.Context(), c.Param("id"), section, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, annotation, nil)
}

// Edit godoc
// @Summary Edit a comment in a code artifact section
// @Tags Annotations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Code artifact ID"
// @Param section path string true "Annotation section"
// @Param payload body service.EditCommentRequest true "Edit payload"
// @Success 200 {object} response.Envelope
// @Router /artifacts/code/{id}/annotations/{section} [put]
func (h *AnnotationHandler) Edit(c *gin.Context) {
	section, err := sectionParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req service.EditCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	annotation, err := h.annotations.Edit(c.Request.Context(), c.Param("id"), section, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, annotation, nil)
}

// Delete godoc
// @Summary Delete a comment from a code artifact section
// @Tags Annotations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Code artifact ID"
// @Param section path string true "Annotation section"
// @Param payload body service.DeleteCommentRequest true "Delete payload"
// @Success 200 {object} response.Envelope
// @Router /artifacts/code/{id}/annotations/{section} [delete]
func (h *AnnotationHandler) Delete(c *gin.Context) {
	section, err := sectionParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req service.DeleteCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	annotation, err := h.annotations.Delete(c.Request.Context(), c.Param("id"), section, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, annotation, nil)
}
