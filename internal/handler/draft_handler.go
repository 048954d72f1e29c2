package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saat-tool/saat-api/internal/service"
	appErrors "github.com/saat-tool/saat-api/pkg/errors"
	"github.com/saat-tool/saat-api/pkg/response"
)

// DraftHandler exposes code draft endpoints. Drafts live server side with a
// TTL so students can resume an unfinished submission from any device.
type DraftHandler struct {
	drafts *service.DraftService
}

// NewDraftHandler constructs handler.
func NewDraftHandler(drafts *service.DraftService) *DraftHandler {
	return &DraftHandler{drafts: drafts}
}

// Save godoc
// @Summary Save a code draft for a student and assignment
// @Tags Drafts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Param studentId path string true "Student ID"
// @Param payload body service.SaveDraftRequest true "Draft payload"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/drafts/{studentId} [put]
func (h *DraftHandler) Save(c *gin.Context) {
	var req service.SaveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	draft, err := h.drafts.Save(c.Request.Context(), c.Param("id"), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// Get godoc
// @Summary Get the saved code draft for a student and assignment
// @Tags Drafts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/drafts/{studentId} [get]
func (h *DraftHandler) Get(c *gin.Context) {
	draft, err := h.drafts.Get(c.Request.Context(), c.Param("id"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// Clear godoc
// @Summary Discard the saved code draft for a student and assignment
// @Tags Drafts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Param studentId path string true "Student ID"
// @Success 204
// @Router /assignments/{id}/drafts/{studentId} [delete]
func (h *DraftHandler) Clear(c *gin.Context) {
	if err := h.drafts.Clear(c.Request.Context(), c.Param("id"), c.Param("studentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
