package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saat-tool/saat-api/internal/service"
	appErrors "github.com/saat-tool/saat-api/pkg/errors"
	"github.com/saat-tool/saat-api/pkg/response"
)

// SchemeHandler exposes marking scheme endpoints.
type SchemeHandler struct {
	schemes *service.SchemeService
}

// NewSchemeHandler constructs handler.
func NewSchemeHandler(schemes *service.SchemeService) *SchemeHandler {
	return &SchemeHandler{schemes: schemes}
}

// Resolve godoc
// @Summary Resolve the effective marking scheme for an assignment
// @Tags Schemes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/scheme [get]
func (h *SchemeHandler) Resolve(c *gin.Context) {
	resolved, err := h.schemes.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := map[string]interface{}{"weightage_sums": service.WeightageSums(resolved.Criteria)}
	response.JSON(c, http.StatusOK, resolved, nil, meta)
}

// ListByAssignment godoc
// @Summary List marking schemes for an assignment
// @Tags Schemes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/schemes [get]
func (h *SchemeHandler) ListByAssignment(c *gin.Context) {
	schemes, err := h.schemes.ListByAssignment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schemes, nil)
}

// Get godoc
// @Summary Get a marking scheme
// @Tags Schemes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Scheme ID"
// @Success 200 {object} response.Envelope
// @Router /schemes/{id} [get]
func (h *SchemeHandler) Get(c *gin.Context) {
	scheme, err := h.schemes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scheme, nil)
}

// Create godoc
// @Summary Create a marking scheme for an assignment
// @Tags Schemes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Param payload body service.SchemeRequest true "Scheme payload"
// @Success 201 {object} response.Envelope
// @Router /assignments/{id}/schemes [post]
func (h *SchemeHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SchemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	scheme, err := h.schemes.Create(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, scheme)
}

// Update godoc
// @Summary Update a marking scheme
// @Tags Schemes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Scheme ID"
// @Param payload body service.SchemeRequest true "Scheme payload"
// @Success 200 {object} response.Envelope
// @Router /schemes/{id} [put]
func (h *SchemeHandler) Update(c *gin.Context) {
	var req service.SchemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	scheme, err := h.schemes.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scheme, nil)
}

// Delete godoc
// @Summary Delete a marking scheme
// @Tags Schemes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Scheme ID"
// @Success 204
// @Router /schemes/{id} [delete]
func (h *SchemeHandler) Delete(c *gin.Context) {
	if err := h.schemes.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
