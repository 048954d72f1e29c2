package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saat-tool/saat-api/internal/models"
	"github.com/saat-tool/saat-api/internal/service"
	appErrors "github.com/saat-tool/saat-api/pkg/errors"
	"github.com/saat-tool/saat-api/pkg/response"
)

// MarksHandler exposes manual marking endpoints.
type MarksHandler struct {
	marks   *service.MarksService
	metrics *service.MetricsService
}

// NewMarksHandler constructs handler.
func NewMarksHandler(marks *service.MarksService, metrics *service.MetricsService) *MarksHandler {
	return &MarksHandler{marks: marks, metrics: metrics}
}

// Save godoc
// @Summary Save the full mark set for an artifact
// @Tags Marks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Param payload body service.SaveMarksRequest true "Marks payload"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/marks [put]
func (h *MarksHandler) Save(c *gin.Context) {
	var req service.SaveMarksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	sheet, err := h.marks.Save(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordMarksSaved()
	response.JSON(c, http.StatusOK, sheet, nil)
}

// Sheet godoc
// @Summary Get the mark sheet for an artifact
// @Tags Marks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Param kind query string true "Artifact kind (code, report, video)"
// @Param artifactId query string true "Artifact ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/marks [get]
func (h *MarksHandler) Sheet(c *gin.Context) {
	kind := models.SubmissionType(c.Query("kind"))
	artifactID := c.Query("artifactId")
	if !kind.Valid() || artifactID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "kind and artifactId required"))
		return
	}

	sheet, err := h.marks.Sheet(c.Request.Context(), c.Param("id"), kind, artifactID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}
