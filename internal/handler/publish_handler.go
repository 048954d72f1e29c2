package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saat-tool/saat-api/internal/service"
	"github.com/saat-tool/saat-api/pkg/response"
)

// PublishHandler exposes the grade release endpoint.
type PublishHandler struct {
	publish *service.PublishService
	metrics *service.MetricsService
}

// NewPublishHandler constructs handler.
func NewPublishHandler(publish *service.PublishService, metrics *service.MetricsService) *PublishHandler {
	return &PublishHandler{publish: publish, metrics: metrics}
}

// Publish godoc
// @Summary Publish all report artifacts for an assignment
// @Tags Publish
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/publish [post]
func (h *PublishHandler) Publish(c *gin.Context) {
	result, err := h.publish.PublishAssignment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordPublished(result.Published)
	response.JSON(c, http.StatusOK, result, nil)
}
