package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saat-tool/saat-api/internal/service"
	appErrors "github.com/saat-tool/saat-api/pkg/errors"
	"github.com/saat-tool/saat-api/pkg/response"
)

// ArtifactHandler exposes artifact retrieval and analysis endpoints.
type ArtifactHandler struct {
	artifacts *service.ArtifactService
}

// NewArtifactHandler constructs handler.
func NewArtifactHandler(artifacts *service.ArtifactService) *ArtifactHandler {
	return &ArtifactHandler{artifacts: artifacts}
}

// GetCode godoc
// @Summary Get a code artifact
// @Tags Artifacts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Code artifact ID"
// @Success 200 {object} response.Envelope
// @Router /artifacts/code/{id} [get]
func (h *ArtifactHandler) GetCode(c *gin.Context) {
	artifact, err := h.artifacts.GetCode(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, artifact, nil)
}

// GetReport godoc
// @Summary Get a report artifact, redacted for students until published
// @Tags Artifacts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report artifact ID"
// @Success 200 {object} response.Envelope
// @Router /artifacts/report/{id} [get]
func (h *ArtifactHandler) GetReport(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	artifact, err := h.artifacts.GetReport(c.Request.Context(), c.Param("id"), claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, artifact, nil)
}

// GetVideo godoc
// @Summary Get a video artifact
// @Tags Artifacts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Video artifact ID"
// @Success 200 {object} response.Envelope
// @Router /artifacts/video/{id} [get]
func (h *ArtifactHandler) GetVideo(c *gin.Context) {
	artifact, err := h.artifacts.GetVideo(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, artifact, nil)
}

// RecordCodeAnalysis godoc
// @Summary Record automated analysis scores for a code artifact
// @Tags Artifacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Code artifact ID"
// @Param payload body service.CodeAnalysisRequest true "Analysis payload"
// @Success 200 {object} response.Envelope
// @Router /artifacts/code/{id}/analysis [put]
func (h *ArtifactHandler) RecordCodeAnalysis(c *gin.Context) {
	var req service.CodeAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	artifact, err := h.artifacts.RecordCodeAnalysis(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, artifact, nil)
}

// RecordReportAnalysis godoc
// @Summary Record automated analysis results for a report artifact
// @Tags Artifacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report artifact ID"
// @Param payload body service.ReportAnalysisRequest true "Analysis payload"
// @Success 200 {object} response.Envelope
// @Router /artifacts/report/{id}/analysis [put]
func (h *ArtifactHandler) RecordReportAnalysis(c *gin.Context) {
	var req service.ReportAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	artifact, err := h.artifacts.RecordReportAnalysis(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, artifact, nil)
}

// SetCodeFeedback godoc
// @Summary Store evaluator feedback for a code artifact
// @Tags Artifacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Code artifact ID"
// @Param payload body service.CodeFeedbackRequest true "Feedback payload"
// @Success 200 {object} response.Envelope
// @Router /artifacts/code/{id}/feedback [put]
func (h *ArtifactHandler) SetCodeFeedback(c *gin.Context) {
	var req service.CodeFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	artifact, err := h.artifacts.SetCodeFeedback(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, artifact, nil)
}
