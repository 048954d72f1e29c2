package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saat-tool/saat-api/internal/models"
	"github.com/saat-tool/saat-api/internal/service"
	appErrors "github.com/saat-tool/saat-api/pkg/errors"
	"github.com/saat-tool/saat-api/pkg/response"
)

// SubmissionHandler exposes submission endpoints.
type SubmissionHandler struct {
	submissions *service.SubmissionService
	metrics     *service.MetricsService
}

// NewSubmissionHandler constructs handler.
func NewSubmissionHandler(submissions *service.SubmissionService, metrics *service.MetricsService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, metrics: metrics}
}

// Ensure godoc
// @Summary Ensure a submission row exists for a student and assignment
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/submissions/{studentId} [post]
func (h *SubmissionHandler) Ensure(c *gin.Context) {
	submission, err := h.submissions.Ensure(c.Request.Context(), c.Param("id"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

// GetByPair godoc
// @Summary Get the submission for a student and assignment
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/submissions/{studentId} [get]
func (h *SubmissionHandler) GetByPair(c *gin.Context) {
	submission, err := h.submissions.GetByPair(c.Request.Context(), c.Param("id"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

// ListByAssignment godoc
// @Summary List submissions for an assignment
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/submissions [get]
func (h *SubmissionHandler) ListByAssignment(c *gin.Context) {
	submissions, err := h.submissions.ListByAssignment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submissions, nil)
}

// Get godoc
// @Summary Get a submission by ID
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) Get(c *gin.Context) {
	submission, err := h.submissions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

// SubmitCode godoc
// @Summary Submit a code artifact
// @Tags Submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Param studentId path string true "Student ID"
// @Param payload body service.SubmitCodeRequest true "Code payload"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/submissions/{studentId}/code [post]
func (h *SubmissionHandler) SubmitCode(c *gin.Context) {
	var req service.SubmitCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	submission, err := h.submissions.SubmitCode(c.Request.Context(), c.Param("id"), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordSubmission(string(models.SubmissionTypeCode))
	response.JSON(c, http.StatusOK, submission, nil)
}

// SubmitReport godoc
// @Summary Submit a report artifact
// @Tags Submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Param studentId path string true "Student ID"
// @Param payload body service.SubmitReportRequest true "Report payload"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/submissions/{studentId}/report [post]
func (h *SubmissionHandler) SubmitReport(c *gin.Context) {
	var req service.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	submission, err := h.submissions.SubmitReport(c.Request.Context(), c.Param("id"), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordSubmission(string(models.SubmissionTypeReport))
	response.JSON(c, http.StatusOK, submission, nil)
}

// SubmitVideo godoc
// @Summary Submit a video artifact
// @Tags Submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Param studentId path string true "Student ID"
// @Param payload body service.SubmitVideoRequest true "Video payload"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/submissions/{studentId}/video [post]
func (h *SubmissionHandler) SubmitVideo(c *gin.Context) {
	var req service.SubmitVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	submission, err := h.submissions.SubmitVideo(c.Request.Context(), c.Param("id"), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordSubmission(string(models.SubmissionTypeVideo))
	response.JSON(c, http.StatusOK, submission, nil)
}
