package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/saat-tool/saat-api/internal/models"
	appErrors "github.com/saat-tool/saat-api/pkg/errors"
	"github.com/saat-tool/saat-api/pkg/export"
	"github.com/saat-tool/saat-api/pkg/jobs"
)

type reportJobRepo interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	UpdateStatus(ctx context.Context, job *models.ReportJob) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.ReportJob, error)
	ListStale(ctx context.Context, cutoff time.Time) ([]models.ReportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time) ([]models.ReportJob, error)
	Delete(ctx context.Context, id string) error
}

type submissionLister interface {
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.SubmissionWithStudent, error)
}

type marksBulkReader interface {
	ListByArtifacts(ctx context.Context, kind models.SubmissionType, artifactIDs []string) (map[string][]models.ManualMark, error)
}

type marksAggregator interface {
	ArtifactTotal(criteria []models.SchemeCriterion, marks []models.ManualMark) *float64
	SubmissionTotal(flags models.SubmissionTypeFlags, weights models.TypeWeights, totals map[models.SubmissionType]*float64) *float64
}

type assignmentLister interface {
	assignmentReader
	ListByModule(ctx context.Context, moduleID string) ([]models.Assignment, error)
}

type exportStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type urlSigner interface {
	Generate(jobID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// CreateReportRequest queues an asynchronous export.
type CreateReportRequest struct {
	Type         string  `json:"type" validate:"required,oneof=grading_sheet module_summary"`
	AssignmentID string  `json:"assignment_id"`
	ModuleID     *string `json:"module_id,omitempty"`
	Format       string  `json:"format" validate:"required,oneof=csv pdf"`
}

// ReportDownload describes a verified download.
type ReportDownload struct {
	File     *os.File
	Filename string
	Format   models.ReportFormat
}

// ReportService queues, renders and serves grading exports. Rendering happens
// on the background queue; clients poll the job until a signed result URL
// appears.
type ReportService struct {
	jobs        reportJobRepo
	submissions submissionLister
	assignments assignmentLister
	modules     moduleReader
	resolver    schemeResolver
	marks       marksBulkReader
	aggregator  marksAggregator
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	storage     exportStorage
	signer      urlSigner
	queue       jobEnqueuer
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewReportService constructs ReportService. The queue is attached later via
// SetQueue because the queue handler closes over this service.
func NewReportService(
	jobsRepo reportJobRepo,
	submissions submissionLister,
	assignments assignmentLister,
	modules moduleReader,
	resolver schemeResolver,
	marks marksBulkReader,
	aggregator marksAggregator,
	storage exportStorage,
	signer urlSigner,
	validate *validator.Validate,
	logger *zap.Logger,
) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		jobs:        jobsRepo,
		submissions: submissions,
		assignments: assignments,
		modules:     modules,
		resolver:    resolver,
		marks:       marks,
		aggregator:  aggregator,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		storage:     storage,
		signer:      signer,
		validator:   validate,
		logger:      logger,
	}
}

// SetQueue attaches the background queue used for processing.
func (s *ReportService) SetQueue(queue jobEnqueuer) {
	s.queue = queue
}

// CreateJob validates the request, persists a QUEUED job and enqueues it.
func (s *ReportService) CreateJob(ctx context.Context, userID string, req CreateReportRequest) (*models.ReportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report request")
	}
	reportType := models.ReportType(req.Type)
	switch reportType {
	case models.ReportTypeGradingSheet:
		if req.AssignmentID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "assignment_id required for grading sheet")
		}
		if _, err := s.assignments.FindByID(ctx, req.AssignmentID); err != nil {
			return nil, notFoundOrInternal(err, "assignment not found", "failed to load assignment")
		}
	case models.ReportTypeModuleSummary:
		if req.ModuleID == nil || *req.ModuleID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "module_id required for module summary")
		}
		if _, err := s.modules.FindByID(ctx, *req.ModuleID); err != nil {
			return nil, notFoundOrInternal(err, "module not found", "failed to load module")
		}
	}

	job := &models.ReportJob{
		Type:      reportType,
		Status:    models.ReportJobQueued,
		CreatedBy: userID,
		Params: models.ReportJobParams{
			AssignmentID: req.AssignmentID,
			ModuleID:     req.ModuleID,
			Format:       models.ReportFormat(req.Format),
		},
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}

	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "report queue unavailable")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(reportType)}); err != nil {
		s.failJob(ctx, job, fmt.Sprintf("enqueue failed: %v", err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}
	s.logger.Info("report job queued",
		zap.String("job_id", job.ID),
		zap.String("type", string(reportType)),
		zap.String("created_by", userID))
	return job, nil
}

// Get returns a job, restricted to its owner unless the reader is an admin.
func (s *ReportService) Get(ctx context.Context, id, userID string, role models.UserRole) (*models.ReportJob, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "report job not found", "failed to load report job")
	}
	if job.CreatedBy != userID && role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report job belongs to another user")
	}
	return job, nil
}

// List returns the caller's jobs, newest first.
func (s *ReportService) List(ctx context.Context, userID string, limit int) ([]models.ReportJob, error) {
	list, err := s.jobs.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list report jobs")
	}
	return list, nil
}

// Download verifies a signed token and opens the exported file.
func (s *ReportService) Download(ctx context.Context, token string) (*ReportDownload, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, notFoundOrInternal(err, "report job not found", "failed to load report job")
	}
	if job.Status != models.ReportJobFinished {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "report is not ready")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file missing")
	}
	return &ReportDownload{File: file, Filename: relPath, Format: job.Params.Format}, nil
}

// Process renders one queued job. It is the queue handler: returning an error
// triggers the queue's retry policy, so unrecoverable failures are absorbed
// after marking the job FAILED.
func (s *ReportService) Process(ctx context.Context, queued jobs.Job) error {
	job, err := s.jobs.GetByID(ctx, queued.ID)
	if err != nil {
		return fmt.Errorf("load report job %s: %w", queued.ID, err)
	}
	if job.Status == models.ReportJobFinished {
		return nil
	}

	job.Status = models.ReportJobProcessing
	job.Progress = 10
	if err := s.jobs.UpdateStatus(ctx, job); err != nil {
		return fmt.Errorf("mark job processing: %w", err)
	}

	dataset, title, subtitle, err := s.buildDataset(ctx, job)
	if err != nil {
		s.failJob(ctx, job, err.Error())
		return nil
	}
	job.Progress = 60
	if err := s.jobs.UpdateStatus(ctx, job); err != nil {
		s.logger.Warn("failed to record job progress", zap.String("job_id", job.ID), zap.Error(err))
	}

	var payload []byte
	ext := string(job.Params.Format)
	switch job.Params.Format {
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title, subtitle)
	default:
		payload, err = s.csv.Render(dataset)
	}
	if err != nil {
		s.failJob(ctx, job, fmt.Sprintf("render failed: %v", err))
		return nil
	}

	relPath := fmt.Sprintf("%s/%s.%s", job.Type, job.ID, ext)
	if _, err := s.storage.Save(relPath, payload); err != nil {
		s.failJob(ctx, job, fmt.Sprintf("store failed: %v", err))
		return nil
	}

	token, _, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		s.failJob(ctx, job, fmt.Sprintf("sign failed: %v", err))
		return nil
	}
	resultURL := "/api/v1/downloads/reports?token=" + token
	now := time.Now().UTC()
	job.Status = models.ReportJobFinished
	job.Progress = 100
	job.ResultURL = &resultURL
	job.FinishedAt = &now
	job.ErrorMessage = nil
	if err := s.jobs.UpdateStatus(ctx, job); err != nil {
		return fmt.Errorf("mark job finished: %w", err)
	}
	s.logger.Info("report job finished",
		zap.String("job_id", job.ID),
		zap.String("type", string(job.Type)),
		zap.Int("rows", len(dataset.Rows)))
	return nil
}

// RecoverStale fails jobs left QUEUED or PROCESSING by a previous run.
func (s *ReportService) RecoverStale(ctx context.Context, olderThan time.Duration) {
	stale, err := s.jobs.ListStale(ctx, time.Now().UTC().Add(-olderThan))
	if err != nil {
		s.logger.Warn("stale job scan failed", zap.Error(err))
		return
	}
	for i := range stale {
		s.failJob(ctx, &stale[i], "orphaned by restart")
	}
	if len(stale) > 0 {
		s.logger.Info("recovered stale report jobs", zap.Int("count", len(stale)))
	}
}

// CleanupExpired drops finished jobs older than the retention window together
// with their files.
func (s *ReportService) CleanupExpired(ctx context.Context, retention time.Duration) {
	expired, err := s.jobs.ListFinishedBefore(ctx, time.Now().UTC().Add(-retention))
	if err != nil {
		s.logger.Warn("report cleanup scan failed", zap.Error(err))
		return
	}
	for _, job := range expired {
		relPath := fmt.Sprintf("%s/%s.%s", job.Type, job.ID, job.Params.Format)
		if err := s.storage.Delete(relPath); err != nil {
			s.logger.Warn("failed to delete export file", zap.String("job_id", job.ID), zap.Error(err))
		}
		if err := s.jobs.Delete(ctx, job.ID); err != nil {
			s.logger.Warn("failed to delete report job", zap.String("job_id", job.ID), zap.Error(err))
			continue
		}
	}
	if _, err := s.storage.CleanupOlderThan(retention); err != nil {
		s.logger.Warn("export directory cleanup failed", zap.Error(err))
	}
}

func (s *ReportService) failJob(ctx context.Context, job *models.ReportJob, message string) {
	now := time.Now().UTC()
	job.Status = models.ReportJobFailed
	job.FinishedAt = &now
	job.ErrorMessage = &message
	if err := s.jobs.UpdateStatus(ctx, job); err != nil {
		s.logger.Error("failed to mark report job failed", zap.String("job_id", job.ID), zap.Error(err))
	}
	s.logger.Warn("report job failed", zap.String("job_id", job.ID), zap.String("reason", message))
}

func (s *ReportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, string, error) {
	switch job.Type {
	case models.ReportTypeModuleSummary:
		return s.buildModuleSummary(ctx, job.Params)
	default:
		return s.buildGradingSheet(ctx, job.Params.AssignmentID)
	}
}

// buildGradingSheet assembles one row per submission with per-modality totals
// and the weighted overall result.
func (s *ReportService) buildGradingSheet(ctx context.Context, assignmentID string) (export.Dataset, string, string, error) {
	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		return export.Dataset{}, "", "", fmt.Errorf("load assignment: %w", err)
	}
	resolved, err := s.resolver.Resolve(ctx, assignmentID)
	if err != nil {
		return export.Dataset{}, "", "", fmt.Errorf("resolve scheme: %w", err)
	}
	submissions, err := s.submissions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return export.Dataset{}, "", "", fmt.Errorf("list submissions: %w", err)
	}

	marksByKind := map[models.SubmissionType]map[string][]models.ManualMark{}
	for _, t := range models.SubmissionTypes {
		if !assignment.Types.Enabled(t) {
			continue
		}
		ids := make([]string, 0, len(submissions))
		for _, sub := range submissions {
			if id := sub.ArtifactID(t); id != nil {
				ids = append(ids, *id)
			}
		}
		byArtifact, err := s.marks.ListByArtifacts(ctx, t, ids)
		if err != nil {
			return export.Dataset{}, "", "", fmt.Errorf("load %s marks: %w", t, err)
		}
		marksByKind[t] = byArtifact
	}

	headers := []string{"Student", "Email"}
	for _, t := range models.SubmissionTypes {
		if assignment.Types.Enabled(t) {
			headers = append(headers, totalHeader(t))
		}
	}
	headers = append(headers, "Overall")

	rows := make([]map[string]string, 0, len(submissions))
	for _, sub := range submissions {
		row := map[string]string{"Student": sub.StudentName, "Email": sub.StudentEmail}
		totals := map[models.SubmissionType]*float64{}
		for _, t := range models.SubmissionTypes {
			if !assignment.Types.Enabled(t) {
				continue
			}
			var total *float64
			if id := sub.ArtifactID(t); id != nil {
				total = s.aggregator.ArtifactTotal(resolved.Criteria[t], marksByKind[t][*id])
			}
			totals[t] = total
			row[totalHeader(t)] = formatTotal(total)
		}
		row["Overall"] = formatTotal(s.aggregator.SubmissionTotal(assignment.Types, resolved.Weights, totals))
		rows = append(rows, row)
	}

	subtitle := fmt.Sprintf("%d submissions, generated %s", len(submissions), time.Now().UTC().Format("2006-01-02"))
	return export.Dataset{Headers: headers, Rows: rows}, "Grading Sheet: "+assignment.Name, subtitle, nil
}

// buildModuleSummary lists the module's assignments with submission counts.
func (s *ReportService) buildModuleSummary(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, string, error) {
	module, err := s.modules.FindByID(ctx, *params.ModuleID)
	if err != nil {
		return export.Dataset{}, "", "", fmt.Errorf("load module: %w", err)
	}
	assignments, err := s.assignments.ListByModule(ctx, module.ID)
	if err != nil {
		return export.Dataset{}, "", "", fmt.Errorf("list assignments: %w", err)
	}

	headers := []string{"Assignment", "Deadline", "Submissions"}
	rows := make([]map[string]string, 0, len(assignments))
	for _, assignment := range assignments {
		submissions, err := s.submissions.ListByAssignment(ctx, assignment.ID)
		if err != nil {
			return export.Dataset{}, "", "", fmt.Errorf("list submissions: %w", err)
		}
		rows = append(rows, map[string]string{
			"Assignment":  assignment.Name,
			"Deadline":    assignment.Deadline.Format("2006-01-02"),
			"Submissions": strconv.Itoa(len(submissions)),
		})
	}
	subtitle := fmt.Sprintf("Year %d semester %d", module.Year, module.Semester)
	return export.Dataset{Headers: headers, Rows: rows}, "Module Summary: "+module.Name, subtitle, nil
}

func totalHeader(t models.SubmissionType) string {
	switch t {
	case models.SubmissionTypeCode:
		return "Code Total"
	case models.SubmissionTypeReport:
		return "Report Total"
	case models.SubmissionTypeVideo:
		return "Video Total"
	default:
		return string(t)
	}
}

func formatTotal(total *float64) string {
	if total == nil {
		return ""
	}
	return strconv.FormatFloat(*total, 'f', 2, 64)
}
