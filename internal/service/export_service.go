package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tutorpay-api/internal/dto"
	"github.com/noah-isme/tutorpay-api/internal/models"
	appErrors "github.com/noah-isme/tutorpay-api/pkg/errors"
	"github.com/noah-isme/tutorpay-api/pkg/export"
	"github.com/noah-isme/tutorpay-api/pkg/jobs"
	"github.com/noah-isme/tutorpay-api/pkg/storage"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	FindByID(ctx context.Context, id string) (*models.ExportJob, error)
	UpdateStatus(ctx context.Context, id string, status models.ExportStatus, filePath *string, errorMessage *string) error
}

type payrollProvider interface {
	ListPeriod(ctx context.Context, period models.Period, bypassCache bool) ([]dto.TeacherCompensation, bool, error)
	GetTeacher(ctx context.Context, teacherID string, period models.Period) (*dto.TeacherCompensation, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix         string
	ResultTTL         time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// ExportService generates payroll table exports on a background worker
// queue and persists rendered files with signed download URLs.
type ExportService struct {
	jobStore  exportJobStore
	payroll   payrollProvider
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	queue     *jobs.Queue
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService with its worker queue.
func NewExportService(jobStore exportJobStore, payroll payrollProvider, store fileStorage, signer *storage.SignedURLSigner, validate *validator.Validate, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	s := &ExportService{
		jobStore:  jobStore,
		payroll:   payroll,
		storage:   store,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		signer:    signer,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
	s.queue = jobs.NewQueue("payroll_exports", s.process, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the export workers.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the export workers.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Enqueue registers a payroll export job and schedules it for generation.
func (s *ExportService) Enqueue(ctx context.Context, req dto.CreateExportRequest, actorID string) (*models.ExportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}
	if _, err := models.ParsePeriod(req.Period); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	job := &models.ExportJob{
		Params: models.ExportJobParams{
			Period:    req.Period,
			TeacherID: req.TeacherID,
			Format:    models.ExportFormat(req.Format),
		},
		Status:    models.ExportStatusQueued,
		CreatedBy: actorID,
	}
	if err := s.jobStore.Create(ctx, job); err != nil {
		return nil, err
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "payroll_export"}); err != nil {
		message := err.Error()
		if updateErr := s.jobStore.UpdateStatus(ctx, job.ID, models.ExportStatusFailed, nil, &message); updateErr != nil {
			s.logger.Error("failed to mark export job failed", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule export")
	}
	return job, nil
}

// Status reports job progress; finished jobs carry a signed download URL.
func (s *ExportService) Status(ctx context.Context, id string) (*dto.ExportJobResponse, error) {
	job, err := s.jobStore.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, err
	}

	resp := &dto.ExportJobResponse{
		ID:     job.ID,
		Status: string(job.Status),
		Format: string(job.Params.Format),
		Error:  job.ErrorMessage,
	}
	if job.Status == models.ExportStatusFinished && job.FilePath != nil {
		token, _, err := s.signer.Generate(job.ID, *job.FilePath)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
		}
		url := fmt.Sprintf("%s/downloads/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token)
		resp.DownloadURL = &url
	}
	return resp, nil
}

// OpenDownload validates a signed token and opens the exported file.
func (s *ExportService) OpenDownload(token string) (*os.File, error) {
	_, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid download token")
	}
	return s.storage.Open(relPath)
}

// Cleanup removes export files older than the configured TTL.
func (s *ExportService) Cleanup() ([]string, error) {
	return s.storage.CleanupOlderThan(s.cfg.ResultTTL)
}

func (s *ExportService) process(ctx context.Context, queued jobs.Job) error {
	job, err := s.jobStore.FindByID(ctx, queued.ID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", queued.ID, err)
	}
	if err := s.jobStore.UpdateStatus(ctx, job.ID, models.ExportStatusProcessing, nil, nil); err != nil {
		return fmt.Errorf("mark export job processing: %w", err)
	}

	relPath, err := s.generate(ctx, job)
	if err != nil {
		message := err.Error()
		if updateErr := s.jobStore.UpdateStatus(ctx, job.ID, models.ExportStatusFailed, nil, &message); updateErr != nil {
			s.logger.Error("failed to mark export job failed", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		return err
	}
	return s.jobStore.UpdateStatus(ctx, job.ID, models.ExportStatusFinished, &relPath, nil)
}

func (s *ExportService) generate(ctx context.Context, job *models.ExportJob) (string, error) {
	period, err := models.ParsePeriod(job.Params.Period)
	if err != nil {
		return "", err
	}

	var rows []dto.TeacherCompensation
	if job.Params.TeacherID != nil {
		comp, err := s.payroll.GetTeacher(ctx, *job.Params.TeacherID, period)
		if err != nil {
			return "", err
		}
		rows = []dto.TeacherCompensation{*comp}
	} else {
		rows, _, err = s.payroll.ListPeriod(ctx, period, true)
		if err != nil {
			return "", err
		}
	}

	dataset := buildPayrollDataset(rows)
	title := fmt.Sprintf("Payroll %s", period)

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("payroll_%s_%s.%s", period, time.Now().UTC().Format("20060102_150405"), job.Params.Format)
	return s.storage.Save(filename, payload)
}

func buildPayrollDataset(rows []dto.TeacherCompensation) export.Dataset {
	headers := []string{"Teacher ID", "Teacher Name", "Period", "Base Salary", "Lateness Deduction", "Absence Deduction", "Bonuses", "Total Salary", "Status"}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Teacher ID":         row.TeacherID,
			"Teacher Name":       row.TeacherName,
			"Period":             row.Period,
			"Base Salary":        row.BaseSalary.StringFixed(0),
			"Lateness Deduction": row.LatenessDeduction.StringFixed(0),
			"Absence Deduction":  row.AbsenceDeduction.StringFixed(0),
			"Bonuses":            row.Bonuses.StringFixed(0),
			"Total Salary":       row.TotalSalary.StringFixed(0),
			"Status":             string(row.Status),
		})
	}
	return export.Dataset{Headers: headers, Rows: dataRows}
}
