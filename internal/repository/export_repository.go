package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutorpay-api/internal/models"
)

// ExportRepository persists payroll export job metadata.
type ExportRepository struct {
	db *sqlx.DB
}

// NewExportRepository constructs the repository.
func NewExportRepository(db *sqlx.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

// Create inserts a queued export job.
func (r *ExportRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if job.Status == "" {
		job.Status = models.ExportStatusQueued
	}
	const query = `INSERT INTO export_jobs (id, params, status, file_path, created_by, created_at, finished_at, error_message)
VALUES (:id, :params, :status, :file_path, :created_by, :created_at, :finished_at, :error_message)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

// FindByID fetches a job by id.
func (r *ExportRepository) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	const query = `SELECT id, params, status, file_path, created_by, created_at, finished_at, error_message
FROM export_jobs WHERE id = $1`
	var job models.ExportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateStatus transitions a job's lifecycle state.
func (r *ExportRepository) UpdateStatus(ctx context.Context, id string, status models.ExportStatus, filePath *string, errorMessage *string) error {
	var finishedAt *time.Time
	if status == models.ExportStatusFinished || status == models.ExportStatusFailed {
		now := time.Now().UTC()
		finishedAt = &now
	}
	const query = `UPDATE export_jobs SET status = $2, file_path = $3, error_message = $4, finished_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, filePath, errorMessage, finishedAt); err != nil {
		return fmt.Errorf("update export job status: %w", err)
	}
	return nil
}
