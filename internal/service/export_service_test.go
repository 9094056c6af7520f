package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutorpay-api/internal/dto"
	"github.com/noah-isme/tutorpay-api/internal/models"
	appErrors "github.com/noah-isme/tutorpay-api/pkg/errors"
	"github.com/noah-isme/tutorpay-api/pkg/storage"
)

type exportJobStoreStub struct {
	mu   sync.Mutex
	jobs map[string]*models.ExportJob
}

func newExportJobStoreStub() *exportJobStoreStub {
	return &exportJobStoreStub{jobs: make(map[string]*models.ExportJob)}
}

func (s *exportJobStoreStub) Create(ctx context.Context, job *models.ExportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

func (s *exportJobStoreStub) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *job
	return &copied, nil
}

func (s *exportJobStoreStub) UpdateStatus(ctx context.Context, id string, status models.ExportStatus, filePath *string, errorMessage *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	job.Status = status
	job.FilePath = filePath
	job.ErrorMessage = errorMessage
	return nil
}

type payrollProviderStub struct {
	rows []dto.TeacherCompensation
	err  error
}

func (s *payrollProviderStub) ListPeriod(ctx context.Context, period models.Period, bypassCache bool) ([]dto.TeacherCompensation, bool, error) {
	return s.rows, false, s.err
}

func (s *payrollProviderStub) GetTeacher(ctx context.Context, teacherID string, period models.Period) (*dto.TeacherCompensation, error) {
	if s.err != nil {
		return nil, s.err
	}
	for i := range s.rows {
		if s.rows[i].TeacherID == teacherID {
			return &s.rows[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func newExportFixture(t *testing.T, payroll *payrollProviderStub) (*ExportService, *exportJobStoreStub) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	jobStore := newExportJobStoreStub()
	svc := NewExportService(jobStore, payroll, store, signer, nil, ExportConfig{
		APIPrefix:         "/api/v1",
		WorkerConcurrency: 1,
	}, nil)
	return svc, jobStore
}

func TestExportServiceEnqueueValidatesFormat(t *testing.T) {
	svc, _ := newExportFixture(t, &payrollProviderStub{})

	_, err := svc.Enqueue(context.Background(), dto.CreateExportRequest{Period: "2026-03", Format: "xlsx"}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceEnqueueValidatesPeriod(t *testing.T) {
	svc, _ := newExportFixture(t, &payrollProviderStub{})

	_, err := svc.Enqueue(context.Background(), dto.CreateExportRequest{Period: "march 2026", Format: "csv"}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceEnqueueRequiresStartedQueue(t *testing.T) {
	svc, jobStore := newExportFixture(t, &payrollProviderStub{})

	_, err := svc.Enqueue(context.Background(), dto.CreateExportRequest{Period: "2026-03", Format: "csv"}, "admin-1")
	require.Error(t, err)

	for _, job := range jobStore.jobs {
		assert.Equal(t, models.ExportStatusFailed, job.Status)
	}
}

func TestExportServiceGeneratesCSVEndToEnd(t *testing.T) {
	payroll := &payrollProviderStub{rows: []dto.TeacherCompensation{{
		TeacherID:   "teacher-1",
		TeacherName: "Teacher One",
		Period:      "2026-03",
		BaseSalary:  decimal.NewFromInt(200),
		TotalSalary: decimal.NewFromInt(235),
		Status:      models.SalaryUnpaid,
	}}}
	svc, jobStore := newExportFixture(t, payroll)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Stop()

	job, err := svc.Enqueue(ctx, dto.CreateExportRequest{Period: "2026-03", Format: "csv"}, "admin-1")
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)

	require.Eventually(t, func() bool {
		stored, err := jobStore.FindByID(ctx, job.ID)
		return err == nil && stored.Status == models.ExportStatusFinished
	}, 5*time.Second, 20*time.Millisecond)

	status, err := svc.Status(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, status.DownloadURL)
	assert.True(t, strings.HasPrefix(*status.DownloadURL, "/api/v1/downloads/"))

	token := strings.TrimPrefix(*status.DownloadURL, "/api/v1/downloads/")
	file, err := svc.OpenDownload(token)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck

	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Teacher ID")
	assert.Contains(t, string(content), "teacher-1")
	assert.Contains(t, string(content), "235")
}

func TestExportServiceFailedGenerationMarksJob(t *testing.T) {
	payroll := &payrollProviderStub{err: appErrors.Clone(appErrors.ErrInternal, "payroll unavailable")}
	svc, jobStore := newExportFixture(t, payroll)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Stop()

	job, err := svc.Enqueue(ctx, dto.CreateExportRequest{Period: "2026-03", Format: "csv"}, "admin-1")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		stored, err := jobStore.FindByID(ctx, job.ID)
		return err == nil && stored.Status == models.ExportStatusFailed
	}, 5*time.Second, 20*time.Millisecond)

	status, err := svc.Status(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, status.Error)
	assert.Nil(t, status.DownloadURL)
}

func TestExportServiceStatusMissingJob(t *testing.T) {
	svc, _ := newExportFixture(t, &payrollProviderStub{})

	_, err := svc.Status(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportServiceOpenDownloadRejectsBadToken(t *testing.T) {
	svc, _ := newExportFixture(t, &payrollProviderStub{})

	_, err := svc.OpenDownload("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
