package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tutorpay-api/internal/dto"
	"github.com/noah-isme/tutorpay-api/internal/models"
	appErrors "github.com/noah-isme/tutorpay-api/pkg/errors"
)

type waiverStore interface {
	ListByTeacher(ctx context.Context, teacherID string, from, to time.Time) ([]models.Waiver, error)
	Create(ctx context.Context, waiver *models.Waiver) error
	Delete(ctx context.Context, id string) error
}

// WaiverService administers deduction waivers. Every mutation is audited so
// a cancelled deduction stays explainable.
type WaiverService struct {
	waivers   waiverStore
	audits    auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWaiverService constructs a WaiverService instance.
func NewWaiverService(waivers waiverStore, audits auditWriter, validate *validator.Validate, logger *zap.Logger) *WaiverService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WaiverService{waivers: waivers, audits: audits, validator: validate, logger: logger}
}

// List returns the teacher's waivers within the period.
func (s *WaiverService) List(ctx context.Context, teacherID string, period models.Period) ([]models.Waiver, error) {
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacherId is required")
	}
	return s.waivers.ListByTeacher(ctx, teacherID, period.Start(), period.End())
}

// Create registers a waiver cancelling one deduction instance.
func (s *WaiverService) Create(ctx context.Context, req dto.CreateWaiverRequest, actorID string) (*models.Waiver, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid waiver payload")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	kind := models.DeductionKind(req.Kind)
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "kind must be LATENESS or ABSENCE")
	}

	waiver := &models.Waiver{
		TeacherID: req.TeacherID,
		Kind:      kind,
		Date:      date,
		Reason:    &req.Reason,
	}
	if err := s.waivers.Create(ctx, waiver); err != nil {
		return nil, err
	}
	s.writeAudit(ctx, actorID, models.AuditActionWaiverCreate, waiver)
	return waiver, nil
}

// Delete removes a waiver by ID.
func (s *WaiverService) Delete(ctx context.Context, id, actorID string) error {
	if id == "" {
		return appErrors.Clone(appErrors.ErrValidation, "waiver id is required")
	}
	if err := s.waivers.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "waiver not found")
		}
		return err
	}
	s.writeAudit(ctx, actorID, models.AuditActionWaiverDelete, &models.Waiver{ID: id})
	return nil
}

func (s *WaiverService) writeAudit(ctx context.Context, actorID, action string, waiver *models.Waiver) {
	payload, _ := json.Marshal(waiver)
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "deduction_waivers",
		ResourceID: &waiver.ID,
		NewValues:  payload,
	}
	if actorID != "" {
		entry.ActorID = &actorID
	}
	if err := s.audits.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to write waiver audit entry", zap.String("waiver_id", waiver.ID), zap.Error(err))
	}
}
