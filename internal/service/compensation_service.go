package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/tutorpay-api/internal/dto"
	"github.com/noah-isme/tutorpay-api/internal/gateway"
	"github.com/noah-isme/tutorpay-api/internal/models"
	"github.com/noah-isme/tutorpay-api/pkg/config"
	appErrors "github.com/noah-isme/tutorpay-api/pkg/errors"
)

type teacherReader interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type timelineReconstructor interface {
	Reconstruct(ctx context.Context, teacherID string, from, to time.Time) ([]models.AssignmentWindow, error)
}

type sessionLister interface {
	ListByTeacher(ctx context.Context, teacherID string, from, to time.Time) ([]models.SessionLink, error)
}

type waiverLister interface {
	ListByTeacher(ctx context.Context, teacherID string, from, to time.Time) ([]models.Waiver, error)
}

type rateReader interface {
	ListPackages(ctx context.Context) ([]models.Package, error)
	ListLatenessTiers(ctx context.Context) ([]models.LatenessTier, error)
}

type bonusLister interface {
	ListApproved(ctx context.Context, teacherID string, from, to time.Time) ([]models.QualityBonus, error)
}

type salaryStore interface {
	Get(ctx context.Context, teacherID, period string) (*models.TeacherSalary, error)
	Upsert(ctx context.Context, salary *models.TeacherSalary) error
	MarkPaid(ctx context.Context, teacherID, period string, paidAt time.Time, transactionID *string) error
}

type auditWriter interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

// CompensationService runs the full reconciliation pipeline for one teacher
// and period, persists the resulting summary, and handles the finalize /
// mark-paid command.
type CompensationService struct {
	teachers teacherReader
	timeline timelineReconstructor
	sessions sessionLister
	waivers  waiverLister
	rates    rateReader
	bonuses  bonusLister
	salaries salaryStore
	students studentFinder
	audits   auditWriter
	payouts  gateway.PaymentGateway
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
	payroll  config.PayrollConfig
	currency string
	cacheTTL time.Duration
}

// CompensationServiceParams groups constructor dependencies.
type CompensationServiceParams struct {
	Teachers teacherReader
	Timeline timelineReconstructor
	Sessions sessionLister
	Waivers  waiverLister
	Rates    rateReader
	Bonuses  bonusLister
	Salaries salaryStore
	Students studentFinder
	Audits   auditWriter
	Payouts  gateway.PaymentGateway
	Cache    *CacheService
	Metrics  *MetricsService
	Logger   *zap.Logger
	Payroll  config.PayrollConfig
	Currency string
	CacheTTL time.Duration
}

// NewCompensationService constructs the service with sane defaults.
func NewCompensationService(params CompensationServiceParams) *CompensationService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	payroll := params.Payroll
	if payroll.WorkingDaysPerMonth <= 0 {
		payroll.WorkingDaysPerMonth = 26
	}
	currency := params.Currency
	if currency == "" {
		currency = "IDR"
	}
	cacheTTL := params.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &CompensationService{
		teachers: params.Teachers,
		timeline: params.Timeline,
		sessions: params.Sessions,
		waivers:  params.Waivers,
		rates:    params.Rates,
		bonuses:  params.Bonuses,
		salaries: params.Salaries,
		students: params.Students,
		audits:   params.Audits,
		payouts:  params.Payouts,
		cache:    params.Cache,
		metrics:  params.Metrics,
		logger:   logger,
		now:      time.Now,
		payroll:  payroll,
		currency: currency,
		cacheTTL: cacheTTL,
	}
}

// WithNow pins the computation clock. Intended for tests.
func (s *CompensationService) WithNow(now func() time.Time) *CompensationService {
	if now != nil {
		s.now = now
	}
	return s
}

// ListPeriod computes the payroll table for every active teacher. One
// teacher's failure is logged and skipped so the rest of the table still
// renders. Results are cached per period unless bypass is set.
func (s *CompensationService) ListPeriod(ctx context.Context, period models.Period, bypassCache bool) ([]dto.TeacherCompensation, bool, error) {
	cacheKey := fmt.Sprintf("salaries:%s", period)
	if !bypassCache {
		var cached []dto.TeacherCompensation
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return cached, true, nil
		}
	}

	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return nil, false, err
	}
	results := make([]dto.TeacherCompensation, 0, len(teachers))
	for _, teacher := range teachers {
		comp, err := s.computeAndStore(ctx, teacher, period)
		if err != nil {
			s.logger.Warn("skipping teacher in payroll table",
				zap.String("teacher_id", teacher.ID),
				zap.String("period", period.String()),
				zap.Error(err))
			continue
		}
		results = append(results, *comp)
	}

	if err := s.cache.Set(ctx, cacheKey, results, s.cacheTTL); err != nil {
		s.logger.Warn("payroll cache write failed", zap.String("key", cacheKey), zap.Error(err))
	}
	return results, false, nil
}

// GetTeacher computes one teacher's compensation with the full audit
// breakdown and persists the summary.
func (s *CompensationService) GetTeacher(ctx context.Context, teacherID string, period models.Period) (*dto.TeacherCompensation, error) {
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacherId is required")
	}
	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, err
	}
	return s.computeAndStore(ctx, *teacher, period)
}

func (s *CompensationService) computeAndStore(ctx context.Context, teacher models.Teacher, period models.Period) (*dto.TeacherCompensation, error) {
	started := time.Now()
	comp, err := s.compute(ctx, teacher, period)
	if err != nil {
		return nil, err
	}
	s.metrics.ObservePayrollComputation(time.Since(started))

	existing, err := s.salaries.Get(ctx, teacher.ID, period.String())
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if existing != nil && existing.Status == models.SalaryPaid {
		comp.Status = existing.Status
		comp.PaidAt = existing.PaidAt
		return comp, nil
	}

	record := &models.TeacherSalary{
		TeacherID:         teacher.ID,
		Period:            period.String(),
		BaseSalary:        comp.BaseSalary,
		LatenessDeduction: comp.LatenessDeduction,
		AbsenceDeduction:  comp.AbsenceDeduction,
		Bonuses:           comp.Bonuses,
		TotalSalary:       comp.TotalSalary,
		Status:            models.SalaryUnpaid,
	}
	if err := s.salaries.Upsert(ctx, record); err != nil {
		return nil, err
	}
	return comp, nil
}

// compute is the pure reconciliation pass: reads all inputs, never writes.
func (s *CompensationService) compute(ctx context.Context, teacher models.Teacher, period models.Period) (*dto.TeacherCompensation, error) {
	from, to := period.Start(), period.End()

	windows, err := s.timeline.Reconstruct(ctx, teacher.ID, from, to)
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessions.ListByTeacher(ctx, teacher.ID, from, to)
	if err != nil {
		return nil, err
	}
	waiverRows, err := s.waivers.ListByTeacher(ctx, teacher.ID, from, to)
	if err != nil {
		return nil, err
	}
	packages, err := s.rates.ListPackages(ctx)
	if err != nil {
		return nil, err
	}
	tierRows, err := s.rates.ListLatenessTiers(ctx)
	if err != nil {
		return nil, err
	}

	rates := models.NewRateTable(packages,
		decimal.NewFromInt(s.payroll.DefaultLatenessBase),
		decimal.NewFromInt(s.payroll.DefaultAbsenceBase))
	tiers := models.NewTierTable(tierRows)
	if tiers.Empty() {
		s.logger.Warn("no lateness tiers configured, lateness deductions disabled",
			zap.String("period", period.String()))
	}
	waivers := models.NewWaiverSet(waiverRows)

	lateness := NewLatenessEvaluator(tiers, rates, waivers)
	absence := NewAbsenceEvaluator(rates, waivers, s.payroll, s.now)
	earnings := NewEarningsAggregator(rates, s.payroll.WorkingDaysPerMonth, period)

	var latenessRecords, absenceRecords []models.DeductionRecord
	for _, window := range windows {
		for _, match := range MatchWindow(window, sessions, from, to) {
			earnings.AddMatch(window, match)
			if rec := lateness.Evaluate(window, match); rec != nil {
				latenessRecords = append(latenessRecords, *rec)
			}
			if rec := absence.Evaluate(window, match); rec != nil {
				absenceRecords = append(absenceRecords, *rec)
			}
		}
	}
	s.addUnmatchedEvents(ctx, earnings, windows, sessions, from, to)

	bonusTotal, err := s.sumBonuses(ctx, teacher.ID, from, to)
	if err != nil {
		return nil, err
	}

	base := earnings.Total()
	latenessTotal := sumAmounts(latenessRecords)
	absenceTotal := sumAmounts(absenceRecords)
	// Absence is reported for transparency but kept out of the net figure;
	// the totals discrepancy is a known product decision pending review.
	total := base.Sub(latenessTotal).Add(bonusTotal).Round(0)

	return &dto.TeacherCompensation{
		TeacherID:         teacher.ID,
		TeacherName:       teacher.FullName,
		Period:            period.String(),
		BaseSalary:        base,
		LatenessDeduction: latenessTotal,
		AbsenceDeduction:  absenceTotal,
		Bonuses:           bonusTotal,
		TotalSalary:       total,
		Status:            models.SalaryUnpaid,
		Breakdown: dto.CompensationBreakdown{
			DailyEarnings:   earnings.Lines(),
			PerStudent:      earnings.PerStudent(),
			LatenessRecords: latenessRecords,
			AbsenceRecords:  absenceRecords,
			UnmatchedEvents: earnings.Unmatched(),
		},
	}, nil
}

// addUnmatchedEvents credits session links no reconstructed window explains.
// The earning counts when the student's package resolves; otherwise the
// event is dropped with a warning.
func (s *CompensationService) addUnmatchedEvents(ctx context.Context, earnings *EarningsAggregator, windows []models.AssignmentWindow, sessions []models.SessionLink, from, to time.Time) {
	for _, event := range sessions {
		if coveredByWindow(windows, event, from, to) {
			continue
		}
		student, err := s.students.FindByID(ctx, event.StudentID)
		if err != nil {
			s.logger.Warn("dropping unmatched session event: student not found",
				zap.String("session_id", event.ID),
				zap.String("student_id", event.StudentID),
				zap.Error(err))
			continue
		}
		earnings.AddUnmatched(event, student.FullName, student.Package)
	}
}

func coveredByWindow(windows []models.AssignmentWindow, event models.SessionLink, from, to time.Time) bool {
	day := event.Day()
	for _, window := range windows {
		if window.StudentID != event.StudentID {
			continue
		}
		start, end, ok := window.Clip(from, to)
		if !ok {
			continue
		}
		if !day.Before(dayOf(start)) && day.Before(end) {
			return true
		}
	}
	return false
}

func (s *CompensationService) sumBonuses(ctx context.Context, teacherID string, from, to time.Time) (decimal.Decimal, error) {
	rows, err := s.bonuses.ListApproved(ctx, teacherID, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, bonus := range rows {
		total = total.Add(bonus.Amount)
	}
	return total, nil
}

func sumAmounts(records []models.DeductionRecord) decimal.Decimal {
	total := decimal.Zero
	for _, record := range records {
		total = total.Add(record.Amount)
	}
	return total
}

// Finalize executes the mark-paid command. Marking PAID requires a positive
// total; requesting payment processing requires the PAID status. On gateway
// failure the stored record is left untouched.
func (s *CompensationService) Finalize(ctx context.Context, teacherID string, req dto.UpdateSalaryStatusRequest, actorID string) (*dto.UpdateSalaryStatusResponse, error) {
	period, err := models.ParsePeriod(req.Period)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be UNPAID or PAID")
	}
	if req.Status == models.SalaryPaid && !req.TotalSalary.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot mark paid with non-positive total salary")
	}
	if req.ProcessPayment && req.Status != models.SalaryPaid {
		return nil, appErrors.Clone(appErrors.ErrValidation, "payment processing requires status PAID")
	}

	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, err
	}

	existing, err := s.salaries.Get(ctx, teacherID, period.String())
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	previousStatus := models.SalaryUnpaid
	if existing != nil {
		if existing.Status == models.SalaryPaid {
			return nil, appErrors.Clone(appErrors.ErrAlreadyPaid, "")
		}
		previousStatus = existing.Status
	}

	// Payout submission precedes every store write; a failed disbursement
	// leaves the record untouched.
	var transactionID *string
	if req.Status == models.SalaryPaid && req.ProcessPayment {
		transactionID, err = s.submitPayout(ctx, teacher, period, req.TotalSalary)
		if err != nil {
			return nil, err
		}
	}

	record := &models.TeacherSalary{
		TeacherID:         teacherID,
		Period:            period.String(),
		BaseSalary:        req.BaseSalary,
		LatenessDeduction: req.LatenessDeduction,
		AbsenceDeduction:  req.AbsenceDeduction,
		Bonuses:           req.Bonuses,
		TotalSalary:       req.TotalSalary,
		Status:            models.SalaryUnpaid,
	}
	if err := s.salaries.Upsert(ctx, record); err != nil {
		return nil, err
	}

	if req.Status == models.SalaryPaid {
		if err := s.salaries.MarkPaid(ctx, teacherID, period.String(), s.now().UTC(), transactionID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrAlreadyPaid, "")
			}
			return nil, err
		}
	}

	s.writeStatusAudit(ctx, actorID, teacherID, period, previousStatus, req.Status, transactionID)
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("salaries:%s*", period)); err != nil {
		s.logger.Warn("payroll cache invalidation failed", zap.String("period", period.String()), zap.Error(err))
	}

	updated, err := s.salaries.Get(ctx, teacherID, period.String())
	if err != nil {
		return nil, err
	}
	return &dto.UpdateSalaryStatusResponse{Salary: *updated, TransactionID: transactionID}, nil
}

func (s *CompensationService) submitPayout(ctx context.Context, teacher *models.Teacher, period models.Period, amount decimal.Decimal) (*string, error) {
	if s.payouts == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "payment gateway unavailable")
	}
	result, err := s.payouts.Submit(ctx, gateway.PayoutRequest{
		RecipientName:    teacher.FullName,
		RecipientBank:    teacher.BankCode,
		RecipientAccount: teacher.BankAccount,
		RecipientEmail:   teacher.Email,
		Amount:           amount,
		Currency:         s.currency,
		Reference:        fmt.Sprintf("%s-%s", teacher.ID, period),
		Description:      fmt.Sprintf("Salary %s for %s", period, teacher.FullName),
	})
	if err != nil {
		s.metrics.RecordPayoutAttempt("rejected")
		return nil, appErrors.Wrap(err, appErrors.ErrPayoutRejected.Code, appErrors.ErrPayoutRejected.Status, "payout submission failed")
	}
	s.metrics.RecordPayoutAttempt("accepted")
	return &result.TransactionID, nil
}

func (s *CompensationService) writeStatusAudit(ctx context.Context, actorID, teacherID string, period models.Period, oldStatus, newStatus models.SalaryStatus, transactionID *string) {
	oldValues, _ := json.Marshal(map[string]interface{}{"status": oldStatus})
	newPayload := map[string]interface{}{"status": newStatus, "period": period.String()}
	if transactionID != nil {
		newPayload["transaction_id"] = *transactionID
	}
	newValues, _ := json.Marshal(newPayload)

	entry := &models.AuditLog{
		Action:     models.AuditActionSalaryStatusUpdate,
		Resource:   "teacher_salaries",
		ResourceID: &teacherID,
		OldValues:  oldValues,
		NewValues:  newValues,
	}
	if actorID != "" {
		entry.ActorID = &actorID
	}
	if err := s.audits.Create(ctx, entry); err != nil {
		s.logger.Error("failed to write salary status audit entry",
			zap.String("teacher_id", teacherID),
			zap.String("period", period.String()),
			zap.Error(err))
	}
}
