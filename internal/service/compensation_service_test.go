package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutorpay-api/internal/dto"
	"github.com/noah-isme/tutorpay-api/internal/gateway"
	"github.com/noah-isme/tutorpay-api/internal/models"
	appErrors "github.com/noah-isme/tutorpay-api/pkg/errors"
)

type teacherRepoStub struct {
	teachers map[string]models.Teacher
}

func (s *teacherRepoStub) ListActive(ctx context.Context) ([]models.Teacher, error) {
	out := make([]models.Teacher, 0, len(s.teachers))
	for _, teacher := range s.teachers {
		out = append(out, teacher)
	}
	return out, nil
}

func (s *teacherRepoStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if teacher, ok := s.teachers[id]; ok {
		return &teacher, nil
	}
	return nil, sql.ErrNoRows
}

type timelineStub struct {
	windows []models.AssignmentWindow
	err     error
}

func (s *timelineStub) Reconstruct(ctx context.Context, teacherID string, from, to time.Time) ([]models.AssignmentWindow, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.windows, nil
}

type sessionRepoStub struct {
	links []models.SessionLink
}

func (s *sessionRepoStub) ListByTeacher(ctx context.Context, teacherID string, from, to time.Time) ([]models.SessionLink, error) {
	return s.links, nil
}

type waiverRepoStub struct {
	waivers []models.Waiver
}

func (s *waiverRepoStub) ListByTeacher(ctx context.Context, teacherID string, from, to time.Time) ([]models.Waiver, error) {
	return s.waivers, nil
}

type rateRepoStub struct {
	packages []models.Package
	tiers    []models.LatenessTier
}

func (s *rateRepoStub) ListPackages(ctx context.Context) ([]models.Package, error) {
	return s.packages, nil
}

func (s *rateRepoStub) ListLatenessTiers(ctx context.Context) ([]models.LatenessTier, error) {
	return s.tiers, nil
}

type bonusRepoStub struct {
	bonuses []models.QualityBonus
}

func (s *bonusRepoStub) ListApproved(ctx context.Context, teacherID string, from, to time.Time) ([]models.QualityBonus, error) {
	return s.bonuses, nil
}

type salaryRepoStub struct {
	records    map[string]models.TeacherSalary
	upserts    int
	markPaids  int
	upsertErr  error
	markPaidTx *string
}

func salaryKey(teacherID, period string) string { return teacherID + "|" + period }

func (s *salaryRepoStub) Get(ctx context.Context, teacherID, period string) (*models.TeacherSalary, error) {
	if record, ok := s.records[salaryKey(teacherID, period)]; ok {
		return &record, nil
	}
	return nil, sql.ErrNoRows
}

func (s *salaryRepoStub) Upsert(ctx context.Context, salary *models.TeacherSalary) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	if s.records == nil {
		s.records = make(map[string]models.TeacherSalary)
	}
	key := salaryKey(salary.TeacherID, salary.Period)
	if existing, ok := s.records[key]; ok && existing.Status == models.SalaryPaid {
		return nil
	}
	s.upserts++
	s.records[key] = *salary
	return nil
}

func (s *salaryRepoStub) MarkPaid(ctx context.Context, teacherID, period string, paidAt time.Time, transactionID *string) error {
	key := salaryKey(teacherID, period)
	record, ok := s.records[key]
	if !ok || record.Status != models.SalaryUnpaid {
		return sql.ErrNoRows
	}
	record.Status = models.SalaryPaid
	record.PaidAt = &paidAt
	record.PayoutTransaction = transactionID
	s.records[key] = record
	s.markPaids++
	s.markPaidTx = transactionID
	return nil
}

type auditWriterStub struct {
	entries []*models.AuditLog
	err     error
}

func (s *auditWriterStub) Create(ctx context.Context, entry *models.AuditLog) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

type gatewayStub struct {
	result *gateway.PayoutResult
	err    error
	calls  int
}

func (s *gatewayStub) Submit(ctx context.Context, req gateway.PayoutRequest) (*gateway.PayoutResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type compensationFixture struct {
	teachers *teacherRepoStub
	timeline *timelineStub
	sessions *sessionRepoStub
	waivers  *waiverRepoStub
	rates    *rateRepoStub
	bonuses  *bonusRepoStub
	salaries *salaryRepoStub
	students *studentRepoStub
	audits   *auditWriterStub
	payouts  *gatewayStub
	service  *CompensationService
}

func newCompensationFixture() *compensationFixture {
	f := &compensationFixture{
		teachers: &teacherRepoStub{teachers: map[string]models.Teacher{
			"teacher-1": {ID: "teacher-1", FullName: "Teacher One", Email: "one@tutorpay.test", BankCode: "bca", BankAccount: "123"},
		}},
		timeline: &timelineStub{},
		sessions: &sessionRepoStub{},
		waivers:  &waiverRepoStub{},
		rates: &rateRepoStub{
			packages: []models.Package{{Name: "A", LatenessBase: decimal.NewFromInt(30), AbsenceBase: decimal.NewFromInt(30), MonthlyRate: decimal.NewFromInt(2600)}},
			tiers: []models.LatenessTier{
				{TierNo: 1, StartMinute: 0, EndMinute: 5, Percent: 25, ExcusedMinutes: 3},
				{TierNo: 2, StartMinute: 6, EndMinute: 15, Percent: 50, ExcusedMinutes: 3},
				{TierNo: 3, StartMinute: 16, EndMinute: 30, Percent: 100, ExcusedMinutes: 3},
			},
		},
		bonuses:  &bonusRepoStub{},
		salaries: &salaryRepoStub{},
		students: &studentRepoStub{students: map[string]models.Student{
			"student-1": {ID: "student-1", FullName: "Student One", Package: "A"},
		}},
		audits:  &auditWriterStub{},
		payouts: &gatewayStub{result: &gateway.PayoutResult{TransactionID: "tx-1", Status: "queued"}},
	}
	f.service = NewCompensationService(CompensationServiceParams{
		Teachers: f.teachers,
		Timeline: f.timeline,
		Sessions: f.sessions,
		Waivers:  f.waivers,
		Rates:    f.rates,
		Bonuses:  f.bonuses,
		Salaries: f.salaries,
		Students: f.students,
		Audits:   f.audits,
		Payouts:  f.payouts,
		Payroll:  testPayrollConfig(),
	}).WithNow(pinnedNow())
	return f
}

func TestComputeTeacherFullPipeline(t *testing.T) {
	f := newCompensationFixture()
	f.timeline.windows = []models.AssignmentWindow{{
		TeacherID:      "teacher-1",
		StudentID:      "student-1",
		StudentName:    "Student One",
		StudentPackage: "A",
		TimeSlot:       "9:00 AM",
		DayGroup:       models.DayGroupMWF,
		From:           time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Source:         models.SourceActive,
	}}
	f.sessions.links = []models.SessionLink{
		// Monday March 2, sent 09:08 -> tier 2, deduction 15.
		{ID: "l1", StudentID: "student-1", SentAt: time.Date(2026, 3, 2, 9, 8, 0, 0, time.UTC)},
		// Friday March 6, on time.
		{ID: "l2", StudentID: "student-1", SentAt: time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC)},
	}
	f.bonuses.bonuses = []models.QualityBonus{{ID: "b1", TeacherID: "teacher-1", Amount: decimal.NewFromInt(50), Approved: true}}

	comp, err := f.service.GetTeacher(context.Background(), "teacher-1", testPeriod())
	require.NoError(t, err)

	// Two delivered sessions at the 100 daily rate.
	assert.True(t, decimal.NewFromInt(200).Equal(comp.BaseSalary), "base %s", comp.BaseSalary)
	assert.True(t, decimal.NewFromInt(15).Equal(comp.LatenessDeduction), "lateness %s", comp.LatenessDeduction)
	// Wednesday March 4, March 9, 11, 13 have no event and are concluded
	// relative to the pinned clock (Monday March 16): 4 absences at 30.
	assert.True(t, decimal.NewFromInt(120).Equal(comp.AbsenceDeduction), "absence %s", comp.AbsenceDeduction)
	assert.True(t, decimal.NewFromInt(50).Equal(comp.Bonuses))

	// Absence is reported but not part of the net figure.
	expectedTotal := decimal.NewFromInt(200 - 15 + 50)
	assert.True(t, expectedTotal.Equal(comp.TotalSalary), "total %s", comp.TotalSalary)

	require.Len(t, comp.Breakdown.LatenessRecords, 2)
	assert.Equal(t, "Tier 2 (50%) - A", comp.Breakdown.LatenessRecords[0].TierLabel)
	assert.Equal(t, "Excused", comp.Breakdown.LatenessRecords[1].TierLabel)
	assert.Len(t, comp.Breakdown.AbsenceRecords, 4)
	assert.Empty(t, comp.Breakdown.UnmatchedEvents)

	// The summary was persisted as UNPAID.
	stored, err := f.salaries.Get(context.Background(), "teacher-1", "2026-03")
	require.NoError(t, err)
	assert.Equal(t, models.SalaryUnpaid, stored.Status)
	assert.True(t, expectedTotal.Equal(stored.TotalSalary))
}

func TestComputeTeacherIsDeterministic(t *testing.T) {
	f := newCompensationFixture()
	f.timeline.windows = []models.AssignmentWindow{{
		TeacherID: "teacher-1", StudentID: "student-1", StudentName: "Student One",
		StudentPackage: "A", TimeSlot: "9:00 AM", DayGroup: models.DayGroupMWF,
		From: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Source: models.SourceActive,
	}}
	f.sessions.links = []models.SessionLink{
		{ID: "l1", StudentID: "student-1", SentAt: time.Date(2026, 3, 2, 9, 8, 0, 0, time.UTC)},
	}

	first, err := f.service.GetTeacher(context.Background(), "teacher-1", testPeriod())
	require.NoError(t, err)
	second, err := f.service.GetTeacher(context.Background(), "teacher-1", testPeriod())
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestComputeIdleTeacherEarnsBonusesOnly(t *testing.T) {
	f := newCompensationFixture()
	f.bonuses.bonuses = []models.QualityBonus{{ID: "b1", TeacherID: "teacher-1", Amount: decimal.NewFromInt(75), Approved: true}}

	comp, err := f.service.GetTeacher(context.Background(), "teacher-1", testPeriod())
	require.NoError(t, err)
	assert.True(t, comp.BaseSalary.IsZero())
	assert.True(t, comp.LatenessDeduction.IsZero())
	assert.True(t, comp.AbsenceDeduction.IsZero())
	assert.True(t, decimal.NewFromInt(75).Equal(comp.TotalSalary))
}

func TestComputeCreditsUnmatchedEvents(t *testing.T) {
	f := newCompensationFixture()
	f.sessions.links = []models.SessionLink{
		{ID: "stray", StudentID: "student-1", SentAt: time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)},
	}

	comp, err := f.service.GetTeacher(context.Background(), "teacher-1", testPeriod())
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(comp.BaseSalary))
	require.Len(t, comp.Breakdown.UnmatchedEvents, 1)
	assert.Equal(t, models.SourceUnmatchedEvent, comp.Breakdown.UnmatchedEvents[0].Source)
}

func TestComputeDoesNotOverwritePaidRecord(t *testing.T) {
	f := newCompensationFixture()
	paidAt := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f.salaries.records = map[string]models.TeacherSalary{
		salaryKey("teacher-1", "2026-03"): {
			TeacherID: "teacher-1", Period: "2026-03",
			TotalSalary: decimal.NewFromInt(500), Status: models.SalaryPaid, PaidAt: &paidAt,
		},
	}

	comp, err := f.service.GetTeacher(context.Background(), "teacher-1", testPeriod())
	require.NoError(t, err)
	assert.Equal(t, models.SalaryPaid, comp.Status)
	require.NotNil(t, comp.PaidAt)
	assert.Equal(t, 0, f.salaries.upserts, "paid records must not be recomputed over")
}

func TestListPeriodSkipsFailingTeacher(t *testing.T) {
	f := newCompensationFixture()
	f.teachers.teachers["teacher-2"] = models.Teacher{ID: "teacher-2", FullName: "Teacher Two"}
	f.timeline.err = errors.New("boom")

	// Both teachers fail here; the point is the loop survives.
	results, cached, err := f.service.ListPeriod(context.Background(), testPeriod(), true)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Empty(t, results)
}

func TestFinalizeRejectsPaidWithZeroTotal(t *testing.T) {
	f := newCompensationFixture()
	_, err := f.service.Finalize(context.Background(), "teacher-1", dto.UpdateSalaryStatusRequest{
		Period: "2026-03",
		Status: models.SalaryPaid,
	}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.salaries.records, "no record mutation on rejection")
}

func TestFinalizeRejectsPaymentWithoutPaidStatus(t *testing.T) {
	f := newCompensationFixture()
	_, err := f.service.Finalize(context.Background(), "teacher-1", dto.UpdateSalaryStatusRequest{
		Period:         "2026-03",
		Status:         models.SalaryUnpaid,
		TotalSalary:    decimal.NewFromInt(100),
		ProcessPayment: true,
	}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFinalizeRejectsAlreadyPaid(t *testing.T) {
	f := newCompensationFixture()
	f.salaries.records = map[string]models.TeacherSalary{
		salaryKey("teacher-1", "2026-03"): {TeacherID: "teacher-1", Period: "2026-03", Status: models.SalaryPaid},
	}
	_, err := f.service.Finalize(context.Background(), "teacher-1", dto.UpdateSalaryStatusRequest{
		Period:      "2026-03",
		Status:      models.SalaryPaid,
		TotalSalary: decimal.NewFromInt(100),
	}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyPaid.Code, appErrors.FromError(err).Code)
}

func TestFinalizeMarksPaidWithPayout(t *testing.T) {
	f := newCompensationFixture()
	resp, err := f.service.Finalize(context.Background(), "teacher-1", dto.UpdateSalaryStatusRequest{
		Period:         "2026-03",
		Status:         models.SalaryPaid,
		BaseSalary:     decimal.NewFromInt(200),
		TotalSalary:    decimal.NewFromInt(235),
		ProcessPayment: true,
	}, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, models.SalaryPaid, resp.Salary.Status)
	require.NotNil(t, resp.TransactionID)
	assert.Equal(t, "tx-1", *resp.TransactionID)
	assert.Equal(t, 1, f.payouts.calls)
	assert.Equal(t, 1, f.salaries.markPaids)

	require.Len(t, f.audits.entries, 1)
	entry := f.audits.entries[0]
	assert.Equal(t, models.AuditActionSalaryStatusUpdate, entry.Action)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, "admin-1", *entry.ActorID)
}

func TestFinalizePayoutFailureLeavesRecordUnpaid(t *testing.T) {
	f := newCompensationFixture()
	f.payouts.err = &gateway.Error{Kind: gateway.KindRejected, Message: "invalid account"}
	f.salaries.records = map[string]models.TeacherSalary{
		salaryKey("teacher-1", "2026-03"): {
			TeacherID:   "teacher-1",
			Period:      "2026-03",
			BaseSalary:  decimal.NewFromInt(200),
			TotalSalary: decimal.NewFromInt(235),
			Status:      models.SalaryUnpaid,
		},
	}

	_, err := f.service.Finalize(context.Background(), "teacher-1", dto.UpdateSalaryStatusRequest{
		Period:         "2026-03",
		Status:         models.SalaryPaid,
		BaseSalary:     decimal.NewFromInt(999),
		TotalSalary:    decimal.NewFromInt(999),
		ProcessPayment: true,
	}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPayoutRejected.Code, appErrors.FromError(err).Code)

	stored, getErr := f.salaries.Get(context.Background(), "teacher-1", "2026-03")
	require.NoError(t, getErr)
	assert.Equal(t, models.SalaryUnpaid, stored.Status)
	assert.True(t, stored.BaseSalary.Equal(decimal.NewFromInt(200)), "stored base salary must not change on a rejected payout")
	assert.True(t, stored.TotalSalary.Equal(decimal.NewFromInt(235)), "stored total must not change on a rejected payout")
	assert.Equal(t, 0, f.salaries.upserts)
	assert.Equal(t, 0, f.salaries.markPaids)
	assert.Empty(t, f.audits.entries, "rejected finalizations are not audited as status changes")
}

func TestFinalizeWithoutPaymentSkipsGateway(t *testing.T) {
	f := newCompensationFixture()
	resp, err := f.service.Finalize(context.Background(), "teacher-1", dto.UpdateSalaryStatusRequest{
		Period:      "2026-03",
		Status:      models.SalaryPaid,
		TotalSalary: decimal.NewFromInt(235),
	}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 0, f.payouts.calls)
	assert.Equal(t, models.SalaryPaid, resp.Salary.Status)
	assert.Nil(t, resp.TransactionID)
}
