package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutorpay-api/internal/models"
	"github.com/noah-isme/tutorpay-api/pkg/config"
)

func testPayrollConfig() config.PayrollConfig {
	return config.PayrollConfig{
		WorkingDaysPerMonth: 26,
		DefaultLatenessBase: 30,
		DefaultAbsenceBase:  30,
		NonTeachingWeekday:  time.Sunday,
	}
}

func pinnedNow() func() time.Time {
	// A Monday, well past the days under evaluation.
	return func() time.Time { return time.Date(2026, 3, 16, 10, 30, 0, 0, time.UTC) }
}

func absenceMatch(date time.Time) DayMatch {
	return DayMatch{Date: date, Scheduled: date.Add(9 * time.Hour)}
}

func TestAbsenceOnScheduledDayWithoutEvent(t *testing.T) {
	eval := NewAbsenceEvaluator(testRates(), models.WaiverSet{}, testPayrollConfig(), pinnedNow())
	window := testWindow("student-1")
	window.DayGroup = models.DayGroupMWF

	// 2026-03-04 is a Wednesday.
	record := eval.Evaluate(window, absenceMatch(time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)))
	require.NotNil(t, record)
	assert.Equal(t, models.DeductionAbsence, record.Kind)
	assert.True(t, decimal.NewFromInt(30).Equal(record.Amount))
	assert.Contains(t, record.TierLabel, "Student One")
	assert.Contains(t, record.TierLabel, "A")
}

func TestAbsenceNeverForTodayOrFuture(t *testing.T) {
	// A Tuesday, so yesterday falls on a teaching weekday.
	now := func() time.Time { return time.Date(2026, 3, 17, 10, 30, 0, 0, time.UTC) }
	eval := NewAbsenceEvaluator(testRates(), models.WaiverSet{}, testPayrollConfig(), now)
	window := testWindow("student-1")

	today := dayOf(now())
	assert.Nil(t, eval.Evaluate(window, absenceMatch(today)), "today must not be judged")
	assert.Nil(t, eval.Evaluate(window, absenceMatch(today.AddDate(0, 0, 3))), "future days must not be judged")
	assert.NotNil(t, eval.Evaluate(window, absenceMatch(today.AddDate(0, 0, -1))), "yesterday is concluded")
}

func TestAbsenceSkipsIncompatibleDayGroup(t *testing.T) {
	eval := NewAbsenceEvaluator(testRates(), models.WaiverSet{}, testPayrollConfig(), pinnedNow())
	window := testWindow("student-1")
	window.DayGroup = models.DayGroupMWF

	// 2026-03-03 is a Tuesday; an MWF assignment is not scheduled then.
	assert.Nil(t, eval.Evaluate(window, absenceMatch(time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC))))
}

func TestAbsenceSkipsNonTeachingWeekday(t *testing.T) {
	cfg := testPayrollConfig()
	eval := NewAbsenceEvaluator(testRates(), models.WaiverSet{}, cfg, pinnedNow())
	window := testWindow("student-1")

	// 2026-03-08 is a Sunday.
	sunday := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	assert.Nil(t, eval.Evaluate(window, absenceMatch(sunday)))

	cfg.IncludeNonTeachingDay = true
	evalInclusive := NewAbsenceEvaluator(testRates(), models.WaiverSet{}, cfg, pinnedNow())
	assert.NotNil(t, evalInclusive.Evaluate(window, absenceMatch(sunday)))
}

func TestAbsenceSkipsWaivedDay(t *testing.T) {
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	waivers := models.NewWaiverSet([]models.Waiver{
		{TeacherID: "teacher-1", Kind: models.DeductionAbsence, Date: day},
	})
	eval := NewAbsenceEvaluator(testRates(), waivers, testPayrollConfig(), pinnedNow())
	assert.Nil(t, eval.Evaluate(testWindow("student-1"), absenceMatch(day)))
}

func TestAbsenceLatenessWaiverDoesNotCoverAbsence(t *testing.T) {
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	waivers := models.NewWaiverSet([]models.Waiver{
		{TeacherID: "teacher-1", Kind: models.DeductionLateness, Date: day},
	})
	eval := NewAbsenceEvaluator(testRates(), waivers, testPayrollConfig(), pinnedNow())
	assert.NotNil(t, eval.Evaluate(testWindow("student-1"), absenceMatch(day)))
}

func TestAbsenceMatchedDayIsNeverAbsent(t *testing.T) {
	eval := NewAbsenceEvaluator(testRates(), models.WaiverSet{}, testPayrollConfig(), pinnedNow())
	match := absenceMatch(time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC))
	match.Event = &models.SessionLink{ID: "link-1", StudentID: "student-1", SentAt: match.Scheduled}
	assert.Nil(t, eval.Evaluate(testWindow("student-1"), match))
}

func TestAbsenceUnknownPackageUsesDefaultBase(t *testing.T) {
	eval := NewAbsenceEvaluator(testRates(), models.WaiverSet{}, testPayrollConfig(), pinnedNow())
	window := testWindow("student-1")
	window.StudentPackage = "UNKNOWN"
	record := eval.Evaluate(window, absenceMatch(time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)))
	require.NotNil(t, record)
	assert.True(t, decimal.NewFromInt(30).Equal(record.Amount))
}
