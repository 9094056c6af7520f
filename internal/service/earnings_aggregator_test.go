package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutorpay-api/internal/models"
)

func testPeriod() models.Period {
	return models.Period{Year: 2026, Month: time.March}
}

func matchedDay(date time.Time, override *decimal.Decimal) DayMatch {
	return DayMatch{
		Date:      date,
		Scheduled: date.Add(9 * time.Hour),
		Event: &models.SessionLink{
			ID:           "link-" + date.Format("02"),
			StudentID:    "student-1",
			SentAt:       date.Add(9 * time.Hour),
			RateOverride: override,
		},
	}
}

func TestEarningsDailyRateFromMonthlyRate(t *testing.T) {
	agg := NewEarningsAggregator(testRates(), 26, testPeriod())
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	agg.AddMatch(testWindow("student-1"), matchedDay(day, nil))

	// 2600 / 26 = 100 per delivered session.
	assert.True(t, decimal.NewFromInt(100).Equal(agg.Total()), "got %s", agg.Total())
	require.Len(t, agg.Lines(), 1)
	assert.Equal(t, models.SourceActive, agg.Lines()[0].Source)
}

func TestEarningsRateOverrideWins(t *testing.T) {
	agg := NewEarningsAggregator(testRates(), 26, testPeriod())
	override := decimal.NewFromInt(150)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	agg.AddMatch(testWindow("student-1"), matchedDay(day, &override))
	assert.True(t, decimal.NewFromInt(150).Equal(agg.Total()))
}

func TestEarningsUnknownPackageEarnsZero(t *testing.T) {
	agg := NewEarningsAggregator(testRates(), 26, testPeriod())
	window := testWindow("student-1")
	window.StudentPackage = "UNKNOWN"
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	agg.AddMatch(window, matchedDay(day, nil))
	assert.True(t, agg.Total().IsZero())
	assert.Len(t, agg.Lines(), 1, "the day is still listed for audit")
}

func TestEarningsUnmatchedDayEarnsNothing(t *testing.T) {
	agg := NewEarningsAggregator(testRates(), 26, testPeriod())
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	agg.AddMatch(testWindow("student-1"), DayMatch{Date: day, Scheduled: day.Add(9 * time.Hour)})
	assert.True(t, agg.Total().IsZero())
	assert.Empty(t, agg.Lines())
}

func TestEarningsNeverDoubleCountsStudentDay(t *testing.T) {
	agg := NewEarningsAggregator(testRates(), 26, testPeriod())
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	// The same (student, day) reached through an active and a derived
	// window must be credited once.
	agg.AddMatch(testWindow("student-1"), matchedDay(day, nil))
	derived := testWindow("student-1")
	derived.Source = models.SourceAuditLog
	agg.AddMatch(derived, matchedDay(day, nil))

	// An unmatched event for the same day must not add a third credit.
	agg.AddUnmatched(models.SessionLink{ID: "stray", StudentID: "student-1", SentAt: day.Add(10 * time.Hour)}, "Student One", "A")

	assert.True(t, decimal.NewFromInt(100).Equal(agg.Total()), "got %s", agg.Total())
	assert.Len(t, agg.Lines(), 1)
	assert.Empty(t, agg.Unmatched())
}

func TestEarningsUnmatchedEventEarnsWithProvenance(t *testing.T) {
	agg := NewEarningsAggregator(testRates(), 26, testPeriod())
	sent := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)

	agg.AddUnmatched(models.SessionLink{ID: "stray", StudentID: "student-2", SentAt: sent}, "Student Two", "A")

	assert.True(t, decimal.NewFromInt(100).Equal(agg.Total()))
	require.Len(t, agg.Unmatched(), 1)
	assert.Equal(t, models.SourceUnmatchedEvent, agg.Unmatched()[0].Source)
}

func TestEarningsPerStudentBreakdown(t *testing.T) {
	agg := NewEarningsAggregator(testRates(), 26, testPeriod())
	window := testWindow("student-1")
	agg.AddMatch(window, matchedDay(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), nil))
	agg.AddMatch(window, matchedDay(time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), nil))

	perStudent := agg.PerStudent()
	require.Len(t, perStudent, 1)
	assert.Equal(t, 2, perStudent[0].SessionsTaught)
	assert.True(t, decimal.NewFromInt(200).Equal(perStudent[0].Earned))
	// Assignment predates the period, so the full monthly charge applies.
	assert.True(t, decimal.NewFromInt(2600).Equal(perStudent[0].MonthlyCharge))
}

func TestEarningsFirstMonthChargeIsProratedButPayIsNot(t *testing.T) {
	agg := NewEarningsAggregator(testRates(), 26, testPeriod())
	window := testWindow("student-1")
	// Student started mid-month: March 22 leaves 10 of 31 days.
	window.From = time.Date(2026, 3, 22, 0, 0, 0, 0, time.UTC)

	agg.AddMatch(window, matchedDay(time.Date(2026, 3, 23, 0, 0, 0, 0, time.UTC), nil))

	perStudent := agg.PerStudent()
	require.Len(t, perStudent, 1)
	// 2600 * 10/31 = 838.7 rounds to 839.
	assert.True(t, decimal.NewFromInt(839).Equal(perStudent[0].MonthlyCharge), "got %s", perStudent[0].MonthlyCharge)
	// Teacher pay stays session-driven: one delivered session, one daily rate.
	assert.True(t, decimal.NewFromInt(100).Equal(agg.Total()))
}
