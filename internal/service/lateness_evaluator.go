package service

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/tutorpay-api/internal/models"
)

// LatenessEvaluator applies the tier table and per-package base amounts to
// matched session days. An empty tier table disables lateness deductions for
// the period entirely.
type LatenessEvaluator struct {
	tiers   models.TierTable
	rates   models.RateTable
	waivers models.WaiverSet
}

// NewLatenessEvaluator wires the evaluator with the period's configuration.
func NewLatenessEvaluator(tiers models.TierTable, rates models.RateTable, waivers models.WaiverSet) *LatenessEvaluator {
	return &LatenessEvaluator{tiers: tiers, rates: rates, waivers: waivers}
}

// Evaluate produces a lateness record for one matched day, or nil when the
// day has no event or no deduction applies. A link sent before the scheduled
// time never earns a bonus; minutes late floor at zero.
func (e *LatenessEvaluator) Evaluate(window models.AssignmentWindow, match DayMatch) *models.DeductionRecord {
	if match.Event == nil || e.tiers.Empty() {
		return nil
	}

	minutesLate := int(math.Round(match.Event.SentAt.Sub(match.Scheduled).Seconds() / 60))
	if minutesLate < 0 {
		minutesLate = 0
	}

	record := &models.DeductionRecord{
		Kind:          models.DeductionLateness,
		Date:          match.Date,
		StudentID:     window.StudentID,
		StudentName:   window.StudentName,
		ScheduledTime: match.Scheduled,
		ActualTime:    &match.Event.SentAt,
		MinutesLate:   minutesLate,
		Source:        window.Source,
	}

	base := e.rates.LatenessBase(window.StudentPackage)
	switch {
	case minutesLate <= e.tiers.ExcusedThreshold:
		record.TierLabel = "Excused"
		record.Amount = decimal.Zero
	default:
		if tier, ok := e.tiers.Match(minutesLate); ok {
			record.TierLabel = fmt.Sprintf("Tier %d (%d%%) - %s", tier.TierNo, tier.Percent, window.StudentPackage)
			record.Amount = base.Mul(decimal.NewFromInt(int64(tier.Percent))).Div(decimal.NewFromInt(100)).Round(0)
		} else {
			record.TierLabel = fmt.Sprintf("> Max Tier - %s", window.StudentPackage)
			record.Amount = base
		}
	}

	// Waivers apply after tier resolution so the pre-waiver tier stays
	// visible in the audit trail.
	if e.waivers.Has(models.DeductionLateness, match.Date) {
		record.TierLabel += " (WAIVED)"
		record.Amount = decimal.Zero
		record.Waived = true
	}
	return record
}
