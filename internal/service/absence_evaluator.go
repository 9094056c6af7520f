package service

import (
	"fmt"
	"time"

	"github.com/noah-isme/tutorpay-api/internal/models"
	"github.com/noah-isme/tutorpay-api/pkg/config"
)

// AbsenceEvaluator produces absence deductions for scheduled days with no
// session link. Days on or after yesterday's end are never judged: a day not
// yet concluded cannot be an absence.
type AbsenceEvaluator struct {
	rates   models.RateTable
	waivers models.WaiverSet
	cfg     config.PayrollConfig
	now     func() time.Time
}

// NewAbsenceEvaluator wires the evaluator. The clock defaults to time.Now and
// is injectable so tests can pin the computation instant.
func NewAbsenceEvaluator(rates models.RateTable, waivers models.WaiverSet, cfg config.PayrollConfig, now func() time.Time) *AbsenceEvaluator {
	if now == nil {
		now = time.Now
	}
	return &AbsenceEvaluator{rates: rates, waivers: waivers, cfg: cfg, now: now}
}

// Evaluate returns an absence record for one scheduled day, or nil when the
// day is matched, waived, outside the assignment's day group, a skipped
// non-teaching weekday, or not yet concluded. Lateness and absence are
// mutually exclusive per day: a matched day never produces an absence.
func (e *AbsenceEvaluator) Evaluate(window models.AssignmentWindow, match DayMatch) *models.DeductionRecord {
	if match.Event != nil {
		return nil
	}
	if !match.Date.Before(e.yesterdayEnd()) {
		return nil
	}
	if !window.DayGroup.Includes(match.Date.Weekday()) {
		return nil
	}
	if !e.cfg.IncludeNonTeachingDay && match.Date.Weekday() == e.cfg.NonTeachingWeekday {
		return nil
	}
	if e.waivers.Has(models.DeductionAbsence, match.Date) {
		return nil
	}

	return &models.DeductionRecord{
		Kind:          models.DeductionAbsence,
		Date:          match.Date,
		StudentID:     window.StudentID,
		StudentName:   window.StudentName,
		ScheduledTime: match.Scheduled,
		TierLabel:     fmt.Sprintf("Absence - %s (%s)", window.StudentName, window.StudentPackage),
		Amount:        e.rates.AbsenceBase(window.StudentPackage),
		Source:        window.Source,
	}
}

// yesterdayEnd is the start of the current day: every instant before it
// belongs to a concluded day.
func (e *AbsenceEvaluator) yesterdayEnd() time.Time {
	return dayOf(e.now())
}
