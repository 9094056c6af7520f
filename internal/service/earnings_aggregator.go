package service

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/tutorpay-api/internal/dto"
	"github.com/noah-isme/tutorpay-api/internal/models"
)

// EarningsAggregator folds matched session days into the teacher's base
// salary. It is built fresh per computation run and carries the counted
// (student, day) index that prevents a day earning twice when an unmatched
// event duplicates a matched window.
type EarningsAggregator struct {
	rates       models.RateTable
	workingDays int
	period      models.Period

	counted   map[string]struct{}
	total     decimal.Decimal
	lines     []dto.DailyEarning
	unmatched []dto.DailyEarning
	students  map[string]*dto.StudentBreakdown
	windows   map[string]time.Time
}

// NewEarningsAggregator creates an aggregator for one (teacher, period) run.
func NewEarningsAggregator(rates models.RateTable, workingDaysPerMonth int, period models.Period) *EarningsAggregator {
	return &EarningsAggregator{
		rates:       rates,
		workingDays: workingDaysPerMonth,
		period:      period,
		counted:     make(map[string]struct{}),
		total:       decimal.Zero,
		students:    make(map[string]*dto.StudentBreakdown),
		windows:     make(map[string]time.Time),
	}
}

// AddMatch credits one matched session day. Days without an event earn
// nothing here; they are the absence evaluator's concern. Unknown packages
// resolve to a zero daily rate and contribute zero earnings.
func (a *EarningsAggregator) AddMatch(window models.AssignmentWindow, match DayMatch) {
	if match.Event == nil {
		return
	}
	if !a.mark(window.StudentID, match.Date) {
		return
	}
	amount := a.sessionAmount(window.StudentPackage, match.Event)
	a.total = a.total.Add(amount)
	a.lines = append(a.lines, dto.DailyEarning{
		Date:        match.Date,
		StudentID:   window.StudentID,
		StudentName: window.StudentName,
		Package:     window.StudentPackage,
		Amount:      amount,
		Source:      window.Source,
	})
	a.creditStudent(window.StudentID, window.StudentName, window.StudentPackage, window.From, amount)
}

// AddUnmatched credits a session event no reconstructed window explains.
// The event still earns when the student's package resolves, flagged for
// audit visibility, but never re-counts a (student, day) a matched window
// already covered.
func (a *EarningsAggregator) AddUnmatched(event models.SessionLink, studentName, studentPackage string) {
	day := event.Day()
	if !a.mark(event.StudentID, day) {
		return
	}
	amount := a.sessionAmount(studentPackage, &event)
	a.total = a.total.Add(amount)
	line := dto.DailyEarning{
		Date:        day,
		StudentID:   event.StudentID,
		StudentName: studentName,
		Package:     studentPackage,
		Amount:      amount,
		Source:      models.SourceUnmatchedEvent,
	}
	a.lines = append(a.lines, line)
	a.unmatched = append(a.unmatched, line)
	a.creditStudent(event.StudentID, studentName, studentPackage, time.Time{}, amount)
}

// Total returns the accumulated base salary.
func (a *EarningsAggregator) Total() decimal.Decimal {
	return a.total
}

// Lines returns all earned line items ordered by date then student for
// deterministic display.
func (a *EarningsAggregator) Lines() []dto.DailyEarning {
	sort.SliceStable(a.lines, func(i, j int) bool {
		if !a.lines[i].Date.Equal(a.lines[j].Date) {
			return a.lines[i].Date.Before(a.lines[j].Date)
		}
		return a.lines[i].StudentID < a.lines[j].StudentID
	})
	return a.lines
}

// Unmatched returns the events that earned without a covering window.
func (a *EarningsAggregator) Unmatched() []dto.DailyEarning {
	return a.unmatched
}

// PerStudent returns per-student totals including the month's billing charge.
// The charge is display context for the breakdown; it never feeds pay.
func (a *EarningsAggregator) PerStudent() []dto.StudentBreakdown {
	out := make([]dto.StudentBreakdown, 0, len(a.students))
	for id, s := range a.students {
		s.MonthlyCharge = a.monthlyCharge(s.Package, a.windows[id])
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out
}

func (a *EarningsAggregator) sessionAmount(pkg string, event *models.SessionLink) decimal.Decimal {
	if event.RateOverride != nil {
		return *event.RateOverride
	}
	return a.rates.DailyRate(pkg, a.workingDays)
}

func (a *EarningsAggregator) mark(studentID string, day time.Time) bool {
	key := studentID + "|" + day.Format("2006-01-02")
	if _, dup := a.counted[key]; dup {
		return false
	}
	a.counted[key] = struct{}{}
	return true
}

func (a *EarningsAggregator) creditStudent(id, name, pkg string, windowFrom time.Time, amount decimal.Decimal) {
	s, ok := a.students[id]
	if !ok {
		s = &dto.StudentBreakdown{StudentID: id, StudentName: name, Package: pkg, Earned: decimal.Zero}
		a.students[id] = s
	}
	s.SessionsTaught++
	s.Earned = s.Earned.Add(amount)
	existing, seen := a.windows[id]
	switch {
	case !seen:
		a.windows[id] = windowFrom
	case !windowFrom.IsZero() && (existing.IsZero() || windowFrom.Before(existing)):
		a.windows[id] = windowFrom
	}
}

// monthlyCharge is the amount billed to the student for the period. A
// student whose assignment started mid-month is charged pro rata by elapsed
// calendar days over days in the month.
func (a *EarningsAggregator) monthlyCharge(pkg string, windowFrom time.Time) decimal.Decimal {
	monthly, ok := a.rates.MonthlyRate(pkg)
	if !ok {
		return decimal.Zero
	}
	if windowFrom.IsZero() || !a.period.Contains(windowFrom) {
		return monthly
	}
	daysInMonth := a.period.Days()
	elapsed := daysInMonth - windowFrom.UTC().Day() + 1
	return monthly.Mul(decimal.NewFromInt(int64(elapsed))).
		Div(decimal.NewFromInt(int64(daysInMonth))).Round(0)
}
