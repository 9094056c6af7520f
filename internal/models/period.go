package models

import (
	"fmt"
	"time"
)

// Period identifies one payroll month.
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod parses a "YYYY-MM" period string.
func ParsePeriod(raw string) (Period, error) {
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q: expected YYYY-MM", raw)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// PeriodOf returns the period containing the given instant.
func PeriodOf(t time.Time) Period {
	t = t.UTC()
	return Period{Year: t.Year(), Month: t.Month()}
}

// String renders the canonical "YYYY-MM" form used as the persistence key.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Start returns the first instant of the period (UTC midnight).
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first instant of the following period. The period covers
// [Start, End).
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// Days returns the number of calendar days in the period.
func (p Period) Days() int {
	return int(p.End().Sub(p.Start()).Hours() / 24)
}

// Contains reports whether the instant falls inside the period.
func (p Period) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(p.Start()) && t.Before(p.End())
}
