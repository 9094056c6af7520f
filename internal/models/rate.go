package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Package maps a tutoring package to its compensation amounts.
type Package struct {
	Name         string          `db:"name" json:"name"`
	LatenessBase decimal.Decimal `db:"lateness_base" json:"lateness_base"`
	AbsenceBase  decimal.Decimal `db:"absence_base" json:"absence_base"`
	MonthlyRate  decimal.Decimal `db:"monthly_rate" json:"monthly_rate"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// RateTable resolves per-package amounts with documented fallbacks. It is
// built once per computation and passed around explicitly.
type RateTable struct {
	packages            map[string]Package
	defaultLatenessBase decimal.Decimal
	defaultAbsenceBase  decimal.Decimal
}

// NewRateTable indexes packages by name.
func NewRateTable(packages []Package, defaultLatenessBase, defaultAbsenceBase decimal.Decimal) RateTable {
	index := make(map[string]Package, len(packages))
	for _, p := range packages {
		index[p.Name] = p
	}
	return RateTable{
		packages:            index,
		defaultLatenessBase: defaultLatenessBase,
		defaultAbsenceBase:  defaultAbsenceBase,
	}
}

// LatenessBase returns the lateness base amount for the package, falling back
// to the configured default when the package is unknown.
func (t RateTable) LatenessBase(name string) decimal.Decimal {
	if p, ok := t.packages[name]; ok {
		return p.LatenessBase
	}
	return t.defaultLatenessBase
}

// AbsenceBase returns the absence base amount for the package, falling back
// to the configured default when the package is unknown.
func (t RateTable) AbsenceBase(name string) decimal.Decimal {
	if p, ok := t.packages[name]; ok {
		return p.AbsenceBase
	}
	return t.defaultAbsenceBase
}

// MonthlyRate returns the monthly salary rate for the package. An unknown
// package contributes zero earnings.
func (t RateTable) MonthlyRate(name string) (decimal.Decimal, bool) {
	if p, ok := t.packages[name]; ok {
		return p.MonthlyRate, true
	}
	return decimal.Zero, false
}

// DailyRate derives the per-session rate from the monthly rate using the
// canonical working-days divisor. Unknown packages yield zero.
func (t RateTable) DailyRate(name string, workingDaysPerMonth int) decimal.Decimal {
	monthly, ok := t.MonthlyRate(name)
	if !ok || workingDaysPerMonth <= 0 {
		return decimal.Zero
	}
	return monthly.Div(decimal.NewFromInt(int64(workingDaysPerMonth))).Round(0)
}
