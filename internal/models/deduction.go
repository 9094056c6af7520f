package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeductionKind distinguishes lateness and absence deductions.
type DeductionKind string

const (
	DeductionLateness DeductionKind = "LATENESS"
	DeductionAbsence  DeductionKind = "ABSENCE"
)

// Valid reports whether the kind is supported.
func (k DeductionKind) Valid() bool {
	return k == DeductionLateness || k == DeductionAbsence
}

// LatenessTier is one minute-range band of the deduction table.
type LatenessTier struct {
	TierNo         int `db:"tier_no" json:"tier_no"`
	StartMinute    int `db:"start_minute" json:"start_minute"`
	EndMinute      int `db:"end_minute" json:"end_minute"`
	Percent        int `db:"percent" json:"percent"`
	ExcusedMinutes int `db:"excused_minutes" json:"excused_minutes"`
}

// TierTable holds the ordered lateness tiers plus the derived thresholds.
type TierTable struct {
	Tiers            []LatenessTier
	ExcusedThreshold int
	MaxTierEnd       int
}

// NewTierTable derives the excused threshold (minimum across tiers) and the
// max tier end from the configured rows. An empty table means no lateness
// deductions are possible for the period.
func NewTierTable(tiers []LatenessTier) TierTable {
	table := TierTable{Tiers: tiers}
	for i, tier := range tiers {
		if i == 0 || tier.ExcusedMinutes < table.ExcusedThreshold {
			table.ExcusedThreshold = tier.ExcusedMinutes
		}
		if tier.EndMinute > table.MaxTierEnd {
			table.MaxTierEnd = tier.EndMinute
		}
	}
	return table
}

// Empty reports whether no tiers are configured.
func (t TierTable) Empty() bool {
	return len(t.Tiers) == 0
}

// Match returns the first tier covering the given minutes, if any.
func (t TierTable) Match(minutesLate int) (LatenessTier, bool) {
	for _, tier := range t.Tiers {
		if minutesLate >= tier.StartMinute && minutesLate <= tier.EndMinute {
			return tier, true
		}
	}
	return LatenessTier{}, false
}

// Waiver cancels exactly one deduction instance for a teacher, date and kind.
type Waiver struct {
	ID        string        `db:"id" json:"id"`
	TeacherID string        `db:"teacher_id" json:"teacher_id"`
	Kind      DeductionKind `db:"kind" json:"kind"`
	Date      time.Time     `db:"date" json:"date"`
	Reason    *string       `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

// WaiverSet indexes waivers for O(1) lookup during evaluation.
type WaiverSet map[string]struct{}

// NewWaiverSet builds the lookup index from waiver rows.
func NewWaiverSet(waivers []Waiver) WaiverSet {
	set := make(WaiverSet, len(waivers))
	for _, w := range waivers {
		set[waiverKey(w.Kind, w.Date)] = struct{}{}
	}
	return set
}

// Has reports whether a waiver exists for the kind and date.
func (s WaiverSet) Has(kind DeductionKind, date time.Time) bool {
	_, ok := s[waiverKey(kind, date)]
	return ok
}

func waiverKey(kind DeductionKind, date time.Time) string {
	return string(kind) + "|" + date.UTC().Format("2006-01-02")
}

// DeductionRecord is one computed lateness or absence line item. Records are
// recomputed fresh on every run and never stored individually.
type DeductionRecord struct {
	Kind          DeductionKind    `json:"kind"`
	Date          time.Time        `json:"date"`
	StudentID     string           `json:"student_id"`
	StudentName   string           `json:"student_name"`
	ScheduledTime time.Time        `json:"scheduled_time"`
	ActualTime    *time.Time       `json:"actual_time,omitempty"`
	MinutesLate   int              `json:"minutes_late,omitempty"`
	TierLabel     string           `json:"tier_label"`
	Amount        decimal.Decimal  `json:"amount"`
	Waived        bool             `json:"waived"`
	Source        AssignmentSource `json:"source"`
}
