package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SessionLink records one class artifact (meeting link) delivered to a
// student. Several links may exist per day; only the earliest SentAt counts
// toward lateness.
type SessionLink struct {
	ID           string           `db:"id" json:"id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	TeacherID    string           `db:"teacher_id" json:"teacher_id"`
	SentAt       time.Time        `db:"sent_at" json:"sent_at"`
	ClickedAt    *time.Time       `db:"clicked_at" json:"clicked_at,omitempty"`
	RateOverride *decimal.Decimal `db:"rate_override" json:"rate_override,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
}

// Day returns the UTC calendar day the link was sent on.
func (l SessionLink) Day() time.Time {
	t := l.SentAt.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
