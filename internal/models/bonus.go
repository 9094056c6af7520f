package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// QualityBonus is a manager-approved quality-assessment bonus awarded to a
// teacher. Only approved bonuses count toward compensation.
type QualityBonus struct {
	ID        string          `db:"id" json:"id"`
	TeacherID string          `db:"teacher_id" json:"teacher_id"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	Approved  bool            `db:"approved" json:"approved"`
	Notes     *string         `db:"notes" json:"notes,omitempty"`
	AwardedAt time.Time       `db:"awarded_at" json:"awarded_at"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
