package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalaryStatus tracks whether a period's salary has been disbursed.
type SalaryStatus string

const (
	SalaryUnpaid SalaryStatus = "UNPAID"
	SalaryPaid   SalaryStatus = "PAID"
)

// Valid reports whether the status is a supported value.
func (s SalaryStatus) Valid() bool {
	return s == SalaryUnpaid || s == SalaryPaid
}

// TeacherSalary is the persisted summary of one teacher's pay for one period.
// Unique per (teacher_id, period); recomputation upserts it until the status
// transitions to PAID.
type TeacherSalary struct {
	ID                 string          `db:"id" json:"id"`
	TeacherID          string          `db:"teacher_id" json:"teacher_id"`
	Period             string          `db:"period" json:"period"`
	BaseSalary         decimal.Decimal `db:"base_salary" json:"base_salary"`
	LatenessDeduction  decimal.Decimal `db:"lateness_deduction" json:"lateness_deduction"`
	AbsenceDeduction   decimal.Decimal `db:"absence_deduction" json:"absence_deduction"`
	Bonuses            decimal.Decimal `db:"bonuses" json:"bonuses"`
	TotalSalary        decimal.Decimal `db:"total_salary" json:"total_salary"`
	Status             SalaryStatus    `db:"status" json:"status"`
	PaidAt             *time.Time      `db:"paid_at" json:"paid_at,omitempty"`
	PayoutTransaction  *string         `db:"payout_transaction" json:"payout_transaction,omitempty"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
}
