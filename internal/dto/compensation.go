package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/tutorpay-api/internal/models"
)

// DailyEarning is one earned line in the payroll breakdown.
type DailyEarning struct {
	Date        time.Time               `json:"date"`
	StudentID   string                  `json:"student_id"`
	StudentName string                  `json:"student_name"`
	Package     string                  `json:"package"`
	Amount      decimal.Decimal         `json:"amount"`
	Source      models.AssignmentSource `json:"source"`
}

// StudentBreakdown aggregates one student's contribution to the period.
type StudentBreakdown struct {
	StudentID      string          `json:"student_id"`
	StudentName    string          `json:"student_name"`
	Package        string          `json:"package"`
	SessionsTaught int             `json:"sessions_taught"`
	Earned         decimal.Decimal `json:"earned"`
	MonthlyCharge  decimal.Decimal `json:"monthly_charge"`
}

// CompensationBreakdown carries the full line-by-item audit detail.
type CompensationBreakdown struct {
	DailyEarnings   []DailyEarning           `json:"daily_earnings"`
	PerStudent      []StudentBreakdown       `json:"per_student"`
	LatenessRecords []models.DeductionRecord `json:"lateness_records"`
	AbsenceRecords  []models.DeductionRecord `json:"absence_records"`
	UnmatchedEvents []DailyEarning           `json:"unmatched_events"`
}

// TeacherCompensation is the computed result for one teacher and period.
type TeacherCompensation struct {
	TeacherID         string                `json:"teacher_id"`
	TeacherName       string                `json:"teacher_name"`
	Period            string                `json:"period"`
	BaseSalary        decimal.Decimal       `json:"base_salary"`
	LatenessDeduction decimal.Decimal       `json:"lateness_deduction"`
	AbsenceDeduction  decimal.Decimal       `json:"absence_deduction"`
	Bonuses           decimal.Decimal       `json:"bonuses"`
	TotalSalary       decimal.Decimal       `json:"total_salary"`
	Status            models.SalaryStatus   `json:"status"`
	PaidAt            *time.Time            `json:"paid_at,omitempty"`
	Breakdown         CompensationBreakdown `json:"breakdown"`
}

// UpdateSalaryStatusRequest is the finalize/mark-paid admin command.
type UpdateSalaryStatusRequest struct {
	Period            string              `json:"period" validate:"required"`
	Status            models.SalaryStatus `json:"status" validate:"required"`
	TotalSalary       decimal.Decimal     `json:"total_salary"`
	BaseSalary        decimal.Decimal     `json:"base_salary"`
	LatenessDeduction decimal.Decimal     `json:"lateness_deduction"`
	AbsenceDeduction  decimal.Decimal     `json:"absence_deduction"`
	Bonuses           decimal.Decimal     `json:"bonuses"`
	ProcessPayment    bool                `json:"process_payment"`
}

// UpdateSalaryStatusResponse returns the stored record and, when a payout was
// processed, the gateway transaction reference.
type UpdateSalaryStatusResponse struct {
	Salary        models.TeacherSalary `json:"salary"`
	TransactionID *string              `json:"transaction_id,omitempty"`
}
