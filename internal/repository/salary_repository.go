package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutorpay-api/internal/models"
)

// SalaryRepository persists per-period teacher salary summaries.
type SalaryRepository struct {
	db *sqlx.DB
}

// NewSalaryRepository constructs the repository.
func NewSalaryRepository(db *sqlx.DB) *SalaryRepository {
	return &SalaryRepository{db: db}
}

// Get fetches the salary record for (teacher, period).
func (r *SalaryRepository) Get(ctx context.Context, teacherID, period string) (*models.TeacherSalary, error) {
	const query = `
SELECT id, teacher_id, period, base_salary, lateness_deduction, absence_deduction, bonuses,
       total_salary, status, paid_at, payout_transaction, created_at, updated_at
FROM teacher_salaries WHERE teacher_id = $1 AND period = $2`
	var salary models.TeacherSalary
	if err := r.db.GetContext(ctx, &salary, query, teacherID, period); err != nil {
		return nil, err
	}
	return &salary, nil
}

// Upsert writes the computed figures for (teacher, period). The single
// atomic statement serializes concurrent recomputations; a record already
// marked PAID is left untouched.
func (r *SalaryRepository) Upsert(ctx context.Context, salary *models.TeacherSalary) error {
	if salary.ID == "" {
		salary.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if salary.CreatedAt.IsZero() {
		salary.CreatedAt = now
	}
	salary.UpdatedAt = now
	const query = `
INSERT INTO teacher_salaries (id, teacher_id, period, base_salary, lateness_deduction, absence_deduction,
                              bonuses, total_salary, status, paid_at, payout_transaction, created_at, updated_at)
VALUES (:id, :teacher_id, :period, :base_salary, :lateness_deduction, :absence_deduction,
        :bonuses, :total_salary, :status, :paid_at, :payout_transaction, :created_at, :updated_at)
ON CONFLICT (teacher_id, period)
DO UPDATE SET base_salary = EXCLUDED.base_salary,
              lateness_deduction = EXCLUDED.lateness_deduction,
              absence_deduction = EXCLUDED.absence_deduction,
              bonuses = EXCLUDED.bonuses,
              total_salary = EXCLUDED.total_salary,
              updated_at = EXCLUDED.updated_at
WHERE teacher_salaries.status <> 'PAID'`
	if _, err := r.db.NamedExecContext(ctx, query, salary); err != nil {
		return fmt.Errorf("upsert teacher salary: %w", err)
	}
	return nil
}

// MarkPaid transitions the record to PAID, recording the disbursement time
// and the gateway transaction reference. Returns sql.ErrNoRows when the
// record is missing or already paid.
func (r *SalaryRepository) MarkPaid(ctx context.Context, teacherID, period string, paidAt time.Time, transactionID *string) error {
	const query = `
UPDATE teacher_salaries
SET status = 'PAID', paid_at = $3, payout_transaction = $4, updated_at = $5
WHERE teacher_id = $1 AND period = $2 AND status = 'UNPAID'`
	result, err := r.db.ExecContext(ctx, query, teacherID, period, paidAt, transactionID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark salary paid: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check paid salary rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
