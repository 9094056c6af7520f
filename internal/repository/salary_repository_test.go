package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutorpay-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSalaryRepositoryGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSalaryRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "teacher_id", "period", "base_salary", "lateness_deduction", "absence_deduction",
		"bonuses", "total_salary", "status", "paid_at", "payout_transaction", "created_at", "updated_at",
	}).AddRow("sal-1", "teacher-1", "2026-03", "200", "15", "120", "50", "235", "UNPAID", nil, nil, now, now)
	mock.ExpectQuery("SELECT id, teacher_id, period, base_salary").
		WithArgs("teacher-1", "2026-03").
		WillReturnRows(rows)

	salary, err := repo.Get(context.Background(), "teacher-1", "2026-03")
	require.NoError(t, err)
	assert.Equal(t, "teacher-1", salary.TeacherID)
	assert.Equal(t, models.SalaryUnpaid, salary.Status)
	assert.True(t, salary.TotalSalary.Equal(decimal.NewFromInt(235)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSalaryRepositoryGetMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSalaryRepository(db)

	mock.ExpectQuery("SELECT id, teacher_id, period, base_salary").
		WithArgs("teacher-1", "2026-03").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "teacher-1", "2026-03")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSalaryRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSalaryRepository(db)

	mock.ExpectExec("INSERT INTO teacher_salaries").
		WillReturnResult(sqlmock.NewResult(0, 1))

	salary := &models.TeacherSalary{
		TeacherID:   "teacher-1",
		Period:      "2026-03",
		BaseSalary:  decimal.NewFromInt(200),
		TotalSalary: decimal.NewFromInt(235),
		Status:      models.SalaryUnpaid,
	}
	require.NoError(t, repo.Upsert(context.Background(), salary))
	assert.NotEmpty(t, salary.ID)
	assert.False(t, salary.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSalaryRepositoryMarkPaid(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSalaryRepository(db)

	paidAt := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	tx := "tx-1"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE teacher_salaries")).
		WithArgs("teacher-1", "2026-03", paidAt, &tx, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkPaid(context.Background(), "teacher-1", "2026-03", paidAt, &tx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSalaryRepositoryMarkPaidAlreadyPaid(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSalaryRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE teacher_salaries")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkPaid(context.Background(), "teacher-1", "2026-03", time.Now(), nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
