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

// WaiverRepository persists manual deduction waivers.
type WaiverRepository struct {
	db *sqlx.DB
}

// NewWaiverRepository constructs the repository.
func NewWaiverRepository(db *sqlx.DB) *WaiverRepository {
	return &WaiverRepository{db: db}
}

// ListByTeacher returns the teacher's waivers dated within [from, to).
func (r *WaiverRepository) ListByTeacher(ctx context.Context, teacherID string, from, to time.Time) ([]models.Waiver, error) {
	const query = `
SELECT id, teacher_id, kind, date, reason, created_at
FROM deduction_waivers
WHERE teacher_id = $1 AND date >= $2 AND date < $3
ORDER BY date ASC, id ASC`
	var waivers []models.Waiver
	if err := r.db.SelectContext(ctx, &waivers, query, teacherID, from, to); err != nil {
		return nil, fmt.Errorf("list waivers: %w", err)
	}
	return waivers, nil
}

// Create inserts a new waiver.
func (r *WaiverRepository) Create(ctx context.Context, waiver *models.Waiver) error {
	if waiver.ID == "" {
		waiver.ID = uuid.NewString()
	}
	if waiver.CreatedAt.IsZero() {
		waiver.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO deduction_waivers (id, teacher_id, kind, date, reason, created_at)
VALUES (:id, :teacher_id, :kind, :date, :reason, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, waiver); err != nil {
		return fmt.Errorf("create waiver: %w", err)
	}
	return nil
}

// Delete removes a waiver by id.
func (r *WaiverRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM deduction_waivers WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete waiver: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted waiver rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
