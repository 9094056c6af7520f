package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutorpay-api/internal/models"
)

// BonusRepository reads manager-approved quality bonuses.
type BonusRepository struct {
	db *sqlx.DB
}

// NewBonusRepository constructs the repository.
func NewBonusRepository(db *sqlx.DB) *BonusRepository {
	return &BonusRepository{db: db}
}

// ListApproved returns the teacher's approved bonuses awarded within [from, to).
func (r *BonusRepository) ListApproved(ctx context.Context, teacherID string, from, to time.Time) ([]models.QualityBonus, error) {
	const query = `
SELECT id, teacher_id, amount, approved, notes, awarded_at, created_at
FROM quality_bonuses
WHERE teacher_id = $1 AND approved = TRUE AND awarded_at >= $2 AND awarded_at < $3
ORDER BY awarded_at ASC, id ASC`
	var bonuses []models.QualityBonus
	if err := r.db.SelectContext(ctx, &bonuses, query, teacherID, from, to); err != nil {
		return nil, fmt.Errorf("list approved bonuses: %w", err)
	}
	return bonuses, nil
}
