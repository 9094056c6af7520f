package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutorpay-api/internal/models"
)

// AssignmentRepository reads live teacher-student assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ListOverlapping returns the teacher's assignments that overlap [from, to]:
// occupied before the range ends and either still open or released after the
// range starts. Student identity is joined in for the payroll breakdown.
func (r *AssignmentRepository) ListOverlapping(ctx context.Context, teacherID string, from, to time.Time) ([]models.AssignmentDetail, error) {
	const query = `
SELECT a.id, a.teacher_id, a.student_id, a.time_slot, a.day_group, a.occupied_at, a.released_at, a.created_at,
       s.full_name AS student_name, s.package AS student_package
FROM assignments a
JOIN students s ON s.id = a.student_id
WHERE a.teacher_id = $1
  AND a.occupied_at <= $3
  AND (a.released_at IS NULL OR a.released_at >= $2)
ORDER BY a.occupied_at ASC, a.id ASC`
	var assignments []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, teacherID, from, to); err != nil {
		return nil, fmt.Errorf("list overlapping assignments: %w", err)
	}
	return assignments, nil
}
