package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutorpay-api/internal/models"
)

// SessionRepository reads delivered session links.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// ListByTeacher returns session links the teacher sent within [from, to),
// ordered by sent_at then id so day-level ties resolve deterministically.
func (r *SessionRepository) ListByTeacher(ctx context.Context, teacherID string, from, to time.Time) ([]models.SessionLink, error) {
	const query = `
SELECT id, student_id, teacher_id, sent_at, clicked_at, rate_override, created_at
FROM session_links
WHERE teacher_id = $1 AND sent_at >= $2 AND sent_at < $3
ORDER BY sent_at ASC, id ASC`
	var links []models.SessionLink
	if err := r.db.SelectContext(ctx, &links, query, teacherID, from, to); err != nil {
		return nil, fmt.Errorf("list session links: %w", err)
	}
	return links, nil
}
