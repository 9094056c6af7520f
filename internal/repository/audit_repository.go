package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutorpay-api/internal/models"
)

// AuditRepository reads and appends audit trail entries. The log itself is
// written by many workflows; this API only consumes ASSIGNMENT_UPDATE entries
// and contributes salary status transitions.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// ListAssignmentUpdates returns ASSIGNMENT_UPDATE entries created within
// [from, to), oldest first.
func (r *AuditRepository) ListAssignmentUpdates(ctx context.Context, from, to time.Time) ([]models.AuditLog, error) {
	const query = `
SELECT id, actor_id, action, resource, resource_id, old_values, new_values, created_at
FROM audit_logs
WHERE action = $1 AND created_at >= $2 AND created_at < $3
ORDER BY created_at ASC, id ASC`
	var logs []models.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, models.AuditActionAssignmentUpdate, from, to); err != nil {
		return nil, fmt.Errorf("list assignment updates: %w", err)
	}
	return logs, nil
}

// Create appends an audit entry.
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, actor_id, action, resource, resource_id, old_values, new_values, created_at)
VALUES (:id, :actor_id, :action, :resource, :resource_id, :old_values, :new_values, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}
