package models

import (
	"encoding/json"
	"time"
)

// AuditAction constants represent actions recorded in the audit trail.
const (
	AuditActionAssignmentUpdate   = "ASSIGNMENT_UPDATE"
	AuditActionSalaryStatusUpdate = "TEACHER_SALARY_STATUS_UPDATE"
	AuditActionWaiverCreate       = "WAIVER_CREATE"
	AuditActionWaiverDelete       = "WAIVER_DELETE"
	AuditActionExportRequest      = "EXPORT_REQUEST"
)

// AuditLog represents an append-only audit trail record. The engine reads
// ASSIGNMENT_UPDATE entries to recover historical assignments and writes one
// TEACHER_SALARY_STATUS_UPDATE entry per finalize call.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	ActorID    *string   `db:"actor_id" json:"actor_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AssignmentChange is the closed, typed form of an ASSIGNMENT_UPDATE payload.
// Payloads are parsed exactly once at ingestion; downstream code never sees
// raw JSON.
type AssignmentChange struct {
	OldTeacherID string    `json:"old_teacher_id"`
	NewTeacherID string    `json:"new_teacher_id"`
	StudentID    string    `json:"student_id"`
	OldTimeSlot  string    `json:"old_time_slot"`
	OldDayGroup  DayGroup  `json:"old_day_group"`
	OccupiedAt   time.Time `json:"occupied_at"`
}

// ParseAssignmentChange decodes an audit payload into its typed form.
// Missing optional fields fall back to defaults: a zero OccupiedAt is
// replaced with the provided fallback so the derived window is never
// open-ended at the start.
func ParseAssignmentChange(payload []byte, occupiedFallback time.Time) (AssignmentChange, error) {
	var change AssignmentChange
	if err := json.Unmarshal(payload, &change); err != nil {
		return AssignmentChange{}, err
	}
	if change.OccupiedAt.IsZero() {
		change.OccupiedAt = occupiedFallback
	}
	return change, nil
}
