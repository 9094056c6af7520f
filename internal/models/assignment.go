package models

import (
	"strings"
	"time"
)

// DayGroup enumerates the weekly teaching patterns a package can be booked on.
type DayGroup string

const (
	DayGroupMWF   DayGroup = "MWF"
	DayGroupTTS   DayGroup = "TTS"
	DayGroupDaily DayGroup = "DAILY"
)

// Includes reports whether the weekday belongs to the group. Unknown groups
// behave like DAILY so that a misconfigured assignment is still evaluated
// rather than silently dropped from payroll.
func (g DayGroup) Includes(day time.Weekday) bool {
	switch DayGroup(strings.ToUpper(string(g))) {
	case DayGroupMWF:
		return day == time.Monday || day == time.Wednesday || day == time.Friday
	case DayGroupTTS:
		return day == time.Tuesday || day == time.Thursday || day == time.Saturday
	default:
		return true
	}
}

// AssignmentSource tags where an assignment window was reconstructed from.
type AssignmentSource string

const (
	SourceActive         AssignmentSource = "Active"
	SourceAuditLog       AssignmentSource = "AuditLogDerived"
	SourceUnmatchedEvent AssignmentSource = "Unmatched Event"
)

// Assignment is a live teacher-student assignment row. ReleasedAt is set when
// the student is reassigned to another teacher.
type Assignment struct {
	ID         string     `db:"id" json:"id"`
	TeacherID  string     `db:"teacher_id" json:"teacher_id"`
	StudentID  string     `db:"student_id" json:"student_id"`
	TimeSlot   string     `db:"time_slot" json:"time_slot"`
	DayGroup   DayGroup   `db:"day_group" json:"day_group"`
	OccupiedAt time.Time  `db:"occupied_at" json:"occupied_at"`
	ReleasedAt *time.Time `db:"released_at" json:"released_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// AssignmentDetail enriches an assignment with student identity.
type AssignmentDetail struct {
	Assignment
	StudentName    string `db:"student_name" json:"student_name"`
	StudentPackage string `db:"student_package" json:"student_package"`
}

// AssignmentWindow is one reconstructed teaching interval. Windows from the
// live table carry SourceActive; windows recovered from the audit log carry
// SourceAuditLog and exist only while a computation runs.
type AssignmentWindow struct {
	TeacherID      string           `json:"teacher_id"`
	StudentID      string           `json:"student_id"`
	StudentName    string           `json:"student_name"`
	StudentPackage string           `json:"student_package"`
	TimeSlot       string           `json:"time_slot"`
	DayGroup       DayGroup         `json:"day_group"`
	From           time.Time        `json:"from"`
	To             *time.Time       `json:"to,omitempty"`
	Source         AssignmentSource `json:"source"`
}

// Clip intersects the window with [from, to) and reports whether anything
// remains.
func (w AssignmentWindow) Clip(from, to time.Time) (time.Time, time.Time, bool) {
	start := w.From
	if start.Before(from) {
		start = from
	}
	end := to
	if w.To != nil && w.To.Before(end) {
		end = *w.To
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
