package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tutorpay-api/internal/models"
)

type assignmentOverlapLister interface {
	ListOverlapping(ctx context.Context, teacherID string, from, to time.Time) ([]models.AssignmentDetail, error)
}

type assignmentUpdateLister interface {
	ListAssignmentUpdates(ctx context.Context, from, to time.Time) ([]models.AuditLog, error)
}

type studentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// TimelineService reconstructs who taught whom during a period. Live
// assignment rows are merged with windows recovered from ASSIGNMENT_UPDATE
// audit entries, which is the only surviving record once a student has been
// reassigned away from the teacher.
type TimelineService struct {
	assignments assignmentOverlapLister
	audits      assignmentUpdateLister
	students    studentFinder
	logger      *zap.Logger
}

// NewTimelineService wires the reconstructor.
func NewTimelineService(assignments assignmentOverlapLister, audits assignmentUpdateLister, students studentFinder, logger *zap.Logger) *TimelineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimelineService{
		assignments: assignments,
		audits:      audits,
		students:    students,
		logger:      logger,
	}
}

// Reconstruct returns every assignment window for the teacher overlapping
// [from, to). Zero windows means an idle teacher, not an error. Overlapping
// active and derived windows for the same day are both kept; precedence
// between the two sources is deliberately not resolved here.
func (s *TimelineService) Reconstruct(ctx context.Context, teacherID string, from, to time.Time) ([]models.AssignmentWindow, error) {
	active, err := s.assignments.ListOverlapping(ctx, teacherID, from, to)
	if err != nil {
		return nil, err
	}
	windows := make([]models.AssignmentWindow, 0, len(active))
	for _, row := range active {
		windows = append(windows, models.AssignmentWindow{
			TeacherID:      row.TeacherID,
			StudentID:      row.StudentID,
			StudentName:    row.StudentName,
			StudentPackage: row.StudentPackage,
			TimeSlot:       row.TimeSlot,
			DayGroup:       row.DayGroup,
			From:           row.OccupiedAt,
			To:             row.ReleasedAt,
			Source:         models.SourceActive,
		})
	}

	derived, err := s.derivedWindows(ctx, teacherID, from, to)
	if err != nil {
		return nil, err
	}
	windows = append(windows, derived...)

	sort.SliceStable(windows, func(i, j int) bool {
		if !windows[i].From.Equal(windows[j].From) {
			return windows[i].From.Before(windows[j].From)
		}
		return windows[i].StudentID < windows[j].StudentID
	})
	return windows, nil
}

// derivedWindows synthesizes windows from reassignment audit entries naming
// the teacher as the previous holder. The window covers [occupied-at,
// log-created-at): the stretch before the reassignment took effect.
func (s *TimelineService) derivedWindows(ctx context.Context, teacherID string, from, to time.Time) ([]models.AssignmentWindow, error) {
	entries, err := s.audits.ListAssignmentUpdates(ctx, from, to)
	if err != nil {
		return nil, err
	}
	var windows []models.AssignmentWindow
	for _, entry := range entries {
		change, err := models.ParseAssignmentChange(entry.OldValues, from)
		if err != nil {
			s.logger.Warn("skipping malformed assignment change payload",
				zap.String("audit_id", entry.ID), zap.Error(err))
			continue
		}
		if change.OldTeacherID != teacherID || change.StudentID == "" {
			continue
		}
		student, err := s.students.FindByID(ctx, change.StudentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				s.logger.Warn("dropping derived window: student not found",
					zap.String("student_id", change.StudentID), zap.String("audit_id", entry.ID))
				continue
			}
			return nil, err
		}
		releasedAt := entry.CreatedAt
		windows = append(windows, models.AssignmentWindow{
			TeacherID:      teacherID,
			StudentID:      student.ID,
			StudentName:    student.FullName,
			StudentPackage: student.Package,
			TimeSlot:       change.OldTimeSlot,
			DayGroup:       change.OldDayGroup,
			From:           change.OccupiedAt,
			To:             &releasedAt,
			Source:         models.SourceAuditLog,
		})
	}
	return windows, nil
}
