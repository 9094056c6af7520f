package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignmentRepositoryListOverlapping(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	occupied := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "teacher_id", "student_id", "time_slot", "day_group", "occupied_at", "released_at", "created_at",
		"student_name", "student_package",
	}).AddRow("asg-1", "teacher-1", "student-1", "9:00 AM", "MWF", occupied, nil, occupied, "Student One", "A")
	mock.ExpectQuery("SELECT a.id, a.teacher_id, a.student_id").
		WithArgs("teacher-1", from, to).
		WillReturnRows(rows)

	assignments, err := repo.ListOverlapping(context.Background(), "teacher-1", from, to)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, "student-1", assignments[0].StudentID)
	assert.Equal(t, "Student One", assignments[0].StudentName)
	assert.Nil(t, assignments[0].ReleasedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListOverlappingEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT a.id, a.teacher_id, a.student_id").
		WithArgs("idle-teacher", from, to).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "teacher_id", "student_id", "time_slot", "day_group", "occupied_at", "released_at", "created_at",
			"student_name", "student_package",
		}))

	assignments, err := repo.ListOverlapping(context.Background(), "idle-teacher", from, to)
	require.NoError(t, err)
	assert.Empty(t, assignments)
}
