package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutorpay-api/internal/models"
)

// StudentRepository reads the student roster.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID fetches a single student.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, full_name, package, enrolled_at, active, created_at FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}
