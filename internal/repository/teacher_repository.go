package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutorpay-api/internal/models"
)

// TeacherRepository reads the teacher roster.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs the repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// ListActive returns all active teachers ordered by name.
func (r *TeacherRepository) ListActive(ctx context.Context) ([]models.Teacher, error) {
	const query = `SELECT id, full_name, email, phone, bank_code, bank_account, active, created_at, updated_at
FROM teachers WHERE active = TRUE ORDER BY full_name ASC`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list active teachers: %w", err)
	}
	return teachers, nil
}

// FindByID fetches a single teacher.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	const query = `SELECT id, full_name, email, phone, bank_code, bank_account, active, created_at, updated_at
FROM teachers WHERE id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}
