package models

import "time"

// Teacher represents a tutoring teacher on the payroll.
type Teacher struct {
	ID          string    `db:"id" json:"id"`
	FullName    string    `db:"full_name" json:"full_name"`
	Email       string    `db:"email" json:"email"`
	Phone       string    `db:"phone" json:"phone"`
	BankCode    string    `db:"bank_code" json:"bank_code"`
	BankAccount string    `db:"bank_account" json:"bank_account"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
