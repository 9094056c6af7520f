package models

import "time"

// Student represents an enrolled student. Package determines the rates used
// by the compensation engine; EnrolledAt drives first-month billing proration.
type Student struct {
	ID         string    `db:"id" json:"id"`
	FullName   string    `db:"full_name" json:"full_name"`
	Package    string    `db:"package" json:"package"`
	EnrolledAt time.Time `db:"enrolled_at" json:"enrolled_at"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
