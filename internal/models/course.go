package models

import "time"

// Course represents a course record.
type Course struct {
	ID              string    `db:"id" json:"id"`
	Title           string    `db:"title" json:"title"`
	Description     *string   `db:"description" json:"description,omitempty"`
	Instructor      string    `db:"instructor" json:"instructor"`
	Duration        int       `db:"duration" json:"duration"`
	EnrollmentLimit *int      `db:"enrollment_limit" json:"enrollment_limit,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
