package models

import "time"

// Module is a course module that groups assignments for one cohort.
type Module struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Year      int       `db:"year" json:"year"`
	Semester  int       `db:"semester" json:"semester"`
	EnrollKey string    `db:"enroll_key" json:"enroll_key,omitempty"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ModuleFilter narrows module listings.
type ModuleFilter struct {
	Year     *int
	Semester *int
	Search   string
	Page     int
	PageSize int
}
