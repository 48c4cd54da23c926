package models

import "time"

// Instructor represents a member of the teaching staff.
type Instructor struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// InstructorAvailability marks a weekday (0=Monday .. 6=Sunday) as available
// or blocked for proctoring. At most one record exists per instructor-weekday.
type InstructorAvailability struct {
	InstructorID string `db:"instructor_id" json:"instructor_id"`
	Weekday      int    `db:"weekday" json:"weekday"`
	Available    bool   `db:"available" json:"available"`
}

// InstructorFilter captures filtering options for listing instructors.
type InstructorFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
