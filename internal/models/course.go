package models

import "time"

// Allowed exam durations in minutes.
var AllowedDurations = []int{30, 60, 90, 120}

// Course is an offering whose exam must be placed exactly once.
type Course struct {
	ID           string    `db:"id" json:"id"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	FacultyID    string    `db:"faculty_id" json:"faculty_id"`
	InstructorID string    `db:"instructor_id" json:"instructor_id"`
	Name         string    `db:"name" json:"name"`
	StudentCount int       `db:"student_count" json:"student_count"`
	DurationMin  int       `db:"duration_min" json:"duration_min"`
	ExamType     string    `db:"exam_type" json:"exam_type"`
	Notes        *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ValidDuration reports whether d is one of the allowed exam durations.
func ValidDuration(d int) bool {
	for _, allowed := range AllowedDurations {
		if d == allowed {
			return true
		}
	}
	return false
}

// CourseFilter captures filtering options for listing courses.
type CourseFilter struct {
	Search       string
	DepartmentID string
	InstructorID string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
