package models

import "time"

// Student represents a learner registered in the institution.
type Student struct {
	ID           string    `db:"id" json:"id"`
	StudentNo    string    `db:"student_no" json:"student_no"`
	FullName     string    `db:"full_name" json:"full_name"`
	DepartmentID *string   `db:"department_id" json:"department_id,omitempty"`
	FacultyID    *string   `db:"faculty_id" json:"faculty_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Enrollment registers a student to a course. Membership is unique per
// (course, student) pair and defines the student conflict relation.
type Enrollment struct {
	CourseID  string    `db:"course_id" json:"course_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
