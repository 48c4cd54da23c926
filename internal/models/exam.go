package models

import "time"

// Exam is the scheduled sitting for a course. Exactly one exam exists per
// scheduled course and end_at = start_at + course duration.
type Exam struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	StartAt   time.Time `db:"start_at" json:"start_at"`
	EndAt     time.Time `db:"end_at" json:"end_at"`
	Weekday   int       `db:"weekday" json:"weekday"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ExamRoomAssignment seats part of an exam in one classroom. The assigned
// capacities of an exam sum to at least the course's student count.
type ExamRoomAssignment struct {
	ExamID           string `db:"exam_id" json:"exam_id"`
	ClassroomID      string `db:"classroom_id" json:"classroom_id"`
	AssignedCapacity int    `db:"assigned_capacity" json:"assigned_capacity"`
}

// ExamDetail joins an exam with course and room context for API listings.
type ExamDetail struct {
	Exam
	CourseName     string `db:"course_name" json:"course_name"`
	InstructorName string `db:"instructor_name" json:"instructor_name"`
	StudentCount   int    `db:"student_count" json:"student_count"`
}
