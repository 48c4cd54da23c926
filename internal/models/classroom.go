package models

import "time"

// Classroom is a physical room; only exam-eligible rooms are considered by
// the room assignment solver.
type Classroom struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Capacity     int       `db:"capacity" json:"capacity"`
	ExamEligible bool      `db:"exam_eligible" json:"exam_eligible"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ClassroomProximity is a directed walking-distance score between two rooms.
// Scores may be asymmetric; a missing edge means unknown distance.
type ClassroomProximity struct {
	FromClassroomID string `db:"from_classroom_id" json:"from_classroom_id"`
	ToClassroomID   string `db:"to_classroom_id" json:"to_classroom_id"`
	DistanceScore   int    `db:"distance_score" json:"distance_score"`
}

// ClassroomFilter captures filtering options for listing classrooms.
type ClassroomFilter struct {
	Search       string
	ExamEligible *bool
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
