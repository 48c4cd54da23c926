package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-exam-api/internal/engine"
)

// SnapshotRepository loads the full scheduling input in one pass. The solver
// works on this in-memory copy only, so a generation run never re-reads the
// database mid-search.
type SnapshotRepository struct {
	db *sqlx.DB
}

// NewSnapshotRepository constructs a SnapshotRepository.
func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Load reads every entity the engine needs. Ordered selects keep the
// snapshot deterministic for identical database contents.
func (r *SnapshotRepository) Load(ctx context.Context) (*engine.Snapshot, error) {
	snap := &engine.Snapshot{}

	if err := r.db.SelectContext(ctx, &snap.Faculties,
		"SELECT id, name, created_at FROM faculties ORDER BY id"); err != nil {
		return nil, fmt.Errorf("load faculties: %w", err)
	}
	if err := r.db.SelectContext(ctx, &snap.Departments,
		"SELECT id, faculty_id, name, code, created_at FROM departments ORDER BY id"); err != nil {
		return nil, fmt.Errorf("load departments: %w", err)
	}
	if err := r.db.SelectContext(ctx, &snap.Instructors,
		"SELECT id, full_name, email, created_at, updated_at FROM instructors ORDER BY id"); err != nil {
		return nil, fmt.Errorf("load instructors: %w", err)
	}
	if err := r.db.SelectContext(ctx, &snap.Availability,
		"SELECT instructor_id, weekday, available FROM instructor_availability ORDER BY instructor_id, weekday"); err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}
	if err := r.db.SelectContext(ctx, &snap.Courses,
		"SELECT id, department_id, faculty_id, instructor_id, name, student_count, duration_min, exam_type, notes, created_at, updated_at FROM courses ORDER BY id"); err != nil {
		return nil, fmt.Errorf("load courses: %w", err)
	}
	if err := r.db.SelectContext(ctx, &snap.Students,
		"SELECT id, student_no, full_name, department_id, faculty_id, created_at FROM students ORDER BY id"); err != nil {
		return nil, fmt.Errorf("load students: %w", err)
	}
	if err := r.db.SelectContext(ctx, &snap.Enrollments,
		"SELECT course_id, student_id, created_at FROM enrollments ORDER BY course_id, student_id"); err != nil {
		return nil, fmt.Errorf("load enrollments: %w", err)
	}
	if err := r.db.SelectContext(ctx, &snap.Classrooms,
		"SELECT id, name, capacity, exam_eligible, created_at, updated_at FROM classrooms ORDER BY id"); err != nil {
		return nil, fmt.Errorf("load classrooms: %w", err)
	}
	if err := r.db.SelectContext(ctx, &snap.Proximity,
		"SELECT from_classroom_id, to_classroom_id, distance_score FROM classroom_proximity ORDER BY from_classroom_id, to_classroom_id"); err != nil {
		return nil, fmt.Errorf("load proximity: %w", err)
	}

	return snap, nil
}

// EnrollmentCounts recomputes courses.student_count from the enrollments
// table, used after bulk imports.
func (r *SnapshotRepository) EnrollmentCounts(ctx context.Context) (map[string]int, error) {
	rows := []struct {
		CourseID string `db:"course_id"`
		Count    int    `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows,
		"SELECT course_id, COUNT(*) AS count FROM enrollments GROUP BY course_id"); err != nil {
		return nil, fmt.Errorf("count enrollments: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.CourseID] = row.Count
	}
	return counts, nil
}
