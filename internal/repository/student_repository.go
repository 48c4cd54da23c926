package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-exam-api/internal/models"
)

// StudentRepository manages persistence for students and their course
// enrollments.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, student_no, full_name, department_id, faculty_id, created_at FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ExistsByStudentNo checks whether a student with the given number exists,
// optionally excluding an ID.
func (r *StudentRepository) ExistsByStudentNo(ctx context.Context, studentNo, excludeID string) (bool, error) {
	query := "SELECT 1 FROM students WHERE student_no = $1"
	args := []interface{}{studentNo}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student number: %w", err)
	}
	return true, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO students (id, student_no, full_name, department_id, faculty_id, created_at)
        VALUES (:id, :student_no, :full_name, :department_id, :faculty_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Enroll links a student to a course. Duplicate enrollments are ignored.
func (r *StudentRepository) Enroll(ctx context.Context, courseID, studentID string) error {
	const query = `INSERT INTO enrollments (course_id, student_id, created_at) VALUES ($1, $2, $3)
        ON CONFLICT (course_id, student_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, courseID, studentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("enroll student: %w", err)
	}
	return nil
}

// Unenroll removes a student's enrollment in a course.
func (r *StudentRepository) Unenroll(ctx context.Context, courseID, studentID string) error {
	const query = `DELETE FROM enrollments WHERE course_id = $1 AND student_id = $2`
	if _, err := r.db.ExecContext(ctx, query, courseID, studentID); err != nil {
		return fmt.Errorf("unenroll student: %w", err)
	}
	return nil
}

// ListEnrollmentsByCourse returns the enrollments of one course.
func (r *StudentRepository) ListEnrollmentsByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	const query = `SELECT course_id, student_id, created_at FROM enrollments WHERE course_id = $1 ORDER BY student_id`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, courseID); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}
