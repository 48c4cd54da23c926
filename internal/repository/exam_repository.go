package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-exam-api/internal/models"
)

// ExamRepository manages the published exam plan. A plan is replaced as a
// whole: committing a new schedule atomically removes the previous one.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs an ExamRepository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// ReplacePlan swaps the stored schedule for the given exams and room
// assignments in one transaction.
func (r *ExamRepository) ReplacePlan(ctx context.Context, exams []models.Exam, seats []models.ExamRoomAssignment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace plan: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM exam_room_assignments"); err != nil {
		return fmt.Errorf("clear room assignments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM exams"); err != nil {
		return fmt.Errorf("clear exams: %w", err)
	}

	now := time.Now().UTC()
	const insertExam = `INSERT INTO exams (id, course_id, start_at, end_at, weekday, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`
	for _, exam := range exams {
		createdAt := exam.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := tx.ExecContext(ctx, insertExam, exam.ID, exam.CourseID, exam.StartAt, exam.EndAt, exam.Weekday, createdAt); err != nil {
			return fmt.Errorf("insert exam: %w", err)
		}
	}

	const insertSeat = `INSERT INTO exam_room_assignments (exam_id, classroom_id, assigned_capacity)
        VALUES ($1, $2, $3)`
	for _, seat := range seats {
		if _, err := tx.ExecContext(ctx, insertSeat, seat.ExamID, seat.ClassroomID, seat.AssignedCapacity); err != nil {
			return fmt.Errorf("insert room assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace plan: %w", err)
	}
	return nil
}

// ListDetails returns the published exams joined with course and instructor
// names, chronologically ordered.
func (r *ExamRepository) ListDetails(ctx context.Context) ([]models.ExamDetail, error) {
	const query = `SELECT e.id, e.course_id, e.start_at, e.end_at, e.weekday, e.created_at,
        c.name AS course_name, i.full_name AS instructor_name, c.student_count
        FROM exams e
        JOIN courses c ON c.id = e.course_id
        JOIN instructors i ON i.id = c.instructor_id
        ORDER BY e.start_at, e.course_id`
	var details []models.ExamDetail
	if err := r.db.SelectContext(ctx, &details, query); err != nil {
		return nil, fmt.Errorf("list exam details: %w", err)
	}
	return details, nil
}

// ListSeats returns all room assignments of the published plan.
func (r *ExamRepository) ListSeats(ctx context.Context) ([]models.ExamRoomAssignment, error) {
	const query = `SELECT exam_id, classroom_id, assigned_capacity FROM exam_room_assignments ORDER BY exam_id, classroom_id`
	var seats []models.ExamRoomAssignment
	if err := r.db.SelectContext(ctx, &seats, query); err != nil {
		return nil, fmt.Errorf("list room assignments: %w", err)
	}
	return seats, nil
}
