package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-exam-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestExamRepositoryReplacePlan(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	start := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	exams := []models.Exam{{
		ID:       "ex-1",
		CourseID: "crs-1",
		StartAt:  start,
		EndAt:    start.Add(time.Hour),
		Weekday:  0,
	}}
	seats := []models.ExamRoomAssignment{{ExamID: "ex-1", ClassroomID: "room-1", AssignedCapacity: 40}}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM exam_room_assignments")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM exams")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO exams (id, course_id, start_at, end_at, weekday, created_at)")).
		WithArgs("ex-1", "crs-1", start, start.Add(time.Hour), 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO exam_room_assignments (exam_id, classroom_id, assigned_capacity)")).
		WithArgs("ex-1", "room-1", 40).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.ReplacePlan(context.Background(), exams, seats)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryReplacePlanRollsBackOnInsertFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	start := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	exams := []models.Exam{{ID: "ex-1", CourseID: "crs-1", StartAt: start, EndAt: start.Add(time.Hour)}}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM exam_room_assignments")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM exams")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO exams")).
		WillReturnError(sqlmock.ErrCancelled)
	mock.ExpectRollback()

	err := repo.ReplacePlan(context.Background(), exams, nil)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryListDetails(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	start := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "course_id", "start_at", "end_at", "weekday", "created_at", "course_name", "instructor_name", "student_count"}).
		AddRow("ex-1", "crs-1", start, start.Add(time.Hour), 0, start, "Algorithms", "A. Hoca", 120)
	mock.ExpectQuery("SELECT e.id, e.course_id, e.start_at").WillReturnRows(rows)

	details, err := repo.ListDetails(context.Background())
	require.NoError(t, err)
	require.Len(t, details, 1)
	require.Equal(t, "Algorithms", details[0].CourseName)
	require.Equal(t, 120, details[0].StudentCount)
	require.NoError(t, mock.ExpectationsWereMet())
}
