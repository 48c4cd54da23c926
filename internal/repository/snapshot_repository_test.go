package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRepositoryLoad(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSnapshotRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, name, created_at FROM faculties").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}).AddRow("fac-1", "Engineering", now))
	mock.ExpectQuery("SELECT id, faculty_id, name, code, created_at FROM departments").
		WillReturnRows(sqlmock.NewRows([]string{"id", "faculty_id", "name", "code", "created_at"}).AddRow("dept-1", "fac-1", "Computer Eng.", "CENG", now))
	mock.ExpectQuery("SELECT id, full_name, email, created_at, updated_at FROM instructors").
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "created_at", "updated_at"}).AddRow("inst-1", "A. Hoca", "a@uni.edu", now, now))
	mock.ExpectQuery("SELECT instructor_id, weekday, available FROM instructor_availability").
		WillReturnRows(sqlmock.NewRows([]string{"instructor_id", "weekday", "available"}).AddRow("inst-1", 0, true))
	mock.ExpectQuery("SELECT id, department_id, faculty_id, instructor_id, name").
		WillReturnRows(sqlmock.NewRows([]string{"id", "department_id", "faculty_id", "instructor_id", "name", "student_count", "duration_min", "exam_type", "notes", "created_at", "updated_at"}).
			AddRow("crs-1", "dept-1", "fac-1", "inst-1", "Algorithms", 120, 90, "final", nil, now, now))
	mock.ExpectQuery("SELECT id, student_no, full_name, department_id, faculty_id, created_at FROM students").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_no", "full_name", "department_id", "faculty_id", "created_at"}).AddRow("stu-1", "20260001", "B. Ogrenci", "dept-1", "fac-1", now))
	mock.ExpectQuery("SELECT course_id, student_id, created_at FROM enrollments").
		WillReturnRows(sqlmock.NewRows([]string{"course_id", "student_id", "created_at"}).AddRow("crs-1", "stu-1", now))
	mock.ExpectQuery("SELECT id, name, capacity, exam_eligible, created_at, updated_at FROM classrooms").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "capacity", "exam_eligible", "created_at", "updated_at"}).AddRow("room-1", "B-101", 80, true, now, now))
	mock.ExpectQuery("SELECT from_classroom_id, to_classroom_id, distance_score FROM classroom_proximity").
		WillReturnRows(sqlmock.NewRows([]string{"from_classroom_id", "to_classroom_id", "distance_score"}).AddRow("room-1", "room-1", 0))

	snap, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Faculties, 1)
	require.Len(t, snap.Courses, 1)
	require.Equal(t, "inst-1", snap.Courses[0].InstructorID)
	require.Len(t, snap.Enrollments, 1)
	require.Len(t, snap.Classrooms, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepositoryEnrollmentCounts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSnapshotRepository(db)

	mock.ExpectQuery("SELECT course_id, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"course_id", "count"}).AddRow("crs-1", 120).AddRow("crs-2", 45))

	counts, err := repo.EnrollmentCounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, 120, counts["crs-1"])
	require.Equal(t, 45, counts["crs-2"])
	require.NoError(t, mock.ExpectationsWereMet())
}
