package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-exam-api/internal/models"
)

func TestInstructorRepositoryReplaceAvailability(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	records := []models.InstructorAvailability{
		{InstructorID: "inst-1", Weekday: 0, Available: true},
		{InstructorID: "inst-1", Weekday: 4, Available: false},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM instructor_availability WHERE instructor_id = $1")).
		WithArgs("inst-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO instructor_availability")).
		WithArgs("inst-1", 0, true).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO instructor_availability")).
		WithArgs("inst-1", 4, false).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.ReplaceAvailability(context.Background(), "inst-1", records)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInstructorRepositoryListAvailability(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	rows := sqlmock.NewRows([]string{"instructor_id", "weekday", "available"}).
		AddRow("inst-1", 0, true).
		AddRow("inst-1", 5, false)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT instructor_id, weekday, available FROM instructor_availability WHERE instructor_id = $1")).
		WithArgs("inst-1").
		WillReturnRows(rows)

	records, err := repo.ListAvailability(context.Background(), "inst-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.True(t, records[0].Available)
	require.NoError(t, mock.ExpectationsWereMet())
}
