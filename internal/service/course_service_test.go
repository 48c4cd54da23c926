package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-exam-api/internal/dto"
	"github.com/noah-isme/uni-exam-api/internal/models"
	appErrors "github.com/noah-isme/uni-exam-api/pkg/errors"
)

type courseRepoStub struct {
	courses map[string]*models.Course
	created *models.Course
	deleted string
}

func newCourseRepoStub() *courseRepoStub {
	return &courseRepoStub{courses: make(map[string]*models.Course)}
}

func (s *courseRepoStub) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	out := make([]models.Course, 0, len(s.courses))
	for _, course := range s.courses {
		out = append(out, *course)
	}
	return out, len(out), nil
}

func (s *courseRepoStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	course, ok := s.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *course
	return &clone, nil
}

func (s *courseRepoStub) Create(ctx context.Context, course *models.Course) error {
	course.ID = "crs-new"
	s.created = course
	s.courses[course.ID] = course
	return nil
}

func (s *courseRepoStub) Update(ctx context.Context, course *models.Course) error {
	s.courses[course.ID] = course
	return nil
}

func (s *courseRepoStub) Delete(ctx context.Context, id string) error {
	s.deleted = id
	delete(s.courses, id)
	return nil
}

func validCourseRequest() dto.CreateCourseRequest {
	return dto.CreateCourseRequest{
		DepartmentID: "dept-1",
		FacultyID:    "fac-1",
		InstructorID: "ins-1",
		Name:         "Algorithms",
		StudentCount: 40,
		DurationMin:  60,
		ExamType:     "final",
	}
}

func TestCourseServiceCreate(t *testing.T) {
	repo := newCourseRepoStub()
	svc := NewCourseService(repo, nil, nil)

	course, err := svc.Create(context.Background(), validCourseRequest())
	require.NoError(t, err)
	require.Equal(t, "crs-new", course.ID)
	require.Equal(t, "Algorithms", repo.created.Name)
}

func TestCourseServiceCreateRejectsBadDuration(t *testing.T) {
	svc := NewCourseService(newCourseRepoStub(), nil, nil)

	req := validCourseRequest()
	req.DurationMin = 45

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceUpdateNotFound(t *testing.T) {
	svc := NewCourseService(newCourseRepoStub(), nil, nil)

	_, err := svc.Update(context.Background(), "missing", validCourseRequest())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceDelete(t *testing.T) {
	repo := newCourseRepoStub()
	repo.courses["crs-1"] = &models.Course{ID: "crs-1", Name: "Databases"}
	svc := NewCourseService(repo, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "crs-1"))
	require.Equal(t, "crs-1", repo.deleted)

	err := svc.Delete(context.Background(), "crs-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
