package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-exam-api/internal/models"
)

type importStub struct {
	courses      []models.Course
	instructors  []models.Instructor
	availability map[string][]models.InstructorAvailability
	classrooms   []models.Classroom
	proximity    []models.ClassroomProximity
	students     []models.Student
	enrollments  []models.Enrollment
}

func (s *importStub) Create(ctx context.Context, course *models.Course) error {
	s.courses = append(s.courses, *course)
	return nil
}

type instructorImportStub struct{ importStub }

func (s *instructorImportStub) Create(ctx context.Context, instructor *models.Instructor) error {
	s.instructors = append(s.instructors, *instructor)
	return nil
}

func (s *instructorImportStub) ReplaceAvailability(ctx context.Context, instructorID string, records []models.InstructorAvailability) error {
	if s.availability == nil {
		s.availability = make(map[string][]models.InstructorAvailability)
	}
	s.availability[instructorID] = records
	return nil
}

type classroomImportStub struct{ importStub }

func (s *classroomImportStub) Create(ctx context.Context, room *models.Classroom) error {
	s.classrooms = append(s.classrooms, *room)
	return nil
}

func (s *classroomImportStub) UpsertProximity(ctx context.Context, edge models.ClassroomProximity) error {
	s.proximity = append(s.proximity, edge)
	return nil
}

type studentImportStub struct{ importStub }

func (s *studentImportStub) Create(ctx context.Context, student *models.Student) error {
	s.students = append(s.students, *student)
	return nil
}

func (s *studentImportStub) Enroll(ctx context.Context, courseID, studentID string) error {
	s.enrollments = append(s.enrollments, models.Enrollment{CourseID: courseID, StudentID: studentID})
	return nil
}

func newTestImportService() (*ImportService, *importStub, *instructorImportStub, *classroomImportStub, *studentImportStub) {
	courses := &importStub{}
	instructors := &instructorImportStub{}
	classrooms := &classroomImportStub{}
	students := &studentImportStub{}
	svc := NewImportService(courses, instructors, classrooms, students, nil)
	return svc, courses, instructors, classrooms, students
}

func TestImportServiceCourses(t *testing.T) {
	svc, courses, _, _, _ := newTestImportService()

	csv := strings.Join([]string{
		"id,department_id,faculty_id,instructor_id,name,student_count,duration_min,exam_type",
		"crs-1,dept-1,fac-1,inst-1,Algorithms,120,90,final",
		"crs-2,dept-1,fac-1,inst-2,Databases,80,45,final",
		"crs-3,dept-1,fac-1,,Orphan Course,10,60,final",
	}, "\n")

	summary, err := svc.ImportCourses(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Rows)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 2, summary.Skipped)
	require.Len(t, summary.Problems, 2)
	assert.Contains(t, summary.Problems[0], "unsupported duration 45")
	require.Len(t, courses.courses, 1)
	assert.Equal(t, "Algorithms", courses.courses[0].Name)
}

func TestImportServiceAvailabilityGroupsPerInstructor(t *testing.T) {
	svc, _, instructors, _, _ := newTestImportService()

	csv := strings.Join([]string{
		"instructor_id,weekday,available",
		"inst-1,0,true",
		"inst-1,4,false",
		"inst-2,2,true",
		"inst-2,9,true",
	}, "\n")

	summary, err := svc.ImportAvailability(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Created)
	assert.Equal(t, 1, summary.Skipped)
	require.Len(t, instructors.availability["inst-1"], 2)
	require.Len(t, instructors.availability["inst-2"], 1)
	assert.False(t, instructors.availability["inst-1"][1].Available)
}

func TestImportServiceProximityRejectsSelfEdges(t *testing.T) {
	svc, _, _, classrooms, _ := newTestImportService()

	csv := strings.Join([]string{
		"from_classroom_id,to_classroom_id,distance_score",
		"room-a,room-b,2",
		"room-a,room-a,0",
	}, "\n")

	summary, err := svc.ImportProximity(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, summary.Skipped)
	require.Len(t, classrooms.proximity, 1)
	assert.Equal(t, "room-b", classrooms.proximity[0].ToClassroomID)
}

func TestImportServiceEnrollments(t *testing.T) {
	svc, _, _, _, students := newTestImportService()

	csv := strings.Join([]string{
		"course_id,student_id",
		"crs-1,stu-1",
		"crs-1,stu-2",
		",stu-3",
	}, "\n")

	summary, err := svc.ImportEnrollments(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, 1, summary.Skipped)
	require.Len(t, students.enrollments, 2)
}

func TestImportServiceMalformedCSV(t *testing.T) {
	svc, _, _, _, _ := newTestImportService()

	_, err := svc.ImportCourses(context.Background(), strings.NewReader("not,a\nvalid\"csv"))
	require.Error(t, err)
}
