package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-exam-api/internal/models"
)

// Monday of an arbitrary exam week.
func monday() time.Time {
	return time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
}

func testConfig(dates []time.Time, startHour, endHour, stepMinutes int) Config {
	return Config{
		Dates:    dates,
		DayStart: time.Duration(startHour) * time.Hour,
		DayEnd:   time.Duration(endHour) * time.Hour,
		SlotStep: time.Duration(stepMinutes) * time.Minute,
	}
}

func availableOn(instructorID string, weekdays ...int) []models.InstructorAvailability {
	records := make([]models.InstructorAvailability, 0, len(weekdays))
	for _, day := range weekdays {
		records = append(records, models.InstructorAvailability{InstructorID: instructorID, Weekday: day, Available: true})
	}
	return records
}

func blockedAllWeek(instructorID string) []models.InstructorAvailability {
	records := make([]models.InstructorAvailability, 0, 7)
	for day := 0; day < 7; day++ {
		records = append(records, models.InstructorAvailability{InstructorID: instructorID, Weekday: day, Available: false})
	}
	return records
}

func course(id, instructorID string, students, durationMin int) models.Course {
	return models.Course{
		ID:           id,
		DepartmentID: "dept-1",
		FacultyID:    "fac-1",
		InstructorID: instructorID,
		Name:         id,
		StudentCount: students,
		DurationMin:  durationMin,
		ExamType:     "final",
	}
}

func room(id string, capacity int) models.Classroom {
	return models.Classroom{ID: id, Name: id, Capacity: capacity, ExamEligible: true}
}

func TestRunSharedInstructorSequentialPlacement(t *testing.T) {
	// Two courses with the same instructor, one available weekday, and a
	// window just long enough for both exams back to back.
	snap := &Snapshot{
		Instructors:  []models.Instructor{{ID: "inst-1", FullName: "A. Hoca"}},
		Availability: availableOn("inst-1", 0),
		Courses: []models.Course{
			course("crs-a", "inst-1", 20, 60),
			course("crs-b", "inst-1", 20, 60),
		},
		Classrooms: []models.Classroom{room("room-1", 40), room("room-2", 40)},
	}
	cfg := testConfig([]time.Time{monday()}, 9, 11, 30)

	result, err := Run(context.Background(), snap, cfg)
	require.NoError(t, err)
	require.Empty(t, result.Failures)
	require.Len(t, result.Exams, 2)

	first, second := result.Exams[0], result.Exams[1]
	assert.Equal(t, 0, first.Weekday)
	assert.Equal(t, 0, second.Weekday)
	overlap := first.StartAt.Before(second.EndAt) && second.StartAt.Before(first.EndAt)
	assert.False(t, overlap, "same-instructor exams must not overlap")
}

func TestRunCliqueWithTwoSlotsReportsOneUnsatisfiable(t *testing.T) {
	// Three courses pairwise sharing a student but only two distinct slots.
	snap := &Snapshot{
		Instructors: []models.Instructor{
			{ID: "inst-1"}, {ID: "inst-2"}, {ID: "inst-3"},
		},
		Courses: []models.Course{
			course("crs-a", "inst-1", 10, 60),
			course("crs-b", "inst-2", 10, 60),
			course("crs-c", "inst-3", 10, 60),
		},
		Students: []models.Student{{ID: "stu-1"}, {ID: "stu-2"}, {ID: "stu-3"}},
		Enrollments: []models.Enrollment{
			{CourseID: "crs-a", StudentID: "stu-1"},
			{CourseID: "crs-b", StudentID: "stu-1"},
			{CourseID: "crs-b", StudentID: "stu-2"},
			{CourseID: "crs-c", StudentID: "stu-2"},
			{CourseID: "crs-a", StudentID: "stu-3"},
			{CourseID: "crs-c", StudentID: "stu-3"},
		},
		Classrooms: []models.Classroom{room("room-1", 30), room("room-2", 30)},
	}
	cfg := testConfig([]time.Time{monday()}, 9, 11, 60)

	result, err := Run(context.Background(), snap, cfg)
	require.NoError(t, err)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, FailureUnsatisfiable, result.Failures[0].Reason)
	require.Len(t, result.Exams, 2)
	assert.False(t, result.Exams[0].StartAt.Equal(result.Exams[1].StartAt), "the two placed exams use the two distinct slots")
}

func TestRunInstructorWithoutAvailableWeekdayFailsBeforeSearch(t *testing.T) {
	snap := &Snapshot{
		Instructors:  []models.Instructor{{ID: "inst-1"}},
		Availability: blockedAllWeek("inst-1"),
		Courses:      []models.Course{course("crs-a", "inst-1", 10, 60)},
		Classrooms:   []models.Classroom{room("room-1", 30)},
	}
	cfg := testConfig([]time.Time{monday()}, 9, 17, 30)

	result, err := Run(context.Background(), snap, cfg)
	require.NoError(t, err)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, FailureUnsatisfiable, result.Failures[0].Reason)
	assert.Empty(t, result.Exams)
	assert.Zero(t, result.Stats.NodesExpanded, "empty candidate lists are rejected before search")
}

func TestRunRoomCollisionReportsCapacityFailure(t *testing.T) {
	// Two non-conflicting courses forced into the same single slot with one
	// eligible room: one succeeds, the other gets a capacity failure. Room
	// assignment never reschedules.
	snap := &Snapshot{
		Instructors: []models.Instructor{{ID: "inst-1"}, {ID: "inst-2"}},
		Courses: []models.Course{
			course("crs-big", "inst-1", 60, 60),
			course("crs-small", "inst-2", 40, 60),
		},
		Classrooms: []models.Classroom{room("room-1", 100)},
	}
	cfg := testConfig([]time.Time{monday()}, 9, 10, 60)

	result, err := Run(context.Background(), snap, cfg)
	require.NoError(t, err)
	require.Len(t, result.Exams, 1)
	assert.Equal(t, "crs-big", result.Exams[0].CourseID, "largest enrollment claims the room first")
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "crs-small", result.Failures[0].CourseID)
	assert.Equal(t, FailureCapacity, result.Failures[0].Reason)
}

func TestRunInvalidSnapshotAborts(t *testing.T) {
	snap := &Snapshot{
		Instructors: []models.Instructor{{ID: "inst-1"}},
		Courses:     []models.Course{course("crs-a", "inst-1", 10, 60)},
		Enrollments: []models.Enrollment{{CourseID: "crs-missing", StudentID: "stu-missing"}},
		Classrooms:  []models.Classroom{room("room-1", 30)},
	}
	cfg := testConfig([]time.Time{monday()}, 9, 17, 30)

	_, err := Run(context.Background(), snap, cfg)
	require.Error(t, err)
	var invalid *InvalidSnapshotError
	require.ErrorAs(t, err, &invalid)
	assert.NotEmpty(t, invalid.Problems)
}

func TestRunIsDeterministic(t *testing.T) {
	snap := &Snapshot{
		Instructors: []models.Instructor{{ID: "inst-1"}, {ID: "inst-2"}, {ID: "inst-3"}},
		Courses: []models.Course{
			course("crs-a", "inst-1", 35, 60),
			course("crs-b", "inst-2", 45, 90),
			course("crs-c", "inst-3", 25, 60),
			course("crs-d", "inst-1", 55, 120),
			course("crs-e", "inst-2", 15, 30),
		},
		Students: []models.Student{{ID: "stu-1"}, {ID: "stu-2"}},
		Enrollments: []models.Enrollment{
			{CourseID: "crs-a", StudentID: "stu-1"},
			{CourseID: "crs-c", StudentID: "stu-1"},
			{CourseID: "crs-b", StudentID: "stu-2"},
			{CourseID: "crs-d", StudentID: "stu-2"},
		},
		Classrooms: []models.Classroom{room("room-1", 60), room("room-2", 40), room("room-3", 30)},
		Proximity: []models.ClassroomProximity{
			{FromClassroomID: "room-1", ToClassroomID: "room-2", DistanceScore: 1},
			{FromClassroomID: "room-2", ToClassroomID: "room-3", DistanceScore: 4},
		},
	}
	cfg := testConfig([]time.Time{monday(), monday().AddDate(0, 0, 1)}, 9, 17, 30)

	first, err := Run(context.Background(), snap, cfg)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := Run(context.Background(), snap, cfg)
		require.NoError(t, err)
		assert.Equal(t, first.Exams, again.Exams)
		assert.Equal(t, first.RoomAssignments, again.RoomAssignments)
		assert.Equal(t, first.Failures, again.Failures)
	}
}

func TestRunParallelWorkersMatchSequential(t *testing.T) {
	snap := &Snapshot{
		Instructors: []models.Instructor{{ID: "inst-1"}, {ID: "inst-2"}},
		Courses: []models.Course{
			course("crs-a", "inst-1", 20, 60),
			course("crs-b", "inst-1", 20, 60),
			course("crs-c", "inst-2", 20, 90),
			course("crs-d", "inst-2", 20, 30),
		},
		Classrooms: []models.Classroom{room("room-1", 40), room("room-2", 40)},
	}
	dates := []time.Time{monday(), monday().AddDate(0, 0, 1)}

	sequential := testConfig(dates, 9, 17, 30)
	parallel := sequential
	parallel.Workers = 4

	seqResult, err := Run(context.Background(), snap, sequential)
	require.NoError(t, err)
	parResult, err := Run(context.Background(), snap, parallel)
	require.NoError(t, err)

	assert.Equal(t, seqResult.Exams, parResult.Exams)
	assert.Equal(t, seqResult.RoomAssignments, parResult.RoomAssignments)
}
