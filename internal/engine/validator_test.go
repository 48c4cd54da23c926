package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-exam-api/internal/models"
)

func validatorSnapshot() *Snapshot {
	return &Snapshot{
		Instructors: []models.Instructor{{ID: "inst-1"}, {ID: "inst-2"}},
		Courses: []models.Course{
			course("crs-a", "inst-1", 30, 60),
			course("crs-b", "inst-2", 30, 60),
		},
		Students: []models.Student{{ID: "stu-1"}},
		Enrollments: []models.Enrollment{
			{CourseID: "crs-a", StudentID: "stu-1"},
			{CourseID: "crs-b", StudentID: "stu-1"},
		},
		Classrooms: []models.Classroom{room("room-a", 40), room("room-b", 40)},
	}
}

func exam(id, courseID string, start time.Time, durMin int) models.Exam {
	return models.Exam{
		ID:       id,
		CourseID: courseID,
		StartAt:  start,
		EndAt:    start.Add(time.Duration(durMin) * time.Minute),
		Weekday:  weekdayIndex(start),
	}
}

func seat(examID, roomID string, capacity int) models.ExamRoomAssignment {
	return models.ExamRoomAssignment{ExamID: examID, ClassroomID: roomID, AssignedCapacity: capacity}
}

func TestValidateScheduleCleanPlan(t *testing.T) {
	snap := validatorSnapshot()
	exams := []models.Exam{
		exam("ex-a", "crs-a", monday().Add(9*time.Hour), 60),
		exam("ex-b", "crs-b", monday().Add(10*time.Hour), 60),
	}
	seats := []models.ExamRoomAssignment{
		seat("ex-a", "room-a", 30),
		seat("ex-b", "room-a", 30),
	}

	assert.Empty(t, ValidateSchedule(snap, exams, seats))
}

func TestValidateScheduleStudentOverlap(t *testing.T) {
	snap := validatorSnapshot()
	exams := []models.Exam{
		exam("ex-a", "crs-a", monday().Add(9*time.Hour), 60),
		exam("ex-b", "crs-b", monday().Add(9*time.Hour+30*time.Minute), 60),
	}
	seats := []models.ExamRoomAssignment{
		seat("ex-a", "room-a", 30),
		seat("ex-b", "room-b", 30),
	}

	violations := ValidateSchedule(snap, exams, seats)

	require.Len(t, violations, 1)
	assert.Equal(t, RuleStudentOverlap, violations[0].Rule)
	assert.Equal(t, "stu-1", violations[0].EntityID)
}

func TestValidateScheduleInstructorOverlap(t *testing.T) {
	snap := validatorSnapshot()
	snap.Courses[1].InstructorID = "inst-1"
	snap.Enrollments = nil
	exams := []models.Exam{
		exam("ex-a", "crs-a", monday().Add(9*time.Hour), 60),
		exam("ex-b", "crs-b", monday().Add(9*time.Hour), 60),
	}
	seats := []models.ExamRoomAssignment{
		seat("ex-a", "room-a", 30),
		seat("ex-b", "room-b", 30),
	}

	violations := ValidateSchedule(snap, exams, seats)

	require.Len(t, violations, 1)
	assert.Equal(t, RuleInstructorOverlap, violations[0].Rule)
	assert.Equal(t, "inst-1", violations[0].EntityID)
}

func TestValidateScheduleRoomViolations(t *testing.T) {
	snap := validatorSnapshot()
	snap.Enrollments = nil
	exams := []models.Exam{
		exam("ex-a", "crs-a", monday().Add(9*time.Hour), 60),
		exam("ex-b", "crs-b", monday().Add(9*time.Hour), 60),
	}
	seats := []models.ExamRoomAssignment{
		seat("ex-a", "room-a", 30),
		seat("ex-b", "room-a", 30),
	}

	violations := ValidateSchedule(snap, exams, seats)

	require.Len(t, violations, 1)
	assert.Equal(t, RuleRoomOverlap, violations[0].Rule)
	assert.Equal(t, "room-a", violations[0].EntityID)
}

func TestValidateScheduleCapacityAndCoverage(t *testing.T) {
	snap := validatorSnapshot()
	snap.Enrollments = nil
	exams := []models.Exam{
		exam("ex-a", "crs-a", monday().Add(9*time.Hour), 60),
		exam("ex-b", "crs-b", monday().Add(11*time.Hour), 60),
	}
	seats := []models.ExamRoomAssignment{
		seat("ex-a", "room-a", 55), // over the room's 40
		seat("ex-b", "room-b", 10), // 20 students uncovered
	}

	violations := ValidateSchedule(snap, exams, seats)

	require.Len(t, violations, 2)
	assert.Equal(t, RuleRoomCapacity, violations[0].Rule)
	assert.Equal(t, "room-a", violations[0].EntityID)
	assert.Equal(t, RuleSeatCoverage, violations[1].Rule)
	assert.Equal(t, "crs-b", violations[1].EntityID)
}

func TestValidateScheduleStructuralRules(t *testing.T) {
	snap := validatorSnapshot()
	snap.Enrollments = nil
	snap.Classrooms = append(snap.Classrooms, models.Classroom{ID: "room-lab", Name: "room-lab", Capacity: 60, ExamEligible: false})

	badDuration := exam("ex-a", "crs-a", monday().Add(9*time.Hour), 90)
	badWeekday := exam("ex-b", "crs-b", monday().Add(11*time.Hour), 60)
	badWeekday.Weekday = 3
	orphan := exam("ex-c", "crs-missing", monday().Add(13*time.Hour), 60)

	exams := []models.Exam{badDuration, badWeekday, orphan}
	seats := []models.ExamRoomAssignment{
		seat("ex-a", "room-lab", 30),
		seat("ex-b", "room-b", 30),
	}

	violations := ValidateSchedule(snap, exams, seats)

	rules := make([]string, 0, len(violations))
	for _, v := range violations {
		rules = append(rules, v.Rule)
	}
	assert.Contains(t, rules, RuleDurationMismatch)
	assert.Contains(t, rules, RuleWeekdayMismatch)
	assert.Contains(t, rules, RuleUnknownCourse)
	assert.Contains(t, rules, RuleRoomEligibility)
	assert.NotContains(t, rules, RuleDuplicateExam)
}

func TestValidateScheduleDuplicateExam(t *testing.T) {
	snap := validatorSnapshot()
	snap.Enrollments = nil
	exams := []models.Exam{
		exam("ex-a1", "crs-a", monday().Add(9*time.Hour), 60),
		exam("ex-a2", "crs-a", monday().Add(13*time.Hour), 60),
	}

	violations := ValidateSchedule(snap, exams, nil)

	var found bool
	for _, v := range violations {
		if v.Rule == RuleDuplicateExam {
			found = true
			assert.Equal(t, "crs-a", v.EntityID)
		}
	}
	assert.True(t, found)
}
