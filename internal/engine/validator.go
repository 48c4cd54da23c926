package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/uni-exam-api/internal/models"
)

// Violation is one broken scheduling invariant, identified by rule and the
// entity that breaks it.
type Violation struct {
	Rule     string
	EntityID string
	Message  string
}

// Validation rule identifiers.
const (
	RuleDuplicateExam     = "DUPLICATE_EXAM"
	RuleUnknownCourse     = "UNKNOWN_COURSE"
	RuleDurationMismatch  = "DURATION_MISMATCH"
	RuleInstructorOverlap = "INSTRUCTOR_OVERLAP"
	RuleStudentOverlap    = "STUDENT_OVERLAP"
	RuleRoomOverlap       = "ROOM_OVERLAP"
	RuleRoomEligibility   = "ROOM_NOT_ELIGIBLE"
	RuleRoomCapacity      = "ROOM_CAPACITY"
	RuleSeatCoverage      = "SEAT_COVERAGE"
	RuleWeekdayMismatch   = "WEEKDAY_MISMATCH"
)

// ValidateSchedule re-derives every hard invariant over a completed or
// partial schedule. It is pure, used as the post-solve correctness gate and
// by tests against hand-built schedules. The violation list is ordered by
// rule then entity so output is stable.
func ValidateSchedule(snap *Snapshot, exams []models.Exam, seats []models.ExamRoomAssignment) []Violation {
	var violations []Violation
	add := func(rule, entityID, format string, args ...interface{}) {
		violations = append(violations, Violation{Rule: rule, EntityID: entityID, Message: fmt.Sprintf(format, args...)})
	}

	courses := snap.courseByID()
	roomsByID := make(map[string]models.Classroom, len(snap.Classrooms))
	for _, r := range snap.Classrooms {
		roomsByID[r.ID] = r
	}

	examsByCourse := make(map[string]int)
	for _, exam := range exams {
		examsByCourse[exam.CourseID]++
	}
	for courseID, count := range examsByCourse {
		if count > 1 {
			add(RuleDuplicateExam, courseID, "course has %d exams, expected exactly one", count)
		}
	}

	for _, exam := range exams {
		course, ok := courses[exam.CourseID]
		if !ok {
			add(RuleUnknownCourse, exam.CourseID, "exam references a course missing from the snapshot")
			continue
		}
		want := time.Duration(course.DurationMin) * time.Minute
		if exam.EndAt.Sub(exam.StartAt) != want {
			add(RuleDurationMismatch, exam.CourseID, "exam spans %s, course duration is %s", exam.EndAt.Sub(exam.StartAt), want)
		}
		if exam.Weekday != weekdayIndex(exam.StartAt) {
			add(RuleWeekdayMismatch, exam.CourseID, "exam records weekday %d, start date maps to %d", exam.Weekday, weekdayIndex(exam.StartAt))
		}
	}

	intervalByCourse := make(map[string]Slot, len(exams))
	examByID := make(map[string]models.Exam, len(exams))
	for _, exam := range exams {
		intervalByCourse[exam.CourseID] = Slot{Start: exam.StartAt, End: exam.EndAt}
		examByID[exam.ID] = exam
	}

	checkOverlapGroup := func(rule, ownerID string, courseIDs []string) {
		for i := 0; i < len(courseIDs); i++ {
			a, okA := intervalByCourse[courseIDs[i]]
			if !okA {
				continue
			}
			for j := i + 1; j < len(courseIDs); j++ {
				b, okB := intervalByCourse[courseIDs[j]]
				if okB && a.Overlaps(b) {
					add(rule, ownerID, "courses %s and %s overlap in time", courseIDs[i], courseIDs[j])
				}
			}
		}
	}

	coursesByInstructor := make(map[string][]string)
	for _, c := range snap.Courses {
		coursesByInstructor[c.InstructorID] = append(coursesByInstructor[c.InstructorID], c.ID)
	}
	for instructorID, courseIDs := range coursesByInstructor {
		sort.Strings(courseIDs)
		checkOverlapGroup(RuleInstructorOverlap, instructorID, courseIDs)
	}

	coursesByStudent := make(map[string][]string)
	for _, e := range snap.Enrollments {
		coursesByStudent[e.StudentID] = append(coursesByStudent[e.StudentID], e.CourseID)
	}
	for studentID, courseIDs := range coursesByStudent {
		sort.Strings(courseIDs)
		checkOverlapGroup(RuleStudentOverlap, studentID, courseIDs)
	}

	seatsByExam := make(map[string][]models.ExamRoomAssignment)
	coursesByRoom := make(map[string][]string)
	for _, seat := range seats {
		seatsByExam[seat.ExamID] = append(seatsByExam[seat.ExamID], seat)
		exam, ok := examByID[seat.ExamID]
		if !ok {
			continue
		}
		coursesByRoom[seat.ClassroomID] = append(coursesByRoom[seat.ClassroomID], exam.CourseID)

		room, known := roomsByID[seat.ClassroomID]
		if !known {
			add(RuleRoomEligibility, seat.ClassroomID, "seat references a classroom missing from the snapshot")
			continue
		}
		if !room.ExamEligible {
			add(RuleRoomEligibility, seat.ClassroomID, "classroom is not exam eligible")
		}
		if seat.AssignedCapacity < 0 || seat.AssignedCapacity > room.Capacity {
			add(RuleRoomCapacity, seat.ClassroomID, "assigned capacity %d outside [0, %d]", seat.AssignedCapacity, room.Capacity)
		}
	}
	for roomID, courseIDs := range coursesByRoom {
		sort.Strings(courseIDs)
		checkOverlapGroup(RuleRoomOverlap, roomID, courseIDs)
	}

	for _, exam := range exams {
		course, ok := courses[exam.CourseID]
		if !ok {
			continue
		}
		covered := 0
		for _, seat := range seatsByExam[exam.ID] {
			covered += seat.AssignedCapacity
		}
		if covered < course.StudentCount {
			add(RuleSeatCoverage, exam.CourseID, "seats cover %d of %d students", covered, course.StudentCount)
		}
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].Rule != violations[j].Rule {
			return violations[i].Rule < violations[j].Rule
		}
		if violations[i].EntityID != violations[j].EntityID {
			return violations[i].EntityID < violations[j].EntityID
		}
		return violations[i].Message < violations[j].Message
	})
	return violations
}
