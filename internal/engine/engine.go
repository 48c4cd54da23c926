package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/uni-exam-api/internal/models"
)

// FailureReason classifies why a course could not be scheduled.
type FailureReason string

const (
	FailureUnsatisfiable  FailureReason = "UNSATISFIABLE_COURSE"
	FailureCapacity       FailureReason = "CAPACITY_EXCEEDED"
	FailureBudgetExceeded FailureReason = "SEARCH_BUDGET_EXCEEDED"
)

// CourseFailure is a per-course scheduling failure. Failures are collected,
// never raised one by one: the engine always returns the best-effort schedule
// for the courses it could place.
type CourseFailure struct {
	CourseID string        `json:"course_id"`
	Reason   FailureReason `json:"reason"`
	Message  string        `json:"message"`
}

// Stats summarises one run.
type Stats struct {
	CoursesTotal  int           `json:"courses_total"`
	Placed        int           `json:"placed"`
	Unplaced      int           `json:"unplaced"`
	NodesExpanded int           `json:"nodes_expanded"`
	Elapsed       time.Duration `json:"elapsed"`
}

// Result is the outcome of a scheduling run: exam rows for every placed
// course, their room assignments, and the collected per-course failures.
type Result struct {
	Exams           []models.Exam
	RoomAssignments []models.ExamRoomAssignment
	Failures        []CourseFailure
	BudgetExhausted bool
	Stats           Stats
}

// Run executes the full pipeline: snapshot validation, conflict graph, slot
// catalog, timetable search, room assignment, and the final invariant gate.
// An invalid snapshot aborts with an error; violations found on the produced
// schedule also abort, since they indicate a solver defect rather than bad
// input. Everything else is reported through Result.Failures.
func Run(ctx context.Context, snap *Snapshot, cfg Config) (*Result, error) {
	started := time.Now()
	cfg = cfg.normalized()

	if err := snap.Validate(); err != nil {
		return nil, err
	}

	graph := BuildConflictGraph(snap)
	catalog := BuildSlotCatalog(snap, cfg)

	result := &Result{}

	schedulable := make([]string, 0, len(snap.Courses))
	for _, course := range snap.Courses {
		if len(catalog.Candidates(course.ID)) == 0 {
			result.Failures = append(result.Failures, CourseFailure{
				CourseID: course.ID,
				Reason:   FailureUnsatisfiable,
				Message:  "no candidate slot: instructor has no available weekday in the exam period",
			})
			continue
		}
		schedulable = append(schedulable, course.ID)
	}

	timetable := SolveTimetable(ctx, graph, catalog, schedulable, cfg)
	result.BudgetExhausted = timetable.BudgetExhausted
	result.Stats.NodesExpanded = timetable.Nodes

	for _, courseID := range timetable.Unplaced {
		reason := FailureUnsatisfiable
		message := "no conflict-free slot within the candidate list"
		if timetable.BudgetExhausted {
			reason = FailureBudgetExceeded
			message = "search budget exhausted before the course could be placed"
		}
		result.Failures = append(result.Failures, CourseFailure{CourseID: courseID, Reason: reason, Message: message})
	}

	plan := AssignRooms(snap, timetable.Assigned)
	for _, courseID := range plan.CapacityFailures {
		result.Failures = append(result.Failures, CourseFailure{
			CourseID: courseID,
			Reason:   FailureCapacity,
			Message:  "no combination of available exam-eligible classrooms covers enrollment in the assigned slot",
		})
	}

	placed := make([]string, 0, len(plan.Seats))
	for courseID := range plan.Seats {
		placed = append(placed, courseID)
	}
	sort.Strings(placed)

	for _, courseID := range placed {
		slot := timetable.Assigned[courseID]
		exam := models.Exam{
			ID:       deterministicExamID(courseID),
			CourseID: courseID,
			StartAt:  slot.Start,
			EndAt:    slot.End,
			Weekday:  slot.Weekday(),
		}
		result.Exams = append(result.Exams, exam)
		result.RoomAssignments = append(result.RoomAssignments, seatModels(exam.ID, plan.Seats[courseID])...)
	}

	if violations := ValidateSchedule(snap, result.Exams, result.RoomAssignments); len(violations) > 0 {
		first := violations[0]
		return nil, fmt.Errorf("solver produced an invalid schedule: %s %s: %s (%d violations)",
			first.Rule, first.EntityID, first.Message, len(violations))
	}

	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].CourseID < result.Failures[j].CourseID
	})

	result.Stats.CoursesTotal = len(snap.Courses)
	result.Stats.Placed = len(result.Exams)
	result.Stats.Unplaced = len(snap.Courses) - len(result.Exams)
	result.Stats.Elapsed = time.Since(started)

	return result, nil
}

// deterministicExamID derives a stable UUID from the course, so re-running an
// unchanged snapshot emits byte-identical exam rows.
func deterministicExamID(courseID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("exam/"+courseID)).String()
}
