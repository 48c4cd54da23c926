package engine

import (
	"fmt"
	"sort"

	"github.com/noah-isme/uni-exam-api/internal/models"
)

// Snapshot is the read-only view of the domain the engine works on. It is
// built once per scheduling run and never mutated by the solver.
type Snapshot struct {
	Faculties    []models.Faculty
	Departments  []models.Department
	Instructors  []models.Instructor
	Availability []models.InstructorAvailability
	Courses      []models.Course
	Students     []models.Student
	Enrollments  []models.Enrollment
	Classrooms   []models.Classroom
	Proximity    []models.ClassroomProximity
}

// InvalidSnapshotError reports structural problems detected before solving.
// The run aborts immediately; no partial result is meaningful on bad input.
type InvalidSnapshotError struct {
	Problems []string
}

func (e *InvalidSnapshotError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid snapshot: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid snapshot: %d problems, first: %s", len(e.Problems), e.Problems[0])
}

// Validate checks referential integrity and value constraints over the
// snapshot. It returns an *InvalidSnapshotError listing every problem found,
// or nil for a consistent snapshot.
func (s *Snapshot) Validate() error {
	var problems []string

	instructors := make(map[string]struct{}, len(s.Instructors))
	for _, in := range s.Instructors {
		instructors[in.ID] = struct{}{}
	}
	students := make(map[string]struct{}, len(s.Students))
	for _, st := range s.Students {
		students[st.ID] = struct{}{}
	}
	courses := make(map[string]struct{}, len(s.Courses))
	for _, c := range s.Courses {
		courses[c.ID] = struct{}{}
	}
	rooms := make(map[string]struct{}, len(s.Classrooms))
	for _, r := range s.Classrooms {
		rooms[r.ID] = struct{}{}
	}

	for _, c := range s.Courses {
		if _, ok := instructors[c.InstructorID]; !ok {
			problems = append(problems, fmt.Sprintf("course %s references missing instructor %s", c.ID, c.InstructorID))
		}
		if c.StudentCount < 0 {
			problems = append(problems, fmt.Sprintf("course %s has negative student count", c.ID))
		}
		if !models.ValidDuration(c.DurationMin) {
			problems = append(problems, fmt.Sprintf("course %s has unsupported duration %d", c.ID, c.DurationMin))
		}
	}

	for _, e := range s.Enrollments {
		if _, ok := courses[e.CourseID]; !ok {
			problems = append(problems, fmt.Sprintf("enrollment references missing course %s", e.CourseID))
		}
		if _, ok := students[e.StudentID]; !ok {
			problems = append(problems, fmt.Sprintf("enrollment references missing student %s", e.StudentID))
		}
	}

	seenAvail := make(map[string]map[int]struct{})
	for _, a := range s.Availability {
		if _, ok := instructors[a.InstructorID]; !ok {
			problems = append(problems, fmt.Sprintf("availability references missing instructor %s", a.InstructorID))
			continue
		}
		if a.Weekday < 0 || a.Weekday > 6 {
			problems = append(problems, fmt.Sprintf("availability for instructor %s has weekday %d out of range", a.InstructorID, a.Weekday))
			continue
		}
		if seenAvail[a.InstructorID] == nil {
			seenAvail[a.InstructorID] = make(map[int]struct{})
		}
		if _, dup := seenAvail[a.InstructorID][a.Weekday]; dup {
			problems = append(problems, fmt.Sprintf("instructor %s has duplicate availability record for weekday %d", a.InstructorID, a.Weekday))
		}
		seenAvail[a.InstructorID][a.Weekday] = struct{}{}
	}

	for _, r := range s.Classrooms {
		if r.Capacity <= 0 {
			problems = append(problems, fmt.Sprintf("classroom %s has non-positive capacity", r.ID))
		}
	}

	for _, p := range s.Proximity {
		if _, ok := rooms[p.FromClassroomID]; !ok {
			problems = append(problems, fmt.Sprintf("proximity edge references missing classroom %s", p.FromClassroomID))
		}
		if _, ok := rooms[p.ToClassroomID]; !ok {
			problems = append(problems, fmt.Sprintf("proximity edge references missing classroom %s", p.ToClassroomID))
		}
		if p.DistanceScore < 0 {
			problems = append(problems, fmt.Sprintf("proximity edge %s->%s has negative distance", p.FromClassroomID, p.ToClassroomID))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return &InvalidSnapshotError{Problems: problems}
}

// courseByID returns an index over snapshot courses.
func (s *Snapshot) courseByID() map[string]models.Course {
	idx := make(map[string]models.Course, len(s.Courses))
	for _, c := range s.Courses {
		idx[c.ID] = c
	}
	return idx
}

// availableWeekdays resolves the weekday availability of every instructor.
//
// Explicit records win. When an instructor lists at least one available
// weekday, unlisted weekdays default to unavailable; when the records only
// block weekdays, or no records exist at all, unlisted weekdays stay
// available.
func (s *Snapshot) availableWeekdays() map[string][7]bool {
	type marks struct {
		set     [7]bool
		value   [7]bool
		anyTrue bool
	}
	byInstructor := make(map[string]*marks)
	for _, a := range s.Availability {
		if a.Weekday < 0 || a.Weekday > 6 {
			continue
		}
		m := byInstructor[a.InstructorID]
		if m == nil {
			m = &marks{}
			byInstructor[a.InstructorID] = m
		}
		m.set[a.Weekday] = true
		m.value[a.Weekday] = a.Available
		if a.Available {
			m.anyTrue = true
		}
	}

	result := make(map[string][7]bool, len(s.Instructors))
	for _, in := range s.Instructors {
		var days [7]bool
		m := byInstructor[in.ID]
		for d := 0; d < 7; d++ {
			switch {
			case m == nil:
				days[d] = true
			case m.set[d]:
				days[d] = m.value[d]
			default:
				days[d] = !m.anyTrue
			}
		}
		result[in.ID] = days
	}
	return result
}
