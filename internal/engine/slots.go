package engine

import (
	"sort"
	"time"
)

// Default solver settings applied by Config.normalized.
const (
	DefaultSlotStep   = 30 * time.Minute
	DefaultNodeBudget = 200000
)

// Config carries one run's scheduling parameters. It is a plain value passed
// into Run; concurrent runs with different configurations are safe.
type Config struct {
	// Dates lists the exam-period days, normalized to midnight.
	Dates []time.Time
	// DayStart and DayEnd bound the daily working window as offsets from
	// midnight, e.g. 9h and 18h.
	DayStart time.Duration
	DayEnd   time.Duration
	// SlotStep is the candidate start-time granularity.
	SlotStep time.Duration
	// NodeBudget bounds the number of candidate trials before the search
	// gives up with its best partial assignment.
	NodeBudget int
	// Workers > 1 fans the first decision level out to a fixed worker pool.
	Workers int
}

func (c Config) normalized() Config {
	if c.SlotStep <= 0 {
		c.SlotStep = DefaultSlotStep
	}
	if c.NodeBudget <= 0 {
		c.NodeBudget = DefaultNodeBudget
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	dates := make([]time.Time, len(c.Dates))
	for i, d := range c.Dates {
		dates[i] = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
	}
	sortTimes(dates)
	c.Dates = dates
	return c
}

// Slot is one candidate exam interval. Intervals are half-open: [Start, End).
type Slot struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals intersect.
func (s Slot) Overlaps(o Slot) bool {
	return s.Start.Before(o.End) && o.Start.Before(s.End)
}

// Weekday maps the slot's date to the 0=Monday .. 6=Sunday scheme used by
// instructor availability.
func (s Slot) Weekday() int {
	return weekdayIndex(s.Start)
}

func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// SlotCatalog holds the per-course candidate slots, generated once per run.
type SlotCatalog struct {
	byCourse map[string][]Slot
}

// BuildSlotCatalog enumerates, for every course, the chronological list of
// slots whose interval fits the working window and whose weekday is available
// for the course's instructor. A course whose instructor has no available
// weekday in the period ends up with an empty list.
func BuildSlotCatalog(snap *Snapshot, cfg Config) *SlotCatalog {
	availability := snap.availableWeekdays()

	catalog := &SlotCatalog{byCourse: make(map[string][]Slot, len(snap.Courses))}
	for _, course := range snap.Courses {
		duration := time.Duration(course.DurationMin) * time.Minute
		days, known := availability[course.InstructorID]

		var candidates []Slot
		for _, date := range cfg.Dates {
			if !known || !days[weekdayIndex(date)] {
				continue
			}
			for offset := cfg.DayStart; offset+duration <= cfg.DayEnd; offset += cfg.SlotStep {
				start := date.Add(offset)
				candidates = append(candidates, Slot{Start: start, End: start.Add(duration)})
			}
		}
		catalog.byCourse[course.ID] = candidates
	}
	return catalog
}

// Candidates returns the cached candidate list for a course.
func (c *SlotCatalog) Candidates(courseID string) []Slot {
	return c.byCourse[courseID]
}

func sortTimes(ts []time.Time) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
}
