package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slotAt(day time.Time, hour, durMin int) Slot {
	start := day.Add(time.Duration(hour) * time.Hour)
	return Slot{Start: start, End: start.Add(time.Duration(durMin) * time.Minute)}
}

func graphWithEdges(edges ...[2]string) *ConflictGraph {
	g := &ConflictGraph{adjacency: make(map[string]map[string]struct{})}
	for _, e := range edges {
		g.addEdge(e[0], e[1])
	}
	return g
}

func TestSolveTimetableBacktracksOutOfDeadEnd(t *testing.T) {
	// crs-b conflicts with both others and gets expanded first. Its
	// chronologically first slot starves crs-a, which owns only that slot,
	// so the search must revisit the crs-b decision.
	s1 := slotAt(monday(), 9, 60)
	s2 := slotAt(monday(), 10, 60)

	graph := graphWithEdges([2]string{"crs-b", "crs-a"}, [2]string{"crs-b", "crs-c"})
	catalog := &SlotCatalog{byCourse: map[string][]Slot{
		"crs-a": {s1},
		"crs-b": {s1, s2},
		"crs-c": {s1, s2},
	}}

	result := SolveTimetable(context.Background(), graph, catalog, []string{"crs-a", "crs-b", "crs-c"}, Config{})

	require.Empty(t, result.Unplaced)
	assert.Equal(t, s1, result.Assigned["crs-a"])
	assert.Equal(t, s2, result.Assigned["crs-b"])
	assert.Equal(t, s1, result.Assigned["crs-c"])
	assert.False(t, result.BudgetExhausted)
}

func TestSolveTimetableInfeasibleCliqueLeavesOneUnplaced(t *testing.T) {
	s1 := slotAt(monday(), 9, 60)
	s2 := slotAt(monday(), 10, 60)

	graph := graphWithEdges(
		[2]string{"crs-a", "crs-b"},
		[2]string{"crs-b", "crs-c"},
		[2]string{"crs-a", "crs-c"},
	)
	catalog := &SlotCatalog{byCourse: map[string][]Slot{
		"crs-a": {s1, s2},
		"crs-b": {s1, s2},
		"crs-c": {s1, s2},
	}}

	result := SolveTimetable(context.Background(), graph, catalog, []string{"crs-a", "crs-b", "crs-c"}, Config{})

	assert.Len(t, result.Assigned, 2)
	assert.Len(t, result.Unplaced, 1)
	assert.False(t, result.BudgetExhausted, "exhausting the search space is not a budget overrun")
}

func TestSolveTimetableRespectsNodeBudget(t *testing.T) {
	s1 := slotAt(monday(), 9, 60)
	s2 := slotAt(monday(), 10, 60)

	graph := graphWithEdges([2]string{"crs-b", "crs-a"}, [2]string{"crs-b", "crs-c"})
	catalog := &SlotCatalog{byCourse: map[string][]Slot{
		"crs-a": {s1},
		"crs-b": {s1, s2},
		"crs-c": {s1, s2},
	}}

	result := SolveTimetable(context.Background(), graph, catalog, []string{"crs-a", "crs-b", "crs-c"}, Config{NodeBudget: 1})

	assert.True(t, result.BudgetExhausted)
	assert.Len(t, result.Assigned, 1, "the best partial assignment survives")
	assert.Len(t, result.Unplaced, 2)
	assert.Equal(t, 1, result.Nodes)
}

func TestSolveTimetableStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s1 := slotAt(monday(), 9, 60)
	graph := graphWithEdges([2]string{"crs-a", "crs-b"})
	catalog := &SlotCatalog{byCourse: map[string][]Slot{
		"crs-a": {s1},
		"crs-b": {s1},
	}}

	result := SolveTimetable(ctx, graph, catalog, []string{"crs-a", "crs-b"}, Config{})

	assert.True(t, result.BudgetExhausted)
	assert.Empty(t, result.Assigned)
}

func TestSolveTimetableParallelPicksEarliestRootCandidate(t *testing.T) {
	// Every worker finds a complete solution from its own root branch; the
	// chronologically first root candidate must win regardless of timing.
	s1 := slotAt(monday(), 9, 60)
	s2 := slotAt(monday(), 10, 60)
	s3 := slotAt(monday(), 11, 60)

	graph := graphWithEdges([2]string{"crs-a", "crs-b"})
	catalog := &SlotCatalog{byCourse: map[string][]Slot{
		"crs-a": {s1, s2, s3},
		"crs-b": {s1, s2, s3},
	}}

	for i := 0; i < 20; i++ {
		result := SolveTimetable(context.Background(), graph, catalog, []string{"crs-a", "crs-b"}, Config{Workers: 3})
		require.Empty(t, result.Unplaced)
		assert.Equal(t, s1, result.Assigned["crs-a"])
		assert.Equal(t, s2, result.Assigned["crs-b"])
	}
}

func TestSolveTimetableEmptyInput(t *testing.T) {
	graph := graphWithEdges()
	catalog := &SlotCatalog{byCourse: map[string][]Slot{}}

	result := SolveTimetable(context.Background(), graph, catalog, nil, Config{})

	assert.Empty(t, result.Assigned)
	assert.Empty(t, result.Unplaced)
}
