package engine

// ConflictGraph is an undirected graph over course IDs. An edge forbids the
// two courses' exam intervals from overlapping in time: either a student is
// enrolled in both, or both are taught by the same instructor. The relation
// is "may not overlap", not "may not share a slot": durations vary, so the
// solver compares intervals, never slot identity.
type ConflictGraph struct {
	adjacency map[string]map[string]struct{}
}

// BuildConflictGraph derives the conflict relation from enrollments and
// instructor assignments. Pure function of the snapshot; empty inputs yield
// an empty graph.
func BuildConflictGraph(snap *Snapshot) *ConflictGraph {
	g := &ConflictGraph{adjacency: make(map[string]map[string]struct{}, len(snap.Courses))}
	for _, c := range snap.Courses {
		g.adjacency[c.ID] = make(map[string]struct{})
	}

	coursesByStudent := make(map[string][]string)
	for _, e := range snap.Enrollments {
		coursesByStudent[e.StudentID] = append(coursesByStudent[e.StudentID], e.CourseID)
	}
	for _, courseIDs := range coursesByStudent {
		g.connectAll(courseIDs)
	}

	coursesByInstructor := make(map[string][]string)
	for _, c := range snap.Courses {
		coursesByInstructor[c.InstructorID] = append(coursesByInstructor[c.InstructorID], c.ID)
	}
	for _, courseIDs := range coursesByInstructor {
		g.connectAll(courseIDs)
	}

	return g
}

func (g *ConflictGraph) connectAll(courseIDs []string) {
	for i := 0; i < len(courseIDs); i++ {
		for j := i + 1; j < len(courseIDs); j++ {
			g.addEdge(courseIDs[i], courseIDs[j])
		}
	}
}

func (g *ConflictGraph) addEdge(a, b string) {
	if a == b {
		return
	}
	if g.adjacency[a] == nil {
		g.adjacency[a] = make(map[string]struct{})
	}
	if g.adjacency[b] == nil {
		g.adjacency[b] = make(map[string]struct{})
	}
	g.adjacency[a][b] = struct{}{}
	g.adjacency[b][a] = struct{}{}
}

// Conflicts reports whether courses a and b may not overlap in time.
func (g *ConflictGraph) Conflicts(a, b string) bool {
	_, ok := g.adjacency[a][b]
	return ok
}

// Degree returns the number of conflict edges incident to a course.
func (g *ConflictGraph) Degree(courseID string) int {
	return len(g.adjacency[courseID])
}

// Neighbors returns the set of courses conflicting with the given one.
func (g *ConflictGraph) Neighbors(courseID string) map[string]struct{} {
	return g.adjacency[courseID]
}
