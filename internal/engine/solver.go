package engine

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
)

// TimetableResult is the outcome of the slot search: the (possibly partial)
// assignment, the courses the search could not place, and budget accounting.
type TimetableResult struct {
	Assigned        map[string]Slot
	Unplaced        []string
	Nodes           int
	BudgetExhausted bool
}

const cancelCheckStride = 256

// SolveTimetable assigns each course one slot from its candidate list such
// that no two conflicting courses' intervals overlap.
//
// The search is degree-ordered backtracking: most-constrained courses first
// (descending conflict degree, ties by ascending candidate count then course
// ID), candidates tried in chronological order, chronological backtracking on
// exhaustion. An explicit frame stack replaces native recursion so the node
// budget and context cancellation can interrupt the search at any depth.
// Given identical inputs and budget the result is identical, also when the
// first decision level is explored by parallel workers.
func SolveTimetable(ctx context.Context, graph *ConflictGraph, catalog *SlotCatalog, courseIDs []string, cfg Config) *TimetableResult {
	cfg = cfg.normalized()

	order := make([]string, len(courseIDs))
	copy(order, courseIDs)
	sort.Slice(order, func(i, j int) bool {
		di, dj := graph.Degree(order[i]), graph.Degree(order[j])
		if di != dj {
			return di > dj
		}
		ci, cj := len(catalog.Candidates(order[i])), len(catalog.Candidates(order[j]))
		if ci != cj {
			return ci < cj
		}
		return order[i] < order[j]
	})

	if len(order) == 0 {
		return &TimetableResult{Assigned: map[string]Slot{}}
	}

	workers := cfg.Workers
	rootCandidates := catalog.Candidates(order[0])
	if workers > len(rootCandidates) {
		workers = len(rootCandidates)
	}
	if workers <= 1 {
		outcome := newSearcher(ctx, graph, catalog, order, cfg.NodeBudget, nil, 0).run()
		return outcome.toResult(order)
	}

	// Parallel mode: the first course's candidates are dealt round-robin to a
	// fixed pool. Each worker owns its partial-assignment copy; the only
	// shared state is the best-outcome slot updated via compare-and-swap.
	var best atomic.Pointer[searchOutcome]
	budgetShare := cfg.NodeBudget / workers
	if budgetShare < 1 {
		budgetShare = 1
	}

	var wg sync.WaitGroup
	outcomes := make([]*searchOutcome, workers)
	for w := 0; w < workers; w++ {
		var rootIdx []int
		for i := w; i < len(rootCandidates); i += workers {
			rootIdx = append(rootIdx, i)
		}
		wg.Add(1)
		go func(worker int, roots []int) {
			defer wg.Done()
			outcome := newSearcher(ctx, graph, catalog, order, budgetShare, roots, worker).run()
			outcomes[worker] = outcome
			publishBest(&best, outcome)
		}(w, rootIdx)
	}
	wg.Wait()

	winner := best.Load()
	result := winner.toResult(order)
	result.Nodes = 0
	result.BudgetExhausted = false
	for _, o := range outcomes {
		result.Nodes += o.nodes
		if o.budgetExhausted {
			result.BudgetExhausted = true
		}
	}
	if winner.complete {
		result.BudgetExhausted = false
	}
	return result
}

// publishBest installs outcome into the shared slot unless a better one is
// already there. The ranking is a total order, so the final winner does not
// depend on publish timing.
func publishBest(best *atomic.Pointer[searchOutcome], outcome *searchOutcome) {
	for {
		current := best.Load()
		if current != nil && !outcome.betterThan(current) {
			return
		}
		if best.CompareAndSwap(current, outcome) {
			return
		}
	}
}

type searchOutcome struct {
	assigned        map[string]Slot
	complete        bool
	rootIndex       int // original index of the chosen first-course candidate
	worker          int
	nodes           int
	budgetExhausted bool
}

// betterThan ranks outcomes: complete beats partial; among complete ones the
// chronologically earliest first-course choice wins (what the sequential
// search would have found first); among partial ones more placed courses win,
// ties broken by worker index.
func (o *searchOutcome) betterThan(other *searchOutcome) bool {
	if o.complete != other.complete {
		return o.complete
	}
	if o.complete {
		return o.rootIndex < other.rootIndex
	}
	if len(o.assigned) != len(other.assigned) {
		return len(o.assigned) > len(other.assigned)
	}
	return o.worker < other.worker
}

func (o *searchOutcome) toResult(order []string) *TimetableResult {
	result := &TimetableResult{
		Assigned:        o.assigned,
		Nodes:           o.nodes,
		BudgetExhausted: o.budgetExhausted,
	}
	for _, id := range order {
		if _, ok := o.assigned[id]; !ok {
			result.Unplaced = append(result.Unplaced, id)
		}
	}
	sort.Strings(result.Unplaced)
	return result
}

type frame struct {
	course     string
	candidates []Slot
	// original catalog index per candidate, for root-branch bookkeeping.
	indices []int
	cursor  int
}

type searcher struct {
	ctx     context.Context
	graph   *ConflictGraph
	catalog *SlotCatalog
	order   []string
	budget  int
	worker  int
	// roots restricts the first course's candidate indices; nil means all.
	roots []int

	nodes   int
	stopped bool
}

func newSearcher(ctx context.Context, graph *ConflictGraph, catalog *SlotCatalog, order []string, budget int, roots []int, worker int) *searcher {
	return &searcher{
		ctx:     ctx,
		graph:   graph,
		catalog: catalog,
		order:   order,
		budget:  budget,
		worker:  worker,
		roots:   roots,
	}
}

func (s *searcher) newFrame(level int) frame {
	course := s.order[level]
	candidates := s.catalog.Candidates(course)
	f := frame{course: course}
	if level == 0 && s.roots != nil {
		f.candidates = make([]Slot, 0, len(s.roots))
		f.indices = make([]int, 0, len(s.roots))
		for _, i := range s.roots {
			f.candidates = append(f.candidates, candidates[i])
			f.indices = append(f.indices, i)
		}
		return f
	}
	f.candidates = candidates
	return f
}

func (s *searcher) run() *searchOutcome {
	outcome := &searchOutcome{worker: s.worker}
	assigned := make(map[string]Slot, len(s.order))
	best := map[string]Slot{}

	stack := make([]frame, 0, len(s.order))
	stack = append(stack, s.newFrame(0))
	rootChoice := 0

	for len(stack) > 0 && !s.stopped {
		f := &stack[len(stack)-1]
		slot, chosen, ok := s.nextFeasible(f, assigned)
		if s.stopped {
			break
		}
		if !ok {
			stack = stack[:len(stack)-1]
			if len(stack) > 0 {
				delete(assigned, stack[len(stack)-1].course)
			}
			continue
		}

		assigned[f.course] = slot
		if len(stack) == 1 {
			rootChoice = chosen
		}
		if len(assigned) > len(best) {
			best = copyAssignment(assigned)
		}
		if len(assigned) == len(s.order) {
			outcome.assigned = copyAssignment(assigned)
			outcome.complete = true
			outcome.rootIndex = rootChoice
			outcome.nodes = s.nodes
			return outcome
		}
		stack = append(stack, s.newFrame(len(stack)))
	}

	outcome.assigned = best
	outcome.nodes = s.nodes
	outcome.budgetExhausted = s.stopped
	return outcome
}

// nextFeasible advances the frame cursor to the next candidate that does not
// overlap any assigned conflicting course. The returned index is the original
// catalog position of the chosen candidate.
func (s *searcher) nextFeasible(f *frame, assigned map[string]Slot) (Slot, int, bool) {
	neighbors := s.graph.Neighbors(f.course)
	for f.cursor < len(f.candidates) {
		if s.nodes >= s.budget {
			s.stopped = true
			return Slot{}, 0, false
		}
		if s.nodes%cancelCheckStride == 0 {
			select {
			case <-s.ctx.Done():
				s.stopped = true
				return Slot{}, 0, false
			default:
			}
		}
		s.nodes++

		idx := f.cursor
		slot := f.candidates[idx]
		f.cursor++

		feasible := true
		for other := range neighbors {
			if placed, ok := assigned[other]; ok && slot.Overlaps(placed) {
				feasible = false
				break
			}
		}
		if feasible {
			if f.indices != nil {
				return slot, f.indices[idx], true
			}
			return slot, idx, true
		}
	}
	return Slot{}, 0, false
}

func copyAssignment(src map[string]Slot) map[string]Slot {
	dst := make(map[string]Slot, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
