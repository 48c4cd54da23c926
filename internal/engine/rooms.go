package engine

import (
	"sort"

	"github.com/noah-isme/uni-exam-api/internal/models"
)

// unknownDistancePenalty is charged for a room pair with no proximity edge in
// either direction, so unmeasured pairs are disfavored against measured ones.
const unknownDistancePenalty = 1_000_000

// RoomSeat allocates part of one exam's enrollment into a classroom.
type RoomSeat struct {
	ClassroomID      string
	AssignedCapacity int
}

// RoomPlan is the outcome of the room assignment pass: per-course seat lists
// plus the courses no available room combination could cover.
type RoomPlan struct {
	Seats            map[string][]RoomSeat
	CapacityFailures []string
}

type roomCandidate struct {
	id       string
	name     string
	capacity int
}

// AssignRooms selects classrooms for every scheduled exam. Exams are handled
// slot-by-slot in chronological order, largest enrollment first inside a
// slot, so big exams claim rooms before fragmentation sets in. A single-room
// best fit (smallest sufficient capacity) is preferred; otherwise the
// smallest split that covers demand wins, ranked by summed pairwise proximity
// distance. A capacity failure never blocks the other exams in the slot.
func AssignRooms(snap *Snapshot, assigned map[string]Slot) *RoomPlan {
	courses := snap.courseByID()
	distances := proximityIndex(snap)

	eligible := make([]roomCandidate, 0, len(snap.Classrooms))
	for _, r := range snap.Classrooms {
		if r.ExamEligible {
			eligible = append(eligible, roomCandidate{id: r.ID, name: r.Name, capacity: r.Capacity})
		}
	}

	type scheduledExam struct {
		courseID string
		slot     Slot
		demand   int
	}
	exams := make([]scheduledExam, 0, len(assigned))
	for courseID, slot := range assigned {
		exams = append(exams, scheduledExam{courseID: courseID, slot: slot, demand: courses[courseID].StudentCount})
	}
	sort.Slice(exams, func(i, j int) bool {
		if !exams[i].slot.Start.Equal(exams[j].slot.Start) {
			return exams[i].slot.Start.Before(exams[j].slot.Start)
		}
		if exams[i].demand != exams[j].demand {
			return exams[i].demand > exams[j].demand
		}
		return exams[i].courseID < exams[j].courseID
	})

	commitments := make(map[string][]Slot, len(eligible))
	plan := &RoomPlan{Seats: make(map[string][]RoomSeat, len(exams))}

	for _, exam := range exams {
		available := make([]roomCandidate, 0, len(eligible))
		for _, room := range eligible {
			busy := false
			for _, taken := range commitments[room.id] {
				if exam.slot.Overlaps(taken) {
					busy = true
					break
				}
			}
			if !busy {
				available = append(available, room)
			}
		}

		chosen := pickRooms(available, exam.demand, distances)
		if chosen == nil {
			plan.CapacityFailures = append(plan.CapacityFailures, exam.courseID)
			continue
		}

		seats := allocateSeats(chosen, exam.demand)
		plan.Seats[exam.courseID] = seats
		for _, seat := range seats {
			commitments[seat.ClassroomID] = append(commitments[seat.ClassroomID], exam.slot)
		}
	}

	sort.Strings(plan.CapacityFailures)
	return plan
}

// pickRooms returns the chosen rooms for a demand, or nil when no available
// combination covers it. Zero-demand exams still occupy one room.
func pickRooms(available []roomCandidate, demand int, distances map[[2]string]int) []roomCandidate {
	if len(available) == 0 {
		return nil
	}

	// Single room: smallest capacity that fits, conserving large rooms.
	var single *roomCandidate
	for i := range available {
		room := available[i]
		if room.capacity < demand {
			continue
		}
		if single == nil || room.capacity < single.capacity || (room.capacity == single.capacity && room.name < single.name) {
			single = &available[i]
		}
	}
	if single != nil {
		return []roomCandidate{*single}
	}

	// Split: find the minimum cardinality first. Sorting by descending
	// capacity makes the greedy prefix the smallest possible room count.
	sorted := make([]roomCandidate, len(available))
	copy(sorted, available)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].capacity != sorted[j].capacity {
			return sorted[i].capacity > sorted[j].capacity
		}
		return sorted[i].name < sorted[j].name
	})

	total := 0
	minCount := 0
	for i, room := range sorted {
		total += room.capacity
		if total >= demand {
			minCount = i + 1
			break
		}
	}
	if minCount == 0 {
		return nil
	}

	best := bestCombination(sorted, minCount, demand, distances)
	return best
}

// bestCombination enumerates size-k subsets covering demand and keeps the one
// with the lowest summed pairwise distance; ties go to the lexicographically
// smallest room-name tuple for determinism.
func bestCombination(rooms []roomCandidate, k, demand int, distances map[[2]string]int) []roomCandidate {
	suffixMax := make([]int, len(rooms)+1)
	for i := len(rooms) - 1; i >= 0; i-- {
		suffixMax[i] = suffixMax[i+1] + rooms[i].capacity
	}

	var best []roomCandidate
	bestCost := -1

	pick := make([]roomCandidate, 0, k)
	var walk func(start, remainingDemand, remainingPicks int)
	walk = func(start, remainingDemand, remainingPicks int) {
		if remainingPicks == 0 {
			if remainingDemand > 0 {
				return
			}
			cost := pairwiseDistance(pick, distances)
			if bestCost < 0 || cost < bestCost || (cost == bestCost && lessRooms(pick, best)) {
				best = append([]roomCandidate(nil), pick...)
				bestCost = cost
			}
			return
		}
		for i := start; i <= len(rooms)-remainingPicks; i++ {
			// Even the largest remaining rooms cannot cover the rest.
			if suffixMax[i] < remainingDemand {
				return
			}
			pick = append(pick, rooms[i])
			walk(i+1, remainingDemand-rooms[i].capacity, remainingPicks-1)
			pick = pick[:len(pick)-1]
		}
	}
	walk(0, demand, k)
	return best
}

func lessRooms(a, b []roomCandidate) bool {
	for i := range a {
		if i >= len(b) {
			return false
		}
		if a[i].name != b[i].name {
			return a[i].name < b[i].name
		}
	}
	return len(a) < len(b)
}

func pairwiseDistance(rooms []roomCandidate, distances map[[2]string]int) int {
	sum := 0
	for i := 0; i < len(rooms); i++ {
		for j := i + 1; j < len(rooms); j++ {
			sum += pairDistance(rooms[i].id, rooms[j].id, distances)
		}
	}
	return sum
}

// pairDistance prefers the forward edge, falls back to the reverse one, and
// charges the unknown penalty when neither direction was measured.
func pairDistance(a, b string, distances map[[2]string]int) int {
	if d, ok := distances[[2]string{a, b}]; ok {
		return d
	}
	if d, ok := distances[[2]string{b, a}]; ok {
		return d
	}
	return unknownDistancePenalty
}

// allocateSeats fills rooms largest-first up to their capacity; the last room
// receives only the remainder.
func allocateSeats(rooms []roomCandidate, demand int) []RoomSeat {
	ordered := make([]roomCandidate, len(rooms))
	copy(ordered, rooms)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].capacity != ordered[j].capacity {
			return ordered[i].capacity > ordered[j].capacity
		}
		return ordered[i].name < ordered[j].name
	})

	seats := make([]RoomSeat, 0, len(ordered))
	remaining := demand
	for _, room := range ordered {
		take := room.capacity
		if take > remaining {
			take = remaining
		}
		if take < 0 {
			take = 0
		}
		seats = append(seats, RoomSeat{ClassroomID: room.id, AssignedCapacity: take})
		remaining -= take
	}
	return seats
}

func proximityIndex(snap *Snapshot) map[[2]string]int {
	idx := make(map[[2]string]int, len(snap.Proximity))
	for _, p := range snap.Proximity {
		idx[[2]string{p.FromClassroomID, p.ToClassroomID}] = p.DistanceScore
	}
	return idx
}

// seatModels converts a plan entry into persistence rows for an exam.
func seatModels(examID string, seats []RoomSeat) []models.ExamRoomAssignment {
	rows := make([]models.ExamRoomAssignment, 0, len(seats))
	for _, seat := range seats {
		rows = append(rows, models.ExamRoomAssignment{
			ExamID:           examID,
			ClassroomID:      seat.ClassroomID,
			AssignedCapacity: seat.AssignedCapacity,
		})
	}
	return rows
}
