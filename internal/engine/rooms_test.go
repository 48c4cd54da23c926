package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-exam-api/internal/models"
)

func TestAssignRoomsPrefersSmallestSufficientRoom(t *testing.T) {
	snap := &Snapshot{
		Instructors: []models.Instructor{{ID: "inst-1"}},
		Courses:     []models.Course{course("crs-a", "inst-1", 90, 60)},
		Classrooms:  []models.Classroom{room("room-small", 50), room("room-mid", 100), room("room-big", 200)},
	}
	assigned := map[string]Slot{"crs-a": slotAt(monday(), 9, 60)}

	plan := AssignRooms(snap, assigned)

	require.Empty(t, plan.CapacityFailures)
	require.Len(t, plan.Seats["crs-a"], 1)
	assert.Equal(t, "room-mid", plan.Seats["crs-a"][0].ClassroomID)
	assert.Equal(t, 90, plan.Seats["crs-a"][0].AssignedCapacity)
}

func TestAssignRoomsSplitsAcrossProximateRooms(t *testing.T) {
	// 150 students, no single room fits. The minimal split is two rooms;
	// among the two-room combinations the measured pair beats the ones with
	// an unknown distance.
	snap := &Snapshot{
		Instructors: []models.Instructor{{ID: "inst-1"}},
		Courses:     []models.Course{course("crs-a", "inst-1", 150, 60)},
		Classrooms: []models.Classroom{
			room("room-a", 80),
			room("room-b", 90),
			room("room-c", 85),
		},
		Proximity: []models.ClassroomProximity{
			{FromClassroomID: "room-a", ToClassroomID: "room-b", DistanceScore: 2},
		},
	}
	assigned := map[string]Slot{"crs-a": slotAt(monday(), 9, 60)}

	plan := AssignRooms(snap, assigned)

	require.Empty(t, plan.CapacityFailures)
	seats := plan.Seats["crs-a"]
	require.Len(t, seats, 2)
	assert.Equal(t, "room-b", seats[0].ClassroomID, "largest room of the pair is filled first")
	assert.Equal(t, 90, seats[0].AssignedCapacity)
	assert.Equal(t, "room-a", seats[1].ClassroomID)
	assert.Equal(t, 60, seats[1].AssignedCapacity, "last room takes the remainder")
}

func TestAssignRoomsReverseProximityEdgeCounts(t *testing.T) {
	snap := &Snapshot{
		Instructors: []models.Instructor{{ID: "inst-1"}},
		Courses:     []models.Course{course("crs-a", "inst-1", 150, 60)},
		Classrooms: []models.Classroom{
			room("room-a", 80),
			room("room-b", 90),
			room("room-c", 85),
		},
		Proximity: []models.ClassroomProximity{
			{FromClassroomID: "room-c", ToClassroomID: "room-b", DistanceScore: 1},
		},
	}
	assigned := map[string]Slot{"crs-a": slotAt(monday(), 9, 60)}

	plan := AssignRooms(snap, assigned)

	require.Empty(t, plan.CapacityFailures)
	seats := plan.Seats["crs-a"]
	require.Len(t, seats, 2)
	assert.Equal(t, "room-b", seats[0].ClassroomID)
	assert.Equal(t, "room-c", seats[1].ClassroomID, "directed edge is read in both directions")
}

func TestAssignRoomsSkipsIneligibleRooms(t *testing.T) {
	snap := &Snapshot{
		Instructors: []models.Instructor{{ID: "inst-1"}},
		Courses:     []models.Course{course("crs-a", "inst-1", 40, 60)},
		Classrooms: []models.Classroom{
			{ID: "room-lab", Name: "room-lab", Capacity: 120, ExamEligible: false},
			room("room-b", 50),
		},
	}
	assigned := map[string]Slot{"crs-a": slotAt(monday(), 9, 60)}

	plan := AssignRooms(snap, assigned)

	require.Len(t, plan.Seats["crs-a"], 1)
	assert.Equal(t, "room-b", plan.Seats["crs-a"][0].ClassroomID)
}

func TestAssignRoomsDemandBeyondTotalCapacityFails(t *testing.T) {
	snap := &Snapshot{
		Instructors: []models.Instructor{{ID: "inst-1"}},
		Courses:     []models.Course{course("crs-a", "inst-1", 500, 60)},
		Classrooms:  []models.Classroom{room("room-a", 80), room("room-b", 90)},
	}
	assigned := map[string]Slot{"crs-a": slotAt(monday(), 9, 60)}

	plan := AssignRooms(snap, assigned)

	assert.Empty(t, plan.Seats["crs-a"])
	assert.Equal(t, []string{"crs-a"}, plan.CapacityFailures)
}

func TestAssignRoomsConcurrentExamsDoNotShareRooms(t *testing.T) {
	snap := &Snapshot{
		Instructors: []models.Instructor{{ID: "inst-1"}, {ID: "inst-2"}},
		Courses: []models.Course{
			course("crs-a", "inst-1", 40, 60),
			course("crs-b", "inst-2", 40, 60),
		},
		Classrooms: []models.Classroom{room("room-a", 50), room("room-b", 50)},
	}
	slot := slotAt(monday(), 9, 60)
	assigned := map[string]Slot{"crs-a": slot, "crs-b": slot}

	plan := AssignRooms(snap, assigned)

	require.Empty(t, plan.CapacityFailures)
	require.Len(t, plan.Seats["crs-a"], 1)
	require.Len(t, plan.Seats["crs-b"], 1)
	assert.NotEqual(t, plan.Seats["crs-a"][0].ClassroomID, plan.Seats["crs-b"][0].ClassroomID)
}

func TestAssignRoomsRoomFreedAfterExamEnds(t *testing.T) {
	snap := &Snapshot{
		Instructors: []models.Instructor{{ID: "inst-1"}, {ID: "inst-2"}},
		Courses: []models.Course{
			course("crs-a", "inst-1", 40, 60),
			course("crs-b", "inst-2", 40, 60),
		},
		Classrooms: []models.Classroom{room("room-a", 50)},
	}
	assigned := map[string]Slot{
		"crs-a": slotAt(monday(), 9, 60),
		"crs-b": slotAt(monday(), 10, 60),
	}

	plan := AssignRooms(snap, assigned)

	require.Empty(t, plan.CapacityFailures)
	assert.Equal(t, "room-a", plan.Seats["crs-a"][0].ClassroomID)
	assert.Equal(t, "room-a", plan.Seats["crs-b"][0].ClassroomID, "back to back exams reuse the room")
}
