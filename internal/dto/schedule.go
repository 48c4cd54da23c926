package dto

import (
	"time"

	"github.com/noah-isme/uni-exam-api/internal/models"
)

// GenerateScheduleRequest instructs the engine to build a proposal over the
// given exam-period days.
type GenerateScheduleRequest struct {
	Dates       []string `json:"dates" validate:"required,min=1,dive,datetime=2006-01-02"`
	DayStart    string   `json:"dayStart" validate:"omitempty,datetime=15:04"`
	DayEnd      string   `json:"dayEnd" validate:"omitempty,datetime=15:04"`
	SlotMinutes int      `json:"slotMinutes" validate:"omitempty,min=5,max=240"`
	NodeBudget  int      `json:"nodeBudget" validate:"omitempty,min=1"`
	Workers     int      `json:"workers" validate:"omitempty,min=1,max=32"`
}

// ExamProposal is one scheduled exam inside a proposal.
type ExamProposal struct {
	CourseID   string             `json:"courseId"`
	CourseName string             `json:"courseName"`
	StartAt    time.Time          `json:"startAt"`
	EndAt      time.Time          `json:"endAt"`
	Weekday    int                `json:"weekday"`
	Rooms      []RoomSeatProposal `json:"rooms"`
}

// RoomSeatProposal allocates part of an exam's enrollment to a classroom.
type RoomSeatProposal struct {
	ClassroomID      string `json:"classroomId"`
	ClassroomName    string `json:"classroomName"`
	AssignedCapacity int    `json:"assignedCapacity"`
}

// ScheduleFailure reports a course the engine could not place or seat.
type ScheduleFailure struct {
	CourseID string `json:"courseId"`
	Reason   string `json:"reason"`
	Message  string `json:"message"`
}

// ScheduleStats summarises one generation run.
type ScheduleStats struct {
	Courses         int    `json:"courses"`
	Placed          int    `json:"placed"`
	Failed          int    `json:"failed"`
	NodesExpanded   int    `json:"nodesExpanded"`
	BudgetExhausted bool   `json:"budgetExhausted"`
	ElapsedMS       int64  `json:"elapsedMs"`
	Workers         int    `json:"workers"`
	ProposalTTL     string `json:"proposalTtl"`
}

// GenerateScheduleResponse returns the built proposal.
type GenerateScheduleResponse struct {
	ProposalID string            `json:"proposalId"`
	Exams      []ExamProposal    `json:"exams"`
	Failures   []ScheduleFailure `json:"failures"`
	Stats      ScheduleStats     `json:"stats"`
}

// CommitScheduleRequest publishes a previously generated proposal.
type CommitScheduleRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
}

// CommitScheduleResponse confirms the published plan size.
type CommitScheduleResponse struct {
	ProposalID string `json:"proposalId"`
	Exams      int    `json:"exams"`
	Rooms      int    `json:"roomAssignments"`
}

// PublishedScheduleResponse is the committed plan as served to clients.
type PublishedScheduleResponse struct {
	Exams []models.ExamDetail         `json:"exams"`
	Seats []models.ExamRoomAssignment `json:"roomAssignments"`
}
