package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-exam-api/internal/dto"
	"github.com/noah-isme/uni-exam-api/internal/service"
	appErrors "github.com/noah-isme/uni-exam-api/pkg/errors"
	"github.com/noah-isme/uni-exam-api/pkg/response"
)

type scheduleService interface {
	Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error)
	Commit(ctx context.Context, req dto.CommitScheduleRequest) (*dto.CommitScheduleResponse, error)
	Published(ctx context.Context) (*dto.PublishedScheduleResponse, error)
}

// ScheduleHandler exposes timetable generation and publication endpoints.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler constructs a schedule handler.
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// Generate godoc
// @Summary Generate an exam timetable proposal
// @Description Runs the solver over the current catalog and returns a TTL-bound proposal with per-course failures.
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.GenerateScheduleRequest true "Generate payload"
// @Success 200 {object} response.Envelope
// @Router /schedule/generate [post]
func (h *ScheduleHandler) Generate(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Commit godoc
// @Summary Commit a timetable proposal
// @Description Publishes a previously generated proposal, replacing the stored plan atomically.
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.CommitScheduleRequest true "Commit payload"
// @Success 201 {object} response.Envelope
// @Router /schedule/commit [post]
func (h *ScheduleHandler) Commit(c *gin.Context) {
	var req dto.CommitScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid commit payload"))
		return
	}
	result, err := h.service.Commit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	var meta map[string]interface{}
	if claims := claimsFromContext(c); claims != nil {
		meta = map[string]interface{}{"committedBy": claims.UserID}
	}
	response.JSON(c, http.StatusCreated, result, nil, meta)
}

// Published godoc
// @Summary Get the published exam schedule
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule [get]
func (h *ScheduleHandler) Published(c *gin.Context) {
	result, err := h.service.Published(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
