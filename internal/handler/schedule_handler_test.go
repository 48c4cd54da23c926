package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-exam-api/internal/dto"
	internalmiddleware "github.com/noah-isme/uni-exam-api/internal/middleware"
	"github.com/noah-isme/uni-exam-api/internal/models"
	appErrors "github.com/noah-isme/uni-exam-api/pkg/errors"
)

type scheduleServiceMock struct {
	captured   dto.GenerateScheduleRequest
	commitErr  error
	committed  string
	publishErr error
}

func (m *scheduleServiceMock) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	m.captured = req
	return &dto.GenerateScheduleResponse{ProposalID: "proposal-1"}, nil
}

func (m *scheduleServiceMock) Commit(ctx context.Context, req dto.CommitScheduleRequest) (*dto.CommitScheduleResponse, error) {
	if m.commitErr != nil {
		return nil, m.commitErr
	}
	m.committed = req.ProposalID
	return &dto.CommitScheduleResponse{ProposalID: req.ProposalID, Exams: 3}, nil
}

func (m *scheduleServiceMock) Published(ctx context.Context) (*dto.PublishedScheduleResponse, error) {
	if m.publishErr != nil {
		return nil, m.publishErr
	}
	return &dto.PublishedScheduleResponse{}, nil
}

func validGeneratePayload() []byte {
	return []byte(`{"dates":["2026-06-01","2026-06-02"],"dayStart":"09:00","dayEnd":"18:00","slotMinutes":30}`)
}

func TestScheduleGenerateSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleServiceMock{}
	handler := &ScheduleHandler{service: mockSvc}
	req, _ := http.NewRequest(http.MethodPost, "/schedule/generate", bytes.NewReader(validGeneratePayload()))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Generate(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"2026-06-01", "2026-06-02"}, mockSvc.captured.Dates)
	require.Equal(t, "09:00", mockSvc.captured.DayStart)
}

func TestScheduleGenerateMalformedPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &ScheduleHandler{service: &scheduleServiceMock{}}
	req, _ := http.NewRequest(http.MethodPost, "/schedule/generate", bytes.NewReader([]byte(`{"dates":`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Generate(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleCommitSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleServiceMock{}
	handler := &ScheduleHandler{service: mockSvc}
	req, _ := http.NewRequest(http.MethodPost, "/schedule/commit", bytes.NewReader([]byte(`{"proposalId":"proposal-1"}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Commit(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "proposal-1", mockSvc.committed)
}

func TestScheduleCommitUnknownProposal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleServiceMock{commitErr: appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")}
	handler := &ScheduleHandler{service: mockSvc}
	req, _ := http.NewRequest(http.MethodPost, "/schedule/commit", bytes.NewReader([]byte(`{"proposalId":"gone"}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Commit(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestScheduleCommitUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &ScheduleHandler{service: &scheduleServiceMock{}}
	router := gin.New()
	router.POST("/schedule/commit", internalmiddleware.RBAC(models.RoleAdmin), handler.Commit)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/schedule/commit", bytes.NewReader([]byte(`{"proposalId":"proposal-1"}`)))
	req.Header.Set("Content-Type", "application/json")

	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestScheduleCommitForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &ScheduleHandler{service: &scheduleServiceMock{}}
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(internalmiddleware.ContextUserKey, &models.APIClaims{UserID: "viewer-1", Role: models.RoleViewer})
		c.Next()
	})
	router.POST("/schedule/commit", internalmiddleware.RBAC(models.RoleAdmin, models.RoleScheduler), handler.Commit)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/schedule/commit", bytes.NewReader([]byte(`{"proposalId":"proposal-1"}`)))
	req.Header.Set("Content-Type", "application/json")

	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestSchedulePublished(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &ScheduleHandler{service: &scheduleServiceMock{}}
	req, _ := http.NewRequest(http.MethodGet, "/schedule", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Published(c)

	require.Equal(t, http.StatusOK, w.Code)
}
