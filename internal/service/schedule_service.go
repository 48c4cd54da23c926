package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-exam-api/internal/dto"
	"github.com/noah-isme/uni-exam-api/internal/engine"
	"github.com/noah-isme/uni-exam-api/internal/models"
	appErrors "github.com/noah-isme/uni-exam-api/pkg/errors"
)

const publishedScheduleCacheKey = "schedule:published"

type snapshotLoader interface {
	Load(ctx context.Context) (*engine.Snapshot, error)
}

type examPlanRepository interface {
	ReplacePlan(ctx context.Context, exams []models.Exam, seats []models.ExamRoomAssignment) error
	ListDetails(ctx context.Context) ([]models.ExamDetail, error)
	ListSeats(ctx context.Context) ([]models.ExamRoomAssignment, error)
}

// ScheduleService runs the timetable engine and manages the two-phase
// generate/commit lifecycle. Proposals live in memory until committed or
// expired; committing replaces the published plan atomically.
type ScheduleService struct {
	snapshots snapshotLoader
	exams     examPlanRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ScheduleConfig
	store     *proposalStore
}

// ScheduleConfig governs engine defaults and proposal lifetime.
type ScheduleConfig struct {
	DayStart     string
	DayEnd       string
	SlotMinutes  int
	NodeBudget   int
	Workers      int
	SolveTimeout time.Duration
	ProposalTTL  time.Duration
}

// NewScheduleService wires scheduling dependencies.
func NewScheduleService(snapshots snapshotLoader, exams examPlanRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ScheduleConfig) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DayStart == "" {
		cfg.DayStart = "09:00"
	}
	if cfg.DayEnd == "" {
		cfg.DayEnd = "18:00"
	}
	if cfg.SlotMinutes <= 0 {
		cfg.SlotMinutes = 30
	}
	if cfg.SolveTimeout <= 0 {
		cfg.SolveTimeout = 30 * time.Second
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	return &ScheduleService{
		snapshots: snapshots,
		exams:     exams,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		store:     newProposalStore(cfg.ProposalTTL),
	}
}

// Generate builds a schedule proposal over the requested exam-period days.
// The proposal is held in memory; nothing is published until Commit.
func (s *ScheduleService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule generation payload")
	}

	engineCfg, err := s.engineConfig(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	snap, err := s.snapshots.Load(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load scheduling snapshot")
	}

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.SolveTimeout)
	defer cancel()

	started := time.Now()
	result, err := engine.Run(runCtx, snap, engineCfg)
	if err != nil {
		if invalid, ok := err.(*engine.InvalidSnapshotError); ok {
			msg := fmt.Sprintf("snapshot has %d problems, first: %s", len(invalid.Problems), invalid.Problems[0])
			return nil, appErrors.Wrap(err, appErrors.ErrInvalidSnapshot.Code, appErrors.ErrInvalidSnapshot.Status, msg)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "schedule generation failed")
	}

	proposal := scheduleProposal{
		ProposalID:  uuid.NewString(),
		Exams:       result.Exams,
		Seats:       result.RoomAssignments,
		RequestedAt: time.Now(),
	}
	s.store.Save(proposal)

	failuresByReason := make(map[string]int)
	for _, f := range result.Failures {
		failuresByReason[string(f.Reason)]++
	}
	if s.metrics != nil {
		s.metrics.ObserveSolverRun(time.Since(started), result.Stats.NodesExpanded, failuresByReason)
	}
	s.logger.Info("schedule proposal generated",
		zap.String("proposal_id", proposal.ProposalID),
		zap.Int("placed", len(result.Exams)),
		zap.Int("failed", len(result.Failures)),
		zap.Int("nodes", result.Stats.NodesExpanded),
		zap.Bool("budget_exhausted", result.BudgetExhausted),
		zap.Duration("elapsed", result.Stats.Elapsed))

	return s.buildResponse(proposal, snap, result, engineCfg), nil
}

// Commit publishes a previously generated proposal, replacing the stored
// plan. The proposal is consumed on success.
func (s *ScheduleService) Commit(ctx context.Context, req dto.CommitScheduleRequest) (*dto.CommitScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid commit payload")
	}

	proposal, ok := s.store.Get(req.ProposalID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}

	if err := s.exams.ReplacePlan(ctx, proposal.Exams, proposal.Seats); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "persist schedule")
	}
	s.store.Delete(req.ProposalID)

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, publishedScheduleCacheKey); err != nil {
			s.logger.Warn("published schedule cache invalidation failed", zap.Error(err))
		}
	}

	s.logger.Info("schedule committed",
		zap.String("proposal_id", req.ProposalID),
		zap.Int("exams", len(proposal.Exams)),
		zap.Int("room_assignments", len(proposal.Seats)))

	return &dto.CommitScheduleResponse{
		ProposalID: req.ProposalID,
		Exams:      len(proposal.Exams),
		Rooms:      len(proposal.Seats),
	}, nil
}

// Published returns the committed plan, serving from cache when possible.
func (s *ScheduleService) Published(ctx context.Context) (*dto.PublishedScheduleResponse, error) {
	var cached dto.PublishedScheduleResponse
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, publishedScheduleCacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	details, err := s.exams.ListDetails(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list published exams")
	}
	seats, err := s.exams.ListSeats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list room assignments")
	}

	response := &dto.PublishedScheduleResponse{Exams: details, Seats: seats}
	if s.cache != nil {
		if err := s.cache.Set(ctx, publishedScheduleCacheKey, response, 0); err != nil {
			s.logger.Warn("published schedule cache write failed", zap.Error(err))
		}
	}
	return response, nil
}

func (s *ScheduleService) engineConfig(req dto.GenerateScheduleRequest) (engine.Config, error) {
	dates := make([]time.Time, 0, len(req.Dates))
	for _, raw := range req.Dates {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return engine.Config{}, fmt.Errorf("invalid date %q", raw)
		}
		dates = append(dates, d)
	}

	dayStart, err := parseClock(firstNonEmpty(req.DayStart, s.cfg.DayStart))
	if err != nil {
		return engine.Config{}, err
	}
	dayEnd, err := parseClock(firstNonEmpty(req.DayEnd, s.cfg.DayEnd))
	if err != nil {
		return engine.Config{}, err
	}
	if dayEnd <= dayStart {
		return engine.Config{}, fmt.Errorf("day end %s is not after day start %s", req.DayEnd, req.DayStart)
	}

	slotMinutes := req.SlotMinutes
	if slotMinutes <= 0 {
		slotMinutes = s.cfg.SlotMinutes
	}
	nodeBudget := req.NodeBudget
	if nodeBudget <= 0 {
		nodeBudget = s.cfg.NodeBudget
	}
	workers := req.Workers
	if workers <= 0 {
		workers = s.cfg.Workers
	}

	return engine.Config{
		Dates:      dates,
		DayStart:   dayStart,
		DayEnd:     dayEnd,
		SlotStep:   time.Duration(slotMinutes) * time.Minute,
		NodeBudget: nodeBudget,
		Workers:    workers,
	}, nil
}

func (s *ScheduleService) buildResponse(proposal scheduleProposal, snap *engine.Snapshot, result *engine.Result, cfg engine.Config) *dto.GenerateScheduleResponse {
	courseNames := make(map[string]string, len(snap.Courses))
	for _, c := range snap.Courses {
		courseNames[c.ID] = c.Name
	}
	roomNames := make(map[string]string, len(snap.Classrooms))
	for _, r := range snap.Classrooms {
		roomNames[r.ID] = r.Name
	}
	seatsByExam := make(map[string][]models.ExamRoomAssignment)
	for _, seat := range proposal.Seats {
		seatsByExam[seat.ExamID] = append(seatsByExam[seat.ExamID], seat)
	}

	exams := make([]dto.ExamProposal, 0, len(proposal.Exams))
	for _, exam := range proposal.Exams {
		rooms := make([]dto.RoomSeatProposal, 0, len(seatsByExam[exam.ID]))
		for _, seat := range seatsByExam[exam.ID] {
			rooms = append(rooms, dto.RoomSeatProposal{
				ClassroomID:      seat.ClassroomID,
				ClassroomName:    roomNames[seat.ClassroomID],
				AssignedCapacity: seat.AssignedCapacity,
			})
		}
		exams = append(exams, dto.ExamProposal{
			CourseID:   exam.CourseID,
			CourseName: courseNames[exam.CourseID],
			StartAt:    exam.StartAt,
			EndAt:      exam.EndAt,
			Weekday:    exam.Weekday,
			Rooms:      rooms,
		})
	}
	sort.Slice(exams, func(i, j int) bool {
		if !exams[i].StartAt.Equal(exams[j].StartAt) {
			return exams[i].StartAt.Before(exams[j].StartAt)
		}
		return exams[i].CourseID < exams[j].CourseID
	})

	failures := make([]dto.ScheduleFailure, 0, len(result.Failures))
	for _, f := range result.Failures {
		failures = append(failures, dto.ScheduleFailure{
			CourseID: f.CourseID,
			Reason:   string(f.Reason),
			Message:  f.Message,
		})
	}

	return &dto.GenerateScheduleResponse{
		ProposalID: proposal.ProposalID,
		Exams:      exams,
		Failures:   failures,
		Stats: dto.ScheduleStats{
			Courses:         result.Stats.CoursesTotal,
			Placed:          len(proposal.Exams),
			Failed:          len(failures),
			NodesExpanded:   result.Stats.NodesExpanded,
			BudgetExhausted: result.BudgetExhausted,
			ElapsedMS:       result.Stats.Elapsed.Milliseconds(),
			Workers:         cfg.Workers,
			ProposalTTL:     s.cfg.ProposalTTL.String(),
		},
	}
}

func parseClock(value string) (time.Duration, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

type scheduleProposal struct {
	ProposalID  string
	Exams       []models.Exam
	Seats       []models.ExamRoomAssignment
	RequestedAt time.Time
}

type proposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]scheduleProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{
		ttl:   ttl,
		items: make(map[string]scheduleProposal),
	}
}

func (s *proposalStore) Save(proposal scheduleProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ProposalID] = proposal
}

func (s *proposalStore) Get(id string) (scheduleProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return scheduleProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return scheduleProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
