package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-exam-api/internal/dto"
	appErrors "github.com/noah-isme/uni-exam-api/pkg/errors"
	"github.com/noah-isme/uni-exam-api/pkg/export"
	"github.com/noah-isme/uni-exam-api/pkg/jobs"
	"github.com/noah-isme/uni-exam-api/pkg/storage"
)

type publishedScheduleProvider interface {
	Published(ctx context.Context) (*dto.PublishedScheduleResponse, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
	Workers   int
}

// ExportService renders the published schedule to downloadable files. Jobs
// run on a background queue; clients poll the job status for the signed URL.
type ExportService struct {
	schedules publishedScheduleProvider
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       ExportConfig

	queue *jobs.Queue

	mu     sync.RWMutex
	status map[string]dto.ExportJobResponse
}

// NewExportService constructs an ExportService.
func NewExportService(schedules publishedScheduleProvider, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	s := &ExportService{
		schedules: schedules,
		storage:   store,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		signer:    signer,
		logger:    logger,
		cfg:       cfg,
		status:    make(map[string]dto.ExportJobResponse),
	}
	s.queue = jobs.NewQueue("schedule-exports", s.process, jobs.QueueConfig{
		Workers: cfg.Workers,
		Logger:  logger,
	})
	return s
}

// Start launches the export worker pool.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker pool.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Request enqueues an export of the published schedule.
func (s *ExportService) Request(req dto.ExportRequest) (*dto.ExportJobResponse, error) {
	format := strings.ToLower(req.Format)
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", req.Format))
	}

	jobID := uuid.NewString()
	pending := dto.ExportJobResponse{JobID: jobID, Status: "pending"}
	s.setStatus(pending)

	if err := s.queue.Enqueue(jobs.Job{ID: jobID, Type: format}); err != nil {
		s.setStatus(dto.ExportJobResponse{JobID: jobID, Status: "failed", Error: "export queue unavailable"})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "enqueue export")
	}
	return &pending, nil
}

// Status returns the current state of an export job.
func (s *ExportService) Status(jobID string) (*dto.ExportJobResponse, error) {
	s.mu.RLock()
	entry, ok := s.status[jobID]
	s.mu.RUnlock()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return &entry, nil
}

// Open resolves a signed download token to the stored file.
func (s *ExportService) Open(token string) (*os.File, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file not found")
	}
	return file, nil
}

// CleanupExpired removes export files older than the configured TTL.
func (s *ExportService) CleanupExpired() {
	removed, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("export files cleaned up", zap.Int("count", len(removed)))
	}
}

func (s *ExportService) process(ctx context.Context, job jobs.Job) error {
	plan, err := s.schedules.Published(ctx)
	if err != nil {
		s.setStatus(dto.ExportJobResponse{JobID: job.ID, Status: "failed", Error: "load published schedule"})
		return err
	}
	dataset := scheduleDataset(plan)

	var payload []byte
	var ext string
	switch job.Type {
	case "csv":
		payload, err = s.csv.Render(dataset)
		ext = "csv"
	case "pdf":
		payload, err = s.pdf.Render(dataset, "Exam Schedule")
		ext = "pdf"
	default:
		err = fmt.Errorf("unsupported format %s", job.Type)
	}
	if err != nil {
		s.setStatus(dto.ExportJobResponse{JobID: job.ID, Status: "failed", Error: "render export"})
		return err
	}

	filename := fmt.Sprintf("exam-schedule-%s-%s.%s", time.Now().UTC().Format("20060102-150405"), job.ID[:8], ext)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		s.setStatus(dto.ExportJobResponse{JobID: job.ID, Status: "failed", Error: "store export"})
		return err
	}

	token, _, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		s.setStatus(dto.ExportJobResponse{JobID: job.ID, Status: "failed", Error: "sign download url"})
		return err
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.setStatus(dto.ExportJobResponse{
		JobID:       job.ID,
		Status:      "done",
		DownloadURL: fmt.Sprintf("%s/exports/download/%s", prefix, token),
	})
	s.logger.Info("schedule export rendered",
		zap.String("job_id", job.ID),
		zap.String("format", job.Type),
		zap.Int("bytes", len(payload)))
	return nil
}

func (s *ExportService) setStatus(entry dto.ExportJobResponse) {
	s.mu.Lock()
	s.status[entry.JobID] = entry
	s.mu.Unlock()
}

func scheduleDataset(plan *dto.PublishedScheduleResponse) export.Dataset {
	seatsByExam := make(map[string][]string)
	for _, seat := range plan.Seats {
		seatsByExam[seat.ExamID] = append(seatsByExam[seat.ExamID], fmt.Sprintf("%s (%d)", seat.ClassroomID, seat.AssignedCapacity))
	}

	rows := make([]map[string]string, 0, len(plan.Exams))
	for _, exam := range plan.Exams {
		rows = append(rows, map[string]string{
			"course":     exam.CourseName,
			"instructor": exam.InstructorName,
			"students":   fmt.Sprintf("%d", exam.StudentCount),
			"start":      exam.StartAt.Format("2006-01-02 15:04"),
			"end":        exam.EndAt.Format("15:04"),
			"rooms":      strings.Join(seatsByExam[exam.ID], "; "),
		})
	}
	return export.Dataset{
		Headers: []string{"course", "instructor", "students", "start", "end", "rooms"},
		Rows:    rows,
	}
}
