package service

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-exam-api/internal/dto"
	"github.com/noah-isme/uni-exam-api/internal/models"
	appErrors "github.com/noah-isme/uni-exam-api/pkg/errors"
)

type instructorRepository interface {
	List(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, int, error)
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
	Create(ctx context.Context, instructor *models.Instructor) error
	Update(ctx context.Context, instructor *models.Instructor) error
	ListAvailability(ctx context.Context, instructorID string) ([]models.InstructorAvailability, error)
	ReplaceAvailability(ctx context.Context, instructorID string, records []models.InstructorAvailability) error
}

// InstructorService handles instructor and availability workflows.
type InstructorService struct {
	repo      instructorRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInstructorService creates a new instructor service.
func NewInstructorService(repo instructorRepository, validate *validator.Validate, logger *zap.Logger) *InstructorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstructorService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated instructors.
func (s *InstructorService) List(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, *models.Pagination, error) {
	instructors, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return instructors, pagination, nil
}

// Get returns an instructor by identifier.
func (s *InstructorService) Get(ctx context.Context, id string) (*models.Instructor, error) {
	instructor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	return instructor, nil
}

// Create registers an instructor.
func (s *InstructorService) Create(ctx context.Context, req dto.CreateInstructorRequest) (*models.Instructor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor payload")
	}

	instructor := &models.Instructor{
		FullName: strings.TrimSpace(req.FullName),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
	}

	if err := s.repo.Create(ctx, instructor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create instructor")
	}
	return instructor, nil
}

// Update modifies an existing instructor.
func (s *InstructorService) Update(ctx context.Context, id string, req dto.CreateInstructorRequest) (*models.Instructor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor payload")
	}

	instructor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}

	instructor.FullName = strings.TrimSpace(req.FullName)
	instructor.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := s.repo.Update(ctx, instructor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update instructor")
	}
	return instructor, nil
}

// Availability returns the explicit weekday records for an instructor,
// ordered by weekday. Unlisted weekdays follow the default rule applied by
// the slot catalog.
func (s *InstructorService) Availability(ctx context.Context, instructorID string) ([]models.InstructorAvailability, error) {
	if _, err := s.Get(ctx, instructorID); err != nil {
		return nil, err
	}
	records, err := s.repo.ListAvailability(ctx, instructorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Weekday < records[j].Weekday })
	return records, nil
}

// ReplaceAvailability swaps an instructor's full availability set. Duplicate
// weekdays in the payload are rejected.
func (s *InstructorService) ReplaceAvailability(ctx context.Context, instructorID string, req dto.ReplaceAvailabilityRequest) ([]models.InstructorAvailability, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	if _, err := s.Get(ctx, instructorID); err != nil {
		return nil, err
	}

	seen := make(map[int]struct{}, len(req.Records))
	records := make([]models.InstructorAvailability, 0, len(req.Records))
	for _, entry := range req.Records {
		if _, dup := seen[entry.Weekday]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, "duplicate weekday in availability payload")
		}
		seen[entry.Weekday] = struct{}{}
		records = append(records, models.InstructorAvailability{
			InstructorID: instructorID,
			Weekday:      entry.Weekday,
			Available:    entry.Available,
		})
	}

	if err := s.repo.ReplaceAvailability(ctx, instructorID, records); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace availability")
	}
	return records, nil
}
