package service

import (
	"context"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-exam-api/internal/dto"
	"github.com/noah-isme/uni-exam-api/internal/models"
	appErrors "github.com/noah-isme/uni-exam-api/pkg/errors"
)

type courseImporter interface {
	Create(ctx context.Context, course *models.Course) error
}

type instructorImporter interface {
	Create(ctx context.Context, instructor *models.Instructor) error
	ReplaceAvailability(ctx context.Context, instructorID string, records []models.InstructorAvailability) error
}

type classroomImporter interface {
	Create(ctx context.Context, room *models.Classroom) error
	UpsertProximity(ctx context.Context, edge models.ClassroomProximity) error
}

type studentImporter interface {
	Create(ctx context.Context, student *models.Student) error
	Enroll(ctx context.Context, courseID, studentID string) error
}

// ImportService bulk-loads scheduling entities from CSV uploads. Rows are
// validated individually; a bad row is reported and skipped, it never aborts
// the rest of the file.
type ImportService struct {
	courses     courseImporter
	instructors instructorImporter
	classrooms  classroomImporter
	students    studentImporter
	logger      *zap.Logger
}

// NewImportService constructs an ImportService.
func NewImportService(courses courseImporter, instructors instructorImporter, classrooms classroomImporter, students studentImporter, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		courses:     courses,
		instructors: instructors,
		classrooms:  classrooms,
		students:    students,
		logger:      logger,
	}
}

type courseRow struct {
	ID           string `csv:"id"`
	DepartmentID string `csv:"department_id"`
	FacultyID    string `csv:"faculty_id"`
	InstructorID string `csv:"instructor_id"`
	Name         string `csv:"name"`
	StudentCount int    `csv:"student_count"`
	DurationMin  int    `csv:"duration_min"`
	ExamType     string `csv:"exam_type"`
}

type instructorRow struct {
	ID       string `csv:"id"`
	FullName string `csv:"full_name"`
	Email    string `csv:"email"`
}

type availabilityRow struct {
	InstructorID string `csv:"instructor_id"`
	Weekday      int    `csv:"weekday"`
	Available    bool   `csv:"available"`
}

type classroomRow struct {
	ID           string `csv:"id"`
	Name         string `csv:"name"`
	Capacity     int    `csv:"capacity"`
	ExamEligible bool   `csv:"exam_eligible"`
}

type proximityRow struct {
	FromClassroomID string `csv:"from_classroom_id"`
	ToClassroomID   string `csv:"to_classroom_id"`
	DistanceScore   int    `csv:"distance_score"`
}

type studentRow struct {
	ID        string `csv:"id"`
	StudentNo string `csv:"student_no"`
	FullName  string `csv:"full_name"`
}

type enrollmentRow struct {
	CourseID  string `csv:"course_id"`
	StudentID string `csv:"student_id"`
}

// ImportCourses loads course rows.
func (s *ImportService) ImportCourses(ctx context.Context, r io.Reader) (*dto.ImportSummary, error) {
	var rows []*courseRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed course CSV")
	}

	summary := &dto.ImportSummary{Kind: "courses", Rows: len(rows)}
	for i, row := range rows {
		if row.Name == "" || row.InstructorID == "" {
			summary.Skipped++
			summary.Problems = append(summary.Problems, fmt.Sprintf("row %d: name and instructor_id are required", i+1))
			continue
		}
		if !models.ValidDuration(row.DurationMin) {
			summary.Skipped++
			summary.Problems = append(summary.Problems, fmt.Sprintf("row %d: unsupported duration %d", i+1, row.DurationMin))
			continue
		}
		course := &models.Course{
			ID:           row.ID,
			DepartmentID: row.DepartmentID,
			FacultyID:    row.FacultyID,
			InstructorID: row.InstructorID,
			Name:         row.Name,
			StudentCount: row.StudentCount,
			DurationMin:  row.DurationMin,
			ExamType:     row.ExamType,
		}
		if err := s.courses.Create(ctx, course); err != nil {
			summary.Skipped++
			summary.Problems = append(summary.Problems, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		summary.Created++
	}
	s.logSummary(summary)
	return summary, nil
}

// ImportInstructors loads instructor rows.
func (s *ImportService) ImportInstructors(ctx context.Context, r io.Reader) (*dto.ImportSummary, error) {
	var rows []*instructorRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed instructor CSV")
	}

	summary := &dto.ImportSummary{Kind: "instructors", Rows: len(rows)}
	for i, row := range rows {
		if row.FullName == "" {
			summary.Skipped++
			summary.Problems = append(summary.Problems, fmt.Sprintf("row %d: full_name is required", i+1))
			continue
		}
		instructor := &models.Instructor{ID: row.ID, FullName: row.FullName, Email: row.Email}
		if err := s.instructors.Create(ctx, instructor); err != nil {
			summary.Skipped++
			summary.Problems = append(summary.Problems, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		summary.Created++
	}
	s.logSummary(summary)
	return summary, nil
}

// ImportAvailability loads weekday availability rows grouped per instructor.
// Each instructor's record set is replaced wholesale.
func (s *ImportService) ImportAvailability(ctx context.Context, r io.Reader) (*dto.ImportSummary, error) {
	var rows []*availabilityRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed availability CSV")
	}

	summary := &dto.ImportSummary{Kind: "availability", Rows: len(rows)}
	grouped := make(map[string][]models.InstructorAvailability)
	for i, row := range rows {
		if row.InstructorID == "" || row.Weekday < 0 || row.Weekday > 6 {
			summary.Skipped++
			summary.Problems = append(summary.Problems, fmt.Sprintf("row %d: instructor_id and weekday 0-6 are required", i+1))
			continue
		}
		grouped[row.InstructorID] = append(grouped[row.InstructorID], models.InstructorAvailability{
			InstructorID: row.InstructorID,
			Weekday:      row.Weekday,
			Available:    row.Available,
		})
	}
	for instructorID, records := range grouped {
		if err := s.instructors.ReplaceAvailability(ctx, instructorID, records); err != nil {
			summary.Skipped += len(records)
			summary.Problems = append(summary.Problems, fmt.Sprintf("instructor %s: %v", instructorID, err))
			continue
		}
		summary.Created += len(records)
	}
	s.logSummary(summary)
	return summary, nil
}

// ImportClassrooms loads classroom rows.
func (s *ImportService) ImportClassrooms(ctx context.Context, r io.Reader) (*dto.ImportSummary, error) {
	var rows []*classroomRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed classroom CSV")
	}

	summary := &dto.ImportSummary{Kind: "classrooms", Rows: len(rows)}
	for i, row := range rows {
		if row.Name == "" || row.Capacity <= 0 {
			summary.Skipped++
			summary.Problems = append(summary.Problems, fmt.Sprintf("row %d: name and positive capacity are required", i+1))
			continue
		}
		room := &models.Classroom{ID: row.ID, Name: row.Name, Capacity: row.Capacity, ExamEligible: row.ExamEligible}
		if err := s.classrooms.Create(ctx, room); err != nil {
			summary.Skipped++
			summary.Problems = append(summary.Problems, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		summary.Created++
	}
	s.logSummary(summary)
	return summary, nil
}

// ImportProximity loads directed classroom distance rows.
func (s *ImportService) ImportProximity(ctx context.Context, r io.Reader) (*dto.ImportSummary, error) {
	var rows []*proximityRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed proximity CSV")
	}

	summary := &dto.ImportSummary{Kind: "proximity", Rows: len(rows)}
	for i, row := range rows {
		if row.FromClassroomID == "" || row.ToClassroomID == "" || row.FromClassroomID == row.ToClassroomID || row.DistanceScore < 0 {
			summary.Skipped++
			summary.Problems = append(summary.Problems, fmt.Sprintf("row %d: two distinct classrooms and a non-negative distance are required", i+1))
			continue
		}
		edge := models.ClassroomProximity{
			FromClassroomID: row.FromClassroomID,
			ToClassroomID:   row.ToClassroomID,
			DistanceScore:   row.DistanceScore,
		}
		if err := s.classrooms.UpsertProximity(ctx, edge); err != nil {
			summary.Skipped++
			summary.Problems = append(summary.Problems, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		summary.Created++
	}
	s.logSummary(summary)
	return summary, nil
}

// ImportStudents loads student rows.
func (s *ImportService) ImportStudents(ctx context.Context, r io.Reader) (*dto.ImportSummary, error) {
	var rows []*studentRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed student CSV")
	}

	summary := &dto.ImportSummary{Kind: "students", Rows: len(rows)}
	for i, row := range rows {
		if row.StudentNo == "" || row.FullName == "" {
			summary.Skipped++
			summary.Problems = append(summary.Problems, fmt.Sprintf("row %d: student_no and full_name are required", i+1))
			continue
		}
		student := &models.Student{ID: row.ID, StudentNo: row.StudentNo, FullName: row.FullName}
		if err := s.students.Create(ctx, student); err != nil {
			summary.Skipped++
			summary.Problems = append(summary.Problems, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		summary.Created++
	}
	s.logSummary(summary)
	return summary, nil
}

// ImportEnrollments loads course-student links.
func (s *ImportService) ImportEnrollments(ctx context.Context, r io.Reader) (*dto.ImportSummary, error) {
	var rows []*enrollmentRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed enrollment CSV")
	}

	summary := &dto.ImportSummary{Kind: "enrollments", Rows: len(rows)}
	for i, row := range rows {
		if row.CourseID == "" || row.StudentID == "" {
			summary.Skipped++
			summary.Problems = append(summary.Problems, fmt.Sprintf("row %d: course_id and student_id are required", i+1))
			continue
		}
		if err := s.students.Enroll(ctx, row.CourseID, row.StudentID); err != nil {
			summary.Skipped++
			summary.Problems = append(summary.Problems, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		summary.Created++
	}
	s.logSummary(summary)
	return summary, nil
}

func (s *ImportService) logSummary(summary *dto.ImportSummary) {
	s.logger.Info("csv import finished",
		zap.String("kind", summary.Kind),
		zap.Int("rows", summary.Rows),
		zap.Int("created", summary.Created),
		zap.Int("skipped", summary.Skipped))
}
