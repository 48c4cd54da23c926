package dto

// CreateCourseRequest registers a course for the exam period.
type CreateCourseRequest struct {
	DepartmentID string  `json:"departmentId" validate:"required"`
	FacultyID    string  `json:"facultyId" validate:"required"`
	InstructorID string  `json:"instructorId" validate:"required"`
	Name         string  `json:"name" validate:"required,min=2,max=150"`
	StudentCount int     `json:"studentCount" validate:"min=0"`
	DurationMin  int     `json:"durationMin" validate:"required,oneof=30 60 90 120"`
	ExamType     string  `json:"examType" validate:"required,oneof=final midterm makeup"`
	Notes        *string `json:"notes"`
}

// UpdateCourseRequest mirrors CreateCourseRequest for full updates.
type UpdateCourseRequest = CreateCourseRequest

// CreateInstructorRequest registers an instructor.
type CreateInstructorRequest struct {
	FullName string `json:"fullName" validate:"required,min=2,max=150"`
	Email    string `json:"email" validate:"required,email"`
}

// AvailabilityEntry is one explicit weekday availability record.
type AvailabilityEntry struct {
	Weekday   int  `json:"weekday" validate:"min=0,max=6"`
	Available bool `json:"available"`
}

// ReplaceAvailabilityRequest swaps an instructor's full availability set.
type ReplaceAvailabilityRequest struct {
	Records []AvailabilityEntry `json:"records" validate:"dive"`
}

// CreateClassroomRequest registers a classroom.
type CreateClassroomRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=100"`
	Capacity     int    `json:"capacity" validate:"required,min=1"`
	ExamEligible bool   `json:"examEligible"`
}

// CreateStudentRequest registers a student.
type CreateStudentRequest struct {
	StudentNo    string  `json:"studentNo" validate:"required,min=1,max=30"`
	FullName     string  `json:"fullName" validate:"required,min=2,max=150"`
	DepartmentID *string `json:"departmentId"`
	FacultyID    *string `json:"facultyId"`
}

// EnrollRequest registers a student to a course.
type EnrollRequest struct {
	StudentID string `json:"studentId" validate:"required"`
}

// ProximityRequest records a directed distance score between two classrooms.
type ProximityRequest struct {
	FromClassroomID string `json:"fromClassroomId" validate:"required"`
	ToClassroomID   string `json:"toClassroomId" validate:"required,nefield=FromClassroomID"`
	DistanceScore   int    `json:"distanceScore" validate:"min=0"`
}
