package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-exam-api/internal/dto"
	"github.com/noah-isme/uni-exam-api/internal/service"
	appErrors "github.com/noah-isme/uni-exam-api/pkg/errors"
	"github.com/noah-isme/uni-exam-api/pkg/response"
)

type csvImporter interface {
	ImportCourses(ctx context.Context, r io.Reader) (*dto.ImportSummary, error)
	ImportInstructors(ctx context.Context, r io.Reader) (*dto.ImportSummary, error)
	ImportAvailability(ctx context.Context, r io.Reader) (*dto.ImportSummary, error)
	ImportClassrooms(ctx context.Context, r io.Reader) (*dto.ImportSummary, error)
	ImportProximity(ctx context.Context, r io.Reader) (*dto.ImportSummary, error)
	ImportStudents(ctx context.Context, r io.Reader) (*dto.ImportSummary, error)
	ImportEnrollments(ctx context.Context, r io.Reader) (*dto.ImportSummary, error)
}

// ImportHandler handles CSV catalog uploads.
type ImportHandler struct {
	service      csvImporter
	maxFileBytes int64
}

// NewImportHandler constructs an import handler.
func NewImportHandler(svc *service.ImportService, maxFileBytes int64) *ImportHandler {
	if maxFileBytes <= 0 {
		maxFileBytes = 8 << 20
	}
	return &ImportHandler{service: svc, maxFileBytes: maxFileBytes}
}

// Upload godoc
// @Summary Import catalog data from a CSV file
// @Description Accepts a multipart upload; the kind path segment selects the target entity. Bad rows are skipped and reported, the rest are applied.
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param kind path string true "courses | instructors | availability | classrooms | proximity | students | enrollments"
// @Param file formData file true "CSV file"
// @Success 200 {object} response.Envelope
// @Router /imports/{kind} [post]
func (h *ImportHandler) Upload(c *gin.Context) {
	fn, ok := h.importer(c.Param("kind"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown import kind"))
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "missing file upload"))
		return
	}
	if header.Size > h.maxFileBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "uploaded file too large"))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open upload"))
		return
	}
	defer file.Close() //nolint:errcheck

	summary, err := fn(c.Request.Context(), io.LimitReader(file, h.maxFileBytes))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

func (h *ImportHandler) importer(kind string) (func(context.Context, io.Reader) (*dto.ImportSummary, error), bool) {
	switch kind {
	case "courses":
		return h.service.ImportCourses, true
	case "instructors":
		return h.service.ImportInstructors, true
	case "availability":
		return h.service.ImportAvailability, true
	case "classrooms":
		return h.service.ImportClassrooms, true
	case "proximity":
		return h.service.ImportProximity, true
	case "students":
		return h.service.ImportStudents, true
	case "enrollments":
		return h.service.ImportEnrollments, true
	default:
		return nil, false
	}
}
