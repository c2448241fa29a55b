package handler

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gate-violation-api/internal/dto"
	"github.com/noah-isme/gate-violation-api/internal/models"
	appErrors "github.com/noah-isme/gate-violation-api/pkg/errors"
)

type violationIngester interface {
	Ingest(ctx context.Context, req dto.ViolationRequest, image *dto.EvidenceFile) (*dto.ViolationResult, error)
}

// ViolationAPIHandler accepts events from the vision pipeline.
type ViolationAPIHandler struct {
	service violationIngester
}

// NewViolationAPIHandler constructs the handler.
func NewViolationAPIHandler(service violationIngester) *ViolationAPIHandler {
	return &ViolationAPIHandler{service: service}
}

var violationFields = []string{
	"card_code", "timestamp", "has_plate", "is_violation", "student_id", "student_name",
	"student_class", "student_age", "license_plate_number", "processing_time_seconds", "note",
}

// Store godoc
// @Summary Record a gate event
// @Description Accepts multipart, urlencoded or JSON bodies. The optional "image" part is stored as evidence.
// @Tags Vision
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Param card_code formData string true "Scanned card or student code"
// @Param has_plate formData string true "Lenient boolean"
// @Param is_violation formData string true "Lenient boolean"
// @Param image formData file false "Evidence image"
// @Success 201 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/violations [post]
func (h *ViolationAPIHandler) Store(c *gin.Context) {
	values, err := requestValues(c, violationFields)
	if err != nil {
		apiFailure(c, appErrors.Clone(appErrors.ErrUnprocessable, "Validation failed"), "")
		return
	}
	req := dto.ViolationRequestFromValues(values)

	image, closeImage := uploadedImage(c)
	defer closeImage()

	result, err := h.service.Ingest(c.Request.Context(), req, image)
	if err != nil {
		apiFailure(c, err, "Failed to record violation")
		return
	}

	message := "Valid entry recorded"
	if result.Result == string(models.AccessResultViolation) {
		message = "Violation recorded"
	}
	c.JSON(http.StatusCreated, gin.H{
		"status":        apiStatusOK,
		"message":       message,
		"access_log_id": result.AccessLogID,
		"result":        result.Result,
		"student":       result.Student,
	})
}

// requestValues reads the named fields from a JSON object body or from form values.
func requestValues(c *gin.Context, fields []string) (map[string]string, error) {
	if strings.HasPrefix(c.ContentType(), gin.MIMEJSON) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, err
		}
		if len(strings.TrimSpace(string(body))) == 0 {
			return map[string]string{}, nil
		}
		return dto.FlattenJSON(body)
	}
	values := make(map[string]string, len(fields))
	for _, field := range fields {
		if value, ok := c.GetPostForm(field); ok {
			values[field] = value
		}
	}
	return values, nil
}

func uploadedImage(c *gin.Context) (*dto.EvidenceFile, func()) {
	noop := func() {}
	if !strings.HasPrefix(c.ContentType(), gin.MIMEMultipartPOSTForm) {
		return nil, noop
	}
	header, err := c.FormFile("image")
	if err != nil {
		return nil, noop
	}
	file, err := header.Open()
	if err != nil {
		return nil, noop
	}
	return evidenceFile(header, file), func() { _ = file.Close() }
}

func evidenceFile(header *multipart.FileHeader, file multipart.File) *dto.EvidenceFile {
	return &dto.EvidenceFile{Filename: header.Filename, Size: header.Size, Reader: file}
}
