package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gate-violation-api/internal/dto"
	appErrors "github.com/noah-isme/gate-violation-api/pkg/errors"
)

type studentChecker interface {
	Check(ctx context.Context, req dto.CheckRequest) (*dto.CheckStudent, error)
	Lookup(ctx context.Context, code string) (*dto.StudentLookup, error)
}

// CheckAPIHandler answers identity queries from the vision pipeline.
type CheckAPIHandler struct {
	service studentChecker
}

// NewCheckAPIHandler constructs the handler.
func NewCheckAPIHandler(service studentChecker) *CheckAPIHandler {
	return &CheckAPIHandler{service: service}
}

// Check godoc
// @Summary Check a scanned code
// @Tags Vision
// @Accept multipart/form-data
// @Produce json
// @Param card_code formData string true "Scanned card or student code"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/check [post]
func (h *CheckAPIHandler) Check(c *gin.Context) {
	values, err := requestValues(c, []string{"card_code"})
	if err != nil {
		apiFailure(c, appErrors.Clone(appErrors.ErrUnprocessable, "Validation failed"), "")
		return
	}
	student, err := h.service.Check(c.Request.Context(), dto.CheckRequest{CardCode: values["card_code"]})
	if err != nil {
		apiFailure(c, err, "Failed to check student")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": apiStatusOK, "student": student})
}

// Lookup godoc
// @Summary Look up a student by card code
// @Tags Vision
// @Produce json
// @Param card_code path string true "Card or student code"
// @Success 200 {object} dto.StudentLookup
// @Failure 404 {object} map[string]string
// @Router /api/students/{card_code} [get]
func (h *CheckAPIHandler) Lookup(c *gin.Context) {
	student, err := h.service.Lookup(c.Request.Context(), c.Param("card_code"))
	if err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Status == http.StatusNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": appErr.Message})
			return
		}
		apiFailure(c, err, "Failed to look up student")
		return
	}
	c.JSON(http.StatusOK, student)
}
