package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gate-violation-api/internal/dto"
	"github.com/noah-isme/gate-violation-api/internal/models"
	appErrors "github.com/noah-isme/gate-violation-api/pkg/errors"
	"github.com/noah-isme/gate-violation-api/pkg/response"
)

type violationReports interface {
	List(ctx context.Context, query dto.ViolationListQuery) ([]dto.ViolationListItem, *models.Pagination, error)
	ExportPDF(ctx context.Context, query dto.ExportQuery) (*dto.ExportFile, error)
	ExportCSV(ctx context.Context, query dto.ExportQuery) (*dto.ExportFile, error)
}

// ViolationHandler exposes the access log listing and exports to staff.
type ViolationHandler struct {
	reports violationReports
}

// NewViolationHandler constructs the handler.
func NewViolationHandler(reports violationReports) *ViolationHandler {
	return &ViolationHandler{reports: reports}
}

// List godoc
// @Summary List gate events
// @Tags Violations
// @Produce json
// @Param result query string false "valid or violation"
// @Param search query string false "Student name, code or card"
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /violations [get]
func (h *ViolationHandler) List(c *gin.Context) {
	var query dto.ViolationListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	items, pagination, err := h.reports.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// ExportPDF godoc
// @Summary Export violations as PDF
// @Tags Violations
// @Produce application/pdf
// @Param start_date query string false "YYYY-MM-DD, defaults to six days ago"
// @Param end_date query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {file} file
// @Router /violations/export/pdf [get]
func (h *ViolationHandler) ExportPDF(c *gin.Context) {
	h.export(c, h.reports.ExportPDF)
}

// ExportCSV godoc
// @Summary Export violations as CSV
// @Tags Violations
// @Produce text/csv
// @Param start_date query string false "YYYY-MM-DD, defaults to six days ago"
// @Param end_date query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {file} file
// @Router /violations/export/csv [get]
func (h *ViolationHandler) ExportCSV(c *gin.Context) {
	h.export(c, h.reports.ExportCSV)
}

func (h *ViolationHandler) export(c *gin.Context, render func(context.Context, dto.ExportQuery) (*dto.ExportFile, error)) {
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	file, err := render(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Content, file.Summary.Total)
}
