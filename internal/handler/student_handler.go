package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gate-violation-api/internal/dto"
	"github.com/noah-isme/gate-violation-api/internal/models"
	appErrors "github.com/noah-isme/gate-violation-api/pkg/errors"
	"github.com/noah-isme/gate-violation-api/pkg/response"
)

type studentAdmin interface {
	List(ctx context.Context, query dto.StudentListQuery) ([]dto.StudentListItem, *models.Pagination, error)
	Get(ctx context.Context, id int64) (*dto.StudentDetail, error)
	Create(ctx context.Context, req dto.CreateStudentRequest) (*models.Student, error)
	Update(ctx context.Context, id int64, req dto.UpdateStudentRequest) (*models.Student, error)
	ListCards(ctx context.Context, studentID int64) ([]models.StudentCard, error)
	IssueCard(ctx context.Context, studentID int64, req dto.IssueCardRequest) (*models.StudentCard, error)
	DeactivateCard(ctx context.Context, cardID int64) error
}

// StudentHandler exposes student and card administration.
type StudentHandler struct {
	students studentAdmin
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentAdmin) *StudentHandler {
	return &StudentHandler{students: students}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param search query string false "Search by name or student code"
// @Param class_name query string false "Filter by class"
// @Param scenario_group query string false "A, B or C"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	var query dto.StudentListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	students, pagination, err := h.students.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	student, err := h.students.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Register student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body dto.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req dto.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param payload body dto.UpdateStudentRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// ListCards godoc
// @Summary List a student's cards
// @Tags Students
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/cards [get]
func (h *StudentHandler) ListCards(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cards, err := h.students.ListCards(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cards, nil)
}

// IssueCard godoc
// @Summary Issue a card
// @Tags Students
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param payload body dto.IssueCardRequest true "Card payload"
// @Success 201 {object} response.Envelope
// @Router /students/{id}/cards [post]
func (h *StudentHandler) IssueCard(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.IssueCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	card, err := h.students.IssueCard(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, card)
}

// DeactivateCard godoc
// @Summary Deactivate a card
// @Tags Students
// @Param id path int true "Card ID"
// @Success 204
// @Router /cards/{id} [delete]
func (h *StudentHandler) DeactivateCard(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.students.DeactivateCard(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+name))
		return 0, false
	}
	return id, true
}
