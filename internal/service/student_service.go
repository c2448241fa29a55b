package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gate-violation-api/internal/dto"
	"github.com/noah-isme/gate-violation-api/internal/models"
	appErrors "github.com/noah-isme/gate-violation-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentSummary, int, error)
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
}

type cardRepository interface {
	FindByID(ctx context.Context, id int64) (*models.StudentCard, error)
	ListByStudent(ctx context.Context, studentID int64) ([]models.StudentCard, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, card *models.StudentCard) error
	Deactivate(ctx context.Context, id int64) error
}

var genderInputs = map[string]models.Gender{
	"nam":    models.GenderMale,
	"male":   models.GenderMale,
	"nữ":     models.GenderFemale,
	"female": models.GenderFemale,
	"khác":   models.GenderOther,
	"other":  models.GenderOther,
}

var genderLabels = map[models.Gender]string{
	models.GenderMale:   "Nam",
	models.GenderFemale: "Nữ",
	models.GenderOther:  "Khác",
}

// StudentService handles student and card administration.
type StudentService struct {
	repo      studentRepository
	cards     cardRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, cards cardRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, cards: cards, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// List returns students ordered by name with access activity counters.
func (s *StudentService) List(ctx context.Context, query dto.StudentListQuery) ([]dto.StudentListItem, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, validationFailure(err)
	}
	filter := models.StudentFilter{
		Search:        strings.TrimSpace(query.Search),
		ClassName:     strings.TrimSpace(query.ClassName),
		ScenarioGroup: models.ScenarioGroup(query.ScenarioGroup),
		Page:          query.Page,
		PageSize:      query.PageSize,
	}
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	now := s.now()
	items := make([]dto.StudentListItem, 0, len(students))
	for _, student := range students {
		items = append(items, dto.StudentListItem{
			ID:             student.ID,
			StudentCode:    student.StudentCode,
			FullName:       student.FullName,
			ClassName:      student.ClassName,
			Age:            CurrentAge(&student.Student, now),
			Gender:         genderLabel(student.Gender),
			ContactPhone:   student.ContactPhone,
			GuardianPhone:  student.GuardianPhone,
			Notes:          student.Notes,
			ScenarioGroup:  string(student.ScenarioGroup),
			IsUnderage:     student.IsUnderage,
			ViolationCount: student.ViolationCount,
			ValidCount:     student.ValidCount,
			LastActivityAt: student.LastActivityAt,
		})
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a student with live age and all cards.
func (s *StudentService) Get(ctx context.Context, id int64) (*dto.StudentDetail, error) {
	student, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	cards, err := s.cards.ListByStudent(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cards")
	}
	if cards == nil {
		cards = []models.StudentCard{}
	}
	return &dto.StudentDetail{Student: *student, Age: CurrentAge(student, s.now()), Cards: cards}, nil
}

// Create registers a student. is_underage is computed once here and never recomputed.
func (s *StudentService) Create(ctx context.Context, req dto.CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailure(err)
	}
	now := s.now()
	birth, err := time.Parse(birthDateLayout, req.BirthDate)
	if err != nil || !birth.Before(startOfDay(now)) {
		return nil, fieldError("birth_date", "The birth_date field must be a date before today.")
	}
	code := strings.TrimSpace(req.StudentCode)
	exists, err := s.repo.ExistsByCode(ctx, code, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate student code")
	}
	if exists {
		return nil, fieldError("student_code", "The student_code has already been taken.")
	}

	enrolled := startOfDay(now)
	if req.EnrolledAt != "" {
		if parsed, err := time.Parse(birthDateLayout, req.EnrolledAt); err == nil {
			enrolled = parsed
		}
	}
	student := &models.Student{
		StudentCode:   code,
		FullName:      strings.TrimSpace(req.FullName),
		ClassName:     strings.TrimSpace(req.ClassName),
		BirthDate:     &birth,
		Gender:        normaliseGender(req.Gender),
		ContactPhone:  req.ContactPhone,
		GuardianName:  req.GuardianName,
		GuardianPhone: req.GuardianPhone,
		Notes:         req.Notes,
		ScenarioGroup: models.ScenarioGroup(req.ScenarioGroup),
		IsUnderage:    AgeOn(birth, now) < UnderageThreshold,
		EnrolledAt:    &enrolled,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.logger.Info("student created", zap.Int64("student_id", student.ID), zap.String("student_code", student.StudentCode))
	s.cache.InvalidateAll(ctx, dashboardCachePattern, statisticsCachePattern)
	return student, nil
}

// Update patches mutable fields. The student code and is_underage snapshot never change.
func (s *StudentService) Update(ctx context.Context, id int64, req dto.UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailure(err)
	}
	student, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FullName != nil {
		student.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.ClassName != nil {
		student.ClassName = strings.TrimSpace(*req.ClassName)
	}
	if req.BirthDate != nil {
		birth, err := time.Parse(birthDateLayout, *req.BirthDate)
		if err != nil || !birth.Before(startOfDay(s.now())) {
			return nil, fieldError("birth_date", "The birth_date field must be a date before today.")
		}
		student.BirthDate = &birth
	}
	if req.Gender != nil {
		student.Gender = normaliseGender(*req.Gender)
	}
	if req.ContactPhone != nil {
		student.ContactPhone = req.ContactPhone
	}
	if req.GuardianName != nil {
		student.GuardianName = req.GuardianName
	}
	if req.GuardianPhone != nil {
		student.GuardianPhone = req.GuardianPhone
	}
	if req.Notes != nil {
		student.Notes = req.Notes
	}
	if req.ScenarioGroup != nil {
		student.ScenarioGroup = models.ScenarioGroup(*req.ScenarioGroup)
	}
	if err := s.repo.Update(ctx, student); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// ListCards returns every card issued to a student, newest first.
func (s *StudentService) ListCards(ctx context.Context, studentID int64) ([]models.StudentCard, error) {
	if _, err := s.load(ctx, studentID); err != nil {
		return nil, err
	}
	cards, err := s.cards.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cards")
	}
	if cards == nil {
		cards = []models.StudentCard{}
	}
	return cards, nil
}

// IssueCard assigns a new active credential. Card codes are globally unique.
func (s *StudentService) IssueCard(ctx context.Context, studentID int64, req dto.IssueCardRequest) (*models.StudentCard, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailure(err)
	}
	if _, err := s.load(ctx, studentID); err != nil {
		return nil, err
	}
	code := strings.TrimSpace(req.CardCode)
	exists, err := s.cards.ExistsByCode(ctx, code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate card code")
	}
	if exists {
		return nil, fieldError("card_code", "The card_code has already been taken.")
	}
	card := &models.StudentCard{
		StudentID: studentID,
		CardCode:  code,
		CardType:  models.CardType(req.CardType),
		IsActive:  true,
	}
	if req.ExpiresAt != "" {
		if expires, err := time.Parse(birthDateLayout, req.ExpiresAt); err == nil {
			card.ExpiresAt = &expires
		}
	}
	if err := s.cards.Create(ctx, card); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue card")
	}
	s.logger.Info("card issued", zap.Int64("student_id", studentID), zap.String("card_code", code))
	s.cache.InvalidateAll(ctx, dashboardCachePattern, statisticsCachePattern)
	return card, nil
}

// DeactivateCard removes a card from lookups. Cards are never deleted.
func (s *StudentService) DeactivateCard(ctx context.Context, cardID int64) error {
	if _, err := s.cards.FindByID(ctx, cardID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "card not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load card")
	}
	if err := s.cards.Deactivate(ctx, cardID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "card not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate card")
	}
	s.logger.Info("card deactivated", zap.Int64("card_id", cardID))
	s.cache.InvalidateAll(ctx, dashboardCachePattern, statisticsCachePattern)
	return nil
}

func (s *StudentService) load(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func normaliseGender(value string) *models.Gender {
	g, ok := genderInputs[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return nil
	}
	return &g
}

func genderLabel(g *models.Gender) *string {
	if g == nil {
		return nil
	}
	label, ok := genderLabels[*g]
	if !ok {
		label = string(*g)
	}
	return &label
}

func fieldError(field, message string) *appErrors.Error {
	return appErrors.WithFields(appErrors.Clone(appErrors.ErrUnprocessable, "Validation failed"), map[string][]string{field: {message}})
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
