package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gate-violation-api/internal/dto"
	"github.com/noah-isme/gate-violation-api/internal/models"
	appErrors "github.com/noah-isme/gate-violation-api/pkg/errors"
)

const birthDateLayout = "2006-01-02"

// CheckService answers identity questions from the gate camera without writing anything.
type CheckService struct {
	resolver  identityResolver
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewCheckService constructs a CheckService.
func NewCheckService(resolver identityResolver, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *CheckService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckService{resolver: resolver, metrics: metrics, validator: validate, logger: logger, now: time.Now}
}

// Check resolves a scanned code and classifies the student's age today.
func (s *CheckService) Check(ctx context.Context, req dto.CheckRequest) (*dto.CheckStudent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailure(err)
	}
	code := strings.TrimSpace(req.CardCode)
	student, err := s.resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("No student found with code: %s", code))
	}

	verdict := Classify(student.BirthDate, s.now())
	dob := formatBirthDate(student.BirthDate)
	return &dto.CheckStudent{
		ID:          student.ID,
		CardCode:    code,
		FullName:    student.FullName,
		DateOfBirth: dob,
		DOB:         dob,
		ClassName:   student.ClassName,
		Class:       student.ClassName,
		StudentCode: student.StudentCode,
		Gender:      genderText(student.Gender),
		Age:         verdict.Age,
		AgeYears:    verdict.Age,
		IsUnder16:   verdict.IsUnder16,
	}, nil
}

// Lookup backs the camera's student fetch by card code.
func (s *CheckService) Lookup(ctx context.Context, code string) (*dto.StudentLookup, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "No student found with card code: ")
	}
	student, err := s.resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("No student found with card code: %s", code))
	}
	dob := formatBirthDate(student.BirthDate)
	return &dto.StudentLookup{
		ID:          student.ID,
		CardCode:    code,
		FullName:    student.FullName,
		DateOfBirth: dob,
		DOB:         dob,
		ClassName:   student.ClassName,
		Class:       student.ClassName,
		Lop:         student.ClassName,
		StudentCode: student.StudentCode,
		Gender:      genderText(student.Gender),
		Age:         CurrentAge(student, s.now()),
	}, nil
}

func (s *CheckService) resolve(ctx context.Context, code string) (*models.Student, error) {
	resolution, err := s.resolver.Resolve(ctx, ResolveQuery{Code: code})
	if err != nil {
		s.logger.Error("identity lookup failed", zap.String("code", code), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to look up student")
	}
	s.metrics.RecordResolution(resolution.Strategy)
	return resolution.Student, nil
}

func formatBirthDate(birth *time.Time) *string {
	if birth == nil || birth.IsZero() {
		return nil
	}
	out := birth.Format(birthDateLayout)
	return &out
}

func genderText(g *models.Gender) *string {
	if g == nil {
		return nil
	}
	out := string(*g)
	return &out
}
