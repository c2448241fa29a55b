package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gate-violation-api/internal/dto"
	"github.com/noah-isme/gate-violation-api/internal/models"
	appErrors "github.com/noah-isme/gate-violation-api/pkg/errors"
)

// Cache key patterns invalidated after every recorded event.
const (
	dashboardCachePattern  = "dash:*"
	statisticsCachePattern = "stats:*"
)

type identityResolver interface {
	Resolve(ctx context.Context, q ResolveQuery) (Resolution, error)
}

type accessLogWriter interface {
	Create(ctx context.Context, log *models.AccessLog) error
}

type evidenceStorer interface {
	Store(ctx context.Context, file *dto.EvidenceFile, cardCode string) (string, error)
}

// ViolationServiceParams groups constructor dependencies.
type ViolationServiceParams struct {
	Resolver  identityResolver
	Logs      accessLogWriter
	Evidence  evidenceStorer
	Cache     *CacheService
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
}

// ViolationService is the single write path for gate events.
type ViolationService struct {
	resolver  identityResolver
	logs      accessLogWriter
	evidence  evidenceStorer
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewViolationService constructs a ViolationService.
func NewViolationService(params ViolationServiceParams) *ViolationService {
	validate := params.Validator
	if validate == nil {
		validate = NewValidator()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViolationService{
		resolver:  params.Resolver,
		logs:      params.Logs,
		evidence:  params.Evidence,
		cache:     params.Cache,
		metrics:   params.Metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Ingest validates the event, resolves the student, stores evidence best-effort and writes one access log.
// Validation failures return a 422 with no side effects; persistence failures return a 500 and write nothing.
func (s *ViolationService) Ingest(ctx context.Context, req dto.ViolationRequest, image *dto.EvidenceFile) (*dto.ViolationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailure(err)
	}
	studentID, err := dto.OptionalInt64(req.StudentID)
	if err != nil {
		return nil, fieldError("student_id", "The student_id field must be an integer.")
	}
	callerAge, err := dto.OptionalFloat(req.StudentAge)
	if err != nil {
		return nil, fieldError("student_age", "The student_age field must be a number.")
	}
	processingTime, _ := dto.OptionalFloat(req.ProcessingTimeSeconds)

	now := s.now()
	cardCode := strings.TrimSpace(req.CardCode)
	hasPlate := dto.ParseLenientBool(req.HasPlate)
	isViolation := dto.ParseLenientBool(req.IsViolation)
	occurredAt := dto.ParseTimestamp(req.Timestamp, now)

	resolution, err := s.resolver.Resolve(ctx, ResolveQuery{Code: cardCode, StudentID: studentID})
	if err != nil {
		s.logger.Error("identity resolution failed", zap.String("card_code", cardCode), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to resolve student")
	}
	s.metrics.RecordResolution(resolution.Strategy)
	student := resolution.Student

	imagePath := s.storeEvidence(ctx, image, cardCode)

	result := models.AccessResultValid
	if isViolation {
		result = models.AccessResultViolation
	}

	var age *int
	switch {
	case callerAge != nil:
		rounded := int(math.Round(*callerAge))
		age = &rounded
	case student != nil:
		age = Classify(student.BirthDate, now).Age
	}

	log := &models.AccessLog{
		OccurredAt:         occurredAt,
		Result:             result,
		HasLicensePlate:    hasPlate,
		LicensePlateNumber: optionalString(req.LicensePlateNumber),
		CapturedImagePath:  imagePath,
		StudentAge:         age,
		Metadata:           buildMetadata(req, cardCode, student, age, processingTime, now),
	}
	if student != nil {
		log.StudentID = &student.ID
	}
	if resolution.Card != nil {
		log.StudentCardID = &resolution.Card.ID
	}
	if isViolation {
		reason := violationReason(student, age)
		log.ViolationReason = &reason
	}

	if err := s.logs.Create(ctx, log); err != nil {
		s.logger.Error("access log insert failed",
			zap.String("card_code", cardCode),
			zap.String("result", string(result)),
			zap.Bool("has_plate", hasPlate),
			zap.Error(err),
		)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to record access log")
	}

	s.logger.Info("access log recorded",
		zap.Int64("access_log_id", log.ID),
		zap.String("result", string(result)),
		zap.String("card_code", cardCode),
		zap.String("strategy", resolution.Strategy),
		zap.Bool("has_image", imagePath != nil),
	)
	s.metrics.RecordIngestion(string(result))
	s.cache.InvalidateAll(ctx, dashboardCachePattern, statisticsCachePattern)

	out := &dto.ViolationResult{
		AccessLogID: log.ID,
		Result:      string(result),
		OccurredAt:  occurredAt,
		ImagePath:   imagePath,
	}
	if student != nil {
		out.Student = &dto.StudentBrief{
			ID:        student.ID,
			FullName:  student.FullName,
			ClassName: student.ClassName,
			Age:       CurrentAge(student, now),
		}
	}
	return out, nil
}

func (s *ViolationService) storeEvidence(ctx context.Context, image *dto.EvidenceFile, cardCode string) *string {
	if image == nil || s.evidence == nil {
		return nil
	}
	ref, err := s.evidence.Store(ctx, image, cardCode)
	if err != nil {
		reason := EvidenceWriteFailed
		var evErr *EvidenceError
		if errors.As(err, &evErr) {
			reason = evErr.Reason
		}
		s.metrics.RecordEvidence(reason)
		s.logger.Warn("evidence image dropped",
			zap.String("card_code", cardCode),
			zap.String("filename", image.Filename),
			zap.String("reason", reason),
			zap.Error(err),
		)
		return nil
	}
	if ref == "" {
		return nil
	}
	s.metrics.RecordEvidence("")
	return &ref
}

// ViolationReason renders the human readable reason stored with a violation.
func violationReason(student *models.Student, age *int) string {
	if student == nil {
		return "Student under 16 operated a vehicle with a license plate"
	}
	ageText := "N/A"
	if age != nil {
		ageText = strconv.Itoa(*age)
	}
	return fmt.Sprintf("Student %s (%s years old) operated a vehicle with a license plate while under 16", student.FullName, ageText)
}

func buildMetadata(req dto.ViolationRequest, cardCode string, student *models.Student, age *int, processingTime *float64, now time.Time) models.Metadata {
	meta := models.Metadata{
		models.MetaCardCode:     cardCode,
		models.MetaStudentName:  firstNonEmpty(studentField(student, func(s *models.Student) string { return s.FullName }), req.StudentName),
		models.MetaStudentClass: firstNonEmpty(studentField(student, func(s *models.Student) string { return s.ClassName }), req.StudentClass),
		models.MetaDetectedAt:   now.Format(time.RFC3339),
	}
	if student != nil {
		meta[models.MetaScenarioGroup] = string(student.ScenarioGroup)
	} else {
		meta[models.MetaScenarioGroup] = nil
	}
	if age != nil {
		meta[models.MetaAgeSnapshot] = *age
	} else {
		meta[models.MetaAgeSnapshot] = nil
	}
	if processingTime != nil {
		meta[models.MetaProcessingTimeSeconds] = *processingTime
	}
	if note := strings.TrimSpace(req.Note); note != "" {
		meta[models.MetaNote] = note
	}
	return meta
}

func studentField(student *models.Student, pick func(*models.Student) string) string {
	if student == nil {
		return ""
	}
	return pick(student)
}

// firstNonEmpty returns the first non-blank value, or nil when all are blank.
func firstNonEmpty(values ...string) interface{} {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return nil
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
