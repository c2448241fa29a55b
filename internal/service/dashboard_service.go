package service

import (
	"context"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/noah-isme/gate-violation-api/internal/dto"
	"github.com/noah-isme/gate-violation-api/internal/models"
	appErrors "github.com/noah-isme/gate-violation-api/pkg/errors"
)

const (
	dashboardCacheKey      = "dash:overview"
	dashboardRecentLimit   = 10
	dashboardWindow        = 7 * 24 * time.Hour
	displayTimestampLayout = "02/01/2006 15:04:05"
	defaultDisplayTimezone = "Asia/Ho_Chi_Minh"
)

type studentCounter interface {
	Count(ctx context.Context) (int, error)
}

type activeCardCounter interface {
	CountActive(ctx context.Context) (int, error)
}

type dashboardLogReader interface {
	CountByResultSince(ctx context.Context, result models.AccessResult, since time.Time) (int, error)
	AverageProcessingTime(ctx context.Context) (*float64, error)
	LastOccurredAt(ctx context.Context) (*time.Time, error)
	RecentViolations(ctx context.Context, limit int) ([]models.AccessLogDetail, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
	Timezone string
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Students studentCounter
	Cards    activeCardCounter
	Logs     dashboardLogReader
	Cache    *CacheService
	Logger   *zap.Logger
	Config   DashboardServiceConfig
}

// DashboardService composes the staff landing page.
type DashboardService struct {
	students studentCounter
	cards    activeCardCounter
	logs     dashboardLogReader
	cache    *CacheService
	logger   *zap.Logger
	location *time.Location
	now      func() time.Time
	cfg      DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, tz := LoadDisplayLocation(cfg.Timezone, logger)
	cfg.Timezone = tz
	return &DashboardService{
		students: params.Students,
		cards:    params.Cards,
		logs:     params.Logs,
		cache:    params.Cache,
		logger:   logger,
		location: loc,
		now:      time.Now,
		cfg:      cfg,
	}
}

// LoadDisplayLocation resolves the display timezone, falling back to Asia/Ho_Chi_Minh and then UTC.
func LoadDisplayLocation(name string, logger *zap.Logger) (*time.Location, string) {
	if name == "" {
		name = defaultDisplayTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		if logger != nil {
			logger.Warn("unknown display timezone, using UTC", zap.String("timezone", name), zap.Error(err))
		}
		return time.UTC, "UTC"
	}
	return loc, name
}

// Overview returns the dashboard payload and whether it came from cache.
func (s *DashboardService) Overview(ctx context.Context) (*dto.DashboardResponse, bool, error) {
	if cached, hit := s.tryCache(ctx); hit {
		return cached, true, nil
	}
	summary, err := s.compose(ctx)
	if err != nil {
		return nil, false, err
	}
	s.persistCache(ctx, summary)
	return summary, false, nil
}

func (s *DashboardService) compose(ctx context.Context) (*dto.DashboardResponse, error) {
	now := s.now()
	since := now.Add(-dashboardWindow)

	totalStudents, err := s.students.Count(ctx)
	if err != nil {
		return nil, s.internal(err, "count students")
	}
	activeCards, err := s.cards.CountActive(ctx)
	if err != nil {
		return nil, s.internal(err, "count active cards")
	}
	weekly, err := s.logs.CountByResultSince(ctx, models.AccessResultViolation, since)
	if err != nil {
		return nil, s.internal(err, "count weekly violations")
	}
	avg, err := s.logs.AverageProcessingTime(ctx)
	if err != nil {
		return nil, s.internal(err, "average processing time")
	}
	last, err := s.logs.LastOccurredAt(ctx)
	if err != nil {
		return nil, s.internal(err, "last sync")
	}
	recent, err := s.logs.RecentViolations(ctx, dashboardRecentLimit)
	if err != nil {
		return nil, s.internal(err, "recent violations")
	}

	stats := dto.DashboardStats{
		TotalStudents:         totalStudents,
		ActiveCards:           activeCards,
		WeeklyViolations:      weekly,
		AverageProcessingTime: avg,
	}
	if last != nil {
		formatted := last.In(s.location).Format(time.RFC3339)
		stats.LastSyncAt = &formatted
	}

	feed := make([]dto.RecentViolation, 0, len(recent))
	for _, log := range recent {
		feed = append(feed, s.recentViolation(log, now))
	}

	return &dto.DashboardResponse{
		Stats:            stats,
		RecentViolations: feed,
		ExportDefaults:   DefaultExportRange(now.In(s.location)),
		Timezone:         s.cfg.Timezone,
		GeneratedAt:      now.UTC(),
	}, nil
}

func (s *DashboardService) recentViolation(log models.AccessLogDetail, now time.Time) dto.RecentViolation {
	occurred := log.OccurredAt.In(s.location)
	item := dto.RecentViolation{
		ID:                 log.ID,
		StudentCode:        log.StudentCode,
		FullName:           log.StudentName,
		ClassName:          log.StudentClassName,
		OccurredAt:         occurred.Format(time.RFC3339),
		OccurredAtDisplay:  occurred.Format(displayTimestampLayout),
		LicensePlateNumber: log.LicensePlateNumber,
		HasLicensePlate:    log.HasLicensePlate,
		ViolationReason:    log.ViolationReason,
		ImageURL:           log.CapturedImagePath,
	}
	if log.StudentID != nil {
		item.Age = Classify(log.StudentBirthDate, now).Age
	}
	return item
}

// DefaultExportRange is the last seven days ending today.
func DefaultExportRange(today time.Time) dto.DateRange {
	return dto.DateRange{
		StartDate: today.AddDate(0, 0, -7).Format(birthDateLayout),
		EndDate:   today.Format(birthDateLayout),
	}
}

func (s *DashboardService) internal(err error, op string) error {
	s.logger.Error("dashboard query failed", zap.String("op", op), zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build dashboard")
}

func (s *DashboardService) tryCache(ctx context.Context) (*dto.DashboardResponse, bool) {
	if s.cache == nil {
		return nil, false
	}
	var cached dto.DashboardResponse
	hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached)
	if err != nil || !hit {
		return nil, false
	}
	return &cached, true
}

func (s *DashboardService) persistCache(ctx context.Context, value *dto.DashboardResponse) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, dashboardCacheKey, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", dashboardCacheKey), zap.Error(err))
	}
}
