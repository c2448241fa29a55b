package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/gate-violation-api/internal/dto"
	"github.com/noah-isme/gate-violation-api/internal/models"
	appErrors "github.com/noah-isme/gate-violation-api/pkg/errors"
)

const (
	statisticsCacheKey = "stats:overview"
	statisticsDays     = 7
)

type statisticsLogReader interface {
	CountByScenarioGroup(ctx context.Context) (map[string]int, error)
	DailyOutcomes(ctx context.Context, since time.Time) ([]models.DailyOutcome, error)
	QualityCounts(ctx context.Context) (models.QualityCounts, error)
	AverageProcessingTime(ctx context.Context) (*float64, error)
}

// StatisticsServiceParams groups constructor dependencies.
type StatisticsServiceParams struct {
	Students studentCounter
	Cards    activeCardCounter
	Logs     statisticsLogReader
	Cache    *CacheService
	Logger   *zap.Logger
	CacheTTL time.Duration
}

// StatisticsService reports detection volumes and quality.
type StatisticsService struct {
	students studentCounter
	cards    activeCardCounter
	logs     statisticsLogReader
	cache    *CacheService
	logger   *zap.Logger
	ttl      time.Duration
	now      func() time.Time
}

// NewStatisticsService constructs a StatisticsService.
func NewStatisticsService(params StatisticsServiceParams) *StatisticsService {
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatisticsService{
		students: params.Students,
		cards:    params.Cards,
		logs:     params.Logs,
		cache:    params.Cache,
		logger:   logger,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Overview returns statistics and whether they came from cache.
func (s *StatisticsService) Overview(ctx context.Context) (*dto.StatisticsResponse, bool, error) {
	if s.cache != nil {
		var cached dto.StatisticsResponse
		if hit, err := s.cache.Get(ctx, statisticsCacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	resp, err := s.compose(ctx)
	if err != nil {
		return nil, false, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, statisticsCacheKey, resp, s.ttl); err != nil {
			s.logger.Warn("statistics cache write failed", zap.Error(err))
		}
	}
	return resp, false, nil
}

func (s *StatisticsService) compose(ctx context.Context) (*dto.StatisticsResponse, error) {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	since := today.AddDate(0, 0, -(statisticsDays - 1))

	totalStudents, err := s.students.Count(ctx)
	if err != nil {
		return nil, s.internal(err, "count students")
	}
	activeCards, err := s.cards.CountActive(ctx)
	if err != nil {
		return nil, s.internal(err, "count active cards")
	}
	groups, err := s.logs.CountByScenarioGroup(ctx)
	if err != nil {
		return nil, s.internal(err, "count by scenario group")
	}
	daily, err := s.logs.DailyOutcomes(ctx, since)
	if err != nil {
		return nil, s.internal(err, "daily outcomes")
	}
	counts, err := s.logs.QualityCounts(ctx)
	if err != nil {
		return nil, s.internal(err, "quality counts")
	}
	avg, err := s.logs.AverageProcessingTime(ctx)
	if err != nil {
		return nil, s.internal(err, "average processing time")
	}

	metrics := QualityFromCounts(counts)
	if avg != nil {
		rounded := roundTo(*avg, 2)
		metrics.AverageProcessingTime = &rounded
	}

	return &dto.StatisticsResponse{
		Stats: dto.StatisticsTotals{
			TotalStudents:   totalStudents,
			ActiveCards:     activeCards,
			ViolationsTotal: counts.Violations,
			ValidTotal:      counts.Valid,
		},
		ViolationsByGroup: groups,
		Daily:             fillDays(daily, since, statisticsDays),
		Metrics:           metrics,
		GeneratedAt:       now,
	}, nil
}

// QualityFromCounts derives accuracy, recall and precision. Every flagged event counts as a true
// positive; missed events are group B entries recorded as valid.
func QualityFromCounts(c models.QualityCounts) dto.QualityMetrics {
	tp := c.Violations
	missed := c.Missed
	fp := c.FalsePositives
	tn := c.Total - tp - missed
	if tn < 0 {
		tn = 0
	}
	return dto.QualityMetrics{
		Accuracy:         percentage(tp+tn, c.Total),
		Recall:           percentage(tp, tp+missed),
		Precision:        percentage(tp, tp+fp),
		TruePositives:    tp,
		TrueNegatives:    tn,
		FalsePositives:   fp,
		MissedViolations: missed,
		TotalChecks:      c.Total,
	}
}

func percentage(num, den int) *float64 {
	if den <= 0 {
		return nil
	}
	v := roundTo(float64(num)/float64(den)*100, 1)
	return &v
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// fillDays returns one entry per day from since, zero-filling days without events.
func fillDays(rows []models.DailyOutcome, since time.Time, days int) []dto.DailyCount {
	byDay := make(map[string]models.DailyOutcome, len(rows))
	for _, row := range rows {
		byDay[row.Day] = row
	}
	out := make([]dto.DailyCount, 0, days)
	for i := 0; i < days; i++ {
		day := since.AddDate(0, 0, i).Format(birthDateLayout)
		row := byDay[day]
		out = append(out, dto.DailyCount{Date: day, Violations: row.Violations, Valid: row.Valid})
	}
	return out
}

func (s *StatisticsService) internal(err error, op string) error {
	s.logger.Error("statistics query failed", zap.String("op", op), zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build statistics")
}
