package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gate-violation-api/internal/models"
)

func TestQualityFromCounts(t *testing.T) {
	metrics := QualityFromCounts(models.QualityCounts{Total: 20, Violations: 8, Valid: 12, Missed: 2, FalsePositives: 1})
	require.NotNil(t, metrics.Accuracy)
	assert.Equal(t, 90.0, *metrics.Accuracy)
	assert.Equal(t, 80.0, *metrics.Recall)
	assert.Equal(t, 88.9, *metrics.Precision)
	assert.Equal(t, 8, metrics.TruePositives)
	assert.Equal(t, 10, metrics.TrueNegatives)
	assert.Equal(t, 20, metrics.TotalChecks)
}

func TestQualityFromCountsZeroDenominators(t *testing.T) {
	metrics := QualityFromCounts(models.QualityCounts{})
	assert.Nil(t, metrics.Accuracy)
	assert.Nil(t, metrics.Recall)
	assert.Nil(t, metrics.Precision)
}

func TestStatisticsOverviewFillsDays(t *testing.T) {
	avg := 0.4567
	logs := &stubLogStats{
		avg:     &avg,
		groups:  map[string]int{"A": 3, "B": 5},
		daily:   []models.DailyOutcome{{Day: "2025-05-28", Violations: 2, Valid: 1}, {Day: "2025-06-01", Violations: 1}},
		quality: models.QualityCounts{Total: 8, Violations: 3, Valid: 5, Missed: 1},
	}
	cacheRepo := &memoryCacheRepo{}
	svc := NewStatisticsService(StatisticsServiceParams{
		Students: &stubCounter{n: 10},
		Cards:    &stubCounter{n: 9},
		Logs:     logs,
		Cache:    NewCacheService(cacheRepo, nil, time.Minute, nil, true),
	})
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC) }

	res, hit, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, res.Daily, 7)
	assert.Equal(t, "2025-05-26", res.Daily[0].Date)
	assert.Equal(t, "2025-06-01", res.Daily[6].Date)
	assert.Equal(t, 2, res.Daily[2].Violations)
	assert.Equal(t, 0, res.Daily[3].Violations)
	assert.Equal(t, 1, res.Daily[6].Violations)
	assert.Equal(t, 3, res.Stats.ViolationsTotal)
	assert.Equal(t, 5, res.ViolationsByGroup["B"])
	assert.Equal(t, 0.46, *res.Metrics.AverageProcessingTime)
	assert.Contains(t, cacheRepo.entries, statisticsCacheKey)

	_, hit, err = svc.Overview(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
}
