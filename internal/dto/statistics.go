package dto

import "time"

// StatisticsResponse summarises detection quality and volumes.
type StatisticsResponse struct {
	Stats             StatisticsTotals `json:"stats"`
	ViolationsByGroup map[string]int   `json:"violations_by_group"`
	Daily             []DailyCount     `json:"daily"`
	Metrics           QualityMetrics   `json:"metrics"`
	GeneratedAt       time.Time        `json:"generated_at"`
}

// StatisticsTotals are lifetime counters.
type StatisticsTotals struct {
	TotalStudents   int `json:"total_students"`
	ActiveCards     int `json:"active_cards"`
	ViolationsTotal int `json:"violations_total"`
	ValidTotal      int `json:"valid_total"`
}

// DailyCount holds per-day outcome counts.
type DailyCount struct {
	Date       string `json:"date"`
	Violations int    `json:"violations"`
	Valid      int    `json:"valid"`
}

// QualityMetrics are percentages rounded to one decimal. Nil means the denominator was zero.
type QualityMetrics struct {
	Accuracy              *float64 `json:"accuracy"`
	Recall                *float64 `json:"recall"`
	Precision             *float64 `json:"precision"`
	AverageProcessingTime *float64 `json:"average_processing_time"`
	TruePositives         int      `json:"true_positives"`
	TrueNegatives         int      `json:"true_negatives"`
	FalsePositives        int      `json:"false_positives"`
	MissedViolations      int      `json:"missed_violations"`
	TotalChecks           int      `json:"total_checks"`
}
