package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gate-violation-api/internal/models"
)

const accessLogDetailSelect = `SELECT l.id, l.student_id, l.student_card_id, l.occurred_at, l.result, l.has_license_plate,
        l.license_plate_number, l.captured_image_path, l.violation_reason, l.student_age, l.metadata, l.created_at, l.updated_at,
        s.student_code, s.full_name AS student_name, s.class_name AS student_class_name, s.birth_date AS student_birth_date, c.card_code
        FROM access_logs l
        LEFT JOIN students s ON s.id = l.student_id
        LEFT JOIN student_cards c ON c.id = l.student_card_id`

// AccessLogRepository is the append-only store of gate events.
type AccessLogRepository struct {
	db *sqlx.DB
}

// NewAccessLogRepository constructs an AccessLogRepository.
func NewAccessLogRepository(db *sqlx.DB) *AccessLogRepository {
	return &AccessLogRepository{db: db}
}

// Create inserts one event as a single statement and fills the generated ID.
func (r *AccessLogRepository) Create(ctx context.Context, log *models.AccessLog) error {
	now := time.Now().UTC()
	log.CreatedAt = now
	log.UpdatedAt = now
	if log.Metadata == nil {
		log.Metadata = models.Metadata{}
	}
	const query = `INSERT INTO access_logs (student_id, student_card_id, occurred_at, result, has_license_plate, license_plate_number,
        captured_image_path, violation_reason, student_age, metadata, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		log.StudentID, log.StudentCardID, log.OccurredAt, log.Result, log.HasLicensePlate, log.LicensePlateNumber,
		log.CapturedImagePath, log.ViolationReason, log.StudentAge, log.Metadata, log.CreatedAt, log.UpdatedAt,
	).Scan(&log.ID)
	if err != nil {
		return fmt.Errorf("create access log: %w", err)
	}
	return nil
}

// List returns events newest first with the owning student and card joined.
func (r *AccessLogRepository) List(ctx context.Context, filter models.AccessLogFilter) ([]models.AccessLogDetail, int, error) {
	args := []interface{}{}
	conditions := []string{"1=1"}
	if filter.Result != "" {
		conditions = append(conditions, fmt.Sprintf("l.result = $%d", len(args)+1))
		args = append(args, filter.Result)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("l.occurred_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("l.occurred_at <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.full_name) LIKE $%d OR LOWER(s.student_code) LIKE $%d OR LOWER(l.metadata->>'card_code') LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	where := strings.Join(conditions, " AND ")
	page, size := normalisePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("%s WHERE %s ORDER BY l.occurred_at DESC, l.id DESC LIMIT %d OFFSET %d", accessLogDetailSelect, where, size, (page-1)*size)
	var logs []models.AccessLogDetail
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list access logs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM access_logs l LEFT JOIN students s ON s.id = l.student_id WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count access logs: %w", err)
	}
	return logs, total, nil
}

// ViolationsBetween returns violations inside [from, to] in chronological order.
func (r *AccessLogRepository) ViolationsBetween(ctx context.Context, from, to time.Time) ([]models.AccessLogDetail, error) {
	query := accessLogDetailSelect + " WHERE l.result = $1 AND l.occurred_at BETWEEN $2 AND $3 ORDER BY l.occurred_at ASC, l.id ASC"
	var logs []models.AccessLogDetail
	if err := r.db.SelectContext(ctx, &logs, query, models.AccessResultViolation, from, to); err != nil {
		return nil, fmt.Errorf("list violations between: %w", err)
	}
	return logs, nil
}

// RecentViolations returns the latest violations.
func (r *AccessLogRepository) RecentViolations(ctx context.Context, limit int) ([]models.AccessLogDetail, error) {
	if limit <= 0 {
		limit = 10
	}
	query := fmt.Sprintf("%s WHERE l.result = $1 ORDER BY l.occurred_at DESC, l.id DESC LIMIT %d", accessLogDetailSelect, limit)
	var logs []models.AccessLogDetail
	if err := r.db.SelectContext(ctx, &logs, query, models.AccessResultViolation); err != nil {
		return nil, fmt.Errorf("list recent violations: %w", err)
	}
	return logs, nil
}

// CountByResultSince counts events of one result at or after since.
func (r *AccessLogRepository) CountByResultSince(ctx context.Context, result models.AccessResult, since time.Time) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM access_logs WHERE result = $1 AND occurred_at >= $2", result, since); err != nil {
		return 0, fmt.Errorf("count access logs by result: %w", err)
	}
	return total, nil
}

// AverageProcessingTime averages metadata.processing_time_seconds over events that carry it.
func (r *AccessLogRepository) AverageProcessingTime(ctx context.Context) (*float64, error) {
	const query = `SELECT AVG((metadata->>'processing_time_seconds')::numeric) FROM access_logs
        WHERE metadata->>'processing_time_seconds' IS NOT NULL`
	var avg sql.NullFloat64
	if err := r.db.GetContext(ctx, &avg, query); err != nil {
		return nil, fmt.Errorf("average processing time: %w", err)
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}

// LastOccurredAt returns the timestamp of the newest event.
func (r *AccessLogRepository) LastOccurredAt(ctx context.Context) (*time.Time, error) {
	var last sql.NullTime
	if err := r.db.GetContext(ctx, &last, "SELECT MAX(occurred_at) FROM access_logs"); err != nil {
		return nil, fmt.Errorf("last access log: %w", err)
	}
	if !last.Valid {
		return nil, nil
	}
	return &last.Time, nil
}

// CountByScenarioGroup groups all events by the scenario group captured in metadata.
func (r *AccessLogRepository) CountByScenarioGroup(ctx context.Context) (map[string]int, error) {
	const query = `SELECT COALESCE(metadata->>'scenario_group', '') AS scenario_group, COUNT(*) AS total
        FROM access_logs GROUP BY 1 ORDER BY 1`
	var rows []struct {
		Group string `db:"scenario_group"`
		Total int    `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count by scenario group: %w", err)
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Group] = row.Total
	}
	return out, nil
}

// DailyOutcomes counts valid and violation events per UTC day since the given time.
func (r *AccessLogRepository) DailyOutcomes(ctx context.Context, since time.Time) ([]models.DailyOutcome, error) {
	const query = `SELECT TO_CHAR(DATE(occurred_at), 'YYYY-MM-DD') AS day,
        SUM(CASE WHEN result = 'violation' THEN 1 ELSE 0 END) AS violations,
        SUM(CASE WHEN result = 'valid' THEN 1 ELSE 0 END) AS valid
        FROM access_logs WHERE occurred_at >= $1 GROUP BY 1 ORDER BY 1`
	var rows []models.DailyOutcome
	if err := r.db.SelectContext(ctx, &rows, query, since); err != nil {
		return nil, fmt.Errorf("daily outcomes: %w", err)
	}
	return rows, nil
}

// QualityCounts aggregates lifetime counters used for detection quality figures.
func (r *AccessLogRepository) QualityCounts(ctx context.Context) (models.QualityCounts, error) {
	const query = `SELECT COUNT(*) AS total,
        COALESCE(SUM(CASE WHEN result = 'violation' THEN 1 ELSE 0 END), 0) AS violations,
        COALESCE(SUM(CASE WHEN result = 'valid' THEN 1 ELSE 0 END), 0) AS valid,
        COALESCE(SUM(CASE WHEN metadata->>'scenario_group' = 'B' AND result = 'valid' THEN 1 ELSE 0 END), 0) AS missed,
        COALESCE(SUM(CASE WHEN metadata->>'scenario_group' <> 'B' AND result = 'violation' THEN 1 ELSE 0 END), 0) AS false_positives
        FROM access_logs`
	var counts models.QualityCounts
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return models.QualityCounts{}, fmt.Errorf("quality counts: %w", err)
	}
	return counts, nil
}
