package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gate-violation-api/internal/dto"
	"github.com/noah-isme/gate-violation-api/internal/models"
	appErrors "github.com/noah-isme/gate-violation-api/pkg/errors"
	"github.com/noah-isme/gate-violation-api/pkg/export"
)

const (
	unknownLabel       = "Unknown"
	exportRowTimestamp = "02/01/2006 15:04"
)

// Export column headers, in display order.
const (
	colOccurredAt  = "Time"
	colStudentName = "Student"
	colStudentCode = "Code"
	colClass       = "Class"
	colAge         = "Age"
	colPlate       = "License plate"
	colReason      = "Reason"
	colImage       = "Evidence"
)

type violationLogReader interface {
	List(ctx context.Context, filter models.AccessLogFilter) ([]models.AccessLogDetail, int, error)
	ViolationsBetween(ctx context.Context, from, to time.Time) ([]models.AccessLogDetail, error)
}

type evidenceReader interface {
	Read(ref string) ([]byte, bool)
}

type tableRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type reportRenderer interface {
	RenderReport(report export.Report) ([]byte, error)
}

// ReportServiceParams groups constructor dependencies.
type ReportServiceParams struct {
	Logs      violationLogReader
	Images    evidenceReader
	CSV       tableRenderer
	PDF       reportRenderer
	Validator *validator.Validate
	Logger    *zap.Logger
	Timezone  string
}

// ReportService lists violations and renders downloadable reports.
type ReportService struct {
	logs      violationLogReader
	images    evidenceReader
	csv       tableRenderer
	pdf       reportRenderer
	validator *validator.Validate
	logger    *zap.Logger
	location  *time.Location
	now       func() time.Time
}

// NewReportService constructs the report service.
func NewReportService(params ReportServiceParams) *ReportService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = NewValidator()
	}
	csv := params.CSV
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	pdf := params.PDF
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	loc, _ := LoadDisplayLocation(params.Timezone, logger)
	return &ReportService{
		logs:      params.Logs,
		images:    params.Images,
		csv:       csv,
		pdf:       pdf,
		validator: validate,
		logger:    logger,
		location:  loc,
		now:       time.Now,
	}
}

// List returns access logs newest first with the owning student summarised.
func (s *ReportService) List(ctx context.Context, query dto.ViolationListQuery) ([]dto.ViolationListItem, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, validationFailure(err)
	}
	filter := models.AccessLogFilter{
		Result:   models.AccessResult(query.Result),
		Search:   strings.TrimSpace(query.Search),
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if query.StartDate != "" {
		from := s.parseDay(query.StartDate)
		filter.From = &from
	}
	if query.EndDate != "" {
		to := endOfDay(s.parseDay(query.EndDate))
		filter.To = &to
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	logs, total, err := s.logs.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list violations")
	}
	now := s.now()
	items := make([]dto.ViolationListItem, 0, len(logs))
	for _, log := range logs {
		item := dto.ViolationListItem{
			ID:                 log.ID,
			OccurredAt:         log.OccurredAt.In(s.location),
			Result:             string(log.Result),
			HasLicensePlate:    log.HasLicensePlate,
			LicensePlateNumber: log.LicensePlateNumber,
			ViolationReason:    log.ViolationReason,
			ImageURL:           log.CapturedImagePath,
			Metadata:           log.Metadata,
		}
		if log.StudentID != nil {
			item.Student = &dto.ViolationStudent{
				ID:          *log.StudentID,
				StudentCode: deref(log.StudentCode),
				FullName:    deref(log.StudentName),
				ClassName:   deref(log.StudentClassName),
				Age:         Classify(log.StudentBirthDate, now).Age,
			}
		}
		items = append(items, item)
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// ExportPDF renders violations in the requested range with evidence thumbnails.
func (s *ReportService) ExportPDF(ctx context.Context, query dto.ExportQuery) (*dto.ExportFile, error) {
	from, to, err := s.exportRange(query)
	if err != nil {
		return nil, err
	}
	logs, err := s.logs.ViolationsBetween(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load violations")
	}
	summary := summarise(logs)
	data := s.dataset(logs, true)

	images := make([][]byte, len(logs))
	for i, log := range logs {
		images[i] = s.evidence(log)
	}

	report := export.Report{
		Title:       "Violation report",
		Subtitle:    fmt.Sprintf("%s - %s (generated %s)", from.Format("02/01/2006"), to.Format("02/01/2006"), s.now().In(s.location).Format(exportRowTimestamp)),
		Summary:     summaryLines(summary),
		Data:        data,
		ImageHeader: colImage,
		Images:      images,
		Widths:      map[string]float64{colOccurredAt: 26, colStudentCode: 18, colClass: 14, colAge: 10, colImage: 34},
	}
	content, err := s.pdf.RenderReport(report)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	s.logger.Info("violation pdf exported", zap.Int("rows", len(logs)), zap.Time("from", from), zap.Time("to", to))
	return &dto.ExportFile{
		Filename:    exportFilename(from, to, "pdf"),
		ContentType: "application/pdf",
		Content:     content,
		Summary:     summary,
	}, nil
}

// ExportCSV renders violations in the requested range as CSV with image references.
func (s *ReportService) ExportCSV(ctx context.Context, query dto.ExportQuery) (*dto.ExportFile, error) {
	from, to, err := s.exportRange(query)
	if err != nil {
		return nil, err
	}
	logs, err := s.logs.ViolationsBetween(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load violations")
	}
	content, err := s.csv.Render(s.dataset(logs, false))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return &dto.ExportFile{
		Filename:    exportFilename(from, to, "csv"),
		ContentType: "text/csv; charset=utf-8",
		Content:     content,
		Summary:     summarise(logs),
	}, nil
}

// exportRange defaults to the last seven days and swaps reversed bounds.
func (s *ReportService) exportRange(query dto.ExportQuery) (time.Time, time.Time, error) {
	if err := s.validator.Struct(query); err != nil {
		return time.Time{}, time.Time{}, validationFailure(err)
	}
	now := s.now().In(s.location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
	from := today.AddDate(0, 0, -7)
	to := today
	if query.StartDate != "" {
		from = s.parseDay(query.StartDate)
	}
	if query.EndDate != "" {
		to = s.parseDay(query.EndDate)
	}
	if from.After(to) {
		from, to = to, from
	}
	return from, endOfDay(to), nil
}

func (s *ReportService) parseDay(value string) time.Time {
	day, err := time.ParseInLocation(birthDateLayout, value, s.location)
	if err != nil {
		now := s.now().In(s.location)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
	}
	return day
}

func (s *ReportService) dataset(logs []models.AccessLogDetail, withImage bool) export.Dataset {
	headers := []string{colOccurredAt, colStudentName, colStudentCode, colClass, colAge, colPlate, colReason, colImage}
	now := s.now()
	rows := make([]map[string]string, 0, len(logs))
	for _, log := range logs {
		row := map[string]string{
			colOccurredAt:  log.OccurredAt.In(s.location).Format(exportRowTimestamp),
			colStudentName: orDefault(log.StudentName, unknownLabel),
			colStudentCode: orDefault(log.StudentCode, "N/A"),
			colClass:       orDefault(log.StudentClassName, unknownLabel),
			colAge:         ageText(exportAge(log, now)),
			colPlate:       plateText(log),
			colReason:      reasonText(log),
			colImage:       "",
		}
		if log.CapturedImagePath != nil {
			row[colImage] = *log.CapturedImagePath
		}
		if withImage && row[colImage] == "" {
			row[colImage] = "-"
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

// evidence loads the stored image for a row; the renderer thumbnails it.
func (s *ReportService) evidence(log models.AccessLogDetail) []byte {
	if s.images == nil || log.CapturedImagePath == nil {
		return nil
	}
	raw, ok := s.images.Read(*log.CapturedImagePath)
	if !ok {
		s.logger.Debug("evidence image missing", zap.Int64("access_log_id", log.ID), zap.String("path", *log.CapturedImagePath))
		return nil
	}
	return raw
}

func summarise(logs []models.AccessLogDetail) dto.ExportSummary {
	students := map[int64]struct{}{}
	classes := map[string]int{}
	for _, log := range logs {
		if log.StudentID != nil {
			students[*log.StudentID] = struct{}{}
		}
		classes[orDefault(log.StudentClassName, unknownLabel)]++
	}
	byClass := make([]dto.ClassCount, 0, len(classes))
	for name, count := range classes {
		byClass = append(byClass, dto.ClassCount{ClassName: name, Count: count})
	}
	sort.Slice(byClass, func(i, j int) bool {
		if byClass[i].Count == byClass[j].Count {
			return byClass[i].ClassName < byClass[j].ClassName
		}
		return byClass[i].Count > byClass[j].Count
	})
	return dto.ExportSummary{Total: len(logs), UniqueStudents: len(students), ByClass: byClass}
}

func summaryLines(summary dto.ExportSummary) []export.SummaryLine {
	lines := []export.SummaryLine{
		{Label: "Total violations", Value: strconv.Itoa(summary.Total)},
		{Label: "Unique students", Value: strconv.Itoa(summary.UniqueStudents)},
	}
	for _, class := range summary.ByClass {
		lines = append(lines, export.SummaryLine{Label: "Class " + class.ClassName, Value: strconv.Itoa(class.Count)})
	}
	return lines
}

// exportAge prefers the snapshot taken at ingestion.
func exportAge(log models.AccessLogDetail, now time.Time) *int {
	if log.StudentAge != nil {
		return log.StudentAge
	}
	if log.StudentID == nil {
		return nil
	}
	return Classify(log.StudentBirthDate, now).Age
}

func plateText(log models.AccessLogDetail) string {
	if !log.HasLicensePlate {
		return "No plate"
	}
	return orDefault(log.LicensePlateNumber, "Unreadable")
}

func reasonText(log models.AccessLogDetail) string {
	if log.ViolationReason != nil && *log.ViolationReason != "" {
		return *log.ViolationReason
	}
	if note := log.Metadata.String(models.MetaNote); note != "" {
		return note
	}
	return "-"
}

func ageText(age *int) string {
	if age == nil {
		return "-"
	}
	return strconv.Itoa(*age)
}

func exportFilename(from, to time.Time, ext string) string {
	return fmt.Sprintf("violation-report_%s_%s.%s", from.Format("20060102"), to.Format("20060102"), ext)
}

func endOfDay(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), day.Location())
}

func orDefault(v *string, fallback string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return fallback
	}
	return *v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
