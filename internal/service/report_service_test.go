package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gate-violation-api/internal/dto"
	"github.com/noah-isme/gate-violation-api/internal/models"
	"github.com/noah-isme/gate-violation-api/pkg/export"
)

type stubViolationLogs struct {
	list     []models.AccessLogDetail
	total    int
	filter   models.AccessLogFilter
	between  []models.AccessLogDetail
	from, to time.Time
}

func (s *stubViolationLogs) List(ctx context.Context, filter models.AccessLogFilter) ([]models.AccessLogDetail, int, error) {
	s.filter = filter
	return s.list, s.total, nil
}

func (s *stubViolationLogs) ViolationsBetween(ctx context.Context, from, to time.Time) ([]models.AccessLogDetail, error) {
	s.from, s.to = from, to
	return s.between, nil
}

type stubImages map[string][]byte

func (s stubImages) Read(ref string) ([]byte, bool) {
	data, ok := s[ref]
	return data, ok
}

type capturingPDF struct {
	report export.Report
}

func (c *capturingPDF) RenderReport(report export.Report) ([]byte, error) {
	c.report = report
	return []byte("%PDF-1.3"), nil
}

func newTestReportService(logs *stubViolationLogs, images stubImages, pdf reportRenderer) *ReportService {
	svc := NewReportService(ReportServiceParams{Logs: logs, Images: images, PDF: pdf, Timezone: "UTC"})
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}

func exportFixture() []models.AccessLogDetail {
	one, two := int64(1), int64(2)
	birth := date(2010, 5, 15)
	age := 14
	return []models.AccessLogDetail{
		{AccessLog: models.AccessLog{ID: 1, StudentID: &one, OccurredAt: time.Date(2025, 5, 30, 7, 0, 0, 0, time.UTC), HasLicensePlate: true,
			LicensePlateNumber: strRef("59X1-12345"), ViolationReason: strRef("reason one"), CapturedImagePath: strRef("storage/violations/a.png"), StudentAge: &age},
			StudentName: strRef("Nguyen Van A"), StudentCode: strRef("HS0001"), StudentClassName: strRef("10A1"), StudentBirthDate: &birth},
		{AccessLog: models.AccessLog{ID: 2, StudentID: &one, OccurredAt: time.Date(2025, 5, 31, 7, 0, 0, 0, time.UTC), HasLicensePlate: true},
			StudentName: strRef("Nguyen Van A"), StudentCode: strRef("HS0001"), StudentClassName: strRef("10A1"), StudentBirthDate: &birth},
		{AccessLog: models.AccessLog{ID: 3, StudentID: &two, OccurredAt: time.Date(2025, 5, 31, 8, 0, 0, 0, time.UTC),
			Metadata: models.Metadata{models.MetaNote: "manual"}},
			StudentName: strRef("Tran Thi B"), StudentCode: strRef("HS0002"), StudentClassName: strRef("12A2")},
		{AccessLog: models.AccessLog{ID: 4, OccurredAt: time.Date(2025, 5, 31, 9, 0, 0, 0, time.UTC)}},
	}
}

func TestReportExportPDFDefaultsToLastSevenDays(t *testing.T) {
	logs := &stubViolationLogs{between: exportFixture()}
	pdf := &capturingPDF{}
	svc := newTestReportService(logs, stubImages{"storage/violations/a.png": pngBytes(t)}, pdf)

	file, err := svc.ExportPDF(context.Background(), dto.ExportQuery{})
	require.NoError(t, err)
	assert.Equal(t, "violation-report_20250525_20250601.pdf", file.Filename)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, time.Date(2025, 5, 25, 0, 0, 0, 0, time.UTC), logs.from)
	assert.Equal(t, 23, logs.to.Hour())

	assert.Equal(t, 4, file.Summary.Total)
	assert.Equal(t, 2, file.Summary.UniqueStudents)
	require.Len(t, file.Summary.ByClass, 3)
	assert.Equal(t, dto.ClassCount{ClassName: "10A1", Count: 2}, file.Summary.ByClass[0])

	rows := pdf.report.Data.Rows
	require.Len(t, rows, 4)
	assert.Equal(t, "14", rows[0][colAge])
	assert.Equal(t, "15", rows[1][colAge])
	assert.Equal(t, "Unreadable", rows[1][colPlate])
	assert.Equal(t, "No plate", rows[2][colPlate])
	assert.Equal(t, "manual", rows[2][colReason])
	assert.Equal(t, unknownLabel, rows[3][colStudentName])
	assert.Equal(t, "N/A", rows[3][colStudentCode])
	assert.NotEmpty(t, pdf.report.Images[0])
	assert.Nil(t, pdf.report.Images[1])
	assert.Equal(t, colImage, pdf.report.ImageHeader)
}

func TestReportExportSwapsReversedRange(t *testing.T) {
	logs := &stubViolationLogs{}
	svc := newTestReportService(logs, nil, &capturingPDF{})

	file, err := svc.ExportCSV(context.Background(), dto.ExportQuery{StartDate: "2025-05-10", EndDate: "2025-05-01"})
	require.NoError(t, err)
	assert.Equal(t, "violation-report_20250501_20250510.csv", file.Filename)
	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), logs.from)
	assert.Equal(t, 10, logs.to.Day())
	assert.True(t, bytes.HasPrefix(file.Content, []byte("\ufeff")))
}

func TestReportExportRejectsBadDates(t *testing.T) {
	svc := newTestReportService(&stubViolationLogs{}, nil, &capturingPDF{})
	_, err := svc.ExportPDF(context.Background(), dto.ExportQuery{StartDate: "31/12/2025"})
	require.Error(t, err)
}

func TestReportCSVIncludesImageReference(t *testing.T) {
	svc := newTestReportService(&stubViolationLogs{between: exportFixture()}, nil, nil)
	file, err := svc.ExportCSV(context.Background(), dto.ExportQuery{})
	require.NoError(t, err)
	content := string(file.Content)
	assert.True(t, strings.Contains(content, "storage/violations/a.png"))
	assert.True(t, strings.Contains(content, "Nguyen Van A"))
}

func TestReportListMapsStudents(t *testing.T) {
	fixture := exportFixture()
	logs := &stubViolationLogs{list: fixture[2:], total: 42}
	svc := newTestReportService(logs, nil, nil)

	items, page, err := svc.List(context.Background(), dto.ViolationListQuery{Result: "violation", Search: " HS ", StartDate: "2025-05-01", Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 42, page.TotalCount)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 20, page.PageSize)
	assert.Equal(t, "HS", logs.filter.Search)
	assert.Equal(t, models.AccessResultViolation, logs.filter.Result)
	require.NotNil(t, logs.filter.From)
	assert.Nil(t, logs.filter.To)

	require.Len(t, items, 2)
	require.NotNil(t, items[0].Student)
	assert.Equal(t, "HS0002", items[0].Student.StudentCode)
	assert.Nil(t, items[0].Student.Age)
	assert.Nil(t, items[1].Student)
}

func TestReportListValidatesResult(t *testing.T) {
	svc := newTestReportService(&stubViolationLogs{}, nil, nil)
	_, _, err := svc.List(context.Background(), dto.ViolationListQuery{Result: "maybe"})
	require.Error(t, err)
}
