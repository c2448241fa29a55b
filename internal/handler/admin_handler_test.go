package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gate-violation-api/internal/dto"
	"github.com/noah-isme/gate-violation-api/internal/middleware"
	"github.com/noah-isme/gate-violation-api/internal/models"
	appErrors "github.com/noah-isme/gate-violation-api/pkg/errors"
)

type fakeDashboard struct {
	resp *dto.DashboardResponse
	hit  bool
	err  error
}

func (f *fakeDashboard) Overview(context.Context) (*dto.DashboardResponse, bool, error) {
	return f.resp, f.hit, f.err
}

type fakeStatistics struct {
	resp *dto.StatisticsResponse
	hit  bool
}

func (f *fakeStatistics) Overview(context.Context) (*dto.StatisticsResponse, bool, error) {
	return f.resp, f.hit, nil
}

type fakeReports struct {
	query dto.ExportQuery
	list  dto.ViolationListQuery
	file  *dto.ExportFile
	err   error
}

func (f *fakeReports) List(_ context.Context, query dto.ViolationListQuery) ([]dto.ViolationListItem, *models.Pagination, error) {
	f.list = query
	return []dto.ViolationListItem{{ID: 1, Result: "violation"}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, f.err
}

func (f *fakeReports) ExportPDF(_ context.Context, query dto.ExportQuery) (*dto.ExportFile, error) {
	f.query = query
	return f.file, f.err
}

func (f *fakeReports) ExportCSV(_ context.Context, query dto.ExportQuery) (*dto.ExportFile, error) {
	f.query = query
	return f.file, f.err
}

type fakeStudents struct {
	lastID     int64
	created    dto.CreateStudentRequest
	issued     dto.IssueCardRequest
	deactivate int64
	err        error
}

func (f *fakeStudents) List(context.Context, dto.StudentListQuery) ([]dto.StudentListItem, *models.Pagination, error) {
	return []dto.StudentListItem{{ID: 1}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, f.err
}

func (f *fakeStudents) Get(_ context.Context, id int64) (*dto.StudentDetail, error) {
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	return &dto.StudentDetail{Student: models.Student{ID: id}}, nil
}

func (f *fakeStudents) Create(_ context.Context, req dto.CreateStudentRequest) (*models.Student, error) {
	f.created = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.Student{ID: 9, StudentCode: req.StudentCode}, nil
}

func (f *fakeStudents) Update(_ context.Context, id int64, _ dto.UpdateStudentRequest) (*models.Student, error) {
	f.lastID = id
	return &models.Student{ID: id}, f.err
}

func (f *fakeStudents) ListCards(_ context.Context, id int64) ([]models.StudentCard, error) {
	f.lastID = id
	return nil, f.err
}

func (f *fakeStudents) IssueCard(_ context.Context, id int64, req dto.IssueCardRequest) (*models.StudentCard, error) {
	f.lastID = id
	f.issued = req
	return &models.StudentCard{ID: 3, StudentID: id, CardCode: req.CardCode, IsActive: true}, f.err
}

func (f *fakeStudents) DeactivateCard(_ context.Context, id int64) error {
	f.deactivate = id
	return f.err
}

type fakeSettings struct {
	key string
	req dto.UpsertSettingRequest
}

func (f *fakeSettings) List(context.Context) ([]models.SystemSetting, error) {
	return []models.SystemSetting{{Key: "detection.threshold"}}, nil
}

func (f *fakeSettings) Get(_ context.Context, key string) (*models.SystemSetting, error) {
	f.key = key
	return nil, appErrors.Clone(appErrors.ErrNotFound, "setting not found")
}

func (f *fakeSettings) Upsert(_ context.Context, key string, req dto.UpsertSettingRequest) (*models.SystemSetting, error) {
	f.key = key
	f.req = req
	return &models.SystemSetting{Key: key, Label: req.Label}, nil
}

func serve(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	router.ServeHTTP(rec, req)
	return rec
}

func TestDashboardHandlerReportsCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.WithResponseMeta())
	handler := NewDashboardHandler(
		&fakeDashboard{resp: &dto.DashboardResponse{Timezone: "Asia/Ho_Chi_Minh"}, hit: true},
		&fakeStatistics{resp: &dto.StatisticsResponse{}},
	)
	router.GET("/dashboard", handler.Overview)
	router.GET("/statistics", handler.Statistics)

	rec := serve(router, http.MethodGet, "/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Data dto.DashboardResponse  `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "Asia/Ho_Chi_Minh", payload.Data.Timezone)
	assert.Equal(t, true, payload.Meta["cache_hit"])

	rec = serve(router, http.MethodGet, "/statistics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"cache_hit":false`)
}

func TestDashboardHandlerError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewDashboardHandler(&fakeDashboard{err: appErrors.Wrap(errors.New("db down"), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard")}, nil)
	router.GET("/dashboard", handler.Overview)
	router.GET("/statistics", handler.Statistics)

	assert.Equal(t, http.StatusInternalServerError, serve(router, http.MethodGet, "/dashboard", "").Code)
	assert.Equal(t, http.StatusInternalServerError, serve(router, http.MethodGet, "/statistics", "").Code)
}

func TestViolationHandlerExportHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reports := &fakeReports{file: &dto.ExportFile{
		Filename:    "violation-report_20250601_20250607.csv",
		ContentType: "text/csv; charset=utf-8",
		Content:     []byte("Time,Student\n"),
		Summary:     dto.ExportSummary{Total: 3},
	}}
	router := gin.New()
	handler := NewViolationHandler(reports)
	router.GET("/violations", handler.List)
	router.GET("/violations/export/csv", handler.ExportCSV)
	router.GET("/violations/export/pdf", handler.ExportPDF)

	rec := serve(router, http.MethodGet, "/violations/export/csv?start_date=2025-06-01&end_date=2025-06-07", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="violation-report_20250601_20250607.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "3", rec.Header().Get("X-Export-Total"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "2025-06-01", reports.query.StartDate)
	assert.Equal(t, "2025-06-07", reports.query.EndDate)

	reports.err = appErrors.Clone(appErrors.ErrUnprocessable, "Validation failed")
	rec = serve(router, http.MethodGet, "/violations/export/pdf?start_date=bad", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	reports.err = nil
	rec = serve(router, http.MethodGet, "/violations?result=violation&page=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "violation", reports.list.Result)
	assert.Equal(t, 2, reports.list.Page)
	assert.Contains(t, rec.Body.String(), `"pagination"`)
}

func TestStudentHandlerRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	students := &fakeStudents{}
	router := gin.New()
	handler := NewStudentHandler(students)
	router.GET("/students", handler.List)
	router.POST("/students", handler.Create)
	router.GET("/students/:id", handler.Get)
	router.PUT("/students/:id", handler.Update)
	router.GET("/students/:id/cards", handler.ListCards)
	router.POST("/students/:id/cards", handler.IssueCard)
	router.DELETE("/cards/:id", handler.DeactivateCard)

	rec := serve(router, http.MethodPost, "/students", `{"student_code":"HS0100","full_name":"Tran Thi B","birth_date":"2010-02-03","gender":"Nữ"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Nữ", students.created.Gender)

	rec = serve(router, http.MethodGet, "/students/12", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(12), students.lastID)

	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodGet, "/students/abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodPost, "/students", `{"student_code":`).Code)

	rec = serve(router, http.MethodPost, "/students/12/cards", `{"card_code":"RF-1","card_type":"RFID"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "RF-1", students.issued.CardCode)

	rec = serve(router, http.MethodDelete, "/cards/3", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(3), students.deactivate)

	students.err = appErrors.Clone(appErrors.ErrNotFound, "student not found")
	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/students/99", "").Code)
}

func TestSettingHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	settings := &fakeSettings{}
	router := gin.New()
	handler := NewSettingHandler(settings)
	router.GET("/settings", handler.List)
	router.GET("/settings/:key", handler.Get)
	router.PUT("/settings/:key", handler.Upsert)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/settings", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/settings/missing", "").Code)

	rec := serve(router, http.MethodPut, "/settings/detection.threshold", `{"label":"Threshold","value":0.8}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "detection.threshold", settings.key)
	assert.JSONEq(t, `0.8`, string(settings.req.Value))
}

type fakeLogin struct{ err error }

func (f fakeLogin) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.LoginResponse{AccessToken: "token", User: models.UserInfo{Email: req.Email}}, nil
}

func (f fakeLogin) CurrentUser(_ context.Context, id string) (*models.UserInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.UserInfo{ID: id, Email: "staff@school.test", Role: models.RoleStaff}, nil
}

func TestAuthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewAuthHandler(fakeLogin{})
	router.POST("/auth/login", handler.Login)
	router.GET("/auth/me", func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Email: "staff@school.test", Role: models.RoleStaff})
	}, handler.Me)

	rec := serve(router, http.MethodPost, "/auth/login", `{"email":"staff@school.test","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"access_token":"token"`)

	rec = serve(router, http.MethodGet, "/auth/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"staff@school.test"`)

	router = gin.New()
	router.POST("/auth/login", NewAuthHandler(fakeLogin{err: appErrors.ErrInvalidCredentials}).Login)
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodPost, "/auth/login", `{"email":"x@y.z","password":"no"}`).Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	healthy := NewMetricsHandler(nil, map[string]ReadinessCheck{"postgres": func(context.Context) error { return nil }})
	failing := NewMetricsHandler(nil, map[string]ReadinessCheck{"redis": func(context.Context) error { return errors.New("dial tcp: refused") }})
	router.GET("/health", healthy.Health)
	router.GET("/ready", healthy.Ready)
	router.GET("/ready-failing", failing.Ready)
	router.GET("/metrics", healthy.Prometheus)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/ready", "").Code)
	rec := serve(router, http.MethodGet, "/ready-failing", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "refused")
	assert.Equal(t, http.StatusServiceUnavailable, serve(router, http.MethodGet, "/metrics", "").Code)
}
