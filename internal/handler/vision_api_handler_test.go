package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gate-violation-api/internal/dto"
	appErrors "github.com/noah-isme/gate-violation-api/pkg/errors"
)

type fakeIngester struct {
	req      dto.ViolationRequest
	image    []byte
	filename string
	result   *dto.ViolationResult
	err      error
}

func (f *fakeIngester) Ingest(_ context.Context, req dto.ViolationRequest, image *dto.EvidenceFile) (*dto.ViolationResult, error) {
	f.req = req
	if image != nil {
		f.filename = image.Filename
		f.image, _ = io.ReadAll(image.Reader)
	}
	return f.result, f.err
}

type fakeChecker struct {
	code    string
	student *dto.CheckStudent
	lookup  *dto.StudentLookup
	err     error
}

func (f *fakeChecker) Check(_ context.Context, req dto.CheckRequest) (*dto.CheckStudent, error) {
	f.code = req.CardCode
	return f.student, f.err
}

func (f *fakeChecker) Lookup(_ context.Context, code string) (*dto.StudentLookup, error) {
	f.code = code
	return f.lookup, f.err
}

func visionRouter(ingester violationIngester, checker studentChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api")
	violations := NewViolationAPIHandler(ingester)
	checks := NewCheckAPIHandler(checker)
	api.POST("/violations", violations.Store)
	api.POST("/check", checks.Check)
	api.GET("/students/:card_code", checks.Lookup)
	return router
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestViolationAPIMultipartWithImage(t *testing.T) {
	ingester := &fakeIngester{result: &dto.ViolationResult{AccessLogID: 42, Result: "violation"}}
	router := visionRouter(ingester, &fakeChecker{})

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("card_code", "HS0099"))
	require.NoError(t, writer.WriteField("has_plate", "True"))
	require.NoError(t, writer.WriteField("is_violation", "1"))
	part, err := writer.CreateFormFile("image", "frame.jpg")
	require.NoError(t, err)
	_, _ = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, writer.Close())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/violations", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "Violation recorded", body["message"])
	assert.EqualValues(t, 42, body["access_log_id"])
	assert.Nil(t, body["student"])
	assert.Equal(t, "HS0099", ingester.req.CardCode)
	assert.Equal(t, "True", ingester.req.HasPlate)
	assert.Equal(t, "frame.jpg", ingester.filename)
	assert.Equal(t, []byte("jpeg-bytes"), ingester.image)
}

func TestViolationAPIJSONBody(t *testing.T) {
	age := 15
	ingester := &fakeIngester{result: &dto.ViolationResult{
		AccessLogID: 7,
		Result:      "valid",
		Student:     &dto.StudentBrief{ID: 1, FullName: "Nguyen Van A", ClassName: "10A1", Age: &age},
	}}
	router := visionRouter(ingester, &fakeChecker{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/violations",
		strings.NewReader(`{"card_code":"3183268","has_plate":true,"is_violation":0,"student_age":15.8}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Valid entry recorded", body["message"])
	assert.Equal(t, "true", ingester.req.HasPlate)
	assert.Equal(t, "0", ingester.req.IsViolation)
	assert.Equal(t, "15.8", ingester.req.StudentAge)
	assert.Nil(t, ingester.image)
	student := body["student"].(map[string]interface{})
	assert.EqualValues(t, 15, student["age"])
}

func TestViolationAPIValidationBody(t *testing.T) {
	ingester := &fakeIngester{err: appErrors.WithFields(appErrors.Clone(appErrors.ErrUnprocessable, "Validation failed"),
		map[string][]string{"card_code": {"The card_code field is required."}})}
	router := visionRouter(ingester, &fakeChecker{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/violations", strings.NewReader(url.Values{"has_plate": {"1"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Validation failed", body["message"])
	assert.Contains(t, body["errors"], "card_code")
	assert.Equal(t, "1", ingester.req.HasPlate)
}

func TestViolationAPIMalformedJSON(t *testing.T) {
	ingester := &fakeIngester{}
	router := visionRouter(ingester, &fakeChecker{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/violations", strings.NewReader(`{"card_code":`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, ingester.req.CardCode)
}

func TestViolationAPIPersistenceFailure(t *testing.T) {
	ingester := &fakeIngester{err: appErrors.Wrap(errors.New("connection refused"), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to record access log")}
	router := visionRouter(ingester, &fakeChecker{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/violations",
		strings.NewReader(url.Values{"card_code": {"HS0001"}, "has_plate": {"1"}, "is_violation": {"1"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Failed to record violation", body["message"])
	assert.Equal(t, "connection refused", body["error"])
}

func TestCheckAPI(t *testing.T) {
	age, under := 15, true
	checker := &fakeChecker{student: &dto.CheckStudent{ID: 1, CardCode: "HS0001", Age: &age, AgeYears: &age, IsUnder16: &under}}
	router := visionRouter(&fakeIngester{}, checker)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/check", strings.NewReader(url.Values{"card_code": {"HS0001"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	student := body["student"].(map[string]interface{})
	assert.Equal(t, true, student["is_under_16"])
	assert.Equal(t, "HS0001", checker.code)
}

func TestCheckAPINotFound(t *testing.T) {
	checker := &fakeChecker{err: appErrors.Clone(appErrors.ErrNotFound, "No student found with code: X")}
	router := visionRouter(&fakeIngester{}, checker)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/check", strings.NewReader(url.Values{"card_code": {"X"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"status":"error","error":"No student found with code: X"}`, rec.Body.String())
}

func TestLookupAPI(t *testing.T) {
	checker := &fakeChecker{lookup: &dto.StudentLookup{ID: 1, CardCode: "3183268", Lop: "10A1"}}
	router := visionRouter(&fakeIngester{}, checker)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/students/3183268", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "10A1", body["lop"])
	assert.Equal(t, "3183268", checker.code)

	checker.err = appErrors.Clone(appErrors.ErrNotFound, "No student found with card code: NOPE")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/students/NOPE", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"No student found with card code: NOPE"}`, rec.Body.String())
}
