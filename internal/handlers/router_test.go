package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/marks-service/internal/events"
	"github.com/SAP-F-2025/marks-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/marks-service/internal/services"
	"github.com/SAP-F-2025/marks-service/internal/testutil"
	"github.com/SAP-F-2025/marks-service/internal/utils"
	"github.com/SAP-F-2025/marks-service/internal/validator"
)

type apiEnv struct {
	router *gin.Engine
	school *testutil.School
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	school := testutil.SeedSchool(t, db)
	slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	manager := services.NewServiceManager(services.Dependencies{
		Repo:      postgres.NewRepository(db),
		Publisher: events.NewMockEventPublisher(slogger),
		Validator: validator.New(),
		Logger:    slogger,
		Config:    services.ServiceConfig{CacheTTL: time.Minute, StrictBreakdownMax: true},
	})

	logger := utils.NewSlogLogger(slogger)
	return &apiEnv{
		router: NewRouter(NewHandlerManager(manager, logger), logger, 5*time.Second),
		school: school,
	}
}

func (e *apiEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *apiEnv) createAssessment(t *testing.T, grades ...int) services.AssessmentResponse {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/assessments", gin.H{
		"academic_year":   "2024-2025",
		"name":            "Half yearly",
		"assessment_type": "SA1",
		"class_grades":    grades,
		"subject_marks": []gin.H{{
			"total_marks": 100,
			"breakdowns": []gin.H{
				{"title": "Theory", "marks": 80},
				{"title": "Practical", "marks": 20},
			},
		}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp services.AssessmentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRouter_Health(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_RequestIDIsEchoed(t *testing.T) {
	env := newAPIEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestRouter_Metrics(t *testing.T) {
	env := newAPIEnv(t)
	env.do(t, http.MethodGet, "/health", nil)

	w := env.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "marks_http_requests_total")
}

func TestAssessmentHandler_CRUD(t *testing.T) {
	env := newAPIEnv(t)
	created := env.createAssessment(t, 5)
	assert.Equal(t, "Half yearly", created.Name)

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/assessments/%d", created.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/assessments?academic_year=2024-2025&class_grade=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []services.AssessmentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/assessments/%d", created.ID), gin.H{
		"academic_year":   "2024-2025",
		"name":            "Half yearly (revised)",
		"assessment_type": "SA1",
		"class_grades":    []int{5},
		"subject_marks":   []gin.H{{"total_marks": 50}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Half yearly (revised)")

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/assessments/%d", created.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/assessments/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeNotFound, decodeError(t, w).Code)
}

func TestAssessmentHandler_Errors(t *testing.T) {
	env := newAPIEnv(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"malformed id", http.MethodGet, "/api/v1/assessments/abc", nil, http.StatusBadRequest, CodeInvalidRequest},
		{"zero id", http.MethodGet, "/api/v1/assessments/0", nil, http.StatusBadRequest, CodeInvalidRequest},
		{"bad year", http.MethodGet, "/api/v1/assessments?academic_year=2024", nil, http.StatusBadRequest, CodeValidationFailed},
		{"bad grade filter", http.MethodGet, "/api/v1/assessments?academic_year=2024-2025&class_grade=x", nil, http.StatusBadRequest, CodeInvalidRequest},
		{"invalid draft", http.MethodPost, "/api/v1/assessments", gin.H{"name": ""}, http.StatusBadRequest, CodeValidationFailed},
		{"breakdown overflow", http.MethodPost, "/api/v1/assessments", gin.H{
			"academic_year":   "2024-2025",
			"name":            "Unit test",
			"assessment_type": "FA1",
			"class_grades":    []int{5},
			"subject_marks": []gin.H{{
				"total_marks": 20,
				"breakdowns":  []gin.H{{"title": "Oral", "marks": 30}},
			}},
		}, http.StatusBadRequest, CodeValidationFailed},
		{"missing assessment", http.MethodDelete, "/api/v1/assessments/999", nil, http.StatusNotFound, CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeInvalidRequest, decodeError(t, w).Code)
}

func TestExamTimetableHandler(t *testing.T) {
	env := newAPIEnv(t)
	created := env.createAssessment(t, 5)
	path := fmt.Sprintf("/api/v1/assessments/%d/exam-timetable", created.ID)

	w := env.do(t, http.MethodPut, path, gin.H{
		"class_grade": 5,
		"entries": []gin.H{
			{"subject_id": env.school.Maths.ID, "exam_date": "2024-11-04"},
			{"subject_id": env.school.Science.ID, "exam_date": ""},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, path+"?class_grade=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var timetable services.TimetableResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &timetable))
	require.Len(t, timetable.Entries, 1)
	assert.Equal(t, "2024-11-04", timetable.Entries[0].ExamDate)

	w = env.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, path+"?class_grade=6", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, CodePreconditionFailed, decodeError(t, w).Code)
}

func TestExamTimetableHandler_MultipleGrades(t *testing.T) {
	env := newAPIEnv(t)
	created := env.createAssessment(t, 5, 6)

	w := env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/assessments/%d/exam-timetable", created.ID), gin.H{
		"class_grade": 5,
		"entries":     []gin.H{{"subject_id": env.school.Maths.ID, "exam_date": "2024-11-04"}},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestMarksSheetHandler_SaveAndLoad(t *testing.T) {
	env := newAPIEnv(t)
	created := env.createAssessment(t, 5)
	student := env.school.RollOrder[0]
	breakdowns := created.SubjectMarks[0].Breakdowns
	require.Len(t, breakdowns, 2)

	w := env.do(t, http.MethodPut, "/api/v1/reports/marks-sheet", gin.H{
		"assessment_id": created.ID,
		"class_id":      env.school.Grade5A.ID,
		"subject_id":    env.school.Maths.ID,
		"entries": []gin.H{{
			"student_id": student,
			"breakdown_marks": []gin.H{
				{"breakdown_id": breakdowns[0].ID, "marks_obtained": 70},
				{"breakdown_id": breakdowns[1].ID, "marks_obtained": 18},
			},
		}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	query := fmt.Sprintf("/api/v1/reports/marks-sheet?assessment_id=%d&class_id=%d&subject_id=%d",
		created.ID, env.school.Grade5A.ID, env.school.Maths.ID)
	w = env.do(t, http.MethodGet, query, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var sheet services.MarksSheetResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sheet))
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, student, sheet.Rows[0].StudentID)
	require.NotNil(t, sheet.Rows[0].MarksObtained)
	assert.Equal(t, 88.0, *sheet.Rows[0].MarksObtained)
	assert.Nil(t, sheet.Rows[1].MarksObtained)
}

func TestMarksSheetHandler_Errors(t *testing.T) {
	env := newAPIEnv(t)
	created := env.createAssessment(t, 5)

	w := env.do(t, http.MethodGet, "/api/v1/reports/marks-sheet?assessment_id=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/reports/marks-sheet?assessment_id=%d&class_id=%d&subject_id=%d",
		created.ID, env.school.Grade6A.ID, env.school.English.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/reports/marks-sheet?assessment_id=%d&class_id=999&subject_id=%d",
		created.ID, env.school.Maths.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPut, "/api/v1/reports/marks-sheet", gin.H{
		"assessment_id": created.ID,
		"class_id":      env.school.Grade5A.ID,
		"subject_id":    env.school.Maths.ID,
		"entries": []gin.H{{
			"student_id":      env.school.RollOrder[0],
			"breakdown_marks": []gin.H{{"breakdown_id": created.SubjectMarks[0].Breakdowns[0].ID, "marks_obtained": 81}},
		}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeValidationFailed, decodeError(t, w).Code)
}

func TestMarksSheetHandler_ExportImport(t *testing.T) {
	env := newAPIEnv(t)
	created := env.createAssessment(t, 5)
	query := fmt.Sprintf("assessment_id=%d&class_id=%d&subject_id=%d",
		created.ID, env.school.Grade5A.ID, env.school.Maths.ID)

	w := env.do(t, http.MethodGet, "/api/v1/reports/marks-sheet/export?"+query, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	workbook := w.Body.Bytes()
	require.NotEmpty(t, workbook)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	require.NoError(t, form.WriteField("assessment_id", fmt.Sprint(created.ID)))
	require.NoError(t, form.WriteField("class_id", fmt.Sprint(env.school.Grade5A.ID)))
	require.NoError(t, form.WriteField("subject_id", fmt.Sprint(env.school.Maths.ID)))
	part, err := form.CreateFormFile("file", "marks.xlsx")
	require.NoError(t, err)
	_, err = part.Write([]byte("not a workbook"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/marks-sheet/import", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeValidationFailed, decodeError(t, rec).Code)
}

func TestMarksSheetHandler_ImportRequiresFile(t *testing.T) {
	env := newAPIEnv(t)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	require.NoError(t, form.WriteField("assessment_id", "1"))
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/marks-sheet/import", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeInvalidRequest, decodeError(t, w).Code)
}
