package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanyuejun/health-recorder/internal/config"
	"github.com/hanyuejun/health-recorder/internal/exercise"
	"github.com/hanyuejun/health-recorder/internal/journal"
	"github.com/hanyuejun/health-recorder/internal/store"
)

func setupTestServer(t *testing.T) *Server {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := &config.Config{}
	cfg.Server.ReadTimeout = 5
	cfg.Server.WriteTimeout = 5
	cfg.Security.AllowOrigins = []string{"http://localhost:3000"}

	return New(cfg,
		journal.NewService(st, nil),
		exercise.NewService(st, "", nil),
		nil)
}

func doRequest(t *testing.T, s *Server, method, target string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, payload
}

func TestHandleHealth(t *testing.T) {
	s := setupTestServer(t)

	resp, body := doRequest(t, s, "GET", "/api/health", nil)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(body), "healthy")
}

func TestHandleGetRecord_AbsentReturnsNull(t *testing.T) {
	s := setupTestServer(t)

	resp, body := doRequest(t, s, "GET", "/api/records/2025-06-01/%E4%B8%8A%E5%8D%88", nil)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "null", string(body))
}

func TestHandleGetRecord_InvalidDate(t *testing.T) {
	s := setupTestServer(t)

	resp, body := doRequest(t, s, "GET", "/api/records/not-a-date/%E4%B8%8A%E5%8D%88", nil)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Contains(t, string(body), "RECORD_003")
}

func TestHandleCreateAndGetRecord(t *testing.T) {
	s := setupTestServer(t)

	resp, body := doRequest(t, s, "POST", "/api/records/", map[string]interface{}{
		"date":              "2025-06-01",
		"time_of_day":       "上午",
		"pain_level":        5,
		"body_feeling_note": "后脑胀痛",
		"medication_used":   true,
	})
	require.Equal(t, 200, resp.StatusCode, string(body))

	resp, body = doRequest(t, s, "GET", "/api/records/2025-06-01/%E4%B8%8A%E5%8D%88", nil)
	require.Equal(t, 200, resp.StatusCode)

	var view journal.MergedRecordView
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, 5, view.PainLevel)
	assert.Equal(t, "后脑胀痛", view.BodyFeelingNote)
	assert.True(t, view.MedicationUsed)
}

func TestHandleCreateRecord_MissingTimeOfDay(t *testing.T) {
	s := setupTestServer(t)

	resp, _ := doRequest(t, s, "POST", "/api/records/", map[string]interface{}{
		"date": "2025-06-01",
	})
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHandleDeleteRecord(t *testing.T) {
	s := setupTestServer(t)

	_, body := doRequest(t, s, "POST", "/api/records/", map[string]interface{}{
		"date": "2025-06-01", "time_of_day": "上午",
	})
	var view journal.MergedRecordView
	require.NoError(t, json.Unmarshal(body, &view))

	resp, _ := doRequest(t, s, "DELETE", "/api/records/1", nil)
	assert.Equal(t, 200, resp.StatusCode)

	resp, _ = doRequest(t, s, "DELETE", "/api/records/1", nil)
	assert.Equal(t, 404, resp.StatusCode)

	resp, _ = doRequest(t, s, "DELETE", "/api/records/abc", nil)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHandleExportExcel(t *testing.T) {
	s := setupTestServer(t)

	_, _ = doRequest(t, s, "POST", "/api/records/", map[string]interface{}{
		"date": "2025-06-01", "time_of_day": "上午", "pain_level": 3,
	})

	resp, body := doRequest(t, s, "GET", "/api/records/export_excel?start_date=2025-06-01&end_date=2025-06-02", nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "health_records_20250601_20250602.xlsx")
	// xlsx files are zip archives
	assert.Equal(t, "PK", string(body[:2]))
}

func TestHandleExportExcel_InvalidDate(t *testing.T) {
	s := setupTestServer(t)

	resp, _ := doRequest(t, s, "GET", "/api/records/export_excel?start_date=junk&end_date=2025-06-02", nil)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHandleSummaryRoundTrip(t *testing.T) {
	s := setupTestServer(t)

	resp, body := doRequest(t, s, "GET", "/api/summaries/2025-06-01", nil)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "null", string(body))

	resp, _ = doRequest(t, s, "POST", "/api/summaries/", map[string]interface{}{
		"date":       "2025-06-01",
		"sleep_note": "入睡困难",
	})
	require.Equal(t, 200, resp.StatusCode)

	resp, body = doRequest(t, s, "GET", "/api/summaries/2025-06-01", nil)
	require.Equal(t, 200, resp.StatusCode)

	var sum journal.DailySummary
	require.NoError(t, json.Unmarshal(body, &sum))
	assert.Equal(t, "入睡困难", sum.SleepNote)
}

func TestHandleExerciseLogRoundTrip(t *testing.T) {
	s := setupTestServer(t)

	resp, body := doRequest(t, s, "GET", "/api/exercises/logs/2025-06-01", nil)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "null", string(body))

	resp, _ = doRequest(t, s, "POST", "/api/exercises/logs/2025-06-01", map[string]interface{}{
		"ex-1": map[string]interface{}{"name": "颈部拉伸", "status": "完成", "feedback": "放松"},
	})
	require.Equal(t, 200, resp.StatusCode)

	resp, body = doRequest(t, s, "GET", "/api/exercises/logs/2025-06-01", nil)
	require.Equal(t, 200, resp.StatusCode)

	var log exercise.Log
	require.NoError(t, json.Unmarshal(body, &log))
	assert.Equal(t, exercise.StatusDone, log.Data["ex-1"].Status)
}

func TestHandleExerciseConfigUpdate(t *testing.T) {
	s := setupTestServer(t)

	resp, body := doRequest(t, s, "POST", "/api/exercises/config", []map[string]interface{}{
		{"name": "新项目"},
	})
	require.Equal(t, 200, resp.StatusCode)

	var items []exercise.ConfigItem
	require.NoError(t, json.Unmarshal(body, &items))
	require.Len(t, items, 1)
	assert.NotEmpty(t, items[0].ID)
	assert.True(t, items[0].Enabled)
	assert.Equal(t, 99, items[0].Order)
}

func TestHandleExportMarkdown_NoLogs(t *testing.T) {
	s := setupTestServer(t)

	resp, body := doRequest(t, s, "GET", "/api/exercises/export?start_date=2025-06-01&end_date=2025-06-30", nil)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Contains(t, string(body), "EXERCISE_002")
}

func TestHandleExportMarkdown(t *testing.T) {
	s := setupTestServer(t)

	_, _ = doRequest(t, s, "POST", "/api/exercises/logs/2025-06-01", map[string]interface{}{
		"ex-1": map[string]interface{}{"name": "颈部拉伸", "status": "完成"},
	})

	resp, body := doRequest(t, s, "GET", "/api/exercises/export?start_date=2025-06-01&end_date=2025-06-30", nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(body), "# 2025-06-01 训练反馈")
	assert.Contains(t, string(body), "## 1、颈部拉伸")
}

func TestHandleMetricsEndpoints(t *testing.T) {
	s := setupTestServer(t)

	resp, body := doRequest(t, s, "GET", "/metrics", nil)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(body), "healthrec_requests_total")

	resp, body = doRequest(t, s, "GET", "/api/metrics", nil)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(body), "requests_total")
}
