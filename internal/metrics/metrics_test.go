package metrics

import (
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	m := New()
	if m == nil {
		t.Error("New() returned nil")
	}
}

func TestDefault(t *testing.T) {
	m1 := Default()
	m2 := Default()

	if m1 != m2 {
		t.Error("Default() should return same instance")
	}
}

func TestRecordRequest_Success(t *testing.T) {
	m := New()
	m.RecordRequest(true)

	if m.requestsTotal.Load() != 1 {
		t.Error("Total requests not incremented")
	}
	if m.requestsSuccess.Load() != 1 {
		t.Error("Success requests not incremented")
	}
}

func TestRecordRequest_Failure(t *testing.T) {
	m := New()
	m.RecordRequest(false)

	if m.requestsTotal.Load() != 1 {
		t.Error("Total requests not incremented")
	}
	if m.requestsFailed.Load() != 1 {
		t.Error("Failed requests not incremented")
	}
}

func TestRecordDomainCounters(t *testing.T) {
	m := New()
	m.RecordRecordWrite()
	m.RecordSummaryUpsert()
	m.RecordExerciseLogSave()
	m.RecordExcelExport()
	m.RecordMarkdownExport()
	m.RecordRecoveredJSON()

	s := m.Snapshot()
	if s.RecordsWritten != 1 || s.SummariesUpserted != 1 || s.ExerciseLogsSaved != 1 {
		t.Error("write counters not incremented")
	}
	if s.ExcelExports != 1 || s.MarkdownExports != 1 {
		t.Error("export counters not incremented")
	}
	if s.RecoveredJSONReads != 1 {
		t.Error("recovered JSON counter not incremented")
	}
}

func TestRecordEndpointCall(t *testing.T) {
	m := New()
	m.RecordEndpointCall("records")
	m.RecordEndpointCall("records")
	m.RecordEndpointCall("exercises")

	s := m.Snapshot()
	if s.EndpointCalls["records"] != 2 {
		t.Errorf("expected 2 calls for records, got %d", s.EndpointCalls["records"])
	}
	if s.EndpointCalls["exercises"] != 1 {
		t.Errorf("expected 1 call for exercises, got %d", s.EndpointCalls["exercises"])
	}
}

func TestSnapshot_SuccessRate(t *testing.T) {
	m := New()
	m.RecordRequest(true)
	m.RecordRequest(true)
	m.RecordRequest(false)

	s := m.Snapshot()
	if s.SuccessRate < 66 || s.SuccessRate > 67 {
		t.Errorf("unexpected success rate: %f", s.SuccessRate)
	}
}

func TestRecordResponseTime(t *testing.T) {
	m := New()
	m.RecordResponseTime(10 * time.Millisecond)
	m.RecordResponseTime(20 * time.Millisecond)

	s := m.Snapshot()
	if s.AvgResponseTime != 15*time.Millisecond {
		t.Errorf("unexpected avg response time: %v", s.AvgResponseTime)
	}
}

func TestPrometheus(t *testing.T) {
	m := New()
	m.RecordRequest(true)
	m.RecordExcelExport()

	out := m.Prometheus()
	if !strings.Contains(out, "healthrec_requests_total 1") {
		t.Error("prometheus output missing requests counter")
	}
	if !strings.Contains(out, "healthrec_excel_exports_total 1") {
		t.Error("prometheus output missing excel exports counter")
	}
}
