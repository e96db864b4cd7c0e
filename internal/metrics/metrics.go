package metrics

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type Metrics struct {
	startTime time.Time

	requestsTotal   atomic.Int64
	requestsSuccess atomic.Int64
	requestsFailed  atomic.Int64

	recordsWritten    atomic.Int64
	recordsDeleted    atomic.Int64
	summariesUpserted atomic.Int64
	exerciseLogsSaved atomic.Int64

	excelExports    atomic.Int64
	markdownExports atomic.Int64

	recoveredJSONReads atomic.Int64

	responseTimes     []time.Duration
	responseTimesLock sync.Mutex

	endpointCalls map[string]*atomic.Int64
	endpointLock  sync.Mutex
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

func Default() *Metrics {
	once.Do(func() {
		defaultMetrics = New()
	})
	return defaultMetrics
}

func New() *Metrics {
	return &Metrics{
		startTime:     time.Now(),
		responseTimes: make([]time.Duration, 0, 1000),
		endpointCalls: make(map[string]*atomic.Int64),
	}
}

func (m *Metrics) RecordRequest(success bool) {
	m.requestsTotal.Add(1)
	if success {
		m.requestsSuccess.Add(1)
	} else {
		m.requestsFailed.Add(1)
	}
}

func (m *Metrics) RecordRecordWrite() {
	m.recordsWritten.Add(1)
}

func (m *Metrics) RecordRecordDelete() {
	m.recordsDeleted.Add(1)
}

func (m *Metrics) RecordSummaryUpsert() {
	m.summariesUpserted.Add(1)
}

func (m *Metrics) RecordExerciseLogSave() {
	m.exerciseLogsSaved.Add(1)
}

func (m *Metrics) RecordExcelExport() {
	m.excelExports.Add(1)
}

func (m *Metrics) RecordMarkdownExport() {
	m.markdownExports.Add(1)
}

// RecordRecoveredJSON counts reads where a persisted blob failed to parse
// and was recovered into a fallback map.
func (m *Metrics) RecordRecoveredJSON() {
	m.recoveredJSONReads.Add(1)
}

func (m *Metrics) RecordEndpointCall(endpoint string) {
	m.endpointLock.Lock()
	defer m.endpointLock.Unlock()

	if m.endpointCalls[endpoint] == nil {
		m.endpointCalls[endpoint] = &atomic.Int64{}
	}
	m.endpointCalls[endpoint].Add(1)
}

func (m *Metrics) RecordResponseTime(d time.Duration) {
	m.responseTimesLock.Lock()
	defer m.responseTimesLock.Unlock()

	m.responseTimes = append(m.responseTimes, d)
	if len(m.responseTimes) > 1000 {
		m.responseTimes = m.responseTimes[1:]
	}
}

type SnapshotData struct {
	Uptime             time.Duration    `json:"uptime"`
	RequestsTotal      int64            `json:"requests_total"`
	RequestsSuccess    int64            `json:"requests_success"`
	RequestsFailed     int64            `json:"requests_failed"`
	RecordsWritten     int64            `json:"records_written"`
	RecordsDeleted     int64            `json:"records_deleted"`
	SummariesUpserted  int64            `json:"summaries_upserted"`
	ExerciseLogsSaved  int64            `json:"exercise_logs_saved"`
	ExcelExports       int64            `json:"excel_exports"`
	MarkdownExports    int64            `json:"markdown_exports"`
	RecoveredJSONReads int64            `json:"recovered_json_reads"`
	AvgResponseTime    time.Duration    `json:"avg_response_time"`
	EndpointCalls      map[string]int64 `json:"endpoint_calls"`
	SuccessRate        float64          `json:"success_rate"`
}

func (m *Metrics) Snapshot() *SnapshotData {
	s := &SnapshotData{
		Uptime:             time.Since(m.startTime),
		RequestsTotal:      m.requestsTotal.Load(),
		RequestsSuccess:    m.requestsSuccess.Load(),
		RequestsFailed:     m.requestsFailed.Load(),
		RecordsWritten:     m.recordsWritten.Load(),
		RecordsDeleted:     m.recordsDeleted.Load(),
		SummariesUpserted:  m.summariesUpserted.Load(),
		ExerciseLogsSaved:  m.exerciseLogsSaved.Load(),
		ExcelExports:       m.excelExports.Load(),
		MarkdownExports:    m.markdownExports.Load(),
		RecoveredJSONReads: m.recoveredJSONReads.Load(),
		EndpointCalls:      make(map[string]int64),
	}

	if s.RequestsTotal > 0 {
		s.SuccessRate = float64(s.RequestsSuccess) / float64(s.RequestsTotal) * 100
	}

	m.responseTimesLock.Lock()
	if len(m.responseTimes) > 0 {
		var total time.Duration
		for _, rt := range m.responseTimes {
			total += rt
		}
		s.AvgResponseTime = total / time.Duration(len(m.responseTimes))
	}
	m.responseTimesLock.Unlock()

	m.endpointLock.Lock()
	for k, v := range m.endpointCalls {
		s.EndpointCalls[k] = v.Load()
	}
	m.endpointLock.Unlock()

	return s
}

func (m *Metrics) Prometheus() string {
	var sb strings.Builder

	writeCounter := func(name, help string, value int64) {
		sb.WriteString("# HELP " + name + " " + help + "\n")
		sb.WriteString("# TYPE " + name + " counter\n")
		sb.WriteString(name + " " + strconv.FormatInt(value, 10) + "\n\n")
	}

	sb.WriteString("# HELP healthrec_uptime_seconds Time since server start\n")
	sb.WriteString("# TYPE healthrec_uptime_seconds gauge\n")
	sb.WriteString("healthrec_uptime_seconds " + strconv.FormatInt(int64(time.Since(m.startTime).Seconds()), 10) + "\n\n")

	writeCounter("healthrec_requests_total", "Total number of requests", m.requestsTotal.Load())
	writeCounter("healthrec_requests_success", "Successful requests", m.requestsSuccess.Load())
	writeCounter("healthrec_requests_failed", "Failed requests", m.requestsFailed.Load())
	writeCounter("healthrec_records_written_total", "Observations written", m.recordsWritten.Load())
	writeCounter("healthrec_records_deleted_total", "Observations deleted", m.recordsDeleted.Load())
	writeCounter("healthrec_summaries_upserted_total", "Daily summaries upserted", m.summariesUpserted.Load())
	writeCounter("healthrec_exercise_logs_saved_total", "Exercise logs saved", m.exerciseLogsSaved.Load())
	writeCounter("healthrec_excel_exports_total", "Excel exports generated", m.excelExports.Load())
	writeCounter("healthrec_markdown_exports_total", "Markdown exports generated", m.markdownExports.Load())
	writeCounter("healthrec_recovered_json_reads_total", "Reads recovered from malformed JSON blobs", m.recoveredJSONReads.Load())

	m.endpointLock.Lock()
	for endpoint, count := range m.endpointCalls {
		sb.WriteString("# HELP healthrec_endpoint_calls_total Calls per endpoint\n")
		sb.WriteString("# TYPE healthrec_endpoint_calls_total counter\n")
		sb.WriteString("healthrec_endpoint_calls_total{endpoint=\"" + endpoint + "\"} " + strconv.FormatInt(count.Load(), 10) + "\n\n")
	}
	m.endpointLock.Unlock()

	return sb.String()
}

func RecordRequest(success bool) {
	Default().RecordRequest(success)
}

func RecordRecordWrite() {
	Default().RecordRecordWrite()
}

func RecordRecordDelete() {
	Default().RecordRecordDelete()
}

func RecordSummaryUpsert() {
	Default().RecordSummaryUpsert()
}

func RecordExerciseLogSave() {
	Default().RecordExerciseLogSave()
}

func RecordExcelExport() {
	Default().RecordExcelExport()
}

func RecordMarkdownExport() {
	Default().RecordMarkdownExport()
}

func RecordRecoveredJSON() {
	Default().RecordRecoveredJSON()
}

func RecordEndpointCall(endpoint string) {
	Default().RecordEndpointCall(endpoint)
}

func RecordResponseTime(d time.Duration) {
	Default().RecordResponseTime(d)
}

func GetSnapshot() *SnapshotData {
	return Default().Snapshot()
}

func GetPrometheus() string {
	return Default().Prometheus()
}
