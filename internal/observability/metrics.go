package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mediconvo_active_sessions",
		Help: "Number of live translation sessions currently open",
	})

	totalSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediconvo_sessions_total",
		Help: "Total number of translation sessions started",
	})

	sessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mediconvo_session_duration_seconds",
		Help:    "Duration of translation sessions in seconds",
		Buckets: []float64{10, 30, 60, 120, 300, 600, 1200, 1800},
	})

	turnsCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediconvo_turns_committed_total",
		Help: "Total number of speaker turns committed to transcripts",
	})

	// Summary metrics
	summaryRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediconvo_summary_requests_total",
		Help: "Total number of summary generation requests",
	}, []string{"status"})

	summaryLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mediconvo_summary_latency_seconds",
		Help:    "Summary generation latency in seconds",
		Buckets: []float64{0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
	})

	// Document metrics
	documentsRendered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediconvo_documents_rendered_total",
		Help: "Total number of prescription documents rendered",
	})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediconvo_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Audio metrics
	audioBytesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediconvo_audio_bytes_total",
		Help: "Total audio bytes processed",
	}, []string{"direction"}) // direction: "in" or "out"
)

// Metrics tracks metrics for a single consultation session
type Metrics struct {
	sessionID        string
	startTime        time.Time
	summaryStartTime time.Time
	mu               sync.Mutex
}

// NewSessionMetrics creates a new metrics tracker for a session
func NewSessionMetrics(sessionID string) *Metrics {
	return &Metrics{
		sessionID: sessionID,
		startTime: time.Now(),
	}
}

// RecordSessionStart records the start of a session
func (m *Metrics) RecordSessionStart() {
	activeSessions.Inc()
	totalSessions.Inc()
}

// RecordSessionEnd records the end of a session
func (m *Metrics) RecordSessionEnd() {
	activeSessions.Dec()
	sessionDuration.Observe(time.Since(m.startTime).Seconds())
}

// RecordTurnCommitted records one committed speaker turn
func (m *Metrics) RecordTurnCommitted() {
	turnsCommitted.Inc()
}

// RecordSummaryStart records the start of summary generation
func (m *Metrics) RecordSummaryStart() {
	m.mu.Lock()
	m.summaryStartTime = time.Now()
	m.mu.Unlock()
}

// RecordSummaryEnd records the end of summary generation
func (m *Metrics) RecordSummaryEnd(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.summaryStartTime.IsZero() {
		summaryLatency.Observe(time.Since(m.summaryStartTime).Seconds())
	}

	status := "success"
	if !success {
		status = "error"
	}
	summaryRequests.WithLabelValues(status).Inc()
}

// RecordError records an error
func (m *Metrics) RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordAudioBytes records audio bytes processed
func (m *Metrics) RecordAudioBytes(direction string, bytes int64) {
	audioBytesProcessed.WithLabelValues(direction).Add(float64(bytes))
}

// RecordDocumentRendered increments the rendered-document counter
func RecordDocumentRendered() {
	documentsRendered.Inc()
}
