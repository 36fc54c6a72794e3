package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external
// dependencies. Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	submissions      atomic.Uint64
	submissionErrors atomic.Uint64
	oracleUpdates    atomic.Uint64

	// Submission confirm latency
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	oracleConnected atomic.Int32 // 1 = connected
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordSubmission records a confirmed submission with its latency.
func (m *Metrics) RecordSubmission(latencyNs int64) {
	m.submissions.Add(1)
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

// RecordSubmissionError records a failed submission.
func (m *Metrics) RecordSubmissionError() {
	m.submissionErrors.Add(1)
}

// RecordOracleUpdate records a received oracle price update.
func (m *Metrics) RecordOracleUpdate() {
	m.oracleUpdates.Add(1)
}

// SetOracleConnected sets the oracle feed connection state.
func (m *Metrics) SetOracleConnected(connected bool) {
	if connected {
		m.oracleConnected.Store(1)
	} else {
		m.oracleConnected.Store(0)
	}
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	Submissions      uint64
	SubmissionErrors uint64
	OracleUpdates    uint64
	AvgLatencyNs     int64
	OracleConnected  bool
	Timestamp        time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		Submissions:      m.submissions.Load(),
		SubmissionErrors: m.submissionErrors.Load(),
		OracleUpdates:    m.oracleUpdates.Load(),
		AvgLatencyNs:     avgLatency,
		OracleConnected:  m.oracleConnected.Load() == 1,
		Timestamp:        time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.submissions.Store(0)
	m.submissionErrors.Store(0)
	m.oracleUpdates.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.oracleConnected.Store(0)
}
