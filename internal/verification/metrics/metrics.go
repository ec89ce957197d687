package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification workflow engine.
// Tracks submissions, transitions, and optimistic-concurrency pressure.
type Metrics struct {
	CasesSubmitted    prometheus.Counter
	Transitions       *prometheus.CounterVec
	SaveConflicts     prometheus.Counter
	OperationDuration *prometheus.HistogramVec
}

// New creates a Metrics instance with all workflow metrics registered.
func New() *Metrics {
	return &Metrics{
		CasesSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "landregistry_cases_submitted_total",
			Help: "Total number of verification cases submitted",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "landregistry_case_transitions_total",
			Help: "Total number of case status transitions",
		}, []string{"to_status"}),
		SaveConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "landregistry_case_save_conflicts_total",
			Help: "Total number of stale writes detected on case saves",
		}),
		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "landregistry_workflow_operation_duration_seconds",
			Help:    "Duration of workflow engine operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

// IncrementSubmitted records a successful case submission.
func (m *Metrics) IncrementSubmitted() {
	if m == nil {
		return
	}
	m.CasesSubmitted.Inc()
}

// RecordTransition records a committed status transition.
func (m *Metrics) RecordTransition(toStatus string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(toStatus).Inc()
}

// RecordConflict records a stale write that forced a retry.
func (m *Metrics) RecordConflict() {
	if m == nil {
		return
	}
	m.SaveConflicts.Inc()
}

// ObserveOperation records the duration of one engine operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
