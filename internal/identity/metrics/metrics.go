package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the identity module. All methods
// are safe on a nil receiver so tests can skip metrics wiring.
type Metrics struct {
	UsersCreated prometheus.Counter
	KYCDecisions *prometheus.CounterVec
}

// New creates and registers the identity metrics.
func New() *Metrics {
	return &Metrics{
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "landregistry_users_created_total",
			Help: "Total number of user records created on first login",
		}),
		KYCDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "landregistry_kyc_decisions_total",
			Help: "Total number of admin KYC decisions by outcome",
		}, []string{"outcome"}),
	}
}

// IncrementUsersCreated increments the users created counter by 1.
func (m *Metrics) IncrementUsersCreated() {
	if m == nil {
		return
	}
	m.UsersCreated.Inc()
}

// RecordKYCDecision counts one admin KYC decision outcome.
func (m *Metrics) RecordKYCDecision(outcome string) {
	if m == nil {
		return
	}
	m.KYCDecisions.WithLabelValues(outcome).Inc()
}
