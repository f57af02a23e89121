// Package metrics exposes prometheus instruments for signing flows and node calls.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "unisigner"

	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics groups the signer's counters and histograms.
type Metrics struct {
	signTotal    *prometheus.CounterVec
	signDuration *prometheus.HistogramVec
	nodeRequests *prometheus.CounterVec
}

// NewMetrics registers the instruments on reg, falling back to the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		signTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sign_total",
			Help:      "Signing attempts by backend and result",
		}, []string{"backend", "result"}),
		signDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sign_duration_seconds",
			Help:      "Time spent in a backend's sign call, including user approval",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"backend"}),
		nodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_requests_total",
			Help:      "Node simulate and broadcast requests by result",
		}, []string{"operation", "result"}),
	}
	reg.MustRegister(m.signTotal, m.signDuration, m.nodeRequests)
	return m
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// ObserveSign records one sign call of backend.
func (m *Metrics) ObserveSign(backend string, duration time.Duration, err error) {
	m.signTotal.WithLabelValues(backend, result(err)).Inc()
	m.signDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// ObserveNodeRequest records one node call.
func (m *Metrics) ObserveNodeRequest(operation string, err error) {
	m.nodeRequests.WithLabelValues(operation, result(err)).Inc()
}
