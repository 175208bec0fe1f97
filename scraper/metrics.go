package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the search protocol.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ErrorsTotal     *prometheus.CounterVec
}

// NewMetrics constructs the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_http_requests_total",
			Help: "Total HTTP requests issued by the search protocol.",
		},
		[]string{"step", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scout_http_request_duration_seconds",
			Help:    "HTTP request latency per protocol step.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"step"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_search_errors_total",
			Help: "Total number of failed searches by error type.",
		},
		[]string{"error_type"},
	)

	if reg != nil {
		reg.MustRegister(requests, requestDuration, errorsTotal)
	}

	return &Metrics{
		RequestsTotal:   requests,
		RequestDuration: requestDuration,
		ErrorsTotal:     errorsTotal,
	}
}

// IncRequest counts a finished request.
func (m *Metrics) IncRequest(step, status string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(step, status).Inc()
}

// ObserveDuration records a request duration.
func (m *Metrics) ObserveDuration(step string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(step).Observe(d.Seconds())
}

// IncError counts a failed search by type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
