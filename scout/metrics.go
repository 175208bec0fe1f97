package scout

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the polling loop.
type Metrics struct {
	RunsTotal     *prometheus.CounterVec
	AttemptsTotal *prometheus.CounterVec
	RunNumber     prometheus.Gauge
	RecordsFound  prometheus.Gauge
}

// NewMetrics constructs the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_runs_total",
			Help: "Total polling runs by result.",
		},
		[]string{"result"},
	)
	attempts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_attempts_total",
			Help: "Total search attempts by outcome.",
		},
		[]string{"outcome"},
	)
	runNumber := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scout_run_number",
			Help: "Number of the current polling run.",
		},
	)
	records := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scout_records_found",
			Help: "Records listed on the last successful search.",
		},
	)

	if reg != nil {
		reg.MustRegister(runs, attempts, runNumber, records)
	}

	return &Metrics{
		RunsTotal:     runs,
		AttemptsTotal: attempts,
		RunNumber:     runNumber,
		RecordsFound:  records,
	}
}

// IncRun counts a finished run.
func (m *Metrics) IncRun(result string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(result).Inc()
}

// IncAttempt counts a finished attempt.
func (m *Metrics) IncAttempt(outcome string) {
	if m == nil {
		return
	}
	m.AttemptsTotal.WithLabelValues(outcome).Inc()
}

// SetRun publishes the current run number.
func (m *Metrics) SetRun(run uint64) {
	if m == nil {
		return
	}
	m.RunNumber.Set(float64(run))
}

// SetRecords publishes the record count of a successful search.
func (m *Metrics) SetRecords(n int) {
	if m == nil {
		return
	}
	m.RecordsFound.Set(float64(n))
}
