// Package metrics defines the Prometheus collectors exported by the API.
//
// A nil *Metrics is valid and records nothing, so services and tests can
// omit it.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "raasta_sathi"

// Metrics holds Prometheus metrics for the service
type Metrics struct {
	RequestCounter    *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	RequestsInFlight  prometheus.Gauge
	SweepRuns         *prometheus.CounterVec
	SweepItems        *prometheus.CounterVec
	SweepDuration     *prometheus.HistogramVec
	PollVotes         *prometheus.CounterVec
	StatusTransitions *prometheus.CounterVec
	DBQueryDuration   *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),
		SweepRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "sweep_runs_total",
				Help:      "Scheduler sweep runs by outcome",
			},
			[]string{"sweep", "outcome"}, // outcome: complete, partial
		),
		SweepItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "sweep_items_total",
				Help:      "Records handled by scheduler sweeps",
			},
			[]string{"sweep", "result"}, // result: processed, failed
		),
		SweepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "sweep_duration_seconds",
				Help:      "Scheduler sweep duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 15, 30, 60},
			},
			[]string{"sweep"},
		),
		PollVotes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reports",
				Name:      "poll_votes_total",
				Help:      "Community poll votes by choice",
			},
			[]string{"choice"},
		),
		StatusTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reports",
				Name:      "status_transitions_total",
				Help:      "Report status transitions by path and target status",
			},
			[]string{"path", "to"},
		),
		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "SurrealDB query duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op", "outcome"},
		),
	}
}

// ObserveRequest records one completed HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestCounter.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// TrackInFlight increments the in-flight gauge and returns the matching decrement
func (m *Metrics) TrackInFlight() func() {
	if m == nil {
		return func() {}
	}
	m.RequestsInFlight.Inc()
	return m.RequestsInFlight.Dec
}

// ObserveSweep records one scheduler sweep run
func (m *Metrics) ObserveSweep(name string, processed, failed int, partial bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "complete"
	if partial {
		outcome = "partial"
	}
	m.SweepRuns.WithLabelValues(name, outcome).Inc()
	m.SweepItems.WithLabelValues(name, "processed").Add(float64(processed))
	m.SweepItems.WithLabelValues(name, "failed").Add(float64(failed))
	m.SweepDuration.WithLabelValues(name).Observe(d.Seconds())
}

// PollVote records one accepted poll vote
func (m *Metrics) PollVote(choice string) {
	if m == nil {
		return
	}
	m.PollVotes.WithLabelValues(choice).Inc()
}

// StatusTransition records a report status change
func (m *Metrics) StatusTransition(path, to string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(path, to).Inc()
}

// ObserveQuery records one database round trip
func (m *Metrics) ObserveQuery(op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.DBQueryDuration.WithLabelValues(op, outcome).Observe(d.Seconds())
}
