package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	rowsStored  *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	queries     *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		rowsStored: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auctionpulse_rows_stored_total",
				Help: "Total snapshot rows written to storage",
			},
			[]string{"phase"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auctionpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "auctionpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		queries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auctionpulse_queries_total",
				Help: "Total analysis queries served",
			},
			[]string{"query"},
		),
	}
}

// RecordRowsStored records snapshot rows written for one phase.
func (r *Recorder) RecordRowsStored(phase string, n int) {
	r.rowsStored.WithLabelValues(phase).Add(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordQuery records one served analysis query.
func (r *Recorder) RecordQuery(query string) {
	r.queries.WithLabelValues(query).Inc()
}
