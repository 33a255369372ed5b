package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	tickersTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	lastClose    *prometheus.GaugeVec
	stageLatency *prometheus.HistogramVec
	completeness prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		tickersTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketscout_tickers_total",
				Help: "Tickers processed per run, labelled by final status",
			},
			[]string{"status"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketscout_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastClose: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketscout_last_close",
				Help: "Last normalized close for a symbol",
			},
			[]string{"symbol"},
		),
		stageLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketscout_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		completeness: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "marketscout_run_completeness_ratio",
				Help: "Fraction of the universe successfully processed in the last run",
			},
		),
	}
}

// RecordTicker counts a ticker finishing the pipeline with a status.
func (r *Recorder) RecordTicker(status string) {
	r.tickersTotal.WithLabelValues(status).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastClose records the last close for a symbol.
func (r *Recorder) RecordLastClose(symbol string, price float64) {
	r.lastClose.WithLabelValues(symbol).Set(price)
}

// RecordStageLatency records stage latency in seconds.
func (r *Recorder) RecordStageLatency(stage string, seconds float64) {
	r.stageLatency.WithLabelValues(stage).Observe(seconds)
}

// RecordCompleteness records the run completeness ratio.
func (r *Recorder) RecordCompleteness(ratio float64) {
	r.completeness.Set(ratio)
}
