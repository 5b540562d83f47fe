package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictions     *prometheus.CounterVec
	trainingJobs    *prometheus.CounterVec
	headlinesScored prometheus.Counter
	lastPrice       *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		predictions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketminds_predictions_total",
				Help: "Predictions served, by symbol and outcome",
			},
			[]string{"symbol", "outcome"},
		),
		trainingJobs: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketminds_training_jobs_total",
				Help: "Training jobs finished, by symbol and outcome",
			},
			[]string{"symbol", "outcome"},
		),
		headlinesScored: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "marketminds_headlines_scored_total",
				Help: "Headlines scored by the sentiment engine",
			},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketminds_last_price",
				Help: "Last observed price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketminds_operation_duration_seconds",
				Help:    "Duration of core operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketminds_errors_total",
				Help: "Errors encountered, by kind",
			},
			[]string{"type"},
		),
	}
}

// RecordPrediction records a served prediction by outcome
// ("ok", "not_trained", "error").
func (r *Recorder) RecordPrediction(symbol, outcome string) {
	r.predictions.WithLabelValues(symbol, outcome).Inc()
}

// RecordTrainingJob records a finished training job by outcome.
func (r *Recorder) RecordTrainingJob(symbol, outcome string) {
	r.trainingJobs.WithLabelValues(symbol, outcome).Inc()
}

// RecordHeadlinesScored adds n scored headlines.
func (r *Recorder) RecordHeadlinesScored(n int) {
	r.headlinesScored.Add(float64(n))
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
