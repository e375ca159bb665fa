// Package metrics exposes the Prometheus instrumentation for the
// assessment pipeline: data-quality counters for imputed inputs,
// provider failure/retry counters, and the score distribution.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Collector holds every metric the pipeline records. Construct one per
// process and inject it; the registry keeps tests isolated from each
// other.
type Collector struct {
	registry *prometheus.Registry

	DegradedInputs  *prometheus.CounterVec
	ProviderErrors  *prometheus.CounterVec
	ProviderRetries *prometheus.CounterVec
	Assessments     *prometheus.CounterVec
	Scores          prometheus.Histogram
}

// NewCollector registers all pipeline metrics on a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		DegradedInputs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credintel_degraded_inputs_total",
				Help: "Financial fields imputed to a fallback, by feature",
			},
			[]string{"feature"},
		),

		ProviderErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credintel_provider_errors_total",
				Help: "Upstream fetches that failed after retries, by provider",
			},
			[]string{"provider"},
		),

		ProviderRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credintel_provider_retries_total",
				Help: "Retry attempts against upstream providers",
			},
			[]string{"provider"},
		),

		Assessments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credintel_assessments_total",
				Help: "Completed and skipped assessments",
			},
			[]string{"status"},
		),

		Scores: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "credintel_credit_score",
				Help:    "Distribution of produced credit scores",
				Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
		),
	}

	c.registry.MustRegister(
		c.DegradedInputs, c.ProviderErrors, c.ProviderRetries, c.Assessments, c.Scores,
	)
	return c
}

// RecordDegradedInput implements features.QualityRecorder.
func (c *Collector) RecordDegradedInput(ticker, field string) {
	c.DegradedInputs.WithLabelValues(field).Inc()
}

// RecordRetry implements providers.RetryRecorder.
func (c *Collector) RecordRetry(provider string) {
	c.ProviderRetries.WithLabelValues(provider).Inc()
}

// RecordProviderError implements providers.RetryRecorder.
func (c *Collector) RecordProviderError(provider string) {
	c.ProviderErrors.WithLabelValues(provider).Inc()
}

// RecordSkip implements ingest.SkipRecorder.
func (c *Collector) RecordSkip(ticker string) {
	c.Assessments.WithLabelValues("skipped").Inc()
}

// RecordAssessment counts a completed assessment and observes its score.
func (c *Collector) RecordAssessment(score float64) {
	c.Assessments.WithLabelValues("completed").Inc()
	c.Scores.Observe(score)
}

// Handler serves the registry for the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// DegradedInputCount reads a feature's imputation counter back out of
// the registry, for the data-quality summary endpoint.
func (c *Collector) DegradedInputCount(feature string) float64 {
	m := &dto.Metric{}
	counter, err := c.DegradedInputs.GetMetricWithLabelValues(feature)
	if err != nil {
		return 0
	}
	if err := counter.Write(m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}
