// Package metrics exposes Prometheus metrics for plan generation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeDegraded = "degraded"
	OutcomeError    = "error"
	OutcomeInvalid  = "invalid"
)

// Metrics holds all Prometheus metrics for learnstack.
// It implements core.StageObserver.
type Metrics struct {
	Generations        *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	StageRuns          *prometheus.CounterVec
	StageDuration      *prometheus.HistogramVec
	CacheLookups       *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance with every metric registered on registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Generations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "learnstack_generations_total",
				Help: "Total number of plan generation requests by outcome",
			},
			[]string{"outcome"},
		),
		GenerationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "learnstack_generation_duration_seconds",
				Help:    "End-to-end plan generation time in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		),
		StageRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "learnstack_stage_runs_total",
				Help: "Total number of pipeline stage runs",
			},
			[]string{"pipeline", "stage", "outcome"},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "learnstack_stage_duration_seconds",
				Help:    "LLM call time per pipeline stage in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"pipeline", "stage"},
		),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "learnstack_cache_lookups_total",
				Help: "Plan cache lookups by result (hit or miss)",
			},
			[]string{"result"},
		),
	}
}

// NewRegistry creates a registry with the Go and process collectors plus learnstack metrics.
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, NewMetrics(reg)
}

// HandlerFor returns an HTTP handler for a specific registry.
func HandlerFor(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func (m *Metrics) StageStarted(pipeline, stage string, inputChars int) {}

func (m *Metrics) StageFinished(pipeline, stage string, outputChars int, elapsed time.Duration, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.StageRuns.WithLabelValues(pipeline, stage, outcome).Inc()
	m.StageDuration.WithLabelValues(pipeline, stage).Observe(elapsed.Seconds())
}

// ObserveGeneration records one finished generation request.
func (m *Metrics) ObserveGeneration(outcome string, elapsed time.Duration) {
	m.Generations.WithLabelValues(outcome).Inc()
	m.GenerationDuration.Observe(elapsed.Seconds())
}

// ObserveCacheLookup records a cache hit or miss.
func (m *Metrics) ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}
