package prometheus

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, registry)

var (
	// Generation latency buckets in milliseconds. Model calls take seconds.
	latencyBuckets = []float64{
		50, 100, 250,
		500, 1000, 2500,
		5000, 10000, 30000,
	}

	VerdictsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "safefacts_verdicts_total",
			Help: "Total number of safety verdicts by persona, kind and reason",
		},
		[]string{"persona", "verdict", "reason"},
	)

	GenerationLatency = promauto.With(registerer).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "safefacts_generation_latency_ms",
			Help:    "Generator call latency in milliseconds",
			Buckets: latencyBuckets,
		},
		[]string{"provider", "outcome"},
	)

	InflightRejectedTotal = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "safefacts_inflight_rejected_total",
			Help: "Requests rejected because a call for the same session was in flight",
		},
	)
)

var initOnce sync.Once

// Initialize adds the process collector to the registry and makes it the
// default gatherer. Safe to call more than once.
func Initialize() {
	initOnce.Do(func() {
		registry.MustRegister(
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		prometheus.DefaultRegisterer = registry
		prometheus.DefaultGatherer = registry
	})
}

func Registry() *prometheus.Registry {
	return registry
}

func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

func ObserveVerdict(persona, verdict, reason string) {
	VerdictsTotal.WithLabelValues(persona, verdict, reason).Inc()
}

func ObserveGeneration(provider, outcome string, latencyMs float64) {
	GenerationLatency.WithLabelValues(provider, outcome).Observe(latencyMs)
}
