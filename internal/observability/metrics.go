package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// conversion pipeline.
type Metrics struct {
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	ConvertErrors    prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Conversion detail metrics.
	ConvertDuration prometheus.Histogram
	EntitiesEmitted *prometheus.CounterVec // label: entity={origin,magnitude,pick,stationMagnitude,focalMechanism}

	// Nearest-place lookup metrics.
	PlaceRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	PlaceCache       *prometheus.CounterVec // labels: result={hit,miss}
	PlaceAPIDuration prometheus.Histogram
	PlaceEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.MessagesConsumed,
		m.MessagesProduced,
		m.ConvertErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.ConvertDuration,
		m.EntitiesEmitted,
		m.PlaceRequests,
		m.PlaceCache,
		m.PlaceAPIDuration,
		m.PlaceEnabled,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "css2qml",
			Name:      "messages_consumed_total",
			Help:      "Total event bundles read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "css2qml",
			Name:      "messages_produced_total",
			Help:      "Total QuakeML documents written to the sink topic.",
		}),
		ConvertErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "css2qml",
			Name:      "convert_errors_total",
			Help:      "Total bundle conversion failures.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "css2qml",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "css2qml",
			Name:      "batch_size",
			Help:      "Number of bundles per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "css2qml",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		ConvertDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "css2qml",
			Name:      "convert_duration_seconds",
			Help:      "Duration of a single bundle-to-QuakeML conversion.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		EntitiesEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "css2qml",
			Name:      "entities_emitted_total",
			Help:      "QuakeML entities emitted by class.",
		}, []string{"entity"}),
		PlaceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "css2qml",
			Name:      "place_requests_total",
			Help:      "Nearest-place API requests by outcome.",
		}, []string{"outcome"}),
		PlaceCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "css2qml",
			Name:      "place_cache_total",
			Help:      "Nearest-place cache lookups by result.",
		}, []string{"result"}),
		PlaceAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "css2qml",
			Name:      "place_api_duration_seconds",
			Help:      "Nearest-place API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		PlaceEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "css2qml",
			Name:      "place_enabled",
			Help:      "1 when nearest-place enrichment is enabled, 0 otherwise.",
		}),
	}
}
