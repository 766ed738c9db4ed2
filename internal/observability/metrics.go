package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// detection pipeline.
type Metrics struct {
	MessagesConsumed prometheus.Counter
	EventsPublished  prometheus.Counter
	AnalysisErrors   prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Detection metrics.
	EventsDetected *prometheus.CounterVec // label: method={INMET,Ouzeau,TW_P90}
	EventDuration  *prometheus.HistogramVec
	EventSeverity  *prometheus.HistogramVec
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heatwave_etl",
			Name:      "messages_consumed_total",
			Help:      "Total observation bundles read from the source topic.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heatwave_etl",
			Name:      "events_published_total",
			Help:      "Total heatwave events written to the sink topic.",
		}),
		AnalysisErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heatwave_etl",
			Name:      "analysis_errors_total",
			Help:      "Total observation bundles that failed analysis.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "heatwave_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "heatwave_etl",
			Name:      "batch_size",
			Help:      "Number of bundles per batch extracted from Kafka.",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 50},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "heatwave_etl",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-analyze-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		EventsDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heatwave_etl",
			Name:      "events_detected_total",
			Help:      "Detected heatwave events by method.",
		}, []string{"method"}),
		EventDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "heatwave_etl",
			Name:      "event_duration_days",
			Help:      "Duration of detected events in days, by method.",
			Buckets:   []float64{2, 3, 5, 7, 10, 14, 21},
		}, []string{"method"}),
		EventSeverity: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "heatwave_etl",
			Name:      "event_severity_cday",
			Help:      "Severity of detected events in degree-days, by method.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"method"}),
	}

	prometheus.MustRegister(
		m.MessagesConsumed,
		m.EventsPublished,
		m.AnalysisErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.EventsDetected,
		m.EventDuration,
		m.EventSeverity,
	)

	return m
}

// NewMetricsForTesting creates Metrics without touching the default
// registry, avoiding "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		MessagesConsumed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "heatwave_etl", Name: "messages_consumed_total"}),
		EventsPublished:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "heatwave_etl", Name: "events_published_total"}),
		AnalysisErrors:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "heatwave_etl", Name: "analysis_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "heatwave_etl", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "heatwave_etl", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "heatwave_etl", Name: "batch_processing_duration_seconds"}),
		EventsDetected:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "heatwave_etl", Name: "events_detected_total"}, []string{"method"}),
		EventDuration:           prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "heatwave_etl", Name: "event_duration_days"}, []string{"method"}),
		EventSeverity:           prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "heatwave_etl", Name: "event_severity_cday"}, []string{"method"}),
	}
}
