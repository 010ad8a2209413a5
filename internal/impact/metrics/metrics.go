package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the impact metric store.
type Metrics struct {
	MetricsRecorded *prometheus.CounterVec
	RecordDuration  prometheus.Histogram
	NoDataReads     prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MetricsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "canopy_impact_metrics_recorded_total",
			Help: "Total number of impact metrics recorded by metric type",
		}, []string{"metric_type"}),
		RecordDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "canopy_impact_metric_record_duration_seconds",
			Help:    "Duration of RecordMetric operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		NoDataReads: factory.NewCounter(prometheus.CounterOpts{
			Name: "canopy_impact_metric_average_no_data_total",
			Help: "Average requests for a project and type with no recorded metrics",
		}),
	}
}

func (m *Metrics) RecordMetric(metricType string, start time.Time) {
	m.MetricsRecorded.WithLabelValues(metricType).Inc()
	m.RecordDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementNoData() {
	m.NoDataReads.Inc()
}
