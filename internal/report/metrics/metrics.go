package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for progress reports.
type Metrics struct {
	ReportsSubmitted *prometheus.CounterVec
	StatusUpdates    *prometheus.CounterVec
	SubmitDuration   prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ReportsSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "canopy_reports_submitted_total",
			Help: "Total number of progress reports submitted by declared status",
		}, []string{"status"}),
		StatusUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "canopy_report_status_updates_total",
			Help: "Total number of report status updates by target status",
		}, []string{"status"}),
		SubmitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "canopy_report_submit_duration_seconds",
			Help:    "Duration of SubmitReport operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) RecordSubmission(status string, start time.Time) {
	m.ReportsSubmitted.WithLabelValues(status).Inc()
	m.SubmitDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementStatusUpdate(status string) {
	m.StatusUpdates.WithLabelValues(status).Inc()
}
