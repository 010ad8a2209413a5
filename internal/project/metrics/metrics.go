package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the project registry.
type Metrics struct {
	ProjectsRegistered   prometheus.Counter
	StatusUpdates        *prometheus.CounterVec
	RegisterDuration     prometheus.Histogram
	UpdateStatusDuration prometheus.Histogram
}

// New registers the project registry metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ProjectsRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "canopy_projects_registered_total",
			Help: "Total number of projects registered",
		}),
		StatusUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "canopy_project_status_updates_total",
			Help: "Total number of project status updates by target status",
		}, []string{"status"}),
		RegisterDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "canopy_project_register_duration_seconds",
			Help:    "Duration of RegisterProject operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		UpdateStatusDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "canopy_project_update_status_duration_seconds",
			Help:    "Duration of UpdateProjectStatus operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementRegistered() {
	m.ProjectsRegistered.Inc()
}

func (m *Metrics) IncrementStatusUpdate(status string) {
	m.StatusUpdates.WithLabelValues(status).Inc()
}

// ObserveRegister records the duration of a RegisterProject operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveRegister(start time.Time) {
	m.RegisterDuration.Observe(time.Since(start).Seconds())
}

// ObserveUpdateStatus records the duration of an UpdateProjectStatus operation.
func (m *Metrics) ObserveUpdateStatus(start time.Time) {
	m.UpdateStatusDuration.Observe(time.Since(start).Seconds())
}
