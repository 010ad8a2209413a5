package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the donation ledger.
type Metrics struct {
	DonationsMade     prometheus.Counter
	AmountDonated     prometheus.Counter
	StatusUpdates     *prometheus.CounterVec
	RejectedDonations *prometheus.CounterVec
	MakeDuration      prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DonationsMade: factory.NewCounter(prometheus.CounterOpts{
			Name: "canopy_donations_made_total",
			Help: "Total number of donations recorded",
		}),
		AmountDonated: factory.NewCounter(prometheus.CounterOpts{
			Name: "canopy_donations_amount_total",
			Help: "Sum of all recorded donation amounts",
		}),
		StatusUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "canopy_donation_status_updates_total",
			Help: "Total number of donation status updates by target status",
		}, []string{"status"}),
		RejectedDonations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "canopy_donations_rejected_total",
			Help: "Donation operations rejected, by error kind",
		}, []string{"reason"}),
		MakeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "canopy_donation_make_duration_seconds",
			Help:    "Duration of MakeDonation operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) RecordDonation(amount int64, start time.Time) {
	m.DonationsMade.Inc()
	m.AmountDonated.Add(float64(amount))
	m.MakeDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementStatusUpdate(status string) {
	m.StatusUpdates.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementRejected(reason string) {
	m.RejectedDonations.WithLabelValues(reason).Inc()
}
