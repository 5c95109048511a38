package metrics

import (
	"trust_donations/internal/usecase/interfaces"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "donation"

// DonationMetrics exposes the write-path counters on a Prometheus registry.
type DonationMetrics struct {
	transitions   *prometheus.CounterVec
	webhookEvents *prometheus.CounterVec
	sweepItems    *prometheus.CounterVec
}

var _ interfaces.IDonationMetrics = (*DonationMetrics)(nil)

func NewDonationMetrics(reg prometheus.Registerer) *DonationMetrics {
	m := &DonationMetrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Donation status writes by writer and resulting status.",
		}, []string{"writer", "status"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Authenticated webhook deliveries by event type and outcome.",
		}, []string{"event", "outcome"}),
		sweepItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_items_total",
			Help:      "Donations examined by the reconciliation sweep by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.transitions, m.webhookEvents, m.sweepItems)
	return m
}

func (m *DonationMetrics) ObserveTransition(writer, status string) {
	m.transitions.WithLabelValues(writer, status).Inc()
}

func (m *DonationMetrics) ObserveWebhookEvent(event, outcome string) {
	m.webhookEvents.WithLabelValues(event, outcome).Inc()
}

func (m *DonationMetrics) ObserveSweepItem(outcome string) {
	m.sweepItems.WithLabelValues(outcome).Inc()
}
