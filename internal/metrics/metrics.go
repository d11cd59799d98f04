package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InboundEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbound_events_total",
			Help: "Total number of gateway webhook events received",
		},
		[]string{"event"},
	)

	InboundParseFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inbound_parse_failures_total",
			Help: "Total number of webhook bodies rejected as malformed",
		},
	)

	LeadScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lead_qualification_score",
			Help:    "Distribution of lead qualification scores",
			Buckets: prometheus.LinearBuckets(30, 10, 8),
		},
	)

	LeadsQualifiedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leads_qualified_total",
			Help: "Total number of messages that reached the qualification threshold",
		},
	)

	LeadRelaysTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_relays_total",
			Help: "Total number of lead relay attempts to the automation host",
		},
		[]string{"status"},
	)

	WhatsAppSendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whatsapp_sends_total",
			Help: "Total number of outbound WhatsApp messages handed to the gateway",
		},
		[]string{"status"},
	)

	ParkedDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parked_deliveries_total",
			Help: "Total number of failed deliveries parked for replay",
		},
		[]string{"kind"},
	)

	ReplayedDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replayed_deliveries_total",
			Help: "Total number of parked deliveries replayed by the worker",
		},
		[]string{"kind", "status"},
	)

	IntegrationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "integration_errors_total",
			Help: "Total number of integration errors",
		},
		[]string{"service"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

func RecordInboundEvent(event string) {
	InboundEventsTotal.WithLabelValues(event).Inc()
}

func RecordParseFailure() {
	InboundParseFailuresTotal.Inc()
}

func ObserveLeadScore(score int, qualifies bool) {
	LeadScores.Observe(float64(score))
	if qualifies {
		LeadsQualifiedTotal.Inc()
	}
}

func RecordRelay(ok bool) {
	LeadRelaysTotal.WithLabelValues(status(ok)).Inc()
	if !ok {
		RecordIntegrationError("n8n")
	}
}

func RecordSend(ok bool) {
	WhatsAppSendsTotal.WithLabelValues(status(ok)).Inc()
	if !ok {
		RecordIntegrationError("evolution")
	}
}

func RecordParked(kind string) {
	ParkedDeliveriesTotal.WithLabelValues(kind).Inc()
}

func RecordReplay(kind string, ok bool) {
	ReplayedDeliveriesTotal.WithLabelValues(kind, status(ok)).Inc()
}

func RecordIntegrationError(service string) {
	IntegrationErrorsTotal.WithLabelValues(service).Inc()
}

func SetCircuitBreakerState(name string, state float64) {
	CircuitBreakerState.WithLabelValues(name).Set(state)
}

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
