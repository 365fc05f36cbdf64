// Package metrics provides the Prometheus implementations of the bus and
// notification metric sinks, plus the scrape endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Bus
	EventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "devflow_bus_events_published_total",
		Help: "The total number of events published per topic",
	}, []string{"topic"})

	PublishErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "devflow_bus_publish_errors_total",
		Help: "The total number of publish failures per topic",
	}, []string{"topic"})

	EventsConsumed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "devflow_bus_events_consumed_total",
		Help: "The total number of events consumed per topic",
	}, []string{"topic"})

	EventsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "devflow_bus_events_dropped_total",
		Help: "The total number of dropped messages per topic and reason",
	}, []string{"topic", "reason"})

	HandlerFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "devflow_bus_handler_failures_total",
		Help: "The total number of handler failures per topic",
	}, []string{"topic"})

	// Notification router
	RulesMatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "devflow_notify_rules_matched_total",
		Help: "The total number of rule matches per rule",
	}, []string{"rule"})

	DeliveriesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "devflow_notify_deliveries_sent_total",
		Help: "The total number of successful deliveries per provider",
	}, []string{"provider"})

	DeliveryFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "devflow_notify_delivery_failures_total",
		Help: "The total number of failed delivery attempts per provider and reason",
	}, []string{"provider", "reason"})

	Escalations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "devflow_notify_escalations_total",
		Help: "The total number of escalation events synthesized",
	})

	DispatchLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "devflow_notify_dispatch_latency_seconds",
		Help:    "The latency of connector dispatch calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	// Realtime
	ConnectedClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "devflow_realtime_connected_clients",
		Help: "The current number of connected websocket clients",
	})
)

func init() {
	prometheus.MustRegister(
		EventsPublished,
		PublishErrors,
		EventsConsumed,
		EventsDropped,
		HandlerFailures,
		RulesMatched,
		DeliveriesSent,
		DeliveryFailures,
		Escalations,
		DispatchLatency,
		ConnectedClients,
	)
}

// BusMetrics implements the bus client's metric sink.
type BusMetrics struct{}

func (BusMetrics) IncPublished(topic string) {
	EventsPublished.WithLabelValues(topic).Inc()
}

func (BusMetrics) IncPublishFailure(topic string) {
	PublishErrors.WithLabelValues(topic).Inc()
}

func (BusMetrics) IncConsumed(topic string) {
	EventsConsumed.WithLabelValues(topic).Inc()
}

func (BusMetrics) IncDropped(topic, reason string) {
	EventsDropped.WithLabelValues(topic, reason).Inc()
}

func (BusMetrics) IncHandlerFailure(topic string) {
	HandlerFailures.WithLabelValues(topic).Inc()
}

// NotifyMetrics implements the notification router's metric sink.
type NotifyMetrics struct{}

func (NotifyMetrics) IncMatched(ruleID string) {
	RulesMatched.WithLabelValues(ruleID).Inc()
}

func (NotifyMetrics) IncDeliverySuccess(provider string) {
	DeliveriesSent.WithLabelValues(provider).Inc()
}

func (NotifyMetrics) IncDeliveryFailure(provider, reason string) {
	DeliveryFailures.WithLabelValues(provider, reason).Inc()
}

func (NotifyMetrics) IncEscalation() {
	Escalations.Inc()
}

func (NotifyMetrics) ObserveDispatch(provider string, d time.Duration) {
	DispatchLatency.WithLabelValues(provider).Observe(d.Seconds())
}
