package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the prometheus instruments shared across services.
type Metrics struct {
	registry *prometheus.Registry

	paymentOperations *prometheus.CounterVec
	webhookDeliveries *prometheus.CounterVec
	webhookLatency    *prometheus.HistogramVec
	webhookBacklog    prometheus.Gauge
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		paymentOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "payflow",
			Name:      "payment_operations_total",
			Help:      "Payment operations by type and outcome.",
		}, []string{"operation", "outcome"}),
		webhookDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "payflow",
			Name:      "webhook_deliveries_total",
			Help:      "Webhook delivery attempts by result.",
		}, []string{"result"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "payflow",
			Name:      "webhook_delivery_duration_seconds",
			Help:      "Outbound webhook request duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		webhookBacklog: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "payflow",
			Name:      "webhook_pending_events",
			Help:      "Webhook events currently pending delivery.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "payflow",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "payflow",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	registry.MustRegister(
		m.paymentOperations,
		m.webhookDeliveries,
		m.webhookLatency,
		m.webhookBacklog,
		m.httpRequests,
		m.httpDuration,
	)

	return m
}

// Registry returns the prometheus registry backing the /metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordPaymentOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.paymentOperations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) RecordWebhookDelivery(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.webhookDeliveries.WithLabelValues(result).Inc()
	m.webhookLatency.WithLabelValues(result).Observe(elapsed.Seconds())
}

func (m *Metrics) SetWebhookBacklog(n int64) {
	if m == nil {
		return
	}
	m.webhookBacklog.Set(float64(n))
}

func (m *Metrics) RecordHTTPRequest(route, method, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, status).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}
