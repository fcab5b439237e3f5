package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "caption_shopify"

// Metrics holds the application's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	webhooks      *prometheus.CounterVec
	captions      *prometheus.CounterVec
	registrations *prometheus.CounterVec
	installs      *prometheus.CounterVec
	billing       *prometheus.CounterVec
	workerLatency prometheus.Histogram
}

// NewMetrics creates and registers all collectors on a private registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhooks_total",
			Help:      "Inbound webhooks by topic and outcome.",
		}, []string{"topic", "outcome"}),
		captions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "captions_total",
			Help:      "Caption attempts by result.",
		}, []string{"result"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_registrations_total",
			Help:      "Webhook registrations by topic and result.",
		}, []string{"topic", "result"}),
		installs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "installs_total",
			Help:      "OAuth install steps by stage and result.",
		}, []string{"stage", "result"}),
		billing: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "billing_events_total",
			Help:      "Billing provider events by type.",
		}, []string{"type"}),
		workerLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "caption_worker_seconds",
			Help:      "Caption worker call latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.webhooks,
		m.captions,
		m.registrations,
		m.installs,
		m.billing,
		m.workerLatency,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) WebhookReceived(topic, outcome string) {
	if m == nil {
		return
	}
	m.webhooks.WithLabelValues(topic, outcome).Inc()
}

func (m *Metrics) CaptionResult(ok bool) {
	if m == nil {
		return
	}
	m.captions.WithLabelValues(result(ok)).Inc()
}

func (m *Metrics) RegistrationResult(topic string, ok bool) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(topic, result(ok)).Inc()
}

func (m *Metrics) InstallStep(stage string, ok bool) {
	if m == nil {
		return
	}
	m.installs.WithLabelValues(stage, result(ok)).Inc()
}

func (m *Metrics) BillingEvent(eventType string) {
	if m == nil {
		return
	}
	m.billing.WithLabelValues(eventType).Inc()
}

func (m *Metrics) ObserveCaptionWorker(seconds float64) {
	if m == nil {
		return
	}
	m.workerLatency.Observe(seconds)
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
