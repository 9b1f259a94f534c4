// Package metrics exposes Prometheus instrumentation for campaign
// sends, tracking events and the HTTP API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for splitmail
type Metrics struct {
	// Campaign counters
	EmailsSentTotal   *prometheus.CounterVec
	EmailsFailedTotal *prometheus.CounterVec
	OpensTotal        prometheus.Counter
	ClicksTotal       prometheus.Counter

	// Scheduler
	BatchesScheduledTotal  prometheus.Counter
	BatchesDispatchedTotal *prometheus.CounterVec

	// API metrics
	APIRequestsTotal          *prometheus.CounterVec
	APIRequestDurationSeconds *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates a Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		EmailsSentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitmail_emails_sent_total",
				Help: "Total number of successfully sent campaign emails",
			},
			[]string{"variation"},
		),
		EmailsFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitmail_emails_failed_total",
				Help: "Total number of failed campaign email sends",
			},
			[]string{"variation"},
		),
		OpensTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "splitmail_opens_total",
				Help: "Total number of tracking pixel hits",
			},
		),
		ClicksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "splitmail_clicks_total",
				Help: "Total number of tracked link clicks",
			},
		),
		BatchesScheduledTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "splitmail_batches_scheduled_total",
				Help: "Total number of open-time batches scheduled",
			},
		),
		BatchesDispatchedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitmail_batches_dispatched_total",
				Help: "Total number of open-time batches dispatched",
			},
			[]string{"window"},
		),
		APIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitmail_api_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		APIRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "splitmail_api_request_duration_seconds",
				Help:    "API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.EmailsSentTotal,
		m.EmailsFailedTotal,
		m.OpensTotal,
		m.ClicksTotal,
		m.BatchesScheduledTotal,
		m.BatchesDispatchedTotal,
		m.APIRequestsTotal,
		m.APIRequestDurationSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler returns the HTTP handler serving the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
