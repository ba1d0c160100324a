// Package metrics holds Gitcord's Prometheus collectors.
//
// One Metrics value is built in main and handed to every component that
// records something. Tests build their own against a fresh registry so
// collectors never collide on the global default registerer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gitcord"

type Metrics struct {
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	GitHubRequests *prometheus.CounterVec
	GitHubDuration *prometheus.HistogramVec

	CacheLookups *prometheus.CounterVec

	StoreResets     prometheus.Counter
	ActiveSessions  prometheus.Gauge
	AuditLogFailure prometheus.Counter
}

// New creates every collector and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Count of HTTP requests by route pattern, method and status code",
		}, []string{"route", "method", "code"}),

		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Histogram of HTTP request handling time",
			Buckets:   prometheus.ExponentialBuckets(1e-3, 4, 8),
		}, []string{"route", "method"}),

		GitHubRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "github",
			Name:      "requests_total",
			Help:      "Count of outbound GitHub API calls by endpoint and status",
		}, []string{"endpoint", "status"}),

		GitHubDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "github",
			Name:      "request_duration_seconds",
			Help:      "Histogram of outbound GitHub API latency, including rate limiter wait",
			Buckets:   prometheus.ExponentialBuckets(5e-3, 3, 8),
		}, []string{"endpoint"}),

		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Count of response cache lookups by entity and result (hit, miss)",
		}, []string{"entity", "result"}),

		StoreResets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "resets_total",
			Help:      "Count of workspace-wide store resets (navigation or explicit)",
		}),

		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "active_workspaces",
			Help:      "Number of live per-user workspaces",
		}),

		AuditLogFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "write_failures_total",
			Help:      "Count of audit log rows that could not be written",
		}),
	}

	reg.MustRegister(m.PrometheusCollectors()...)
	return m
}

func (m *Metrics) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.HTTPRequests,
		m.HTTPDuration,
		m.GitHubRequests,
		m.GitHubDuration,
		m.CacheLookups,
		m.StoreResets,
		m.ActiveSessions,
		m.AuditLogFailure,
	}
}

// NewNop returns collectors registered nowhere, for tests that do not assert
// on metrics.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
