// Package metrics exposes the dashboard's Prometheus instruments on a
// private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storeinsight"

// Metrics is safe for concurrent use. A nil *Metrics records nothing, which
// keeps callers free of nil checks in tests.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal      *prometheus.CounterVec
	httpDurationSeconds    *prometheus.HistogramVec
	lookupFailuresTotal    *prometheus.CounterVec
	cacheLookupsTotal      *prometheus.CounterVec
	summariesBuiltTotal    prometheus.Counter
	summaryDurationSeconds prometheus.Histogram
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		lookupFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_failures_total",
			Help:      "Repository lookups that failed and were replaced by defaults.",
		}, []string{"lookup"}),
		cacheLookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache reads by key family and result.",
		}, []string{"family", "result"}),
		summariesBuiltTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_summaries_built_total",
			Help:      "Store summaries aggregated from the repository.",
		}),
		summaryDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_summary_duration_seconds",
			Help:      "Time spent aggregating one store summary.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(
		m.httpRequestsTotal,
		m.httpDurationSeconds,
		m.lookupFailuresTotal,
		m.cacheLookupsTotal,
		m.summariesBuiltTotal,
		m.summaryDurationSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(method string, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDurationSeconds.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) LookupFailed(lookup string) {
	if m == nil {
		return
	}
	m.lookupFailuresTotal.WithLabelValues(lookup).Inc()
}

func (m *Metrics) CacheResult(family string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookupsTotal.WithLabelValues(family, result).Inc()
}

func (m *Metrics) SummaryBuilt(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.summariesBuiltTotal.Inc()
	m.summaryDurationSeconds.Observe(elapsed.Seconds())
}
