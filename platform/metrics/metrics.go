// Package metrics exposes Prometheus collectors for the HTTP layer and the
// pipeline. This is part of the platform layer and contains no business logic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Pipeline metrics
	StageTransitions *prometheus.CounterVec
	FunnelComputes   *prometheus.CounterVec
	FetchDegraded    *prometheus.CounterVec
	Milestones       *prometheus.CounterVec

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

// New creates a Metrics instance backed by its own registry so tests can
// build as many as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		StageTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_stage_transitions_total",
				Help: "Status changes applied by pipeline operations",
			},
			[]string{"entity", "status"},
		),
		FunnelComputes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funnel_computes_total",
				Help: "Funnel computations by outcome",
			},
			[]string{"outcome"}, // ok, superseded, error
		),
		FetchDegraded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analytics_fetch_degraded_total",
				Help: "Snapshot fetches that failed and were replaced by an empty set",
			},
			[]string{"entity"},
		),
		Milestones: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_milestones_total",
				Help: "Prospect conversions and signed agreements",
			},
			[]string{"milestone", "pincode"},
		),
		CacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type"},
		),
		CacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type"},
		),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency per route pattern.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath() // route pattern, e.g. /api/v1/leads/:id
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// RecordTransition counts a status change on a pipeline record.
func (m *Metrics) RecordTransition(entity, status string) {
	if m == nil {
		return
	}
	m.StageTransitions.WithLabelValues(entity, status).Inc()
}

// RecordFunnelCompute counts a funnel computation by outcome.
func (m *Metrics) RecordFunnelCompute(outcome string) {
	if m == nil {
		return
	}
	m.FunnelComputes.WithLabelValues(outcome).Inc()
}

// RecordFetchDegraded counts a degraded snapshot fetch.
func (m *Metrics) RecordFetchDegraded(entity string) {
	if m == nil {
		return
	}
	m.FetchDegraded.WithLabelValues(entity).Inc()
}

// RecordMilestone counts a pipeline milestone in a pincode.
func (m *Metrics) RecordMilestone(milestone, pincode string) {
	if m == nil {
		return
	}
	m.Milestones.WithLabelValues(milestone, pincode).Inc()
}

// RecordCache counts a cache lookup.
func (m *Metrics) RecordCache(cacheType string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.WithLabelValues(cacheType).Inc()
		return
	}
	m.CacheMisses.WithLabelValues(cacheType).Inc()
}
