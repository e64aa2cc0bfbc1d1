// Package metrics exposes Prometheus collectors for HTTP traffic and the
// engagement pipeline.
// This is part of the platform layer and contains no business logic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector registered by the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	ingested      *prometheus.CounterVec
	replies       *prometheus.CounterVec
	replyFailures *prometheus.CounterVec
	leads         prometheus.Counter

	jobRuns     *prometheus.CounterVec
	jobSkipped  *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
// Pass prometheus.NewRegistry() in tests to avoid global state.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		ingested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engagement_ingested_total",
			Help: "Inbound events by kind and whether they were new or duplicates",
		}, []string{"kind", "outcome"}),
		replies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engagement_replies_sent_total",
			Help: "Replies confirmed by a platform",
		}, []string{"mode"}),
		replyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engagement_reply_failures_total",
			Help: "Reply attempts that failed, by pipeline stage",
		}, []string{"stage"}),
		leads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "engagement_leads_generated_total",
			Help: "Leads created from comments",
		}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_tenant_runs_total",
			Help: "Per-tenant job executions by outcome",
		}, []string{"job", "outcome"}),
		jobSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_runs_skipped_total",
			Help: "Job ticks skipped because the previous run was still in flight",
		}, []string{"job"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scheduler_run_duration_seconds",
			Help:    "Wall time of a full job run across tenants",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
	}

	reg.MustRegister(
		m.requests, m.requestDuration,
		m.ingested, m.replies, m.replyFailures, m.leads,
		m.jobRuns, m.jobSkipped, m.jobDuration,
	)
	return m
}

// Middleware records request counts and latency using the matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.requests.WithLabelValues(c.Request.Method, path, status).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// NewServer returns an HTTP server that only serves /metrics on addr.
// Processes without the API router use it to expose their registry.
func (m *Metrics) NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Ingested counts one inbound event. created is false for duplicates.
func (m *Metrics) Ingested(kind string, created bool) {
	if m == nil {
		return
	}
	outcome := "duplicate"
	if created {
		outcome = "created"
	}
	m.ingested.WithLabelValues(kind, outcome).Inc()
}

// ReplySent counts a confirmed reply. mode is "auto" or "manual".
func (m *Metrics) ReplySent(mode string) {
	if m == nil {
		return
	}
	m.replies.WithLabelValues(mode).Inc()
}

// ReplyFailed counts a failed reply attempt at stage ("generate", "send", "persist").
func (m *Metrics) ReplyFailed(stage string) {
	if m == nil {
		return
	}
	m.replyFailures.WithLabelValues(stage).Inc()
}

// LeadGenerated counts a lead created from a comment.
func (m *Metrics) LeadGenerated() {
	if m == nil {
		return
	}
	m.leads.Inc()
}

// TenantRun counts one per-tenant job execution.
func (m *Metrics) TenantRun(job string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.jobRuns.WithLabelValues(job, outcome).Inc()
}

// JobSkipped counts a tick dropped by the overlap guard.
func (m *Metrics) JobSkipped(job string) {
	if m == nil {
		return
	}
	m.jobSkipped.WithLabelValues(job).Inc()
}

// JobFinished records the duration of one full job run.
func (m *Metrics) JobFinished(job string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(elapsed.Seconds())
}
