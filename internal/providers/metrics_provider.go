package providers

import (
	"time"
	"vidops/internal/structures"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncUpstreamCalls(endpoint, outcome string)
	ObserveUpstreamDuration(endpoint string, duration time.Duration)
	IncJobsTotal(kind, status string)
	IncMemoHits(namespace string)
	IncMemoMisses(namespace string)
}

type MetricsProvider struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	upstreamCalls    *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	jobsTotal        *prometheus.CounterVec
	memoHits         *prometheus.CounterVec
	memoMisses       *prometheus.CounterVec
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncUpstreamCalls(endpoint, outcome string) {
	m.upstreamCalls.WithLabelValues(endpoint, outcome).Inc()
}

func (m *MetricsProvider) ObserveUpstreamDuration(endpoint string, duration time.Duration) {
	m.upstreamDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncJobsTotal(kind, status string) {
	m.jobsTotal.WithLabelValues(kind, status).Inc()
}

func (m *MetricsProvider) IncMemoHits(namespace string) {
	m.memoHits.WithLabelValues(namespace).Inc()
}

func (m *MetricsProvider) IncMemoMisses(namespace string) {
	m.memoMisses.WithLabelValues(namespace).Inc()
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vidops_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vidops_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		upstreamCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vidops_upstream_calls_total",
			Help: "Outbound upstream calls by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),

		upstreamDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vidops_upstream_duration_seconds",
			Help:    "Outbound upstream call duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		jobsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vidops_jobs_total",
			Help: "Background jobs by kind and terminal status",
		}, []string{"kind", "status"}),

		memoHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vidops_memo_cache_hits_total",
			Help: "Namespaced memo cache hits",
		}, []string{"namespace"}),

		memoMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vidops_memo_cache_misses_total",
			Help: "Namespaced memo cache misses",
		}, []string{"namespace"}),
	}
}

type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                   {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration)   {}
func (n *noopMetrics) IncUpstreamCalls(_, _ string)                       {}
func (n *noopMetrics) ObserveUpstreamDuration(_ string, _ time.Duration)  {}
func (n *noopMetrics) IncJobsTotal(_, _ string)                           {}
func (n *noopMetrics) IncMemoHits(_ string)                               {}
func (n *noopMetrics) IncMemoMisses(_ string)                             {}
