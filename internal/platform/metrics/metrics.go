package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "lessonhub"

// Collector owns a private registry so tests can create as many as they
// need without colliding on the default registerer.
type Collector struct {
	registry *prometheus.Registry

	CacheLookups              *prometheus.CounterVec
	CacheInvalidationFailures *prometheus.CounterVec
	RateLimitDecisions        *prometheus.CounterVec
	Generations               *prometheus.CounterVec
	HTTPRequests              *prometheus.CounterVec
	HTTPDuration              *prometheus.HistogramVec
}

// NewCollector creates and registers every collector, plus the Go runtime
// and process collectors.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_lookups_total",
			Help:      "Read-through cache lookups by key family and outcome.",
		}, []string{"family", "outcome"}),
		CacheInvalidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_invalidation_failures_total",
			Help:      "Cache invalidation calls that failed and were skipped.",
		}, []string{"operation"}),
		RateLimitDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "rate_limit_decisions_total",
			Help:      "Rate limiter decisions by action and outcome.",
		}, []string{"action", "outcome"}),
		Generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "generations_total",
			Help:      "AI generation calls by kind and outcome.",
		}, []string{"kind", "outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.CacheLookups,
		c.CacheInvalidationFailures,
		c.RateLimitDecisions,
		c.Generations,
		c.HTTPRequests,
		c.HTTPDuration,
	)
	return c
}

// ObserveLookup implements cache.Metrics.
func (c *Collector) ObserveLookup(family, outcome string) {
	c.CacheLookups.WithLabelValues(family, outcome).Inc()
}

// ObserveInvalidationFailure implements cache.Metrics.
func (c *Collector) ObserveInvalidationFailure(operation string) {
	c.CacheInvalidationFailures.WithLabelValues(operation).Inc()
}

// ObserveDecision implements ratelimit.Metrics.
func (c *Collector) ObserveDecision(action, outcome string) {
	c.RateLimitDecisions.WithLabelValues(action, outcome).Inc()
}

// ObserveGeneration records one generation attempt.
func (c *Collector) ObserveGeneration(kind, outcome string) {
	c.Generations.WithLabelValues(kind, outcome).Inc()
}

// ObserveHTTP records one served request. route is the matched pattern,
// not the raw path, to keep label cardinality bounded.
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
