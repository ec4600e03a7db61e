package observability

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PageCacheRequests counts index page cache lookups by result (hit, miss, error).
	PageCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_page_cache_requests_total",
		Help: "Total number of page cache lookups by result",
	}, []string{"result"})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// ContentCreated counts created posts, comments, follows and groups.
	ContentCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_content_created_total",
		Help: "Total number of created entities by kind",
	}, []string{"kind"})

	// EventsPublished counts activity events handed to the publisher by outcome.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_events_published_total",
		Help: "Total number of activity events by type and outcome",
	}, []string{"type", "outcome"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "yatube_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// MediaUploads counts stored uploads by backend.
	MediaUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_media_uploads_total",
		Help: "Total number of stored media uploads by backend",
	}, []string{"backend"})
)

var (
	httpMetricsOnce sync.Once
	httpMetrics     *fiberprometheus.FiberPrometheus
)

// HTTPMetrics returns the shared fiberprometheus middleware. It is created once
// because its collectors register on the default registry.
func HTTPMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	httpMetricsOnce.Do(func() {
		httpMetrics = fiberprometheus.New(serviceName)
	})
	return httpMetrics
}
