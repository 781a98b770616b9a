package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Core request/hit/miss counters, labelled by key namespace
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_cache_requests_total",
			Help: "Total number of fetch-through requests",
		},
		[]string{"namespace"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"namespace"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"namespace"},
	)

	CacheBypasses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_cache_bypass_total",
			Help: "Total number of requests served without a store",
		},
		[]string{"namespace"},
	)

	// L1/L2 specific hits
	LevelHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_cache_level_hits_total",
			Help: "Total number of hits per store level",
		},
		[]string{"level"},
	)

	ProducerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_cache_producer_errors_total",
			Help: "Total number of failed producer calls",
		},
		[]string{"namespace"},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_cache_errors_total",
			Help: "Total number of store errors by level and kind",
		},
		[]string{"level", "kind"}, // kind: read, write, delete, encode, decode
	)

	CacheOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_cache_operation_duration_seconds",
			Help:    "Duration of fetch-through and producer calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "namespace"},
	)

	// L1 capacity metrics only (if L1 is in-memory)
	CacheCapacity = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_cache_capacity_bytes",
			Help: "L1 cache capacity in bytes",
		},
		[]string{"level"},
	)

	CacheUsed = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_cache_used_bytes",
			Help: "L1 cache used space in bytes",
		},
		[]string{"level"},
	)

	// approximate cardinality: 6 (namespace) x 30 (provider) x 3 (error_type) x 15 (status_code)
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_upstream_requests_total",
			Help: "Total number of requests sent to providers",
		},
		[]string{"namespace", "provider", "error_type", "status_code"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_upstream_request_duration_seconds",
			Help:    "Duration of provider requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"namespace", "provider"},
	)

	CacheKeys = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_cache_keys",
			Help: "Number of keys held by a store level",
		},
		[]string{"level"},
	)
)

// RecordCacheRequest records a fetch-through request
func RecordCacheRequest(namespace string) {
	CacheRequests.WithLabelValues(namespace).Inc()
}

// RecordCacheHit records a cache hit
func RecordCacheHit(namespace string) {
	CacheHits.WithLabelValues(namespace).Inc()
}

// RecordLevelHit records which level of a layered store served a hit
func RecordLevelHit(level string) {
	LevelHits.WithLabelValues(level).Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss(namespace string) {
	CacheMisses.WithLabelValues(namespace).Inc()
}

// RecordCacheBypass records a request that skipped the store
func RecordCacheBypass(namespace string) {
	CacheBypasses.WithLabelValues(namespace).Inc()
}

// RecordProducerError records a failed producer call
func RecordProducerError(namespace string) {
	ProducerErrors.WithLabelValues(namespace).Inc()
}

// RecordCacheError records a store error with level and kind
func RecordCacheError(level, kind string) {
	CacheErrors.WithLabelValues(level, kind).Inc()
}

// UpdateL1CacheCapacity updates L1 cache capacity metrics only
func UpdateL1CacheCapacity(capacity, used int64) {
	CacheCapacity.WithLabelValues("l1").Set(float64(capacity))
	CacheUsed.WithLabelValues("l1").Set(float64(used))
}

// UpdateCacheKeys updates the number of keys in a level
func UpdateCacheKeys(level string, count int64) {
	CacheKeys.WithLabelValues(level).Set(float64(count))
}

// TimeOperation returns a timer function for measuring an operation
func TimeOperation(operation, namespace string) func() {
	timer := prometheus.NewTimer(CacheOperationDuration.WithLabelValues(operation, namespace))
	return func() {
		timer.ObserveDuration()
	}
}

// Upstream error categories
const (
	UpstreamOK           = "none"
	UpstreamNetworkError = "network_error"
	UpstreamHTTPError    = "http_error"
)

// UpstreamRequestMetrics contains the outcome of a single provider request
type UpstreamRequestMetrics struct {
	Namespace  string
	Provider   string
	ErrorType  string
	HTTPStatus int
	Duration   time.Duration
}

// RecordUpstreamRequest records a provider request with its outcome
func RecordUpstreamRequest(m UpstreamRequestMetrics) {
	errorType := m.ErrorType
	if errorType == "" {
		errorType = UpstreamOK
	}

	statusCode := "0"
	if m.HTTPStatus != 0 {
		statusCode = fmt.Sprintf("http_%d", m.HTTPStatus)
	}

	UpstreamRequests.WithLabelValues(m.Namespace, m.Provider, errorType, statusCode).Inc()
	UpstreamDuration.WithLabelValues(m.Namespace, m.Provider).Observe(m.Duration.Seconds())
}
