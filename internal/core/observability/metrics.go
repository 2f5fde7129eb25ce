package observability

import (
	"errors"
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var backendLabel atomic.Value

func init() {
	backendLabel.Store("memory")
	for _, c := range collectors() {
		prometheus.MustRegister(c)
	}
	prometheus.MustRegister(buildInfo)
}

// SetBackend sets the backend label attached to request and cache metrics.
func SetBackend(s string) {
	if s == "" {
		s = "memory"
	}
	backendLabel.Store(s)
}

func getBackend() string {
	if v := backendLabel.Load(); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "memory"
}

// Init additionally registers the application collectors with reg. The
// default registry always carries them. Build info is left out since a
// metrics.Provider exports its own.
func Init(reg prometheus.Registerer, enabled bool) {
	if !enabled || reg == nil {
		return
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			panic(err)
		}
	}
}

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status", "backend"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
		[]string{"method", "route", "status", "backend"},
	)

	repoOpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "listing_repository_op_duration_seconds",
			Help:    "Latency of listing repository calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		},
		[]string{"backend", "op", "outcome"},
	)

	repoErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_repository_errors_total",
			Help: "Failed listing repository calls.",
		},
		[]string{"backend", "op"},
	)

	redisOpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Latency of redis operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		},
		[]string{"op", "outcome"},
	)

	cacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_cache_hits_total",
			Help: "Read-through cache hits.",
		},
		[]string{"backend"},
	)

	cacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_cache_misses_total",
			Help: "Read-through cache misses.",
		},
		[]string{"backend"},
	)

	filterInputSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "listing_filter_input_size",
			Help:    "Number of listings handed to the filter engine.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	filterOutputSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "listing_filter_output_size",
			Help:    "Number of listings retained by the filter engine.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	changeEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_change_events_total",
			Help: "Listing change events consumed, by op and outcome.",
		},
		[]string{"op", "outcome"},
	)

	viewEventsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "listing_view_events_dropped_total",
			Help: "View events dropped because the publish queue was full.",
		},
	)

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestsTotal,
		httpRequestDurationSeconds,
		repoOpDurationSeconds,
		repoErrorsTotal,
		redisOpDurationSeconds,
		cacheHitsTotal,
		cacheMissesTotal,
		filterInputSize,
		filterOutputSize,
		changeEventsTotal,
		viewEventsDroppedTotal,
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	b := getBackend()
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st, b).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st, b).Observe(durationSeconds)
}

func ObserveRepoOp(backend, op string, err error, durationSeconds float64) {
	repoOpDurationSeconds.WithLabelValues(backend, op, outcome(err)).Observe(durationSeconds)
	if err != nil {
		repoErrorsTotal.WithLabelValues(backend, op).Inc()
	}
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	redisOpDurationSeconds.WithLabelValues(op, outcome(err)).Observe(durationSeconds)
}

func IncCacheHit(backend string) {
	if backend == "" {
		backend = getBackend()
	}
	cacheHitsTotal.WithLabelValues(backend).Inc()
}

func IncCacheMiss(backend string) {
	if backend == "" {
		backend = getBackend()
	}
	cacheMissesTotal.WithLabelValues(backend).Inc()
}

func ObserveFilter(in, out int) {
	filterInputSize.Observe(float64(in))
	filterOutputSize.Observe(float64(out))
}

func IncChangeEvent(op string, err error) {
	if op == "" {
		op = "unknown"
	}
	changeEventsTotal.WithLabelValues(op, outcome(err)).Inc()
}

func IncViewEventDropped() {
	viewEventsDroppedTotal.Inc()
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
