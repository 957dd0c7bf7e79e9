package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "attendance"

// MetricsSnapshot is a point-in-time view of the process counters.
type MetricsSnapshot struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"avg_request_duration_ms"`
	FetchCount               uint64    `json:"fetch_count"`
	AverageFetchDurationMs   float64   `json:"avg_fetch_duration_ms"`
	ExportsTotal             uint64    `json:"exports_total"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// runningAverage accumulates a count and total duration for snapshot averages.
type runningAverage struct {
	count atomic.Uint64
	total atomic.Uint64
}

func (r *runningAverage) add(d time.Duration) {
	r.count.Add(1)
	r.total.Add(uint64(d.Nanoseconds()))
}

func (r *runningAverage) millis() (uint64, float64) {
	count := r.count.Load()
	if count == 0 {
		return 0, 0
	}
	return count, float64(r.total.Load()) / float64(count) / float64(time.Millisecond)
}

// MetricsService owns the Prometheus registry for the API and keeps the light
// counters that /health reports.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requests     *prometheus.HistogramVec
	cacheLookups *prometheus.CounterVec
	cacheLatency *prometheus.HistogramVec
	dbQueries    *prometheus.HistogramVec
	fetches      *prometheus.HistogramVec
	fetchRecords *prometheus.HistogramVec
	exports      *prometheus.CounterVec

	requestStats runningAverage
	fetchStats   runningAverage
	cacheHits    atomic.Uint64
	cacheMisses  atomic.Uint64
	exportCount  atomic.Uint64
}

// NewMetricsService registers the late-arrival collectors alongside the Go runtime and process collectors.
func NewMetricsService() *MetricsService {
	m := &MetricsService{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Record-set cache lookups by result.",
		}, []string{"result"}),
		cacheLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "operation_seconds",
			Help:      "Latency of cache reads and writes.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}, []string{"op"}),
		dbQueries: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Duration of database queries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query"}),
		fetches: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "late_arrivals",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of late-arrival record fetches from the configured source.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source", "outcome"}),
		fetchRecords: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "late_arrivals",
			Name:      "fetch_records",
			Help:      "Records returned per successful fetch.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"source"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "late_arrivals",
			Name:      "exports_total",
			Help:      "Rendered exports by format.",
		}, []string{"format"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: metricsNamespace}),
		m.requests,
		m.cacheLookups,
		m.cacheLatency,
		m.dbQueries,
		m.fetches,
		m.fetchRecords,
		m.exports,
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request. route should be the matched route template.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
	m.requestStats.add(duration)
}

// RecordCacheOperation records a cache read and whether it hit.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
		m.cacheHits.Add(1)
	} else {
		m.cacheMisses.Add(1)
	}
	m.cacheLookups.WithLabelValues(result).Inc()
	m.cacheLatency.WithLabelValues("get").Observe(duration.Seconds())
}

// ObserveCacheWrite tracks the duration of a cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues("set").Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueries.WithLabelValues(label).Observe(duration.Seconds())
}

// ObserveFetch records one late-arrival fetch against the given source.
func (m *MetricsService) ObserveFetch(source string, records int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	} else {
		m.fetchRecords.WithLabelValues(source).Observe(float64(records))
	}
	m.fetches.WithLabelValues(source, outcome).Observe(duration.Seconds())
	m.fetchStats.add(duration)
}

// IncExport counts a rendered export.
func (m *MetricsService) IncExport(format string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(format).Inc()
	m.exportCount.Add(1)
}

// Snapshot returns aggregated counters for the health endpoint.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits, misses := m.cacheHits.Load(), m.cacheMisses.Load()
	var ratio float64
	if lookups := hits + misses; lookups > 0 {
		ratio = float64(hits) / float64(lookups)
	}
	requests, avgRequest := m.requestStats.millis()
	fetches, avgFetch := m.fetchStats.millis()

	return MetricsSnapshot{
		CacheHitRatio:            ratio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequest,
		FetchCount:               fetches,
		AverageFetchDurationMs:   avgFetch,
		ExportsTotal:             m.exportCount.Load(),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
