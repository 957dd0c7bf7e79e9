package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsServiceSnapshotAverages(t *testing.T) {
	metrics := NewMetricsService()
	metrics.ObserveHTTPRequest("GET", "/api/v1/late-arrivals", 200, 10*time.Millisecond)
	metrics.ObserveHTTPRequest("GET", "/api/v1/late-arrivals", 200, 30*time.Millisecond)
	metrics.ObserveFetch("http", 12, 40*time.Millisecond, nil)
	metrics.ObserveFetch("http", 0, 20*time.Millisecond, errors.New("timeout"))

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(2), snapshot.RequestsTotal)
	assert.InDelta(t, 20.0, snapshot.AverageRequestDurationMs, 0.001)
	assert.Equal(t, uint64(2), snapshot.FetchCount)
	assert.InDelta(t, 30.0, snapshot.AverageFetchDurationMs, 0.001)
}

func TestMetricsServiceNilIsSafe(t *testing.T) {
	var metrics *MetricsService
	metrics.ObserveFetch("http", 1, time.Millisecond, nil)
	metrics.IncExport("csv")
	assert.Equal(t, MetricsSnapshot{}, metrics.Snapshot())

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsServiceExposesNamespacedCollectors(t *testing.T) {
	metrics := NewMetricsService()
	metrics.IncExport("xlsx")
	metrics.RecordCacheOperation(true, time.Millisecond)
	metrics.ObserveFetch("postgres", 3, time.Millisecond, nil)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, `attendance_late_arrivals_exports_total{format="xlsx"} 1`)
	assert.Contains(t, body, `attendance_cache_lookups_total{result="hit"} 1`)
	assert.Contains(t, body, `attendance_late_arrivals_fetch_records_count{source="postgres"} 1`)
	assert.Contains(t, body, "go_goroutines")
	assert.Equal(t, uint64(1), metrics.Snapshot().ExportsTotal)
}
