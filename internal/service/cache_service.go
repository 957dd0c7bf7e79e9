package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Anjo-Erinjery/Attendance-sub000/internal/models"
	appErrors "github.com/Anjo-Erinjery/Attendance-sub000/pkg/errors"
)

// CacheRepository persists JSON snapshots by scope.
type CacheRepository interface {
	Get(ctx context.Context, scope string, dest interface{}) error
	Set(ctx context.Context, scope string, value interface{}, ttl time.Duration) error
	Purge(ctx context.Context) (int, error)
}

// CacheService is the best-effort record-set cache in front of the late-arrival source.
// Read and write failures are logged and treated as misses; a nil or disabled service
// never hits.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService constructs a cache service. ttl defaults to one minute.
func NewCacheService(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Records returns the cached record set for scope and whether it was found.
func (s *CacheService) Records(ctx context.Context, scope string) ([]models.LateArrivalRecord, bool) {
	if !s.Enabled() {
		return nil, false
	}
	var records []models.LateArrivalRecord
	start := time.Now()
	err := s.repo.Get(ctx, scope, &records)
	hit := err == nil
	s.metrics.RecordCacheOperation(hit, time.Since(start))
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("record cache read failed", zap.String("scope", scope), zap.Error(err))
	}
	if !hit {
		return nil, false
	}
	if records == nil {
		records = []models.LateArrivalRecord{}
	}
	return records, true
}

// StoreRecords caches the record set for scope.
func (s *CacheService) StoreRecords(ctx context.Context, scope string, records []models.LateArrivalRecord) {
	if !s.Enabled() {
		return
	}
	start := time.Now()
	err := s.repo.Set(ctx, scope, records, s.ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("record cache write failed", zap.String("scope", scope), zap.Error(err))
	}
}

// Purge drops every cached record set and returns how many were removed.
func (s *CacheService) Purge(ctx context.Context) (int, error) {
	if !s.Enabled() {
		return 0, nil
	}
	removed, err := s.repo.Purge(ctx)
	if err != nil {
		s.logger.Warn("record cache purge failed", zap.Error(err))
		return removed, err
	}
	return removed, nil
}
