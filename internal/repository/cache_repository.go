package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/Anjo-Erinjery/Attendance-sub000/pkg/errors"
)

// LateArrivalCacheNamespace prefixes every cached late-arrival record set.
const LateArrivalCacheNamespace = "late:records:"

const purgeBatchSize = 100

// CacheRepository stores JSON snapshots under a fixed key namespace in Redis.
// Callers address entries by scope; the namespace is applied here.
type CacheRepository struct {
	client    *redis.Client
	namespace string
	logger    *zap.Logger
}

// NewCacheRepository constructs a cache repository for the given namespace.
func NewCacheRepository(client *redis.Client, namespace string, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, namespace: namespace, logger: logger}
}

func (r *CacheRepository) key(scope string) string {
	return r.namespace + scope
}

// Get decodes the snapshot stored for scope into dest. A missing key is ErrCacheMiss.
func (r *CacheRepository) Get(ctx context.Context, scope string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}
	raw, err := r.client.Get(ctx, r.key(scope)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return appErrors.ErrCacheMiss
	case err != nil:
		return fmt.Errorf("redis get %s: %w", r.key(scope), err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode cached %s: %w", r.key(scope), err)
	}
	return nil
}

// Set stores value for scope with the given TTL.
func (r *CacheRepository) Set(ctx context.Context, scope string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value for %s: %w", r.key(scope), err)
	}
	if err := r.client.Set(ctx, r.key(scope), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key(scope), err)
	}
	return nil
}

// Purge unlinks every key in the namespace and reports how many were removed.
// Keys are collected with SCAN and unlinked in pipelined batches.
func (r *CacheRepository) Purge(ctx context.Context) (int, error) {
	if r.client == nil {
		return 0, nil
	}

	removed := 0
	batch := make([]string, 0, purgeBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		pipe := r.client.Pipeline()
		pipe.Unlink(ctx, batch...)
		cmds, err := pipe.Exec(ctx)
		if err != nil {
			return fmt.Errorf("redis unlink: %w", err)
		}
		for _, cmd := range cmds {
			if intCmd, ok := cmd.(*redis.IntCmd); ok {
				removed += int(intCmd.Val())
			}
		}
		batch = batch[:0]
		return nil
	}

	iter := r.client.Scan(ctx, 0, r.namespace+"*", purgeBatchSize).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == purgeBatchSize {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis scan %s*: %w", r.namespace, err)
	}
	if err := flush(); err != nil {
		return removed, err
	}

	r.logger.Debug("cache namespace purged", zap.String("namespace", r.namespace), zap.Int("removed", removed))
	return removed, nil
}
