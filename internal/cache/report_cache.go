// Package cache holds the redis-backed report cache used by the
// dashboard views. Aggregations over large windows are read-only, so a
// short TTL is safe; a nil cache degrades to computing every request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ledger-service/pkg/config"
)

// ReportCache stores rendered dashboard payloads keyed by view, scope
// and period.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// New connects to redis using the given config. Returns nil (a no-op
// cache) when redis is not configured.
func New(cfg *config.RedisConfig, logger *zap.Logger) *ReportCache {
	if !cfg.Enabled() {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &ReportCache{client: client, ttl: cfg.TTL, logger: logger}
}

// Key builds a cache key for a dashboard view. A nil scope means the
// global view.
func Key(view string, scope *uint, qualifier string) string {
	org := "global"
	if scope != nil {
		org = fmt.Sprintf("org:%d", *scope)
	}
	return fmt.Sprintf("report:%s:%s:%s", view, org, qualifier)
}

// Get unmarshals a cached payload into dest. Returns false on a miss or
// when the cache is disabled; redis errors count as misses.
func (rc *ReportCache) Get(ctx context.Context, key string, dest interface{}) bool {
	if rc == nil {
		return false
	}
	raw, err := rc.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			rc.logger.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		rc.logger.Warn("report cache payload corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Set stores a payload under the cache TTL. Failures are logged and
// swallowed; caching is never allowed to fail a request.
func (rc *ReportCache) Set(ctx context.Context, key string, value interface{}) {
	if rc == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		rc.logger.Warn("report cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := rc.client.Set(ctx, key, raw, rc.ttl).Err(); err != nil {
		rc.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
}
