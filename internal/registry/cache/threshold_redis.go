// Package cache decorates the reference-data collaborator with a shared
// Redis cache. The threshold table changes a few times a year; every build
// hitting the collaborator for it is pointless load.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"bidrag/internal/registry"
)

var thresholdCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bidrag_threshold_cache_requests_total",
	Help: "Threshold table cache lookups by outcome",
}, []string{"outcome"})

const thresholdKey = "sjablon:samværsklasse"

// ThresholdCache caches the visitation threshold table in Redis in front of
// the real collaborator. Cache failures degrade to a direct fetch; a stale or
// unreachable cache must never make a table unresolvable that the
// collaborator can still serve.
type ThresholdCache struct {
	next   registry.ThresholdTables
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewThresholdCache(next registry.ThresholdTables, client *redis.Client, ttl time.Duration, logger *slog.Logger) *ThresholdCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &ThresholdCache{next: next, client: client, ttl: ttl, logger: logger}
}

func (c *ThresholdCache) VisitationClasses(ctx context.Context) ([]registry.ThresholdRow, error) {
	if cached, ok := c.get(ctx); ok {
		thresholdCacheHits.WithLabelValues("hit").Inc()
		return cached, nil
	}
	thresholdCacheHits.WithLabelValues("miss").Inc()

	rows, err := c.next.VisitationClasses(ctx)
	if err != nil {
		return nil, err
	}
	c.put(ctx, rows)
	return rows, nil
}

func (c *ThresholdCache) get(ctx context.Context) ([]registry.ThresholdRow, bool) {
	raw, err := c.client.Get(ctx, thresholdKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("threshold cache read failed", "error", err)
		return nil, false
	}
	var rows []registry.ThresholdRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		c.logger.Warn("threshold cache entry corrupt, refetching", "error", err)
		return nil, false
	}
	return rows, true
}

func (c *ThresholdCache) put(ctx context.Context, rows []registry.ThresholdRow) {
	raw, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, thresholdKey, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("threshold cache write failed", "error", err)
	}
}
