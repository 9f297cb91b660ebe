package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nutriplan/dietplan/internal/domain/nutrition"
	"github.com/nutriplan/dietplan/internal/infrastructure/monitoring"
	"github.com/nutriplan/dietplan/internal/ports/outbound"
)

const nutritionCacheName = "nutrition"

// cachedNutrition is the stored form of a successful lookup
type cachedNutrition struct {
	Info     *nutrition.Info `json:"info"`
	CachedAt time.Time       `json:"cached_at"`
}

// NutritionCache decorates a NutritionProvider with a cache-first lookup.
// Only successful lookups are stored. A failing cache never fails a lookup;
// the upstream provider is used instead.
type NutritionCache struct {
	next    outbound.NutritionProvider
	cache   outbound.CacheRepository
	keys    *KeyBuilder
	ttl     time.Duration
	metrics *monitoring.MetricsCollector
	logger  *zap.Logger
}

var _ outbound.NutritionProvider = (*NutritionCache)(nil)

// NewNutritionCache wraps next. metrics may be nil.
func NewNutritionCache(next outbound.NutritionProvider, cache outbound.CacheRepository, ttl time.Duration, metrics *monitoring.MetricsCollector, logger *zap.Logger) *NutritionCache {
	return &NutritionCache{
		next:    next,
		cache:   cache,
		keys:    NewKeyBuilder(nutritionCacheName),
		ttl:     ttl,
		metrics: metrics,
		logger:  logger.Named("nutrition-cache"),
	}
}

// Lookup returns the cached facts for food or asks the wrapped provider
func (c *NutritionCache) Lookup(ctx context.Context, food string) (*nutrition.Info, error) {
	key := c.keys.BuildKey(nutrition.NormalizeName(food))

	if info, ok := c.get(ctx, key); ok {
		c.logger.Debug("Nutrition cache hit", zap.String("food", food))
		return info, nil
	}

	info, err := c.next.Lookup(ctx, food)
	if err != nil {
		return nil, err
	}

	if err := c.put(ctx, key, info); err != nil {
		c.metrics.CacheOperation(nutritionCacheName, "error")
		c.logger.Warn("Failed to cache nutrition info", zap.String("food", food), zap.Error(err))
	}

	return info, nil
}

func (c *NutritionCache) get(ctx context.Context, key string) (*nutrition.Info, bool) {
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, outbound.ErrCacheMiss) {
			c.metrics.CacheOperation(nutritionCacheName, "miss")
		} else {
			c.metrics.CacheOperation(nutritionCacheName, "error")
			c.logger.Warn("Nutrition cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var cached cachedNutrition
	if err := json.Unmarshal(data, &cached); err != nil || cached.Info == nil {
		// unreadable entry, drop it and go upstream
		c.metrics.CacheOperation(nutritionCacheName, "error")
		_ = c.cache.Delete(ctx, key)
		return nil, false
	}

	c.metrics.CacheOperation(nutritionCacheName, "hit")
	return cached.Info, true
}

func (c *NutritionCache) put(ctx context.Context, key string, info *nutrition.Info) error {
	data, err := json.Marshal(cachedNutrition{Info: info, CachedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal nutrition info: %w", err)
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		return fmt.Errorf("failed to store nutrition info: %w", err)
	}
	return nil
}
