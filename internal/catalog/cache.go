package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"district-concierge/internal/common/logger"
	"district-concierge/internal/common/metrics"
	"district-concierge/internal/models"
)

// CachedStore is a read-through Redis cache in front of a Store. Category
// and full listings are cached with a TTL; GetByID stays uncached because
// mandatory partner injection must see the live record. The validator is
// wired to the uncached store directly, so existence checks never read
// stale listings.
type CachedStore struct {
	inner  Store
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedStore(inner Store, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CachedStore {
	return &CachedStore{
		inner:  inner,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "catalog-cache"}),
	}
}

func (c *CachedStore) GetByCategory(ctx context.Context, category, subcategory string) ([]models.CatalogRecord, error) {
	key := "catalog:category:" + category
	if subcategory != "" {
		key += ":" + subcategory
	}
	return c.readThrough(ctx, key, func(ctx context.Context) ([]models.CatalogRecord, error) {
		return c.inner.GetByCategory(ctx, category, subcategory)
	})
}

func (c *CachedStore) GetByID(ctx context.Context, id string) (*models.CatalogRecord, error) {
	return c.inner.GetByID(ctx, id)
}

func (c *CachedStore) GetAllActive(ctx context.Context) ([]models.CatalogRecord, error) {
	return c.readThrough(ctx, "catalog:all", c.inner.GetAllActive)
}

func (c *CachedStore) readThrough(ctx context.Context, key string, fetch func(ctx context.Context) ([]models.CatalogRecord, error)) ([]models.CatalogRecord, error) {
	if val, err := c.redis.Get(ctx, key).Result(); err == nil {
		var records []models.CatalogRecord
		if err := json.Unmarshal([]byte(val), &records); err == nil {
			metrics.CatalogCacheHits.WithLabelValues("hit").Inc()
			return records, nil
		}
		// Corrupt entry: fall through to the store and overwrite.
		c.redis.Del(ctx, key)
	}
	metrics.CatalogCacheHits.WithLabelValues("miss").Inc()

	records, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(records); err == nil {
		if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("cache write failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}

	return records, nil
}
