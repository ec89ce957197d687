package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"landregistry/internal/registry/models"
	id "landregistry/pkg/domain"
)

const cacheKeyPrefix = "registry:property:"

// RedisCache is a read-through cache in front of another property store.
// Properties change rarely after materialization, so a short TTL keeps the
// hot getBySurveyId path off PostgreSQL without staleness concerns.
// Cache problems degrade to the underlying store, never to an error.
type RedisCache struct {
	inner  PropertyStore
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// PropertyStore is the store interface the cache wraps.
type PropertyStore interface {
	Create(ctx context.Context, p *models.Property) error
	FindBySurveyID(ctx context.Context, surveyID id.SurveyID) (*models.Property, error)
	ListByOwner(ctx context.Context, owner id.WalletAddress) ([]*models.Property, error)
	ListForSale(ctx context.Context) ([]*models.Property, error)
}

func NewRedisCache(inner PropertyStore, client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	return &RedisCache{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (c *RedisCache) Create(ctx context.Context, p *models.Property) error {
	if err := c.inner.Create(ctx, p); err != nil {
		return err
	}
	c.fill(ctx, p)
	return nil
}

func (c *RedisCache) FindBySurveyID(ctx context.Context, surveyID id.SurveyID) (*models.Property, error) {
	raw, err := c.client.Get(ctx, cacheKeyPrefix+surveyID.String()).Bytes()
	if err == nil {
		var p models.Property
		if err := json.Unmarshal(raw, &p); err == nil {
			return &p, nil
		}
	}
	p, err := c.inner.FindBySurveyID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, p)
	return p, nil
}

func (c *RedisCache) ListByOwner(ctx context.Context, owner id.WalletAddress) ([]*models.Property, error) {
	return c.inner.ListByOwner(ctx, owner)
}

func (c *RedisCache) ListForSale(ctx context.Context) ([]*models.Property, error) {
	return c.inner.ListForSale(ctx)
}

func (c *RedisCache) fill(ctx context.Context, p *models.Property) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKeyPrefix+p.SurveyID.String(), raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "property cache fill failed",
			"survey_id", p.SurveyID.String(),
			"error", err,
		)
	}
}
