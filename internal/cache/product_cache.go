package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Skotchmaster/phone_shop/internal/models"
	"github.com/Skotchmaster/phone_shop/pkg/logging"
)

const (
	notFoundMarker = "notfound"
	notFoundTTL    = time.Minute
	brandsKey      = "brands:all"
)

type Options struct {
	Addr     string
	Password string
	DB       int
}

func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     20,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// ProductCache is a read-through cache for single products and the brand list.
// Redis failures are logged and the loader result is served instead.
type ProductCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewProductCache(rdb *redis.Client, ttl time.Duration) *ProductCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProductCache{rdb: rdb, ttl: ttl}
}

func productKey(id uint) string {
	return fmt.Sprintf("product:%d", id)
}

func (c *ProductCache) Product(ctx context.Context, id uint, load func(context.Context) (*models.Product, error)) (*models.Product, error) {
	l := logging.FromContext(ctx)
	key := productKey(id)

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if string(data) == notFoundMarker {
			return nil, gorm.ErrRecordNotFound
		}
		var p models.Product
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
		l.Warn("cache_decode_failed", "key", key, "error", err)
	case errors.Is(err, redis.Nil):
	default:
		l.Warn("cache_read_failed", "key", key, "reason", "continuing with db", "error", err)
	}

	p, err := load(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if setErr := c.rdb.Set(ctx, key, notFoundMarker, notFoundTTL).Err(); setErr != nil {
				l.Warn("cache_write_failed", "key", key, "error", setErr)
			}
		}
		return nil, err
	}

	c.store(ctx, key, p)
	return p, nil
}

func (c *ProductCache) Brands(ctx context.Context, load func(context.Context) ([]models.Brand, error)) ([]models.Brand, error) {
	l := logging.FromContext(ctx)

	data, err := c.rdb.Get(ctx, brandsKey).Bytes()
	switch {
	case err == nil:
		var brands []models.Brand
		if err := json.Unmarshal(data, &brands); err == nil {
			return brands, nil
		}
		l.Warn("cache_decode_failed", "key", brandsKey, "error", err)
	case errors.Is(err, redis.Nil):
	default:
		l.Warn("cache_read_failed", "key", brandsKey, "reason", "continuing with db", "error", err)
	}

	brands, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, brandsKey, brands)
	return brands, nil
}

func (c *ProductCache) InvalidateProducts(ctx context.Context, ids ...uint) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, productKey(id))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		logging.FromContext(ctx).Warn("cache_invalidate_failed", "keys", keys, "error", err)
	}
}

func (c *ProductCache) InvalidateBrands(ctx context.Context) {
	if err := c.rdb.Del(ctx, brandsKey).Err(); err != nil {
		logging.FromContext(ctx).Warn("cache_invalidate_failed", "keys", brandsKey, "error", err)
	}
}

func (c *ProductCache) store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.FromContext(ctx).Warn("cache_encode_failed", "key", key, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logging.FromContext(ctx).Warn("cache_write_failed", "key", key, "error", err)
	}
}
