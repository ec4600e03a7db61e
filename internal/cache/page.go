package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const pageKeyPrefix = "page:"

// PageCache stores rendered page bodies for a bounded time.
// Entries leave the cache only when they expire or when Clear is called.
type PageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte, ttl time.Duration) error
	Clear(ctx context.Context) error
}

// PageKey namespaces a page key.
func PageKey(parts ...interface{}) string {
	key := pageKeyPrefix
	for i, p := range parts {
		if i > 0 {
			key += ":"
		}
		key += fmt.Sprint(p)
	}
	return key
}

// RedisPageCache keeps pages in Redis with a per-entry TTL.
type RedisPageCache struct {
	client *redis.Client
}

// NewRedisPageCache returns a Redis backed page cache.
func NewRedisPageCache(client *redis.Client) *RedisPageCache {
	return &RedisPageCache{client: client}
}

func (p *RedisPageCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	body, err := p.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

func (p *RedisPageCache) Set(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	return p.client.Set(ctx, key, body, ttl).Err()
}

// Clear drops every cached page.
func (p *RedisPageCache) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := p.client.Scan(ctx, cursor, pageKeyPrefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := p.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// NopPageCache never stores anything; used when Redis is unavailable.
type NopPageCache struct{}

func (NopPageCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NopPageCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NopPageCache) Clear(context.Context) error { return nil }

// PageMiddleware serves GET responses from the page cache and stores successful ones.
// keyFn builds the cache key for the request.
func PageMiddleware(pages PageCache, ttl time.Duration, keyFn func(*fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodGet {
			return c.Next()
		}

		ctx := c.UserContext()
		key := keyFn(c)

		body, ok, err := pages.Get(ctx, key)
		switch {
		case err != nil:
			observability.PageCacheRequests.WithLabelValues("error").Inc()
			middleware.Logger.WarnContext(ctx, "page cache read failed", slog.String("error", err.Error()))
		case ok:
			observability.PageCacheRequests.WithLabelValues("hit").Inc()
			c.Set("X-Page-Cache", "HIT")
			c.Type("html", "utf-8")
			return c.Send(body)
		default:
			observability.PageCacheRequests.WithLabelValues("miss").Inc()
		}

		if err := c.Next(); err != nil {
			return err
		}

		if c.Response().StatusCode() != fiber.StatusOK {
			return nil
		}
		rendered := append([]byte(nil), c.Response().Body()...)
		if err := pages.Set(ctx, key, rendered, ttl); err != nil {
			middleware.Logger.WarnContext(ctx, "page cache write failed", slog.String("error", err.Error()))
		}
		c.Set("X-Page-Cache", "MISS")
		return nil
	}
}
