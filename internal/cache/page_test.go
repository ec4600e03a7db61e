package cache

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisPageCache_SetGetClear(t *testing.T) {
	mr, client := setupMiniRedis(t)
	pages := NewRedisPageCache(client)
	ctx := context.Background()

	require.NoError(t, pages.Set(ctx, PageKey(0, "/"), []byte("index"), 20*time.Second))
	require.NoError(t, pages.Set(ctx, PageKey(0, "/?page=2"), []byte("second"), 20*time.Second))
	require.NoError(t, client.Set(ctx, "blacklist:abc", "1", 0).Err())

	body, ok, err := pages.Get(ctx, PageKey(0, "/"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "index", string(body))

	require.NoError(t, pages.Clear(ctx))
	_, ok, err = pages.Get(ctx, PageKey(0, "/"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, mr.Exists("blacklist:abc"), "clear must only drop page entries")
}

func TestRedisPageCache_Expires(t *testing.T) {
	mr, client := setupMiniRedis(t)
	pages := NewRedisPageCache(client)
	ctx := context.Background()

	require.NoError(t, pages.Set(ctx, PageKey(0, "/"), []byte("index"), 20*time.Second))
	mr.FastForward(21 * time.Second)

	_, ok, err := pages.Get(ctx, PageKey(0, "/"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPageMiddleware_ServesStaleContentUntilCleared(t *testing.T) {
	_, client := setupMiniRedis(t)
	pages := NewRedisPageCache(client)

	content := "first"
	app := fiber.New()
	app.Get("/", PageMiddleware(pages, 20*time.Second, func(c *fiber.Ctx) string {
		return PageKey(0, c.OriginalURL())
	}), func(c *fiber.Ctx) error {
		return c.SendString(content)
	})

	get := func() (string, string) {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(body), resp.Header.Get("X-Page-Cache")
	}

	body, state := get()
	assert.Equal(t, "first", body)
	assert.Equal(t, "MISS", state)

	content = "second"
	body, state = get()
	assert.Equal(t, "first", body)
	assert.Equal(t, "HIT", state)

	require.NoError(t, pages.Clear(context.Background()))
	body, _ = get()
	assert.Equal(t, "second", body)
}

func TestPageMiddleware_SkipsNonOK(t *testing.T) {
	_, client := setupMiniRedis(t)
	pages := NewRedisPageCache(client)

	app := fiber.New()
	app.Get("/", PageMiddleware(pages, time.Minute, func(c *fiber.Ctx) string {
		return PageKey(0, c.OriginalURL())
	}), func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).SendString("missing")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	_, ok, err := pages.Get(context.Background(), PageKey(0, "/"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNopPageCache(t *testing.T) {
	var pages PageCache = NopPageCache{}
	ctx := context.Background()
	require.NoError(t, pages.Set(ctx, "k", []byte("v"), time.Second))
	_, ok, err := pages.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, pages.Clear(ctx))
}

func TestNewClient_Unreachable(t *testing.T) {
	assert.Nil(t, NewClient(context.Background(), "127.0.0.1:1"))
	assert.Nil(t, NewClient(context.Background(), "redis://%zz"))
}
