package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ipRule(limit int) Rule {
	return Rule{
		Name:   "test/ip",
		Limit:  limit,
		Window: time.Minute,
		Key: func(c *fiber.Ctx) (string, bool) {
			return c.IP(), true
		},
	}
}

func limiterApp(cfg Config) *fiber.App {
	app := fiber.New()
	app.Use(New(cfg))
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})
	return app
}

func get(t *testing.T, app *fiber.App, ip string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, "/ping", nil)
	if ip != "" {
		req.Header.Set("X-Forwarded-For", ip)
	}
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	return res
}

func TestLimitAllowsUpToCeiling(t *testing.T) {
	app := limiterApp(Config{
		Enabled: true,
		Rules:   []Rule{ipRule(3)},
		Store:   NewMemoryStore(),
	})

	for i := 0; i < 3; i++ {
		res := get(t, app, "")
		assert.Equal(t, fiber.StatusOK, res.StatusCode, "request %d", i+1)
	}

	res := get(t, app, "")
	assert.Equal(t, fiber.StatusTooManyRequests, res.StatusCode)
}

func TestThrottledResponseShape(t *testing.T) {
	app := limiterApp(Config{
		Enabled:    true,
		Rules:      []Rule{ipRule(0)},
		Store:      NewMemoryStore(),
		RetryAfter: 30 * time.Second,
	})

	res := get(t, app, "")
	require.Equal(t, fiber.StatusTooManyRequests, res.StatusCode)
	assert.Equal(t, "30", res.Header.Get(fiber.HeaderRetryAfter))

	raw, _ := io.ReadAll(res.Body)
	res.Body.Close()
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))

	assert.Equal(t, "rate_limit_exceeded", body["error"])
	assert.Equal(t, "リクエスト数が上限に達しました。しばらく待ってから再試行してください。", body["message"])
	assert.Equal(t, ErrorCode, body["code"])
	assert.Equal(t, float64(30), body["retry_after"])
}

func TestDisabledPassesEverything(t *testing.T) {
	app := limiterApp(Config{
		Enabled: false,
		Rules:   []Rule{ipRule(0)},
		Store:   NewMemoryStore(),
	})

	for i := 0; i < 5; i++ {
		res := get(t, app, "")
		assert.Equal(t, fiber.StatusOK, res.StatusCode)
	}
}

func TestUnmatchedRuleNeverBlocks(t *testing.T) {
	app := limiterApp(Config{
		Enabled: true,
		Rules: []Rule{{
			Name:   "never",
			Limit:  0,
			Window: time.Minute,
			Key: func(*fiber.Ctx) (string, bool) {
				return "", false
			},
		}},
		Store: NewMemoryStore(),
	})

	res := get(t, app, "")
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

type failingStore struct{}

func (failingStore) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("store down")
}

func TestStoreFailureFailsOpen(t *testing.T) {
	app := limiterApp(Config{
		Enabled: true,
		Rules:   []Rule{ipRule(0)},
		Store:   failingStore{},
	})

	res := get(t, app, "")
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestOnLimitCallback(t *testing.T) {
	var gotRule, gotKey string
	app := limiterApp(Config{
		Enabled: true,
		Rules:   []Rule{ipRule(0)},
		Store:   NewMemoryStore(),
		OnLimit: func(c *fiber.Ctx, rule Rule, key string) {
			gotRule = rule.Name
			gotKey = key
		},
	})

	get(t, app, "")
	assert.Equal(t, "test/ip", gotRule)
	assert.NotEmpty(t, gotKey)
}

func TestMemoryStoreWindows(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	n, err := store.Incr(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = store.Incr(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// Separate keys count independently.
	n, err = store.Incr(ctx, "other", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// An expired bucket restarts its count.
	n, err = store.Incr(ctx, "short", -time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = store.Incr(ctx, "short", -time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
