package examauth

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examhub/go-examauth/middleware/ratelimit"
)

func throttleTestApp(cfg Config, tokens *TokenService) *fiber.App {
	app := fiber.New()
	app.Use(ratelimit.New(ratelimit.Config{
		Enabled: true,
		Rules:   ThrottleRules(cfg, tokens),
		Store:   ratelimit.NewMemoryStore(),
	}))

	ok := func(c *fiber.Ctx) error { return c.SendString("ok") }
	app.Post("/auth/login", ok)
	app.Get("/auth/me", ok)
	app.Post("/guest_sessions", ok)
	app.Get("/health", ok)
	return app
}

func throttleConfig() Config {
	return Config{
		LoginPerMinute:     5,
		LoginPerHour:       20,
		APIPerMinute:       100,
		APIUnauthPerMinute: 50,
		GuestPerHour:       3,
	}
}

func TestLoginThrottlePerEmail(t *testing.T) {
	app := throttleTestApp(throttleConfig(), testTokenService())

	login := func(email string) int {
		req := httptest.NewRequest(fiber.MethodPost, "/auth/login",
			strings.NewReader(`{"email":"`+email+`","password":"x"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		res, err := app.Test(req, -1)
		require.NoError(t, err)
		return res.StatusCode
	}

	for i := 0; i < 5; i++ {
		assert.Equal(t, fiber.StatusOK, login("alice@example.com"), "attempt %d", i+1)
	}
	assert.Equal(t, fiber.StatusTooManyRequests, login("alice@example.com"))

	// Case and whitespace variants hit the same counter.
	assert.Equal(t, fiber.StatusTooManyRequests, login("  ALICE@example.com "))

	// A different email from the same address is still allowed.
	assert.Equal(t, fiber.StatusOK, login("bob@example.com"))
}

func TestGuestCreationThrottle(t *testing.T) {
	app := throttleTestApp(throttleConfig(), testTokenService())

	create := func() int {
		req := httptest.NewRequest(fiber.MethodPost, "/guest_sessions", nil)
		res, err := app.Test(req, -1)
		require.NoError(t, err)
		return res.StatusCode
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, fiber.StatusOK, create(), "attempt %d", i+1)
	}
	assert.Equal(t, fiber.StatusTooManyRequests, create())
}

func TestAuthenticatedThrottleKeyedByUser(t *testing.T) {
	cfg := throttleConfig()
	cfg.APIPerMinute = 2
	tokens := testTokenService()
	app := throttleTestApp(cfg, tokens)

	call := func(userID int64) int {
		raw, err := tokens.EncodeForUser(&User{ID: userID, Role: RoleRegular})
		require.NoError(t, err)
		req := httptest.NewRequest(fiber.MethodGet, "/auth/me", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+raw)
		res, err := app.Test(req, -1)
		require.NoError(t, err)
		return res.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, call(1))
	assert.Equal(t, fiber.StatusOK, call(1))
	assert.Equal(t, fiber.StatusTooManyRequests, call(1))

	// Another identity has its own counter.
	assert.Equal(t, fiber.StatusOK, call(2))
}

func TestUnauthenticatedThrottle(t *testing.T) {
	cfg := throttleConfig()
	cfg.APIUnauthPerMinute = 2
	app := throttleTestApp(cfg, testTokenService())

	call := func(token string) int {
		req := httptest.NewRequest(fiber.MethodGet, "/auth/me", nil)
		if token != "" {
			req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		}
		res, err := app.Test(req, -1)
		require.NoError(t, err)
		return res.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, call(""))
	// A garbage bearer token counts as unauthenticated traffic.
	assert.Equal(t, fiber.StatusOK, call("garbage"))
	assert.Equal(t, fiber.StatusTooManyRequests, call(""))
}

func TestNonAPIPathsUnthrottled(t *testing.T) {
	cfg := throttleConfig()
	cfg.APIUnauthPerMinute = 1
	app := throttleTestApp(cfg, testTokenService())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(fiber.MethodGet, "/health", nil)
		res, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, res.StatusCode)
	}
}
