// Package ratelimit provides windowed request throttling as a fiber
// middleware. Rules are named and independent: a request is counted against
// every rule whose key extractor matches, and blocked as soon as any rule's
// ceiling is exceeded. Counters live in a TTL store shared by all workers.
package ratelimit

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// DefaultRetryAfter is the hint returned with throttled responses.
const DefaultRetryAfter = 60 * time.Second

// ErrorCode is the machine-readable code shared by all throttled responses.
const ErrorCode = "RATE_LIMIT_001"

// Rule is one named throttle: a key extractor plus a ceiling over a window.
// The extractor returns ok=false when the request does not match the rule,
// in which case the rule neither counts nor blocks it.
type Rule struct {
	Name   string
	Limit  int
	Window time.Duration
	Key    func(c *fiber.Ctx) (string, bool)
}

// Config defines the configuration for the rate-limit middleware.
type Config struct {
	// Enabled toggles the middleware globally; when false every request
	// passes through uncounted.
	Enabled bool

	// Rules are evaluated in order for every request.
	Rules []Rule

	// Store holds the shared counters.
	Store Store

	// RetryAfter is the hint included in throttled responses.
	RetryAfter time.Duration

	// OnLimit is invoked when a rule blocks a request. Optional.
	OnLimit func(c *fiber.Ctx, rule Rule, key string)
}

// New creates the throttling middleware. Requests matching no rule are never
// blocked.
func New(cfg Config) fiber.Handler {
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}
	if cfg.RetryAfter <= 0 {
		cfg.RetryAfter = DefaultRetryAfter
	}

	return func(c *fiber.Ctx) error {
		if !cfg.Enabled {
			return c.Next()
		}

		for _, rule := range cfg.Rules {
			key, ok := rule.Key(c)
			if !ok {
				continue
			}

			count, err := cfg.Store.Incr(c.Context(), rule.Name+":"+key, rule.Window)
			if err != nil {
				// A broken counter store must not take the API down.
				continue
			}

			if count > int64(rule.Limit) {
				if cfg.OnLimit != nil {
					cfg.OnLimit(c, rule, key)
				}
				return throttledResponse(c, cfg.RetryAfter)
			}
		}

		return c.Next()
	}
}

func throttledResponse(c *fiber.Ctx, retryAfter time.Duration) error {
	secs := int(retryAfter.Seconds())
	c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"error":       "rate_limit_exceeded",
		"message":     "リクエスト数が上限に達しました。しばらく待ってから再試行してください。",
		"code":        ErrorCode,
		"retry_after": secs,
	})
}
