package examauth

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/examhub/go-examauth/middleware/ratelimit"
)

// ThrottleRules assembles the application's throttle table:
//
//	login-per-minute   ip+email   5 / 1m
//	login-per-hour     ip+email  20 / 1h
//	api-authenticated  user id  100 / 1m
//	api-unauthenticated ip       50 / 1m
//	guest-creation     ip         3 / 1h
//
// A request can count against several rules at once; requests matching no
// rule are never throttled. Bearer tokens that fail to decode fall back to
// the IP-keyed unauthenticated rule, which is the stricter ceiling anyway.
func ThrottleRules(cfg Config, tokens *TokenService) []ratelimit.Rule {
	return []ratelimit.Rule{
		{
			Name:   "login/ip+email/minute",
			Limit:  cfg.LoginPerMinute,
			Window: time.Minute,
			Key:    loginKey,
		},
		{
			Name:   "login/ip+email/hour",
			Limit:  cfg.LoginPerHour,
			Window: time.Hour,
			Key:    loginKey,
		},
		{
			Name:   "api/authenticated",
			Limit:  cfg.APIPerMinute,
			Window: time.Minute,
			Key:    authenticatedAPIKey(tokens),
		},
		{
			Name:   "api/unauthenticated",
			Limit:  cfg.APIUnauthPerMinute,
			Window: time.Minute,
			Key:    unauthenticatedAPIKey(tokens),
		},
		{
			Name:   "guest_creation/ip",
			Limit:  cfg.GuestPerHour,
			Window: time.Hour,
			Key:    guestCreationKey,
		},
	}
}

func apiRoute(path string) bool {
	return strings.HasPrefix(path, "/auth") || strings.HasPrefix(path, "/guest_sessions")
}

// loginKey keys login attempts by IP plus normalized email so one address
// cannot lock out a whole NAT, and one NAT cannot burn through many emails.
func loginKey(c *fiber.Ctx) (string, bool) {
	if c.Path() != "/auth/login" || c.Method() != fiber.MethodPost {
		return "", false
	}

	email := "unknown"
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(c.Body(), &payload); err == nil {
		if normalized := strings.TrimSpace(strings.ToLower(payload.Email)); normalized != "" {
			email = normalized
		}
	}

	return c.IP() + ":" + email, true
}

func authenticatedAPIKey(tokens *TokenService) func(*fiber.Ctx) (string, bool) {
	return func(c *fiber.Ctx) (string, bool) {
		if !apiRoute(c.Path()) {
			return "", false
		}
		claims := tokens.Decode(bearerToken(c))
		if claims == nil {
			return "", false
		}
		return fmt.Sprintf("user:%d", claims.UserID), true
	}
}

func unauthenticatedAPIKey(tokens *TokenService) func(*fiber.Ctx) (string, bool) {
	return func(c *fiber.Ctx) (string, bool) {
		if !apiRoute(c.Path()) {
			return "", false
		}
		// An undecodable bearer token counts as unauthenticated traffic
		// rather than erroring or escaping the limiter.
		if tokens.Decode(bearerToken(c)) != nil {
			return "", false
		}
		return c.IP(), true
	}
}

func guestCreationKey(c *fiber.Ctx) (string, bool) {
	if c.Path() != "/guest_sessions" || c.Method() != fiber.MethodPost {
		return "", false
	}
	return c.IP(), true
}

// bearerToken extracts the raw token from "Authorization: Bearer <token>".
func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
