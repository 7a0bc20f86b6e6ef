// Package csrf implements the double-submit-cookie CSRF defense as a fiber
// middleware. The client holds the token in an HttpOnly cookie and must echo
// it back in a custom header on every mutating request; the two sides are
// compared in constant time and the token rotates on every verified cycle.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"io"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// DefaultCookieName is the cookie half of the token pair.
const DefaultCookieName = "_csrf_token"

// DefaultHeaderName carries the client-echoed half and the rotated response
// token.
const DefaultHeaderName = "X-CSRF-Token"

// DefaultTokenBytes yields a 32-character URL-safe token.
const DefaultTokenBytes = 24

// DefaultBodyField is the JSON field the fresh token is mirrored into.
const DefaultBodyField = "csrf_token"

var mutatingMethods = []string{
	fiber.MethodPost,
	fiber.MethodPut,
	fiber.MethodPatch,
	fiber.MethodDelete,
}

// Config defines the configuration for the CSRF middleware.
type Config struct {
	// Skip defines a function to skip middleware entirely
	Skip func(*fiber.Ctx) bool

	// CookieName defines the cookie holding the server-issued token
	CookieName string

	// HeaderName defines the request header the client echoes the token in
	HeaderName string

	// BodyField defines the JSON body field the fresh token is injected into
	BodyField string

	// TokenBytes defines the entropy of generated tokens
	TokenBytes int

	// SecureCookie sets the Secure flag on the token cookie (production)
	SecureCookie bool

	// LogoutPath names the one GET route with state-changing semantics that
	// still requires protection
	LogoutPath string

	// ExemptPaths lists mutating routes that skip verification because no
	// prior cookie can exist (login, registration, guest-session creation).
	// They still issue a bootstrap token on the way out.
	ExemptPaths []string

	// ErrorHandler defines the failure response
	ErrorHandler fiber.ErrorHandler
}

// New creates the CSRF guard middleware.
func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Skip != nil && cfg.Skip(c) {
			return c.Next()
		}

		if !protectedRequest(c, cfg) {
			return c.Next()
		}

		if exemptPath(c.Path(), cfg.ExemptPaths) {
			// No prior cookie can exist on these routes; issue a bootstrap
			// token instead of verifying.
			if err := c.Next(); err != nil {
				return err
			}
			return issueToken(c, cfg)
		}

		cookieToken := c.Cookies(cfg.CookieName)
		headerToken := c.Get(cfg.HeaderName)

		if !Verify(cookieToken, headerToken) {
			return cfg.ErrorHandler(c, ErrTokenInvalid)
		}

		if err := c.Next(); err != nil {
			return err
		}

		// Rotate on every verified mutating request.
		return issueToken(c, cfg)
	}
}

// Verify compares the cookie-resident and header-resident tokens in constant
// time. Either side missing is a failure; there is no fallback.
func Verify(cookieToken, headerToken string) bool {
	if cookieToken == "" || headerToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieToken), []byte(headerToken)) == 1
}

// GenerateToken returns a URL-safe random token of n bytes of entropy.
func GenerateToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ErrTokenInvalid is returned for every verification failure, regardless of
// which side was missing or mismatched.
var ErrTokenInvalid = fiber.NewError(fiber.StatusForbidden, "Invalid CSRF token")

func protectedRequest(c *fiber.Ctx, cfg Config) bool {
	method := strings.ToUpper(c.Method())
	if slices.Contains(mutatingMethods, method) {
		return true
	}
	return method == fiber.MethodGet && cfg.LogoutPath != "" && c.Path() == cfg.LogoutPath
}

func exemptPath(path string, exempt []string) bool {
	return slices.Contains(exempt, path)
}

// issueToken attaches a fresh token for the next request cycle: Set-Cookie,
// response header, and a csrf_token field when the body is JSON.
func issueToken(c *fiber.Ctx, cfg Config) error {
	token, err := GenerateToken(cfg.TokenBytes)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   cfg.SecureCookie,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	c.Set(cfg.HeaderName, token)

	contentType := string(c.Response().Header.ContentType())
	if !strings.Contains(contentType, fiber.MIMEApplicationJSON) {
		return nil
	}

	var body map[string]any
	if err := json.Unmarshal(c.Response().Body(), &body); err != nil {
		// Not an object body; leave it alone.
		return nil
	}
	body[cfg.BodyField] = token

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil
	}
	c.Response().SetBodyRaw(encoded)
	return nil
}

func configDefault(config ...Config) Config {
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultHeaderName
	}
	if cfg.BodyField == "" {
		cfg.BodyField = DefaultBodyField
	}
	if cfg.TokenBytes == 0 {
		cfg.TokenBytes = DefaultTokenBytes
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *fiber.Ctx, _ error) error {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Invalid CSRF token",
			})
		}
	}

	return cfg
}
