package examauth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ContextUserKey is the request-locals key the resolved identity is stored
// under.
const ContextUserKey = "current_user"

// Authenticate resolves the request identity from the bearer token and
// exposes it to downstream handlers. Decode failures and unknown subjects
// degrade to anonymous instead of erroring; only an expired guest is rejected
// outright, because its token is cryptographically valid but the account is
// gone for business purposes.
func Authenticate(tokens *TokenService, repo Users, logger Logger) fiber.Handler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx) error {
		raw := bearerToken(c)
		if raw == "" {
			return c.Next()
		}

		claims := tokens.Decode(raw)
		if claims == nil {
			return c.Next()
		}

		user, err := repo.GetByID(c.Context(), claims.UserID)
		if err != nil {
			if !errors.Is(err, ErrIdentityNotFound) {
				logger.Error("identity lookup failed: %v", err)
			}
			return c.Next()
		}

		if user.IsGuest && user.GuestExpired() {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Guest session expired",
				"message": "ゲストセッションの有効期限が切れました。再度ログインしてください。",
			})
		}

		c.Locals(ContextUserKey, user)
		return c.Next()
	}
}

// RequireUser rejects anonymous requests. Mount after Authenticate on routes
// that demand a valid identity.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentUser(c) == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		return c.Next()
	}
}

// CurrentUser returns the identity resolved by Authenticate, or nil.
func CurrentUser(c *fiber.Ctx) *User {
	user, _ := c.Locals(ContextUserKey).(*User)
	return user
}
