package examauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the payload carried by a bearer session token. The subject
// is the numeric user id; IsGuest marks tokens minted for guest sessions.
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID  int64  `json:"user_id"`
	Email   string `json:"email,omitempty"`
	IsGuest bool   `json:"is_guest,omitempty"`
}

// Subject returns the numeric user id the token was issued for.
func (c *SessionClaims) Subject() int64 {
	return c.UserID
}

// Guest reports whether the token was minted for a guest session.
func (c *SessionClaims) Guest() bool {
	return c.IsGuest
}

// Expires returns the expiration time, zero when unset.
func (c *SessionClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// Issued returns the issued-at time, zero when unset.
func (c *SessionClaims) Issued() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
