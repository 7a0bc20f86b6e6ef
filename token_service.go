package examauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenExpiration is injected into claims that arrive without an
// explicit expiry.
const DefaultTokenExpiration = 24 * time.Hour

// TokenService signs and verifies session tokens with a single shared secret
// and a fixed HS256 algorithm. Tokens are never persisted; validity is purely
// signature plus expiry.
type TokenService struct {
	signingKey []byte
	expiration time.Duration
	logger     Logger
}

// NewTokenService creates a TokenService. A zero expiration falls back to
// DefaultTokenExpiration.
func NewTokenService(signingKey []byte, expiration time.Duration, logger Logger) *TokenService {
	if expiration <= 0 {
		expiration = DefaultTokenExpiration
	}
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenService{
		signingKey: signingKey,
		expiration: expiration,
		logger:     logger,
	}
}

// Encode signs the claims. An expiry already present on the claims is honored
// verbatim; otherwise now+expiration is injected.
func (ts *TokenService) Encode(claims *SessionClaims) (string, error) {
	if claims == nil {
		return "", ErrNilClaims
	}

	now := time.Now()
	if claims.RegisteredClaims.IssuedAt == nil {
		claims.RegisteredClaims.IssuedAt = jwt.NewNumericDate(now)
	}
	if claims.RegisteredClaims.ExpiresAt == nil {
		claims.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(now.Add(ts.expiration))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ts.signingKey)
}

// EncodeForUser mints a token for the given identity with the default expiry.
func (ts *TokenService) EncodeForUser(user *User) (string, error) {
	if user == nil {
		return "", ErrIdentityNotFound
	}
	return ts.Encode(&SessionClaims{
		UserID:  user.ID,
		Email:   user.EmailString(),
		IsGuest: user.IsGuest,
	})
}

// EncodeGuest mints a guest token whose expiry matches the account expiry
// exactly, via the explicit-expiry path.
func (ts *TokenService) EncodeGuest(user *User, expiresAt time.Time) (string, error) {
	if user == nil {
		return "", ErrIdentityNotFound
	}
	return ts.Encode(&SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:  user.ID,
		IsGuest: true,
	})
}

// Decode parses and verifies a token, returning nil for every failure mode:
// empty input, bad signature, algorithm mismatch, or expiry in the past.
// Callers cannot and must not distinguish why a token was rejected.
func (ts *TokenService) Decode(raw string) *SessionClaims {
	if raw == "" {
		return nil
	}

	token, err := jwt.ParseWithClaims(raw, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnexpectedSigningMethod
		}
		return ts.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil || !token.Valid {
		ts.logger.Debug("token decode rejected: %v", err)
		return nil
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil
	}
	return claims
}
