package examauth

import (
	"context"
	"fmt"
	"time"
)

// GuestService manages the lifecycle of ephemeral guest accounts: creation
// under a capacity ceiling, expiry bookkeeping, and the cleanup sweep.
type GuestService struct {
	repo   Users
	limit  int
	ttl    time.Duration
	logger Logger
}

// GuestServiceOption mutates a GuestService during construction.
type GuestServiceOption func(*GuestService)

// WithGuestLimit overrides the active-guest ceiling.
func WithGuestLimit(limit int) GuestServiceOption {
	return func(s *GuestService) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

// WithGuestTTL overrides the guest account lifetime.
func WithGuestTTL(ttl time.Duration) GuestServiceOption {
	return func(s *GuestService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithGuestLogger overrides the logger.
func WithGuestLogger(logger Logger) GuestServiceOption {
	return func(s *GuestService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewGuestService creates a GuestService with the default ceiling (200) and
// lifetime (24h).
func NewGuestService(repo Users, opts ...GuestServiceOption) *GuestService {
	s := &GuestService{
		repo:   repo,
		limit:  GuestUserLimit,
		ttl:    GuestExpirationHours * time.Hour,
		logger: defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Limit returns the configured active-guest ceiling.
func (s *GuestService) Limit() int {
	return s.limit
}

// CreateGuest creates a guest identity after a best-effort capacity check.
// The check is count-then-insert: a concurrent burst can transiently exceed
// the ceiling by a small margin, which is accepted as soft capacity control.
func (s *GuestService) CreateGuest(ctx context.Context) (*User, error) {
	count, err := s.repo.ActiveGuestCount(ctx)
	if err != nil {
		return nil, err
	}
	if count >= s.limit {
		return nil, &CapacityError{Limit: s.limit}
	}

	expiresAt := time.Now().Add(s.ttl)
	guest := &User{
		IsGuest:        true,
		Role:           RoleGuest,
		PasswordHash:   RandomPasswordHash(),
		GuestExpiresAt: &expiresAt,
	}

	return s.repo.Create(ctx, guest)
}

// ActiveGuestCount returns the number of non-expired guest identities.
func (s *GuestService) ActiveGuestCount(ctx context.Context) (int, error) {
	return s.repo.ActiveGuestCount(ctx)
}

// Expired reports whether the identity is a guest past its expiry.
func (s *GuestService) Expired(user *User) bool {
	return user.GuestExpired()
}

// RemainingSeconds returns the whole seconds left on a guest session,
// clamped at zero. ok is false for non-guests.
func (s *GuestService) RemainingSeconds(user *User) (int64, bool) {
	if user == nil || !user.IsGuest || user.GuestExpiresAt == nil {
		return 0, false
	}
	secs := int64(time.Until(*user.GuestExpiresAt).Seconds())
	if secs < 0 {
		secs = 0
	}
	return secs, true
}

// RemainingTimeLabel formats the remaining session time as "H時間M分",
// truncating. ok is false for non-guests.
func (s *GuestService) RemainingTimeLabel(user *User) (string, bool) {
	secs, ok := s.RemainingSeconds(user)
	if !ok {
		return "", false
	}
	hours := secs / 3600
	minutes := (secs % 3600) / 60
	return fmt.Sprintf("%d時間%d分", hours, minutes), true
}

// CleanupExpired deletes every expired guest and returns the removed count.
// Safe to invoke repeatedly or concurrently with guest creation.
func (s *GuestService) CleanupExpired(ctx context.Context) (int, error) {
	removed, err := s.repo.DeleteExpiredGuests(ctx)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("cleaned up %d expired guest users", removed)
	}
	return removed, nil
}
