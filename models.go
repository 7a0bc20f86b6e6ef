package examauth

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	// GuestUserLimit caps the number of simultaneously active guest accounts.
	GuestUserLimit = 200
	// GuestExpirationHours is the guest account lifetime.
	GuestExpirationHours = 24
)

// User is the identity record backing both registered and guest accounts.
// Guests have no email, name, or usable password; they always carry a
// GuestExpiresAt timestamp set at creation.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID             int64      `bun:"id,pk,autoincrement" json:"id"`
	Email          *string    `bun:"email,unique,nullzero" json:"email,omitempty"`
	Name           *string    `bun:"name,nullzero" json:"name,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"-"`
	IsGuest        bool       `bun:"is_guest,notnull,default:false" json:"is_guest"`
	Role           Role       `bun:"role,notnull,default:'regular'" json:"role"`
	GuestExpiresAt *time.Time `bun:"guest_expires_at,nullzero" json:"guest_expires_at,omitempty"`
	CreatedAt      time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt      time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// EmailString returns the email or "" for guests.
func (u *User) EmailString() string {
	if u == nil || u.Email == nil {
		return ""
	}
	return *u.Email
}

// NameString returns the display name or "".
func (u *User) NameString() string {
	if u == nil || u.Name == nil {
		return ""
	}
	return *u.Name
}

// GuestExpired reports whether a guest account has outlived its expiry.
// Always false for non-guests.
func (u *User) GuestExpired() bool {
	return u.guestExpiredAt(time.Now())
}

func (u *User) guestExpiredAt(now time.Time) bool {
	if u == nil || !u.IsGuest || u.GuestExpiresAt == nil {
		return false
	}
	return u.GuestExpiresAt.Before(now)
}
