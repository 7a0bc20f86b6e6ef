package examauth

import (
	"errors"
	"fmt"
)

// ErrIdentityNotFound is returned when no user matches a lookup.
var ErrIdentityNotFound = errors.New("identity not found")

// ErrNilClaims guards against signing empty claim sets.
var ErrNilClaims = errors.New("claims must not be nil")

// ErrUnexpectedSigningMethod is raised internally when a token advertises an
// algorithm other than the expected HMAC family.
var ErrUnexpectedSigningMethod = errors.New("unexpected token signing method")

// ErrMismatchedHashAndPassword maps bcrypt mismatches to a stable sentinel.
var ErrMismatchedHashAndPassword = errors.New("password does not match")

// ErrNoEmptyString rejects empty password input before hashing.
var ErrNoEmptyString = errors.New("value must not be an empty string")

// PermissionError signals an action the current identity may not perform.
// It carries the action and the minimal role that would be allowed.
type PermissionError struct {
	Action       Action
	RequiredRole Role
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("insufficient permissions for %q (requires %s)", e.Action, e.RequiredRole)
}

// Message is the user-facing text for permission failures.
func (e *PermissionError) Message() string {
	return "この操作を実行する権限がありません。"
}

// CapacityError signals that the active-guest ceiling has been reached.
type CapacityError struct {
	Limit int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("ゲストユーザー数が上限（%d人）に達しています", e.Limit)
}

// IsCapacityError reports whether err is a guest-capacity failure.
func IsCapacityError(err error) bool {
	var ce *CapacityError
	return errors.As(err, &ce)
}
