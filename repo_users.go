package examauth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

type users struct {
	db *bun.DB
}

var _ Users = (*users)(nil)

// NewUsersRepository returns the bun-backed identity store.
func NewUsersRepository(db *bun.DB) Users {
	return &users{db: db}
}

func (r *users) GetByID(ctx context.Context, id int64) (*User, error) {
	user := new(User)
	err := r.db.NewSelect().
		Model(user).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, ErrIdentityNotFound
	}

	user := new(User)
	err := r.db.NewSelect().
		Model(user).
		Where("lower(?TableAlias.email) = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *users) Create(ctx context.Context, user *User) (*User, error) {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if _, err := r.db.NewInsert().Model(user).Exec(ctx); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *users) Delete(ctx context.Context, id int64) error {
	res, err := r.db.NewDelete().
		Model((*User)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrIdentityNotFound
	}
	return nil
}

// ActiveGuestCount counts guest identities whose expiry is still in the
// future.
func (r *users) ActiveGuestCount(ctx context.Context) (int, error) {
	return r.db.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.is_guest = ?", true).
		Where("?TableAlias.guest_expires_at >= ?", time.Now()).
		Count(ctx)
}

// DeleteExpiredGuests removes every guest whose expiry has passed in a single
// unconditional statement, so concurrent sweeps cannot race each other.
func (r *users) DeleteExpiredGuests(ctx context.Context) (int, error) {
	res, err := r.db.NewDelete().
		Model((*User)(nil)).
		Where("?TableAlias.is_guest = ?", true).
		Where("?TableAlias.guest_expires_at < ?", time.Now()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
