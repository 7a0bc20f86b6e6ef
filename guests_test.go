package examauth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuestServiceCreate(t *testing.T) {
	repo := NewUsersRepository(newTestDB(t))
	svc := NewGuestService(repo, WithGuestTTL(time.Hour))

	guest, err := svc.CreateGuest(context.Background())
	require.NoError(t, err)

	assert.True(t, guest.IsGuest)
	assert.Equal(t, RoleGuest, guest.Role)
	assert.Nil(t, guest.Email)
	assert.NotEmpty(t, guest.PasswordHash)
	require.NotNil(t, guest.GuestExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *guest.GuestExpiresAt, 5*time.Second)
}

func TestGuestServiceCapacity(t *testing.T) {
	repo := NewUsersRepository(newTestDB(t))
	svc := NewGuestService(repo, WithGuestLimit(2))
	ctx := context.Background()

	_, err := svc.CreateGuest(ctx)
	require.NoError(t, err)
	_, err = svc.CreateGuest(ctx)
	require.NoError(t, err)

	_, err = svc.CreateGuest(ctx)
	require.Error(t, err)
	assert.True(t, IsCapacityError(err))
	assert.Equal(t, "ゲストユーザー数が上限（2人）に達しています", err.Error())
}

func TestGuestServiceCapacityFreedByExpiry(t *testing.T) {
	repo := NewUsersRepository(newTestDB(t))
	svc := NewGuestService(repo, WithGuestLimit(1))
	ctx := context.Background()

	// An expired guest does not count against the ceiling.
	seedGuest(t, repo, time.Now().Add(-time.Minute))

	_, err := svc.CreateGuest(ctx)
	assert.NoError(t, err)
}

func TestGuestServiceRemainingTime(t *testing.T) {
	svc := NewGuestService(nil)

	t.Run("guest mid-session", func(t *testing.T) {
		expiresAt := time.Now().Add(2*time.Hour + 30*time.Minute + 30*time.Second)
		guest := &User{IsGuest: true, GuestExpiresAt: &expiresAt}

		secs, ok := svc.RemainingSeconds(guest)
		require.True(t, ok)
		assert.InDelta(t, 2*3600+30*60+30, secs, 5)

		label, ok := svc.RemainingTimeLabel(guest)
		require.True(t, ok)
		assert.Equal(t, "2時間30分", label)
	})

	t.Run("expired guest clamps to zero", func(t *testing.T) {
		expiresAt := time.Now().Add(-time.Hour)
		guest := &User{IsGuest: true, GuestExpiresAt: &expiresAt}

		secs, ok := svc.RemainingSeconds(guest)
		require.True(t, ok)
		assert.Equal(t, int64(0), secs)

		label, ok := svc.RemainingTimeLabel(guest)
		require.True(t, ok)
		assert.Equal(t, "0時間0分", label)
	})

	t.Run("non-guest has no remaining time", func(t *testing.T) {
		_, ok := svc.RemainingSeconds(&User{Role: RoleRegular})
		assert.False(t, ok)

		_, ok = svc.RemainingTimeLabel(nil)
		assert.False(t, ok)
	})
}

func TestGuestServiceCleanup(t *testing.T) {
	repo := NewUsersRepository(newTestDB(t))
	svc := NewGuestService(repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		seedGuest(t, repo, time.Now().Add(-time.Duration(i+1)*time.Minute))
	}
	seedGuest(t, repo, time.Now().Add(time.Hour))

	removed, err := svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	count, err := svc.ActiveGuestCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCleanupRunnerRunOnce(t *testing.T) {
	repo := NewUsersRepository(newTestDB(t))
	svc := NewGuestService(repo)
	runner := NewCleanupRunner(svc, 0, nil)
	ctx := context.Background()

	seedGuest(t, repo, time.Now().Add(-time.Hour))
	seedGuest(t, repo, time.Now().Add(time.Hour))

	runner.RunOnce(ctx)

	count, err := svc.ActiveGuestCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGuestExpired(t *testing.T) {
	past := time.Now().Add(-time.Second)
	future := time.Now().Add(time.Second)

	tests := []struct {
		name string
		user *User
		want bool
	}{
		{"expired guest", &User{IsGuest: true, GuestExpiresAt: &past}, true},
		{"active guest", &User{IsGuest: true, GuestExpiresAt: &future}, false},
		{"guest without expiry", &User{IsGuest: true}, false},
		{"regular user", &User{Role: RoleRegular, GuestExpiresAt: &past}, false},
		{"nil user", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.GuestExpired())
		})
	}
}

func TestGuestServiceDefaultLimits(t *testing.T) {
	svc := NewGuestService(nil)
	assert.Equal(t, GuestUserLimit, svc.Limit())
	assert.Equal(t, fmt.Sprintf("ゲストユーザー数が上限（%d人）に達しています", GuestUserLimit),
		(&CapacityError{Limit: GuestUserLimit}).Error())
}
