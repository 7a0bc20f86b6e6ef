package examauth

import (
	"context"
	"time"
)

// DefaultCleanupInterval is how often the expired-guest sweep runs.
const DefaultCleanupInterval = time.Hour

// CleanupRunner executes the expired-guest sweep on a fixed interval,
// independent of request traffic. Each pass is idempotent, so overlapping
// runners cannot double-delete.
type CleanupRunner struct {
	guests   *GuestService
	interval time.Duration
	logger   Logger
}

// NewCleanupRunner builds a runner for the guest cleanup sweep. A zero
// interval falls back to DefaultCleanupInterval.
func NewCleanupRunner(guests *GuestService, interval time.Duration, logger Logger) *CleanupRunner {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	if logger == nil {
		logger = defLogger{}
	}
	return &CleanupRunner{
		guests:   guests,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps immediately, then on every interval tick until ctx is cancelled.
func (r *CleanupRunner) Run(ctx context.Context) error {
	r.RunOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep, logging the removed count and the current
// active/limit statistics.
func (r *CleanupRunner) RunOnce(ctx context.Context) {
	r.logger.Info("starting cleanup of expired guest users")

	removed, err := r.guests.CleanupExpired(ctx)
	if err != nil {
		r.logger.Error("guest cleanup failed: %v", err)
		return
	}

	r.logger.Info("cleanup completed, removed %d expired guest users", removed)

	active, err := r.guests.ActiveGuestCount(ctx)
	if err != nil {
		r.logger.Warn("guest count unavailable: %v", err)
		return
	}
	r.logger.Info("current active guest users: %d/%d", active, r.guests.Limit())
}
