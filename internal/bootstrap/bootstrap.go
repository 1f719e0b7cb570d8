// Package bootstrap performs the first fetch for both coordinators before
// the rest of the process is allowed to start.
//
// Entities must never subscribe to a coordinator that has no data, so the
// first refresh is wrapped in its own retry loop, outer to and distinct from
// the transport layer's per-request retry.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"biocat_bridge/internal/coordinator"
	"biocat_bridge/internal/types"
	"biocat_bridge/internal/watercryst"
)

// ErrNotReady means the first refresh kept failing and setup should be
// retried later; it is not a permanent failure.
var ErrNotReady = errors.New("bootstrap: integration not ready")

// Defaults for the outer retry loop.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 2 * time.Second
)

// Options tune the outer retry loop.
type Options struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = DefaultBaseDelay
	}
	return o
}

// tolerable reports whether a measurements first-refresh failure should be
// accepted: some devices lack the measurements capability entirely and
// report it as an empty response or an unsupported operation.
func tolerable(err error) bool {
	return errors.Is(err, watercryst.ErrEmptyResponse) || errors.Is(err, watercryst.ErrUnsupported)
}

// FirstRefresh fetches initial data for both coordinators with exponential
// backoff (base delay doubling each attempt). A measurements failure that
// indicates a missing capability is tolerated and setup proceeds without
// measurements. An authentication failure aborts immediately: retrying a bad
// key cannot succeed. Exhausting all attempts returns an error wrapping
// ErrNotReady and the last underlying failure.
func FirstRefresh(
	ctx context.Context,
	state *coordinator.Coordinator[types.DeviceState],
	measurements *coordinator.Coordinator[types.Measurements],
	opts Options,
	logger *slog.Logger,
) error {
	opts = opts.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		logger.Debug("setup attempt", "attempt", attempt, "max", opts.MaxAttempts)

		lastErr = refreshBoth(ctx, state, measurements, logger)
		if lastErr == nil {
			return nil
		}

		if errors.Is(lastErr, watercryst.ErrAuthentication) {
			return fmt.Errorf("invalid credentials: %w", lastErr)
		}

		if attempt < opts.MaxAttempts {
			delay := opts.BaseDelay << (attempt - 1)
			logger.Warn("initial data refresh failed, retrying",
				"attempt", attempt, "max", opts.MaxAttempts, "delay", delay, "error", lastErr)
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %w", ErrNotReady, ctx.Err())
			case <-time.After(delay):
			}
		}
	}

	logger.Error("initial data refresh failed", "attempts", opts.MaxAttempts, "error", lastErr)
	return fmt.Errorf("%w after %d attempts: %w", ErrNotReady, opts.MaxAttempts, lastErr)
}

// refreshBoth runs one setup attempt: state first, then measurements.
func refreshBoth(
	ctx context.Context,
	state *coordinator.Coordinator[types.DeviceState],
	measurements *coordinator.Coordinator[types.Measurements],
	logger *slog.Logger,
) error {
	if err := state.Refresh(ctx); err != nil {
		return err
	}

	if err := measurements.Refresh(ctx); err != nil {
		if tolerable(err) {
			logger.Warn("measurements unavailable, device may not support them", "error", err)
			return nil
		}
		return err
	}

	return nil
}
