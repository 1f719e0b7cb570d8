// Package coordinator implements the periodic-refresh layer between the
// WaterCryst client and the entity read surfaces.
//
// Each coordinator owns one snapshot. A fetch cycle either replaces the
// snapshot wholesale and notifies subscribers, or leaves the previous
// snapshot in place and marks it stale. Retry against the remote API happens
// inside the transport layer; the coordinator's own timer governs the next
// attempt after a failed cycle.
package coordinator

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// CycleHook observes completed fetch cycles, e.g. to feed metrics.
type CycleHook func(name string, duration time.Duration, err error)

// Coordinator periodically fetches a snapshot of type T and serves the
// latest one to readers. All methods are safe for concurrent use. Run
// serializes ticks and out-of-band refreshes on a single goroutine, so a new
// cycle never starts while the previous fetch is outstanding.
type Coordinator[T any] struct {
	name     string
	interval time.Duration
	fetch    func(context.Context) (T, error)
	logger   *slog.Logger
	hook     CycleHook

	mu          sync.RWMutex
	data        T
	hasData     bool
	lastErr     error
	lastSuccess time.Time
	stale       bool

	subMu       sync.Mutex
	subscribers []func(T)

	refreshCh chan struct{}
}

// New creates a coordinator. fetch is invoked once per cycle and must return
// a complete snapshot.
func New[T any](name string, interval time.Duration, fetch func(context.Context) (T, error), logger *slog.Logger) *Coordinator[T] {
	return &Coordinator[T]{
		name:      name,
		interval:  interval,
		fetch:     fetch,
		logger:    logger.With("coordinator", name),
		refreshCh: make(chan struct{}, 1),
	}
}

// SetCycleHook registers an observer for completed cycles. Must be called
// before Run.
func (c *Coordinator[T]) SetCycleHook(hook CycleHook) {
	c.hook = hook
}

// Name returns the coordinator name.
func (c *Coordinator[T]) Name() string { return c.name }

// Interval returns the polling period.
func (c *Coordinator[T]) Interval() time.Duration { return c.interval }

// Refresh runs one fetch cycle immediately. On success the snapshot is
// replaced and subscribers are notified; on failure the previous snapshot is
// retained and marked stale.
func (c *Coordinator[T]) Refresh(ctx context.Context) error {
	start := time.Now()
	data, err := c.fetch(ctx)
	elapsed := time.Since(start)

	if c.hook != nil {
		c.hook(c.name, elapsed, err)
	}

	if err != nil {
		c.mu.Lock()
		c.lastErr = err
		c.stale = true
		c.mu.Unlock()
		c.logger.Warn("refresh failed", "error", err, "elapsed", elapsed.Round(time.Millisecond))
		return err
	}

	c.mu.Lock()
	c.data = data
	c.hasData = true
	c.lastErr = nil
	c.stale = false
	c.lastSuccess = time.Now()
	c.mu.Unlock()

	c.logger.Debug("refresh succeeded", "elapsed", elapsed.Round(time.Millisecond))
	c.notify(data)
	return nil
}

// RequestRefresh asks the running coordinator to fetch now instead of
// waiting for its next tick. It never blocks; a request made while another
// is already pending is coalesced with it.
func (c *Coordinator[T]) RequestRefresh() {
	select {
	case c.refreshCh <- struct{}{}:
	default:
	}
}

// Run drives the periodic refresh loop until ctx is cancelled. Cycle
// failures are absorbed here; they never terminate the loop.
func (c *Coordinator[T]) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Info("coordinator started", "interval", c.interval)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("coordinator stopped")
			return
		case <-ticker.C:
			_ = c.Refresh(ctx)
		case <-c.refreshCh:
			_ = c.Refresh(ctx)
		}
	}
}

// Snapshot returns the latest snapshot and whether one exists yet. Stale
// data is served during outages, not cleared.
func (c *Coordinator[T]) Snapshot() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data, c.hasData
}

// LastError returns the error of the most recent failed cycle, or nil if
// the last cycle succeeded.
func (c *Coordinator[T]) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Stale reports whether the current snapshot predates a failed cycle.
func (c *Coordinator[T]) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stale
}

// LastSuccess returns the time of the most recent successful cycle, zero if
// none has succeeded yet.
func (c *Coordinator[T]) LastSuccess() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSuccess
}

// Subscribe registers a callback invoked with each new snapshot. Callbacks
// run on the coordinator's goroutine and must not block.
func (c *Coordinator[T]) Subscribe(fn func(T)) {
	c.subMu.Lock()
	c.subscribers = append(c.subscribers, fn)
	c.subMu.Unlock()
}

func (c *Coordinator[T]) notify(data T) {
	c.subMu.Lock()
	subs := make([]func(T), len(c.subscribers))
	copy(subs, c.subscribers)
	c.subMu.Unlock()

	for _, fn := range subs {
		fn(data)
	}
}
