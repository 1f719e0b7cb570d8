package coordinator

import (
	"context"
	"log/slog"
	"time"

	"biocat_bridge/internal/types"
	"biocat_bridge/internal/watercryst"
)

// DefaultMeasurementsInterval is the live-measurements polling period. It is
// intentionally shorter than the state interval: live readings are more
// time-sensitive than consumption totals.
const DefaultMeasurementsInterval = 30 * time.Second

// NewMeasurements creates the measurements coordinator. Each cycle prefers
// the modern direct endpoint and falls back to the legacy endpoint on an
// API-level failure. A connection-level failure fails the cycle immediately
// without fallback: if the network is down, the legacy endpoint is just as
// unreachable.
func NewMeasurements(client *watercryst.Client, interval time.Duration, logger *slog.Logger) *Coordinator[types.Measurements] {
	fetch := func(ctx context.Context) (types.Measurements, error) {
		m, err := client.GetMeasurementsDirect(ctx)
		if err == nil {
			return m, nil
		}
		if watercryst.IsConnectionError(err) {
			return types.Measurements{}, &UpdateError{Reason: ReasonConnection, Err: err}
		}

		logger.Warn("direct measurements failed, falling back to legacy endpoint", "error", err)
		m, lerr := client.GetMeasurementsNow(ctx)
		if lerr == nil {
			return m, nil
		}
		return types.Measurements{}, &UpdateError{Reason: reasonFor(lerr), Err: lerr}
	}

	return New("measurements", interval, fetch, logger)
}
