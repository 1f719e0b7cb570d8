package coordinator

import (
	"context"
	"log/slog"
	"time"

	"biocat_bridge/internal/types"
	"biocat_bridge/internal/watercryst"
)

// DefaultStateInterval is the state+consumption polling period.
const DefaultStateInterval = 60 * time.Second

// reasonFor maps a client error to its cycle-failure reason.
func reasonFor(err error) FailureReason {
	if watercryst.IsConnectionError(err) {
		return ReasonConnection
	}
	return ReasonAPI
}

// NewState creates the state coordinator. Each cycle fetches the device
// state and then attempts to append the daily and total consumption figures.
// A failing consumption sub-fetch is non-fatal: some devices do not support
// the consumption endpoints, so both fields are recorded as absent and the
// primary state is kept.
func NewState(client *watercryst.Client, interval time.Duration, logger *slog.Logger) *Coordinator[types.DeviceState] {
	fetch := func(ctx context.Context) (types.DeviceState, error) {
		state, err := client.GetState(ctx)
		if err != nil {
			return types.DeviceState{}, &UpdateError{Reason: reasonFor(err), Err: err}
		}

		daily, derr := client.GetDailyConsumption(ctx)
		if derr == nil {
			var total float64
			total, derr = client.GetTotalConsumption(ctx)
			if derr == nil {
				state.DailyConsumption = &daily
				state.TotalConsumption = &total
			}
		}
		if derr != nil {
			logger.Warn("consumption data not available for this device", "error", derr)
			state.DailyConsumption = nil
			state.TotalConsumption = nil
		}

		return state, nil
	}

	return New("state", interval, fetch, logger)
}
