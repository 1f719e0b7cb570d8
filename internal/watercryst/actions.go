package watercryst

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Leakage-protection pause bounds in minutes (1 minute to 3 days).
const (
	MinPauseMinutes = 1
	MaxPauseMinutes = 4320
)

// action fires a mutation endpoint, discarding the response body.
func (c *Client) action(ctx context.Context, endpoint string, params url.Values) error {
	_, err := c.request(ctx, endpoint, params, false)
	return err
}

// EnableAbsenceMode enables absence mode.
func (c *Client) EnableAbsenceMode(ctx context.Context) error {
	return c.action(ctx, "absence/enable", nil)
}

// DisableAbsenceMode disables absence mode.
func (c *Client) DisableAbsenceMode(ctx context.Context) error {
	return c.action(ctx, "absence/disable", nil)
}

// PauseLeakageProtection pauses leakage protection for the given number of
// minutes. Values outside [1,4320] are rejected locally before any network
// call is made.
func (c *Client) PauseLeakageProtection(ctx context.Context, minutes int) error {
	if minutes < MinPauseMinutes || minutes > MaxPauseMinutes {
		return fmt.Errorf("%w: minutes must be between %d and %d, got %d",
			ErrInvalidArgument, MinPauseMinutes, MaxPauseMinutes, minutes)
	}
	params := url.Values{"minutes": {strconv.Itoa(minutes)}}
	return c.action(ctx, "leakageprotection/pause", params)
}

// UnpauseLeakageProtection resumes leakage protection.
func (c *Client) UnpauseLeakageProtection(ctx context.Context) error {
	return c.action(ctx, "leakageprotection/unpause", nil)
}

// OpenWaterSupply opens the water supply.
func (c *Client) OpenWaterSupply(ctx context.Context) error {
	return c.action(ctx, "watersupply/open", nil)
}

// CloseWaterSupply closes the water supply.
func (c *Client) CloseWaterSupply(ctx context.Context) error {
	return c.action(ctx, "watersupply/close", nil)
}

// StartSelfTest starts the appliance self test.
func (c *Client) StartSelfTest(ctx context.Context) error {
	return c.action(ctx, "selftest", nil)
}

// StartMicroleakageMeasurement starts a microleakage measurement.
func (c *Client) StartMicroleakageMeasurement(ctx context.Context) error {
	return c.action(ctx, "mlmeasurement/start", nil)
}

// AcknowledgeEvent acknowledges the current device event.
func (c *Client) AcknowledgeEvent(ctx context.Context) error {
	return c.action(ctx, "ackevent", nil)
}
