package watercryst

import (
	"context"
	"fmt"

	"biocat_bridge/internal/types"
)

// GetDailyStatisticsDirect retrieves daily statistics from the modern
// direct endpoint.
func (c *Client) GetDailyStatisticsDirect(ctx context.Context) (types.DailyStatistics, error) {
	var stats types.DailyStatistics
	if err := c.getJSON(ctx, "statistics/daily/direct", nil, false, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// GetDailyStatistics retrieves daily statistics from the legacy endpoint.
func (c *Client) GetDailyStatistics(ctx context.Context) (types.DailyStatistics, error) {
	var stats types.DailyStatistics
	if err := c.getJSON(ctx, "statistics/daily", nil, false, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// GetDailyConsumption returns today's water consumption in liters.
func (c *Client) GetDailyConsumption(ctx context.Context) (float64, error) {
	return c.consumption(ctx, "statistics/cumulative/daily")
}

// GetTotalConsumption returns the water consumption since installation in liters.
func (c *Client) GetTotalConsumption(ctx context.Context) (float64, error) {
	return c.consumption(ctx, "statistics/cumulative/total")
}

func (c *Client) consumption(ctx context.Context, endpoint string) (float64, error) {
	raw, err := c.requestRaw(ctx, endpoint, nil)
	if err != nil {
		return 0, err
	}
	if !raw.IsNumber {
		return 0, fmt.Errorf("%w: %s returned non-numeric body %q", ErrInvalidResponse, endpoint, raw.Text)
	}
	return raw.Number, nil
}
