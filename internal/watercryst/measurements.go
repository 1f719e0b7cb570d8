package watercryst

import (
	"context"

	"biocat_bridge/internal/types"
)

// GetMeasurementsDirect retrieves current measurement data from the modern
// direct endpoint.
func (c *Client) GetMeasurementsDirect(ctx context.Context) (types.Measurements, error) {
	var m types.Measurements
	if err := c.getJSON(ctx, "measurements/direct", nil, false, &m); err != nil {
		return types.Measurements{}, err
	}
	return m, nil
}

// GetMeasurementsNow retrieves current measurement data from the legacy
// webhook-backed endpoint. Older devices only support this one.
func (c *Client) GetMeasurementsNow(ctx context.Context) (types.Measurements, error) {
	var m types.Measurements
	if err := c.getJSON(ctx, "measurements/now", nil, false, &m); err != nil {
		return types.Measurements{}, err
	}
	return m, nil
}
