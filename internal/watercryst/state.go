package watercryst

import (
	"context"
	"errors"

	"biocat_bridge/internal/mapper"
	"biocat_bridge/internal/types"
)

// GetState retrieves the current device state. The mode display name is
// filled in from the mode code when the API leaves it empty.
func (c *Client) GetState(ctx context.Context) (types.DeviceState, error) {
	var state types.DeviceState
	if err := c.getJSON(ctx, "state", nil, false, &state); err != nil {
		return types.DeviceState{}, err
	}

	if state.Mode.Name == "" {
		state.Mode.Name = mapper.ModeName(state.Mode.ID)
	}

	return state, nil
}

// TestConnectivity probes the state endpoint, tolerating empty bodies, and
// reports whether the API is reachable. An authentication failure is
// re-raised: an invalid key is a setup-time error, not a connectivity signal.
func (c *Client) TestConnectivity(ctx context.Context) (bool, error) {
	_, err := c.request(ctx, "state", nil, true)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrAuthentication) {
		return false, err
	}
	return false, nil
}
