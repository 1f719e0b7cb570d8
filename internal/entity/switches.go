package entity

import (
	"context"

	"biocat_bridge/internal/device"
)

// defaultPauseMinutes is how long a leakage-protection switch turn-off
// pauses protection for.
const defaultPauseMinutes = 60

// Switches returns the writable two-state entities for a BIOCAT appliance.
func Switches() []Switch {
	return []Switch{
		{
			Key:    "absence_mode",
			Name:   "Absence Mode",
			Icon:   "mdi:home-minus",
			Source: SourceState,
			IsOn: func(d *device.Device) (bool, bool) {
				state, ok := d.StateSnapshot()
				return state.WaterProtection.AbsenceModeEnabled, ok
			},
			TurnOn: func(ctx context.Context, d *device.Device) error {
				return refreshAfterWrite(d, d.Client.EnableAbsenceMode(ctx))
			},
			TurnOff: func(ctx context.Context, d *device.Device) error {
				return refreshAfterWrite(d, d.Client.DisableAbsenceMode(ctx))
			},
		},
		{
			Key:    "water_supply",
			Name:   "Water Supply",
			Icon:   "mdi:water-boiler",
			Source: SourceState,
			IsOn: func(d *device.Device) (bool, bool) {
				state, ok := d.StateSnapshot()
				return state.Mode.ID != "WO", ok
			},
			TurnOn: func(ctx context.Context, d *device.Device) error {
				return refreshAfterWrite(d, d.Client.OpenWaterSupply(ctx))
			},
			TurnOff: func(ctx context.Context, d *device.Device) error {
				return refreshAfterWrite(d, d.Client.CloseWaterSupply(ctx))
			},
		},
		{
			Key:    "leakage_protection",
			Name:   "Leakage Protection",
			Icon:   "mdi:shield-check",
			Source: SourceState,
			IsOn:   leakageProtectionActive,
			TurnOn: func(ctx context.Context, d *device.Device) error {
				return refreshAfterWrite(d, d.Client.UnpauseLeakageProtection(ctx))
			},
			TurnOff: func(ctx context.Context, d *device.Device) error {
				return refreshAfterWrite(d, d.Client.PauseLeakageProtection(ctx, defaultPauseMinutes))
			},
		},
	}
}
