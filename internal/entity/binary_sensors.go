package entity

import (
	"time"

	"biocat_bridge/internal/device"
	"biocat_bridge/internal/mapper"
)

// leakageProtectionActive decides whether leakage protection is currently
// active: it is, unless a pause-until timestamp exists and lies in the
// future. Unparseable timestamps count as active.
func leakageProtectionActive(d *device.Device) (bool, bool) {
	state, ok := d.StateSnapshot()
	if !ok {
		return false, false
	}

	pauseUntil := state.WaterProtection.PauseLeakageProtectionUntilUTC
	if pauseUntil == "" {
		return true, true
	}
	if until, parsed := mapper.ParseTimestamp(pauseUntil); parsed {
		return time.Now().After(until), true
	}
	return true, true
}

// BinarySensors returns the boolean entities exposed for a BIOCAT appliance.
func BinarySensors() []BinarySensor {
	return []BinarySensor{
		{
			Key:         "online",
			Name:        "Online",
			DeviceClass: "connectivity",
			Source:      SourceState,
			IsOn: func(d *device.Device) (bool, bool) {
				state, ok := d.StateSnapshot()
				return state.Online, ok
			},
			DynamicIcon: func(d *device.Device) string {
				if state, ok := d.StateSnapshot(); ok && state.Online {
					return "mdi:cloud-check"
				}
				return "mdi:cloud-off"
			},
		},
		{
			Key:    "absence_mode",
			Name:   "Absence Mode",
			Icon:   "mdi:home-minus",
			Source: SourceState,
			IsOn: func(d *device.Device) (bool, bool) {
				state, ok := d.StateSnapshot()
				return state.WaterProtection.AbsenceModeEnabled, ok
			},
		},
		{
			Key:    "leakage_protection",
			Name:   "Leakage Protection",
			Icon:   "mdi:shield-check",
			Source: SourceState,
			IsOn:   leakageProtectionActive,
		},
		{
			Key:    "water_supply",
			Name:   "Water Supply",
			Icon:   "mdi:water-boiler",
			Source: SourceState,
			IsOn: func(d *device.Device) (bool, bool) {
				state, ok := d.StateSnapshot()
				// Supply is shut off while the device is in Water Off mode.
				return state.Mode.ID != "WO", ok
			},
		},
		{
			Key:         "error",
			Name:        "Error",
			DeviceClass: "problem",
			Source:      SourceState,
			IsOn: func(d *device.Device) (bool, bool) {
				state, ok := d.StateSnapshot()
				return ok && state.Event != nil && state.Event.Category == "error", ok
			},
		},
		{
			Key:         "warning",
			Name:        "Warning",
			DeviceClass: "problem",
			Source:      SourceState,
			IsOn: func(d *device.Device) (bool, bool) {
				state, ok := d.StateSnapshot()
				return ok && state.Event != nil && state.Event.Category == "warning", ok
			},
		},
		{
			Key:         "microleakage_detected",
			Name:        "Microleakage Detected",
			DeviceClass: "moisture",
			Icon:        "mdi:pipe-leak",
			Source:      SourceState,
			IsOn: func(d *device.Device) (bool, bool) {
				state, ok := d.StateSnapshot()
				return state.MLState == "leakage", ok
			},
		},
	}
}
