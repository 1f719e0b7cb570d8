package entity

import (
	"context"

	"biocat_bridge/internal/device"
)

// modesBlockingSelfTest are modes during which a self test must not start:
// a test already running, error mode, firmware update and failsafe.
var modesBlockingSelfTest = map[string]bool{
	"ST": true,
	"ER": true,
	"UD": true,
	"FS": true,
}

// Buttons returns the action entities for a BIOCAT appliance.
func Buttons() []Button {
	return []Button{
		{
			Key:    "self_test",
			Name:   "Self Test",
			Icon:   "mdi:test-tube",
			Source: SourceState,
			Press: func(ctx context.Context, d *device.Device) error {
				return refreshAfterWrite(d, d.Client.StartSelfTest(ctx))
			},
			Available: func(d *device.Device) bool {
				state, ok := d.StateSnapshot()
				return ok && state.Online && !modesBlockingSelfTest[state.Mode.ID]
			},
		},
		{
			Key:    "microleakage_test",
			Name:   "Microleakage Test",
			Icon:   "mdi:magnify",
			Source: SourceState,
			Press: func(ctx context.Context, d *device.Device) error {
				return refreshAfterWrite(d, d.Client.StartMicroleakageMeasurement(ctx))
			},
			Available: func(d *device.Device) bool {
				state, ok := d.StateSnapshot()
				return ok && state.Online && state.MLState != "running"
			},
		},
		{
			Key:    "acknowledge_event",
			Name:   "Acknowledge Event",
			Icon:   "mdi:check-circle",
			Source: SourceState,
			Press: func(ctx context.Context, d *device.Device) error {
				return refreshAfterWrite(d, d.Client.AcknowledgeEvent(ctx))
			},
			Available: func(d *device.Device) bool {
				state, ok := d.StateSnapshot()
				return ok && state.Event != nil
			},
		},
	}
}
