// Package device ties one appliance's client and coordinators together.
//
// A Device is created at setup and passed explicitly to every consumer
// (entities, HTTP handlers, the MQTT bridge, the collector); there is no
// process-wide registry.
package device

import (
	"biocat_bridge/internal/coordinator"
	"biocat_bridge/internal/types"
	"biocat_bridge/internal/watercryst"
)

// Device metadata reported to the host platform.
const (
	Manufacturer = "WaterCryst Wassertechnik GmbH"
	Model        = "BIOCAT"
)

// Device is the per-integration-instance context: one client and one
// coordinator pair per appliance.
type Device struct {
	Name         string
	Client       *watercryst.Client
	State        *coordinator.Coordinator[types.DeviceState]
	Measurements *coordinator.Coordinator[types.Measurements]
}

// StateSnapshot returns the latest merged state snapshot.
func (d *Device) StateSnapshot() (types.DeviceState, bool) {
	return d.State.Snapshot()
}

// MeasurementsSnapshot returns the latest measurements snapshot.
func (d *Device) MeasurementsSnapshot() (types.Measurements, bool) {
	return d.Measurements.Snapshot()
}

// Available reports whether entity values should be considered trustworthy:
// the state snapshot exists, is not stale, and the device reports itself
// online.
func (d *Device) Available() bool {
	state, ok := d.StateSnapshot()
	return ok && !d.State.Stale() && state.Online
}

// Close releases the client's resources. The coordinators stop when their
// run context is cancelled.
func (d *Device) Close() {
	d.Client.Close()
}
