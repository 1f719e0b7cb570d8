// Package entity describes the read/write entities exposed to the host
// home-automation platform.
//
// Instead of one type per measured field, each entity is a declarative
// descriptor: key, presentation metadata, and pure functions of the latest
// snapshots. Entities never call the transport layer; reads come from
// coordinator snapshots and writes perform exactly one facade mutation
// followed by a refresh request.
package entity

import (
	"context"

	"biocat_bridge/internal/device"
)

// Snapshot sources an entity can be bound to.
const (
	SourceState        = "state"
	SourceMeasurements = "measurements"
)

// Sensor describes one read-only value entity.
type Sensor struct {
	Key         string
	Name        string
	Unit        string
	DeviceClass string
	StateClass  string
	Icon        string
	Source      string

	// Value returns the current value; ok=false means unknown.
	Value func(d *device.Device) (any, bool)
	// Available, when set, further restricts the default source-based
	// availability (e.g. consumption sensors on devices without support).
	Available func(d *device.Device) bool
	// DynamicIcon, when set, overrides Icon based on current state.
	DynamicIcon func(d *device.Device) string
	// Attributes, when set, supplies extra state attributes.
	Attributes func(d *device.Device) map[string]any
}

// BinarySensor describes one read-only boolean entity.
type BinarySensor struct {
	Key         string
	Name        string
	DeviceClass string
	Icon        string
	Source      string

	IsOn        func(d *device.Device) (bool, bool)
	DynamicIcon func(d *device.Device) string
}

// Switch describes a two-way entity: a boolean read plus on/off writes.
type Switch struct {
	Key    string
	Name   string
	Icon   string
	Source string

	IsOn    func(d *device.Device) (bool, bool)
	TurnOn  func(ctx context.Context, d *device.Device) error
	TurnOff func(ctx context.Context, d *device.Device) error
}

// Button describes a stateless action entity.
type Button struct {
	Key    string
	Name   string
	Icon   string
	Source string

	Press     func(ctx context.Context, d *device.Device) error
	Available func(d *device.Device) bool
}

// sourceAvailable is the default availability: the governing coordinator
// has produced a snapshot and its data is not stale.
func sourceAvailable(d *device.Device, source string) bool {
	switch source {
	case SourceMeasurements:
		_, ok := d.MeasurementsSnapshot()
		return ok && !d.Measurements.Stale()
	default:
		_, ok := d.StateSnapshot()
		return ok && !d.State.Stale()
	}
}

// SensorAvailable reports whether a sensor currently has trustworthy data.
func SensorAvailable(d *device.Device, s Sensor) bool {
	if !sourceAvailable(d, s.Source) {
		return false
	}
	if s.Available != nil {
		return s.Available(d)
	}
	return true
}

// ButtonAvailable reports whether a button may currently be pressed.
func ButtonAvailable(d *device.Device, b Button) bool {
	if !sourceAvailable(d, b.Source) {
		return false
	}
	if b.Available != nil {
		return b.Available(d)
	}
	return true
}

// refreshAfterWrite performs a facade mutation and, on success, asks the
// state coordinator for an immediate refresh so readers see the effect
// promptly rather than at the next tick.
func refreshAfterWrite(d *device.Device, err error) error {
	if err != nil {
		return err
	}
	d.State.RequestRefresh()
	return nil
}
