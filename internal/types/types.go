// Package types contains shared type definitions used across the biocat_bridge packages.
package types

import "encoding/json"

// DeviceMode is the operating mode reported by the appliance.
// ID is one of the fixed mode codes (SU, RS, ST, UD, FS, ER, WO, WT, TD, MC);
// Name is the human-readable translation and may be empty in raw API output.
type DeviceMode struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// WaterProtection describes the leakage-protection subsystem state.
type WaterProtection struct {
	AbsenceModeEnabled bool `json:"absenceModeEnabled"`
	// PauseLeakageProtectionUntilUTC is an ISO-8601 UTC timestamp string,
	// empty when protection is not paused.
	PauseLeakageProtectionUntilUTC string `json:"pauseLeakageProtectionUntilUTC,omitempty"`
}

// DeviceEvent is the current event/notification reported by the appliance.
type DeviceEvent struct {
	EventID     json.Number `json:"eventId"`
	Category    string      `json:"category"` // error, warning or info
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Timestamp   string      `json:"timestamp"`
}

// DeviceState is the merged snapshot produced by one state-coordinator cycle.
// It is always replaced wholesale, never mutated in place.
type DeviceState struct {
	Online          bool            `json:"online"`
	Mode            DeviceMode      `json:"mode"`
	MLState         string          `json:"mlState,omitempty"`
	WaterProtection WaterProtection `json:"waterProtection"`
	Event           *DeviceEvent    `json:"event,omitempty"`

	// Consumption figures are appended by the coordinator from the raw
	// statistics endpoints. Nil when the device does not support them.
	DailyConsumption *float64 `json:"daily_consumption"`
	TotalConsumption *float64 `json:"total_consumption"`
}

// Measurements is the snapshot produced by one measurements-coordinator cycle.
type Measurements struct {
	WaterTemp            *float64 `json:"waterTemp"`            // °C
	Pressure             *float64 `json:"pressure"`             // bar
	FlowRate             *float64 `json:"flowRate"`             // L/min
	LastWaterTapVolume   *float64 `json:"lastWaterTapVolume"`   // L
	LastWaterTapDuration *float64 `json:"lastWaterTapDuration"` // s
}

// DailyStatistics is the loosely-shaped daily statistics document. The
// vendor has changed its layout between firmware generations, so it is kept
// as a raw map for the statistics read surface.
type DailyStatistics map[string]any
