package entity

import (
	"biocat_bridge/internal/device"
	"biocat_bridge/internal/mapper"
)

// floatValue adapts an optional float field to a sensor value.
func floatValue(v *float64) (any, bool) {
	if v == nil {
		return nil, false
	}
	return *v, true
}

// Sensors returns the value entities exposed for a BIOCAT appliance.
func Sensors() []Sensor {
	return []Sensor{
		{
			Key:    "mode",
			Name:   "Mode",
			Icon:   "mdi:state-machine",
			Source: SourceState,
			Value: func(d *device.Device) (any, bool) {
				state, ok := d.StateSnapshot()
				if !ok {
					return nil, false
				}
				if state.Mode.Name != "" {
					return state.Mode.Name, true
				}
				return state.Mode.ID, state.Mode.ID != ""
			},
		},
		{
			Key:    "ml_state",
			Name:   "Microleakage State",
			Icon:   "mdi:magnify",
			Source: SourceState,
			Value: func(d *device.Device) (any, bool) {
				state, ok := d.StateSnapshot()
				if !ok || state.MLState == "" {
					return nil, false
				}
				return mapper.MLStateName(state.MLState), true
			},
		},
		{
			Key:         "water_temperature",
			Name:        "Water Temperature",
			Unit:        "°C",
			DeviceClass: "temperature",
			StateClass:  "measurement",
			Icon:        "mdi:thermometer",
			Source:      SourceMeasurements,
			Value: func(d *device.Device) (any, bool) {
				m, ok := d.MeasurementsSnapshot()
				if !ok {
					return nil, false
				}
				return floatValue(m.WaterTemp)
			},
		},
		{
			Key:         "pressure",
			Name:        "Pressure",
			Unit:        "bar",
			DeviceClass: "pressure",
			StateClass:  "measurement",
			Icon:        "mdi:gauge",
			Source:      SourceMeasurements,
			Value: func(d *device.Device) (any, bool) {
				m, ok := d.MeasurementsSnapshot()
				if !ok {
					return nil, false
				}
				return floatValue(m.Pressure)
			},
		},
		{
			Key:         "flow_rate",
			Name:        "Flow Rate",
			Unit:        "L/min",
			DeviceClass: "volume_flow_rate",
			StateClass:  "measurement",
			Icon:        "mdi:water-pump",
			Source:      SourceMeasurements,
			Value: func(d *device.Device) (any, bool) {
				m, ok := d.MeasurementsSnapshot()
				if !ok {
					return nil, false
				}
				return floatValue(m.FlowRate)
			},
		},
		{
			// Instantaneous volume of the last tap, so no state class.
			Key:         "last_tap_volume",
			Name:        "Last Tap Volume",
			Unit:        "L",
			DeviceClass: "volume",
			Icon:        "mdi:water",
			Source:      SourceMeasurements,
			Value: func(d *device.Device) (any, bool) {
				m, ok := d.MeasurementsSnapshot()
				if !ok {
					return nil, false
				}
				return floatValue(m.LastWaterTapVolume)
			},
		},
		{
			Key:         "last_tap_duration",
			Name:        "Last Tap Duration",
			Unit:        "s",
			DeviceClass: "duration",
			StateClass:  "measurement",
			Icon:        "mdi:timer",
			Source:      SourceMeasurements,
			Value: func(d *device.Device) (any, bool) {
				m, ok := d.MeasurementsSnapshot()
				if !ok {
					return nil, false
				}
				return floatValue(m.LastWaterTapDuration)
			},
		},
		{
			Key:         "daily_consumption",
			Name:        "Daily Consumption",
			Unit:        "L",
			DeviceClass: "volume",
			StateClass:  "total_increasing",
			Icon:        "mdi:water",
			Source:      SourceState,
			Value: func(d *device.Device) (any, bool) {
				state, ok := d.StateSnapshot()
				if !ok {
					return nil, false
				}
				return floatValue(state.DailyConsumption)
			},
			Available: func(d *device.Device) bool {
				state, ok := d.StateSnapshot()
				return ok && state.DailyConsumption != nil
			},
		},
		{
			Key:         "total_consumption",
			Name:        "Total Consumption",
			Unit:        "L",
			DeviceClass: "water",
			StateClass:  "total_increasing",
			Icon:        "mdi:water",
			Source:      SourceState,
			Value: func(d *device.Device) (any, bool) {
				state, ok := d.StateSnapshot()
				if !ok {
					return nil, false
				}
				return floatValue(state.TotalConsumption)
			},
			Available: func(d *device.Device) bool {
				state, ok := d.StateSnapshot()
				return ok && state.TotalConsumption != nil
			},
		},
		{
			Key:    "event_title",
			Name:   "Event Title",
			Source: SourceState,
			Value: func(d *device.Device) (any, bool) {
				state, ok := d.StateSnapshot()
				if !ok || state.Event == nil {
					return nil, false
				}
				return state.Event.Title, true
			},
			DynamicIcon: eventIcon,
			Attributes: func(d *device.Device) map[string]any {
				state, ok := d.StateSnapshot()
				if !ok || state.Event == nil {
					return nil
				}
				return map[string]any{
					"event_id":    state.Event.EventID,
					"category":    state.Event.Category,
					"description": state.Event.Description,
					"timestamp":   state.Event.Timestamp,
				}
			},
		},
		{
			Key:    "event_description",
			Name:   "Event Description",
			Source: SourceState,
			Value: func(d *device.Device) (any, bool) {
				state, ok := d.StateSnapshot()
				if !ok || state.Event == nil {
					return nil, false
				}
				return state.Event.Description, true
			},
			DynamicIcon: eventIcon,
		},
	}
}

func eventIcon(d *device.Device) string {
	state, ok := d.StateSnapshot()
	if !ok || state.Event == nil {
		return mapper.EventCategoryIcon("info")
	}
	return mapper.EventCategoryIcon(state.Event.Category)
}
