package entity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"biocat_bridge/internal/coordinator"
	"biocat_bridge/internal/device"
	"biocat_bridge/internal/types"
	"biocat_bridge/internal/watercryst"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestDevice returns a device whose coordinators serve fixed snapshots.
// Passing nil for a snapshot leaves that coordinator without data.
func newTestDevice(t *testing.T, state *types.DeviceState, m *types.Measurements) *device.Device {
	t.Helper()

	sc := coordinator.New("state", time.Minute, func(context.Context) (types.DeviceState, error) {
		if state == nil {
			return types.DeviceState{}, errors.New("no data")
		}
		return *state, nil
	}, discardLogger())
	mc := coordinator.New("measurements", time.Minute, func(context.Context) (types.Measurements, error) {
		if m == nil {
			return types.Measurements{}, errors.New("no data")
		}
		return *m, nil
	}, discardLogger())

	if state != nil {
		if err := sc.Refresh(context.Background()); err != nil {
			t.Fatalf("seed state: %v", err)
		}
	}
	if m != nil {
		if err := mc.Refresh(context.Background()); err != nil {
			t.Fatalf("seed measurements: %v", err)
		}
	}

	return &device.Device{Name: "BIOCAT", State: sc, Measurements: mc}
}

func f64(v float64) *float64 { return &v }

func TestSensors_NoSnapshots(t *testing.T) {
	d := newTestDevice(t, nil, nil)

	for _, s := range Sensors() {
		if _, ok := s.Value(d); ok {
			t.Errorf("sensor %s reports a value with no snapshot", s.Key)
		}
		if SensorAvailable(d, s) {
			t.Errorf("sensor %s available with no snapshot", s.Key)
		}
	}
	for _, b := range BinarySensors() {
		if _, ok := b.IsOn(d); ok {
			t.Errorf("binary sensor %s reports a state with no snapshot", b.Key)
		}
	}
	for _, b := range Buttons() {
		if ButtonAvailable(d, b) {
			t.Errorf("button %s available with no snapshot", b.Key)
		}
	}
}

func TestSensorValues(t *testing.T) {
	state := &types.DeviceState{
		Online:           true,
		Mode:             types.DeviceMode{ID: "WT", Name: "Water Treatment"},
		MLState:          "success",
		DailyConsumption: f64(123.4),
	}
	m := &types.Measurements{WaterTemp: f64(18.5), Pressure: f64(3.0)}
	d := newTestDevice(t, state, m)

	want := map[string]any{
		"mode":              "Water Treatment",
		"ml_state":          "No Leakage",
		"water_temperature": 18.5,
		"pressure":          3.0,
		"daily_consumption": 123.4,
	}

	for _, s := range Sensors() {
		expected, checked := want[s.Key]
		if !checked {
			continue
		}
		got, ok := s.Value(d)
		if !ok {
			t.Errorf("sensor %s has no value", s.Key)
			continue
		}
		if got != expected {
			t.Errorf("sensor %s = %v, want %v", s.Key, got, expected)
		}
	}
}

func TestSensor_ModeFallsBackToCode(t *testing.T) {
	d := newTestDevice(t, &types.DeviceState{Mode: types.DeviceMode{ID: "XX"}}, nil)

	for _, s := range Sensors() {
		if s.Key != "mode" {
			continue
		}
		got, ok := s.Value(d)
		if !ok || got != "XX" {
			t.Errorf("mode = %v, %v, want XX, true", got, ok)
		}
	}
}

func TestSensor_ConsumptionAvailability(t *testing.T) {
	withOut := newTestDevice(t, &types.DeviceState{Online: true}, nil)
	with := newTestDevice(t, &types.DeviceState{Online: true, DailyConsumption: f64(1), TotalConsumption: f64(2)}, nil)

	for _, s := range Sensors() {
		if s.Key != "daily_consumption" && s.Key != "total_consumption" {
			continue
		}
		if SensorAvailable(withOut, s) {
			t.Errorf("sensor %s available on a device without consumption data", s.Key)
		}
		if !SensorAvailable(with, s) {
			t.Errorf("sensor %s unavailable despite data", s.Key)
		}
	}
}

func TestSensorAvailable_StaleSnapshot(t *testing.T) {
	state := types.DeviceState{Online: true}

	// one successful cycle, then an outage: snapshot kept but stale
	sc := coordinator.New("state", time.Minute, firstOkThenFail(state), discardLogger())
	if err := sc.Refresh(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := sc.Refresh(context.Background()); err == nil {
		t.Fatal("second refresh should fail")
	}

	empty := newTestDevice(t, nil, nil)
	d := &device.Device{Name: "BIOCAT", State: sc, Measurements: empty.Measurements}

	for _, s := range Sensors() {
		if s.Source != SourceState {
			continue
		}
		if SensorAvailable(d, s) {
			t.Errorf("sensor %s available on stale data", s.Key)
		}
	}
	if d.Available() {
		t.Error("device available on stale data")
	}
}

func firstOkThenFail(state types.DeviceState) func(context.Context) (types.DeviceState, error) {
	calls := 0
	return func(context.Context) (types.DeviceState, error) {
		calls++
		if calls == 1 {
			return state, nil
		}
		return types.DeviceState{}, errors.New("outage")
	}
}

func TestLeakageProtectionActive(t *testing.T) {
	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)

	tests := []struct {
		name       string
		pauseUntil string
		want       bool
	}{
		{"no pause", "", true},
		{"paused until future", future, false},
		{"pause expired", past, true},
		{"unparseable timestamp", "garbage", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &types.DeviceState{
				Online:          true,
				WaterProtection: types.WaterProtection{PauseLeakageProtectionUntilUTC: tt.pauseUntil},
			}
			d := newTestDevice(t, state, nil)

			on, ok := leakageProtectionActive(d)
			if !ok {
				t.Fatal("leakageProtectionActive ok = false")
			}
			if on != tt.want {
				t.Errorf("active = %v, want %v", on, tt.want)
			}
		})
	}
}

func TestBinarySensors(t *testing.T) {
	state := &types.DeviceState{
		Online:  true,
		Mode:    types.DeviceMode{ID: "WO"},
		MLState: "leakage",
		Event:   &types.DeviceEvent{Category: "warning", Title: "Low pressure"},
	}
	d := newTestDevice(t, state, nil)

	want := map[string]bool{
		"online":                true,
		"water_supply":          false, // WO means supply shut off
		"microleakage_detected": true,
		"error":                 false,
		"warning":               true,
	}

	for _, b := range BinarySensors() {
		expected, checked := want[b.Key]
		if !checked {
			continue
		}
		on, ok := b.IsOn(d)
		if !ok {
			t.Errorf("binary sensor %s has no state", b.Key)
			continue
		}
		if on != expected {
			t.Errorf("binary sensor %s = %v, want %v", b.Key, on, expected)
		}
	}
}

func TestButtonAvailability(t *testing.T) {
	tests := []struct {
		name  string
		state types.DeviceState
		want  map[string]bool
	}{
		{
			name:  "normal operation",
			state: types.DeviceState{Online: true, Mode: types.DeviceMode{ID: "WT"}, MLState: "idle"},
			want:  map[string]bool{"self_test": true, "microleakage_test": true, "acknowledge_event": false},
		},
		{
			name:  "self test already running",
			state: types.DeviceState{Online: true, Mode: types.DeviceMode{ID: "ST"}, MLState: "idle"},
			want:  map[string]bool{"self_test": false, "microleakage_test": true},
		},
		{
			name:  "microleakage measurement running",
			state: types.DeviceState{Online: true, Mode: types.DeviceMode{ID: "WT"}, MLState: "running"},
			want:  map[string]bool{"self_test": true, "microleakage_test": false},
		},
		{
			name:  "offline",
			state: types.DeviceState{Online: false, Mode: types.DeviceMode{ID: "WT"}},
			want:  map[string]bool{"self_test": false, "microleakage_test": false},
		},
		{
			name: "pending event",
			state: types.DeviceState{Online: true, Mode: types.DeviceMode{ID: "WT"},
				Event: &types.DeviceEvent{Category: "info"}},
			want: map[string]bool{"acknowledge_event": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDevice(t, &tt.state, nil)
			for _, b := range Buttons() {
				expected, checked := tt.want[b.Key]
				if !checked {
					continue
				}
				if got := ButtonAvailable(d, b); got != expected {
					t.Errorf("button %s available = %v, want %v", b.Key, got, expected)
				}
			}
		})
	}
}

func TestSwitchWrites(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path+"?"+r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	client := watercryst.NewClient("test-key",
		watercryst.WithBaseURL(srv.URL),
		watercryst.WithRetryDelay(time.Millisecond),
		watercryst.WithLogger(discardLogger()),
	)
	t.Cleanup(client.Close)

	d := newTestDevice(t, &types.DeviceState{Online: true}, nil)
	d.Client = client

	ctx := context.Background()
	for _, sw := range Switches() {
		paths = nil
		if err := sw.TurnOn(ctx, d); err != nil {
			t.Fatalf("switch %s TurnOn error = %v", sw.Key, err)
		}
		if err := sw.TurnOff(ctx, d); err != nil {
			t.Fatalf("switch %s TurnOff error = %v", sw.Key, err)
		}

		var wantOn, wantOff string
		switch sw.Key {
		case "absence_mode":
			wantOn, wantOff = "/absence/enable?", "/absence/disable?"
		case "water_supply":
			wantOn, wantOff = "/watersupply/open?", "/watersupply/close?"
		case "leakage_protection":
			wantOn, wantOff = "/leakageprotection/unpause?", "/leakageprotection/pause?minutes=60"
		default:
			t.Fatalf("unexpected switch %s", sw.Key)
		}

		if len(paths) != 2 || paths[0] != wantOn || paths[1] != wantOff {
			t.Errorf("switch %s calls = %v, want [%s %s]", sw.Key, paths, wantOn, wantOff)
		}
	}
}
