// Package collector exposes the latest device snapshots as Prometheus
// metrics. It never talks to the cloud API itself; scrapes read whatever the
// coordinators last fetched.
package collector

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"biocat_bridge/internal/device"
	"biocat_bridge/internal/mapper"
)

// BiocatCollector implements prometheus.Collector over coordinator snapshots.
type BiocatCollector struct {
	dev    *device.Device
	logger *slog.Logger

	online           *prometheus.Desc
	mode             *prometheus.Desc
	mlState          *prometheus.Desc
	absenceMode      *prometheus.Desc
	protectionActive *prometheus.Desc
	eventActive      *prometheus.Desc

	waterTemp       *prometheus.Desc
	pressure        *prometheus.Desc
	flowRate        *prometheus.Desc
	lastTapVolume   *prometheus.Desc
	lastTapDuration *prometheus.Desc

	dailyConsumption *prometheus.Desc
	totalConsumption *prometheus.Desc

	snapshotStale   *prometheus.Desc
	lastSuccessUnix *prometheus.Desc
}

// NewBiocatCollector creates a collector for one device.
func NewBiocatCollector(dev *device.Device, logger *slog.Logger) *BiocatCollector {
	labels := []string{"device"}
	labelsWithMode := append(labels, "mode")
	labelsWithState := append(labels, "state")
	labelsWithCategory := append(labels, "category")
	labelsWithCoordinator := append(labels, "coordinator")

	return &BiocatCollector{
		dev:    dev,
		logger: logger,

		online: prometheus.NewDesc(
			"biocat_online",
			"Online (1) / Offline (0)",
			labels, nil,
		),
		mode: prometheus.NewDesc(
			"biocat_operating_mode",
			"Current operating mode (1 for current)",
			labelsWithMode, nil,
		),
		mlState: prometheus.NewDesc(
			"biocat_microleakage_state",
			"Current microleakage measurement state (1 for current)",
			labelsWithState, nil,
		),
		absenceMode: prometheus.NewDesc(
			"biocat_absence_mode",
			"Absence mode enabled (0/1)",
			labels, nil,
		),
		protectionActive: prometheus.NewDesc(
			"biocat_leakage_protection_active",
			"Leakage protection active (0/1)",
			labels, nil,
		),
		eventActive: prometheus.NewDesc(
			"biocat_active_event",
			"An unacknowledged device event is present (1)",
			labelsWithCategory, nil,
		),

		waterTemp: prometheus.NewDesc(
			"biocat_water_temperature_celsius",
			"Inlet water temperature (°C)",
			labels, nil,
		),
		pressure: prometheus.NewDesc(
			"biocat_water_pressure_bar",
			"Water pressure (bar)",
			labels, nil,
		),
		flowRate: prometheus.NewDesc(
			"biocat_water_flow_rate_lpm",
			"Current water flow rate (L/min)",
			labels, nil,
		),
		lastTapVolume: prometheus.NewDesc(
			"biocat_last_tap_volume_liters",
			"Volume of the last water tap (L)",
			labels, nil,
		),
		lastTapDuration: prometheus.NewDesc(
			"biocat_last_tap_duration_seconds",
			"Duration of the last water tap (s)",
			labels, nil,
		),

		dailyConsumption: prometheus.NewDesc(
			"biocat_daily_consumption_liters",
			"Cumulative water consumption today (L)",
			labels, nil,
		),
		totalConsumption: prometheus.NewDesc(
			"biocat_total_consumption_liters",
			"Cumulative total water consumption (L)",
			labels, nil,
		),

		snapshotStale: prometheus.NewDesc(
			"biocat_snapshot_stale",
			"Coordinator is serving data older than its interval (0/1)",
			labelsWithCoordinator, nil,
		),
		lastSuccessUnix: prometheus.NewDesc(
			"biocat_last_success_unix",
			"Last successful fetch per coordinator (unix seconds)",
			labelsWithCoordinator, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *BiocatCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.online
	ch <- c.mode
	ch <- c.mlState
	ch <- c.absenceMode
	ch <- c.protectionActive
	ch <- c.eventActive
	ch <- c.waterTemp
	ch <- c.pressure
	ch <- c.flowRate
	ch <- c.lastTapVolume
	ch <- c.lastTapDuration
	ch <- c.dailyConsumption
	ch <- c.totalConsumption
	ch <- c.snapshotStale
	ch <- c.lastSuccessUnix
}

// Collect implements prometheus.Collector.
func (c *BiocatCollector) Collect(ch chan<- prometheus.Metric) {
	labels := []string{c.dev.Name}

	c.emitCoordinatorHealth(ch, labels)

	if state, ok := c.dev.StateSnapshot(); ok {
		ch <- prometheus.MustNewConstMetric(c.online, prometheus.GaugeValue, boolValue(state.Online), labels...)

		if state.Mode.ID != "" {
			ch <- prometheus.MustNewConstMetric(c.mode, prometheus.GaugeValue, 1,
				append(labels, mapper.ModeName(state.Mode.ID))...)
		}
		if state.MLState != "" {
			ch <- prometheus.MustNewConstMetric(c.mlState, prometheus.GaugeValue, 1,
				append(labels, state.MLState)...)
		}

		ch <- prometheus.MustNewConstMetric(c.absenceMode, prometheus.GaugeValue,
			boolValue(state.WaterProtection.AbsenceModeEnabled), labels...)
		ch <- prometheus.MustNewConstMetric(c.protectionActive, prometheus.GaugeValue,
			boolValue(protectionActive(state.WaterProtection.PauseLeakageProtectionUntilUTC)), labels...)

		if state.Event != nil {
			ch <- prometheus.MustNewConstMetric(c.eventActive, prometheus.GaugeValue, 1,
				append(labels, state.Event.Category)...)
		}

		emitOptional(ch, c.dailyConsumption, state.DailyConsumption, labels)
		emitOptional(ch, c.totalConsumption, state.TotalConsumption, labels)
	}

	if m, ok := c.dev.MeasurementsSnapshot(); ok {
		emitOptional(ch, c.waterTemp, m.WaterTemp, labels)
		emitOptional(ch, c.pressure, m.Pressure, labels)
		emitOptional(ch, c.flowRate, m.FlowRate, labels)
		emitOptional(ch, c.lastTapVolume, m.LastWaterTapVolume, labels)
		emitOptional(ch, c.lastTapDuration, m.LastWaterTapDuration, labels)
	}
}

func (c *BiocatCollector) emitCoordinatorHealth(ch chan<- prometheus.Metric, labels []string) {
	for name, coord := range map[string]interface {
		Stale() bool
		LastSuccess() time.Time
	}{
		c.dev.State.Name():        c.dev.State,
		c.dev.Measurements.Name(): c.dev.Measurements,
	} {
		withName := append(labels, name)
		ch <- prometheus.MustNewConstMetric(c.snapshotStale, prometheus.GaugeValue,
			boolValue(coord.Stale()), withName...)
		if last := coord.LastSuccess(); !last.IsZero() {
			ch <- prometheus.MustNewConstMetric(c.lastSuccessUnix, prometheus.GaugeValue,
				float64(last.Unix()), withName...)
		}
	}
}

// protectionActive mirrors the leakage protection entity: protection is on
// unless a parseable pause timestamp lies in the future.
func protectionActive(pauseUntil string) bool {
	if pauseUntil == "" {
		return true
	}
	until, ok := mapper.ParseTimestamp(pauseUntil)
	if !ok {
		return true
	}
	return !until.After(time.Now().UTC())
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func emitOptional(ch chan<- prometheus.Metric, desc *prometheus.Desc, value *float64, labels []string) {
	if value == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, *value, labels...)
}
