package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"biocat_bridge/internal/device"
	"biocat_bridge/internal/entity"
	"biocat_bridge/internal/watercryst"
)

// Handler serves the local read/write surface for one appliance.
type Handler struct {
	dev    *device.Device
	logger *slog.Logger
}

// NewHandler creates a Handler bound to a device.
func NewHandler(dev *device.Device, logger *slog.Logger) *Handler {
	return &Handler{dev: dev, logger: logger}
}

// snapshotEnvelope wraps a coordinator snapshot with its freshness metadata.
type snapshotEnvelope struct {
	Data        any        `json:"data"`
	Stale       bool       `json:"stale"`
	LastSuccess *time.Time `json:"lastSuccess,omitempty"`
	LastError   string     `json:"lastError,omitempty"`
}

// GetState handles GET /api/v1/state.
func (h *Handler) GetState(c *gin.Context) {
	state, ok := h.dev.StateSnapshot()
	if !ok {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "no state snapshot yet"})
		return
	}
	c.JSON(http.StatusOK, h.envelope(state, h.dev.State.Stale(), h.dev.State.LastSuccess(), h.dev.State.LastError()))
}

// GetMeasurements handles GET /api/v1/measurements.
func (h *Handler) GetMeasurements(c *gin.Context) {
	m, ok := h.dev.MeasurementsSnapshot()
	if !ok {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "no measurements snapshot yet"})
		return
	}
	c.JSON(http.StatusOK, h.envelope(m, h.dev.Measurements.Stale(), h.dev.Measurements.LastSuccess(), h.dev.Measurements.LastError()))
}

func (h *Handler) envelope(data any, stale bool, lastSuccess time.Time, lastErr error) snapshotEnvelope {
	env := snapshotEnvelope{Data: data, Stale: stale}
	if !lastSuccess.IsZero() {
		env.LastSuccess = &lastSuccess
	}
	if lastErr != nil {
		env.LastError = lastErr.Error()
	}
	return env
}

// GetDailyStatistics handles GET /api/v1/statistics/daily. It fetches on
// demand, preferring the direct endpoint and falling back to the legacy one
// on API-level failures; responses are cached by middleware.
func (h *Handler) GetDailyStatistics(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := h.dev.Client.GetDailyStatisticsDirect(ctx)
	if err != nil && !watercryst.IsConnectionError(err) {
		h.logger.Warn("direct daily statistics failed, trying legacy endpoint", "error", err)
		stats, err = h.dev.Client.GetDailyStatistics(ctx)
	}
	if err != nil {
		h.upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// entityState is one row of the entity read surface.
type entityState struct {
	Kind      string         `json:"kind"`
	Key       string         `json:"key"`
	Name      string         `json:"name"`
	Value     any            `json:"value"`
	Unit      string         `json:"unit,omitempty"`
	Icon      string         `json:"icon,omitempty"`
	Available bool           `json:"available"`
	Attrs     map[string]any `json:"attributes,omitempty"`
}

// GetEntities handles GET /api/v1/entities: every sensor and binary sensor
// evaluated against the latest snapshots.
func (h *Handler) GetEntities(c *gin.Context) {
	var out []entityState

	for _, s := range entity.Sensors() {
		value, _ := s.Value(h.dev)
		icon := s.Icon
		if s.DynamicIcon != nil {
			icon = s.DynamicIcon(h.dev)
		}
		row := entityState{
			Kind:      "sensor",
			Key:       s.Key,
			Name:      s.Name,
			Value:     value,
			Unit:      s.Unit,
			Icon:      icon,
			Available: entity.SensorAvailable(h.dev, s),
		}
		if s.Attributes != nil {
			row.Attrs = s.Attributes(h.dev)
		}
		out = append(out, row)
	}

	for _, b := range entity.BinarySensors() {
		on, ok := b.IsOn(h.dev)
		icon := b.Icon
		if b.DynamicIcon != nil {
			icon = b.DynamicIcon(h.dev)
		}
		var value any
		if ok {
			value = on
		}
		out = append(out, entityState{
			Kind:      "binary_sensor",
			Key:       b.Key,
			Name:      b.Name,
			Value:     value,
			Icon:      icon,
			Available: ok,
		})
	}

	c.JSON(http.StatusOK, gin.H{"device": h.dev.Name, "entities": out})
}

// coordinatorDiagnostics mirrors one coordinator's health for diagnostics.
type coordinatorDiagnostics struct {
	Interval    string     `json:"interval"`
	Stale       bool       `json:"stale"`
	LastSuccess *time.Time `json:"lastSuccess,omitempty"`
	LastError   string     `json:"lastError,omitempty"`
	Data        any        `json:"data"`
}

// GetDiagnostics handles GET /api/v1/diagnostics.
func (h *Handler) GetDiagnostics(c *gin.Context) {
	state, _ := h.dev.StateSnapshot()
	measurements, _ := h.dev.MeasurementsSnapshot()

	c.JSON(http.StatusOK, gin.H{
		"device":       h.dev.Name,
		"manufacturer": device.Manufacturer,
		"model":        device.Model,
		"coordinators": gin.H{
			"state":        h.coordDiag(state, h.dev.State.Interval().String(), h.dev.State.Stale(), h.dev.State.LastSuccess(), h.dev.State.LastError()),
			"measurements": h.coordDiag(measurements, h.dev.Measurements.Interval().String(), h.dev.Measurements.Stale(), h.dev.Measurements.LastSuccess(), h.dev.Measurements.LastError()),
		},
	})
}

func (h *Handler) coordDiag(data any, interval string, stale bool, lastSuccess time.Time, lastErr error) coordinatorDiagnostics {
	diag := coordinatorDiagnostics{Interval: interval, Stale: stale, Data: data}
	if !lastSuccess.IsZero() {
		diag.LastSuccess = &lastSuccess
	}
	if lastErr != nil {
		diag.LastError = lastErr.Error()
	}
	return diag
}

// actions maps action names to facade mutations. Every action is followed by
// an immediate state refresh request so readers see the effect promptly.
var actions = map[string]func(cl *watercryst.Client, ctx context.Context) error{
	"enable_absence_mode":          (*watercryst.Client).EnableAbsenceMode,
	"disable_absence_mode":         (*watercryst.Client).DisableAbsenceMode,
	"open_water_supply":            (*watercryst.Client).OpenWaterSupply,
	"close_water_supply":           (*watercryst.Client).CloseWaterSupply,
	"unpause_leakage_protection":   (*watercryst.Client).UnpauseLeakageProtection,
	"start_self_test":              (*watercryst.Client).StartSelfTest,
	"start_microleakage_test":      (*watercryst.Client).StartMicroleakageMeasurement,
	"acknowledge_event":            (*watercryst.Client).AcknowledgeEvent,
}

// PostAction handles POST /api/v1/actions/:name. The pause action takes a
// JSON body and is dispatched to its own handler; everything else is
// parameterless.
func (h *Handler) PostAction(c *gin.Context) {
	name := c.Param("name")
	if name == "pause_leakage_protection" {
		h.PostPauseLeakageProtection(c)
		return
	}

	action, ok := actions[name]
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown action: " + name})
		return
	}

	if err := action(h.dev.Client, c.Request.Context()); err != nil {
		h.logger.Error("action failed", "action", name, "error", err)
		h.upstreamError(c, err)
		return
	}

	h.dev.State.RequestRefresh()
	h.logger.Info("action executed", "action", name)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type pauseRequest struct {
	Minutes int `json:"minutes" binding:"required"`
}

// PostPauseLeakageProtection handles POST /api/v1/actions/pause_leakage_protection.
// Minutes outside [1,4320] are rejected locally before any upstream call.
func (h *Handler) PostPauseLeakageProtection(c *gin.Context) {
	var req pauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "minutes is required"})
		return
	}

	if err := h.dev.Client.PauseLeakageProtection(c.Request.Context(), req.Minutes); err != nil {
		if errors.Is(err, watercryst.ErrInvalidArgument) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("pause leakage protection failed", "minutes", req.Minutes, "error", err)
		h.upstreamError(c, err)
		return
	}

	h.dev.State.RequestRefresh()
	h.logger.Info("leakage protection paused", "minutes", req.Minutes)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "minutes": req.Minutes})
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(c *gin.Context) {
	c.String(http.StatusOK, "OK\n")
}

// upstreamError maps client failures onto HTTP statuses for local callers.
func (h *Handler) upstreamError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	switch {
	case watercryst.IsConnectionError(err):
		status = http.StatusGatewayTimeout
	case errors.Is(err, watercryst.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, watercryst.ErrUnsupported), errors.Is(err, watercryst.ErrDisabled):
		status = http.StatusConflict
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
