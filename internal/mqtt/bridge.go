package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"biocat_bridge/internal/device"
	"biocat_bridge/internal/entity"
	"biocat_bridge/internal/types"
)

const commandTimeout = 30 * time.Second

// Bridge publishes the device's entities over MQTT using Home Assistant
// discovery and executes commands arriving on the command topics.
type Bridge struct {
	client *Client
	dev    *device.Device
	topics Topics
	logger *slog.Logger

	switches map[string]entity.Switch
	buttons  map[string]entity.Button
}

// NewBridge wires a connected client to a device.
func NewBridge(client *Client, dev *device.Device, topics Topics, logger *slog.Logger) *Bridge {
	b := &Bridge{
		client:   client,
		dev:      dev,
		topics:   topics,
		logger:   logger,
		switches: make(map[string]entity.Switch),
		buttons:  make(map[string]entity.Button),
	}
	for _, sw := range entity.Switches() {
		b.switches[sw.Key] = sw
	}
	for _, bt := range entity.Buttons() {
		b.buttons[bt.Key] = bt
	}
	return b
}

// Start announces all entities, subscribes to command topics and hooks the
// coordinators so every successful refresh is published. Discovery configs
// are republished on every reconnect.
func (b *Bridge) Start() error {
	if err := b.publishDiscovery(); err != nil {
		return fmt.Errorf("publish discovery: %w", err)
	}
	if err := b.client.Subscribe(b.topics.CommandWildcard(), b.handleCommand); err != nil {
		return err
	}

	b.client.SetOnConnect(func() {
		if err := b.publishDiscovery(); err != nil {
			b.logger.Warn("discovery republish failed", "error", err)
		}
		b.publishAll()
	})

	b.dev.State.Subscribe(func(types.DeviceState) { b.publishStateEntities() })
	b.dev.Measurements.Subscribe(func(types.Measurements) { b.publishMeasurementEntities() })

	b.publishAll()
	return nil
}

func (b *Bridge) device() discoveryDevice {
	return discoveryDevice{
		Identifiers:  []string{b.topics.NodeID},
		Name:         b.dev.Name,
		Manufacturer: device.Manufacturer,
		Model:        device.Model,
	}
}

func (b *Bridge) publishConfig(component, key string, cfg discoveryConfig) error {
	cfg.UniqueID = fmt.Sprintf("%s_%s", b.topics.NodeID, key)
	cfg.AvailabilityTopic = b.topics.Availability()
	cfg.Device = b.device()

	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal discovery config %s/%s: %w", component, key, err)
	}
	return b.client.Publish(b.topics.Discovery(component, key), payload, true)
}

func (b *Bridge) publishDiscovery() error {
	for _, s := range entity.Sensors() {
		cfg := discoveryConfig{
			Name:              s.Name,
			StateTopic:        b.topics.State("sensor", s.Key),
			UnitOfMeasurement: s.Unit,
			DeviceClass:       s.DeviceClass,
			StateClass:        s.StateClass,
			Icon:              s.Icon,
		}
		if s.Attributes != nil {
			cfg.JSONAttrTopic = b.topics.Attributes("sensor", s.Key)
		}
		if err := b.publishConfig("sensor", s.Key, cfg); err != nil {
			return err
		}
	}

	for _, bs := range entity.BinarySensors() {
		cfg := discoveryConfig{
			Name:        bs.Name,
			StateTopic:  b.topics.State("binary_sensor", bs.Key),
			DeviceClass: bs.DeviceClass,
			Icon:        bs.Icon,
		}
		if err := b.publishConfig("binary_sensor", bs.Key, cfg); err != nil {
			return err
		}
	}

	for _, sw := range entity.Switches() {
		cfg := discoveryConfig{
			Name:         sw.Name,
			StateTopic:   b.topics.State("switch", sw.Key),
			CommandTopic: b.topics.Command("switch", sw.Key),
			Icon:         sw.Icon,
			PayloadOn:    "ON",
			PayloadOff:   "OFF",
		}
		if err := b.publishConfig("switch", sw.Key, cfg); err != nil {
			return err
		}
	}

	for _, bt := range entity.Buttons() {
		cfg := discoveryConfig{
			Name:         bt.Name,
			CommandTopic: b.topics.Command("button", bt.Key),
			Icon:         bt.Icon,
			PayloadPress: "PRESS",
		}
		if err := b.publishConfig("button", bt.Key, cfg); err != nil {
			return err
		}
	}

	return nil
}

func (b *Bridge) publishAll() {
	b.publishStateEntities()
	b.publishMeasurementEntities()
}

func (b *Bridge) publishStateEntities() {
	b.publishSensors(entity.SourceState)
	b.publishBinarySensors(entity.SourceState)
	b.publishSwitches()
}

func (b *Bridge) publishMeasurementEntities() {
	b.publishSensors(entity.SourceMeasurements)
	b.publishBinarySensors(entity.SourceMeasurements)
}

// sensorPayload renders a sensor value for the state topic. An empty payload
// makes Home Assistant show the entity as unknown.
func sensorPayload(value any, ok bool) string {
	if !ok || value == nil {
		return ""
	}
	return fmt.Sprint(value)
}

func (b *Bridge) publishSensors(source string) {
	for _, s := range entity.Sensors() {
		if s.Source != source {
			continue
		}

		value, ok := s.Value(b.dev)
		if !entity.SensorAvailable(b.dev, s) {
			ok = false
		}
		b.publish(b.topics.State("sensor", s.Key), []byte(sensorPayload(value, ok)))

		if s.Attributes != nil {
			if attrs := s.Attributes(b.dev); attrs != nil {
				if payload, err := json.Marshal(attrs); err == nil {
					b.publish(b.topics.Attributes("sensor", s.Key), payload)
				}
			}
		}
	}
}

func boolPayload(on bool) []byte {
	if on {
		return []byte("ON")
	}
	return []byte("OFF")
}

func (b *Bridge) publishBinarySensors(source string) {
	for _, bs := range entity.BinarySensors() {
		if bs.Source != source {
			continue
		}
		on, ok := bs.IsOn(b.dev)
		if !ok {
			b.publish(b.topics.State("binary_sensor", bs.Key), nil)
			continue
		}
		b.publish(b.topics.State("binary_sensor", bs.Key), boolPayload(on))
	}
}

func (b *Bridge) publishSwitches() {
	for _, sw := range entity.Switches() {
		on, ok := sw.IsOn(b.dev)
		if !ok {
			b.publish(b.topics.State("switch", sw.Key), nil)
			continue
		}
		b.publish(b.topics.State("switch", sw.Key), boolPayload(on))
	}
}

func (b *Bridge) publish(topic string, payload []byte) {
	if err := b.client.Publish(topic, payload, true); err != nil {
		b.logger.Warn("state publish failed", "topic", topic, "error", err)
	}
}

// handleCommand dispatches a message on <prefix>/<node>/<component>/<key>/set
// to the matching switch or button.
func (b *Bridge) handleCommand(topic string, payload []byte) error {
	parts := strings.Split(topic, "/")
	if len(parts) < 5 || parts[len(parts)-1] != "set" {
		return fmt.Errorf("%w: %s", ErrInvalidTopic, topic)
	}
	component := parts[len(parts)-3]
	key := parts[len(parts)-2]

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch component {
	case "switch":
		sw, ok := b.switches[key]
		if !ok {
			return fmt.Errorf("unknown switch: %s", key)
		}
		switch strings.ToUpper(strings.TrimSpace(string(payload))) {
		case "ON":
			return b.logCommand(key, "on", sw.TurnOn(ctx, b.dev))
		case "OFF":
			return b.logCommand(key, "off", sw.TurnOff(ctx, b.dev))
		default:
			return fmt.Errorf("unknown switch payload %q for %s", payload, key)
		}
	case "button":
		bt, ok := b.buttons[key]
		if !ok {
			return fmt.Errorf("unknown button: %s", key)
		}
		if !entity.ButtonAvailable(b.dev, bt) {
			return fmt.Errorf("button %s not available", key)
		}
		return b.logCommand(key, "press", bt.Press(ctx, b.dev))
	default:
		return fmt.Errorf("unknown component %s in %s", component, topic)
	}
}

func (b *Bridge) logCommand(key, action string, err error) error {
	if err != nil {
		return fmt.Errorf("%s %s: %w", action, key, err)
	}
	b.logger.Info("command executed", "entity", key, "action", action)
	return nil
}
