// Package config handles configuration loading from a YAML file,
// environment variables and mounted secrets.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the bridge.
type Config struct {
	// APIKey is the WaterCryst app API key; the sole auth mechanism.
	APIKey string `yaml:"api_key"`
	// DeviceName names the appliance in entity IDs and topics.
	DeviceName string `yaml:"device_name"`
	// BaseURL overrides the vendor API base URL (tests, proxies).
	BaseURL string `yaml:"base_url"`

	Poll   PollConfig   `yaml:"poll"`
	Setup  SetupConfig  `yaml:"setup"`
	Server ServerConfig `yaml:"server"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
	Log    LogConfig    `yaml:"log"`
}

// PollConfig tunes the coordinators and the transport retry policy.
type PollConfig struct {
	StateIntervalSeconds        int `yaml:"state_interval_seconds"`
	MeasurementsIntervalSeconds int `yaml:"measurements_interval_seconds"`
	RetryMaxAttempts            int `yaml:"retry_max_attempts"`
	RetryDelaySeconds           int `yaml:"retry_delay_seconds"`
}

// SetupConfig tunes the first-refresh outer retry loop.
type SetupConfig struct {
	MaxAttempts      int `yaml:"max_attempts"`
	BaseDelaySeconds int `yaml:"base_delay_seconds"`
}

// ServerConfig holds the local HTTP surface configuration.
type ServerConfig struct {
	Addr            string  `yaml:"addr"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// MQTTConfig holds the broker connection and discovery settings.
type MQTTConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	TLS             bool   `yaml:"tls"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	ClientID        string `yaml:"client_id"`
	QoS             int    `yaml:"qos"`
	DiscoveryPrefix string `yaml:"discovery_prefix"`
	TopicPrefix     string `yaml:"topic_prefix"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads configuration from the YAML file at path (optional, may be
// empty), applies environment-variable overrides, and falls back to a
// mounted secret for the API key.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if cfg.APIKey == "" {
		key, err := tryLoadAPIKeySecret()
		if err != nil {
			return nil, err
		}
		cfg.APIKey = key
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		DeviceName: "BIOCAT",
		Poll: PollConfig{
			StateIntervalSeconds:        60,
			MeasurementsIntervalSeconds: 30,
			RetryMaxAttempts:            3,
			RetryDelaySeconds:           2,
		},
		Setup: SetupConfig{
			MaxAttempts:      3,
			BaseDelaySeconds: 2,
		},
		Server: ServerConfig{
			Addr:            ":9810",
			RateLimitPerSec: 10,
			RateLimitBurst:  5,
			CacheTTLSeconds: 300,
		},
		MQTT: MQTTConfig{
			Port:            1883,
			ClientID:        "biocat-bridge",
			QoS:             1,
			DiscoveryPrefix: "homeassistant",
			TopicPrefix:     "biocat",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func applyEnv(cfg *Config) {
	if key := os.Getenv("BIOCAT_API_KEY"); key != "" {
		cfg.APIKey = key
	}
	if name := os.Getenv("BIOCAT_DEVICE_NAME"); name != "" {
		cfg.DeviceName = name
	}
	if base := os.Getenv("BIOCAT_BASE_URL"); base != "" {
		cfg.BaseURL = base
	}
	if addr := os.Getenv("BIOCAT_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if level := os.Getenv("BIOCAT_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if format := os.Getenv("BIOCAT_LOG_FORMAT"); format != "" {
		cfg.Log.Format = format
	}
	if interval := os.Getenv("BIOCAT_STATE_INTERVAL"); interval != "" {
		if seconds, err := strconv.Atoi(interval); err == nil && seconds > 0 {
			cfg.Poll.StateIntervalSeconds = seconds
		}
	}
	if interval := os.Getenv("BIOCAT_MEASUREMENTS_INTERVAL"); interval != "" {
		if seconds, err := strconv.Atoi(interval); err == nil && seconds > 0 {
			cfg.Poll.MeasurementsIntervalSeconds = seconds
		}
	}
}

// Validate checks that all required configuration fields are set and sane.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("api key is required (set api_key, BIOCAT_API_KEY or mount a secret)")
	}
	if c.Poll.StateIntervalSeconds <= 0 || c.Poll.MeasurementsIntervalSeconds <= 0 {
		return errors.New("poll intervals must be positive")
	}
	if c.Poll.RetryMaxAttempts <= 0 {
		return errors.New("retry_max_attempts must be positive")
	}
	if c.Setup.MaxAttempts <= 0 {
		return errors.New("setup max_attempts must be positive")
	}
	if c.MQTT.Enabled && c.MQTT.Host == "" {
		return errors.New("mqtt host is required when mqtt is enabled")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return errors.New("mqtt qos must be 0, 1 or 2")
	}
	return nil
}

// StateInterval returns the state coordinator polling period.
func (c *Config) StateInterval() time.Duration {
	return time.Duration(c.Poll.StateIntervalSeconds) * time.Second
}

// MeasurementsInterval returns the measurements coordinator polling period.
func (c *Config) MeasurementsInterval() time.Duration {
	return time.Duration(c.Poll.MeasurementsIntervalSeconds) * time.Second
}

// RetryDelay returns the transport layer's fixed retry delay.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Poll.RetryDelaySeconds) * time.Second
}

// SetupBaseDelay returns the first-refresh backoff base delay.
func (c *Config) SetupBaseDelay() time.Duration {
	return time.Duration(c.Setup.BaseDelaySeconds) * time.Second
}

// CacheTTL returns the HTTP statistics cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Server.CacheTTLSeconds) * time.Second
}
