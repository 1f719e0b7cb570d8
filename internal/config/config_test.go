package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BIOCAT_API_KEY", "key123")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DeviceName != "BIOCAT" {
		t.Errorf("DeviceName = %v, want BIOCAT", cfg.DeviceName)
	}
	if cfg.Server.Addr != ":9810" {
		t.Errorf("Server.Addr = %v, want :9810", cfg.Server.Addr)
	}
	if cfg.StateInterval() != 60*time.Second {
		t.Errorf("StateInterval() = %v, want 60s", cfg.StateInterval())
	}
	if cfg.MeasurementsInterval() != 30*time.Second {
		t.Errorf("MeasurementsInterval() = %v, want 30s", cfg.MeasurementsInterval())
	}
	if cfg.RetryDelay() != 2*time.Second {
		t.Errorf("RetryDelay() = %v, want 2s", cfg.RetryDelay())
	}
	if cfg.Poll.RetryMaxAttempts != 3 {
		t.Errorf("RetryMaxAttempts = %v, want 3", cfg.Poll.RetryMaxAttempts)
	}
	if cfg.Setup.MaxAttempts != 3 || cfg.SetupBaseDelay() != 2*time.Second {
		t.Errorf("Setup = %v/%v, want 3 attempts, 2s base", cfg.Setup.MaxAttempts, cfg.SetupBaseDelay())
	}
	if cfg.MQTT.Enabled {
		t.Error("MQTT.Enabled = true, want false by default")
	}
	if cfg.MQTT.DiscoveryPrefix != "homeassistant" || cfg.MQTT.TopicPrefix != "biocat" {
		t.Errorf("MQTT prefixes = %v/%v", cfg.MQTT.DiscoveryPrefix, cfg.MQTT.TopicPrefix)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("Log = %v/%v, want info/text", cfg.Log.Level, cfg.Log.Format)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
api_key: from-yaml
device_name: Cellar BIOCAT
poll:
  state_interval_seconds: 120
mqtt:
  enabled: true
  host: broker.local
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.APIKey != "from-yaml" {
		t.Errorf("APIKey = %v, want from-yaml", cfg.APIKey)
	}
	if cfg.DeviceName != "Cellar BIOCAT" {
		t.Errorf("DeviceName = %v", cfg.DeviceName)
	}
	if cfg.StateInterval() != 120*time.Second {
		t.Errorf("StateInterval() = %v, want 120s", cfg.StateInterval())
	}
	// unset keys keep their defaults
	if cfg.MeasurementsInterval() != 30*time.Second {
		t.Errorf("MeasurementsInterval() = %v, want default 30s", cfg.MeasurementsInterval())
	}
	if !cfg.MQTT.Enabled || cfg.MQTT.Host != "broker.local" {
		t.Errorf("MQTT = %+v", cfg.MQTT)
	}
	if cfg.MQTT.Port != 1883 {
		t.Errorf("MQTT.Port = %v, want default 1883", cfg.MQTT.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("api_key: from-yaml\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("BIOCAT_API_KEY", "from-env")
	t.Setenv("BIOCAT_DEVICE_NAME", "Attic")
	t.Setenv("BIOCAT_ADDR", ":9999")
	t.Setenv("BIOCAT_LOG_LEVEL", "debug")
	t.Setenv("BIOCAT_STATE_INTERVAL", "90")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.APIKey != "from-env" {
		t.Errorf("APIKey = %v, want from-env", cfg.APIKey)
	}
	if cfg.DeviceName != "Attic" {
		t.Errorf("DeviceName = %v, want Attic", cfg.DeviceName)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("Server.Addr = %v, want :9999", cfg.Server.Addr)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %v, want debug", cfg.Log.Level)
	}
	if cfg.StateInterval() != 90*time.Second {
		t.Errorf("StateInterval() = %v, want 90s", cfg.StateInterval())
	}
}

func TestLoad_SecretFallback(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "api_key"), []byte("secret-key\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BIOCAT_SECRETS_PATH", dir)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIKey != "secret-key" {
		t.Errorf("APIKey = %q, want secret-key (trimmed)", cfg.APIKey)
	}
}

func TestLoad_MissingSecretIsNotAnError(t *testing.T) {
	t.Setenv("BIOCAT_SECRETS_PATH", filepath.Join(t.TempDir(), "nope"))

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIKey != "" {
		t.Errorf("APIKey = %q, want empty", cfg.APIKey)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing api key", func(c *Config) { c.APIKey = "" }},
		{"zero state interval", func(c *Config) { c.Poll.StateIntervalSeconds = 0 }},
		{"zero retry attempts", func(c *Config) { c.Poll.RetryMaxAttempts = 0 }},
		{"zero setup attempts", func(c *Config) { c.Setup.MaxAttempts = 0 }},
		{"mqtt enabled without host", func(c *Config) { c.MQTT.Enabled = true; c.MQTT.Host = "" }},
		{"bad qos", func(c *Config) { c.MQTT.QoS = 3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			cfg.APIKey = "key"
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() error = nil, want failure")
			}
		})
	}
}
