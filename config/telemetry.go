package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/solarsim/infra/telemetry"
)

// TelemetryConfig holds configuration for live telemetry ingestion.
type TelemetryConfig struct {
	Enabled  bool                     `json:"enabled" yaml:"enabled"`
	Listener telemetry.ListenerConfig `json:"listener" yaml:"listener"`
	// MQTTEnabled also subscribes to mqtt.telemetry_topic.
	MQTTEnabled            bool `json:"mqtt_enabled" yaml:"mqtt_enabled"`
	ReadoutIntervalSeconds int  `json:"readout_interval_seconds" yaml:"readout_interval_seconds"`
}

// SetDefaults applies sane defaults.
func (c *TelemetryConfig) SetDefaults() {
	c.Listener.SetDefaults()
}

// Validate checks mandatory fields.
func (c TelemetryConfig) Validate() error {
	if c.ReadoutIntervalSeconds < 0 {
		return fmt.Errorf("readout_interval_seconds must not be negative")
	}
	if c.Listener.IdleTimeout < 0 {
		return fmt.Errorf("listener idle_timeout must not be negative")
	}
	return nil
}

func (c TelemetryConfig) ReadoutInterval() time.Duration {
	if c.ReadoutIntervalSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.ReadoutIntervalSeconds) * time.Second
}
