package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/kilianp07/solarsim/core/metrics"
	"github.com/kilianp07/solarsim/core/physics"
	"github.com/kilianp07/solarsim/core/sim"
	"github.com/kilianp07/solarsim/infra/mqtt"
)

// EnvPrefix marks environment overrides: SOLARSIM_SIM__STEP_SECONDS sets
// sim.step_seconds.
const EnvPrefix = "SOLARSIM_"

type Config struct {
	Sim       SimConfig       `json:"sim" yaml:"sim"`
	Vehicle   VehicleConfig   `json:"vehicle" yaml:"vehicle"`
	Battery   physics.Battery `json:"battery" yaml:"battery"`
	Motor     physics.Motor   `json:"motor" yaml:"motor"`
	Panel     physics.Panel   `json:"panel" yaml:"panel"`
	Schedule  sim.Schedule    `json:"schedule" yaml:"schedule"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
	MQTT      mqtt.Config     `json:"mqtt" yaml:"mqtt"`
	Metrics   metrics.Config  `json:"metrics" yaml:"metrics"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	Output    OutputConfig    `json:"output" yaml:"output"`
}

// Default returns a configuration with every section defaulted and an empty
// schedule.
func Default() *Config {
	cfg := &Config{
		Battery: physics.DefaultBattery(),
		Motor:   physics.DefaultMotor(),
		Panel:   physics.DefaultPanel(),
	}
	cfg.SetDefaults()
	return cfg
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	cfg := Config{
		Battery: physics.DefaultBattery(),
		Motor:   physics.DefaultMotor(),
		Panel:   physics.DefaultPanel(),
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills unset fields of every section.
func (c *Config) SetDefaults() {
	c.Sim.SetDefaults()
	c.Vehicle.SetDefaults()
	c.Telemetry.SetDefaults()
	c.MQTT.SetDefaults()
	c.Logging.SetDefaults()
	c.Output.SetDefaults()
}

// Validate checks every section and reports all failures together.
func (c Config) Validate() error {
	var errs []error
	add := func(section string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", section, err))
		}
	}
	add("sim", c.Sim.Validate())
	add("vehicle", c.Vehicle.Validate())
	add("battery", c.Battery.Validate())
	add("motor", c.Motor.Validate())
	add("panel", c.Panel.Validate())
	if _, err := c.Schedule.Build(); err != nil {
		add("schedule", err)
	}
	add("telemetry", c.Telemetry.Validate())
	if c.Telemetry.MQTTEnabled {
		add("mqtt", c.MQTT.Validate())
	}
	add("logging", c.Logging.Validate())
	add("output", c.Output.Validate())
	return errors.Join(errs...)
}

// WriteYAML dumps the effective configuration.
func (c Config) WriteYAML(w io.Writer) error {
	enc := yamlv3.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

// SaveYAML writes the effective configuration to path.
func (c Config) SaveYAML(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.WriteYAML(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
