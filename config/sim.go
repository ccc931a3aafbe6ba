package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/kilianp07/solarsim/core/resource"
	"github.com/kilianp07/solarsim/core/sim"
)

// DefaultStart is the simulated start time used when none is configured.
const DefaultStart = "2024-06-21T06:00:00Z"

// SimConfig controls the time stepping of a run.
type SimConfig struct {
	// Start is the RFC 3339 wall-clock time of the first tick.
	Start       string `json:"start" yaml:"start"`
	StepSeconds int    `json:"step_seconds" yaml:"step_seconds"`
	// History is the number of samples kept per resource.
	History         int     `json:"history" yaml:"history"`
	InitialChargeAh float64 `json:"initial_charge_ah" yaml:"initial_charge_ah"`
}

// SetDefaults applies sane defaults.
func (c *SimConfig) SetDefaults() {
	if c.Start == "" {
		c.Start = DefaultStart
	}
	if c.StepSeconds == 0 {
		c.StepSeconds = 60
	}
	if c.History == 0 {
		c.History = resource.DefaultHistorySize
	}
}

// Validate checks mandatory fields.
func (c SimConfig) Validate() error {
	if _, err := time.Parse(time.RFC3339, c.Start); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if c.StepSeconds <= 0 {
		return fmt.Errorf("step_seconds must be positive")
	}
	if c.History < 0 {
		return fmt.Errorf("history must not be negative")
	}
	return nil
}

// StartTime returns the parsed start time. Call Validate first.
func (c SimConfig) StartTime() time.Time {
	t, _ := time.Parse(time.RFC3339, c.Start)
	return t
}

// Step returns the tick length.
func (c SimConfig) Step() time.Duration {
	return time.Duration(c.StepSeconds) * time.Second
}

// VehicleConfig holds vehicle-level settings outside the physics modules.
type VehicleConfig struct {
	Name string `json:"name" yaml:"name"`
	// AuxLoadW is the constant draw of lights and electronics.
	AuxLoadW *float64 `json:"aux_load_w" yaml:"aux_load_w"`
}

// SetDefaults applies sane defaults.
func (c *VehicleConfig) SetDefaults() {
	if c.Name == "" {
		c.Name = "solarsim"
	}
	if c.AuxLoadW == nil {
		aux := sim.DefaultAuxLoad
		c.AuxLoadW = &aux
	}
}

// Validate checks mandatory fields.
func (c VehicleConfig) Validate() error {
	if c.AuxLoadW != nil && *c.AuxLoadW < 0 {
		return fmt.Errorf("aux_load_w must not be negative")
	}
	return nil
}

// AuxLoad returns the configured auxiliary draw in W.
func (c VehicleConfig) AuxLoad() float64 {
	if c.AuxLoadW == nil {
		return sim.DefaultAuxLoad
	}
	return *c.AuxLoadW
}

// OutputConfig names the files written after a run. Empty names disable the
// matching export; Dir empty disables all of them.
type OutputConfig struct {
	Dir             string `json:"dir" yaml:"dir"`
	HistoryCSV      string `json:"history_csv" yaml:"history_csv"`
	HistoryJSON     string `json:"history_json" yaml:"history_json"`
	TicksCSV        string `json:"ticks_csv" yaml:"ticks_csv"`
	Report          string `json:"report" yaml:"report"`
	EffectiveConfig string `json:"effective_config" yaml:"effective_config"`
}

// SetDefaults applies sane defaults.
func (c *OutputConfig) SetDefaults() {
	if c.Dir == "" {
		return
	}
	if c.HistoryCSV == "" {
		c.HistoryCSV = "history.csv"
	}
	if c.HistoryJSON == "" {
		c.HistoryJSON = "history.json"
	}
	if c.TicksCSV == "" {
		c.TicksCSV = "ticks.csv"
	}
	if c.Report == "" {
		c.Report = "report.yaml"
	}
	if c.EffectiveConfig == "" {
		c.EffectiveConfig = "config.effective.yaml"
	}
}

// Validate checks that file names stay inside Dir.
func (c OutputConfig) Validate() error {
	for _, name := range []string{c.HistoryCSV, c.HistoryJSON, c.TicksCSV, c.Report, c.EffectiveConfig} {
		if name != "" && filepath.Base(name) != name {
			return fmt.Errorf("output file %q must be a bare file name", name)
		}
	}
	return nil
}

// Path returns name joined to Dir, or "" when either is unset.
func (c OutputConfig) Path(name string) string {
	if c.Dir == "" || name == "" {
		return ""
	}
	return filepath.Join(c.Dir, name)
}
