package scenarios

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/solarsim/core/sim"
)

type LegDef struct {
	Behavior        string         `yaml:"behavior"`
	Conf            map[string]any `yaml:"conf,omitempty"`
	DurationMinutes int            `yaml:"duration_minutes"`
}

func (l LegDef) ToLeg() sim.Leg {
	return sim.Leg{
		Behavior: l.Behavior,
		Conf:     l.Conf,
		Duration: time.Duration(l.DurationMinutes) * time.Minute,
	}
}

type Expected struct {
	Ticks       int      `yaml:"ticks"`
	Exhausted   bool     `yaml:"exhausted"`
	DistanceM   *float64 `yaml:"distance_m,omitempty"`
	ExhaustedAt string   `yaml:"exhausted_at,omitempty"`
	Transitions int      `yaml:"transitions"`
	// Resources maps resource identifiers to their value after the run.
	Resources map[string]float64 `yaml:"resources,omitempty"`
}

type Scenario struct {
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description,omitempty"`
	Start           string   `yaml:"start"`
	StepSeconds     int      `yaml:"step_seconds"`
	InitialChargeAh float64  `yaml:"initial_charge_ah"`
	Telemetry       []string `yaml:"telemetry,omitempty"`
	Legs            []LegDef `yaml:"legs"`
	Expected        Expected `yaml:"expected"`
}

// Schedule returns the legs as a runnable schedule.
func (s Scenario) Schedule() sim.Schedule {
	out := make(sim.Schedule, len(s.Legs))
	for i, l := range s.Legs {
		out[i] = l.ToLeg()
	}
	return out
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.StepSeconds == 0 {
		sc.StepSeconds = 60
	}
	if _, err := time.Parse(time.RFC3339, sc.Start); err != nil {
		return nil, fmt.Errorf("scenario %s: start: %w", sc.Name, err)
	}
	return &sc, nil
}
