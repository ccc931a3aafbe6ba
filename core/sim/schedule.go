package sim

import (
	"fmt"
	"time"

	"github.com/kilianp07/solarsim/core/behavior"
	"github.com/kilianp07/solarsim/core/factory"
)

// Leg runs one behavior for a fixed duration.
type Leg struct {
	Behavior string         `json:"behavior" yaml:"behavior"`
	Conf     map[string]any `json:"conf,omitempty" yaml:"conf,omitempty"`
	Duration time.Duration  `json:"duration" yaml:"duration"`
}

// Schedule is the ordered list of legs of a run.
type Schedule []Leg

// Total returns the summed duration of every leg.
func (s Schedule) Total() time.Duration {
	var d time.Duration
	for _, l := range s {
		d += l.Duration
	}
	return d
}

// Build returns the behavior of every leg, failing on the first leg that
// cannot be built or has a non-positive duration.
func (s Schedule) Build() ([]behavior.Behavior, error) {
	out := make([]behavior.Behavior, len(s))
	for i, l := range s {
		if l.Duration <= 0 {
			return nil, fmt.Errorf("leg %d (%s): duration must be positive", i, l.Behavior)
		}
		b, err := behavior.New(factory.ModuleConfig{Type: l.Behavior, Conf: l.Conf})
		if err != nil {
			return nil, fmt.Errorf("leg %d: %w", i, err)
		}
		out[i] = b
	}
	return out, nil
}
