package sim

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/solarsim/core/resource"
)

// Report summarises a finished run.
type Report struct {
	RunID        string        `json:"run_id" yaml:"run_id"`
	Start        time.Time     `json:"start" yaml:"start"`
	End          time.Time     `json:"end" yaml:"end"`
	Ticks        int           `json:"ticks" yaml:"ticks"`
	Distance     float64       `json:"distance_m" yaml:"distance_m"`
	FinalCharge  float64       `json:"final_charge_ah" yaml:"final_charge_ah"`
	MinCharge    float64       `json:"min_charge_ah" yaml:"min_charge_ah"`
	MeanVelocity float64       `json:"mean_velocity" yaml:"mean_velocity"`
	Exhausted    bool          `json:"exhausted" yaml:"exhausted"`
	ExhaustedAt  time.Duration `json:"exhausted_at,omitempty" yaml:"exhausted_at,omitempty"`
	// ChargeWindow summarises the retained battery history.
	ChargeWindow resource.Stats `json:"charge_window" yaml:"charge_window"`
}

// series accumulates per-tick values for the report.
type series struct {
	velocity []float64
	charge   []float64
}

func (s *series) add(velocity, charge float64) {
	s.velocity = append(s.velocity, velocity)
	s.charge = append(s.charge, charge)
}

func (s *series) fill(r *Report) {
	if len(s.velocity) == 0 {
		return
	}
	r.MeanVelocity = stat.Mean(s.velocity, nil)
	r.MinCharge = floats.Min(s.charge)
}
