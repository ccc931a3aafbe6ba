package physics

import (
	"fmt"
	"math"
)

const gravity = 9.81 // m/s²

// Motor models road load: rolling resistance plus aerodynamic drag, divided
// by drivetrain efficiency.
type Motor struct {
	MassKg            float64 `json:"mass_kg" yaml:"mass_kg"`
	RollingResistance float64 `json:"rolling_resistance" yaml:"rolling_resistance"` // Crr
	DragArea          float64 `json:"drag_area" yaml:"drag_area"`                   // Cd·A in m²
	AirDensity        float64 `json:"air_density" yaml:"air_density"`               // kg/m³
	Efficiency        float64 `json:"efficiency" yaml:"efficiency"`                 // (0,1]
}

// DefaultMotor returns parameters for a 500 kg solar car.
func DefaultMotor() Motor {
	return Motor{
		MassKg:            500,
		RollingResistance: 0.006,
		DragArea:          0.15,
		AirDensity:        1.225,
		Efficiency:        0.95,
	}
}

// Validate checks that the motor parameters are usable.
func (m Motor) Validate() error {
	if m.MassKg <= 0 {
		return fmt.Errorf("mass must be positive")
	}
	if m.RollingResistance < 0 || m.DragArea < 0 || m.AirDensity < 0 {
		return fmt.Errorf("road load coefficients must not be negative")
	}
	if m.Efficiency <= 0 || m.Efficiency > 1 {
		return fmt.Errorf("efficiency must be in (0,1]")
	}
	return nil
}

// PowerForVelocity returns the power in W required to cruise at v m/s.
func (m Motor) PowerForVelocity(v float64) float64 {
	v = math.Abs(v)
	rolling := m.MassKg * gravity * m.RollingResistance * v
	drag := 0.5 * m.AirDensity * m.DragArea * v * v * v
	return (rolling + drag) / m.Efficiency
}
