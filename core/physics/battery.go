package physics

import (
	"fmt"
	"time"
)

// Battery models the pack as a nominal voltage with coulombic efficiencies.
type Battery struct {
	NominalVoltage      float64 `json:"nominal_voltage" yaml:"nominal_voltage"`           // V
	ChargeEfficiency    float64 `json:"charge_efficiency" yaml:"charge_efficiency"`       // (0,1], applied to surplus power
	DischargeEfficiency float64 `json:"discharge_efficiency" yaml:"discharge_efficiency"` // (0,1], applied to deficit power
}

// DefaultBattery returns a 96 V pack without conversion losses.
func DefaultBattery() Battery {
	return Battery{NominalVoltage: 96, ChargeEfficiency: 1, DischargeEfficiency: 1}
}

// Validate checks that the battery parameters are usable.
func (b Battery) Validate() error {
	if b.NominalVoltage <= 0 {
		return fmt.Errorf("nominal voltage must be positive")
	}
	if b.ChargeEfficiency <= 0 || b.ChargeEfficiency > 1 {
		return fmt.Errorf("charge efficiency must be in (0,1]")
	}
	if b.DischargeEfficiency <= 0 || b.DischargeEfficiency > 1 {
		return fmt.Errorf("discharge efficiency must be in (0,1]")
	}
	return nil
}

// Flow returns the net charge delta in Ah for powerIn and powerRequired (W)
// applied over dt. The result is negative when demand exceeds supply.
func (b Battery) Flow(powerIn, powerRequired float64, dt time.Duration) float64 {
	secs := dt.Seconds()
	if secs <= 0 {
		return 0
	}
	net := powerIn - powerRequired
	if net > 0 {
		net *= b.ChargeEfficiency
	} else if net < 0 {
		net /= b.DischargeEfficiency
	}
	return net * secs / SecondsPerHour / b.NominalVoltage
}

// EnergyToCharge converts watt-hours into ampere-hours at the nominal voltage.
func (b Battery) EnergyToCharge(wh float64) float64 { return wh / b.NominalVoltage }
