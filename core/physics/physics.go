package physics

import "time"

// SecondsPerHour converts watt-seconds to watt-hours.
const SecondsPerHour = 3600.0

// BatteryModel turns a power balance over an interval into a charge delta.
type BatteryModel interface {
	Flow(powerIn, powerRequired float64, dt time.Duration) float64
}

// MotorModel returns the electrical power needed to hold a velocity.
type MotorModel interface {
	PowerForVelocity(v float64) float64
}

// PanelModel returns the electrical power produced at an instant.
type PanelModel interface {
	PowerAt(t time.Time) float64
}
