// Package behavior defines how energy flows through the vehicle for each
// behavioral mode. A Behavior is stateless apart from its fixed parameters;
// everything it accumulates is written to the resource pool of the Car.
package behavior

import (
	"time"

	"github.com/kilianp07/solarsim/core/physics"
	"github.com/kilianp07/solarsim/core/resource"
)

// State names reported by Behavior.Name.
const (
	NameDriving  = "driving"
	NameCharging = "chargestop"
	NameStopped  = "nochargestop"
)

// Car is the view of the vehicle a behavior operates on.
type Car interface {
	Pool() *resource.Pool
	BatteryModel() physics.BatteryModel
	MotorModel() physics.MotorModel
	PanelModel() physics.PanelModel
	// AuxLoad is the constant draw of lights and electronics in W.
	AuxLoad() float64
	AddDistance(meters float64)
}

// Flow describes the energy accounting of one tick.
type Flow struct {
	SolarW        float64
	DemandW       float64
	ChargeDeltaAh float64
	DistanceM     float64
}

// Behavior governs velocity and energy flow for one tick. dt must not be
// negative.
type Behavior interface {
	Name() string
	Update(car Car, now time.Time, dt time.Duration) Flow
}

// Driving holds a target velocity and drains the battery for motor and
// auxiliary loads while the panel keeps charging.
type Driving struct {
	target float64
}

// NewDriving returns a Driving behavior. target is in m/s and must not be negative.
func NewDriving(target float64) (*Driving, error) {
	if target < 0 {
		return nil, ErrNegativeVelocity
	}
	return &Driving{target: target}, nil
}

func (d *Driving) Name() string { return NameDriving }

// TargetVelocity returns the velocity held while driving.
func (d *Driving) TargetVelocity() float64 { return d.target }

func (d *Driving) Update(car Car, now time.Time, dt time.Duration) Flow {
	pool := car.Pool()
	pool.Velocity().Set(d.target)
	v := pool.Velocity().Value()

	f := Flow{SolarW: car.PanelModel().PowerAt(now)}
	f.DemandW = car.MotorModel().PowerForVelocity(v) + car.AuxLoad()
	f.ChargeDeltaAh = car.BatteryModel().Flow(f.SolarW, f.DemandW, dt)
	pool.Battery().Add(f.ChargeDeltaAh)

	f.DistanceM = v * dt.Seconds()
	car.AddDistance(f.DistanceM)
	return f
}

// Charging parks the car and feeds all panel output into the battery.
type Charging struct{}

func NewCharging() *Charging { return &Charging{} }

func (c *Charging) Name() string { return NameCharging }

func (c *Charging) Update(car Car, now time.Time, dt time.Duration) Flow {
	pool := car.Pool()
	pool.Velocity().Set(0)
	f := Flow{SolarW: car.PanelModel().PowerAt(now)}
	f.ChargeDeltaAh = car.BatteryModel().Flow(f.SolarW, 0, dt)
	pool.Battery().Add(f.ChargeDeltaAh)
	return f
}

// StoppedNoCharge parks the car without any energy accounting.
type StoppedNoCharge struct{}

func NewStoppedNoCharge() *StoppedNoCharge { return &StoppedNoCharge{} }

func (s *StoppedNoCharge) Name() string { return NameStopped }

func (s *StoppedNoCharge) Update(car Car, _ time.Time, _ time.Duration) Flow {
	car.Pool().Velocity().Set(0)
	return Flow{}
}
