// Package sim advances a solar vehicle through time. Model applies one
// behavior per tick to its resource pool; Runner drives a Model through a
// schedule of legs.
package sim

import (
	"fmt"
	"time"

	"github.com/kilianp07/solarsim/core/behavior"
	"github.com/kilianp07/solarsim/core/logger"
	"github.com/kilianp07/solarsim/core/physics"
	"github.com/kilianp07/solarsim/core/resource"
)

// DefaultAuxLoad is the draw of lights and electronics in W.
const DefaultAuxLoad = 3.0

// Model is the simulation orchestrator of one vehicle. Step must not be
// called concurrently; the pool may be written by telemetry meanwhile.
type Model struct {
	start    time.Time
	pool     *resource.Pool
	battery  physics.BatteryModel
	motor    physics.MotorModel
	panel    physics.PanelModel
	aux      float64
	mass     float64
	behavior behavior.Behavior
	distance float64
	lastFlow behavior.Flow
	log      logger.Logger

	history int
	charge  float64
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithHistory sets the number of samples each resource keeps.
func WithHistory(capacity int) ModelOption {
	return func(m *Model) { m.history = capacity }
}

// WithInitialCharge sets the starting battery charge in Ah.
func WithInitialCharge(ah float64) ModelOption {
	return func(m *Model) { m.charge = ah }
}

// WithBattery replaces the battery module.
func WithBattery(b physics.BatteryModel) ModelOption {
	return func(m *Model) { m.battery = b }
}

// WithMotor replaces the motor module.
func WithMotor(mm physics.MotorModel) ModelOption {
	return func(m *Model) { m.motor = mm }
}

// WithPanel replaces the solar panel module.
func WithPanel(p physics.PanelModel) ModelOption {
	return func(m *Model) { m.panel = p }
}

// WithAuxLoad sets the constant auxiliary draw in W.
func WithAuxLoad(w float64) ModelOption {
	return func(m *Model) { m.aux = w }
}

// WithLogger sets the logger used for transitions.
func WithLogger(l logger.Logger) ModelOption {
	return func(m *Model) { m.log = l }
}

// NewModel returns a model starting at start in the StoppedNoCharge state.
// The pool is built once every option has been applied.
func NewModel(start time.Time, opts ...ModelOption) *Model {
	motor := physics.DefaultMotor()
	m := &Model{
		start:    start,
		history:  resource.DefaultHistorySize,
		battery:  physics.DefaultBattery(),
		motor:    motor,
		panel:    physics.DefaultPanel(),
		aux:      DefaultAuxLoad,
		behavior: behavior.NewStoppedNoCharge(),
		log:      nopLogger{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.pool = resource.NewPool(m.history)
	m.pool.Battery().Set(m.charge)
	m.mass = motor.MassKg
	if mm, ok := m.motor.(physics.Motor); ok {
		m.mass = mm.MassKg
	}
	return m
}

// Step records the pre-tick state at now - start and then lets the active
// behavior update the pool over dt. A zero dt only records.
func (m *Model) Step(now time.Time, dt time.Duration) error {
	if dt < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeStep, dt)
	}
	if now.Before(m.start) {
		return fmt.Errorf("%w: %s before start %s", ErrTimeRegression, now.Format(time.RFC3339), m.start.Format(time.RFC3339))
	}
	if err := m.pool.Record(m.Elapsed(now).Seconds()); err != nil {
		return err
	}
	if dt == 0 {
		m.lastFlow = behavior.Flow{}
		return nil
	}
	m.lastFlow = m.behavior.Update(m, now, dt)
	return nil
}

// IsOutOfResources reports whether the battery charge is below zero.
func (m *Model) IsOutOfResources() bool {
	return m.pool.Battery().Value() < 0
}

// Transition replaces the active behavior. A nil behavior is ignored.
func (m *Model) Transition(b behavior.Behavior) {
	if b == nil {
		return
	}
	if b.Name() != m.behavior.Name() {
		m.log.Debugf("behavior %s -> %s", m.behavior.Name(), b.Name())
	}
	m.behavior = b
}

// TransitionTo builds a behavior through the factory and activates it. On
// error the active behavior is kept.
func (m *Model) TransitionTo(name string, p behavior.Params) error {
	b, err := behavior.Parse(name, p)
	if err != nil {
		return err
	}
	m.Transition(b)
	return nil
}

// Pool returns the resource pool owned by the model.
func (m *Model) Pool() *resource.Pool { return m.pool }

// Behavior returns the active behavior.
func (m *Model) Behavior() behavior.Behavior { return m.behavior }

// Distance returns the cumulative distance in meters.
func (m *Model) Distance() float64 { return m.distance }

// LastFlow returns the energy accounting of the latest Step.
func (m *Model) LastFlow() behavior.Flow { return m.lastFlow }

// Start returns the start timestamp of the run.
func (m *Model) Start() time.Time { return m.start }

// Elapsed returns now - start.
func (m *Model) Elapsed(now time.Time) time.Duration { return now.Sub(m.start) }

// Mass returns the vehicle mass in kg.
func (m *Model) Mass() float64 { return m.mass }

func (m *Model) BatteryModel() physics.BatteryModel { return m.battery }
func (m *Model) MotorModel() physics.MotorModel     { return m.motor }
func (m *Model) PanelModel() physics.PanelModel     { return m.panel }
func (m *Model) AuxLoad() float64                   { return m.aux }

// AddDistance accumulates meters travelled during a tick.
func (m *Model) AddDistance(meters float64) { m.distance += meters }

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)               {}
func (nopLogger) Debugw(string, map[string]any)       {}
func (nopLogger) Infof(string, ...any)                {}
func (nopLogger) Warnf(string, ...any)                {}
func (nopLogger) Errorf(string, ...any)               {}
func (n nopLogger) With(map[string]any) logger.Logger { return n }
