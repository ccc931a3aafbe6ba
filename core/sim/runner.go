package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/solarsim/core/behavior"
	"github.com/kilianp07/solarsim/core/logger"
	"github.com/kilianp07/solarsim/core/metrics"
	"github.com/kilianp07/solarsim/core/runlog"
	"github.com/kilianp07/solarsim/internal/eventbus"
)

// Transition reasons reported to metrics.
const (
	ReasonSchedule   = "schedule"
	ReasonExhausted  = "exhausted"
	ReasonStillEmpty = "still_exhausted"
)

// Runner advances a Model through a Schedule in fixed steps.
type Runner struct {
	model     *Model
	schedule  Schedule
	behaviors []behavior.Behavior
	step      time.Duration

	runID       string
	bus         *eventbus.TypedBus[metrics.TickEvent]
	store       runlog.LogStore
	transitions metrics.TransitionRecorder
	log         logger.Logger
	keep        bool
	records     []runlog.Record
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunID overrides the generated run id.
func WithRunID(id string) RunnerOption {
	return func(r *Runner) { r.runID = id }
}

// WithTickBus publishes a TickEvent on bus after every tick.
func WithTickBus(bus *eventbus.TypedBus[metrics.TickEvent]) RunnerOption {
	return func(r *Runner) { r.bus = bus }
}

// WithLogStore appends a runlog.Record to store after every tick.
func WithLogStore(store runlog.LogStore) RunnerOption {
	return func(r *Runner) { r.store = store }
}

// WithTransitionRecorder reports every behavior change to rec.
func WithTransitionRecorder(rec metrics.TransitionRecorder) RunnerOption {
	return func(r *Runner) { r.transitions = rec }
}

// WithRunnerLogger sets the logger of the runner.
func WithRunnerLogger(l logger.Logger) RunnerOption {
	return func(r *Runner) { r.log = l }
}

// WithRecords keeps every tick record in memory, see Records.
func WithRecords() RunnerOption {
	return func(r *Runner) { r.keep = true }
}

// NewRunner validates the schedule and returns a runner for m.
func NewRunner(m *Model, s Schedule, step time.Duration, opts ...RunnerOption) (*Runner, error) {
	if step <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStep, step)
	}
	if len(s) == 0 {
		return nil, ErrEmptySchedule
	}
	bs, err := s.Build()
	if err != nil {
		return nil, err
	}
	r := &Runner{
		model:     m,
		schedule:  s,
		behaviors: bs,
		step:      step,
		runID:     uuid.NewString(),
		log:       nopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// RunID returns the identifier attached to every tick of the run.
func (r *Runner) RunID() string { return r.runID }

// Records returns the tick records kept with WithRecords.
func (r *Runner) Records() []runlog.Record { return r.records }

// Run executes every leg from the model start time. When the battery runs
// out while driving the vehicle is forced to the inactive behavior. Later
// driving legs start only once the charge is non-negative again; charging
// and inactive legs always start. A cancelled ctx stops the run and returns
// ctx.Err() together with the partial report.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	m := r.model
	now := m.Start()
	rep := Report{RunID: r.runID, Start: now}
	var ser series
	stopped := behavior.NewStoppedNoCharge()

	finish := func(err error) (Report, error) {
		rep.End = now
		rep.Distance = m.Distance()
		rep.FinalCharge = m.Pool().Battery().Value()
		rep.ChargeWindow = m.Pool().Battery().Stats()
		ser.fill(&rep)
		return rep, err
	}

	for i, leg := range r.schedule {
		if b := r.behaviors[i]; m.IsOutOfResources() && drains(b) {
			r.log.Warnf("leg %d (%s) skipped: battery at %.3f Ah", i, leg.Behavior, m.Pool().Battery().Value())
			r.transition(now, stopped, ReasonStillEmpty)
		} else {
			r.transition(now, b, ReasonSchedule)
		}

		end := now.Add(leg.Duration)
		for now.Before(end) {
			if err := ctx.Err(); err != nil {
				return finish(err)
			}
			dt := r.step
			if rem := end.Sub(now); rem < dt {
				dt = rem
			}
			if err := m.Step(now, dt); err != nil {
				return finish(fmt.Errorf("tick at %s: %w", m.Elapsed(now), err))
			}
			now = now.Add(dt)
			rep.Ticks++

			exhausted := m.IsOutOfResources()
			if exhausted && drains(m.Behavior()) {
				r.log.Warnf("battery exhausted after %s (%.3f Ah), stopping", m.Elapsed(now), m.Pool().Battery().Value())
				r.transition(now, stopped, ReasonExhausted)
				if !rep.Exhausted {
					rep.ExhaustedAt = m.Elapsed(now)
				}
				rep.Exhausted = true
			}

			ev := r.tick(now, i, exhausted)
			ser.add(ev.Velocity, ev.Charge)
			if err := r.emit(ctx, ev); err != nil {
				return finish(err)
			}
		}
	}

	// Final zero-length tick so the history ends on the post-run state.
	if err := m.Step(now, 0); err != nil {
		return finish(err)
	}
	r.log.Infof("run %s finished: %d ticks, %.0f m, %.3f Ah", r.runID, rep.Ticks, m.Distance(), m.Pool().Battery().Value())
	return finish(nil)
}

// drains reports whether b draws from the battery.
func drains(b behavior.Behavior) bool {
	_, ok := b.(*behavior.Driving)
	return ok
}

func (r *Runner) transition(now time.Time, b behavior.Behavior, reason string) {
	from := r.model.Behavior().Name()
	r.model.Transition(b)
	if from == b.Name() || r.transitions == nil {
		return
	}
	if err := r.transitions.RecordTransition(metrics.TransitionEvent{
		RunID: r.runID, From: from, To: b.Name(), Reason: reason, Time: now,
	}); err != nil {
		r.log.Errorf("record transition: %v", err)
	}
}

func (r *Runner) tick(now time.Time, leg int, exhausted bool) metrics.TickEvent {
	m := r.model
	f := m.LastFlow()
	return metrics.TickEvent{
		RunID:         r.runID,
		Time:          now,
		Elapsed:       m.Elapsed(now),
		Behavior:      m.Behavior().Name(),
		Leg:           leg,
		Velocity:      m.Pool().Velocity().Value(),
		Charge:        m.Pool().Battery().Value(),
		SolarW:        f.SolarW,
		DemandW:       f.DemandW,
		ChargeDeltaAh: f.ChargeDeltaAh,
		Distance:      m.Distance(),
		Exhausted:     exhausted,
	}
}

func (r *Runner) emit(ctx context.Context, ev metrics.TickEvent) error {
	if r.bus != nil {
		if err := r.bus.PublishWait(ctx, ev); err != nil {
			return err
		}
	}
	if r.store == nil && !r.keep {
		return nil
	}
	rec := RecordFromTick(ev)
	if r.keep {
		r.records = append(r.records, rec)
	}
	if r.store != nil {
		if err := r.store.Append(ctx, rec); err != nil {
			return fmt.Errorf("append runlog: %w", err)
		}
	}
	return nil
}

// RecordFromTick converts a tick event into its persisted form.
func RecordFromTick(ev metrics.TickEvent) runlog.Record {
	return runlog.Record{
		RunID:     ev.RunID,
		Timestamp: ev.Time,
		Elapsed:   ev.Elapsed.Seconds(),
		Leg:       ev.Leg,
		Behavior:  ev.Behavior,
		Velocity:  ev.Velocity,
		Charge:    ev.Charge,
		SolarW:    ev.SolarW,
		DemandW:   ev.DemandW,
		Distance:  ev.Distance,
		Exhausted: ev.Exhausted,
	}
}
