package scenarios

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/solarsim/core/metrics"
	"github.com/kilianp07/solarsim/core/resource"
	"github.com/kilianp07/solarsim/core/sim"
	"github.com/kilianp07/solarsim/infra/logger"
	"github.com/kilianp07/solarsim/infra/metrics"
	"github.com/kilianp07/solarsim/infra/telemetry"
	"github.com/kilianp07/solarsim/internal/eventbus"
)

//nolint:gocyclo
func RunScenario(t *testing.T, sc *Scenario) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	start, _ := time.Parse(time.RFC3339, sc.Start)
	model := sim.NewModel(start, sim.WithInitialCharge(sc.InitialChargeAh))

	ing, err := telemetry.NewIngester(model.Pool(), reg)
	if err != nil {
		t.Fatalf("ingester: %v", err)
	}
	for _, msg := range sc.Telemetry {
		if _, errs := ing.Apply("scenario", msg); len(errs) > 0 {
			t.Fatalf("scenario %s telemetry %q: %v", sc.Name, msg, errs)
		}
	}

	ctx := context.Background()
	bus := eventbus.NewTyped[coremetrics.TickEvent]()
	done := metrics.StartTickCollector(ctx, bus, sink, logger.NopLogger{})

	transitions := &countingRecorder{next: sink.(coremetrics.TransitionRecorder)}
	runner, err := sim.NewRunner(model, sc.Schedule(), time.Duration(sc.StepSeconds)*time.Second,
		sim.WithTickBus(bus),
		sim.WithTransitionRecorder(transitions),
	)
	if err != nil {
		t.Fatalf("runner: %v", err)
	}
	rep, err := runner.Run(ctx)
	bus.Close()
	<-done
	if err != nil {
		t.Fatalf("scenario %s run: %v", sc.Name, err)
	}

	exp := sc.Expected
	if rep.Ticks != exp.Ticks {
		t.Errorf("scenario %s expected %d ticks, got %d", sc.Name, exp.Ticks, rep.Ticks)
	}
	if got := counterSum(t, reg, "sim_ticks_total"); int(got) != rep.Ticks {
		t.Errorf("scenario %s exported %v ticks, report has %d", sc.Name, got, rep.Ticks)
	}
	if rep.Exhausted != exp.Exhausted {
		t.Errorf("scenario %s expected exhausted=%v", sc.Name, exp.Exhausted)
	}
	if exp.ExhaustedAt != "" {
		want, err := time.ParseDuration(exp.ExhaustedAt)
		if err != nil {
			t.Fatalf("exhausted_at: %v", err)
		}
		if rep.ExhaustedAt != want {
			t.Errorf("scenario %s expected exhaustion at %s, got %s", sc.Name, want, rep.ExhaustedAt)
		}
	}
	if exp.DistanceM != nil && !near(rep.Distance, *exp.DistanceM) {
		t.Errorf("scenario %s expected %.1f m, got %.1f m", sc.Name, *exp.DistanceM, rep.Distance)
	}
	if transitions.n != exp.Transitions {
		t.Errorf("scenario %s expected %d transitions, got %d", sc.Name, exp.Transitions, transitions.n)
	}
	snap := model.Pool().Snapshot()
	for id, want := range exp.Resources {
		if _, err := resource.ParseKey(id); err != nil {
			t.Fatalf("scenario %s: %v", sc.Name, err)
		}
		if !near(snap[id], want) {
			t.Errorf("scenario %s expected %s=%v, got %v", sc.Name, id, want, snap[id])
		}
	}
}

type countingRecorder struct {
	next coremetrics.TransitionRecorder
	n    int
}

func (c *countingRecorder) RecordTransition(ev coremetrics.TransitionEvent) error {
	c.n++
	return c.next.RecordTransition(ev)
}

func counterSum(t *testing.T, g prometheus.Gatherer, name string) float64 {
	t.Helper()
	mfs, err := g.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var sum float64
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			sum += m.GetCounter().GetValue()
		}
	}
	return sum
}

func near(a, b float64) bool {
	d := a - b
	return d < 1e-6 && d > -1e-6
}
