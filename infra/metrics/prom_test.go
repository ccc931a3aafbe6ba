package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/kilianp07/solarsim/core/metrics"
)

func newTestPromSink(t *testing.T, reg prometheus.Registerer) *PromSink {
	t.Helper()
	sinkIf, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	sink, ok := sinkIf.(*PromSink)
	if !ok {
		t.Fatalf("expected PromSink")
	}
	return sink
}

func TestPromSink_RecordTick(t *testing.T) {
	sink := newTestPromSink(t, prometheus.NewRegistry())
	ev := coremetrics.TickEvent{Behavior: "driving", Velocity: 20, Charge: 42.5, Distance: 1200, SolarW: 700, DemandW: 900, Time: time.Now()}
	for i := 0; i < 3; i++ {
		if err := sink.RecordTick(ev); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	expected := `
# HELP sim_ticks_total Simulation ticks per active behavior
# TYPE sim_ticks_total counter
sim_ticks_total{behavior="driving"} 3
`
	if err := testutil.CollectAndCompare(sink.ticks, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	if v := testutil.ToFloat64(sink.charge); v != 42.5 {
		t.Errorf("charge gauge %v", v)
	}
	if v := testutil.ToFloat64(sink.power.WithLabelValues("demand")); v != 900 {
		t.Errorf("demand gauge %v", v)
	}
	if v := testutil.ToFloat64(sink.exhausted); v != 0 {
		t.Errorf("exhausted gauge %v", v)
	}

	ev.Exhausted = true
	_ = sink.RecordTick(ev)
	if v := testutil.ToFloat64(sink.exhausted); v != 1 {
		t.Errorf("exhausted gauge %v", v)
	}
}

func TestPromSink_TransitionsAndTelemetry(t *testing.T) {
	sink := newTestPromSink(t, prometheus.NewRegistry())
	_ = sink.RecordTransition(coremetrics.TransitionEvent{From: "driving", To: "nochargestop", Reason: "exhausted"})
	_ = sink.RecordTelemetry(coremetrics.TelemetryEvent{Source: "tcp", Accepted: 2, Rejected: 1})
	_ = sink.RecordTelemetry(coremetrics.TelemetryEvent{Source: "tcp", Accepted: 0, Rejected: 1})
	_ = sink.RecordTelemetry(coremetrics.TelemetryEvent{Source: "tcp", Accepted: 1})

	if v := testutil.ToFloat64(sink.transitions.WithLabelValues("driving", "nochargestop", "exhausted")); v != 1 {
		t.Errorf("transition counter %v", v)
	}
	for _, outcome := range []string{"ok", "partial", "rejected"} {
		if v := testutil.ToFloat64(sink.telemetry.WithLabelValues("tcp", outcome)); v != 1 {
			t.Errorf("telemetry %s counter %v", outcome, v)
		}
	}
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := newTestPromSink(t, reg)
	b := newTestPromSink(t, reg)
	_ = a.RecordTick(coremetrics.TickEvent{Behavior: "chargestop"})
	_ = b.RecordTick(coremetrics.TickEvent{Behavior: "chargestop"})
	if v := testutil.ToFloat64(b.ticks.WithLabelValues("chargestop")); v != 2 {
		t.Errorf("expected shared counter, got %v", v)
	}
}
