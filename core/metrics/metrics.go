package metrics

import "time"

// TickEvent describes the state of a run after one simulation step.
type TickEvent struct {
	RunID    string
	Time     time.Time
	Elapsed  time.Duration
	Behavior string
	Leg      int

	Velocity      float64 // m/s
	Charge        float64 // Ah
	SolarW        float64
	DemandW       float64
	ChargeDeltaAh float64
	Distance      float64 // m, cumulative
	Exhausted     bool
}

// MetricsSink records simulation ticks for observability purposes.
type MetricsSink interface {
	RecordTick(ev TickEvent) error
}

// TransitionEvent captures a change of the active behavior.
type TransitionEvent struct {
	RunID  string
	From   string
	To     string
	Reason string
	Time   time.Time
}

// TransitionRecorder records behavior transitions.
type TransitionRecorder interface {
	RecordTransition(ev TransitionEvent) error
}

// TelemetryEvent counts the fields of one telemetry message.
type TelemetryEvent struct {
	Source   string
	Accepted int
	Rejected int
	Time     time.Time
}

// TelemetryRecorder records telemetry ingestion results.
type TelemetryRecorder interface {
	RecordTelemetry(ev TelemetryEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordTick(TickEvent) error             { return nil }
func (NopSink) RecordTransition(TransitionEvent) error { return nil }
func (NopSink) RecordTelemetry(TelemetryEvent) error   { return nil }
