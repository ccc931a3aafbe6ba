package metrics

// Package metrics defines the sink contracts used to observe simulation runs.
// Every tick of a run is described by a TickEvent; sinks such as PromSink and
// InfluxSink (see infra/metrics) record them and can be combined with
// NewMultiSink. The factory helpers return a MultiSink automatically when
// multiple sinks are configured.
