package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/solarsim/core/metrics"
)

// PromSink exposes the state of the running simulation as Prometheus metrics.
type PromSink struct {
	ticks       *prometheus.CounterVec
	transitions *prometheus.CounterVec
	telemetry   *prometheus.CounterVec
	charge      prometheus.Gauge
	velocity    prometheus.Gauge
	distance    prometheus.Gauge
	power       *prometheus.GaugeVec
	exhausted   prometheus.Gauge
}

// NewPromSink registers simulation metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sim_ticks_total",
			Help: "Simulation ticks per active behavior",
		}, []string{"behavior"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sim_transitions_total",
			Help: "Behavior transitions",
		}, []string{"from", "to", "reason"}),
		telemetry: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sim_telemetry_messages_total",
			Help: "Telemetry messages per source and outcome",
		}, []string{"source", "outcome"}),
		charge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sim_battery_charge_ah",
			Help: "Battery charge after the latest tick",
		}),
		velocity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sim_velocity_mps",
			Help: "Vehicle velocity after the latest tick",
		}),
		distance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sim_distance_meters",
			Help: "Cumulative distance travelled",
		}),
		power: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sim_power_watts",
			Help: "Power flows of the latest tick",
		}, []string{"flow"}),
		exhausted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sim_battery_exhausted",
			Help: "1 while the battery charge is negative",
		}),
	}

	if err := register(reg, s.ticks, func(c prometheus.Collector) { s.ticks = c.(*prometheus.CounterVec) }); err != nil {
		return nil, err
	}
	if err := register(reg, s.transitions, func(c prometheus.Collector) { s.transitions = c.(*prometheus.CounterVec) }); err != nil {
		return nil, err
	}
	if err := register(reg, s.telemetry, func(c prometheus.Collector) { s.telemetry = c.(*prometheus.CounterVec) }); err != nil {
		return nil, err
	}
	if err := register(reg, s.charge, func(c prometheus.Collector) { s.charge = c.(prometheus.Gauge) }); err != nil {
		return nil, err
	}
	if err := register(reg, s.velocity, func(c prometheus.Collector) { s.velocity = c.(prometheus.Gauge) }); err != nil {
		return nil, err
	}
	if err := register(reg, s.distance, func(c prometheus.Collector) { s.distance = c.(prometheus.Gauge) }); err != nil {
		return nil, err
	}
	if err := register(reg, s.power, func(c prometheus.Collector) { s.power = c.(*prometheus.GaugeVec) }); err != nil {
		return nil, err
	}
	if err := register(reg, s.exhausted, func(c prometheus.Collector) { s.exhausted = c.(prometheus.Gauge) }); err != nil {
		return nil, err
	}
	return s, nil
}

// register adds c to reg, handing an already registered equivalent to reuse.
func register(reg prometheus.Registerer, c prometheus.Collector, reuse func(prometheus.Collector)) error {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			reuse(are.ExistingCollector)
			return nil
		}
		return err
	}
	return nil
}

// RecordTick updates the gauges and counts the tick.
func (s *PromSink) RecordTick(ev coremetrics.TickEvent) error {
	s.ticks.WithLabelValues(ev.Behavior).Inc()
	s.charge.Set(ev.Charge)
	s.velocity.Set(ev.Velocity)
	s.distance.Set(ev.Distance)
	s.power.WithLabelValues("solar").Set(ev.SolarW)
	s.power.WithLabelValues("demand").Set(ev.DemandW)
	if ev.Exhausted {
		s.exhausted.Set(1)
	} else {
		s.exhausted.Set(0)
	}
	return nil
}

// RecordTransition counts behavior changes.
func (s *PromSink) RecordTransition(ev coremetrics.TransitionEvent) error {
	s.transitions.WithLabelValues(ev.From, ev.To, ev.Reason).Inc()
	return nil
}

// RecordTelemetry counts telemetry messages with and without rejected fields.
func (s *PromSink) RecordTelemetry(ev coremetrics.TelemetryEvent) error {
	outcome := "ok"
	if ev.Rejected > 0 {
		outcome = "partial"
		if ev.Accepted == 0 {
			outcome = "rejected"
		}
	}
	s.telemetry.WithLabelValues(ev.Source, outcome).Inc()
	return nil
}
