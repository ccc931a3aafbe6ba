package mqtt

import (
	"encoding/json"

	coremetrics "github.com/kilianp07/solarsim/core/metrics"
)

// Publisher is the publishing side of PahoClient.
type Publisher interface {
	Publish(topic, qosKey string, payload []byte) error
}

// TickSink publishes every tick as JSON on an MQTT topic.
type TickSink struct {
	pub   Publisher
	topic string
}

// NewTickSink returns a sink publishing on topic.
func NewTickSink(pub Publisher, topic string) *TickSink {
	return &TickSink{pub: pub, topic: topic}
}

type tickPayload struct {
	RunID     string  `json:"run_id"`
	Timestamp int64   `json:"timestamp"`
	Elapsed   float64 `json:"elapsed_s"`
	Behavior  string  `json:"behavior"`
	Velocity  float64 `json:"velocity"`
	Charge    float64 `json:"charge_ah"`
	SolarW    float64 `json:"solar_w"`
	DemandW   float64 `json:"demand_w"`
	Distance  float64 `json:"distance_m"`
	Exhausted bool    `json:"exhausted"`
}

// RecordTick publishes ev.
func (s *TickSink) RecordTick(ev coremetrics.TickEvent) error {
	payload, err := json.Marshal(tickPayload{
		RunID:     ev.RunID,
		Timestamp: ev.Time.UnixMilli(),
		Elapsed:   ev.Elapsed.Seconds(),
		Behavior:  ev.Behavior,
		Velocity:  ev.Velocity,
		Charge:    ev.Charge,
		SolarW:    ev.SolarW,
		DemandW:   ev.DemandW,
		Distance:  ev.Distance,
		Exhausted: ev.Exhausted,
	})
	if err != nil {
		return err
	}
	return s.pub.Publish(s.topic, QoSTick, payload)
}
