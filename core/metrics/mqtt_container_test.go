//go:build !no_containers

package metrics_test

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/kilianp07/solarsim/core/factory"
	metrics "github.com/kilianp07/solarsim/core/metrics"
	"github.com/kilianp07/solarsim/test/util"
)

// TestMQTTSinkFromConfig builds an mqtt tick sink from config and counts the
// ticks it publishes on the broker.
func TestMQTTSinkFromConfig(t *testing.T) {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed")
	}
	broker, cleanup, err := util.StartMosquitto(context.Background())
	if err != nil {
		t.Skipf("mosquitto: %v", err)
	}
	defer cleanup()

	counter, err := util.CountTopic(broker, "car/ticks")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer counter.Close()

	s, err := metrics.NewMetricsSink([]factory.ModuleConfig{{
		Type: "mqtt",
		Conf: map[string]any{"broker": broker, "client_id": "sink-test", "tick_topic": "car/ticks"},
	}})
	if err != nil {
		t.Fatalf("create mqtt sink: %v", err)
	}
	for i := 0; i < 3; i++ {
		ev := metrics.TickEvent{RunID: "mqtt", Time: time.Unix(int64(60*i), 0), Elapsed: time.Duration(i) * time.Minute, Behavior: "driving"}
		if err := s.RecordTick(ev); err != nil {
			t.Fatalf("record tick %d: %v", i, err)
		}
	}

	deadline := time.Now().Add(10 * time.Second)
	for counter.Count() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 3 ticks on broker, got %d", counter.Count())
		}
		time.Sleep(50 * time.Millisecond)
	}
}
