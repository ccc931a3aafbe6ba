package telemetry

import (
	"context"
	"strings"
	"sync"

	"github.com/kilianp07/solarsim/infra/logger"
	infmqtt "github.com/kilianp07/solarsim/infra/mqtt"
)

// Subscriber is the subscribing side of infra/mqtt.PahoClient.
type Subscriber interface {
	Subscribe(topic, qosKey string, h infmqtt.Handler) error
}

// MQTTSource feeds telemetry payloads received on a topic to an Ingester.
// Each payload is one message; "stop" ends the source and "quit" is ignored
// since there is no connection to close.
type MQTTSource struct {
	sub   Subscriber
	topic string
	ing   *Ingester
	log   logger.Logger

	mu      sync.Mutex
	stopped bool
	done    chan struct{}
	once    sync.Once
}

// NewMQTTSource returns an unstarted source.
func NewMQTTSource(sub Subscriber, topic string, ing *Ingester, log logger.Logger) *MQTTSource {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &MQTTSource{sub: sub, topic: topic, ing: ing, log: log, done: make(chan struct{})}
}

// Start subscribes to the topic. The source stops when ctx is done or a
// "stop" payload arrives.
func (s *MQTTSource) Start(ctx context.Context) error {
	if err := s.sub.Subscribe(s.topic, infmqtt.QoSTelemetry, s.onMessage); err != nil {
		return err
	}
	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.done:
		}
	}()
	return nil
}

// Stop drops every later message and closes Done.
func (s *MQTTSource) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.once.Do(func() { close(s.done) })
}

// Done is closed once the source has stopped.
func (s *MQTTSource) Done() <-chan struct{} { return s.done }

func (s *MQTTSource) onMessage(topic string, payload []byte) {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return
	}
	for _, line := range strings.Split(string(payload), "\n") {
		msg := strings.TrimRight(line, "\r")
		if msg == "" {
			continue
		}
		switch ParseControl(msg) {
		case ControlStop:
			s.log.Infof("stop received on %s", topic)
			s.Stop()
			return
		case ControlQuit:
			continue
		}
		s.ing.Apply("mqtt:"+topic, msg)
	}
}
