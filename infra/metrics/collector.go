package metrics

import (
	"context"

	coremetrics "github.com/kilianp07/solarsim/core/metrics"
	"github.com/kilianp07/solarsim/infra/logger"
	"github.com/kilianp07/solarsim/internal/eventbus"
)

// StartTickCollector subscribes to the tick bus and records every event in
// sink. It stops when the context is canceled or the bus is closed; the
// returned channel is closed once the collector has exited.
func StartTickCollector(ctx context.Context, bus *eventbus.TypedBus[coremetrics.TickEvent], sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := sink.RecordTick(ev); err != nil {
					log.Errorf("record tick %s: %v", ev.Elapsed, err)
				}
			}
		}
	}()
	return done
}
