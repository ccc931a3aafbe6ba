package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/solarsim/api/pool"
	"github.com/kilianp07/solarsim/api/ticks"
	"github.com/kilianp07/solarsim/config"
	coremetrics "github.com/kilianp07/solarsim/core/metrics"
	"github.com/kilianp07/solarsim/core/runlog"
	"github.com/kilianp07/solarsim/core/sim"
	"github.com/kilianp07/solarsim/infra/logger"
	"github.com/kilianp07/solarsim/infra/metrics"
	"github.com/kilianp07/solarsim/infra/mqtt"
	"github.com/kilianp07/solarsim/infra/telemetry"
	"github.com/kilianp07/solarsim/internal/eventbus"
	"github.com/kilianp07/solarsim/pkg/export"
)

// Service wires a vehicle model to its sinks, run log and telemetry feeds.
type Service struct {
	cfg   *config.Config
	model *sim.Model
	sink  coremetrics.MetricsSink
	store runlog.LogStore
	ing   *telemetry.Ingester
	log   logger.Logger

	gatherer prometheus.Gatherer

	mu       sync.Mutex
	listener *telemetry.Listener
	source   *telemetry.MQTTSource
	client   *mqtt.PahoClient
}

// Option configures a Service.
type Option func(*options)

type options struct {
	reg      prometheus.Registerer
	gatherer prometheus.Gatherer
	sink     coremetrics.MetricsSink
}

// WithRegistry registers the telemetry counters on reg and serves it on
// /metrics instead of the default registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.reg = reg
		o.gatherer = reg
	}
}

// WithSink replaces the sinks named in the metrics configuration.
func WithSink(sink coremetrics.MetricsSink) Option {
	return func(o *options) { o.sink = sink }
}

// New creates a Service from the configuration. Nothing is started.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	o := options{reg: prometheus.DefaultRegisterer, gatherer: prometheus.DefaultGatherer}
	for _, opt := range opts {
		opt(&o)
	}
	if cfg.Logging.Level != "" {
		if err := logger.SetLevel(cfg.Logging.Level); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
	}
	logg := logger.New("service")

	sink := o.sink
	if sink == nil {
		var err error
		sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
		if err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
	}

	model := sim.NewModel(cfg.Sim.StartTime(),
		sim.WithHistory(cfg.Sim.History),
		sim.WithInitialCharge(cfg.Sim.InitialChargeAh),
		sim.WithBattery(cfg.Battery),
		sim.WithMotor(cfg.Motor),
		sim.WithPanel(cfg.Panel),
		sim.WithAuxLoad(cfg.Vehicle.AuxLoad()),
		sim.WithLogger(logger.New("model").With(map[string]any{"vehicle": cfg.Vehicle.Name})),
	)

	ingOpts := []telemetry.IngesterOption{telemetry.WithIngestLogger(logger.New("telemetry"))}
	if rec, ok := sink.(coremetrics.TelemetryRecorder); ok {
		ingOpts = append(ingOpts, telemetry.WithRecorder(rec))
	}
	ing, err := telemetry.NewIngester(model.Pool(), o.reg, ingOpts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry ingester: %w", err)
	}

	store, err := runlog.Open(cfg.Logging.RunLog)
	if err != nil {
		return nil, fmt.Errorf("run log: %w", err)
	}

	return &Service{cfg: cfg, model: model, sink: sink, store: store, ing: ing, log: logg, gatherer: o.gatherer}, nil
}

// Model returns the simulated vehicle.
func (s *Service) Model() *sim.Model { return s.model }

// TelemetryAddr returns the bound listener address, or nil when the
// listener is not running.
func (s *Service) TelemetryAddr() net.Addr {
	s.mu.Lock()
	l := s.listener
	s.mu.Unlock()
	if l == nil {
		return nil
	}
	return l.Addr()
}

// Simulate runs the configured schedule, feeding every tick to the metrics
// sinks and the run log, then writes the configured output files.
func (s *Service) Simulate(ctx context.Context) (sim.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.startPromServer(ctx)
	defer s.stopTelemetry()
	if s.cfg.Telemetry.Enabled {
		if err := s.startListener(ctx); err != nil {
			var sockErr *telemetry.SocketSetupError
			if !errors.As(err, &sockErr) {
				return sim.Report{}, err
			}
			s.log.Errorf("running without telemetry listener: %v", err)
		}
	}
	if err := s.startMQTT(ctx); err != nil {
		return sim.Report{}, err
	}

	bus := eventbus.NewTyped[coremetrics.TickEvent]()
	collected := metrics.StartTickCollector(ctx, bus, s.sink, logger.New("collector"))

	opts := []sim.RunnerOption{
		sim.WithTickBus(bus),
		sim.WithRunnerLogger(logger.New("runner")),
	}
	if s.store != nil {
		opts = append(opts, sim.WithLogStore(s.store))
	}
	if rec, ok := s.sink.(coremetrics.TransitionRecorder); ok {
		opts = append(opts, sim.WithTransitionRecorder(rec))
	}
	if s.cfg.Output.Path(s.cfg.Output.TicksCSV) != "" {
		opts = append(opts, sim.WithRecords())
	}
	runner, err := sim.NewRunner(s.model, s.cfg.Schedule, s.cfg.Sim.Step(), opts...)
	if err != nil {
		bus.Close()
		<-collected
		return sim.Report{}, err
	}
	s.log.Infof("run %s: %d legs over %s", runner.RunID(), len(s.cfg.Schedule), s.cfg.Schedule.Total())

	rep, err := runner.Run(ctx)
	bus.Close()
	<-collected
	if err != nil {
		return rep, err
	}
	if dropped := bus.Dropped(); dropped > 0 {
		s.log.Warnf("run %s: %d tick events dropped", rep.RunID, dropped)
	}
	if err := s.writeOutputs(rep, runner.Records()); err != nil {
		return rep, err
	}
	return rep, nil
}

// Listen runs the telemetry feeds and writes a readout of the pool to out
// every readout interval. It returns when ctx is done or a "stop" message
// ends the feed.
func (s *Service) Listen(ctx context.Context, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.startPromServer(ctx)
	defer s.stopTelemetry()
	if err := s.startListener(ctx); err != nil {
		return err
	}
	if err := s.startMQTT(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	done := s.listener.Done()
	s.mu.Unlock()

	ticker := time.NewTicker(s.cfg.Telemetry.ReadoutInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-done:
			return nil
		case <-ticker.C:
			if err := export.WriteReadout(out, s.model.Pool()); err != nil {
				return err
			}
		}
	}
}

// Routes returns the status API handlers served next to /metrics.
func (s *Service) Routes() map[string]http.Handler {
	p := s.model.Pool()
	routes := map[string]http.Handler{
		"/api/pool":         pool.NewStatusHandler(p),
		"/api/pool/history": pool.NewHistoryHandler(p),
	}
	if s.store != nil {
		routes["/api/ticks"] = ticks.NewHandler(s.store, s.cfg.Metrics.APIToken)
	}
	return routes
}

func (s *Service) startPromServer(ctx context.Context) {
	addr := s.cfg.Metrics.PrometheusAddr
	if addr == "" {
		return
	}
	go func() {
		if err := metrics.StartServer(ctx, addr, s.gatherer, s.Routes()); err != nil {
			s.log.Errorf("prom server: %v", err)
		}
	}()
}

// startListener binds the TCP telemetry listener. A bind failure is
// returned as *telemetry.SocketSetupError and leaves no listener behind.
func (s *Service) startListener(ctx context.Context) error {
	l := telemetry.NewListener(s.cfg.Telemetry.Listener, s.ing, logger.New("listener"))
	if err := l.Start(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
	return nil
}

func (s *Service) startMQTT(ctx context.Context) error {
	if !s.cfg.Telemetry.MQTTEnabled {
		return nil
	}
	client, err := mqtt.NewPahoClient(s.cfg.MQTT, logger.New("mqtt"))
	if err != nil {
		return fmt.Errorf("mqtt client: %w", err)
	}
	src := telemetry.NewMQTTSource(client, s.cfg.MQTT.TelemetryTopic, s.ing, logger.New("mqtt_telemetry"))
	s.mu.Lock()
	s.client = client
	s.source = src
	s.mu.Unlock()
	if err := src.Start(ctx); err != nil {
		return fmt.Errorf("mqtt telemetry: %w", err)
	}
	return nil
}

func (s *Service) stopTelemetry() {
	s.mu.Lock()
	l, src, client := s.listener, s.source, s.client
	s.listener, s.source, s.client = nil, nil, nil
	s.mu.Unlock()
	if l != nil {
		l.Stop()
		<-l.Done()
	}
	if src != nil {
		src.Stop()
	}
	if client != nil {
		client.Disconnect()
	}
}

func (s *Service) writeOutputs(rep sim.Report, recs []runlog.Record) error {
	out := s.cfg.Output
	if out.Dir == "" {
		return nil
	}
	if err := os.MkdirAll(out.Dir, 0o755); err != nil {
		return err
	}
	p := s.model.Pool()
	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{out.HistoryCSV, func(w io.Writer) error { return export.WriteCSV(w, p) }},
		{out.HistoryJSON, func(w io.Writer) error { return export.WriteJSON(w, p) }},
		{out.TicksCSV, func(w io.Writer) error { return export.WriteTicks(w, recs) }},
		{out.Report, func(w io.Writer) error { return yaml.NewEncoder(w).Encode(rep) }},
		{out.EffectiveConfig, s.cfg.WriteYAML},
	}
	for _, f := range files {
		path := out.Path(f.name)
		if path == "" {
			continue
		}
		if err := writeFile(path, f.write); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		s.log.Debugf("wrote %s", path)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Close releases the run log, the metrics sinks and any telemetry feed.
func (s *Service) Close() error {
	s.stopTelemetry()
	var errs []error
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	return errors.Join(errs...)
}
