package telemetry

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/solarsim/core/metrics"
	"github.com/kilianp07/solarsim/core/resource"
	"github.com/kilianp07/solarsim/infra/logger"
)

// Ingester applies parsed telemetry to a resource pool.
type Ingester struct {
	pool     *resource.Pool
	log      logger.Logger
	recorder coremetrics.TelemetryRecorder

	accepted *prometheus.CounterVec
	rejected *prometheus.CounterVec
	last     prometheus.Gauge
}

// IngesterOption configures an Ingester.
type IngesterOption func(*Ingester)

// WithIngestLogger sets the logger for rejected fields.
func WithIngestLogger(l logger.Logger) IngesterOption {
	return func(i *Ingester) { i.log = l }
}

// WithRecorder reports per-message counts to rec.
func WithRecorder(rec coremetrics.TelemetryRecorder) IngesterOption {
	return func(i *Ingester) { i.recorder = rec }
}

// NewIngester returns an ingester writing into pool. Counters are registered
// on reg; a nil reg leaves them unregistered.
func NewIngester(pool *resource.Pool, reg prometheus.Registerer, opts ...IngesterOption) (*Ingester, error) {
	i := &Ingester{
		pool: pool,
		log:  logger.NopLogger{},
		accepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "telemetry_fields_accepted_total",
			Help: "Telemetry fields written to the resource pool",
		}, []string{"key"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "telemetry_fields_rejected_total",
			Help: "Telemetry fields skipped as invalid",
		}, []string{"reason"}),
		last: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "telemetry_last_message_timestamp_seconds",
			Help: "Unix timestamp of the last telemetry message",
		}),
	}
	for _, opt := range opts {
		opt(i)
	}
	if reg != nil {
		if err := reg.Register(i.accepted); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			i.accepted = are.ExistingCollector.(*prometheus.CounterVec)
		}
		if err := reg.Register(i.rejected); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			i.rejected = are.ExistingCollector.(*prometheus.CounterVec)
		}
		if err := reg.Register(i.last); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			i.last = are.ExistingCollector.(prometheus.Gauge)
		}
	}
	return i, nil
}

// Pool returns the pool updates are written to.
func (i *Ingester) Pool() *resource.Pool { return i.pool }

// Apply parses msg and writes every valid field into the pool. Invalid fields
// are logged, counted and returned; they never stop the other fields.
func (i *Ingester) Apply(source, msg string) (int, []error) {
	updates, errs := ParseMessage(msg)
	applied := 0
	for _, u := range updates {
		if err := i.pool.Set(u.Key, float64(u.Value)); err != nil {
			errs = append(errs, err)
			continue
		}
		i.accepted.WithLabelValues(u.Key.String()).Inc()
		applied++
	}
	for _, err := range errs {
		reason := "pool"
		var ife *InvalidFieldError
		if errors.As(err, &ife) {
			reason = ife.Reason
		}
		i.rejected.WithLabelValues(reason).Inc()
		i.log.Warnf("%s: %v", source, err)
	}
	now := time.Now()
	i.last.Set(float64(now.Unix()))
	if i.recorder != nil {
		if err := i.recorder.RecordTelemetry(coremetrics.TelemetryEvent{
			Source: source, Accepted: applied, Rejected: len(errs), Time: now,
		}); err != nil {
			i.log.Errorf("record telemetry: %v", err)
		}
	}
	return applied, errs
}
