package app

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/solarsim/config"
	coremetrics "github.com/kilianp07/solarsim/core/metrics"
	"github.com/kilianp07/solarsim/core/resource"
	"github.com/kilianp07/solarsim/core/runlog"
	"github.com/kilianp07/solarsim/core/sim"
	"github.com/kilianp07/solarsim/infra/telemetry"
)

type recordingSink struct {
	mu          sync.Mutex
	ticks       []coremetrics.TickEvent
	transitions []coremetrics.TransitionEvent
	telemetry   []coremetrics.TelemetryEvent
}

func (r *recordingSink) RecordTick(e coremetrics.TickEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, e)
	return nil
}

func (r *recordingSink) RecordTransition(e coremetrics.TransitionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, e)
	return nil
}

func (r *recordingSink) RecordTelemetry(e coremetrics.TelemetryEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.telemetry = append(r.telemetry, e)
	return nil
}

func (r *recordingSink) telemetryCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.telemetry)
}

func simConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Sim.InitialChargeAh = 20
	cfg.Schedule = sim.Schedule{
		{Behavior: "driving", Conf: map[string]any{"target_velocity": 10.0}, Duration: 30 * time.Minute},
		{Behavior: "charging", Duration: 30 * time.Minute},
	}
	cfg.Output = config.OutputConfig{Dir: filepath.Join(dir, "out")}
	cfg.Output.SetDefaults()
	cfg.Logging.RunLog = runlog.Config{Backend: runlog.BackendJSONL, Path: filepath.Join(dir, "ticks.jsonl")}
	cfg.Telemetry.Listener.Addr = "127.0.0.1:0"
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestSimulateWritesOutputs(t *testing.T) {
	cfg := simConfig(t)
	rec := &recordingSink{}
	svc, err := New(cfg, WithRegistry(prometheus.NewRegistry()), WithSink(rec))
	require.NoError(t, err)

	rep, err := svc.Simulate(context.Background())
	require.NoError(t, err)
	require.NoError(t, svc.Close())

	assert.Equal(t, 60, rep.Ticks)
	assert.False(t, rep.Exhausted)
	assert.InDelta(t, 18000.0, rep.Distance, 1e-6)
	assert.Less(t, rep.FinalCharge, 20.0)

	require.Len(t, rec.ticks, 60)
	assert.Equal(t, "driving", rec.ticks[0].Behavior)
	assert.Equal(t, "chargestop", rec.ticks[59].Behavior)
	require.Len(t, rec.transitions, 2)
	assert.Equal(t, "nochargestop", rec.transitions[0].From)
	assert.Equal(t, "chargestop", rec.transitions[1].To)

	for _, name := range []string{"history.csv", "history.json", "ticks.csv", "report.yaml", "config.effective.yaml"} {
		_, err := os.Stat(filepath.Join(cfg.Output.Dir, name))
		assert.NoError(t, err, name)
	}

	ticks, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "ticks.csv"))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(ticks)), "\n"), 61)

	logged, err := os.ReadFile(cfg.Logging.RunLog.Path)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(logged)), "\n"), 60)

	report, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "report.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(report), "run_id: "+rep.RunID)

	_, err = config.Load(filepath.Join(cfg.Output.Dir, "config.effective.yaml"))
	assert.NoError(t, err)
}

func TestSimulateCancelled(t *testing.T) {
	cfg := simConfig(t)
	svc, err := New(cfg, WithRegistry(prometheus.NewRegistry()), WithSink(coremetrics.NopSink{}))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := svc.Simulate(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, rep.Ticks)
	_, err = os.Stat(filepath.Join(cfg.Output.Dir, "report.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestSimulateRunsWhenTelemetryPortBusy(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = busy.Close() }()

	cfg := simConfig(t)
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.Listener.Addr = busy.Addr().String()
	rec := &recordingSink{}
	svc, err := New(cfg, WithRegistry(prometheus.NewRegistry()), WithSink(rec))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	rep, err := svc.Simulate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 60, rep.Ticks)
	assert.Len(t, rec.ticks, 60)
	assert.Nil(t, svc.TelemetryAddr())
}

func TestListenFailsWhenPortBusy(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = busy.Close() }()

	cfg := simConfig(t)
	cfg.Telemetry.Listener.Addr = busy.Addr().String()
	svc, err := New(cfg, WithRegistry(prometheus.NewRegistry()), WithSink(coremetrics.NopSink{}))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	err = svc.Listen(context.Background(), io.Discard)
	var sockErr *telemetry.SocketSetupError
	assert.ErrorAs(t, err, &sockErr)
}

func TestListenAppliesTelemetry(t *testing.T) {
	cfg := simConfig(t)
	cfg.Telemetry.ReadoutIntervalSeconds = 1
	rec := &recordingSink{}
	svc, err := New(cfg, WithRegistry(prometheus.NewRegistry()), WithSink(rec))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	errc := make(chan error, 1)
	go func() { errc <- svc.Listen(context.Background(), io.Discard) }()

	var addr net.Addr
	require.Eventually(t, func() bool {
		addr = svc.TelemetryAddr()
		return addr != nil
	}, 2*time.Second, 10*time.Millisecond)

	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	w := bufio.NewWriter(conn)
	_, err = fmt.Fprint(w, "cabintemp:31;bat volt:97;bogus:1\n")
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	pool := svc.Model().Pool()
	require.Eventually(t, func() bool {
		return pool.Get(resource.CabinTemp).Value() == 31 && pool.Get(resource.BatteryVolt).Value() == 97
	}, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return rec.telemetryCount() == 1 }, time.Second, 10*time.Millisecond)

	_, err = fmt.Fprint(w, "stop\n")
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("listen did not return after stop")
	}
}

func TestListenCancelled(t *testing.T) {
	cfg := simConfig(t)
	svc, err := New(cfg, WithRegistry(prometheus.NewRegistry()), WithSink(coremetrics.NopSink{}))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.NoError(t, svc.Listen(ctx, io.Discard))
}

func TestNewInvalidRunLog(t *testing.T) {
	cfg := simConfig(t)
	cfg.Logging.RunLog = runlog.Config{Backend: "csv", Path: "x"}
	_, err := New(cfg, WithRegistry(prometheus.NewRegistry()))
	assert.Error(t, err)
}

func TestRoutes(t *testing.T) {
	cfg := simConfig(t)
	cfg.Metrics.APIToken = "t0ken"
	svc, err := New(cfg, WithRegistry(prometheus.NewRegistry()), WithSink(coremetrics.NopSink{}))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()
	_, err = svc.Simulate(context.Background())
	require.NoError(t, err)

	routes := svc.Routes()
	require.Contains(t, routes, "/api/pool")
	require.Contains(t, routes, "/api/pool/history")
	require.Contains(t, routes, "/api/ticks")

	rr := httptest.NewRecorder()
	routes["/api/pool"].ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/pool", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"battery charge"`)

	req := httptest.NewRequest(http.MethodGet, "/api/ticks?behavior=driving", nil)
	req.Header.Set("Authorization", "Bearer t0ken")
	rr = httptest.NewRecorder()
	routes["/api/ticks"].ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	var recs []runlog.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &recs))
	assert.Len(t, recs, 30)
}
