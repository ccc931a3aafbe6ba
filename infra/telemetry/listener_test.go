package telemetry

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/solarsim/core/resource"
	"github.com/kilianp07/solarsim/infra/logger"
)

func startListener(t *testing.T, ctx context.Context) (*Listener, *resource.Pool) {
	t.Helper()
	ing, pool := newTestIngester(t)
	l := NewListener(ListenerConfig{Addr: "127.0.0.1:0"}, ing, logger.NopLogger{})
	require.NoError(t, l.Start(ctx))
	t.Cleanup(l.Stop)
	return l, pool
}

func dial(t *testing.T, l *Listener) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn net.Conn, msg string) {
	t.Helper()
	_, err := fmt.Fprintf(conn, "%s\r\n", msg)
	require.NoError(t, err)
}

func TestListenerAppliesMessages(t *testing.T) {
	l, pool := startListener(t, context.Background())
	conn := dial(t, l)
	send(t, conn, "cabintemp:42;motor rpm:bogus;bat volt:58")

	require.Eventually(t, func() bool {
		return pool.Get(resource.BatteryVolt).Value() == 58
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 42.0, pool.Get(resource.CabinTemp).Value())
	assert.Equal(t, 0.0, pool.Get(resource.MotorRPM).Value())
}

func TestListenerQuitKeepsListening(t *testing.T) {
	l, pool := startListener(t, context.Background())
	first := dial(t, l)
	send(t, first, "quit")

	_ = first.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err := bufio.NewReader(first).ReadByte()
	assert.ErrorIs(t, err, io.EOF)

	second := dial(t, l)
	send(t, second, "motortemp:65")
	require.Eventually(t, func() bool {
		return pool.Get(resource.MotorTemp).Value() == 65
	}, 2*time.Second, 10*time.Millisecond)

	select {
	case <-l.Done():
		t.Fatal("listener stopped after quit")
	default:
	}
}

func TestListenerStop(t *testing.T) {
	l, _ := startListener(t, context.Background())
	conn := dial(t, l)
	send(t, conn, "stop")

	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}
	_, err := net.DialTimeout("tcp", l.Addr().String(), 200*time.Millisecond)
	assert.Error(t, err)
}

func TestListenerContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l, _ := startListener(t, ctx)
	_ = dial(t, l)
	cancel()
	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop on cancel")
	}
}

func TestListenerBindFailure(t *testing.T) {
	l, _ := startListener(t, context.Background())
	ing, _ := newTestIngester(t)
	other := NewListener(ListenerConfig{Addr: l.Addr().String()}, ing, nil)
	err := other.Start(context.Background())
	require.Error(t, err)
	var se *SocketSetupError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, l.Addr().String(), se.Addr)
}

func TestListenerStopBeforeStart(t *testing.T) {
	ing, _ := newTestIngester(t)
	l := NewListener(ListenerConfig{}, ing, nil)
	assert.Nil(t, l.Addr())
	l.Stop()
	select {
	case <-l.Done():
	default:
		t.Fatal("done not closed")
	}
}

func TestListenerConfigDefaults(t *testing.T) {
	var c ListenerConfig
	c.SetDefaults()
	assert.Equal(t, DefaultAddr, c.Addr)
	assert.Equal(t, 4096, c.MaxLineBytes)
}
