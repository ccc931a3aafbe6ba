package telemetry

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/kilianp07/solarsim/infra/logger"
)

// DefaultAddr is where the vehicle link connects by default.
const DefaultAddr = "localhost:13000"

// ListenerConfig configures the TCP telemetry listener.
type ListenerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
	// IdleTimeout closes a connection that sends nothing for this long.
	// Zero disables it.
	IdleTimeout time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
	// MaxLineBytes bounds one message.
	MaxLineBytes int `json:"max_line_bytes" yaml:"max_line_bytes"`
}

// SetDefaults fills unset fields.
func (c *ListenerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.MaxLineBytes <= 0 {
		c.MaxLineBytes = 4096
	}
}

// Listener accepts one vehicle connection at a time and feeds its
// newline-delimited messages to an Ingester. "quit" closes the connection
// and waits for the next one; "stop" shuts the listener down.
type Listener struct {
	cfg ListenerConfig
	ing *Ingester
	log logger.Logger

	mu     sync.Mutex
	ln     net.Listener
	conn   net.Conn
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewListener returns an unstarted listener.
func NewListener(cfg ListenerConfig, ing *Ingester, log logger.Logger) *Listener {
	cfg.SetDefaults()
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Listener{cfg: cfg, ing: ing, log: log, done: make(chan struct{})}
}

// Start binds the address and serves connections in the background until
// ctx is done, Stop is called or a client sends "stop". A bind failure is
// returned as *SocketSetupError.
func (l *Listener) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.cfg.Addr)
	if err != nil {
		return &SocketSetupError{Addr: l.cfg.Addr, Err: err}
	}
	ctx, cancel := context.WithCancel(ctx)
	l.mu.Lock()
	l.ln = ln
	l.cancel = cancel
	l.mu.Unlock()
	l.log.Infof("telemetry listening on %s", ln.Addr())

	go func() {
		<-ctx.Done()
		l.shutdown()
	}()
	go l.serve(ctx)
	return nil
}

// Addr returns the bound address, or nil before Start.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// Stop terminates the listener and the active connection.
func (l *Listener) Stop() {
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()
	if cancel != nil {
		cancel()
		return
	}
	// never started
	l.once.Do(func() { close(l.done) })
}

// Done is closed once the listener has stopped.
func (l *Listener) Done() <-chan struct{} { return l.done }

func (l *Listener) shutdown() {
	l.mu.Lock()
	if l.ln != nil {
		_ = l.ln.Close()
	}
	if l.conn != nil {
		_ = l.conn.Close()
	}
	l.mu.Unlock()
}

func (l *Listener) serve(ctx context.Context) {
	defer l.once.Do(func() { close(l.done) })
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
				l.log.Errorf("accept: %v", err)
			}
			return
		}
		l.mu.Lock()
		l.conn = conn
		l.mu.Unlock()
		l.log.Infof("connected with %s", conn.RemoteAddr())

		ctrl := l.handle(ctx, conn)
		_ = conn.Close()
		l.mu.Lock()
		l.conn = nil
		l.mu.Unlock()

		switch ctrl {
		case ControlStop:
			l.log.Infof("stop received, telemetry listener stopped")
			l.Stop()
			return
		case ControlQuit:
			l.log.Infof("disconnected %s, waiting for next connection", conn.RemoteAddr())
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (l *Listener) handle(ctx context.Context, conn net.Conn) Control {
	source := conn.RemoteAddr().String()
	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 512), l.cfg.MaxLineBytes)
	for {
		if l.cfg.IdleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(l.cfg.IdleTimeout))
		}
		if !sc.Scan() {
			if err := sc.Err(); err != nil && ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
				l.log.Warnf("%s: read: %v", source, err)
			}
			return ControlNone
		}
		msg := strings.TrimRight(sc.Text(), "\r")
		if msg == "" {
			continue
		}
		if ctrl := ParseControl(msg); ctrl != ControlNone {
			return ctrl
		}
		l.ing.Apply(source, msg)
	}
}
