package live

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/ranchkit/notify"
	"github.com/kbukum/ranchkit/session"
)

// fakeConn is an in-memory Conn. The test side pushes inbound frames and
// inspects what the manager wrote.
type fakeConn struct {
	inbound chan []byte
	done    chan struct{}

	mu       sync.Mutex
	written  [][]byte
	closed   bool
	closeErr error
}

func newFakeConn() *fakeConn {
	return &fakeConn{inbound: make(chan []byte, 16), done: make(chan struct{})}
}

func (c *fakeConn) Read() ([]byte, error) {
	select {
	case frame := <-c.inbound:
		return frame, nil
	case <-c.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closeErr != nil {
			return nil, c.closeErr
		}
		return nil, io.EOF
	}
}

func (c *fakeConn) Write(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("write on closed conn")
	}
	c.written = append(c.written, append([]byte(nil), frame...))
	return nil
}

func (c *fakeConn) Close() error {
	c.shutdown(nil)
	return nil
}

// fail ends the connection abnormally.
func (c *fakeConn) fail(err error) { c.shutdown(err) }

func (c *fakeConn) shutdown(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.closeErr = err
	close(c.done)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) push(t *testing.T, v any) {
	t.Helper()
	frame, ok := v.([]byte)
	if !ok {
		var err error
		if frame, err = json.Marshal(v); err != nil {
			t.Fatalf("marshal inbound: %v", err)
		}
	}
	c.inbound <- frame
}

// types returns the type of every written frame.
func (c *fakeConn) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.written))
	for _, f := range c.written {
		var head struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal(f, &head)
		out = append(out, head.Type)
	}
	return out
}

func (c *fakeConn) frames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.written...)
}

// fakeDialer hands out scripted results in order. Once the script runs out
// it keeps failing.
type fakeDialer struct {
	mu     sync.Mutex
	script []dialResult
	calls  int
}

type dialResult struct {
	conn *fakeConn
	err  error
}

func (d *fakeDialer) Dial(_ context.Context, _ string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if len(d.script) == 0 {
		return nil, errors.New("connection refused")
	}
	next := d.script[0]
	d.script = d.script[1:]
	if next.err != nil {
		return nil, next.err
	}
	return next.conn, nil
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type staticIdentity struct {
	token string
	id    session.Identity
}

func (s staticIdentity) Token(context.Context) (string, error) { return s.token, nil }

func (s staticIdentity) Identity(context.Context) (session.Identity, error) { return s.id, nil }

// recordingSink collects notifications.
type recordingSink struct {
	mu  sync.Mutex
	got []notify.Notification
}

func (s *recordingSink) Notify(n notify.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, n)
}

func (s *recordingSink) all() []notify.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notify.Notification(nil), s.got...)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ReconnectInterval = 10 * time.Millisecond
	cfg.HeartbeatInterval = 0
	return cfg
}

func newTestManager(t *testing.T, cfg Config, d Dialer, opts ...Option) *Manager {
	t.Helper()
	m, err := New(cfg, append([]Option{WithDialer(d)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(m.Disconnect)
	return m
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func inbound(msgType string, data any) map[string]any {
	return map[string]any{"type": msgType, "data": data}
}
