package live

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	apperrors "github.com/kbukum/ranchkit/errors"
	"github.com/kbukum/ranchkit/logger"
	"github.com/kbukum/ranchkit/notify"
	"github.com/kbukum/ranchkit/observability"
	"github.com/kbukum/ranchkit/resilience"
	"github.com/kbukum/ranchkit/session"
)

// Ring capacities.
const (
	UpdateRingSize = 100
	AlertRingSize  = 50
)

// ErrReconnectExhausted is wrapped by the connection error recorded when the
// reconnect budget runs out.
var ErrReconnectExhausted = stderrors.New("live: reconnect attempts exhausted")

// IdentitySource supplies the credentials sent in the AUTH handshake.
// *session.Session implements it.
type IdentitySource interface {
	Token(ctx context.Context) (string, error)
	Identity(ctx context.Context) (session.Identity, error)
}

// Option configures a Manager.
type Option func(*Manager)

// WithDialer replaces the WebSocket dialer.
func WithDialer(d Dialer) Option {
	return func(m *Manager) { m.dialer = d }
}

// WithIdentity enables the AUTH handshake.
func WithIdentity(src IdentitySource) Option {
	return func(m *Manager) { m.identity = src }
}

// WithNotifier receives notifications raised by inbound events.
func WithNotifier(s notify.Sink) Option {
	return func(m *Manager) { m.notifier = s }
}

// WithMetrics records connection and message metrics.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithStateListener is called after every state transition, outside the
// manager's lock.
func WithStateListener(fn func(from, to State)) Option {
	return func(m *Manager) { m.onState = fn }
}

// WithUpdateListener is called with every bovine, production and location
// update and every health alert after it is recorded, on the read goroutine.
func WithUpdateListener(fn func(Update)) Option {
	return func(m *Manager) { m.onUpdate = fn }
}

// WithChannels adds channels to subscribe after authentication.
func WithChannels(channels ...string) Option {
	return func(m *Manager) { m.cfg.Channels = append(m.cfg.Channels, channels...) }
}

// Manager owns one live connection.
type Manager struct {
	cfg      Config
	url      string
	dialer   Dialer
	identity IdentitySource
	notifier notify.Sink
	metrics  *observability.Metrics
	onState  func(from, to State)
	onUpdate func(Update)
	backoff  resilience.BackoffFunc
	log      *logger.Logger

	now       func() time.Time
	afterFunc func(d time.Duration, f func()) *time.Timer

	mu             sync.Mutex
	state          State
	gen            uint64
	conn           Conn
	connErr        error
	attempts       int
	cancelDial     context.CancelFunc
	reconnectTimer *time.Timer
	heartbeatStop  chan struct{}
	ident          *session.Identity

	queue      queue
	handlers   *registry
	online     map[string]presenceData
	bovine     *ring
	production *ring
	location   *ring
	alerts     *ring

	lastMessage Message
	lastPong    time.Time
	latency     time.Duration
}

// New creates a closed Manager. Call Connect to open it.
func New(cfg Config, opts ...Option) (*Manager, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Manager{
		cfg:        cfg,
		log:        logger.Get("live"),
		now:        time.Now,
		afterFunc:  time.AfterFunc,
		handlers:   newRegistry(),
		online:     make(map[string]presenceData),
		bovine:     newRing(UpdateRingSize),
		production: newRing(UpdateRingSize),
		location:   newRing(UpdateRingSize),
		alerts:     newRing(AlertRingSize),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.url = m.cfg.Endpoint()
	m.backoff = resilience.ExponentialBackoff(m.cfg.ReconnectInterval, 1.5, MaxReconnectDelay)
	if m.dialer == nil {
		m.dialer = &WebsocketDialer{WriteTimeout: m.cfg.WriteTimeout}
	}
	return m, nil
}

// URL returns the endpoint the manager dials.
func (m *Manager) URL() string { return m.url }

// Connect dials the endpoint. It is a no-op when the connection is open or
// connecting. A manual Connect resets the reconnect budget. A failed dial is
// handled like a close, so reconnection may still be scheduled.
func (m *Manager) Connect(ctx context.Context) error {
	return m.connect(ctx, 0)
}

// connect dials. A non-zero timerGen marks a reconnect timer firing for that
// generation; it is dropped if the generation moved on.
func (m *Manager) connect(ctx context.Context, timerGen uint64) error {
	m.mu.Lock()
	if timerGen != 0 && timerGen != m.gen {
		m.mu.Unlock()
		return nil
	}
	if m.state != StateClosed {
		state := m.state
		m.mu.Unlock()
		m.log.Debug("Connect ignored", logger.Fields(logger.FieldState, state.String()))
		return nil
	}
	if timerGen == 0 {
		m.attempts = 0
	}
	m.stopReconnectLocked()
	m.gen++
	gen := m.gen
	dialCtx, cancel := context.WithTimeout(ctx, m.cfg.DialTimeout)
	m.cancelDial = cancel
	from, changed := m.setStateLocked(StateConnecting)
	m.mu.Unlock()
	m.emitState(from, StateConnecting, changed)

	m.log.Info("Connecting", logger.Fields(logger.FieldEndpoint, m.url))
	conn, err := m.dialer.Dial(dialCtx, m.url)
	cancel()
	if err != nil {
		m.log.Warn("Dial failed", logger.Fields(logger.FieldEndpoint, m.url, logger.FieldError, err.Error()))
		m.handleClose(gen, err)
		return apperrors.ConnectionFailed(m.url).WithCause(err)
	}
	return m.handleOpen(ctx, gen, conn)
}

func (m *Manager) handleOpen(ctx context.Context, gen uint64, conn Conn) error {
	auth, ident := m.authFrame(ctx)

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		_ = conn.Close()
		return apperrors.Canceled("connect")
	}
	m.cancelDial = nil
	m.conn = conn
	m.attempts = 0
	m.connErr = nil
	m.ident = ident
	from, changed := m.setStateLocked(StateOpen)

	frames := m.queue.drain()
	if auth != nil {
		frames = append([]outbound{*auth}, frames...)
	}
	var (
		sent     []outbound
		writeErr error
	)
	for i, o := range frames {
		if err := conn.Write(o.frame); err != nil {
			writeErr = err
			unsent := frames[i:]
			if auth != nil && i == 0 {
				unsent = unsent[1:]
			}
			m.queue.requeue(unsent)
			break
		}
		sent = append(sent, o)
	}

	var stop chan struct{}
	if m.cfg.HeartbeatInterval > 0 {
		stop = make(chan struct{})
		m.heartbeatStop = stop
	}
	m.mu.Unlock()

	m.log.Info("Connected", logger.Fields(logger.FieldEndpoint, m.url, logger.FieldQueueDepth, len(frames)))
	m.emitState(from, StateOpen, changed)
	m.metrics.RecordConnection(context.Background(), 1)
	for _, o := range sent {
		m.metrics.RecordLiveMessage(context.Background(), "out", o.msgType)
	}
	if writeErr != nil {
		m.log.Warn("Flush failed", logger.ErrorFields("flush", writeErr))
		_ = conn.Close()
	}

	if stop != nil {
		go m.heartbeat(gen, stop)
	}
	go m.readLoop(gen, conn)
	return nil
}

// authFrame builds the AUTH message from the identity source, or returns nil
// when no usable session exists.
func (m *Manager) authFrame(ctx context.Context) (*outbound, *session.Identity) {
	if m.identity == nil {
		return nil, nil
	}
	token, err := m.identity.Token(ctx)
	if err != nil || token == "" {
		m.log.Debug("Connecting without authentication")
		return nil, nil
	}
	id, err := m.identity.Identity(ctx)
	if err != nil {
		m.log.Debug("Connecting without authentication", logger.ErrorFields("identity", err))
		return nil, nil
	}
	msg, err := NewMessage(TypeAuth, authData{
		Token:    token,
		UserID:   id.UserID,
		Name:     id.Name,
		Role:     id.Role,
		RanchIDs: id.RanchIDs,
	})
	if err != nil {
		return nil, nil
	}
	o, err := encode(msg)
	if err != nil {
		return nil, nil
	}
	return &o, &id
}

func (m *Manager) readLoop(gen uint64, conn Conn) {
	for {
		frame, err := conn.Read()
		if err != nil {
			m.handleClose(gen, err)
			return
		}
		m.dispatch(gen, frame)
	}
}

func (m *Manager) heartbeat(gen uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(m.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.ping(gen)
		}
	}
}

func (m *Manager) ping(gen uint64) {
	o, err := encode(Message{Type: TypePing, Timestamp: m.now().UnixMilli()})
	if err != nil {
		return
	}
	m.mu.Lock()
	if gen != m.gen || m.state != StateOpen || m.conn == nil {
		m.mu.Unlock()
		return
	}
	err = m.conn.Write(o.frame)
	m.mu.Unlock()
	if err != nil {
		m.log.Warn("Heartbeat failed", logger.ErrorFields("ping", err))
		return
	}
	m.metrics.RecordLiveMessage(context.Background(), "out", TypePing)
}

// handleClose runs when a dial fails or a connection ends. Stale
// generations are ignored.
func (m *Manager) handleClose(gen uint64, cause error) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.stopHeartbeatLocked()
	m.cancelDial = nil
	conn := m.conn
	m.conn = nil
	if cause != nil && !stderrors.Is(cause, io.EOF) {
		m.connErr = apperrors.ConnectionFailed(m.url).WithCause(cause)
	}
	from, changed := m.setStateLocked(StateClosed)

	var (
		delay     time.Duration
		scheduled bool
		exhausted bool
	)
	if m.cfg.AutoReconnect {
		if m.attempts < m.cfg.MaxReconnectAttempts {
			delay = m.backoff(m.attempts + 1)
			m.attempts++
			m.scheduleReconnectLocked(gen, delay)
			scheduled = true
		} else {
			m.connErr = apperrors.ReconnectExhausted(m.attempts).WithCause(ErrReconnectExhausted)
			exhausted = true
		}
	}
	attempts := m.attempts
	m.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
		m.metrics.RecordConnection(context.Background(), -1)
		m.log.Info("Connection closed", logger.Fields(logger.FieldEndpoint, m.url))
	}
	m.emitState(from, StateClosed, changed)
	switch {
	case scheduled:
		m.log.Info("Reconnect scheduled", logger.Fields(
			logger.FieldAttempt, attempts,
			logger.FieldDelay, delay.Milliseconds(),
		))
	case exhausted:
		m.log.Error("Reconnect attempts exhausted", logger.Fields(logger.FieldAttempt, attempts))
	}
}

func (m *Manager) scheduleReconnectLocked(gen uint64, delay time.Duration) {
	m.reconnectTimer = m.afterFunc(delay, func() {
		m.metrics.RecordReconnect(context.Background())
		_ = m.connect(context.Background(), gen)
	})
}

func (m *Manager) stopReconnectLocked() {
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
}

func (m *Manager) stopHeartbeatLocked() {
	if m.heartbeatStop != nil {
		close(m.heartbeatStop)
		m.heartbeatStop = nil
	}
}

// Disconnect closes the connection with a normal closure and resets the
// reconnect state. It is idempotent; no pending timer acts after it returns.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.gen++
	m.stopReconnectLocked()
	m.stopHeartbeatLocked()
	if m.cancelDial != nil {
		m.cancelDial()
		m.cancelDial = nil
	}
	conn := m.conn
	m.conn = nil
	m.attempts = 0
	m.connErr = nil
	from, changed := m.setStateLocked(StateClosed)
	m.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
		m.metrics.RecordConnection(context.Background(), -1)
		m.log.Info("Disconnected", logger.Fields(logger.FieldEndpoint, m.url))
	}
	m.emitState(from, StateClosed, changed)
}

// Send writes msg when the connection is open and reports whether it was
// written. Otherwise msg is queued and sent once the connection opens.
// msg is a Message, a []byte holding JSON, or any JSON-encodable value.
func (m *Manager) Send(msg any) bool {
	return m.send(msg, true)
}

// TrySend is Send without queueing: when the connection is not open msg is
// dropped with a warning.
func (m *Manager) TrySend(msg any) bool {
	return m.send(msg, false)
}

func (m *Manager) send(msg any, queueIfClosed bool) bool {
	o, err := encode(msg)
	if err != nil {
		m.log.Warn("Message not encodable", logger.ErrorFields("send", err))
		return false
	}

	m.mu.Lock()
	var broken Conn
	if m.state == StateOpen && m.conn != nil {
		err := m.conn.Write(o.frame)
		if err == nil {
			m.mu.Unlock()
			m.metrics.RecordLiveMessage(context.Background(), "out", o.msgType)
			return true
		}
		m.log.Warn("Send failed", logger.ErrorFields("send", err))
		broken = m.conn
	}
	if !queueIfClosed {
		m.mu.Unlock()
		if broken != nil {
			_ = broken.Close()
		}
		m.metrics.RecordDropped(context.Background(), o.msgType)
		m.log.Warn("Message dropped, connection not open", logger.Fields(logger.FieldEventType, o.msgType))
		return false
	}
	m.queue.push(o)
	depth := m.queue.len()
	m.mu.Unlock()

	if broken != nil {
		_ = broken.Close()
	}
	m.log.Debug("Message queued", logger.Fields(logger.FieldEventType, o.msgType, logger.FieldQueueDepth, depth))
	return false
}

// SendBovineCommand sends a BOVINE_COMMAND, queueing it while disconnected.
func (m *Manager) SendBovineCommand(bovineID, command string, params map[string]any) bool {
	msg, err := NewMessage(TypeBovineCommand, bovineCommandData{BovineID: bovineID, Command: command, Params: params})
	if err != nil {
		return false
	}
	return m.Send(msg)
}

// RequestLiveData sends a REQUEST_LIVE_DATA, queueing it while disconnected.
func (m *Manager) RequestLiveData(dataType string, filters map[string]any) bool {
	msg, err := NewMessage(TypeRequestLiveData, liveDataRequest{DataType: dataType, Filters: filters})
	if err != nil {
		return false
	}
	return m.Send(msg)
}

// AddEventListener registers h for msgType and returns a function that
// removes it. Built-in message types are handled by the manager and never
// reach listeners.
func (m *Manager) AddEventListener(msgType string, h Handler) func() {
	m.mu.Lock()
	id := m.handlers.add(msgType, h)
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			m.handlers.remove(msgType, id)
			m.mu.Unlock()
		})
	}
}

// State returns the connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ConnectionError returns the last transport, authentication or reconnect
// error, or nil.
func (m *Manager) ConnectionError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connErr
}

// ReconnectAttempts returns the reconnects scheduled since the last open.
func (m *Manager) ReconnectAttempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// QueueLen returns the number of queued outbound messages.
func (m *Manager) QueueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.len()
}

// OnlineUsers returns the IDs of online users, sorted.
func (m *Manager) OnlineUsers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.online))
	for id := range m.online {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BovineUpdates returns recent BOVINE_UPDATE payloads, most recent first.
func (m *Manager) BovineUpdates() []Update { return m.snapshot(m.bovine) }

// ProductionUpdates returns recent PRODUCTION_UPDATE payloads.
func (m *Manager) ProductionUpdates() []Update { return m.snapshot(m.production) }

// LocationUpdates returns recent LOCATION_UPDATE payloads.
func (m *Manager) LocationUpdates() []Update { return m.snapshot(m.location) }

// HealthAlerts returns recent HEALTH_ALERT payloads.
func (m *Manager) HealthAlerts() []Update { return m.snapshot(m.alerts) }

func (m *Manager) snapshot(r *ring) []Update {
	m.mu.Lock()
	defer m.mu.Unlock()
	return r.snapshot()
}

// LastMessage returns the most recent inbound message.
func (m *Manager) LastMessage() Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastMessage
}

// LastPong returns when the last PONG arrived.
func (m *Manager) LastPong() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPong
}

// Latency returns the round trip measured by the last PONG.
func (m *Manager) Latency() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latency
}

func (m *Manager) setStateLocked(to State) (State, bool) {
	from := m.state
	m.state = to
	return from, from != to
}

func (m *Manager) emitState(from, to State, changed bool) {
	if !changed {
		return
	}
	m.log.Debug("State changed", logger.Fields(logger.FieldState, to.String(), "from", from.String()))
	if m.onState != nil {
		m.onState(from, to)
	}
}

// encode turns a Send argument into a frame and reads its type.
func encode(msg any) (outbound, error) {
	var (
		frame []byte
		err   error
	)
	switch v := msg.(type) {
	case []byte:
		frame = v
	case json.RawMessage:
		frame = v
	default:
		frame, err = json.Marshal(v)
		if err != nil {
			return outbound{}, err
		}
	}
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(frame, &head); err != nil {
		return outbound{}, fmt.Errorf("live: outbound message is not a JSON object: %w", err)
	}
	return outbound{msgType: head.Type, frame: frame}, nil
}
