// Package net manages the single logical connection to a game server:
// connect/authenticate/reconnect with backoff, heartbeat and latency
// tracking, request/response correlation, offline queueing, and inbound
// dispatch into the state store.
package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"typing-battle/client/eventbus"
	"typing-battle/client/internal/config"
	"typing-battle/client/internal/net/proto"
	"typing-battle/client/internal/store"
	"typing-battle/client/logging"
	lognet "typing-battle/client/logging/network"
)

// Event topics published around the connection lifecycle.
const (
	TopicConnected    = "network:connected"
	TopicDisconnected = "network:disconnected"
	TopicAuthSuccess  = "auth:success"
	TopicAuthFailed   = "auth:failed"
	TopicWordComplete = "word:completed"
)

// Intent topics the manager forwards to the server when bound.
const (
	TopicIntentPlayerMoved = "player:moved"
	TopicIntentWordTyped   = "word:typed"
	TopicIntentItemUsed    = "item:used"
)

var (
	// ErrRequestTimeout settles a pending request whose response never
	// arrived inside the configured window.
	ErrRequestTimeout = errors.New("request timeout")
	// ErrReconnectExhausted marks the terminal state after the attempt cap.
	ErrReconnectExhausted = errors.New("reconnect attempts exhausted")
	// ErrClosed rejects operations on a manager that has been shut down.
	ErrClosed = errors.New("connection manager closed")
)

// Status is the connection state machine position.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusReconnecting
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Conn is the transport seam; *websocket.Conn satisfies it and tests
// inject fakes.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens a transport to the given URL.
type Dialer func(url string, timeout time.Duration) (Conn, error)

// GorillaDialer dials a real websocket with a handshake deadline.
func GorillaDialer(url string, timeout time.Duration) (Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return conn, nil
}

type result struct {
	data json.RawMessage
	err  error
}

type pendingRequest struct {
	id    uint64
	done  chan result
	timer *time.Timer
}

type queuedMessage struct {
	msgType string
	data    any
	expect  bool
	done    chan result
	// id is pre-assigned for expect-response messages so the timeout
	// clock starts at enqueue time, not at flush time. Zero otherwise.
	id uint64
}

// Manager drives the connection state machine. All transport writes are
// serialized; the offline queue drains in FIFO order before any message
// issued after reconnection.
type Manager struct {
	store  *store.Store
	bus    *eventbus.Bus
	pub    logging.Publisher
	dialer Dialer
	now    func() time.Time

	url               string
	maxAttempts       int
	baseDelay         time.Duration
	heartbeatInterval time.Duration
	requestTimeout    time.Duration

	mu             sync.Mutex
	conn           Conn
	status         Status
	attempts       int
	intentional    bool
	closed         bool
	queue          []queuedMessage
	pending        map[uint64]*pendingRequest
	heartbeatStop  chan struct{}
	reconnectTimer *time.Timer

	writeMu sync.Mutex
	nextID  atomic.Uint64

	unbind []func()
}

// Options wires the manager's collaborators.
type Options struct {
	Store  *store.Store
	Bus    *eventbus.Bus
	Config *config.Config
	Pub    logging.Publisher
	Dialer Dialer
	Now    func() time.Time
}

// NewManager builds a disconnected manager from configuration.
func NewManager(opts Options) *Manager {
	pub := opts.Pub
	if pub == nil {
		pub = logging.NopPublisher()
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = GorillaDialer
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	cfg := opts.Config
	return &Manager{
		store:             opts.Store,
		bus:               opts.Bus,
		pub:               pub,
		dialer:            dialer,
		now:               now,
		url:               cfg.String("network.serverURL", "ws://localhost:8080/ws"),
		maxAttempts:       cfg.Int("network.reconnectAttempts", 5),
		baseDelay:         cfg.Duration("network.reconnectDelay", 2*time.Second),
		heartbeatInterval: cfg.Duration("network.heartbeatInterval", 30*time.Second),
		requestTimeout:    cfg.Duration("network.timeout", 10*time.Second),
		pending:           make(map[uint64]*pendingRequest),
	}
}

// Status reports the current state machine position.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Connect opens the transport and returns once it is ready. On success the
// reconnect counter resets, the heartbeat starts, authentication is sent
// when credentials are supplied, and the offline queue drains in order.
func (m *Manager) Connect(credentials *proto.Credentials) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.status == StatusConnected || m.status == StatusConnecting {
		m.mu.Unlock()
		return nil
	}
	wasReconnecting := m.status == StatusReconnecting
	m.status = StatusConnecting
	m.intentional = false
	m.mu.Unlock()

	conn, err := m.dialer(m.url, m.requestTimeout)
	if err != nil {
		m.mu.Lock()
		m.status = StatusDisconnected
		intentional := m.intentional
		closed := m.closed
		m.mu.Unlock()
		// A failed dial arms the same backoff ladder an unclean close
		// does, so a refused first connect still recovers on its own.
		if !intentional && !closed {
			m.scheduleReconnect()
		}
		return err
	}

	m.mu.Lock()
	m.conn = conn
	m.attempts = 0
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	stop := make(chan struct{})
	m.heartbeatStop = stop
	m.mu.Unlock()

	m.store.BatchUpdate(map[string]any{
		"network.connected":    true,
		"network.reconnecting": false,
	}, store.UpdateOptions{SkipHistory: true})

	if credentials != nil {
		// auth is answered by a dedicated auth_response, not a correlated
		// response frame, so no pending request is registered.
		m.transmit(conn, proto.TypeAuth, credentials, false, nil, 0)
	}

	go m.heartbeatLoop(stop)
	go m.readLoop(conn)

	// Status stays Connecting until the offline queue drains, so a send
	// racing in from another goroutine keeps queueing behind it instead
	// of jumping ahead. The loop catches entries queued mid-drain; once
	// the queue is observed empty under the lock the status flips and
	// direct transmits take over.
	for {
		m.mu.Lock()
		if m.conn != conn {
			// Lost the transport while draining; handleClose owns the
			// status from here.
			m.mu.Unlock()
			break
		}
		queue := m.queue
		m.queue = nil
		if len(queue) == 0 {
			m.status = StatusConnected
			m.mu.Unlock()
			break
		}
		m.mu.Unlock()
		for _, queued := range queue {
			if queued.expect && !m.pendingExists(queued.id) {
				// Timed out while offline; already settled.
				continue
			}
			m.transmit(conn, queued.msgType, queued.data, queued.expect, queued.done, queued.id)
		}
	}

	lognet.Connected(context.Background(), m.pub, m.connRef())
	if wasReconnecting {
		m.store.AddNotification("success", "Reconnected to server", 3*time.Second)
	}
	if m.bus != nil {
		m.bus.Publish(TopicConnected)
	}
	return nil
}

// Disconnect performs a clean, intentional close. No reconnection
// follows: a backoff step already armed is cancelled here, not just
// suppressed at the next close.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.intentional = true
	conn := m.conn
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	wasReconnecting := m.status == StatusReconnecting
	if wasReconnecting {
		m.status = StatusDisconnected
	}
	m.mu.Unlock()

	if wasReconnecting {
		m.store.SetWith("network.reconnecting", false, store.UpdateOptions{SkipHistory: true})
	}

	if conn != nil {
		message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client disconnect")
		m.writeMu.Lock()
		conn.WriteMessage(websocket.CloseMessage, message)
		m.writeMu.Unlock()
		conn.Close()
	}
}

// Close shuts the manager down permanently: timers stop, the transport
// closes, and queued requests are rejected.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.intentional = true
	conn := m.conn
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	queue := m.queue
	m.queue = nil
	m.mu.Unlock()

	for _, fn := range m.unbind {
		fn()
	}
	m.unbind = nil

	for _, queued := range queue {
		if queued.expect {
			m.settlePending(queued.id, result{err: ErrClosed})
		} else if queued.done != nil {
			queued.done <- result{err: ErrClosed}
		}
	}
	if conn != nil {
		conn.Close()
	}
}

// Send transmits a fire-and-forget message, queueing it FIFO while
// disconnected.
func (m *Manager) Send(msgType string, data any) error {
	return m.enqueueOrTransmit(msgType, data, false, nil)
}

// Request transmits a message expecting a correlated response and blocks
// until it settles: a matching response, the configured timeout, or ctx
// cancellation. Every request settles exactly once.
func (m *Manager) Request(ctx context.Context, msgType string, data any) (json.RawMessage, error) {
	done := make(chan result, 1)
	if err := m.enqueueOrTransmit(msgType, data, true, done); err != nil {
		return nil, err
	}
	select {
	case res := <-done:
		return res.data, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Manager) enqueueOrTransmit(msgType string, data any, expect bool, done chan result) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.status != StatusConnected || m.conn == nil {
		var id uint64
		if expect {
			// The timeout runs from the moment of the request, whether
			// or not the transport comes back in time to carry it.
			id = m.nextID.Add(1)
			m.registerPendingLocked(id, done)
		}
		m.queue = append(m.queue, queuedMessage{msgType: msgType, data: data, expect: expect, done: done, id: id})
		m.mu.Unlock()
		return nil
	}
	conn := m.conn
	m.mu.Unlock()

	return m.transmit(conn, msgType, data, expect, done, 0)
}

// transmit stamps the timestamp, registers the pending request when a
// response is expected, and writes the frame. A zero id means the
// correlation id is assigned here; a queued message carries the id it
// was assigned at enqueue time.
func (m *Manager) transmit(conn Conn, msgType string, data any, expect bool, done chan result, id uint64) error {
	preRegistered := id != 0
	if id == 0 {
		id = m.nextID.Add(1)
	}
	msg := proto.Outbound{
		Type:           msgType,
		Data:           data,
		ID:             id,
		Timestamp:      m.now().UnixMilli(),
		ExpectResponse: expect,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		err = fmt.Errorf("marshal %s: %w", msgType, err)
		if preRegistered {
			m.settlePending(id, result{err: err})
		} else if done != nil {
			done <- result{err: err}
		}
		return err
	}

	if expect && !preRegistered {
		m.registerPending(id, done)
	}

	m.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, payload)
	m.writeMu.Unlock()
	if err != nil {
		if expect {
			m.settlePending(id, result{err: err})
		}
		return fmt.Errorf("send %s: %w", msgType, err)
	}
	return nil
}

func (m *Manager) registerPending(id uint64, done chan result) {
	m.mu.Lock()
	m.registerPendingLocked(id, done)
	m.mu.Unlock()
}

func (m *Manager) registerPendingLocked(id uint64, done chan result) {
	request := &pendingRequest{id: id, done: done}
	request.timer = time.AfterFunc(m.requestTimeout, func() {
		if m.settlePending(id, result{err: ErrRequestTimeout}) {
			lognet.RequestTimeout(context.Background(), m.pub, m.connRef(), id)
		}
	})
	m.pending[id] = request
}

func (m *Manager) pendingExists(id uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[id]
	return ok
}

// settlePending resolves or rejects a pending request at most once: the
// entry is removed under the mutex before the callback fires.
func (m *Manager) settlePending(id uint64, res result) bool {
	m.mu.Lock()
	request, ok := m.pending[id]
	if ok {
		delete(m.pending, id)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	if request.timer != nil {
		request.timer.Stop()
	}
	if request.done != nil {
		request.done <- res
	}
	return true
}

func (m *Manager) readLoop(conn Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.handleClose(conn, err)
			return
		}
		m.dispatch(data)
	}
}

func (m *Manager) handleClose(conn Conn, cause error) {
	m.mu.Lock()
	if m.conn != conn {
		// A newer connection superseded this one; ignore the stale close.
		m.mu.Unlock()
		return
	}
	m.conn = nil
	m.status = StatusDisconnected
	if m.heartbeatStop != nil {
		close(m.heartbeatStop)
		m.heartbeatStop = nil
	}
	intentional := m.intentional
	closed := m.closed
	m.mu.Unlock()

	conn.Close()
	m.store.BatchUpdate(map[string]any{
		"network.connected": false,
	}, store.UpdateOptions{SkipHistory: true})

	clean := intentional || websocket.IsCloseError(cause, websocket.CloseNormalClosure)
	payload := lognet.ClosePayload{Clean: clean}
	var closeErr *websocket.CloseError
	if errors.As(cause, &closeErr) {
		payload.Code = closeErr.Code
	} else if cause != nil {
		payload.Error = cause.Error()
	}
	lognet.Disconnected(context.Background(), m.pub, m.connRef(), payload)

	if m.bus != nil {
		m.bus.Publish(TopicDisconnected, cause)
	}
	if !clean && !closed {
		m.scheduleReconnect()
	}
}

// scheduleReconnect arms the next backoff step: delay grows linearly with
// the attempt number. Past the cap the manager surfaces a terminal error
// and stays down until Reconnect or NotifyOnline.
func (m *Manager) scheduleReconnect() {
	m.mu.Lock()
	if m.closed || m.status == StatusConnected || m.status == StatusConnecting {
		m.mu.Unlock()
		return
	}
	if m.attempts >= m.maxAttempts {
		m.status = StatusDisconnected
		attempts := m.attempts
		m.mu.Unlock()
		lognet.ReconnectExhausted(context.Background(), m.pub, m.connRef(), lognet.ReconnectPayload{
			Attempt:     attempts,
			MaxAttempts: m.maxAttempts,
		})
		m.store.SetWith("network.reconnecting", false, store.UpdateOptions{SkipHistory: true})
		m.store.SetError("Unable to reconnect to server")
		return
	}
	m.attempts++
	attempt := m.attempts
	delay := m.baseDelay * time.Duration(attempt)
	m.status = StatusReconnecting
	m.reconnectTimer = time.AfterFunc(delay, func() {
		m.mu.Lock()
		if m.closed || m.intentional || m.status == StatusConnected || m.status == StatusConnecting {
			m.mu.Unlock()
			return
		}
		m.status = StatusDisconnected
		m.mu.Unlock()
		// A failed dial re-arms the ladder inside Connect.
		m.reconnectOnce()
	})
	m.mu.Unlock()

	m.store.SetWith("network.reconnecting", true, store.UpdateOptions{SkipHistory: true})
	lognet.ReconnectScheduled(context.Background(), m.pub, m.connRef(), lognet.ReconnectPayload{
		Attempt:     attempt,
		MaxAttempts: m.maxAttempts,
		DelayMillis: delay.Milliseconds(),
	})
}

func (m *Manager) reconnectOnce() error {
	m.mu.Lock()
	m.status = StatusReconnecting
	m.mu.Unlock()
	return m.Connect(nil)
}

// Reconnect is the explicit manual trigger: it resets the attempt counter
// and dials immediately.
func (m *Manager) Reconnect() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.attempts = 0
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	m.mu.Unlock()
	return m.Connect(nil)
}

// NotifyOnline reacts to the platform's connectivity-restored signal by
// attempting a fresh reconnect when currently down.
func (m *Manager) NotifyOnline() {
	m.mu.Lock()
	down := m.status == StatusDisconnected && !m.closed
	m.mu.Unlock()
	if down {
		// A dial failure here arms the backoff ladder inside Connect.
		m.Reconnect()
	}
}

func (m *Manager) heartbeatLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(m.heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.mu.Lock()
			conn := m.conn
			m.mu.Unlock()
			if conn == nil {
				return
			}
			m.transmit(conn, proto.TypeHeartbeat, nil, false, nil, 0)
		}
	}
}

// BindIntents forwards gameplay intents from the bus to the server.
func (m *Manager) BindIntents() {
	if m.bus == nil {
		return
	}
	m.unbind = append(m.unbind,
		m.bus.Subscribe(TopicIntentPlayerMoved, func(args ...any) {
			if len(args) == 1 {
				m.Send(proto.TypePlayerUpdate, args[0])
			}
		}),
		m.bus.Subscribe(TopicIntentWordTyped, func(args ...any) {
			if len(args) == 1 {
				m.Send(proto.TypeWordTyped, args[0])
			}
		}),
		m.bus.Subscribe(TopicIntentItemUsed, func(args ...any) {
			if len(args) == 1 {
				m.Send(proto.TypeItemUsed, args[0])
			}
		}),
	)
}

// RequestGameState asks the server for a full authoritative snapshot.
func (m *Manager) RequestGameState(ctx context.Context) (json.RawMessage, error) {
	return m.Request(ctx, proto.TypeGetGameState, nil)
}

// Stats reports connection bookkeeping for diagnostics.
type ManagerStats struct {
	Status         Status
	Attempts       int
	QueuedMessages int
	PendingCount   int
}

func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ManagerStats{
		Status:         m.status,
		Attempts:       m.attempts,
		QueuedMessages: len(m.queue),
		PendingCount:   len(m.pending),
	}
}

func (m *Manager) connRef() logging.EntityRef {
	return logging.EntityRef{ID: m.url, Kind: logging.EntityKindConnection}
}
