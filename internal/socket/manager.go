// package socket owns the single persistent connection to the backend push
// channel.
//
// Exactly one Manager exists for the lifetime of the process, independent of
// which view is active. It dials, authenticates, heartbeats, reconnects with
// exponential backoff, queues outbound messages while disconnected, and fans
// inbound messages out to subscribers in receipt order.
package socket

import (
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/chapgen/cli/internal/models"
	"github.com/chapgen/cli/internal/shared"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// State is the externally visible connection state.
type State int

const (
	Connecting State = iota
	Open
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	default:
		return "closed"
	}
}

// Config contains the connection endpoint and tuning knobs.
type Config struct {
	URL string
	// QueryAuth carries the access token as a handshake query parameter
	// instead of an auth message after open.
	QueryAuth bool
	Heartbeat time.Duration
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultConfig returns the production tuning for the given endpoint.
func DefaultConfig(wsURL string) Config {
	return Config{
		URL:       wsURL,
		Heartbeat: 25 * time.Second,
		BaseDelay: 500 * time.Millisecond,
		MaxDelay:  30 * time.Second,
	}
}

// Manager maintains the live connection. All writes to the underlying
// connection happen under the mutex; the read loop is the only reader.
type Manager struct {
	cfg    Config
	dialer *websocket.Dialer
	logger *log.Logger

	// token reads the current session token at the moment of use, never a
	// captured snapshot.
	token func() string

	mu       sync.Mutex
	conn     *websocket.Conn
	state    State
	queue    [][]byte
	attempt  int
	shutdown bool
	hbStop   chan struct{}

	subMu   sync.Mutex
	subs    map[int]func(models.Envelope)
	nextSub int

	done     chan struct{}
	doneOnce sync.Once
}

// NewManager creates a connection manager. token supplies the current access
// token and may return "" while signed out.
func NewManager(cfg Config, token func() string, logger *log.Logger) *Manager {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if token == nil {
		token = func() string { return "" }
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = 25 * time.Second
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}

	return &Manager{
		cfg:    cfg,
		dialer: websocket.DefaultDialer,
		logger: logger,
		token:  token,
		state:  Closed,
		subs:   map[int]func(models.Envelope){},
		done:   make(chan struct{}),
	}
}

// Start begins the connect/reconnect loop. It returns immediately.
func (m *Manager) Start() {
	go m.run()
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Send serializes v and transmits it immediately if the connection is open;
// otherwise it is enqueued FIFO for the next successful open. The return
// value reports whether the message was sent immediately. Send never fails
// on a closed connection.
func (m *Manager) Send(v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		m.logger.Errorf("failed to marshal outbound message: %v", err)
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil && m.state == Open {
		if err := m.conn.WriteMessage(websocket.TextMessage, data); err == nil {
			return true
		}
		m.logger.Warnf("send failed, queueing message")
	}

	m.queue = append(m.queue, data)
	return false
}

// Subscribe registers a listener for every successfully parsed inbound
// message. Returns an unsubscribe function. A failure inside one listener
// does not prevent delivery to the others.
func (m *Manager) Subscribe(fn func(models.Envelope)) func() {
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

// NotifyTokenChange sends (or queues) an authentication message carrying the
// current token. Called when sign-in completes after the connection was
// already established; the connection is not torn down just to re-carry the
// token.
func (m *Manager) NotifyTokenChange() {
	token := m.token()
	if token == "" {
		return
	}
	m.Send(models.AuthMessage{AccessToken: token})
}

// Shutdown suppresses further reconnects and closes the live handle. This is
// terminal for the manager.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.shutdown = true
	m.stopHeartbeatLocked()
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	m.state = Closed
	m.mu.Unlock()

	m.doneOnce.Do(func() { close(m.done) })
}

// BackoffDelay computes the reconnect delay for the given attempt:
// min(max, base * 2^attempt).
func BackoffDelay(base, max time.Duration, attempt int) time.Duration {
	if attempt > 30 {
		return max
	}
	d := base << uint(attempt)
	if d <= 0 || d > max {
		return max
	}
	return d
}

// run is the connect/reconnect loop. One instance runs per manager.
func (m *Manager) run() {
	for {
		m.mu.Lock()
		if m.shutdown {
			m.mu.Unlock()
			return
		}
		m.state = Connecting
		attempt := m.attempt
		m.mu.Unlock()

		conn, _, err := m.dialer.Dial(m.dialURL(), nil)
		if err != nil {
			m.logger.Warnf("connect failed (attempt %d): %v", attempt, err)
			if !m.waitBackoff() {
				return
			}
			continue
		}

		m.onOpen(conn)
		m.readLoop(conn)
		m.onClose()

		if !m.waitBackoff() {
			return
		}
	}
}

// dialURL appends the token as a query parameter when the transport
// authenticates at connect time.
func (m *Manager) dialURL() string {
	raw := m.cfg.URL
	token := m.token()
	if !m.cfg.QueryAuth || token == "" {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("access_token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

// onOpen installs the new connection, flushes the outbound queue in order,
// starts the heartbeat, and authenticates if the handshake did not.
func (m *Manager) onOpen(conn *websocket.Conn) {
	m.mu.Lock()

	if m.shutdown {
		m.mu.Unlock()
		conn.Close()
		return
	}

	m.conn = conn
	m.attempt = 0

	// Flush before marking the state open so queued messages precede any
	// newly issued sends. A mid-flush failure re-queues the remainder.
	for len(m.queue) > 0 {
		data := m.queue[0]
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			m.logger.Warnf("flush interrupted, %d message(s) re-queued", len(m.queue))
			break
		}
		m.queue = m.queue[1:]
	}

	m.state = Open

	m.stopHeartbeatLocked()
	stop := make(chan struct{})
	m.hbStop = stop
	m.mu.Unlock()

	m.logger.Info("connection open")
	go m.heartbeat(conn, stop)

	if token := m.token(); token != "" && !m.cfg.QueryAuth {
		m.Send(models.AuthMessage{AccessToken: token})
	}
}

// onClose tears down per-connection state. The reconnect decision lives in
// run.
func (m *Manager) onClose() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopHeartbeatLocked()
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	if !m.shutdown {
		m.state = Closed
		m.logger.Warn("connection closed")
	}
}

func (m *Manager) stopHeartbeatLocked() {
	if m.hbStop != nil {
		close(m.hbStop)
		m.hbStop = nil
	}
}

// waitBackoff sleeps for the current reconnect delay. It returns false when
// the manager was shut down while waiting.
func (m *Manager) waitBackoff() bool {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return false
	}
	delay := BackoffDelay(m.cfg.BaseDelay, m.cfg.MaxDelay, m.attempt)
	m.attempt++
	m.mu.Unlock()

	m.logger.Infof("reconnecting in %s", delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-m.done:
		return false
	}
}

// heartbeat sends a keep-alive ping at a fixed interval while the given
// connection is still the live one.
func (m *Manager) heartbeat(conn *websocket.Conn, stop chan struct{}) {
	ticker := time.NewTicker(m.cfg.Heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			if m.conn == conn && m.state == Open {
				if err := conn.WriteMessage(websocket.TextMessage, mustMarshal(models.PingMessage{Type: models.TypePing})); err != nil {
					m.logger.Warnf("ping send failed: %v", err)
				}
			}
			m.mu.Unlock()
		case <-stop:
			return
		}
	}
}

// readLoop reads until the connection fails. Messages are parsed and fanned
// out synchronously so subscribers see them in receipt order; there is no
// inbound buffering.
func (m *Manager) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var env models.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			m.logger.Warnf("discarding malformed push message: %v", err)
			continue
		}

		m.fanOut(env)
	}
}

// fanOut delivers one message to every subscriber, isolating failures so one
// listener cannot block the rest.
func (m *Manager) fanOut(env models.Envelope) {
	m.subMu.Lock()
	fns := make([]func(models.Envelope), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.logger.Errorf("subscriber failed on %q message: %v", env.Type, r)
				}
			}()
			fn(env)
		}()
	}
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
