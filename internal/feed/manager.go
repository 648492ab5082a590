package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/five82/printdeck/internal/device"
	"github.com/five82/printdeck/internal/logging"
	"github.com/five82/printdeck/internal/state"
)

// DefaultDelay is the fixed pause between a closure and the next dial.
const DefaultDelay = 500 * time.Millisecond

// ConnState is the lifecycle state of the feed connection.
type ConnState int32

const (
	Connecting ConnState = iota
	Open
	Reconnecting
)

func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Reconnecting:
		return "reconnecting"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Conn is an established feed connection.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Dialer opens feed connections.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// WebSocketDialer dials the device's status socket.
type WebSocketDialer struct {
	URL              string
	HandshakeTimeout time.Duration
}

// Dial implements Dialer.
func (d WebSocketDialer) Dial(ctx context.Context) (Conn, error) {
	timeout := d.HandshakeTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.DialContext(ctx, d.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", d.URL, err)
	}
	return conn, nil
}

// Options configure a Manager.
type Options struct {
	Delay  time.Duration
	Logger *logging.Logger
	// OnStatus, when set, is called after each decoded frame is merged.
	OnStatus func(device.Status)
	// After replaces time.After (tests).
	After func(time.Duration) <-chan time.Time
}

// Manager keeps the status feed connected and merges every frame into the
// store.
type Manager struct {
	store    *state.Store
	dialer   Dialer
	delay    time.Duration
	after    func(time.Duration) <-chan time.Time
	onStatus func(device.Status)
	log      *logging.Logger

	state    atomic.Int32
	attempts atomic.Int64
}

// New creates a manager. It does nothing until Run is called.
func New(store *state.Store, dialer Dialer, opts Options) *Manager {
	delay := opts.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}
	after := opts.After
	if after == nil {
		after = time.After
	}
	return &Manager{
		store:    store,
		dialer:   dialer,
		delay:    delay,
		after:    after,
		onStatus: opts.OnStatus,
		log:      logging.OrNop(opts.Logger).Component("feed"),
	}
}

// State returns the current connection state.
func (m *Manager) State() ConnState {
	return ConnState(m.state.Load())
}

// Attempts returns the number of dials made so far.
func (m *Manager) Attempts() int {
	return int(m.attempts.Load())
}

// Run dials, reads frames until the connection closes, waits the fixed delay
// and dials again. There is no backoff and no attempt limit; Run returns only
// when ctx is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.setState(Connecting)
		m.attempts.Add(1)
		conn, err := m.dialer.Dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.log.Debug().Err(err).Int("attempt", m.Attempts()).Msg("feed dial failed")
		} else {
			m.serve(ctx, conn)
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		m.setState(Reconnecting)
		m.log.Debug().Dur("delay", m.delay).Msg("feed reconnect scheduled")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.after(m.delay):
		}
	}
}

// serve reads frames until conn fails or ctx ends. The last merged printer
// snapshot is left in place when the connection goes away.
func (m *Manager) serve(ctx context.Context, conn Conn) {
	m.setState(Open)
	m.store.Merge(state.Patch{FeedConnected: state.Ptr(true)})
	m.log.Info().Msg("feed connected")

	stop := make(chan struct{})
	var once sync.Once
	closeConn := func() { once.Do(func() { _ = conn.Close() }) }
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && !isNormalClosure(err) {
				m.log.Warn().Err(err).Msg("feed read failed")
			}
			break
		}
		m.handleFrame(data)
	}

	close(stop)
	closeConn()
	m.store.Merge(state.Patch{FeedConnected: state.Ptr(false)})
	m.log.Info().Msg("feed disconnected")
}

func (m *Manager) handleFrame(data []byte) {
	var status device.Status
	if err := json.Unmarshal(data, &status); err != nil {
		m.log.Warn().Err(err).Int("bytes", len(data)).Msg("dropping malformed feed frame")
		return
	}
	m.store.Merge(state.Patch{Printer: &status})
	if m.onStatus != nil {
		m.onStatus(status)
	}
}

func (m *Manager) setState(s ConnState) {
	m.state.Store(int32(s))
}

func isNormalClosure(err error) bool {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return closeErr.Code == websocket.CloseNormalClosure || closeErr.Code == websocket.CloseGoingAway
	}
	return false
}
