package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/five82/printdeck/internal/device"
	"github.com/five82/printdeck/internal/state"
)

// scriptedConn yields frames and then fails.
type scriptedConn struct {
	mu     sync.Mutex
	frames []string
	closed bool
}

func (c *scriptedConn) ReadMessage() (int, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 || c.closed {
		return 0, nil, errors.New("connection reset")
	}
	f := c.frames[0]
	c.frames = c.frames[1:]
	return websocket.TextMessage, []byte(f), nil
}

func (c *scriptedConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

// scriptedDialer hands out conns in order and cancels the run on the dial
// after the last one.
type scriptedDialer struct {
	mu      sync.Mutex
	conns   []Conn
	failAt  map[int]bool
	dials   int
	cancel  context.CancelFunc
	stopped chan struct{}

	// stateOf, when set, is sampled at every dial.
	stateOf func() ConnState
	states  []ConnState
}

func (d *scriptedDialer) Dial(ctx context.Context) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.stateOf != nil {
		d.states = append(d.states, d.stateOf())
	}
	if d.failAt[d.dials] {
		return nil, errors.New("connection refused")
	}
	if len(d.conns) == 0 {
		d.cancel()
		return nil, context.Canceled
	}
	c := d.conns[0]
	d.conns = d.conns[1:]
	return c, nil
}

type fakeClock struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.delays = append(c.delays, d)
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func TestManager_ReconnectsAfterEveryClosure(t *testing.T) {
	const closures = 4

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dialer := &scriptedDialer{cancel: cancel, failAt: map[int]bool{2: true}}
	for i := 0; i < closures-1; i++ {
		dialer.conns = append(dialer.conns, &scriptedConn{frames: []string{`{"status":"Idle"}`}})
	}
	clock := &fakeClock{}
	store := state.New()
	m := New(store, dialer, Options{Delay: 500 * time.Millisecond, After: clock.After})
	dialer.stateOf = m.State

	if err := m.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}

	// closures-1 sessions plus one failed dial make closures closures,
	// and the run ends on the final dial.
	if dialer.dials != closures+1 {
		t.Fatalf("dials = %d, want %d", dialer.dials, closures+1)
	}
	if m.Attempts() != closures+1 {
		t.Fatalf("Attempts() = %d, want %d", m.Attempts(), closures+1)
	}
	if len(clock.delays) != closures {
		t.Fatalf("waits = %d, want %d", len(clock.delays), closures)
	}
	for i, d := range clock.delays {
		if d != 500*time.Millisecond {
			t.Fatalf("wait %d = %v, want fixed 500ms", i, d)
		}
	}
	if len(dialer.states) != closures+1 {
		t.Fatalf("states sampled = %d, want %d", len(dialer.states), closures+1)
	}
	for i, s := range dialer.states {
		if s != Connecting {
			t.Fatalf("state at dial %d = %v, want %v", i+1, s, Connecting)
		}
	}
}

func TestManager_CloseKeepsLastSnapshot(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dialer := &scriptedDialer{
		cancel: cancel,
		conns: []Conn{&scriptedConn{frames: []string{
			`{"status":"Working","hot_end":"205.00","bed":"60.00","progress":0.1}`,
			`{"status":"Working","hot_end":"210.00","bed":"60.00","progress":0.2}`,
		}}},
	}
	store := state.New()
	var seen []float64
	m := New(store, dialer, Options{
		After:    (&fakeClock{}).After,
		OnStatus: func(s device.Status) { seen = append(seen, s.Progress) },
	})
	_ = m.Run(ctx)

	snap := store.Snapshot()
	want := device.Status{State: device.StateWorking, HotEnd: 210, Bed: 60, Progress: 0.2}
	if snap.Printer != want {
		t.Fatalf("Printer = %#v, want %#v", snap.Printer, want)
	}
	if snap.FeedConnected {
		t.Fatalf("FeedConnected = true after close")
	}
	if len(seen) != 2 {
		t.Fatalf("OnStatus calls = %d, want 2", len(seen))
	}
}

func TestManager_MalformedFrameIsSkipped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn := &scriptedConn{frames: []string{
		`{"status":"Idle","hot_end":20,"bed":20}`,
		`{not json`,
		`{"status":"Idle","hot_end":"warm"}`,
		`{"status":"Idle","hot_end":21,"bed":20}`,
	}}
	dialer := &scriptedDialer{cancel: cancel, conns: []Conn{conn}}
	store := state.New()
	m := New(store, dialer, Options{After: (&fakeClock{}).After})
	_ = m.Run(ctx)

	if got := store.Snapshot().Printer.HotEnd; got != 21 {
		t.Fatalf("HotEnd = %v, want 21 from the frame after the malformed ones", got)
	}
	if dialer.dials != 2 {
		t.Fatalf("dials = %d, want 2 (malformed frames must not drop the connection)", dialer.dials)
	}
}

func TestManager_RealWebSocket(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var mu sync.Mutex
	connects := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		mu.Lock()
		connects++
		n := connects
		mu.Unlock()

		if n == 1 {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"status":"Working","hot_end":"200.00","bed":"55.00","progress":0.5}`))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`garbage`))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
		// Hold the second connection until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	store := state.New()
	m := New(store, WebSocketDialer{URL: url}, Options{Delay: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for {
		snap := store.Snapshot()
		if m.Attempts() >= 2 && m.State() == Open && snap.FeedConnected {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("feed did not reconnect: attempts=%d state=%v", m.Attempts(), m.State())
		}
		time.Sleep(5 * time.Millisecond)
	}

	snap := store.Snapshot()
	if snap.Printer.State != device.StateWorking || snap.Printer.HotEnd != 200 {
		t.Fatalf("Printer = %#v, want snapshot from first connection", snap.Printer)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
	if store.Snapshot().FeedConnected {
		t.Fatalf("FeedConnected = true after shutdown")
	}
}

func TestConnState_String(t *testing.T) {
	if Connecting.String() != "connecting" || Open.String() != "open" || Reconnecting.String() != "reconnecting" {
		t.Fatalf("unexpected ConnState strings")
	}
}
