package wsserver

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/0000mz/lotab/internal/wire"
	"nhooyr.io/websocket"
)

// fakeBroker stands in for *broker.Broker.
type fakeBroker struct {
	mu        sync.Mutex
	received  []string
	browserID string
	wake      chan struct{}
	pending   []byte
	accept    bool
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{wake: make(chan struct{}, 1), accept: true}
}

func (f *fakeBroker) HandleExtensionMessage(raw []byte, browserID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	var env wire.Envelope
	json.Unmarshal(raw, &env)
	f.received = append(f.received, env.Event)
	f.browserID = browserID
	return f.accept
}

func (f *fakeBroker) InitialExtensionRequest() []byte {
	payload, _ := wire.Marshal(wire.DaemonAllTabsInfoRequest, nil)
	return payload
}

func (f *fakeBroker) WakeExtension() <-chan struct{} { return f.wake }

func (f *fakeBroker) DrainPending() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.pending
	f.pending = nil
	return p
}

func (f *fakeBroker) arm(payload []byte) {
	f.mu.Lock()
	f.pending = payload
	f.mu.Unlock()
	f.wake <- struct{}{}
}

func dialURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func TestHandlerSendsInitialRequestOnConnect(t *testing.T) {
	fb := newFakeBroker()
	s := New(0, fb)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, dialURL(ts), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env wire.Envelope
	json.Unmarshal(data, &env)
	if env.Event != wire.DaemonAllTabsInfoRequest {
		t.Errorf("event = %q, want %q", env.Event, wire.DaemonAllTabsInfoRequest)
	}
}

func TestHandlerRoutesMessagesToBroker(t *testing.T) {
	fb := newFakeBroker()
	s := New(0, fb)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, dialURL(ts), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	conn.Read(ctx) // drain the initial request

	payload, _ := wire.Marshal(wire.ExtTabActivated, wire.SingleTabData{ID: 1})
	if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		fb.mu.Lock()
		n := len(fb.received)
		fb.mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for broker to receive message")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func TestWriterLoopDrainsPendingOnWake(t *testing.T) {
	fb := newFakeBroker()
	s := New(0, fb)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, dialURL(ts), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	conn.Read(ctx) // drain initial request

	payload, _ := wire.Marshal(wire.DaemonActivateTabRequest, wire.ActivateTabRequestData{TabID: 9})
	fb.arm(payload)

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env wire.Envelope
	json.Unmarshal(data, &env)
	if env.Event != wire.DaemonActivateTabRequest {
		t.Errorf("event = %q, want %q", env.Event, wire.DaemonActivateTabRequest)
	}
}

func TestIdentityRejectionClosesConnection(t *testing.T) {
	fb := newFakeBroker()
	fb.accept = false
	s := New(0, fb)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, dialURL(ts), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	conn.Read(ctx) // drain initial request

	payload, _ := wire.Marshal(wire.ExtTabActivated, wire.SingleTabData{ID: 1})
	conn.Write(ctx, websocket.MessageText, payload)

	conn.SetReadLimit(1 << 20)
	_, _, err = conn.Read(ctx)
	if err == nil {
		t.Fatal("expected connection closed after identity rejection")
	}
}
