package udsserver

import (
	"encoding/json"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/0000mz/lotab/internal/frame"
	"github.com/0000mz/lotab/internal/wire"
)

func socketPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "daemon.sock")
}

func TestStartAcceptsConnectionAndRoutesIntent(t *testing.T) {
	var mu sync.Mutex
	var got []string
	done := make(chan struct{}, 1)

	s := New(socketPath(t), func(event string, data json.RawMessage) {
		mu.Lock()
		got = append(got, event)
		mu.Unlock()
		done <- struct{}{}
	})
	path := s.socketPath
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	payload, _ := wire.Marshal(wire.GUITabSelected, wire.TabSelectedData{TabID: 7})
	if err := frame.WriteFrame(conn, payload); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for intent handler")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != wire.GUITabSelected {
		t.Fatalf("got = %v, want [%s]", got, wire.GUITabSelected)
	}
}

func TestSendWithoutConnectionErrors(t *testing.T) {
	s := New(socketPath(t), nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	if err := s.Send([]byte("x")); err == nil {
		t.Fatal("expected error sending with no GUI connected")
	}
	if s.Connected() {
		t.Fatal("expected Connected() false")
	}
}

func TestSecondConnectionReplacesFirst(t *testing.T) {
	s := New(socketPath(t), func(string, json.RawMessage) {})
	path := s.socketPath
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	first, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer first.Close()
	time.Sleep(50 * time.Millisecond)

	second, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer second.Close()
	time.Sleep(50 * time.Millisecond)

	buf := make([]byte, 1)
	first.SetReadDeadline(time.Now().Add(time.Second))
	_, err = first.Read(buf)
	if err == nil {
		t.Fatal("expected first connection closed after second connects")
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		t.Fatal("first connection still open after second connects (read timed out)")
	}
}

func TestStopUnblocksAccept(t *testing.T) {
	s := New(socketPath(t), nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop()
	// Stop should be idempotent.
	s.Stop()
}
