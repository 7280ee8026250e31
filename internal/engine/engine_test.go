package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/0000mz/lotab/internal/config"
)

type fakeHotkey struct {
	ch chan struct{}
}

func (f *fakeHotkey) Toggle() <-chan struct{} { return f.ch }

func testConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.UdsSocketPath = filepath.Join(t.TempDir(), "daemon.sock")
	cfg.ExtensionWsPort = 0
	return cfg
}

func TestRunStopsOnContextCancel(t *testing.T) {
	e := New(testConfig(t), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after context cancel")
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	e := New(testConfig(t), Options{})
	if err := e.uds.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	e.cancel = func() {}
	e.Shutdown()
	e.Shutdown()
}

func TestRunWithHotkeyToggleStopsOnContextCancel(t *testing.T) {
	hk := &fakeHotkey{ch: make(chan struct{}, 1)}
	e := New(testConfig(t), Options{Hotkey: hk})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	hk.ch <- struct{}{}
	time.Sleep(100 * time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after context cancel")
	}
}
