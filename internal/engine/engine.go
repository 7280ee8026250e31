// Package engine wires together the broker and both transport servers
// into the daemon's lifecycle (spec.md §5's Cancellation paragraph),
// using golang.org/x/sync/errgroup for goroutine coordination.
package engine

import (
	"context"
	"fmt"
	"os/exec"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/0000mz/lotab/internal/applog"
	"github.com/0000mz/lotab/internal/broker"
	"github.com/0000mz/lotab/internal/config"
	"github.com/0000mz/lotab/internal/hotkey"
	"github.com/0000mz/lotab/internal/identity"
	"github.com/0000mz/lotab/internal/udsserver"
	"github.com/0000mz/lotab/internal/wsserver"
)

// Options configures an Engine beyond what config.Config carries.
type Options struct {
	AllowedBrowserID string
	AppPath          string // GUI executable to spawn; empty means none
	Hotkey           hotkey.Source
}

// Engine owns the broker, both transport servers, and (optionally) the
// spawned GUI process, and drives their combined lifecycle.
type Engine struct {
	log     *applog.Logger
	cfg     config.Config
	opts    Options
	broker  *broker.Broker
	uds     *udsserver.Server
	ws      *wsserver.Server
	guiProc *exec.Cmd

	destroyed atomic.Bool
	cancel    context.CancelFunc
}

// New constructs an Engine ready to Run. Nothing is started yet.
func New(cfg config.Config, opts Options) *Engine {
	allowed := opts.AllowedBrowserID
	if allowed == "" {
		allowed = cfg.AllowedBrowserID
	}
	b := broker.New(identity.New(allowed))
	uds := udsserver.New(cfg.UdsSocketPath, b.HandleGUIIntent)
	b.SetGUISink(uds)
	ws := wsserver.New(cfg.ExtensionWsPort, b)

	return &Engine{
		log:    applog.New("engine"),
		cfg:    cfg,
		opts:   opts,
		broker: b,
		uds:    uds,
		ws:     ws,
	}
}

// Run starts the UDS server, the WS server, and (if configured) the
// hotkey loop and GUI process, and blocks until ctx is cancelled or one
// of them fails. It always performs Shutdown before returning.
func (e *Engine) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	defer e.Shutdown()

	if err := e.uds.Start(); err != nil {
		return fmt.Errorf("start uds server: %w", err)
	}

	if e.opts.AppPath != "" {
		if err := e.spawnGUI(); err != nil {
			return fmt.Errorf("spawn gui: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return e.ws.ListenAndServe(gctx)
	})
	if e.opts.Hotkey != nil {
		g.Go(func() error {
			return e.hotkeyLoop(gctx)
		})
	}

	return g.Wait()
}

func (e *Engine) spawnGUI() error {
	cmd := exec.Command(e.opts.AppPath)
	if err := cmd.Start(); err != nil {
		return err
	}
	e.guiProc = cmd
	e.log.Info("gui.spawned", "path", e.opts.AppPath, "pid", cmd.Process.Pid)
	return nil
}

func (e *Engine) hotkeyLoop(ctx context.Context) error {
	ch := e.opts.Hotkey.Toggle()
	if ch == nil {
		<-ctx.Done()
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ch:
			e.broker.HandleHotkeyToggle()
		}
	}
}

// Shutdown tears the engine down in the order spec.md §5 specifies:
// terminate the spawned GUI process, cancel the transport servers, then
// release the UDS socket. Idempotent via a single atomic flag.
func (e *Engine) Shutdown() {
	if !e.destroyed.CompareAndSwap(false, true) {
		return
	}

	if e.guiProc != nil && e.guiProc.Process != nil {
		e.guiProc.Process.Kill()
		e.guiProc.Wait()
	}

	if e.cancel != nil {
		e.cancel()
	}

	e.uds.Stop()
	e.log.Info("shutdown.complete")
}
