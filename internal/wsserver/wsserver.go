// Package wsserver implements the extension-WS server (spec.md §4.6):
// an HTTP-upgrade WebSocket endpoint accepting the browser extension's
// connection, adapted directly from the teacher's internal/server
// (internal/server/server.go in the teacher) onto the new domain's
// event shapes and the broker's pending-mailbox wakeup model.
package wsserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"github.com/0000mz/lotab/internal/applog"
)

// BrowserIDHeader is the HTTP header the extension sets during the
// WebSocket handshake to identify itself to the identity filter
// (spec.md §4.7). Not part of the distilled spec's wire tables — this
// package's own choice, since some header must carry it across the
// HTTP upgrade.
const BrowserIDHeader = "X-Lotab-Browser-Id"

// BrokerSink is the subset of *broker.Broker this server depends on,
// mirroring broker.GUISender's decoupling so neither package imports
// the other; engine wires the concrete broker in.
type BrokerSink interface {
	HandleExtensionMessage(raw []byte, browserID string) (accepted bool)
	InitialExtensionRequest() []byte
	WakeExtension() <-chan struct{}
	DrainPending() []byte
}

// Server is the extension-WS listener.
type Server struct {
	log    *applog.Logger
	port   int
	broker BrokerSink

	mu      sync.Mutex
	conn    *websocket.Conn
	connCtx context.Context

	writeMu sync.Mutex

	httpSrv *http.Server
}

// New returns a Server listening on port, driven by broker.
func New(port int, broker BrokerSink) *Server {
	return &Server{
		log:    applog.New("wsserver"),
		port:   port,
		broker: broker,
	}
}

// Connected reports whether an extension is currently connected.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

func (s *Server) currentConn() (*websocket.Conn, context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn, s.connCtx
}

// writeFrame serializes writes against the current connection; it is
// safe to call from both the read handler's accept path and the
// dedicated writer goroutine.
func (s *Server) writeFrame(ctx context.Context, conn *websocket.Conn, payload []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return conn.Write(ctx, websocket.MessageText, payload)
}

// Handler returns the http.Handler performing the WebSocket upgrade.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			s.log.Error("accept_failed", err)
			return
		}
		conn.SetReadLimit(16 << 20)

		browserID := r.Header.Get(BrowserIDHeader)
		ctx := r.Context()

		s.mu.Lock()
		if s.conn != nil {
			s.log.Info("extension.replaced")
			s.conn.CloseNow()
		}
		s.conn = conn
		s.connCtx = ctx
		s.mu.Unlock()

		connID := uuid.NewString()
		s.log.Info("extension.connected", "conn_id", connID, "remote", r.RemoteAddr)

		cancelWriter := make(chan struct{})
		go s.writerLoop(ctx, conn, cancelWriter)

		defer func() {
			close(cancelWriter)
			s.mu.Lock()
			if s.conn == conn {
				s.conn = nil
				s.connCtx = nil
			}
			s.mu.Unlock()
			conn.CloseNow()
			s.log.Info("extension.disconnected", "conn_id", connID)
		}()

		if initial := s.broker.InitialExtensionRequest(); initial != nil {
			if err := s.writeFrame(ctx, conn, initial); err != nil {
				s.log.Error("initial_request_failed", err, "conn_id", connID)
				return
			}
		}

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			if !s.broker.HandleExtensionMessage(data, browserID) {
				s.log.Warn("extension.identity_rejected", "conn_id", connID)
				return
			}
		}
	})
}

// writerLoop is the ServerWritable/WaitCancelled stand-in described in
// DESIGN.md: it blocks on the broker's wake channel and drains the
// single-slot pending mailbox whenever the broker arms it, until the
// connection handler signals cancel.
func (s *Server) writerLoop(ctx context.Context, conn *websocket.Conn, cancel <-chan struct{}) {
	wake := s.broker.WakeExtension()
	for {
		select {
		case <-cancel:
			return
		case <-ctx.Done():
			return
		case <-wake:
			payload := s.broker.DrainPending()
			if payload == nil {
				continue
			}
			if err := s.writeFrame(ctx, conn, payload); err != nil {
				s.log.Error("write_failed", err)
				return
			}
		}
	}
}

// ListenAndServe starts the HTTP server on the configured port, and
// blocks until ctx is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/", s.Handler())

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	s.log.Info("listen", "addr", addr)
	srv := &http.Server{Addr: addr, Handler: mux}
	s.httpSrv = srv

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		if s.conn != nil {
			s.conn.CloseNow()
		}
		s.mu.Unlock()
		srv.Close()
	}()

	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
