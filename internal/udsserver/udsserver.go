// Package udsserver implements the GUI-UDS server (spec.md §4.5): a
// Unix-domain-socket listener accepting exactly one GUI client at a
// time, length-prefix framed in both directions. Grounded on the
// bind/unlink-stale-socket and serial-accept-loop pattern used by the
// X11 surrogate proxy in other_examples/ (no UDS code exists in the
// teacher, which never talks to a local socket).
package udsserver

import (
	"encoding/json"
	"errors"
	"net"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/0000mz/lotab/internal/applog"
	"github.com/0000mz/lotab/internal/frame"
	"github.com/0000mz/lotab/internal/wire"
)

// IntentHandler receives one parsed GUI-UDS intent.
type IntentHandler func(event string, data json.RawMessage)

// Server is the GUI-UDS listener. A single Server instance owns at most
// one live GUI connection; a second incoming connection replaces the
// first (spec.md §9 open question, resolved: new connection wins).
type Server struct {
	log        *applog.Logger
	socketPath string
	maxFrame   int
	onIntent   IntentHandler

	listener net.Listener

	connMu sync.Mutex
	conn   net.Conn

	writeMu sync.Mutex

	stopped chan struct{}
}

// New returns a Server bound to socketPath (not yet listening).
// onIntent is invoked from the server's read goroutine for every
// well-formed GUI-UDS message.
func New(socketPath string, onIntent IntentHandler) *Server {
	return &Server{
		log:        applog.New("udsserver"),
		socketPath: socketPath,
		maxFrame:   frame.DefaultMaxSize,
		onIntent:   onIntent,
		stopped:    make(chan struct{}),
	}
}

// Start removes any stale socket file left by a prior, unclean shutdown
// and begins accepting connections in the background.
func (s *Server) Start() error {
	os.Remove(s.socketPath)

	l, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return err
	}
	s.listener = l

	go s.acceptLoop()
	return nil
}

// Stop closes the listener and any live connection, and unlinks the
// socket file.
func (s *Server) Stop() {
	select {
	case <-s.stopped:
		return
	default:
		close(s.stopped)
	}
	if s.listener != nil {
		s.listener.Close()
	}
	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()
	os.Remove(s.socketPath)
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopped:
				return
			default:
				s.log.Error("accept_failed", err)
				return
			}
		}

		connID := uuid.NewString()
		s.log.Info("gui.connected", "conn_id", connID)
		s.adopt(conn)
		go s.readLoop(conn, connID)
	}
}

// adopt installs conn as the current GUI connection, closing and
// discarding any previous one (replace-on-reconnect policy).
func (s *Server) adopt(conn net.Conn) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.conn = conn
}

func (s *Server) readLoop(conn net.Conn, connID string) {
	defer func() {
		conn.Close()
		s.connMu.Lock()
		if s.conn == conn {
			s.conn = nil
		}
		s.connMu.Unlock()
		s.log.Info("gui.disconnected", "conn_id", connID)
	}()

	for {
		payload, err := frame.Decode(conn, s.maxFrame)
		if err != nil {
			if !errors.Is(err, frame.ErrClosed) {
				s.log.Warn("gui.frame_error", "conn_id", connID, "err", err.Error())
			}
			return
		}

		var env wire.Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			s.log.Warn("gui.malformed_message", "conn_id", connID)
			continue
		}
		if s.onIntent != nil {
			s.onIntent(env.Event, env.Data)
		}
	}
}

// Send writes payload, already a wire.Envelope-shaped frame body, to
// the current GUI connection. Returns an error if no GUI is connected.
func (s *Server) Send(payload []byte) error {
	s.connMu.Lock()
	conn := s.conn
	s.connMu.Unlock()
	if conn == nil {
		return errors.New("udsserver: no GUI connected")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return frame.WriteFrame(conn, payload)
}

// Connected reports whether a GUI client is currently attached.
func (s *Server) Connected() bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return s.conn != nil
}
