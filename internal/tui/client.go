package tui

import (
	"encoding/json"
	"net"
	"time"

	"github.com/0000mz/lotab/internal/frame"
	"github.com/0000mz/lotab/internal/wire"
)

// daemonClient owns the GUI-UDS connection to lotabd, mirroring the
// teacher's *server.Server (internal/server/server.go) but from the
// client side: dial-with-retry instead of accept, a channel of parsed
// envelopes instead of IncomingMsg.
type daemonClient struct {
	conn net.Conn
	msgs chan wire.Envelope
}

// dialDaemon connects to path, retrying five times with a 1s back-off
// (spec.md §5's startup retry policy) before giving up.
func dialDaemon(path string) (*daemonClient, error) {
	var lastErr error
	var conn net.Conn
	for attempt := 0; attempt < 5; attempt++ {
		c, err := net.Dial("unix", path)
		if err == nil {
			conn = c
			break
		}
		lastErr = err
		time.Sleep(time.Second)
	}
	if conn == nil {
		return nil, lastErr
	}

	c := &daemonClient{conn: conn, msgs: make(chan wire.Envelope, 64)}
	go c.readLoop()
	return c, nil
}

func (c *daemonClient) readLoop() {
	defer close(c.msgs)
	for {
		payload, err := frame.Decode(c.conn, frame.DefaultMaxSize)
		if err != nil {
			return
		}
		var env wire.Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			continue
		}
		c.msgs <- env
	}
}

func (c *daemonClient) send(event string, v any) error {
	payload, err := wire.Marshal(event, v)
	if err != nil {
		return err
	}
	return frame.WriteFrame(c.conn, payload)
}

func (c *daemonClient) close() {
	c.conn.Close()
}
