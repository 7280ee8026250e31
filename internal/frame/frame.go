// Package frame implements the length-prefixed byte framing used by
// the GUI-UDS transport (spec.md §4.1): a 4-byte little-endian unsigned
// length followed by that many payload bytes.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// DefaultMaxSize is the ceiling on a single frame's payload, chosen to
// comfortably hold a TabsUpdate/TasksUpdate snapshot for hundreds of
// tabs while still rejecting a corrupt or hostile length header.
const DefaultMaxSize = 64 * 1024

const headerLen = 4

var (
	// ErrClosed means the peer closed the connection cleanly between
	// frames (zero bytes read where a new header was expected).
	ErrClosed = errors.New("frame: connection closed")
	// ErrPartial means the connection closed mid-frame, after the
	// header but before the full payload arrived.
	ErrPartial = errors.New("frame: connection closed mid-frame")
	// ErrTooLarge means the decoded length header exceeds the configured
	// maximum; the connection should be treated as unusable afterward
	// since the stream position is no longer frame-aligned.
	ErrTooLarge = errors.New("frame: declared length exceeds maximum")
)

// Encode returns the wire representation of payload: a 4-byte
// little-endian length prefix followed by payload itself.
func Encode(payload []byte) []byte {
	buf := make([]byte, headerLen+len(payload))
	binary.LittleEndian.PutUint32(buf[:headerLen], uint32(len(payload)))
	copy(buf[headerLen:], payload)
	return buf
}

// WriteFrame encodes payload and writes it to w in a single Write call,
// so that concurrent writers serialized only by a mutex (not by the
// connection itself) can't interleave partial frames.
func WriteFrame(w io.Writer, payload []byte) error {
	_, err := w.Write(Encode(payload))
	return err
}

// Decode reads exactly one frame from r: a 4-byte little-endian length
// header, rejected if it exceeds maxSize, followed by that many payload
// bytes. maxSize <= 0 selects DefaultMaxSize.
func Decode(r io.Reader, maxSize int) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	var header [headerLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrClosed
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrPartial
		}
		return nil, fmt.Errorf("frame: read header: %w", err)
	}

	length := binary.LittleEndian.Uint32(header[:])
	if int(length) > maxSize {
		return nil, ErrTooLarge
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrPartial
		}
		return nil, fmt.Errorf("frame: read payload: %w", err)
	}
	return payload, nil
}
