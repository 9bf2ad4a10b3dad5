// Package transport implements the RFC 5734 data unit framing and the TLS
// connection that carries it.
package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// HeaderSize is the length of the total-length prefix.
	HeaderSize = 4

	// MaxFrameSize bounds a frame including its header. Registries send info
	// responses well under this; anything larger is treated as a broken peer.
	MaxFrameSize = 16 << 20
)

var (
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")
	ErrFrameTooShort = errors.New("frame shorter than its header")
)

// ReadFrame reads one data unit and returns its payload. The length prefix
// counts itself.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}
	total := binary.BigEndian.Uint32(header[:])
	if total < HeaderSize {
		return nil, fmt.Errorf("%w: length %d", ErrFrameTooShort, total)
	}
	if total > MaxFrameSize {
		return nil, fmt.Errorf("%w: length %d exceeds %d", ErrFrameTooLarge, total, MaxFrameSize)
	}
	payload := make([]byte, total-HeaderSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload: %w", err)
	}
	return payload, nil
}

// WriteFrame writes payload as one data unit in a single write.
func WriteFrame(w io.Writer, payload []byte) error {
	total := len(payload) + HeaderSize
	if total > MaxFrameSize {
		return fmt.Errorf("%w: length %d exceeds %d", ErrFrameTooLarge, total, MaxFrameSize)
	}
	buf := make([]byte, total)
	binary.BigEndian.PutUint32(buf, uint32(total))
	copy(buf[HeaderSize:], payload)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
