package wsock

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Opcode identifies a WebSocket frame's payload interpretation (RFC 6455 §5.2).
type Opcode byte

const (
	OpContinuation Opcode = 0x0
	OpText         Opcode = 0x1
	OpBinary       Opcode = 0x2
	OpClose        Opcode = 0x8
	OpPing         Opcode = 0x9
	OpPong         Opcode = 0xA
)

// String returns the string representation of the opcode.
func (o Opcode) String() string {
	switch o {
	case OpContinuation:
		return "Continuation"
	case OpText:
		return "Text"
	case OpBinary:
		return "Binary"
	case OpClose:
		return "Close"
	case OpPing:
		return "Ping"
	case OpPong:
		return "Pong"
	default:
		return fmt.Sprintf("0x%X", byte(o))
	}
}

// Length-field thresholds (RFC 6455 §5.2): payloads below 126 bytes fit in
// the 7-bit field, below 65536 use the 16-bit extension, larger payloads the
// 64-bit extension.
const (
	len16Threshold = 126
	len64Threshold = 65536
)

var (
	// ErrFrameTooShort reports a stream that ended inside a frame.
	ErrFrameTooShort = errors.New("wsock: connection closed mid-frame")
)

// Frame is one WebSocket protocol unit as read off the wire.
type Frame struct {
	Fin     bool
	Opcode  Opcode
	Masked  bool
	MaskKey [4]byte
	Payload []byte
}

// EncodeFrame builds a client→server frame: FIN always set (no fragmentation),
// payload masked with a fresh random 4-byte key. A key is never reused across
// frames; reuse would not break the protocol but weakens the masking's
// cache-poisoning defense.
func EncodeFrame(op Opcode, payload []byte) ([]byte, error) {
	n := len(payload)

	var header []byte
	switch {
	case n < len16Threshold:
		header = []byte{0x80 | byte(op), 0x80 | byte(n)}
	case n < len64Threshold:
		header = make([]byte, 4)
		header[0] = 0x80 | byte(op)
		header[1] = 0x80 | 126
		binary.BigEndian.PutUint16(header[2:], uint16(n))
	default:
		header = make([]byte, 10)
		header[0] = 0x80 | byte(op)
		header[1] = 0x80 | 127
		binary.BigEndian.PutUint64(header[2:], uint64(n))
	}

	var mask [4]byte
	if _, err := rand.Read(mask[:]); err != nil {
		return nil, fmt.Errorf("wsock: masking key: %w", err)
	}

	frame := make([]byte, 0, len(header)+4+n)
	frame = append(frame, header...)
	frame = append(frame, mask[:]...)
	for i, b := range payload {
		frame = append(frame, b^mask[i%4])
	}
	return frame, nil
}

// ReadFrame reads exactly one frame from r: the 2-byte header, any extended
// length, the masking key if present, then the payload. Inbound server frames
// are normally unmasked; a masked frame from a misbehaving peer is unmasked
// transparently.
func ReadFrame(r io.Reader) (*Frame, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, shortRead(err)
	}

	f := &Frame{
		Fin:    hdr[0]&0x80 != 0,
		Opcode: Opcode(hdr[0] & 0x0F),
		Masked: hdr[1]&0x80 != 0,
	}

	length := uint64(hdr[1] & 0x7F)
	switch length {
	case 126:
		var ext [2]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return nil, shortRead(err)
		}
		length = uint64(binary.BigEndian.Uint16(ext[:]))
	case 127:
		var ext [8]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return nil, shortRead(err)
		}
		length = binary.BigEndian.Uint64(ext[:])
	}

	if f.Masked {
		if _, err := io.ReadFull(r, f.MaskKey[:]); err != nil {
			return nil, shortRead(err)
		}
	}

	f.Payload = make([]byte, length)
	if _, err := io.ReadFull(r, f.Payload); err != nil {
		return nil, shortRead(err)
	}
	if f.Masked {
		for i := range f.Payload {
			f.Payload[i] ^= f.MaskKey[i%4]
		}
	}
	return f, nil
}

func shortRead(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrFrameTooShort
	}
	return err
}
