package mbap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Framing constants.
const (
	// HeaderSize is the size of the MBAP header in bytes.
	HeaderSize = 7

	// MaxPDUSize is the maximum PDU length allowed by the Modbus spec.
	MaxPDUSize = 253

	// ProtocolID is the protocol identifier for Modbus; always zero on TCP.
	ProtocolID = 0

	// exceptionBit is set in a response function code to signal an exception PDU.
	exceptionBit = 0x80
)

// FunctionCode identifies the Modbus operation carried by a PDU.
type FunctionCode uint8

const (
	FuncReadCoils              FunctionCode = 0x01
	FuncReadHoldingRegisters   FunctionCode = 0x03
	FuncWriteSingleCoil        FunctionCode = 0x05
	FuncWriteSingleRegister    FunctionCode = 0x06
	FuncWriteMultipleRegisters FunctionCode = 0x10
)

// String returns the string representation of the function code.
func (fc FunctionCode) String() string {
	switch fc {
	case FuncReadCoils:
		return "ReadCoils"
	case FuncReadHoldingRegisters:
		return "ReadHoldingRegisters"
	case FuncWriteSingleCoil:
		return "WriteSingleCoil"
	case FuncWriteSingleRegister:
		return "WriteSingleRegister"
	case FuncWriteMultipleRegisters:
		return "WriteMultipleRegisters"
	default:
		return fmt.Sprintf("0x%02X", uint8(fc))
	}
}

// Framing errors.
var (
	ErrPDUTooLarge         = errors.New("mbap: PDU exceeds 253 bytes")
	ErrShortResponse       = errors.New("mbap: incomplete response")
	ErrTransactionMismatch = errors.New("mbap: response transaction id does not match request")
	ErrBadProtocolID       = errors.New("mbap: non-zero protocol id in response")
)

// ExceptionError is a peer-reported functional error: the response function
// code had its high bit set and the PDU carried an exception code.
type ExceptionError struct {
	Function FunctionCode
	Code     uint8
}

func (e *ExceptionError) Error() string {
	return fmt.Sprintf("mbap: exception 0x%02X from %s", e.Code, e.Function)
}

// Header is the 7-byte MBAP envelope prefixing every Modbus TCP PDU.
//
// Wire format (all fields big-endian):
//
//	┌───────────────┬──────────────┬──────────┬──────────┐
//	│ TransactionID │ ProtocolID=0 │ Length   │ UnitID   │
//	│ (2 bytes)     │ (2 bytes)    │ (2 bytes)│ (1 byte) │
//	└───────────────┴──────────────┴──────────┴──────────┘
//
// Length counts the unit id plus the PDU that follows the header.
type Header struct {
	TransactionID uint16
	ProtocolID    uint16
	Length        uint16
	UnitID        uint8
}

// EncodeFrame builds a complete Modbus TCP frame: MBAP header followed by
// the PDU (function code + data).
func EncodeFrame(transactionID uint16, unitID uint8, pdu []byte) ([]byte, error) {
	if len(pdu) > MaxPDUSize {
		return nil, ErrPDUTooLarge
	}
	frame := make([]byte, HeaderSize+len(pdu))
	binary.BigEndian.PutUint16(frame[0:2], transactionID)
	binary.BigEndian.PutUint16(frame[2:4], ProtocolID)
	binary.BigEndian.PutUint16(frame[4:6], uint16(len(pdu)+1))
	frame[6] = unitID
	copy(frame[HeaderSize:], pdu)
	return frame, nil
}

// ReadFrame reads one complete frame from r: exactly 7 header bytes, then
// exactly Length-1 PDU bytes. A stream that ends early yields ErrShortResponse.
func ReadFrame(r io.Reader) (Header, []byte, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, nil, shortRead(err)
	}

	h := Header{
		TransactionID: binary.BigEndian.Uint16(buf[0:2]),
		ProtocolID:    binary.BigEndian.Uint16(buf[2:4]),
		Length:        binary.BigEndian.Uint16(buf[4:6]),
		UnitID:        buf[6],
	}
	if h.ProtocolID != ProtocolID {
		return Header{}, nil, ErrBadProtocolID
	}
	if h.Length == 0 {
		return Header{}, nil, ErrShortResponse
	}

	pdu := make([]byte, h.Length-1)
	if _, err := io.ReadFull(r, pdu); err != nil {
		return Header{}, nil, shortRead(err)
	}
	return h, pdu, nil
}

// shortRead maps stream-end conditions to ErrShortResponse while leaving
// other transport errors (deadlines, resets) intact.
func shortRead(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrShortResponse
	}
	return err
}
