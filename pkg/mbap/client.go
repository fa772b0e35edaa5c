package mbap

import (
	"encoding/binary"
	"fmt"
	"net"
	"time"
)

// Client is a minimal Modbus TCP master over a single connection.
//
// It supports exactly the function codes the DMX gateway exposes and keeps
// one request in flight at a time. A Client is not safe for concurrent use;
// each load worker owns its own connection and transaction counter.
type Client struct {
	conn    net.Conn
	timeout time.Duration
	unitID  uint8
	txnID   uint16
}

// Dial connects to a Modbus TCP server. The timeout applies to the connect
// and to every subsequent request/response exchange.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("mbap: connect %s: %w", addr, err)
	}
	return &Client{conn: conn, timeout: timeout, unitID: 1}, nil
}

// NewClient wraps an existing connection, mainly for tests.
func NewClient(conn net.Conn, timeout time.Duration) *Client {
	return &Client{conn: conn, timeout: timeout, unitID: 1}
}

// SetUnitID changes the unit identifier sent with every request (default 1).
func (c *Client) SetUnitID(id uint8) { c.unitID = id }

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// roundTrip sends one PDU and blocks for the matching response PDU.
// The transaction counter wraps at 65536; the response must echo it.
func (c *Client) roundTrip(fc FunctionCode, data []byte) ([]byte, error) {
	c.txnID++
	txn := c.txnID

	pdu := make([]byte, 1+len(data))
	pdu[0] = byte(fc)
	copy(pdu[1:], data)

	frame, err := EncodeFrame(txn, c.unitID, pdu)
	if err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			return nil, err
		}
	}
	if _, err := c.conn.Write(frame); err != nil {
		return nil, fmt.Errorf("mbap: write %s: %w", fc, err)
	}

	h, resp, err := ReadFrame(c.conn)
	if err != nil {
		return nil, err
	}
	if h.TransactionID != txn {
		return nil, ErrTransactionMismatch
	}
	if len(resp) == 0 {
		return nil, ErrShortResponse
	}
	if resp[0]&exceptionBit != 0 {
		if len(resp) < 2 {
			return nil, ErrShortResponse
		}
		return nil, &ExceptionError{Function: fc, Code: resp[1]}
	}
	return resp, nil
}

// ReadHoldingRegisters reads count 16-bit registers starting at addr (FC 0x03).
func (c *Client) ReadHoldingRegisters(addr, count uint16) ([]uint16, error) {
	var data [4]byte
	binary.BigEndian.PutUint16(data[0:2], addr)
	binary.BigEndian.PutUint16(data[2:4], count)

	resp, err := c.roundTrip(FuncReadHoldingRegisters, data[:])
	if err != nil {
		return nil, err
	}
	// Response PDU: fc(1) + byte count(1) + 2*count value bytes.
	if len(resp) < 2 || len(resp) < 2+int(count)*2 {
		return nil, ErrShortResponse
	}
	values := make([]uint16, count)
	for i := range values {
		values[i] = binary.BigEndian.Uint16(resp[2+i*2 : 4+i*2])
	}
	return values, nil
}

// WriteSingleRegister writes one 16-bit register (FC 0x06). The response is
// an echo of the request; only the absence of an exception is checked.
func (c *Client) WriteSingleRegister(addr, value uint16) error {
	var data [4]byte
	binary.BigEndian.PutUint16(data[0:2], addr)
	binary.BigEndian.PutUint16(data[2:4], value)
	_, err := c.roundTrip(FuncWriteSingleRegister, data[:])
	return err
}

// WriteMultipleRegisters writes a contiguous block of registers (FC 0x10).
func (c *Client) WriteMultipleRegisters(addr uint16, values []uint16) error {
	count := len(values)
	data := make([]byte, 5+count*2)
	binary.BigEndian.PutUint16(data[0:2], addr)
	binary.BigEndian.PutUint16(data[2:4], uint16(count))
	data[4] = byte(count * 2)
	for i, v := range values {
		binary.BigEndian.PutUint16(data[5+i*2:7+i*2], v)
	}
	_, err := c.roundTrip(FuncWriteMultipleRegisters, data)
	return err
}

// ReadCoils reads count single-bit coils starting at addr (FC 0x01).
// Coil i is bit i%8 of response byte i/8.
func (c *Client) ReadCoils(addr, count uint16) ([]bool, error) {
	var data [4]byte
	binary.BigEndian.PutUint16(data[0:2], addr)
	binary.BigEndian.PutUint16(data[2:4], count)

	resp, err := c.roundTrip(FuncReadCoils, data[:])
	if err != nil {
		return nil, err
	}
	// Response PDU: fc(1) + byte count(1) + bit-packed coil bytes.
	need := 2 + (int(count)+7)/8
	if len(resp) < need {
		return nil, ErrShortResponse
	}
	coils := make([]bool, count)
	for i := range coils {
		coils[i] = resp[2+i/8]&(1<<(i%8)) != 0
	}
	return coils, nil
}

// WriteSingleCoil writes one coil (FC 0x05); on is encoded as 0xFF00, off as 0x0000.
func (c *Client) WriteSingleCoil(addr uint16, on bool) error {
	var data [4]byte
	binary.BigEndian.PutUint16(data[0:2], addr)
	if on {
		binary.BigEndian.PutUint16(data[2:4], 0xFF00)
	}
	_, err := c.roundTrip(FuncWriteSingleCoil, data[:])
	return err
}
