package gatewaysim

import (
	"encoding/binary"
	"errors"
	"log/slog"
	"net"

	"github.com/dmx-tools/dmxbench/pkg/mbap"
)

// Modbus exception codes returned by the simulator.
const (
	excIllegalFunction = 0x01
	excIllegalAddress  = 0x02
)

// ModbusServer serves the register universe over Modbus TCP, one goroutine
// per connection.
type ModbusServer struct {
	State  *State
	Logger *slog.Logger

	ln net.Listener
}

// Listen binds the listener. Pass "127.0.0.1:0" for an ephemeral port and
// read Addr afterwards.
func (s *ModbusServer) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.ln = ln
	return nil
}

// Addr returns the bound address; only valid after Listen.
func (s *ModbusServer) Addr() string { return s.ln.Addr().String() }

// Serve accepts connections until the listener is closed.
func (s *ModbusServer) Serve() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go s.handleConn(conn)
	}
}

// Close stops the accept loop.
func (s *ModbusServer) Close() error {
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}

func (s *ModbusServer) handleConn(conn net.Conn) {
	defer conn.Close()
	for {
		hdr, pdu, err := mbap.ReadFrame(conn)
		if err != nil {
			return
		}
		resp := s.handlePDU(pdu)
		frame, err := mbap.EncodeFrame(hdr.TransactionID, hdr.UnitID, resp)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Error("encoding response", "err", err)
			}
			return
		}
		if _, err := conn.Write(frame); err != nil {
			return
		}
	}
}

// handlePDU dispatches one request PDU and builds the response PDU.
func (s *ModbusServer) handlePDU(pdu []byte) []byte {
	if len(pdu) == 0 {
		return nil
	}
	fc := mbap.FunctionCode(pdu[0])
	switch fc {
	case mbap.FuncReadHoldingRegisters:
		return s.readRegisters(pdu)
	case mbap.FuncWriteSingleRegister:
		return s.writeSingleRegister(pdu)
	case mbap.FuncWriteMultipleRegisters:
		return s.writeMultipleRegisters(pdu)
	case mbap.FuncReadCoils:
		return s.readCoils(pdu)
	case mbap.FuncWriteSingleCoil:
		return s.writeSingleCoil(pdu)
	default:
		return exception(fc, excIllegalFunction)
	}
}

func exception(fc mbap.FunctionCode, code uint8) []byte {
	return []byte{uint8(fc) | 0x80, code}
}

func (s *ModbusServer) readRegisters(pdu []byte) []byte {
	if len(pdu) < 5 {
		return exception(mbap.FuncReadHoldingRegisters, excIllegalAddress)
	}
	addr := binary.BigEndian.Uint16(pdu[1:3])
	count := binary.BigEndian.Uint16(pdu[3:5])
	values, ok := s.State.ReadRegisters(addr, count)
	if !ok || count == 0 || count > 125 {
		return exception(mbap.FuncReadHoldingRegisters, excIllegalAddress)
	}
	resp := make([]byte, 2+2*len(values))
	resp[0] = uint8(mbap.FuncReadHoldingRegisters)
	resp[1] = uint8(2 * len(values))
	for i, v := range values {
		binary.BigEndian.PutUint16(resp[2+2*i:], v)
	}
	return resp
}

func (s *ModbusServer) writeSingleRegister(pdu []byte) []byte {
	if len(pdu) < 5 {
		return exception(mbap.FuncWriteSingleRegister, excIllegalAddress)
	}
	addr := binary.BigEndian.Uint16(pdu[1:3])
	value := binary.BigEndian.Uint16(pdu[3:5])
	if !s.State.WriteRegisters(addr, []uint16{value}) {
		return exception(mbap.FuncWriteSingleRegister, excIllegalAddress)
	}
	// Response echoes the request.
	return append([]byte(nil), pdu[:5]...)
}

func (s *ModbusServer) writeMultipleRegisters(pdu []byte) []byte {
	if len(pdu) < 6 {
		return exception(mbap.FuncWriteMultipleRegisters, excIllegalAddress)
	}
	addr := binary.BigEndian.Uint16(pdu[1:3])
	count := binary.BigEndian.Uint16(pdu[3:5])
	byteCount := int(pdu[5])
	if byteCount != 2*int(count) || len(pdu) < 6+byteCount {
		return exception(mbap.FuncWriteMultipleRegisters, excIllegalAddress)
	}
	values := make([]uint16, count)
	for i := range values {
		values[i] = binary.BigEndian.Uint16(pdu[6+2*i:])
	}
	if !s.State.WriteRegisters(addr, values) {
		return exception(mbap.FuncWriteMultipleRegisters, excIllegalAddress)
	}
	resp := make([]byte, 5)
	resp[0] = uint8(mbap.FuncWriteMultipleRegisters)
	binary.BigEndian.PutUint16(resp[1:3], addr)
	binary.BigEndian.PutUint16(resp[3:5], count)
	return resp
}

func (s *ModbusServer) readCoils(pdu []byte) []byte {
	if len(pdu) < 5 {
		return exception(mbap.FuncReadCoils, excIllegalAddress)
	}
	addr := binary.BigEndian.Uint16(pdu[1:3])
	count := binary.BigEndian.Uint16(pdu[3:5])
	coils, ok := s.State.ReadCoils(addr, count)
	if !ok || count == 0 {
		return exception(mbap.FuncReadCoils, excIllegalAddress)
	}
	byteCount := (len(coils) + 7) / 8
	resp := make([]byte, 2+byteCount)
	resp[0] = uint8(mbap.FuncReadCoils)
	resp[1] = uint8(byteCount)
	for i, on := range coils {
		if on {
			resp[2+i/8] |= 1 << (i % 8)
		}
	}
	return resp
}

func (s *ModbusServer) writeSingleCoil(pdu []byte) []byte {
	if len(pdu) < 5 {
		return exception(mbap.FuncWriteSingleCoil, excIllegalAddress)
	}
	addr := binary.BigEndian.Uint16(pdu[1:3])
	value := binary.BigEndian.Uint16(pdu[3:5])
	if value != 0xFF00 && value != 0x0000 {
		return exception(mbap.FuncWriteSingleCoil, excIllegalAddress)
	}
	if !s.State.WriteCoil(addr, value == 0xFF00) {
		return exception(mbap.FuncWriteSingleCoil, excIllegalAddress)
	}
	return append([]byte(nil), pdu[:5]...)
}
