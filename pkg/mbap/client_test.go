package mbap

import (
	"encoding/binary"
	"errors"
	"net"
	"testing"
	"time"
)

// fakeServer answers each incoming frame with respond(request header, request PDU).
// A nil reply closes the connection without answering.
func fakeServer(t *testing.T, respond func(h Header, pdu []byte) []byte) *Client {
	t.Helper()

	client, server := net.Pipe()
	go func() {
		defer server.Close()
		for {
			h, pdu, err := ReadFrame(server)
			if err != nil {
				return
			}
			reply := respond(h, pdu)
			if reply == nil {
				return
			}
			frame, err := EncodeFrame(h.TransactionID, h.UnitID, reply)
			if err != nil {
				return
			}
			if _, err := server.Write(frame); err != nil {
				return
			}
		}
	}()

	c := NewClient(client, time.Second)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestReadHoldingRegisters(t *testing.T) {
	c := fakeServer(t, func(h Header, pdu []byte) []byte {
		if FunctionCode(pdu[0]) != FuncReadHoldingRegisters {
			t.Errorf("function code = 0x%02X", pdu[0])
		}
		count := binary.BigEndian.Uint16(pdu[3:5])
		reply := make([]byte, 2+count*2)
		reply[0] = byte(FuncReadHoldingRegisters)
		reply[1] = byte(count * 2)
		for i := uint16(0); i < count; i++ {
			binary.BigEndian.PutUint16(reply[2+i*2:], 100+i)
		}
		return reply
	})

	values, err := c.ReadHoldingRegisters(10, 3)
	if err != nil {
		t.Fatalf("ReadHoldingRegisters() error = %v", err)
	}
	want := []uint16{100, 101, 102}
	for i, v := range want {
		if values[i] != v {
			t.Errorf("values[%d] = %d, want %d", i, values[i], v)
		}
	}
}

func TestWriteMultipleRegistersEncoding(t *testing.T) {
	var captured []byte
	c := fakeServer(t, func(h Header, pdu []byte) []byte {
		captured = append([]byte(nil), pdu...)
		// Echo address + quantity, the standard 0x10 response.
		return append([]byte{byte(FuncWriteMultipleRegisters)}, pdu[1:5]...)
	})

	if err := c.WriteMultipleRegisters(0, []uint16{255, 0, 128, 64}); err != nil {
		t.Fatalf("WriteMultipleRegisters() error = %v", err)
	}

	// PDU: fc, addr(2), count(2), byteCount, then big-endian values.
	if FunctionCode(captured[0]) != FuncWriteMultipleRegisters {
		t.Errorf("function code = 0x%02X", captured[0])
	}
	if got := binary.BigEndian.Uint16(captured[3:5]); got != 4 {
		t.Errorf("count = %d, want 4", got)
	}
	if captured[5] != 8 {
		t.Errorf("byte count = %d, want 8", captured[5])
	}
	if got := binary.BigEndian.Uint16(captured[6:8]); got != 255 {
		t.Errorf("values[0] = %d, want 255", got)
	}
	if got := binary.BigEndian.Uint16(captured[10:12]); got != 128 {
		t.Errorf("values[2] = %d, want 128", got)
	}
}

func TestReadCoilsBitUnpack(t *testing.T) {
	c := fakeServer(t, func(h Header, pdu []byte) []byte {
		// 10 coils: 0b00000101, 0b00000010 → coils 0, 2, 9 set.
		return []byte{byte(FuncReadCoils), 2, 0x05, 0x02}
	})

	coils, err := c.ReadCoils(0, 10)
	if err != nil {
		t.Fatalf("ReadCoils() error = %v", err)
	}
	want := []bool{true, false, true, false, false, false, false, false, false, true}
	for i := range want {
		if coils[i] != want[i] {
			t.Errorf("coils[%d] = %v, want %v", i, coils[i], want[i])
		}
	}
}

func TestWriteSingleCoilEncoding(t *testing.T) {
	tests := []struct {
		name string
		on   bool
		want uint16
	}{
		{name: "on", on: true, want: 0xFF00},
		{name: "off", on: false, want: 0x0000},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured []byte
			c := fakeServer(t, func(h Header, pdu []byte) []byte {
				captured = append([]byte(nil), pdu...)
				return append([]byte(nil), pdu...) // echo
			})
			if err := c.WriteSingleCoil(3, tc.on); err != nil {
				t.Fatalf("WriteSingleCoil() error = %v", err)
			}
			if got := binary.BigEndian.Uint16(captured[3:5]); got != tc.want {
				t.Errorf("coil value = 0x%04X, want 0x%04X", got, tc.want)
			}
		})
	}
}

func TestExceptionResponse(t *testing.T) {
	c := fakeServer(t, func(h Header, pdu []byte) []byte {
		return []byte{pdu[0] | 0x80, 0x02} // illegal data address
	})

	_, err := c.ReadHoldingRegisters(9999, 1)
	var exc *ExceptionError
	if !errors.As(err, &exc) {
		t.Fatalf("error = %v, want ExceptionError", err)
	}
	if exc.Code != 0x02 {
		t.Errorf("exception code = 0x%02X, want 0x02", exc.Code)
	}
	if exc.Function != FuncReadHoldingRegisters {
		t.Errorf("exception function = %v", exc.Function)
	}
}

func TestTransactionIDMismatch(t *testing.T) {
	client, server := net.Pipe()
	go func() {
		defer server.Close()
		h, pdu, err := ReadFrame(server)
		if err != nil {
			return
		}
		frame, _ := EncodeFrame(h.TransactionID+1, h.UnitID, []byte{pdu[0], 2, 0, 0})
		server.Write(frame)
	}()

	c := NewClient(client, time.Second)
	defer c.Close()
	if _, err := c.ReadHoldingRegisters(0, 1); !errors.Is(err, ErrTransactionMismatch) {
		t.Fatalf("error = %v, want ErrTransactionMismatch", err)
	}
}

func TestServerClosesMidResponse(t *testing.T) {
	client, server := net.Pipe()
	go func() {
		h, _, err := ReadFrame(server)
		if err != nil {
			server.Close()
			return
		}
		frame, _ := EncodeFrame(h.TransactionID, h.UnitID, []byte{0x03, 2, 0, 0})
		server.Write(frame[:HeaderSize+1]) // header + first PDU byte, then hang up
		server.Close()
	}()

	c := NewClient(client, time.Second)
	defer c.Close()
	if _, err := c.ReadHoldingRegisters(0, 1); !errors.Is(err, ErrShortResponse) {
		t.Fatalf("error = %v, want ErrShortResponse", err)
	}
}

func TestTransactionCounterWraps(t *testing.T) {
	seen := make([]uint16, 0, 3)
	c := fakeServer(t, func(h Header, pdu []byte) []byte {
		seen = append(seen, h.TransactionID)
		return append([]byte(nil), pdu...) // echo for write single register
	})
	c.txnID = 0xFFFE

	for i := 0; i < 3; i++ {
		if err := c.WriteSingleRegister(0, uint16(i)); err != nil {
			t.Fatalf("WriteSingleRegister() error = %v", err)
		}
	}
	want := []uint16{0xFFFF, 0x0000, 0x0001}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("txn[%d] = %d, want %d", i, seen[i], want[i])
		}
	}
}
