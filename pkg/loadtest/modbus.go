package loadtest

import (
	"context"
	"fmt"
	"time"

	"github.com/dmx-tools/dmxbench/pkg/mbap"
)

// ModbusMode selects which register operations a Modbus workload issues.
type ModbusMode string

const (
	ModbusRead  ModbusMode = "read"
	ModbusWrite ModbusMode = "write"
	ModbusCoil  ModbusMode = "coil"
	ModbusMixed ModbusMode = "mixed"
)

// registerSpace is the gateway's holding-register window (one per DMX channel).
const registerSpace = 512

// ModbusWorkload drives one Modbus TCP session. The operation mix is
// deterministic in the operation index, so two runs with the same request
// count issue the same sequence.
type ModbusWorkload struct {
	Target  string
	Mode    ModbusMode
	Timeout time.Duration

	client *mbap.Client
}

func (w *ModbusWorkload) Name() string { return "modbus/" + string(w.Mode) }

func (w *ModbusWorkload) Setup(ctx context.Context, _ *Stats) error {
	client, err := mbap.Dial(w.Target, w.Timeout)
	if err != nil {
		return err
	}
	w.client = client
	return nil
}

func (w *ModbusWorkload) Op(_ context.Context, i int, _ *Stats) error {
	switch w.Mode {
	case ModbusRead:
		_, err := w.client.ReadHoldingRegisters(uint16(i%registerSpace), 1)
		return err
	case ModbusWrite:
		return w.client.WriteSingleRegister(uint16(i%registerSpace), uint16(i%256))
	case ModbusCoil:
		if i%2 == 0 {
			_, err := w.client.ReadCoils(0, 1)
			return err
		}
		return w.client.WriteSingleCoil(0, true)
	case ModbusMixed:
		switch i % 3 {
		case 0:
			_, err := w.client.ReadHoldingRegisters(uint16(i%registerSpace), 1)
			return err
		case 1:
			return w.client.WriteSingleRegister(uint16(i%registerSpace), uint16(i%256))
		default:
			_, err := w.client.ReadCoils(0, 2)
			return err
		}
	}
	return fmt.Errorf("loadtest: unknown modbus mode %q", w.Mode)
}

func (w *ModbusWorkload) Teardown() {
	if w.client != nil {
		w.client.Close()
	}
}
