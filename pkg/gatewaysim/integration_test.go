package gatewaysim

import (
	"context"
	"testing"
	"time"

	"github.com/dmx-tools/dmxbench/pkg/loadtest"
)

// startSimulator brings up all three surfaces on ephemeral ports.
func startSimulator(t *testing.T) *Simulator {
	t.Helper()
	sim := New(nil)
	if err := sim.Start("127.0.0.1:0", "127.0.0.1:0"); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { sim.Close() })
	return sim
}

func TestHarnessModbusEndToEnd(t *testing.T) {
	sim := startSimulator(t)

	r := &loadtest.Runner{Clients: 4, Requests: 25}
	st, elapsed := r.Run(context.Background(), func(int) loadtest.Workload {
		return &loadtest.ModbusWorkload{
			Target:  sim.ModbusAddr(),
			Mode:    loadtest.ModbusMixed,
			Timeout: 2 * time.Second,
		}
	})

	if st.Attempted != 100 {
		t.Errorf("Attempted = %d, want 100", st.Attempted)
	}
	if st.Failed != 0 {
		t.Errorf("Failed = %d (%v)", st.Failed, st.Failures)
	}
	if uint64(len(st.LatenciesMs)) != st.Succeeded {
		t.Errorf("latency samples = %d, succeeded = %d", len(st.LatenciesMs), st.Succeeded)
	}
	if elapsed <= 0 {
		t.Error("non-positive duration")
	}
}

func TestHarnessWebSocketEndToEnd(t *testing.T) {
	sim := startSimulator(t)

	r := &loadtest.Runner{Clients: 3, Requests: 10}
	st, _ := r.Run(context.Background(), func(int) loadtest.Workload {
		return &loadtest.WebSocketWorkload{
			Target:       sim.HTTPAddr(),
			Mode:         loadtest.WSMixed,
			Timeout:      2 * time.Second,
			ReplyTimeout: 2 * time.Second,
		}
	})

	if st.Attempted != 30 {
		t.Errorf("Attempted = %d, want 30", st.Attempted)
	}
	if st.Failed != 0 {
		t.Errorf("Failed = %d (%v)", st.Failed, st.Failures)
	}
	// Every op gets a reply; set ops also broadcast to all three clients.
	if st.Received < st.Succeeded {
		t.Errorf("Received = %d, below reply count %d", st.Received, st.Succeeded)
	}
}

func TestHarnessHTTPEndToEnd(t *testing.T) {
	sim := startSimulator(t)

	r := &loadtest.Runner{Clients: 2, Requests: 15}
	st, _ := r.Run(context.Background(), func(int) loadtest.Workload {
		return &loadtest.HTTPWorkload{
			Target:  sim.HTTPAddr(),
			Mode:    loadtest.HTTPMixed,
			Timeout: 2 * time.Second,
		}
	})

	if st.Attempted != 30 || st.Failed != 0 {
		t.Errorf("attempted/failed = %d/%d (%v)", st.Attempted, st.Failed, st.Failures)
	}
}

func TestHarnessConnectionRefusedAccounting(t *testing.T) {
	// Closed simulator: every client fails setup and reports all planned
	// operations as connection failures.
	sim := New(nil)
	if err := sim.Start("127.0.0.1:0", "127.0.0.1:0"); err != nil {
		t.Fatalf("start: %v", err)
	}
	addr := sim.ModbusAddr()
	sim.Close()

	r := &loadtest.Runner{Clients: 2, Requests: 10}
	st, _ := r.Run(context.Background(), func(int) loadtest.Workload {
		return &loadtest.ModbusWorkload{Target: addr, Mode: loadtest.ModbusRead, Timeout: time.Second}
	})

	if st.Attempted != 20 || st.Failed != 20 {
		t.Errorf("attempted/failed = %d/%d", st.Attempted, st.Failed)
	}
	if st.Failures[loadtest.KindConnection] != 20 {
		t.Errorf("failures = %v", st.Failures)
	}
}
