package animate

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmx-tools/dmxbench/pkg/gatewaysim"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestModbusRunnerEndToEnd(t *testing.T) {
	srv := &gatewaysim.ModbusServer{State: gatewaysim.NewState()}
	if err := srv.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("listen: %v", err)
	}
	go srv.Serve()
	defer srv.Close()

	r := &ModbusRunner{
		Target:   srv.Addr(),
		Channels: 4,
		Cycles:   1,
		Speed:    time.Millisecond,
		Timeout:  2 * time.Second,
		Logger:   quietLogger(),
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	// Output enabled via coil 0, channels dark after the final blackout.
	coils, _ := srv.State.ReadCoils(0, 1)
	if !coils[0] {
		t.Error("enable coil not set")
	}
	regs, _ := srv.State.ReadRegisters(0, 4)
	for i, v := range regs {
		if v != 0 {
			t.Errorf("register %d = %d after blackout", i, v)
		}
	}
}

func TestModbusRunnerCancelSendsBlackout(t *testing.T) {
	srv := &gatewaysim.ModbusServer{State: gatewaysim.NewState()}
	if err := srv.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("listen: %v", err)
	}
	go srv.Serve()
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	r := &ModbusRunner{
		Target:   srv.Addr(),
		Channels: 4,
		Cycles:   1000,
		Speed:    10 * time.Millisecond,
		Timeout:  2 * time.Second,
		Logger:   quietLogger(),
	}
	if err := r.Run(ctx); err == nil {
		t.Fatal("expected context error")
	}
	regs, _ := srv.State.ReadRegisters(0, 4)
	for i, v := range regs {
		if v != 0 {
			t.Errorf("register %d = %d, blackout not sent on cancel", i, v)
		}
	}
}

func TestRemoteRunnerEndToEnd(t *testing.T) {
	state := gatewaysim.NewState()
	srv := httptest.NewServer(gatewaysim.NewHTTPServer(state, nil).Router())
	defer srv.Close()

	r := &RemoteRunner{
		Target:  strings.TrimPrefix(srv.URL, "http://"),
		Light:   "rack1/level1",
		Cycles:  1,
		Speed:   time.Millisecond,
		Timeout: 2 * time.Second,
		Logger:  quietLogger(),
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !state.Enabled() {
		t.Error("output not enabled")
	}
	values, err := state.GetLight("rack1/level1")
	if err != nil {
		t.Fatalf("get light: %v", err)
	}
	for ch, v := range values {
		if v != 0 {
			t.Errorf("channel %s = %d after blackout", ch, v)
		}
	}
}

func TestRemoteRunnerUnknownLightFallsBack(t *testing.T) {
	state := gatewaysim.NewState()
	srv := httptest.NewServer(gatewaysim.NewHTTPServer(state, nil).Router())
	defer srv.Close()

	r := &RemoteRunner{
		Target:  strings.TrimPrefix(srv.URL, "http://"),
		Light:   "no/such/light",
		Cycles:  1,
		Speed:   time.Millisecond,
		Timeout: 2 * time.Second,
		Logger:  quietLogger(),
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
}
