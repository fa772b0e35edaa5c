package animate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmx-tools/dmxbench/pkg/mbap"
)

// ModbusRunner cycles the register sequence over a single Modbus TCP
// connection. Cancelling ctx stops the run and still sends one best-effort
// blackout so the rig never stays lit.
type ModbusRunner struct {
	Target   string
	Channels int
	Cycles   int
	Speed    time.Duration
	Timeout  time.Duration
	Logger   *slog.Logger
}

// Run connects, enables output via coil 0, plays the sequence, and finishes
// with a blackout write. A failed enable is logged and tolerated; older
// gateway firmware has no control coils.
func (r *ModbusRunner) Run(ctx context.Context) error {
	client, err := mbap.Dial(r.Target, r.Timeout)
	if err != nil {
		return fmt.Errorf("animate: connecting to %s: %w", r.Target, err)
	}
	defer client.Close()

	if err := client.WriteSingleCoil(0, true); err != nil {
		r.Logger.Warn("could not enable output via coil", "err", err)
	}

	steps := registerSequence()
	for cycle := 0; cycle < r.Cycles; cycle++ {
		r.Logger.Info("cycle", "n", cycle+1, "of", r.Cycles)
		for _, step := range steps {
			if ctx.Err() != nil {
				r.blackout(client)
				return ctx.Err()
			}
			values := fitChannels(step.Values, r.Channels)
			r.Logger.Info("step", "name", step.Name, "values", values)
			if err := client.WriteMultipleRegisters(0, values); err != nil {
				r.Logger.Error("write failed", "step", step.Name, "err", err)
			}
			if !sleepCtx(ctx, r.Speed) {
				r.blackout(client)
				return ctx.Err()
			}
		}
	}

	r.blackout(client)
	return nil
}

// blackout writes zeros across the animated channels, once, errors ignored.
func (r *ModbusRunner) blackout(client *mbap.Client) {
	if err := client.WriteMultipleRegisters(0, make([]uint16, r.Channels)); err != nil {
		r.Logger.Warn("blackout write failed", "err", err)
		return
	}
	r.Logger.Info("blackout sent")
}

// fitChannels truncates or zero-pads values to n channels.
func fitChannels(values []uint16, n int) []uint16 {
	out := make([]uint16, n)
	copy(out, values)
	return out
}

// sleepCtx waits d or until ctx is cancelled; returns false on cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
