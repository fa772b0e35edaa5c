package animate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dmx-tools/dmxbench/pkg/gateway"
)

// RemoteRunner cycles the named sequence through the gateway's HTTP API.
// The light's channel list is discovered from GET /api/lights before the
// first frame; an unknown --light falls back to the first discovered one.
type RemoteRunner struct {
	Target  string
	Light   string
	Cycles  int
	Speed   time.Duration
	Timeout time.Duration
	Logger  *slog.Logger
}

// Run enables output, discovers the fixture, plays the sequence, and sends
// a blackout at the end — including on cancellation, best effort.
func (r *RemoteRunner) Run(ctx context.Context) error {
	client := gateway.NewRESTClient(r.Target, r.Timeout)

	if err := client.Post(gateway.EnableCommand()); err != nil {
		return fmt.Errorf("animate: enabling output: %w", err)
	}
	time.Sleep(200 * time.Millisecond)

	lights, err := client.Lights()
	if err != nil {
		return fmt.Errorf("animate: discovering lights: %w", err)
	}
	if len(lights) == 0 {
		return fmt.Errorf("animate: gateway reports no lights")
	}

	light, ok := lights[r.Light]
	target := r.Light
	if !ok {
		names := make([]string, 0, len(lights))
		for name := range lights {
			names = append(names, name)
		}
		sort.Strings(names)
		target = names[0]
		light = lights[target]
		r.Logger.Warn("light not found, using first", "requested", r.Light, "using", target)
	}
	channels := light.ChannelNames()
	r.Logger.Info("animating", "light", target, "channels", channels)

	steps := namedSequence(channels)
	for cycle := 0; cycle < r.Cycles; cycle++ {
		r.Logger.Info("cycle", "n", cycle+1, "of", r.Cycles)
		for _, step := range steps {
			if ctx.Err() != nil {
				r.blackout(client)
				return ctx.Err()
			}
			r.Logger.Info("step", "name", step.Name, "values", step.Values)
			if err := client.Post(gateway.SetCommand(target, step.Values)); err != nil {
				r.Logger.Error("set failed", "step", step.Name, "err", err)
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

func (r *RemoteRunner) blackout(client *gateway.RESTClient) {
	if err := client.Post(gateway.BlackoutCommand()); err != nil {
		r.Logger.Warn("blackout failed", "err", err)
		return
	}
	r.Logger.Info("blackout sent")
}
