package loadtest

import (
	"context"
	"fmt"
	"time"

	"github.com/dmx-tools/dmxbench/pkg/gateway"
)

// HTTPMode selects which REST endpoints an HTTP workload hits.
type HTTPMode string

const (
	HTTPStatus HTTPMode = "status"
	HTTPSet    HTTPMode = "set"
	HTTPLights HTTPMode = "lights"
	HTTPMixed  HTTPMode = "mixed"
)

// HTTPWorkload drives the gateway's REST API. Unlike the socket workloads
// there is no session to establish up front; each operation carries its own
// connect/request/response cycle, so Setup never fails.
type HTTPWorkload struct {
	Target  string
	Light   string
	Mode    HTTPMode
	Timeout time.Duration

	client *gateway.RESTClient
}

func (w *HTTPWorkload) Name() string { return "http/" + string(w.Mode) }

func (w *HTTPWorkload) Setup(_ context.Context, _ *Stats) error {
	w.client = gateway.NewRESTClient(w.Target, w.Timeout)
	return nil
}

func (w *HTTPWorkload) Op(_ context.Context, i int, _ *Stats) error {
	light := w.Light
	if light == "" {
		light = "rack1/level1"
	}
	set := func() error {
		return w.client.Post(gateway.SetCommand(light, map[string]int{"blue": i % 256}))
	}
	lights := func() error {
		_, err := w.client.Lights()
		return err
	}

	switch w.Mode {
	case HTTPStatus:
		return w.client.Status()
	case HTTPSet:
		return set()
	case HTTPLights:
		return lights()
	case HTTPMixed:
		switch i % 3 {
		case 0:
			return w.client.Status()
		case 1:
			return set()
		default:
			return lights()
		}
	}
	return fmt.Errorf("loadtest: unknown http mode %q", w.Mode)
}

func (w *HTTPWorkload) Teardown() {}
