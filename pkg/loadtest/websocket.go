package loadtest

import (
	"context"
	"fmt"
	"time"

	"github.com/dmx-tools/dmxbench/pkg/gateway"
	"github.com/dmx-tools/dmxbench/pkg/wsock"
)

// WSMode selects which gateway commands a WebSocket workload sends.
type WSMode string

const (
	WSStatus WSMode = "status"
	WSSet    WSMode = "set"
	WSGet    WSMode = "get"
	WSMixed  WSMode = "mixed"
)

const (
	// initialDrainLimit bounds how many buffered state messages (status,
	// lights, groups) the gateway may push right after the upgrade.
	initialDrainLimit = 50
	initialDrainWait  = 100 * time.Millisecond

	// extraDrainWait is the very short window used to sweep broadcast
	// messages out of the stream after a reply is accepted, so the next
	// operation's timer never consumes a stale leftover.
	extraDrainWait = time.Millisecond
)

// WebSocketWorkload drives one upgraded connection, issuing gateway commands
// and waiting for one reply per command. With several clients connected the
// gateway broadcasts set updates, so any inbound message counts as the reply
// and the surplus is drained and tallied under Received.
type WebSocketWorkload struct {
	Target string
	Path   string
	Light  string
	Mode   WSMode
	// Timeout applies to connect and handshake; ReplyTimeout to each
	// operation's wait for a response.
	Timeout      time.Duration
	ReplyTimeout time.Duration

	conn *wsock.Conn
}

func (w *WebSocketWorkload) Name() string { return "websocket/" + string(w.Mode) }

func (w *WebSocketWorkload) Setup(_ context.Context, s *Stats) error {
	path := w.Path
	if path == "" {
		path = "/ws"
	}
	conn, err := wsock.Dial(w.Target, path, w.Timeout)
	if err != nil {
		return err
	}
	w.conn = conn

	for i := 0; i < initialDrainLimit; i++ {
		msg, ok, err := conn.Recv(initialDrainWait)
		if err != nil {
			conn.Close()
			w.conn = nil
			return err
		}
		if !ok && msg == "" {
			break
		}
		s.Received++
	}
	return nil
}

func (w *WebSocketWorkload) command(i int) (gateway.Command, error) {
	light := w.Light
	if light == "" {
		light = "rack1/level1"
	}
	switch w.Mode {
	case WSStatus:
		return gateway.StatusCommand(), nil
	case WSSet:
		return gateway.SetCommand(light, map[string]int{"blue": i % 256}), nil
	case WSGet:
		return gateway.GetCommand(light), nil
	case WSMixed:
		switch i % 3 {
		case 0:
			return gateway.StatusCommand(), nil
		case 1:
			return gateway.SetCommand(light, map[string]int{"blue": i % 256}), nil
		default:
			return gateway.GetCommand(light), nil
		}
	}
	return gateway.Command{}, fmt.Errorf("loadtest: unknown websocket mode %q", w.Mode)
}

func (w *WebSocketWorkload) Op(_ context.Context, i int, s *Stats) error {
	cmd, err := w.command(i)
	if err != nil {
		return err
	}
	payload, err := cmd.Encode()
	if err != nil {
		return err
	}
	if err := w.conn.SendText(string(payload)); err != nil {
		return err
	}

	replyTimeout := w.ReplyTimeout
	if replyTimeout == 0 {
		replyTimeout = 2 * time.Second
	}
	reply, ok, err := w.conn.Recv(replyTimeout)
	if err != nil {
		return err
	}
	if !ok && reply == "" {
		return ErrReplyTimeout
	}
	s.Received++
	return nil
}

// Drain sweeps any broadcasts that arrived alongside the reply. The runner
// invokes it after the operation's latency sample is taken.
func (w *WebSocketWorkload) Drain(s *Stats) {
	for {
		_, ok, err := w.conn.Recv(extraDrainWait)
		if err != nil || !ok {
			return
		}
		s.Received++
	}
}

func (w *WebSocketWorkload) Teardown() {
	if w.conn != nil {
		w.conn.Close()
	}
}
