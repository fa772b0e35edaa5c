package loadtest

import "context"

// Workload is one client's protocol session: Setup dials the connection,
// Op issues the i-th operation and blocks until its outcome is known,
// Teardown closes the session best-effort.
//
// A Workload instance belongs to exactly one load client; implementations
// need no internal locking. Op may bump s.Received when it drains inbound
// messages beyond the operation's own reply.
type Workload interface {
	// Name identifies the workload in reports and metrics, e.g. "modbus/mixed".
	Name() string
	Setup(ctx context.Context, s *Stats) error
	Op(ctx context.Context, i int, s *Stats) error
	Teardown()
}

// Drainer is implemented by workloads that sweep surplus inbound messages
// (broadcasts from other clients) out of the stream after an operation. The
// runner calls Drain after a successful Op, outside the timed section:
// latency samples stop when the reply is observed, never during the sweep.
type Drainer interface {
	Drain(s *Stats)
}
