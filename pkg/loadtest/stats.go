package loadtest

import (
	"errors"
	"fmt"
	"net"

	"github.com/dmx-tools/dmxbench/pkg/mbap"
	"github.com/dmx-tools/dmxbench/pkg/wsock"
)

// Kind tags every operation failure with one of four causes, so the
// operation loop has a single failure-handling shape regardless of which
// protocol produced the error.
type Kind int

const (
	// KindConnection covers connect and handshake failures, resets, and
	// anything else that kills the transport.
	KindConnection Kind = iota
	// KindTimeout covers a single operation's deadline expiring.
	KindTimeout
	// KindProtocol covers malformed or short responses and framing violations.
	KindProtocol
	// KindException covers Modbus exception responses reported by the peer.
	KindException
)

// String returns the string representation of the failure kind.
func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindTimeout:
		return "timeout"
	case KindProtocol:
		return "protocol"
	case KindException:
		return "exception"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ErrReplyTimeout reports that no reply arrived before the per-operation
// deadline. It is a normal, recoverable failure: the loop records it and
// moves on.
var ErrReplyTimeout = errors.New("loadtest: no reply before timeout")

// Classify maps an operation error onto its failure kind.
func Classify(err error) Kind {
	var exc *mbap.ExceptionError
	if errors.As(err, &exc) {
		return KindException
	}
	if errors.Is(err, ErrReplyTimeout) {
		return KindTimeout
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return KindTimeout
	}
	if errors.Is(err, mbap.ErrShortResponse) ||
		errors.Is(err, mbap.ErrTransactionMismatch) ||
		errors.Is(err, mbap.ErrBadProtocolID) ||
		errors.Is(err, wsock.ErrFrameTooShort) {
		return KindProtocol
	}
	return KindConnection
}

// Stats accumulates one client's outcomes. Each LoadClient owns its Stats
// exclusively while running; the runner merges them sequentially after every
// worker has handed its value back, so no lock is needed.
type Stats struct {
	Attempted uint64
	Succeeded uint64
	Failed    uint64
	// Received counts inbound protocol messages, including broadcasts
	// drained between operations on WebSocket workloads.
	Received uint64
	// LatenciesMs holds one sample per successful operation, appended in
	// completion order and sorted only when the report is built.
	LatenciesMs []float64
	// Failures breaks Failed down by cause for diagnostics.
	Failures map[Kind]uint64
}

// NewStats returns an empty accumulator.
func NewStats() *Stats {
	return &Stats{Failures: make(map[Kind]uint64)}
}

// RecordFailure counts one failed operation.
func (s *Stats) RecordFailure(err error) {
	s.Failed++
	s.Failures[Classify(err)]++
}

// Merge folds other into s. Callers must ensure other's writer has finished.
func (s *Stats) Merge(other *Stats) {
	s.Attempted += other.Attempted
	s.Succeeded += other.Succeeded
	s.Failed += other.Failed
	s.Received += other.Received
	s.LatenciesMs = append(s.LatenciesMs, other.LatenciesMs...)
	for k, n := range other.Failures {
		s.Failures[k] += n
	}
}
