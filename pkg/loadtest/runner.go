package loadtest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// Runner spawns one goroutine per configured client, each running a bounded
// operation sequence over its own connection, and merges the per-client
// Stats after every worker has finished.
//
// Workers never share mutable state: each hands its fully-formed Stats back
// over a channel and a single collector merges sequentially, so the merge
// needs no lock.
type Runner struct {
	// Clients is the number of concurrent sessions.
	Clients int
	// Requests is the number of operations per client.
	Requests int
	// Rate caps each client at this many operations per second; 0 means
	// unpaced (each operation starts as soon as the previous one resolves).
	Rate float64

	// Logger receives per-client diagnostics; nil disables them.
	Logger *slog.Logger
	// Metrics receives live counters for long runs; nil disables them.
	Metrics *Metrics
	// Tracer opens one span per operation; nil disables tracing.
	Tracer trace.Tracer
}

// Run executes the whole test and returns the merged Stats plus the
// wall-clock duration from first dispatch to last merge.
//
// A client whose Setup fails reports every planned operation as failed, per
// the connection-failure accounting the reports rely on. A single failed
// operation never aborts its client's remaining sequence; cancelling ctx
// stops all clients at their next operation boundary.
func (r *Runner) Run(ctx context.Context, newWorkload func(clientID int) Workload) (*Stats, time.Duration) {
	start := time.Now()

	results := make(chan *Stats, r.Clients)
	var wg sync.WaitGroup
	wg.Add(r.Clients)
	for i := 0; i < r.Clients; i++ {
		clientID := i
		go func() {
			defer wg.Done()
			results <- r.runClient(ctx, clientID, newWorkload(clientID))
		}()
	}
	wg.Wait()
	close(results)

	global := NewStats()
	for st := range results {
		global.Merge(st)
	}
	return global, time.Since(start)
}

func (r *Runner) runClient(ctx context.Context, clientID int, w Workload) *Stats {
	st := NewStats()

	if err := w.Setup(ctx, st); err != nil {
		if r.Logger != nil {
			r.Logger.Warn("client setup failed", "client", clientID, "workload", w.Name(), "err", err)
		}
		// A session that never came up fails its entire planned sequence.
		st.Attempted += uint64(r.Requests)
		st.Failed += uint64(r.Requests)
		st.Failures[Classify(err)] += uint64(r.Requests)
		if r.Metrics != nil {
			r.Metrics.AddFailures(w.Name(), Classify(err), r.Requests)
		}
		return st
	}
	defer w.Teardown()

	var limiter *rate.Limiter
	if r.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.Rate), 1)
	}

	for i := 0; i < r.Requests; i++ {
		select {
		case <-ctx.Done():
			return st
		default:
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return st
			}
		}

		st.Attempted++
		opCtx := ctx
		var span trace.Span
		if r.Tracer != nil {
			opCtx, span = r.Tracer.Start(ctx, "loadtest.op", trace.WithAttributes(
				attribute.String("workload", w.Name()),
				attribute.Int("client", clientID),
				attribute.Int("op", i),
			))
		}

		opStart := time.Now()
		err := w.Op(opCtx, i, st)
		latency := float64(time.Since(opStart)) / float64(time.Millisecond)

		if err != nil {
			st.RecordFailure(err)
			if r.Metrics != nil {
				r.Metrics.AddFailures(w.Name(), Classify(err), 1)
			}
			if span != nil {
				span.SetStatus(codes.Error, err.Error())
				span.End()
			}
			continue
		}

		st.Succeeded++
		st.LatenciesMs = append(st.LatenciesMs, latency)
		if r.Metrics != nil {
			r.Metrics.ObserveSuccess(w.Name(), latency)
		}
		if span != nil {
			span.End()
		}
		// Sweep leftover broadcasts with the timer already stopped, so the
		// drain window never shows up in the samples.
		if d, ok := w.(Drainer); ok {
			d.Drain(st)
		}
	}
	return st
}
