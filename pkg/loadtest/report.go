package loadtest

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Report is the final result of a run, assembled from the merged Stats and
// ready to print or serialize.
type Report struct {
	Workload   string  `json:"workload"`
	Target     string  `json:"target"`
	Clients    int     `json:"clients"`
	Requests   int     `json:"requests_per_client"`
	DurationS  float64 `json:"duration_s"`
	Attempted  uint64  `json:"attempted"`
	Succeeded  uint64  `json:"succeeded"`
	Failed     uint64  `json:"failed"`
	Received   uint64  `json:"received,omitempty"`
	ErrorRate  float64 `json:"error_rate"`
	Throughput float64 `json:"throughput_ops_s"`

	Failures map[string]uint64 `json:"failures,omitempty"`
	Latency  *LatencySummary   `json:"latency,omitempty"`
}

// BuildReport derives the printable summary from merged stats.
func BuildReport(workload, target string, clients, requests int, st *Stats, elapsed time.Duration) *Report {
	rep := &Report{
		Workload:  workload,
		Target:    target,
		Clients:   clients,
		Requests:  requests,
		DurationS: elapsed.Seconds(),
		Attempted: st.Attempted,
		Succeeded: st.Succeeded,
		Failed:    st.Failed,
		Received:  st.Received,
		Latency:   Summarize(st.LatenciesMs),
	}
	if st.Attempted > 0 {
		rep.ErrorRate = float64(st.Failed) / float64(st.Attempted)
	}
	// Throughput counts attempted operations, failures included, so it
	// reflects the load actually applied to the gateway.
	if rep.DurationS > 0 {
		rep.Throughput = float64(st.Attempted) / rep.DurationS
	}
	if len(st.Failures) > 0 {
		rep.Failures = make(map[string]uint64, len(st.Failures))
		for k, n := range st.Failures {
			rep.Failures[k.String()] = n
		}
	}
	return rep
}

// Print writes the human-readable summary block.
func (r *Report) Print(w io.Writer) {
	line := strings.Repeat("=", 60)
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "  %s load test results\n", r.Workload)
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "  Target:          %s\n", r.Target)
	fmt.Fprintf(w, "  Duration:        %.2f s\n", r.DurationS)
	fmt.Fprintf(w, "  Clients:         %d\n", r.Clients)
	fmt.Fprintf(w, "  Total requests:  %d\n", r.Attempted)
	fmt.Fprintf(w, "  Successful:      %d\n", r.Succeeded)
	fmt.Fprintf(w, "  Failed:          %d\n", r.Failed)
	if r.Received > 0 {
		fmt.Fprintf(w, "  Msgs received:   %d\n", r.Received)
	}
	fmt.Fprintf(w, "  Error rate:      %.2f%%\n", r.ErrorRate*100)
	fmt.Fprintf(w, "  Throughput:      %.1f ops/s\n", r.Throughput)
	for kind, n := range r.Failures {
		fmt.Fprintf(w, "    %-14s %d\n", kind+":", n)
	}
	if r.Latency != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "  Latency (ms)")
		fmt.Fprintf(w, "    Min:    %8.2f\n", r.Latency.Min)
		fmt.Fprintf(w, "    Avg:    %8.2f\n", r.Latency.Mean)
		fmt.Fprintf(w, "    Max:    %8.2f\n", r.Latency.Max)
		fmt.Fprintf(w, "    P50:    %8.2f\n", r.Latency.P50)
		fmt.Fprintf(w, "    P95:    %8.2f\n", r.Latency.P95)
		fmt.Fprintf(w, "    P99:    %8.2f\n", r.Latency.P99)
		fmt.Fprintf(w, "    StdDev: %8.2f\n", r.Latency.StdDev)
	}
	fmt.Fprintln(w, line)
}

// JSON renders the report as indented JSON for ingestion by other tooling.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
