// Package loadtest runs concurrent client workloads against a DMX gateway
// and aggregates per-operation outcomes into latency and failure summaries.
//
// Each client runs on its own goroutine with its own connection and its own
// Stats; results are merged only after every client has joined, so no
// counter is ever shared between workers mid-run.
package loadtest
