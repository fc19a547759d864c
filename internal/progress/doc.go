// Package progress carries harvest events from the aggregator to whoever is
// watching: an ordered per-request Stream for the caller, and a non-blocking
// Hub that batches the same events into pluggable sinks such as structured
// logs, Prometheus collectors or the run store.
package progress
