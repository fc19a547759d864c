// Package sinks implements progress consumers: structured logging,
// Prometheus collectors and the run store. Each satisfies progress.Sink and
// tolerates repeated Consume/Close cycles.
package sinks
