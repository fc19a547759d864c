// Package api hosts the HTTP server, middleware, and REST handlers.
// Notable routes:
//   - POST /v1/harvest runs a search and returns the aggregated result.
//   - POST /v1/harvest/stream runs a search and streams progress events as
//     server-sent events, ending with the result.
//   - GET /v1/sources lists the registered sources.
//   - GET /v1/runs and /v1/runs/{run_id} report persisted run diagnostics via
//     the store.RunRepository interface.
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
package api
