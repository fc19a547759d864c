// Package main hosts the internship harvester service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes health, readiness, metrics, the
//     source catalog, blocking and streaming search endpoints, and run
//     diagnostics when a database is configured.
//   - Orchestration: internal/harvest.Harvester validates a search, asks the
//     optimizer for a normalized query, then visits each requested source in
//     order with a fixed pause between them. Every step emits a progress event.
//   - Acquisition: internal/fetchchain runs a source's strategy list (static,
//     rendered, feed) against one internal/session.Session, falling through to
//     a headless Chrome render when the static document looks like a shell.
//   - Scoring: internal/relevance scores candidates against the query and the
//     requested location; the harvester merges, deduplicates and formats them.
//   - Fanout: progress events go to the caller's stream and to a batching hub
//     with log, Prometheus and Postgres sinks. Completed harvests can be
//     announced on Pub/Sub and raw documents archived to disk or GCS.
//
// Quick checklist:
//   - Configure env vars with the HARVESTER_ prefix, e.g. HARVESTER_SERVER_PORT,
//     HARVESTER_OPTIMIZER_PROVIDER=gemini with HARVESTER_OPTIMIZER_API_KEY,
//     HARVESTER_DB_DSN, HARVESTER_ARCHIVE_PROVIDER. A local .env file is read
//     when present.
//   - Run locally: go run ./cmd/harvester -config config.yaml
//   - Shutdown: SIGINT/SIGTERM drains the HTTP server, flushes the progress hub
//     and closes the browser, database pool and publisher.
package main
