// Package harvest runs one search across the registered sources.
//
// A harvest validates the request, normalizes the query, acquires and ranks
// each source in turn, then merges, deduplicates and formats the survivors
// into an opportunity.AggregatedResult. Every step is reported through a
// progress.Stream so callers can follow a run live. A failing source is
// recorded as a diagnostic and never aborts the run.
package harvest
