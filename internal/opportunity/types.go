// Package opportunity defines the value types that flow through the harvester:
// search requests, normalized queries, extracted listings and the aggregated
// response handed to callers.
package opportunity

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidRequest marks a SearchRequest that can never be harvested.
var ErrInvalidRequest = errors.New("invalid search request")

// DefaultMaxResults is applied by callers that leave MaxResults unset.
const DefaultMaxResults = 10

// SearchRequest describes one harvest call.
type SearchRequest struct {
	Query      string   `json:"query"`
	Location   string   `json:"location,omitempty"`
	Sources    []string `json:"sources,omitempty"`
	MaxResults int      `json:"max_results"`
}

// Validate rejects requests the core cannot serve.
func (r SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return fmt.Errorf("%w: query is required", ErrInvalidRequest)
	}
	if r.MaxResults < 1 {
		return fmt.Errorf("%w: max_results must be >= 1", ErrInvalidRequest)
	}
	return nil
}

// NormalizedQuery is produced once per request by the query optimizer and is
// read-only afterwards.
type NormalizedQuery struct {
	OptimizedQuery    string   `json:"optimized_query"`
	CanonicalLocation string   `json:"canonical_location"`
	Keywords          []string `json:"keywords"`
	AddInternSuffix   bool     `json:"should_add_intern"`
	Strategy          string   `json:"search_strategy,omitempty"`
}

// RawListing is a candidate record emitted by an extractor.
type RawListing struct {
	Title       string
	Company     string
	Location    string
	Description string
	URL         string
	Source      string
	RetrievedAt time.Time
}

// ScoredListing pairs a candidate with its relevance score.
type ScoredListing struct {
	RawListing
	Score float64
}

// Opportunity is the formatted listing returned to callers.
type Opportunity struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Company         string   `json:"company"`
	Description     string   `json:"description"`
	Location        string   `json:"location"`
	Type            string   `json:"type"`
	Duration        string   `json:"duration"`
	RequiredSkills  []string `json:"requiredSkills"`
	Benefits        []string `json:"benefits"`
	ApplicationTips string   `json:"applicationTips"`
	MatchScore      float64  `json:"matchScore"`
	URL             string   `json:"url"`
	Source          string   `json:"source"`
	ScrapedAt       string   `json:"scraped_at"`
}

// QueryOptimization records how the raw query was rewritten.
type QueryOptimization struct {
	OriginalQuery     string `json:"original_query"`
	OptimizedQuery    string `json:"optimized_query"`
	OriginalLocation  string `json:"original_location"`
	OptimizedLocation string `json:"optimized_location"`
	Strategy          string `json:"strategy"`
}

// DiagnosticStatus is the per-source outcome label.
type DiagnosticStatus string

// Per-source outcomes.
const (
	DiagnosticOK    DiagnosticStatus = "ok"
	DiagnosticError DiagnosticStatus = "error"
)

// SourceDiagnostic records what happened for one source during a harvest.
type SourceDiagnostic struct {
	Source    string           `json:"source"`
	Status    DiagnosticStatus `json:"status"`
	Strategy  string           `json:"strategy,omitempty"`
	Count     int              `json:"count"`
	Reason    string           `json:"reason,omitempty"`
	ElapsedMS int64            `json:"elapsed_ms"`
}

// AggregatedResult is the response of a harvest.
type AggregatedResult struct {
	RunID             string             `json:"run_id"`
	Success           bool               `json:"success"`
	TotalResults      int                `json:"total_results"`
	Opportunities     []Opportunity      `json:"opportunities"`
	ScrapedSources    []string           `json:"scraped_sources"`
	HasFallback       bool               `json:"has_fallback"`
	QueryOptimization QueryOptimization  `json:"query_optimization"`
	Diagnostics       []SourceDiagnostic `json:"diagnostics"`
}
