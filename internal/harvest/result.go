package harvest

import (
	"errors"
	"strings"
	"time"

	"github.com/shaileshms05/learnXAI/internal/fetchchain"
	"github.com/shaileshms05/learnXAI/internal/opportunity"
	"github.com/shaileshms05/learnXAI/internal/relevance"
)

// ErrUnknownSource is reported for requested ids missing from the registry.
var ErrUnknownSource = errors.New("unknown source")

// SourceResult is the outcome of one source: ranked listings when Err is
// nil, otherwise the reason the source produced nothing.
type SourceResult struct {
	Source   string
	Name     string
	Strategy fetchchain.Strategy
	Listings []opportunity.ScoredListing
	Err      error
	Elapsed  time.Duration
}

// OK reports whether the source succeeded.
func (r SourceResult) OK() bool { return r.Err == nil }

// Reason flattens Err onto one line.
func (r SourceResult) Reason() string {
	if r.Err == nil {
		return ""
	}
	return strings.Join(strings.Fields(strings.ReplaceAll(r.Err.Error(), "\n", "; ")), " ")
}

// Diagnostic converts the result for the aggregated response.
func (r SourceResult) Diagnostic() opportunity.SourceDiagnostic {
	d := opportunity.SourceDiagnostic{
		Source:    r.Source,
		Status:    opportunity.DiagnosticOK,
		Strategy:  string(r.Strategy),
		Count:     len(r.Listings),
		ElapsedMS: r.Elapsed.Milliseconds(),
	}
	if !r.OK() {
		d.Status = opportunity.DiagnosticError
		d.Count = 0
		d.Reason = r.Reason()
	}
	return d
}

// DedupKey normalizes a title and company pair: lower case, trimmed, inner
// whitespace collapsed.
func DedupKey(title, company string) string {
	return normalize(title) + "\x1f" + normalize(company)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Dedup keeps the first listing of every DedupKey.
func Dedup(listings []opportunity.ScoredListing) []opportunity.ScoredListing {
	seen := make(map[string]bool, len(listings))
	out := make([]opportunity.ScoredListing, 0, len(listings))
	for _, l := range listings {
		key := DedupKey(l.Title, l.Company)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, l)
	}
	return out
}

// Merge concatenates successful results in source order, drops duplicates
// and sorts by descending score. Ties keep source order.
func Merge(results []SourceResult) []opportunity.ScoredListing {
	var all []opportunity.ScoredListing
	for _, r := range results {
		if r.OK() {
			all = append(all, r.Listings...)
		}
	}
	merged := Dedup(all)
	relevance.SortByScore(merged)
	return merged
}
