// Package source holds the registry of known listing sources. Each source
// pairs an acquisition plan with an extraction ruleset; the harvester never
// needs to know which sites exist.
package source

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shaileshms05/learnXAI/internal/extract"
	"github.com/shaileshms05/learnXAI/internal/fetchchain"
	"github.com/shaileshms05/learnXAI/internal/location"
	"github.com/shaileshms05/learnXAI/internal/opportunity"
	"github.com/shaileshms05/learnXAI/internal/session"
)

// Request is the per-harvest view a source builds its plan from.
type Request struct {
	// Query is the optimized search text.
	Query string
	// Location is the location as the caller typed it.
	Location string
	// CanonicalLocation is the normalized "City, Region" form.
	CanonicalLocation string
}

// NewRequest derives a Request from the normalized query and the original
// search request.
func NewRequest(q opportunity.NormalizedQuery, req opportunity.SearchRequest) Request {
	query := strings.TrimSpace(q.OptimizedQuery)
	if query == "" {
		query = strings.TrimSpace(req.Query)
	}
	raw := strings.TrimSpace(req.Location)
	canonical := strings.TrimSpace(q.CanonicalLocation)
	if canonical == "" {
		canonical = location.Canonicalize(raw)
	}
	return Request{Query: query, Location: raw, CanonicalLocation: canonical}
}

// RequestedLocation is the location used for endpoints, defaults and
// scoring: the canonical form when known, else the raw text.
func (r Request) RequestedLocation() string {
	if r.CanonicalLocation != "" {
		return r.CanonicalLocation
	}
	return r.Location
}

// Definition binds a source id to its endpoints and extraction rules.
type Definition struct {
	ID   string
	Name string
	// Plan declares the endpoints to try for a request.
	Plan func(Request) fetchchain.Plan
	// Rules returns the extraction ruleset for a request.
	Rules func(Request) extract.Rules
}

// Parser returns the fetchchain.Parser for one request. At most limit
// containers are examined per document.
func (d Definition) Parser(ext *extract.Extractor, r Request, limit int, now time.Time) fetchchain.Parser {
	return &ruleParser{
		ext:   ext,
		rules: d.Rules(r),
		input: extract.Input{
			Query:    r.Query,
			Location: r.RequestedLocation(),
			Limit:    limit,
			Now:      now,
		},
	}
}

type ruleParser struct {
	ext   *extract.Extractor
	rules extract.Rules
	input extract.Input
}

func (p *ruleParser) ParseDocument(doc session.Document) ([]opportunity.RawListing, error) {
	listings, err := p.ext.ExtractHTML(doc.Body, p.rules, p.input)
	if errors.Is(err, extract.ErrNoResults) {
		return nil, fetchchain.ErrNoResults
	}
	return listings, err
}

func (p *ruleParser) ParseFeed(entries []session.FeedEntry) []opportunity.RawListing {
	return extract.FromFeed(entries, p.rules, p.input)
}

// Registry is an ordered set of definitions.
type Registry struct {
	defs []Definition
	byID map[string]int
}

// NewRegistry validates and orders defs.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{byID: make(map[string]int, len(defs))}
	for _, d := range defs {
		if d.ID == "" || d.Plan == nil || d.Rules == nil {
			return nil, fmt.Errorf("source %q: id, plan and rules are required", d.ID)
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate source %q", d.ID)
		}
		r.byID[d.ID] = len(r.defs)
		r.defs = append(r.defs, d)
	}
	return r, nil
}

// Default returns the built-in sources in their fixed order.
func Default() *Registry {
	r, err := NewRegistry(Indeed(), LinkedIn(), Glassdoor(), Internships(), SkillIndia())
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup finds a definition by id.
func (r *Registry) Lookup(id string) (Definition, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i], true
}

// Definitions returns the registered definitions in order.
func (r *Registry) Definitions() []Definition {
	return append([]Definition(nil), r.defs...)
}

// IDs returns the registered ids in order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.defs))
	for i, d := range r.defs {
		ids[i] = d.ID
	}
	return ids
}

// Resolve orders requested ids for a harvest. An empty request selects every
// source. Known ids come first in registry order, unknown ids follow in the
// order given; duplicates are dropped.
func (r *Registry) Resolve(requested []string) []string {
	if len(requested) == 0 {
		return r.IDs()
	}
	want := make(map[string]bool, len(requested))
	var unknown []string
	for _, raw := range requested {
		id := strings.ToLower(strings.TrimSpace(raw))
		if id == "" || want[id] {
			continue
		}
		want[id] = true
		if _, ok := r.byID[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	out := make([]string, 0, len(want))
	for _, d := range r.defs {
		if want[d.ID] {
			out = append(out, d.ID)
		}
	}
	return append(out, unknown...)
}
