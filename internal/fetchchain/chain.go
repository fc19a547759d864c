// Package fetchchain acquires one source's listings by trying static fetch,
// browser render and feed fetch in that order.
package fetchchain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/shaileshms05/learnXAI/internal/metrics"
	"github.com/shaileshms05/learnXAI/internal/opportunity"
	"github.com/shaileshms05/learnXAI/internal/session"
)

// Strategy names one acquisition method.
type Strategy string

// Acquisition strategies in the order they are tried.
const (
	StrategyStatic   Strategy = "static"
	StrategyRendered Strategy = "rendered"
	StrategyFeed     Strategy = "feed"
)

// Plan declares the endpoints a source offers for one request.
type Plan struct {
	Source    string
	StaticURL string
	// RenderURL defaults to StaticURL. Render-only sources leave StaticURL
	// empty.
	RenderURL string
	FeedURL   string
	// RequiresJS marks sources whose listings only exist after rendering.
	RequiresJS     bool
	Headers        http.Header
	StaticTimeout  time.Duration
	RenderTimeout  time.Duration
	FeedTimeout    time.Duration
	ReadySelectors []string
	// Unavailable explains why a source has no strategies at all.
	Unavailable string
}

func (p Plan) renderURL() string {
	if p.RenderURL != "" {
		return p.RenderURL
	}
	return p.StaticURL
}

// Acquirer fetches documents. *session.Session implements it.
type Acquirer interface {
	FetchStatic(ctx context.Context, url string, opts session.StaticOptions) (session.Document, error)
	FetchRendered(ctx context.Context, url string, opts session.RenderOptions) (session.Document, error)
	FetchFeed(ctx context.Context, url string, opts session.StaticOptions) ([]session.FeedEntry, error)
}

// Parser turns fetched content into candidates for one source and request.
type Parser interface {
	ParseDocument(doc session.Document) ([]opportunity.RawListing, error)
	ParseFeed(entries []session.FeedEntry) []opportunity.RawListing
}

// ShellDetector reports static documents that need a browser render.
type ShellDetector interface {
	NeedsRender(status int, body []byte) bool
}

// Archiver stores snapshots of documents that produced listings.
type Archiver interface {
	Archive(ctx context.Context, source string, strategy Strategy, doc session.Document) error
}

// Attempt records one strategy execution.
type Attempt struct {
	Strategy Strategy
	Count    int
	Elapsed  time.Duration
	Err      error
}

// Outcome is the result of a successful chain run.
type Outcome struct {
	Source   string
	Strategy Strategy
	Listings []opportunity.RawListing
	Attempts []Attempt
}

// Chain runs plans against an Acquirer.
type Chain struct {
	acquirer Acquirer
	detector ShellDetector
	archiver Archiver
	logger   *zap.Logger
}

// Option customizes a Chain.
type Option func(*Chain)

// WithDetector sets the shell detector consulted when a static page reports
// no results.
func WithDetector(d ShellDetector) Option {
	return func(c *Chain) { c.detector = d }
}

// WithArchiver stores snapshots of successful documents.
func WithArchiver(a Archiver) Option {
	return func(c *Chain) { c.archiver = a }
}

// WithLogger sets the chain logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Chain) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a Chain.
func New(acquirer Acquirer, opts ...Option) *Chain {
	c := &Chain{acquirer: acquirer, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run tries the plan's strategies in order and stops at the first one that
// yields at least one candidate. Rendering follows static unless the static
// page itself reports no results and does not look like an application
// shell. When nothing succeeds the error is a
// *SourceUnavailable joining every attempt error.
func (c *Chain) Run(ctx context.Context, plan Plan, parser Parser) (Outcome, error) {
	var attempts []Attempt
	fail := func(err error) (Outcome, error) {
		errs := make([]error, 0, len(attempts)+1)
		for _, a := range attempts {
			errs = append(errs, a.Err)
		}
		if err != nil {
			errs = append(errs, err)
		}
		joined := errors.Join(errs...)
		if joined == nil {
			joined = errors.New("no acquisition strategy")
		}
		return Outcome{Source: plan.Source, Attempts: attempts}, &SourceUnavailable{
			Source:   plan.Source,
			Attempts: attempts,
			Err:      joined,
		}
	}
	if plan.Unavailable != "" {
		return fail(errors.New(plan.Unavailable))
	}

	wantRender := plan.RequiresJS
	if plan.StaticURL != "" {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		doc, listings, err := c.static(ctx, plan, parser)
		attempts = append(attempts, c.record(plan.Source, StrategyStatic, len(listings), doc.Duration, err))
		if err == nil {
			c.archive(ctx, plan.Source, StrategyStatic, doc)
			return c.success(plan.Source, StrategyStatic, listings, attempts), nil
		}
		var empty *ExtractionEmpty
		switch {
		case !errors.As(err, &empty) || !empty.NoResults:
			wantRender = true
		case c.detector != nil && c.detector.NeedsRender(doc.StatusCode, doc.Body):
			c.logger.Debug("no-results page looks like an application shell", zap.String("source", plan.Source))
			wantRender = true
		default:
			c.logger.Debug("static page reports no results", zap.String("source", plan.Source))
		}
	}

	if renderURL := plan.renderURL(); wantRender && renderURL != "" {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		start := time.Now()
		doc, err := c.acquirer.FetchRendered(ctx, renderURL, session.RenderOptions{
			ReadySelectors: plan.ReadySelectors,
			Timeout:        plan.RenderTimeout,
		})
		var listings []opportunity.RawListing
		if err == nil {
			listings, err = c.parse(plan.Source, StrategyRendered, doc, parser)
		}
		attempts = append(attempts, c.record(plan.Source, StrategyRendered, len(listings), time.Since(start), err))
		if err == nil {
			c.archive(ctx, plan.Source, StrategyRendered, doc)
			return c.success(plan.Source, StrategyRendered, listings, attempts), nil
		}
	}

	if plan.FeedURL != "" {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		start := time.Now()
		entries, err := c.acquirer.FetchFeed(ctx, plan.FeedURL, session.StaticOptions{
			Headers: plan.Headers,
			Timeout: plan.FeedTimeout,
		})
		var listings []opportunity.RawListing
		if err == nil {
			listings = parser.ParseFeed(entries)
			if len(listings) == 0 {
				err = &ExtractionEmpty{Source: plan.Source, Strategy: StrategyFeed}
			}
		}
		attempts = append(attempts, c.record(plan.Source, StrategyFeed, len(listings), time.Since(start), err))
		if err == nil {
			return c.success(plan.Source, StrategyFeed, listings, attempts), nil
		}
	}

	return fail(nil)
}

func (c *Chain) static(ctx context.Context, plan Plan, parser Parser) (session.Document, []opportunity.RawListing, error) {
	doc, err := c.acquirer.FetchStatic(ctx, plan.StaticURL, session.StaticOptions{
		Headers: plan.Headers,
		Timeout: plan.StaticTimeout,
	})
	if err != nil {
		return doc, nil, err
	}
	listings, err := c.parse(plan.Source, StrategyStatic, doc, parser)
	return doc, listings, err
}

func (c *Chain) parse(
	source string,
	strategy Strategy,
	doc session.Document,
	parser Parser,
) ([]opportunity.RawListing, error) {
	listings, err := parser.ParseDocument(doc)
	if errors.Is(err, ErrNoResults) {
		return nil, &ExtractionEmpty{Source: source, Strategy: strategy, NoResults: true}
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s parse: %w", source, strategy, err)
	}
	if len(listings) == 0 {
		return nil, &ExtractionEmpty{Source: source, Strategy: strategy}
	}
	return listings, nil
}

func (c *Chain) record(source string, strategy Strategy, count int, elapsed time.Duration, err error) Attempt {
	result := "ok"
	if err != nil {
		result = Classify(err)
		c.logger.Info("acquisition strategy failed",
			zap.String("source", source),
			zap.String("strategy", string(strategy)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
	}
	metrics.ObserveStrategy(source, string(strategy), result)
	return Attempt{Strategy: strategy, Count: count, Elapsed: elapsed, Err: err}
}

func (c *Chain) success(source string, strategy Strategy, listings []opportunity.RawListing, attempts []Attempt) Outcome {
	c.logger.Debug("acquisition strategy succeeded",
		zap.String("source", source),
		zap.String("strategy", string(strategy)),
		zap.Int("count", len(listings)),
	)
	return Outcome{Source: source, Strategy: strategy, Listings: listings, Attempts: attempts}
}

func (c *Chain) archive(ctx context.Context, source string, strategy Strategy, doc session.Document) {
	if c.archiver == nil {
		return
	}
	if err := c.archiver.Archive(ctx, source, strategy, doc); err != nil {
		c.logger.Warn("archive snapshot failed",
			zap.String("source", source),
			zap.String("strategy", string(strategy)),
			zap.Error(err),
		)
	}
}
