package harvest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shaileshms05/learnXAI/internal/clock"
	"github.com/shaileshms05/learnXAI/internal/clock/system"
	"github.com/shaileshms05/learnXAI/internal/extract"
	"github.com/shaileshms05/learnXAI/internal/fetchchain"
	idgen "github.com/shaileshms05/learnXAI/internal/id/uuid"
	"github.com/shaileshms05/learnXAI/internal/metrics"
	"github.com/shaileshms05/learnXAI/internal/opportunity"
	"github.com/shaileshms05/learnXAI/internal/optimizer"
	"github.com/shaileshms05/learnXAI/internal/progress"
	"github.com/shaileshms05/learnXAI/internal/relevance"
	"github.com/shaileshms05/learnXAI/internal/source"
)

// DefaultPacing is the pause between consecutive sources.
const DefaultPacing = time.Second

// CompletedEvent names the notification published after a successful run.
const CompletedEvent = "harvest.complete"

// Status messages of the fixed checkpoints.
const (
	MessageStarting   = "Starting internship search..."
	MessageOptimizing = "Optimizing search query..."
	MessageRanking    = "Processing and deduplicating results..."
)

// Runner acquires one source. *fetchchain.Chain implements it.
type Runner interface {
	Run(ctx context.Context, plan fetchchain.Plan, parser fetchchain.Parser) (fetchchain.Outcome, error)
}

// Normalizer rewrites the raw query. *optimizer.Resilient implements it.
type Normalizer interface {
	Normalize(ctx context.Context, rawQuery, rawLocation string) (opportunity.NormalizedQuery, bool)
}

// Publisher announces finished runs.
type Publisher interface {
	Publish(ctx context.Context, event string, payload any) (string, error)
}

// IDGenerator mints run ids.
type IDGenerator interface {
	NewRunID() (uuid.UUID, error)
}

// Summary is the payload published when a run completes.
type Summary struct {
	RunID          string    `json:"run_id"`
	Query          string    `json:"query"`
	OptimizedQuery string    `json:"optimized_query"`
	Location       string    `json:"location,omitempty"`
	TotalResults   int       `json:"total_results"`
	ScrapedSources []string  `json:"scraped_sources"`
	FailedSources  []string  `json:"failed_sources,omitempty"`
	HasFallback    bool      `json:"has_fallback"`
	CompletedAt    time.Time `json:"completed_at"`
}

// Harvester orchestrates searches. It is safe for concurrent use when its
// Runner is.
type Harvester struct {
	registry  *source.Registry
	runner    Runner
	optimizer Normalizer
	extractor *extract.Extractor
	scorer    *relevance.Scorer
	clock     clock.Clock
	ids       IDGenerator
	sleep     func(ctx context.Context, d time.Duration) error
	pacing    time.Duration
	events    progress.Emitter
	publisher Publisher
	logger    *zap.Logger
}

// Option customizes a Harvester.
type Option func(*Harvester)

// WithOptimizer sets the query normalizer. The default never calls a model.
func WithOptimizer(n Normalizer) Option {
	return func(h *Harvester) {
		if n != nil {
			h.optimizer = n
		}
	}
}

// WithScorer replaces the default scoring pipeline.
func WithScorer(s *relevance.Scorer) Option {
	return func(h *Harvester) {
		if s != nil {
			h.scorer = s
		}
	}
}

// WithClock sets the clock used for timestamps and elapsed times.
func WithClock(c clock.Clock) Option {
	return func(h *Harvester) {
		if c != nil {
			h.clock = c
		}
	}
}

// WithIDs sets the run id generator.
func WithIDs(g IDGenerator) Option {
	return func(h *Harvester) {
		if g != nil {
			h.ids = g
		}
	}
}

// WithPacing sets the pause between sources; zero disables it.
func WithPacing(d time.Duration) Option {
	return func(h *Harvester) {
		if d >= 0 {
			h.pacing = d
		}
	}
}

// WithSleep replaces the pacing sleep.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(h *Harvester) {
		if sleep != nil {
			h.sleep = sleep
		}
	}
}

// WithEvents forwards every event of every run to e, typically a
// *progress.Hub.
func WithEvents(e progress.Emitter) Option {
	return func(h *Harvester) { h.events = e }
}

// WithPublisher announces completed runs.
func WithPublisher(p Publisher) Option {
	return func(h *Harvester) { h.publisher = p }
}

// WithLogger sets the harvester logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Harvester) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New builds a Harvester over registry and runner.
func New(registry *source.Registry, runner Runner, opts ...Option) *Harvester {
	h := &Harvester{
		registry:  registry,
		runner:    runner,
		optimizer: optimizer.NewResilient(nil, 0, nil),
		scorer:    relevance.NewScorer(),
		clock:     system.New(),
		ids:       idgen.New(),
		sleep:     sleepContext,
		pacing:    DefaultPacing,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.extractor = extract.New(h.logger)
	return h
}

// Registry returns the sources the harvester knows.
func (h *Harvester) Registry() *source.Registry { return h.registry }

// Harvest runs a search and returns its aggregated result.
func (h *Harvester) Harvest(ctx context.Context, req opportunity.SearchRequest) (opportunity.AggregatedResult, error) {
	return h.HarvestStream(ctx, req, nil)
}

// HarvestStream runs a search, delivering every event to emitter in order
// before returning. The stream ends with exactly one complete or error
// event. Invalid requests return an error wrapping
// opportunity.ErrInvalidRequest; canceled contexts return ctx.Err().
// Source failures never fail the run.
func (h *Harvester) HarvestStream(
	ctx context.Context,
	req opportunity.SearchRequest,
	emitter progress.Emitter,
) (opportunity.AggregatedResult, error) {
	runID, err := h.ids.NewRunID()
	if err != nil {
		return opportunity.AggregatedResult{}, fmt.Errorf("new run id: %w", err)
	}
	var targets []progress.Emitter
	if emitter != nil {
		targets = append(targets, emitter)
	}
	if h.events != nil {
		targets = append(targets, h.events)
	}
	stream := progress.NewStream(runID, h.clock.Now, targets...)
	logger := h.logger.With(zap.String("run_id", runID.String()))
	start := h.clock.Now()
	elapsed := func() time.Duration { return h.clock.Now().Sub(start) }

	if err := req.Validate(); err != nil {
		h.emit(logger, stream, progress.Failure(err.Error(), elapsed()))
		metrics.ObserveHarvest("invalid", 0)
		return opportunity.AggregatedResult{}, err
	}

	h.emit(logger, stream, progress.Status(progress.ProgressStart, MessageStarting))
	h.emit(logger, stream, progress.Status(progress.ProgressOptimize, MessageOptimizing))
	query, degraded := h.optimizer.Normalize(ctx, req.Query, req.Location)
	h.emit(logger, stream, progress.QueryOptimized(req.Query, query, degraded))

	srcReq := source.NewRequest(query, req)
	scoreQuery := relevance.NewQuery(srcReq.Query, srcReq.RequestedLocation()).WithKeywords(query.Keywords)
	ids := h.registry.Resolve(req.Sources)
	logger.Info("harvest started",
		zap.String("query", req.Query),
		zap.String("optimized_query", srcReq.Query),
		zap.String("location", srcReq.RequestedLocation()),
		zap.Strings("sources", ids),
		zap.Bool("degraded", degraded),
	)

	results := make([]SourceResult, 0, len(ids))
	for i, id := range ids {
		def, known := h.registry.Lookup(id)
		name := id
		if known && def.Name != "" {
			name = def.Name
		}
		h.emit(logger, stream, progress.Scraping(id, name, progress.SourceProgress(i, len(ids))))
		if i > 0 && h.pacing > 0 {
			if err := h.sleep(ctx, h.pacing); err != nil {
				return h.abort(ctx, logger, stream, elapsed())
			}
		}
		if err := ctx.Err(); err != nil {
			return h.abort(ctx, logger, stream, elapsed())
		}

		res := h.harvestSource(ctx, def, known, id, srcReq, scoreQuery, req.MaxResults)
		res.Name = name
		results = append(results, res)
		h.observe(logger, res)

		done := progress.SourceProgress(i+1, len(ids))
		if res.OK() {
			h.emit(logger, stream, progress.SourceComplete(id, name, string(res.Strategy), len(res.Listings), done, res.Elapsed))
		} else {
			h.emit(logger, stream, progress.SourceError(id, name, res.Reason(), done, res.Elapsed))
		}
	}

	h.emit(logger, stream, progress.Status(progress.ProgressRanking, MessageRanking))
	result := h.aggregate(runID, req, query, degraded, ids, results)
	h.emit(logger, stream, progress.Complete(&result, elapsed()))

	metrics.ObserveHarvest("ok", result.TotalResults)
	logger.Info("harvest complete",
		zap.Int("total_results", result.TotalResults),
		zap.Duration("elapsed", elapsed()),
	)
	h.publish(ctx, logger, req, srcReq.Query, result)
	return result, nil
}

func (h *Harvester) harvestSource(
	ctx context.Context,
	def source.Definition,
	known bool,
	id string,
	req source.Request,
	q relevance.Query,
	maxResults int,
) SourceResult {
	if !known {
		return SourceResult{Source: id, Err: ErrUnknownSource}
	}
	start := h.clock.Now()
	parser := def.Parser(h.extractor, req, maxResults*2, start)
	outcome, err := h.runner.Run(ctx, def.Plan(req), parser)
	res := SourceResult{Source: id, Elapsed: h.clock.Now().Sub(start)}
	if err != nil {
		res.Err = err
		return res
	}
	scored := h.scorer.ScoreAll(outcome.Listings, q)
	res.Strategy = outcome.Strategy
	res.Listings = relevance.FilterRank(scored, q, maxResults)
	return res
}

func (h *Harvester) aggregate(
	runID uuid.UUID,
	req opportunity.SearchRequest,
	query opportunity.NormalizedQuery,
	degraded bool,
	ids []string,
	results []SourceResult,
) opportunity.AggregatedResult {
	names := make(map[string]string, len(results))
	diagnostics := make([]opportunity.SourceDiagnostic, 0, len(results))
	for _, r := range results {
		names[r.Source] = r.Name
		diagnostics = append(diagnostics, r.Diagnostic())
	}
	merged := Merge(results)
	opportunities := make([]opportunity.Opportunity, 0, len(merged))
	for _, l := range merged {
		opportunities = append(opportunities, Format(l, names[l.Source], req.Query))
	}
	return opportunity.AggregatedResult{
		RunID:          runID.String(),
		Success:        true,
		TotalResults:   len(opportunities),
		Opportunities:  opportunities,
		ScrapedSources: append([]string{}, ids...),
		HasFallback:    degraded,
		QueryOptimization: opportunity.QueryOptimization{
			OriginalQuery:     req.Query,
			OptimizedQuery:    query.OptimizedQuery,
			OriginalLocation:  req.Location,
			OptimizedLocation: query.CanonicalLocation,
			Strategy:          query.Strategy,
		},
		Diagnostics: diagnostics,
	}
}

func (h *Harvester) abort(
	ctx context.Context,
	logger *zap.Logger,
	stream *progress.Stream,
	elapsed time.Duration,
) (opportunity.AggregatedResult, error) {
	err := ctx.Err()
	if err == nil {
		err = context.Canceled
	}
	logger.Info("harvest canceled", zap.Error(err))
	h.emit(logger, stream, progress.Failure("harvest canceled: "+err.Error(), elapsed))
	metrics.ObserveHarvest("canceled", 0)
	return opportunity.AggregatedResult{}, err
}

func (h *Harvester) observe(logger *zap.Logger, res SourceResult) {
	status := "ok"
	if !res.OK() {
		status = "error"
		if errors.Is(res.Err, ErrUnknownSource) {
			status = "unknown"
		}
		logger.Warn("source produced no listings",
			zap.String("source", res.Source),
			zap.String("class", fetchchain.Classify(res.Err)),
			zap.Duration("elapsed", res.Elapsed),
			zap.Error(res.Err),
		)
	} else {
		logger.Info("source harvested",
			zap.String("source", res.Source),
			zap.String("strategy", string(res.Strategy)),
			zap.Int("count", len(res.Listings)),
			zap.Duration("elapsed", res.Elapsed),
		)
	}
	metrics.ObserveSource(res.Source, status, res.Elapsed)
}

func (h *Harvester) emit(logger *zap.Logger, stream *progress.Stream, evt progress.Event) {
	if err := stream.Emit(evt); err != nil {
		logger.Error("drop progress event", zap.String("type", string(evt.Type)), zap.Error(err))
	}
}

func (h *Harvester) publish(
	ctx context.Context,
	logger *zap.Logger,
	req opportunity.SearchRequest,
	optimized string,
	result opportunity.AggregatedResult,
) {
	if h.publisher == nil {
		return
	}
	summary := Summary{
		RunID:          result.RunID,
		Query:          req.Query,
		OptimizedQuery: optimized,
		Location:       req.Location,
		TotalResults:   result.TotalResults,
		ScrapedSources: result.ScrapedSources,
		HasFallback:    result.HasFallback,
		CompletedAt:    h.clock.Now().UTC(),
	}
	for _, d := range result.Diagnostics {
		if d.Status == opportunity.DiagnosticError {
			summary.FailedSources = append(summary.FailedSources, d.Source)
		}
	}
	id, err := h.publisher.Publish(ctx, CompletedEvent, summary)
	if err != nil {
		logger.Warn("publish harvest summary failed", zap.Error(err))
		return
	}
	logger.Debug("harvest summary published", zap.String("message_id", id))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
