// Package optimizer normalizes raw search text before harvesting. A hosted
// model does the rewriting when configured; every failure degrades to the
// raw query.
package optimizer

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shaileshms05/learnXAI/internal/opportunity"
)

// FallbackStrategy is reported when the raw query is used as-is.
const FallbackStrategy = "Using original query (optimizer unavailable)"

// ErrEmptyOptimization is returned when a model answers without a query.
var ErrEmptyOptimization = errors.New("optimizer returned an empty query")

// Optimizer rewrites a raw query and location.
type Optimizer interface {
	Normalize(ctx context.Context, rawQuery, rawLocation string) (opportunity.NormalizedQuery, error)
}

// Fallback is the degraded normalization: the raw query, the raw location
// and the query's words as keywords.
func Fallback(rawQuery, rawLocation string) opportunity.NormalizedQuery {
	query := strings.TrimSpace(rawQuery)
	return opportunity.NormalizedQuery{
		OptimizedQuery:    query,
		CanonicalLocation: strings.TrimSpace(rawLocation),
		Keywords:          strings.Fields(query),
		AddInternSuffix:   needsInternSuffix(query),
		Strategy:          FallbackStrategy,
	}
}

func needsInternSuffix(query string) bool {
	return !strings.Contains(strings.ToLower(query), "intern")
}

// Resilient wraps a primary optimizer and never fails.
type Resilient struct {
	primary Optimizer
	timeout time.Duration
	logger  *zap.Logger
}

// NewResilient returns a Resilient optimizer. A nil primary always uses
// Fallback; timeout bounds each primary call when positive.
func NewResilient(primary Optimizer, timeout time.Duration, logger *zap.Logger) *Resilient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resilient{primary: primary, timeout: timeout, logger: logger}
}

// Normalize returns the primary's answer, or Fallback with degraded set
// when the primary fails or answers without a query.
func (r *Resilient) Normalize(ctx context.Context, rawQuery, rawLocation string) (q opportunity.NormalizedQuery, degraded bool) {
	if r == nil || r.primary == nil {
		return Fallback(rawQuery, rawLocation), false
	}
	callCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	q, err := r.primary.Normalize(callCtx, rawQuery, rawLocation)
	if err == nil && strings.TrimSpace(q.OptimizedQuery) == "" {
		err = ErrEmptyOptimization
	}
	if err != nil {
		r.logger.Warn("query optimization failed, using original query",
			zap.String("query", rawQuery),
			zap.Error(err),
		)
		return Fallback(rawQuery, rawLocation), true
	}
	if strings.TrimSpace(q.CanonicalLocation) == "" {
		q.CanonicalLocation = strings.TrimSpace(rawLocation)
	}
	if len(q.Keywords) == 0 {
		q.Keywords = strings.Fields(q.OptimizedQuery)
	}
	return q, false
}
