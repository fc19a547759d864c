package optimizer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shaileshms05/learnXAI/internal/opportunity"
)

type stubOptimizer struct {
	q   opportunity.NormalizedQuery
	err error
	ctx context.Context
}

func (s *stubOptimizer) Normalize(ctx context.Context, _, _ string) (opportunity.NormalizedQuery, error) {
	s.ctx = ctx
	return s.q, s.err
}

func TestFallback(t *testing.T) {
	t.Parallel()

	q := Fallback("  software engineer ", "bangalore")
	require.Equal(t, "software engineer", q.OptimizedQuery)
	require.Equal(t, "bangalore", q.CanonicalLocation)
	require.Equal(t, []string{"software", "engineer"}, q.Keywords)
	require.True(t, q.AddInternSuffix)
	require.Equal(t, FallbackStrategy, q.Strategy)

	require.False(t, Fallback("Data Internship", "").AddInternSuffix)
}

func TestResilientUsesPrimary(t *testing.T) {
	t.Parallel()

	primary := &stubOptimizer{q: opportunity.NormalizedQuery{OptimizedQuery: "software engineer intern"}}
	q, degraded := NewResilient(primary, time.Second, nil).Normalize(context.Background(), "swe", "pune")
	require.False(t, degraded)
	require.Equal(t, "software engineer intern", q.OptimizedQuery)
	require.Equal(t, "pune", q.CanonicalLocation, "missing location falls back to the raw one")
	require.Equal(t, []string{"software", "engineer", "intern"}, q.Keywords)
	_, hasDeadline := primary.ctx.Deadline()
	require.True(t, hasDeadline)
}

func TestResilientDegradesOnFailure(t *testing.T) {
	t.Parallel()

	tests := map[string]*stubOptimizer{
		"error":       {err: errors.New("quota exceeded")},
		"empty query": {q: opportunity.NormalizedQuery{OptimizedQuery: "  "}},
	}
	for name, primary := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			q, degraded := NewResilient(primary, 0, nil).Normalize(context.Background(), "data science", "Remote")
			require.True(t, degraded)
			require.Equal(t, Fallback("data science", "Remote"), q)
		})
	}
}

func TestResilientWithoutPrimary(t *testing.T) {
	t.Parallel()

	q, degraded := NewResilient(nil, 0, nil).Normalize(context.Background(), "go", "")
	require.False(t, degraded)
	require.Equal(t, "go", q.OptimizedQuery)
}
