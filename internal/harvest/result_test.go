package harvest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shaileshms05/learnXAI/internal/fetchchain"
	"github.com/shaileshms05/learnXAI/internal/opportunity"
)

func scoredListing(source, title, company string, score float64) opportunity.ScoredListing {
	return opportunity.ScoredListing{
		RawListing: opportunity.RawListing{Title: title, Company: company, Source: source},
		Score:      score,
	}
}

func TestDedupKeyNormalizesCaseAndSpace(t *testing.T) {
	t.Parallel()

	require.Equal(t, DedupKey("Software Intern", "Acme"), DedupKey("  software\tINTERN ", "ACME"))
	require.NotEqual(t, DedupKey("ab", "c"), DedupKey("a", "bc"))
}

func TestDedupIsIdempotent(t *testing.T) {
	t.Parallel()

	in := []opportunity.ScoredListing{
		scoredListing("a", "Go Intern", "Acme", 0.5),
		scoredListing("b", "go  intern", "acme", 0.9),
		scoredListing("b", "Rust Intern", "Acme", 0.4),
	}
	once := Dedup(in)
	require.Len(t, once, 2)
	require.Equal(t, "a", once[0].Source)
	require.Equal(t, once, Dedup(once))
}

func TestMergeSkipsFailuresAndSortsStably(t *testing.T) {
	t.Parallel()

	merged := Merge([]SourceResult{
		{Source: "a", Listings: []opportunity.ScoredListing{
			scoredListing("a", "First", "X", 0.5),
			scoredListing("a", "Second", "X", 0.7),
		}},
		{Source: "b", Err: errors.New("down"), Listings: []opportunity.ScoredListing{
			scoredListing("b", "Ignored", "X", 1),
		}},
		{Source: "c", Listings: []opportunity.ScoredListing{
			scoredListing("c", "Third", "X", 0.5),
		}},
	})
	titles := make([]string, len(merged))
	for i, l := range merged {
		titles[i] = l.Title
	}
	require.Equal(t, []string{"Second", "First", "Third"}, titles)
}

func TestSourceResultDiagnostic(t *testing.T) {
	t.Parallel()

	ok := SourceResult{
		Source:   "indeed",
		Strategy: fetchchain.StrategyFeed,
		Listings: []opportunity.ScoredListing{scoredListing("indeed", "A", "B", 1)},
		Elapsed:  1500 * time.Millisecond,
	}.Diagnostic()
	require.Equal(t, opportunity.SourceDiagnostic{
		Source: "indeed", Status: opportunity.DiagnosticOK, Strategy: "feed", Count: 1, ElapsedMS: 1500,
	}, ok)

	failed := SourceResult{Source: "glassdoor", Err: errors.Join(errors.New("blocked"), errors.New("feed  down"))}.Diagnostic()
	require.Equal(t, opportunity.DiagnosticError, failed.Status)
	require.Equal(t, "blocked; feed down", failed.Reason)
	require.Zero(t, failed.Count)
}

func TestFormat(t *testing.T) {
	t.Parallel()

	l := opportunity.ScoredListing{
		RawListing: opportunity.RawListing{
			Title:       "Software Intern",
			Company:     "Acme",
			Location:    "Pune, Maharashtra",
			Description: "Build things.",
			URL:         "https://example.com/1",
			Source:      "indeed",
			RetrievedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("IST", 19800)),
		},
		Score: 0.87654,
	}
	got := Format(l, "Indeed", " golang ")
	require.Equal(t, OpportunityID("software intern", "ACME"), got.ID)
	require.Len(t, got.ID, 64)
	require.Equal(t, 0.88, got.MatchScore)
	require.Equal(t, "2025-01-01T21:34:05Z", got.ScrapedAt)
	require.Equal(t, OpportunityType, got.Type)
	require.Equal(t, OpportunityDuration, got.Duration)
	require.Equal(t, []string{"golang"}, got.RequiredSkills)
	require.Equal(t, []string{"Mentorship", "Networking", "Real-world experience"}, got.Benefits)
	require.Equal(t, "Apply via Indeed or company website", got.ApplicationTips)

	got.Benefits[0] = "changed"
	require.Equal(t, "Mentorship", Format(l, "", "x").Benefits[0])
	require.Equal(t, "Apply via indeed or company website", Format(l, "", "x").ApplicationTips)
}
