package relevance

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shaileshms05/learnXAI/internal/opportunity"
)

func scored(title string, score float64) opportunity.ScoredListing {
	return opportunity.ScoredListing{RawListing: listing(title, "Remote", ""), Score: score}
}

func TestIsRelevant(t *testing.T) {
	t.Parallel()

	software := NewQuery("software engineer", "")
	tests := []struct {
		name  string
		l     opportunity.RawListing
		score float64
		q     Query
		want  bool
	}{
		{name: "not an internship", l: listing("Senior Accountant", "Pune", ""), score: 1, q: software, want: false},
		{name: "generic title with tech description", l: listing("Intern", "Pune", "Help our software team ship features"), score: 0.1, q: NewQuery("design", "pune"), want: true},
		{name: "program with region match", l: listing("Summer Internship Program", "Karnataka", ""), score: 0.12, q: NewQuery("design", "bangalore"), want: true},
		{name: "program elsewhere", l: listing("Summer Internship Program", "Remote", ""), score: 0.12, q: NewQuery("design", "bangalore"), want: false},
		{name: "program without location", l: listing("Winter Camp", "Remote", ""), score: 0.1, q: NewQuery("design", ""), want: true},
		{name: "tech role with location", l: listing("QA Intern", "Pune", ""), score: 0.15, q: NewQuery("software engineer", "pune"), want: true},
		{name: "moderate score with location", l: listing("Marketing Intern", "Pune", ""), score: 0.22, q: NewQuery("design", "pune"), want: true},
		{name: "weak score with location", l: listing("Marketing Intern", "Pune", ""), score: 0.2, q: NewQuery("design", "pune"), want: false},
		{name: "tech role without location", l: listing("QA Intern", "Pune", ""), score: 0.1, q: software, want: true},
		{name: "other without location", l: listing("Marketing Intern", "Pune", ""), score: 0.14, q: NewQuery("design", ""), want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, IsRelevant(tc.l, tc.score, tc.q))
		})
	}
}

func TestAdaptiveFloor(t *testing.T) {
	t.Parallel()

	small := []opportunity.ScoredListing{scored("a", 0.9)}
	require.Equal(t, LenientFloor, AdaptiveFloor(small))

	strong := []opportunity.ScoredListing{
		scored("a", 0.1), scored("b", 0.1), scored("c", 0.1), scored("d", 0.1), scored("e", 0.1), scored("f", 0.5),
	}
	require.Equal(t, StrongFloor, AdaptiveFloor(strong))

	weak := []opportunity.ScoredListing{
		scored("a", 0.1), scored("b", 0.1), scored("c", 0.1), scored("d", 0.1), scored("e", 0.1), scored("f", 0.3),
	}
	require.Equal(t, DefaultFloor, AdaptiveFloor(weak))
}

func TestFilterRankSortsStablyAndTruncates(t *testing.T) {
	t.Parallel()

	q := NewQuery("software", "")
	in := []opportunity.ScoredListing{
		scored("Software Intern A", 0.5),
		scored("Software Intern B", 0.9),
		scored("Software Intern C", 0.5),
		scored("Software Intern D", 0.05),
	}
	out := FilterRank(in, q, 3)
	require.Len(t, out, 3)
	require.Equal(t, "Software Intern B", out[0].Title)
	require.Equal(t, "Software Intern A", out[1].Title)
	require.Equal(t, "Software Intern C", out[2].Title)
}

func TestFilterRankFallsBackWhenEverythingIsFiltered(t *testing.T) {
	t.Parallel()

	// Both pass the tech-role gate at 0.1 but sit under the 0.15 floor.
	in := []opportunity.ScoredListing{scored("QA Intern", 0.11), scored("Data Intern", 0.13)}
	out := FilterRank(in, NewQuery("software engineer", ""), 1)
	require.Len(t, out, 1)
	require.Equal(t, "Data Intern", out[0].Title)

	require.Nil(t, FilterRank(nil, NewQuery("x", ""), 5))
}

func TestFilterRankNeverReturnsNonInternships(t *testing.T) {
	t.Parallel()

	in := []opportunity.ScoredListing{
		scored("Senior Software Engineer", 1.3),
		scored("Staff Backend Engineer", 0.95),
	}
	require.Empty(t, FilterRank(in, NewQuery("software engineer", "bangalore"), 5))

	in = append(in, scored("Software Engineer Intern", 0.4))
	out := FilterRank(in, NewQuery("software engineer", "bangalore"), 5)
	require.Len(t, out, 1)
	require.Equal(t, "Software Engineer Intern", out[0].Title)
}

func TestFilterRankScenarios(t *testing.T) {
	t.Parallel()

	s := NewScorer()
	fixture := []opportunity.RawListing{
		listing("Software Engineering Intern", "Bengaluru, Karnataka", "Build backend services in Go"),
	}

	home := NewQuery("software engineer", "bangalore")
	homeRanked := FilterRank(s.ScoreAll(fixture, home), home, 10)
	require.Len(t, homeRanked, 1)
	require.GreaterOrEqual(t, homeRanked[0].Score, 0.6)

	away := NewQuery("software engineer", "new york")
	awayRanked := FilterRank(s.ScoreAll(fixture, away), away, 10)
	require.Len(t, awayRanked, 1, "a single candidate is never filtered to nothing")
	require.Less(t, awayRanked[0].Score, homeRanked[0].Score)
}
