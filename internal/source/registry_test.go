package source

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shaileshms05/learnXAI/internal/extract"
	"github.com/shaileshms05/learnXAI/internal/fetchchain"
	"github.com/shaileshms05/learnXAI/internal/opportunity"
)

func TestDefaultRegistryOrder(t *testing.T) {
	t.Parallel()

	r := Default()
	require.Equal(t, []string{"indeed", "linkedin", "glassdoor", "internships", "skill_india"}, r.IDs())
	def, ok := r.Lookup("skill_india")
	require.True(t, ok)
	require.Equal(t, "Skill India Digital", def.Name)
	_, ok = r.Lookup("monster")
	require.False(t, ok)
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	r := Default()
	require.Equal(t, r.IDs(), r.Resolve(nil))
	require.Equal(t,
		[]string{"indeed", "glassdoor", "monster"},
		r.Resolve([]string{"Glassdoor", "monster", "indeed", "glassdoor", " "}),
	)
}

func TestNewRegistryRejectsBadDefinitions(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry(Indeed(), Indeed())
	require.ErrorContains(t, err, "duplicate")

	_, err = NewRegistry(Definition{ID: "x"})
	require.Error(t, err)

	custom := Definition{
		ID:    "fixture",
		Plan:  func(Request) fetchchain.Plan { return fetchchain.Plan{Source: "fixture"} },
		Rules: func(Request) extract.Rules { return extract.Rules{Source: "fixture"} },
	}
	r, err := NewRegistry(custom)
	require.NoError(t, err)
	require.Equal(t, []string{"fixture"}, r.IDs())
}

func TestNewRequest(t *testing.T) {
	t.Parallel()

	r := NewRequest(
		opportunity.NormalizedQuery{OptimizedQuery: "software engineer", CanonicalLocation: "Bengaluru, Karnataka"},
		opportunity.SearchRequest{Query: "swe", Location: "banglore"},
	)
	require.Equal(t, "software engineer", r.Query)
	require.Equal(t, "banglore", r.Location)
	require.Equal(t, "Bengaluru, Karnataka", r.CanonicalLocation)
	require.Equal(t, "Bengaluru, Karnataka", r.RequestedLocation())

	fallback := NewRequest(opportunity.NormalizedQuery{}, opportunity.SearchRequest{Query: " data ", Location: "pune"})
	require.Equal(t, "data", fallback.Query)
	require.Equal(t, "Pune, Maharashtra", fallback.CanonicalLocation)
}
