package location

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"bangalore":          "Bengaluru, Karnataka",
		"  Banglore ":        "Bengaluru, Karnataka",
		"Bengaluru, India":   "Bengaluru, Karnataka",
		"bombay":             "Mumbai, Maharashtra",
		"New Delhi":          "Delhi, Delhi",
		"madras":             "Chennai, Tamil Nadu",
		"Coimbatore":         "Coimbatore, Tamil Nadu",
		"New York, NY":       "New York, NY",
		"":                   "",
		"  Remote  ":         "Remote",
	}
	for in, want := range tests {
		require.Equal(t, want, Canonicalize(in), in)
	}
}

func TestResolveEndpoint(t *testing.T) {
	t.Parallel()

	require.Equal(t, DomesticEndpoint, ResolveEndpoint("Pune"))
	require.Equal(t, DomesticEndpoint, ResolveEndpoint("anywhere in India"))
	require.Equal(t, InternationalEndpoint, ResolveEndpoint("new york"))
	require.Equal(t, InternationalEndpoint, ResolveEndpoint(""))
}

func TestMatches(t *testing.T) {
	t.Parallel()

	require.True(t, Matches("Bengaluru, Karnataka", "bangalore"))
	require.True(t, Matches("Gurugram, Haryana", "delhi"))
	require.True(t, Matches("Work from home", "remote"))
	require.True(t, Matches("Hyderabad, India", "india"))
	require.True(t, Matches("New York, NY", "New York"))
	require.False(t, Matches("Pune, Maharashtra", "bangalore"))
	require.False(t, Matches("", "bangalore"))
	require.False(t, Matches("Bengaluru", ""))
}

func TestHasForeignIndicator(t *testing.T) {
	t.Parallel()

	require.True(t, HasForeignIndicator("San Jose, CA"))
	require.True(t, HasForeignIndicator("Remote, United States"))
	require.True(t, HasForeignIndicator("Austin, TX 78701"))
	require.False(t, HasForeignIndicator("Chennai, Tamil Nadu"))
	require.False(t, HasForeignIndicator("Coimbatore"), "state codes only count as whole tokens")
}

func TestIsDomesticCity(t *testing.T) {
	t.Parallel()

	require.True(t, IsDomesticCity("Banglore"))
	require.True(t, IsDomesticCity("near Pune"))
	require.False(t, IsDomesticCity("India"))
	require.False(t, IsDomesticCity("new york"))
}
