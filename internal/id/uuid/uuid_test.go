package uuid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNewRunIDIsUniqueV7(t *testing.T) {
	t.Parallel()

	gen := New()
	a, err := gen.NewRunID()
	require.NoError(t, err)
	b, err := gen.NewRunID()
	require.NoError(t, err)
	require.NotEqual(t, a, b)
	require.Equal(t, uuid.Version(7), a.Version())
	require.LessOrEqual(t, a.String()[:8], b.String()[:8], "v7 ids are time ordered")
}
