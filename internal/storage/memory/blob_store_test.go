package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlobStoreRoundTrip(t *testing.T) {
	t.Parallel()

	s := NewBlobStore()
	uri, err := s.PutObject(context.Background(), "b/feed.xml", "application/xml", strings.NewReader("<rss/>"))
	require.NoError(t, err)
	require.Equal(t, "memory://b/feed.xml", uri)
	_, err = s.PutObject(context.Background(), "a/page.html", "text/html", strings.NewReader("<html/>"))
	require.NoError(t, err)

	body, ct, ok := s.Get("b/feed.xml")
	require.True(t, ok)
	require.Equal(t, "<rss/>", string(body))
	require.Equal(t, "application/xml", ct)
	require.Equal(t, []string{"a/page.html", "b/feed.xml"}, s.Paths())

	_, _, ok = s.Get("missing")
	require.False(t, ok)
}
