package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Indeed jobs</title>
    <item>
      <title>Software Engineering Intern - Acme Labs - Bengaluru, Karnataka</title>
      <link>https://in.indeed.com/viewjob?jk=abc</link>
      <description>Work on Go services</description>
      <pubDate>Mon, 06 Jan 2025 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Data Intern - Beta - Pune, Maharashtra</title>
      <link>https://in.indeed.com/viewjob?jk=def</link>
    </item>
  </channel>
</rss>`

const atomFixture = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Internships</title>
  <entry>
    <title>QA Intern</title>
    <link href="https://example.com/jobs/1"/>
    <summary>Testing internship</summary>
    <updated>2025-01-06T10:00:00Z</updated>
  </entry>
</feed>`

func TestParseFeedRSS(t *testing.T) {
	t.Parallel()

	entries, err := ParseFeed([]byte(rssFixture))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "Software Engineering Intern - Acme Labs - Bengaluru, Karnataka", entries[0].Title)
	require.Equal(t, "https://in.indeed.com/viewjob?jk=abc", entries[0].Link)
	require.Equal(t, "Work on Go services", entries[0].Description)
	require.NotEmpty(t, entries[0].Published)
	require.Empty(t, entries[1].Description)
}

func TestParseFeedAtom(t *testing.T) {
	t.Parallel()

	entries, err := ParseFeed([]byte(atomFixture))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "QA Intern", entries[0].Title)
	require.Equal(t, "https://example.com/jobs/1", entries[0].Link)
	require.Equal(t, "Testing internship", entries[0].Description)
}

func TestParseFeedRejectsNonFeedXML(t *testing.T) {
	t.Parallel()

	_, err := ParseFeed([]byte(`<?xml version="1.0"?><catalog><book/></catalog>`))
	require.ErrorIs(t, err, errNotFeed)
}

func TestFetchFeedWrapsParseFailures(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/rss", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssFixture))
	})
	mux.HandleFunc("/html", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<?xml version="1.0"?><html><body>not a feed</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := newTestSession(t, Config{})
	entries, err := s.FetchFeed(context.Background(), srv.URL+"/rss", StaticOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	_, err = s.FetchFeed(context.Background(), srv.URL+"/html", StaticOptions{})
	var feedErr *FeedError
	require.ErrorAs(t, err, &feedErr)
}
