package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/antchfx/xmlquery"
)

var errNotFeed = errors.New("content is not an RSS or Atom feed")

// FeedEntry is one item of a syndication feed.
type FeedEntry struct {
	Title       string
	Link        string
	Description string
	Published   string
}

// FetchFeed retrieves rawURL and parses it as RSS 2.0, RSS 1.0 or Atom.
// Transport failures keep their static-fetch error type; anything that
// arrives but cannot be read as a feed is a *FeedError.
func (s *Session) FetchFeed(ctx context.Context, rawURL string, opts StaticOptions) ([]FeedEntry, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = s.cfg.FeedTimeout
	}
	headers := http.Header{}
	headers.Set("Accept", "application/rss+xml,application/atom+xml,application/xml;q=0.9,text/xml;q=0.8,*/*;q=0.5")
	for key, values := range opts.Headers {
		headers[key] = append([]string(nil), values...)
	}
	opts.Headers = headers

	doc, err := s.FetchStatic(ctx, rawURL, opts)
	if err != nil {
		return nil, err
	}
	entries, err := ParseFeed(doc.Body)
	if err != nil {
		return nil, &FeedError{URL: rawURL, Err: err}
	}
	return entries, nil
}

// ParseFeed decodes a feed document.
func ParseFeed(body []byte) ([]FeedEntry, error) {
	root, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}
	switch {
	case xmlquery.FindOne(root, "/rss") != nil,
		xmlquery.FindOne(root, "/*[local-name()='RDF']") != nil:
		return rssEntries(root), nil
	case xmlquery.FindOne(root, "/*[local-name()='feed']") != nil:
		return atomEntries(root), nil
	default:
		return nil, errNotFeed
	}
}

func rssEntries(root *xmlquery.Node) []FeedEntry {
	items := xmlquery.Find(root, "//*[local-name()='item']")
	entries := make([]FeedEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, FeedEntry{
			Title:       childText(item, "title"),
			Link:        childText(item, "link"),
			Description: childText(item, "description"),
			Published:   firstNonEmpty(childText(item, "pubDate"), childText(item, "date")),
		})
	}
	return entries
}

func atomEntries(root *xmlquery.Node) []FeedEntry {
	items := xmlquery.Find(root, "//*[local-name()='entry']")
	entries := make([]FeedEntry, 0, len(items))
	for _, item := range items {
		link := ""
		if n := xmlquery.FindOne(item, "*[local-name()='link']"); n != nil {
			link = strings.TrimSpace(n.SelectAttr("href"))
		}
		entries = append(entries, FeedEntry{
			Title:       childText(item, "title"),
			Link:        link,
			Description: firstNonEmpty(childText(item, "summary"), childText(item, "content")),
			Published:   firstNonEmpty(childText(item, "published"), childText(item, "updated")),
		})
	}
	return entries
}

func childText(n *xmlquery.Node, name string) string {
	child := xmlquery.FindOne(n, fmt.Sprintf("*[local-name()='%s']", name))
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.InnerText())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
