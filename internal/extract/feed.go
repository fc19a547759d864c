package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/shaileshms05/learnXAI/internal/opportunity"
	"github.com/shaileshms05/learnXAI/internal/session"
)

// SplitFeedTitle splits aggregator feed titles of the form
// "Title - Company - Location". Missing parts come back empty.
func SplitFeedTitle(raw string) (title, company, loc string) {
	parts := strings.Split(raw, " - ")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	title = parts[0]
	if len(parts) > 1 {
		company = parts[1]
	}
	if len(parts) > 2 {
		loc = strings.Join(parts[2:], " - ")
	}
	return title, company, loc
}

// FromFeed converts feed entries into candidates using the defaults of rules.
func FromFeed(entries []session.FeedEntry, rules Rules, in Input) []opportunity.RawListing {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	if in.Limit > 0 && len(entries) > in.Limit {
		entries = entries[:in.Limit]
	}
	listings := make([]opportunity.RawListing, 0, len(entries))
	for _, entry := range entries {
		title, company, loc := SplitFeedTitle(entry.Title)
		if len([]rune(title)) < minTitleLength {
			continue
		}
		if company == "" {
			company = firstNonEmpty(rules.DefaultCompany, DefaultCompany)
		}
		if loc == "" {
			loc = firstNonEmpty(strings.TrimSpace(in.Location), rules.DefaultLocation, DefaultLocation)
		}
		description := plainText(entry.Description)
		if description == "" {
			description = fmt.Sprintf("Internship opportunity for %s", strings.TrimSpace(in.Query))
		}
		listings = append(listings, opportunity.RawListing{
			Title:       title,
			Company:     company,
			Location:    loc,
			Description: description,
			URL:         ResolveLink(rules.BaseURL, entry.Link),
			Source:      rules.Source,
			RetrievedAt: now,
		})
	}
	return DedupByTitle(listings)
}

// plainText strips markup that feeds commonly embed in descriptions.
func plainText(s string) string {
	if !strings.Contains(s, "<") {
		return cleanText(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return cleanText(s)
	}
	return FlattenText(doc.Find("body"))
}
