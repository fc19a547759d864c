package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/shaileshms05/learnXAI/internal/opportunity"
)

// ErrNoResults is returned by ExtractHTML when the page states that the
// search matched nothing.
var ErrNoResults = errors.New("page reports no results")

// Placeholder values used when a field cannot be extracted.
const (
	DefaultCompany  = "Company Not Specified"
	DefaultLocation = "Location Not Specified"
)

const (
	weakTitleLength     = 5
	minTitleLength      = 3
	maxTitleLength      = 100
	minDescription      = 20
	minSalvaged         = 10
	salvagedDescription = 50
)

var genericTitles = map[string]bool{
	"intern":     true,
	"internship": true,
	"job":        true,
	"position":   true,
}

// Rules is the extraction ruleset of one source.
type Rules struct {
	// Source is stamped onto every listing.
	Source string
	// BaseURL resolves relative links.
	BaseURL    string
	Containers []ContainerPattern

	Title       []FieldPattern
	Company     []FieldPattern
	Location    []FieldPattern
	Description []FieldPattern
	// Link locates the anchor carrying the listing URL. When empty the title
	// element, then the first anchor in the container, are used.
	Link []FieldPattern
	// KeyLink builds a listing URL from an identifier attribute. A non-empty
	// result wins over Link.
	KeyLink func(container *goquery.Selection) string
	// FallbackLink is used when no link can be found.
	FallbackLink string

	DefaultCompany  string
	DefaultLocation string
	// MinTitleLength overrides the shortest acceptable title.
	MinTitleLength int
	// DescriptionLimit caps descriptions in runes; zero means no cap.
	DescriptionLimit int
	// NoResults are lower-case page phrases meaning the search matched nothing.
	NoResults []string
}

// Input carries the per-request values extraction needs.
type Input struct {
	Query    string
	Location string
	// Limit bounds the number of containers examined; zero means no bound.
	Limit int
	Now   time.Time
}

// Extractor applies Rules to documents.
type Extractor struct {
	logger *zap.Logger
}

// New returns an Extractor.
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// ExtractHTML parses body and extracts candidates from it. Pages carrying
// one of rules.NoResults yield ErrNoResults.
func (e *Extractor) ExtractHTML(body []byte, rules Rules, in Input) ([]opportunity.RawListing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if hasNoResultsMarker(doc, rules.NoResults) {
		return nil, ErrNoResults
	}
	return e.Extract(doc, rules, in), nil
}

// Extract returns the candidates found in doc, deduplicated by title. A
// candidate that cannot be read is skipped without affecting the others.
func (e *Extractor) Extract(doc *goquery.Document, rules Rules, in Input) []opportunity.RawListing {
	if hasNoResultsMarker(doc, rules.NoResults) {
		e.logger.Debug("page reports no results", zap.String("source", rules.Source))
		return nil
	}
	containers := FindContainers(doc, rules.Containers)
	if containers == nil {
		return nil
	}
	if in.Limit > 0 && containers.Length() > in.Limit {
		containers = containers.Slice(0, in.Limit)
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	listings := make([]opportunity.RawListing, 0, containers.Length())
	containers.Each(func(i int, container *goquery.Selection) {
		listing, ok, err := e.extractOne(container, rules, in, now)
		if err != nil {
			e.logger.Warn("skipping malformed candidate",
				zap.String("source", rules.Source),
				zap.Int("index", i),
				zap.Error(err),
			)
			return
		}
		if ok {
			listings = append(listings, listing)
		}
	})
	return DedupByTitle(listings)
}

func (e *Extractor) extractOne(
	container *goquery.Selection,
	rules Rules,
	in Input,
	now time.Time,
) (listing opportunity.RawListing, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract candidate: %v", r)
			ok = false
		}
	}()

	title, titleElem := FirstText(container, rules.Title)
	if isWeakTitle(title) {
		title = escalateTitle(title, titleElem, container)
	}
	minLen := rules.MinTitleLength
	if minLen <= 0 {
		minLen = minTitleLength
	}
	if len([]rune(title)) < minLen {
		return opportunity.RawListing{}, false, nil
	}

	company, _ := FirstText(container, rules.Company)
	if company == "" {
		company = firstNonEmpty(rules.DefaultCompany, DefaultCompany)
	}
	loc, _ := FirstText(container, rules.Location)
	if loc == "" {
		loc = firstNonEmpty(strings.TrimSpace(in.Location), rules.DefaultLocation, DefaultLocation)
	}
	description, _ := FirstText(container, rules.Description)
	if len(description) < minDescription {
		description = SalvageDescription(description, container, in.Query, title, company, loc)
	}
	if rules.DescriptionLimit > 0 {
		description = truncateRunes(description, rules.DescriptionLimit)
	}

	return opportunity.RawListing{
		Title:       title,
		Company:     company,
		Location:    loc,
		Description: description,
		URL:         e.link(container, titleElem, rules),
		Source:      rules.Source,
		RetrievedAt: now,
	}, true, nil
}

func (e *Extractor) link(container, titleElem *goquery.Selection, rules Rules) string {
	if rules.KeyLink != nil {
		if link := rules.KeyLink(container); link != "" {
			return link
		}
	}
	for _, anchor := range linkCandidates(container, titleElem, rules.Link) {
		href, _ := anchor.Attr("href")
		if link := ResolveLink(rules.BaseURL, href); link != "" {
			return link
		}
	}
	return rules.FallbackLink
}

func linkCandidates(container, titleElem *goquery.Selection, patterns []FieldPattern) []*goquery.Selection {
	if len(patterns) > 0 {
		if match := FirstMatch(container, patterns); match != nil {
			return []*goquery.Selection{match}
		}
		return nil
	}
	var out []*goquery.Selection
	if titleElem != nil {
		if goquery.NodeName(titleElem) == "a" {
			out = append(out, titleElem)
		}
		if nested := titleElem.Find("a[href]"); nested.Length() > 0 {
			out = append(out, nested.First())
		}
	}
	if anchors := container.Find("a[href]"); anchors.Length() > 0 {
		out = append(out, anchors.First())
	}
	return out
}

func isWeakTitle(title string) bool {
	return len([]rune(title)) < weakTitleLength || genericTitles[strings.ToLower(title)]
}

// escalateTitle looks for a longer title in nested link and span text, then
// in the first line of the container's text.
func escalateTitle(title string, titleElem, container *goquery.Selection) string {
	if titleElem != nil {
		for _, selector := range []string{"a[href]", "span"} {
			nested := cleanText(titleElem.Find(selector).First().Text())
			if len(nested) > len(title) {
				title = nested
			}
		}
	}
	if len([]rune(title)) >= weakTitleLength {
		return title
	}
	lines := FlattenLines(container)
	if len(lines) == 0 {
		return title
	}
	first := truncateRunes(lines[0], maxTitleLength)
	if len(first) > len(title) {
		return first
	}
	return title
}

// SalvageDescription builds a description from the container text minus the
// words already used by title, company and location. It falls back to a
// templated sentence when too little text remains.
func SalvageDescription(current string, container *goquery.Selection, query, title, company, loc string) string {
	used := make(map[string]bool)
	for _, field := range []string{title, company, loc} {
		for _, w := range strings.Fields(strings.ToLower(field)) {
			used[w] = true
		}
	}
	if container != nil {
		var words []string
		for _, w := range strings.Fields(FlattenText(container)) {
			if used[strings.ToLower(w)] {
				continue
			}
			words = append(words, w)
			if len(words) == salvagedDescription {
				break
			}
		}
		if len(words) > 0 {
			current = strings.Join(words, " ")
		}
	}
	if len(current) < minSalvaged {
		return fmt.Sprintf("Internship opportunity for %s position", strings.TrimSpace(query))
	}
	return current
}

// DedupByTitle keeps the first listing for each lower-cased title.
func DedupByTitle(listings []opportunity.RawListing) []opportunity.RawListing {
	seen := make(map[string]struct{}, len(listings))
	out := listings[:0]
	for _, l := range listings {
		key := strings.ToLower(l.Title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, l)
	}
	return out
}

func hasNoResultsMarker(doc *goquery.Document, markers []string) bool {
	if len(markers) == 0 {
		return false
	}
	text := strings.ToLower(doc.Find("body").Text())
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
