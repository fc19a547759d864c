// Package relevance scores candidate listings against a query and location
// and selects the ones worth returning.
package relevance

import (
	"strings"

	"github.com/shaileshms05/learnXAI/internal/location"
	"github.com/shaileshms05/learnXAI/internal/opportunity"
)

// Rule weights.
const (
	InternshipBonus     = 0.15
	TitleCoverageWeight = 0.5
	EngineeringBonus    = 0.2
	AdjacentRoleBonus   = 0.15
	TextCoverageWeight  = 0.2
	LocationMatchBonus  = 0.4
	NoLocationBonus     = 0.1
)

var stopWords = map[string]bool{
	"intern": true, "internship": true, "the": true, "a": true, "an": true, "and": true,
	"or": true, "in": true, "at": true, "for": true, "of": true, "to": true,
}

var (
	softwareQueryTerms = []string{"software", "developer", "engineer", "programming"}
	engineeringTitles  = []string{"engineer", "developer", "programmer", "coder"}
	adjacentTitles     = []string{"test", "qa", "quality", "automation", "ai", "machine learning", "data"}
)

// Query is the scoring view of a request. Build it with NewQuery.
type Query struct {
	Text     string
	Location string

	terms    []string
	software bool
}

// NewQuery lower-cases text and precomputes its scoring terms.
func NewQuery(text, loc string) Query {
	lower := strings.ToLower(strings.TrimSpace(text))
	return Query{
		Text:     lower,
		Location: strings.TrimSpace(loc),
		terms:    QueryTerms(lower),
		software: containsAny(lower, softwareQueryTerms),
	}
}

// WithKeywords uses keywords as the coverage terms when the query text
// yielded none.
func (q Query) WithKeywords(keywords []string) Query {
	if len(q.terms) == 0 {
		q.terms = QueryTerms(strings.Join(keywords, " "))
	}
	return q
}

// Terms returns the query terms used for coverage.
func (q Query) Terms() []string { return q.terms }

// QueryTerms splits text on whitespace and drops stop words and terms of two
// characters or fewer.
func QueryTerms(text string) []string {
	var terms []string
	for _, term := range strings.Fields(strings.ToLower(text)) {
		if stopWords[term] || len(term) <= 2 {
			continue
		}
		terms = append(terms, term)
	}
	return terms
}

// Rule is one named step of the scoring pipeline. Apply receives the score
// accumulated so far and returns the new score.
type Rule struct {
	Name  string
	Apply func(l opportunity.RawListing, q Query, score float64) float64
}

// DefaultRules returns the scoring pipeline in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "internship_bonus", Apply: internshipBonus},
		{Name: "title_coverage", Apply: titleCoverage},
		{Name: "role_category", Apply: roleCategory},
		{Name: "text_coverage", Apply: textCoverage},
		{Name: "location_adjustment", Apply: locationAdjustment},
	}
}

// Scorer folds a rule pipeline over a zero score.
type Scorer struct {
	rules []Rule
}

// NewScorer returns a Scorer; with no rules it uses DefaultRules.
func NewScorer(rules ...Rule) *Scorer {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Scorer{rules: rules}
}

// Score returns the relevance of l to q.
func (s *Scorer) Score(l opportunity.RawListing, q Query) float64 {
	score := 0.0
	for _, rule := range s.rules {
		score = rule.Apply(l, q, score)
	}
	return score
}

// ScoreAll scores every listing, keeping input order.
func (s *Scorer) ScoreAll(listings []opportunity.RawListing, q Query) []opportunity.ScoredListing {
	out := make([]opportunity.ScoredListing, len(listings))
	for i, l := range listings {
		out[i] = opportunity.ScoredListing{RawListing: l, Score: s.Score(l, q)}
	}
	return out
}

// IsInternship reports whether a listing reads as an internship.
func IsInternship(title, description string) bool {
	title = strings.ToLower(title)
	description = strings.ToLower(description)
	return strings.Contains(title, "intern") ||
		strings.Contains(description, "intern") ||
		strings.Contains(title, "camp") ||
		strings.Contains(title, "trainee")
}

func internshipBonus(l opportunity.RawListing, _ Query, score float64) float64 {
	if IsInternship(l.Title, l.Description) {
		return score + InternshipBonus
	}
	return score
}

func titleCoverage(l opportunity.RawListing, q Query, score float64) float64 {
	return score + coverage(strings.ToLower(l.Title), q.terms)*TitleCoverageWeight
}

func roleCategory(l opportunity.RawListing, q Query, score float64) float64 {
	if !q.software {
		return score
	}
	title := strings.ToLower(l.Title)
	if containsAny(title, engineeringTitles) {
		score += EngineeringBonus
	}
	if containsAny(title, adjacentTitles) {
		score += AdjacentRoleBonus
	}
	return score
}

func textCoverage(l opportunity.RawListing, q Query, score float64) float64 {
	text := strings.ToLower(l.Title + " " + l.Description)
	return score + coverage(text, q.terms)*TextCoverageWeight
}

func locationAdjustment(l opportunity.RawListing, q Query, score float64) float64 {
	if q.Location == "" {
		return score + NoLocationBonus
	}
	if location.Matches(l.Location, q.Location) {
		return score + LocationMatchBonus
	}
	if location.IsDomesticCity(q.Location) {
		if location.HasForeignIndicator(l.Location) {
			if score > 0.3 {
				return score * 0.15
			}
			return score * 0.05
		}
		return score * 0.4
	}
	return score * 0.5
}

func coverage(text string, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	matched := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

// containsAny matches terms as substrings, except two-letter terms which
// must appear as whole words.
func containsAny(text string, terms []string) bool {
	var words map[string]bool
	for _, term := range terms {
		if len(term) > 2 {
			if strings.Contains(text, term) {
				return true
			}
			continue
		}
		if words == nil {
			words = make(map[string]bool)
			for _, w := range strings.FieldsFunc(text, isSeparator) {
				words[w] = true
			}
		}
		if words[term] {
			return true
		}
	}
	return false
}

func isSeparator(r rune) bool {
	return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
}
