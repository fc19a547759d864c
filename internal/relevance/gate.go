package relevance

import (
	"strings"

	"github.com/shaileshms05/learnXAI/internal/location"
	"github.com/shaileshms05/learnXAI/internal/opportunity"
)

var (
	techDescriptionTerms = []string{"software", "developer", "engineer", "programming", "code", "technical", "tech"}
	techRoleTitles       = []string{"engineer", "developer", "programmer", "test", "qa", "automation", "ai", "machine learning", "data"}
	programTitles        = []string{"camp", "program", "winter", "summer"}
)

// IsRelevant is the per-listing gate applied before adaptive filtering.
// Non-internships are rejected; the remaining listings must reach a floor
// that depends on the shape of the listing and on whether a location was
// requested.
func IsRelevant(l opportunity.RawListing, score float64, q Query) bool {
	if !IsInternship(l.Title, l.Description) {
		return false
	}
	title := strings.ToLower(strings.TrimSpace(l.Title))
	description := strings.ToLower(l.Description)

	if isGenericTitle(title) && len(l.Description) > 20 {
		if descriptionMentionsQuery(description, q.Text) || containsAny(description, techDescriptionTerms) {
			return score >= 0.1
		}
	}

	if containsAny(title, programTitles) {
		switch {
		case q.Location == "":
			return score >= 0.1
		case programLocationMatches(l.Location, q.Location):
			return score >= 0.1
		default:
			return score >= 0.15
		}
	}

	techRole := q.software && containsAny(title, techRoleTitles)
	if q.Location == "" {
		if techRole {
			return score >= 0.1
		}
		return score >= 0.15
	}
	switch {
	case techRole:
		return score >= 0.15
	case titleHasTerms(title, q.terms) || score > 0.2:
		return score >= 0.2
	default:
		return score >= 0.25
	}
}

func isGenericTitle(title string) bool {
	return len(title) < 5 || title == "intern" || title == "internship" || title == "job" || title == "position"
}

func descriptionMentionsQuery(description, query string) bool {
	for _, term := range strings.Fields(query) {
		if len(term) > 3 && strings.Contains(description, term) {
			return true
		}
	}
	return false
}

func titleHasTerms(title string, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	for _, term := range terms {
		if strings.Contains(title, term) {
			return true
		}
	}
	return false
}

// programLocationMatches also accepts the country, or the region of a
// requested domestic city.
func programLocationMatches(jobLocation, requested string) bool {
	if !location.IsDomesticCity(requested) {
		return true
	}
	if location.Matches(jobLocation, requested) {
		return true
	}
	job := strings.ToLower(jobLocation)
	if strings.Contains(job, "india") {
		return true
	}
	canonical := location.Canonicalize(requested)
	if i := strings.LastIndex(canonical, ","); i >= 0 {
		region := strings.ToLower(strings.TrimSpace(canonical[i+1:]))
		return region != "" && strings.Contains(job, region)
	}
	return false
}
