package harvest

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shaileshms05/learnXAI/internal/hash/sha256"
	"github.com/shaileshms05/learnXAI/internal/opportunity"
)

// Fixed presentation values of every opportunity.
const (
	OpportunityType     = "Internship"
	OpportunityDuration = "3-6 months"
)

var defaultBenefits = []string{"Mentorship", "Networking", "Real-world experience"}

// OpportunityID derives a stable id from the lower-cased title and company.
func OpportunityID(title, company string) string {
	return sha256.Fingerprint(normalize(title), normalize(company))
}

// Format converts a ranked listing into its response form. sourceName is the
// display name used in the application tip; query fills requiredSkills.
func Format(l opportunity.ScoredListing, sourceName, query string) opportunity.Opportunity {
	if sourceName == "" {
		sourceName = l.Source
	}
	scraped := ""
	if !l.RetrievedAt.IsZero() {
		scraped = l.RetrievedAt.UTC().Format(time.RFC3339)
	}
	return opportunity.Opportunity{
		ID:              OpportunityID(l.Title, l.Company),
		Title:           l.Title,
		Company:         l.Company,
		Description:     l.Description,
		Location:        l.Location,
		Type:            OpportunityType,
		Duration:        OpportunityDuration,
		RequiredSkills:  []string{strings.TrimSpace(query)},
		Benefits:        append([]string(nil), defaultBenefits...),
		ApplicationTips: fmt.Sprintf("Apply via %s or company website", sourceName),
		MatchScore:      math.Round(l.Score*100) / 100,
		URL:             l.URL,
		Source:          l.Source,
		ScrapedAt:       scraped,
	}
}
