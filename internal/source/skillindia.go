package source

import (
	"regexp"
	"time"

	"github.com/shaileshms05/learnXAI/internal/extract"
	"github.com/shaileshms05/learnXAI/internal/fetchchain"
)

const (
	skillIndiaBase = "https://www.skillindiadigital.gov.in"
	skillIndiaPage = skillIndiaBase + "/internship"
)

var (
	cardClass        = regexp.MustCompile(`(?i)card|internship`)
	headingClass     = regexp.MustCompile(`(?i)title|heading`)
	providerClass    = regexp.MustCompile(`(?i)provider|company|organization`)
	providerSpan     = regexp.MustCompile(`(?i)provider|company`)
	placeClass       = regexp.MustCompile(`(?i)location|place`)
	descriptionClass = regexp.MustCompile(`(?i)description|summary|content`)
)

// SkillIndia reads the Skill India Digital internship board. The page is an
// Angular application, so it is render-only.
func SkillIndia() Definition {
	return Definition{
		ID:   "skill_india",
		Name: "Skill India Digital",
		Plan: func(Request) fetchchain.Plan {
			return fetchchain.Plan{
				Source:         "skill_india",
				RenderURL:      skillIndiaPage,
				RequiresJS:     true,
				RenderTimeout:  60 * time.Second,
				ReadySelectors: []string{"mat-card", ".internship-card", "[class*='card']", "app-root"},
			}
		},
		Rules: func(Request) extract.Rules {
			return extract.Rules{
				Source:  "skill_india",
				BaseURL: skillIndiaBase,
				Containers: []extract.ContainerPattern{
					extract.Select("mat-card"),
					extract.ClassMatching("div", cardClass),
					extract.Select("article"),
					extract.ClassContaining("div", "internship", "course"),
				},
				Title: []extract.FieldPattern{
					extract.Within("h2"),
					extract.Within("h3"),
					extract.Within("h4"),
					extract.Within("mat-card-title"),
					extract.WithinClass("div", headingClass),
					extract.WithinClass("a", titleClass),
				},
				Company: []extract.FieldPattern{
					extract.WithinClass("div", providerClass),
					extract.WithinClass("span", providerSpan),
					extract.Within("mat-card-subtitle"),
				},
				Location: []extract.FieldPattern{
					extract.WithinClass("div", placeClass),
					extract.WithinClass("span", locationClass),
				},
				Description: []extract.FieldPattern{
					extract.Within("p"),
					extract.WithinClass("div", descriptionClass),
					extract.Within("mat-card-content"),
				},
				Link:             []extract.FieldPattern{extract.Within("a[href]")},
				FallbackLink:     skillIndiaPage,
				DefaultCompany:   "Skill India Digital",
				DefaultLocation:  "India",
				MinTitleLength:   5,
				DescriptionLimit: 500,
			}
		},
	}
}
