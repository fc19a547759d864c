package source

import (
	"net/url"
	"time"

	"github.com/shaileshms05/learnXAI/internal/extract"
	"github.com/shaileshms05/learnXAI/internal/fetchchain"
)

const internshipsBase = "https://www.internships.com"

// Internships searches internships.com.
func Internships() Definition {
	return Definition{
		ID:   "internships",
		Name: "Internships.com",
		Plan: func(r Request) fetchchain.Plan {
			params := url.Values{}
			params.Set("keywords", r.Query)
			if loc := r.RequestedLocation(); loc != "" {
				params.Set("location", loc)
			}
			return fetchchain.Plan{
				Source:         "internships",
				StaticURL:      internshipsBase + "/search?" + params.Encode(),
				StaticTimeout:  15 * time.Second,
				RenderTimeout:  30 * time.Second,
				ReadySelectors: []string{"div.internship", "[data-internship-id]", "article.internship"},
			}
		},
		Rules: func(Request) extract.Rules {
			return extract.Rules{
				Source:  "internships",
				BaseURL: internshipsBase,
				Containers: []extract.ContainerPattern{
					extract.Select("div.internship"),
					extract.Select("div[data-internship-id]"),
					extract.Select("article.internship"),
				},
				Title: []extract.FieldPattern{
					extract.Within("h3.title"),
					extract.Within("h2"),
					extract.Within("a.title"),
				},
				Company: []extract.FieldPattern{
					extract.Within("div.company"),
					extract.Within("span.company"),
				},
				Location: []extract.FieldPattern{
					extract.Within("div.location"),
					extract.Within("span.location"),
				},
				Description: []extract.FieldPattern{
					extract.Within("div.description"),
					extract.Within("p"),
				},
				Link: []extract.FieldPattern{extract.Within("a[href]")},
			}
		},
	}
}
