package source

import (
	"net/url"
	"strings"
	"time"

	"github.com/shaileshms05/learnXAI/internal/extract"
	"github.com/shaileshms05/learnXAI/internal/fetchchain"
)

const glassdoorBase = "https://www.glassdoor.com"

// Glassdoor searches the Glassdoor job board.
func Glassdoor() Definition {
	return Definition{
		ID:   "glassdoor",
		Name: "Glassdoor",
		Plan: func(r Request) fetchchain.Plan {
			params := url.Values{}
			params.Set("sc.keyword", strings.TrimSpace(r.Query+" intern internship"))
			if loc := r.RequestedLocation(); loc != "" {
				params.Set("locKeyword", loc)
			}
			params.Set("jobType", "internship")
			return fetchchain.Plan{
				Source:         "glassdoor",
				StaticURL:      glassdoorBase + "/Job/jobs.htm?" + params.Encode(),
				StaticTimeout:  15 * time.Second,
				RenderTimeout:  30 * time.Second,
				ReadySelectors: []string{"li.react-job-listing", "[data-test=job-listing]"},
			}
		},
		Rules: func(Request) extract.Rules {
			return extract.Rules{
				Source:  "glassdoor",
				BaseURL: glassdoorBase,
				Containers: []extract.ContainerPattern{
					extract.Select("li.react-job-listing"),
					extract.Select(`div[data-test="job-listing"]`),
					extract.Select(`li[data-test="job-listing"]`),
				},
				Title: []extract.FieldPattern{
					extract.Within(`a[data-test="job-link"]`),
					extract.Within("a.jobLink"),
				},
				Company: []extract.FieldPattern{
					extract.Within(`span[data-test="employer-name"]`),
					extract.Within("div.d-flex"),
				},
				Location: []extract.FieldPattern{
					extract.Within(`span[data-test="job-location"]`),
					extract.Within("span.css-1buaf54"),
				},
				Description: []extract.FieldPattern{
					extract.Within(`[data-test="job-description"]`),
				},
			}
		},
	}
}
