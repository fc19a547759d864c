package source

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/shaileshms05/learnXAI/internal/extract"
	"github.com/shaileshms05/learnXAI/internal/fetchchain"
	"github.com/shaileshms05/learnXAI/internal/location"
)

var (
	jobCardClass    = regexp.MustCompile(`(?i)job.*card|card.*job`)
	titleClass      = regexp.MustCompile(`(?i)title`)
	jobTitleClass   = regexp.MustCompile(`(?i)job.*title|title.*job`)
	jobTitleID      = regexp.MustCompile(`(?i)jobtitle`)
	jobPageHref     = regexp.MustCompile(`(?i)/viewjob|/jobs`)
	companyClass    = regexp.MustCompile(`(?i)company`)
	locationClass   = regexp.MustCompile(`(?i)location`)
	snippetClass    = regexp.MustCompile(`(?i)snippet|summary|description`)
	snippetTestID   = regexp.MustCompile(`(?i)snippet|summary`)
	requirementList = regexp.MustCompile(`(?i)requirement`)
)

// Indeed searches the Indeed mirror that serves the requested location.
func Indeed() Definition {
	return Definition{
		ID:    "indeed",
		Name:  "Indeed",
		Plan:  indeedPlan,
		Rules: indeedRules,
	}
}

// indeedSearch returns the endpoint host and the query parameters shared by
// the search page and the feed.
func indeedSearch(r Request) (string, url.Values) {
	domain := location.ResolveEndpoint(r.RequestedLocation())
	query := r.Query
	if !strings.Contains(strings.ToLower(query), "intern") {
		query += " intern"
	}
	params := url.Values{}
	params.Set("q", query)
	if loc := location.Canonicalize(r.RequestedLocation()); loc != "" {
		params.Set("l", loc)
	}
	if domain == location.InternationalEndpoint {
		params.Set("jt", "internship")
	}
	return domain, params
}

func indeedPlan(r Request) fetchchain.Plan {
	domain, params := indeedSearch(r)
	origin := "https://" + domain
	headers := http.Header{}
	headers.Set("Referer", origin+"/")
	headers.Set("Origin", origin)
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Pragma", "no-cache")
	return fetchchain.Plan{
		Source:         "indeed",
		StaticURL:      origin + "/jobs?" + params.Encode(),
		FeedURL:        origin + "/rss?" + params.Encode(),
		Headers:        headers,
		StaticTimeout:  25 * time.Second,
		RenderTimeout:  30 * time.Second,
		FeedTimeout:    15 * time.Second,
		ReadySelectors: []string{"[data-jk]", ".job_seen_beacon", ".jobCard"},
	}
}

func indeedRules(r Request) extract.Rules {
	domain, _ := indeedSearch(r)
	return extract.Rules{
		Source:  "indeed",
		BaseURL: "https://" + domain + "/",
		Containers: []extract.ContainerPattern{
			extract.Select("div[data-jk]"),
			extract.Select("div.job_seen_beacon"),
			extract.ClassMatching("div", jobCardClass),
			extract.ClassContaining("div", "job", "result"),
		},
		Title: []extract.FieldPattern{
			extract.Within("h2.jobTitle"),
			extract.WithinClass("h2", titleClass),
			extract.Within("a.jobTitle"),
			extract.WithinClass("a", jobTitleClass),
			extract.WithinAttr("span", "id", jobTitleID),
			extract.WithinClass("span", titleClass),
			extract.WithinAttr("h2", "data-testid", titleClass),
			extract.WithinAttr("a", "data-testid", titleClass),
			extract.Within("h2"),
			extract.Within("h3"),
			extract.WithinAttr("a", "href", jobPageHref),
		},
		Company: []extract.FieldPattern{
			extract.Within("span.companyName"),
			extract.Within(`span[data-testid="company-name"]`),
			extract.Within("a.companyName"),
			extract.WithinClass("span", companyClass),
		},
		Location: []extract.FieldPattern{
			extract.Within("div.companyLocation"),
			extract.Within(`div[data-testid="job-location"]`),
			extract.Within("span.companyLocation"),
			extract.WithinClass("div", locationClass),
		},
		Description: []extract.FieldPattern{
			extract.Within("div.job-snippet"),
			extract.Within("div.summary"),
			extract.Within("span.summary"),
			extract.WithinClass("div", snippetClass),
			extract.WithinClass("span", snippetClass),
			extract.WithinAttr("div", "data-testid", snippetTestID),
			extract.WithinClass("ul", requirementList),
		},
		KeyLink: func(container *goquery.Selection) string {
			key, ok := container.Attr("data-jk")
			if !ok || strings.TrimSpace(key) == "" {
				return ""
			}
			return "https://" + domain + "/viewjob?jk=" + url.QueryEscape(strings.TrimSpace(key))
		},
		NoResults: []string{"no jobs found", "try different keywords"},
	}
}
