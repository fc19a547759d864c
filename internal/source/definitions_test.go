package source

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shaileshms05/learnXAI/internal/extract"
	"github.com/shaileshms05/learnXAI/internal/fetchchain"
	"github.com/shaileshms05/learnXAI/internal/session"
)

var fixtureNow = time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

func parse(t *testing.T, def Definition, r Request, body string) []string {
	t.Helper()
	listings, err := def.Parser(extract.New(nil), r, 20, fixtureNow).
		ParseDocument(session.Document{Body: []byte(body)})
	require.NoError(t, err)
	titles := make([]string, 0, len(listings))
	for _, l := range listings {
		require.Equal(t, def.ID, l.Source)
		titles = append(titles, l.Title)
	}
	return titles
}

func TestIndeedPlanDomestic(t *testing.T) {
	t.Parallel()

	plan := Indeed().Plan(Request{Query: "software engineer", Location: "bangalore"})
	u, err := url.Parse(plan.StaticURL)
	require.NoError(t, err)
	require.Equal(t, "in.indeed.com", u.Host)
	require.Equal(t, "/jobs", u.Path)
	require.Equal(t, "software engineer intern", u.Query().Get("q"))
	require.Equal(t, "Bengaluru, Karnataka", u.Query().Get("l"))
	require.Empty(t, u.Query().Get("jt"))
	require.Contains(t, plan.StaticURL, "q=software+engineer+intern")
	require.Contains(t, plan.FeedURL, "https://in.indeed.com/rss?")
	require.Equal(t, "https://in.indeed.com/", plan.Headers.Get("Referer"))
	require.Equal(t, "https://in.indeed.com", plan.Headers.Get("Origin"))
	require.Equal(t, 25*time.Second, plan.StaticTimeout)
	require.False(t, plan.RequiresJS)
}

func TestIndeedPlanInternational(t *testing.T) {
	t.Parallel()

	plan := Indeed().Plan(Request{Query: "data internship", Location: "New York"})
	u, err := url.Parse(plan.StaticURL)
	require.NoError(t, err)
	require.Equal(t, "www.indeed.com", u.Host)
	require.Equal(t, "data internship", u.Query().Get("q"))
	require.Equal(t, "New York", u.Query().Get("l"))
	require.Equal(t, "internship", u.Query().Get("jt"))

	noLocation := Indeed().Plan(Request{Query: "go"})
	u, err = url.Parse(noLocation.StaticURL)
	require.NoError(t, err)
	_, hasLocation := u.Query()["l"]
	require.False(t, hasLocation)
}

func TestIndeedExtraction(t *testing.T) {
	t.Parallel()

	body := `<html><body>
		<div class="job_seen_beacon" data-jk="abc123">
			<h2 class="jobTitle"><a href="/rc/clk?jk=abc123"><span title="Software Engineering Intern">Software Engineering Intern</span></a></h2>
			<span data-testid="company-name">Acme Labs</span>
			<div data-testid="job-location">Bengaluru, Karnataka</div>
			<div class="job-snippet"><ul><li>Work on distributed Go services and APIs.</li></ul></div>
		</div>
		<div class="job_seen_beacon" data-jk="def456">
			<h2 class="jobTitle"><span>QA Automation Intern</span></h2>
			<span class="companyName">Beta</span>
			<div class="companyLocation">Pune, Maharashtra</div>
		</div>
	</body></html>`
	r := Request{Query: "software engineer", Location: "bangalore"}
	listings, err := Indeed().Parser(extract.New(nil), r, 20, fixtureNow).
		ParseDocument(session.Document{Body: []byte(body)})
	require.NoError(t, err)
	require.Len(t, listings, 2)
	require.Equal(t, "Software Engineering Intern", listings[0].Title)
	require.Equal(t, "Acme Labs", listings[0].Company)
	require.Equal(t, "Bengaluru, Karnataka", listings[0].Location)
	require.Equal(t, "Work on distributed Go services and APIs.", listings[0].Description)
	require.Equal(t, "https://in.indeed.com/viewjob?jk=abc123", listings[0].URL)
	require.Equal(t, "Pune, Maharashtra", listings[1].Location)
}

func TestIndeedNoResultsPage(t *testing.T) {
	t.Parallel()

	body := `<html><body><h1>No jobs found</h1><p>Try different keywords.</p></body></html>`
	listings, err := Indeed().Parser(extract.New(nil), Request{Query: "astrophysics"}, 20, fixtureNow).
		ParseDocument(session.Document{Body: []byte(body)})
	require.ErrorIs(t, err, fetchchain.ErrNoResults)
	require.Empty(t, listings)
}

func TestIndeedFeedParsing(t *testing.T) {
	t.Parallel()

	r := Request{Query: "software engineer", Location: "bangalore"}
	listings := Indeed().Parser(extract.New(nil), r, 20, fixtureNow).ParseFeed([]session.FeedEntry{
		{Title: "Software Intern - Acme - Bengaluru, Karnataka", Link: "https://in.indeed.com/viewjob?jk=1"},
	})
	require.Len(t, listings, 1)
	require.Equal(t, "Acme", listings[0].Company)
	require.Equal(t, "indeed", listings[0].Source)
}

func TestLinkedInIsUnavailable(t *testing.T) {
	t.Parallel()

	plan := LinkedIn().Plan(Request{Query: "go"})
	require.Equal(t, "requires authenticated API", plan.Unavailable)
	require.Empty(t, plan.StaticURL)
	require.Empty(t, plan.FeedURL)
}

func TestGlassdoorPlanAndExtraction(t *testing.T) {
	t.Parallel()

	plan := Glassdoor().Plan(Request{Query: "software", Location: "Pune"})
	u, err := url.Parse(plan.StaticURL)
	require.NoError(t, err)
	require.Equal(t, "/Job/jobs.htm", u.Path)
	require.Equal(t, "software intern internship", u.Query().Get("sc.keyword"))
	require.Equal(t, "Pune", u.Query().Get("locKeyword"))

	body := `<ul>
		<li class="react-job-listing"><a data-test="job-link" href="/partner/jobListing.htm?id=7">Backend Developer Intern</a>
			<span data-test="employer-name">Gamma</span><span data-test="job-location">Pune</span></li>
	</ul>`
	listings, err := Glassdoor().Parser(extract.New(nil), Request{Query: "software"}, 20, fixtureNow).
		ParseDocument(session.Document{Body: []byte(body)})
	require.NoError(t, err)
	require.Len(t, listings, 1)
	require.Equal(t, "Gamma", listings[0].Company)
	require.Equal(t, "https://www.glassdoor.com/partner/jobListing.htm?id=7", listings[0].URL)
}

func TestInternshipsExtraction(t *testing.T) {
	t.Parallel()

	plan := Internships().Plan(Request{Query: "marketing"})
	require.Equal(t, "https://www.internships.com/search?keywords=marketing", plan.StaticURL)

	body := `<div data-internship-id="1"><h2>Marketing Intern</h2><span class="company">Delta</span>
		<a href="/posting/1">View</a></div>`
	titles := parse(t, Internships(), Request{Query: "marketing"}, body)
	require.Equal(t, []string{"Marketing Intern"}, titles)
}

func TestSkillIndiaRenderOnly(t *testing.T) {
	t.Parallel()

	plan := SkillIndia().Plan(Request{Query: "electrician"})
	require.True(t, plan.RequiresJS)
	require.Empty(t, plan.StaticURL)
	require.Equal(t, skillIndiaPage, plan.RenderURL)
	require.Equal(t, 60*time.Second, plan.RenderTimeout)

	body := `<app-root><mat-card><mat-card-title>Solar Technician Internship</mat-card-title>
		<mat-card-content>Hands-on training in rooftop installation</mat-card-content></mat-card>
		<mat-card><h3>Tiny</h3></mat-card></app-root>`
	listings, err := SkillIndia().Parser(extract.New(nil), Request{Query: "electrician"}, 20, fixtureNow).
		ParseDocument(session.Document{Body: []byte(body)})
	require.NoError(t, err)
	require.Len(t, listings, 1)
	require.Equal(t, "Solar Technician Internship", listings[0].Title)
	require.Equal(t, "Skill India Digital", listings[0].Company)
	require.Equal(t, "India", listings[0].Location)
	require.Equal(t, "Hands-on training in rooftop installation", listings[0].Description)
	require.Equal(t, skillIndiaPage, listings[0].URL)
}
