package digest

import (
	"testing"
	"time"

	"jobgate-engine/internal/domain"
)

var received = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

const acmeDigest = `<html><head><style>.x{}</style></head><body>
<table>
  <tr>
    <td><strong>Acme</strong></td>
    <td><a href="https://boards.greenhouse.io/acme/jobs/123?utm_source=digest&amp;gh_src=mail">Software Engineer Intern</a></td>
    <td>Remote · Posted 5 days ago</td>
  </tr>
</table>
<div class="footer"><a href="https://jobs.lever.co/spam/should-not-appear">Hidden</a> Unsubscribe</div>
</body></html>`

func TestParseAcmeCard(t *testing.T) {
	got := ParseAll(acmeDigest, Options{ReceivedAt: received, SourceEmail: "m1"})
	if len(got) != 1 {
		t.Fatalf("expected 1 posting, got %d: %+v", len(got), got)
	}
	p := got[0]
	if p.Title != "Software Engineer Intern" {
		t.Fatalf("title: %q", p.Title)
	}
	if p.Company != "Acme" {
		t.Fatalf("company: %q", p.Company)
	}
	if p.ATSType != domain.ATSGreenhouse {
		t.Fatalf("ats: %q", p.ATSType)
	}
	if p.Location != "Remote" {
		t.Fatalf("location: %q", p.Location)
	}
	if p.PostedAt == nil || !p.PostedAt.Equal(received.Add(-5*24*time.Hour)) {
		t.Fatalf("posted_at: %v", p.PostedAt)
	}
	if p.SourceEmail != "m1" || p.Status != domain.JobDiscovered {
		t.Fatalf("unexpected draft metadata: %+v", p)
	}
}

func TestParseMergesStrategies(t *testing.T) {
	html := `<body>
<p class="internship"><strong>Figma:</strong> <a href="https://jobs.ashbyhq.com/figma/1111">Backend Intern</a> (San Francisco, CA)</p>
<p>Also see <a href="https://jobs.lever.co/stripe/abc">View job</a></p>
<p>Plain link: https://boards.greenhouse.io/plaid/jobs/999</p>
<p>Duplicate: <a href="https://jobs.ashbyhq.com/figma/1111?utm_campaign=x">Backend Intern</a></p>
</body>`
	got := ParseAll(html, Options{ReceivedAt: received})
	if len(got) != 3 {
		t.Fatalf("expected 3 postings, got %d: %+v", len(got), got)
	}

	byATS := map[domain.ATSType]domain.JobPosting{}
	for _, p := range got {
		byATS[p.ATSType] = p
	}
	if a := byATS[domain.ATSAshby]; a.Company != "Figma" || a.Location != "San Francisco, CA" {
		t.Fatalf("ashby card: %+v", a)
	}
	// "View job" is skip text so the title comes from the URL
	if l := byATS[domain.ATSLever]; l.Title == "" || l.Title == "View job" {
		t.Fatalf("lever title: %q", l.Title)
	}
	if _, ok := byATS[domain.ATSGreenhouse]; !ok {
		t.Fatalf("plain-text greenhouse url not found")
	}
}

func TestParseMalformedNeverFails(t *testing.T) {
	for _, in := range []string{"", "<<<>>>", "<table><tr><td>", "no links at all"} {
		if got := ParseAll(in, Options{}); len(got) != 0 {
			t.Fatalf("input %q: expected nothing, got %+v", in, got)
		}
	}
}

func TestParseStopsEarly(t *testing.T) {
	html := `<a href="https://jobs.lever.co/a/1">One</a><a href="https://jobs.lever.co/b/2">Two</a>`
	n := 0
	for range Parse(html, Options{}) {
		n++
		break
	}
	if n != 1 {
		t.Fatalf("expected early stop after 1, got %d", n)
	}
}

func TestTitleFromURL(t *testing.T) {
	cases := map[string]string{
		"https://jobs.lever.co/acme/software-engineer-intern":                "Software Engineer Intern",
		"https://boards.greenhouse.io/acme/jobs/123":                         "Acme",
		"https://jobs.ashbyhq.com/acme/0a1b2c3d-4e5f-6789-abcd-ef0123456789": "Acme",
	}
	for in, want := range cases {
		if got := titleFromURL(in); got != want {
			t.Fatalf("titleFromURL(%q) = %q, want %q", in, got, want)
		}
	}
}
