package readme

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"jobgate-engine/internal/domain"
)

const listings = `# Summer 2026 Internships

<table>
<thead>
<tr><th>Company</th><th>Role</th><th>Location</th><th>Application</th><th>Age</th></tr>
</thead>
<tbody>
<tr>
<td><strong><a href="https://simplify.jobs/c/Acme">Acme 🔥</a></strong></td>
<td>Software Engineer Intern 🛂</td>
<td>Remote</td>
<td><div align="center"><a href="https://boards.greenhouse.io/acme/jobs/123"><img src="apply.png" alt="Apply"></a> <a href="https://simplify.jobs/p/1"><img src="simplify.png" alt="Simplify"></a></div></td>
<td>3d</td>
</tr>
<tr>
<td>↳</td>
<td>Data Platform Intern</td>
<td>NYC<br>SF</td>
<td><a href="https://jobs.lever.co/acme/42"><img alt="Apply"></a></td>
<td>2w</td>
</tr>
<tr>
<td><strong>Globex</strong></td>
<td>Backend Intern</td>
<td>Springfield</td>
<td>🔒</td>
<td>1mo</td>
</tr>
<tr>
<td>↳</td>
<td>Infra Intern</td>
<td>Remote</td>
<td><a href="https://simplify.jobs/p/9"><img alt="Simplify"></a></td>
<td>0d</td>
</tr>
</tbody>
</table>
`

func TestParseTable(t *testing.T) {
	asOf := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	got, err := ParseTable(strings.NewReader(listings), asOf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 open rows with apply links, got %d: %+v", len(got), got)
	}

	first := got[0]
	if first.Company != "Acme" || first.Title != "Software Engineer Intern" {
		t.Fatalf("emoji not stripped: %+v", first)
	}
	if first.URL != "https://boards.greenhouse.io/acme/jobs/123" || first.ATSType != domain.ATSGreenhouse {
		t.Fatalf("apply link: %+v", first)
	}
	if first.PostedAt == nil || !first.PostedAt.Equal(asOf.AddDate(0, 0, -3)) {
		t.Fatalf("posted=%v", first.PostedAt)
	}

	second := got[1]
	if second.Company != "Acme" {
		t.Fatalf("continuation row lost company: %+v", second)
	}
	if second.Location != "NYC, SF" || second.ATSType != domain.ATSLever {
		t.Fatalf("second=%+v", second)
	}
	if second.PostedAt == nil || !second.PostedAt.Equal(asOf.AddDate(0, 0, -14)) {
		t.Fatalf("posted=%v", second.PostedAt)
	}
}

func TestParseTableWithoutListings(t *testing.T) {
	got, err := ParseTable(strings.NewReader(`<table><tr><th>Name</th></tr><tr><td>x</td></tr></table>`), time.Now())
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v %v", got, err)
	}
}

func TestPostedFromAge(t *testing.T) {
	asOf := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	cases := map[string]time.Time{
		"0d":  asOf,
		"5d":  asOf.AddDate(0, 0, -5),
		"1mo": asOf.AddDate(0, -1, 0),
		"1y":  asOf.AddDate(-1, 0, 0),
	}
	for in, want := range cases {
		got := postedFromAge(in, asOf)
		if got == nil || !got.Equal(want) {
			t.Fatalf("%s: got %v want %v", in, got, want)
		}
	}
	if postedFromAge("recently", asOf) != nil {
		t.Fatal("unparseable age should be nil")
	}
}

func TestFetchPostings(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		if r.URL.Path != "/README.md" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(listings))
	}))
	defer srv.Close()

	s := New(srv.URL+"/README.md", nil)
	got, err := s.FetchPostings(context.Background())
	if err != nil || len(got) != 2 {
		t.Fatalf("fetch: %d %v", len(got), err)
	}
	if !strings.HasPrefix(ua, "JobGate/") {
		t.Fatalf("user agent=%q", ua)
	}

	s.URL = srv.URL + "/missing"
	if _, err := s.FetchPostings(context.Background()); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status error, got %v", err)
	}
}
