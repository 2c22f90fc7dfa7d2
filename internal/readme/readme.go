// Package readme reads postings from a community-maintained GitHub README
// whose listings table has the columns Company | Role | Location |
// Application | Age.
package readme

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"jobgate-engine/internal/browser"
	"jobgate-engine/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

const DefaultURL = "https://raw.githubusercontent.com/SimplifyJobs/Summer2026-Internships/dev/README.md"

// Source fetches the README and turns its table into posting drafts.
type Source struct {
	URL     string
	Client  *http.Client
	Limiter *browser.HostLimiter
	Now     func() time.Time
}

func New(url string, limiter *browser.HostLimiter) *Source {
	if url == "" {
		url = DefaultURL
	}
	return &Source{
		URL:     url,
		Client:  &http.Client{Timeout: 30 * time.Second},
		Limiter: limiter,
	}
}

func (s *Source) Name() string { return "github" }

// FetchPostings downloads the README and parses its listings. Drafts carry
// no id; the ingest pipeline assigns ids and dedupes.
func (s *Source) FetchPostings(ctx context.Context) ([]domain.JobPosting, error) {
	if err := s.Limiter.WaitURL(ctx, s.URL); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("readme request: %w", err)
	}
	req.Header.Set("User-Agent", "JobGate/1.0 (+local)")

	hc := s.Client
	if hc == nil {
		hc = http.DefaultClient
	}
	res, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("readme get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("readme get: status %d", res.StatusCode)
	}

	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	out, err := ParseTable(res.Body, now)
	if err != nil {
		return nil, err
	}
	log.Printf("[readme] url=%q postings=%d", s.URL, len(out))
	return out, nil
}

// ParseTable reads the first table whose headers include Company, Role and
// Application. A company cell holding "↳" continues the previous company.
// Closed rows (🔒) and rows without a direct Apply link are skipped.
func ParseTable(r io.Reader, asOf time.Time) ([]domain.JobPosting, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("readme parse: %w", err)
	}
	doc.Find("br").ReplaceWithHtml(", ")

	table := doc.Find("table").FilterFunction(func(_ int, t *goquery.Selection) bool {
		headers := map[string]bool{}
		t.Find("th").Each(func(_ int, th *goquery.Selection) {
			headers[strings.TrimSpace(th.Text())] = true
		})
		return headers["Company"] && headers["Role"] && headers["Application"]
	}).First()
	if table.Length() == 0 {
		log.Printf("[readme] no listings table found")
		return nil, nil
	}

	var out []domain.JobPosting
	company := ""
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}
		companyCell := cells.Eq(0)
		if text := strings.TrimSpace(companyCell.Text()); !strings.Contains(text, "↳") {
			if a := companyCell.Find("a").First(); a.Length() > 0 {
				text = a.Text()
			}
			company = stripEmoji(text)
		}
		if company == "" {
			return
		}

		link := applyLink(cells.Eq(3))
		if link == "" {
			return
		}
		title := stripEmoji(cells.Eq(1).Text())
		if title == "" {
			return
		}

		ats, hint := domain.DetectATS(link)
		p := domain.JobPosting{
			Title:    title,
			Company:  company,
			URL:      link,
			Location: strings.Trim(stripEmoji(cells.Eq(2).Text()), ", "),
			ATSType:  ats,
			ATSHint:  hint,
		}
		if cells.Length() > 4 {
			p.PostedAt = postedFromAge(cells.Eq(4).Text(), asOf)
		}
		out = append(out, p)
	})
	return out, nil
}

func applyLink(cell *goquery.Selection) string {
	if strings.Contains(cell.Text(), "🔒") {
		return ""
	}
	href := ""
	cell.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		alt, _ := a.Find("img").Attr("alt")
		if strings.EqualFold(strings.TrimSpace(alt), "apply") {
			href, _ = a.Attr("href")
			href = strings.TrimSpace(href)
			return false
		}
		return true
	})
	return href
}

var reAge = regexp.MustCompile(`^(\d+)\s*(d|w|mo|y)$`)

// postedFromAge turns "3d", "2w" or "1mo" into a timestamp relative to asOf.
func postedFromAge(s string, asOf time.Time) *time.Time {
	m := reAge.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return nil
	}
	n, _ := strconv.Atoi(m[1])
	var t time.Time
	switch m[2] {
	case "d":
		t = asOf.AddDate(0, 0, -n)
	case "w":
		t = asOf.AddDate(0, 0, -7*n)
	case "mo":
		t = asOf.AddDate(0, -n, 0)
	case "y":
		t = asOf.AddDate(-n, 0, 0)
	}
	return &t
}

func stripEmoji(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 0x1F000 && r <= 0x1FAFF,
			r >= 0x2600 && r <= 0x27BF,
			r >= 0x2B00 && r <= 0x2BFF,
			r == 0xFE0F, r == 0x200D, r == 0x21B3:
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
