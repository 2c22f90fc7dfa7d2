package digest

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	reLinkedInJob = regexp.MustCompile(`(?i)linkedin\.com/(?:comm/)?jobs/view/(\d+)`)
	reLinkedInTag = regexp.MustCompile(`(?i)\s*(?:\bactively recruiting\b|\bpromoted\b|\beasy apply\b|\bbe an early applicant\b|\bnew\b)\s*$`)
)

// linkedInAlerts handles LinkedIn job alert mails. One posting is rendered
// as several anchors (logo, title, "View job"), so anchors are merged by
// job id and the most title-like text wins.
func linkedInAlerts(doc *goquery.Document, _ string, opt Options) []candidate {
	byID := map[string]*candidate{}
	var order []string

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		m := reLinkedInJob.FindStringSubmatch(href)
		if m == nil {
			return
		}
		id := m[1]
		c, ok := byID[id]
		if !ok {
			c = &candidate{URL: linkedInCanonical(href)}
			byID[id] = c
			order = append(order, id)
		}

		if t := linkedInTitle(a.Text()); betterTitle(t, c.Title) {
			c.Title = t
		}
		if c.Company == "" {
			company, location := linkedInMeta(a)
			c.Company = company
			if c.Location == "" {
				c.Location = location
			}
		}
		if c.PostedAt == nil {
			c.PostedAt = extractPostedAt(cleanText(a.Closest("td, div").Text()), opt.ReceivedAt)
		}
	})

	out := make([]candidate, 0, len(order))
	for _, id := range order {
		c := byID[id]
		if c.Title == "" {
			c.Title = "LinkedIn job " + id
		}
		out = append(out, *c)
	}
	return out
}

// linkedInMeta reads the "Company · Location" line that follows the title
// inside the same card.
func linkedInMeta(a *goquery.Selection) (company, location string) {
	card := a.Closest("td, table, div")
	card.Find("p, span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		line := cleanText(s.Text())
		left, right, ok := strings.Cut(line, "·")
		if !ok {
			return true
		}
		company = strings.TrimSpace(left)
		location = strings.TrimSpace(right)
		return company == ""
	})
	return company, location
}

func linkedInTitle(s string) string {
	t := cleanText(s)
	for {
		stripped := strings.TrimSpace(reLinkedInTag.ReplaceAllString(t, ""))
		if stripped == t {
			break
		}
		t = stripped
	}
	if skipText(t) || strings.EqualFold(t, "view job") || strings.EqualFold(t, "apply") {
		return ""
	}
	return t
}

// titleScore ranks anchor text by how much it looks like a job title.
func titleScore(s string) int {
	if s == "" {
		return 0
	}
	n := len(strings.Fields(s))
	score := 1
	if n >= 2 && n <= 12 {
		score += 2
	}
	if len(s) > 90 {
		score--
	}
	if strings.Contains(s, "·") || strings.Contains(s, "|") {
		score--
	}
	return score
}

func betterTitle(next, cur string) bool {
	a, b := titleScore(next), titleScore(cur)
	if a != b {
		return a > b
	}
	return len(next) > len(cur)
}

// linkedInCanonical collapses the tracking variants of a LinkedIn job link
// to one URL. Other URLs pass through unchanged.
func linkedInCanonical(u string) string {
	if m := reLinkedInJob.FindStringSubmatch(u); m != nil {
		return "https://www.linkedin.com/jobs/view/" + m[1] + "/"
	}
	return u
}
