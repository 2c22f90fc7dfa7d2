package digest

import (
	"html"
	"regexp"
	"strings"

	"jobgate-engine/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

var (
	reJobPath = regexp.MustCompile(`(?i)/(job|jobs|career|careers|apply|application|position|opening)s?(/|$|\?)`)
	reURL     = regexp.MustCompile(`https?://[^\s<>"']+`)
)

// atsLinks scans every anchor and keeps those pointing at a known ATS.
func atsLinks(doc *goquery.Document, _ string, opt Options) []candidate {
	var out []candidate
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if !domain.IsATSURL(href) {
			return
		}
		title := cleanText(a.Text())
		if skipText(title) {
			title = titleFromURL(href)
		}
		parent := a.Parent()
		blob := cleanText(parent.Text())
		out = append(out, candidate{
			Title:    title,
			Company:  inferCompany(parent, a),
			URL:      href,
			Location: extractLocation(blob),
			PostedAt: extractPostedAt(blob, opt.ReceivedAt),
		})
	})
	return out
}

// textURLs is the fallback for digests whose anchors cannot be parsed:
// any URL-shaped substring that matches an ATS or job path pattern. With a
// document it scans the visible text left after boilerplate removal.
func textURLs(doc *goquery.Document, raw string, _ Options) []candidate {
	text := html.UnescapeString(raw)
	if doc != nil {
		text = doc.Text()
	}
	var out []candidate
	for _, u := range reURL.FindAllString(text, -1) {
		u = strings.TrimRight(u, ".,);:]\"'")
		if !isJobURL(u) || isJunkURL(u) {
			continue
		}
		out = append(out, candidate{URL: u, Title: titleFromURL(u)})
	}
	return out
}

func isJobURL(u string) bool {
	return domain.IsATSURL(u) || reJobPath.MatchString(u)
}

func isJunkURL(u string) bool {
	lu := strings.ToLower(u)
	for _, j := range []string{
		"unsubscribe", "preferences", "privacy", "terms", "view-in-browser",
		"viewaswebpage", "tracking", "pixel", "beacon", "/alerts", "/settings", "/help", "/legal",
	} {
		if strings.Contains(lu, j) {
			return true
		}
	}
	return false
}
