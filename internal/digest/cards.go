package digest

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var reCardClass = regexp.MustCompile(`(?i)job|card|listing|position|role|internship`)

// structuredCards finds repeated blocks that carry a titled job link plus
// company/location text: SWEList paragraphs, table rows, then div cards.
func structuredCards(doc *goquery.Document, _ string, opt Options) []candidate {
	var out []candidate

	// <p class="internship"><strong>Acme:</strong> <a href=...>Title</a></p>
	doc.Find("p.internship").Each(func(_ int, p *goquery.Selection) {
		a := p.Find("a[href]").First()
		href, _ := a.Attr("href")
		title := cleanText(a.Text())
		if href == "" || skipText(title) {
			return
		}
		company := strings.TrimSuffix(cleanText(p.Find("strong").First().Text()), ":")
		out = append(out, cardCandidate(p, a, href, title, company, opt))
	})

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if row.ChildrenFiltered("td").Length() < 2 {
			return
		}
		// nested layout tables: only the innermost row describes one job
		if row.Find("tr").Length() > 0 {
			return
		}
		a := firstJobLink(row)
		if a == nil {
			return
		}
		href, _ := a.Attr("href")
		title := cleanText(a.Text())
		if skipText(title) {
			return
		}
		out = append(out, cardCandidate(row, a, href, title, companyInRow(row, a), opt))
	})

	if len(out) > 0 {
		return out
	}

	doc.Find("div[class], li[class], table[class]").Each(func(_ int, card *goquery.Selection) {
		cls, _ := card.Attr("class")
		if !reCardClass.MatchString(cls) {
			return
		}
		// the innermost matching container owns the card
		if card.Find("div[class], li[class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
			c, _ := s.Attr("class")
			return reCardClass.MatchString(c)
		}).Length() > 0 {
			return
		}
		card.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			if !isJobURL(href) {
				return
			}
			title := cleanText(a.Text())
			if skipText(title) {
				return
			}
			out = append(out, cardCandidate(card, a, href, title, inferCompany(card, a), opt))
		})
	})
	return out
}

func cardCandidate(card, a *goquery.Selection, href, title, company string, opt Options) candidate {
	blob := cleanText(card.Text())
	return candidate{
		Title:    title,
		Company:  company,
		URL:      href,
		Location: extractLocation(blob),
		PostedAt: extractPostedAt(blob, opt.ReceivedAt),
	}
}

func firstJobLink(s *goquery.Selection) *goquery.Selection {
	var found *goquery.Selection
	s.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if isJobURL(href) {
			found = a
			return false
		}
		return true
	})
	return found
}

// companyInRow picks the first short cell that does not hold the job link.
func companyInRow(row, link *goquery.Selection) string {
	company := ""
	row.ChildrenFiltered("td").EachWithBreak(func(_ int, td *goquery.Selection) bool {
		if td.Find("a").FilterFunction(func(_ int, a *goquery.Selection) bool {
			return a.IsSelection(link)
		}).Length() > 0 {
			return true
		}
		t := cleanText(td.Text())
		if t != "" && len(t) < 60 && !skipText(t) && !rePostedAgo.MatchString(t) {
			company = strings.TrimSuffix(t, ":")
			return false
		}
		return true
	})
	return company
}

// inferCompany looks at the link's previous sibling, then emphasized text
// in the container, then logo alt text.
func inferCompany(container, link *goquery.Selection) string {
	if prev := link.Prev(); prev.Length() > 0 {
		if t := cleanText(prev.Text()); t != "" && len(t) < 80 && !skipText(t) {
			return strings.TrimSuffix(t, ":")
		}
	}

	company := ""
	container.Find("strong, b, span, p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.IsSelection(link) || s.Find("a").IsSelection(link) {
			return true
		}
		t := cleanText(s.Text())
		if len(t) > 2 && len(t) < 60 && !skipText(t) && t != cleanText(link.Text()) &&
			!rePostedAgo.MatchString(t) && extractLocation(t) != t {
			company = strings.TrimSuffix(t, ":")
			return false
		}
		return true
	})
	if company != "" {
		return company
	}

	if alt, ok := container.Find("img[alt]").First().Attr("alt"); ok {
		if alt = cleanText(alt); alt != "" && len(alt) < 60 {
			return alt
		}
	}
	return ""
}
