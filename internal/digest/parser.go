// Package digest extracts job posting drafts from job-digest email HTML.
//
// Strategies run in priority order: LinkedIn alerts, structured cards, ATS
// links and finally a raw-text URL scan. Their output is merged by normalized
// URL, so a digest that partially matches several strategies loses nothing.
// A strategy that fails yields nothing; the parser never returns an error.
package digest

import (
	"iter"
	"log"
	"strings"
	"time"

	"jobgate-engine/internal/dedupe"
	"jobgate-engine/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

type Options struct {
	// ReceivedAt anchors relative ages like "3 days ago". Zero means now.
	ReceivedAt  time.Time
	SourceEmail string
}

// candidate is a partially populated posting found by one strategy.
type candidate struct {
	Title    string
	Company  string
	URL      string
	Location string
	PostedAt *time.Time
}

type strategy struct {
	name string
	run  func(doc *goquery.Document, raw string, opt Options) []candidate
}

var strategies = []strategy{
	{"linkedin", linkedInAlerts},
	{"cards", structuredCards},
	{"ats_links", atsLinks},
	{"text_urls", textURLs},
}

// Parse lazily yields drafts for every distinct posting URL in the digest.
func Parse(raw string, opt Options) iter.Seq[domain.JobPosting] {
	return func(yield func(domain.JobPosting) bool) {
		if opt.ReceivedAt.IsZero() {
			opt.ReceivedAt = time.Now().UTC()
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
		if err != nil {
			log.Printf("[digest] html parse failed email=%q err=%v", opt.SourceEmail, err)
			doc = nil
		} else {
			stripBoilerplate(doc)
		}

		seen := map[string]bool{}
		for _, s := range strategies {
			for _, c := range runStrategy(s, doc, raw, opt) {
				c.URL = linkedInCanonical(c.URL)
				key := dedupe.NormalizedKey(c.URL)
				if key == "" || seen[key] {
					continue
				}
				seen[key] = true
				if !yield(draft(c, opt)) {
					return
				}
			}
		}
		if len(seen) == 0 {
			log.Printf("[digest] no postings extracted email=%q", opt.SourceEmail)
		}
	}
}

// ParseAll collects Parse into a slice.
func ParseAll(raw string, opt Options) []domain.JobPosting {
	var out []domain.JobPosting
	for p := range Parse(raw, opt) {
		out = append(out, p)
	}
	return out
}

func runStrategy(s strategy, doc *goquery.Document, raw string, opt Options) (out []candidate) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[digest] strategy=%s panicked: %v", s.name, r)
			out = nil
		}
	}()
	if doc == nil && s.name != "text_urls" {
		return nil
	}
	return s.run(doc, raw, opt)
}

func draft(c candidate, opt Options) domain.JobPosting {
	u := dedupe.CanonicalURL(c.URL)
	ats, hint := domain.DetectATS(u)
	return domain.JobPosting{
		Title:        c.Title,
		Company:      c.Company,
		URL:          u,
		Location:     c.Location,
		ATSType:      ats,
		ATSHint:      hint,
		PostedAt:     c.PostedAt,
		DiscoveredAt: time.Now().UTC(),
		Status:       domain.JobDiscovered,
		SourceEmail:  opt.SourceEmail,
	}
}

func stripBoilerplate(doc *goquery.Document) {
	doc.Find("style, script, head, meta").Remove()
	doc.Find("[class], [id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		cls, _ := s.Attr("class")
		id, _ := s.Attr("id")
		return reBoilerplate.MatchString(cls) || reBoilerplate.MatchString(id)
	}).Remove()
}
