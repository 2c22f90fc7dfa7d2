package digest

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	reBoilerplate = regexp.MustCompile(`(?i)footer|unsubscribe|legal|disclaimer`)

	reLocationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(remote|hybrid|on-site|onsite)\b`),
		regexp.MustCompile(`\b([A-Z][a-z]+(?:\s[A-Z][a-z]+)?,\s*[A-Z]{2})\b`),
		regexp.MustCompile(`(?i)\b(New York|San Francisco|Seattle|Austin|Boston|Chicago)\b`),
	}

	rePostedAgo = regexp.MustCompile(`(?i)\b(\d+)\s*(hour|hr|day|week|month)s?\s+ago\b`)
	rePostedRel = regexp.MustCompile(`(?i)\b(today|yesterday|just posted)\b`)
)

var skipTexts = map[string]bool{
	"": true, "unsubscribe": true, "view in browser": true, "privacy policy": true,
	"terms": true, "help": true, "manage preferences": true, "opt out": true,
	"click here": true, "apply": true, "apply now": true, "view": true, "view job": true,
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}

func skipText(s string) bool {
	return skipTexts[strings.ToLower(cleanText(s))]
}

func extractLocation(text string) string {
	for _, re := range reLocationPatterns {
		if m := re.FindString(text); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

// extractPostedAt resolves "5 days ago", "today" etc. against the digest's
// received time. Nil when the text carries no age.
func extractPostedAt(text string, ref time.Time) *time.Time {
	if m := rePostedAgo.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil
		}
		var d time.Duration
		switch strings.ToLower(m[2]) {
		case "hour", "hr":
			d = time.Duration(n) * time.Hour
		case "day":
			d = time.Duration(n) * 24 * time.Hour
		case "week":
			d = time.Duration(n) * 7 * 24 * time.Hour
		case "month":
			d = time.Duration(n) * 30 * 24 * time.Hour
		}
		t := ref.Add(-d)
		return &t
	}
	if m := rePostedRel.FindStringSubmatch(text); m != nil {
		t := ref
		if strings.EqualFold(m[1], "yesterday") {
			t = ref.Add(-24 * time.Hour)
		}
		return &t
	}
	return nil
}

// titleFromURL derives a rough title from the last meaningful path segment.
func titleFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	parts := strings.Split(u.Path, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		p := parts[i]
		if len(p) <= 3 || isDigits(p) || looksLikeID(p) || genericSegments[strings.ToLower(p)] {
			continue
		}
		p = strings.NewReplacer("-", " ", "_", " ").Replace(p)
		words := strings.Fields(p)
		for j, w := range words {
			r := []rune(w)
			r[0] = unicode.ToUpper(r[0])
			words[j] = string(r)
		}
		return strings.Join(words, " ")
	}
	return ""
}

var genericSegments = map[string]bool{
	"apply": true, "jobs": true, "job": true, "careers": true, "positions": true, "application": true,
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// looksLikeID matches uuid-ish or hex tokens used by Ashby and Lever.
func looksLikeID(s string) bool {
	hex := 0
	for _, r := range s {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || r == '-' {
			hex++
		}
	}
	return len(s) >= 16 && hex == len(s)
}
