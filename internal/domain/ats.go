package domain

import (
	"regexp"
	"strings"
)

// atsSignatures is checked in order; the first match wins.
var atsSignatures = []struct {
	hint string
	re   *regexp.Regexp
}{
	{"ashby", regexp.MustCompile(`(?i)ashbyhq\.com|jobs\.ashby|\.ashby\.com`)},
	{"greenhouse", regexp.MustCompile(`(?i)greenhouse\.io|grnh\.se|gh_jid=`)},
	{"lever", regexp.MustCompile(`(?i)lever\.co`)},
	{"workday", regexp.MustCompile(`(?i)myworkdayjobs\.com|workday\.com/[^/]+/hiring|myworkdaysite\.com`)},
	{"smartrecruiters", regexp.MustCompile(`(?i)smartrecruiters\.com`)},
	{"icims", regexp.MustCompile(`(?i)icims\.com|icims=1`)},
	{"taleo", regexp.MustCompile(`(?i)taleo\.net`)},
	{"workable", regexp.MustCompile(`(?i)workable\.com`)},
	{"breezy", regexp.MustCompile(`(?i)breezy\.hr`)},
	{"jobvite", regexp.MustCompile(`(?i)jobvite\.com`)},
	{"bamboohr", regexp.MustCompile(`(?i)bamboohr\.com`)},
	{"simplify", regexp.MustCompile(`(?i)simplify\.jobs`)},
}

// DetectATS classifies a URL. The ATSType is one of the four drivable
// platforms or unknown; hint carries the finer platform name when known.
func DetectATS(rawURL string) (ATSType, string) {
	u := strings.TrimSpace(rawURL)
	for _, sig := range atsSignatures {
		if sig.re.MatchString(u) {
			return ParseATSType(sig.hint), sig.hint
		}
	}
	return ATSUnknown, ""
}

// IsATSURL reports whether the URL matches any known ATS signature.
func IsATSURL(rawURL string) bool {
	_, hint := DetectATS(rawURL)
	return hint != ""
}
