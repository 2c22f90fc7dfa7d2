package config

import (
	"fmt"
	"strings"

	"jobgate-engine/internal/domain"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus any problems found.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}
	lowerList := func(xs []string) []string {
		ys := trimList(xs)
		for i := range ys {
			ys[i] = strings.ToLower(ys[i])
		}
		return ys
	}

	out.Email.SearchSubjectAny = trimList(out.Email.SearchSubjectAny)
	out.Email.SenderFilter = trimList(out.Email.SenderFilter)
	out.Filter.TitleKeywords = lowerList(out.Filter.TitleKeywords)
	out.Filter.PreferredATS = lowerList(out.Filter.PreferredATS)
	out.Filter.SkipATS = lowerList(out.Filter.SkipATS)
	out.Filter.PreferredLocations = lowerList(out.Filter.PreferredLocations)
	out.Filter.ExcludedLocations = lowerList(out.Filter.ExcludedLocations)

	// ---- Validation rules ----

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	if out.Polling.EmailSeconds <= 0 {
		res.addErr("polling.email_seconds must be > 0")
	} else if out.Polling.EmailSeconds < 60 {
		res.addWarn("polling.email_seconds is very low (%d) and may cause rate limits.", out.Polling.EmailSeconds)
	}

	if out.Email.IMAPHost != "" && out.Email.Username == "" {
		res.addWarn("email.username is empty; fetch will fail until it is set.")
	}
	out.GitHub.ReadmeURL = strings.TrimSpace(out.GitHub.ReadmeURL)
	if out.GitHub.ReadmeURL != "" && !strings.HasPrefix(out.GitHub.ReadmeURL, "http") {
		res.addErr("github.readme_url must be an http(s) URL")
	}

	if out.Email.IMAPPort <= 0 {
		out.Email.IMAPPort = 993
	}
	if out.Email.Mailbox == "" {
		out.Email.Mailbox = "INBOX"
	}
	if out.Email.LookbackDays <= 0 {
		res.addErr("email.lookback_days must be > 0")
	}

	f := out.Filter
	if f.MinScore < 0 || f.MinScore > 1 {
		res.addErr("filter.min_score must be within [0,1]")
	}
	if len(f.TitleKeywords) == 0 {
		res.addWarn("filter.title_keywords is empty; every posting will score low.")
	}
	if f.MaxAgeDays < 0 {
		res.addErr("filter.max_age_days must be >= 0 (0 disables the age cutoff)")
	}
	for _, a := range f.PreferredATS {
		if domain.ParseATSType(a) == domain.ATSUnknown {
			res.addWarn("filter.preferred_ats %q has no adapter; it only affects scoring.", a)
		}
	}
	for _, a := range f.SkipATS {
		for _, p := range f.PreferredATS {
			if a == p {
				res.addErr("filter: %q is both preferred and skipped", a)
			}
		}
	}
	w := f.Weights
	for name, v := range map[string]float64{
		"keyword": w.Keyword, "keyword_extra": w.KeywordExtra, "keyword_cap": w.KeywordCap,
		"ats": w.ATS, "location": w.Location, "recency": w.Recency,
	} {
		if v < 0 || v > 1 {
			res.addErr("filter.weights.%s must be within [0,1]", name)
		}
	}
	if w.KeywordCap < w.Keyword {
		res.addWarn("filter.weights.keyword_cap (%.2f) is below keyword (%.2f).", w.KeywordCap, w.Keyword)
	}

	if out.Browser.TimeoutSeconds <= 0 {
		res.addErr("browser.timeout_seconds must be > 0")
	}
	if out.Browser.NavPerSecond <= 0 {
		res.addErr("browser.nav_per_second must be > 0")
	}
	if out.Browser.MaxWaitMS < out.Browser.MinWaitMS {
		res.addErr("browser.max_wait_ms must be >= min_wait_ms")
	}

	if out.LLM.Enabled {
		if out.LLM.Model == "" {
			res.addErr("llm.model is required when llm.enabled is true")
		}
		if out.LLM.APIKey == "" {
			res.addWarn("llm.enabled is true but no API key is configured; advisory will be skipped.")
		}
	}

	if out.Resume.Default == "" {
		res.addWarn("resume.default is empty; adapters will not upload a resume.")
	}
	for name, path := range out.Resume.Variants {
		if strings.TrimSpace(path) == "" {
			res.addErr("resume.variants.%s has an empty path", name)
		}
	}

	// simple conflict check
	blockSet := map[string]bool{}
	for _, b := range out.Filter.ExcludedLocations {
		blockSet[b] = true
	}
	for _, a := range out.Filter.PreferredLocations {
		if blockSet[a] {
			res.addWarn("location appears in both preferred and excluded: %q", a)
		}
	}

	return out, res
}
