// engine/internal/rank/rules.go
package rank

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"jobgate-engine/internal/config"
	"jobgate-engine/internal/domain"
)

// Rules is a fixed rule set. Lists are matched case-insensitively.
type Rules struct {
	TitleKeywords         []string
	PreferredATS          []string
	SkipATS               []string
	MaxAgeDays            int
	PreferredLocations    []string
	ExcludedLocations     []string
	RequiresSponsorshipOK bool
	Weights               config.Weights
}

func RulesFromConfig(cfg config.Config) Rules {
	f := cfg.Filter
	return Rules{
		TitleKeywords:         f.TitleKeywords,
		PreferredATS:          f.PreferredATS,
		SkipATS:               f.SkipATS,
		MaxAgeDays:            f.MaxAgeDays,
		PreferredLocations:    f.PreferredLocations,
		ExcludedLocations:     f.ExcludedLocations,
		RequiresSponsorshipOK: f.RequiresSponsorshipOK,
		Weights:               f.Weights,
	}
}

var reNoSponsorship = regexp.MustCompile(`(?i)no (visa )?sponsorship|without sponsorship|u\.?s\.? citizens? only|citizenship required|security clearance`)

// RulesScorer is the additive-weighted scorer. Hard exclusions are checked
// first and force 0 regardless of any positive signal.
type RulesScorer struct {
	Rules Rules
}

func (s RulesScorer) Score(job domain.JobPosting, asOf time.Time) Result {
	r := s.Rules
	w := r.Weights
	title := strings.ToLower(job.Title)
	loc := strings.ToLower(job.Location)
	ats := strings.ToLower(job.ATSHint)
	if ats == "" {
		ats = string(job.ATSType)
	}

	// ---- hard exclusions ----
	if contains(r.SkipATS, ats) {
		return excluded("skip_ats", "ATS %s is skip-listed", ats)
	}
	if r.MaxAgeDays > 0 && job.PostedAt != nil {
		age := asOf.Sub(*job.PostedAt)
		if age > time.Duration(r.MaxAgeDays)*24*time.Hour {
			return excluded("max_age", "posted %d days ago (max %d)", int(age.Hours()/24), r.MaxAgeDays)
		}
	}
	for _, x := range r.ExcludedLocations {
		if loc != "" && strings.Contains(loc, strings.ToLower(x)) {
			return excluded("location", "location %q is excluded", job.Location)
		}
	}
	if r.RequiresSponsorshipOK && reNoSponsorship.MatchString(job.Title+" "+job.Location) {
		return excluded("sponsorship", "posting rules out sponsorship")
	}

	// ---- additive signals ----
	score := 0.0
	var reasons []string

	var hits []string
	for _, kw := range r.TitleKeywords {
		if kw != "" && strings.Contains(title, strings.ToLower(kw)) {
			hits = append(hits, kw)
		}
	}
	if n := len(hits); n > 0 {
		kwScore := math.Min(w.KeywordCap, w.Keyword+w.KeywordExtra*float64(n-1))
		score += kwScore
		reasons = append(reasons, fmt.Sprintf("title matches %s (+%.2f)", strings.Join(hits, ", "), kwScore))
	}

	if contains(r.PreferredATS, ats) {
		// earlier entries in preferred_ats weigh more: the first gets 2x
		boost := w.ATS
		if len(r.PreferredATS) > 1 && strings.EqualFold(r.PreferredATS[0], ats) {
			boost *= 2
		}
		score += boost
		reasons = append(reasons, fmt.Sprintf("preferred ATS %s (+%.2f)", ats, boost))
	}

	for _, p := range r.PreferredLocations {
		if loc != "" && strings.Contains(loc, strings.ToLower(p)) {
			score += w.Location
			reasons = append(reasons, fmt.Sprintf("location %s (+%.2f)", job.Location, w.Location))
			break
		}
	}

	if job.PostedAt != nil && asOf.Sub(*job.PostedAt) <= 7*24*time.Hour {
		score += w.Recency
		reasons = append(reasons, fmt.Sprintf("posted this week (+%.2f)", w.Recency))
	}

	score = math.Round(math.Min(score, 1.0)*1000) / 1000
	if len(reasons) == 0 {
		return Result{Score: score, Reason: "no matching signals"}
	}
	return Result{Score: score, Reason: strings.Join(reasons, "; ")}
}

func excluded(kind, format string, args ...any) Result {
	return Result{Score: 0, Reason: "excluded: " + fmt.Sprintf(format, args...), Excluded: kind}
}

func contains(xs []string, v string) bool {
	if v == "" {
		return false
	}
	for _, x := range xs {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}
