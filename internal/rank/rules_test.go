package rank

import (
	"testing"
	"time"

	"jobgate-engine/internal/config"
	"jobgate-engine/internal/domain"
)

var asOf = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	t := asOf.Add(-time.Duration(n) * 24 * time.Hour)
	return &t
}

func defaultScorer() RulesScorer {
	return RulesScorer{Rules: RulesFromConfig(config.Default())}
}

func TestScoreAcmeQueued(t *testing.T) {
	job := domain.JobPosting{
		Title:    "Backend Engineer Intern",
		Company:  "Acme",
		ATSType:  domain.ATSGreenhouse,
		ATSHint:  "greenhouse",
		PostedAt: daysAgo(5),
	}
	r := Apply(defaultScorer(), &job, 0.30, asOf)
	// keywords intern+backend: 0.35+0.05, greenhouse: 0.10, recency: 0.05
	if r.Score != 0.55 {
		t.Fatalf("score = %v (%s)", r.Score, r.Reason)
	}
	if job.Status != domain.JobQueued || job.FitReason == "" {
		t.Fatalf("expected queued with reason, got %s %q", job.Status, job.FitReason)
	}
}

func TestScoreDeterministic(t *testing.T) {
	job := domain.JobPosting{Title: "Platform Infrastructure Intern", Location: "Remote", ATSHint: "ashby", ATSType: domain.ATSAshby, PostedAt: daysAgo(2)}
	s := defaultScorer()
	first := s.Score(job, asOf)
	for i := 0; i < 20; i++ {
		if got := s.Score(job, asOf); got != first {
			t.Fatalf("run %d: %+v != %+v", i, got, first)
		}
	}
	if first.Score > 1.0 || first.Score < 0 {
		t.Fatalf("score out of range: %v", first.Score)
	}
}

func TestHardExclusionsForceZero(t *testing.T) {
	rules := RulesFromConfig(config.Default())
	rules.SkipATS = []string{"workday"}
	rules.ExcludedLocations = []string{"london"}
	s := RulesScorer{Rules: rules}

	strong := domain.JobPosting{Title: "Software Engineer Intern, Backend Systems", ATSHint: "greenhouse", ATSType: domain.ATSGreenhouse, Location: "Remote"}

	cases := map[string]func(j *domain.JobPosting){
		"skip_ats":    func(j *domain.JobPosting) { j.ATSHint, j.ATSType = "workday", domain.ATSWorkday },
		"max_age":     func(j *domain.JobPosting) { j.PostedAt = daysAgo(45) },
		"location":    func(j *domain.JobPosting) { j.Location = "London, UK" },
		"sponsorship": func(j *domain.JobPosting) { j.Title += " (US Citizens Only)" },
	}
	for kind, mutate := range cases {
		j := strong
		mutate(&j)
		r := s.Score(j, asOf)
		if r.Score != 0 || r.Excluded != kind {
			t.Fatalf("%s: got %+v", kind, r)
		}
		if Disposition(r.Score, 0.30) != domain.JobFilteredOut {
			t.Fatalf("%s: must be filtered out", kind)
		}
	}
}

func TestExcludedNeverQueuedAtZeroThreshold(t *testing.T) {
	rules := RulesFromConfig(config.Default())
	rules.SkipATS = []string{"workday"}
	rules.MaxAgeDays = 30
	s := RulesScorer{Rules: rules}

	jobs := map[string]domain.JobPosting{
		"skip_ats": {Title: "Software Engineer Intern", ATSHint: "workday", ATSType: domain.ATSWorkday},
		"max_age":  {Title: "Software Engineer Intern", ATSHint: "greenhouse", ATSType: domain.ATSGreenhouse, PostedAt: daysAgo(45)},
	}
	for kind, job := range jobs {
		r := Apply(s, &job, 0, asOf)
		if r.Excluded != kind {
			t.Fatalf("%s: excluded=%q", kind, r.Excluded)
		}
		if job.Status != domain.JobFilteredOut {
			t.Fatalf("%s: status=%s, want filtered_out", kind, job.Status)
		}
	}

	plain := domain.JobPosting{Title: "Office Manager"}
	Apply(s, &plain, 0, asOf)
	if plain.Status != domain.JobQueued {
		t.Fatalf("zero threshold should still queue non-excluded postings, got %s", plain.Status)
	}
}

func TestKeywordContributionCapped(t *testing.T) {
	job := domain.JobPosting{Title: "Software Engineer Intern - Backend Platform Infrastructure Distributed Systems Data"}
	r := defaultScorer().Score(job, asOf)
	if r.Score != 0.50 {
		t.Fatalf("keyword cap not applied: %v (%s)", r.Score, r.Reason)
	}
}

func TestNoSignals(t *testing.T) {
	r := defaultScorer().Score(domain.JobPosting{Title: "Chef"}, asOf)
	if r.Score != 0 || Disposition(r.Score, 0.30) != domain.JobFilteredOut {
		t.Fatalf("unexpected %+v", r)
	}
}
