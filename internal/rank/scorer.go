package rank

import (
	"time"

	"jobgate-engine/internal/domain"
)

// Scorer is the swappable scoring policy. Implementations must be pure:
// the same posting and asOf always give the same Result.
type Scorer interface {
	Score(job domain.JobPosting, asOf time.Time) Result
}

type Result struct {
	Score float64
	// Reason is a short human-readable explanation stored as fit_reason.
	Reason string
	// Excluded names the hard exclusion that forced the score to 0, if any.
	Excluded string
}

// Disposition maps a score to the posting status it earns.
func Disposition(score, threshold float64) domain.JobStatus {
	if score >= threshold {
		return domain.JobQueued
	}
	return domain.JobFilteredOut
}

// Apply scores job in place and sets its status. A hard exclusion is
// filtered out whatever the threshold.
func Apply(s Scorer, job *domain.JobPosting, threshold float64, asOf time.Time) Result {
	r := s.Score(*job, asOf)
	job.Score = r.Score
	job.FitReason = r.Reason
	job.Status = Disposition(r.Score, threshold)
	if r.Excluded != "" {
		job.Status = domain.JobFilteredOut
	}
	return r
}
