package domain

import "time"

// ATSType identifies the applicant tracking system hosting a posting's form.
type ATSType string

const (
	ATSAshby      ATSType = "ashby"
	ATSGreenhouse ATSType = "greenhouse"
	ATSLever      ATSType = "lever"
	ATSWorkday    ATSType = "workday"
	ATSUnknown    ATSType = "unknown"
)

func ParseATSType(s string) ATSType {
	switch ATSType(s) {
	case ATSAshby, ATSGreenhouse, ATSLever, ATSWorkday:
		return ATSType(s)
	default:
		return ATSUnknown
	}
}

type JobStatus string

const (
	JobDiscovered  JobStatus = "discovered"
	JobQueued      JobStatus = "queued"
	JobFilteredOut JobStatus = "filtered_out"
)

// JobPosting is immutable once stored except for PostedAt refreshes and
// the scorer's disposition. ID is derived from the normalized URL.
type JobPosting struct {
	ID           string
	Title        string
	Company      string
	URL          string
	Location     string
	ATSType      ATSType
	ATSHint      string // finer-grained platform name, e.g. smartrecruiters
	PostedAt     *time.Time
	DiscoveredAt time.Time
	Score        float64
	FitReason    string
	Status       JobStatus
	SourceEmail  string
}
