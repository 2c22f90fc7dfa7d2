// Package adapters drives ATS application forms. Each ATS is a standalone
// variant of the Adapter contract; the Registry picks one per URL and
// falls back to manual assist.
package adapters

import (
	"context"

	"jobgate-engine/internal/browser"
	"jobgate-engine/internal/domain"
)

type Adapter interface {
	Name() string
	ATS() domain.ATSType
	Detect(url string) bool
	Prepare(ctx context.Context, s browser.Session, url string) error
	Fill(ctx context.Context, s browser.Session, in FillInput) (FillResult, error)
	// ReachReview leaves the session on the last page before submission.
	ReachReview(ctx context.Context, s browser.Session) error
	// Submit performs the irreversible action. false means the site did
	// not confirm the submission.
	Submit(ctx context.Context, s browser.Session) (bool, error)
}

type FillInput struct {
	Job        domain.JobPosting
	Profile    domain.Profile
	ResumePath string
	Resolver   QuestionResolver
}

// QuestionResolver answers form questions the profile cannot. It reports
// whether the answer came from the cache or from the operator; an empty
// answer means the operator chose to leave the field blank.
type QuestionResolver interface {
	Resolve(ctx context.Context, ats domain.ATSType, question string) (string, FieldOutcome, error)
}

// Guide hands control to the human operator for steps that cannot be
// automated (Workday, unknown ATS).
type Guide interface {
	Pause(ctx context.Context, instructions string) error
	Confirm(ctx context.Context, question string) (bool, error)
}

type FieldOutcome string

const (
	FromProfile        FieldOutcome = "filled_from_profile"
	FromCache          FieldOutcome = "filled_from_cache"
	AskedInteractively FieldOutcome = "asked_interactively"
	SkippedUnknown     FieldOutcome = "skipped_unknown"
)

type FieldResult struct {
	Question string
	Answer   string
	Outcome  FieldOutcome
}

type FillResult struct {
	Fields         []FieldResult
	ResumeUploaded bool
	// Manual is set when the operator filled the form by hand.
	Manual bool
}

func (r *FillResult) add(question, answer string, o FieldOutcome) {
	r.Fields = append(r.Fields, FieldResult{Question: question, Answer: answer, Outcome: o})
}

// Answers returns question -> answer for every field that was filled.
func (r FillResult) Answers() map[string]string {
	out := map[string]string{}
	for _, f := range r.Fields {
		if f.Outcome != SkippedUnknown {
			out[f.Question] = f.Answer
		}
	}
	return out
}

func (r FillResult) Count(o FieldOutcome) int {
	n := 0
	for _, f := range r.Fields {
		if f.Outcome == o {
			n++
		}
	}
	return n
}
