package domain

import (
	"fmt"
	"time"
)

type AppStatus string

const (
	AppQueued      AppStatus = "queued"
	AppStarted     AppStatus = "started"
	AppFilled      AppStatus = "filled"
	AppNeedsReview AppStatus = "needs_review"
	AppSubmitted   AppStatus = "submitted"
	AppSkipped     AppStatus = "skipped"
	AppError       AppStatus = "error"
)

// Terminal reports whether no further transition is allowed without reset.
func (s AppStatus) Terminal() bool {
	switch s {
	case AppSubmitted, AppSkipped, AppError:
		return true
	}
	return false
}

// transitions lists every edge of the application lifecycle. Reset is not
// an edge; it is handled separately by CanReset.
var transitions = map[AppStatus][]AppStatus{
	AppQueued:      {AppStarted, AppError, AppSkipped},
	AppStarted:     {AppFilled, AppError},
	AppFilled:      {AppNeedsReview, AppError},
	AppNeedsReview: {AppSubmitted, AppSkipped, AppError},
}

func CanTransition(from, to AppStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanReset: anything except submitted may be re-queued.
func CanReset(s AppStatus) bool {
	return s != AppSubmitted && s != AppQueued
}

type Recommendation string

const (
	RecommendSubmit Recommendation = "RECOMMEND_SUBMIT"
	RecommendSkip   Recommendation = "RECOMMEND_SKIP"
)

func ParseRecommendation(s string) (Recommendation, error) {
	switch Recommendation(s) {
	case RecommendSubmit, RecommendSkip:
		return Recommendation(s), nil
	}
	return "", fmt.Errorf("unknown recommendation %q", s)
}

type Application struct {
	ID                string
	JobID             string
	RunID             string
	Status            AppStatus
	ResumeVariant     string
	StartedAt         *time.Time
	CompletedAt       *time.Time
	UpdatedAt         time.Time
	ErrorMessage      string
	LLMRecommendation *Recommendation
	LLMRationale      string
	AnswersUsed       map[string]string
}
