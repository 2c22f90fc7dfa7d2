package adapters

import (
	"context"
	"fmt"

	"jobgate-engine/internal/browser"
	"jobgate-engine/internal/domain"
)

// manual is the fallback for unknown platforms: it opens the page and lets
// the operator do the rest.
type manual struct {
	guide Guide
}

func NewManual(guide Guide) Adapter { return &manual{guide: guide} }

func (m *manual) Name() string           { return "manual" }
func (m *manual) ATS() domain.ATSType    { return domain.ATSUnknown }
func (m *manual) Detect(url string) bool { return true }

func (m *manual) Prepare(ctx context.Context, s browser.Session, url string) error {
	return s.Navigate(ctx, url)
}

func (m *manual) Fill(ctx context.Context, s browser.Session, in FillInput) (FillResult, error) {
	msg := fmt.Sprintf("Manual assist: fill in the application for %q at %s in the browser. Press ENTER when done.",
		in.Job.Title, in.Job.Company)
	if err := m.guide.Pause(ctx, msg); err != nil {
		return FillResult{}, err
	}
	return FillResult{Manual: true}, nil
}

func (m *manual) ReachReview(ctx context.Context, s browser.Session) error { return nil }

func (m *manual) Submit(ctx context.Context, s browser.Session) (bool, error) {
	return m.guide.Confirm(ctx, "Submit the application in the browser now. Did it go through?")
}
