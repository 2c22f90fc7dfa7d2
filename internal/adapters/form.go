package adapters

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"jobgate-engine/internal/browser"
	"jobgate-engine/internal/domain"
)

type field struct {
	label     string // profile lookup key, also the question if unresolved
	selectors []string
}

// formSpec describes a single-page ATS form.
type formSpec struct {
	name      string
	ats       domain.ATSType
	applyURL  func(jobURL string) string
	openForm  []string // optional buttons that reveal the form
	fields    []field
	resume    []string
	questions []string
	submit    []string
	success   *regexp.Regexp
	failure   []string // selectors of post-submit error banners
}

// formAdapter drives the Greenhouse, Lever and Ashby forms. None of them
// has a distinct review page, so ReachReview only checks the submit button.
type formAdapter struct {
	spec formSpec

	confirmTries int
	confirmWait  time.Duration
}

func newFormAdapter(spec formSpec) *formAdapter {
	return &formAdapter{spec: spec, confirmTries: 10, confirmWait: time.Second}
}

func (a *formAdapter) Name() string        { return a.spec.name }
func (a *formAdapter) ATS() domain.ATSType { return a.spec.ats }

func (a *formAdapter) Detect(url string) bool {
	t, _ := domain.DetectATS(url)
	return t == a.spec.ats
}

func (a *formAdapter) Prepare(ctx context.Context, s browser.Session, url string) error {
	target := url
	if a.spec.applyURL != nil {
		target = a.spec.applyURL(url)
	}
	if err := s.Navigate(ctx, target); err != nil {
		return err
	}
	if len(a.spec.openForm) == 0 {
		return nil
	}
	btn, err := browser.First(ctx, s, a.spec.openForm...)
	switch {
	case errors.Is(err, browser.ErrNoElement):
		return nil // form already visible
	case err != nil:
		return err
	}
	return btn.Click(ctx)
}

func (a *formAdapter) Fill(ctx context.Context, s browser.Session, in FillInput) (FillResult, error) {
	var res FillResult
	done := map[string]bool{}

	for _, f := range a.spec.fields {
		el, err := browser.First(ctx, s, f.selectors...)
		if errors.Is(err, browser.ErrNoElement) {
			continue
		}
		if err != nil {
			return res, err
		}
		done[elementKey(el)] = true
		if err := a.answer(ctx, el, f.label, in, &res); err != nil {
			return res, err
		}
	}

	if in.ResumePath != "" {
		el, err := browser.First(ctx, s, a.spec.resume...)
		switch {
		case errors.Is(err, browser.ErrNoElement):
			log.Printf("[adapters:%s] no resume input found", a.spec.name)
		case err != nil:
			return res, err
		default:
			if err := el.Upload(ctx, in.ResumePath); err != nil {
				return res, fmt.Errorf("upload resume: %w", err)
			}
			done[elementKey(el)] = true
			res.ResumeUploaded = true
		}
	}

	for _, sel := range a.spec.questions {
		els, err := s.Find(ctx, sel)
		if err != nil {
			return res, err
		}
		for _, el := range els {
			key := elementKey(el)
			if key != "" && done[key] {
				continue
			}
			done[key] = true
			if !answerable(el) {
				continue
			}
			label := strings.TrimSpace(el.Label(ctx))
			if label == "" {
				continue
			}
			if err := a.answer(ctx, el, label, in, &res); err != nil {
				return res, err
			}
		}
	}

	log.Printf("[adapters:%s] filled profile=%d cache=%d asked=%d skipped=%d resume=%v",
		a.spec.name, res.Count(FromProfile), res.Count(FromCache), res.Count(AskedInteractively),
		res.Count(SkippedUnknown), res.ResumeUploaded)
	return res, nil
}

// answer fills one control: profile first, then the resolver.
func (a *formAdapter) answer(ctx context.Context, el browser.Element, label string, in FillInput, res *FillResult) error {
	value, ok := in.Profile.Lookup(label)
	outcome := FromProfile
	if !ok {
		if in.Resolver == nil {
			res.add(label, "", SkippedUnknown)
			return nil
		}
		var err error
		value, outcome, err = in.Resolver.Resolve(ctx, a.spec.ats, label)
		if err != nil {
			return fmt.Errorf("resolve %q: %w", label, err)
		}
	}
	if value == "" {
		res.add(label, "", SkippedUnknown)
		return nil
	}

	if el.Attr("type") == "checkbox" {
		if isYes(value) {
			if err := el.Click(ctx); err != nil {
				return fmt.Errorf("check %q: %w", label, err)
			}
		}
	} else if err := el.Type(ctx, value); err != nil {
		return fmt.Errorf("fill %q: %w", label, err)
	}
	res.add(label, value, outcome)
	return nil
}

func (a *formAdapter) ReachReview(ctx context.Context, s browser.Session) error {
	if _, err := browser.First(ctx, s, a.spec.submit...); err != nil {
		return fmt.Errorf("%s: submit button not found: %w", a.spec.name, err)
	}
	return nil
}

func (a *formAdapter) Submit(ctx context.Context, s browser.Session) (bool, error) {
	btn, err := browser.First(ctx, s, a.spec.submit...)
	if err != nil {
		return false, fmt.Errorf("%s: submit button not found: %w", a.spec.name, err)
	}
	before, _ := s.CurrentURL(ctx)
	if err := btn.Click(ctx); err != nil {
		return false, fmt.Errorf("%s: click submit: %w", a.spec.name, err)
	}

	for i := 0; i < a.confirmTries; i++ {
		html, err := s.HTML(ctx)
		if err == nil && a.spec.success.MatchString(html) {
			return true, nil
		}
		for _, sel := range a.spec.failure {
			if els, _ := s.Find(ctx, sel); len(els) > 0 {
				return false, fmt.Errorf("%s: site rejected submission: %s", a.spec.name, els[0].Label(ctx))
			}
		}
		if now, _ := s.CurrentURL(ctx); before != "" && now != "" && now != before && !strings.Contains(now, "#") {
			log.Printf("[adapters:%s] url changed after submit %q -> %q", a.spec.name, before, now)
			return true, nil
		}
		if i+1 < a.confirmTries {
			if err := sleep(ctx, a.confirmWait); err != nil {
				return false, err
			}
		}
	}
	return false, nil
}

// elementKey identifies a control across selectors; "" when anonymous.
func elementKey(el browser.Element) string {
	if id := el.Attr("id"); id != "" {
		return "#" + id
	}
	if name := el.Attr("name"); name != "" {
		return "name=" + name
	}
	return ""
}

func answerable(el browser.Element) bool {
	switch el.Attr("type") {
	case "hidden", "file", "submit", "button", "radio", "image", "reset":
		return false
	}
	switch el.Tag() {
	case "input", "textarea", "select":
		return true
	}
	return false
}

func isYes(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "y", "true", "1", "checked":
		return true
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
