package adapters

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"jobgate-engine/internal/browser"
	"jobgate-engine/internal/domain"
)

// workday runs in guided mode: it fills what is stable across tenants
// (email, resume) and hands the multi-step wizard to the operator.
type workday struct {
	guide Guide
}

func NewWorkday(guide Guide) Adapter { return &workday{guide: guide} }

func (w *workday) Name() string        { return "workday" }
func (w *workday) ATS() domain.ATSType { return domain.ATSWorkday }

func (w *workday) Detect(u string) bool {
	t, _ := domain.DetectATS(u)
	return t == domain.ATSWorkday
}

func (w *workday) Prepare(ctx context.Context, s browser.Session, jobURL string) error {
	target := jobURL
	if b, err := parseBoardURL(jobURL); err == nil && b.JobPath != "" {
		target = b.applyManuallyURL()
	}
	if err := s.Navigate(ctx, target); err != nil {
		return err
	}
	// Tenants that reject the direct link show the job page instead.
	for _, sel := range []string{`a[data-automation-id="adventureButton"]`, `a[data-automation-id="applyManually"]`} {
		btn, err := browser.First(ctx, s, sel)
		if errors.Is(err, browser.ErrNoElement) {
			continue
		}
		if err != nil {
			return err
		}
		if err := btn.Click(ctx); err != nil {
			return fmt.Errorf("workday: click %s: %w", sel, err)
		}
	}
	return nil
}

func (w *workday) Fill(ctx context.Context, s browser.Session, in FillInput) (FillResult, error) {
	var res FillResult
	if el, err := browser.First(ctx, s, `input[data-automation-id="email"]`); err == nil {
		if in.Profile.Personal.Email != "" {
			if err := el.Type(ctx, in.Profile.Personal.Email); err != nil {
				return res, fmt.Errorf("workday: fill email: %w", err)
			}
			res.add("email", in.Profile.Personal.Email, FromProfile)
		}
	} else if !errors.Is(err, browser.ErrNoElement) {
		return res, err
	}

	if in.ResumePath != "" {
		el, err := browser.First(ctx, s, `input[data-automation-id="file-upload-input-ref"]`, `input[type="file"]`)
		switch {
		case errors.Is(err, browser.ErrNoElement):
			log.Printf("[adapters:workday] resume input not on this step")
		case err != nil:
			return res, err
		default:
			if err := el.Upload(ctx, in.ResumePath); err != nil {
				return res, fmt.Errorf("workday: upload resume: %w", err)
			}
			res.ResumeUploaded = true
		}
	}
	return res, nil
}

func (w *workday) ReachReview(ctx context.Context, s browser.Session) error {
	return w.guide.Pause(ctx, "Workday guided mode: complete the remaining steps in the browser. Press ENTER when on the review page.")
}

func (w *workday) Submit(ctx context.Context, s browser.Session) (bool, error) {
	btn, err := browser.First(ctx, s, `button[data-automation-id="pageFooterNextButton"]`, `button[data-automation-id="bottom-navigation-next-button"]`)
	if err == nil {
		if label := strings.ToLower(btn.Label(ctx)); strings.Contains(label, "submit") {
			if err := btn.Click(ctx); err != nil {
				return false, fmt.Errorf("workday: click submit: %w", err)
			}
		}
	}
	return w.guide.Confirm(ctx, "Click Submit in Workday if it is still open. Did the application go through?")
}

// board is a parsed Workday job URL:
// https://<tenant>.wd5.myworkdayjobs.com/<locale>/<site>/job/<loc>/<slug>
type board struct {
	Scheme  string
	Host    string
	Tenant  string
	Site    string
	Locale  string
	JobPath string
}

func parseBoardURL(raw string) (board, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return board{}, errors.New("empty board url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return board{}, err
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	if u.Host == "" {
		return board{}, fmt.Errorf("missing host in %q", raw)
	}

	parts := strings.Split(u.Host, ".")
	if len(parts) < 3 {
		return board{}, fmt.Errorf("unexpected host %q", u.Host)
	}
	tenant := parts[0]

	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) == 0 || segs[0] == "" {
		return board{}, fmt.Errorf("unexpected path %q", u.Path)
	}

	locale := ""
	if len(segs) >= 2 && looksLikeLocale(segs[0]) {
		locale = normalizeLocale(segs[0])
		segs = segs[1:]
	}

	site := segs[0]
	jobPath := ""
	for i, s := range segs {
		if s == "job" && i+1 < len(segs) {
			jobPath = strings.Join(segs[i:], "/")
			jobPath = strings.TrimSuffix(jobPath, "/apply/applyManually")
			jobPath = strings.TrimSuffix(jobPath, "/apply")
			break
		}
	}

	return board{
		Scheme:  u.Scheme,
		Host:    u.Host,
		Tenant:  tenant,
		Site:    site,
		Locale:  locale,
		JobPath: jobPath,
	}, nil
}

func (b board) applyManuallyURL() string {
	prefix := fmt.Sprintf("%s://%s", b.Scheme, b.Host)
	if b.Locale != "" {
		prefix += "/" + b.Locale
	}
	return fmt.Sprintf("%s/%s/%s/apply/applyManually", prefix, b.Site, b.JobPath)
}

func looksLikeLocale(s string) bool {
	// accepts en-US, en-us, etc.
	s = strings.TrimSpace(s)
	if len(s) != 5 || s[2] != '-' {
		return false
	}
	return isAlpha(s[0:2]) && isAlpha(s[3:5])
}

func normalizeLocale(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 5 && s[2] == '-' {
		return strings.ToLower(s[0:2]) + "-" + strings.ToUpper(s[3:5])
	}
	return s
}

func isAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
			return false
		}
	}
	return true
}
