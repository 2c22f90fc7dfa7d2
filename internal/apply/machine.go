// Package apply runs one application attempt through its lifecycle:
// queued, started, filled, needs_review, then submitted, skipped or error.
// Submission happens only after the operator types YES.
package apply

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"jobgate-engine/internal/adapters"
	"jobgate-engine/internal/advisor"
	"jobgate-engine/internal/browser"
	"jobgate-engine/internal/domain"
	"jobgate-engine/internal/events"
	"jobgate-engine/internal/operator"
)

// ConfirmationText is the only operator input that allows submission.
const ConfirmationText = "YES"

type Store interface {
	AnswerStore
	GetPosting(ctx context.Context, id string) (domain.JobPosting, error)
	GetApplication(ctx context.Context, id string) (domain.Application, error)
	UpdateApplication(ctx context.Context, a *domain.Application) error
	SaveArtifact(ctx context.Context, a *domain.Artifact) error
}

type Operator interface {
	adapters.Guide
	Asker
	Gate(ctx context.Context, r operator.Review) (string, error)
}

type Advisor interface {
	Evaluate(ctx context.Context, s advisor.Summary) *advisor.Advice
}

type AdapterResolver interface {
	Resolve(url string) adapters.Adapter
}

type Machine struct {
	Store    Store
	Engine   browser.Engine
	Adapters AdapterResolver
	Operator Operator
	Resolver adapters.QuestionResolver
	// Advisor is optional; nil disables the advisory step.
	Advisor Advisor
	Events  events.Publisher

	Profile     domain.Profile
	Resumes     Resumes
	ArtifactDir string

	Now func() time.Time
}

// Resumes maps a resume variant name to a file path.
type Resumes struct {
	Default  string
	Variants map[string]string
}

func (r Resumes) Path(variant string) string {
	if p, ok := r.Variants[variant]; ok && p != "" {
		return p
	}
	return r.Default
}

func (m *Machine) now() time.Time {
	if m.Now != nil {
		return m.Now().UTC()
	}
	return time.Now().UTC()
}

func (m *Machine) resolver() adapters.QuestionResolver {
	if m.Resolver == nil {
		m.Resolver = NewResolver(m.Store, m.Operator)
	}
	return m.Resolver
}

// Run drives a queued application to a terminal state and persists every
// transition. The returned error describes why the application ended in
// error; it is informational, the state is already saved.
func (m *Machine) Run(ctx context.Context, app *domain.Application) error {
	if app.Status != domain.AppQueued {
		return fmt.Errorf("%w: run from %s", ErrIllegalTransition, app.Status)
	}
	job, err := m.Store.GetPosting(ctx, app.JobID)
	if err != nil {
		return fmt.Errorf("load posting for %s: %w", app.ID, err)
	}

	if err := m.transition(ctx, app, domain.AppStarted); err != nil {
		return err
	}

	adapter := m.Adapters.Resolve(job.URL)
	log.Printf("[apply] start id=%s job=%q company=%q adapter=%s", app.ID, job.Title, job.Company, adapter.Name())

	berr := browser.WithSession(ctx, m.Engine, func(s browser.Session) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = m.fail(ctx, s, app, ErrFill, fmt.Errorf("panic: %v", r))
			}
		}()
		return m.attempt(ctx, s, app, job, adapter)
	})
	if errors.Is(berr, browser.ErrOpen) && !app.Status.Terminal() {
		return m.fail(ctx, nil, app, ErrBrowser, berr)
	}
	return berr
}

func (m *Machine) attempt(ctx context.Context, s browser.Session, app *domain.Application, job domain.JobPosting, a adapters.Adapter) error {
	if err := a.Prepare(ctx, s, job.URL); err != nil {
		return m.fail(ctx, s, app, ErrFill, fmt.Errorf("prepare: %w", err))
	}

	fr, err := a.Fill(ctx, s, adapters.FillInput{
		Job:        job,
		Profile:    m.Profile,
		ResumePath: m.Resumes.Path(app.ResumeVariant),
		Resolver:   m.resolver(),
	})
	if err != nil {
		return m.fail(ctx, s, app, ErrFill, err)
	}
	app.AnswersUsed = fr.Answers()
	if err := m.transition(ctx, app, domain.AppFilled); err != nil {
		return m.fail(ctx, s, app, ErrPersist, err)
	}

	if err := a.ReachReview(ctx, s); err != nil {
		return m.fail(ctx, s, app, ErrReview, err)
	}
	if err := m.transition(ctx, app, domain.AppNeedsReview); err != nil {
		return m.fail(ctx, s, app, ErrPersist, err)
	}
	m.capture(ctx, s, app, "review")

	advice := m.advise(ctx, app, job)

	input, err := m.Operator.Gate(ctx, operator.Review{
		Job:         job,
		Application: *app,
		Adapter:     a.Name(),
		Answers:     app.AnswersUsed,
		Advice:      advice,
	})
	if err != nil {
		log.Printf("[apply] gate read failed id=%s err=%v; treating as decline", app.ID, err)
	}
	if err != nil || input != ConfirmationText {
		log.Printf("[apply] declined id=%s", app.ID)
		if err := m.transition(ctx, app, domain.AppSkipped); err != nil {
			return m.fail(ctx, s, app, ErrPersist, err)
		}
		return nil
	}

	ok, err := a.Submit(ctx, s)
	if err != nil {
		return m.fail(ctx, s, app, ErrSubmit, err)
	}
	if !ok {
		return m.fail(ctx, s, app, ErrSubmit, errors.New("site did not confirm the submission"))
	}
	log.Printf("[apply] submitted id=%s job=%q", app.ID, job.Title)
	if err := m.transition(ctx, app, domain.AppSubmitted); err != nil {
		return m.fail(ctx, s, app, ErrPersist, fmt.Errorf("submitted but not recorded: %w", err))
	}
	return nil
}

// advise records the advisory recommendation, if any. It never changes
// the application's status.
func (m *Machine) advise(ctx context.Context, app *domain.Application, job domain.JobPosting) *advisor.Advice {
	if m.Advisor == nil {
		return nil
	}
	adv := m.Advisor.Evaluate(ctx, advisor.Summary{Job: job, Answers: app.AnswersUsed})
	if adv == nil {
		return nil
	}
	rec := adv.Recommendation
	app.LLMRecommendation = &rec
	app.LLMRationale = adv.Rationale
	if err := m.Store.UpdateApplication(ctx, app); err != nil {
		log.Printf("[apply] save advisory id=%s err=%v", app.ID, err)
	}
	return adv
}

func (m *Machine) transition(ctx context.Context, app *domain.Application, to domain.AppStatus) error {
	from := app.Status
	if !domain.CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	now := m.now()
	app.Status = to
	switch {
	case to == domain.AppStarted:
		app.StartedAt = &now
	case to.Terminal():
		app.CompletedAt = &now
	}
	if err := m.Store.UpdateApplication(ctx, app); err != nil {
		app.Status = from
		return fmt.Errorf("persist %s -> %s: %w", from, to, err)
	}
	log.Printf("[apply] status=%s id=%s", to, app.ID)
	if m.Events != nil {
		m.Events.Emit(events.TypeTransition, events.Transition{
			ApplicationID: app.ID, JobID: app.JobID,
			From: string(from), To: string(to), Error: app.ErrorMessage,
		})
	}
	return nil
}

// fail moves app to error with a readable cause and captures an artifact.
// It returns the classified error.
func (m *Machine) fail(ctx context.Context, s browser.Session, app *domain.Application, kind, cause error) error {
	err := fmt.Errorf("%w: %v", kind, cause)
	if app.Status.Terminal() {
		return err
	}
	app.ErrorMessage = err.Error()
	m.capture(ctx, s, app, "error")
	if terr := m.transition(ctx, app, domain.AppError); terr != nil {
		log.Printf("[apply] could not record error id=%s: %v", app.ID, terr)
	}
	log.Printf("[apply] error id=%s err=%v", app.ID, err)
	return err
}
