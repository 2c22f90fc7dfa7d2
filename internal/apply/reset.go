package apply

import (
	"context"
	"fmt"
	"log"

	"jobgate-engine/internal/domain"
)

type ResetStore interface {
	GetApplication(ctx context.Context, id string) (domain.Application, error)
	UpdateApplication(ctx context.Context, a *domain.Application) error
}

// Reset re-queues an application that ended in error, was skipped, or was
// left mid-flight by an interrupted run. Submitted applications are final;
// a queued application is returned unchanged.
func Reset(ctx context.Context, st ResetStore, id string) (domain.Application, error) {
	app, err := st.GetApplication(ctx, id)
	if err != nil {
		return app, err
	}
	if app.Status == domain.AppQueued {
		return app, nil
	}
	if !domain.CanReset(app.Status) {
		return app, fmt.Errorf("%w: %s is %s", ErrNotResettable, id, app.Status)
	}

	prev := app.Status
	app.Status = domain.AppQueued
	app.RunID = ""
	app.StartedAt = nil
	app.CompletedAt = nil
	app.ErrorMessage = ""
	app.LLMRecommendation = nil
	app.LLMRationale = ""
	app.AnswersUsed = nil
	if err := st.UpdateApplication(ctx, &app); err != nil {
		return app, err
	}
	log.Printf("[apply] reset id=%s from=%s", id, prev)
	return app, nil
}
