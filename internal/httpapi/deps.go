package httpapi

import (
	"context"

	"jobgate-engine/internal/config"
	"jobgate-engine/internal/domain"
	"jobgate-engine/internal/events"
	"jobgate-engine/internal/ingest"
	"jobgate-engine/internal/store"
)

// Store is the read side of the repository the API exposes.
type Store interface {
	ListPostings(ctx context.Context, status domain.JobStatus, limit int) ([]domain.JobPosting, error)
	ListApplications(ctx context.Context, status domain.AppStatus, limit int) ([]domain.Application, error)
	GetApplication(ctx context.Context, id string) (domain.Application, error)
	ListArtifacts(ctx context.Context, applicationID string) ([]domain.Artifact, error)
	ListRuns(ctx context.Context, limit int) ([]domain.Run, error)
	Counts(ctx context.Context) (store.StatusCounts, error)
}

type Deps struct {
	Store Store
	Hub   *events.Hub

	Config      config.Config
	UserCfgPath string

	// FetchStatus reports the last digest fetch; nil when not watching.
	FetchStatus func() ingest.Status
}
