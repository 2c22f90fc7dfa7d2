package main

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"

	"jobgate-engine/internal/domain"
	"jobgate-engine/internal/store"
)

type lookupStore interface {
	PostingByPrefix(ctx context.Context, prefix string) (domain.JobPosting, error)
	ApplicationByPrefix(ctx context.Context, prefix string) (domain.Application, error)
	LatestApplicationForJob(ctx context.Context, jobID string) (domain.Application, error)
	GetPosting(ctx context.Context, id string) (domain.JobPosting, error)
}

// resolveApplication accepts an application id prefix, or a posting id
// prefix standing for that posting's latest application.
func resolveApplication(ctx context.Context, st lookupStore, prefix string) (domain.Application, error) {
	app, err := st.ApplicationByPrefix(ctx, prefix)
	if !errors.Is(err, store.ErrNotFound) {
		return app, err
	}
	job, jerr := st.PostingByPrefix(ctx, prefix)
	if jerr != nil {
		if errors.Is(jerr, store.ErrNotFound) {
			return app, fmt.Errorf("no application or posting matches %q", prefix)
		}
		return app, jerr
	}
	return st.LatestApplicationForJob(ctx, job.ID)
}

// resolvePosting accepts a posting id prefix, or an application id prefix
// standing for its posting.
func resolvePosting(ctx context.Context, st lookupStore, prefix string) (domain.JobPosting, error) {
	job, err := st.PostingByPrefix(ctx, prefix)
	if !errors.Is(err, store.ErrNotFound) {
		return job, err
	}
	app, aerr := st.ApplicationByPrefix(ctx, prefix)
	if aerr != nil {
		if errors.Is(aerr, store.ErrNotFound) {
			return job, fmt.Errorf("no posting or application matches %q", prefix)
		}
		return job, aerr
	}
	return st.GetPosting(ctx, app.JobID)
}

func openURL(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
