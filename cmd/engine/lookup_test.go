package main

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"jobgate-engine/internal/domain"
	"jobgate-engine/internal/store"
)

func lookupDB(t *testing.T) (*store.DB, domain.Application) {
	t.Helper()
	db, err := store.OpenAndMigrate(filepath.Join(t.TempDir(), "jobgate.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, id := range []string{"f00d01", "f00d02"} {
		p := domain.JobPosting{ID: id, Title: "Intern", Company: "Acme",
			URL: "https://jobs.lever.co/acme/" + id, Status: domain.JobQueued}
		if _, err := db.UpsertPosting(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	app := domain.Application{JobID: "f00d02"}
	if err := db.CreateApplication(ctx, &app); err != nil {
		t.Fatal(err)
	}
	return db, app
}

func TestResolveApplication(t *testing.T) {
	ctx := context.Background()
	db, app := lookupDB(t)

	got, err := resolveApplication(ctx, db, app.ID[:6])
	if err != nil || got.ID != app.ID {
		t.Fatalf("by application prefix: %+v %v", got, err)
	}
	got, err = resolveApplication(ctx, db, "f00d02")
	if err != nil || got.ID != app.ID {
		t.Fatalf("by job id: %+v %v", got, err)
	}
	if _, err := resolveApplication(ctx, db, "f00d01"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("job without application: %v", err)
	}
	if _, err := resolveApplication(ctx, db, "f00d"); !errors.Is(err, store.ErrAmbiguous) {
		t.Fatalf("ambiguous job prefix: %v", err)
	}
	if _, err := resolveApplication(ctx, db, "zzz"); err == nil || !strings.Contains(err.Error(), "no application") {
		t.Fatalf("unknown prefix: %v", err)
	}
}

func TestResolvePosting(t *testing.T) {
	ctx := context.Background()
	db, app := lookupDB(t)

	got, err := resolvePosting(ctx, db, "F00D01")
	if err != nil || got.ID != "f00d01" {
		t.Fatalf("by job prefix: %+v %v", got, err)
	}
	got, err = resolvePosting(ctx, db, app.ID)
	if err != nil || got.ID != "f00d02" {
		t.Fatalf("by application id: %+v %v", got, err)
	}
}
