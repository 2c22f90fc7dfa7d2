package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"jobgate-engine/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenAndMigrate(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func posting(id string, status domain.JobStatus, score float64) domain.JobPosting {
	return domain.JobPosting{
		ID:      id,
		Title:   "Backend Intern",
		Company: "Acme",
		URL:     "https://boards.greenhouse.io/acme/jobs/" + id,
		ATSType: domain.ATSGreenhouse,
		Score:   score,
		Status:  status,
	}
}

func TestMigrateIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := Migrate(db.Pool); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	var v int
	if err := db.Pool.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil || v != 2 {
		t.Fatalf("user_version=%d err=%v", v, err)
	}
	// the v1 schema already carries every jobs column the store reads
	var n int
	err := db.Pool.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('jobs') WHERE name IN ('fit_reason', 'ats_hint', 'source_email');`).Scan(&n)
	if err != nil || n != 3 {
		t.Fatalf("jobs columns=%d err=%v", n, err)
	}
}

func TestUpsertPostingNeverDuplicates(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	p := posting("j1", domain.JobQueued, 0.6)
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p.DiscoveredAt = first
	inserted, err := db.UpsertPosting(ctx, p)
	if err != nil || !inserted {
		t.Fatalf("first upsert: inserted=%v err=%v", inserted, err)
	}

	again := p
	again.DiscoveredAt = first.Add(48 * time.Hour)
	posted := first.Add(24 * time.Hour)
	again.PostedAt = &posted
	again.Status = domain.JobFilteredOut
	again.Score = 0.1
	inserted, err = db.UpsertPosting(ctx, again)
	if err != nil || inserted {
		t.Fatalf("second upsert: inserted=%v err=%v", inserted, err)
	}

	all, err := db.ListPostings(ctx, "", 0)
	if err != nil || len(all) != 1 {
		t.Fatalf("expected 1 row, got %d (%v)", len(all), err)
	}
	got := all[0]
	if !got.DiscoveredAt.Equal(first) {
		t.Fatalf("discovered_at changed: %v", got.DiscoveredAt)
	}
	if got.PostedAt == nil || !got.PostedAt.Equal(posted) {
		t.Fatalf("posted_at not refreshed: %v", got.PostedAt)
	}
	if got.Status != domain.JobQueued || got.Score != 0.6 {
		t.Fatalf("queued status must survive re-ingestion: %s %v", got.Status, got.Score)
	}
}

func TestEnqueueOncePerJob(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	for _, p := range []domain.JobPosting{
		posting("a", domain.JobQueued, 0.9),
		posting("b", domain.JobQueued, 0.5),
		posting("c", domain.JobFilteredOut, 0.1),
	} {
		if _, err := db.UpsertPosting(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	n, err := db.EnqueueApplications(ctx, "default")
	if err != nil || n != 2 {
		t.Fatalf("enqueue: n=%d err=%v", n, err)
	}
	n, err = db.EnqueueApplications(ctx, "default")
	if err != nil || n != 0 {
		t.Fatalf("second enqueue: n=%d err=%v", n, err)
	}

	apps, err := db.ListApplications(ctx, domain.AppQueued, 0)
	if err != nil || len(apps) != 2 {
		t.Fatalf("list: %d %v", len(apps), err)
	}
	if apps[0].JobID != "a" {
		t.Fatalf("best score first, got %s", apps[0].JobID)
	}

	// a second live application for the same job is rejected
	dup := domain.Application{JobID: "a"}
	if err := db.CreateApplication(ctx, &dup); err == nil {
		t.Fatalf("expected unique violation for second live application")
	}
}

func TestApplicationRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	if _, err := db.UpsertPosting(ctx, posting("j", domain.JobQueued, 0.5)); err != nil {
		t.Fatal(err)
	}

	a := domain.Application{JobID: "j", ResumeVariant: "backend"}
	if err := db.CreateApplication(ctx, &a); err != nil {
		t.Fatal(err)
	}
	now := time.Now().UTC().Truncate(time.Second)
	rec := domain.RecommendSkip
	a.Status = domain.AppError
	a.StartedAt = &now
	a.ErrorMessage = "fill: boom"
	a.LLMRecommendation = &rec
	a.AnswersUsed = map[string]string{"why us": "mission"}
	if err := db.UpdateApplication(ctx, &a); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetApplication(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.AppError || got.ErrorMessage != "fill: boom" || got.StartedAt == nil || !got.StartedAt.Equal(now) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.LLMRecommendation == nil || *got.LLMRecommendation != domain.RecommendSkip || got.AnswersUsed["why us"] != "mission" {
		t.Fatalf("advisory/answers lost: %+v", got)
	}

	if _, err := db.GetApplication(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	art := domain.Artifact{ApplicationID: a.ID, Kind: domain.ArtifactScreenshot, Path: "/tmp/x.png"}
	if err := db.SaveArtifact(ctx, &art); err != nil {
		t.Fatal(err)
	}
	arts, err := db.ListArtifacts(ctx, a.ID)
	if err != nil || len(arts) != 1 || arts[0].Kind != domain.ArtifactScreenshot {
		t.Fatalf("artifacts: %+v %v", arts, err)
	}
}

func TestAnswersWriteOnce(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if err := db.PutAnswer(ctx, domain.ATSLever, "Why Acme? *", "mission"); err != nil {
		t.Fatal(err)
	}
	if err := db.PutAnswer(ctx, domain.ATSLever, "why acme", "money"); err != nil {
		t.Fatal(err)
	}
	got, ok, err := db.GetAnswer(ctx, domain.ATSLever, "WHY ACME?")
	if err != nil || !ok || got != "mission" {
		t.Fatalf("get: %q %v %v", got, ok, err)
	}
	if _, ok, _ := db.GetAnswer(ctx, domain.ATSAshby, "why acme"); ok {
		t.Fatalf("answers are scoped by ATS")
	}

	n, err := db.DeleteAnswer(ctx, domain.ATSLever, "why acme")
	if err != nil || n != 1 {
		t.Fatalf("delete: %d %v", n, err)
	}
	if _, ok, _ := db.GetAnswer(ctx, domain.ATSLever, "why acme"); ok {
		t.Fatalf("answer survived delete")
	}
}

func TestRunsAndEmails(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	r, err := db.CreateRun(ctx)
	if err != nil {
		t.Fatal(err)
	}
	r.Status = domain.RunCompleted
	r.Processed, r.Submitted = 2, 1
	if err := db.FinishRun(ctx, r); err != nil {
		t.Fatal(err)
	}
	runs, err := db.ListRuns(ctx, 5)
	if err != nil || len(runs) != 1 || runs[0].Submitted != 1 || runs[0].FinishedAt == nil {
		t.Fatalf("runs: %+v %v", runs, err)
	}

	dg := domain.Digest{MessageID: "<m1@x>", ReceivedAt: time.Now()}
	if seen, _ := db.EmailSeen(ctx, dg.MessageID); seen {
		t.Fatalf("fresh email reported seen")
	}
	if err := db.MarkEmailProcessed(ctx, dg, 3); err != nil {
		t.Fatal(err)
	}
	if seen, _ := db.EmailSeen(ctx, dg.MessageID); !seen {
		t.Fatalf("processed email not seen")
	}

	c, err := db.Counts(ctx)
	if err != nil || c.Emails != 1 {
		t.Fatalf("counts: %+v %v", c, err)
	}
}
