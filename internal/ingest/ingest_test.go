package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"jobgate-engine/internal/config"
	"jobgate-engine/internal/domain"
	"jobgate-engine/internal/rank"
	"jobgate-engine/internal/store"
)

const acmeDigest = `<html><body>
<table>
  <tr>
    <td><strong>Acme</strong></td>
    <td><a href="https://boards.greenhouse.io/acme/jobs/123?utm_source=digest">Software Engineer Intern</a></td>
    <td>Remote · Posted 5 days ago</td>
  </tr>
  <tr>
    <td><strong>Globex</strong></td>
    <td><a href="https://jobs.lever.co/globex/42">Account Executive</a></td>
    <td>Springfield, IL</td>
  </tr>
</table>
</body></html>`

func newPipeline(t *testing.T, clock *time.Time) (*Pipeline, *store.DB) {
	t.Helper()
	db, err := store.OpenAndMigrate(filepath.Join(t.TempDir(), "jobgate.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	cfg := config.Default()
	return &Pipeline{
		Store:     db,
		Scorer:    rank.RulesScorer{Rules: rank.RulesFromConfig(cfg)},
		Threshold: cfg.Filter.MinScore,
		Now:       func() time.Time { return *clock },
	}, db
}

func TestIngestQueuesMatchingPosting(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	p, db := newPipeline(t, &clock)

	res, err := p.Ingest(ctx, []domain.Digest{{MessageID: "m1", HTML: acmeDigest, ReceivedAt: clock}})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Inserted != 2 || res.Queued != 1 || res.Filtered != 1 || res.Enqueued != 1 {
		t.Fatalf("result=%s", res)
	}

	queued, err := db.ListPostings(ctx, domain.JobQueued, 0)
	if err != nil || len(queued) != 1 {
		t.Fatalf("queued=%v err=%v", queued, err)
	}
	job := queued[0]
	if job.Company != "Acme" || job.ATSType != domain.ATSGreenhouse || job.Score < 0.30 {
		t.Fatalf("job=%+v", job)
	}
	apps, _ := db.ListApplications(ctx, domain.AppQueued, 0)
	if len(apps) != 1 || apps[0].JobID != job.ID {
		t.Fatalf("applications=%+v", apps)
	}
	if seen, _ := db.EmailSeen(ctx, "m1"); !seen {
		t.Fatalf("digest not marked processed")
	}
}

func TestIngestTwiceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	p, db := newPipeline(t, &clock)
	dg := domain.Digest{MessageID: "m1", HTML: acmeDigest, ReceivedAt: clock}

	if _, err := p.Ingest(ctx, []domain.Digest{dg}); err != nil {
		t.Fatalf("first: %v", err)
	}
	before, _ := db.ListPostings(ctx, "", 0)

	clock = clock.Add(24 * time.Hour)
	res, err := p.Ingest(ctx, []domain.Digest{dg})
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if res.Inserted != 0 || res.Updated != 2 || res.Enqueued != 0 {
		t.Fatalf("second result=%s", res)
	}

	after, _ := db.ListPostings(ctx, "", 0)
	if len(after) != len(before) {
		t.Fatalf("rows %d -> %d", len(before), len(after))
	}
	first := map[string]domain.JobPosting{}
	for _, j := range before {
		first[j.ID] = j
	}
	for _, j := range after {
		if !j.DiscoveredAt.Equal(first[j.ID].DiscoveredAt) {
			t.Fatalf("discovered_at moved for %s: %v -> %v", j.ID, first[j.ID].DiscoveredAt, j.DiscoveredAt)
		}
	}
	apps, _ := db.ListApplications(ctx, "", 0)
	if len(apps) != 1 {
		t.Fatalf("applications=%d want 1", len(apps))
	}
}

func TestIngestManyDigestsInParallel(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	p, db := newPipeline(t, &clock)
	p.Parallel = 2

	var digests []domain.Digest
	for _, id := range []string{"m1", "m2", "m3", "m4", "m5"} {
		digests = append(digests, domain.Digest{MessageID: id, HTML: acmeDigest, ReceivedAt: clock})
	}
	digests = append(digests, domain.Digest{MessageID: "junk", HTML: "<<<not html"})

	res, err := p.Ingest(ctx, digests)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Inserted != 2 {
		t.Fatalf("inserted=%d want 2", res.Inserted)
	}
	all, _ := db.ListPostings(ctx, "", 0)
	if len(all) != 2 {
		t.Fatalf("rows=%d want 2", len(all))
	}
}

type stubSource struct {
	digests []domain.Digest
	err     error
}

func (s stubSource) FetchNewDigests(ctx context.Context) ([]domain.Digest, error) {
	return s.digests, s.err
}

func TestTrackerRecordsOutcome(t *testing.T) {
	clock := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	p, _ := newPipeline(t, &clock)

	tr := &Tracker{Pipeline: p, Source: stubSource{digests: []domain.Digest{{MessageID: "m1", HTML: acmeDigest}}}}
	if err := tr.Poll(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}
	st := tr.Status()
	if st.Running || st.LastAdded != 2 || st.LastOkAt == "" || st.LastError != "" {
		t.Fatalf("status=%+v", st)
	}

	tr.Source = stubSource{err: errors.New("imap down")}
	if err := tr.Poll(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if st := tr.Status(); st.LastError == "" {
		t.Fatalf("error not recorded: %+v", st)
	}
}

type stubListings struct {
	drafts []domain.JobPosting
	err    error
}

func (stubListings) Name() string { return "stub" }
func (s stubListings) FetchPostings(ctx context.Context) ([]domain.JobPosting, error) {
	return s.drafts, s.err
}

func listingDrafts() []domain.JobPosting {
	return []domain.JobPosting{
		{Title: "Backend Intern", Company: "Acme", URL: "https://jobs.lever.co/acme/42?lever-source=readme", ATSType: domain.ATSLever},
		{Title: "Backend Intern", Company: "Acme", URL: "https://jobs.lever.co/acme/42"},
		{Title: "Sales Associate", Company: "Initech", URL: "https://jobs.ashbyhq.com/initech/7", ATSType: domain.ATSAshby},
	}
}

func TestListingsShareTheDigestPath(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	p, db := newPipeline(t, &clock)

	res, err := p.FetchListings(ctx, stubListings{drafts: listingDrafts()})
	if err != nil {
		t.Fatalf("listings: %v", err)
	}
	if res.Listings != 3 || res.Inserted != 2 || res.Queued != 1 || res.Filtered != 1 || res.Enqueued != 1 {
		t.Fatalf("result=%s", res)
	}

	// the same posting arriving by email afterwards is an update, not a new row
	dg := domain.Digest{MessageID: "m1", ReceivedAt: clock,
		HTML: `<table><tr><td><strong>Acme</strong></td><td><a href="https://jobs.lever.co/acme/42">Backend Intern</a></td></tr></table>`}
	res, err = p.Ingest(ctx, []domain.Digest{dg})
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	if res.Inserted != 0 || res.Updated != 1 || res.Enqueued != 0 {
		t.Fatalf("digest result=%s", res)
	}
	all, _ := db.ListPostings(ctx, "", 0)
	if len(all) != 2 {
		t.Fatalf("rows=%d want 2", len(all))
	}
}

func TestDryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	p, db := newPipeline(t, &clock)

	// one posting is already known
	if _, err := p.IngestListings(ctx, "seed", listingDrafts()[:1]); err != nil {
		t.Fatal(err)
	}

	p.DryRun = true
	res, err := p.FetchAll(ctx,
		stubSource{digests: []domain.Digest{{MessageID: "m9", HTML: acmeDigest, ReceivedAt: clock}}},
		stubListings{drafts: listingDrafts()})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	// two digest postings and the ashby listing are new; acme/42 is known
	if res.Inserted != 3 || res.Updated != 1 || res.Enqueued != 0 {
		t.Fatalf("result=%s", res)
	}
	if len(res.Preview) != 3 {
		t.Fatalf("preview=%d want 3", len(res.Preview))
	}
	for _, j := range res.Preview {
		if j.ID == "" || j.Status == "" {
			t.Fatalf("preview posting not scored: %+v", j)
		}
	}

	all, _ := db.ListPostings(ctx, "", 0)
	if len(all) != 1 {
		t.Fatalf("rows=%d want 1", len(all))
	}
	if seen, _ := db.EmailSeen(ctx, "m9"); seen {
		t.Fatal("dry run marked a digest processed")
	}
	apps, _ := db.ListApplications(ctx, "", 0)
	if len(apps) != 1 {
		t.Fatalf("applications=%d want 1", len(apps))
	}
}

func TestTrackerPollsListings(t *testing.T) {
	clock := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	p, _ := newPipeline(t, &clock)

	tr := &Tracker{Pipeline: p, Listings: []ListingSource{stubListings{drafts: listingDrafts()}}}
	if err := tr.Poll(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if st := tr.Status(); st.LastAdded != 2 {
		t.Fatalf("status=%+v", st)
	}

	tr.Listings = []ListingSource{stubListings{err: errors.New("github down")}}
	if err := tr.Poll(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
