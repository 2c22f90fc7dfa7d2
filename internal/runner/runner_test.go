package runner

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"jobgate-engine/internal/domain"
	"jobgate-engine/internal/store"

	"github.com/gofrs/flock"
)

// scripted ends each application in the status listed for its job id.
type scripted struct {
	db      *store.DB
	outcome map[string]domain.AppStatus
	panics  map[string]bool
	// stuck leaves the application in this status and returns an error
	// without saving, as a machine that failed mid-run would.
	stuck map[string]domain.AppStatus
	seen  []string
	// after is called once the nth application finishes.
	after func(n int)
}

func (s *scripted) Run(ctx context.Context, app *domain.Application) error {
	s.seen = append(s.seen, app.JobID)
	if s.panics[app.JobID] {
		app.Status = domain.AppStarted
		panic("adapter bug")
	}
	if st, ok := s.stuck[app.JobID]; ok {
		app.Status = st
		return errors.New("load posting: not found")
	}
	app.Status = s.outcome[app.JobID]
	err := s.db.UpdateApplication(ctx, app)
	if s.after != nil {
		s.after(len(s.seen))
	}
	if app.Status == domain.AppError {
		return errors.New("fill failed")
	}
	return err
}

func seed(t *testing.T, scores map[string]float64) *store.DB {
	t.Helper()
	ctx := context.Background()
	db, err := store.OpenAndMigrate(filepath.Join(t.TempDir(), "jobgate.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	for id, score := range scores {
		_, err := db.UpsertPosting(ctx, domain.JobPosting{
			ID: id, Title: "Intern " + id, Company: "Acme",
			URL:    "https://jobs.lever.co/acme/" + id,
			Score:  score,
			Status: domain.JobQueued,
		})
		if err != nil {
			t.Fatalf("upsert %s: %v", id, err)
		}
	}
	if _, err := db.EnqueueApplications(ctx, ""); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	return db
}

func TestRunIsolatesFailuresAndCounts(t *testing.T) {
	ctx := context.Background()
	db := seed(t, map[string]float64{"a": 0.9, "b": 0.8, "c": 0.7, "d": 0.6})
	m := &scripted{db: db, outcome: map[string]domain.AppStatus{
		"a": domain.AppError, "b": domain.AppSubmitted, "c": domain.AppSkipped,
	}, panics: map[string]bool{"d": true}}

	c := &Coordinator{Store: db, Machine: m, LockDir: t.TempDir()}
	sum, err := c.Run(ctx, 0)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := len(m.seen); got != 4 {
		t.Fatalf("processed %d, want 4 (seen=%v)", got, m.seen)
	}
	if m.seen[0] != "a" || m.seen[3] != "d" {
		t.Fatalf("order=%v want score order", m.seen)
	}
	if sum.Processed != 4 || sum.Submitted != 1 || sum.Skipped != 1 || sum.Errored != 2 {
		t.Fatalf("summary=%+v", sum)
	}

	runs, err := db.ListRuns(ctx, 1)
	if err != nil || len(runs) != 1 {
		t.Fatalf("runs=%v err=%v", runs, err)
	}
	if runs[0].Status != domain.RunCompleted || runs[0].Submitted != 1 || runs[0].FinishedAt == nil {
		t.Fatalf("run record=%+v", runs[0])
	}
}

func TestRunSettlesUnfinishedApplications(t *testing.T) {
	ctx := context.Background()
	db := seed(t, map[string]float64{"a": 0.9, "b": 0.8, "c": 0.7})
	m := &scripted{db: db,
		outcome: map[string]domain.AppStatus{"c": domain.AppSkipped},
		panics:  map[string]bool{"a": true},
		stuck:   map[string]domain.AppStatus{"b": domain.AppQueued},
	}
	c := &Coordinator{Store: db, Machine: m}
	sum, err := c.Run(ctx, 0)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Errored != 2 || sum.Skipped != 1 {
		t.Fatalf("summary=%+v", sum)
	}

	apps, _ := db.ListApplications(ctx, "", 0)
	for _, app := range apps {
		switch app.JobID {
		case "a", "b":
			if app.Status != domain.AppError || app.ErrorMessage == "" || app.CompletedAt == nil {
				t.Fatalf("%s: %+v, want error with message", app.JobID, app)
			}
		case "c":
			if app.Status != domain.AppSkipped {
				t.Fatalf("c: %s", app.Status)
			}
		}
	}
	if left, _ := db.ListApplications(ctx, domain.AppStarted, 0); len(left) != 0 {
		t.Fatalf("applications left started: %+v", left)
	}
}

func TestRunHonoursLimit(t *testing.T) {
	db := seed(t, map[string]float64{"a": 0.9, "b": 0.8, "c": 0.7})
	m := &scripted{db: db, outcome: map[string]domain.AppStatus{
		"a": domain.AppSkipped, "b": domain.AppSkipped, "c": domain.AppSkipped,
	}}
	c := &Coordinator{Store: db, Machine: m}
	sum, err := c.Run(context.Background(), 2)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Processed != 2 || len(m.seen) != 2 {
		t.Fatalf("processed=%d seen=%v", sum.Processed, m.seen)
	}
	left, _ := db.ListApplications(context.Background(), domain.AppQueued, 0)
	if len(left) != 1 || left[0].JobID == "a" {
		t.Fatalf("left queued=%v", left)
	}
}

func TestRunStopsBetweenApplicationsOnAbort(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db := seed(t, map[string]float64{"a": 0.9, "b": 0.8, "c": 0.7})
	m := &scripted{db: db, outcome: map[string]domain.AppStatus{
		"a": domain.AppSubmitted, "b": domain.AppSubmitted, "c": domain.AppSubmitted,
	}}
	m.after = func(n int) {
		if n == 1 {
			cancel()
		}
	}

	c := &Coordinator{Store: db, Machine: m}
	sum, err := c.Run(ctx, 0)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !sum.Interrupted || sum.Processed != 1 {
		t.Fatalf("summary=%+v", sum)
	}
	left, _ := db.ListApplications(context.Background(), domain.AppQueued, 0)
	if len(left) != 2 {
		t.Fatalf("queued after abort=%d want 2", len(left))
	}
	runs, _ := db.ListRuns(context.Background(), 1)
	if len(runs) != 1 || runs[0].Status != domain.RunInterrupted {
		t.Fatalf("run record=%+v", runs)
	}
}

func TestRunRefusesConcurrentRun(t *testing.T) {
	dir := t.TempDir()
	held := flock.New(filepath.Join(dir, "run.lock"))
	if ok, err := held.TryLock(); err != nil || !ok {
		t.Fatalf("pre-lock: ok=%v err=%v", ok, err)
	}
	defer held.Unlock()

	db := seed(t, map[string]float64{"a": 0.9})
	c := &Coordinator{Store: db, Machine: &scripted{db: db}, LockDir: dir}
	if _, err := c.Run(context.Background(), 0); !errors.Is(err, ErrBusy) {
		t.Fatalf("err=%v want ErrBusy", err)
	}
}
