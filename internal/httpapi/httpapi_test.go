package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"jobgate-engine/internal/config"
	"jobgate-engine/internal/domain"
	"jobgate-engine/internal/events"
	"jobgate-engine/internal/ingest"
	"jobgate-engine/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.DB, *events.Hub) {
	t.Helper()
	db, err := store.OpenAndMigrate(filepath.Join(t.TempDir(), "jobgate.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, p := range []domain.JobPosting{
		{ID: "q1", Title: "Backend Intern", Company: "Acme", URL: "https://jobs.lever.co/acme/1", Score: 0.6, Status: domain.JobQueued},
		{ID: "f1", Title: "Sales", Company: "Globex", URL: "https://jobs.lever.co/globex/2", Score: 0.1, Status: domain.JobFilteredOut},
	} {
		if _, err := db.UpsertPosting(ctx, p); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	if _, err := db.EnqueueApplications(ctx, ""); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	cfg := config.Default()
	cfg.LLM.APIKey = "sk-secret"
	hub := events.NewHub()
	srv := httptest.NewServer(Handler(Deps{
		Store:       db,
		Hub:         hub,
		Config:      cfg,
		UserCfgPath: "config.yml",
		FetchStatus: func() ingest.Status { return ingest.Status{LastAdded: 3} },
	}))
	t.Cleanup(srv.Close)
	return srv, db, hub
}

func getJSON(t *testing.T, url string, want int, into any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		t.Fatalf("GET %s: status %d want %d", url, resp.StatusCode, want)
	}
	if into != nil {
		if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
}

func TestJobsFilterByStatus(t *testing.T) {
	srv, _, _ := newTestServer(t)

	var jobs []jobView
	getJSON(t, srv.URL+"/jobs?status=queued", http.StatusOK, &jobs)
	if len(jobs) != 1 || jobs[0].ID != "q1" {
		t.Fatalf("jobs=%+v", jobs)
	}
	getJSON(t, srv.URL+"/jobs", http.StatusOK, &jobs)
	if len(jobs) != 2 {
		t.Fatalf("all jobs=%d", len(jobs))
	}

	var apiErr APIError
	getJSON(t, srv.URL+"/jobs?status=bogus", http.StatusBadRequest, &apiErr)
	if apiErr.Error.Code != "bad_status" || apiErr.Error.RequestID == "" {
		t.Fatalf("error=%+v", apiErr)
	}
}

func TestApplicationsAndStatus(t *testing.T) {
	srv, _, _ := newTestServer(t)

	var apps []applicationView
	getJSON(t, srv.URL+"/applications?status=queued", http.StatusOK, &apps)
	if len(apps) != 1 || apps[0].JobID != "q1" {
		t.Fatalf("apps=%+v", apps)
	}

	var one applicationView
	getJSON(t, srv.URL+"/applications/"+apps[0].ID, http.StatusOK, &one)
	if one.ID != apps[0].ID || one.Status != "queued" {
		t.Fatalf("application=%+v", one)
	}
	getJSON(t, srv.URL+"/applications/missing", http.StatusNotFound, nil)

	var st statusView
	getJSON(t, srv.URL+"/status", http.StatusOK, &st)
	if st.Counts.Jobs["queued"] != 1 || st.Counts.Applications["queued"] != 1 {
		t.Fatalf("counts=%+v", st.Counts)
	}
	if st.Fetch == nil || st.Fetch.LastAdded != 3 {
		t.Fatalf("fetch=%+v", st.Fetch)
	}
}

func TestReadOnly(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp, err := http.Post(srv.URL+"/jobs", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", resp.StatusCode)
	}
}

func TestConfigHidesAPIKey(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/config")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var b strings.Builder
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		b.WriteString(sc.Text())
	}
	if strings.Contains(b.String(), "sk-secret") {
		t.Fatalf("api key leaked: %s", b.String())
	}
}

func TestEventsStreamsTransitions(t *testing.T) {
	srv, _, hub := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer resp.Body.Close()

	lines := bufio.NewScanner(resp.Body)
	next := func() events.Event {
		for lines.Scan() {
			if data, ok := strings.CutPrefix(lines.Text(), "data: "); ok {
				var e events.Event
				if err := json.Unmarshal([]byte(data), &e); err != nil {
					t.Fatalf("bad event %q: %v", data, err)
				}
				return e
			}
		}
		t.Fatalf("stream ended: %v", lines.Err())
		return events.Event{}
	}

	if e := next(); e.Type != "ping" {
		t.Fatalf("first event=%q want ping", e.Type)
	}
	hub.Emit(events.TypeTransition, events.Transition{ApplicationID: "a1", From: "queued", To: "started"})
	e := next()
	if e.Type != events.TypeTransition {
		t.Fatalf("event=%+v", e)
	}
	var tr events.Transition
	_ = json.Unmarshal(e.Data, &tr)
	if tr.ApplicationID != "a1" || tr.To != "started" {
		t.Fatalf("transition=%+v", tr)
	}
}
