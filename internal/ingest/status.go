package ingest

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

// Status describes the most recent fetch, for watch mode and the status API.
type Status struct {
	Running   bool   `json:"running"`
	LastRunAt string `json:"last_run_at,omitempty"`
	LastOkAt  string `json:"last_ok_at,omitempty"`
	LastError string `json:"last_error,omitempty"`
	LastAdded int    `json:"last_added"`
}

// Tracker wraps a Pipeline and its sources and records the outcome of
// every fetch. Source may be nil when only listing sources are polled.
type Tracker struct {
	Pipeline *Pipeline
	Source   Source
	Listings []ListingSource

	status atomic.Value
}

func (t *Tracker) Status() Status {
	if v, ok := t.status.Load().(Status); ok {
		return v
	}
	return Status{}
}

// Poll runs one fetch and updates Status. Its signature fits scheduler.Task.
func (t *Tracker) Poll(ctx context.Context) error {
	st := t.Status()
	st.Running = true
	st.LastRunAt = time.Now().Format(time.RFC3339)
	t.status.Store(st)

	res, err := t.Pipeline.FetchAll(ctx, t.Source, t.Listings...)

	st = t.Status()
	st.Running = false
	st.LastAdded = res.Inserted
	if err != nil {
		st.LastError = err.Error()
		log.Printf("[poll] error: %v", err)
	} else {
		st.LastError = ""
		st.LastOkAt = time.Now().Format(time.RFC3339)
		log.Printf("[poll] ok added=%d enqueued=%d", res.Inserted, res.Enqueued)
	}
	t.status.Store(st)
	return err
}
