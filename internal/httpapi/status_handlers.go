package httpapi

import (
	"net/http"

	"jobgate-engine/internal/ingest"
	"jobgate-engine/internal/store"
)

type statusView struct {
	Counts store.StatusCounts `json:"counts"`
	Fetch  *ingest.Status     `json:"fetch,omitempty"`
	Runs   []runView          `json:"recent_runs"`
}

type runView struct {
	ID         string `json:"id"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
	Status     string `json:"status"`
	Processed  int    `json:"processed"`
	Submitted  int    `json:"submitted"`
	Skipped    int    `json:"skipped"`
	Errored    int    `json:"errored"`
}

type StatusHandler struct {
	Store       Store
	FetchStatus func() ingest.Status
}

// Status serves GET /status: counts by status, the last fetch and recent runs.
func (h StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Store.Counts(r.Context())
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	runs, err := h.Store.ListRuns(r.Context(), queryLimit(r, 10))
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}

	out := statusView{Counts: counts, Runs: []runView{}}
	if h.FetchStatus != nil {
		st := h.FetchStatus()
		out.Fetch = &st
	}
	for _, run := range runs {
		v := runView{
			ID: run.ID, StartedAt: run.StartedAt.Format(timeLayout), Status: string(run.Status),
			Processed: run.Processed, Submitted: run.Submitted, Skipped: run.Skipped, Errored: run.Errored,
		}
		if run.FinishedAt != nil {
			v.FinishedAt = run.FinishedAt.Format(timeLayout)
		}
		out.Runs = append(out.Runs, v)
	}
	writeJSON(w, out)
}

const timeLayout = "2006-01-02T15:04:05Z07:00"
