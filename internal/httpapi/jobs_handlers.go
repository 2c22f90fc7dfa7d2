package httpapi

import (
	"net/http"
	"strings"
	"time"

	"jobgate-engine/internal/domain"
)

type jobView struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Company      string     `json:"company"`
	URL          string     `json:"url"`
	Location     string     `json:"location,omitempty"`
	ATSType      string     `json:"ats_type"`
	ATSHint      string     `json:"ats_hint,omitempty"`
	PostedAt     *time.Time `json:"posted_at,omitempty"`
	DiscoveredAt time.Time  `json:"discovered_at"`
	Score        float64    `json:"score"`
	FitReason    string     `json:"fit_reason,omitempty"`
	Status       string     `json:"status"`
}

func toJobView(j domain.JobPosting) jobView {
	return jobView{
		ID: j.ID, Title: j.Title, Company: j.Company, URL: j.URL, Location: j.Location,
		ATSType: string(j.ATSType), ATSHint: j.ATSHint, PostedAt: j.PostedAt,
		DiscoveredAt: j.DiscoveredAt, Score: j.Score, FitReason: j.FitReason, Status: string(j.Status),
	}
}

type JobsHandler struct {
	Store Store
}

// List serves GET /jobs?status=queued&limit=100.
func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	status := domain.JobStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	switch status {
	case "", domain.JobDiscovered, domain.JobQueued, domain.JobFilteredOut:
	default:
		WriteError(w, r, http.StatusBadRequest, "bad_status", "unknown job status "+string(status))
		return
	}
	jobs, err := h.Store.ListPostings(r.Context(), status, queryLimit(r, 500))
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	out := make([]jobView, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobView(j))
	}
	writeJSON(w, out)
}
