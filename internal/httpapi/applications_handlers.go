package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"jobgate-engine/internal/domain"
	"jobgate-engine/internal/store"
)

type applicationView struct {
	ID                string            `json:"id"`
	JobID             string            `json:"job_id"`
	RunID             string            `json:"run_id,omitempty"`
	Status            string            `json:"status"`
	ResumeVariant     string            `json:"resume_variant,omitempty"`
	StartedAt         *time.Time        `json:"started_at,omitempty"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty"`
	UpdatedAt         time.Time         `json:"updated_at"`
	ErrorMessage      string            `json:"error_message,omitempty"`
	LLMRecommendation string            `json:"llm_recommendation,omitempty"`
	LLMRationale      string            `json:"llm_rationale,omitempty"`
	AnswersUsed       map[string]string `json:"answers_used,omitempty"`
	Artifacts         []artifactView    `json:"artifacts,omitempty"`
}

type artifactView struct {
	Kind      string    `json:"kind"`
	Path      string    `json:"path"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toApplicationView(a domain.Application) applicationView {
	v := applicationView{
		ID: a.ID, JobID: a.JobID, RunID: a.RunID, Status: string(a.Status),
		ResumeVariant: a.ResumeVariant, StartedAt: a.StartedAt, CompletedAt: a.CompletedAt,
		UpdatedAt: a.UpdatedAt, ErrorMessage: a.ErrorMessage, LLMRationale: a.LLMRationale,
		AnswersUsed: a.AnswersUsed,
	}
	if a.LLMRecommendation != nil {
		v.LLMRecommendation = string(*a.LLMRecommendation)
	}
	return v
}

type ApplicationsHandler struct {
	Store Store
}

// List serves GET /applications?status=error.
func (h ApplicationsHandler) List(w http.ResponseWriter, r *http.Request) {
	status := domain.AppStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	apps, err := h.Store.ListApplications(r.Context(), status, queryLimit(r, 500))
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	out := make([]applicationView, 0, len(apps))
	for _, a := range apps {
		out = append(out, toApplicationView(a))
	}
	writeJSON(w, out)
}

// GetByPath serves GET /applications/{id} including its artifacts.
func (h ApplicationsHandler) GetByPath(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/applications/"), "/")
	if id == "" {
		WriteError(w, r, http.StatusBadRequest, "bad_id", "missing application id")
		return
	}
	app, err := h.Store.GetApplication(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, http.StatusNotFound, "not_found", "no application "+id)
		return
	}
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	v := toApplicationView(app)
	arts, err := h.Store.ListArtifacts(r.Context(), id)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	for _, a := range arts {
		v.Artifacts = append(v.Artifacts, artifactView{Kind: string(a.Kind), Path: a.Path, Label: a.Label, CreatedAt: a.CreatedAt})
	}
	writeJSON(w, v)
}
