package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"jobgate-engine/internal/domain"

	"github.com/google/uuid"
)

const applicationCols = `a.id, a.job_id, a.run_id, a.status, a.resume_variant, a.started_at, a.completed_at,
  a.updated_at, a.error_message, a.llm_recommendation, a.llm_rationale, a.answers_used`

func scanApplication(r rowScanner) (domain.Application, error) {
	var a domain.Application
	var status, updated, answers string
	var started, completed, rec sql.NullString
	if err := r.Scan(&a.ID, &a.JobID, &a.RunID, &status, &a.ResumeVariant, &started, &completed,
		&updated, &a.ErrorMessage, &rec, &a.LLMRationale, &answers); err != nil {
		return a, err
	}
	a.Status = domain.AppStatus(status)
	a.StartedAt = parseTimePtr(started)
	a.CompletedAt = parseTimePtr(completed)
	a.UpdatedAt = parseTime(updated)
	if rec.Valid {
		if v, err := domain.ParseRecommendation(rec.String); err == nil {
			a.LLMRecommendation = &v
		}
	}
	_ = json.Unmarshal([]byte(answers), &a.AnswersUsed)
	return a, nil
}

// EnqueueApplications creates a queued application for every queued
// posting that has never had one. Re-attempts go through reset instead.
func (d *DB) EnqueueApplications(ctx context.Context, resumeVariant string) (int, error) {
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("enqueue: begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx, `
SELECT j.id FROM jobs j
WHERE j.status = 'queued'
  AND NOT EXISTS (SELECT 1 FROM applications a WHERE a.job_id = j.id)
ORDER BY j.score DESC, j.discovered_at ASC;`)
	if err != nil {
		return 0, fmt.Errorf("enqueue: select: %w", err)
	}
	var jobIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		jobIDs = append(jobIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	now := fmtTime(time.Now())
	for _, jid := range jobIDs {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO applications (id, job_id, status, resume_variant, updated_at)
VALUES (?, ?, 'queued', ?, ?);`, uuid.NewString(), jid, resumeVariant, now); err != nil {
			return 0, fmt.Errorf("enqueue %s: %w", jid, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("enqueue: commit: %w", err)
	}
	committed = true
	return len(jobIDs), nil
}

// CreateApplication inserts a. The live-application unique index rejects a
// second non-terminal application for the same job.
func (d *DB) CreateApplication(ctx context.Context, a *domain.Application) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = domain.AppQueued
	}
	a.UpdatedAt = time.Now().UTC()
	answers, _ := json.Marshal(orEmpty(a.AnswersUsed))
	_, err := d.Pool.ExecContext(ctx, `
INSERT INTO applications (id, job_id, run_id, status, resume_variant, started_at, completed_at, updated_at, error_message, llm_recommendation, llm_rationale, answers_used)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		a.ID, a.JobID, a.RunID, string(a.Status), a.ResumeVariant, fmtTimePtr(a.StartedAt), fmtTimePtr(a.CompletedAt),
		fmtTime(a.UpdatedAt), a.ErrorMessage, recValue(a.LLMRecommendation), a.LLMRationale, string(answers))
	if err != nil {
		return fmt.Errorf("create application for job %s: %w", a.JobID, err)
	}
	return nil
}

func (d *DB) GetApplication(ctx context.Context, id string) (domain.Application, error) {
	row := d.Pool.QueryRowContext(ctx, `SELECT `+applicationCols+` FROM applications a WHERE a.id = ?;`, id)
	a, err := scanApplication(row)
	if err != nil {
		return a, fmt.Errorf("get application %s: %w", id, notFound(err))
	}
	return a, nil
}

// UpdateApplication writes every mutable column of a by id.
func (d *DB) UpdateApplication(ctx context.Context, a *domain.Application) error {
	a.UpdatedAt = time.Now().UTC()
	answers, _ := json.Marshal(orEmpty(a.AnswersUsed))
	res, err := d.Pool.ExecContext(ctx, `
UPDATE applications SET
  run_id = ?, status = ?, resume_variant = ?, started_at = ?, completed_at = ?, updated_at = ?,
  error_message = ?, llm_recommendation = ?, llm_rationale = ?, answers_used = ?
WHERE id = ?;`,
		a.RunID, string(a.Status), a.ResumeVariant, fmtTimePtr(a.StartedAt), fmtTimePtr(a.CompletedAt), fmtTime(a.UpdatedAt),
		a.ErrorMessage, recValue(a.LLMRecommendation), a.LLMRationale, string(answers), a.ID)
	if err != nil {
		return fmt.Errorf("update application %s: %w", a.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update application %s: %w", a.ID, ErrNotFound)
	}
	return nil
}

// ListApplications returns applications in status (all when empty) in the
// order the coordinator should process them: best posting score first.
func (d *DB) ListApplications(ctx context.Context, status domain.AppStatus, limit int) ([]domain.Application, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.Pool.QueryContext(ctx, `
SELECT `+applicationCols+`
FROM applications a
JOIN jobs j ON j.id = a.job_id
WHERE (? = '' OR a.status = ?)
ORDER BY j.score DESC, a.rowid ASC
LIMIT ?;`, string(status), string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []domain.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func recValue(r *domain.Recommendation) any {
	if r == nil {
		return nil
	}
	return string(*r)
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
