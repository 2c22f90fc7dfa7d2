package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"jobgate-engine/internal/domain"
)

// UpsertPosting inserts a scored posting or refreshes an existing row.
// Re-ingestion never creates a second row, keeps discovered_at, fills
// fields that were empty, refreshes posted_at, and only re-dispositions
// rows still in "discovered".
func (d *DB) UpsertPosting(ctx context.Context, p domain.JobPosting) (inserted bool, err error) {
	if p.ID == "" {
		return false, fmt.Errorf("upsert posting: empty id for %q", p.URL)
	}
	if p.DiscoveredAt.IsZero() {
		p.DiscoveredAt = time.Now().UTC()
	}
	if p.ATSType == "" {
		p.ATSType = domain.ATSUnknown
	}
	if p.Status == "" {
		p.Status = domain.JobDiscovered
	}

	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("upsert posting: begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM jobs WHERE id = ?;`, p.ID).Scan(&exists)
	switch {
	case err == sql.ErrNoRows:
		inserted = true
	case err != nil:
		return false, fmt.Errorf("upsert posting: lookup: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO jobs (id, title, company, url, location, ats_type, ats_hint, posted_at, discovered_at, score, fit_reason, status, source_email)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  title      = CASE WHEN jobs.title = '' THEN excluded.title ELSE jobs.title END,
  company    = CASE WHEN jobs.company = '' THEN excluded.company ELSE jobs.company END,
  location   = CASE WHEN jobs.location = '' THEN excluded.location ELSE jobs.location END,
  ats_hint   = CASE WHEN jobs.ats_hint = '' THEN excluded.ats_hint ELSE jobs.ats_hint END,
  posted_at  = COALESCE(excluded.posted_at, jobs.posted_at),
  score      = CASE WHEN jobs.status = 'discovered' THEN excluded.score ELSE jobs.score END,
  fit_reason = CASE WHEN jobs.status = 'discovered' THEN excluded.fit_reason ELSE jobs.fit_reason END,
  status     = CASE WHEN jobs.status = 'discovered' THEN excluded.status ELSE jobs.status END;`,
		p.ID, p.Title, p.Company, p.URL, p.Location, string(p.ATSType), p.ATSHint,
		fmtTimePtr(p.PostedAt), fmtTime(p.DiscoveredAt), p.Score, p.FitReason, string(p.Status), p.SourceEmail,
	)
	if err != nil {
		return false, fmt.Errorf("upsert posting %s: %w", p.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("upsert posting: commit: %w", err)
	}
	committed = true
	return inserted, nil
}

const postingCols = `id, title, company, url, location, ats_type, ats_hint, posted_at, discovered_at, score, fit_reason, status, source_email`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosting(r rowScanner) (domain.JobPosting, error) {
	var p domain.JobPosting
	var ats, status, discovered string
	var posted sql.NullString
	if err := r.Scan(&p.ID, &p.Title, &p.Company, &p.URL, &p.Location, &ats, &p.ATSHint,
		&posted, &discovered, &p.Score, &p.FitReason, &status, &p.SourceEmail); err != nil {
		return p, err
	}
	p.ATSType = domain.ParseATSType(ats)
	p.Status = domain.JobStatus(status)
	p.PostedAt = parseTimePtr(posted)
	p.DiscoveredAt = parseTime(discovered)
	return p, nil
}

func (d *DB) GetPosting(ctx context.Context, id string) (domain.JobPosting, error) {
	row := d.Pool.QueryRowContext(ctx, `SELECT `+postingCols+` FROM jobs WHERE id = ?;`, id)
	p, err := scanPosting(row)
	if err != nil {
		return p, fmt.Errorf("get posting %s: %w", id, notFound(err))
	}
	return p, nil
}

// PostingExists reports whether a posting id is already stored.
func (d *DB) PostingExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := d.Pool.QueryRowContext(ctx, `SELECT 1 FROM jobs WHERE id = ?;`, id).Scan(&one)
	switch {
	case err == sql.ErrNoRows:
		return false, nil
	case err != nil:
		return false, fmt.Errorf("posting exists %s: %w", id, err)
	}
	return true, nil
}

// ListPostings returns postings with the given status (all when empty),
// best score first. limit <= 0 means no limit.
func (d *DB) ListPostings(ctx context.Context, status domain.JobStatus, limit int) ([]domain.JobPosting, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.Pool.QueryContext(ctx, `
SELECT `+postingCols+`
FROM jobs
WHERE (? = '' OR status = ?)
ORDER BY score DESC, discovered_at ASC
LIMIT ?;`, string(status), string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}
	defer rows.Close()

	var out []domain.JobPosting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SetPostingStatus is used by the queue command to re-disposition rows by hand.
func (d *DB) SetPostingStatus(ctx context.Context, id string, status domain.JobStatus) error {
	res, err := d.Pool.ExecContext(ctx, `UPDATE jobs SET status = ? WHERE id = ?;`, string(status), id)
	if err != nil {
		return fmt.Errorf("set posting status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set posting status %s: %w", id, ErrNotFound)
	}
	return nil
}
