package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"jobgate-engine/internal/domain"

	"github.com/google/uuid"
)

func (d *DB) CreateRun(ctx context.Context) (domain.Run, error) {
	r := domain.Run{ID: uuid.NewString(), StartedAt: time.Now().UTC(), Status: domain.RunRunning}
	_, err := d.Pool.ExecContext(ctx, `
INSERT INTO application_runs (id, started_at, status) VALUES (?, ?, ?);`,
		r.ID, fmtTime(r.StartedAt), string(r.Status))
	if err != nil {
		return r, fmt.Errorf("create run: %w", err)
	}
	return r, nil
}

func (d *DB) FinishRun(ctx context.Context, r domain.Run) error {
	if r.FinishedAt == nil {
		now := time.Now().UTC()
		r.FinishedAt = &now
	}
	_, err := d.Pool.ExecContext(ctx, `
UPDATE application_runs
SET finished_at = ?, status = ?, processed = ?, submitted = ?, skipped = ?, errored = ?
WHERE id = ?;`,
		fmtTimePtr(r.FinishedAt), string(r.Status), r.Processed, r.Submitted, r.Skipped, r.Errored, r.ID)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", r.ID, err)
	}
	return nil
}

func (d *DB) ListRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.Pool.QueryContext(ctx, `
SELECT id, started_at, finished_at, status, processed, submitted, skipped, errored
FROM application_runs ORDER BY started_at DESC LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []domain.Run
	for rows.Next() {
		var r domain.Run
		var started, status string
		var finished sql.NullString
		if err := rows.Scan(&r.ID, &started, &finished, &status, &r.Processed, &r.Submitted, &r.Skipped, &r.Errored); err != nil {
			return nil, err
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTimePtr(finished)
		r.Status = domain.RunStatus(status)
		out = append(out, r)
	}
	return out, rows.Err()
}
