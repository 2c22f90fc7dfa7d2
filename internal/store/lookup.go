package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"jobgate-engine/internal/domain"
)

// ErrAmbiguous is returned when an id prefix matches more than one row.
var ErrAmbiguous = errors.New("store: ambiguous id prefix")

func cleanPrefix(prefix string) (string, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return "", fmt.Errorf("empty id prefix: %w", ErrNotFound)
	}
	return prefix, nil
}

// PostingByPrefix resolves a (possibly shortened) posting id.
func (d *DB) PostingByPrefix(ctx context.Context, prefix string) (domain.JobPosting, error) {
	prefix, err := cleanPrefix(prefix)
	if err != nil {
		return domain.JobPosting{}, err
	}
	rows, err := d.Pool.QueryContext(ctx, `
SELECT `+postingCols+`
FROM jobs
WHERE substr(id, 1, length(?)) = ?
LIMIT 2;`, prefix, prefix)
	if err != nil {
		return domain.JobPosting{}, fmt.Errorf("posting by prefix: %w", err)
	}
	defer rows.Close()

	var found []domain.JobPosting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return domain.JobPosting{}, err
		}
		found = append(found, p)
	}
	if err := rows.Err(); err != nil {
		return domain.JobPosting{}, err
	}
	switch len(found) {
	case 0:
		return domain.JobPosting{}, fmt.Errorf("posting %s: %w", prefix, ErrNotFound)
	case 1:
		return found[0], nil
	}
	return domain.JobPosting{}, fmt.Errorf("posting %s: %w", prefix, ErrAmbiguous)
}

// ApplicationByPrefix resolves a (possibly shortened) application id.
func (d *DB) ApplicationByPrefix(ctx context.Context, prefix string) (domain.Application, error) {
	prefix, err := cleanPrefix(prefix)
	if err != nil {
		return domain.Application{}, err
	}
	return d.oneApplication(ctx, "application "+prefix, `
SELECT `+applicationCols+`
FROM applications a
WHERE substr(a.id, 1, length(?)) = ?
LIMIT 2;`, prefix, prefix)
}

// LatestApplicationForJob returns the most recently touched application
// of a posting.
func (d *DB) LatestApplicationForJob(ctx context.Context, jobID string) (domain.Application, error) {
	row := d.Pool.QueryRowContext(ctx, `
SELECT `+applicationCols+`
FROM applications a
WHERE a.job_id = ?
ORDER BY a.updated_at DESC
LIMIT 1;`, jobID)
	a, err := scanApplication(row)
	if err != nil {
		return a, fmt.Errorf("application for job %s: %w", jobID, notFound(err))
	}
	return a, nil
}

func (d *DB) oneApplication(ctx context.Context, what, query string, args ...any) (domain.Application, error) {
	rows, err := d.Pool.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.Application{}, fmt.Errorf("%s: %w", what, err)
	}
	defer rows.Close()

	var found []domain.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return domain.Application{}, err
		}
		found = append(found, a)
	}
	if err := rows.Err(); err != nil {
		return domain.Application{}, err
	}
	switch len(found) {
	case 0:
		return domain.Application{}, fmt.Errorf("%s: %w", what, ErrNotFound)
	case 1:
		return found[0], nil
	}
	return domain.Application{}, fmt.Errorf("%s: %w", what, ErrAmbiguous)
}
