package store

import (
	"context"
	"fmt"
	"time"

	"jobgate-engine/internal/domain"

	"github.com/google/uuid"
)

// SaveArtifact records an artifact file that has already been written.
func (d *DB) SaveArtifact(ctx context.Context, a *domain.Artifact) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := d.Pool.ExecContext(ctx, `
INSERT INTO artifacts (id, application_id, kind, path, label, created_at)
VALUES (?, ?, ?, ?, ?, ?);`,
		a.ID, a.ApplicationID, string(a.Kind), a.Path, a.Label, fmtTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	return nil
}

func (d *DB) ListArtifacts(ctx context.Context, applicationID string) ([]domain.Artifact, error) {
	rows, err := d.Pool.QueryContext(ctx, `
SELECT id, application_id, kind, path, label, created_at
FROM artifacts WHERE application_id = ? ORDER BY created_at ASC;`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var out []domain.Artifact
	for rows.Next() {
		var a domain.Artifact
		var kind, created string
		if err := rows.Scan(&a.ID, &a.ApplicationID, &kind, &a.Path, &a.Label, &created); err != nil {
			return nil, err
		}
		a.Kind = domain.ArtifactKind(kind)
		a.CreatedAt = parseTime(created)
		out = append(out, a)
	}
	return out, rows.Err()
}
