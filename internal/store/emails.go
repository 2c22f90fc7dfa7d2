package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"jobgate-engine/internal/domain"
)

func (d *DB) EmailSeen(ctx context.Context, messageID string) (bool, error) {
	var one int
	err := d.Pool.QueryRowContext(ctx, `SELECT 1 FROM emails WHERE message_id = ?;`, messageID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("email seen: %w", err)
	}
	return true, nil
}

// MarkEmailProcessed records a digest so later fetches skip it.
func (d *DB) MarkEmailProcessed(ctx context.Context, dg domain.Digest, postings int) error {
	_, err := d.Pool.ExecContext(ctx, `
INSERT INTO emails (message_id, subject, sender, received_at, processed_at, postings)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(message_id) DO UPDATE SET processed_at = excluded.processed_at, postings = excluded.postings;`,
		dg.MessageID, dg.Subject, dg.From, fmtTime(dg.ReceivedAt), fmtTime(time.Now()), postings)
	if err != nil {
		return fmt.Errorf("mark email %s: %w", dg.MessageID, err)
	}
	return nil
}
