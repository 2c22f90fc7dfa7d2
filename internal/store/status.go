package store

import (
	"context"
	"fmt"
)

type StatusCounts struct {
	Jobs         map[string]int `json:"jobs"`
	Applications map[string]int `json:"applications"`
	Answers      int            `json:"answers"`
	Emails       int            `json:"emails"`
}

func (d *DB) Counts(ctx context.Context) (StatusCounts, error) {
	c := StatusCounts{Jobs: map[string]int{}, Applications: map[string]int{}}

	group := func(query string, into map[string]int) error {
		rows, err := d.Pool.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var k string
			var n int
			if err := rows.Scan(&k, &n); err != nil {
				return err
			}
			into[k] = n
		}
		return rows.Err()
	}

	if err := group(`SELECT status, COUNT(*) FROM jobs GROUP BY status;`, c.Jobs); err != nil {
		return c, fmt.Errorf("count jobs: %w", err)
	}
	if err := group(`SELECT status, COUNT(*) FROM applications GROUP BY status;`, c.Applications); err != nil {
		return c, fmt.Errorf("count applications: %w", err)
	}
	if err := d.Pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM question_answers;`).Scan(&c.Answers); err != nil {
		return c, fmt.Errorf("count answers: %w", err)
	}
	if err := d.Pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM emails;`).Scan(&c.Emails); err != nil {
		return c, fmt.Errorf("count emails: %w", err)
	}
	return c, nil
}
