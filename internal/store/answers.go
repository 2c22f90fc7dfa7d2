package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"jobgate-engine/internal/domain"
)

// GetAnswer looks up a cached answer by ATS and normalized question.
func (d *DB) GetAnswer(ctx context.Context, ats domain.ATSType, question string) (string, bool, error) {
	var answer string
	err := d.Pool.QueryRowContext(ctx, `
SELECT answer FROM question_answers WHERE ats_type = ? AND question = ?;`,
		string(ats), domain.NormalizeQuestion(question)).Scan(&answer)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get answer: %w", err)
	}
	return answer, true, nil
}

// PutAnswer stores an answer once. An existing entry for the same key is
// left untouched; only DeleteAnswer can change it.
func (d *DB) PutAnswer(ctx context.Context, ats domain.ATSType, question, answer string) error {
	_, err := d.Pool.ExecContext(ctx, `
INSERT OR IGNORE INTO question_answers (ats_type, question, answer, created_at)
VALUES (?, ?, ?, ?);`,
		string(ats), domain.NormalizeQuestion(question), answer, fmtTime(time.Now()))
	if err != nil {
		return fmt.Errorf("put answer: %w", err)
	}
	return nil
}

func (d *DB) ListAnswers(ctx context.Context) ([]domain.QuestionAnswer, error) {
	rows, err := d.Pool.QueryContext(ctx, `
SELECT ats_type, question, answer, created_at FROM question_answers ORDER BY ats_type, question;`)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	var out []domain.QuestionAnswer
	for rows.Next() {
		var qa domain.QuestionAnswer
		var ats, created string
		if err := rows.Scan(&ats, &qa.Question, &qa.Answer, &created); err != nil {
			return nil, err
		}
		qa.ATSType = domain.ATSType(ats)
		qa.CreatedAt = parseTime(created)
		out = append(out, qa)
	}
	return out, rows.Err()
}

// DeleteAnswer removes one cached answer. An empty question clears every
// answer for the ATS; an empty ATS as well clears the whole cache.
func (d *DB) DeleteAnswer(ctx context.Context, ats domain.ATSType, question string) (int64, error) {
	res, err := d.Pool.ExecContext(ctx, `
DELETE FROM question_answers
WHERE (? = '' OR ats_type = ?) AND (? = '' OR question = ?);`,
		string(ats), string(ats), domain.NormalizeQuestion(question), domain.NormalizeQuestion(question))
	if err != nil {
		return 0, fmt.Errorf("delete answer: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
