package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// History is the append-only list of question texts already asked.
type History struct {
	db  *sql.DB
	seq *sequenceCounter
}

// Append stores texts in order. Blank texts are skipped.
func (h *History) Append(ctx context.Context, texts ...string) error {
	now := toMillis(time.Now())
	for _, text := range texts {
		if text == "" {
			continue
		}
		seqNum, err := h.seq.Next(ctx)
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		_, err = h.db.ExecContext(ctx,
			`INSERT INTO question_history (sequence, created_at, question_text) VALUES (?, ?, ?)`,
			seqNum, now, text)
		if err != nil {
			return fmt.Errorf("append history: %w", err)
		}
	}
	return nil
}

// Recent returns the last n texts, oldest first. n <= 0 returns everything.
func (h *History) Recent(ctx context.Context, n int) ([]string, error) {
	q := `SELECT question_text FROM (
		SELECT question_text, sequence FROM question_history ORDER BY sequence DESC`
	args := []any{}
	if n > 0 {
		q += ` LIMIT ?`
		args = append(args, n)
	}
	q += `) ORDER BY sequence ASC`

	rows, err := h.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		texts = append(texts, t)
	}
	return texts, rows.Err()
}

// Count returns the number of stored texts.
func (h *History) Count(ctx context.Context) (int, error) {
	var n int
	if err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM question_history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

// Clear removes every stored text and reports how many were removed.
func (h *History) Clear(ctx context.Context) (int, error) {
	res, err := h.db.ExecContext(ctx, `DELETE FROM question_history`)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
