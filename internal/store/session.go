package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
)

// Sessions records finished quizzes.
type Sessions struct {
	db  *sql.DB
	seq *sequenceCounter
}

// Record stores a finished session. rec.ID must be set by the caller.
func (s *Sessions) Record(ctx context.Context, rec SessionRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("record session: empty id")
	}
	seqNum, err := s.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO quiz_sessions (
		id, sequence, started_at, finished_at, note_hash, strategy, category,
		model, from_cache, score, answered, total, accuracy
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, seqNum, toMillis(rec.StartedAt), toMillis(rec.FinishedAt),
		rec.NoteHash, rec.Strategy, rec.Category, rec.Model, rec.FromCache,
		rec.Score, rec.Answered, rec.Total, rec.Accuracy,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// List returns sessions newest first. limit <= 0 returns all of them.
func (s *Sessions) List(ctx context.Context, limit int) ([]SessionRecord, error) {
	q := `SELECT id, sequence, started_at, finished_at, note_hash, strategy,
		category, model, from_cache, score, answered, total, accuracy
		FROM quiz_sessions ORDER BY sequence DESC`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var started, finished int64
		if err := rows.Scan(&rec.ID, &rec.Sequence, &started, &finished,
			&rec.NoteHash, &rec.Strategy, &rec.Category, &rec.Model,
			&rec.FromCache, &rec.Score, &rec.Answered, &rec.Total,
			&rec.Accuracy); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		rec.StartedAt = fromMillis(started)
		rec.FinishedAt = fromMillis(finished)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Totals sums every recorded session. Accuracy is a percentage of answered
// questions rounded to two decimals.
func (s *Sessions) Totals(ctx context.Context) (SessionTotals, error) {
	var t SessionTotals
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(score), 0),
		COALESCE(SUM(answered), 0), COALESCE(SUM(total), 0) FROM quiz_sessions`,
	).Scan(&t.Sessions, &t.Score, &t.Answered, &t.Total)
	if err != nil {
		return t, fmt.Errorf("sum sessions: %w", err)
	}
	if t.Answered > 0 {
		t.Accuracy = math.Round(float64(t.Score)/float64(t.Answered)*10000) / 100
	}
	return t, nil
}
