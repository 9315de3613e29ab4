package store

import (
	"context"
	"database/sql"
	"fmt"
)

// dataTables lists the tables Reset clears, in dependency order.
var dataTables = []string{"llm_request_events", "question_history", "quiz_sessions"}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS llm_request_events (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence      INTEGER NOT NULL UNIQUE,
		created_at    INTEGER NOT NULL,
		provider      TEXT    NOT NULL,
		model         TEXT    NOT NULL,
		purpose       TEXT    NOT NULL DEFAULT '',
		input_tokens  INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms    INTEGER NOT NULL DEFAULT 0,
		success       INTEGER NOT NULL,
		error_message TEXT    NOT NULL DEFAULT '',
		request_body  TEXT    NOT NULL DEFAULT '',
		response_body TEXT    NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_llm_events_purpose ON llm_request_events (purpose)`,
	`CREATE INDEX IF NOT EXISTS idx_llm_events_model ON llm_request_events (model)`,

	`CREATE TABLE IF NOT EXISTS question_history (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence      INTEGER NOT NULL UNIQUE,
		created_at    INTEGER NOT NULL,
		question_text TEXT    NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS quiz_sessions (
		id            TEXT    PRIMARY KEY,
		sequence      INTEGER NOT NULL UNIQUE,
		started_at    INTEGER NOT NULL,
		finished_at   INTEGER NOT NULL,
		note_hash     TEXT    NOT NULL,
		strategy      TEXT    NOT NULL,
		category      TEXT    NOT NULL DEFAULT '',
		model         TEXT    NOT NULL DEFAULT '',
		from_cache    INTEGER NOT NULL DEFAULT 0,
		score         INTEGER NOT NULL DEFAULT 0,
		answered      INTEGER NOT NULL DEFAULT 0,
		total         INTEGER NOT NULL DEFAULT 0,
		accuracy      REAL    NOT NULL DEFAULT 0
	)`,
}

// migrate creates the schema. Every statement is idempotent.
func migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
