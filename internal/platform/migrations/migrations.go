// Package migrations creates the database schema for the journal ledger and
// the access policy registry. Statements are idempotent so Apply can run on
// every startup.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS journals (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		count BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_journals_owner ON journals (owner)`,
	`CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		journal_id TEXT NOT NULL REFERENCES journals (id),
		owner TEXT NOT NULL,
		seq BIGINT NOT NULL,
		timestamp_ms BIGINT NOT NULL,
		day_index BIGINT NOT NULL,
		mood_score SMALLINT NOT NULL,
		mood_text TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		image_mime TEXT NOT NULL DEFAULT '',
		image_hash BYTEA,
		audio_url TEXT NOT NULL DEFAULT '',
		audio_mime TEXT NOT NULL DEFAULT '',
		audio_hash BYTEA,
		audio_duration_ms BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_journal_seq ON entries (journal_id, seq)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_journal_day ON entries (journal_id, day_index)`,
	`CREATE TABLE IF NOT EXISTS access_policies (
		id TEXT PRIMARY KEY,
		entry_id TEXT NOT NULL UNIQUE,
		owner TEXT NOT NULL,
		seal TEXT NOT NULL,
		authorized TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
}

// Apply runs every schema statement in order against db.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
	}
	return nil
}
