package db

import (
	"context"
	"fmt"
)

// schemaStatements creates the candidate store and the run audit table. The
// candidate document carries a generated tsvector weighting the summary
// highest, then experience, then tag text.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS candidates (
		candidate_id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL DEFAULT '',
		seniority    TEXT NOT NULL DEFAULT '',
		last_updated DATE NOT NULL DEFAULT CURRENT_DATE
	)`,

	`CREATE TABLE IF NOT EXISTS candidate_tags (
		candidate_id TEXT NOT NULL REFERENCES candidates(candidate_id) ON DELETE CASCADE,
		tag_type     TEXT NOT NULL,
		tag_key      TEXT NOT NULL,
		PRIMARY KEY (candidate_id, tag_type, tag_key)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_candidate_tags_type_key
		ON candidate_tags (tag_type, tag_key)`,

	`CREATE TABLE IF NOT EXISTS candidate_docs (
		candidate_id    TEXT PRIMARY KEY REFERENCES candidates(candidate_id) ON DELETE CASCADE,
		summary_text    TEXT NOT NULL DEFAULT '',
		experience_text TEXT NOT NULL DEFAULT '',
		tags_text       TEXT NOT NULL DEFAULT '',
		doc_tsv TSVECTOR GENERATED ALWAYS AS (
			setweight(to_tsvector('english', coalesce(summary_text, '')), 'A') ||
			setweight(to_tsvector('english', coalesce(experience_text, '')), 'B') ||
			setweight(to_tsvector('english', coalesce(tags_text, '')), 'C')
		) STORED
	)`,

	`CREATE INDEX IF NOT EXISTS idx_candidate_docs_tsv
		ON candidate_docs USING GIN (doc_tsv)`,

	`CREATE TABLE IF NOT EXISTS search_runs (
		run_id        TEXT PRIMARY KEY,
		run_kind      TEXT NOT NULL,
		status        TEXT NOT NULL DEFAULT 'running',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at  TIMESTAMPTZ,
		duration_ms   BIGINT,
		result_count  INTEGER NOT NULL DEFAULT 0,
		criteria_json TEXT NOT NULL DEFAULT '',
		raw_text      TEXT NOT NULL DEFAULT '',
		top_k         INTEGER NOT NULL DEFAULT 0,
		seat_count    INTEGER NOT NULL DEFAULT 0,
		note          TEXT NOT NULL DEFAULT '',
		run_dir       TEXT NOT NULL DEFAULT '',
		error_type    TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT '',
		error_stage   TEXT NOT NULL DEFAULT '',
		feedback_sentiment    TEXT,
		feedback_comment      TEXT,
		feedback_submitted_at TIMESTAMPTZ
	)`,

	`CREATE INDEX IF NOT EXISTS idx_search_runs_created_at
		ON search_runs (created_at DESC)`,

	`CREATE INDEX IF NOT EXISTS idx_search_runs_status_kind
		ON search_runs (status, run_kind)`,
}

// InitSchema creates all tables and indexes if they do not exist.
func (db *DB) InitSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
