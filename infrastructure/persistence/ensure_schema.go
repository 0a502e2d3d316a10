package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var publishingTables = []string{
	`CREATE TABLE IF NOT EXISTS social_profiles (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		platform TEXT NOT NULL,
		access_token TEXT,
		refresh_token TEXT,
		token_expires_at TIMESTAMPTZ,
		external_id TEXT NOT NULL DEFAULT '',
		profile_name TEXT NOT NULL DEFAULT '',
		profile_url TEXT NOT NULL DEFAULT '',
		avatar_url TEXT NOT NULL DEFAULT '',
		scopes TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'disconnected',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, platform)
	)`,
	`CREATE TABLE IF NOT EXISTS oauth_states (
		id BIGSERIAL PRIMARY KEY,
		state TEXT NOT NULL UNIQUE,
		user_id TEXT NOT NULL,
		platform TEXT NOT NULL,
		code_verifier TEXT,
		used BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_oauth_states_owner ON oauth_states (user_id, platform)`,
	`CREATE TABLE IF NOT EXISTS content_items (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL,
		media JSONB NOT NULL DEFAULT '[]',
		target_platforms TEXT[] NOT NULL DEFAULT '{}',
		profile_ids BIGINT[] NOT NULL DEFAULT '{}',
		scheduled_date TIMESTAMPTZ,
		status TEXT NOT NULL DEFAULT 'draft',
		post_results JSONB,
		published_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_content_items_due ON content_items (status, scheduled_date)`,
}

// EnsurePublishingSchema creates the engine tables and adds columns introduced after the first release.
// Safe to call at startup.
func EnsurePublishingSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, ddl := range publishingTables {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("ensure publishing schema: %w", err)
		}
	}

	checks := []struct {
		table  string
		column string
		ddl    string
	}{
		{"social_profiles", "page_id", "ALTER TABLE social_profiles ADD COLUMN page_id TEXT"},
		{"social_profiles", "page_name", "ALTER TABLE social_profiles ADD COLUMN page_name TEXT"},
	}
	for _, c := range checks {
		exists, err := columnExists(ctx, db, c.table, c.column)
		if err != nil {
			return err
		}
		if !exists {
			if _, err := db.ExecContext(ctx, c.ddl); err != nil {
				return fmt.Errorf("adding column %s.%s failed: %w", c.table, c.column, err)
			}
		}
	}
	return nil
}

func columnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM information_schema.columns WHERE table_name=$1 AND column_name=$2`, table, column).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
