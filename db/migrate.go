package db

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is portable between Postgres and SQLite.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS teams (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		members TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tournaments (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		participant_count INTEGER NOT NULL,
		team_id TEXT NOT NULL,
		player_participant_id TEXT NOT NULL,
		status TEXT NOT NULL,
		champion_id TEXT,
		created_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP,
		history_recorded BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tournaments_status ON tournaments (status, history_recorded)`,
	`CREATE TABLE IF NOT EXISTS participants (
		tournament_id TEXT NOT NULL REFERENCES tournaments (id) ON DELETE CASCADE,
		id TEXT NOT NULL,
		seed INTEGER NOT NULL,
		kind TEXT NOT NULL,
		team_id TEXT NOT NULL,
		display_name TEXT NOT NULL,
		roster TEXT NOT NULL,
		PRIMARY KEY (tournament_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		tournament_id TEXT NOT NULL REFERENCES tournaments (id) ON DELETE CASCADE,
		id TEXT NOT NULL,
		round INTEGER NOT NULL,
		slot INTEGER NOT NULL,
		participant_a TEXT,
		participant_b TEXT,
		status TEXT NOT NULL,
		winner_id TEXT,
		forfeited_by TEXT,
		PRIMARY KEY (tournament_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS history_entries (
		tournament_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		participant_count INTEGER NOT NULL,
		champion_id TEXT NOT NULL,
		champion_name TEXT NOT NULL,
		completed_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_history_completed ON history_entries (completed_at DESC, tournament_id DESC)`,
	`CREATE TABLE IF NOT EXISTS stats (
		owner_id TEXT PRIMARY KEY,
		tournaments_entered INTEGER NOT NULL DEFAULT 0,
		tournaments_won INTEGER NOT NULL DEFAULT 0,
		matches_won INTEGER NOT NULL DEFAULT 0,
		matches_lost INTEGER NOT NULL DEFAULT 0,
		matches_forfeited INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMP NOT NULL
	)`,
}

// Migrate creates any missing tables. It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i, err)
		}
	}
	return nil
}
