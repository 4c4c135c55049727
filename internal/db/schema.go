package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema for reconstructed arena matches. The matches table carries the
// queryable fields; metadata_json keeps the full match snapshot so reads
// lose nothing the parser produced.
const schema = `
CREATE TABLE IF NOT EXISTS matches (
	id TEXT PRIMARY KEY,
	bracket TEXT NOT NULL,
	season INTEGER NOT NULL DEFAULT 0,
	ranked INTEGER NOT NULL DEFAULT 1,
	zone_id INTEGER NOT NULL,
	started_at TEXT NOT NULL,
	duration_s INTEGER NOT NULL DEFAULT 0,
	winning_team INTEGER,
	team0_mmr INTEGER NOT NULL DEFAULT 0,
	team1_mmr INTEGER NOT NULL DEFAULT 0,
	deaths INTEGER NOT NULL DEFAULT 0,
	recording_player TEXT,
	metadata_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS combatants (
	match_id TEXT NOT NULL,
	guid TEXT NOT NULL,
	team_id INTEGER NOT NULL,
	spec_id INTEGER NOT NULL,
	class TEXT NOT NULL,
	rating INTEGER NOT NULL DEFAULT 0,
	tier INTEGER NOT NULL DEFAULT 0,
	name TEXT,
	realm TEXT,
	region TEXT,
	wins INTEGER NOT NULL DEFAULT 0,
	losses INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY(match_id, guid),
	FOREIGN KEY(match_id) REFERENCES matches(id)
);

CREATE TABLE IF NOT EXISTS rounds (
	match_id TEXT NOT NULL,
	round_number INTEGER NOT NULL,
	started_at TEXT NOT NULL,
	ended_at TEXT,
	start_offset_ms INTEGER NOT NULL DEFAULT 0,
	end_offset_ms INTEGER NOT NULL DEFAULT 0,
	duration_s INTEGER NOT NULL DEFAULT 0,
	winning_team INTEGER,
	killed_player TEXT,
	PRIMARY KEY(match_id, round_number),
	FOREIGN KEY(match_id) REFERENCES matches(id)
);

-- Indexes for common query patterns
CREATE INDEX IF NOT EXISTS idx_matches_started ON matches(started_at);
CREATE INDEX IF NOT EXISTS idx_matches_bracket ON matches(bracket);
CREATE INDEX IF NOT EXISTS idx_combatants_guid ON combatants(guid);
CREATE INDEX IF NOT EXISTS idx_rounds_match ON rounds(match_id, round_number);
`

// InitSchema initializes the database schema.
// It creates all tables and indexes if they don't already exist.
func InitSchema(ctx context.Context, conn *sql.DB) error {
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}
