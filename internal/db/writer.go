package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arenalog/arenalog-go/pkg/arenalog"
)

// Writer persists completed matches.
type Writer struct {
	conn *sql.DB
}

// NewWriter creates a new database writer.
func NewWriter(conn *sql.DB) *Writer {
	return &Writer{conn: conn}
}

// SaveMatch writes one completed match, its combatants and its rounds in
// a single transaction. Saving the same match id again replaces the
// previous rows, so reprocessing a log file is safe.
func (w *Writer) SaveMatch(ctx context.Context, id string, meta arenalog.MatchMetadata) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal match metadata: %w", err)
	}

	tx, err := w.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Child rows go first: REPLACE on the parent would trip the foreign
	// keys while they still reference it.
	if _, err := tx.ExecContext(ctx, `DELETE FROM combatants WHERE match_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear combatants: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rounds WHERE match_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear rounds: %w", err)
	}

	ranked := 0
	if meta.Ranked {
		ranked = 1
	}
	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO matches (
			id, bracket, season, ranked, zone_id, started_at, duration_s,
			winning_team, team0_mmr, team1_mmr, deaths, recording_player, metadata_json
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id, string(meta.Bracket), meta.Season, ranked, meta.ZoneID,
		meta.Timestamp.Format(time.RFC3339Nano), meta.DurationSeconds,
		meta.WinningTeam, meta.Team0MMR, meta.Team1MMR, meta.Deaths,
		meta.RecordingPlayer, string(metaJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}

	if err := w.insertCombatants(ctx, tx, id, meta); err != nil {
		return err
	}
	if err := w.insertRounds(ctx, tx, id, meta.Rounds); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (w *Writer) insertCombatants(ctx context.Context, tx *sql.Tx, id string, meta arenalog.MatchMetadata) error {
	if len(meta.Combatants) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO combatants (
			match_id, guid, team_id, spec_id, class, rating, tier,
			name, realm, region, wins, losses
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare combatant statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range meta.Combatants {
		rec := meta.Records[c.GUID]
		_, err := stmt.ExecContext(ctx,
			id, c.GUID, c.TeamID, c.SpecID, string(c.Class), c.Rating, c.Tier,
			c.Name, c.Realm, c.Region, rec.Wins, rec.Losses,
		)
		if err != nil {
			return fmt.Errorf("failed to insert combatant %s: %w", c.GUID, err)
		}
	}
	return nil
}

func (w *Writer) insertRounds(ctx context.Context, tx *sql.Tx, id string, rounds []arenalog.Round) error {
	if len(rounds) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rounds (
			match_id, round_number, started_at, ended_at, start_offset_ms,
			end_offset_ms, duration_s, winning_team, killed_player
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare round statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range rounds {
		var endedAt *string
		if !r.EndTime.IsZero() {
			s := r.EndTime.Format(time.RFC3339Nano)
			endedAt = &s
		}
		_, err := stmt.ExecContext(ctx,
			id, r.Number, r.StartTime.Format(time.RFC3339Nano), endedAt,
			r.StartOffsetMS, r.EndOffsetMS, r.DurationSeconds,
			r.WinningTeam, r.KilledPlayer,
		)
		if err != nil {
			return fmt.Errorf("failed to insert round %d: %w", r.Number, err)
		}
	}
	return nil
}
