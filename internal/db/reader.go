package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/arenalog/arenalog-go/pkg/arenalog"
)

// ErrMatchNotFound is returned when no match with the given id exists.
var ErrMatchNotFound = errors.New("match not found")

// Reader queries stored matches.
type Reader struct {
	conn *sql.DB
}

// NewReader creates a new database reader.
func NewReader(conn *sql.DB) *Reader {
	return &Reader{conn: conn}
}

// MatchSummary is the queryable slice of one stored match.
type MatchSummary struct {
	ID              string
	Bracket         arenalog.Bracket
	Season          int
	Ranked          bool
	ZoneID          int
	StartedAt       time.Time
	DurationSeconds int
	WinningTeam     *int
	Team0MMR        int
	Team1MMR        int
	Deaths          int
	RecordingPlayer string
}

// ListMatches returns stored matches, newest first. A limit <= 0 returns
// everything.
func (r *Reader) ListMatches(ctx context.Context, limit int) ([]MatchSummary, error) {
	query := `
		SELECT id, bracket, season, ranked, zone_id, started_at, duration_s,
		       winning_team, team0_mmr, team1_mmr, deaths, recording_player
		FROM matches
		ORDER BY started_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]MatchSummary, 0)
	for rows.Next() {
		m, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}
	return matches, nil
}

// GetMatch returns the full stored metadata of one match.
// Returns ErrMatchNotFound if the id is unknown.
func (r *Reader) GetMatch(ctx context.Context, id string) (arenalog.MatchMetadata, error) {
	var metaJSON string
	err := r.conn.QueryRowContext(ctx,
		`SELECT metadata_json FROM matches WHERE id = ?`, id,
	).Scan(&metaJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return arenalog.MatchMetadata{}, ErrMatchNotFound
	}
	if err != nil {
		return arenalog.MatchMetadata{}, fmt.Errorf("failed to query match: %w", err)
	}

	var meta arenalog.MatchMetadata
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return arenalog.MatchMetadata{}, fmt.Errorf("failed to unmarshal match metadata: %w", err)
	}
	return meta, nil
}

func scanSummary(rows *sql.Rows) (MatchSummary, error) {
	var (
		m         MatchSummary
		ranked    int
		startedAt string
		winner    sql.NullInt64
		recorder  sql.NullString
	)
	err := rows.Scan(
		&m.ID, &m.Bracket, &m.Season, &ranked, &m.ZoneID, &startedAt,
		&m.DurationSeconds, &winner, &m.Team0MMR, &m.Team1MMR, &m.Deaths,
		&recorder,
	)
	if err != nil {
		return MatchSummary{}, fmt.Errorf("failed to scan match: %w", err)
	}
	m.Ranked = ranked != 0
	if t, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
		m.StartedAt = t
	}
	if winner.Valid {
		w := int(winner.Int64)
		m.WinningTeam = &w
	}
	m.RecordingPlayer = recorder.String
	return m, nil
}
