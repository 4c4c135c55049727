package arenalog

import (
	"strings"
	"time"
)

// Bracket is a ranked arena category.
type Bracket string

const (
	Bracket2v2         Bracket = "2v2"
	Bracket3v3         Bracket = "3v3"
	Bracket5v5         Bracket = "5v5"
	BracketSoloShuffle Bracket = "Solo Shuffle"
)

// ParseBracket maps the arena-type token of a match start line to a
// bracket. The client has written both "Solo Shuffle" and "Rated Solo
// Shuffle" across seasons; both map to BracketSoloShuffle. Tokens that
// are not ranked brackets (for example "Skirmish") return false.
func ParseBracket(s string) (Bracket, bool) {
	switch s {
	case "2v2":
		return Bracket2v2, true
	case "3v3":
		return Bracket3v3, true
	case "5v5":
		return Bracket5v5, true
	case "Solo Shuffle", "Rated Solo Shuffle":
		return BracketSoloShuffle, true
	}
	return "", false
}

// IsShuffle reports whether the bracket runs as a multi-round Solo
// Shuffle session.
func (b Bracket) IsShuffle() bool { return b == BracketSoloShuffle }

// PlayerMetadata describes one combatant of a match.
type PlayerMetadata struct {
	GUID   string `json:"guid"`
	TeamID int    `json:"team_id"`
	SpecID int    `json:"spec_id"`
	Class  Class  `json:"class"`
	Rating int    `json:"rating,omitempty"`
	Tier   int    `json:"tier,omitempty"`

	// Name, Realm and Region come from display-name enrichment and stay
	// empty when the player never appeared in a spell line.
	Name   string `json:"name,omitempty"`
	Realm  string `json:"realm,omitempty"`
	Region string `json:"region,omitempty"`
}

// RoundCombatant is a round-local roster entry.
type RoundCombatant struct {
	TeamID int    `json:"team_id"`
	Name   string `json:"name,omitempty"`
}

// Round is one Solo Shuffle round. Offsets are relative to the session's
// first round start.
type Round struct {
	Number          int                       `json:"number"`
	StartTime       time.Time                 `json:"start_time"`
	EndTime         time.Time                 `json:"end_time"`
	StartOffsetMS   int64                     `json:"start_offset_ms"`
	EndOffsetMS     int64                     `json:"end_offset_ms"`
	DurationSeconds int                       `json:"duration_seconds"`
	WinningTeam     *int                      `json:"winning_team,omitempty"`
	KilledPlayer    string                    `json:"killed_player,omitempty"`
	Combatants      map[string]RoundCombatant `json:"combatants,omitempty"`
}

// RoundRecord is one player's win/loss tally across a shuffle session.
// Only rounds with a decided winner count.
type RoundRecord struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

// ShuffleState is the final snapshot of a shuffle session's round
// tracking.
type ShuffleState struct {
	SessionID       string    `json:"session_id"`
	StartTime       time.Time `json:"start_time"`
	RecordingPlayer string    `json:"recording_player,omitempty"`
	Rounds          []Round   `json:"rounds"`
}

// MatchMetadata is the snapshot attached to a MatchEnded event.
type MatchMetadata struct {
	Bracket         Bracket          `json:"bracket"`
	Season          int              `json:"season"`
	Ranked          bool             `json:"ranked"`
	Timestamp       time.Time        `json:"timestamp"`
	ZoneID          int              `json:"zone_id"`
	Team0MMR        int              `json:"team0_mmr"`
	Team1MMR        int              `json:"team1_mmr"`
	Combatants      []PlayerMetadata `json:"combatants"`
	RecordingPlayer string           `json:"recording_player,omitempty"`
	Deaths          int              `json:"deaths"`
	DurationSeconds int              `json:"duration_seconds"`

	// WinningTeam is set for 2v2/3v3/5v5. Solo Shuffle outcomes live in
	// Rounds and Records instead.
	WinningTeam *int                   `json:"winning_team,omitempty"`
	Rounds      []Round                `json:"rounds,omitempty"`
	Records     map[string]RoundRecord `json:"records,omitempty"`
}

// splitDisplayName splits the "Name", "Name-Realm" and
// "Name-Realm-Region" display forms. Realm and region take one component
// each from the right; everything left of them is the personal name, so
// hyphenated names keep their hyphens.
func splitDisplayName(display string) (name, realm, region string) {
	parts := strings.Split(display, "-")
	switch {
	case len(parts) >= 3:
		name = strings.Join(parts[:len(parts)-2], "-")
		realm = parts[len(parts)-2]
		region = parts[len(parts)-1]
	case len(parts) == 2:
		name = parts[0]
		realm = parts[1]
	default:
		name = display
	}
	return name, realm, region
}
