package arenalog

import (
	"fmt"
	"time"
)

// EventType identifies a reconstructed arena event kind.
type EventType string

const (
	// EventMatchStarted is emitted when a ranked arena match begins.
	EventMatchStarted EventType = "match_started"
	// EventMatchEnded is emitted when the open match ends, carrying the
	// final metadata snapshot.
	EventMatchEnded EventType = "match_ended"
	// EventZoneChanged is emitted on every zone transition.
	EventZoneChanged EventType = "zone_changed"
)

// allEventTypes enumerates every valid EventType.
var allEventTypes = []EventType{EventMatchStarted, EventMatchEnded, EventZoneChanged}

// EventTypeNames returns the valid event type names, for flag help and
// shell completion.
func EventTypeNames() []string {
	names := make([]string, len(allEventTypes))
	for i, t := range allEventTypes {
		names[i] = string(t)
	}
	return names
}

// ParseEventType converts a user-supplied name into an EventType.
func ParseEventType(s string) (EventType, error) {
	for _, t := range allEventTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown event type %q (valid: %v)", s, EventTypeNames())
}

// Event is one reconstructed arena event. The concrete types are
// [MatchStarted], [MatchEnded] and [ZoneChanged].
type Event interface {
	// Type discriminates the concrete event.
	Type() EventType
}

// MatchStarted reports a ranked arena match or Solo Shuffle session
// beginning. A Solo Shuffle session produces exactly one MatchStarted no
// matter how many rounds it runs.
type MatchStarted struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
	ZoneID    int       `json:"zone_id"`
	Bracket   Bracket   `json:"bracket"`
	Season    int       `json:"season"`
	Ranked    bool      `json:"ranked"`

	// Combatants known at start time. Usually empty because the
	// combatant dump follows the start line; non-empty on duplicate
	// starts after a client reload.
	Combatants []PlayerMetadata `json:"combatants,omitempty"`
}

// Type implements Event.
func (*MatchStarted) Type() EventType { return EventMatchStarted }

// MatchEnded carries the final snapshot of a finished match.
type MatchEnded struct {
	SessionID string        `json:"session_id"`
	Metadata  MatchMetadata `json:"metadata"`
}

// Type implements Event.
func (*MatchEnded) Type() EventType { return EventMatchEnded }

// ZoneChanged reports a zone transition. SessionID names the session open
// at the time of the change, or is empty outside matches.
type ZoneChanged struct {
	Timestamp time.Time `json:"timestamp"`
	ZoneID    int       `json:"zone_id"`
	ZoneName  string    `json:"zone_name,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
}

// Type implements Event.
func (*ZoneChanged) Type() EventType { return EventZoneChanged }
