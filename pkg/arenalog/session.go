package arenalog

import (
	"log/slog"
	"time"
)

// session is the per-match context shared by both open states.
type session struct {
	id      string
	start   time.Time
	zoneID  int
	bracket Bracket
	season  int
	ranked  bool
}

// matchState is the parser's tagged session state: no match, an open
// arena match, or an open Solo Shuffle session with its round tracker.
// Open states always carry a non-empty session id.
type matchState interface{ matchState() }

type idle struct{}

type openArena struct{ sess session }

type openShuffle struct {
	sess   session
	rounds *ShuffleTracker
}

func (idle) matchState()        {}
func (openArena) matchState()   {}
func (openShuffle) matchState() {}

// SessionInfo describes the match a parser is currently tracking.
type SessionInfo struct {
	ID        string    `json:"id"`
	Bracket   Bracket   `json:"bracket"`
	ZoneID    int       `json:"zone_id"`
	Season    int       `json:"season"`
	Ranked    bool      `json:"ranked"`
	StartTime time.Time `json:"start_time"`
}

// gatherPhase is the identity buffer's two-phase state.
type gatherPhase int

const (
	gatherCollecting gatherPhase = iota
	gatherSatisfied
)

// gatherer buffers raw lines while the open session still needs identity
// information: the recording player, or display names for registered
// combatants. Once satisfied it stays satisfied until the combatant
// registry changes.
type gatherer struct {
	phase  gatherPhase
	lines  []string
	limit  int
	warned bool
}

func newGatherer(limit int) *gatherer {
	return &gatherer{limit: limit}
}

// add appends a raw line while collecting. The buffer is capped; hitting
// the cap logs once and drops further lines, the stream itself is not
// affected.
func (g *gatherer) add(raw string, log *slog.Logger) {
	if g.phase != gatherCollecting {
		return
	}
	if len(g.lines) >= g.limit {
		if !g.warned {
			g.warned = true
			log.Warn("identity line buffer full, not buffering further lines", "limit", g.limit)
		}
		return
	}
	g.lines = append(g.lines, raw)
}

// satisfy stops buffer growth. Collected lines stay until the session
// ends: a shuffle round boundary clears the combatant registry and
// re-arms the need, and the names for the new round's players usually
// live in lines gathered before the boundary.
func (g *gatherer) satisfy() {
	g.phase = gatherSatisfied
}

// reopen returns to collecting after a registry change, for example a
// combatant registered without a display name.
func (g *gatherer) reopen() {
	g.phase = gatherCollecting
}

// reset clears everything for a fresh session.
func (g *gatherer) reset() {
	g.phase = gatherCollecting
	g.lines = nil
	g.warned = false
}
