package arenalog

import (
	"log/slog"
	"time"

	"github.com/arenalog/arenalog-go/internal/combatlog"
)

// ShuffleTracker reconstructs Solo Shuffle rounds from deaths and round
// boundaries. One tracker serves one shuffle session; the session parser
// drives it, but it is exported so callers can inspect live round state
// through [Parser.CurrentRounds].
type ShuffleTracker struct {
	log *slog.Logger

	active    bool
	sessionID string
	origin    time.Time // first round start; offsets count from here
	finalized []Round
	current   *Round
	recorder  string
}

// NewShuffleTracker returns an inactive tracker. A nil logger disables
// logging.
func NewShuffleTracker(logger *slog.Logger) *ShuffleTracker {
	if logger == nil {
		logger = discardLogger
	}
	return &ShuffleTracker{log: logger}
}

// Active reports whether a shuffle session is currently being tracked.
func (st *ShuffleTracker) Active() bool { return st.active }

// Start begins tracking a session and opens round 1 at origin.
func (st *ShuffleTracker) Start(sessionID string, origin time.Time) {
	st.active = true
	st.sessionID = sessionID
	st.origin = origin
	st.finalized = nil
	st.recorder = ""
	st.current = st.newRound(1, origin)
	st.log.Debug("shuffle tracking started", "session", sessionID)
}

func (st *ShuffleTracker) newRound(number int, start time.Time) *Round {
	return &Round{
		Number:        number,
		StartTime:     start,
		StartOffsetMS: relativeMillis(start, st.origin),
		Combatants:    make(map[string]RoundCombatant),
	}
}

// AddCombatant attaches roster info to the in-progress round. Calling it
// again for the same player updates the entry.
func (st *ShuffleTracker) AddCombatant(guid string, teamID int, name string) {
	if !st.active || st.current == nil {
		return
	}
	st.current.Combatants[guid] = RoundCombatant{TeamID: teamID, Name: name}
}

// SetRecordingPlayer records the identified owner of the log stream.
func (st *ShuffleTracker) SetRecordingPlayer(guid string) {
	st.recorder = guid
}

// HandleDeath applies a UNIT_DIED line to the in-progress round.
// Returns true when the death ends the round: the victim must be on the
// round's roster and the round must still be undecided. The winner is the
// other team present on the roster; with a single-team roster the round
// still ends but the winner stays undecided.
func (st *ShuffleTracker) HandleDeath(line *combatlog.Line) bool {
	if !st.active || st.current == nil {
		return false
	}
	if st.current.WinningTeam != nil || !st.current.EndTime.IsZero() {
		return false
	}
	d, ok := extractDeath(line)
	if !ok {
		return false
	}
	victim, ok := st.current.Combatants[d.VictimGUID]
	if !ok {
		st.log.Debug("death outside round roster",
			"victim", d.VictimGUID, "round", st.current.Number)
		return false
	}

	for _, c := range st.current.Combatants {
		if c.TeamID != victim.TeamID {
			winner := c.TeamID
			st.current.WinningTeam = &winner
			break
		}
	}
	st.current.KilledPlayer = d.VictimGUID
	st.endCurrent(d.Timestamp)
	st.log.Debug("round ended by death",
		"round", st.current.Number, "victim", d.VictimGUID)
	return true
}

// endCurrent stamps the end fields of the in-progress round. End time and
// duration are write-once: a round already ended by a death keeps its
// original values.
func (st *ShuffleTracker) endCurrent(t time.Time) {
	r := st.current
	if !r.EndTime.IsZero() {
		return
	}
	r.EndTime = t
	r.EndOffsetMS = relativeMillis(t, st.origin)
	r.DurationSeconds = int(t.Sub(r.StartTime).Round(time.Second) / time.Second)
}

// AdvanceRound closes the in-progress round at t and opens the next one.
// Round numbers increase strictly by one.
func (st *ShuffleTracker) AdvanceRound(t time.Time) {
	if !st.active || st.current == nil {
		return
	}
	st.endCurrent(t)
	st.finalized = append(st.finalized, *st.current)
	st.current = st.newRound(len(st.finalized)+1, t)
	st.log.Debug("shuffle round opened", "round", st.current.Number)
}

// Finalize closes the session at t and returns its state snapshot.
// Returns false when no session is active.
func (st *ShuffleTracker) Finalize(t time.Time) (ShuffleState, bool) {
	if !st.active {
		return ShuffleState{}, false
	}
	if st.current != nil {
		st.endCurrent(t)
		st.finalized = append(st.finalized, *st.current)
		st.current = nil
	}
	st.active = false

	state := ShuffleState{
		SessionID:       st.sessionID,
		StartTime:       st.origin,
		RecordingPlayer: st.recorder,
		Rounds:          append([]Round(nil), st.finalized...),
	}
	st.log.Debug("shuffle finalized", "session", st.sessionID, "rounds", len(state.Rounds))
	return state, true
}

// CurrentRounds returns a copy of all rounds so far, finalized plus the
// in-progress one. Useful for reporting partial progress before the
// session ends.
func (st *ShuffleTracker) CurrentRounds() []Round {
	rounds := make([]Round, 0, len(st.finalized)+1)
	for _, r := range st.finalized {
		rounds = append(rounds, cloneRound(r))
	}
	if st.current != nil {
		rounds = append(rounds, cloneRound(*st.current))
	}
	return rounds
}

// Reset discards all session state and deactivates the tracker.
func (st *ShuffleTracker) Reset() {
	st.active = false
	st.sessionID = ""
	st.origin = time.Time{}
	st.finalized = nil
	st.current = nil
	st.recorder = ""
}

// cloneRound deep-copies a round so callers cannot mutate live state.
func cloneRound(r Round) Round {
	c := r
	c.Combatants = make(map[string]RoundCombatant, len(r.Combatants))
	for guid, rc := range r.Combatants {
		c.Combatants[guid] = rc
	}
	if r.WinningTeam != nil {
		w := *r.WinningTeam
		c.WinningTeam = &w
	}
	return c
}
