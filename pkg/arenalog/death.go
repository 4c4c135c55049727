package arenalog

import (
	"time"

	"github.com/arenalog/arenalog-go/internal/combatlog"
)

// UNIT_DIED field positions (field 0 is the event type).
const (
	diedFieldVictimGUID = 5
	diedFieldVictimName = 6
	diedFieldRecapFlag  = 9
)

// playerDeath is a confirmed player death pulled from a UNIT_DIED line.
type playerDeath struct {
	VictimGUID string
	VictimName string
	Timestamp  time.Time
}

// extractDeath pulls a player death from a UNIT_DIED line. Non-player
// victims yield no death, and neither do feigned deaths: hunter Feign
// Death writes a UNIT_DIED with the recap flag at 1.
func extractDeath(line *combatlog.Line) (playerDeath, bool) {
	guid := line.Arg(diedFieldVictimGUID)
	if !combatlog.IsPlayerGUID(guid) {
		return playerDeath{}, false
	}
	if flag, err := line.IntArg(diedFieldRecapFlag); err == nil && flag == 1 {
		return playerDeath{}, false
	}
	return playerDeath{
		VictimGUID: guid,
		VictimName: line.Arg(diedFieldVictimName),
		Timestamp:  line.Timestamp,
	}, true
}

// relativeMillis converts an absolute event time into an offset from a
// session origin.
func relativeMillis(t, origin time.Time) int64 {
	return t.Sub(origin).Milliseconds()
}
