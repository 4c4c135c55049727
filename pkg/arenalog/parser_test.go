package arenalog

import (
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test roster. GUIDs follow the retail Player-<server>-<hex> shape.
const (
	guidAlenia = "Player-1096-0A1B2C01"
	guidBrakka = "Player-1096-0A1B2C02"
	guidCedras = "Player-1096-0A1B2C03"
	guidDorn   = "Player-1403-0B4D5E01"
	guidEloth  = "Player-1403-0B4D5E02"
	guidFenlor = "Player-1403-0B4D5E03"
)

// Unit flag values as the client writes them: the recording player, a
// friendly party member, and a hostile player.
const (
	flagsSelf    = "0x511"
	flagsParty   = "0x512"
	flagsHostile = "0x10548"
)

func logTime(t time.Time) string {
	return t.Format("1/2/2006 15:04:05.000")
}

func startLine(t time.Time, zone, season int, bracket string, ranked int) string {
	return fmt.Sprintf("%s  ARENA_MATCH_START,%d,%d,%s,%d",
		logTime(t), zone, season, bracket, ranked)
}

func endLine(t time.Time, winner, duration, mmr0, mmr1 int) string {
	return fmt.Sprintf("%s  ARENA_MATCH_END,%d,%d,%d,%d",
		logTime(t), winner, duration, mmr0, mmr1)
}

// combatantLine builds a COMBATANT_INFO line with the fields the parser
// reads in their retail positions, filler and empty dump groups elsewhere.
func combatantLine(t time.Time, guid string, team, spec, rating, tier int) string {
	fields := make([]string, 33)
	fields[0] = "COMBATANT_INFO"
	fields[1] = guid
	fields[2] = strconv.Itoa(team)
	for i := 3; i < 33; i++ {
		fields[i] = "0"
	}
	fields[24] = strconv.Itoa(spec)
	fields[28] = "[]"
	fields[29] = "[]"
	fields[30] = "[]"
	fields[31] = strconv.Itoa(rating)
	fields[32] = strconv.Itoa(tier)
	return logTime(t) + "  " + strings.Join(fields, ",")
}

func spellLine(t time.Time, srcGUID, srcName, srcFlags, dstGUID, dstName string) string {
	return fmt.Sprintf(`%s  SPELL_CAST_SUCCESS,%s,"%s",%s,0x0,%s,"%s",0x10548,0x0,8936,"Regrowth",0x8`,
		logTime(t), srcGUID, srcName, srcFlags, dstGUID, dstName)
}

func diedLine(t time.Time, victimGUID, victimName string, recap int) string {
	return fmt.Sprintf(`%s  UNIT_DIED,0000000000000000,nil,0x80000000,0x80000000,%s,"%s",0x512,0x0,%d`,
		logTime(t), victimGUID, victimName, recap)
}

func zoneLine(t time.Time, zoneID int, name string) string {
	return fmt.Sprintf(`%s  ZONE_CHANGE,%d,"%s",0`, logTime(t), zoneID, name)
}

// feed runs lines through the parser and collects emitted events. Skip
// errors fail the test; use ParseLine directly to assert skips.
func feed(t *testing.T, p *Parser, lines ...string) []Event {
	t.Helper()
	var events []Event
	for i, raw := range lines {
		ev, err := p.ParseLine(raw)
		require.NoError(t, err, "line %d: %s", i, raw)
		if ev != nil {
			events = append(events, ev)
		}
	}
	return events
}

func TestParser_ArenaMatchLifecycle(t *testing.T) {
	base := time.Date(2025, 8, 12, 19, 30, 12, 0, time.Local)
	p := NewParser()

	events := feed(t, p,
		startLine(base, 1552, 38, "2v2", 1),
		combatantLine(base.Add(1*time.Second), guidAlenia, 0, 257, 1820, 3),
		combatantLine(base.Add(1*time.Second), guidBrakka, 0, 71, 1795, 2),
		combatantLine(base.Add(1*time.Second), guidEloth, 1, 62, 1810, 3),
		combatantLine(base.Add(1*time.Second), guidFenlor, 1, 65, 1840, 3),
		spellLine(base.Add(2*time.Second), guidAlenia, "Alenia-Ravencrest-EU", flagsSelf, guidEloth, "Eloth-Silvermoon-EU"),
		spellLine(base.Add(3*time.Second), guidBrakka, "Brakka-TarrenMill-EU", flagsParty, guidFenlor, "Fenlor-Draenor-EU"),
		diedLine(base.Add(90*time.Second), guidFenlor, "Fenlor-Draenor-EU", 0),
		endLine(base.Add(127*time.Second), 0, 127, 1650, 1648),
	)
	require.Len(t, events, 2)

	wantID := fmt.Sprintf("%d_1552", base.UnixMilli())

	started, ok := events[0].(*MatchStarted)
	require.True(t, ok, "first event should be MatchStarted, got %T", events[0])
	assert.Equal(t, wantID, started.SessionID)
	assert.True(t, started.Timestamp.Equal(base))
	assert.Equal(t, 1552, started.ZoneID)
	assert.Equal(t, Bracket2v2, started.Bracket)
	assert.Equal(t, 38, started.Season)
	assert.True(t, started.Ranked)
	assert.Empty(t, started.Combatants, "combatant dump follows the start line")

	ended, ok := events[1].(*MatchEnded)
	require.True(t, ok, "second event should be MatchEnded, got %T", events[1])
	assert.Equal(t, wantID, ended.SessionID)

	meta := ended.Metadata
	assert.Equal(t, Bracket2v2, meta.Bracket)
	assert.Equal(t, 38, meta.Season)
	assert.True(t, meta.Ranked)
	assert.True(t, meta.Timestamp.Equal(base))
	assert.Equal(t, 1552, meta.ZoneID)
	require.NotNil(t, meta.WinningTeam)
	assert.Equal(t, 0, *meta.WinningTeam)
	assert.Equal(t, 127, meta.DurationSeconds)
	assert.Equal(t, 1650, meta.Team0MMR)
	assert.Equal(t, 1648, meta.Team1MMR)
	assert.Equal(t, 1, meta.Deaths)
	assert.Equal(t, guidAlenia, meta.RecordingPlayer)
	assert.Nil(t, meta.Rounds)
	assert.Nil(t, meta.Records)

	require.Len(t, meta.Combatants, 4)
	assert.Equal(t, []string{guidAlenia, guidBrakka, guidEloth, guidFenlor}, combatantGUIDs(meta.Combatants),
		"combatants keep registration order")

	alenia := meta.Combatants[0]
	assert.Equal(t, 0, alenia.TeamID)
	assert.Equal(t, 257, alenia.SpecID)
	assert.Equal(t, ClassPriest, alenia.Class)
	assert.Equal(t, 1820, alenia.Rating)
	assert.Equal(t, 3, alenia.Tier)
	assert.Equal(t, "Alenia", alenia.Name)
	assert.Equal(t, "Ravencrest", alenia.Realm)
	assert.Equal(t, "EU", alenia.Region)
	assert.Equal(t, ClassMage, meta.Combatants[2].Class)

	_, open := p.CurrentSession()
	assert.False(t, open, "session should be closed after the end line")
}

func TestParser_MatchStartSkips(t *testing.T) {
	base := time.Date(2025, 8, 12, 19, 30, 0, 0, time.Local)

	tests := []struct {
		name   string
		line   string
		reason SkipReason
	}{
		{
			name:   "skirmish token",
			line:   startLine(base, 1552, 38, "Skirmish", 0),
			reason: SkipUnknownBracket,
		},
		{
			name:   "unranked 2v2",
			line:   startLine(base, 1552, 38, "2v2", 0),
			reason: SkipUnranked,
		},
		{
			name:   "missing ranked flag",
			line:   logTime(base) + "  ARENA_MATCH_START,1552,38,3v3",
			reason: SkipUnranked,
		},
		{
			name:   "unusable zone id",
			line:   logTime(base) + "  ARENA_MATCH_START,,38,3v3,1",
			reason: SkipBadField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser()
			ev, err := p.ParseLine(tt.line)
			assert.Nil(t, ev)
			var skip *SkipError
			require.ErrorAs(t, err, &skip)
			assert.Equal(t, tt.reason, skip.Reason)
			_, open := p.CurrentSession()
			assert.False(t, open, "skipped start must not open a session")
		})
	}
}

func TestParser_EndWithoutStart(t *testing.T) {
	p := NewParser()
	base := time.Date(2025, 8, 12, 19, 30, 0, 0, time.Local)

	ev, err := p.ParseLine(endLine(base, 0, 127, 1650, 1648))
	assert.Nil(t, ev)
	var skip *SkipError
	require.ErrorAs(t, err, &skip)
	assert.Equal(t, SkipNoSession, skip.Reason)
}

func TestParser_MalformedAndEmptyLines(t *testing.T) {
	p := NewParser()

	for _, raw := range []string{"", "   ", "\t"} {
		ev, err := p.ParseLine(raw)
		assert.Nil(t, ev)
		assert.NoError(t, err, "blank lines are consumed silently")
	}

	for _, raw := range []string{
		"total garbage without a separator",
		"not a date  ZONE_CHANGE,1,\"X\",0",
		"5/7/1999 10:00:00.000  ZONE_CHANGE,1,\"X\",0",
	} {
		ev, err := p.ParseLine(raw)
		assert.Nil(t, ev)
		var skip *SkipError
		require.ErrorAs(t, err, &skip, "line: %s", raw)
		assert.Equal(t, SkipMalformedLine, skip.Reason)
	}
}

func TestParser_DuplicateStartKeepsCombatants(t *testing.T) {
	base := time.Date(2025, 8, 12, 19, 30, 0, 0, time.Local)
	p := NewParser()

	events := feed(t, p,
		startLine(base, 1552, 38, "3v3", 1),
		combatantLine(base.Add(time.Second), guidAlenia, 0, 257, 1820, 3),
		combatantLine(base.Add(time.Second), guidEloth, 1, 62, 1810, 3),
		// Client reload re-logs the start mid-match.
		startLine(base.Add(30*time.Second), 1552, 38, "3v3", 1),
	)
	require.Len(t, events, 2)

	first := events[0].(*MatchStarted)
	second, ok := events[1].(*MatchStarted)
	require.True(t, ok)
	assert.Equal(t, first.SessionID, second.SessionID, "reload keeps the session id")
	require.Len(t, second.Combatants, 2, "reload keeps the registry")
	assert.Equal(t, guidAlenia, second.Combatants[0].GUID)
}

func TestParser_BracketSwitchResetsState(t *testing.T) {
	base := time.Date(2025, 8, 12, 19, 30, 0, 0, time.Local)
	p := NewParser()

	events := feed(t, p,
		startLine(base, 1552, 38, "2v2", 1),
		combatantLine(base.Add(time.Second), guidAlenia, 0, 257, 1820, 3),
		startLine(base.Add(45*time.Second), 1552, 38, "3v3", 1),
	)
	require.Len(t, events, 2)

	first := events[0].(*MatchStarted)
	second, ok := events[1].(*MatchStarted)
	require.True(t, ok)
	assert.Equal(t, first.SessionID, second.SessionID, "id carries over from the open session")
	assert.Equal(t, Bracket3v3, second.Bracket)
	assert.Empty(t, second.Combatants, "bracket switch drops the stale registry")
}

func TestParser_ShuffleSession(t *testing.T) {
	base := time.Date(2025, 8, 12, 20, 0, 0, 0, time.Local)
	p := NewParser()

	team0 := []struct {
		guid string
		spec int
	}{
		{guidAlenia, 257},
		{guidBrakka, 71},
		{guidCedras, 103},
	}
	team1 := []struct {
		guid string
		spec int
	}{
		{guidDorn, 62},
		{guidEloth, 270},
		{guidFenlor, 577},
	}

	var lines []string
	lines = append(lines, startLine(base, 2167, 38, "Solo Shuffle", 1))
	lines = append(lines, zoneLine(base.Add(time.Second), 2167, "Enigma Crucible"))

	for round := 0; round < 6; round++ {
		roundStart := base.Add(time.Duration(round) * 3 * time.Minute)
		if round > 0 {
			// Round boundary: another start line, not a new match.
			lines = append(lines, startLine(roundStart, 2167, 38, "Solo Shuffle", 1))
		}
		dump := roundStart.Add(2 * time.Second)
		for _, c := range team0 {
			lines = append(lines, combatantLine(dump, c.guid, 0, c.spec, 1700, 2))
		}
		for _, c := range team1 {
			lines = append(lines, combatantLine(dump, c.guid, 1, c.spec, 1700, 2))
		}
		if round == 0 {
			lines = append(lines, spellLine(roundStart.Add(5*time.Second),
				guidAlenia, "Alenia-Ravencrest-EU", flagsSelf, guidDorn, "Dorn-Stormscale-EU"))
		}
		death := roundStart.Add(150 * time.Second)
		if round%2 == 0 {
			lines = append(lines, diedLine(death, guidFenlor, "Fenlor-Draenor-EU", 0))
		} else {
			lines = append(lines, diedLine(death, guidCedras, "Cedras-Ravencrest-EU", 0))
		}
	}
	lines = append(lines, endLine(base.Add(18*time.Minute), 0, 1080, 1650, 1655))

	events := feed(t, p, lines...)
	require.Len(t, events, 3, "one start, one zone change, one end for the whole session")

	started, ok := events[0].(*MatchStarted)
	require.True(t, ok)
	assert.Equal(t, BracketSoloShuffle, started.Bracket)
	assert.True(t, started.Ranked, "shuffle sessions are always ranked")

	zone, ok := events[1].(*ZoneChanged)
	require.True(t, ok)
	assert.Equal(t, started.SessionID, zone.SessionID)
	assert.Equal(t, "Enigma Crucible", zone.ZoneName)

	ended, ok := events[2].(*MatchEnded)
	require.True(t, ok)
	assert.Equal(t, started.SessionID, ended.SessionID)

	meta := ended.Metadata
	assert.Equal(t, BracketSoloShuffle, meta.Bracket)
	assert.Equal(t, 1080, meta.DurationSeconds)
	assert.Equal(t, 1650, meta.Team0MMR)
	assert.Equal(t, 1655, meta.Team1MMR)
	assert.Nil(t, meta.WinningTeam, "shuffle outcome lives in rounds, not a winning team")
	assert.Equal(t, guidAlenia, meta.RecordingPlayer)

	require.Len(t, meta.Rounds, 6)
	for i, r := range meta.Rounds {
		assert.Equal(t, i+1, r.Number)
		assert.Equal(t, int64(i)*180000, r.StartOffsetMS)
		assert.Equal(t, int64(i)*180000+150000, r.EndOffsetMS, "round %d ends at its death", i+1)
		assert.Equal(t, 150, r.DurationSeconds)
		require.NotNil(t, r.WinningTeam, "round %d should be decided", i+1)
		if i%2 == 0 {
			assert.Equal(t, 0, *r.WinningTeam)
			assert.Equal(t, guidFenlor, r.KilledPlayer)
		} else {
			assert.Equal(t, 1, *r.WinningTeam)
			assert.Equal(t, guidCedras, r.KilledPlayer)
		}
		assert.Len(t, r.Combatants, 6, "round %d roster", i+1)
	}

	require.Len(t, meta.Records, 6)
	for guid, rec := range meta.Records {
		assert.Equal(t, 3, rec.Wins, "wins for %s", guid)
		assert.Equal(t, 3, rec.Losses, "losses for %s", guid)
	}

	// Names resurface from the buffered round 1 spell line even though
	// each round boundary cleared the registry.
	require.Len(t, meta.Combatants, 6)
	byGUID := make(map[string]PlayerMetadata, 6)
	for _, c := range meta.Combatants {
		byGUID[c.GUID] = c
	}
	assert.Equal(t, "Alenia", byGUID[guidAlenia].Name)
	assert.Equal(t, "Dorn", byGUID[guidDorn].Name)
	assert.Empty(t, byGUID[guidBrakka].Name, "never seen in a spell line")
}

func TestParser_ShuffleZoneAwayDropsRounds(t *testing.T) {
	base := time.Date(2025, 8, 12, 20, 0, 0, 0, time.Local)
	p := NewParser()

	events := feed(t, p,
		startLine(base, 2167, 38, "Rated Solo Shuffle", 1),
		combatantLine(base.Add(time.Second), guidAlenia, 0, 257, 1700, 2),
		combatantLine(base.Add(time.Second), guidDorn, 1, 62, 1700, 2),
		diedLine(base.Add(100*time.Second), guidDorn, "Dorn-Stormscale-EU", 0),
		// Player leaves the arena before the session end is logged.
		zoneLine(base.Add(200*time.Second), 85, "Orgrimmar"),
		endLine(base.Add(300*time.Second), 0, 300, 1650, 1655),
	)
	require.Len(t, events, 3)

	zone, ok := events[1].(*ZoneChanged)
	require.True(t, ok)
	assert.Equal(t, 85, zone.ZoneID)
	assert.NotEmpty(t, zone.SessionID, "session is still open during the zone change")

	ended, ok := events[2].(*MatchEnded)
	require.True(t, ok)
	assert.Empty(t, ended.Metadata.Rounds, "round state was dropped on leaving the arena")
	assert.Empty(t, ended.Metadata.Records)
	assert.Equal(t, 300, ended.Metadata.DurationSeconds)
}

func TestParser_ShuffleStartAbandonsOpenMatch(t *testing.T) {
	base := time.Date(2025, 8, 12, 19, 30, 0, 0, time.Local)
	p := NewParser()

	events := feed(t, p,
		startLine(base, 1552, 38, "2v2", 1),
		combatantLine(base.Add(time.Second), guidAlenia, 0, 257, 1820, 3),
		startLine(base.Add(time.Minute), 2167, 38, "Solo Shuffle", 1),
	)
	require.Len(t, events, 2)

	first := events[0].(*MatchStarted)
	second, ok := events[1].(*MatchStarted)
	require.True(t, ok)
	assert.NotEqual(t, first.SessionID, second.SessionID, "a shuffle start opens a fresh session")
	assert.Equal(t, BracketSoloShuffle, second.Bracket)
	assert.Empty(t, second.Combatants)

	info, open := p.CurrentSession()
	require.True(t, open)
	assert.Equal(t, second.SessionID, info.ID)
}

func TestParser_DeathCounting(t *testing.T) {
	base := time.Date(2025, 8, 12, 19, 30, 0, 0, time.Local)
	p := NewParser()

	events := feed(t, p,
		startLine(base, 1552, 38, "2v2", 1),
		combatantLine(base.Add(time.Second), guidAlenia, 0, 257, 1820, 3),
		combatantLine(base.Add(time.Second), guidEloth, 1, 62, 1810, 3),
		// Feign death: recap flag set, not a real death.
		diedLine(base.Add(30*time.Second), guidEloth, "Eloth-Silvermoon-EU", 1),
		// Pet death: not a player.
		diedLine(base.Add(40*time.Second), "Creature-0-1096-1552-170-26125", "Risen Ghoul", 0),
		diedLine(base.Add(50*time.Second), guidEloth, "Eloth-Silvermoon-EU", 0),
		endLine(base.Add(90*time.Second), 0, 90, 1650, 1648),
	)
	require.Len(t, events, 2)

	ended := events[1].(*MatchEnded)
	assert.Equal(t, 1, ended.Metadata.Deaths, "only real player deaths count")
}

func TestParser_IdentityFromBufferedLines(t *testing.T) {
	base := time.Date(2025, 8, 12, 19, 30, 0, 0, time.Local)
	p := NewParser()

	events := feed(t, p,
		startLine(base, 1552, 38, "2v2", 1),
		// Names Brakka before any COMBATANT_INFO registered the GUID;
		// only the buffered copy of this line can attach it later.
		spellLine(base.Add(time.Second), guidEloth, "Eloth-Silvermoon-EU", flagsHostile, guidBrakka, "Brakka-TarrenMill-EU"),
		combatantLine(base.Add(2*time.Second), guidAlenia, 0, 257, 1820, 3),
		combatantLine(base.Add(2*time.Second), guidBrakka, 0, 71, 1795, 2),
		spellLine(base.Add(3*time.Second), guidAlenia, "Alenia-Ravencrest-EU", flagsSelf, guidEloth, "Eloth-Silvermoon-EU"),
		endLine(base.Add(60*time.Second), 1, 60, 1650, 1648),
	)
	require.Len(t, events, 2)

	meta := events[1].(*MatchEnded).Metadata
	assert.Equal(t, guidAlenia, meta.RecordingPlayer)

	require.Len(t, meta.Combatants, 2)
	brakka := meta.Combatants[1]
	assert.Equal(t, "Brakka", brakka.Name)
	assert.Equal(t, "TarrenMill", brakka.Realm)
	assert.Equal(t, "EU", brakka.Region)
}

func TestParser_IdentityBufferCap(t *testing.T) {
	base := time.Date(2025, 8, 12, 19, 30, 0, 0, time.Local)
	p := NewParser(WithBufferLimit(2))

	feed(t, p,
		startLine(base, 1552, 38, "2v2", 1),
		spellLine(base.Add(1*time.Second), guidEloth, "Eloth", flagsHostile, guidFenlor, "Fenlor"),
		spellLine(base.Add(2*time.Second), guidEloth, "Eloth", flagsHostile, guidFenlor, "Fenlor"),
		spellLine(base.Add(3*time.Second), guidEloth, "Eloth", flagsHostile, guidFenlor, "Fenlor"),
		spellLine(base.Add(4*time.Second), guidEloth, "Eloth", flagsHostile, guidFenlor, "Fenlor"),
	)

	assert.Len(t, p.gather.lines, 2, "buffer stops growing at the cap")
}

func TestParser_CurrentSession(t *testing.T) {
	base := time.Date(2025, 8, 12, 19, 30, 0, 0, time.Local)
	p := NewParser()

	_, open := p.CurrentSession()
	assert.False(t, open)
	assert.Nil(t, p.CurrentRounds())

	feed(t, p, startLine(base, 2167, 38, "Solo Shuffle", 1))

	info, open := p.CurrentSession()
	require.True(t, open)
	assert.Equal(t, fmt.Sprintf("%d_2167", base.UnixMilli()), info.ID)
	assert.Equal(t, BracketSoloShuffle, info.Bracket)
	assert.Equal(t, 2167, info.ZoneID)
	assert.Equal(t, 38, info.Season)
	assert.True(t, info.Ranked)
	assert.True(t, info.StartTime.Equal(base))

	rounds := p.CurrentRounds()
	require.Len(t, rounds, 1, "round 1 opens with the session")
	assert.Equal(t, 1, rounds[0].Number)

	feed(t, p, endLine(base.Add(time.Minute), 0, 60, 0, 0))
	_, open = p.CurrentSession()
	assert.False(t, open)
}

func combatantGUIDs(list []PlayerMetadata) []string {
	guids := make([]string, len(list))
	for i, c := range list {
		guids[i] = c.GUID
	}
	return guids
}

func TestParser_SkipErrorsWrapReasons(t *testing.T) {
	p := NewParser()

	_, err := p.ParseLine("garbage")
	var skip *SkipError
	require.ErrorAs(t, err, &skip)
	require.NotNil(t, skip.Err, "tokenizer error is preserved")
	assert.Contains(t, skip.Error(), "malformed_line")
}
