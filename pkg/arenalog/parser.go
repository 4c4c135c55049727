package arenalog

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/arenalog/arenalog-go/internal/combatlog"
)

// Combat log event types the session parser correlates on. Every other
// event type is consumed silently.
const (
	lineArenaMatchStart = "ARENA_MATCH_START"
	lineArenaMatchEnd   = "ARENA_MATCH_END"
	lineCombatantInfo   = "COMBATANT_INFO"
	lineUnitDied        = "UNIT_DIED"
	lineZoneChange      = "ZONE_CHANGE"
	lineSpellPrefix     = "SPELL_"
)

// Field positions on the lines above (field 0 is the event type).
const (
	startFieldZone   = 1
	startFieldSeason = 2
	startFieldType   = 3
	startFieldRanked = 4

	endFieldWinner   = 1
	endFieldDuration = 2
	endFieldMMR0     = 3
	endFieldMMR1     = 4

	infoFieldGUID   = 1
	infoFieldTeam   = 2
	infoFieldSpec   = 24
	infoFieldRating = 31
	infoFieldTier   = 32

	spellFieldSrcGUID  = 1
	spellFieldSrcName  = 2
	spellFieldSrcFlags = 3
	spellFieldDstGUID  = 5
	spellFieldDstName  = 6

	zoneFieldID   = 1
	zoneFieldName = 2
)

// DefaultBufferLimit caps the identity line buffer of one session.
const DefaultBufferLimit = 20000

// Parser correlates combat log lines into arena match events. One Parser
// owns one logical log stream fed line by line in document order; it is
// not safe for concurrent use. Create a fresh Parser per stream.
type Parser struct {
	log      *slog.Logger
	bufLimit int

	state      matchState
	combatants map[string]*PlayerMetadata
	order      []string
	recorder   string
	deaths     int
	gather     *gatherer
}

// ParserOption configures a Parser.
type ParserOption func(*parserConfig)

type parserConfig struct {
	logger   *slog.Logger
	bufLimit int
}

// WithParserLogger sets the logger for parser diagnostics. A nil logger
// disables logging (default).
func WithParserLogger(logger *slog.Logger) ParserOption {
	return func(c *parserConfig) {
		c.logger = logger
	}
}

// WithBufferLimit overrides the identity line buffer cap.
// Values <= 0 keep the default.
func WithBufferLimit(n int) ParserOption {
	return func(c *parserConfig) {
		c.bufLimit = n
	}
}

// NewParser returns a parser ready to consume a log stream from its
// first line.
func NewParser(opts ...ParserOption) *Parser {
	cfg := &parserConfig{bufLimit: DefaultBufferLimit}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.bufLimit <= 0 {
		cfg.bufLimit = DefaultBufferLimit
	}
	log := cfg.logger
	if log == nil {
		log = discardLogger
	}
	return &Parser{
		log:        log,
		bufLimit:   cfg.bufLimit,
		state:      idle{},
		combatants: make(map[string]*PlayerMetadata),
		gather:     newGatherer(cfg.bufLimit),
	}
}

// ParseLine consumes the next log line.
//
// Returns:
//   - (Event, nil): the line completed an arena event
//   - (nil, nil): consumed with nothing to emit (the vast majority)
//   - (nil, *SkipError): the line was dropped; the error says why
//
// ParseLine never panics: internal failures surface as a SkipInternal
// error and the stream keeps going.
func (p *Parser) ParseLine(raw string) (ev Event, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("recovered from parse panic", "panic", r)
			ev = nil
			err = &SkipError{Reason: SkipInternal, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	line, lerr := combatlog.ParseLine(raw)
	if lerr != nil {
		return nil, &SkipError{Reason: SkipMalformedLine, Err: lerr}
	}

	p.gatherIdentity(raw, line)

	switch line.EventType() {
	case lineArenaMatchStart:
		return p.handleMatchStart(line)
	case lineArenaMatchEnd:
		return p.handleMatchEnd(line)
	case lineCombatantInfo:
		return p.handleCombatantInfo(line)
	case lineUnitDied:
		return p.handleUnitDied(line)
	case lineZoneChange:
		return p.handleZoneChange(line)
	}
	return nil, nil
}

// CurrentSession reports the match currently being tracked, if any.
func (p *Parser) CurrentSession() (SessionInfo, bool) {
	sess, open := p.openSession()
	if !open {
		return SessionInfo{}, false
	}
	return SessionInfo{
		ID:        sess.id,
		Bracket:   sess.bracket,
		ZoneID:    sess.zoneID,
		Season:    sess.season,
		Ranked:    sess.ranked,
		StartTime: sess.start,
	}, true
}

// CurrentRounds returns a live snapshot of the open shuffle session's
// rounds, or nil outside shuffle sessions.
func (p *Parser) CurrentRounds() []Round {
	if st, ok := p.state.(openShuffle); ok {
		return st.rounds.CurrentRounds()
	}
	return nil
}

func (p *Parser) openSession() (session, bool) {
	switch st := p.state.(type) {
	case openArena:
		return st.sess, true
	case openShuffle:
		return st.sess, true
	}
	return session{}, false
}

// sessionID derives the stable id of a session: absolute start time in
// milliseconds joined with the arena zone id.
func sessionID(start time.Time, zoneID int) string {
	return fmt.Sprintf("%d_%d", start.UnixMilli(), zoneID)
}

// gatherIdentity runs the per-line identity scan while a session is open
// and still lacks the recording player or combatant names.
func (p *Parser) gatherIdentity(raw string, line *combatlog.Line) {
	if _, open := p.openSession(); !open {
		return
	}
	if p.gather.phase != gatherCollecting {
		return
	}
	p.scanIdentity(line)
	if p.identitySatisfied() {
		p.gather.satisfy()
		return
	}
	p.gather.add(raw, p.log)
}

// identitySatisfied reports whether the session needs no more identity
// scanning: the recording player is known and every registered combatant
// has a display name.
func (p *Parser) identitySatisfied() bool {
	if p.recorder == "" {
		return false
	}
	for _, pm := range p.combatants {
		if pm.Name == "" {
			return false
		}
	}
	return true
}

// scanIdentity inspects a SPELL_* line for the recording player and for
// display names of registered combatants.
func (p *Parser) scanIdentity(line *combatlog.Line) {
	if !strings.HasPrefix(line.EventType(), lineSpellPrefix) {
		return
	}
	if p.recorder == "" {
		guid := line.Arg(spellFieldSrcGUID)
		if combatlog.IsPlayerGUID(guid) {
			if flags, err := line.HexArg(spellFieldSrcFlags); err == nil && combatlog.IsUnitSelf(flags) {
				p.setRecorder(guid)
			}
		}
	}
	p.enrichName(line.Arg(spellFieldSrcGUID), line.Arg(spellFieldSrcName))
	p.enrichName(line.Arg(spellFieldDstGUID), line.Arg(spellFieldDstName))
}

func (p *Parser) setRecorder(guid string) {
	p.recorder = guid
	p.log.Debug("recording player identified", "guid", guid)
	if st, ok := p.state.(openShuffle); ok {
		st.rounds.SetRecordingPlayer(guid)
	}
}

// enrichName fills a registered combatant's display name from a spell
// line. First write wins; "nil" placeholders never count as names.
func (p *Parser) enrichName(guid, display string) {
	pm, ok := p.combatants[guid]
	if !ok || pm.Name != "" || display == "" || display == "nil" {
		return
	}
	pm.Name, pm.Realm, pm.Region = splitDisplayName(display)
	if st, ok := p.state.(openShuffle); ok {
		st.rounds.AddCombatant(guid, pm.TeamID, pm.Name)
	}
}

// rescanBuffer replays buffered lines through the identity scan. Called
// at match end when live scanning never satisfied the need.
func (p *Parser) rescanBuffer() {
	lines := p.gather.lines
	if len(lines) == 0 {
		return
	}
	p.log.Debug("rescanning identity buffer", "lines", len(lines))
	for _, raw := range lines {
		line, err := combatlog.ParseLine(raw)
		if err != nil {
			continue
		}
		p.scanIdentity(line)
		if p.identitySatisfied() {
			break
		}
	}
}

func (p *Parser) handleMatchStart(line *combatlog.Line) (Event, error) {
	bracket, ok := ParseBracket(line.Arg(startFieldType))
	if !ok {
		p.log.Warn("unknown arena bracket", "value", line.Arg(startFieldType))
		return nil, &SkipError{Reason: SkipUnknownBracket, EventType: lineArenaMatchStart}
	}

	// Shuffle sessions are always ranked; everything else must say so.
	ranked := bracket.IsShuffle()
	if !ranked {
		flag, err := line.IntArg(startFieldRanked)
		if err != nil || flag != 1 {
			p.log.Debug("ignoring unranked match", "bracket", string(bracket))
			return nil, &SkipError{Reason: SkipUnranked, EventType: lineArenaMatchStart}
		}
		ranked = true
	}

	zoneID, err := line.IntArg(startFieldZone)
	if err != nil {
		p.log.Warn("match start without usable zone id", "err", err)
		return nil, &SkipError{Reason: SkipBadField, EventType: lineArenaMatchStart, Err: err}
	}
	season, err := line.IntArg(startFieldSeason)
	if err != nil {
		season = 0
	}

	// A start line during an open shuffle session is a round boundary,
	// not a new match. The registry clears so one round's teams cannot
	// bleed into the next.
	if st, ok := p.state.(openShuffle); ok && bracket.IsShuffle() {
		st.rounds.AdvanceRound(line.Timestamp)
		p.clearCombatants()
		return nil, nil
	}

	sess := session{
		start:   line.Timestamp,
		zoneID:  zoneID,
		bracket: bracket,
		season:  season,
		ranked:  ranked,
	}

	if bracket.IsShuffle() {
		// Fresh shuffle session; any open arena match is abandoned.
		if prev, open := p.openSession(); open {
			p.log.Warn("shuffle start while match open, abandoning it",
				"session", prev.id, "bracket", string(prev.bracket))
		}
		p.resetSessionState()
		sess.id = sessionID(line.Timestamp, zoneID)
		tracker := NewShuffleTracker(p.log)
		tracker.Start(sess.id, line.Timestamp)
		p.state = openShuffle{sess: sess, rounds: tracker}
		p.log.Debug("shuffle session started", "session", sess.id, "zone", zoneID)
		return p.startedEvent(sess), nil
	}

	prev, open := p.openSession()
	switch {
	case open && prev.bracket == bracket:
		// Reload case: the client restarted logging mid-match. Same
		// logical match, so reuse the id and keep what we learned.
		sess.id = prev.id
		p.log.Debug("duplicate match start, session id reused", "session", sess.id)
	case open:
		// Bracket switch without a match end. The id carries over from
		// the still-open session but its state is stale.
		sess.id = prev.id
		p.log.Warn("match start while a different match open",
			"session", prev.id, "open_bracket", string(prev.bracket), "new_bracket", string(bracket))
		p.resetSessionState()
	default:
		sess.id = sessionID(line.Timestamp, zoneID)
	}

	p.state = openArena{sess: sess}
	p.log.Debug("match started", "session", sess.id, "bracket", string(bracket), "zone", zoneID)
	return p.startedEvent(sess), nil
}

func (p *Parser) startedEvent(sess session) *MatchStarted {
	return &MatchStarted{
		Timestamp:  sess.start,
		SessionID:  sess.id,
		ZoneID:     sess.zoneID,
		Bracket:    sess.bracket,
		Season:     sess.season,
		Ranked:     sess.ranked,
		Combatants: p.combatantList(),
	}
}

func (p *Parser) handleMatchEnd(line *combatlog.Line) (Event, error) {
	sess, open := p.openSession()
	if !open {
		p.log.Warn("match end without open match")
		return nil, &SkipError{Reason: SkipNoSession, EventType: lineArenaMatchEnd}
	}

	// Last chance to learn who recorded the log and what the players
	// were called.
	if !p.identitySatisfied() {
		p.rescanBuffer()
	}

	var rounds []Round
	if st, ok := p.state.(openShuffle); ok {
		if state, done := st.rounds.Finalize(line.Timestamp); done {
			rounds = state.Rounds
		}
		st.rounds.Reset()
	}

	meta, ok := p.buildMetadata(sess, line, rounds)

	// Session state always clears on an end line, buildable or not.
	p.resetSessionState()
	p.state = idle{}

	if !ok {
		return nil, &SkipError{Reason: SkipInternal, EventType: lineArenaMatchEnd}
	}
	p.log.Debug("match ended", "session", sess.id, "duration_s", meta.DurationSeconds)
	return &MatchEnded{SessionID: sess.id, Metadata: meta}, nil
}

// buildMetadata assembles the final snapshot for an ending session.
func (p *Parser) buildMetadata(sess session, line *combatlog.Line, rounds []Round) (MatchMetadata, bool) {
	if sess.id == "" {
		// Open states always carry an id; reaching here means state
		// handling broke.
		p.log.Error("open session has no id at match end")
		return MatchMetadata{}, false
	}
	if sess.start.IsZero() || sess.zoneID == 0 || sess.bracket == "" {
		p.log.Warn("match end with incomplete session context", "session", sess.id)
		return MatchMetadata{}, false
	}

	meta := MatchMetadata{
		Bracket:         sess.bracket,
		Season:          sess.season,
		Ranked:          sess.ranked,
		Timestamp:       sess.start,
		ZoneID:          sess.zoneID,
		Combatants:      p.combatantList(),
		RecordingPlayer: p.recorder,
		Deaths:          p.deaths,
	}

	// End-line numerics are best effort: a missing MMR must not cost
	// the whole match.
	meta.Team0MMR = p.endField(line, endFieldMMR0, "team0_mmr")
	meta.Team1MMR = p.endField(line, endFieldMMR1, "team1_mmr")
	meta.DurationSeconds = p.endField(line, endFieldDuration, "duration")

	if sess.bracket.IsShuffle() {
		if len(rounds) > 0 {
			meta.Rounds = rounds
			meta.Records = roundRecords(rounds)
		}
	} else if winner, err := line.IntArg(endFieldWinner); err == nil {
		meta.WinningTeam = &winner
	} else {
		p.log.Debug("end line without usable winning team", "err", err)
	}

	return meta, true
}

func (p *Parser) endField(line *combatlog.Line, i int, what string) int {
	n, err := line.IntArg(i)
	if err != nil {
		p.log.Debug("unusable end line field", "field", what, "err", err)
		return 0
	}
	return n
}

// roundRecords computes per-player win/loss tallies over decided rounds.
func roundRecords(rounds []Round) map[string]RoundRecord {
	records := make(map[string]RoundRecord)
	for _, r := range rounds {
		if r.WinningTeam == nil {
			continue
		}
		for guid, c := range r.Combatants {
			rec := records[guid]
			if c.TeamID == *r.WinningTeam {
				rec.Wins++
			} else {
				rec.Losses++
			}
			records[guid] = rec
		}
	}
	return records
}

func (p *Parser) handleCombatantInfo(line *combatlog.Line) (Event, error) {
	// Combatant dumps also appear for raid and dungeon encounters. Only
	// an open arena session owns a registry to fill.
	if _, open := p.openSession(); !open {
		return nil, nil
	}

	guid := line.Arg(infoFieldGUID)
	if guid == "" {
		return nil, &SkipError{Reason: SkipBadField, EventType: lineCombatantInfo}
	}
	teamID, err := line.IntArg(infoFieldTeam)
	if err != nil {
		p.log.Warn("combatant with unusable team id", "guid", guid, "err", err)
		return nil, &SkipError{Reason: SkipBadField, EventType: lineCombatantInfo, Err: err}
	}
	specID, err := line.IntArg(infoFieldSpec)
	if err != nil {
		p.log.Warn("combatant with unusable spec id", "guid", guid, "err", err)
		return nil, &SkipError{Reason: SkipBadField, EventType: lineCombatantInfo, Err: err}
	}

	pm, known := p.combatants[guid]
	if !known {
		pm = &PlayerMetadata{GUID: guid}
		p.combatants[guid] = pm
		p.order = append(p.order, guid)
	}
	pm.TeamID = teamID
	pm.SpecID = specID
	pm.Class = ClassForSpec(specID)
	if rating, err := line.IntArg(infoFieldRating); err == nil {
		pm.Rating = rating
	}
	if tier, err := line.IntArg(infoFieldTier); err == nil {
		pm.Tier = tier
	}

	// A nameless combatant reopens the identity scan.
	if pm.Name == "" {
		p.gather.reopen()
	}
	if st, ok := p.state.(openShuffle); ok {
		st.rounds.AddCombatant(guid, teamID, pm.Name)
	}
	return nil, nil
}

func (p *Parser) handleUnitDied(line *combatlog.Line) (Event, error) {
	switch st := p.state.(type) {
	case openShuffle:
		st.rounds.HandleDeath(line)
	case openArena:
		if d, ok := extractDeath(line); ok {
			p.deaths++
			p.log.Debug("player death", "victim", d.VictimGUID, "count", p.deaths)
		}
	}
	return nil, nil
}

func (p *Parser) handleZoneChange(line *combatlog.Line) (Event, error) {
	zoneID, err := line.IntArg(zoneFieldID)
	if err != nil {
		p.log.Warn("zone change with unusable zone id", "err", err)
		return nil, &SkipError{Reason: SkipBadField, EventType: lineZoneChange, Err: err}
	}

	sessID := ""
	if st, ok := p.state.(openShuffle); ok {
		sessID = st.sess.id
		if zoneID != st.sess.zoneID && st.rounds.Active() {
			// Leaving the arena mid-shuffle aborts round tracking. The
			// session itself stays open until its end line.
			p.log.Warn("zone change away from active shuffle, dropping round state",
				"session", st.sess.id, "zone", zoneID)
			st.rounds.Reset()
		}
	} else if sess, open := p.openSession(); open {
		sessID = sess.id
	}

	return &ZoneChanged{
		Timestamp: line.Timestamp,
		ZoneID:    zoneID,
		ZoneName:  line.Arg(zoneFieldName),
		SessionID: sessID,
	}, nil
}

// combatantList snapshots the registry in registration order.
func (p *Parser) combatantList() []PlayerMetadata {
	list := make([]PlayerMetadata, 0, len(p.order))
	for _, guid := range p.order {
		if pm, ok := p.combatants[guid]; ok {
			list = append(list, *pm)
		}
	}
	return list
}

func (p *Parser) clearCombatants() {
	p.combatants = make(map[string]*PlayerMetadata)
	p.order = p.order[:0]
}

// resetSessionState drops everything tied to the current session. The
// caller replaces p.state itself.
func (p *Parser) resetSessionState() {
	p.clearCombatants()
	p.recorder = ""
	p.deaths = 0
	p.gather.reset()
}
