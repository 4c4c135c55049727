package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/arenalog/arenalog-go/pkg/arenalog"
)

// ValidFormats lists all valid output formats.
var ValidFormats = map[string]bool{
	"jsonl":  true,
	"pretty": true,
}

// ValidFormatNames returns the accepted format names, sorted.
func ValidFormatNames() []string {
	names := make([]string, 0, len(ValidFormats))
	for name := range ValidFormats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// outputEnvelope wraps an event for JSON Lines output. The type tag
// makes streams self-describing without peeking into the payload.
type outputEnvelope struct {
	Type arenalog.EventType `json:"type"`
	Data arenalog.Event     `json:"data"`
}

// OutputEvent writes an event in the given format to the writer.
func OutputEvent(format string, ev arenalog.Event, out io.Writer) error {
	switch format {
	case "jsonl":
		return OutputJSON(ev, out)
	case "pretty":
		return OutputPretty(ev, out)
	default:
		return fmt.Errorf("unknown format %q (valid: %s)",
			format, strings.Join(ValidFormatNames(), ", "))
	}
}

// OutputJSON writes an event as one JSON line.
func OutputJSON(ev arenalog.Event, out io.Writer) error {
	data, err := json.Marshal(outputEnvelope{Type: ev.Type(), Data: ev})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// OutputPretty writes an event in human-readable form.
func OutputPretty(ev arenalog.Event, out io.Writer) error {
	var err error
	switch ev := ev.(type) {
	case *arenalog.MatchStarted:
		_, err = fmt.Fprintf(out, "[%s] > %s started in zone %d (%s)\n",
			ev.Timestamp.Format("15:04:05"), ev.Bracket, ev.ZoneID, ev.SessionID)
	case *arenalog.MatchEnded:
		_, err = io.WriteString(out, prettyMatchEnd(ev))
	case *arenalog.ZoneChanged:
		ts := ev.Timestamp.Format("15:04:05")
		if ev.ZoneName != "" {
			_, err = fmt.Fprintf(out, "[%s] @ %s (zone %d)\n", ts, ev.ZoneName, ev.ZoneID)
		} else {
			_, err = fmt.Fprintf(out, "[%s] @ zone %d\n", ts, ev.ZoneID)
		}
	default:
		_, err = fmt.Fprintf(out, "? %s\n", ev.Type())
	}
	return err
}

func prettyMatchEnd(ev *arenalog.MatchEnded) string {
	meta := ev.Metadata

	outcome := "no result"
	switch {
	case meta.Bracket.IsShuffle():
		outcome = fmt.Sprintf("%d rounds", len(meta.Rounds))
	case meta.WinningTeam != nil:
		outcome = fmt.Sprintf("team %d wins", *meta.WinningTeam)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] < %s ended after %ds: %s (%s)\n",
		meta.Timestamp.Format("15:04:05"), meta.Bracket,
		meta.DurationSeconds, outcome, ev.SessionID)
	for _, line := range prettyRecords(meta) {
		sb.WriteString(line)
	}
	return sb.String()
}

// prettyRecords renders per-player shuffle records, best record first.
func prettyRecords(meta arenalog.MatchMetadata) []string {
	if len(meta.Records) == 0 {
		return nil
	}

	names := make(map[string]string, len(meta.Combatants))
	for _, c := range meta.Combatants {
		names[c.GUID] = c.Name
	}

	guids := make([]string, 0, len(meta.Records))
	for guid := range meta.Records {
		guids = append(guids, guid)
	}
	sort.Slice(guids, func(i, j int) bool {
		ri, rj := meta.Records[guids[i]], meta.Records[guids[j]]
		if ri.Wins != rj.Wins {
			return ri.Wins > rj.Wins
		}
		return guids[i] < guids[j]
	})

	lines := make([]string, 0, len(guids))
	for _, guid := range guids {
		rec := meta.Records[guid]
		name := names[guid]
		if name == "" {
			name = guid
		}
		lines = append(lines, fmt.Sprintf("    %s: %d-%d\n", name, rec.Wins, rec.Losses))
	}
	return lines
}
