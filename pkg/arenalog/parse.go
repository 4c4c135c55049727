package arenalog

import (
	"bufio"
	"fmt"
	"io"

	"github.com/arenalog/arenalog-go/internal/safefile"
)

// maxLineBytes caps a single combat log line during parsing.
// COMBATANT_INFO lines carrying full equipment dumps run tens of KB.
const maxLineBytes = 1024 * 1024

// LineRecorder observes the raw line stream and the events it produces.
// RecordLine runs before a line is parsed, RecordEvent after an event is
// emitted, both synchronously in stream order. Implementations must
// return quickly; a slow recorder stalls the stream.
type LineRecorder interface {
	RecordLine(raw string)
	RecordEvent(ev Event)
}

// ParseFile parses one combat log file and returns its arena events.
// A fresh session parser consumes the file from its first line, so
// matches fully contained in the file come out complete.
func ParseFile(path string, opts ...ParseOption) ([]Event, error) {
	f, _, err := safefile.OpenRegular(path)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()
	return ParseReader(f, opts...)
}

// ParseReader parses a combat log stream from r.
//
// Unusable lines are skipped unless WithParseStopOnError is set; read
// errors always fail the parse. Either way the events gathered so far
// are returned.
func ParseReader(r io.Reader, opts ...ParseOption) ([]Event, error) {
	cfg := applyParseOptions(opts)
	p := NewParser(cfg.parserOpts...)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var events []Event
	for scanner.Scan() {
		raw := scanner.Text()
		if cfg.recorder != nil {
			cfg.recorder.RecordLine(raw)
		}
		ev, err := p.ParseLine(raw)
		if err != nil {
			if cfg.stopOnError {
				return events, &ParseError{Line: raw, Err: err}
			}
			continue
		}
		if ev == nil {
			continue
		}
		if cfg.recorder != nil {
			cfg.recorder.RecordEvent(ev)
		}
		if cfg.filter.Allows(ev.Type()) {
			events = append(events, ev)
		}
	}
	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("reading log: %w", err)
	}
	return events, nil
}
