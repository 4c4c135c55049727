// Package combatlog tokenizes World of Warcraft combat log lines.
package combatlog

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Tokenizer failure modes. ParseLine wraps these with context.
var (
	ErrBadTimestamp      = errors.New("malformed timestamp")
	ErrUnterminatedQuote = errors.New("unterminated quoted string")
	ErrUnterminatedGroup = errors.New("unterminated group")
)

// Timestamp format in WoW combat logs: "5/7/2024 21:13:31.7750".
// Client-local wall clock, no zone, month/day unpadded, fractional digits
// vary between client builds (time.Parse consumes any fraction).
const timestampLayout = "1/2/2006 15:04:05"

// timestampSep separates the timestamp from the event payload. The client
// writes exactly two spaces.
const timestampSep = "  "

// Combat logs never predate this; smaller years indicate a corrupt date.
const minLogYear = 2000

// ParseLine tokenizes one combat log line.
//
// Returns:
//   - (*Line, nil): successfully tokenized
//   - (nil, error): malformed timestamp or payload syntax
func ParseLine(raw string) (*Line, error) {
	// Trim trailing CR for Windows CRLF compatibility
	raw = strings.TrimRight(raw, "\r")

	sep := strings.Index(raw, timestampSep)
	if sep < 0 {
		return nil, fmt.Errorf("%w: no timestamp separator", ErrBadTimestamp)
	}

	ts, err := parseTimestamp(raw[:sep])
	if err != nil {
		return nil, err
	}

	fields, err := tokenize(raw[sep+len(timestampSep):])
	if err != nil {
		return nil, err
	}

	return &Line{Timestamp: ts, fields: fields}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	ts, err := time.ParseInLocation(timestampLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
	}
	if ts.Year() < minLogYear {
		return time.Time{}, fmt.Errorf("%w: implausible year %d", ErrBadTimestamp, ts.Year())
	}
	return ts, nil
}

// tokenize splits an event payload into its field list. Bracketed groups
// nest, so this is a small recursive descent over the line bytes.
func tokenize(payload string) ([]Field, error) {
	t := &tokenizer{s: payload}
	fields, err := t.list(0)
	if err != nil {
		return nil, err
	}
	if t.pos < len(t.s) {
		return nil, t.syntaxErr("unexpected %q", t.s[t.pos])
	}
	return fields, nil
}

type tokenizer struct {
	s   string
	pos int
}

// list parses a comma-separated field sequence up to close. A close of 0
// means top level, where end of input terminates the list instead.
func (t *tokenizer) list(close byte) ([]Field, error) {
	fields := make([]Field, 0, 8)
	for {
		f, err := t.field(close)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)

		if t.pos >= len(t.s) {
			if close != 0 {
				return nil, fmt.Errorf("%w: missing %q", ErrUnterminatedGroup, string(close))
			}
			return fields, nil
		}
		switch c := t.s[t.pos]; {
		case c == ',':
			t.pos++
		case close != 0 && c == close:
			t.pos++
			return fields, nil
		default:
			if close != 0 && (c == ']' || c == ')') {
				return nil, fmt.Errorf("%w: got %q, want %q", ErrUnterminatedGroup, string(c), string(close))
			}
			return nil, t.syntaxErr("unexpected %q", c)
		}
	}
}

// field parses a single field: quoted string, bracketed group, plain token,
// or empty. Leading spaces are not part of the value.
func (t *tokenizer) field(close byte) (Field, error) {
	for t.pos < len(t.s) && t.s[t.pos] == ' ' {
		t.pos++
	}
	if t.pos >= len(t.s) {
		return Field{}, nil
	}
	switch c := t.s[t.pos]; c {
	case ',':
		return Field{}, nil
	case '"':
		t.pos++
		v, err := t.quoted()
		return Field{Value: v}, err
	case '[':
		t.pos++
		return t.group(']')
	case '(':
		t.pos++
		return t.group(')')
	default:
		if close != 0 && c == close {
			return Field{}, nil
		}
		return t.plain(), nil
	}
}

// group parses a bracketed group body after its opener has been consumed.
// An empty group has zero fields, not one empty field.
func (t *tokenizer) group(close byte) (Field, error) {
	for t.pos < len(t.s) && t.s[t.pos] == ' ' {
		t.pos++
	}
	if t.pos < len(t.s) && t.s[t.pos] == close {
		t.pos++
		return Field{List: []Field{}}, nil
	}
	list, err := t.list(close)
	if err != nil {
		return Field{}, err
	}
	return Field{List: list}, nil
}

// quoted consumes a quoted string body after its opening quote. A doubled
// quote is an escaped literal quote.
func (t *tokenizer) quoted() (string, error) {
	var b strings.Builder
	for t.pos < len(t.s) {
		c := t.s[t.pos]
		if c != '"' {
			b.WriteByte(c)
			t.pos++
			continue
		}
		if t.pos+1 < len(t.s) && t.s[t.pos+1] == '"' {
			b.WriteByte('"')
			t.pos += 2
			continue
		}
		t.pos++
		return b.String(), nil
	}
	return "", ErrUnterminatedQuote
}

// plain consumes an unquoted token. Group closers always terminate it; the
// caller rejects closers that do not match the current nesting.
func (t *tokenizer) plain() Field {
	start := t.pos
	for t.pos < len(t.s) {
		c := t.s[t.pos]
		if c == ',' || c == ']' || c == ')' {
			break
		}
		t.pos++
	}
	return Field{Value: t.s[start:t.pos]}
}

func (t *tokenizer) syntaxErr(format string, args ...any) error {
	return fmt.Errorf("syntax error at offset %d: %s", t.pos, fmt.Sprintf(format, args...))
}
