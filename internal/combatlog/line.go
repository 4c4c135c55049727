package combatlog

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Field is one comma-separated value of a combat log line. A field is
// either a scalar (Value set) or a bracketed group of nested fields
// (List set).
type Field struct {
	Value string
	List  []Field
}

// IsGroup reports whether the field is a bracketed group.
func (f Field) IsGroup() bool { return f.List != nil }

// Line is one tokenized combat log line. Lines are read-only once parsed;
// callers extract what they need and drop the reference.
type Line struct {
	// Timestamp is the client-local wall clock time of the event.
	Timestamp time.Time

	fields []Field
}

// EventType returns the event type token (field 0), or "" on an empty
// payload.
func (l *Line) EventType() string { return l.Arg(0) }

// Len returns the number of top-level fields.
func (l *Line) Len() int { return len(l.fields) }

// Arg returns the scalar value of field i, or "" when the field is absent
// or a bracketed group. Absent and empty are deliberately the same: callers
// treat both as missing data.
func (l *Line) Arg(i int) string {
	if i < 0 || i >= len(l.fields) {
		return ""
	}
	return l.fields[i].Value
}

// Field returns field i and whether it exists.
func (l *Line) Field(i int) (Field, bool) {
	if i < 0 || i >= len(l.fields) {
		return Field{}, false
	}
	return l.fields[i], true
}

// IntArg parses field i as a base-10 integer.
func (l *Line) IntArg(i int) (int, error) {
	s := l.Arg(i)
	if s == "" {
		return 0, fmt.Errorf("field %d: empty or absent", i)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("field %d: %w", i, err)
	}
	return n, nil
}

// HexArg parses field i as a hexadecimal bit field. Unit flags are always
// written with an 0x prefix; requiring it keeps names and GUIDs that happen
// to be valid hex digits from parsing as flags.
func (l *Line) HexArg(i int) (uint64, error) {
	s := l.Arg(i)
	if s == "" {
		return 0, fmt.Errorf("field %d: empty or absent", i)
	}
	if !strings.HasPrefix(s, "0x") {
		return 0, fmt.Errorf("field %d: %q is not a hex bit field", i, s)
	}
	n, err := strconv.ParseUint(s[2:], 16, 64)
	if err != nil {
		return 0, fmt.Errorf("field %d: %w", i, err)
	}
	return n, nil
}
