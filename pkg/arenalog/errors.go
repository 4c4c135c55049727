package arenalog

import (
	"errors"
	"fmt"

	"github.com/arenalog/arenalog-go/internal/logfinder"
)

// Sentinel errors returned by the watcher.
var (
	// ErrWatcherClosed is returned by Watch after Close has been called.
	ErrWatcherClosed = errors.New("watcher is closed")
	// ErrAlreadyWatching is returned when Watch is called twice on the
	// same watcher.
	ErrAlreadyWatching = errors.New("watcher is already watching")
	// ErrLogDirNotFound means no combat log directory could be located.
	ErrLogDirNotFound = logfinder.ErrLogDirNotFound
	// ErrNoLogFiles means the log directory holds no combat log files.
	ErrNoLogFiles = logfinder.ErrNoLogFiles
)

// WatchOp identifies the watcher operation that failed.
type WatchOp string

const (
	WatchOpFindLatest WatchOp = "find_latest"
	WatchOpTail       WatchOp = "tail"
	WatchOpRotation   WatchOp = "rotation"
)

// WatchError wraps a watcher failure with its operation and, when known,
// the file involved.
type WatchError struct {
	Op   WatchOp
	Path string
	Err  error
}

func (e *WatchError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("watch %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("watch %s: %v", e.Op, e.Err)
}

func (e *WatchError) Unwrap() error { return e.Err }

// ParseError wraps a per-line parse failure together with the offending
// line. The watcher reports these on its error channel and keeps going.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse line %q: %v", truncateLine(e.Line, 120), e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func truncateLine(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// SkipReason classifies why the session parser dropped a line without
// emitting an event.
type SkipReason string

const (
	// SkipMalformedLine marks lines the tokenizer rejected.
	SkipMalformedLine SkipReason = "malformed_line"
	// SkipUnknownBracket marks match starts naming no known bracket.
	SkipUnknownBracket SkipReason = "unknown_bracket"
	// SkipUnranked marks skirmish and otherwise unranked match starts.
	SkipUnranked SkipReason = "unranked"
	// SkipNoSession marks a match end arriving with no open match.
	SkipNoSession SkipReason = "no_session"
	// SkipBadField marks events whose required numeric fields were
	// unusable.
	SkipBadField SkipReason = "bad_field"
	// SkipInternal marks lines dropped after an internal failure, so a
	// single bad line cannot wedge the stream.
	SkipInternal SkipReason = "internal"
)

// SkipError reports a dropped line. ParseLine returns it instead of
// failing silently so callers can count and inspect skips.
type SkipError struct {
	Reason    SkipReason
	EventType string
	Err       error
}

func (e *SkipError) Error() string {
	msg := "line skipped: " + string(e.Reason)
	if e.EventType != "" {
		msg += " (" + e.EventType + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SkipError) Unwrap() error { return e.Err }
