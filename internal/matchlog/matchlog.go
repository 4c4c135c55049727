// Package matchlog extracts per-match slices of the raw combat log.
//
// A Recorder plugs into the watcher as a LineRecorder: it buffers every
// raw line from a match's start line through its end line and writes the
// slice to <outDir>/<sessionID>.txt when the match completes. Partial
// matches (a new match starting over an open one, or a stream ending
// mid-match) are discarded.
package matchlog

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/arenalog/arenalog-go/internal/safefile"
	"github.com/arenalog/arenalog-go/pkg/arenalog"
)

// DefaultMaxLines caps the per-match line buffer. A Solo Shuffle session
// with full advanced logging stays well under this.
const DefaultMaxLines = 250000

// Recorder buffers raw combat log lines per match and writes one file
// per completed match. Safe for use from a single watcher goroutine;
// the mutex exists so Flush can be called from elsewhere.
type Recorder struct {
	outDir   string
	maxLines int
	log      *slog.Logger

	mu        sync.Mutex
	active    bool
	sessionID string
	lastLine  string
	buf       []string
	truncated bool
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithMaxLines overrides the per-match buffer cap. Values <= 0 keep the
// default.
func WithMaxLines(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.maxLines = n
		}
	}
}

// WithLogger sets the logger. A nil logger disables logging (default).
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.log = logger
		}
	}
}

// New returns a Recorder writing match files into outDir, creating the
// directory if needed.
func New(outDir string, opts ...Option) (*Recorder, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	r := &Recorder{
		outDir:   outDir,
		maxLines: DefaultMaxLines,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// RecordLine buffers raw lines while a match is open. Outside a match it
// only remembers the line, so the match start line itself (seen before
// its event) can open the next buffer.
func (r *Recorder) RecordLine(raw string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastLine = raw
	if !r.active {
		return
	}
	if len(r.buf) >= r.maxLines {
		if !r.truncated {
			r.truncated = true
			r.log.Warn("match log buffer full, dropping further lines",
				"session", r.sessionID, "limit", r.maxLines)
		}
		return
	}
	r.buf = append(r.buf, raw)
}

// RecordEvent reacts to match boundaries. A MatchStarted with a new
// session id opens a fresh buffer seeded with the start line; a
// MatchEnded writes the buffer out and closes it.
func (r *Recorder) RecordEvent(ev arenalog.Event) {
	switch ev := ev.(type) {
	case *arenalog.MatchStarted:
		r.onStart(ev)
	case *arenalog.MatchEnded:
		r.onEnd(ev)
	}
}

func (r *Recorder) onStart(ev *arenalog.MatchStarted) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active && ev.SessionID == r.sessionID {
		// Duplicate start of the same logical match, keep the buffer.
		return
	}
	if r.active {
		r.log.Warn("new match over an open one, discarding partial log",
			"open", r.sessionID, "new", ev.SessionID, "lines", len(r.buf))
	}
	r.active = true
	r.sessionID = ev.SessionID
	r.truncated = false
	r.buf = r.buf[:0]
	if r.lastLine != "" {
		r.buf = append(r.buf, r.lastLine)
	}
}

func (r *Recorder) onEnd(ev *arenalog.MatchEnded) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.active {
		return
	}
	if ev.SessionID != r.sessionID {
		r.log.Warn("match end for a different session, discarding buffer",
			"open", r.sessionID, "ended", ev.SessionID)
		r.reset()
		return
	}
	if err := r.write(); err != nil {
		r.log.Error("writing match log failed", "session", r.sessionID, "err", err)
	}
	r.reset()
}

// write flushes the buffer to <outDir>/<sessionID>.txt atomically.
func (r *Recorder) write() error {
	path := filepath.Join(r.outDir, r.sessionID+".txt")
	data := strings.Join(r.buf, "\n") + "\n"
	if err := safefile.WriteFileAtomic(path, []byte(data), 0o644); err != nil {
		return err
	}
	r.log.Info("match log written", "path", path, "lines", len(r.buf))
	return nil
}

// Discard drops any open buffer without writing it. The watcher calls
// this when its stream ends mid-match.
func (r *Recorder) Discard() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active && len(r.buf) > 0 {
		r.log.Debug("discarding partial match log",
			"session", r.sessionID, "lines", len(r.buf))
	}
	r.reset()
}

func (r *Recorder) reset() {
	r.active = false
	r.sessionID = ""
	r.buf = nil
	r.truncated = false
}
