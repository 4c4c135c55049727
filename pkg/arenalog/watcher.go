package arenalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/arenalog/arenalog-go/internal/logfinder"
	"github.com/arenalog/arenalog-go/internal/tailer"
)

// watcherErrBuffer is the buffer size for the error channel.
// A small buffer prevents error loss during brief moments when the consumer
// is busy processing events, while keeping memory usage minimal.
const watcherErrBuffer = 16

// discardLogger is shared by every component that was given no logger.
var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Watcher monitors the live combat log and emits arena match events.
// Each log file gets its own session parser, so a rotation can never
// carry match state from one file into another.
type Watcher struct {
	cfg    watchConfig // internal configuration (immutable after creation)
	logDir string
	log    *slog.Logger

	mu       sync.Mutex
	closed   bool
	cancel   context.CancelFunc // cancel func to stop the goroutine
	doneCh   chan struct{}      // signals when goroutine has exited
	watching bool               // true if Watch() has been called
}

// Watch starts watching and returns channels.
// Starts internal goroutines here.
// When ctx is cancelled, channels are closed automatically.
// Both channels close on ctx.Done() or fatal error.
// Watch can only be called once per Watcher instance.
//
// Returns ErrWatcherClosed if the watcher has been closed.
// Returns ErrAlreadyWatching if Watch() has already been called.
func (w *Watcher) Watch(ctx context.Context) (<-chan Event, <-chan error, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, nil, ErrWatcherClosed
	}
	if w.watching {
		return nil, nil, ErrAlreadyWatching
	}
	w.watching = true

	// Create cancellable context
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.doneCh = make(chan struct{})

	eventCh := make(chan Event)
	errCh := make(chan error, watcherErrBuffer)

	go w.run(ctx, eventCh, errCh)

	return eventCh, errCh, nil
}

// Close stops the watcher and releases resources.
// Safe to call multiple times.
// Blocks until the goroutine has exited.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true

	// Cancel the context to stop the goroutine
	if w.cancel != nil {
		w.cancel()
	}
	doneCh := w.doneCh
	w.mu.Unlock()

	// Wait for goroutine to exit if Watch was called
	if doneCh != nil {
		<-doneCh
	}
	return nil
}

func (w *Watcher) run(ctx context.Context, eventCh chan<- Event, errCh chan<- error) {
	defer close(w.doneCh) // Signal that goroutine has exited
	defer close(eventCh)
	defer close(errCh)

	// Find latest log file (with optional waiting)
	logFile, err := w.findLogFileWithWait(ctx, errCh)
	if err != nil {
		// Error already sent to errCh by findLogFileWithWait
		return
	}
	w.log.Debug("found latest combat log", "path", logFile)

	// Configure tailer
	cfg := tailer.DefaultConfig()
	cfg.FromStart = w.cfg.fromStart

	// Start tailer
	t, err := tailer.New(ctx, logFile, cfg)
	if err != nil {
		sendError(ctx, errCh, &WatchError{Op: WatchOpTail, Path: logFile, Err: err})
		return
	}
	w.log.Debug("started tailing", "path", logFile, "from_start", cfg.FromStart)

	// One session parser per log file. A new file means a new logical
	// stream, so rotation below replaces the parser too.
	parser := w.newParser()

	// Set poll interval for log rotation check (defaultWatchConfig guarantees valid interval)
	rotationTicker := time.NewTicker(w.cfg.pollInterval)
	defer rotationTicker.Stop()
	defer func() { _ = t.Stop() }()

	currentFile := logFile

	// Process lines
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-t.Lines():
			if !ok {
				return
			}
			w.processLine(ctx, parser, line, eventCh, errCh)
		case err, ok := <-t.Errors():
			if !ok {
				return
			}
			sendError(ctx, errCh, err)
		case <-rotationTicker.C:
			// Check for new log file (log rotation)
			newFile, err := logfinder.FindLatestLogFile(w.logDir)
			if err != nil {
				sendError(ctx, errCh, &WatchError{Op: WatchOpRotation, Err: err})
				continue
			}
			if newFile != currentFile {
				// New log file found, switch to it
				w.log.Debug("log rotation detected", "from", currentFile, "to", newFile)
				if sess, open := parser.CurrentSession(); open {
					w.log.Warn("log rotated with a match open, dropping partial state",
						"session", sess.ID, "bracket", string(sess.Bracket),
						"rounds", len(parser.CurrentRounds()))
				}
				_ = t.Stop()
				cfg := tailer.DefaultConfig()
				cfg.FromStart = true // Read new file from start
				newTailer, err := tailer.New(ctx, newFile, cfg)
				if err != nil {
					sendError(ctx, errCh, &WatchError{Op: WatchOpTail, Path: newFile, Err: err})
					continue
				}
				t = newTailer
				currentFile = newFile
				parser = w.newParser()
			}
		}
	}
}

func (w *Watcher) newParser() *Parser {
	opts := make([]ParserOption, 0, len(w.cfg.parserOpts)+1)
	opts = append(opts, WithParserLogger(w.cfg.logger))
	opts = append(opts, w.cfg.parserOpts...)
	return NewParser(opts...)
}

// findLogFileWithWait finds the latest log file, optionally waiting if none exist yet.
// Returns the log file path or an error (error is also sent to errCh).
func (w *Watcher) findLogFileWithWait(ctx context.Context, errCh chan<- error) (string, error) {
	logFile, err := logfinder.FindLatestLogFile(w.logDir)

	// If we found a file or got an error other than ErrNoLogFiles, return immediately
	if err == nil {
		return logFile, nil
	}
	if !errors.Is(err, ErrNoLogFiles) {
		sendError(ctx, errCh, &WatchError{Op: WatchOpFindLatest, Err: err})
		return "", err
	}

	// We got ErrNoLogFiles - check if we should wait
	if !w.cfg.waitForLogs {
		sendError(ctx, errCh, &WatchError{Op: WatchOpFindLatest, Err: err})
		return "", err
	}

	// Wait for log files to appear
	w.log.Debug("no combat logs found, waiting for logs to appear", "poll_interval", w.cfg.pollInterval)
	ticker := time.NewTicker(w.cfg.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Send error directly (not via sendError) since context is already cancelled
			err := ctx.Err()
			select {
			case errCh <- &WatchError{Op: WatchOpFindLatest, Err: err}:
			default:
				// Channel buffer full, which is very unlikely but non-fatal
			}
			return "", err
		case <-ticker.C:
			logFile, err := logfinder.FindLatestLogFile(w.logDir)
			if err == nil {
				w.log.Debug("combat log appeared", "path", logFile)
				return logFile, nil
			}
			if !errors.Is(err, ErrNoLogFiles) {
				// Different error occurred (e.g., permission denied)
				sendError(ctx, errCh, &WatchError{Op: WatchOpFindLatest, Err: err})
				return "", err
			}
			// Still no log files, continue waiting
		}
	}
}

func (w *Watcher) processLine(ctx context.Context, p *Parser, line string, eventCh chan<- Event, errCh chan<- error) {
	if w.cfg.recorder != nil {
		w.cfg.recorder.RecordLine(line)
	}

	ev, err := p.ParseLine(line)
	if err != nil {
		sendError(ctx, errCh, &ParseError{Line: line, Err: err})
		return
	}
	if ev == nil {
		return // Consumed without an event
	}

	if w.cfg.recorder != nil {
		w.cfg.recorder.RecordEvent(ev)
	}

	// Apply event type filter
	if w.cfg.filter != nil && !w.cfg.filter.Allows(ev.Type()) {
		return
	}

	// Send event
	select {
	case eventCh <- ev:
	case <-ctx.Done():
	}
}

// sendError sends an error to the error channel.
// With a buffered channel, errors are only dropped if the buffer is full.
// The context case ensures we don't block during shutdown.
func sendError(ctx context.Context, errCh chan<- error, err error) {
	if err == nil {
		return
	}
	select {
	case errCh <- err:
	case <-ctx.Done():
		// Don't block during shutdown
	default:
		// Drop error only if buffer is full (rare with buffer size 16)
	}
}

// Watch creates a watcher using functional options and starts watching.
// This is the preferred way to create and start a watcher.
//
// Note: This function does not return the underlying Watcher, so callers
// cannot call Close() to perform synchronous shutdown. The watcher will
// stop when the context is cancelled. For more control over shutdown,
// use NewWatcher and Watcher.Watch() directly.
//
// Example:
//
//	events, errs, err := arenalog.Watch(ctx,
//	    arenalog.WithIncludeTypes(arenalog.EventMatchStarted, arenalog.EventMatchEnded),
//	    arenalog.WithLogger(logger),
//	)
func Watch(ctx context.Context, opts ...WatchOption) (<-chan Event, <-chan error, error) {
	w, err := NewWatcher(opts...)
	if err != nil {
		return nil, nil, err
	}
	return w.Watch(ctx)
}

// NewWatcher creates a watcher using functional options.
// Validates options and checks log directory existence.
// Does NOT start goroutines (cheap to call).
// Returns error for invalid options or missing log directory.
//
// Example:
//
//	watcher, err := arenalog.NewWatcher(
//	    arenalog.WithLogDir(`C:\Program Files (x86)\World of Warcraft\_retail_\Logs`),
//	    arenalog.WithIncludeTypes(arenalog.EventMatchEnded),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	events, errs, err := watcher.Watch(ctx)
func NewWatcher(opts ...WatchOption) (*Watcher, error) {
	cfg := applyWatchOptions(opts)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	// Find log directory
	logDir, err := logfinder.FindLogDir(cfg.logDir)
	if err != nil {
		return nil, fmt.Errorf("finding log directory: %w", err)
	}

	// Initialize logger (use discard logger if not provided)
	log := cfg.logger
	if log == nil {
		log = discardLogger
	}

	return &Watcher{
		cfg:    *cfg, // copy to ensure immutability
		logDir: logDir,
		log:    log,
	}, nil
}
