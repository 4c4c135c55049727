// Package tailer follows a growing log file and delivers its lines.
package tailer

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/nxadm/tail"
)

// Config controls how a file is followed.
type Config struct {
	// FromStart reads the file from offset 0 instead of only new lines.
	FromStart bool
	// Poll uses polling instead of inotify. Network shares and some
	// Windows setups do not deliver file notifications reliably.
	Poll bool
}

// DefaultConfig returns the config used by the watcher: new lines only,
// notification driven.
func DefaultConfig() Config {
	return Config{}
}

// Tailer follows a single file. Rotation handling belongs to the caller;
// the tailer itself never reopens.
type Tailer struct {
	t     *tail.Tail
	lines chan string
	errs  chan error

	stopOnce sync.Once
	stopErr  error
}

// New starts following path. Lines are delivered on Lines, failures on
// Errors. Both channels close when the tailer stops, whether through
// ctx, Stop, or a fatal tail error.
func New(ctx context.Context, path string, cfg Config) (*Tailer, error) {
	tailCfg := tail.Config{
		Follow:    true,
		ReOpen:    false,
		MustExist: true,
		Poll:      cfg.Poll,
		Logger:    tail.DiscardingLogger,
	}
	if !cfg.FromStart {
		tailCfg.Location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	}

	t, err := tail.TailFile(path, tailCfg)
	if err != nil {
		return nil, fmt.Errorf("tailing %s: %w", path, err)
	}

	tl := &Tailer{
		t:     t,
		lines: make(chan string),
		errs:  make(chan error, 1),
	}
	go tl.run(ctx)
	return tl, nil
}

// Lines returns the channel of complete lines, without trailing newlines.
func (tl *Tailer) Lines() <-chan string { return tl.lines }

// Errors returns the channel of non-fatal read errors.
func (tl *Tailer) Errors() <-chan error { return tl.errs }

// Stop halts following and releases the file watch. Safe to call more
// than once.
func (tl *Tailer) Stop() error {
	tl.stopOnce.Do(func() {
		tl.stopErr = tl.t.Stop()
		tl.t.Cleanup()
	})
	return tl.stopErr
}

func (tl *Tailer) run(ctx context.Context) {
	defer close(tl.lines)
	defer close(tl.errs)

	// Stopping the tail unblocks the range below when ctx ends.
	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			_ = tl.t.Stop()
		case <-stopped:
		}
	}()

	for line := range tl.t.Lines {
		if line.Err != nil {
			select {
			case tl.errs <- line.Err:
			case <-ctx.Done():
				return
			}
			continue
		}
		select {
		case tl.lines <- line.Text:
		case <-ctx.Done():
			return
		}
	}

	if err := tl.t.Err(); err != nil {
		select {
		case tl.errs <- err:
		default:
		}
	}
}
