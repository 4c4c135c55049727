package arenalog

import (
	"fmt"
	"log/slog"
	"time"
)

// WatchOption configures Watch behavior using the functional options pattern.
type WatchOption func(*watchConfig)

// watchConfig holds internal configuration for the watcher.
type watchConfig struct {
	logDir       string
	pollInterval time.Duration
	fromStart    bool // Read the current log file from the beginning
	waitForLogs  bool // Wait for log files to appear if directory exists but is empty
	logger       *slog.Logger
	filter       *compiledFilter
	recorder     LineRecorder
	parserOpts   []ParserOption
}

// defaultWatchConfig returns a watchConfig with sensible defaults.
func defaultWatchConfig() *watchConfig {
	return &watchConfig{
		pollInterval: 2 * time.Second,
	}
}

// applyWatchOptions applies functional options to a watchConfig.
func applyWatchOptions(opts []WatchOption) *watchConfig {
	cfg := defaultWatchConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// validate checks for invalid option combinations.
func (c *watchConfig) validate() error {
	if c.pollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.pollInterval)
	}
	return nil
}

// WithLogDir sets the combat log directory.
// If not set, auto-detects from default install locations.
// Can also be set via the ARENALOG_LOGDIR environment variable.
func WithLogDir(dir string) WatchOption {
	return func(c *watchConfig) {
		c.logDir = dir
	}
}

// WithPollInterval sets how often to check for new/rotated log files.
// Default: 2 seconds.
func WithPollInterval(interval time.Duration) WatchOption {
	return func(c *watchConfig) {
		c.pollInterval = interval
	}
}

// WithWaitForLogs configures whether to wait for log files to appear.
// When true, if the log directory exists but has no combat logs yet,
// the watcher will poll at pollInterval until logs appear (useful for
// starting the watcher before the game client launches).
// When false (default), ErrNoLogFiles is returned immediately if no logs exist.
func WithWaitForLogs(wait bool) WatchOption {
	return func(c *watchConfig) {
		c.waitForLogs = wait
	}
}

// WithReplayFromStart reads the current log file from the beginning
// instead of only new lines. This is the only replay mode: match
// reconstruction is stateful, and a stream entered mid-file would
// attribute events to the wrong match.
func WithReplayFromStart() WatchOption {
	return func(c *watchConfig) {
		c.fromStart = true
	}
}

// WithLogger sets a custom logger for debug output.
// If logger is nil, logging is disabled (default behavior).
func WithLogger(logger *slog.Logger) WatchOption {
	return func(c *watchConfig) {
		c.logger = logger
	}
}

// WithRecorder attaches a recorder that observes every raw line and
// emitted event synchronously, in stream order. If r is nil, this
// option has no effect.
func WithRecorder(r LineRecorder) WatchOption {
	return func(c *watchConfig) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithParserOptions forwards options to the session parsers the watcher
// creates (one per log file).
func WithParserOptions(opts ...ParserOption) WatchOption {
	return func(c *watchConfig) {
		c.parserOpts = opts
	}
}

// WithIncludeTypes filters events to only include the specified types.
// If called multiple times, only the last call takes effect.
func WithIncludeTypes(types ...EventType) WatchOption {
	return func(c *watchConfig) {
		if c.filter == nil {
			c.filter = &compiledFilter{}
		}
		c.filter.include = make(map[EventType]struct{}, len(types))
		for _, t := range types {
			c.filter.include[t] = struct{}{}
		}
	}
}

// WithExcludeTypes filters out events of the specified types.
// Exclude takes precedence over include.
// If called multiple times, only the last call takes effect.
func WithExcludeTypes(types ...EventType) WatchOption {
	return func(c *watchConfig) {
		if c.filter == nil {
			c.filter = &compiledFilter{}
		}
		c.filter.exclude = make(map[EventType]struct{}, len(types))
		for _, t := range types {
			c.filter.exclude[t] = struct{}{}
		}
	}
}

// WithFilter sets both include and exclude type filters.
// Exclude takes precedence over include.
func WithFilter(include, exclude []EventType) WatchOption {
	return func(c *watchConfig) {
		c.filter = newCompiledFilter(include, exclude)
	}
}

// ParseOption configures ParseFile/ParseReader behavior.
type ParseOption func(*parseConfig)

// parseConfig holds internal configuration for parsing.
type parseConfig struct {
	filter      *compiledFilter
	stopOnError bool
	recorder    LineRecorder
	parserOpts  []ParserOption
}

// applyParseOptions applies functional options to a parseConfig.
func applyParseOptions(opts []ParseOption) *parseConfig {
	cfg := &parseConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// WithParseIncludeTypes filters events to only include the specified types.
func WithParseIncludeTypes(types ...EventType) ParseOption {
	return func(c *parseConfig) {
		if c.filter == nil {
			c.filter = &compiledFilter{}
		}
		c.filter.include = make(map[EventType]struct{}, len(types))
		for _, t := range types {
			c.filter.include[t] = struct{}{}
		}
	}
}

// WithParseExcludeTypes filters out events of the specified types.
func WithParseExcludeTypes(types ...EventType) ParseOption {
	return func(c *parseConfig) {
		if c.filter == nil {
			c.filter = &compiledFilter{}
		}
		c.filter.exclude = make(map[EventType]struct{}, len(types))
		for _, t := range types {
			c.filter.exclude[t] = struct{}{}
		}
	}
}

// WithParseFilter sets both include and exclude type filters for parsing.
func WithParseFilter(include, exclude []EventType) ParseOption {
	return func(c *parseConfig) {
		c.filter = newCompiledFilter(include, exclude)
	}
}

// WithParseRecorder attaches a recorder that observes every raw line
// and emitted event during the parse. If r is nil, this option has no
// effect.
func WithParseRecorder(r LineRecorder) ParseOption {
	return func(c *parseConfig) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithParseParserOptions forwards options to the session parser used
// for the parse.
func WithParseParserOptions(opts ...ParserOption) ParseOption {
	return func(c *parseConfig) {
		c.parserOpts = opts
	}
}

// WithParseStopOnError stops parsing on the first skipped line instead
// of continuing. Default: false (skip unusable lines and continue).
func WithParseStopOnError(stop bool) ParseOption {
	return func(c *parseConfig) {
		c.stopOnError = stop
	}
}
