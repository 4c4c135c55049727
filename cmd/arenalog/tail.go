package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arenalog/arenalog-go/internal/config"
	"github.com/arenalog/arenalog-go/internal/db"
	"github.com/arenalog/arenalog-go/internal/matchlog"
	"github.com/arenalog/arenalog-go/pkg/arenalog"
)

var (
	tailLogDir    string
	tailFormat    string
	tailTypes     []string
	tailExclude   []string
	tailFromStart bool
	tailWait      bool
	tailPoll      time.Duration
	tailRecord    bool
	tailOutDir    string
	tailDatabase  string
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow the live combat log and print arena events",
	Long: `Follow the newest combat log in the log directory and print arena
events as matches are reconstructed. Survives log rotation.

Examples:
  # Follow the auto-detected log directory
  arenalog tail

  # Pretty output, match results only
  arenalog tail -f pretty -t match_ended

  # Keep per-match log files and a SQLite history
  arenalog tail --record --out-dir matches --db arenalog.db

  # Replay the current file from the beginning first
  arenalog tail --from-start`,
	RunE: runTail,
}

func init() {
	tailCmd.Flags().StringVarP(&tailLogDir, "log-dir", "d", "",
		"combat log directory (default: auto-detect)")
	tailCmd.Flags().StringVarP(&tailFormat, "format", "f", "",
		"output format: jsonl or pretty")
	tailCmd.Flags().StringSliceVarP(&tailTypes, "types", "t", nil,
		"only output these event types (comma-separated)")
	tailCmd.Flags().StringSliceVar(&tailExclude, "exclude-types", nil,
		"suppress these event types (comma-separated)")
	tailCmd.Flags().BoolVar(&tailFromStart, "from-start", false,
		"replay the current log file from the beginning")
	tailCmd.Flags().BoolVar(&tailWait, "wait", false,
		"wait for a combat log to appear instead of failing")
	tailCmd.Flags().DurationVar(&tailPoll, "poll-interval", 0,
		"log rotation poll interval")
	tailCmd.Flags().BoolVar(&tailRecord, "record", false,
		"save each completed match's raw log lines to the output directory")
	tailCmd.Flags().StringVar(&tailOutDir, "out-dir", "",
		"directory for recorded match logs")
	tailCmd.Flags().StringVar(&tailDatabase, "db", "",
		"SQLite database for match history")
	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadTailConfig(cmd)
	if err != nil {
		return err
	}

	includes, err := NormalizeEventTypes(tailTypes)
	if err != nil {
		return err
	}
	excludes, err := NormalizeEventTypes(tailExclude)
	if err != nil {
		return err
	}
	if err := RejectOverlap(includes, excludes); err != nil {
		return err
	}

	logger := newLogger()

	opts := []arenalog.WatchOption{
		arenalog.WithLogDir(cfg.LogDir),
		arenalog.WithPollInterval(cfg.PollInterval),
		arenalog.WithFilter(includes, excludes),
		arenalog.WithWaitForLogs(tailWait),
		arenalog.WithLogger(logger),
		arenalog.WithParserOptions(arenalog.WithBufferLimit(cfg.BufferLimit)),
	}
	if cfg.FromStart {
		opts = append(opts, arenalog.WithReplayFromStart())
	}

	// Recording and persistence run as recorders so they observe every
	// match regardless of the output filter.
	var recorders multiRecorder
	if tailRecord {
		rec, err := matchlog.New(cfg.OutDir, matchlog.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("creating match recorder: %w", err)
		}
		defer rec.Discard()
		recorders = append(recorders, rec)
	}
	if cfg.Database != "" {
		conn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer conn.Close()
		recorders = append(recorders, &dbRecorder{ctx: ctx, store: db.NewWriter(conn)})
	}
	if len(recorders) > 0 {
		opts = append(opts, arenalog.WithRecorder(recorders))
	}

	watcher, err := arenalog.NewWatcher(opts...)
	if err != nil {
		return err
	}
	defer watcher.Close()

	events, errs, err := watcher.Watch(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := OutputEvent(cfg.Format, ev, out); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			if verbose {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// loadTailConfig resolves the effective configuration: explicit flags
// beat environment variables, which beat the config file.
func loadTailConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}

	f := cmd.Flags()
	if f.Changed("log-dir") {
		cfg.LogDir = tailLogDir
	}
	if f.Changed("format") {
		cfg.Format = tailFormat
	}
	if f.Changed("poll-interval") {
		cfg.PollInterval = tailPoll
	}
	if f.Changed("from-start") {
		cfg.FromStart = tailFromStart
	}
	if f.Changed("out-dir") {
		cfg.OutDir = tailOutDir
	}
	if f.Changed("db") {
		cfg.Database = tailDatabase
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// dbRecorder persists completed matches. Save failures are reported and
// skipped; a broken database should not stop the live stream.
type dbRecorder struct {
	ctx   context.Context
	store *db.Writer
}

func (r *dbRecorder) RecordLine(string) {}

func (r *dbRecorder) RecordEvent(ev arenalog.Event) {
	ended, ok := ev.(*arenalog.MatchEnded)
	if !ok {
		return
	}
	if err := r.store.SaveMatch(r.ctx, ended.SessionID, ended.Metadata); err != nil {
		fmt.Fprintf(os.Stderr, "warning: saving match %s: %v\n", ended.SessionID, err)
	}
}

// multiRecorder fans one event stream out to several recorders.
type multiRecorder []arenalog.LineRecorder

func (m multiRecorder) RecordLine(raw string) {
	for _, r := range m {
		r.RecordLine(raw)
	}
}

func (m multiRecorder) RecordEvent(ev arenalog.Event) {
	for _, r := range m {
		r.RecordEvent(ev)
	}
}
