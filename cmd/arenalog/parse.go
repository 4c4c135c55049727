package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arenalog/arenalog-go/internal/config"
	"github.com/arenalog/arenalog-go/internal/db"
	"github.com/arenalog/arenalog-go/pkg/arenalog"
)

var (
	parseFormat      string
	parseTypes       []string
	parseExclude     []string
	parseStopOnError bool
	parseDatabase    string
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>...",
	Short: "Parse combat log files and print their arena events",
	Long: `Parse one or more combat log files in order and print the arena
events they contain. Each file is parsed as an independent stream.

Examples:
  # All events from one log
  arenalog parse WoWCombatLog-081225_193012.txt

  # Match results only, human readable
  arenalog parse -f pretty -t match_ended WoWCombatLog-*.txt

  # Import a season of logs into the match history
  arenalog parse --db arenalog.db WoWCombatLog-*.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringVarP(&parseFormat, "format", "f", "",
		"output format: jsonl or pretty")
	parseCmd.Flags().StringSliceVarP(&parseTypes, "types", "t", nil,
		"only output these event types (comma-separated)")
	parseCmd.Flags().StringSliceVar(&parseExclude, "exclude-types", nil,
		"suppress these event types (comma-separated)")
	parseCmd.Flags().BoolVar(&parseStopOnError, "stop-on-error", false,
		"stop at the first unusable line instead of skipping it")
	parseCmd.Flags().StringVar(&parseDatabase, "db", "",
		"SQLite database for match history")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	f := cmd.Flags()
	if f.Changed("format") {
		cfg.Format = parseFormat
	}
	if f.Changed("db") {
		cfg.Database = parseDatabase
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	includes, err := NormalizeEventTypes(parseTypes)
	if err != nil {
		return err
	}
	excludes, err := NormalizeEventTypes(parseExclude)
	if err != nil {
		return err
	}
	if err := RejectOverlap(includes, excludes); err != nil {
		return err
	}

	opts := []arenalog.ParseOption{
		arenalog.WithParseFilter(includes, excludes),
		arenalog.WithParseStopOnError(parseStopOnError),
		arenalog.WithParseParserOptions(
			arenalog.WithBufferLimit(cfg.BufferLimit),
			arenalog.WithParserLogger(newLogger()),
		),
	}
	if cfg.Database != "" {
		conn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer conn.Close()
		opts = append(opts, arenalog.WithParseRecorder(&dbRecorder{
			ctx:   ctx,
			store: db.NewWriter(conn),
		}))
	}

	out := cmd.OutOrStdout()
	for _, path := range args {
		events, err := arenalog.ParseFile(path, opts...)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		for _, ev := range events {
			if err := OutputEvent(cfg.Format, ev, out); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
		}
	}
	return nil
}
