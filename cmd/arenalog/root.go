package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "arenalog",
	Short: "Reconstruct rated arena matches from WoW combat logs",
	Long: `arenalog reads World of Warcraft combat logs and reconstructs rated
arena matches: bracket, season, combatants with specs and ratings,
deaths, and Solo Shuffle rounds with per-player records.

It can follow the live log while you play, parse existing log files,
and keep a match history in SQLite.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging to stderr")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to YAML config file")
}

// newLogger builds the CLI logger: nil unless -v is set, so library
// code falls back to its discard logger.
func newLogger() *slog.Logger {
	if !verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}
