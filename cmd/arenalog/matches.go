package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arenalog/arenalog-go/internal/config"
	"github.com/arenalog/arenalog-go/internal/db"
)

var (
	matchesDatabase string
	matchesLimit    int
)

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "Query the stored match history",
}

var matchesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored matches, newest first",
	Args:  cobra.NoArgs,
	RunE:  runMatchesList,
}

var matchesShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print one stored match as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runMatchesShow,
}

func init() {
	matchesCmd.PersistentFlags().StringVar(&matchesDatabase, "db", "",
		"SQLite database for match history")
	matchesListCmd.Flags().IntVarP(&matchesLimit, "limit", "n", 20,
		"maximum matches to list, 0 for all")
	matchesCmd.AddCommand(matchesListCmd)
	matchesCmd.AddCommand(matchesShowCmd)
	rootCmd.AddCommand(matchesCmd)
}

// resolveDatabase returns the database path from the --db flag or the
// config file.
func resolveDatabase(cmd *cobra.Command) (string, error) {
	if cmd.Flags().Changed("db") {
		return matchesDatabase, nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", err
	}
	if cfg.Database == "" {
		return "", errors.New("no database configured: pass --db or set database in the config file")
	}
	return cfg.Database, nil
}

func runMatchesList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	path, err := resolveDatabase(cmd)
	if err != nil {
		return err
	}
	conn, err := db.Open(ctx, path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer conn.Close()

	matches, err := db.NewReader(conn).ListMatches(ctx, matchesLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(matches) == 0 {
		fmt.Fprintln(out, "no matches stored")
		return nil
	}
	for _, m := range matches {
		result := "no result"
		switch {
		case m.Bracket == "Solo Shuffle":
			result = "shuffle"
		case m.WinningTeam != nil:
			result = fmt.Sprintf("team %d wins", *m.WinningTeam)
		}
		fmt.Fprintf(out, "%s  %-12s  %4ds  %-12s  %s\n",
			m.StartedAt.Format("2006-01-02 15:04"),
			m.Bracket, m.DurationSeconds, result, m.ID)
	}
	return nil
}

func runMatchesShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	path, err := resolveDatabase(cmd)
	if err != nil {
		return err
	}
	conn, err := db.Open(ctx, path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer conn.Close()

	meta, err := db.NewReader(conn).GetMatch(ctx, args[0])
	if errors.Is(err, db.ErrMatchNotFound) {
		return fmt.Errorf("match %q not found", args[0])
	}
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
