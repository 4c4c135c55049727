// Package arenalog reconstructs World of Warcraft arena matches from
// combat log files.
//
// This package allows you to:
//   - Parse combat log lines into arena match events
//   - Monitor the live combat log for matches as they happen
//   - Reconstruct Solo Shuffle rounds, winners and per-player records
//   - Build tools like match recorders, history databases, rating trackers
//
// # Basic Usage
//
// To monitor the live combat log:
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//
//	events, errs, err := arenalog.Watch(ctx,
//	    arenalog.WithIncludeTypes(arenalog.EventMatchStarted, arenalog.EventMatchEnded),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for {
//	    select {
//	    case ev, ok := <-events:
//	        if !ok {
//	            return
//	        }
//	        switch ev := ev.(type) {
//	        case *arenalog.MatchStarted:
//	            fmt.Printf("%s match started in zone %d\n", ev.Bracket, ev.ZoneID)
//	        case *arenalog.MatchEnded:
//	            fmt.Printf("match %s ended after %ds\n", ev.SessionID, ev.Metadata.DurationSeconds)
//	        }
//	    case err, ok := <-errs:
//	        if !ok {
//	            return
//	        }
//	        log.Printf("error: %v", err)
//	    }
//	}
//
// To parse an existing log file:
//
//	events, err := arenalog.ParseFile("WoWCombatLog-050724_211331.txt")
//
// To drive the session parser line by line:
//
//	p := arenalog.NewParser()
//	for scanner.Scan() {
//	    ev, err := p.ParseLine(scanner.Text())
//	    // ev is nil for the vast majority of lines
//	}
//
// A Parser owns one logical log stream fed in file order. Do not share
// one Parser across files or goroutines; create a new one per stream.
//
// # Platform Support
//
// This package is designed for Windows where World of Warcraft runs, with
// advanced combat logging enabled in the game client. Log file paths are
// auto-detected from standard install locations and can be overridden via
// the ARENALOG_LOGDIR environment variable.
//
// # Disclaimer
//
// This is an unofficial tool and is not affiliated with Blizzard
// Entertainment.
package arenalog
