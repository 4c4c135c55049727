package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arenalog/arenalog-go/pkg/arenalog"
)

// ValidEventTypes maps CLI type names to event types.
var ValidEventTypes = map[string]arenalog.EventType{
	"match_started": arenalog.EventMatchStarted,
	"match_ended":   arenalog.EventMatchEnded,
	"zone_changed":  arenalog.EventZoneChanged,
}

// ValidEventTypeNames returns the accepted type names, sorted.
func ValidEventTypeNames() []string {
	names := make([]string, 0, len(ValidEventTypes))
	for name := range ValidEventTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NormalizeEventTypes translates CLI type names into event types.
// Names are case-insensitive and deduplicated; unknown or empty names
// fail with the list of valid names.
func NormalizeEventTypes(names []string) ([]arenalog.EventType, error) {
	if len(names) == 0 {
		return nil, nil
	}

	seen := make(map[arenalog.EventType]bool, len(names))
	types := make([]arenalog.EventType, 0, len(names))
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		et, ok := ValidEventTypes[key]
		if !ok {
			return nil, fmt.Errorf("unknown event type %q (valid: %s)",
				name, strings.Join(ValidEventTypeNames(), ", "))
		}
		if seen[et] {
			continue
		}
		seen[et] = true
		types = append(types, et)
	}
	return types, nil
}

// RejectOverlap fails when a type appears in both include and exclude.
func RejectOverlap(includes, excludes []arenalog.EventType) error {
	if len(includes) == 0 || len(excludes) == 0 {
		return nil
	}
	in := make(map[arenalog.EventType]bool, len(includes))
	for _, t := range includes {
		in[t] = true
	}
	for _, t := range excludes {
		if in[t] {
			return fmt.Errorf("event type %q in both --types and --exclude-types", t)
		}
	}
	return nil
}
