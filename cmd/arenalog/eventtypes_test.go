package main

import (
	"reflect"
	"strings"
	"testing"

	"github.com/arenalog/arenalog-go/pkg/arenalog"
)

func TestValidEventTypeNames(t *testing.T) {
	names := ValidEventTypeNames()
	want := []string{"match_ended", "match_started", "zone_changed"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("ValidEventTypeNames() = %v, want %v", names, want)
	}
}

func TestNormalizeEventTypes(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		want    []arenalog.EventType
		wantErr bool
	}{
		{
			name:  "valid names",
			input: []string{"match_started", "match_ended"},
			want:  []arenalog.EventType{arenalog.EventMatchStarted, arenalog.EventMatchEnded},
		},
		{
			name:  "case insensitive",
			input: []string{"MATCH_STARTED", "Zone_Changed"},
			want:  []arenalog.EventType{arenalog.EventMatchStarted, arenalog.EventZoneChanged},
		},
		{
			name:  "whitespace trimmed",
			input: []string{"  match_ended  "},
			want:  []arenalog.EventType{arenalog.EventMatchEnded},
		},
		{
			name:  "duplicates removed",
			input: []string{"match_ended", "MATCH_ENDED", "match_ended"},
			want:  []arenalog.EventType{arenalog.EventMatchEnded},
		},
		{
			name:  "nil input",
			input: nil,
			want:  nil,
		},
		{
			name:  "empty slice",
			input: []string{},
			want:  nil,
		},
		{
			name:    "empty string",
			input:   []string{""},
			wantErr: true,
		},
		{
			name:    "whitespace only",
			input:   []string{"   "},
			wantErr: true,
		},
		{
			name:    "unknown name",
			input:   []string{"player_join"},
			wantErr: true,
		},
		{
			name:    "one bad apple",
			input:   []string{"match_started", "bogus"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeEventTypes(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NormalizeEventTypes(%v) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeEventTypes(%v) unexpected error: %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeEventTypes(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeEventTypes_ErrorListsValidNames(t *testing.T) {
	_, err := NormalizeEventTypes([]string{"bogus"})
	if err == nil {
		t.Fatal("expected error")
	}
	for _, name := range ValidEventTypeNames() {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not mention %q", err, name)
		}
	}
}

func TestRejectOverlap(t *testing.T) {
	started := []arenalog.EventType{arenalog.EventMatchStarted}
	ended := []arenalog.EventType{arenalog.EventMatchEnded}
	both := []arenalog.EventType{arenalog.EventMatchStarted, arenalog.EventMatchEnded}

	if err := RejectOverlap(started, ended); err != nil {
		t.Errorf("disjoint sets: unexpected error %v", err)
	}
	if err := RejectOverlap(nil, ended); err != nil {
		t.Errorf("empty includes: unexpected error %v", err)
	}
	if err := RejectOverlap(started, nil); err != nil {
		t.Errorf("empty excludes: unexpected error %v", err)
	}
	if err := RejectOverlap(both, ended); err == nil {
		t.Error("overlapping sets: expected error, got nil")
	}
}
