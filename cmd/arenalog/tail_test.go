package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadTailConfig_FlagsBeatFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	data := []byte("format: pretty\npoll_interval: 5s\nout_dir: recorded\n")
	if err := os.WriteFile(cfgFile, data, 0o644); err != nil {
		t.Fatal(err)
	}

	oldPath := configPath
	configPath = cfgFile
	t.Cleanup(func() { configPath = oldPath })

	if err := tailCmd.Flags().Set("format", "jsonl"); err != nil {
		t.Fatal(err)
	}
	if err := tailCmd.Flags().Set("db", "history.db"); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadTailConfig(tailCmd)
	if err != nil {
		t.Fatalf("loadTailConfig: %v", err)
	}

	if cfg.Format != "jsonl" {
		t.Errorf("Format = %q, want flag value %q", cfg.Format, "jsonl")
	}
	if cfg.Database != "history.db" {
		t.Errorf("Database = %q, want flag value %q", cfg.Database, "history.db")
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %v, want file value 5s", cfg.PollInterval)
	}
	if cfg.OutDir != "recorded" {
		t.Errorf("OutDir = %q, want file value %q", cfg.OutDir, "recorded")
	}
}
