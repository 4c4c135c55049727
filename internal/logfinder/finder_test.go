package logfinder

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFindLatestLogFile(t *testing.T) {
	// Create temp directory
	dir := t.TempDir()

	// Create test log files with different modification times
	files := []string{
		"WoWCombatLog-010124_000000.txt",
		"WoWCombatLog-010224_000000.txt",
		"WoWCombatLog-010324_000000.txt",
	}

	for i, name := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("test"), 0644); err != nil {
			t.Fatal(err)
		}
		// Set modification time (oldest first)
		modTime := time.Now().Add(time.Duration(i) * time.Hour)
		if err := os.Chtimes(path, modTime, modTime); err != nil {
			t.Fatal(err)
		}
	}

	// Test
	got, err := FindLatestLogFile(dir)
	if err != nil {
		t.Fatalf("FindLatestLogFile() error = %v", err)
	}

	// Should return the most recently modified file (last one)
	want := files[len(files)-1]
	if filepath.Base(got) != want {
		t.Errorf("FindLatestLogFile() = %v, want %v", filepath.Base(got), want)
	}
}

func TestFindLatestLogFile_NoFiles(t *testing.T) {
	dir := t.TempDir()

	_, err := FindLatestLogFile(dir)
	if err == nil {
		t.Error("FindLatestLogFile() expected error for empty directory")
	}
	if !errors.Is(err, ErrNoLogFiles) {
		t.Errorf("FindLatestLogFile() error = %v, want %v", err, ErrNoLogFiles)
	}
}

func TestFindLatestLogFile_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()

	// Only the combat log should match, not arbitrary text files.
	for _, name := range []string{"notes.txt", "WoWChatLog.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("test"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	want := filepath.Join(dir, "WoWCombatLog.txt")
	if err := os.WriteFile(want, []byte("test"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := FindLatestLogFile(dir)
	if err != nil {
		t.Fatalf("FindLatestLogFile() error = %v", err)
	}
	if got != want {
		t.Errorf("FindLatestLogFile() = %v, want %v", got, want)
	}
}

func TestFindLogDir_EnvVar(t *testing.T) {
	// Create temp directory with log file
	dir := mustResolve(t, t.TempDir())
	logFile := filepath.Join(dir, "WoWCombatLog-021524_203312.txt")
	if err := os.WriteFile(logFile, []byte("test"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvLogDir, dir)

	// Test
	got, err := FindLogDir("")
	if err != nil {
		t.Fatalf("FindLogDir() error = %v", err)
	}
	if got != dir {
		t.Errorf("FindLogDir() = %v, want %v", got, dir)
	}
}

func TestFindLogDir_Explicit(t *testing.T) {
	// Create temp directory with log file
	dir := mustResolve(t, t.TempDir())
	logFile := filepath.Join(dir, "WoWCombatLog-021524_203312.txt")
	if err := os.WriteFile(logFile, []byte("test"), 0644); err != nil {
		t.Fatal(err)
	}

	// Explicit should take priority over env
	t.Setenv(EnvLogDir, "/some/other/path")

	got, err := FindLogDir(dir)
	if err != nil {
		t.Fatalf("FindLogDir() error = %v", err)
	}
	if got != dir {
		t.Errorf("FindLogDir() = %v, want %v", got, dir)
	}
}

func TestFindLogDir_ExplicitInvalid(t *testing.T) {
	_, err := FindLogDir("/nonexistent/path")
	if err == nil {
		t.Error("FindLogDir() expected error for invalid explicit path")
	}
	if !errors.Is(err, ErrLogDirNotFound) {
		t.Errorf("FindLogDir() error = %v, want %v", err, ErrLogDirNotFound)
	}
}

func TestFindLogDir_EnvVarInvalid(t *testing.T) {
	t.Setenv(EnvLogDir, "/nonexistent/path")

	_, err := FindLogDir("")
	if err == nil {
		t.Error("FindLogDir() expected error for invalid env var path")
	}
	if !errors.Is(err, ErrLogDirNotFound) {
		t.Errorf("FindLogDir() error = %v, want %v", err, ErrLogDirNotFound)
	}
}

func TestFindLogDir_ExplicitWithoutLogsYet(t *testing.T) {
	// The client has not started logging yet; an explicit empty
	// directory is still a valid watch target.
	dir := mustResolve(t, t.TempDir())

	got, err := FindLogDir(dir)
	if err != nil {
		t.Fatalf("FindLogDir() error = %v", err)
	}
	if got != dir {
		t.Errorf("FindLogDir() = %v, want %v", got, dir)
	}
}

func TestFindLogDir_AutoDetect(t *testing.T) {
	root := t.TempDir()
	logs := filepath.Join(root, "World of Warcraft", "_retail_", "Logs")
	if err := os.MkdirAll(logs, 0755); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PROGRAMFILES(X86)", root)
	t.Setenv("PROGRAMFILES", "")
	t.Setenv(EnvLogDir, "")

	// Auto-detect must not pick a candidate that never produced logs.
	if _, err := FindLogDir(""); !errors.Is(err, ErrLogDirNotFound) {
		t.Errorf("FindLogDir() error = %v, want %v for candidate without logs", err, ErrLogDirNotFound)
	}

	logFile := filepath.Join(logs, "WoWCombatLog-021524_203312.txt")
	if err := os.WriteFile(logFile, []byte("test"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := FindLogDir("")
	if err != nil {
		t.Fatalf("FindLogDir() error = %v", err)
	}
	if got != mustResolve(t, logs) {
		t.Errorf("FindLogDir() = %v, want %v", got, logs)
	}
}

func TestResolveAndValidateLogDir(t *testing.T) {
	dir := mustResolve(t, t.TempDir())

	if got := resolveAndValidateLogDir(dir); got != dir {
		t.Errorf("resolveAndValidateLogDir() = %q, want %q", got, dir)
	}
}

func TestResolveAndValidateLogDir_NotExists(t *testing.T) {
	if got := resolveAndValidateLogDir("/nonexistent/path"); got != "" {
		t.Errorf("resolveAndValidateLogDir() = %q, want empty for nonexistent path", got)
	}
}

func TestResolveAndValidateLogDir_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "WoWCombatLog.txt")
	if err := os.WriteFile(path, []byte("test"), 0644); err != nil {
		t.Fatal(err)
	}

	if got := resolveAndValidateLogDir(path); got != "" {
		t.Errorf("resolveAndValidateLogDir() = %q, want empty for a plain file", got)
	}
}

func TestHasLogFiles(t *testing.T) {
	dir := t.TempDir()
	if hasLogFiles(dir) {
		t.Error("hasLogFiles() = true for empty directory")
	}

	if err := os.WriteFile(filepath.Join(dir, "WoWCombatLog.txt"), []byte("test"), 0644); err != nil {
		t.Fatal(err)
	}
	if !hasLogFiles(dir) {
		t.Error("hasLogFiles() = false for directory with a combat log")
	}
}

// mustResolve resolves symlinks in a test dir so comparisons match
// FindLogDir output (macOS tempdirs live behind /private symlinks).
func mustResolve(t *testing.T, dir string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatal(err)
	}
	return resolved
}
