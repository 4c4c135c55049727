// Package logfinder provides World of Warcraft log directory and file detection.
package logfinder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// EnvLogDir is the environment variable name for specifying log directory.
const EnvLogDir = "ARENALOG_LOGDIR"

// Sentinel errors.
var (
	ErrLogDirNotFound = errors.New("log directory not found")
	ErrNoLogFiles     = errors.New("no log files found")
)

// logFilePattern matches combat log file names. Advanced logging writes
// timestamped files (WoWCombatLog-021524_203312.txt), older clients a
// single WoWCombatLog.txt.
const logFilePattern = "WoWCombatLog*.txt"

// DefaultLogDirs returns candidate WoW log directories in priority order.
// The directories are OS-specific (Windows only for the retail client).
func DefaultLogDirs() []string {
	roots := []string{
		os.Getenv("PROGRAMFILES(X86)"),
		os.Getenv("PROGRAMFILES"),
	}

	var dirs []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		install := filepath.Join(root, "World of Warcraft")
		dirs = append(dirs,
			filepath.Join(install, "_retail_", "Logs"),
			filepath.Join(install, "_classic_", "Logs"),
		)
	}
	return dirs
}

// FindLogDir returns the WoW combat log directory.
//
// Priority:
//  1. explicit (if non-empty)
//  2. ARENALOG_LOGDIR environment variable
//  3. Auto-detect from DefaultLogDirs()
//
// Explicit and environment directories only need to exist: combat logs
// appear there once the client starts logging, and callers may want to
// watch the directory before that. Auto-detected candidates must already
// contain combat logs, so an installed-but-unused client does not win
// over the one actually producing them.
//
// Returns ErrLogDirNotFound if no valid directory is found.
// The returned path has symlinks resolved for consistency.
func FindLogDir(explicit string) (string, error) {
	// 1. Check explicit
	if explicit != "" {
		if resolved := resolveAndValidateLogDir(explicit); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: specified directory is invalid", ErrLogDirNotFound)
	}

	// 2. Check environment variable
	if envDir := os.Getenv(EnvLogDir); envDir != "" {
		if resolved := resolveAndValidateLogDir(envDir); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: %s environment variable points to invalid directory", ErrLogDirNotFound, EnvLogDir)
	}

	// 3. Auto-detect
	for _, dir := range DefaultLogDirs() {
		if resolved := resolveAndValidateLogDir(dir); resolved != "" && hasLogFiles(resolved) {
			return resolved, nil
		}
	}

	return "", ErrLogDirNotFound
}

// logCandidate holds a log file path and its cached modification time.
// This avoids race conditions where files are deleted between stat and sort.
type logCandidate struct {
	path    string
	modTime int64
}

// FindLatestLogFile returns the path to the most recently modified
// combat log file in the given directory.
//
// Returns ErrNoLogFiles if no log files are found.
//
// Security: This function caches stat results to avoid TOCTOU race conditions
// where log files could be deleted between filtering and sorting.
func FindLatestLogFile(dir string) (string, error) {
	pattern := filepath.Join(dir, logFilePattern)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("globbing log files: %w", err)
	}

	if len(matches) == 0 {
		return "", ErrNoLogFiles
	}

	// Stat files once and cache results to avoid race conditions
	candidates := make([]logCandidate, 0, len(matches))
	for _, m := range matches {
		info, err := os.Lstat(m)
		if err != nil {
			// Skip files that can't be stat'd (deleted, permission issues, etc.)
			continue
		}
		// Also skip non-regular files (directories, symlinks, etc.)
		if !info.Mode().IsRegular() {
			continue
		}
		candidates = append(candidates, logCandidate{
			path:    m,
			modTime: info.ModTime().UnixNano(),
		})
	}

	if len(candidates) == 0 {
		return "", ErrNoLogFiles
	}

	// Sort by cached modification time (newest first)
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].modTime > candidates[j].modTime
	})

	return candidates[0].path, nil
}

// resolveAndValidateLogDir resolves symlinks and validates that the
// path is an existing directory. Returns the resolved path if valid,
// empty string otherwise.
// This helps prevent symlink-based attacks and ensures path consistency.
func resolveAndValidateLogDir(dir string) string {
	// First check if path exists
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return ""
	}

	// Resolve symlinks (works with Windows Junctions in Go 1.20+)
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		// Symlink resolution failed - treat as invalid directory
		// to prevent potential security issues with broken/malicious symlinks
		return ""
	}

	return resolved
}

// hasLogFiles reports whether the directory contains combat log files.
func hasLogFiles(dir string) bool {
	matches, err := filepath.Glob(filepath.Join(dir, logFilePattern))
	return err == nil && len(matches) > 0
}
