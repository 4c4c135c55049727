// Package safefile provides security-hardened file operations.
package safefile

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrNotRegularFile is returned when attempting to open a file that is not a regular file.
// This includes symlinks, FIFOs, devices, sockets, and directories.
var ErrNotRegularFile = errors.New("not a regular file")

// OpenRegular opens a file and verifies it is a regular file.
// This mitigates TOCTOU (time-of-check-time-of-use) race conditions where a file
// could be replaced with a symlink or special file between stat and open operations.
//
// The function:
//  1. Uses os.Lstat() to check the path without following symlinks
//  2. Opens the file
//  3. Stats the file descriptor to verify it's the same file
//
// Note: There is still a small TOCTOU window between Lstat and Open, but this is
// significantly better than the previous pattern of Lstat in one location and Open
// in another. Go's standard library doesn't expose O_NOFOLLOW in a cross-platform way.
//
// Returns:
//   - (*os.File, os.FileInfo, nil) on success
//   - (nil, nil, error) on failure (file closed automatically)
//
// The caller must close the returned file when done.
func OpenRegular(path string) (*os.File, os.FileInfo, error) {
	// First, lstat the path to detect symlinks
	linkInfo, err := os.Lstat(path)
	if err != nil {
		return nil, nil, err
	}

	// Reject symlinks, FIFOs, devices, sockets, directories
	if !linkInfo.Mode().IsRegular() {
		return nil, nil, ErrNotRegularFile
	}

	// Open the file
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	// Stat the file descriptor to verify it's the same file
	// This catches if the file was replaced between Lstat and Open
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	// Verify still a regular file
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, ErrNotRegularFile
	}

	// On Unix systems, we can check if it's the same file by comparing inode
	// However, os.FileInfo doesn't expose inode in a cross-platform way,
	// so we just verify it's still regular. The Lstat check above prevents
	// the most common symlink attacks.

	return f, info, nil
}

// WriteFileAtomic writes data to path via a temporary file in the same
// directory followed by a rename. Readers never observe a partially
// written file. An existing file at path is replaced.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	// Remove the temp file on any failure path.
	defer func() {
		if tmpName != "" {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	// Flush to disk before the rename, or a crash can leave an empty
	// file behind the new name.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	tmpName = ""
	return nil
}
