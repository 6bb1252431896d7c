// Package fsutil holds small filesystem helpers used by the resolver.
package fsutil

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
)

// Exists reports whether path names an existing file or directory.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LenientRemove deletes path if it exists. Failures are logged and never
// returned; it reports whether the file is gone afterwards.
func LenientRemove(logger *slog.Logger, path string) bool {
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return true
	}
	logger.Warn("failed to remove",
		slog.String("path", path),
		slog.Any("error", err))
	return false
}

// LenientRemoveAll deletes the tree rooted at path, logging any failure.
func LenientRemoveAll(logger *slog.Logger, path string) bool {
	if err := os.RemoveAll(path); err != nil {
		logger.Warn("failed to remove tree",
			slog.String("path", path),
			slog.Any("error", err))
		return false
	}
	return true
}
