// Package filex holds filesystem helpers for the local (SQLite) storage mode.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SQLitePath extracts the database file path from a SQLite DSN such as
// "alert.db" or "file:data/alert.db?_txlock=immediate". ok is false for
// in-memory databases.
func SQLitePath(dsn string) (path string, ok bool) {
	path, query, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")

	if path == "" || path == ":memory:" || strings.Contains(query, "mode=memory") {
		return "", false
	}
	return path, true
}

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) (string, error) {
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", path, err)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// EnsureSQLiteDir prepares the directory of a file-backed SQLite DSN.
// It does nothing for in-memory databases.
func EnsureSQLiteDir(dsn string) error {
	path, ok := SQLitePath(dsn)
	if !ok {
		return nil
	}
	_, err := EnsureParentDir(path)
	return err
}
