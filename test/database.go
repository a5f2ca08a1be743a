package test

import (
	"path/filepath"
	"testing"
)

// TmpFile returns the path for a throwaway sqlite database. Every call
// gets its own temporary directory, so parallel tests never share a
// database file.
func TmpFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "fsystem.db")
}
