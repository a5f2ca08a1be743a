// Package storage persists uploaded files, most importantly the
// community approval documents that gate workplan commitment.
//
// Keys are derived from the workplan identifier, so a file can always
// be located from the database record alone and re-uploads overwrite
// instead of accumulating.
package storage

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrNotFound is returned when a key does not exist in the store.
	ErrNotFound = errors.New("there is no file stored under this key")

	// ErrMove is returned when a file move failed in a way that left
	// neither the old nor the new key present. The database record
	// referencing the new key is not rolled back, the mismatch is
	// surfaced to the caller instead.
	ErrMove = errors.New("moving the stored file failed")
)

// Store is the minimal interface the workflow needs from a file store.
type Store interface {
	// Put writes the content under the key, replacing any previous
	// content.
	Put(key string, content io.Reader) error

	// Exists reports whether a key holds content.
	Exists(key string) (bool, error)

	// Move renames content from oldKey to newKey. Move is idempotent:
	// if oldKey is already gone and newKey is present, the move is
	// treated as already done and succeeds, so retries after a partial
	// failure never duplicate or error.
	Move(oldKey, newKey string) error
}

// ApprovalKey is the deterministic storage key of a workplan's
// community approval file, e.g. "approvals/LCC-DKH-KH-0825-0001-003.pdf".
func ApprovalKey(identifier string) string {
	return fmt.Sprintf("approvals/%s.pdf", identifier)
}
