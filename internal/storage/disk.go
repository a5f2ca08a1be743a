package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Disk stores files below a root directory on the local filesystem.
type Disk struct {
	root string
}

// NewDisk returns a disk store rooted at dir, creating it if needed.
func NewDisk(dir string) (*Disk, error) {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("creating storage directory failed: %w", err)
	}

	return &Disk{root: dir}, nil
}

// path resolves a key below the root, rejecting traversal outside it.
func (d *Disk) path(key string) (string, error) {
	p := filepath.Join(d.root, filepath.FromSlash(key))
	if !strings.HasPrefix(p, d.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("key %q resolves outside the storage root", key)
	}

	return p, nil
}

func (d *Disk) Put(key string, content io.Reader) error {
	p, err := d.path(key)
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(p), 0o755)
	if err != nil {
		return err
	}

	f, err := os.Create(p)
	if err != nil {
		return err
	}

	_, err = io.Copy(f, content)
	if err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func (d *Disk) Exists(key string) (bool, error) {
	p, err := d.path(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

func (d *Disk) Move(oldKey, newKey string) error {
	if oldKey == newKey {
		return nil
	}

	oldPath, err := d.path(oldKey)
	if err != nil {
		return err
	}

	newPath, err := d.path(newKey)
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(newPath), 0o755)
	if err != nil {
		return err
	}

	err = os.Rename(oldPath, newPath)
	if err == nil {
		return nil
	}

	// A previous attempt may have finished the rename before failing
	// elsewhere. Old gone and new present counts as done.
	if errors.Is(err, fs.ErrNotExist) {
		exists, existsErr := d.Exists(newKey)
		if existsErr == nil && exists {
			return nil
		}

		return fmt.Errorf("%w: %q does not exist", ErrMove, oldKey)
	}

	return fmt.Errorf("%w: %s", ErrMove, err)
}
