package storage

import (
	"fmt"
	"io"
	"sync"
)

// Memory is an in-memory store used in tests.
type Memory struct {
	mu    sync.Mutex
	files map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

func (m *Memory) Put(key string, content io.Reader) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[key] = data

	return nil
}

func (m *Memory) Exists(key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.files[key]
	return ok, nil
}

func (m *Memory) Move(oldKey, newKey string) error {
	if oldKey == newKey {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.files[oldKey]
	if !ok {
		if _, done := m.files[newKey]; done {
			return nil
		}

		return fmt.Errorf("%w: %q does not exist", ErrMove, oldKey)
	}

	m.files[newKey] = data
	delete(m.files, oldKey)

	return nil
}
