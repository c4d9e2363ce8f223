package draft

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotFound is returned by Storage.Get for keys that were never set.
var ErrNotFound = errors.New("draft: key not found")

// Storage is the key-value persistence capability the draft store writes
// through. Keys are slash-separated namespaced strings, stable across
// sessions. Implementations must be safe for concurrent use.
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// DirStorage persists each key as a file under a root directory.
// Slashes in keys become subdirectories.
type DirStorage struct {
	root string
}

// NewDirStorage creates the root directory if needed and returns a
// DirStorage rooted there.
func NewDirStorage(root string) (*DirStorage, error) {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("draft: storage root: %w", err)
	}
	return &DirStorage{root: root}, nil
}

func (d *DirStorage) path(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("draft: invalid key %q", key)
	}
	return filepath.Join(d.root, filepath.FromSlash(key)), nil
}

// Get reads the value stored under key.
func (d *DirStorage) Get(key string) (string, error) {
	p, err := d.path(key)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("draft: read %s: %w", key, err)
	}
	return string(data), nil
}

// Set writes value under key, creating parent directories as needed.
func (d *DirStorage) Set(key, value string) error {
	p, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return fmt.Errorf("draft: mkdir for %s: %w", key, err)
	}
	if err := os.WriteFile(p, []byte(value), 0o600); err != nil {
		return fmt.Errorf("draft: write %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (d *DirStorage) Delete(key string) error {
	p, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("draft: delete %s: %w", key, err)
	}
	return nil
}

// MemStorage is an in-memory Storage for tests.
type MemStorage struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMemStorage returns an empty MemStorage.
func NewMemStorage() *MemStorage {
	return &MemStorage{m: make(map[string]string)}
}

// Get returns the stored value or ErrNotFound.
func (s *MemStorage) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores value under key.
func (s *MemStorage) Set(key, value string) error {
	s.mu.Lock()
	s.m[key] = value
	s.mu.Unlock()
	return nil
}

// Delete removes key.
func (s *MemStorage) Delete(key string) error {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored keys.
func (s *MemStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
