// Package storage implements the device-local persistent key-value store
// backing the session. Values are kept in a single JSON file so state
// survives process restarts.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store is a string-keyed store of small JSON values persisted to one file.
// Every mutation rewrites the file; last write wins.
type Store struct {
	path string

	mu     sync.Mutex
	values map[string]json.RawMessage
}

// Open loads the store backed by the file at path. A missing file yields an
// empty store. A file that cannot be decoded is treated the same way: the
// session must fail safe to the anonymous state rather than refuse to start.
func Open(path string) (*Store, error) {
	s := &Store{
		path:   path,
		values: make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("open storage %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &s.values); err != nil {
		// Corrupt state is discarded, not fatal.
		s.values = make(map[string]json.RawMessage)
	}
	return s, nil
}

// Get returns the value stored under key and whether it was present.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true
}

// Set stores value under key and persists the store. value must be valid
// JSON; storing something the file could not round-trip would corrupt
// every other key.
func (s *Store) Set(key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("storage: value for %q is not valid JSON", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = json.RawMessage(value)
	return s.save()
}

// Delete removes key and persists the store. Deleting an absent key is a
// no-op success.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.save()
}

// save writes the whole map to a temp file and renames it over the backing
// file, so readers never observe a half-written file. Callers hold mu.
func (s *Store) save() error {
	data, err := json.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("encode storage: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("write storage: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write storage: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write storage: %w", err)
	}
	return nil
}
