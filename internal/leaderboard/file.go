package leaderboard

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FileStore persists the leaderboard as a JSON array of entries.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Append adds one entry and rewrites the file.
func (f *FileStore) Append(entry Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.read()
	if err != nil {
		return err
	}
	entries = append(entries, entry)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write leaderboard: %w", err)
	}
	return os.Rename(tmp, f.path)
}

// All returns every recorded entry.
func (f *FileStore) All() ([]Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

func (f *FileStore) read() ([]Entry, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse leaderboard: %w", err)
	}
	return entries, nil
}
