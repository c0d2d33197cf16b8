// Package recent persists the recently used repository paths so repeated
// invocations can offer them back to the user.
package recent

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const storeFileName = "recent.json"

// Store reads and writes the recently used repository path list.
type Store struct {
	path string
}

// storeData is the on-disk layout.
type storeData struct {
	SavedPaths []string `json:"saved_paths"`
}

// NewStore creates a Store under the user config directory
// (e.g. ~/.config/gitbrief/recent.json).
func NewStore() (*Store, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}
	return NewStoreAt(filepath.Join(dir, storeFileName)), nil
}

// NewStoreAt creates a Store with an explicit file path. This is useful for
// testing.
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

// Paths returns the saved repository paths, newest last. A missing or
// unreadable store yields an empty list rather than an error.
func (s *Store) Paths() []string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var store storeData
	if err := json.Unmarshal(data, &store); err != nil {
		return nil
	}
	return store.SavedPaths
}

// Remember adds a path to the store, normalizing it and skipping duplicates.
func (s *Store) Remember(path string) error {
	clean := filepath.Clean(path)

	paths := s.Paths()
	for _, p := range paths {
		if p == clean {
			return nil
		}
	}
	paths = append(paths, clean)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(storeData{SavedPaths: paths}, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal recent paths: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write recent paths: %w", err)
	}
	return nil
}

// configDir returns the platform-appropriate config directory for gitbrief.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "gitbrief"), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(dir, "gitbrief"), nil
}
