// Package store persists recipe records as one pretty-printed JSON file
// per recipe. Writes are all-or-nothing: content lands in a temp file in
// the target directory and is renamed into place, so a crash mid-write
// never leaves a half-written record.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/recipeline/internal/recipe"
)

// FileStore writes records under a single output directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the output directory if needed and returns the
// store.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the output directory.
func (s *FileStore) Dir() string { return s.dir }

// OutputName derives the record file name from a source document path:
// the base name with its extension swapped for .json.
func OutputName(sourcePath string) string {
	base := filepath.Base(sourcePath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".json"
}

// Write persists r under name, atomically. Returns the full path of the
// written record.
func (s *FileStore) Write(name string, r recipe.Recipe) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding recipe: %w", err)
	}
	data = append(data, '\n')

	target := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("renaming into place: %w", err)
	}
	return target, nil
}

// Read loads one persisted record as a decoded JSON tree, the form the
// validator consumes.
func (s *FileStore) Read(name string) (any, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %w", name, err)
	}
	return payload, nil
}

// List returns the names of all persisted records, sorted.
func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
