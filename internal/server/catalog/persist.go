package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Persister reads and writes the catalog document. The store treats it
// as a full-document overwrite; swapping the JSON file for an embedded
// KV store only requires a new implementation of this interface.
type Persister interface {
	Load() (*Snapshot, error)
	Save(snap *Snapshot) error
}

// JSONFile persists the snapshot as one JSON document on disk.
type JSONFile struct {
	path string
}

// NewJSONFile creates a JSON-file persister at path.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Load reads and decodes the document. A missing file is reported as
// os.ErrNotExist for the caller to treat as a fresh start.
func (j *JSONFile) Load() (*Snapshot, error) {
	data, err := os.ReadFile(j.path)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{}
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("failed to decode catalog document %s: %w", j.path, err)
	}
	return snap, nil
}

// Save writes the document to a temp file in the same directory and
// renames it into place, so a crash mid-write never truncates the
// previous document.
func (j *JSONFile) Save(snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog document: %w", err)
	}

	dir := filepath.Dir(j.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".catalog-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp document: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write catalog document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close catalog document: %w", err)
	}

	if err := os.Rename(tmpName, j.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace catalog document: %w", err)
	}
	return nil
}
