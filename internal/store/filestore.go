// internal/store/filestore.go

// Package store provides the durable backends for the state document:
// a JSON file (the canonical deployment) and a single-row PostgreSQL
// snapshot table. Both overwrite the full document on every save.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	"matekasse/internal/inventory"
)

// FileStore persists the state as one JSON document on disk.
type FileStore struct {
	path  string
	vocab inventory.Vocabulary
}

func NewFileStore(path string, vocab inventory.Vocabulary) *FileStore {
	return &FileStore{path: path, vocab: vocab}
}

// Load reads the document. A missing file is a fresh install and
// yields an empty state; only an unreadable or unparseable file is an
// error.
func (f *FileStore) Load(ctx context.Context) (*inventory.State, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return inventory.NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file %q: %w", f.path, err)
	}

	state, err := inventory.DecodeState(data)
	if err != nil {
		return nil, fmt.Errorf("decode state file %q: %w", f.path, err)
	}
	return state, nil
}

// Save overwrites the document. The write goes through a temp file and
// a rename so a crash mid-write never leaves a truncated document.
func (f *FileStore) Save(ctx context.Context, s *inventory.State) error {
	data, err := inventory.EncodeState(s, f.vocab)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
