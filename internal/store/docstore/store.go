// Package docstore implements the production storage gateway as a single JSON
// document holding one array per entity.
//
// The document is loaded once and kept in memory. Every write clones the state,
// applies the mutation to the clone, rewrites the file and only then swaps the
// clone in, all under one lock, so concurrent requests cannot lose updates and a
// failed write leaves the previous state intact.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"tabletrack/internal/production"
	"tabletrack/models"
)

var _ production.Store = (*Store)(nil)

// Store is a production.Store persisted to a JSON file.
type Store struct {
	mu   sync.RWMutex
	path string
	doc  models.Document
}

// Open loads the document at path, creating an empty one when the file does not
// exist. A file that cannot be decoded is an error.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("document path must not be empty")
	}
	s := &Store{path: path}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.doc.Normalize()
		if err := s.save(s.doc); err != nil {
			return nil, err
		}
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read document: %w", err)
	}

	if err := json.Unmarshal(raw, &s.doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", path, err)
	}
	s.doc.Normalize()
	return s, nil
}

// NewMemory returns a Store that never touches the filesystem.
func NewMemory() *Store {
	s := &Store{}
	s.doc.Normalize()
	return s
}

// Path returns the backing file, empty for memory stores.
func (s *Store) Path() string {
	return s.path
}

// Snapshot returns a copy of the whole document.
func (s *Store) Snapshot() models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

func (s *Store) view(fn func(doc *models.Document)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.doc)
}

func (s *Store) update(ctx context.Context, fn func(doc *models.Document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	if err := s.save(next); err != nil {
		return err
	}
	s.doc = next
	return nil
}

// save writes doc to a temporary file next to the target and renames it into place.
func (s *Store) save(doc models.Document) error {
	if s.path == "" {
		return nil
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create document directory: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close document: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}

// nextID is one past the highest id in rows. Rows are never deleted, so ids are
// never reused.
func nextID[T any](rows []T, id func(T) uint) uint {
	var max uint
	for _, row := range rows {
		if v := id(row); v > max {
			max = v
		}
	}
	return max + 1
}
