// Package file persists the animals document as a JSON file on local disk.
package file

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"menagerie/pkg/domain"
)

// DefaultPath is the document location used when none is configured.
const DefaultPath = "data/animals.json"

// Compile-time contract assertion.
var _ domain.Persister = (*Store)(nil)

// Store reads and rewrites a single JSON document. Saves stream into a temp
// file in the same directory and rename it over the document so readers never
// observe a partial write.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore returns a file persister for path (DefaultPath when empty).
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

// Driver returns the driver name.
func (s *Store) Driver() string { return "file" }

// Path returns the configured document path.
func (s *Store) Path() string { return s.path }

// Load reads and decodes the document. A missing file yields
// domain.ErrDocumentNotFound; undecodable content yields
// domain.ErrMalformedDocument.
func (s *Store) Load(_ context.Context) ([]domain.Animal, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, goerr.Wrap(domain.ErrDocumentNotFound, "document file does not exist", goerr.V("path", s.path))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read document file", goerr.V("path", s.path))
	}
	animals, err := domain.UnmarshalDocument(data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode document file", goerr.V("path", s.path))
	}
	return animals, nil
}

// Save replaces the document with animals.
func (s *Store) Save(_ context.Context, animals []domain.Animal) (retErr error) {
	data, err := domain.MarshalDocument(animals)
	if err != nil {
		return goerr.Wrap(err, "failed to encode document")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return goerr.Wrap(err, "failed to create document directory", goerr.V("dir", dir))
	}
	tmp, err := os.CreateTemp(dir, ".animals-*.tmp")
	if err != nil {
		return goerr.Wrap(err, "failed to create temp file", goerr.V("dir", dir))
	}
	defer func() {
		if retErr != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return goerr.Wrap(err, "failed to write temp file", goerr.V("path", tmp.Name()))
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return goerr.Wrap(err, "failed to sync temp file", goerr.V("path", tmp.Name()))
	}
	if err := tmp.Close(); err != nil {
		return goerr.Wrap(err, "failed to close temp file", goerr.V("path", tmp.Name()))
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return goerr.Wrap(err, "failed to chmod temp file", goerr.V("path", tmp.Name()))
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return goerr.Wrap(err, "failed to replace document", goerr.V("path", s.path))
	}
	return nil
}
