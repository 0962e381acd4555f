// Package blob persists the animals document as a single object in a blob
// store (S3, GCS or memory).
package blob

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/m-mizutani/goerr/v2"

	"menagerie/internal/blob/core"
	"menagerie/pkg/domain"
)

// DefaultKey is the object key used when none is configured.
const DefaultKey = "animals.json"

const contentType = "application/json"

var _ domain.Persister = (*Store)(nil)

// Store reads and writes the whole document under one key.
type Store struct {
	objects core.Store
	key     string
}

// NewStore wraps objects. An empty key selects DefaultKey.
func NewStore(objects core.Store, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{objects: objects, key: key}
}

// Driver returns the underlying blob driver name.
func (s *Store) Driver() string { return string(s.objects.Driver()) }

// Key returns the object key.
func (s *Store) Key() string { return s.key }

// Load fetches and decodes the document.
func (s *Store) Load(ctx context.Context) ([]domain.Animal, error) {
	_, rc, err := s.objects.Get(ctx, s.key)
	if errors.Is(err, core.ErrNotFound) {
		return nil, goerr.Wrap(domain.ErrDocumentNotFound, "no animals object", goerr.V("key", s.key))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch animals object", goerr.V("key", s.key))
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read animals object", goerr.V("key", s.key))
	}
	animals, err := domain.UnmarshalDocument(data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode animals object", goerr.V("key", s.key))
	}
	return animals, nil
}

// Save uploads the encoded document over the previous object.
func (s *Store) Save(ctx context.Context, animals []domain.Animal) error {
	data, err := domain.MarshalDocument(animals)
	if err != nil {
		return goerr.Wrap(err, "failed to encode document")
	}
	if _, err := s.objects.Put(ctx, s.key, bytes.NewReader(data), core.PutOptions{ContentType: contentType}); err != nil {
		return goerr.Wrap(err, "failed to upload animals object", goerr.V("key", s.key))
	}
	return nil
}

// Close releases the blob client when it holds resources.
func (s *Store) Close() error {
	if c, ok := s.objects.(domain.Closer); ok {
		return c.Close()
	}
	return nil
}
