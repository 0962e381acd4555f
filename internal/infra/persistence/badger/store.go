// Package badger persists the animals document under a single BadgerDB key.
package badger

import (
	"context"
	"errors"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/m-mizutani/goerr/v2"

	"menagerie/pkg/domain"
)

// DefaultDir is the data directory used when none is configured.
const DefaultDir = "data/badger"

var documentKey = []byte(domain.DocumentKey)

// Compile-time contract assertion.
var _ domain.Persister = (*Store)(nil)

// Options configures the badger persister.
type Options struct {
	Dir        string
	InMemory   bool
	SyncWrites bool
}

// Store keeps the document as one value in a BadgerDB instance.
type Store struct {
	db *badgerdb.DB
}

// NewStore opens BadgerDB with opts. Every Save syncs to disk unless the
// store is in-memory.
func NewStore(opts Options) (*Store, error) {
	dir := opts.Dir
	if opts.InMemory {
		dir = ""
	} else if dir == "" {
		dir = DefaultDir
	}
	bopts := badgerdb.DefaultOptions(dir).
		WithInMemory(opts.InMemory).
		WithSyncWrites(opts.SyncWrites || !opts.InMemory).
		WithLogger(nil).
		WithMemTableSize(16 << 20).
		WithValueLogFileSize(64 << 20).
		WithNumMemtables(2)

	db, err := badgerdb.Open(bopts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open badger", goerr.V("dir", dir))
	}
	return &Store{db: db}, nil
}

// Driver returns the driver name.
func (s *Store) Driver() string { return "badger" }

// Load decodes the stored document.
func (s *Store) Load(_ context.Context) ([]domain.Animal, error) {
	var payload []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(documentKey)
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, goerr.Wrap(domain.ErrDocumentNotFound, "no animals key")
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read animals key")
	}
	animals, err := domain.UnmarshalDocument(payload)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode animals key")
	}
	return animals, nil
}

// Save replaces the stored document.
func (s *Store) Save(_ context.Context, animals []domain.Animal) error {
	data, err := domain.MarshalDocument(animals)
	if err != nil {
		return goerr.Wrap(err, "failed to encode document")
	}
	if err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(documentKey, data)
	}); err != nil {
		return goerr.Wrap(err, "failed to write animals key")
	}
	return nil
}

// Close flushes and closes the database.
func (s *Store) Close() error { return s.db.Close() }
