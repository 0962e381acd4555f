// Package sqlite persists the animals document into a single-row SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"menagerie/pkg/domain"
)

// DefaultPath is the database file used when none is configured.
const DefaultPath = "menagerie.db"

const bucket = domain.DocumentKey

// Compile-time contract assertion.
var _ domain.Persister = (*Store)(nil)

// Store keeps the document as a JSON payload keyed by bucket name.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (creating if needed) the database at path and ensures the
// state table exists.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, goerr.Wrap(err, "failed to create sqlite directory", goerr.V("path", path))
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite", goerr.V("path", path))
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to create state table", goerr.V("path", path))
	}
	return &Store{db: db, path: path}, nil
}

// Driver returns the driver name.
func (s *Store) Driver() string { return "sqlite" }

// Load decodes the stored document.
func (s *Store) Load(ctx context.Context) ([]domain.Animal, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM state WHERE bucket = ?`, bucket).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(domain.ErrDocumentNotFound, "no animals row", goerr.V("path", s.path))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to select state", goerr.V("path", s.path))
	}
	animals, err := domain.UnmarshalDocument(payload)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode state", goerr.V("path", s.path))
	}
	return animals, nil
}

// Save upserts the document inside a transaction.
func (s *Store) Save(ctx context.Context, animals []domain.Animal) (retErr error) {
	data, err := domain.MarshalDocument(animals)
	if err != nil {
		return goerr.Wrap(err, "failed to encode document")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin tx")
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
		return goerr.Wrap(err, fmt.Sprintf("upsert %s", bucket))
	}
	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit")
	}
	return nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }
