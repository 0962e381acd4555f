// Package memory implements an in-process persister for tests and ephemeral runs.
package memory

import (
	"context"
	"sync"

	"menagerie/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.Persister = (*Store)(nil)

// Store keeps the last saved document in memory.
type Store struct {
	mu      sync.Mutex
	animals []domain.Animal
	saved   bool
	saves   int
	failErr error
}

// NewStore returns an empty store that reports ErrDocumentNotFound until the
// first Save.
func NewStore() *Store { return &Store{} }

// NewSeededStore returns a store that already holds animals.
func NewSeededStore(animals []domain.Animal) *Store {
	return &Store{animals: domain.CloneAnimals(animals), saved: true}
}

// Driver returns the driver name.
func (s *Store) Driver() string { return "memory" }

// Load returns a copy of the last saved collection.
func (s *Store) Load(_ context.Context) ([]domain.Animal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.saved {
		return nil, domain.ErrDocumentNotFound
	}
	out := domain.CloneAnimals(s.animals)
	if out == nil {
		out = []domain.Animal{}
	}
	return out, nil
}

// Save replaces the stored collection, or returns the injected failure.
func (s *Store) Save(_ context.Context, animals []domain.Animal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.animals = domain.CloneAnimals(animals)
	s.saved = true
	s.saves++
	return nil
}

// Saves reports how many successful saves happened.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// FailWith makes subsequent saves return err; nil clears the failure.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}
