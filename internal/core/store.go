package core

import (
	"context"
	"errors"
	"maps"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"menagerie/internal/logging"
	"menagerie/pkg/domain"
)

// Store owns the in-memory animal collection and its persister. Reads share a
// read lock; Create holds the write lock across id assignment, validation and
// persistence so concurrent creates never interleave.
type Store struct {
	mu        sync.RWMutex
	animals   []Animal
	persister Persister
	validator *Validator
	metrics   MetricsRecorder
	seedPath  string
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithValidator replaces the default lenient validator.
func WithValidator(v *Validator) StoreOption {
	return func(s *Store) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m MetricsRecorder) StoreOption {
	return func(s *Store) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithSeed names a document file used when the persister has nothing stored.
func WithSeed(path string) StoreOption {
	return func(s *Store) { s.seedPath = path }
}

// NewStore constructs an empty store over p. Call Load before serving.
func NewStore(p Persister, opts ...StoreOption) *Store {
	s := &Store{
		animals:   []Animal{},
		persister: p,
		validator: NewValidator(TraitsLenient),
		metrics:   NoopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory collection with the persisted document. When
// nothing is persisted and a seed is configured, the seed is written through
// the persister first.
func (s *Store) Load(ctx context.Context) error {
	animals, err := s.persister.Load(ctx)
	if errors.Is(err, ErrDocumentNotFound) && s.seedPath != "" {
		animals, err = s.seed(ctx)
	}
	if err != nil {
		return goerr.Wrap(err, "failed to load animals", goerr.V("driver", s.persister.Driver()))
	}
	if animals == nil {
		animals = []Animal{}
	}

	s.mu.Lock()
	s.animals = animals
	s.mu.Unlock()

	s.metrics.SetAnimals(len(animals))
	logging.From(ctx).Info("animals loaded", "driver", s.persister.Driver(), "count", len(animals))
	return nil
}

func (s *Store) seed(ctx context.Context) ([]Animal, error) {
	data, err := os.ReadFile(s.seedPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read seed document", goerr.V("path", s.seedPath))
	}
	animals, err := domain.UnmarshalDocument(data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode seed document", goerr.V("path", s.seedPath))
	}
	if err := s.save(ctx, animals); err != nil {
		return nil, err
	}
	logging.From(ctx).Info("seeded empty backend", "path", s.seedPath, "count", len(animals))
	return animals, nil
}

// List returns a copy of the whole collection in insertion order.
func (s *Store) List(_ context.Context) []Animal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneAnimals(s.animals)
}

// Filter returns the animals matching criteria in insertion order.
func (s *Store) Filter(ctx context.Context, criteria Criteria) []Animal {
	s.mu.RLock()
	out := domain.CloneAnimals(FilterAnimals(criteria, s.animals))
	s.mu.RUnlock()

	if !criteria.IsZero() {
		logging.From(ctx).Debug("animals filtered", "criteria", criteriaString(criteria), "matched", len(out))
	}
	return out
}

// FindByID returns the first animal with the given id.
func (s *Store) FindByID(_ context.Context, id string) (Animal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := FindByID(id, s.animals)
	if !ok {
		return Animal{}, false
	}
	return a.Clone(), true
}

// Len returns the number of animals held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.animals)
}

// Driver names the persistence backend.
func (s *Store) Driver() string { return s.persister.Driver() }

// Create assigns the next sequential id to candidate, validates it and
// persists the extended collection. The in-memory collection only changes
// after the persister accepted the new document. A rejected candidate yields
// ErrInvalidAnimal together with the rule result.
func (s *Store) Create(ctx context.Context, candidate Candidate) (Animal, Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	body := maps.Clone(candidate)
	if body == nil {
		body = Candidate{}
	}
	id := strconv.Itoa(len(s.animals))
	body[FieldID] = id

	animal, res := s.validator.Validate(ctx, body)
	if !res.OK() {
		return Animal{}, res, goerr.Wrap(ErrInvalidAnimal, "animal rejected",
			goerr.V("id", id), goerr.V("violations", res.Violations))
	}
	animal.ID = id

	next := make([]Animal, len(s.animals), len(s.animals)+1)
	copy(next, s.animals)
	next = append(next, animal)
	if err := s.save(ctx, next); err != nil {
		return Animal{}, res, err
	}
	s.animals = next

	s.metrics.AnimalCreated()
	s.metrics.SetAnimals(len(next))
	logging.From(ctx).Info("animal created",
		"id", animal.ID, "name", animal.Name, "species", animal.Species,
		"diet", animal.Diet, "personalityTraits", animal.PersonalityTraits)
	return animal.Clone(), res, nil
}

func (s *Store) save(ctx context.Context, animals []Animal) error {
	started := time.Now()
	err := s.persister.Save(ctx, animals)
	s.metrics.ObservePersist(s.persister.Driver(), err == nil, time.Since(started))
	if err != nil {
		return goerr.Wrap(err, "failed to persist animals",
			goerr.V("driver", s.persister.Driver()), goerr.V("count", len(animals)))
	}
	return nil
}

// Close releases the persister when it holds resources.
func (s *Store) Close() error {
	if c, ok := s.persister.(domain.Closer); ok {
		return c.Close()
	}
	return nil
}
