package domain

import (
	"context"
	"errors"
)

// Sentinel errors shared by the store and its backends.
var (
	// ErrDocumentNotFound is returned by a Persister that has never stored a document.
	ErrDocumentNotFound = errors.New("animals document not found")
	// ErrMalformedDocument is returned when persisted bytes do not decode into a document.
	ErrMalformedDocument = errors.New("animals document is malformed")
	// ErrInvalidAnimal is returned when a candidate fails validation.
	ErrInvalidAnimal = errors.New("animal is not properly formatted")
	// ErrUnknownDriver is returned for an unrecognized storage driver name.
	ErrUnknownDriver = errors.New("unknown storage driver")
)

// Persister loads and saves the whole collection as one document. Save always
// replaces the previous document in full.
type Persister interface {
	Load(ctx context.Context) ([]Animal, error)
	Save(ctx context.Context, animals []Animal) error
	Driver() string
}

// Closer is implemented by persisters holding connections or file handles.
type Closer interface {
	Close() error
}
