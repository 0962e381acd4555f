// Package domain defines the animal record, the persisted document shape, and
// the filter and rule primitives shared by menagerie's core and its backends.
package domain

import (
	"encoding/json"
	"errors"
	"slices"
)

// DocumentKey is the top-level key of the persisted document.
const DocumentKey = "animals"

// Animal is a single record in the collection.
type Animal struct {
	ID                string   `json:"id"`
	Name              string   `json:"name" validate:"required"`
	Species           string   `json:"species" validate:"required"`
	Diet              string   `json:"diet" validate:"required"`
	PersonalityTraits []string `json:"personalityTraits,omitempty" validate:"omitempty,dive,required"`
}

// Clone returns a deep copy so callers cannot mutate store-owned slices.
func (a Animal) Clone() Animal {
	a.PersonalityTraits = slices.Clone(a.PersonalityTraits)
	return a
}

// HasTrait reports whether trait is an exact element of the personality traits.
func (a Animal) HasTrait(trait string) bool {
	return slices.Contains(a.PersonalityTraits, trait)
}

// CloneAnimals deep-copies a slice of animals preserving order.
func CloneAnimals(in []Animal) []Animal {
	if in == nil {
		return nil
	}
	out := make([]Animal, len(in))
	for i, a := range in {
		out[i] = a.Clone()
	}
	return out
}

// Document is the persisted form of the whole collection.
type Document struct {
	Animals []Animal `json:"animals"`
}

// MarshalDocument renders the collection with two-space indentation. A nil
// collection is written as an empty array.
func MarshalDocument(animals []Animal) ([]byte, error) {
	if animals == nil {
		animals = []Animal{}
	}
	return json.MarshalIndent(Document{Animals: animals}, "", "  ")
}

// UnmarshalDocument decodes a persisted document. A document without the
// animals key is malformed.
func UnmarshalDocument(data []byte) ([]Animal, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Join(ErrMalformedDocument, err)
	}
	payload, ok := raw[DocumentKey]
	if !ok {
		return nil, ErrMalformedDocument
	}
	var animals []Animal
	if err := json.Unmarshal(payload, &animals); err != nil {
		return nil, errors.Join(ErrMalformedDocument, err)
	}
	if animals == nil {
		animals = []Animal{}
	}
	return animals, nil
}

// Candidate is a decoded create request body prior to validation.
type Candidate map[string]any

// Criteria narrows a listing. Empty fields are ignored.
type Criteria struct {
	PersonalityTraits []string
	Diet              string
	Species           string
	Name              string
	// Unsatisfiable is set when a single-valued criterion was given more than
	// once. Such criteria match no animal.
	Unsatisfiable bool
}

// IsZero reports whether no recognized criteria are set.
func (c Criteria) IsZero() bool {
	return !c.Unsatisfiable && len(c.PersonalityTraits) == 0 && c.Diet == "" && c.Species == "" && c.Name == ""
}
