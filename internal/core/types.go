package core

import "menagerie/pkg/domain"

type (
	Animal      = domain.Animal
	Candidate   = domain.Candidate
	Criteria    = domain.Criteria
	Persister   = domain.Persister
	Rule        = domain.Rule
	RulesEngine = domain.RulesEngine
	Result      = domain.Result
	Violation   = domain.Violation
)

var (
	ErrDocumentNotFound  = domain.ErrDocumentNotFound
	ErrMalformedDocument = domain.ErrMalformedDocument
	ErrInvalidAnimal     = domain.ErrInvalidAnimal
	ErrUnknownDriver     = domain.ErrUnknownDriver
)
