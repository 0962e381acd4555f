package core

import (
	"context"
	"fmt"

	"menagerie/pkg/domain"
)

// Candidate field names as they appear on the wire.
const (
	FieldID                = "id"
	FieldName              = "name"
	FieldSpecies           = "species"
	FieldDiet              = "diet"
	FieldPersonalityTraits = "personalityTraits"
)

// NewRequiredStringRule rejects a candidate whose field is missing, not a
// string, or empty.
func NewRequiredStringRule(field string) domain.Rule {
	return requiredStringRule{field: field}
}

type requiredStringRule struct {
	field string
}

func (r requiredStringRule) Name() string { return "required_" + r.field }

func (r requiredStringRule) Evaluate(_ context.Context, candidate domain.Candidate) domain.Result {
	value, ok := candidate[r.field]
	if !ok || value == nil {
		return r.violation("is required")
	}
	s, isString := value.(string)
	if !isString {
		return r.violation(fmt.Sprintf("must be a string, got %T", value))
	}
	if s == "" {
		return r.violation("must not be empty")
	}
	return domain.Result{}
}

func (r requiredStringRule) violation(msg string) domain.Result {
	return domain.Result{Violations: []domain.Violation{{
		Rule:    r.Name(),
		Field:   r.field,
		Message: r.field + " " + msg,
	}}}
}
