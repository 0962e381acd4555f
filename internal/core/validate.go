package core

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"menagerie/pkg/domain"
)

// Validator accepts or rejects create candidates. The rule chain checks the
// raw shape of the decoded body; struct tags on domain.Animal are checked
// after conversion.
type Validator struct {
	engine *RulesEngine
	policy TraitsPolicy
	tags   *validator.Validate
}

// NewValidator builds a validator for policy using the default rule chain.
func NewValidator(policy TraitsPolicy) *Validator {
	return NewValidatorWithEngine(NewRulesEngineWithPolicy(policy), policy)
}

// NewValidatorWithEngine builds a validator around a caller-supplied engine.
func NewValidatorWithEngine(engine *RulesEngine, policy TraitsPolicy) *Validator {
	if engine == nil {
		engine = NewRulesEngineWithPolicy(policy)
	}
	return &Validator{engine: engine, policy: policy, tags: newTagValidator()}
}

func newTagValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Policy returns the traits policy in effect.
func (v *Validator) Policy() TraitsPolicy { return v.policy }

// Validate evaluates candidate and returns the converted animal with the
// aggregated result. The animal is only meaningful when the result is OK.
func (v *Validator) Validate(ctx context.Context, candidate Candidate) (Animal, Result) {
	res := v.engine.Evaluate(ctx, candidate)
	if !res.OK() {
		return Animal{}, res
	}
	animal := AnimalFromCandidate(candidate)
	if err := v.tags.Struct(animal); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:    "struct_" + fe.Tag(),
					Field:   fe.Field(),
					Message: fe.Namespace() + " failed " + fe.Tag(),
				})
			}
		} else {
			res.Violations = append(res.Violations, domain.Violation{Rule: "struct", Message: err.Error()})
		}
	}
	return animal, res
}

var defaultValidator = NewValidator(TraitsLenient)

// ValidateAnimal reports whether candidate would be accepted by the lenient
// rule chain.
func ValidateAnimal(candidate Candidate) bool {
	_, res := defaultValidator.Validate(context.Background(), candidate)
	return res.OK()
}

// AnimalFromCandidate converts a decoded body into an Animal. A scalar string
// traits value becomes a one-element list; any other non-list value is dropped.
func AnimalFromCandidate(candidate Candidate) Animal {
	animal := Animal{
		ID:      stringField(candidate, FieldID),
		Name:    stringField(candidate, FieldName),
		Species: stringField(candidate, FieldSpecies),
		Diet:    stringField(candidate, FieldDiet),
	}
	switch v := candidate[FieldPersonalityTraits].(type) {
	case string:
		animal.PersonalityTraits = []string{v}
	case []string:
		animal.PersonalityTraits = append([]string(nil), v...)
	case []any:
		traits := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				traits = append(traits, s)
			}
		}
		animal.PersonalityTraits = traits
	}
	return animal
}

func stringField(candidate Candidate, field string) string {
	s, _ := candidate[field].(string)
	return s
}
