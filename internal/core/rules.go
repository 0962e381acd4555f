package core

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"menagerie/pkg/domain"
)

// TraitsPolicy controls how the personality traits field is validated.
type TraitsPolicy string

const (
	// TraitsLenient accepts a missing or non-list traits value. A list must
	// contain only strings.
	TraitsLenient TraitsPolicy = "lenient"
	// TraitsStrict accepts a missing traits value or a list of strings only.
	TraitsStrict TraitsPolicy = "strict"
)

// ParseTraitsPolicy maps a configuration value to a policy. Empty selects lenient.
func ParseTraitsPolicy(s string) (TraitsPolicy, error) {
	switch TraitsPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", TraitsLenient:
		return TraitsLenient, nil
	case TraitsStrict:
		return TraitsStrict, nil
	default:
		return "", goerr.New("unknown traits policy", goerr.V("policy", s))
	}
}

// NewRulesEngine constructs an empty engine.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds the lenient create-time rule chain.
func NewDefaultRulesEngine() *RulesEngine {
	return NewRulesEngineWithPolicy(TraitsLenient)
}

// NewRulesEngineWithPolicy builds the create-time rule chain: name, species
// and diet must be strings, followed by the traits rule for policy.
func NewRulesEngineWithPolicy(policy TraitsPolicy) *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewRequiredStringRule(FieldName))
	engine.Register(NewRequiredStringRule(FieldSpecies))
	engine.Register(NewRequiredStringRule(FieldDiet))
	engine.Register(NewPersonalityTraitsRule(policy))
	return engine
}
