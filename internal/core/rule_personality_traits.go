package core

import (
	"context"
	"fmt"

	"menagerie/pkg/domain"
)

// NewPersonalityTraitsRule returns the traits rule for policy. Under either
// policy a list value must hold only strings. A value that is not a list is
// rejected only by the strict policy.
func NewPersonalityTraitsRule(policy TraitsPolicy) domain.Rule {
	return personalityTraitsRule{policy: policy}
}

type personalityTraitsRule struct {
	policy TraitsPolicy
}

func (personalityTraitsRule) Name() string { return "personality_traits" }

func (r personalityTraitsRule) Evaluate(_ context.Context, candidate domain.Candidate) domain.Result {
	value, ok := candidate[FieldPersonalityTraits]
	if !ok || value == nil {
		return domain.Result{}
	}
	switch v := value.(type) {
	case []string:
		return domain.Result{}
	case []any:
		for i, item := range v {
			if _, isString := item.(string); !isString {
				return r.violation(fmt.Sprintf("personalityTraits[%d] must be a string, got %T", i, item))
			}
		}
		return domain.Result{}
	default:
		if r.policy == TraitsStrict {
			return r.violation(fmt.Sprintf("personalityTraits must be a list, got %T", value))
		}
		return domain.Result{}
	}
}

func (r personalityTraitsRule) violation(msg string) domain.Result {
	return domain.Result{Violations: []domain.Violation{{
		Rule:    r.Name(),
		Field:   FieldPersonalityTraits,
		Message: msg,
	}}}
}
