package domain

import "context"

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule    string `json:"rule"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// OK reports whether no rule was violated.
func (r Result) OK() bool {
	return len(r.Violations) == 0
}

// Rule checks a single aspect of a create candidate.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, candidate Candidate) Result
}

// RulesEngine runs registered rules in registration order.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an empty engine.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Rules returns the registered rule names in order.
func (e *RulesEngine) Rules() []string {
	names := make([]string, 0, len(e.rules))
	for _, r := range e.rules {
		names = append(names, r.Name())
	}
	return names
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, candidate Candidate) Result {
	var combined Result
	for _, rule := range e.rules {
		combined.Merge(rule.Evaluate(ctx, candidate))
	}
	return combined
}
