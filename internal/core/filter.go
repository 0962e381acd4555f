package core

import (
	"net/url"
	"strings"
)

// Query parameter names recognized by CriteriaFromQuery.
const (
	QueryPersonalityTraits = "personalityTraits"
	QueryDiet              = "diet"
	QuerySpecies           = "species"
	QueryName              = "name"
)

// CriteriaFromQuery builds criteria from URL query values. Repeated
// personalityTraits values and the bracketed personalityTraits[] form are
// both collected; other keys are ignored. A diet, species or name given more
// than once, or in bracketed form, makes the criteria unsatisfiable.
func CriteriaFromQuery(values url.Values) Criteria {
	var traits []string
	for _, key := range []string{QueryPersonalityTraits, QueryPersonalityTraits + "[]"} {
		for _, trait := range values[key] {
			if trait != "" {
				traits = append(traits, trait)
			}
		}
	}
	criteria := Criteria{
		PersonalityTraits: traits,
		Diet:              values.Get(QueryDiet),
		Species:           values.Get(QuerySpecies),
		Name:              values.Get(QueryName),
	}
	for _, key := range []string{QueryDiet, QuerySpecies, QueryName} {
		if len(values[key]) > 1 || values.Has(key+"[]") {
			criteria.Unsatisfiable = true
		}
	}
	return criteria
}

// FilterAnimals narrows animals by criteria. Each requested trait is applied
// as its own pass, then diet, species and name; every pass keeps relative
// order. The input slice is never modified and is returned as-is when no
// criteria are set.
func FilterAnimals(criteria Criteria, animals []Animal) []Animal {
	if criteria.IsZero() {
		return animals
	}
	if criteria.Unsatisfiable {
		return []Animal{}
	}
	results := animals
	for _, trait := range criteria.PersonalityTraits {
		results = keep(results, func(a Animal) bool { return a.HasTrait(trait) })
	}
	if criteria.Diet != "" {
		results = keep(results, func(a Animal) bool { return a.Diet == criteria.Diet })
	}
	if criteria.Species != "" {
		results = keep(results, func(a Animal) bool { return a.Species == criteria.Species })
	}
	if criteria.Name != "" {
		results = keep(results, func(a Animal) bool { return a.Name == criteria.Name })
	}
	return results
}

// FindByID returns the first animal whose id equals id.
func FindByID(id string, animals []Animal) (Animal, bool) {
	for _, a := range animals {
		if a.ID == id {
			return a, true
		}
	}
	return Animal{}, false
}

// keep allocates a fresh slice so the caller's backing array is untouched.
func keep(in []Animal, pred func(Animal) bool) []Animal {
	out := make([]Animal, 0, len(in))
	for _, a := range in {
		if pred(a) {
			out = append(out, a)
		}
	}
	return out
}

// criteriaString renders criteria for log attributes.
func criteriaString(c Criteria) string {
	var parts []string
	if len(c.PersonalityTraits) > 0 {
		parts = append(parts, "personalityTraits="+strings.Join(c.PersonalityTraits, ","))
	}
	if c.Diet != "" {
		parts = append(parts, "diet="+c.Diet)
	}
	if c.Species != "" {
		parts = append(parts, "species="+c.Species)
	}
	if c.Name != "" {
		parts = append(parts, "name="+c.Name)
	}
	if c.Unsatisfiable {
		parts = append(parts, "unsatisfiable")
	}
	return strings.Join(parts, " ")
}
