package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestMarshalDocumentIndentsAndWrapsCollection(t *testing.T) {
	data, err := MarshalDocument([]Animal{{ID: "0", Name: "Erica", Species: "gorilla", Diet: "omnivore", PersonalityTraits: []string{"quirky"}}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(data)
	if !strings.HasPrefix(out, "{\n  \"animals\": [\n    {\n      \"id\": \"0\",") {
		t.Fatalf("unexpected layout:\n%s", out)
	}
	if !strings.Contains(out, `"personalityTraits": [`) {
		t.Fatalf("expected traits key, got:\n%s", out)
	}
}

func TestMarshalDocumentNilCollectionIsEmptyArray(t *testing.T) {
	data, err := MarshalDocument(nil)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "{\n  \"animals\": []\n}" {
		t.Fatalf("unexpected output %q", data)
	}
}

func TestUnmarshalDocument(t *testing.T) {
	animals, err := UnmarshalDocument([]byte(`{"animals":[{"id":"0","name":"Noel","species":"bear","diet":"carnivore"}]}`))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(animals) != 1 || animals[0].Name != "Noel" {
		t.Fatalf("unexpected animals %+v", animals)
	}

	empty, err := UnmarshalDocument([]byte(`{"animals":[]}`))
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v %v", empty, err)
	}
}

func TestUnmarshalDocumentRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":        `{"animals":`,
		"missing key":     `{"zoo":[]}`,
		"wrong type":      `{"animals":{"id":"0"}}`,
		"top-level array": `[]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := UnmarshalDocument([]byte(body)); !errors.Is(err, ErrMalformedDocument) {
				t.Fatalf("expected ErrMalformedDocument, got %v", err)
			}
		})
	}
}

func TestAnimalCloneIsDeep(t *testing.T) {
	orig := Animal{ID: "1", PersonalityTraits: []string{"loyal"}}
	cp := orig.Clone()
	cp.PersonalityTraits[0] = "grumpy"
	if orig.PersonalityTraits[0] != "loyal" {
		t.Fatalf("clone shares backing array")
	}
	if !orig.HasTrait("loyal") || orig.HasTrait("loy") {
		t.Fatalf("HasTrait must use exact element match")
	}
	if CloneAnimals(nil) != nil {
		t.Fatalf("nil in, nil out")
	}
}

func TestCriteriaIsZero(t *testing.T) {
	if !(Criteria{}).IsZero() {
		t.Fatalf("empty criteria should be zero")
	}
	if (Criteria{Diet: "herbivore"}).IsZero() {
		t.Fatalf("diet criteria should not be zero")
	}
	if (Criteria{Unsatisfiable: true}).IsZero() {
		t.Fatalf("unsatisfiable criteria should not be zero")
	}
}
