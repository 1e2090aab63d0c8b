package schema

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFingerprint_IgnoresFieldOrderAndDescription(t *testing.T) {
	t.Parallel()
	a := NewObject(
		&Field{Name: "name", Required: true, Schema: &Schema{Kind: String}},
		&Field{Name: "age", Schema: &Schema{Kind: Integer, Description: "years"}},
	)
	b := NewObject(
		&Field{Name: "age", Schema: &Schema{Kind: Integer}},
		&Field{Name: "name", Required: true, Schema: &Schema{Kind: String}},
	)
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatalf("expected equal fingerprints:\n%s\n%s", a.Canonical(), b.Canonical())
	}
}

func TestFingerprint_DistinguishesStructure(t *testing.T) {
	t.Parallel()
	base := NewObject(&Field{Name: "name", Required: true, Schema: &Schema{Kind: String}})
	tests := []struct {
		name  string
		other *Schema
	}{
		{"optional", NewObject(&Field{Name: "name", Schema: &Schema{Kind: String}})},
		{"type", NewObject(&Field{Name: "name", Required: true, Schema: &Schema{Kind: Integer}})},
		{"field name", NewObject(&Field{Name: "title", Required: true, Schema: &Schema{Kind: String}})},
		{"nesting", NewObject(&Field{Name: "name", Required: true, Schema: NewArray(&Schema{Kind: String})})},
		{"ref", NewObject(&Field{Name: "name", Required: true, Schema: NewRef("Name")})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if base.Fingerprint() == tt.other.Fingerprint() {
				t.Fatalf("expected different fingerprints for %s", tt.other.Canonical())
			}
		})
	}
}

func TestRefs(t *testing.T) {
	t.Parallel()
	s := NewObject(
		&Field{Name: "owner", Schema: NewRef("User")},
		&Field{Name: "tags", Schema: NewArray(NewRef("Tag"))},
		&Field{Name: "creator", Schema: NewRef("User")},
	)
	if diff := cmp.Diff([]string{"User", "Tag"}, s.Refs()); diff != "" {
		t.Fatalf("refs mismatch (-want +got):\n%s", diff)
	}
}

func TestFromJSON_Draft3Required(t *testing.T) {
	t.Parallel()
	doc := `{
  "$schema": "http://json-schema.org/draft-03/schema",
  "type": "object",
  "properties": {
    "name": {"type": "string", "required": true},
    "size": {"type": ["integer", "null"]},
    "tags": {"type": "array", "items": {"type": "string"}},
    "owner": {"$ref": "#/definitions/Owner"}
  },
  "definitions": {
    "Owner": {"type": "object", "properties": {"id": {"type": "string"}}, "required": ["id"]}
  }
}`
	got, defs, err := FromJSON([]byte(doc), "")
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	want := NewObject(
		&Field{Name: "name", Required: true, Schema: &Schema{Kind: String}},
		&Field{Name: "owner", Schema: NewRef("Owner")},
		&Field{Name: "size", Schema: &Schema{Kind: Integer}},
		&Field{Name: "tags", Schema: NewArray(&Schema{Kind: String})},
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("schema mismatch (-want +got):\n%s", diff)
	}
	owner, ok := defs["Owner"]
	if !ok {
		t.Fatalf("expected Owner definition, got %v", defs)
	}
	if f := owner.Field("id"); f == nil || !f.Required {
		t.Fatalf("expected required id field on Owner, got %+v", owner)
	}
}

func TestFromJSON_Invalid(t *testing.T) {
	t.Parallel()
	if _, _, err := FromJSON([]byte(`[1,2]`), ""); err == nil {
		t.Fatalf("expected error for non-object schema")
	}
	if _, _, err := FromJSON([]byte(`{`), ""); err == nil {
		t.Fatalf("expected error for malformed json")
	}
}

func TestFromJSON_SelfReference(t *testing.T) {
	t.Parallel()
	doc := `{
  "type": "object",
  "properties": {
    "name": {"type": "string"},
    "children": {"type": "array", "items": {"$ref": "#"}}
  }
}`
	got, _, err := FromJSON([]byte(doc), "Node")
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	want := NewObject(
		&Field{Name: "children", Schema: NewArray(NewRef("Node"))},
		&Field{Name: "name", Schema: &Schema{Kind: String}},
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("schema mismatch (-want +got):\n%s", diff)
	}

	if _, _, err := FromJSON([]byte(doc), ""); !errors.Is(err, ErrAnonymousSelfRef) {
		t.Fatalf("expected ErrAnonymousSelfRef for an anonymous schema, got %v", err)
	}
}

func TestRefName(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"#/definitions/Foo":        "Foo",
		"Foo":                      "Foo",
		"schemas/foo.schema.json#": "foo",
		"bar.json":                 "bar",
	}
	for in, want := range tests {
		if got := RefName(in); got != want {
			t.Errorf("RefName(%q) = %q, want %q", in, got, want)
		}
	}
}
