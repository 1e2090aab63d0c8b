package metadata

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mark3labs/raml2go/internal/schema"
)

func object(fields ...*schema.Field) *schema.Schema { return schema.NewObject(fields...) }

func field(name string, required bool, s *schema.Schema) *schema.Field {
	return &schema.Field{Name: name, Required: required, Schema: s}
}

func TestResolver_CollisionSuffixes(t *testing.T) {
	t.Parallel()

	r := NewResolver()
	a := object(field("name", true, &schema.Schema{Kind: schema.String}))
	b := object(field("size", true, &schema.Schema{Kind: schema.Integer}))
	c := object(field("tags", false, schema.NewArray(&schema.Schema{Kind: schema.String})))

	var got []string
	for _, s := range []*schema.Schema{a, b, c, a.Clone(), b} {
		ref, err := r.ResolveOrCreate("thing", s, "test")
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, ref.Body)
	}
	want := []string{"Thing", "Thing2", "Thing3", "Thing", "Thing2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	first, _ := r.Lookup("Thing")
	again, _ := r.Lookup(got[3])
	if first != again {
		t.Errorf("equivalent schemas resolved to different bodies")
	}
}

func TestResolver_NestedObjectsAndArrays(t *testing.T) {
	t.Parallel()

	r := NewResolver()
	s := object(
		field("owner", true, object(field("name", true, &schema.Schema{Kind: schema.String}))),
		field("lines", false, schema.NewArray(object(field("sku", true, &schema.Schema{Kind: schema.String})))),
		field("meta", false, schema.NewObject()),
	)
	ref, err := r.ResolveOrCreate("OrdersPostBody", s, "test")
	if err != nil {
		t.Fatal(err)
	}
	if ref.Body != "OrdersPostBody" {
		t.Fatalf("body = %q", ref.Body)
	}

	var names []string
	for _, b := range r.Bodies() {
		names = append(names, b.Name)
	}
	want := []string{"OrdersPostBody", "OrdersPostBodyLinesItem", "OrdersPostBodyOwner"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("bodies mismatch (-want +got):\n%s", diff)
	}

	body, _ := r.Lookup("OrdersPostBody")
	if diff := cmp.Diff([]string{"OrdersPostBodyLinesItem", "OrdersPostBodyOwner"}, body.Dependencies()); diff != "" {
		t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
	}
	if got := body.Fields[2].Type; got.Kind != schema.Object {
		t.Errorf("empty object should stay free-form, got %v", got)
	}
	if diff := cmp.Diff(want[1:], r.Graph().Deps("OrdersPostBody")); diff != "" {
		t.Errorf("graph edges mismatch (-want +got):\n%s", diff)
	}
}

func TestResolver_InlinePrimitiveHasNoBody(t *testing.T) {
	t.Parallel()

	r := NewResolver()
	ref, err := r.ResolveOrCreate("Names", schema.NewArray(&schema.Schema{Kind: schema.String}), "test")
	if err != nil {
		t.Fatal(err)
	}
	if ref.String() != "[]string" {
		t.Errorf("ref = %s", ref)
	}
	if len(r.Bodies()) != 0 {
		t.Errorf("unexpected bodies %v", r.Bodies())
	}
}

func TestResolver_Declare(t *testing.T) {
	t.Parallel()

	r := NewResolver()
	err := r.Declare(map[string]*schema.Schema{
		"user":    object(field("friends", false, schema.NewArray(schema.NewRef("person")))),
		"person":  schema.NewRef("user"),
		"names":   schema.NewArray(&schema.Schema{Kind: schema.String}),
		"account": object(field("friends", false, schema.NewArray(schema.NewRef("person")))),
	})
	if err != nil {
		t.Fatal(err)
	}

	user, _ := r.Declared("user")
	person, _ := r.Declared("person")
	account, _ := r.Declared("account")
	if user != person {
		t.Errorf("alias should resolve to the aliased body")
	}
	// account and user are structurally identical; account sorts first.
	if account != user || account.Name != "Account" {
		t.Errorf("identical declarations not merged: %q %q", account.Name, user.Name)
	}
	if !r.Graph().Cyclic("Account", "Account") {
		t.Errorf("self reference through alias not recorded")
	}

	names, _ := r.Declared("names")
	if names.Alias == nil || names.Alias.String() != "[]string" || len(names.Fields) != 0 {
		t.Errorf("non-object declaration should be an alias: %+v", names)
	}
}

func TestResolver_DeclareErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]map[string]*schema.Schema{
		"UnknownAlias": {"a": schema.NewRef("b")},
		"AliasCycle":   {"a": schema.NewRef("b"), "b": schema.NewRef("a")},
		"UnknownField": {"a": object(field("x", true, schema.NewRef("missing")))},
	}
	for name, decls := range tests {
		decls := decls

		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := NewResolver().Declare(decls)
			var ce *ConsistencyError
			if !errors.As(err, &ce) || !errors.Is(err, ErrUndeclaredSchema) {
				t.Fatalf("expected undeclared schema consistency error, got %v", err)
			}
		})
	}
}
