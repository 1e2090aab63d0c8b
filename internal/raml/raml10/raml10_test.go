package raml10

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/raml2go/internal/raml"
	"github.com/mark3labs/raml2go/internal/raml/raml08"
	"github.com/mark3labs/raml2go/internal/schema"
)

const itemsAPI = `#%RAML 1.0
title: Items API
version: v1
baseUri: http://api.example.com/{version}
mediaType: application/json
annotationTypes:
  controller: string
types:
  Base:
    properties:
      id: integer
  Item:
    type: Base
    properties:
      name: string
      tags?: string[]
  Tree:
    properties:
      children?: Tree[]
traits:
  paged:
    queryParameters:
      page?: integer
/items:
  (controller): Inventory
  get:
    is: [ paged ]
    responses:
      200:
        body:
          type: Item[]
  post:
    body:
      application/json:
        properties:
          name: string
    responses:
      201:
        body: Item
  /{id}:
    uriParameters:
      id: integer
    put:
      body:
        type: Item
        example: |
          {"id": 1}
`

func decodeString(t *testing.T, src string) raml.Root {
	t.Helper()
	doc, err := raml.ParseDocument(context.Background(), []byte(src), "", raml.DefaultSettings())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	root, err := NewFactory().Decode(doc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return root
}

func field(name string, required bool, s *schema.Schema) *schema.Field {
	return &schema.Field{Name: name, Required: required, Schema: s}
}

func TestDecode_Types(t *testing.T) {
	t.Parallel()
	root := decodeString(t, itemsAPI)

	want := map[string]*schema.Schema{
		"Base": schema.NewObject(field("id", true, &schema.Schema{Kind: schema.Integer})),
		"Item": schema.NewObject(
			field("id", true, &schema.Schema{Kind: schema.Integer}),
			field("name", true, &schema.Schema{Kind: schema.String}),
			field("tags", false, schema.NewArray(&schema.Schema{Kind: schema.String})),
		),
		"Tree": schema.NewObject(field("children", false, schema.NewArray(schema.NewRef("Tree")))),
	}
	if diff := cmp.Diff(want, root.Schemas()); diff != "" {
		t.Fatalf("declared types mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_Resources(t *testing.T) {
	t.Parallel()
	root := decodeString(t, itemsAPI)
	if root.Version() != raml.V10 || root.MediaType() != "application/json" {
		t.Fatalf("unexpected root attributes")
	}

	items := root.Resource("/items")
	if items.ControllerName() != "Inventory" {
		t.Fatalf("controller annotation = %q", items.ControllerName())
	}
	get := items.Action(raml.GET)
	page := get.QueryParameters()["page"]
	if page == nil || page.Required || page.Type != schema.Integer {
		t.Fatalf("trait parameter: %+v", page)
	}
	ok := get.Responses()["200"].Body["application/json"]
	if diff := cmp.Diff(schema.NewArray(schema.NewRef("Item")), ok.Schema); diff != "" || ok.SchemaName != "" {
		t.Fatalf("GET response body (-want +got):\n%s", diff)
	}

	post := items.Action(raml.POST)
	in := post.Body()["application/json"]
	if diff := cmp.Diff(schema.NewObject(field("name", true, &schema.Schema{Kind: schema.String})), in.Schema); diff != "" {
		t.Fatalf("POST body (-want +got):\n%s", diff)
	}
	if got := post.Responses()["201"].Body["application/json"].SchemaName; got != "Item" {
		t.Fatalf("POST 201 body = %q", got)
	}

	byID := root.Resource("/items/{id}")
	if byID.ControllerName() != "" {
		t.Fatalf("annotation leaked to child resource")
	}
	if id := byID.URIParameters()["id"]; !id.Required || id.Type != schema.Integer {
		t.Fatalf("uri parameter: %+v", id)
	}
	put := byID.Action(raml.PUT).Body()["application/json"]
	if put.SchemaName != "Item" || strings.TrimSpace(put.Example) != `{"id": 1}` {
		t.Fatalf("PUT body: %+v", put)
	}
}

func TestExpression(t *testing.T) {
	t.Parallel()
	cases := map[string]*schema.Schema{
		"Item[]":              schema.NewArray(schema.NewRef("Item")),
		"(A | B)[]":           schema.NewArray(schema.NewRef("A")),
		"nil | Foo":           schema.NewRef("Foo"),
		"A[] | nil":           schema.NewArray(schema.NewRef("A")),
		"datetime":            {Kind: schema.Date, Format: "datetime"},
		"string[][]":          schema.NewArray(schema.NewArray(&schema.Schema{Kind: schema.String})),
		"object":              {Kind: schema.Object},
		"nil":                 {Kind: schema.Any},
		`{"type": "integer"}`: {Kind: schema.Integer},
	}
	for expr, want := range cases {
		d := &decoder{out: NewApi(), raw: map[string]*yaml.Node{}, resolving: map[string]bool{}}
		got, err := d.expression(expr, "", "/")
		if err != nil {
			t.Fatalf("%q: %v", expr, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%q (-want +got):\n%s", expr, diff)
		}
	}
}

func TestDecode_InheritanceCycle(t *testing.T) {
	t.Parallel()
	src := `#%RAML 1.0
title: x
types:
  A:
    type: B
    properties:
      a: string
  B:
    type: A
    properties:
      b: string
`
	doc, err := raml.ParseDocument(context.Background(), []byte(src), "", raml.DefaultSettings())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = NewFactory().Decode(doc)
	var se *raml.SpecError
	if !errors.As(err, &se) || se.Code != raml.ParseError {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestEmit_RoundTrip(t *testing.T) {
	t.Parallel()
	root := decodeString(t, itemsAPI)
	out, err := NewFactory().NewEmitter().Emit(root)
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if !strings.HasPrefix(string(out), "#%RAML 1.0\n") {
		t.Fatalf("missing header:\n%s", out)
	}
	again := decodeString(t, string(out))

	if diff := cmp.Diff(root.Schemas(), again.Schemas()); diff != "" {
		t.Fatalf("types changed (-first +second):\n%s", diff)
	}
	if again.Resource("/items").ControllerName() != "Inventory" {
		t.Fatalf("annotation lost:\n%s", out)
	}
	for _, path := range []string{"/items", "/items/{id}"} {
		for _, at := range raml.ActionTypes {
			a, b := root.Resource(path).Action(at), again.Resource(path).Action(at)
			if (a == nil) != (b == nil) {
				t.Fatalf("%s %s presence changed", at, path)
			}
			if a == nil {
				continue
			}
			if diff := cmp.Diff(a.Body(), b.Body()); diff != "" {
				t.Errorf("%s %s body (-first +second):\n%s", at, path, diff)
			}
			if diff := cmp.Diff(a.QueryParameters(), b.QueryParameters()); diff != "" {
				t.Errorf("%s %s query (-first +second):\n%s", at, path, diff)
			}
		}
	}
}

func TestCrossVersion_TypeMismatch(t *testing.T) {
	t.Parallel()
	v08 := raml08.NewFactory()
	v10 := NewFactory()

	root := v10.CreateRoot()
	err := root.AddResource("/x", v08.CreateResource())
	var tm *raml.TypeMismatchError
	if !errors.As(err, &tm) || tm.Want != raml.V10 {
		t.Fatalf("expected TypeMismatchError, got %v", err)
	}
	if _, err := ExtractAction(v08.CreateAction(raml.GET)); !errors.As(err, &tm) {
		t.Fatalf("expected TypeMismatchError, got %v", err)
	}
	if _, err := raml08.ExtractResource(v10.CreateResource()); !errors.As(err, &tm) || tm.Want != raml.V08 {
		t.Fatalf("expected TypeMismatchError, got %v", err)
	}
}
