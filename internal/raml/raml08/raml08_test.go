package raml08

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mark3labs/raml2go/internal/raml"
	"github.com/mark3labs/raml2go/internal/schema"
)

const itemsAPI = `#%RAML 0.8
title: Items API
version: v1
baseUri: http://api.example.com/{version}
mediaType: application/json
schemas:
  - item: |
      {
        "type": "object",
        "properties": {
          "id": {"type": "integer", "required": true},
          "name": {"type": "string"}
        }
      }
traits:
  - paged:
      queryParameters:
        page:
          type: integer
/items:
  displayName: Items
  get:
    is: [ paged ]
    responses:
      200:
        body:
          application/json:
            schema: item
  post:
    body:
      application/json:
        schema: |
          {"type": "object", "properties": {"name": {"type": "string", "required": true}}}
    responses:
      201:
        description: created
  /{id}:
    uriParameters:
      id:
        type: integer
    delete:
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

func TestDecode_Facade(t *testing.T) {
	t.Parallel()
	root := decodeString(t, itemsAPI)

	if root.Version() != raml.V08 || root.Title() != "Items API" || root.APIVersion() != "v1" {
		t.Fatalf("unexpected root attributes: %s %q %q", root.Version(), root.Title(), root.APIVersion())
	}
	items := root.Resources()["/items"]
	if items == nil {
		t.Fatalf("missing /items")
	}
	if items.DisplayName() != "Items" || items.ControllerName() != "" {
		t.Fatalf("unexpected resource attributes")
	}

	get := items.Action(raml.GET)
	if get == nil {
		t.Fatalf("missing GET /items")
	}
	if p := get.QueryParameters()["page"]; p == nil || p.Type != schema.Integer {
		t.Fatalf("trait query parameter not applied: %+v", get.QueryParameters())
	}
	if got := get.Responses()["200"].Body["application/json"].SchemaName; got != "item" {
		t.Fatalf("response schema name = %q", got)
	}

	post := items.Action(raml.POST)
	body := post.Body()["application/json"]
	if body.SchemaName != "" || body.Schema == nil {
		t.Fatalf("expected inline schema, got %+v", body)
	}
	want := schema.NewObject(&schema.Field{Name: "name", Required: true, Schema: &schema.Schema{Kind: schema.String}})
	if diff := cmp.Diff(want, body.Schema); diff != "" {
		t.Fatalf("inline schema mismatch (-want +got):\n%s", diff)
	}

	byID := root.Resource("/items/{id}")
	if byID == nil {
		t.Fatalf("Resource lookup by full URI failed")
	}
	if byID.Parent() == nil || byID.Parent().URI() != "/items" {
		t.Fatalf("parent not linked")
	}
	if id := byID.URIParameters()["id"]; id == nil || !id.Required || id.Type != schema.Integer {
		t.Fatalf("uri parameter: %+v", id)
	}
	if byID.Action(raml.DELETE) == nil {
		t.Fatalf("empty method body should still declare an action")
	}
	if root.Resources()["/items"].Parent() != nil {
		t.Fatalf("top-level resource has a parent")
	}

	item, ok := root.Schemas()["item"]
	if !ok || item.Field("id") == nil || !item.Field("id").Required {
		t.Fatalf("declared schema not parsed: %+v", item)
	}
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"unknown trait": `#%RAML 0.8
title: x
/a:
  get:
    is: [ missing ]
`,
		"bad json schema": `#%RAML 0.8
title: x
schemas:
  - broken: '{"type": '
`,
		"resource not a mapping": `#%RAML 0.8
title: x
/a: [1, 2]
`,
	}
	for name, src := range cases {
		src := src
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			doc, err := raml.ParseDocument(context.Background(), []byte(src), "", raml.DefaultSettings())
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			_, err = NewFactory().Decode(doc)
			var se *raml.SpecError
			if !errors.As(err, &se) || se.Code != raml.ParseError {
				t.Fatalf("expected ParseError, got %v", err)
			}
		})
	}
}

func TestDecode_RejectsOtherVersion(t *testing.T) {
	t.Parallel()
	doc, err := raml.ParseDocument(context.Background(), []byte("#%RAML 1.0\ntitle: x\n"), "", raml.DefaultSettings())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = NewFactory().Decode(doc)
	var se *raml.SpecError
	if !errors.As(err, &se) || se.Code != raml.VersionError {
		t.Fatalf("expected VersionError, got %v", err)
	}
}

func TestEmit_RoundTrip(t *testing.T) {
	t.Parallel()
	root := decodeString(t, itemsAPI)
	out, err := NewFactory().NewEmitter().Emit(root)
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if !strings.HasPrefix(string(out), "#%RAML 0.8\n") {
		t.Fatalf("missing header:\n%s", out)
	}
	again := decodeString(t, string(out))

	if diff := cmp.Diff(root.Schemas(), again.Schemas()); diff != "" {
		t.Fatalf("schemas changed (-first +second):\n%s", diff)
	}
	first := root.Resource("/items").Action(raml.POST).Body()
	second := again.Resource("/items").Action(raml.POST).Body()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("POST body changed (-first +second):\n%s", diff)
	}
	if again.Resource("/items/{id}").URIParameters()["id"].Type != schema.Integer {
		t.Fatalf("uri parameter type lost")
	}
}

func TestFactory_ProgrammaticConstruction(t *testing.T) {
	t.Parallel()
	f := NewFactory()
	root := f.CreateRoot()
	root.SetTitle("Built")

	res := f.CreateResource()
	if err := root.AddResource("/things", res); err != nil {
		t.Fatalf("add resource: %v", err)
	}
	child := f.CreateResource()
	if err := res.AddResource("/{id}", child); err != nil {
		t.Fatalf("add child: %v", err)
	}
	a := f.CreateAction(raml.PUT)
	a.AddBody(&raml.MimeType{Type: "application/json", SchemaName: "thing"})
	if err := child.AddAction(a); err != nil {
		t.Fatalf("add action: %v", err)
	}
	root.AddSchema("thing", schema.NewObject(&schema.Field{Name: "id", Schema: &schema.Schema{Kind: schema.String}}))

	got := root.Resource("/things/{id}")
	if got == nil || got.Action(raml.PUT) == nil {
		t.Fatalf("constructed tree not reachable")
	}
	if got.Action(raml.PUT).Resource().URI() != "/things/{id}" {
		t.Fatalf("action not linked to its resource")
	}
	c, err := ExtractRoot(root)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(c.Schemas) != 1 {
		t.Fatalf("schema declaration not recorded: %+v", c.Schemas)
	}
}

func TestExtract_TypeMismatch(t *testing.T) {
	t.Parallel()
	_, err := ExtractResource(nil)
	var tm *raml.TypeMismatchError
	if !errors.As(err, &tm) || tm.Want != raml.V08 {
		t.Fatalf("expected TypeMismatchError, got %v", err)
	}
	if _, err := ExtractAction(nil); !errors.As(err, &tm) {
		t.Fatalf("expected TypeMismatchError, got %v", err)
	}
}
