package export_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/mark3labs/raml2go/internal/export"
	"github.com/mark3labs/raml2go/internal/raml"
	"github.com/mark3labs/raml2go/internal/spec"
)

const doc10 = `#%RAML 1.0
title: Shop
version: v2
baseUri: http://shop.example.com/{version}
types:
  Item:
    properties:
      name: string
      price?:
        type: number
        format: double
      owner?: Owner
  Owner:
    properties:
      items: Item[]
/items:
  get:
    queryParameters:
      limit:
        type: integer
        required: false
    responses:
      200:
        body:
          application/json:
            type: Item[]
  post:
    body:
      application/json:
        type: Item
  /{itemId}:
    uriParameters:
      itemId:
        type: integer
    put:
      body:
        application/json:
          type: Item
    delete:
`

const doc08 = `#%RAML 0.8
title: Shop
version: v2
baseUri: http://shop.example.com/{version}
schemas:
  - Item: |
      {"type": "object", "properties": {"name": {"type": "string"}}, "required": ["name"]}
/items:
  post:
    body:
      application/json:
        schema: Item
    responses:
      201:
        description: Created
`

var cmpSorted = cmpopts.SortSlices(func(a, b string) bool { return a < b })

func parse(t *testing.T, doc string) raml.Root {
	t.Helper()
	root, err := spec.Parse(context.Background(), []byte(doc), "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return root
}

func TestToOpenAPI(t *testing.T) {
	t.Parallel()

	out, err := export.ToOpenAPI(context.Background(), parse(t, doc10))
	if err != nil {
		t.Fatalf("ToOpenAPI: %v", err)
	}

	if out.Info.Title != "Shop" || out.Info.Version != "v2" {
		t.Errorf("info = %+v", out.Info)
	}
	if len(out.Servers) != 1 || out.Servers[0].URL != "http://shop.example.com/v2" {
		t.Errorf("servers = %+v", out.Servers)
	}

	var components []string
	for name := range out.Components.Schemas {
		components = append(components, name)
	}
	if diff := cmp.Diff([]string{"Item", "Owner"}, components, cmpSorted); diff != "" {
		t.Errorf("components mismatch (-want +got):\n%s", diff)
	}

	var paths []string
	for p := range out.Paths {
		paths = append(paths, p)
	}
	if diff := cmp.Diff([]string{"/items", "/items/{itemId}"}, paths, cmpSorted); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}

	items := out.Paths["/items"]
	if items.Get == nil || items.Post == nil {
		t.Fatalf("/items operations: get=%v post=%v", items.Get, items.Post)
	}
	if got := items.Get.OperationID; got != "getItems" {
		t.Errorf("get operationId = %q, want getItems", got)
	}
	limit := items.Get.Parameters.GetByInAndName("query", "limit")
	if limit == nil || limit.Required || limit.Schema.Value.Type != "integer" {
		t.Errorf("limit parameter = %+v", limit)
	}
	body := items.Post.RequestBody.Value.Content.Get("application/json")
	if body == nil || body.Schema.Ref != "#/components/schemas/Item" || body.Schema.Value == nil {
		t.Fatalf("post body schema = %+v, want a resolved reference to Item", body)
	}
	if items.Post.Responses.Get(200) != nil || items.Post.Responses.Default() == nil {
		t.Errorf("post without responses should get a default response")
	}

	byID := out.Paths["/items/{itemId}"]
	if byID.Put == nil || byID.Delete == nil {
		t.Fatalf("/items/{itemId} operations missing")
	}
	if got := byID.Put.OperationID; got != "putItemsByItemID" {
		t.Errorf("put operationId = %q, want putItemsByItemID", got)
	}
	id := byID.Delete.Parameters.GetByInAndName("path", "itemId")
	if id == nil || !id.Required || id.Schema.Value.Type != "integer" {
		t.Errorf("itemId parameter = %+v", id)
	}
}

func TestToOpenAPI_V08(t *testing.T) {
	t.Parallel()

	out, err := export.ToOpenAPI(context.Background(), parse(t, doc08))
	if err != nil {
		t.Fatalf("ToOpenAPI: %v", err)
	}
	item := out.Components.Schemas["Item"]
	if item == nil || item.Value.Type != "object" {
		t.Fatalf("Item component = %+v", item)
	}
	if diff := cmp.Diff([]string{"name"}, item.Value.Required); diff != "" {
		t.Errorf("required mismatch (-want +got):\n%s", diff)
	}
	created := out.Paths["/items"].Post.Responses.Get(201)
	if created == nil || created.Value.Description == nil || *created.Value.Description != "Created" {
		t.Errorf("201 response = %+v", created)
	}
}

func TestToRAML_RoundTrip(t *testing.T) {
	t.Parallel()

	for name, doc := range map[string]string{"0.8": doc08, "1.0": doc10} {
		doc := doc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			root := parse(t, doc)
			data, err := export.ToRAML(root)
			if err != nil {
				t.Fatalf("ToRAML: %v", err)
			}
			again := parse(t, string(data))
			if again.Version() != root.Version() || again.Title() != root.Title() {
				t.Errorf("round trip changed header: %s %q", again.Version(), again.Title())
			}
			if diff := cmp.Diff(raml.SortedKeys(root.Schemas()), raml.SortedKeys(again.Schemas())); diff != "" {
				t.Errorf("schemas mismatch (-want +got):\n%s", diff)
			}
			for _, uri := range []string{"/items"} {
				if again.Resource(uri) == nil {
					t.Errorf("resource %s lost in round trip", uri)
				}
			}
		})
	}
}
