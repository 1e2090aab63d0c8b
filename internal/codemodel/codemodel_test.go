package codemodel

import (
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func TestModel_NewFile(t *testing.T) {
	t.Parallel()

	m := New("example.com/shop")
	f := must(m.NewFile("models/item.go"))
	if f.Package != "models" || f.ImportPath != "example.com/shop/models" || f.Seq() != 1 {
		t.Errorf("file = %s %s seq %d", f.Package, f.ImportPath, f.Seq())
	}

	root := must(m.NewFile("doc.go"))
	if root.Package != "shop" || root.ImportPath != "example.com/shop" || root.Seq() != 2 {
		t.Errorf("root file = %s %s seq %d", root.Package, root.ImportPath, root.Seq())
	}

	if _, err := m.NewFile("models/item.go"); err == nil {
		t.Errorf("expected an error for a duplicate path")
	}

	files := m.Files()
	if len(files) != 2 || files[0] != f {
		t.Errorf("files = %v", files)
	}
}

func TestModel_TypesAreAppendOnly(t *testing.T) {
	t.Parallel()

	m := New("example.com/shop")
	f := must(m.NewFile("models/item.go"))

	item := must(f.AddType(&Type{Name: "Item"}))
	if got := item.QualifiedName(); got != "example.com/shop/models.Item" {
		t.Errorf("qualified name = %q", got)
	}
	if _, err := f.AddType(&Type{Name: "Item"}); err == nil {
		t.Errorf("redefining a type must fail")
	}

	if err := item.AddField(&Field{Name: "Name", Type: "string"}); err != nil {
		t.Fatal(err)
	}
	if err := item.AddField(&Field{Name: "Name", Type: "int"}); err == nil {
		t.Errorf("redefining a field must fail")
	}
	if err := item.AddMethod(&Func{Name: "Validate", Receiver: "i Item", Results: []string{"error"}, Body: "return nil"}); err != nil {
		t.Fatal(err)
	}
	if err := item.AddMethod(&Func{Name: "Validate"}); err == nil {
		t.Errorf("redefining a method must fail")
	}

	if got, ok := m.LookupType("example.com/shop/models", "Item"); !ok || got != item {
		t.Errorf("LookupType = %v, %v", got, ok)
	}
	if _, ok := m.LookupType("example.com/shop/controllers", "Item"); ok {
		t.Errorf("type found in the wrong package")
	}
}

func TestFile_Imports(t *testing.T) {
	t.Parallel()

	m := New("example.com/shop")
	f := must(m.NewFile("controllers/items.go"))

	tests := []struct {
		path, want string
	}{
		{"example.com/shop/models", "models"},
		{"example.com/shop/models", "models"},
		{"example.com/other/models", "models2"},
		{"example.com/shop/controllers", ""},
		{"github.com/x/go.uuid", "go_uuid"},
		{"example.com/type", "pkg_type"},
		{"example.com/9lives", "pkg_9lives"},
	}
	for _, tt := range tests {
		if got := f.Import(tt.path); got != tt.want {
			t.Errorf("Import(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
	if got := f.Qualify("example.com/shop/models", "Item"); got != "models.Item" {
		t.Errorf("Qualify = %q", got)
	}
	if got := f.Qualify(f.ImportPath, "Local"); got != "Local" {
		t.Errorf("Qualify local = %q", got)
	}
}

func TestFile_Render(t *testing.T) {
	t.Parallel()

	m := New("example.com/shop")
	f := must(m.NewFile("controllers/items.go"))
	f.Doc = "Package controllers serves the Items API."
	f.Import("net/http")
	itemType := f.Qualify("example.com/shop/models", "Item")

	svc := must(f.AddType(&Type{Name: "ItemsService", Kind: Interface, Doc: "ItemsService handles /items."}))
	if err := svc.AddMethod(&Func{Name: "Get", Params: []Param{{Name: "r", Type: "*http.Request"}}, Results: []string{"[]" + itemType, "error"}}); err != nil {
		t.Fatal(err)
	}

	ctrl := must(f.AddType(&Type{Name: "ItemsController"}))
	if err := ctrl.AddField(&Field{Name: "svc", Type: "ItemsService"}); err != nil {
		t.Fatal(err)
	}
	err := ctrl.AddMethod(&Func{
		Name:     "Register",
		Doc:      "Register mounts the routes.",
		Receiver: "c *ItemsController",
		Params:   []Param{{Name: "mux", Type: "*http.ServeMux"}},
		Body:     `mux.HandleFunc("GET /items", func(w http.ResponseWriter, r *http.Request) {})`,
	})
	if err != nil {
		t.Fatal(err)
	}
	f.AddVar("_", "ItemsService", "nil")

	src := must(f.Render())
	want := `// Code generated by raml2go. DO NOT EDIT.

// Package controllers serves the Items API.
package controllers

import (
	"net/http"

	"example.com/shop/models"
)

// ItemsService handles /items.
type ItemsService interface {
	Get(r *http.Request) ([]models.Item, error)
}

type ItemsController struct {
	svc ItemsService
}

// Register mounts the routes.
func (c *ItemsController) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /items", func(w http.ResponseWriter, r *http.Request) {})
}

var _ ItemsService = nil
`
	if diff := cmp.Diff(want, string(src)); diff != "" {
		t.Errorf("render mismatch (-want +got):\n%s", diff)
	}
}

func TestFile_RenderDefinedTypeAndTags(t *testing.T) {
	t.Parallel()

	m := New("example.com/shop")
	f := must(m.NewFile("models/tags.go"))
	must(f.AddType(&Type{Name: "Tags", Kind: Defined, Underlying: "[]string"}))
	item := must(f.AddType(&Type{Name: "Item", Doc: "Item is a stock item.\n\nIt is sold by the unit."}))
	if err := item.AddField(&Field{Name: "ID", Type: "int64", Tag: `json:"id"`}); err != nil {
		t.Fatal(err)
	}
	if err := item.AddField(&Field{Name: "Tags", Type: "Tags", Tag: `json:"tags,omitempty"`, Doc: "Tags are free-form."}); err != nil {
		t.Fatal(err)
	}

	out := string(must(f.Render()))
	for _, want := range []string{
		"type Tags []string\n",
		"// Item is a stock item.\n//\n// It is sold by the unit.\ntype Item struct {",
		// The doc comment ends the alignment block, so both fields keep single spaces.
		"\tID int64 `json:\"id\"`\n",
		"\t// Tags are free-form.\n\tTags Tags `json:\"tags,omitempty\"`\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "import") {
		t.Errorf("no imports expected:\n%s", out)
	}
}

func TestModel_ConcurrentFiles(t *testing.T) {
	t.Parallel()

	m := New("example.com/shop")
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f, err := m.NewFile("models/t" + strings.Repeat("x", i) + ".go")
			if err != nil {
				t.Error(err)
				return
			}
			f.Import("net/http")
			if _, err := f.AddType(&Type{Name: "T" + strings.Repeat("x", i)}); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	files := m.Files()
	if len(files) != 32 {
		t.Fatalf("got %d files, want 32", len(files))
	}
	for i, f := range files {
		if f.Seq() != i+1 {
			t.Errorf("files[%d].Seq() = %d", i, f.Seq())
		}
	}
}
