package spec

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/raml2go/internal/raml"
	"github.com/mark3labs/raml2go/internal/schema"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func requireCode(t *testing.T, err error, code ErrorCode) *SpecError {
	t.Helper()
	var se *SpecError
	if !errors.As(err, &se) {
		t.Fatalf("expected SpecError, got %T (%v)", err, err)
	}
	if se.Code != code {
		t.Fatalf("expected %s, got %s (%v)", code, se.Code, err)
	}
	return se
}

func TestLoad_EmptyInput(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "  ")
	requireCode(t, err, InputError)
}

func TestLoad_BlocksFileURL(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "file:///etc/hosts")
	requireCode(t, err, InputError)
}

func TestLoad_UnsupportedScheme(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "ftp://example.com/api.raml")
	requireCode(t, err, InputError)
}

func TestLoad_NetworkError(t *testing.T) {
	t.Parallel()
	// Unused port to provoke a quick network failure.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Load(ctx, "http://127.0.0.1:1/api.raml",
		WithHTTPTimeout(200*time.Millisecond), WithMaxRetries(2), WithBackoffBase(10*time.Millisecond))
	requireCode(t, err, NetworkError)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent.raml"))
	se := requireCode(t, err, InputError)
	if se.Location == "" {
		t.Fatalf("expected location to be set")
	}
}

func TestLoad_DetectsVersion(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cases := map[string]raml.Version{
		writeFile(t, dir, "v08.raml", "#%RAML 0.8\ntitle: Old\n/a:\n  get:\n"): raml.V08,
		writeFile(t, dir, "v10.raml", "#%RAML 1.0\ntitle: New\n/a:\n  get:\n"): raml.V10,
	}
	for path, want := range cases {
		root, err := Load(context.Background(), path)
		if err != nil {
			t.Fatalf("load %s: %v", path, err)
		}
		if root.Version() != want {
			t.Fatalf("%s: version = %s, want %s", path, root.Version(), want)
		}
		if root.Resource("/a").Action(raml.GET) == nil {
			t.Fatalf("%s: GET /a missing", path)
		}
	}
}

func TestLoad_VersionErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"noheader.raml": "title: x\n",
		"future.raml":   "#%RAML 2.0\ntitle: x\n",
	} {
		_, err := Load(context.Background(), writeFile(t, dir, name, content))
		requireCode(t, err, VersionError)
	}
}

func TestLoad_IncludesJSONSchema(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "item.json", `{"type": "object", "properties": {"id": {"type": "integer", "required": true}}}`)
	path := writeFile(t, dir, "api.raml", `#%RAML 0.8
title: Includes
schemas:
  - item: !include item.json
/items:
  post:
    body:
      application/json:
        schema: item
`)
	root, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	item := root.Schemas()["item"]
	if item == nil || item.Kind != schema.Object || item.Field("id") == nil || !item.Field("id").Required {
		t.Fatalf("included schema not decoded: %+v", item)
	}
}

func TestLoad_IncludeCycle(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "Item: !include b.yaml\n")
	writeFile(t, dir, "b.yaml", "Other: !include a.yaml\n")
	path := writeFile(t, dir, "api.raml", "#%RAML 1.0\ntitle: x\ntypes: !include a.yaml\n")
	_, err := Load(context.Background(), path)
	requireCode(t, err, ParseError)
}

func TestLoad_HTTPWithRelativeInclude(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/specs/api.raml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`#%RAML 1.0
title: Remote
types:
  Item: !include types/item.raml
/items:
  get:
    responses:
      200:
        body:
          application/json:
            type: Item[]
`))
	})
	mux.HandleFunc("/specs/types/item.raml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("properties:\n  id: integer\n"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	root, err := Load(context.Background(), srv.URL+"/specs/api.raml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if root.Title() != "Remote" {
		t.Fatalf("title = %q", root.Title())
	}
	if item := root.Schemas()["Item"]; item == nil || item.Field("id") == nil {
		t.Fatalf("remote include not resolved: %+v", item)
	}
}

func TestLoad_HTTPBlocksFileInclude(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("#%RAML 1.0\ntitle: x\ntypes:\n  Item: !include /etc/hostname\n"))
	}))
	defer srv.Close()

	_, err := Load(context.Background(), srv.URL+"/api.raml")
	requireCode(t, err, InputError)
}

func TestFactoryFor(t *testing.T) {
	t.Parallel()
	for _, v := range Versions() {
		f, err := FactoryFor(v)
		if err != nil || f.Version() != v {
			t.Fatalf("factory for %s: %v", v, err)
		}
	}
	_, err := FactoryFor("0.9")
	requireCode(t, err, VersionError)
}
