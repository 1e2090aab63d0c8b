package rules

import (
	"fmt"
	"go/token"
	"strings"

	"github.com/mark3labs/raml2go/internal/codemodel"
	"github.com/mark3labs/raml2go/internal/metadata"
	"github.com/mark3labs/raml2go/internal/schema"
	"github.com/mark3labs/raml2go/internal/strcase"
)

// typer maps metadata types to Go type expressions as seen from one file.
type typer struct {
	ctx  *Context
	file *codemodel.File
	// owner is the body being generated; references to members of its
	// cycle may point at types not yet in the model.
	owner string
}

func (t typer) goType(ref metadata.TypeRef) (string, error) {
	switch ref.Kind {
	case schema.Ref:
		if err := t.require(ref.Body); err != nil {
			return "", err
		}
		return t.file.Qualify(t.ctx.ModelsPath(), ref.Body), nil
	case schema.Array:
		if ref.Elem == nil {
			return "[]any", nil
		}
		elem, err := t.goType(*ref.Elem)
		if err != nil {
			return "", err
		}
		return "[]" + elem, nil
	case schema.Object:
		return "map[string]any", nil
	case schema.String:
		return "string", nil
	case schema.Integer:
		switch ref.Format {
		case "int8", "int16", "int32", "int64":
			return ref.Format, nil
		case "int":
			return "int", nil
		}
		return "int64", nil
	case schema.Number:
		if ref.Format == "float" || ref.Format == "float32" {
			return "float32", nil
		}
		return "float64", nil
	case schema.Boolean:
		return "bool", nil
	case schema.Date:
		switch ref.Format {
		case "", "datetime", "date-time":
			return t.file.Qualify("time", "Time"), nil
		}
		return "string", nil
	case schema.File:
		return "[]byte", nil
	}
	return "any", nil
}

// require fails unless body is already in the model or shares a cycle with
// the owner.
func (t typer) require(body string) error {
	if _, ok := t.ctx.Model.LookupType(t.ctx.ModelsPath(), body); ok {
		return nil
	}
	if t.owner != "" && t.ctx.Graph.Cyclic(t.owner, body) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMissingType, body)
}

// isRef reports whether ref names a body directly.
func isRef(ref *metadata.TypeRef) bool { return ref != nil && ref.Kind == schema.Ref }

// identifier returns a Go identifier for a wire name, avoiding keywords
// and the names in taken.
func identifier(name string, exported bool, taken map[string]bool) string {
	id := strcase.ToPascalCase(name)
	if id == "" {
		id = "Field"
	}
	if !exported {
		id = strcase.ToCamelCase(id)
	}
	if token.IsKeyword(id) || taken[id] {
		base := id
		id = base + "Param"
		for i := 2; taken[id]; i++ {
			id = fmt.Sprintf("%sParam%d", base, i)
		}
	}
	taken[id] = true
	return id
}

// pattern returns the net/http ServeMux pattern for method and path. A
// trailing slash matches that path only, not the subtree below it.
func pattern(method, path string) string {
	path = sanitizeWildcards(path)
	if path == "" || strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/") + "/{$}"
	}
	return strings.ToUpper(method) + " " + path
}

// sanitizeWildcards makes URI parameter names valid ServeMux wildcards.
func sanitizeWildcards(path string) string {
	var b strings.Builder
	in := false
	for _, r := range path {
		switch {
		case r == '{':
			in = true
		case r == '}':
			in = false
		case in && !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'):
			r = '_'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// wildcard returns the ServeMux wildcard name for a URI parameter.
func wildcard(name string) string {
	s := sanitizeWildcards("{" + name + "}")
	return s[1 : len(s)-1]
}

func fileName(dir, typeName string) string {
	return dir + "/" + strcase.ToSnakeCase(typeName) + ".go"
}

func quote(s string) string { return fmt.Sprintf("%q", s) }
