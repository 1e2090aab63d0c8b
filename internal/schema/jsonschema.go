package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// ErrAnonymousSelfRef is returned for a "#" reference in a schema that is
// not declared under a name.
var ErrAnonymousSelfRef = errors.New(`self reference "#" in an anonymous schema`)

// FromJSON decodes a JSON Schema document (as embedded in RAML bodies or
// schema declarations). Entries under "definitions" are returned separately
// so callers can register them as declared types. self is the name the
// document is declared under; a "#" reference points back at it.
//
// Draft-3 constructs common in RAML 0.8 documents (boolean "required" on a
// property, type lists) are rewritten before decoding with kin-openapi.
func FromJSON(data []byte, self string) (*Schema, map[string]*Schema, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("json schema: %w", err)
	}
	root, ok := raw.(map[string]any)
	if !ok {
		return nil, nil, fmt.Errorf("json schema: expected an object, got %T", raw)
	}
	normalizeDraft3(root)

	var defs map[string]*Schema
	if d, ok := root["definitions"].(map[string]any); ok {
		delete(root, "definitions")
		defs = make(map[string]*Schema, len(d))
		for name, def := range d {
			ds, err := decodeOpenAPI(def)
			if err != nil {
				return nil, nil, fmt.Errorf("json schema: definition %q: %w", name, err)
			}
			defs[name] = fromOpenAPI(&openapi3.SchemaRef{Value: ds}, self)
		}
	}

	v, err := decodeOpenAPI(root)
	if err != nil {
		return nil, nil, fmt.Errorf("json schema: %w", err)
	}
	s := fromOpenAPI(&openapi3.SchemaRef{Value: v}, self)
	if self == "" {
		if hasRef(s, "") {
			return nil, nil, fmt.Errorf("json schema: %w", ErrAnonymousSelfRef)
		}
		for _, name := range sortedNames(defs) {
			if hasRef(defs[name], "") {
				return nil, nil, fmt.Errorf("json schema: definition %q: %w", name, ErrAnonymousSelfRef)
			}
		}
	}
	return s, defs, nil
}

func hasRef(s *Schema, name string) bool {
	for _, r := range s.Refs() {
		if r == name {
			return true
		}
	}
	return false
}

func sortedNames(m map[string]*Schema) []string {
	out := make([]string, 0, len(m))
	for name := range m {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// LooksLikeJSON reports whether a type/schema string holds an inline JSON document.
func LooksLikeJSON(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "{")
}

// LooksLikeXML reports whether a schema string holds an XML schema document.
func LooksLikeXML(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "<")
}

func decodeOpenAPI(v any) (*openapi3.Schema, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := openapi3.NewSchema()
	if err := json.Unmarshal(buf, s); err != nil {
		return nil, err
	}
	return s, nil
}

// FromOpenAPI converts a kin-openapi schema reference into the structural model.
func FromOpenAPI(ref *openapi3.SchemaRef) *Schema { return fromOpenAPI(ref, "") }

// fromOpenAPI converts ref; references to the document root become
// references to self.
func fromOpenAPI(ref *openapi3.SchemaRef, self string) *Schema {
	if ref == nil {
		return &Schema{Kind: Any}
	}
	if ref.Ref != "" {
		name := RefName(ref.Ref)
		if name == "" {
			name = self
		}
		return NewRef(name)
	}
	v := ref.Value
	if v == nil {
		return &Schema{Kind: Any}
	}

	if len(v.OneOf) > 0 && v.Type == "" {
		return fromOpenAPI(v.OneOf[0], self)
	}
	if len(v.AnyOf) > 0 && v.Type == "" {
		return fromOpenAPI(v.AnyOf[0], self)
	}

	out := &Schema{
		Format:      strings.TrimSpace(v.Format),
		Description: strings.TrimSpace(v.Description),
	}
	for _, e := range v.Enum {
		out.Enum = append(out.Enum, fmt.Sprint(e))
	}

	typ := v.Type
	if typ == "" && (len(v.Properties) > 0 || len(v.AllOf) > 0) {
		typ = "object"
	}
	switch typ {
	case "object":
		out.Kind = Object
		required := make(map[string]bool, len(v.Required))
		for _, r := range v.Required {
			required[r] = true
		}
		for _, member := range v.AllOf {
			m := fromOpenAPI(member, self)
			if m.Kind != Object {
				continue
			}
			for _, f := range m.Fields {
				out.Fields = append(out.Fields, f)
			}
		}
		names := make([]string, 0, len(v.Properties))
		for name := range v.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out.Fields = append(out.Fields, &Field{
				Name:     name,
				Required: required[name],
				Schema:   fromOpenAPI(v.Properties[name], self),
			})
		}
	case "array":
		out.Kind = Array
		out.Items = fromOpenAPI(v.Items, self)
	default:
		kind, format, ok := KindOf(typ)
		if !ok {
			kind = Any
		}
		out.Kind = kind
		if out.Format == "" {
			out.Format = format
		}
	}
	return out
}

// RefName reduces a JSON reference ("#/definitions/Foo", "foo.json",
// "schemas/foo.schema.json#") to the declared type name it points at.
func RefName(ref string) string {
	ref = strings.TrimSuffix(strings.TrimSpace(ref), "#")
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		ref = ref[i+1:]
	}
	if i := strings.LastIndex(ref, "#"); i >= 0 {
		ref = ref[i+1:]
	}
	ref = strings.TrimSuffix(ref, path.Ext(ref))
	ref = strings.TrimSuffix(ref, ".schema")
	return ref
}

func normalizeDraft3(node map[string]any) {
	if types, ok := node["type"].([]any); ok {
		node["type"] = "any"
		for _, t := range types {
			if s, ok := t.(string); ok && s != "null" {
				node["type"] = s
				break
			}
		}
	}
	// draft-3 flag on a property; the parent's properties loop collects it.
	if _, ok := node["required"].(bool); ok {
		delete(node, "required")
	}
	if props, ok := node["properties"].(map[string]any); ok {
		var required []any
		if existing, ok := node["required"].([]any); ok {
			required = existing
		}
		names := make([]string, 0, len(props))
		for name := range props {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			p, ok := props[name].(map[string]any)
			if !ok {
				continue
			}
			if r, ok := p["required"].(bool); ok && r {
				required = append(required, name)
			}
			normalizeDraft3(p)
		}
		if len(required) > 0 {
			node["required"] = required
		}
	}
	if items, ok := node["items"].(map[string]any); ok {
		normalizeDraft3(items)
	}
	if defs, ok := node["definitions"].(map[string]any); ok {
		for _, d := range defs {
			if m, ok := d.(map[string]any); ok {
				normalizeDraft3(m)
			}
		}
	}
	for _, key := range []string{"allOf", "anyOf", "oneOf"} {
		if list, ok := node[key].([]any); ok {
			for _, item := range list {
				if m, ok := item.(map[string]any); ok {
					normalizeDraft3(m)
				}
			}
		}
	}
}
