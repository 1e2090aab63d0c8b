package raml10

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mark3labs/raml2go/internal/raml"
	"github.com/mark3labs/raml2go/internal/schema"
)

type emitter struct{}

func (emitter) Emit(root raml.Root) ([]byte, error) {
	return raml.EmitDocument(root, dialect{})
}

type dialect struct{}

func (dialect) Header() string { return "#%RAML 1.0" }

func (dialect) Declarations(root raml.Root) ([]raml.Entry, error) {
	var out []raml.Entry

	annotated := false
	_ = raml.Walk(root.Resources(), func(r raml.Resource) error {
		if r.ControllerName() != "" {
			annotated = true
		}
		return nil
	})
	if annotated {
		out = append(out, raml.Entry{
			Key:   "annotationTypes",
			Value: raml.Map(ControllerAnnotation, raml.Str("string")),
		})
	}

	schemas := root.Schemas()
	if len(schemas) == 0 {
		return out, nil
	}
	var order []string
	seen := map[string]bool{}
	if api, err := ExtractRoot(root); err == nil {
		for _, name := range api.typeOrder {
			if _, ok := schemas[name]; ok && !seen[name] {
				order = append(order, name)
				seen[name] = true
			}
		}
	}
	for _, name := range raml.SortedKeys(schemas) {
		if !seen[name] {
			order = append(order, name)
		}
	}
	types := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, name := range order {
		n := typeNode(schemas[name])
		if n == nil {
			n = raml.Str("any")
		}
		raml.Append(types, name, n)
	}
	return append(out, raml.Entry{Key: "types", Value: types}), nil
}

func (dialect) BodyNode(m *raml.MimeType) (*yaml.Node, error) {
	var t *yaml.Node
	switch {
	case m.SchemaName != "":
		t = raml.Str(m.SchemaName)
	case m.Schema != nil:
		t = typeNode(m.Schema)
	}
	example := raml.Str(m.Example)
	if example != nil {
		example.Style = yaml.LiteralStyle
	}
	if t == nil {
		if example == nil {
			return nil, nil
		}
		return raml.Map("example", example), nil
	}
	if t.Kind == yaml.ScalarNode {
		return raml.Map("type", t, "example", example), nil
	}
	raml.Append(t, "example", example)
	return t, nil
}

func (dialect) ResourceAnnotations(r raml.Resource) []raml.Entry {
	name := r.ControllerName()
	if name == "" {
		return nil
	}
	return []raml.Entry{{Key: "(" + ControllerAnnotation + ")", Value: raml.Str(name)}}
}

func (dialect) ParamNode(p *raml.Param) *yaml.Node {
	typ := typeName(&schema.Schema{Kind: p.Type, Format: p.Format})
	if p.Repeat {
		typ += "[]"
	}
	n := raml.Map(
		"displayName", raml.Str(p.DisplayName),
		"description", raml.Str(p.Description),
		"type", raml.Str(typ),
	)
	if p.Type != schema.Date {
		raml.Append(n, "format", raml.Str(p.Format))
	}
	raml.Append(n, "required", raml.BoolNode(p.Required))
	raml.Append(n, "enum", raml.Seq(p.Enum))
	raml.Append(n, "default", raml.Str(p.Default))
	raml.Append(n, "example", raml.Str(p.Example))
	return n
}

// typeNode renders s as a type expression where possible and as a type
// declaration mapping otherwise.
func typeNode(s *schema.Schema) *yaml.Node {
	if s == nil {
		return nil
	}
	if expr, ok := shorthand(s); ok {
		return raml.Str(expr)
	}
	n := raml.Map("type", raml.Str(typeName(s)))
	raml.Append(n, "description", raml.Str(s.Description))
	if s.Kind != schema.Date {
		raml.Append(n, "format", raml.Str(s.Format))
	}
	raml.Append(n, "enum", raml.Seq(s.Enum))
	switch s.Kind {
	case schema.Object:
		if len(s.Fields) > 0 {
			props := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			for _, f := range s.Fields {
				key := f.Name
				if !f.Required {
					key += "?"
				}
				v := typeNode(f.Schema)
				if v == nil {
					v = raml.Str("any")
				}
				raml.Append(props, key, v)
			}
			raml.Append(n, "properties", props)
		}
	case schema.Array:
		items := typeNode(s.Items)
		if items == nil {
			items = raml.Str("any")
		}
		raml.Append(n, "items", items)
	}
	return n
}

func shorthand(s *schema.Schema) (string, bool) {
	if s.Description != "" || len(s.Enum) > 0 {
		return "", false
	}
	switch s.Kind {
	case schema.Ref:
		return s.Ref, true
	case schema.Array:
		if s.Items == nil {
			return "array", true
		}
		inner, ok := shorthand(s.Items)
		if !ok {
			return "", false
		}
		if strings.Contains(inner, "|") {
			inner = "(" + inner + ")"
		}
		return inner + "[]", true
	case schema.Object:
		return "object", len(s.Fields) == 0
	case schema.Date:
		return typeName(s), true
	}
	return typeName(s), s.Format == ""
}

func typeName(s *schema.Schema) string {
	switch s.Kind {
	case schema.Date:
		switch s.Format {
		case "date", "date-only":
			return "date-only"
		case "time-only", "datetime-only":
			return s.Format
		}
		return "datetime"
	case schema.Ref:
		return s.Ref
	case "":
		return "string"
	}
	return string(s.Kind)
}
