package raml08

import (
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/raml2go/internal/raml"
	"github.com/mark3labs/raml2go/internal/schema"
)

// emitter writes 0.8 documents. Schemas are emitted as JSON schema text in a
// list of single-entry maps, keeping the declaration order of the source.
type emitter struct{}

func (emitter) Emit(root raml.Root) ([]byte, error) {
	return raml.EmitDocument(root, dialect{})
}

type dialect struct{}

func (dialect) Header() string { return "#%RAML 0.8" }

func (dialect) Declarations(root raml.Root) ([]raml.Entry, error) {
	var names []string
	texts := map[string]string{}
	if d, err := ExtractRoot(root); err == nil {
		for _, m := range d.Schemas {
			for name, text := range m {
				names = append(names, name)
				texts[name] = text
			}
		}
	}
	// Declarations without source text (added programmatically, or pulled
	// from JSON "definitions") follow in name order.
	schemas := root.Schemas()
	for _, name := range raml.SortedKeys(schemas) {
		if _, ok := texts[name]; ok {
			continue
		}
		text, err := schema.ToJSON(schemas[name])
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		texts[name] = string(text)
	}
	if len(names) == 0 {
		return nil, nil
	}
	list := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, name := range names {
		list.Content = append(list.Content, raml.Map(name, literal(texts[name])))
	}
	return []raml.Entry{{Key: "schemas", Value: list}}, nil
}

func (dialect) BodyNode(m *raml.MimeType) (*yaml.Node, error) {
	var s *yaml.Node
	switch {
	case m.SchemaName != "":
		s = raml.Str(m.SchemaName)
	case m.Schema != nil:
		text, err := schema.ToJSON(m.Schema)
		if err != nil {
			return nil, err
		}
		s = literal(string(text))
	}
	if s == nil && m.Example == "" {
		return nil, nil
	}
	return raml.Map("schema", s, "example", literal(m.Example)), nil
}

func (dialect) ResourceAnnotations(raml.Resource) []raml.Entry { return nil }

func (dialect) ParamNode(p *raml.Param) *yaml.Node {
	n := raml.Map(
		"displayName", raml.Str(p.DisplayName),
		"description", raml.Str(p.Description),
		"type", raml.Str(typeName(p.Type)),
	)
	raml.Append(n, "required", raml.BoolNode(p.Required))
	if p.Repeat {
		raml.Append(n, "repeat", raml.BoolNode(true))
	}
	raml.Append(n, "enum", raml.Seq(p.Enum))
	raml.Append(n, "default", raml.Str(p.Default))
	raml.Append(n, "example", raml.Str(p.Example))
	return n
}

func literal(s string) *yaml.Node {
	n := raml.Str(s)
	if n != nil {
		n.Style = yaml.LiteralStyle
	}
	return n
}
