package raml08

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mark3labs/raml2go/internal/raml"
	"github.com/mark3labs/raml2go/internal/schema"
)

type decoder struct {
	out    *Raml
	traits map[string]*yaml.Node
}

// decode maps a parsed 0.8 document onto the object model. Traits are
// applied to methods before decoding; resource types are not expanded.
func decode(doc *raml.Document) (*Raml, error) {
	root := doc.Root
	if err := raml.ExpectMapping(root, "/"); err != nil {
		return nil, withLocation(err, doc.Location)
	}
	d := &decoder{out: NewRaml(), traits: map[string]*yaml.Node{}}
	out := d.out
	out.Title = raml.Scalar(raml.Lookup(root, "title"))
	out.Version = raml.Scalar(raml.Lookup(root, "version"))
	out.BaseURI = raml.Scalar(raml.Lookup(root, "baseUri"))
	out.MediaType = raml.Scalar(raml.Lookup(root, "mediaType"))

	if err := d.schemas(raml.Lookup(root, "schemas")); err != nil {
		return nil, withLocation(err, doc.Location)
	}
	for _, e := range raml.NamedEntries(raml.Lookup(root, "traits")) {
		d.traits[e.Key] = e.Value
	}

	for _, e := range raml.Entries(root) {
		if !strings.HasPrefix(e.Key, "/") {
			continue
		}
		r, err := d.resource(e.Key, e.Value, nil, e.Key)
		if err != nil {
			return nil, withLocation(err, doc.Location)
		}
		out.Resources[e.Key] = r
	}
	return out, nil
}

func withLocation(err error, loc string) error {
	if se, ok := err.(*raml.SpecError); ok && se.Location == "" {
		se.Location = loc
	}
	return err
}

func (d *decoder) schemas(node *yaml.Node) error {
	for _, e := range raml.NamedEntries(node) {
		text := strings.TrimSpace(raml.RawScalar(e.Value))
		d.out.Schemas = append(d.out.Schemas, map[string]string{e.Key: text})
		s, err := d.parseSchema(text, e.Key, "/schemas/"+e.Key)
		if err != nil {
			return err
		}
		if s == nil {
			s = &schema.Schema{Kind: schema.Any}
		}
		d.out.parsed[e.Key] = s
	}
	return nil
}

// parseSchema turns schema text into the structural model. A bare word is a
// reference to another declared schema. self names the declaration being
// parsed and is empty for inline bodies.
func (d *decoder) parseSchema(text, self, path string) (*schema.Schema, error) {
	switch {
	case text == "":
		return nil, nil
	case schema.LooksLikeJSON(text):
		s, defs, err := schema.FromJSON([]byte(text), self)
		if err != nil {
			return nil, &raml.SpecError{Code: raml.ParseError, Message: fmt.Sprintf("raml: invalid JSON schema: %v", err), Path: path, Cause: err}
		}
		for _, name := range raml.SortedKeys(defs) {
			if _, exists := d.out.parsed[name]; !exists {
				d.out.parsed[name] = defs[name]
			}
		}
		return s, nil
	case schema.LooksLikeXML(text):
		return &schema.Schema{Kind: schema.Any, Format: "xml"}, nil
	}
	return schema.NewRef(text), nil
}

func (d *decoder) resource(key string, node *yaml.Node, parent *Resource, path string) (*Resource, error) {
	if err := raml.ExpectMapping(node, path); err != nil {
		return nil, err
	}
	r := newResource()
	r.RelativeURI = key
	r.parent = parent
	r.DisplayName = raml.Scalar(raml.Lookup(node, "displayName"))
	r.Description = raml.Scalar(raml.Lookup(node, "description"))
	r.URIParameters = params(raml.Lookup(node, "uriParameters"), true)
	resourceTraits := raml.Names(raml.Lookup(node, "is"))

	for _, e := range raml.Entries(node) {
		if t, ok := raml.ParseActionType(e.Key); ok {
			a, err := d.action(t, e.Value, resourceTraits, path+"/"+e.Key)
			if err != nil {
				return nil, err
			}
			a.resource = r
			r.Actions[t] = a
			continue
		}
		if strings.HasPrefix(e.Key, "/") {
			child, err := d.resource(e.Key, e.Value, r, path+e.Key)
			if err != nil {
				return nil, err
			}
			r.Resources[e.Key] = child
		}
	}
	return r, nil
}

func (d *decoder) action(t raml.ActionType, node *yaml.Node, inherited []string, path string) (*Action, error) {
	if err := raml.ExpectMapping(node, path); err != nil {
		return nil, err
	}
	merged := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	raml.MergeMapping(merged, node)
	names := append(append([]string(nil), raml.Names(raml.Lookup(node, "is"))...), inherited...)
	for _, name := range names {
		trait, ok := d.traits[name]
		if !ok {
			return nil, &raml.SpecError{Code: raml.ParseError, Message: fmt.Sprintf("raml: unknown trait %q", name), Path: path}
		}
		raml.MergeMapping(merged, trait)
	}

	a := newAction(t)
	a.DisplayName = raml.Scalar(raml.Lookup(merged, "displayName"))
	a.Description = raml.Scalar(raml.Lookup(merged, "description"))
	a.Headers = params(raml.Lookup(merged, "headers"), false)
	a.QueryParameters = params(raml.Lookup(merged, "queryParameters"), false)

	body, err := d.body(raml.Lookup(merged, "body"), path+"/body")
	if err != nil {
		return nil, err
	}
	a.Body = body

	for _, e := range raml.Entries(raml.Lookup(merged, "responses")) {
		rpath := path + "/responses/" + e.Key
		if err := raml.ExpectMapping(e.Value, rpath); err != nil {
			return nil, err
		}
		b, err := d.body(raml.Lookup(e.Value, "body"), rpath+"/body")
		if err != nil {
			return nil, err
		}
		a.Responses[e.Key] = &Response{
			Description: raml.Scalar(raml.Lookup(e.Value, "description")),
			Headers:     params(raml.Lookup(e.Value, "headers"), false),
			Body:        b,
		}
	}
	return a, nil
}

// body decodes a body block. A block holding "schema" directly, without
// media type keys, is taken to use the document's default media type.
func (d *decoder) body(node *yaml.Node, path string) (map[string]*MimeType, error) {
	out := map[string]*MimeType{}
	if node == nil {
		return out, nil
	}
	if err := raml.ExpectMapping(node, path); err != nil {
		return nil, err
	}
	if raml.Lookup(node, "schema") != nil || raml.Lookup(node, "example") != nil {
		mt := d.out.MediaType
		if mt == "" {
			mt = "application/json"
		}
		m, err := d.mimeType(mt, node, path)
		if err != nil {
			return nil, err
		}
		out[mt] = m
		return out, nil
	}
	for _, e := range raml.Entries(node) {
		m, err := d.mimeType(e.Key, e.Value, path+"/"+e.Key)
		if err != nil {
			return nil, err
		}
		out[e.Key] = m
	}
	return out, nil
}

func (d *decoder) mimeType(mt string, node *yaml.Node, path string) (*MimeType, error) {
	m := &MimeType{Type: mt}
	if node == nil || node.Kind != yaml.MappingNode {
		return m, nil
	}
	m.Schema = strings.TrimSpace(raml.RawScalar(raml.Lookup(node, "schema")))
	m.Example = raml.Describe(raml.Lookup(node, "example"))
	m.FormParameters = params(raml.Lookup(node, "formParameters"), false)
	if schema.LooksLikeJSON(m.Schema) || schema.LooksLikeXML(m.Schema) {
		s, err := d.parseSchema(m.Schema, "", path+"/schema")
		if err != nil {
			return nil, err
		}
		m.inline = s
	}
	return m, nil
}

func params(node *yaml.Node, defaultRequired bool) map[string]*NamedParameter {
	out := map[string]*NamedParameter{}
	for _, e := range raml.Entries(node) {
		v := e.Value
		// 0.8 allows a list of alternative definitions; the first one wins.
		if v != nil && v.Kind == yaml.SequenceNode && len(v.Content) > 0 {
			v = v.Content[0]
		}
		p := &NamedParameter{Type: "string", Required: defaultRequired}
		if v != nil && v.Kind == yaml.MappingNode {
			p.DisplayName = raml.Scalar(raml.Lookup(v, "displayName"))
			p.Description = raml.Scalar(raml.Lookup(v, "description"))
			if t := raml.Scalar(raml.Lookup(v, "type")); t != "" {
				p.Type = t
			}
			p.Required = raml.Bool(raml.Lookup(v, "required"), defaultRequired)
			p.Repeat = raml.Bool(raml.Lookup(v, "repeat"), false)
			p.Enum = raml.Strings(raml.Lookup(v, "enum"))
			p.Default = raml.Scalar(raml.Lookup(v, "default"))
			p.Example = raml.Scalar(raml.Lookup(v, "example"))
			p.Pattern = raml.Scalar(raml.Lookup(v, "pattern"))
		}
		out[e.Key] = p
	}
	return out
}
