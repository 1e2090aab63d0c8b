package raml10

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mark3labs/raml2go/internal/raml"
	"github.com/mark3labs/raml2go/internal/schema"
)

type decoder struct {
	out       *Api
	raw       map[string]*yaml.Node
	resolving map[string]bool
	traits    map[string]*yaml.Node
}

// decode maps a parsed 1.0 document onto the object model. Traits are merged
// into methods; resource types and libraries are not expanded.
func decode(doc *raml.Document) (*Api, error) {
	root := doc.Root
	if err := raml.ExpectMapping(root, "/"); err != nil {
		return nil, withLocation(err, doc.Location)
	}
	d := &decoder{
		out:       NewApi(),
		raw:       map[string]*yaml.Node{},
		resolving: map[string]bool{},
		traits:    map[string]*yaml.Node{},
	}
	out := d.out
	out.Title = raml.Scalar(raml.Lookup(root, "title"))
	out.Version = raml.Scalar(raml.Lookup(root, "version"))
	out.BaseURI = raml.Scalar(raml.Lookup(root, "baseUri"))
	out.MediaType = raml.Strings(raml.Lookup(root, "mediaType"))

	var order []string
	for _, key := range []string{"types", "schemas"} {
		for _, e := range raml.NamedEntries(raml.Lookup(root, key)) {
			if _, dup := d.raw[e.Key]; !dup {
				order = append(order, e.Key)
			}
			d.raw[e.Key] = e.Value
		}
	}
	for _, name := range order {
		if _, err := d.declared(name); err != nil {
			return nil, withLocation(err, doc.Location)
		}
	}
	// Declaration order first, then names pulled from JSON definitions.
	extras := make([]string, 0, len(out.typeOrder))
	for _, name := range out.typeOrder {
		if _, ok := d.raw[name]; !ok {
			extras = append(extras, name)
		}
	}
	out.typeOrder = append(order, extras...)

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

// declared resolves a declared type by name, nil when no such type exists.
func (d *decoder) declared(name string) (*schema.Schema, error) {
	if t, ok := d.out.Types[name]; ok {
		return t.Schema, nil
	}
	node, ok := d.raw[name]
	if !ok {
		return nil, nil
	}
	if d.resolving[name] {
		return nil, &raml.SpecError{Code: raml.ParseError, Message: fmt.Sprintf("raml: type %q inherits from itself", name), Path: "/types/" + name}
	}
	d.resolving[name] = true
	defer delete(d.resolving, name)

	t, err := d.typeDeclaration(name, name, node, "/types/"+name, schema.String)
	if err != nil {
		return nil, err
	}
	if t.Schema == nil {
		t.Schema = &schema.Schema{Kind: schema.Any}
	}
	d.out.declare(name, t)
	return t.Schema, nil
}

// declaration decodes a type declaration in any of its forms. def is the
// kind assumed when nothing is declared; an empty def leaves Schema nil.
func (d *decoder) declaration(name string, node *yaml.Node, path string, def schema.Kind) (*TypeDeclaration, error) {
	return d.typeDeclaration(name, "", node, path, def)
}

// typeDeclaration is declaration for the type declared as self. An inline
// JSON schema in it may refer back to self with "#".
func (d *decoder) typeDeclaration(name, self string, node *yaml.Node, path string, def schema.Kind) (*TypeDeclaration, error) {
	t := &TypeDeclaration{Name: name, Required: true}
	switch {
	case node == nil || (node.Kind == yaml.ScalarNode && node.Tag == "!!null"):
		t.Schema = primitive(def)
	case node.Kind == yaml.ScalarNode:
		t.Expression = strings.TrimSpace(raml.RawScalar(node))
		s, err := d.expression(t.Expression, self, path)
		if err != nil {
			return nil, err
		}
		t.Schema = s
	case node.Kind == yaml.MappingNode:
		t.DisplayName = raml.Scalar(raml.Lookup(node, "displayName"))
		t.Description = raml.Scalar(raml.Lookup(node, "description"))
		t.Example = raml.Describe(raml.Lookup(node, "example"))
		t.Default = raml.Scalar(raml.Lookup(node, "default"))
		t.Required = raml.Bool(raml.Lookup(node, "required"), true)
		expr, s, err := d.mappingType(node, self, path, def)
		if err != nil {
			return nil, err
		}
		t.Expression = expr
		t.Schema = s
	default:
		return nil, &raml.SpecError{Code: raml.ParseError, Message: fmt.Sprintf("raml: unsupported type declaration at line %d", node.Line), Path: path}
	}
	return t, nil
}

func (d *decoder) mappingType(node *yaml.Node, self, path string, def schema.Kind) (string, *schema.Schema, error) {
	typeNode := raml.Lookup(node, "type")
	if typeNode == nil {
		typeNode = raml.Lookup(node, "schema")
	}
	var (
		expr string
		base *schema.Schema
		err  error
	)
	switch {
	case typeNode == nil:
	case typeNode.Kind == yaml.MappingNode:
		inner, ierr := d.declaration("", typeNode, path+"/type", def)
		if ierr != nil {
			return "", nil, ierr
		}
		base = inner.Schema
	case typeNode.Kind == yaml.SequenceNode && len(typeNode.Content) > 0:
		// Multiple inheritance: the first parent wins.
		expr = raml.Scalar(typeNode.Content[0])
		base, err = d.expression(expr, self, path+"/type")
	default:
		expr = strings.TrimSpace(raml.RawScalar(typeNode))
		base, err = d.expression(expr, self, path+"/type")
	}
	if err != nil {
		return "", nil, err
	}

	var s *schema.Schema
	props := raml.Lookup(node, "properties")
	items := raml.Lookup(node, "items")
	switch {
	case props != nil:
		s, err = d.object(base, props, path)
		if err != nil {
			return "", nil, err
		}
	case items != nil:
		it, ierr := d.declaration("", items, path+"/items", schema.Any)
		if ierr != nil {
			return "", nil, ierr
		}
		if it.Schema == nil {
			it.Schema = &schema.Schema{Kind: schema.Any}
		}
		s = schema.NewArray(it.Schema)
	case base != nil:
		s = base
	default:
		s = primitive(def)
	}
	if s == nil || s.Kind == schema.Ref {
		return expr, s, nil
	}
	if s == base {
		s = base.Clone()
	}
	if enum := raml.Strings(raml.Lookup(node, "enum")); len(enum) > 0 {
		s.Enum = enum
	}
	if f := raml.Scalar(raml.Lookup(node, "format")); f != "" {
		s.Format = f
	}
	s.Description = raml.Scalar(raml.Lookup(node, "description"))
	return expr, s, nil
}

// object builds an object schema from properties, after the fields of an
// object parent. A property named "name?" is optional unless it says
// otherwise with "required".
func (d *decoder) object(base *schema.Schema, props *yaml.Node, path string) (*schema.Schema, error) {
	obj := &schema.Schema{Kind: schema.Object}
	if base != nil {
		parent := base
		if base.Kind == schema.Ref {
			resolved, err := d.declared(base.Ref)
			if err != nil {
				return nil, err
			}
			parent = resolved
		}
		if parent != nil && parent.Kind == schema.Object {
			obj.Fields = parent.Clone().Fields
		}
	}
	for _, e := range raml.Entries(props) {
		name := e.Key
		required := !strings.HasSuffix(name, "?")
		name = strings.TrimSuffix(name, "?")
		ft, err := d.declaration(name, e.Value, path+"/properties/"+name, schema.String)
		if err != nil {
			return nil, err
		}
		if raml.Lookup(e.Value, "required") != nil {
			required = ft.Required
		}
		f := &schema.Field{Name: name, Required: required, Schema: ft.Schema}
		if existing := obj.Field(name); existing != nil {
			*existing = *f
			continue
		}
		obj.Fields = append(obj.Fields, f)
	}
	return obj, nil
}

// expression parses a type expression. self names the declared type the
// expression belongs to, if any.
func (d *decoder) expression(expr, self, path string) (*schema.Schema, error) {
	expr = strings.TrimSpace(expr)
	switch {
	case expr == "":
		return nil, nil
	case schema.LooksLikeJSON(expr):
		s, defs, err := schema.FromJSON([]byte(expr), self)
		if err != nil {
			return nil, &raml.SpecError{Code: raml.ParseError, Message: fmt.Sprintf("raml: invalid JSON schema: %v", err), Path: path, Cause: err}
		}
		for _, name := range raml.SortedKeys(defs) {
			if _, declared := d.raw[name]; declared {
				continue
			}
			if _, exists := d.out.Types[name]; !exists {
				d.out.declare(name, &TypeDeclaration{Name: name, Required: true, Schema: defs[name]})
			}
		}
		return s, nil
	case schema.LooksLikeXML(expr):
		return &schema.Schema{Kind: schema.Any, Format: "xml"}, nil
	}

	if members := splitUnion(expr); len(members) > 1 {
		for _, m := range members {
			if m != "nil" {
				return d.expression(m, self, path)
			}
		}
		return &schema.Schema{Kind: schema.Any}, nil
	}
	if strings.HasSuffix(expr, "[]") {
		inner, err := d.expression(strings.TrimSuffix(expr, "[]"), self, path)
		if err != nil {
			return nil, err
		}
		if inner == nil {
			inner = &schema.Schema{Kind: schema.Any}
		}
		return schema.NewArray(inner), nil
	}
	if strings.HasPrefix(expr, "(") && strings.HasSuffix(expr, ")") {
		return d.expression(expr[1:len(expr)-1], self, path)
	}

	switch expr {
	case "nil":
		return &schema.Schema{Kind: schema.Any}, nil
	case "array":
		return schema.NewArray(&schema.Schema{Kind: schema.Any}), nil
	}
	if kind, format, ok := schema.KindOf(expr); ok {
		return &schema.Schema{Kind: kind, Format: format}, nil
	}
	return schema.NewRef(expr), nil
}

// splitUnion splits expr on top-level "|".
func splitUnion(expr string) []string {
	var (
		out   []string
		depth int
		start int
	)
	for i, c := range expr {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		case '|':
			if depth == 0 {
				out = append(out, strings.TrimSpace(expr[start:i]))
				start = i + 1
			}
		}
	}
	return append(out, strings.TrimSpace(expr[start:]))
}

func primitive(k schema.Kind) *schema.Schema {
	if k == "" {
		return nil
	}
	return &schema.Schema{Kind: k}
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
	params, err := d.params(raml.Lookup(node, "uriParameters"), path+"/uriParameters")
	if err != nil {
		return nil, err
	}
	r.URIParameters = params
	resourceTraits := raml.Names(raml.Lookup(node, "is"))

	for _, e := range raml.Entries(node) {
		switch {
		case strings.HasPrefix(e.Key, "(") && strings.HasSuffix(e.Key, ")"):
			r.Annotations[e.Key[1:len(e.Key)-1]] = raml.Describe(e.Value)
		case strings.HasPrefix(e.Key, "/"):
			child, err := d.resource(e.Key, e.Value, r, path+e.Key)
			if err != nil {
				return nil, err
			}
			r.Resources[e.Key] = child
		default:
			t, ok := raml.ParseActionType(e.Key)
			if !ok {
				continue
			}
			m, err := d.method(t, e.Value, resourceTraits, path+"/"+e.Key)
			if err != nil {
				return nil, err
			}
			m.resource = r
			r.Methods[t] = m
		}
	}
	return r, nil
}

func (d *decoder) method(t raml.ActionType, node *yaml.Node, inherited []string, path string) (*Method, error) {
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

	m := newMethod(t)
	m.DisplayName = raml.Scalar(raml.Lookup(merged, "displayName"))
	m.Description = raml.Scalar(raml.Lookup(merged, "description"))
	var err error
	if m.Headers, err = d.params(raml.Lookup(merged, "headers"), path+"/headers"); err != nil {
		return nil, err
	}
	if m.QueryParameters, err = d.params(raml.Lookup(merged, "queryParameters"), path+"/queryParameters"); err != nil {
		return nil, err
	}
	if m.Body, err = d.body(raml.Lookup(merged, "body"), path+"/body"); err != nil {
		return nil, err
	}
	for _, e := range raml.Entries(raml.Lookup(merged, "responses")) {
		rpath := path + "/responses/" + e.Key
		if err := raml.ExpectMapping(e.Value, rpath); err != nil {
			return nil, err
		}
		resp := &Response{Description: raml.Scalar(raml.Lookup(e.Value, "description"))}
		if resp.Headers, err = d.params(raml.Lookup(e.Value, "headers"), rpath+"/headers"); err != nil {
			return nil, err
		}
		if resp.Body, err = d.body(raml.Lookup(e.Value, "body"), rpath+"/body"); err != nil {
			return nil, err
		}
		m.Responses[e.Key] = resp
	}
	return m, nil
}

var bodyKeys = []string{"type", "schema", "properties", "items", "example", "enum"}

// body decodes a body block. A type declared directly under "body" uses the
// document's default media type.
func (d *decoder) body(node *yaml.Node, path string) (map[string]*TypeDeclaration, error) {
	out := map[string]*TypeDeclaration{}
	if node == nil || (node.Kind == yaml.ScalarNode && node.Tag == "!!null") {
		return out, nil
	}
	direct := node.Kind == yaml.ScalarNode
	if node.Kind == yaml.MappingNode {
		for _, k := range bodyKeys {
			if raml.Lookup(node, k) != nil {
				direct = true
				break
			}
		}
	}
	if direct {
		mt := d.out.DefaultMediaType()
		if mt == "" {
			mt = "application/json"
		}
		t, err := d.declaration(mt, node, path, "")
		if err != nil {
			return nil, err
		}
		out[mt] = t
		return out, nil
	}
	if err := raml.ExpectMapping(node, path); err != nil {
		return nil, err
	}
	for _, e := range raml.Entries(node) {
		t, err := d.declaration(e.Key, e.Value, path+"/"+e.Key, "")
		if err != nil {
			return nil, err
		}
		out[e.Key] = t
	}
	return out, nil
}

func (d *decoder) params(node *yaml.Node, path string) (map[string]*TypeDeclaration, error) {
	out := map[string]*TypeDeclaration{}
	for _, e := range raml.Entries(node) {
		name := strings.TrimSuffix(e.Key, "?")
		t, err := d.declaration(name, e.Value, path+"/"+name, schema.String)
		if err != nil {
			return nil, err
		}
		if strings.HasSuffix(e.Key, "?") && raml.Lookup(e.Value, "required") == nil {
			t.Required = false
		}
		out[name] = t
	}
	return out, nil
}
