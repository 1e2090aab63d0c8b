package metadata

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mark3labs/raml2go/internal/schema"
	"github.com/mark3labs/raml2go/internal/strcase"
)

// Body is one reusable payload type. Structurally identical schemas share a
// single *Body; its dependencies live in the Graph, never as pointers.
type Body struct {
	Name string
	// Fingerprint identifies the resolved shape: field names, required
	// flags and types, with referenced bodies by name.
	Fingerprint string
	Description string
	// Schema is the structural schema the body was created from.
	Schema *schema.Schema
	// Fields is set for object bodies, in declaration order.
	Fields []*Field
	// Alias is set instead of Fields when a declared schema is not an
	// object, e.g. a named array.
	Alias *TypeRef
	// Declared reports whether the body comes from a schema declaration.
	Declared bool
	// Source names where the body was first seen.
	Source string
}

type Field struct {
	Name        string // wire name
	Required    bool
	Description string
	Type        TypeRef
}

// TypeRef is a resolved field or payload type: a primitive kind, an array,
// a reference to a body by name, or a free-form object.
type TypeRef struct {
	Kind   schema.Kind
	Format string
	Enum   []string
	Body   string   // set when Kind == schema.Ref
	Elem   *TypeRef // set when Kind == schema.Array
}

// Bodies returns the names of the bodies t refers to.
func (t TypeRef) Bodies() []string {
	var out []string
	for cur := &t; cur != nil; cur = cur.Elem {
		if cur.Kind == schema.Ref {
			out = append(out, cur.Body)
		}
	}
	return out
}

func (t TypeRef) String() string {
	switch t.Kind {
	case schema.Ref:
		return t.Body
	case schema.Array:
		if t.Elem == nil {
			return "[]any"
		}
		return "[]" + t.Elem.String()
	case "":
		return string(schema.Any)
	}
	return string(t.Kind)
}

// Dependencies returns the names of the bodies b refers to directly.
func (b *Body) Dependencies() []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(t TypeRef) {
		for _, n := range t.Bodies() {
			if _, ok := seen[n]; !ok {
				seen[n] = struct{}{}
				out = append(out, n)
			}
		}
	}
	for _, f := range b.Fields {
		add(f.Type)
	}
	if b.Alias != nil {
		add(*b.Alias)
	}
	sort.Strings(out)
	return out
}

// Resolver deduplicates payload schemas into bodies. It is scoped to one
// run and is not safe for concurrent use.
type Resolver struct {
	byFingerprint map[string]*Body
	byName        map[string]*Body
	declared      map[string]*Body
	graph         *Graph
}

func NewResolver() *Resolver {
	return &Resolver{
		byFingerprint: map[string]*Body{},
		byName:        map[string]*Body{},
		declared:      map[string]*Body{},
		graph:         NewGraph(),
	}
}

func (r *Resolver) Graph() *Graph { return r.graph }

// Lookup returns the body with the given generated name.
func (r *Resolver) Lookup(name string) (*Body, bool) {
	b, ok := r.byName[name]
	return b, ok
}

// Declared returns the body a declared schema name resolves to.
func (r *Resolver) Declared(name string) (*Body, bool) {
	b, ok := r.declared[name]
	return b, ok
}

// Bodies returns every body in name order.
func (r *Resolver) Bodies() []*Body {
	out := make([]*Body, 0, len(r.byName))
	for _, b := range r.byName {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Declare registers the document's declared schemas. Every name is reserved
// before any field is resolved, so declarations may reference each other in
// any order, cycles included.
func (r *Resolver) Declare(schemas map[string]*schema.Schema) error {
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	var aliases []string
	var fill []*Body
	seen := map[string]*Body{}
	for _, name := range names {
		s := schemas[name]
		if s == nil {
			s = &schema.Schema{Kind: schema.Any}
		}
		if s.Kind == schema.Ref {
			aliases = append(aliases, name)
			continue
		}
		fp := s.Fingerprint()
		if b, ok := seen[fp]; ok {
			r.declared[name] = b
			continue
		}
		b := r.newBody(typeName(name), s, "/schemas/"+name)
		b.Declared = true
		seen[fp] = b
		r.declared[name] = b
		fill = append(fill, b)
	}

	// Resolve name-to-name aliases until no progress is made.
	for len(aliases) > 0 {
		var pending []string
		for _, name := range aliases {
			if b, ok := r.declared[schemas[name].Ref]; ok {
				r.declared[name] = b
				continue
			}
			pending = append(pending, name)
		}
		if len(pending) == len(aliases) {
			name := pending[0]
			return &ConsistencyError{Path: "/schemas/" + name, Cause: fmt.Errorf("%w %q", ErrUndeclaredSchema, schemas[name].Ref)}
		}
		aliases = pending
	}

	// Declarations without nested inline objects go first, so inline objects
	// nested in the others can resolve to them.
	sort.SliceStable(fill, func(i, j int) bool {
		return !hasInlineObject(fill[i].Schema) && hasInlineObject(fill[j].Schema)
	})
	for _, b := range fill {
		if err := r.fill(b); err != nil {
			return &ConsistencyError{Path: b.Source, Cause: err}
		}
		if _, ok := r.byFingerprint[b.Fingerprint]; !ok {
			r.byFingerprint[b.Fingerprint] = b
		}
	}
	return nil
}

// ResolveOrCreate resolves a payload schema into a type reference, creating
// bodies for object schemas not seen before. hint is the generated name a
// new body gets, subject to collision suffixes.
func (r *Resolver) ResolveOrCreate(hint string, s *schema.Schema, source string) (TypeRef, error) {
	return r.typeRef(typeName(hint), s, source)
}

func (r *Resolver) typeRef(hint string, s *schema.Schema, source string) (TypeRef, error) {
	if s == nil {
		return TypeRef{Kind: schema.Any}, nil
	}
	switch s.Kind {
	case schema.Ref:
		b, ok := r.declared[s.Ref]
		if !ok {
			return TypeRef{}, fmt.Errorf("%w %q", ErrUndeclaredSchema, s.Ref)
		}
		return TypeRef{Kind: schema.Ref, Body: b.Name}, nil
	case schema.Array:
		elem, err := r.typeRef(hint+"Item", s.Items, source)
		if err != nil {
			return TypeRef{}, err
		}
		return TypeRef{Kind: schema.Array, Elem: &elem}, nil
	case schema.Object:
		if len(s.Fields) == 0 {
			return TypeRef{Kind: schema.Object}, nil
		}
		fields, err := r.fields(hint, s, source)
		if err != nil {
			return TypeRef{}, err
		}
		fp := fingerprint(fields, nil)
		if b, ok := r.byFingerprint[fp]; ok {
			return TypeRef{Kind: schema.Ref, Body: b.Name}, nil
		}
		b := r.newBody(hint, s, source)
		b.Fields = fields
		b.Fingerprint = fp
		r.byFingerprint[fp] = b
		r.link(b)
		return TypeRef{Kind: schema.Ref, Body: b.Name}, nil
	case "":
		return TypeRef{Kind: schema.Any}, nil
	}
	return TypeRef{Kind: s.Kind, Format: s.Format, Enum: s.Enum}, nil
}

func (r *Resolver) newBody(hint string, s *schema.Schema, source string) *Body {
	b := &Body{
		Name:        r.uniqueName(hint),
		Description: s.Description,
		Schema:      s,
		Source:      source,
	}
	r.byName[b.Name] = b
	r.graph.AddNode(b.Name)
	return b
}

// fill resolves the fields (or alias target) of a declared body, records
// its edges and sets its fingerprint.
func (r *Resolver) fill(b *Body) error {
	s := b.Schema
	if s.Kind != schema.Object {
		ref, err := r.typeRef(b.Name, s, b.Source)
		if err != nil {
			return err
		}
		b.Alias = &ref
	}
	fields, err := r.fields(b.Name, s, b.Source)
	if err != nil {
		return err
	}
	b.Fields = fields
	b.Fingerprint = fingerprint(b.Fields, b.Alias)
	r.link(b)
	return nil
}

// fields resolves the properties of s. Nested inline objects are named
// after prefix and the field.
func (r *Resolver) fields(prefix string, s *schema.Schema, source string) ([]*Field, error) {
	var out []*Field
	for _, f := range s.Fields {
		ref, err := r.typeRef(prefix+typeName(f.Name), f.Schema, source)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		desc := ""
		if f.Schema != nil {
			desc = f.Schema.Description
		}
		out = append(out, &Field{Name: f.Name, Required: f.Required, Description: desc, Type: ref})
	}
	return out, nil
}

func (r *Resolver) link(b *Body) {
	for _, dep := range b.Dependencies() {
		r.graph.AddEdge(b.Name, dep)
	}
}

// uniqueName returns hint, or hint with the lowest free numeric suffix
// starting at 2.
func (r *Resolver) uniqueName(hint string) string {
	if _, taken := r.byName[hint]; !taken {
		return hint
	}
	for i := 2; ; i++ {
		candidate := hint + strconv.Itoa(i)
		if _, taken := r.byName[candidate]; !taken {
			return candidate
		}
	}
}

func typeName(s string) string {
	name := strcase.ToPascalCase(strings.TrimSuffix(s, "?"))
	if name == "" {
		return "Body"
	}
	return name
}
