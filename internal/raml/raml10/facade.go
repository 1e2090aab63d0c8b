package raml10

import (
	"github.com/mark3labs/raml2go/internal/raml"
	"github.com/mark3labs/raml2go/internal/schema"
)

type root struct{ api *Api }

type resource struct{ r *Resource }

type method struct{ m *Method }

var (
	_ raml.Root     = (*root)(nil)
	_ raml.Resource = (*resource)(nil)
	_ raml.Action   = (*method)(nil)
)

// Wrap exposes api through the facade.
func Wrap(api *Api) raml.Root { return &root{api: api} }

// ExtractRoot returns the concrete document behind r.
func ExtractRoot(r raml.Root) (*Api, error) {
	if v, ok := r.(*root); ok {
		return v.api, nil
	}
	return nil, &raml.TypeMismatchError{Want: raml.V10, Got: r}
}

// ExtractResource returns the concrete resource behind r.
func ExtractResource(r raml.Resource) (*Resource, error) {
	if v, ok := r.(*resource); ok {
		return v.r, nil
	}
	return nil, &raml.TypeMismatchError{Want: raml.V10, Got: r}
}

// ExtractAction returns the concrete method behind a.
func ExtractAction(a raml.Action) (*Method, error) {
	if v, ok := a.(*method); ok {
		return v.m, nil
	}
	return nil, &raml.TypeMismatchError{Want: raml.V10, Got: a}
}

func (r *root) Version() raml.Version  { return raml.V10 }
func (r *root) Title() string          { return r.api.Title }
func (r *root) SetTitle(s string)      { r.api.Title = s }
func (r *root) APIVersion() string     { return r.api.Version }
func (r *root) SetAPIVersion(s string) { r.api.Version = s }
func (r *root) BaseURI() string        { return r.api.BaseURI }
func (r *root) SetBaseURI(s string)    { r.api.BaseURI = s }
func (r *root) MediaType() string      { return r.api.DefaultMediaType() }

func (r *root) SetMediaType(s string) {
	if s == "" {
		r.api.MediaType = nil
		return
	}
	r.api.MediaType = []string{s}
}

func (r *root) Resources() map[string]raml.Resource { return wrapResources(r.api.Resources) }

// Resource finds a resource by its full URI.
func (r *root) Resource(path string) raml.Resource {
	var found raml.Resource
	_ = raml.Walk(r.Resources(), func(res raml.Resource) error {
		if found == nil && res.URI() == path {
			found = res
		}
		return nil
	})
	return found
}

func (r *root) AddResource(path string, res raml.Resource) error {
	c, err := ExtractResource(res)
	if err != nil {
		return err
	}
	c.RelativeURI = path
	c.parent = nil
	r.api.Resources[path] = c
	return nil
}

func (r *root) Schemas() map[string]*schema.Schema {
	out := make(map[string]*schema.Schema, len(r.api.Types))
	for name, t := range r.api.Types {
		out[name] = t.Schema
	}
	return out
}

func (r *root) AddSchema(name string, s *schema.Schema) {
	r.api.declare(name, &TypeDeclaration{Name: name, Required: true, Schema: s})
}

func wrapResources(in map[string]*Resource) map[string]raml.Resource {
	out := make(map[string]raml.Resource, len(in))
	for k, v := range in {
		out[k] = &resource{r: v}
	}
	return out
}

func (r *resource) RelativeURI() string     { return r.r.RelativeURI }
func (r *resource) SetRelativeURI(s string) { r.r.RelativeURI = s }
func (r *resource) URI() string             { return r.r.URI() }
func (r *resource) DisplayName() string     { return r.r.DisplayName }
func (r *resource) SetDisplayName(s string) { r.r.DisplayName = s }
func (r *resource) Description() string     { return r.r.Description }
func (r *resource) SetDescription(s string) { r.r.Description = s }

// ControllerName reads the (controller) annotation.
func (r *resource) ControllerName() string { return r.r.Annotations[ControllerAnnotation] }

func (r *resource) SetControllerName(s string) {
	if s == "" {
		delete(r.r.Annotations, ControllerAnnotation)
		return
	}
	r.r.Annotations[ControllerAnnotation] = s
}

func (r *resource) Parent() raml.Resource {
	if r.r.parent == nil {
		return nil
	}
	return &resource{r: r.r.parent}
}

func (r *resource) Resources() map[string]raml.Resource { return wrapResources(r.r.Resources) }

func (r *resource) AddResource(path string, res raml.Resource) error {
	c, err := ExtractResource(res)
	if err != nil {
		return err
	}
	c.RelativeURI = path
	c.parent = r.r
	r.r.Resources[path] = c
	return nil
}

func (r *resource) Actions() map[raml.ActionType]raml.Action {
	out := make(map[raml.ActionType]raml.Action, len(r.r.Methods))
	for k, v := range r.r.Methods {
		out[k] = &method{m: v}
	}
	return out
}

func (r *resource) Action(t raml.ActionType) raml.Action {
	m, ok := r.r.Methods[t]
	if !ok {
		return nil
	}
	return &method{m: m}
}

func (r *resource) AddAction(a raml.Action) error {
	c, err := ExtractAction(a)
	if err != nil {
		return err
	}
	c.resource = r.r
	r.r.Methods[c.Type] = c
	return nil
}

func (r *resource) URIParameters() map[string]*raml.Param { return toParams(r.r.URIParameters) }
func (r *resource) AddURIParameter(p *raml.Param)         { r.r.URIParameters[p.Name] = fromParam(p) }

func (m *method) Type() raml.ActionType   { return m.m.Type }
func (m *method) DisplayName() string     { return m.m.DisplayName }
func (m *method) SetDisplayName(s string) { m.m.DisplayName = s }
func (m *method) Description() string     { return m.m.Description }
func (m *method) SetDescription(s string) { m.m.Description = s }

func (m *method) Resource() raml.Resource {
	if m.m.resource == nil {
		return nil
	}
	return &resource{r: m.m.resource}
}

func (m *method) Body() map[string]*raml.MimeType { return toBodies(m.m.Body) }
func (m *method) AddBody(b *raml.MimeType)        { m.m.Body[b.Type] = fromMimeType(b) }

func (m *method) Responses() map[string]*raml.Response {
	out := make(map[string]*raml.Response, len(m.m.Responses))
	for code, r := range m.m.Responses {
		out[code] = &raml.Response{
			Code:        code,
			Description: r.Description,
			Body:        toBodies(r.Body),
			Headers:     toParams(r.Headers),
		}
	}
	return out
}

func (m *method) AddResponse(r *raml.Response) {
	resp := &Response{
		Description: r.Description,
		Headers:     map[string]*TypeDeclaration{},
		Body:        map[string]*TypeDeclaration{},
	}
	for name, p := range r.Headers {
		resp.Headers[name] = fromParam(p)
	}
	for mt, b := range r.Body {
		resp.Body[mt] = fromMimeType(b)
	}
	m.m.Responses[r.Code] = resp
}

func (m *method) QueryParameters() map[string]*raml.Param { return toParams(m.m.QueryParameters) }
func (m *method) AddQueryParameter(p *raml.Param)         { m.m.QueryParameters[p.Name] = fromParam(p) }
func (m *method) Headers() map[string]*raml.Param         { return toParams(m.m.Headers) }
func (m *method) AddHeader(p *raml.Param)                 { m.m.Headers[p.Name] = fromParam(p) }

// toBodies maps body declarations onto the facade. A body whose type is a
// bare declared name becomes a reference; anything else is inline.
func toBodies(in map[string]*TypeDeclaration) map[string]*raml.MimeType {
	out := make(map[string]*raml.MimeType, len(in))
	for mt, t := range in {
		b := &raml.MimeType{Type: mt, Example: t.Example}
		switch {
		case t.Schema == nil:
		case t.Schema.Kind == schema.Ref:
			b.SchemaName = t.Schema.Ref
		default:
			b.Schema = t.Schema
		}
		out[mt] = b
	}
	return out
}

func fromMimeType(b *raml.MimeType) *TypeDeclaration {
	t := &TypeDeclaration{Name: b.Type, Required: true, Example: b.Example}
	switch {
	case b.SchemaName != "":
		t.Expression = b.SchemaName
		t.Schema = schema.NewRef(b.SchemaName)
	case b.Schema != nil:
		t.Schema = b.Schema
	}
	return t
}

func toParams(in map[string]*TypeDeclaration) map[string]*raml.Param {
	out := make(map[string]*raml.Param, len(in))
	for name, t := range in {
		p := &raml.Param{
			Name:        name,
			DisplayName: t.DisplayName,
			Description: t.Description,
			Type:        schema.String,
			Required:    t.Required,
			Default:     t.Default,
			Example:     t.Example,
		}
		s := t.Schema
		if s != nil && s.Kind == schema.Array {
			p.Repeat = true
			s = s.Items
		}
		if s != nil && s.IsPrimitive() {
			p.Type = s.Kind
			p.Format = s.Format
			p.Enum = s.Enum
		}
		out[name] = p
	}
	return out
}

func fromParam(p *raml.Param) *TypeDeclaration {
	kind := p.Type
	if kind == "" {
		kind = schema.String
	}
	s := &schema.Schema{Kind: kind, Format: p.Format, Enum: p.Enum}
	if p.Repeat {
		s = schema.NewArray(s)
	}
	return &TypeDeclaration{
		Name:        p.Name,
		DisplayName: p.DisplayName,
		Description: p.Description,
		Required:    p.Required,
		Default:     p.Default,
		Example:     p.Example,
		Schema:      s,
	}
}
