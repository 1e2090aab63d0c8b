package raml08

import (
	"github.com/mark3labs/raml2go/internal/raml"
	"github.com/mark3labs/raml2go/internal/schema"
)

// Facade adapters. They hold no state of their own, so wrapping the same
// concrete object twice yields interchangeable values.

type root struct{ d *Raml }

type resource struct{ r *Resource }

type action struct{ a *Action }

var (
	_ raml.Root     = (*root)(nil)
	_ raml.Resource = (*resource)(nil)
	_ raml.Action   = (*action)(nil)
)

// Wrap exposes d through the facade.
func Wrap(d *Raml) raml.Root { return &root{d: d} }

// ExtractRoot returns the concrete document behind r.
func ExtractRoot(r raml.Root) (*Raml, error) {
	if v, ok := r.(*root); ok {
		return v.d, nil
	}
	return nil, &raml.TypeMismatchError{Want: raml.V08, Got: r}
}

// ExtractResource returns the concrete resource behind r.
func ExtractResource(r raml.Resource) (*Resource, error) {
	if v, ok := r.(*resource); ok {
		return v.r, nil
	}
	return nil, &raml.TypeMismatchError{Want: raml.V08, Got: r}
}

// ExtractAction returns the concrete action behind a.
func ExtractAction(a raml.Action) (*Action, error) {
	if v, ok := a.(*action); ok {
		return v.a, nil
	}
	return nil, &raml.TypeMismatchError{Want: raml.V08, Got: a}
}

func (r *root) Version() raml.Version  { return raml.V08 }
func (r *root) Title() string          { return r.d.Title }
func (r *root) SetTitle(s string)      { r.d.Title = s }
func (r *root) APIVersion() string     { return r.d.Version }
func (r *root) SetAPIVersion(s string) { r.d.Version = s }
func (r *root) BaseURI() string        { return r.d.BaseURI }
func (r *root) SetBaseURI(s string)    { r.d.BaseURI = s }
func (r *root) MediaType() string      { return r.d.MediaType }
func (r *root) SetMediaType(s string)  { r.d.MediaType = s }

func (r *root) Resources() map[string]raml.Resource {
	return wrapResources(r.d.Resources)
}

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
	r.d.Resources[path] = c
	return nil
}

func (r *root) Schemas() map[string]*schema.Schema {
	out := make(map[string]*schema.Schema, len(r.d.parsed))
	for k, v := range r.d.parsed {
		out[k] = v
	}
	return out
}

// AddSchema declares s under name, replacing an earlier declaration.
func (r *root) AddSchema(name string, s *schema.Schema) {
	text, err := schema.ToJSON(s)
	if err != nil {
		text = []byte("{}")
	}
	entry := map[string]string{name: string(text)}
	replaced := false
	for i, m := range r.d.Schemas {
		if _, ok := m[name]; ok {
			r.d.Schemas[i] = entry
			replaced = true
		}
	}
	if !replaced {
		r.d.Schemas = append(r.d.Schemas, entry)
	}
	if r.d.parsed == nil {
		r.d.parsed = map[string]*schema.Schema{}
	}
	r.d.parsed[name] = s
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

// ControllerName is always empty: 0.8 has no annotations.
func (r *resource) ControllerName() string { return "" }

// SetControllerName is a no-op for 0.8 documents.
func (r *resource) SetControllerName(string) {}

func (r *resource) Parent() raml.Resource {
	if r.r.parent == nil {
		return nil
	}
	return &resource{r: r.r.parent}
}

func (r *resource) Resources() map[string]raml.Resource {
	return wrapResources(r.r.Resources)
}

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
	out := make(map[raml.ActionType]raml.Action, len(r.r.Actions))
	for k, v := range r.r.Actions {
		out[k] = &action{a: v}
	}
	return out
}

func (r *resource) Action(t raml.ActionType) raml.Action {
	a, ok := r.r.Actions[t]
	if !ok {
		return nil
	}
	return &action{a: a}
}

func (r *resource) AddAction(a raml.Action) error {
	c, err := ExtractAction(a)
	if err != nil {
		return err
	}
	c.resource = r.r
	r.r.Actions[c.Type] = c
	return nil
}

func (r *resource) URIParameters() map[string]*raml.Param { return toParams(r.r.URIParameters) }
func (r *resource) AddURIParameter(p *raml.Param)         { r.r.URIParameters[p.Name] = fromParam(p) }

func (a *action) Type() raml.ActionType   { return a.a.Type }
func (a *action) DisplayName() string     { return a.a.DisplayName }
func (a *action) SetDisplayName(s string) { a.a.DisplayName = s }
func (a *action) Description() string     { return a.a.Description }
func (a *action) SetDescription(s string) { a.a.Description = s }

func (a *action) Resource() raml.Resource {
	if a.a.resource == nil {
		return nil
	}
	return &resource{r: a.a.resource}
}

func (a *action) Body() map[string]*raml.MimeType { return toBodies(a.a.Body) }

func (a *action) AddBody(m *raml.MimeType) { a.a.Body[m.Type] = fromMimeType(m) }

func (a *action) Responses() map[string]*raml.Response {
	out := make(map[string]*raml.Response, len(a.a.Responses))
	for code, r := range a.a.Responses {
		out[code] = &raml.Response{
			Code:        code,
			Description: r.Description,
			Body:        toBodies(r.Body),
			Headers:     toParams(r.Headers),
		}
	}
	return out
}

func (a *action) AddResponse(r *raml.Response) {
	resp := &Response{
		Description: r.Description,
		Headers:     map[string]*NamedParameter{},
		Body:        map[string]*MimeType{},
	}
	for name, p := range r.Headers {
		resp.Headers[name] = fromParam(p)
	}
	for mt, m := range r.Body {
		resp.Body[mt] = fromMimeType(m)
	}
	a.a.Responses[r.Code] = resp
}

func (a *action) QueryParameters() map[string]*raml.Param { return toParams(a.a.QueryParameters) }
func (a *action) AddQueryParameter(p *raml.Param)         { a.a.QueryParameters[p.Name] = fromParam(p) }
func (a *action) Headers() map[string]*raml.Param         { return toParams(a.a.Headers) }
func (a *action) AddHeader(p *raml.Param)                 { a.a.Headers[p.Name] = fromParam(p) }

func toBodies(in map[string]*MimeType) map[string]*raml.MimeType {
	out := make(map[string]*raml.MimeType, len(in))
	for mt, m := range in {
		b := &raml.MimeType{Type: mt, Example: m.Example}
		switch {
		case m.inline != nil:
			b.Schema = m.inline
		case m.Schema != "":
			b.SchemaName = m.Schema
		}
		out[mt] = b
	}
	return out
}

func fromMimeType(m *raml.MimeType) *MimeType {
	out := &MimeType{Type: m.Type, Example: m.Example, FormParameters: map[string]*NamedParameter{}}
	switch {
	case m.SchemaName != "":
		out.Schema = m.SchemaName
	case m.Schema != nil:
		text, err := schema.ToJSON(m.Schema)
		if err == nil {
			out.Schema = string(text)
		}
		out.inline = m.Schema
	}
	return out
}

func toParams(in map[string]*NamedParameter) map[string]*raml.Param {
	out := make(map[string]*raml.Param, len(in))
	for name, p := range in {
		kind, format, ok := schema.KindOf(p.Type)
		if !ok {
			kind = schema.String
		}
		out[name] = &raml.Param{
			Name:        name,
			DisplayName: p.DisplayName,
			Description: p.Description,
			Type:        kind,
			Format:      format,
			Required:    p.Required,
			Repeat:      p.Repeat,
			Enum:        p.Enum,
			Default:     p.Default,
			Example:     p.Example,
		}
	}
	return out
}

func fromParam(p *raml.Param) *NamedParameter {
	return &NamedParameter{
		DisplayName: p.DisplayName,
		Description: p.Description,
		Type:        typeName(p.Type),
		Required:    p.Required,
		Repeat:      p.Repeat,
		Enum:        p.Enum,
		Default:     p.Default,
		Example:     p.Example,
	}
}

// typeName maps a kind onto the 0.8 named parameter types.
func typeName(k schema.Kind) string {
	switch k {
	case schema.Integer, schema.Number, schema.Boolean, schema.Date, schema.File:
		return string(k)
	}
	return "string"
}
