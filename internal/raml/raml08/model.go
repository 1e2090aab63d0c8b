// Package raml08 is the RAML 0.8 object model and its raml.Factory.
//
// The concrete types mirror the 0.8 grammar: schemas are declared as a list
// of single-entry maps holding JSON schema text, and bodies point at them by
// name through the "schema" attribute. Callers normally use the raml facade;
// the Extract functions hand out the concrete objects when needed.
package raml08

import (
	"github.com/mark3labs/raml2go/internal/raml"
	"github.com/mark3labs/raml2go/internal/schema"
)

type Raml struct {
	Title     string
	Version   string
	BaseURI   string
	MediaType string
	// Schemas keeps the declaration list as written: one name per entry.
	Schemas   []map[string]string
	Resources map[string]*Resource

	parsed map[string]*schema.Schema
}

type Resource struct {
	RelativeURI   string
	DisplayName   string
	Description   string
	URIParameters map[string]*NamedParameter
	Actions       map[raml.ActionType]*Action
	Resources     map[string]*Resource

	parent *Resource
}

type Action struct {
	Type            raml.ActionType
	DisplayName     string
	Description     string
	Headers         map[string]*NamedParameter
	QueryParameters map[string]*NamedParameter
	Body            map[string]*MimeType
	Responses       map[string]*Response

	resource *Resource
}

// MimeType is a body representation. Schema holds either the name of a
// declared schema or an inline JSON schema document.
type MimeType struct {
	Type           string
	Schema         string
	Example        string
	FormParameters map[string]*NamedParameter

	inline *schema.Schema
}

type Response struct {
	Description string
	Headers     map[string]*NamedParameter
	Body        map[string]*MimeType
}

type NamedParameter struct {
	DisplayName string
	Description string
	Type        string
	Required    bool
	Repeat      bool
	Enum        []string
	Default     string
	Example     string
	Pattern     string
}

// NewRaml returns an empty document.
func NewRaml() *Raml {
	return &Raml{
		Resources: map[string]*Resource{},
		parsed:    map[string]*schema.Schema{},
	}
}

func newResource() *Resource {
	return &Resource{
		URIParameters: map[string]*NamedParameter{},
		Actions:       map[raml.ActionType]*Action{},
		Resources:     map[string]*Resource{},
	}
}

func newAction(t raml.ActionType) *Action {
	return &Action{
		Type:            t,
		Headers:         map[string]*NamedParameter{},
		QueryParameters: map[string]*NamedParameter{},
		Body:            map[string]*MimeType{},
		Responses:       map[string]*Response{},
	}
}

// URI is the full path of r.
func (r *Resource) URI() string {
	uri := r.RelativeURI
	for p := r.parent; p != nil; p = p.parent {
		uri = p.RelativeURI + uri
	}
	return uri
}

// SchemaNamed returns the parsed form of a declared schema.
func (d *Raml) SchemaNamed(name string) (*schema.Schema, bool) {
	s, ok := d.parsed[name]
	return s, ok
}

// Inline returns the parsed inline schema of m, nil when m references a
// declared schema or has none.
func (m *MimeType) Inline() *schema.Schema { return m.inline }
