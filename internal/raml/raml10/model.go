// Package raml10 is the RAML 1.0 object model and its raml.Factory.
//
// Types are declared under "types" (or the legacy "schemas") and referenced
// from bodies with a type expression: a declared name, "Name[]", a union, a
// primitive, or inline JSON schema text. Resources may carry a
// "(controller)" annotation that names the controller they belong to.
package raml10

import (
	"github.com/mark3labs/raml2go/internal/raml"
	"github.com/mark3labs/raml2go/internal/schema"
)

// ControllerAnnotation names the annotation that groups resources.
const ControllerAnnotation = "controller"

type Api struct {
	Title     string
	Version   string
	BaseURI   string
	MediaType []string
	Types     map[string]*TypeDeclaration
	Resources map[string]*Resource

	// typeOrder keeps declaration order for emitting.
	typeOrder []string
}

// TypeDeclaration is a declared type, a property, a parameter or a body.
// Expression is the type as written ("Item", "Item[]", "string", or JSON
// text); Schema is its resolved structure.
type TypeDeclaration struct {
	Name        string
	DisplayName string
	Description string
	Expression  string
	Required    bool
	Example     string
	Default     string
	Schema      *schema.Schema
}

type Resource struct {
	RelativeURI   string
	DisplayName   string
	Description   string
	Annotations   map[string]string
	URIParameters map[string]*TypeDeclaration
	Methods       map[raml.ActionType]*Method
	Resources     map[string]*Resource

	parent *Resource
}

type Method struct {
	Type            raml.ActionType
	DisplayName     string
	Description     string
	Headers         map[string]*TypeDeclaration
	QueryParameters map[string]*TypeDeclaration
	Body            map[string]*TypeDeclaration
	Responses       map[string]*Response

	resource *Resource
}

type Response struct {
	Description string
	Headers     map[string]*TypeDeclaration
	Body        map[string]*TypeDeclaration
}

func NewApi() *Api {
	return &Api{
		Types:     map[string]*TypeDeclaration{},
		Resources: map[string]*Resource{},
	}
}

func newResource() *Resource {
	return &Resource{
		Annotations:   map[string]string{},
		URIParameters: map[string]*TypeDeclaration{},
		Methods:       map[raml.ActionType]*Method{},
		Resources:     map[string]*Resource{},
	}
}

func newMethod(t raml.ActionType) *Method {
	return &Method{
		Type:            t,
		Headers:         map[string]*TypeDeclaration{},
		QueryParameters: map[string]*TypeDeclaration{},
		Body:            map[string]*TypeDeclaration{},
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

// DefaultMediaType is the first declared media type, if any.
func (a *Api) DefaultMediaType() string {
	if len(a.MediaType) == 0 {
		return ""
	}
	return a.MediaType[0]
}

// declare records t under name, keeping the first declaration order.
func (a *Api) declare(name string, t *TypeDeclaration) {
	if _, ok := a.Types[name]; !ok {
		a.typeOrder = append(a.typeOrder, name)
	}
	a.Types[name] = t
}
