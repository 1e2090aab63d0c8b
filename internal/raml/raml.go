// Package raml is the version-independent view of a RAML document.
//
// A concrete object model per RAML version (see raml08 and raml10) sits
// behind the Root, Resource and Action interfaces. The version is chosen
// once, when a Factory builds the Root; nothing downstream inspects it.
package raml

import (
	"context"
	"sort"

	"github.com/mark3labs/raml2go/internal/schema"
)

type Version string

const (
	V08 Version = "0.8"
	V10 Version = "1.0"
)

type ActionType string

const (
	GET     ActionType = "get"
	POST    ActionType = "post"
	PUT     ActionType = "put"
	PATCH   ActionType = "patch"
	DELETE  ActionType = "delete"
	HEAD    ActionType = "head"
	OPTIONS ActionType = "options"
	TRACE   ActionType = "trace"
)

// ActionTypes lists every method in the order generators visit them.
var ActionTypes = []ActionType{GET, POST, PUT, PATCH, DELETE, HEAD, OPTIONS, TRACE}

// ParseActionType maps a RAML method key to an ActionType.
func ParseActionType(s string) (ActionType, bool) {
	for _, t := range ActionTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Param is a named parameter: URI, query, header or form.
type Param struct {
	Name        string
	DisplayName string
	Description string
	Type        schema.Kind
	Format      string
	Required    bool
	Repeat      bool
	Enum        []string
	Default     string
	Example     string
}

// MimeType is one body representation. Exactly one of Schema (inline) and
// SchemaName (reference to a declared schema) is set when the body is typed.
type MimeType struct {
	Type       string
	Schema     *schema.Schema
	SchemaName string
	Example    string
}

// HasSchema reports whether the body is typed.
func (m *MimeType) HasSchema() bool {
	return m != nil && (m.Schema != nil || m.SchemaName != "")
}

type Response struct {
	Code        string
	Description string
	Body        map[string]*MimeType
	Headers     map[string]*Param
}

type Root interface {
	Version() Version
	Title() string
	SetTitle(string)
	APIVersion() string
	SetAPIVersion(string)
	BaseURI() string
	SetBaseURI(string)
	MediaType() string
	SetMediaType(string)

	Resources() map[string]Resource
	Resource(path string) Resource
	AddResource(path string, r Resource) error

	Schemas() map[string]*schema.Schema
	AddSchema(name string, s *schema.Schema)
}

type Resource interface {
	RelativeURI() string
	SetRelativeURI(string)
	// URI is the concatenation of the ancestors' relative URIs and this one.
	URI() string
	DisplayName() string
	SetDisplayName(string)
	Description() string
	SetDescription(string)
	// ControllerName is the grouping annotation, empty when absent.
	ControllerName() string
	SetControllerName(string)

	Parent() Resource
	Resources() map[string]Resource
	AddResource(path string, r Resource) error

	Actions() map[ActionType]Action
	Action(t ActionType) Action
	AddAction(a Action) error

	URIParameters() map[string]*Param
	AddURIParameter(p *Param)
}

type Action interface {
	Type() ActionType
	Resource() Resource
	DisplayName() string
	SetDisplayName(string)
	Description() string
	SetDescription(string)

	Body() map[string]*MimeType
	AddBody(m *MimeType)
	Responses() map[string]*Response
	AddResponse(r *Response)
	QueryParameters() map[string]*Param
	AddQueryParameter(p *Param)
	Headers() map[string]*Param
	AddHeader(p *Param)
}

// Factory builds and creates facade objects backed by one version's object
// model.
type Factory interface {
	Version() Version
	// BuildRoot reads and decodes the document at locator.
	BuildRoot(ctx context.Context, locator string, opts ...Option) (Root, error)
	// Decode turns an already-read document into a Root.
	Decode(doc *Document) (Root, error)
	CreateRoot() Root
	CreateResource() Resource
	CreateAction(t ActionType) Action
	NewEmitter() Emitter
}

// Emitter serializes a Root back to RAML text of one version.
type Emitter interface {
	Emit(root Root) ([]byte, error)
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Walk visits the resources and their descendants depth-first, children in
// path order.
func Walk(resources map[string]Resource, fn func(Resource) error) error {
	keys := SortedKeys(resources)
	stack := make([]Resource, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		stack = append(stack, resources[keys[i]])
	}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if err := fn(cur); err != nil {
			return err
		}
		children := cur.Resources()
		ck := SortedKeys(children)
		for i := len(ck) - 1; i >= 0; i-- {
			stack = append(stack, children[ck[i]])
		}
	}
	return nil
}
