// Package export re-serializes a loaded RAML document, either as RAML of
// the same version or as an OpenAPI 3 document.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/mark3labs/raml2go/internal/raml"
	"github.com/mark3labs/raml2go/internal/schema"
	"github.com/mark3labs/raml2go/internal/spec"
	"github.com/mark3labs/raml2go/internal/strcase"
)

const componentPrefix = "#/components/schemas/"

// Formats kin-openapi accepts per type; anything else is dropped.
var knownFormats = map[string]map[string]bool{
	"integer": {"int32": true, "int64": true},
	"number":  {"float": true, "double": true},
	"string":  {"date": true, "date-time": true, "time": true, "binary": true, "byte": true, "email": true, "uuid": true},
}

// ToRAML serializes root with the emitter of its own version.
func ToRAML(root raml.Root) ([]byte, error) {
	f, err := spec.FactoryFor(root.Version())
	if err != nil {
		return nil, err
	}
	return f.NewEmitter().Emit(root)
}

// ToOpenAPI maps root onto an OpenAPI 3.0 document: declared schemas become
// components, every action an operation. The result has its references
// resolved and has passed validation.
func ToOpenAPI(ctx context.Context, root raml.Root) (*openapi3.T, error) {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   root.Title(),
			Version: root.APIVersion(),
		},
		Paths:      openapi3.Paths{},
		Components: &openapi3.Components{Schemas: openapi3.Schemas{}},
	}
	if doc.Info.Title == "" {
		doc.Info.Title = "API"
	}
	if doc.Info.Version == "" {
		doc.Info.Version = "1.0"
	}
	if u := serverURL(root); u != "" {
		doc.Servers = openapi3.Servers{{URL: u}}
	}

	schemas := root.Schemas()
	for _, name := range raml.SortedKeys(schemas) {
		doc.Components.Schemas[name] = convert(schemas[name])
	}

	ids := map[string]int{}
	err := raml.Walk(root.Resources(), func(r raml.Resource) error {
		actions := r.Actions()
		if len(actions) == 0 {
			return nil
		}
		item := &openapi3.PathItem{
			Summary:     r.DisplayName(),
			Description: r.Description(),
		}
		for _, t := range raml.ActionTypes {
			a, ok := actions[t]
			if !ok {
				continue
			}
			item.SetOperation(strings.ToUpper(string(t)), operation(r, a, ids))
		}
		doc.Paths[r.URI()] = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	// A round trip through the loader resolves the component references.
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("export: marshal openapi: %w", err)
	}
	loader := openapi3.NewLoader()
	loader.Context = ctx
	out, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("export: load openapi: %w", err)
	}
	if err := out.Validate(ctx); err != nil {
		return nil, fmt.Errorf("export: invalid openapi: %w", err)
	}
	return out, nil
}

// serverURL is the base URI with {version} substituted. Other templates
// cannot be expressed without server variables, so such URIs are dropped.
func serverURL(root raml.Root) string {
	u := strings.ReplaceAll(root.BaseURI(), "{version}", root.APIVersion())
	if strings.ContainsAny(u, "{}") {
		return ""
	}
	return u
}

func operation(r raml.Resource, a raml.Action, ids map[string]int) *openapi3.Operation {
	op := openapi3.NewOperation()
	op.Summary = a.DisplayName()
	op.Description = a.Description()
	op.OperationID = operationID(string(a.Type()), r.URI(), ids)

	for _, p := range pathParams(r) {
		op.AddParameter(parameter(openapi3.NewPathParameter(p.Name), p))
	}
	query := a.QueryParameters()
	for _, name := range raml.SortedKeys(query) {
		op.AddParameter(parameter(openapi3.NewQueryParameter(name), query[name]))
	}
	headers := a.Headers()
	for _, name := range raml.SortedKeys(headers) {
		op.AddParameter(parameter(openapi3.NewHeaderParameter(name), headers[name]))
	}

	if bodies := a.Body(); len(bodies) > 0 {
		op.RequestBody = &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().WithRequired(true).WithContent(content(bodies)),
		}
	}

	op.Responses = openapi3.Responses{}
	responses := a.Responses()
	for _, code := range raml.SortedKeys(responses) {
		resp := responses[code]
		desc := resp.Description
		if desc == "" {
			desc = defaultDescription(code)
		}
		v := openapi3.NewResponse().WithDescription(desc)
		if len(resp.Body) > 0 {
			v.Content = content(resp.Body)
		}
		op.Responses[code] = &openapi3.ResponseRef{Value: v}
	}
	if len(op.Responses) == 0 {
		op.Responses["default"] = &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Default response")}
	}
	return op
}

func defaultDescription(code string) string {
	if n, err := strconv.Atoi(code); err == nil {
		if s := http.StatusText(n); s != "" {
			return s
		}
	}
	return "Response " + code
}

func content(bodies map[string]*raml.MimeType) openapi3.Content {
	c := openapi3.Content{}
	for _, mt := range raml.SortedKeys(bodies) {
		b := bodies[mt]
		m := openapi3.NewMediaType()
		switch {
		case b.SchemaName != "":
			m.Schema = openapi3.NewSchemaRef(componentPrefix+b.SchemaName, nil)
		case b.Schema != nil:
			m.Schema = convert(b.Schema)
		}
		c[mt] = m
	}
	return c
}

// pathParams returns one parameter per template in the resource URI,
// declared on the resource or one of its ancestors, or a plain string.
func pathParams(r raml.Resource) []*raml.Param {
	var out []*raml.Param
	seen := map[string]bool{}
	for _, seg := range strings.Split(r.URI(), "/") {
		if !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(seg, "{"), "}")
		if seen[name] {
			continue
		}
		seen[name] = true
		p := &raml.Param{Name: name, Type: schema.String}
		for cur := r; cur != nil; cur = cur.Parent() {
			if d, ok := cur.URIParameters()[name]; ok {
				p = d
				break
			}
		}
		out = append(out, p)
	}
	return out
}

func parameter(out *openapi3.Parameter, p *raml.Param) *openapi3.Parameter {
	out.Description = p.Description
	if out.In != openapi3.ParameterInPath {
		out.Required = p.Required
	}
	s := &schema.Schema{Kind: p.Type, Format: p.Format, Enum: p.Enum}
	if s.Kind == "" {
		s.Kind = schema.String
	}
	if p.Repeat {
		s = schema.NewArray(s)
	}
	out.Schema = convert(s)
	return out
}

// convert maps s with component references and formats kin-openapi knows.
func convert(s *schema.Schema) *openapi3.SchemaRef {
	ref := schema.ToOpenAPI(s, componentPrefix)
	clean(ref)
	return ref
}

func clean(ref *openapi3.SchemaRef) {
	if ref == nil || ref.Value == nil {
		return
	}
	v := ref.Value
	if v.Format != "" && !knownFormats[v.Type][v.Format] {
		v.Format = ""
	}
	clean(v.Items)
	names := make([]string, 0, len(v.Properties))
	for name := range v.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		clean(v.Properties[name])
	}
}

func operationID(method, uri string, taken map[string]int) string {
	words := []string{method}
	for _, seg := range strings.Split(uri, "/") {
		switch {
		case seg == "":
		case strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}"):
			words = append(words, "by", seg[1:len(seg)-1])
		default:
			words = append(words, seg)
		}
	}
	id := strcase.ToCamelCase(strcase.ToPascalCase(strings.Join(words, " ")))
	taken[id]++
	if n := taken[id]; n > 1 {
		id += strconv.Itoa(n)
	}
	return id
}
