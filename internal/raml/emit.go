package raml

import (
	"gopkg.in/yaml.v3"
)

// Dialect supplies the version-specific parts of RAML serialization. The
// layout shared by both versions (title, resources, methods, parameters,
// responses) is written by EmitDocument.
type Dialect interface {
	Header() string
	// Declarations returns the root-level nodes that declare types, in order
	// (e.g. "schemas" for 0.8, "annotationTypes" and "types" for 1.0).
	Declarations(root Root) ([]Entry, error)
	// BodyNode renders one body representation.
	BodyNode(m *MimeType) (*yaml.Node, error)
	// ResourceAnnotations returns extra resource-level entries.
	ResourceAnnotations(r Resource) []Entry
	// ParamNode renders a named parameter.
	ParamNode(p *Param) *yaml.Node
}

// EmitDocument serializes root using d.
func EmitDocument(root Root, d Dialect) ([]byte, error) {
	doc := Map(
		"title", Str(root.Title()),
		"version", Str(root.APIVersion()),
		"baseUri", Str(root.BaseURI()),
		"mediaType", Str(root.MediaType()),
	)
	decls, err := d.Declarations(root)
	if err != nil {
		return nil, err
	}
	for _, e := range decls {
		Append(doc, e.Key, e.Value)
	}
	resources := root.Resources()
	for _, path := range SortedKeys(resources) {
		n, err := emitResource(resources[path], d)
		if err != nil {
			return nil, err
		}
		Append(doc, path, n)
	}
	return MarshalDocument(d.Header(), doc)
}

func emitResource(r Resource, d Dialect) (*yaml.Node, error) {
	n := Map(
		"displayName", Str(r.DisplayName()),
		"description", Str(r.Description()),
	)
	for _, e := range d.ResourceAnnotations(r) {
		Append(n, e.Key, e.Value)
	}
	Append(n, "uriParameters", paramsNode(r.URIParameters(), d))

	actions := r.Actions()
	for _, t := range ActionTypes {
		a, ok := actions[t]
		if !ok {
			continue
		}
		an, err := emitAction(a, d)
		if err != nil {
			return nil, err
		}
		if an == nil {
			an = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		}
		Append(n, string(t), an)
	}

	children := r.Resources()
	for _, path := range SortedKeys(children) {
		cn, err := emitResource(children[path], d)
		if err != nil {
			return nil, err
		}
		Append(n, path, cn)
	}
	return n, nil
}

func emitAction(a Action, d Dialect) (*yaml.Node, error) {
	n := Map(
		"displayName", Str(a.DisplayName()),
		"description", Str(a.Description()),
	)
	Append(n, "queryParameters", paramsNode(a.QueryParameters(), d))
	Append(n, "headers", paramsNode(a.Headers(), d))
	body, err := bodiesNode(a.Body(), d)
	if err != nil {
		return nil, err
	}
	Append(n, "body", body)

	responses := a.Responses()
	if len(responses) > 0 {
		rn := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, code := range SortedKeys(responses) {
			resp := responses[code]
			entry := Map("description", Str(resp.Description))
			Append(entry, "headers", paramsNode(resp.Headers, d))
			b, err := bodiesNode(resp.Body, d)
			if err != nil {
				return nil, err
			}
			Append(entry, "body", b)
			Append(rn, code, entry)
		}
		Append(n, "responses", rn)
	}
	return n, nil
}

func bodiesNode(bodies map[string]*MimeType, d Dialect) (*yaml.Node, error) {
	if len(bodies) == 0 {
		return nil, nil
	}
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, mt := range SortedKeys(bodies) {
		b, err := d.BodyNode(bodies[mt])
		if err != nil {
			return nil, err
		}
		if b == nil {
			b = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
		}
		Append(n, mt, b)
	}
	return n, nil
}

func paramsNode(params map[string]*Param, d Dialect) *yaml.Node {
	if len(params) == 0 {
		return nil
	}
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, name := range SortedKeys(params) {
		Append(n, name, d.ParamNode(params[name]))
	}
	return n
}
