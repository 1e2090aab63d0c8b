package metadata

import (
	"context"
	"sort"
	"strings"

	"github.com/go-logr/logr"

	"github.com/mark3labs/raml2go/internal/raml"
	"github.com/mark3labs/raml2go/internal/schema"
	"github.com/mark3labs/raml2go/internal/strcase"
)

// Result is the metadata of one generation run.
type Result struct {
	BasePackage string
	BasePath    string
	Title       string
	// Controllers are sorted by name.
	Controllers []*Controller
	// Bodies holds every body in name order, referenced or not.
	Bodies []*Body
	Graph  *Graph
}

// Controller is one generated controller: a group of actions sharing a
// base path.
type Controller struct {
	Name        string
	BasePath    string // effective base path joined with Path
	Path        string // group path below the effective base path
	Description string
	Actions     []*ControllerAction
	// Bodies are the bodies the actions use, transitively, dependencies
	// first.
	Bodies []*Body
}

type ControllerAction struct {
	Method      raml.ActionType
	Name        string // Go method name, unique within the controller
	Path        string // below the controller's base path, "" for its root
	FullPath    string
	Description string

	PathParams  []*raml.Param // in URI order
	QueryParams []*raml.Param // by name
	Headers     []*raml.Param // by name

	RequestMediaType string
	Request          *TypeRef
	Responses        []*ActionResponse // by code
}

type ActionResponse struct {
	Code        string
	Description string
	MediaType   string
	Type        *TypeRef // nil when the response has no typed body
}

// Success returns the lowest 2xx response, if any.
func (a *ControllerAction) Success() *ActionResponse {
	for _, r := range a.Responses {
		if strings.HasPrefix(r.Code, "2") {
			return r
		}
	}
	return nil
}

// Parser extracts controller and body metadata from a document.
type Parser struct {
	basePackage string
	opts        Options
}

func NewParser(basePackage string, opts ...Option) *Parser {
	o := Options{GroupBy: GroupByFirstSegment}
	for _, opt := range opts {
		opt(&o)
	}
	if o.GroupBy == "" {
		o.GroupBy = GroupByFirstSegment
	}
	return &Parser{basePackage: basePackage, opts: o}
}

type group struct {
	ctrl    *Controller
	actions []pendingAction
}

type pendingAction struct {
	action    raml.Action
	uri       string // resource URI below the base path
	extracted *ControllerAction
}

type extraction struct {
	p         *Parser
	root      raml.Root
	resolver  *Resolver
	basePath  string
	mediaType string
	groups    map[string]*group
}

// Parse walks root and builds the run's metadata. Any inconsistency aborts
// the whole extraction; no partial result is returned.
func (p *Parser) Parse(ctx context.Context, root raml.Root) (*Result, error) {
	log := logr.FromContextOrDiscard(ctx).WithName("metadata")

	x := &extraction{
		p:        p,
		root:     root,
		resolver: NewResolver(),
		basePath: ResolveBasePath(root, p.opts.BasePathOverride),
		groups:   map[string]*group{},
	}
	x.mediaType = p.opts.DefaultMediaType
	if x.mediaType == "" {
		x.mediaType = root.MediaType()
	}
	if x.mediaType == "" {
		x.mediaType = DefaultMediaType
	}

	if err := x.resolver.Declare(root.Schemas()); err != nil {
		return nil, err
	}

	err := raml.Walk(root.Resources(), func(r raml.Resource) error {
		actions := r.Actions()
		for _, t := range raml.ActionTypes {
			a, ok := actions[t]
			if !ok {
				continue
			}
			if err := x.action(r, a); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		BasePackage: p.basePackage,
		BasePath:    x.basePath,
		Title:       root.Title(),
		Bodies:      x.resolver.Bodies(),
		Graph:       x.resolver.Graph(),
	}
	for _, name := range raml.SortedKeys(x.groups) {
		c := x.finish(x.groups[name])
		res.Controllers = append(res.Controllers, c)
		log.V(1).Info("extracted controller", "name", c.Name, "basePath", c.BasePath, "actions", len(c.Actions), "bodies", len(c.Bodies))
	}
	log.V(1).Info("extracted metadata", "controllers", len(res.Controllers), "bodies", len(res.Bodies), "basePath", res.BasePath)
	return res, nil
}

func (x *extraction) action(r raml.Resource, a raml.Action) error {
	uri := r.URI()
	method := strings.ToUpper(string(a.Type()))
	if x.p.opts.MediaTypeFilter && !x.usesMediaType(a) {
		return nil
	}

	ca := &ControllerAction{
		Method:      a.Type(),
		FullPath:    x.basePath + uri,
		Description: a.Description(),
		PathParams:  pathParams(r),
		QueryParams: sortedParams(a.QueryParameters()),
		Headers:     sortedParams(a.Headers()),
	}
	resName := pathName(uri)
	if resName == "" {
		resName = "Root"
	}
	verb := strcase.ToPascalCase(string(a.Type()))

	if mt, body := x.pick(a.Body()); body != nil {
		ref, err := x.resolve(resName+verb+"Body", body, uri+"/"+string(a.Type()))
		if err != nil {
			return &ConsistencyError{Path: uri, Method: method, Cause: err}
		}
		ca.RequestMediaType = mt
		ca.Request = ref
	}

	responses := a.Responses()
	success := ""
	for _, code := range raml.SortedKeys(responses) {
		if success == "" && strings.HasPrefix(code, "2") {
			success = code
		}
	}
	for _, code := range raml.SortedKeys(responses) {
		resp := responses[code]
		out := &ActionResponse{Code: code, Description: resp.Description}
		if mt, body := x.pick(resp.Body); body != nil {
			hint := resName + verb + "Response"
			if code != success {
				hint = resName + verb + code + "Response"
			}
			ref, err := x.resolve(hint, body, uri+"/"+string(a.Type())+"/"+code)
			if err != nil {
				return &ConsistencyError{Path: uri, Method: method, Cause: err}
			}
			out.MediaType = mt
			out.Type = ref
		}
		ca.Responses = append(ca.Responses, out)
	}

	name, path := x.groupOf(r)
	g, ok := x.groups[name]
	if !ok {
		g = &group{ctrl: &Controller{Name: name, Path: path, Description: r.Description()}}
		x.groups[name] = g
	} else if g.ctrl.Path != path {
		g.ctrl.Path = commonPrefix(g.ctrl.Path, path)
	}
	g.actions = append(g.actions, pendingAction{action: a, uri: uri, extracted: ca})
	return nil
}

// groupOf names the controller r belongs to and the path it is rooted at.
func (x *extraction) groupOf(r raml.Resource) (string, string) {
	switch x.p.opts.GroupBy {
	case GroupBySingle:
		name := strcase.ToPascalCase(x.root.Title())
		if name == "" {
			name = "Api"
		}
		return name, ""
	case GroupByResource:
		name := pathName(r.URI())
		if name == "" {
			name = "Root"
		}
		return name, r.URI()
	}
	for cur := r; cur != nil; cur = cur.Parent() {
		if c := cur.ControllerName(); c != "" {
			return strcase.ToPascalCase(c), cur.URI()
		}
	}
	segs := segments(r.URI())
	if len(segs) == 0 {
		return "Root", ""
	}
	return pathName(segs[0]), "/" + segs[0]
}

// usesMediaType reports whether a may be generated under the media type
// filter: it has no bodies at all, or one of them is the default type.
func (x *extraction) usesMediaType(a raml.Action) bool {
	seen := false
	check := func(bodies map[string]*raml.MimeType) bool {
		if len(bodies) > 0 {
			seen = true
		}
		_, ok := bodies[x.mediaType]
		return ok
	}
	if check(a.Body()) {
		return true
	}
	for _, r := range a.Responses() {
		if check(r.Body) {
			return true
		}
	}
	return !seen
}

// pick selects the typed body to extract: the default media type when
// present, otherwise the first typed body by media type. Under the media
// type filter only the default media type is considered.
func (x *extraction) pick(bodies map[string]*raml.MimeType) (string, *raml.MimeType) {
	if b, ok := bodies[x.mediaType]; ok && b.HasSchema() {
		return x.mediaType, b
	}
	if x.p.opts.MediaTypeFilter {
		return "", nil
	}
	for _, mt := range raml.SortedKeys(bodies) {
		if bodies[mt].HasSchema() {
			return mt, bodies[mt]
		}
	}
	return "", nil
}

func (x *extraction) resolve(hint string, body *raml.MimeType, source string) (*TypeRef, error) {
	s := body.Schema
	if body.SchemaName != "" {
		s = schema.NewRef(body.SchemaName)
	}
	ref, err := x.resolver.ResolveOrCreate(hint, s, source)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

// finish fixes relative paths and method names once the group path is
// final, then collects the controller's bodies.
func (x *extraction) finish(g *group) *Controller {
	c := g.ctrl
	c.BasePath = x.basePath + c.Path
	names := uniqueNames{}
	var roots []string
	for _, pa := range g.actions {
		ca := pa.extracted
		ca.Path = strings.TrimPrefix(pa.uri, c.Path)
		ca.Name = names.take(methodName(pa.action, ca.Path))
		c.Actions = append(c.Actions, ca)

		if ca.Request != nil {
			roots = append(roots, ca.Request.Bodies()...)
		}
		for _, r := range ca.Responses {
			if r.Type != nil {
				roots = append(roots, r.Type.Bodies()...)
			}
		}
	}
	for _, name := range x.resolver.Graph().Order(roots...) {
		if b, ok := x.resolver.Lookup(name); ok {
			c.Bodies = append(c.Bodies, b)
		}
	}
	return c
}

// pathParams returns the URI parameters of r's full path in order of
// appearance. Undeclared parameters are required strings.
func pathParams(r raml.Resource) []*raml.Param {
	var out []*raml.Param
	for _, name := range templateNames(r.URI()) {
		p := lookupURIParam(r, name)
		if p == nil {
			p = &raml.Param{Name: name, Type: schema.String, Required: true}
		}
		out = append(out, p)
	}
	return out
}

func lookupURIParam(r raml.Resource, name string) *raml.Param {
	for cur := r; cur != nil; cur = cur.Parent() {
		if p, ok := cur.URIParameters()[name]; ok {
			return p
		}
	}
	return nil
}

func sortedParams(in map[string]*raml.Param) []*raml.Param {
	out := make([]*raml.Param, 0, len(in))
	for _, p := range in {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
