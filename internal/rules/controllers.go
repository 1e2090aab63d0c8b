package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/raml2go/internal/codemodel"
	"github.com/mark3labs/raml2go/internal/metadata"
)

func init() {
	Controllers.Register("controller-stub", "net/http controller whose handlers decode the request and answer 501",
		func() (ControllerRule, error) { return controllerStub{}, nil })
	Controllers.Register("controller-interface", "Go interface with one typed method per action",
		func() (ControllerRule, error) { return controllerInterface{}, nil })
	Controllers.Register("controller-decorator", "typed interface plus a net/http handler delegating to it",
		func() (ControllerRule, error) { return controllerDecorator{}, nil })
}

// endpoint is an action with its Go types resolved against the model.
type endpoint struct {
	*metadata.ControllerAction
	method    string // Go method name
	params    []pathParam
	request   string // body type, "" without a typed request
	validate  bool   // request has a Validate method
	response  string // success body type, "" without one
	mediaType string
	status    int
}

type pathParam struct {
	ident    string
	wildcard string
}

func endpoints(c *metadata.Controller, ty typer, reserved ...string) ([]endpoint, error) {
	taken := map[string]bool{}
	for _, r := range reserved {
		taken[r] = true
	}
	out := make([]endpoint, 0, len(c.Actions))
	for _, a := range c.Actions {
		ep := endpoint{ControllerAction: a, method: identifier(a.Name, true, taken), status: 200}
		paramNames := map[string]bool{"ctx": true, "body": true, "w": true, "r": true, "h": true, "c": true, "out": true, "err": true}
		for _, p := range a.PathParams {
			ep.params = append(ep.params, pathParam{ident: identifier(p.Name, false, paramNames), wildcard: wildcard(p.Name)})
		}
		if a.Request != nil {
			t, err := ty.goType(*a.Request)
			if err != nil {
				return nil, fmt.Errorf("%s %s request: %w", strings.ToUpper(string(a.Method)), a.FullPath, err)
			}
			ep.request = t
			if isRef(a.Request) {
				if def, ok := ty.ctx.Model.LookupType(ty.ctx.ModelsPath(), a.Request.Body); ok && def.Method("Validate") != nil {
					ep.validate = true
				}
			}
		}
		if s := a.Success(); s != nil {
			if code, err := strconv.Atoi(s.Code); err == nil {
				ep.status = code
			}
			if s.Type != nil {
				t, err := ty.goType(*s.Type)
				if err != nil {
					return nil, fmt.Errorf("%s %s response: %w", strings.ToUpper(string(a.Method)), a.FullPath, err)
				}
				if isRef(s.Type) {
					t = "*" + t
				}
				ep.response = t
				ep.mediaType = s.MediaType
			}
		} else if a.Request == nil {
			ep.status = 204
		}
		out = append(out, ep)
	}
	return out, nil
}

func (ep endpoint) route() string { return strings.ToUpper(string(ep.Method)) + " " + ep.FullPath }

func (ep endpoint) doc(what string) string {
	doc := ep.method + " " + what + " " + ep.route() + "."
	if ep.Description != "" {
		doc += "\n\n" + ep.Description
	}
	return doc
}

func register(recv string, eps []endpoint) *codemodel.Func {
	var lines []string
	for _, ep := range eps {
		lines = append(lines, fmt.Sprintf("mux.HandleFunc(%q, %s.%s)", pattern(string(ep.Method), ep.FullPath), recv[:1], ep.method))
	}
	return &codemodel.Func{
		Name:     "Register",
		Doc:      "Register mounts the routes on mux.",
		Receiver: recv,
		Params:   []codemodel.Param{{Name: "mux", Type: "*http.ServeMux"}},
		Body:     strings.Join(lines, "\n"),
	}
}

// decodeBody returns the statements reading the request body into "body".
func decodeBody(ep endpoint) string {
	if ep.request == "" {
		return ""
	}
	s := "var body " + ep.request + "\n" +
		"if err := json.NewDecoder(r.Body).Decode(&body); err != nil {\n" +
		"http.Error(w, err.Error(), http.StatusBadRequest)\nreturn\n}\n"
	if ep.validate {
		s += "if err := body.Validate(); err != nil {\n" +
			"http.Error(w, err.Error(), http.StatusUnprocessableEntity)\nreturn\n}\n"
	}
	return s
}

func handlerParams() []codemodel.Param {
	return []codemodel.Param{{Name: "w", Type: "http.ResponseWriter"}, {Name: "r", Type: "*http.Request"}}
}

func needsJSON(eps []endpoint, responses bool) bool {
	for _, ep := range eps {
		if ep.request != "" || (responses && ep.response != "") {
			return true
		}
	}
	return false
}

type controllerStub struct{}

func (controllerStub) Apply(c *metadata.Controller, ctx *Context) (*codemodel.File, error) {
	f, err := ctx.Model.NewFile(fileName(ControllersDir, c.Name))
	if err != nil {
		return nil, err
	}
	eps, err := endpoints(c, typer{ctx: ctx, file: f}, "Register")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Name, err)
	}
	f.Import("net/http")
	if needsJSON(eps, false) {
		f.Import("encoding/json")
	}

	name := c.Name + "Controller"
	t, err := f.AddType(&codemodel.Type{Name: name, Doc: name + " serves " + orRoot(c.BasePath) + ". Its handlers are stubs."})
	if err != nil {
		return nil, err
	}
	recv := "c *" + name
	if err := t.AddMethod(register(recv, eps)); err != nil {
		return nil, err
	}
	for _, ep := range eps {
		var b strings.Builder
		for _, p := range ep.params {
			fmt.Fprintf(&b, "%s := r.PathValue(%q)\n_ = %s\n", p.ident, p.wildcard, p.ident)
		}
		b.WriteString(decodeBody(ep))
		b.WriteString(`http.Error(w, "not implemented", http.StatusNotImplemented)`)
		if err := t.AddMethod(&codemodel.Func{
			Name:     ep.method,
			Doc:      ep.doc("handles"),
			Receiver: recv,
			Params:   handlerParams(),
			Body:     b.String(),
		}); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// serviceInterface adds the typed interface shared by the interface and
// decorator rules.
func serviceInterface(f *codemodel.File, c *metadata.Controller, eps []endpoint) (*codemodel.Type, error) {
	name := c.Name + "Service"
	t, err := f.AddType(&codemodel.Type{Name: name, Kind: codemodel.Interface, Doc: name + " implements " + orRoot(c.BasePath) + "."})
	if err != nil {
		return nil, err
	}
	f.Import("context")
	for _, ep := range eps {
		params := []codemodel.Param{{Name: "ctx", Type: "context.Context"}}
		for _, p := range ep.params {
			params = append(params, codemodel.Param{Name: p.ident, Type: "string"})
		}
		if ep.request != "" {
			typ := ep.request
			if isRef(ep.Request) {
				typ = "*" + typ
			}
			params = append(params, codemodel.Param{Name: "body", Type: typ})
		}
		results := []string{"error"}
		if ep.response != "" {
			results = []string{ep.response, "error"}
		}
		if err := t.AddMethod(&codemodel.Func{Name: ep.method, Doc: ep.doc("serves"), Params: params, Results: results}); err != nil {
			return nil, err
		}
	}
	return t, nil
}

type controllerInterface struct{}

func (controllerInterface) Apply(c *metadata.Controller, ctx *Context) (*codemodel.File, error) {
	f, err := ctx.Model.NewFile(fileName(ControllersDir, c.Name))
	if err != nil {
		return nil, err
	}
	eps, err := endpoints(c, typer{ctx: ctx, file: f})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Name, err)
	}
	if _, err := serviceInterface(f, c, eps); err != nil {
		return nil, err
	}
	return f, nil
}

// controllerDecorator emits the service interface and an http handler that
// decodes requests, delegates to the service and encodes its results.
type controllerDecorator struct{}

func (controllerDecorator) Apply(c *metadata.Controller, ctx *Context) (*codemodel.File, error) {
	f, err := ctx.Model.NewFile(fileName(ControllersDir, c.Name))
	if err != nil {
		return nil, err
	}
	eps, err := endpoints(c, typer{ctx: ctx, file: f}, "Register")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Name, err)
	}
	svc, err := serviceInterface(f, c, eps)
	if err != nil {
		return nil, err
	}
	f.Import("net/http")
	if needsJSON(eps, true) {
		f.Import("encoding/json")
	}

	name := c.Name + "Handler"
	h, err := f.AddType(&codemodel.Type{Name: name, Doc: name + " adapts a " + svc.Name + " to net/http."})
	if err != nil {
		return nil, err
	}
	if err := h.AddField(&codemodel.Field{Name: "Service", Type: svc.Name}); err != nil {
		return nil, err
	}
	f.AddFunc(&codemodel.Func{
		Name:    "New" + name,
		Params:  []codemodel.Param{{Name: "svc", Type: svc.Name}},
		Results: []string{"*" + name},
		Body:    "return &" + name + "{Service: svc}",
	})
	recv := "h *" + name
	if err := h.AddMethod(register(recv, eps)); err != nil {
		return nil, err
	}
	for _, ep := range eps {
		if err := h.AddMethod(&codemodel.Func{
			Name:     ep.method,
			Doc:      ep.doc("handles"),
			Receiver: recv,
			Params:   handlerParams(),
			Body:     delegate(ep),
		}); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func delegate(ep endpoint) string {
	var b strings.Builder
	b.WriteString(decodeBody(ep))
	args := []string{"r.Context()"}
	for _, p := range ep.params {
		args = append(args, fmt.Sprintf("r.PathValue(%q)", p.wildcard))
	}
	if ep.request != "" {
		if isRef(ep.Request) {
			args = append(args, "&body")
		} else {
			args = append(args, "body")
		}
	}
	call := "h.Service." + ep.method + "(" + strings.Join(args, ", ") + ")"
	fail := "http.Error(w, err.Error(), http.StatusInternalServerError)\nreturn\n"
	if ep.response == "" {
		fmt.Fprintf(&b, "if err := %s; err != nil {\n%s}\nw.WriteHeader(%d)", call, fail, ep.status)
		return b.String()
	}
	fmt.Fprintf(&b, "out, err := %s\nif err != nil {\n%s}\n", call, fail)
	mt := ep.mediaType
	if mt == "" {
		mt = metadata.DefaultMediaType
	}
	fmt.Fprintf(&b, "w.Header().Set(\"Content-Type\", %s)\nw.WriteHeader(%d)\n_ = json.NewEncoder(w).Encode(out)", quote(mt), ep.status)
	return b.String()
}

func orRoot(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
