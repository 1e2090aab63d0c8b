// Package rules turns metadata units into generated Go through a shared
// code model. Rules are looked up by identifier in a Registry populated at
// init time.
package rules

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mark3labs/raml2go/internal/codemodel"
	"github.com/mark3labs/raml2go/internal/metadata"
)

// Rule produces one generated unit U from one metadata unit M, building
// into the shared context C. Applying a rule twice to the same metadata and
// context state yields equivalent output.
type Rule[C, U, M any] interface {
	Apply(meta M, ctx C) (U, error)
}

type (
	ControllerRule = Rule[*Context, *codemodel.File, *metadata.Controller]
	BodyRule       = Rule[*Context, *codemodel.File, *metadata.Body]
)

// Generated packages below the base package.
const (
	ModelsDir      = "models"
	ControllersDir = "controllers"
)

// ErrMissingType is wrapped when a rule references a body type the code
// model does not hold yet.
var ErrMissingType = errors.New("referenced type not generated")

// Context is shared by every rule application of one run.
type Context struct {
	Model *codemodel.Model
	Graph *metadata.Graph
}

func NewContext(model *codemodel.Model, graph *metadata.Graph) *Context {
	if graph == nil {
		graph = metadata.NewGraph()
	}
	return &Context{Model: model, Graph: graph}
}

func (c *Context) ModelsPath() string { return c.Model.ImportPath(ModelsDir) }

// Policy decides what Resolve does when a rule cannot be resolved.
type Policy int

const (
	// Abort returns the resolution error.
	Abort Policy = iota
	// FallbackToDefault returns the default rule along with the error,
	// which callers report as a warning.
	FallbackToDefault
)

// ResolutionError reports a rule identifier that is unknown or whose
// constructor failed.
type ResolutionError struct {
	Kind     string // "controller" or "body"
	ID       string
	Known    []string
	Fallback string // default rule used instead, if any
	Cause    error
}

func (e *ResolutionError) Error() string {
	var msg string
	if e.Cause != nil {
		msg = fmt.Sprintf("rules: %s rule %q: %v", e.Kind, e.ID, e.Cause)
	} else {
		msg = fmt.Sprintf("rules: unknown %s rule %q (known: %s)", e.Kind, e.ID, strings.Join(e.Known, ", "))
	}
	if e.Fallback != "" {
		msg += fmt.Sprintf("; using %q", e.Fallback)
	}
	return msg
}

func (e *ResolutionError) Unwrap() error { return e.Cause }

type Constructor[R any] func() (R, error)

type entry[R any] struct {
	doc  string
	ctor Constructor[R]
}

// Registry maps rule identifiers to constructors.
type Registry[R any] struct {
	mu      sync.RWMutex
	kind    string
	def     string
	entries map[string]entry[R]
}

func NewRegistry[R any](kind, defaultID string) *Registry[R] {
	return &Registry[R]{kind: kind, def: defaultID, entries: map[string]entry[R]{}}
}

// Register adds a rule. Registering an identifier twice panics: it is a
// programming error caught at init.
func (r *Registry[R]) Register(id, doc string, ctor Constructor[R]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.entries[id]; dup {
		panic(fmt.Sprintf("rules: %s rule %q registered twice", r.kind, id))
	}
	r.entries[id] = entry[R]{doc: doc, ctor: ctor}
}

func (r *Registry[R]) Kind() string    { return r.kind }
func (r *Registry[R]) Default() string { return r.def }

// IDs lists the registered identifiers in order.
func (r *Registry[R]) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Describe returns the one-line description of a rule.
func (r *Registry[R]) Describe(id string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[id].doc
}

// New instantiates the rule registered under id.
func (r *Registry[R]) New(id string) (R, error) {
	var zero R
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return zero, &ResolutionError{Kind: r.kind, ID: id, Known: r.IDs()}
	}
	rule, err := e.ctor()
	if err != nil {
		return zero, &ResolutionError{Kind: r.kind, ID: id, Known: r.IDs(), Cause: err}
	}
	return rule, nil
}

// Resolve instantiates id, or the default rule when id is empty. On
// failure the policy applies: Abort returns the error alone, while
// FallbackToDefault returns the default rule together with the error.
func (r *Registry[R]) Resolve(id string, policy Policy) (R, error) {
	if id == "" {
		id = r.def
	}
	rule, err := r.New(id)
	if err == nil {
		return rule, nil
	}
	if policy != FallbackToDefault || id == r.def {
		return rule, err
	}
	def, derr := r.New(r.def)
	if derr != nil {
		return def, errors.Join(err, derr)
	}
	var re *ResolutionError
	if errors.As(err, &re) {
		re.Fallback = r.def
	}
	return def, err
}

var (
	Controllers = NewRegistry[ControllerRule]("controller", "controller-stub")
	Bodies      = NewRegistry[BodyRule]("body", "model-struct")
)
