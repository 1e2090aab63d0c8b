// Package generate drives one generation run: load the document, extract
// metadata, then apply the body and controller rules to produce units.
package generate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-logr/logr"
	"golang.org/x/mod/module"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/mark3labs/raml2go/internal/codemodel"
	"github.com/mark3labs/raml2go/internal/metadata"
	"github.com/mark3labs/raml2go/internal/raml"
	"github.com/mark3labs/raml2go/internal/rules"
	"github.com/mark3labs/raml2go/internal/spec"
)

type Kind string

const (
	KindController Kind = "controller"
	KindBody       Kind = "body"
)

// Unit is one generated source file.
type Unit struct {
	Kind Kind
	// Name is the fully qualified name of the unit's main type,
	// "<import path>.<Type>".
	Name string
	// Path is slash separated and relative to the output root.
	Path   string
	Source []byte
	// Seq is the position in which the unit was created during the run.
	// A body is always created before the controllers using it.
	Seq int
}

// UnitError reports a unit that could not be generated. It does not stop
// other units.
type UnitError struct {
	Kind Kind
	Name string // metadata name of the controller or body
	Err  error
}

func (e *UnitError) Error() string { return fmt.Sprintf("generate: %s %s: %v", e.Kind, e.Name, e.Err) }
func (e *UnitError) Unwrap() error { return e.Err }

type Config struct {
	// Input is a path or http(s) URL of the RAML document. Ignored when
	// Root is set.
	Input string
	Root  raml.Root
	// LoadOptions are passed to the loader.
	LoadOptions []raml.Option

	BasePackage      string
	BasePath         *string
	GroupBy          metadata.GroupBy
	MediaTypeFilter  bool
	DefaultMediaType string

	ControllerRule string
	BodyRule       string
	// Fallback selects rules.FallbackToDefault over rules.Abort.
	Fallback bool

	// Parallel is the number of controllers generated at once; values
	// below 2 generate sequentially.
	Parallel int

	// Registries default to rules.Controllers and rules.Bodies.
	Controllers *rules.Registry[rules.ControllerRule]
	Bodies      *rules.Registry[rules.BodyRule]
}

type Result struct {
	// Units are sorted by path.
	Units []Unit
	// Warnings are recoverable problems, such as a rule fallback.
	Warnings []error
	Failures []*UnitError
	Metadata *metadata.Result
}

// Err joins the unit failures, nil when there are none.
func (r *Result) Err() error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Run executes one generation run. Load, consistency and rule resolution
// errors abort it and return no result; failures of single units are
// collected in the result instead.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	log := logr.FromContextOrDiscard(ctx).WithName("generate")

	if err := module.CheckImportPath(cfg.BasePackage); err != nil {
		return nil, fmt.Errorf("generate: invalid base package: %w", err)
	}
	root := cfg.Root
	if root == nil {
		var err error
		root, err = spec.Load(ctx, cfg.Input, cfg.LoadOptions...)
		if err != nil {
			return nil, err
		}
	}

	opts := []metadata.Option{
		metadata.WithGroupBy(cfg.GroupBy),
		metadata.WithMediaTypeFilter(cfg.MediaTypeFilter),
		metadata.WithDefaultMediaType(cfg.DefaultMediaType),
	}
	if cfg.BasePath != nil {
		opts = append(opts, metadata.WithBasePath(*cfg.BasePath))
	}
	meta, err := metadata.NewParser(cfg.BasePackage, opts...).Parse(ctx, root)
	if err != nil {
		return nil, err
	}

	res := &Result{Metadata: meta}
	policy := rules.Abort
	if cfg.Fallback {
		policy = rules.FallbackToDefault
	}
	controllers, bodies := cfg.Controllers, cfg.Bodies
	if controllers == nil {
		controllers = rules.Controllers
	}
	if bodies == nil {
		bodies = rules.Bodies
	}
	ctrlRule, err := resolve(controllers, cfg.ControllerRule, policy, res, log)
	if err != nil {
		return nil, err
	}
	bodyRule, err := resolve(bodies, cfg.BodyRule, policy, res, log)
	if err != nil {
		return nil, err
	}

	r := &run{
		log:      log,
		ctx:      rules.NewContext(codemodel.New(cfg.BasePackage), meta.Graph),
		bodyRule: bodyRule,
		byName:   meta.Bodies,
		bodies:   map[string]outcome{},
	}

	if cfg.Parallel > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Parallel)
		for _, c := range meta.Controllers {
			c := c
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				r.controller(c, ctrlRule)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for _, c := range meta.Controllers {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r.controller(c, ctrlRule)
		}
	}

	// Declared bodies no action uses are still generated.
	names := make([]string, len(meta.Bodies))
	for i, b := range meta.Bodies {
		names[i] = b.Name
	}
	for _, name := range meta.Graph.Order(names...) {
		if b := r.lookup(name); b != nil {
			_, _ = r.body(b)
		}
	}

	res.Units = r.units
	sort.Slice(res.Units, func(i, j int) bool { return res.Units[i].Path < res.Units[j].Path })
	res.Failures = r.failures
	sort.Slice(res.Failures, func(i, j int) bool {
		if res.Failures[i].Kind != res.Failures[j].Kind {
			return res.Failures[i].Kind < res.Failures[j].Kind
		}
		return res.Failures[i].Name < res.Failures[j].Name
	})
	log.V(1).Info("generation finished", "units", len(res.Units), "failures", len(res.Failures), "warnings", len(res.Warnings))
	return res, nil
}

func resolve[R any](reg *rules.Registry[R], id string, policy rules.Policy, res *Result, log logr.Logger) (R, error) {
	rule, err := reg.Resolve(id, policy)
	if err == nil {
		return rule, nil
	}
	var re *rules.ResolutionError
	if errors.As(err, &re) && re.Fallback != "" {
		log.V(1).Info("rule resolution failed, using the default rule", "kind", reg.Kind(), "rule", id, "default", re.Fallback, "error", err.Error())
		res.Warnings = append(res.Warnings, err)
		return rule, nil
	}
	return rule, err
}

type outcome struct {
	unit *Unit
	err  error
}

type run struct {
	log      logr.Logger
	ctx      *rules.Context
	bodyRule rules.BodyRule
	byName   []*metadata.Body // sorted by name

	flight singleflight.Group

	mu       sync.Mutex
	bodies   map[string]outcome
	units    []Unit
	failures []*UnitError
}

func (r *run) lookup(name string) *metadata.Body {
	i := sort.Search(len(r.byName), func(i int) bool { return r.byName[i].Name >= name })
	if i < len(r.byName) && r.byName[i].Name == name {
		return r.byName[i]
	}
	return nil
}

// body generates b once per run, however many controllers ask for it and
// from however many goroutines.
func (r *run) body(b *metadata.Body) (*Unit, error) {
	r.mu.Lock()
	o, done := r.bodies[b.Name]
	r.mu.Unlock()
	if done {
		return o.unit, o.err
	}
	v, _, _ := r.flight.Do(b.Name, func() (any, error) {
		r.mu.Lock()
		o, done := r.bodies[b.Name]
		r.mu.Unlock()
		if done {
			return o, nil
		}
		u, err := r.apply(KindBody, b.Name, func() (*codemodel.File, error) { return r.bodyRule.Apply(b, r.ctx) })
		o = outcome{unit: u, err: err}
		r.mu.Lock()
		r.bodies[b.Name] = o
		r.mu.Unlock()
		return o, nil
	})
	o = v.(outcome)
	return o.unit, o.err
}

func (r *run) controller(c *metadata.Controller, rule rules.ControllerRule) {
	var failed []string
	for _, b := range c.Bodies {
		if _, err := r.body(b); err != nil {
			failed = append(failed, b.Name)
		}
	}
	if len(failed) > 0 {
		r.fail(KindController, c.Name, fmt.Errorf("bodies failed: %v", failed))
		return
	}
	_, _ = r.apply(KindController, c.Name, func() (*codemodel.File, error) { return rule.Apply(c, r.ctx) })
}

// apply runs a rule, renders its file and records the unit or failure.
func (r *run) apply(kind Kind, name string, fn func() (*codemodel.File, error)) (*Unit, error) {
	f, err := fn()
	if err == nil && f == nil {
		err = errors.New("rule produced no file")
	}
	if err != nil {
		return nil, r.fail(kind, name, err)
	}
	src, err := f.Render()
	if err != nil {
		return nil, r.fail(kind, name, err)
	}
	u := Unit{Kind: kind, Name: f.ImportPath, Path: f.Path, Source: src, Seq: f.Seq()}
	if types := f.Types(); len(types) > 0 {
		u.Name = types[0].QualifiedName()
	}
	r.mu.Lock()
	r.units = append(r.units, u)
	r.mu.Unlock()
	r.log.V(1).Info("generated unit", "kind", string(kind), "name", u.Name, "path", u.Path)
	return &u, nil
}

func (r *run) fail(kind Kind, name string, err error) error {
	ue := &UnitError{Kind: kind, Name: name, Err: err}
	r.mu.Lock()
	r.failures = append(r.failures, ue)
	r.mu.Unlock()
	r.log.V(1).Info("unit failed", "kind", string(kind), "name", name, "error", err.Error())
	return ue
}
