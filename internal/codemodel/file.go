package codemodel

import (
	"fmt"
	"go/token"
	"path"
	"strconv"
	"strings"
)

// File is one generated Go source file.
type File struct {
	Path       string // slash separated, below the module root
	Package    string
	ImportPath string
	Doc        string

	model   *Model
	seq     int
	imports map[string]string // import path -> alias
	aliases map[string]string // alias -> import path
	decls   []decl
}

type decl interface {
	render(b *strings.Builder)
}

// Seq is the position of the file in creation order, starting at 1.
func (f *File) Seq() int { return f.seq }

// Import registers an import and returns the name to qualify its
// identifiers with. Clashing names get a numeric suffix; importing the
// file's own package returns "".
func (f *File) Import(importPath string) string {
	f.model.mu.Lock()
	defer f.model.mu.Unlock()
	if importPath == "" || importPath == f.ImportPath {
		return ""
	}
	if alias, ok := f.imports[importPath]; ok {
		return alias
	}
	base := strings.NewReplacer("-", "_", ".", "_").Replace(path.Base(importPath))
	if token.IsKeyword(base) || !token.IsIdentifier(base) {
		base = "pkg_" + base
	}
	alias := base
	for i := 2; ; i++ {
		if _, taken := f.aliases[alias]; !taken {
			break
		}
		alias = base + strconv.Itoa(i)
	}
	f.imports[importPath] = alias
	f.aliases[alias] = importPath
	return alias
}

// Qualify returns name as seen from f, importing its package when needed.
func (f *File) Qualify(importPath, name string) string {
	if alias := f.Import(importPath); alias != "" {
		return alias + "." + name
	}
	return name
}

// AddType adds t to the file and registers it with the model.
func (f *File) AddType(t *Type) (*Type, error) {
	f.model.mu.Lock()
	defer f.model.mu.Unlock()
	if t.Name == "" {
		return nil, fmt.Errorf("codemodel: %s: type without a name", f.Path)
	}
	t.file = f
	if err := f.model.register(t); err != nil {
		return nil, err
	}
	f.decls = append(f.decls, t)
	return t, nil
}

// AddFunc adds a top-level function.
func (f *File) AddFunc(fn *Func) {
	f.model.mu.Lock()
	defer f.model.mu.Unlock()
	f.decls = append(f.decls, fn)
}

// AddVar adds a package-level var declaration, e.g. an interface assertion.
func (f *File) AddVar(name, typ, value string) {
	f.model.mu.Lock()
	defer f.model.mu.Unlock()
	f.decls = append(f.decls, varDecl{name: name, typ: typ, value: value})
}

// Types returns the types declared in f, in order.
func (f *File) Types() []*Type {
	f.model.mu.Lock()
	defer f.model.mu.Unlock()
	var out []*Type
	for _, d := range f.decls {
		if t, ok := d.(*Type); ok {
			out = append(out, t)
		}
	}
	return out
}

type varDecl struct{ name, typ, value string }

func (v varDecl) render(b *strings.Builder) {
	b.WriteString("var " + v.name)
	if v.typ != "" {
		b.WriteString(" " + v.typ)
	}
	if v.value != "" {
		b.WriteString(" = " + v.value)
	}
	b.WriteString("\n")
}
