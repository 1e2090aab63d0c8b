// Package codemodel is the shared builder rules write generated Go into.
//
// A Model only grows: files, types, fields and methods can be added but
// never removed or replaced, and every file records the order in which it
// was created. Rules running in parallel share one Model; it serializes
// every mutation.
package codemodel

import (
	"fmt"
	"path"
	"sort"
	"sync"
)

type Model struct {
	mu     sync.Mutex
	module string
	files  map[string]*File
	types  map[string]*Type // by "<import path>.<Name>"
	seq    int
}

// New returns an empty model for code rooted at the module import path.
func New(module string) *Model {
	return &Model{
		module: module,
		files:  map[string]*File{},
		types:  map[string]*Type{},
	}
}

func (m *Model) Module() string { return m.module }

// ImportPath returns the import path of the package in dir below the module.
func (m *Model) ImportPath(dir string) string {
	if dir == "" || dir == "." {
		return m.module
	}
	return m.module + "/" + dir
}

// NewFile adds an empty file at rel, a slash separated path below the module
// root. The package name is the last element of its directory.
func (m *Model) NewFile(rel string) (*File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.files[rel]; exists {
		return nil, fmt.Errorf("codemodel: file %s already exists", rel)
	}
	dir := path.Dir(rel)
	pkg := path.Base(dir)
	if dir == "." {
		pkg = path.Base(m.module)
	}
	m.seq++
	f := &File{
		Path:       rel,
		Package:    pkg,
		ImportPath: m.ImportPath(dir),
		model:      m,
		seq:        m.seq,
		imports:    map[string]string{},
		aliases:    map[string]string{},
	}
	m.files[rel] = f
	return f, nil
}

// File returns the file at rel.
func (m *Model) File(rel string) (*File, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[rel]
	return f, ok
}

// Files returns every file in creation order.
func (m *Model) Files() []*File {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*File, 0, len(m.files))
	for _, f := range m.files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// LookupType finds a type by the import path of its package and its name.
func (m *Model) LookupType(importPath, name string) (*Type, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.types[importPath+"."+name]
	return t, ok
}

func (m *Model) register(t *Type) error {
	key := t.file.ImportPath + "." + t.Name
	if _, exists := m.types[key]; exists {
		return fmt.Errorf("codemodel: type %s already defined", key)
	}
	m.types[key] = t
	return nil
}
