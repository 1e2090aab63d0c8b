package codemodel

import (
	"fmt"
	"strings"
)

type TypeKind int

const (
	Struct TypeKind = iota
	Interface
	// Defined is a named type over another type, e.g. "type Tags []string".
	Defined
)

type Type struct {
	Name       string
	Doc        string
	Kind       TypeKind
	Underlying string // for Defined
	Fields     []*Field
	Methods    []*Func // interface methods, or methods on the type

	file *File
}

type Field struct {
	Name string
	Type string
	Tag  string
	Doc  string
}

type Param struct {
	Name string
	Type string
}

// Func is a function or method. Receiver is empty for functions and for
// interface methods.
type Func struct {
	Name     string
	Doc      string
	Receiver string
	Params   []Param
	Results  []string
	Body     string
}

// File returns the file t is declared in, nil before it is added.
func (t *Type) File() *File { return t.file }

// QualifiedName is "<import path>.<Name>".
func (t *Type) QualifiedName() string {
	if t.file == nil {
		return t.Name
	}
	return t.file.ImportPath + "." + t.Name
}

// AddField appends a field. Field names are unique within a type.
func (t *Type) AddField(f *Field) error {
	unlock := t.lock()
	defer unlock()
	for _, existing := range t.Fields {
		if existing.Name == f.Name {
			return fmt.Errorf("codemodel: %s already has field %s", t.Name, f.Name)
		}
	}
	t.Fields = append(t.Fields, f)
	return nil
}

// AddMethod appends a method. Method names are unique within a type.
func (t *Type) AddMethod(fn *Func) error {
	unlock := t.lock()
	defer unlock()
	for _, existing := range t.Methods {
		if existing.Name == fn.Name {
			return fmt.Errorf("codemodel: %s already has method %s", t.Name, fn.Name)
		}
	}
	t.Methods = append(t.Methods, fn)
	return nil
}

// Method returns the named method or nil.
func (t *Type) Method(name string) *Func {
	unlock := t.lock()
	defer unlock()
	for _, fn := range t.Methods {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

func (t *Type) lock() func() {
	if t.file == nil {
		return func() {}
	}
	mu := &t.file.model.mu
	mu.Lock()
	return mu.Unlock
}

func (t *Type) render(b *strings.Builder) {
	writeDoc(b, t.Doc, "")
	switch t.Kind {
	case Defined:
		fmt.Fprintf(b, "type %s %s\n", t.Name, t.Underlying)
	case Interface:
		fmt.Fprintf(b, "type %s interface {\n", t.Name)
		for i, m := range t.Methods {
			if i > 0 && m.Doc != "" {
				b.WriteString("\n")
			}
			writeDoc(b, m.Doc, "\t")
			fmt.Fprintf(b, "\t%s%s\n", m.Name, m.signature())
		}
		b.WriteString("}\n")
		return
	default:
		fmt.Fprintf(b, "type %s struct {\n", t.Name)
		for _, f := range t.Fields {
			writeDoc(b, f.Doc, "\t")
			fmt.Fprintf(b, "\t%s %s", f.Name, f.Type)
			if f.Tag != "" {
				fmt.Fprintf(b, " `%s`", f.Tag)
			}
			b.WriteString("\n")
		}
		b.WriteString("}\n")
	}
	for _, m := range t.Methods {
		b.WriteString("\n")
		m.render(b)
	}
}

func (fn *Func) signature() string {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = strings.TrimSpace(p.Name + " " + p.Type)
	}
	sig := "(" + strings.Join(params, ", ") + ")"
	switch len(fn.Results) {
	case 0:
	case 1:
		sig += " " + fn.Results[0]
	default:
		sig += " (" + strings.Join(fn.Results, ", ") + ")"
	}
	return sig
}

func (fn *Func) render(b *strings.Builder) {
	writeDoc(b, fn.Doc, "")
	b.WriteString("func ")
	if fn.Receiver != "" {
		b.WriteString("(" + fn.Receiver + ") ")
	}
	b.WriteString(fn.Name + fn.signature() + " {\n")
	if body := strings.TrimSpace(fn.Body); body != "" {
		b.WriteString(body + "\n")
	}
	b.WriteString("}\n")
}

func writeDoc(b *strings.Builder, doc, indent string) {
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return
	}
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			b.WriteString(indent + "//\n")
			continue
		}
		b.WriteString(indent + "// " + line + "\n")
	}
}
