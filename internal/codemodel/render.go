package codemodel

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/tools/imports"
)

// Header marks every rendered file as generated.
const Header = "// Code generated by raml2go. DO NOT EDIT."

// Render returns the gofmt-formatted source of f. Imports are grouped and
// sorted; unused ones are kept as registered.
func (f *File) Render() ([]byte, error) {
	f.model.mu.Lock()
	var b strings.Builder
	b.WriteString(Header + "\n\n")
	writeDoc(&b, f.Doc, "")
	b.WriteString("package " + f.Package + "\n")

	if len(f.imports) > 0 {
		paths := make([]string, 0, len(f.imports))
		for p := range f.imports {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		specs := make([]string, len(paths))
		for i, p := range paths {
			alias := f.imports[p]
			if alias == defaultName(p) {
				alias = ""
			}
			specs[i] = strings.TrimSpace(alias + " " + strconv.Quote(p))
		}
		if len(specs) == 1 {
			b.WriteString("\nimport " + specs[0] + "\n")
		} else {
			b.WriteString("\nimport (\n\t" + strings.Join(specs, "\n\t") + "\n)\n")
		}
	}
	for _, d := range f.decls {
		b.WriteString("\n")
		d.render(&b)
	}
	f.model.mu.Unlock()

	src := []byte(b.String())
	out, err := imports.Process(f.Path, src, &imports.Options{
		FormatOnly: true,
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
	})
	if err != nil {
		return nil, fmt.Errorf("codemodel: format %s: %w", f.Path, err)
	}
	return out, nil
}

// defaultName is the package name an import is referred to by without an
// alias, assuming it matches the last path element.
func defaultName(importPath string) string {
	if i := strings.LastIndex(importPath, "/"); i >= 0 {
		return importPath[i+1:]
	}
	return importPath
}
